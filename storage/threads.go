// Package storage persists threads and their messages in SQLite.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"agentui/model"
)

// Fixed-width UTC timestamps sort correctly as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ThreadStorage is a model.ThreadStore backed by SQLite. Every write runs
// in its own transaction.
type ThreadStorage struct {
	db  *sql.DB
	now func() time.Time
}

// NewThreadStorage opens (or creates) <dataDir>/threads.db.
func NewThreadStorage(dataDir string) (*ThreadStorage, error) {
	return OpenThreadStorage(filepath.Join(dataDir, "threads.db"))
}

// OpenThreadStorage opens the database at dbPath.
func OpenThreadStorage(dbPath string) (*ThreadStorage, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection serializes writers and avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &ThreadStorage{db: db, now: time.Now}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return s, nil
}

func (s *ThreadStorage) Close() error {
	return s.db.Close()
}

func (s *ThreadStorage) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS threads (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL DEFAULT '',
		model TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		thread_id TEXT NOT NULL REFERENCES threads(id),
		role TEXT NOT NULL,
		content TEXT NOT NULL DEFAULT '',
		tool_calls TEXT NOT NULL DEFAULT '',
		tool_call_id TEXT NOT NULL DEFAULT '',
		tool_name TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_messages_thread ON messages(thread_id, id);
	CREATE INDEX IF NOT EXISTS idx_threads_updated ON threads(updated_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// ListThreads returns all threads, most recently updated first.
func (s *ThreadStorage) ListThreads(ctx context.Context) ([]model.ThreadSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.title, t.model, t.created_at, t.updated_at,
			(SELECT COUNT(*) FROM messages m WHERE m.thread_id = t.id)
		FROM threads t
		ORDER BY t.updated_at DESC, t.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list threads: %w", err)
	}
	defer rows.Close()

	var threads []model.ThreadSummary
	for rows.Next() {
		var t model.ThreadSummary
		var created, updated string
		if err := rows.Scan(&t.ID, &t.Title, &t.Model, &created, &updated, &t.MessageCount); err != nil {
			return nil, fmt.Errorf("failed to scan thread: %w", err)
		}
		t.CreatedAt = parseTime(created)
		t.UpdatedAt = parseTime(updated)
		threads = append(threads, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list threads: %w", err)
	}
	return threads, nil
}

// CreateThread inserts an empty thread and returns its id.
func (s *ThreadStorage) CreateThread(ctx context.Context, modelName string) (string, error) {
	id := uuid.New().String()
	now := s.now().UTC().Format(timeLayout)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO threads (id, title, model, created_at, updated_at) VALUES (?, '', ?, ?, ?)`,
		id, modelName, now, now)
	if err != nil {
		return "", fmt.Errorf("failed to create thread: %w", err)
	}
	return id, nil
}

// GetThread loads a thread with all of its messages in insertion order.
func (s *ThreadStorage) GetThread(ctx context.Context, id string) (*model.Thread, error) {
	t := &model.Thread{ID: id}
	var created, updated string
	err := s.db.QueryRowContext(ctx,
		`SELECT title, model, created_at, updated_at FROM threads WHERE id = ?`, id,
	).Scan(&t.Title, &t.Model, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("thread %s: %w", id, model.ErrThreadNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load thread: %w", err)
	}
	t.CreatedAt = parseTime(created)
	t.UpdatedAt = parseTime(updated)

	rows, err := s.db.QueryContext(ctx, `
		SELECT role, content, tool_calls, tool_call_id, tool_name, created_at
		FROM messages WHERE thread_id = ? ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var msg model.Message
		var toolCalls, ts string
		if err := rows.Scan(&msg.Role, &msg.Content, &toolCalls, &msg.ToolCallID, &msg.ToolName, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		if toolCalls != "" {
			if err := json.Unmarshal([]byte(toolCalls), &msg.ToolCalls); err != nil {
				return nil, fmt.Errorf("failed to decode tool calls: %w", err)
			}
		}
		msg.Timestamp = parseTime(ts)
		t.Messages = append(t.Messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}
	return t, nil
}

// AddMessage appends one message to a thread.
func (s *ThreadStorage) AddMessage(ctx context.Context, threadID string, msg model.Message) error {
	return s.AddMessages(ctx, threadID, []model.Message{msg})
}

// AddMessages appends messages to a thread in one transaction: either all
// of them are stored or none.
func (s *ThreadStorage) AddMessages(ctx context.Context, threadID string, msgs []model.Message) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := s.now().UTC()
	res, err := tx.ExecContext(ctx, `UPDATE threads SET updated_at = ? WHERE id = ?`, now.Format(timeLayout), threadID)
	if err != nil {
		return fmt.Errorf("failed to touch thread: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("thread %s: %w", threadID, model.ErrThreadNotFound)
	}

	if err := insertMessages(ctx, tx, threadID, msgs, now); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit messages: %w", err)
	}
	return nil
}

// ReplaceMessages rewrites a thread's message list in one transaction. It is
// used to persist a repaired history, so the thread's updated_at is kept.
func (s *ThreadStorage) ReplaceMessages(ctx context.Context, threadID string, msgs []model.Message) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM threads WHERE id = ?`, threadID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to look up thread: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("thread %s: %w", threadID, model.ErrThreadNotFound)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE thread_id = ?`, threadID); err != nil {
		return fmt.Errorf("failed to clear messages: %w", err)
	}
	if err := insertMessages(ctx, tx, threadID, msgs, s.now().UTC()); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit messages: %w", err)
	}
	return nil
}

func insertMessages(ctx context.Context, tx *sql.Tx, threadID string, msgs []model.Message, now time.Time) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO messages (thread_id, role, content, tool_calls, tool_call_id, tool_name, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, msg := range msgs {
		toolCalls := ""
		if len(msg.ToolCalls) > 0 {
			data, err := json.Marshal(msg.ToolCalls)
			if err != nil {
				return fmt.Errorf("failed to encode tool calls: %w", err)
			}
			toolCalls = string(data)
		}
		ts := msg.Timestamp
		if ts.IsZero() {
			ts = now
		}
		if _, err := stmt.ExecContext(ctx, threadID, msg.Role, msg.Content, toolCalls,
			msg.ToolCallID, msg.ToolName, ts.UTC().Format(timeLayout)); err != nil {
			return fmt.Errorf("failed to insert message: %w", err)
		}
	}
	return nil
}

// UpdateThreadTitle renames a thread.
func (s *ThreadStorage) UpdateThreadTitle(ctx context.Context, threadID, title string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE threads SET title = ? WHERE id = ?`, title, threadID)
	if err != nil {
		return fmt.Errorf("failed to update title: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("thread %s: %w", threadID, model.ErrThreadNotFound)
	}
	return nil
}

// DeleteThread removes a thread and its messages.
func (s *ThreadStorage) DeleteThread(ctx context.Context, threadID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE thread_id = ?`, threadID); err != nil {
		return fmt.Errorf("failed to delete messages: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM threads WHERE id = ?`, threadID)
	if err != nil {
		return fmt.Errorf("failed to delete thread: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("thread %s: %w", threadID, model.ErrThreadNotFound)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit delete: %w", err)
	}
	return nil
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
