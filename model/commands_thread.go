package model

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"agentui/config"
)

const storeTimeout = 10 * time.Second

// FetchThreadList loads thread summaries. It returns nil while a fetch is
// already in flight; the guard is released by FinishThreadList.
func (m *Model) FetchThreadList() tea.Cmd {
	if m.Store == nil || !m.ListGuard.TryAcquire() {
		return nil
	}
	store := m.Store
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()

		threads, err := store.ListThreads(ctx)
		if err != nil {
			return ThreadsListMsg{Err: NewError(KindPersistence, "list threads", err)}
		}
		return ThreadsListMsg{Threads: threads}
	}
}

// FinishThreadList applies a list result. Failures degrade to an empty list.
func (m *Model) FinishThreadList(msg ThreadsListMsg) {
	m.ListGuard.Release()
	if msg.Err != nil {
		if config.DebugLog != nil {
			config.DebugLog.Error("failed to list threads", "err", msg.Err)
		}
		m.Threads = nil
		m.StatusError = Annotate(msg.Err)
	} else {
		m.Threads = msg.Threads
		m.StatusError = ""
	}
	if m.State == StateThreadLoading {
		m.State = StateThreadList
	}
}

// CreateThread creates a thread for the selected model. Repeated calls while
// creation is in flight return nil and create nothing.
func (m *Model) CreateThread() tea.Cmd {
	if m.Store == nil || !m.CreateGuard.TryAcquire() {
		return nil
	}
	store := m.Store
	modelName := m.Selected.Model
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()

		id, err := store.CreateThread(ctx, modelName)
		if err != nil {
			return ThreadCreatedMsg{Err: NewError(KindPersistence, "create thread", err)}
		}
		now := time.Now()
		return ThreadCreatedMsg{Thread: &Thread{ID: id, Model: modelName, CreatedAt: now, UpdatedAt: now}}
	}
}

// FinishCreateThread enters the new thread, or reports the failure and
// stays on the current screen.
func (m *Model) FinishCreateThread(msg ThreadCreatedMsg) {
	m.CreateGuard.Release()
	if msg.Err != nil {
		if config.DebugLog != nil {
			config.DebugLog.Error("failed to create thread", "err", msg.Err)
		}
		m.StatusError = Annotate(msg.Err)
		return
	}
	m.EnterThread(msg.Thread)
}

// LoadThread reads a thread's full history for "continue".
func (m *Model) LoadThread(id string) tea.Cmd {
	if m.Store == nil || !m.LoadGuard.TryAcquire() {
		return nil
	}
	store := m.Store
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()

		thread, err := store.GetThread(ctx, id)
		if err != nil {
			return ThreadLoadedMsg{Err: NewError(KindPersistence, "load thread", err)}
		}

		repaired, changed := RepairStored(thread.Messages)
		if changed {
			if config.DebugLog != nil {
				config.DebugLog.Warn("repairing stored thread",
					"thread", id, "stored", len(thread.Messages), "kept", len(repaired))
			}
			if err := store.ReplaceMessages(ctx, id, repaired); err != nil {
				return ThreadLoadedMsg{Err: NewError(KindPersistence, "repair thread", err)}
			}
			thread.Messages = repaired
		}
		return ThreadLoadedMsg{Thread: thread}
	}
}

func (m *Model) FinishLoadThread(msg ThreadLoadedMsg) {
	m.LoadGuard.Release()
	if msg.Err != nil {
		if config.DebugLog != nil {
			config.DebugLog.Error("failed to load thread", "err", msg.Err)
		}
		m.StatusError = Annotate(msg.Err)
		if errors.Is(msg.Err, ErrThreadNotFound) {
			m.State = StateThreadLoading
		}
		return
	}
	m.EnterThread(msg.Thread)
}

// DeleteThread deletes a thread. Repeated calls while the delete is in
// flight return nil, so the store sees exactly one call.
func (m *Model) DeleteThread(id string) tea.Cmd {
	if m.Store == nil || !m.DeleteGuard.TryAcquire() {
		return nil
	}
	store := m.Store
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()

		if err := store.DeleteThread(ctx, id); err != nil {
			return ThreadDeletedMsg{ThreadID: id, Err: NewError(KindPersistence, "delete thread", err)}
		}
		return ThreadDeletedMsg{ThreadID: id}
	}
}

// FinishDeleteThread returns to the refreshed list after a successful
// delete. A failed delete keeps the user where they are.
func (m *Model) FinishDeleteThread(msg ThreadDeletedMsg) bool {
	m.DeleteGuard.Release()
	if msg.Err != nil {
		if config.DebugLog != nil {
			config.DebugLog.Error("failed to delete thread", "thread", msg.ThreadID, "err", msg.Err)
		}
		m.StatusError = Annotate(msg.Err)
		return false
	}
	if m.ThreadID == msg.ThreadID {
		m.LeaveThread()
	}
	m.StatusError = ""
	m.State = StateThreadLoading
	return true
}

// FinishTitle updates the cached title of the listed thread.
func (m *Model) FinishTitle(msg ThreadTitledMsg) {
	if msg.Err != nil {
		return
	}
	if m.ThreadID == msg.ThreadID {
		m.ThreadTitle = msg.Title
	}
	for i := range m.Threads {
		if m.Threads[i].ID == msg.ThreadID {
			m.Threads[i].Title = msg.Title
		}
	}
}
