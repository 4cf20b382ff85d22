package model

import "context"

// ThreadStore is the persistence boundary for threads. Each write is atomic
// for the row or thread it touches.
type ThreadStore interface {
	ListThreads(ctx context.Context) ([]ThreadSummary, error)
	CreateThread(ctx context.Context, modelName string) (string, error)
	GetThread(ctx context.Context, id string) (*Thread, error)
	AddMessage(ctx context.Context, threadID string, msg Message) error
	// ReplaceMessages swaps a thread's whole message list in one transaction.
	ReplaceMessages(ctx context.Context, threadID string, msgs []Message) error
	UpdateThreadTitle(ctx context.Context, threadID, title string) error
	DeleteThread(ctx context.Context, threadID string) error
}

// Recorder receives every message the agent loop appends, in order.
type Recorder interface {
	Record(ctx context.Context, msg Message) error
}

// RecorderFunc adapts a function to Recorder.
type RecorderFunc func(ctx context.Context, msg Message) error

func (f RecorderFunc) Record(ctx context.Context, msg Message) error {
	return f(ctx, msg)
}

// ThreadRecorder persists appended messages to one thread. System messages
// are never stored: the prompt comes from configuration on every load.
func ThreadRecorder(store ThreadStore, threadID string) Recorder {
	return RecorderFunc(func(ctx context.Context, msg Message) error {
		if msg.Role == RoleSystem {
			return nil
		}
		if err := store.AddMessage(ctx, threadID, msg); err != nil {
			return NewError(KindPersistence, "save message", err)
		}
		return nil
	})
}
