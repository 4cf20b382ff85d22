package model

import "time"

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is one turn of a conversation. ToolCalls is only set on assistant
// messages; ToolCallID and ToolName only on tool messages.
type Message struct {
	Role       string
	Content    string // May be empty on assistant turns that only request tools
	ToolCalls  []ToolCall
	ToolCallID string
	ToolName   string
	Rendered   string // Cached rendered markdown, never persisted
	Timestamp  time.Time
}

// ToolCall is a request from the model to run a named tool. Arguments holds
// the raw JSON exactly as the model produced it.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Usage is token telemetry reported by a provider. It is displayed, never
// used for control decisions.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
}

func (u *Usage) Add(other Usage) {
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
}

func (u Usage) Total() int64 {
	return u.InputTokens + u.OutputTokens
}

// Thread is a persisted conversation.
type Thread struct {
	ID        string
	Title     string // Empty until generated
	Model     string
	CreatedAt time.Time
	UpdatedAt time.Time
	Messages  []Message
}

// ThreadSummary is the list view of a thread.
type ThreadSummary struct {
	ID           string
	Title        string
	Model        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	MessageCount int
}

// DisplayTitle falls back to a placeholder for threads whose title has not
// been generated yet.
func (t ThreadSummary) DisplayTitle() string {
	if t.Title == "" {
		return "Untitled thread"
	}
	return t.Title
}

// ModelInfo describes a model offered by a provider.
type ModelInfo struct {
	Name         string // Display name (vendor prefix stripped for OpenRouter)
	Size         int64
	Provider     string // Provider ID: "ollama", "openrouter", "anthropic", "openai"
	InternalName string // Full API name
}

// CloneHistory copies a history so a worker can append to it without
// touching the caller's slice.
func CloneHistory(history []Message) []Message {
	out := make([]Message, len(history))
	for i, msg := range history {
		out[i] = msg
		if msg.ToolCalls != nil {
			out[i].ToolCalls = append([]ToolCall(nil), msg.ToolCalls...)
		}
	}
	return out
}
