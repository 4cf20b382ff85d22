package model

import (
	"context"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
)

// Provider abstracts LLM provider implementations (Ollama, OpenAI, Anthropic,
// OpenRouter) using provider-agnostic types from the model layer.
//
// This interface is defined in the model package (not provider package) to avoid
// import cycles: provider implementations import model, and model uses the
// Provider interface without importing the provider package.
type Provider interface {
	// Complete runs a single model turn and returns either text, tool calls
	// or both.
	Complete(ctx context.Context, req CompletionRequest) (*Completion, error)

	// ListModels returns available models for this provider.
	ListModels(ctx context.Context) ([]ModelInfo, error)

	// GetModel returns the provider's default model (InternalName for API calls).
	GetModel() string

	// SetModel changes the provider's default model.
	SetModel(model string)

	// Ping checks if the provider is reachable.
	Ping(ctx context.Context) error
}

// CompletionRequest is one model call. Model overrides the provider's
// default when set, which keeps the session's selection out of the shared
// provider instance.
type CompletionRequest struct {
	Model    string
	System   string
	Messages []Message // Never contains system messages
	Tools    []mcptypes.Tool
}

type Completion struct {
	Text      string
	ToolCalls []ToolCall
	Usage     Usage
}

// ToolExecutor is the agent loop's view of the tool registry.
type ToolExecutor interface {
	// Tools lists descriptors in a stable order.
	Tools() []mcptypes.Tool

	// Execute runs the named tool with the raw JSON arguments from the model.
	Execute(ctx context.Context, name, rawArgs string) (string, error)
}
