package testutil

import (
	"time"

	mcptypes "github.com/mark3labs/mcp-go/mcp"

	"agentui/model"
)

// TestMessages returns a sample conversation for testing
func TestMessages() []model.Message {
	return []model.Message{
		{
			Role:      model.RoleUser,
			Content:   "Hello, how are you?",
			Timestamp: time.Now(),
		},
		{
			Role:      model.RoleAssistant,
			Content:   "I'm doing well, thank you!",
			Timestamp: time.Now(),
		},
		{
			Role:      model.RoleUser,
			Content:   "Can you help me with a task?",
			Timestamp: time.Now(),
		},
	}
}

// ToolConversation returns a complete tool round trip: the user asks, the
// assistant calls read_file, the tool answers, the assistant replies.
func ToolConversation() []model.Message {
	return []model.Message{
		{Role: model.RoleUser, Content: "What's in notes.txt?"},
		{Role: model.RoleAssistant, ToolCalls: []model.ToolCall{
			{ID: "call_1", Name: "read_file", Arguments: `{"path":"notes.txt"}`},
		}},
		{Role: model.RoleTool, ToolCallID: "call_1", ToolName: "read_file", Content: "buy milk"},
		{Role: model.RoleAssistant, Content: "It says: buy milk."},
	}
}

// SingleUserMessage returns a single user message for simple tests
func SingleUserMessage(content string) []model.Message {
	return []model.Message{
		{
			Role:      model.RoleUser,
			Content:   content,
			Timestamp: time.Now(),
		},
	}
}

// TestMCPTools returns sample MCP tools for testing
func TestMCPTools() []mcptypes.Tool {
	return []mcptypes.Tool{
		{
			Name:        "get_weather",
			Description: "Get the current weather for a location",
			InputSchema: mcptypes.ToolInputSchema{
				Type: "object",
				Properties: map[string]any{
					"location": map[string]any{
						"type":        "string",
						"description": "The city and state, e.g. San Francisco, CA",
					},
				},
				Required: []string{"location"},
			},
		},
		{
			Name:        "calculate",
			Description: "Perform a mathematical calculation",
			InputSchema: mcptypes.ToolInputSchema{
				Type: "object",
				Properties: map[string]any{
					"expression": map[string]any{
						"type":        "string",
						"description": "The mathematical expression to evaluate",
					},
				},
				Required: []string{"expression"},
			},
		},
	}
}

// ToolCallCompletion is a model turn requesting one tool call.
func ToolCallCompletion(id, name, args string) *model.Completion {
	return &model.Completion{
		ToolCalls: []model.ToolCall{{ID: id, Name: name, Arguments: args}},
		Usage:     model.Usage{InputTokens: 20, OutputTokens: 8},
	}
}

// TextCompletion is a final model turn.
func TextCompletion(text string) *model.Completion {
	return &model.Completion{Text: text, Usage: model.Usage{InputTokens: 12, OutputTokens: 6}}
}

// EmptyMessages returns an empty message slice for edge case testing
func EmptyMessages() []model.Message {
	return []model.Message{}
}

// SystemMessage returns a system message for testing
func SystemMessage(content string) model.Message {
	return model.Message{
		Role:      model.RoleSystem,
		Content:   content,
		Timestamp: time.Now(),
	}
}
