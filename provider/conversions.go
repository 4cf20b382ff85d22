package provider

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/google/uuid"
	"github.com/ollama/ollama/api"
	"github.com/openai/openai-go/v3"

	"agentui/model"
)

// toolArguments returns the raw arguments as valid JSON. Models occasionally
// emit nothing or garbage; the providers reject both when replayed.
func toolArguments(raw string) json.RawMessage {
	if raw == "" || !json.Valid([]byte(raw)) {
		return json.RawMessage("{}")
	}
	return json.RawMessage(raw)
}

// ConvertToOllamaMessages converts a completion request to Ollama messages.
// The system prompt goes first as a system-role message.
func ConvertToOllamaMessages(system string, messages []model.Message) []api.Message {
	result := make([]api.Message, 0, len(messages)+1)
	if system != "" {
		result = append(result, api.Message{Role: model.RoleSystem, Content: system})
	}
	for _, msg := range messages {
		switch msg.Role {
		case model.RoleSystem:
			continue
		case model.RoleAssistant:
			result = append(result, api.Message{
				Role:      model.RoleAssistant,
				Content:   msg.Content,
				ToolCalls: ConvertToOllamaToolCalls(msg.ToolCalls),
			})
		case model.RoleTool:
			result = append(result, api.Message{
				Role:     model.RoleTool,
				Content:  msg.Content,
				ToolName: msg.ToolName,
			})
		default:
			result = append(result, api.Message{Role: model.RoleUser, Content: msg.Content})
		}
	}
	return result
}

// ConvertToOllamaToolCalls converts tool calls for replay to Ollama. Returns
// nil for an empty input.
func ConvertToOllamaToolCalls(calls []model.ToolCall) []api.ToolCall {
	if len(calls) == 0 {
		return nil
	}

	result := make([]api.ToolCall, len(calls))
	for i, call := range calls {
		var args api.ToolCallFunctionArguments
		if err := json.Unmarshal(toolArguments(call.Arguments), &args); err != nil || args == nil {
			args = api.ToolCallFunctionArguments{}
		}
		result[i] = api.ToolCall{
			Function: api.ToolCallFunction{
				Index:     i,
				Name:      call.Name,
				Arguments: args,
			},
		}
	}
	return result
}

// ConvertFromOllamaToolCalls converts Ollama tool calls to model tool calls.
// Ollama does not assign call ids, so each call gets a fresh one.
func ConvertFromOllamaToolCalls(calls []api.ToolCall) []model.ToolCall {
	if len(calls) == 0 {
		return nil
	}

	result := make([]model.ToolCall, len(calls))
	for i, call := range calls {
		args := "{}"
		if len(call.Function.Arguments) > 0 {
			if data, err := json.Marshal(call.Function.Arguments); err == nil {
				args = string(data)
			}
		}
		result[i] = model.ToolCall{
			ID:        "call_" + uuid.NewString(),
			Name:      call.Function.Name,
			Arguments: args,
		}
	}
	return result
}

// ConvertToOpenAIMessages converts a completion request to OpenAI chat
// messages. Assistant tool calls and tool results keep their call ids.
func ConvertToOpenAIMessages(system string, messages []model.Message) []openai.ChatCompletionMessageParamUnion {
	result := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages)+1)
	if system != "" {
		result = append(result, openai.SystemMessage(system))
	}

	for _, msg := range messages {
		switch msg.Role {
		case model.RoleSystem:
			continue
		case model.RoleAssistant:
			if len(msg.ToolCalls) == 0 {
				result = append(result, openai.AssistantMessage(msg.Content))
				continue
			}
			assistant := openai.ChatCompletionAssistantMessageParam{
				ToolCalls: make([]openai.ChatCompletionMessageToolCallUnionParam, len(msg.ToolCalls)),
			}
			if msg.Content != "" {
				assistant.Content.OfString = openai.String(msg.Content)
			}
			for i, call := range msg.ToolCalls {
				assistant.ToolCalls[i] = openai.ChatCompletionMessageToolCallUnionParam{
					OfFunction: &openai.ChatCompletionMessageFunctionToolCallParam{
						ID: call.ID,
						Function: openai.ChatCompletionMessageFunctionToolCallFunctionParam{
							Name:      call.Name,
							Arguments: string(toolArguments(call.Arguments)),
						},
					},
				}
			}
			result = append(result, openai.ChatCompletionMessageParamUnion{OfAssistant: &assistant})
		case model.RoleTool:
			result = append(result, openai.ToolMessage(msg.Content, msg.ToolCallID))
		default:
			result = append(result, openai.UserMessage(msg.Content))
		}
	}
	return result
}

// ConvertFromOpenAIToolCalls converts the accumulated tool calls of a chat
// completion message.
func ConvertFromOpenAIToolCalls(calls []openai.ChatCompletionMessageToolCallUnion) []model.ToolCall {
	if len(calls) == 0 {
		return nil
	}

	result := make([]model.ToolCall, 0, len(calls))
	for _, call := range calls {
		if call.Function.Name == "" {
			continue
		}
		result = append(result, model.ToolCall{
			ID:        call.ID,
			Name:      call.Function.Name,
			Arguments: call.Function.Arguments,
		})
	}
	return result
}

// FlattenToolTurns rewrites earlier tool calls and results as plain text.
// Anthropic rejects tool_use and tool_result blocks in a request that
// defines no tools, which is the case in plain chat mode.
func FlattenToolTurns(messages []model.Message) []model.Message {
	out := make([]model.Message, 0, len(messages))
	for _, msg := range messages {
		switch {
		case msg.Role == model.RoleAssistant && len(msg.ToolCalls) > 0:
			var b strings.Builder
			b.WriteString(msg.Content)
			for _, call := range msg.ToolCalls {
				if b.Len() > 0 {
					b.WriteString("\n")
				}
				fmt.Fprintf(&b, "[called tool %s with %s]", call.Name, toolArguments(call.Arguments))
			}
			out = append(out, model.Message{Role: model.RoleAssistant, Content: b.String(), Timestamp: msg.Timestamp})
		case msg.Role == model.RoleTool:
			out = append(out, model.Message{
				Role:      model.RoleUser,
				Content:   fmt.Sprintf("[result of tool %s]\n%s", msg.ToolName, msg.Content),
				Timestamp: msg.Timestamp,
			})
		default:
			out = append(out, msg)
		}
	}
	return out
}

// ConvertToAnthropicMessages converts messages to Anthropic params. Anthropic
// requires alternating roles and wants every tool result of one turn in a
// single user message, so consecutive messages of the same role are merged.
func ConvertToAnthropicMessages(messages []model.Message) []anthropic.MessageParam {
	result := make([]anthropic.MessageParam, 0, len(messages))

	push := func(role anthropic.MessageParamRole, blocks []anthropic.ContentBlockParamUnion) {
		if len(blocks) == 0 {
			return
		}
		if n := len(result); n > 0 && result[n-1].Role == role {
			result[n-1].Content = append(result[n-1].Content, blocks...)
			return
		}
		result = append(result, anthropic.MessageParam{Role: role, Content: blocks})
	}

	for _, msg := range messages {
		switch msg.Role {
		case model.RoleSystem:
			continue
		case model.RoleAssistant:
			var blocks []anthropic.ContentBlockParamUnion
			if msg.Content != "" {
				blocks = append(blocks, anthropic.NewTextBlock(msg.Content))
			}
			for _, call := range msg.ToolCalls {
				blocks = append(blocks, anthropic.NewToolUseBlock(call.ID, toolArguments(call.Arguments), call.Name))
			}
			push(anthropic.MessageParamRoleAssistant, blocks)
		case model.RoleTool:
			push(anthropic.MessageParamRoleUser, []anthropic.ContentBlockParamUnion{
				anthropic.NewToolResultBlock(msg.ToolCallID, msg.Content, model.IsErrorPayload(msg.Content)),
			})
		default:
			if msg.Content == "" {
				continue
			}
			push(anthropic.MessageParamRoleUser, []anthropic.ContentBlockParamUnion{
				anthropic.NewTextBlock(msg.Content),
			})
		}
	}
	return result
}

// ConvertFromAnthropicContent splits a response into its text and tool calls.
func ConvertFromAnthropicContent(content []anthropic.ContentBlockUnion) (string, []model.ToolCall) {
	var text string
	var calls []model.ToolCall

	for _, block := range content {
		switch variant := block.AsAny().(type) {
		case anthropic.TextBlock:
			text += variant.Text
		case anthropic.ToolUseBlock:
			calls = append(calls, model.ToolCall{
				ID:        variant.ID,
				Name:      variant.Name,
				Arguments: string(toolArguments(string(variant.Input))),
			})
		}
	}
	return text, calls
}
