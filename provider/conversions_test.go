package provider

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/ollama/ollama/api"
	"github.com/openai/openai-go/v3"

	"agentui/model"
	"agentui/provider/testutil"
)

func TestConvertToOllamaMessages(t *testing.T) {
	tests := []struct {
		name      string
		system    string
		input     []model.Message
		wantRoles []string
	}{
		{
			name:      "empty",
			input:     testutil.EmptyMessages(),
			wantRoles: []string{},
		},
		{
			name:      "system prompt goes first",
			system:    "be brief",
			input:     testutil.SingleUserMessage("hi"),
			wantRoles: []string{"system", "user"},
		},
		{
			name:      "stray system messages are dropped",
			input:     append([]model.Message{testutil.SystemMessage("old")}, testutil.SingleUserMessage("hi")...),
			wantRoles: []string{"user"},
		},
		{
			name:      "tool round trip",
			input:     testutil.ToolConversation(),
			wantRoles: []string{"user", "assistant", "tool", "assistant"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ConvertToOllamaMessages(tt.system, tt.input)
			if len(result) != len(tt.wantRoles) {
				t.Fatalf("len = %d, want %d", len(result), len(tt.wantRoles))
			}
			for i, msg := range result {
				if msg.Role != tt.wantRoles[i] {
					t.Errorf("message %d role = %q, want %q", i, msg.Role, tt.wantRoles[i])
				}
			}
		})
	}
}

func TestConvertToOllamaMessagesToolFields(t *testing.T) {
	result := ConvertToOllamaMessages("", testutil.ToolConversation())

	calls := result[1].ToolCalls
	if len(calls) != 1 || calls[0].Function.Name != "read_file" {
		t.Fatalf("tool calls = %+v", calls)
	}
	if calls[0].Function.Arguments["path"] != "notes.txt" {
		t.Errorf("arguments = %v", calls[0].Function.Arguments)
	}
	if result[2].ToolName != "read_file" || result[2].Content != "buy milk" {
		t.Errorf("tool message = %+v", result[2])
	}
}

func TestConvertToOllamaToolCallsBadArguments(t *testing.T) {
	calls := ConvertToOllamaToolCalls([]model.ToolCall{{ID: "c", Name: "x", Arguments: `{"broken`}})
	if len(calls) != 1 || calls[0].Function.Arguments == nil || len(calls[0].Function.Arguments) != 0 {
		t.Errorf("calls = %+v, want empty arguments", calls)
	}
	if ConvertToOllamaToolCalls(nil) != nil {
		t.Error("nil input should give nil")
	}
}

func TestConvertFromOllamaToolCalls(t *testing.T) {
	tests := []struct {
		name     string
		input    []api.ToolCall
		wantArgs []string
	}{
		{name: "nil", input: nil},
		{
			name: "single call",
			input: []api.ToolCall{{Function: api.ToolCallFunction{
				Name:      "read_file",
				Arguments: api.ToolCallFunctionArguments{"path": "a.txt"},
			}}},
			wantArgs: []string{`{"path":"a.txt"}`},
		},
		{
			name: "no arguments",
			input: []api.ToolCall{
				{Function: api.ToolCallFunction{Name: "list_directory"}},
				{Function: api.ToolCallFunction{Name: "list_directory"}},
			},
			wantArgs: []string{"{}", "{}"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ConvertFromOllamaToolCalls(tt.input)
			if len(result) != len(tt.wantArgs) {
				t.Fatalf("len = %d, want %d", len(result), len(tt.wantArgs))
			}
			seen := map[string]bool{}
			for i, call := range result {
				if call.Arguments != tt.wantArgs[i] {
					t.Errorf("call %d arguments = %s, want %s", i, call.Arguments, tt.wantArgs[i])
				}
				if !strings.HasPrefix(call.ID, "call_") || seen[call.ID] {
					t.Errorf("call %d id = %q, want unique call_ id", i, call.ID)
				}
				seen[call.ID] = true
			}
		})
	}
}

func TestConvertToOpenAIMessages(t *testing.T) {
	result := ConvertToOpenAIMessages("be brief", testutil.ToolConversation())
	if len(result) != 5 {
		t.Fatalf("len = %d, want 5", len(result))
	}

	if result[0].OfSystem == nil {
		t.Error("first message should be the system prompt")
	}
	if result[1].OfUser == nil {
		t.Error("second message should be the user")
	}

	assistant := result[2].OfAssistant
	if assistant == nil || len(assistant.ToolCalls) != 1 {
		t.Fatalf("assistant = %+v", assistant)
	}
	call := assistant.ToolCalls[0].OfFunction
	if call == nil || call.ID != "call_1" || call.Function.Name != "read_file" || call.Function.Arguments != `{"path":"notes.txt"}` {
		t.Errorf("tool call = %+v", call)
	}

	tool := result[3].OfTool
	if tool == nil || tool.ToolCallID != "call_1" {
		t.Errorf("tool message = %+v", tool)
	}
	if result[4].OfAssistant == nil {
		t.Error("final message should be assistant")
	}
}

func TestConvertFromOpenAIToolCalls(t *testing.T) {
	var calls []openai.ChatCompletionMessageToolCallUnion
	raw := `[
		{"id":"call_a","type":"function","function":{"name":"glob_files","arguments":"{\"pattern\":\"*.csv\"}"}},
		{"id":"call_b","type":"function","function":{"name":"","arguments":""}}
	]`
	if err := json.Unmarshal([]byte(raw), &calls); err != nil {
		t.Fatal(err)
	}

	result := ConvertFromOpenAIToolCalls(calls)
	if len(result) != 1 {
		t.Fatalf("len = %d, want 1 (nameless call dropped)", len(result))
	}
	if result[0] != (model.ToolCall{ID: "call_a", Name: "glob_files", Arguments: `{"pattern":"*.csv"}`}) {
		t.Errorf("call = %+v", result[0])
	}
}

func TestConvertToAnthropicMessagesMergesToolResults(t *testing.T) {
	messages := []model.Message{
		{Role: model.RoleUser, Content: "compare a and b"},
		{Role: model.RoleAssistant, Content: "Reading both.", ToolCalls: []model.ToolCall{
			{ID: "tu_1", Name: "read_file", Arguments: `{"path":"a"}`},
			{ID: "tu_2", Name: "read_file", Arguments: ``},
		}},
		{Role: model.RoleTool, ToolCallID: "tu_1", ToolName: "read_file", Content: "alpha"},
		{Role: model.RoleTool, ToolCallID: "tu_2", ToolName: "read_file", Content: model.ErrorPayload(errString("no such file"))},
		{Role: model.RoleAssistant, Content: "b is missing."},
	}

	result := ConvertToAnthropicMessages(messages)
	if len(result) != 4 {
		t.Fatalf("len = %d, want 4", len(result))
	}

	wantRoles := []anthropic.MessageParamRole{
		anthropic.MessageParamRoleUser,
		anthropic.MessageParamRoleAssistant,
		anthropic.MessageParamRoleUser,
		anthropic.MessageParamRoleAssistant,
	}
	for i, msg := range result {
		if msg.Role != wantRoles[i] {
			t.Errorf("message %d role = %q, want %q", i, msg.Role, wantRoles[i])
		}
	}

	if n := len(result[1].Content); n != 3 {
		t.Fatalf("assistant blocks = %d, want text + 2 tool_use", n)
	}
	if result[1].Content[0].OfText == nil || result[1].Content[1].OfToolUse == nil {
		t.Errorf("assistant blocks = %+v", result[1].Content)
	}
	if use := result[1].Content[2].OfToolUse; use == nil || use.ID != "tu_2" {
		t.Errorf("second tool_use = %+v", use)
	}

	results := result[2].Content
	if len(results) != 2 {
		t.Fatalf("tool results in one user message = %d, want 2", len(results))
	}
	first, second := results[0].OfToolResult, results[1].OfToolResult
	if first == nil || first.ToolUseID != "tu_1" || first.IsError.Value {
		t.Errorf("first result = %+v", first)
	}
	if second == nil || second.ToolUseID != "tu_2" || !second.IsError.Value {
		t.Errorf("second result = %+v, want error flag", second)
	}
}

func TestFlattenToolTurns(t *testing.T) {
	messages := []model.Message{
		{Role: model.RoleSystem, Content: "be helpful"},
		{Role: model.RoleUser, Content: "compare a and b"},
		{Role: model.RoleAssistant, Content: "Reading both.", ToolCalls: []model.ToolCall{
			{ID: "tu_1", Name: "read_file", Arguments: `{"path":"a"}`},
			{ID: "tu_2", Name: "read_file"},
		}},
		{Role: model.RoleTool, ToolCallID: "tu_1", ToolName: "read_file", Content: "alpha"},
		{Role: model.RoleTool, ToolCallID: "tu_2", ToolName: "read_file", Content: "beta"},
		{Role: model.RoleAssistant, Content: "They differ."},
		{Role: model.RoleUser, Content: "why?"},
	}

	flat := FlattenToolTurns(messages)
	if len(flat) != len(messages) {
		t.Fatalf("len = %d, want %d", len(flat), len(messages))
	}
	for i, msg := range flat {
		if msg.Role == model.RoleTool || len(msg.ToolCalls) > 0 || msg.ToolCallID != "" {
			t.Errorf("message %d still carries tool fields: %+v", i, msg)
		}
	}
	wantCall := "Reading both.\n[called tool read_file with {\"path\":\"a\"}]\n[called tool read_file with {}]"
	if flat[2].Content != wantCall {
		t.Errorf("assistant content = %q, want %q", flat[2].Content, wantCall)
	}
	if flat[3].Role != model.RoleUser || !strings.Contains(flat[3].Content, "alpha") {
		t.Errorf("tool result = %+v", flat[3])
	}
	if len(messages[2].ToolCalls) != 2 {
		t.Error("input was modified")
	}

	result := ConvertToAnthropicMessages(flat)
	wantRoles := []anthropic.MessageParamRole{
		anthropic.MessageParamRoleUser,
		anthropic.MessageParamRoleAssistant,
		anthropic.MessageParamRoleUser,
		anthropic.MessageParamRoleAssistant,
		anthropic.MessageParamRoleUser,
	}
	if len(result) != len(wantRoles) {
		t.Fatalf("anthropic messages = %d, want %d", len(result), len(wantRoles))
	}
	for i, msg := range result {
		if msg.Role != wantRoles[i] {
			t.Errorf("message %d role = %q, want %q", i, msg.Role, wantRoles[i])
		}
		for _, block := range msg.Content {
			if block.OfToolUse != nil || block.OfToolResult != nil {
				t.Errorf("message %d has a tool block", i)
			}
		}
	}
}

func TestConvertFromAnthropicContent(t *testing.T) {
	var content []anthropic.ContentBlockUnion
	raw := `[
		{"type":"text","text":"Let me look."},
		{"type":"tool_use","id":"toolu_1","name":"read_file","input":{"path":"a.txt"}}
	]`
	if err := json.Unmarshal([]byte(raw), &content); err != nil {
		t.Fatal(err)
	}

	text, calls := ConvertFromAnthropicContent(content)
	if text != "Let me look." {
		t.Errorf("text = %q", text)
	}
	if len(calls) != 1 || calls[0].ID != "toolu_1" || calls[0].Name != "read_file" {
		t.Fatalf("calls = %+v", calls)
	}
	var args map[string]string
	if err := json.Unmarshal([]byte(calls[0].Arguments), &args); err != nil || args["path"] != "a.txt" {
		t.Errorf("arguments = %s", calls[0].Arguments)
	}
}

type errString string

func (e errString) Error() string { return string(e) }
