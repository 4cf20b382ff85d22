package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"agentui/model"
	"agentui/provider/testutil"
)

func writeSSE(w http.ResponseWriter, events ...string) {
	w.Header().Set("Content-Type", "text/event-stream")
	for _, event := range events {
		fmt.Fprint(w, event+"\n\n")
	}
}

func openAIChunk(delta string, finish string) string {
	finishJSON := "null"
	if finish != "" {
		finishJSON = fmt.Sprintf("%q", finish)
	}
	return fmt.Sprintf(`data: {"id":"chatcmpl-1","object":"chat.completion.chunk","created":1,"model":"gpt-4o-mini","choices":[{"index":0,"delta":%s,"finish_reason":%s}]}`, delta, finishJSON)
}

func TestOpenAICompleteAccumulatesToolCalls(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		writeSSE(w,
			openAIChunk(`{"role":"assistant","content":"Checking."}`, ""),
			openAIChunk(`{"tool_calls":[{"index":0,"id":"call_abc","type":"function","function":{"name":"read_file","arguments":"{\"path\":"}}]}`, ""),
			openAIChunk(`{"tool_calls":[{"index":0,"function":{"arguments":"\"notes.txt\"}"}}]}`, ""),
			openAIChunk(`{}`, "tool_calls"),
			`data: {"id":"chatcmpl-1","object":"chat.completion.chunk","created":1,"model":"gpt-4o-mini","choices":[],"usage":{"prompt_tokens":30,"completion_tokens":12,"total_tokens":42}}`,
			`data: [DONE]`,
		)
	}))
	defer srv.Close()

	p, err := NewOpenAIProvider(srv.URL+"/v1", "test-key", "gpt-4o-mini")
	if err != nil {
		t.Fatal(err)
	}

	completion, err := p.Complete(context.Background(), model.CompletionRequest{
		System:   "be brief",
		Messages: testutil.SingleUserMessage("what's in notes.txt?"),
		Tools:    testutil.TestMCPTools(),
	})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}

	if completion.Text != "Checking." {
		t.Errorf("Text = %q", completion.Text)
	}
	want := model.ToolCall{ID: "call_abc", Name: "read_file", Arguments: `{"path":"notes.txt"}`}
	if len(completion.ToolCalls) != 1 || completion.ToolCalls[0] != want {
		t.Errorf("ToolCalls = %+v, want %+v", completion.ToolCalls, want)
	}
	if completion.Usage != (model.Usage{InputTokens: 30, OutputTokens: 12}) {
		t.Errorf("Usage = %+v", completion.Usage)
	}

	if body["model"] != "gpt-4o-mini" {
		t.Errorf("request model = %v", body["model"])
	}
	if tools, _ := body["tools"].([]any); len(tools) != len(testutil.TestMCPTools()) {
		t.Errorf("request tools = %v", body["tools"])
	}
	messages, _ := body["messages"].([]any)
	if len(messages) != 2 {
		t.Fatalf("request messages = %v", body["messages"])
	}
	system, _ := messages[0].(map[string]any)
	if system["role"] != "system" || !strings.Contains(fmt.Sprint(system["content"]), "TOOLS: ") {
		t.Errorf("system message = %v", system)
	}
}

func TestOpenAICompleteHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"message":"bad key","type":"invalid_request_error"}}`)
	}))
	defer srv.Close()

	p, err := NewOpenRouterProvider(srv.URL, "bad-key", "")
	if err != nil {
		t.Fatal(err)
	}
	_, err = p.Complete(context.Background(), model.CompletionRequest{Messages: testutil.SingleUserMessage("hi")})
	if err == nil || !strings.Contains(err.Error(), "OpenRouter") {
		t.Fatalf("Complete() error = %v", err)
	}
}

func TestOpenRouterToolInstructions(t *testing.T) {
	tests := []struct {
		model string
		skip  bool
	}{
		{"qwen/qwen3-coder:free", true},
		{"Qwen/Qwen2.5-72B", true},
		{"meta-llama/llama-3.3-70b-instruct", false},
		{"anthropic/claude-sonnet-4", false},
	}
	for _, tt := range tests {
		if got := shouldSkipToolInstructions(tt.model); got != tt.skip {
			t.Errorf("shouldSkipToolInstructions(%q) = %v, want %v", tt.model, got, tt.skip)
		}
	}
}

func TestStripProviderPrefix(t *testing.T) {
	tests := map[string]string{
		"meta-llama/llama-3.2-90b-instruct": "llama-3.2-90b-instruct",
		"anthropic/claude-sonnet-4":         "claude-sonnet-4",
		"gpt-4o":                            "gpt-4o",
	}
	for in, want := range tests {
		if got := stripProviderPrefix(in); got != want {
			t.Errorf("stripProviderPrefix(%q) = %q, want %q", in, got, want)
		}
	}
}
