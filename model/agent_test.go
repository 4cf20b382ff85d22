package model_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"agentui/model"
	"agentui/provider/testutil"
)

type progressEvent struct {
	tool   string
	status string
}

type progressLog struct {
	mu     sync.Mutex
	events []progressEvent
}

func (p *progressLog) record(tool, status string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, progressEvent{tool, status})
}

func seed() []model.Message {
	return []model.Message{testutil.SystemMessage("be helpful")}
}

func TestAgentLoopFinalReply(t *testing.T) {
	provider := testutil.NewScriptedProvider(testutil.TextCompletion("Hello there"))
	loop, err := model.NewAgentLoop(provider, "mock-model")
	if err != nil {
		t.Fatalf("NewAgentLoop() error = %v", err)
	}

	history := seed()
	res := loop.Run(context.Background(), "hi", history, nil)

	if res.Err != nil {
		t.Fatalf("Run() error = %v", res.Err)
	}
	if res.FinalText != "Hello there" {
		t.Errorf("FinalText = %q, want %q", res.FinalText, "Hello there")
	}
	if len(res.History) != 3 {
		t.Fatalf("history length = %d, want 3", len(res.History))
	}
	if res.History[1].Role != model.RoleUser || res.History[2].Role != model.RoleAssistant {
		t.Errorf("unexpected roles %q, %q", res.History[1].Role, res.History[2].Role)
	}
	if len(history) != 1 {
		t.Errorf("input history was modified, length %d", len(history))
	}
	if res.Usage.InputTokens != 12 || res.Usage.OutputTokens != 6 {
		t.Errorf("usage = %+v", res.Usage)
	}

	reqs := provider.Requests()
	if len(reqs) != 1 {
		t.Fatalf("provider calls = %d, want 1", len(reqs))
	}
	if reqs[0].System != "be helpful" || reqs[0].Model != "mock-model" {
		t.Errorf("request system/model = %q/%q", reqs[0].System, reqs[0].Model)
	}
	for _, msg := range reqs[0].Messages {
		if msg.Role == model.RoleSystem {
			t.Error("system message passed in Messages")
		}
	}
}

func TestAgentLoopIterationCap(t *testing.T) {
	var n int
	provider := testutil.NewMockProvider("mock-model")
	provider.CompleteFunc = func(ctx context.Context, req model.CompletionRequest) (*model.Completion, error) {
		n++
		return &model.Completion{
			Text:      fmt.Sprintf("still looking (%d)", n),
			ToolCalls: []model.ToolCall{{ID: fmt.Sprintf("c%d", n), Name: "glob_files", Arguments: `{"pattern":"*"}`}},
		}, nil
	}
	tools := testutil.NewMockTools()
	tools.Handlers["glob_files"] = func(ctx context.Context, raw string) (string, error) { return `["a.txt"]`, nil }

	loop, _ := model.NewAgentLoop(provider, "mock-model", model.WithTools(tools), model.WithMaxIterations(2))

	done := make(chan model.RunResult, 1)
	go func() { done <- loop.Run(context.Background(), "find it", seed(), nil) }()

	var res model.RunResult
	select {
	case res = <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("agent loop did not terminate")
	}

	if !res.CapReached {
		t.Error("CapReached = false, want true")
	}
	if res.Iterations != 2 {
		t.Errorf("Iterations = %d, want 2", res.Iterations)
	}
	if res.FinalText != "still looking (2)" {
		t.Errorf("FinalText = %q, want last partial text", res.FinalText)
	}
	last := res.History[len(res.History)-1]
	if last.Role != model.RoleAssistant || last.Content != res.FinalText || len(last.ToolCalls) != 0 {
		t.Errorf("last message = %+v, want final assistant reply", last)
	}
	if got := len(tools.Calls()); got != 2 {
		t.Errorf("tool executions = %d, want 2", got)
	}
}

func TestAgentLoopIterationCapWithoutText(t *testing.T) {
	provider := testutil.NewScriptedProvider(testutil.ToolCallCompletion("", "glob_files", `{}`))
	tools := testutil.NewMockTools()
	tools.Handlers["glob_files"] = func(ctx context.Context, raw string) (string, error) { return "[]", nil }

	loop, _ := model.NewAgentLoop(provider, "mock-model", model.WithTools(tools), model.WithMaxIterations(3))
	res := loop.Run(context.Background(), "find it", seed(), nil)

	if res.FinalText != model.MaxIterationsText {
		t.Errorf("FinalText = %q, want fallback", res.FinalText)
	}
	if ids := unanswered(res.History); len(ids) > 0 {
		t.Errorf("unanswered calls %v", ids)
	}
}

func TestAgentLoopUnknownTool(t *testing.T) {
	provider := testutil.NewScriptedProvider(
		testutil.ToolCallCompletion("call_1", "launch_rockets", `{}`),
		testutil.TextCompletion("That tool doesn't exist."),
	)
	tools := testutil.NewMockTools()
	progress := &progressLog{}

	loop, _ := model.NewAgentLoop(provider, "mock-model", model.WithTools(tools))
	res := loop.Run(context.Background(), "launch", seed(), progress.record)

	if res.Err != nil {
		t.Fatalf("Run() error = %v", res.Err)
	}
	if len(provider.Requests()) != 2 {
		t.Fatalf("model calls = %d, want 2 (loop must continue)", len(provider.Requests()))
	}

	var toolMsg *model.Message
	for i := range res.History {
		if res.History[i].Role == model.RoleTool {
			toolMsg = &res.History[i]
		}
	}
	if toolMsg == nil {
		t.Fatal("no tool message appended")
	}
	if toolMsg.ToolCallID != "call_1" {
		t.Errorf("ToolCallID = %q, want call_1", toolMsg.ToolCallID)
	}
	var payload map[string]string
	if err := json.Unmarshal([]byte(toolMsg.Content), &payload); err != nil {
		t.Fatalf("tool content is not JSON: %v", err)
	}
	if !strings.Contains(payload["error"], "launch_rockets") {
		t.Errorf("error payload = %q", payload["error"])
	}

	if len(res.ToolCallLog) != 1 || model.KindOf(res.ToolCallLog[0].Err) != model.KindToolFailure {
		t.Errorf("tool call log = %+v", res.ToolCallLog)
	}
	if len(progress.events) != 2 || progress.events[0].status != model.ProgressStarted ||
		!strings.HasPrefix(progress.events[1].status, "error:") {
		t.Errorf("progress events = %+v", progress.events)
	}
}

func TestAgentLoopToolOrdering(t *testing.T) {
	provider := testutil.NewScriptedProvider(
		&model.Completion{ToolCalls: []model.ToolCall{
			{ID: "w", Name: "write_file", Arguments: `{"path":"a.txt","content":"x"}`},
			{ID: "r", Name: "read_file", Arguments: `{"path":"a.txt"}`},
		}},
		testutil.TextCompletion("done"),
	)
	var written string
	tools := testutil.NewMockTools()
	tools.Handlers["write_file"] = func(ctx context.Context, raw string) (string, error) {
		written = "x"
		return `{"bytes":1}`, nil
	}
	tools.Handlers["read_file"] = func(ctx context.Context, raw string) (string, error) {
		if written == "" {
			return "", errors.New("read before write")
		}
		return written, nil
	}

	loop, _ := model.NewAgentLoop(provider, "mock-model", model.WithTools(tools))
	res := loop.Run(context.Background(), "write then read", seed(), nil)

	got := roles(res.History)
	want := []string{"system", "user", "assistant", "tool", "tool", "assistant"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("roles = %v, want %v", got, want)
	}
	if res.History[3].ToolCallID != "w" || res.History[4].ToolCallID != "r" {
		t.Errorf("tool results out of order: %q, %q", res.History[3].ToolCallID, res.History[4].ToolCallID)
	}
	if res.History[4].Content != "x" {
		t.Errorf("read result = %q, want x", res.History[4].Content)
	}
}

func TestAgentLoopTransportError(t *testing.T) {
	provider := testutil.NewFailingProvider(errors.New("connection refused"))
	loop, _ := model.NewAgentLoop(provider, "mock-model")

	res := loop.Run(context.Background(), "hi", seed(), nil)

	if model.KindOf(res.Err) != model.KindTransport {
		t.Fatalf("error kind = %v, want transport", model.KindOf(res.Err))
	}
	if len(res.History) != 2 || res.History[1].Role != model.RoleUser {
		t.Errorf("history = %v, want system + user only", roles(res.History))
	}
	if res.FinalText != "" {
		t.Errorf("FinalText = %q, want empty", res.FinalText)
	}
}

func TestAgentLoopToolPanicIsRecovered(t *testing.T) {
	provider := testutil.NewScriptedProvider(
		testutil.ToolCallCompletion("p1", "explode", `{}`),
		testutil.TextCompletion("recovered"),
	)
	tools := testutil.NewMockTools()
	tools.Handlers["explode"] = func(ctx context.Context, raw string) (string, error) { panic("boom") }

	loop, _ := model.NewAgentLoop(provider, "mock-model", model.WithTools(tools))
	res := loop.Run(context.Background(), "go", seed(), nil)

	if res.FinalText != "recovered" {
		t.Fatalf("FinalText = %q", res.FinalText)
	}
	if !strings.Contains(res.History[3].Content, "panicked") {
		t.Errorf("tool payload = %q", res.History[3].Content)
	}
}

func TestAgentLoopEmptyReply(t *testing.T) {
	provider := testutil.NewScriptedProvider(&model.Completion{})
	loop, _ := model.NewAgentLoop(provider, "mock-model")

	res := loop.Run(context.Background(), "hi", seed(), nil)
	if res.FinalText != model.EmptyResponseText {
		t.Errorf("FinalText = %q, want canned empty text", res.FinalText)
	}
}

func TestAgentLoopRecordsIncrementally(t *testing.T) {
	provider := testutil.NewScriptedProvider(
		testutil.ToolCallCompletion("c1", "glob_files", `{"pattern":"*.go"}`),
		testutil.TextCompletion("found main.go"),
	)
	tools := testutil.NewMockTools()
	tools.Handlers["glob_files"] = func(ctx context.Context, raw string) (string, error) { return `["main.go"]`, nil }

	store := testutil.NewMockStore()
	id, _ := store.CreateThread(context.Background(), "mock-model")

	loop, _ := model.NewAgentLoop(provider, "mock-model",
		model.WithTools(tools),
		model.WithRecorder(model.ThreadRecorder(store, id)))
	res := loop.Run(context.Background(), "find go files", seed(), nil)

	stored := store.Messages(id)
	if got, want := roles(stored), []string{"user", "assistant", "tool", "assistant"}; strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("stored roles = %v, want %v", got, want)
	}
	if len(res.PersistErrs) != 0 {
		t.Errorf("PersistErrs = %v", res.PersistErrs)
	}
}

func TestAgentLoopPersistenceFailureDoesNotStopRun(t *testing.T) {
	provider := testutil.NewScriptedProvider(testutil.TextCompletion("ok"))
	recorder := model.RecorderFunc(func(ctx context.Context, msg model.Message) error {
		return model.NewError(model.KindPersistence, "save message", testutil.ErrMock)
	})

	loop, _ := model.NewAgentLoop(provider, "mock-model", model.WithRecorder(recorder))
	res := loop.Run(context.Background(), "hi", seed(), nil)

	if res.FinalText != "ok" {
		t.Errorf("FinalText = %q", res.FinalText)
	}
	if len(res.PersistErrs) != 2 {
		t.Fatalf("PersistErrs = %d, want 2", len(res.PersistErrs))
	}
	if model.KindOf(res.PersistErrs[0]) != model.KindPersistence {
		t.Errorf("kind = %v", model.KindOf(res.PersistErrs[0]))
	}
}

func TestAgentLoopWithoutToolsSendsNoDescriptors(t *testing.T) {
	provider := testutil.NewScriptedProvider(testutil.TextCompletion("plain"))
	loop, _ := model.NewAgentLoop(provider, "mock-model")
	loop.Run(context.Background(), "hi", seed(), nil)

	if tools := provider.Requests()[0].Tools; len(tools) != 0 {
		t.Errorf("tools sent = %d, want 0", len(tools))
	}
}

func TestNewAgentLoopRequiresProvider(t *testing.T) {
	if _, err := model.NewAgentLoop(nil, "x"); model.KindOf(err) != model.KindConfiguration {
		t.Errorf("error = %v, want configuration error", err)
	}
}

func roles(history []model.Message) []string {
	out := make([]string, len(history))
	for i, msg := range history {
		out[i] = msg.Role
	}
	return out
}

func unanswered(history []model.Message) []string {
	answered := make(map[string]bool)
	for _, msg := range history {
		if msg.Role == model.RoleTool {
			answered[msg.ToolCallID] = true
		}
	}
	var ids []string
	for _, msg := range history {
		for _, call := range msg.ToolCalls {
			if !answered[call.ID] {
				ids = append(ids, call.ID)
			}
		}
	}
	return ids
}

func TestAgentLoopAssignsUniqueCallIDs(t *testing.T) {
	tools := testutil.NewMockTools()
	tools.Handlers["glob_files"] = func(ctx context.Context, raw string) (string, error) {
		return `[]`, nil
	}

	// Two runs from the same starting history, as after a repair that
	// shortened it, must not produce the same id for an unnamed call.
	seen := make(map[string]bool)
	for run := 0; run < 2; run++ {
		provider := testutil.NewScriptedProvider(
			&model.Completion{ToolCalls: []model.ToolCall{
				{Name: "glob_files", Arguments: `{"pattern":"*"}`},
				{Name: "glob_files", Arguments: `{"pattern":"*.go"}`},
			}},
			testutil.TextCompletion("done"),
		)
		loop, _ := model.NewAgentLoop(provider, "mock-model", model.WithTools(tools))
		res := loop.Run(context.Background(), "list", seed(), nil)

		calls := res.History[2].ToolCalls
		if len(calls) != 2 {
			t.Fatalf("run %d: tool calls = %+v", run, calls)
		}
		for i, call := range calls {
			if !strings.HasPrefix(call.ID, "call_") {
				t.Errorf("run %d: id = %q, want call_ prefix", run, call.ID)
			}
			if seen[call.ID] {
				t.Errorf("run %d: id %q reused", run, call.ID)
			}
			seen[call.ID] = true
			if got := res.History[3+i].ToolCallID; got != call.ID {
				t.Errorf("run %d: result %d answers %q, want %q", run, i, got, call.ID)
			}
		}
	}
}
