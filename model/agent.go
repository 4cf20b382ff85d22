package model

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"agentui/config"
)

const (
	// MaxIterationsText is the final reply when the cap is hit before the
	// model produced any text of its own.
	MaxIterationsText = "I was unable to complete this request within the allowed number of steps."

	// EmptyResponseText stands in for a final turn with neither text nor
	// tool calls.
	EmptyResponseText = "(the model returned an empty response)"

	ProgressStarted = "started"
)

// ProgressFunc receives tool progress: ProgressStarted before a call, then a
// short result summary or an "error: ..." line after it.
type ProgressFunc func(toolName, status string)

// ToolCallRecord is one executed tool call, for display and debugging.
type ToolCallRecord struct {
	ID        string
	Name      string
	Arguments string
	Result    string
	Err       error
	Duration  time.Duration
}

// RunResult is what one agent loop run produced. History is the full
// working history including the new user message; on a transport error it
// ends with whatever was appended before the failing model call.
type RunResult struct {
	FinalText   string
	History     []Message
	ToolCallLog []ToolCallRecord
	Usage       Usage
	Iterations  int
	CapReached  bool
	Err         error   // KindTransport when the model call itself failed
	PersistErrs []error // Recorder failures, the run continues past them
}

// AgentLoop drives model turn -> tool execution -> model turn until the
// model answers, the cap is reached or the model call fails.
type AgentLoop struct {
	provider      Provider
	modelName     string
	tools         ToolExecutor
	maxIterations int
	timeout       time.Duration
	recorder      Recorder
}

type AgentOption func(*AgentLoop)

// WithTools exposes the registry to the model. Without it the loop is plain
// chat.
func WithTools(tools ToolExecutor) AgentOption {
	return func(l *AgentLoop) { l.tools = tools }
}

func WithMaxIterations(n int) AgentOption {
	return func(l *AgentLoop) {
		if n > 0 {
			l.maxIterations = n
		}
	}
}

// WithTimeout bounds every single model call.
func WithTimeout(d time.Duration) AgentOption {
	return func(l *AgentLoop) {
		if d > 0 {
			l.timeout = d
		}
	}
}

// WithRecorder persists each message as it is appended.
func WithRecorder(r Recorder) AgentOption {
	return func(l *AgentLoop) { l.recorder = r }
}

func NewAgentLoop(provider Provider, modelName string, opts ...AgentOption) (*AgentLoop, error) {
	if provider == nil {
		return nil, NewError(KindConfiguration, "agent loop", errors.New("no provider"))
	}
	l := &AgentLoop{
		provider:      provider,
		modelName:     modelName,
		maxIterations: config.DefaultMaxIterations,
		timeout:       config.DefaultRequestTimeout,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Run answers one user utterance. history must already be repaired; it is
// copied, never modified. Tool failures are fed back to the model as error
// payloads, only a failing model call ends the run with Err set.
func (l *AgentLoop) Run(ctx context.Context, utterance string, history []Message, onProgress ProgressFunc) RunResult {
	if onProgress == nil {
		onProgress = func(string, string) {}
	}

	res := RunResult{History: CloneHistory(history)}
	l.appendMessage(ctx, &res, Message{Role: RoleUser, Content: utterance, Timestamp: time.Now()})

	var lastText string
	for iteration := 1; iteration <= l.maxIterations; iteration++ {
		res.Iterations = iteration

		if config.DebugLog != nil {
			config.DebugLog.Debug("agent iteration", "iteration", iteration, "messages", len(res.History))
		}

		completion, err := l.complete(ctx, res.History)
		if err != nil {
			if config.DebugLog != nil {
				config.DebugLog.Error("model call failed", "iteration", iteration, "err", err)
			}
			res.Err = NewError(KindTransport, "model call", err)
			return res
		}
		res.Usage.Add(completion.Usage)

		text := strings.TrimSpace(completion.Text)
		if len(completion.ToolCalls) == 0 {
			if text == "" {
				text = EmptyResponseText
			}
			res.FinalText = text
			l.appendMessage(ctx, &res, Message{Role: RoleAssistant, Content: text, Timestamp: time.Now()})
			return res
		}
		if text != "" {
			lastText = text
		}

		calls := ensureCallIDs(completion.ToolCalls)
		l.appendMessage(ctx, &res, Message{
			Role:      RoleAssistant,
			Content:   completion.Text,
			ToolCalls: calls,
			Timestamp: time.Now(),
		})

		// Sequential on purpose: later calls may depend on earlier writes.
		for _, call := range calls {
			record := l.executeTool(ctx, call, onProgress)
			res.ToolCallLog = append(res.ToolCallLog, record)
			l.appendMessage(ctx, &res, Message{
				Role:       RoleTool,
				Content:    record.Result,
				ToolCallID: call.ID,
				ToolName:   call.Name,
				Timestamp:  time.Now(),
			})
		}
	}

	if config.DebugLog != nil {
		config.DebugLog.Warn("iteration cap reached", "cap", l.maxIterations)
	}
	res.CapReached = true
	res.FinalText = lastText
	if res.FinalText == "" {
		res.FinalText = MaxIterationsText
	}
	l.appendMessage(ctx, &res, Message{Role: RoleAssistant, Content: res.FinalText, Timestamp: time.Now()})
	return res
}

func (l *AgentLoop) complete(ctx context.Context, history []Message) (*Completion, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	req := CompletionRequest{Model: l.modelName}
	for _, msg := range history {
		if msg.Role == RoleSystem {
			if req.System == "" {
				req.System = msg.Content
			}
			continue
		}
		req.Messages = append(req.Messages, msg)
	}
	if l.tools != nil {
		req.Tools = l.tools.Tools()
	}

	completion, err := l.provider.Complete(ctx, req)
	if err != nil {
		return nil, err
	}
	if completion == nil {
		return &Completion{}, nil
	}
	return completion, nil
}

// executeTool never fails: every problem becomes an error payload.
func (l *AgentLoop) executeTool(ctx context.Context, call ToolCall, onProgress ProgressFunc) ToolCallRecord {
	record := ToolCallRecord{ID: call.ID, Name: call.Name, Arguments: call.Arguments}
	onProgress(call.Name, ProgressStarted)

	start := time.Now()
	output, err := l.invoke(ctx, call)
	record.Duration = time.Since(start)

	if err != nil {
		record.Err = NewError(KindToolFailure, call.Name, err)
		record.Result = ErrorPayload(err)
		onProgress(call.Name, "error: "+err.Error())
		if config.DebugLog != nil {
			config.DebugLog.Warn("tool failed", "tool", call.Name, "err", err)
		}
		return record
	}

	record.Result = output
	onProgress(call.Name, SummarizeResult(output))
	if config.DebugLog != nil {
		config.DebugLog.Debug("tool done", "tool", call.Name, "bytes", len(output), "duration", record.Duration)
	}
	return record
}

func (l *AgentLoop) invoke(ctx context.Context, call ToolCall) (output string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tool %s panicked: %v", call.Name, r)
		}
	}()
	if l.tools == nil {
		return "", fmt.Errorf("tools are disabled, %q is not available", call.Name)
	}
	return l.tools.Execute(ctx, call.Name, call.Arguments)
}

func (l *AgentLoop) appendMessage(ctx context.Context, res *RunResult, msg Message) {
	res.History = append(res.History, msg)
	if l.recorder == nil {
		return
	}
	if err := l.recorder.Record(ctx, msg); err != nil {
		if config.DebugLog != nil {
			config.DebugLog.Error("failed to record message", "role", msg.Role, "err", err)
		}
		res.PersistErrs = append(res.PersistErrs, err)
	}
}

// ensureCallIDs fills in ids for providers that don't assign them so each
// result can be paired with its call. Ids are random: a stored thread may
// still hold calls from before a repair.
func ensureCallIDs(calls []ToolCall) []ToolCall {
	out := make([]ToolCall, len(calls))
	for i, call := range calls {
		if call.ID == "" {
			call.ID = "call_" + uuid.NewString()
		}
		out[i] = call
	}
	return out
}

// ErrorPayload is the JSON text handed back to the model for a failed call.
func ErrorPayload(err error) string {
	data, mErr := json.Marshal(map[string]string{"error": err.Error()})
	if mErr != nil {
		return `{"error":"tool failed"}`
	}
	return string(data)
}

// IsErrorPayload reports whether a tool result was produced by ErrorPayload.
func IsErrorPayload(content string) bool {
	if !strings.HasPrefix(content, `{"error":`) {
		return false
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return false
	}
	_, ok := payload["error"]
	return ok && len(payload) == 1
}

// SummarizeResult shortens a tool result to one progress line.
func SummarizeResult(output string) string {
	line := strings.TrimSpace(output)
	if idx := strings.IndexByte(line, '\n'); idx != -1 {
		line = line[:idx] + " …"
	}
	const maxLen = 80
	if runes := []rune(line); len(runes) > maxLen {
		line = string(runes[:maxLen]) + "…"
	}
	if line == "" {
		return "done"
	}
	return "done: " + line
}
