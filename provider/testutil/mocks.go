package testutil

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	mcptypes "github.com/mark3labs/mcp-go/mcp"

	"agentui/model"
)

// MockProvider implements model.Provider for testing
type MockProvider struct {
	// Configurable responses
	CompleteFunc   func(ctx context.Context, req model.CompletionRequest) (*model.Completion, error)
	ListModelsFunc func(ctx context.Context) ([]model.ModelInfo, error)
	PingFunc       func(ctx context.Context) error

	mu           sync.Mutex
	requests     []model.CompletionRequest
	currentModel string
}

// NewMockProvider creates a mock provider with default implementations
func NewMockProvider(modelName string) *MockProvider {
	mock := &MockProvider{
		currentModel: modelName,
	}
	mock.CompleteFunc = mock.defaultComplete
	mock.ListModelsFunc = mock.defaultListModels
	mock.PingFunc = mock.defaultPing
	return mock
}

// NewScriptedProvider returns the given completions in order, then repeats
// the last one.
func NewScriptedProvider(completions ...*model.Completion) *MockProvider {
	mock := NewMockProvider("mock-model")
	var idx int
	mock.CompleteFunc = func(ctx context.Context, req model.CompletionRequest) (*model.Completion, error) {
		if len(completions) == 0 {
			return &model.Completion{Text: "Mock response"}, nil
		}
		c := completions[idx]
		if idx < len(completions)-1 {
			idx++
		}
		return c, nil
	}
	return mock
}

// NewFailingProvider fails every completion with err.
func NewFailingProvider(err error) *MockProvider {
	mock := NewMockProvider("mock-model")
	mock.CompleteFunc = func(ctx context.Context, req model.CompletionRequest) (*model.Completion, error) {
		return nil, err
	}
	return mock
}

func (m *MockProvider) defaultComplete(ctx context.Context, req model.CompletionRequest) (*model.Completion, error) {
	return &model.Completion{Text: "Mock response", Usage: model.Usage{InputTokens: 10, OutputTokens: 5}}, nil
}

func (m *MockProvider) defaultListModels(ctx context.Context) ([]model.ModelInfo, error) {
	return []model.ModelInfo{
		{Name: "mock-model-1", Size: 1000, InternalName: "mock-model-1"},
		{Name: "mock-model-2", Size: 2000, InternalName: "mock-model-2"},
	}, nil
}

func (m *MockProvider) defaultPing(ctx context.Context) error {
	return nil
}

func (m *MockProvider) Complete(ctx context.Context, req model.CompletionRequest) (*model.Completion, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()
	return m.CompleteFunc(ctx, req)
}

// Requests returns every request seen so far.
func (m *MockProvider) Requests() []model.CompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.CompletionRequest(nil), m.requests...)
}

func (m *MockProvider) ListModels(ctx context.Context) ([]model.ModelInfo, error) {
	return m.ListModelsFunc(ctx)
}

func (m *MockProvider) GetModel() string {
	return m.currentModel
}

func (m *MockProvider) SetModel(name string) {
	m.currentModel = name
}

func (m *MockProvider) Ping(ctx context.Context) error {
	return m.PingFunc(ctx)
}

// MockTools is an in-memory model.ToolExecutor. Handlers are keyed by tool
// name; unknown names fail like the real registry does.
type MockTools struct {
	Handlers map[string]func(ctx context.Context, rawArgs string) (string, error)

	mu    sync.Mutex
	calls []string
}

func NewMockTools() *MockTools {
	return &MockTools{Handlers: make(map[string]func(context.Context, string) (string, error))}
}

func (t *MockTools) Tools() []mcptypes.Tool {
	names := make([]string, 0, len(t.Handlers))
	for name := range t.Handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	tools := make([]mcptypes.Tool, 0, len(names))
	for _, name := range names {
		tools = append(tools, mcptypes.NewTool(name, mcptypes.WithDescription("mock tool "+name)))
	}
	return tools
}

func (t *MockTools) Execute(ctx context.Context, name, rawArgs string) (string, error) {
	t.mu.Lock()
	t.calls = append(t.calls, name)
	t.mu.Unlock()

	handler, ok := t.Handlers[name]
	if !ok {
		return "", fmt.Errorf("tool %q is not available", name)
	}
	return handler(ctx, rawArgs)
}

// Calls returns the tool names executed so far, in order.
func (t *MockTools) Calls() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.calls...)
}

// MockStore is an in-memory model.ThreadStore that counts calls.
type MockStore struct {
	ListErr    error
	CreateErr  error
	DeleteErr  error
	AddErr     error
	ReplaceErr error

	mu           sync.Mutex
	threads      map[string]*model.Thread
	order        []string
	seq          int
	CreateCalls  int
	DeleteCalls  int
	ListCalls    int
	ReplaceCalls int
}

func NewMockStore() *MockStore {
	return &MockStore{threads: make(map[string]*model.Thread)}
}

func (s *MockStore) ListThreads(ctx context.Context) ([]model.ThreadSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ListCalls++
	if s.ListErr != nil {
		return nil, s.ListErr
	}
	var out []model.ThreadSummary
	for i := len(s.order) - 1; i >= 0; i-- {
		t := s.threads[s.order[i]]
		out = append(out, model.ThreadSummary{
			ID: t.ID, Title: t.Title, Model: t.Model,
			CreatedAt: t.CreatedAt, UpdatedAt: t.UpdatedAt, MessageCount: len(t.Messages),
		})
	}
	return out, nil
}

func (s *MockStore) CreateThread(ctx context.Context, modelName string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CreateCalls++
	if s.CreateErr != nil {
		return "", s.CreateErr
	}
	s.seq++
	id := fmt.Sprintf("thread-%d", s.seq)
	now := time.Now()
	s.threads[id] = &model.Thread{ID: id, Model: modelName, CreatedAt: now, UpdatedAt: now}
	s.order = append(s.order, id)
	return id, nil
}

func (s *MockStore) GetThread(ctx context.Context, id string) (*model.Thread, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.threads[id]
	if !ok {
		return nil, model.ErrThreadNotFound
	}
	cp := *t
	cp.Messages = model.CloneHistory(t.Messages)
	return &cp, nil
}

func (s *MockStore) AddMessage(ctx context.Context, threadID string, msg model.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.AddErr != nil {
		return s.AddErr
	}
	t, ok := s.threads[threadID]
	if !ok {
		return model.ErrThreadNotFound
	}
	t.Messages = append(t.Messages, msg)
	t.UpdatedAt = time.Now()
	return nil
}

func (s *MockStore) ReplaceMessages(ctx context.Context, threadID string, msgs []model.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ReplaceCalls++
	if s.ReplaceErr != nil {
		return s.ReplaceErr
	}
	t, ok := s.threads[threadID]
	if !ok {
		return model.ErrThreadNotFound
	}
	t.Messages = model.CloneHistory(msgs)
	return nil
}

func (s *MockStore) UpdateThreadTitle(ctx context.Context, threadID, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.threads[threadID]
	if !ok {
		return model.ErrThreadNotFound
	}
	t.Title = title
	return nil
}

func (s *MockStore) DeleteThread(ctx context.Context, threadID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.DeleteCalls++
	if s.DeleteErr != nil {
		return s.DeleteErr
	}
	if _, ok := s.threads[threadID]; !ok {
		return model.ErrThreadNotFound
	}
	delete(s.threads, threadID)
	for i, id := range s.order {
		if id == threadID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// Messages returns the stored messages of a thread.
func (s *MockStore) Messages(threadID string) []model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.threads[threadID]; ok {
		return model.CloneHistory(t.Messages)
	}
	return nil
}

// ErrMock is a generic failure for tests.
var ErrMock = errors.New("mock failure")
