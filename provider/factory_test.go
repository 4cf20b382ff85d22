package provider

import (
	"testing"

	"agentui/config"
	"agentui/model"
)

func TestNewProvider(t *testing.T) {
	tests := []struct {
		name        string
		config      Config
		expectError bool
	}{
		{
			name:   "ollama provider with defaults",
			config: Config{Type: ProviderTypeOllama},
		},
		{
			name: "ollama provider with custom config",
			config: Config{
				Type:    ProviderTypeOllama,
				BaseURL: "http://localhost:11434",
				Model:   "llama3.1",
			},
		},
		{
			name: "openai provider",
			config: Config{
				Type:   ProviderTypeOpenAI,
				Model:  "gpt-4o-mini",
				APIKey: "test-key",
			},
		},
		{
			name: "openrouter provider",
			config: Config{
				Type:   ProviderTypeOpenRouter,
				APIKey: "test-key",
			},
		},
		{
			name: "anthropic provider",
			config: Config{
				Type:   ProviderTypeAnthropic,
				Model:  "claude-sonnet-4-5-20250929",
				APIKey: "test-key",
			},
		},
		{
			name:        "anthropic without key",
			config:      Config{Type: ProviderTypeAnthropic},
			expectError: true,
		},
		{
			name:        "openai without key",
			config:      Config{Type: ProviderTypeOpenAI},
			expectError: true,
		},
		{
			name:        "unknown provider type",
			config:      Config{Type: ProviderType("unknown")},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewProvider(tt.config)
			if tt.expectError {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if p == nil {
				t.Fatal("expected non-nil provider")
			}
			if p.GetModel() == "" {
				t.Error("provider has no default model")
			}
		})
	}
}

func TestFactoryReturnsOllamaProvider(t *testing.T) {
	p, err := NewProvider(Config{Type: ProviderTypeOllama, Model: "llama3.1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := p.(*OllamaProvider); !ok {
		t.Errorf("expected *OllamaProvider, got %T", p)
	}
	if p.GetModel() != "llama3.1" {
		t.Errorf("GetModel() = %q", p.GetModel())
	}
}

func TestMapProviderIDToType(t *testing.T) {
	tests := map[string]ProviderType{
		"ollama":     ProviderTypeOllama,
		"openrouter": ProviderTypeOpenRouter,
		"openai":     ProviderTypeOpenAI,
		"anthropic":  ProviderTypeAnthropic,
		"mystery":    ProviderType("mystery"),
	}
	for id, want := range tests {
		if got := MapProviderIDToType(id); got != want {
			t.Errorf("MapProviderIDToType(%q) = %q, want %q", id, got, want)
		}
	}
}

func TestInitializeProviders(t *testing.T) {
	creds := config.NewCredentialStore()
	creds.Set("anthropic", "sk-ant-test")

	cfg := &config.Config{
		DefaultProvider: "anthropic",
		DefaultModel:    "claude-haiku-4-5",
		OllamaEnabled:   true,
		Providers: []config.ProviderConfig{
			{ID: "anthropic", Enabled: true},
			{ID: "openai", Enabled: true}, // no credential
			{ID: "openrouter", Enabled: false},
		},
		Credentials: creds,
	}

	providers := InitializeProviders(cfg)
	if len(providers) != 2 {
		t.Fatalf("providers = %v, want ollama and anthropic", providers)
	}
	if _, ok := providers["ollama"].(*OllamaProvider); !ok {
		t.Errorf("ollama = %T", providers["ollama"])
	}
	anthropicProvider, ok := providers["anthropic"]
	if !ok {
		t.Fatal("anthropic provider missing")
	}
	if got := anthropicProvider.GetModel(); got != "claude-haiku-4-5" {
		t.Errorf("anthropic default model = %q", got)
	}
}

var (
	_ model.Provider = (*OllamaProvider)(nil)
	_ model.Provider = (*OpenAIProvider)(nil)
	_ model.Provider = (*OpenRouterProvider)(nil)
	_ model.Provider = (*AnthropicProvider)(nil)
)
