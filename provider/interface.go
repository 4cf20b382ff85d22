// Package provider implements model.Provider for each supported LLM backend.
//
// Every provider exposes a single-turn Complete call: it takes the system
// prompt, the conversation and the tool descriptors, and returns the
// assistant's text, any tool calls and token usage. Streaming, if the backend
// offers it, is accumulated inside the provider.
//
// # Type Conversions
//
// Conversions between model types and SDK types live in conversions.go and
// tools.go:
//   - ConvertToOllamaMessages / ConvertToOpenAIMessages / ConvertToAnthropicMessages
//   - ConvertFromOllamaToolCalls / ConvertFromOpenAIToolCalls / ConvertFromAnthropicContent
//   - ConvertToolsToOllama / ConvertToolsToOpenAI / ConvertToolsToAnthropic
//
// # Usage
//
//	p, err := provider.NewProvider(provider.Config{
//	    Type:   provider.ProviderTypeAnthropic,
//	    APIKey: key,
//	})
//	if err != nil {
//	    // handle error
//	}
//	completion, err := p.Complete(ctx, model.CompletionRequest{Messages: history})
package provider

// The Provider interface itself lives in model (model/provider.go) to avoid
// an import cycle.

// ProviderType identifies the provider implementation.
type ProviderType string

const (
	ProviderTypeOllama     ProviderType = "ollama"
	ProviderTypeOpenRouter ProviderType = "openrouter"
	ProviderTypeOpenAI     ProviderType = "openai"
	ProviderTypeAnthropic  ProviderType = "anthropic"
)

// Config holds provider-specific configuration.
type Config struct {
	Type    ProviderType
	BaseURL string
	Model   string
	APIKey  string // Unused for Ollama
}
