package ui

import (
	"strings"

	"agentui/model"
	"agentui/ollama"
)

// IsCurrentModel reports whether info is the model the session talks to.
// Ollama names are their own InternalName; OpenRouter display names have the
// vendor prefix stripped, so both are compared.
func IsCurrentModel(info model.ModelInfo, selected model.SelectedModel) bool {
	if selected.IsZero() || info.Provider != selected.ProviderID {
		return false
	}
	return info.InternalName == selected.Model || info.Name == selected.Model
}

// ModelSupportsTools checks if a model can be trusted with tool calling.
//
// Tool support by provider:
//   - Ollama: curated list (llama3.1+, qwen2.5, mistral, ...)
//   - Anthropic: all Claude models
//   - OpenAI: gpt-4* and gpt-3.5-turbo families, o-series
//   - OpenRouter: most models, minus very small ones
func ModelSupportsTools(info model.ModelInfo) bool {
	name := strings.ToLower(info.InternalName)
	if name == "" {
		name = strings.ToLower(info.Name)
	}

	switch info.Provider {
	case "ollama":
		return ollama.ModelSupportsToolCalling(name)

	case "anthropic":
		return true

	case "openai":
		for _, prefix := range []string{"gpt-4", "gpt-3.5-turbo", "gpt-5", "o1", "o3", "o4"} {
			if strings.HasPrefix(name, prefix) {
				return true
			}
		}
		return false

	case "openrouter":
		for _, small := range []string{"meta-llama/llama-3.2-1b", "meta-llama/llama-3.2-3b"} {
			if strings.Contains(name, small) {
				return false
			}
		}
		return true

	default:
		return false
	}
}

// selectedModelInfo turns the session selection back into a ModelInfo for
// the capability checks above.
func selectedModelInfo(selected model.SelectedModel) model.ModelInfo {
	return model.ModelInfo{Name: selected.Display, Provider: selected.ProviderID, InternalName: selected.Model}
}
