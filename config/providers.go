package config

// ProviderDisplayName returns the display name for a provider
func (c *Config) ProviderDisplayName(providerID string) string {
	if p, ok := c.Provider(providerID); ok && p.Name != "" {
		return p.Name
	}
	return defaultProviderDisplayName(providerID)
}

func defaultProviderDisplayName(providerID string) string {
	switch providerID {
	case "ollama":
		return "Ollama"
	case "openrouter":
		return "OpenRouter"
	case "anthropic":
		return "Anthropic"
	case "openai":
		return "OpenAI"
	default:
		return providerID
	}
}

// ProviderBaseURL returns the configured base URL, falling back to the
// provider's public endpoint.
func (c *Config) ProviderBaseURL(providerID string) string {
	if providerID == "ollama" {
		return c.OllamaHost
	}
	if p, ok := c.Provider(providerID); ok && p.BaseURL != "" {
		return p.BaseURL
	}
	switch providerID {
	case "openrouter":
		return "https://openrouter.ai/api/v1"
	case "anthropic":
		return "https://api.anthropic.com"
	case "openai":
		return "https://api.openai.com/v1"
	default:
		return ""
	}
}
