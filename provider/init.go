package provider

import (
	"agentui/config"
	"agentui/model"
)

// InitializeProviders creates every usable provider in cfg, keyed by
// provider ID.
//
// Only providers returned by cfg.EnabledProviders are created: cloud
// providers need a credential and Ollama must be switched on. A provider that
// fails to initialize is logged and skipped so the others stay usable.
func InitializeProviders(cfg *config.Config) map[string]model.Provider {
	providers := make(map[string]model.Provider)

	for _, id := range cfg.EnabledProviders() {
		apiKey := ""
		if cfg.Credentials != nil {
			apiKey = cfg.Credentials.Get(id)
		}

		modelName := ""
		if id == cfg.DefaultProvider {
			modelName = cfg.DefaultModel
		}

		providerType := MapProviderIDToType(id)
		p, err := NewProvider(Config{
			Type:    providerType,
			BaseURL: cfg.ProviderBaseURL(id),
			APIKey:  apiKey,
			Model:   modelName,
		})
		if err != nil {
			if config.DebugLog != nil {
				config.DebugLog.Warn("failed to initialize provider", "provider", id, "err", err)
			}
			continue
		}

		providers[id] = p
		if config.DebugLog != nil {
			config.DebugLog.Info("initialized provider", "provider", id, "type", providerType)
		}
	}

	return providers
}
