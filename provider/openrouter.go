package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"agentui/config"
	"agentui/model"
)

// OpenRouterProvider implements model.Provider against OpenRouter's
// OpenAI-compatible API.
type OpenRouterProvider struct {
	client  openai.Client
	model   string
	baseURL string
}

func NewOpenRouterProvider(baseURL, apiKey, modelName string) (*OpenRouterProvider, error) {
	if baseURL == "" {
		baseURL = "https://openrouter.ai/api/v1"
	}
	if apiKey == "" {
		return nil, fmt.Errorf("OpenRouter API key is required")
	}
	if modelName == "" {
		modelName = "meta-llama/llama-3.2-90b-instruct"
	}

	client := openai.NewClient(
		option.WithBaseURL(baseURL),
		option.WithAPIKey(apiKey),
	)

	return &OpenRouterProvider{
		client:  client,
		model:   modelName,
		baseURL: baseURL,
	}, nil
}

// shouldSkipToolInstructions reports models that call tools natively and get
// confused by explicit instructions.
func shouldSkipToolInstructions(modelName string) bool {
	lower := strings.ToLower(modelName)
	for _, prefix := range []string{"qwen"} {
		if strings.Contains(lower, prefix) {
			return true
		}
	}
	return false
}

func (p *OpenRouterProvider) Complete(ctx context.Context, req model.CompletionRequest) (*model.Completion, error) {
	modelName := p.model
	if req.Model != "" {
		modelName = req.Model
	}

	system := req.System
	if len(req.Tools) > 0 {
		if shouldSkipToolInstructions(modelName) {
			if config.DebugLog != nil {
				config.DebugLog.Debug("skipping tool instructions", "provider", "openrouter", "model", modelName)
			}
		} else {
			system = systemWithTools(req.System, req.Tools)
		}
	}

	completion, err := streamChatCompletion(ctx, p.client, modelName, system, req)
	if err != nil {
		return nil, fmt.Errorf("OpenRouter streaming error: %w", err)
	}
	return completion, nil
}

// ListModels strips vendor prefixes for display and keeps the full id for
// API calls.
func (p *OpenRouterProvider) ListModels(ctx context.Context) ([]model.ModelInfo, error) {
	page, err := p.client.Models.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list OpenRouter models: %w", err)
	}

	result := make([]model.ModelInfo, 0, len(page.Data))
	for _, m := range page.Data {
		result = append(result, model.ModelInfo{
			Name:         stripProviderPrefix(m.ID),
			InternalName: m.ID,
			Provider:     "openrouter",
		})
	}
	return result, nil
}

// GetModel returns the full model id, e.g. "qwen/qwen3-coder:free".
func (p *OpenRouterProvider) GetModel() string {
	return p.model
}

func (p *OpenRouterProvider) SetModel(modelName string) {
	p.model = modelName
}

func (p *OpenRouterProvider) Ping(ctx context.Context) error {
	if _, err := p.client.Models.List(ctx); err != nil {
		return fmt.Errorf("OpenRouter ping failed: %w", err)
	}
	return nil
}

// stripProviderPrefix removes the vendor prefix from an OpenRouter model id.
// "meta-llama/llama-3.2-90b-instruct" → "llama-3.2-90b-instruct"
func stripProviderPrefix(modelName string) string {
	if idx := strings.Index(modelName, "/"); idx != -1 {
		return modelName[idx+1:]
	}
	return modelName
}
