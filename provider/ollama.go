package provider

import (
	"context"
	"fmt"

	"agentui/config"
	"agentui/model"
	"agentui/ollama"
)

// OllamaProvider wraps ollama.Client to implement model.Provider. It owns
// every conversion between model types and Ollama API types.
type OllamaProvider struct {
	client *ollama.Client
}

// NewOllamaProvider creates an Ollama provider. An empty baseURL means
// http://localhost:11434.
func NewOllamaProvider(baseURL, modelName string) (*OllamaProvider, error) {
	client, err := ollama.NewClient(baseURL, modelName)
	if err != nil {
		return nil, fmt.Errorf("failed to create Ollama client: %w", err)
	}
	return &OllamaProvider{client: client}, nil
}

// NewOllamaProviderWithClient wraps an existing client.
func NewOllamaProviderWithClient(client *ollama.Client) *OllamaProvider {
	return &OllamaProvider{client: client}
}

func (p *OllamaProvider) Complete(ctx context.Context, req model.CompletionRequest) (*model.Completion, error) {
	modelName := req.Model
	if modelName == "" {
		modelName = p.client.GetModel()
	}
	if len(req.Tools) > 0 && !ollama.ModelSupportsToolCalling(modelName) && config.DebugLog != nil {
		config.DebugLog.Warn("model may not support tool calling", "model", modelName)
	}

	messages := ConvertToOllamaMessages(systemWithTools(req.System, req.Tools), req.Messages)
	result, err := p.client.Chat(ctx, modelName, messages, ConvertToolsToOllama(req.Tools))
	if err != nil {
		return nil, fmt.Errorf("Ollama chat error: %w", err)
	}

	return &model.Completion{
		Text:      result.Content,
		ToolCalls: ConvertFromOllamaToolCalls(result.ToolCalls),
		Usage: model.Usage{
			InputTokens:  int64(result.PromptTokens),
			OutputTokens: int64(result.OutputTokens),
		},
	}, nil
}

func (p *OllamaProvider) ListModels(ctx context.Context) ([]model.ModelInfo, error) {
	return p.client.ListModels(ctx)
}

func (p *OllamaProvider) GetModel() string {
	return p.client.GetModel()
}

func (p *OllamaProvider) SetModel(modelName string) {
	p.client.SetModel(modelName)
}

// SupportsTools reports whether the named model is known to accept tools.
func (p *OllamaProvider) SupportsTools(modelName string) bool {
	return ollama.ModelSupportsToolCalling(modelName)
}

func (p *OllamaProvider) Ping(ctx context.Context) error {
	return p.client.Ping(ctx)
}
