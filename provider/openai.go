package provider

import (
	"context"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"agentui/config"
	"agentui/model"
)

// OpenAIProvider implements model.Provider with the official OpenAI SDK.
type OpenAIProvider struct {
	client  openai.Client
	model   string
	baseURL string
}

// NewOpenAIProvider creates an OpenAI provider. baseURL defaults to the
// public API; an API key is required.
func NewOpenAIProvider(baseURL, apiKey, modelName string) (*OpenAIProvider, error) {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	if modelName == "" {
		modelName = "gpt-4o-mini"
	}

	client := openai.NewClient(
		option.WithBaseURL(baseURL),
		option.WithAPIKey(apiKey),
	)

	return &OpenAIProvider{
		client:  client,
		model:   modelName,
		baseURL: baseURL,
	}, nil
}

func (p *OpenAIProvider) Complete(ctx context.Context, req model.CompletionRequest) (*model.Completion, error) {
	modelName := p.model
	if req.Model != "" {
		modelName = req.Model
	}
	completion, err := streamChatCompletion(ctx, p.client, modelName, systemWithTools(req.System, req.Tools), req)
	if err != nil {
		return nil, fmt.Errorf("OpenAI streaming error: %w", err)
	}
	return completion, nil
}

// streamChatCompletion runs one streamed chat completion and accumulates the
// chunks. It is shared by every OpenAI-compatible provider.
func streamChatCompletion(ctx context.Context, client openai.Client, modelName, system string, req model.CompletionRequest) (*model.Completion, error) {
	params := openai.ChatCompletionNewParams{
		Messages: ConvertToOpenAIMessages(system, req.Messages),
		Model:    openai.ChatModel(modelName),
		StreamOptions: openai.ChatCompletionStreamOptionsParam{
			IncludeUsage: openai.Bool(true),
		},
	}
	if len(req.Tools) > 0 {
		params.Tools = ConvertToolsToOpenAI(req.Tools)
	}

	stream := client.Chat.Completions.NewStreaming(ctx, params)
	defer stream.Close()

	acc := openai.ChatCompletionAccumulator{}
	for stream.Next() {
		acc.AddChunk(stream.Current())
	}
	if err := stream.Err(); err != nil {
		return nil, err
	}

	completion := &model.Completion{
		Usage: model.Usage{
			InputTokens:  acc.Usage.PromptTokens,
			OutputTokens: acc.Usage.CompletionTokens,
		},
	}
	if len(acc.Choices) > 0 {
		message := acc.Choices[0].Message
		completion.Text = message.Content
		completion.ToolCalls = ConvertFromOpenAIToolCalls(message.ToolCalls)
	}

	if config.DebugLog != nil {
		config.DebugLog.Debug("chat completion done",
			"model", modelName, "tool_calls", len(completion.ToolCalls),
			"input_tokens", completion.Usage.InputTokens, "output_tokens", completion.Usage.OutputTokens)
	}
	return completion, nil
}

func (p *OpenAIProvider) ListModels(ctx context.Context) ([]model.ModelInfo, error) {
	page, err := p.client.Models.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list OpenAI models: %w", err)
	}

	result := make([]model.ModelInfo, 0, len(page.Data))
	for _, m := range page.Data {
		result = append(result, model.ModelInfo{
			Name:         m.ID,
			InternalName: m.ID,
			Provider:     "openai",
		})
	}
	return result, nil
}

func (p *OpenAIProvider) GetModel() string {
	return p.model
}

func (p *OpenAIProvider) SetModel(modelName string) {
	p.model = modelName
}

// Ping lists models as a lightweight authenticated call.
func (p *OpenAIProvider) Ping(ctx context.Context) error {
	if _, err := p.client.Models.List(ctx); err != nil {
		return fmt.Errorf("OpenAI ping failed: %w", err)
	}
	return nil
}
