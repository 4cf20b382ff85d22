package provider

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"agentui/config"
	"agentui/model"
)

const anthropicMaxTokens = 4096

// AnthropicProvider implements model.Provider with the official Anthropic SDK.
type AnthropicProvider struct {
	client  *anthropic.Client
	model   anthropic.Model
	baseURL string
}

// NewAnthropicProvider creates an Anthropic provider. baseURL defaults to
// the public API; an API key is required.
func NewAnthropicProvider(baseURL, apiKey, modelName string) (*AnthropicProvider, error) {
	if baseURL == "" {
		baseURL = "https://api.anthropic.com"
	}
	if apiKey == "" {
		return nil, fmt.Errorf("Anthropic API key is required")
	}

	anthropicModel := anthropic.ModelClaudeSonnet4_5_20250929
	if modelName != "" {
		anthropicModel = anthropic.Model(modelName)
	}

	client := anthropic.NewClient(
		option.WithBaseURL(baseURL),
		option.WithAPIKey(apiKey),
	)

	return &AnthropicProvider{
		client:  &client,
		model:   anthropicModel,
		baseURL: baseURL,
	}, nil
}

// Complete streams one turn and accumulates it into a full message.
func (p *AnthropicProvider) Complete(ctx context.Context, req model.CompletionRequest) (*model.Completion, error) {
	modelName := p.model
	if req.Model != "" {
		modelName = anthropic.Model(req.Model)
	}

	messages := req.Messages
	if len(req.Tools) == 0 {
		messages = FlattenToolTurns(messages)
	}

	params := anthropic.MessageNewParams{
		Model:     modelName,
		Messages:  ConvertToAnthropicMessages(messages),
		MaxTokens: anthropicMaxTokens,
	}
	if system := systemWithTools(req.System, req.Tools); system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	if len(req.Tools) > 0 {
		params.Tools = ConvertToolsToAnthropic(req.Tools)
	}

	stream := p.client.Messages.NewStreaming(ctx, params)
	defer stream.Close()

	msg := anthropic.Message{}
	for stream.Next() {
		if err := msg.Accumulate(stream.Current()); err != nil {
			return nil, fmt.Errorf("error accumulating message: %w", err)
		}
	}
	if err := stream.Err(); err != nil {
		return nil, fmt.Errorf("Anthropic streaming error: %w", err)
	}

	text, calls := ConvertFromAnthropicContent(msg.Content)
	if config.DebugLog != nil {
		config.DebugLog.Debug("anthropic turn done",
			"model", modelName, "stop", msg.StopReason, "tool_calls", len(calls),
			"input_tokens", msg.Usage.InputTokens, "output_tokens", msg.Usage.OutputTokens)
	}

	return &model.Completion{
		Text:      text,
		ToolCalls: calls,
		Usage: model.Usage{
			InputTokens:  msg.Usage.InputTokens,
			OutputTokens: msg.Usage.OutputTokens,
		},
	}, nil
}

// ListModels lists models through the Models API. Callers fall back to the
// curated list in config when this fails.
func (p *AnthropicProvider) ListModels(ctx context.Context) ([]model.ModelInfo, error) {
	page, err := p.client.Models.List(ctx, anthropic.ModelListParams{Limit: anthropic.Int(100)})
	if err != nil {
		return nil, fmt.Errorf("failed to list Anthropic models: %w", err)
	}

	result := make([]model.ModelInfo, 0, len(page.Data))
	for _, m := range page.Data {
		result = append(result, model.ModelInfo{
			Name:         m.ID,
			InternalName: m.ID,
			Provider:     "anthropic",
		})
	}
	return result, nil
}

func (p *AnthropicProvider) GetModel() string {
	return string(p.model)
}

func (p *AnthropicProvider) SetModel(modelName string) {
	p.model = anthropic.Model(modelName)
}

// Ping sends a one-token request; Anthropic has no health endpoint.
func (p *AnthropicProvider) Ping(ctx context.Context) error {
	_, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     p.model,
		MaxTokens: 1,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock("ping")),
		},
	})
	if err != nil {
		return fmt.Errorf("Anthropic ping failed: %w", err)
	}
	return nil
}
