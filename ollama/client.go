package ollama

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"

	"agentui/model"
)

type Client struct {
	client  *api.Client
	model   string
	baseURL string
}

// ChatResult is one accumulated streamed turn.
type ChatResult struct {
	Content      string
	ToolCalls    []api.ToolCall
	DoneReason   string
	PromptTokens int
	OutputTokens int
}

func NewClient(baseURL, modelName string) (*Client, error) {
	return NewClientWithHTTP(baseURL, modelName, http.DefaultClient)
}

// NewClientWithHTTP is NewClient with a caller-supplied HTTP client.
func NewClientWithHTTP(baseURL, modelName string, httpClient *http.Client) (*Client, error) {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if modelName == "" {
		modelName = "llama3.1:latest"
	}

	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid Ollama URL: %w", err)
	}

	return &Client{
		client:  api.NewClient(parsedURL, httpClient),
		model:   modelName,
		baseURL: baseURL,
	}, nil
}

// Chat streams a chat request and accumulates the chunks. An empty
// modelName uses the client's current model.
func (c *Client) Chat(ctx context.Context, modelName string, messages []api.Message, tools []api.Tool) (*ChatResult, error) {
	if modelName == "" {
		modelName = c.model
	}
	stream := true
	req := &api.ChatRequest{
		Model:    modelName,
		Messages: messages,
		Tools:    tools,
		Stream:   &stream,
	}

	result := &ChatResult{}
	var content strings.Builder
	err := c.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		content.WriteString(resp.Message.Content)
		result.ToolCalls = append(result.ToolCalls, resp.Message.ToolCalls...)
		if resp.Done {
			result.DoneReason = resp.DoneReason
			result.PromptTokens = resp.PromptEvalCount
			result.OutputTokens = resp.EvalCount
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result.Content = content.String()
	return result, nil
}

func (c *Client) ListModels(ctx context.Context) ([]model.ModelInfo, error) {
	resp, err := c.client.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}

	models := make([]model.ModelInfo, len(resp.Models))
	for i, m := range resp.Models {
		models[i] = model.ModelInfo{
			Name:         m.Name,
			Size:         m.Size,
			Provider:     "ollama",
			InternalName: m.Name,
		}
	}
	return models, nil
}

func (c *Client) SetModel(modelName string) {
	c.model = modelName
}

func (c *Client) GetModel() string {
	return c.model
}

func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := c.client.List(ctx)
	return err
}

// toolCallingModels is a curated list of model families and whether their
// Ollama builds accept tool definitions.
var toolCallingModels = map[string]bool{
	"qwen":      true,
	"llama3.1":  true,
	"llama3.2":  true,
	"llama3.3":  true,
	"mistral":   true,
	"command-r": true,
	"nemotron":  true,
	"granite3":  true,

	"llama3-gradient": false,
	"llama3":          false,
	"phi":             false,
	"gemma":           false,
	"codellama":       false,
	"deepseek":        false,
}

// orderedPrefixes lists the most specific prefixes first so "llama3.2" is not
// matched as plain "llama3".
var orderedPrefixes = []string{
	"llama3.3", "llama3.2", "llama3.1",
	"llama3-gradient",
	"command-r", "qwen", "mistral", "nemotron", "granite3",
	"codellama",
	"llama3",
	"deepseek", "phi", "gemma",
}

// ModelSupportsToolCalling reports whether a model is known to support tool
// calling. Unknown models report false.
func ModelSupportsToolCalling(modelName string) bool {
	modelName = strings.ToLower(modelName)
	for _, prefix := range orderedPrefixes {
		if strings.HasPrefix(modelName, prefix) {
			return toolCallingModels[prefix]
		}
	}
	return false
}
