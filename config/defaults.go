package config

import "time"

const (
	DefaultMaxIterations  = 15
	DefaultRequestTimeout = 120 * time.Second
)

const DefaultSystemPrompt = "You are a helpful assistant running in a terminal. " +
	"You can read, write and edit files, inspect CSV files and fetch web pages " +
	"with the tools provided. Paths are relative to the workspace. " +
	"Use tools when you need information you don't have, then answer concisely."

func DefaultSystemConfig() *SystemConfig {
	return &SystemConfig{
		DataDirectory: "~/.local/share/agentui",
	}
}

func DefaultUserConfig() *UserConfig {
	return &UserConfig{
		DefaultProvider:       "anthropic",
		DefaultModel:          "claude-sonnet-4-5-20250929",
		MaxIterations:         DefaultMaxIterations,
		RequestTimeoutSeconds: int(DefaultRequestTimeout / time.Second),
		Ollama: OllamaConfig{
			Host:    "http://localhost:11434",
			Enabled: false,
		},
		Providers: []ProviderConfig{
			{
				ID:      "anthropic",
				Name:    "Anthropic",
				BaseURL: "https://api.anthropic.com",
				Enabled: true,
			},
			{
				ID:      "openai",
				Name:    "OpenAI",
				BaseURL: "https://api.openai.com/v1",
				Enabled: true,
			},
			{
				ID:      "openrouter",
				Name:    "OpenRouter",
				BaseURL: "https://openrouter.ai/api/v1",
				Enabled: true,
				Models:  []string{"openai/gpt-4o-mini", "anthropic/claude-sonnet-4.5", "qwen/qwen3-coder"},
			},
		},
	}
}

func GenerateSystemConfigTemplate() string {
	return `# agentui System Configuration
# Location: ~/.config/agentui/settings.toml
# This file uses TOML format: https://toml.io

# Directory where threads, credentials and user config are stored
data_directory = "~/.local/share/agentui"
`
}

func GenerateUserConfigTemplate() string {
	return `# agentui User Configuration
# Location: <data_directory>/config.toml
# This file uses TOML format: https://toml.io

# Provider and model preselected in the model list
default_provider = "anthropic"
default_model = "claude-sonnet-4-5-20250929"

# System prompt seeded into every thread (optional, a built-in default is used)
# system_prompt = "You are a helpful coding assistant."

# Maximum model turns per message before the agent gives up
max_iterations = 15

# Timeout for a single model call
request_timeout_seconds = 120

# Root directory for file and CSV tools (defaults to the launch directory)
# workspace = "~/projects"

[ollama]
host = "http://localhost:11434"
enabled = false

[[providers]]
id = "anthropic"
name = "Anthropic"
base_url = "https://api.anthropic.com"
enabled = true

[[providers]]
id = "openai"
name = "OpenAI"
base_url = "https://api.openai.com/v1"
enabled = true

[[providers]]
id = "openrouter"
name = "OpenRouter"
base_url = "https://openrouter.ai/api/v1"
enabled = true
models = ["openai/gpt-4o-mini", "anthropic/claude-sonnet-4.5", "qwen/qwen3-coder"]
`
}

func GenerateCredentialsTemplate() string {
	return `# agentui Credentials
# Location: <data_directory>/credentials.toml
# Environment variables (ANTHROPIC_API_KEY, OPENAI_API_KEY, OPENROUTER_API_KEY)
# take precedence over values in this file.

[credentials]
# anthropic = "sk-ant-..."
# openai = "sk-..."
# openrouter = "sk-or-..."
`
}
