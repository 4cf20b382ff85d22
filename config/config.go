package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/lmittmann/tint"
)

type SystemConfig struct {
	DataDirectory string `toml:"data_directory"`
}

type OllamaConfig struct {
	Host    string `toml:"host"`
	Enabled bool   `toml:"enabled"`
}

// ProviderConfig describes one cloud provider entry in config.toml.
type ProviderConfig struct {
	ID      string   `toml:"id"`
	Name    string   `toml:"name"`
	BaseURL string   `toml:"base_url"`
	Enabled bool     `toml:"enabled"`
	Models  []string `toml:"models,omitempty"` // Shown when the provider can't list models
}

type UserConfig struct {
	DefaultProvider       string           `toml:"default_provider"`
	DefaultModel          string           `toml:"default_model"`
	SystemPrompt          string           `toml:"system_prompt,omitempty"`
	MaxIterations         int              `toml:"max_iterations"`
	RequestTimeoutSeconds int              `toml:"request_timeout_seconds"`
	Workspace             string           `toml:"workspace,omitempty"`
	Ollama                OllamaConfig     `toml:"ollama"`
	Providers             []ProviderConfig `toml:"providers"`
}

type Config struct {
	DataDirectory   string
	DefaultProvider string
	DefaultModel    string
	SystemPrompt    string
	MaxIterations   int
	RequestTimeout  time.Duration
	Workspace       string
	OllamaHost      string
	OllamaEnabled   bool
	Providers       []ProviderConfig
	Credentials     *CredentialStore
}

var Debug = false
var DebugLog *slog.Logger

func (c *Config) DataDir() string {
	return ExpandPath(c.DataDirectory)
}

// WorkspaceDir is the root every file and CSV tool is confined to.
func (c *Config) WorkspaceDir() string {
	if c.Workspace != "" {
		return ExpandPath(c.Workspace)
	}
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return wd
}

// EnabledProviders returns the enabled provider IDs that can actually be used:
// cloud providers need a credential, Ollama needs to be switched on.
func (c *Config) EnabledProviders() []string {
	var ids []string
	if c.OllamaEnabled {
		ids = append(ids, "ollama")
	}
	for _, p := range c.Providers {
		if !p.Enabled || p.ID == "ollama" {
			continue
		}
		if c.Credentials == nil || c.Credentials.Get(p.ID) == "" {
			continue
		}
		ids = append(ids, p.ID)
	}
	return ids
}

// Provider looks up a provider entry by ID.
func (c *Config) Provider(id string) (ProviderConfig, bool) {
	for _, p := range c.Providers {
		if p.ID == id {
			return p, true
		}
	}
	return ProviderConfig{}, false
}

// Validate reports the configuration error that keeps the session from
// starting at all: no usable credential for any provider.
func (c *Config) Validate() error {
	if len(c.EnabledProviders()) > 0 {
		return nil
	}
	return fmt.Errorf("no API credential found for any enabled provider")
}

func (c *Config) applyUserConfig(u *UserConfig) {
	c.DefaultProvider = u.DefaultProvider
	c.DefaultModel = u.DefaultModel
	c.SystemPrompt = u.SystemPrompt
	c.Workspace = u.Workspace
	c.OllamaHost = u.Ollama.Host
	c.OllamaEnabled = u.Ollama.Enabled
	c.Providers = u.Providers

	if u.MaxIterations > 0 {
		c.MaxIterations = u.MaxIterations
	}
	if u.RequestTimeoutSeconds > 0 {
		c.RequestTimeout = time.Duration(u.RequestTimeoutSeconds) * time.Second
	}
	if c.SystemPrompt == "" {
		c.SystemPrompt = DefaultSystemPrompt
	}
}

func CheckDebug() bool {
	debug := os.Getenv("AGENTUI_DEBUG")
	return debug == "true" || debug == "1"
}

func InitDebugLog(dataDir string) {
	if !CheckDebug() {
		return
	}

	Debug = true
	logPath := filepath.Join(dataDir, "debug.log")

	// 0600 - may contain conversation excerpts
	f, err := os.OpenFile(logPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0600)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not open debug log at %s: %v\n", logPath, err)
		return
	}

	DebugLog = slog.New(tint.NewHandler(f, &tint.Options{
		Level:      slog.LevelDebug,
		AddSource:  true,
		TimeFormat: "2006-01-02 15:04:05.000",
		NoColor:    true,
	}))
	DebugLog.Info("debug logging started", "AGENTUI_DEBUG", os.Getenv("AGENTUI_DEBUG"), "path", logPath)
}

func Load() (*Config, error) {
	cfg := &Config{
		DataDirectory:  GetDefaultDataDir(),
		MaxIterations:  DefaultMaxIterations,
		RequestTimeout: DefaultRequestTimeout,
		SystemPrompt:   DefaultSystemPrompt,
	}

	if dataDir := os.Getenv("AGENTUI_DATA_DIR"); dataDir != "" {
		cfg.DataDirectory = dataDir
	} else {
		systemCfg, err := LoadSystemConfig()
		if err != nil {
			return nil, fmt.Errorf("failed to load system config: %w", err)
		}
		cfg.DataDirectory = systemCfg.DataDirectory
	}

	dataDir := cfg.DataDir()
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	// Ensure data directory has correct permissions (fix if needed)
	if err := EnsureDataDirPermissions(dataDir); err != nil {
		return nil, fmt.Errorf("failed to set data directory permissions: %w", err)
	}

	userCfg, err := LoadUserConfig(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	}
	cfg.applyUserConfig(userCfg)

	creds, err := LoadCredentials(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load credentials: %w", err)
	}
	cfg.Credentials = creds

	return cfg, nil
}
