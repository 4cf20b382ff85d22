package main

import (
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"agentui/config"
	"agentui/model"
	"agentui/provider"
	"agentui/storage"
	"agentui/tools"
	"agentui/ui"
)

const Version = "v0.1.0"

// fatal shows a configuration error in the error modal and exits non-zero.
func fatal(title, message string) {
	p := tea.NewProgram(
		ui.NewErrorModal(title, message),
		tea.WithAltScreen(),
	)
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %s\n", title, message)
	}
	os.Exit(1)
}

func main() {
	if len(os.Args) > 1 && (os.Args[1] == "--version" || os.Args[1] == "-v") {
		fmt.Println("agentui", Version)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fatal("Configuration Error", fmt.Sprintf("Failed to load config: %v", err))
	}

	// Debug logging needs the data dir, so it starts after config is loaded
	config.InitDebugLog(cfg.DataDir())

	if err := cfg.Validate(); err != nil {
		msg := fmt.Sprintf("%v.\n\nSet one of:\n  • %s\n\nor add a key to %s/credentials.toml, "+
			"or enable a local Ollama server in %s/config.toml.",
			err, strings.Join(config.CredentialEnvVars(), "\n  • "), cfg.DataDir(), cfg.DataDir())
		if config.DebugLog != nil {
			config.DebugLog.Error("configuration invalid", "err", err)
		}
		fatal("Missing API Credential", msg)
	}

	threadStorage, err := storage.NewThreadStorage(cfg.DataDir())
	if err != nil {
		fatal("Storage Error", fmt.Sprintf("Failed to open thread storage: %v", err))
	}
	defer threadStorage.Close()

	providers := provider.InitializeProviders(cfg)
	if len(providers) == 0 {
		fatal("Provider Error", "No provider could be initialized. Check the debug log (AGENTUI_DEBUG=1) for details.")
	}

	registry, err := tools.NewDefaultRegistry(cfg.WorkspaceDir(), nil)
	if err != nil {
		fatal("Tool Registry Error", fmt.Sprintf("Failed to register tools: %v", err))
	}

	session := model.NewModel(cfg, threadStorage, providers, registry)
	if config.DebugLog != nil {
		config.DebugLog.Info("session starting",
			"version", Version,
			"providers", len(providers),
			"tools", len(registry.Tools()),
			"workspace", cfg.WorkspaceDir())
	}

	p := tea.NewProgram(
		ui.NewAppView(session),
		tea.WithAltScreen(),
	)

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running agentui: %v\n", err)
		os.Exit(1)
	}
}
