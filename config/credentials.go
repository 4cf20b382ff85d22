package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/BurntSushi/toml"
)

// credentialEnvVars maps provider IDs to the environment variable that
// overrides the stored key.
var credentialEnvVars = map[string]string{
	"anthropic":  "ANTHROPIC_API_KEY",
	"openai":     "OPENAI_API_KEY",
	"openrouter": "OPENROUTER_API_KEY",
}

// CredentialStore holds API keys keyed by provider ID.
type CredentialStore struct {
	credentials map[string]string // providerID → API key
}

type credentialsFile struct {
	Credentials map[string]string `toml:"credentials"`
}

// NewCredentialStore creates an empty credential store
func NewCredentialStore() *CredentialStore {
	return &CredentialStore{credentials: make(map[string]string)}
}

// LoadCredentials reads <dataDir>/credentials.toml (creating a commented
// template on first run) and applies environment overrides.
func LoadCredentials(dataDir string) (*CredentialStore, error) {
	store := NewCredentialStore()
	path := credentialsPath(dataDir)

	if !FileExists(path) {
		if err := os.WriteFile(path, []byte(GenerateCredentialsTemplate()), 0600); err != nil {
			return nil, fmt.Errorf("failed to write credentials template: %w", err)
		}
	} else {
		var cf credentialsFile
		if _, err := toml.DecodeFile(path, &cf); err != nil {
			return nil, fmt.Errorf("failed to parse credentials file: %w", err)
		}
		for id, key := range cf.Credentials {
			store.credentials[id] = key
		}
	}

	for id, envVar := range credentialEnvVars {
		if key := os.Getenv(envVar); key != "" {
			store.credentials[id] = key
		}
	}

	return store, nil
}

// Get retrieves a credential for a provider
func (c *CredentialStore) Get(providerID string) string {
	return c.credentials[providerID]
}

// Set stores a credential for a provider
func (c *CredentialStore) Set(providerID string, apiKey string) {
	c.credentials[providerID] = apiKey
}

// Save writes the credentials to disk with 0600 permissions
func (c *CredentialStore) Save(dataDir string) error {
	f, err := os.OpenFile(credentialsPath(dataDir), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create credentials file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(credentialsFile{Credentials: c.credentials}); err != nil {
		return fmt.Errorf("failed to encode credentials: %w", err)
	}
	return nil
}

// CredentialEnvVars lists the environment variables consulted for API keys,
// in a stable order for error messages.
func CredentialEnvVars() []string {
	vars := make([]string, 0, len(credentialEnvVars))
	for _, v := range credentialEnvVars {
		vars = append(vars, v)
	}
	sort.Strings(vars)
	return vars
}

// credentialsPath returns the path to the plain text credentials file
func credentialsPath(dataDir string) string {
	return filepath.Join(dataDir, "credentials.toml")
}
