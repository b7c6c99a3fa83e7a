// Package config handles Quill configuration loading and management.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	apperrors "github.com/quill-ai/quill/internal/errors"
)

// EnvAPIKey is consulted when no API key is set in the config file.
const EnvAPIKey = "OPENROUTER_API_KEY"

// Default returns the default configuration.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	dataDir := filepath.Join(homeDir, ".quill")

	return &Config{
		OpenRouter: OpenRouterConfig{
			Model:          "google/gemini-2.0-flash-001",
			BaseURL:        "https://openrouter.ai/api/v1",
			TimeoutSeconds: 120,
		},
		Vault: VaultConfig{
			Extension: ".md",
		},
		Search: SearchConfig{
			Enabled:      true,
			MaxResults:   10,
			ExcerptChars: 800,
		},
		Agent: AgentConfig{
			ToolsEnabled:  true,
			MaxIterations: 10,
		},
		Paths: PathsConfig{
			DataDir: dataDir,
			StatsDB: filepath.Join(dataDir, "stats.db"),
		},
	}
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".quill", "config.toml")
}

// Load loads the configuration from the given path.
// If the file doesn't exist, returns defaults.
func Load(configPath string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(configPath)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	if err == nil {
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, apperrors.Config(apperrors.CodeConfigInvalid, "invalid config file").
				WithSuggestion("check the TOML syntax in " + configPath)
		}
	}

	cfg = expandPaths(cfg)

	if cfg.OpenRouter.APIKey == "" {
		cfg.OpenRouter.APIKey = os.Getenv(EnvAPIKey)
	}

	return cfg, cfg.Validate()
}

// Save saves the configuration to the given path.
func (c *Config) Save(configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	file, err := os.Create(configPath)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := toml.NewEncoder(file)
	return encoder.Encode(c)
}

// Validate checks the values a bad config file could break.
func (c *Config) Validate() error {
	if c.Search.MaxResults < 1 {
		return apperrors.Config(apperrors.CodeConfigInvalid, "search.max_results must be at least 1")
	}
	if c.Search.ExcerptChars < 1 {
		return apperrors.Config(apperrors.CodeConfigInvalid, "search.excerpt_chars must be at least 1")
	}
	if c.Agent.MaxIterations < 1 {
		return apperrors.Config(apperrors.CodeConfigInvalid, "agent.max_iterations must be at least 1")
	}
	if c.Vault.Extension != "" && !strings.HasPrefix(c.Vault.Extension, ".") {
		return apperrors.Config(apperrors.CodeConfigInvalid, "vault.extension must start with a dot").
			WithSuggestion(`use e.g. ".md"`)
	}
	return nil
}

// expandPaths expands ~ in paths.
func expandPaths(cfg *Config) *Config {
	cfg.Paths.DataDir = expandHome(cfg.Paths.DataDir)
	cfg.Paths.StatsDB = expandHome(cfg.Paths.StatsDB)
	cfg.Vault.Path = expandHome(cfg.Vault.Path)
	return cfg
}

func expandHome(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, path[1:])
}
