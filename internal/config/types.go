// Package config provides configuration types for Quill.
package config

// Config represents the main Quill configuration.
type Config struct {
	OpenRouter OpenRouterConfig `toml:"openrouter"`
	Vault      VaultConfig      `toml:"vault"`
	Search     SearchConfig     `toml:"search"`
	Agent      AgentConfig      `toml:"agent"`
	Paths      PathsConfig      `toml:"paths"`
}

// OpenRouterConfig configures the chat completion provider.
type OpenRouterConfig struct {
	APIKey         string `toml:"api_key"`
	Model          string `toml:"model"`
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// VaultConfig configures the note vault.
type VaultConfig struct {
	Path      string `toml:"path"`
	Extension string `toml:"extension"`
}

// SearchConfig configures relevance search over the vault.
type SearchConfig struct {
	Enabled    bool `toml:"enabled"`
	MaxResults int  `toml:"max_results"`

	// ExcerptChars bounds how much of each matched note is handed to the
	// model as grounding.
	ExcerptChars int `toml:"excerpt_chars"`
}

// AgentConfig configures the conversation loop.
type AgentConfig struct {
	ToolsEnabled  bool `toml:"tools_enabled"`
	MaxIterations int  `toml:"max_iterations"`
}

// PathsConfig contains file path settings.
type PathsConfig struct {
	DataDir string `toml:"data_dir"`
	StatsDB string `toml:"stats_db"`
}
