package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/quill-ai/quill/internal/errors"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)

	assert.Equal(t, "https://openrouter.ai/api/v1", cfg.OpenRouter.BaseURL)
	assert.Equal(t, ".md", cfg.Vault.Extension)
	assert.Equal(t, 10, cfg.Search.MaxResults)
	assert.Equal(t, 800, cfg.Search.ExcerptChars)
	assert.Equal(t, 10, cfg.Agent.MaxIterations)
	assert.True(t, cfg.Agent.ToolsEnabled)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := `
[openrouter]
model = "anthropic/claude-sonnet-4"
api_key = "sk-test"

[vault]
path = "/notes"

[agent]
max_iterations = 4
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "anthropic/claude-sonnet-4", cfg.OpenRouter.Model)
	assert.Equal(t, "sk-test", cfg.OpenRouter.APIKey)
	assert.Equal(t, "/notes", cfg.Vault.Path)
	assert.Equal(t, 4, cfg.Agent.MaxIterations)
	// Untouched sections keep their defaults.
	assert.Equal(t, 120, cfg.OpenRouter.TimeoutSeconds)
	assert.True(t, cfg.Search.Enabled)
}

func TestLoadMalformedTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[openrouter\nmodel="), 0644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Equal(t, apperrors.CategoryConfig, apperrors.GetCategory(err))
}

func TestLoadAPIKeyFromEnv(t *testing.T) {
	t.Setenv(EnvAPIKey, "sk-env")

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[vault]\npath = \"/notes\"\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sk-env", cfg.OpenRouter.APIKey)
}

func TestConfigFileKeyWinsOverEnv(t *testing.T) {
	t.Setenv(EnvAPIKey, "sk-env")

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[openrouter]\napi_key = \"sk-file\"\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sk-file", cfg.OpenRouter.APIKey)
}

func TestValidateRejectsBadValues(t *testing.T) {
	for name, mutate := range map[string]func(*Config){
		"zero max_results":      func(c *Config) { c.Search.MaxResults = 0 },
		"zero excerpt_chars":    func(c *Config) { c.Search.ExcerptChars = 0 },
		"zero max_iterations":   func(c *Config) { c.Agent.MaxIterations = 0 },
		"extension without dot": func(c *Config) { c.Vault.Extension = "md" },
	} {
		cfg := Default()
		mutate(cfg)
		assert.Error(t, cfg.Validate(), name)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg := Default()
	cfg.OpenRouter.Model = "openai/gpt-4o-mini"
	cfg.Vault.Path = "/vault"
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "openai/gpt-4o-mini", loaded.OpenRouter.Model)
	assert.Equal(t, "/vault", loaded.Vault.Path)
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "notes"), expandHome("~/notes"))
	assert.Equal(t, "/abs/notes", expandHome("/abs/notes"))
	assert.Equal(t, "", expandHome(""))
}
