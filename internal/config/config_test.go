package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "groq", cfg.LLM.Provider)
	assert.Equal(t, 5, cfg.Generation.MaxRetries)
	assert.Equal(t, 30*time.Second, cfg.Generation.ExecTimeoutDuration())
	assert.False(t, cfg.Generation.AutoInstall)
}

func TestLoadParsesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "forge.yaml")
	content := `llm:
  provider: gemini
  model: gemini-2.0-flash
generation:
  output_dir: /tmp/agents
  max_retries: 3
  exec_timeout: 45s
  auto_install: true
store:
  path: /tmp/forge.db
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.Equal(t, "/tmp/agents", cfg.Generation.OutputDir)
	assert.Equal(t, 3, cfg.Generation.MaxRetries)
	assert.Equal(t, 45*time.Second, cfg.Generation.ExecTimeoutDuration())
	assert.True(t, cfg.Generation.AutoInstall)
	assert.Equal(t, "/tmp/forge.db", cfg.Store.Path)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "forge.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm: [not: a: mapping"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("FORGE_LLM_PROVIDER", "gemini")
	t.Setenv("GEMINI_API_KEY", "g-key")
	t.Setenv("FORGE_MAX_RETRIES", "7")
	t.Setenv("FORGE_EXEC_TIMEOUT", "90s")
	t.Setenv("FORGE_AUTO_INSTALL", "true")
	t.Setenv("FORGE_DB", "/var/forge.db")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.Equal(t, "g-key", cfg.LLM.APIKey)
	assert.Equal(t, 7, cfg.Generation.MaxRetries)
	assert.Equal(t, 90*time.Second, cfg.Generation.ExecTimeoutDuration())
	assert.True(t, cfg.Generation.AutoInstall)
	assert.Equal(t, "/var/forge.db", cfg.Store.Path)
}

func TestAPIKeyFollowsProvider(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "groq-key")
	t.Setenv("GEMINI_API_KEY", "gemini-key")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "groq-key", cfg.LLM.APIKey)
}

func TestSaveOmitsAPIKey(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LLM.APIKey = "super-secret"

	path := filepath.Join(t.TempDir(), "sub", "forge.yaml")
	require.NoError(t, cfg.Save(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "super-secret")
}
