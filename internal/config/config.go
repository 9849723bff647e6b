// Package config loads agentforge's YAML configuration with defaults and
// environment-variable overrides. Secrets never live in the YAML file; they
// come from the environment (optionally via a .env file loaded at startup).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration.
type Config struct {
	LLM        LLMConfig        `yaml:"llm"`
	Generation GenerationConfig `yaml:"generation"`
	Store      StoreConfig      `yaml:"store"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// LLMConfig configures the collaborator provider. Durations are strings
// ("120s") so the YAML stays human-editable.
type LLMConfig struct {
	Provider string `yaml:"provider"` // groq, gemini
	APIKey   string `yaml:"-"`        // environment only, never persisted
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"base_url"`
	Timeout  string `yaml:"timeout"`
}

// TimeoutDuration parses the request timeout, falling back to two minutes.
func (c LLMConfig) TimeoutDuration() time.Duration {
	return parseDuration(c.Timeout, 120*time.Second)
}

// GenerationConfig configures the assemble/validate/repair pipeline.
type GenerationConfig struct {
	OutputDir   string `yaml:"output_dir"`
	MaxRetries  int    `yaml:"max_retries"`
	ExecTimeout string `yaml:"exec_timeout"`
	AutoInstall bool   `yaml:"auto_install"`
	MaxOutputKB int    `yaml:"max_output_kb"`
}

// ExecTimeoutDuration parses the sandbox deadline, falling back to 30s.
func (c GenerationConfig) ExecTimeoutDuration() time.Duration {
	return parseDuration(c.ExecTimeout, 30*time.Second)
}

// StoreConfig configures run persistence.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// LoggingConfig configures the zap logger built by the CLI.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider: "groq",
			Model:    "openai/gpt-oss-120b",
			Timeout:  "120s",
		},
		Generation: GenerationConfig{
			OutputDir:   "output",
			MaxRetries:  5,
			ExecTimeout: "30s",
			AutoInstall: false,
			MaxOutputKB: 64,
		},
		Store: StoreConfig{
			Path: "data/forge.db",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads YAML configuration from path, falling back to defaults when
// the file does not exist, then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the configuration to a YAML file, creating directories as
// needed. The API key is deliberately not serialized.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides lets the environment trump the file. The API key is
// resolved per provider; FORGE_* variables cover operational knobs.
func (c *Config) applyEnvOverrides() {
	if p := os.Getenv("FORGE_LLM_PROVIDER"); p != "" {
		c.LLM.Provider = p
	}
	if m := os.Getenv("FORGE_LLM_MODEL"); m != "" {
		c.LLM.Model = m
	}
	if u := os.Getenv("FORGE_LLM_BASE_URL"); u != "" {
		c.LLM.BaseURL = u
	}

	switch c.LLM.Provider {
	case "gemini":
		c.LLM.APIKey = os.Getenv("GEMINI_API_KEY")
	default:
		c.LLM.APIKey = os.Getenv("GROQ_API_KEY")
	}

	if dir := os.Getenv("FORGE_OUTPUT_DIR"); dir != "" {
		c.Generation.OutputDir = dir
	}
	if v := os.Getenv("FORGE_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Generation.MaxRetries = n
		}
	}
	if v := os.Getenv("FORGE_EXEC_TIMEOUT"); v != "" {
		if _, err := time.ParseDuration(v); err == nil {
			c.Generation.ExecTimeout = v
		}
	}
	if v := os.Getenv("FORGE_AUTO_INSTALL"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Generation.AutoInstall = b
		}
	}
	if p := os.Getenv("FORGE_DB"); p != "" {
		c.Store.Path = p
	}
	if l := os.Getenv("FORGE_LOG_LEVEL"); l != "" {
		c.Logging.Level = l
	}
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
