package collaborator

import (
	"context"
	"fmt"
	"time"
)

// ProviderConfig selects and configures the backing LLM provider.
type ProviderConfig struct {
	Provider string // "groq" or "gemini"
	APIKey   string
	Model    string
	BaseURL  string
	Timeout  time.Duration
}

// NewClient builds the provider named by the config. Unknown provider names
// are a configuration error, not a transport one.
func NewClient(ctx context.Context, cfg ProviderConfig) (Client, error) {
	switch cfg.Provider {
	case "groq", "":
		return NewGroqClientWithConfig(GroqConfig{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Timeout: cfg.Timeout,
		}), nil
	case "gemini":
		return NewGeminiClient(ctx, cfg.APIKey, cfg.Model)
	default:
		return nil, fmt.Errorf("unknown LLM provider %q (want groq or gemini)", cfg.Provider)
	}
}
