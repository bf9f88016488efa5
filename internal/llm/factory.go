package llm

import (
	"fmt"
	"time"
)

// Config selects and configures a completion provider.
type Config struct {
	Provider string // "ollama" or "openai"
	BaseURL  string
	APIKey   string
	Model    string
	Timeout  time.Duration
}

// New resolves the configured completion provider once at startup.
func New(cfg Config) (Client, error) {
	switch cfg.Provider {
	case "ollama":
		return NewOllamaClient(cfg.BaseURL, cfg.Model), nil
	case "openai":
		return NewOpenAIClient(OpenAIConfig{
			BaseURL: cfg.BaseURL,
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			Timeout: cfg.Timeout,
		})
	case "":
		return nil, fmt.Errorf("no completion provider configured")
	default:
		return nil, fmt.Errorf("unknown completion provider %q", cfg.Provider)
	}
}
