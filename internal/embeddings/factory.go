package embeddings

import (
	"fmt"
	"time"

	"github.com/docuchat/docuchat/internal/domain"
)

// Config selects and configures an embedding provider.
type Config struct {
	Provider      string // "ollama" or "openai"
	BaseURL       string
	APIKey        string
	Model         string
	Timeout       time.Duration
	MaxConcurrent int
	BatchSize     int
}

// New resolves the configured embedding provider. Resolution happens
// once at startup; an unconfigured or unknown provider fails fast.
func New(cfg Config) (Embedder, error) {
	switch cfg.Provider {
	case "ollama":
		return NewOllamaEmbedder(OllamaConfig{
			BaseURL:       cfg.BaseURL,
			Model:         cfg.Model,
			Timeout:       cfg.Timeout,
			MaxConcurrent: cfg.MaxConcurrent,
		}), nil
	case "openai":
		return NewOpenAIEmbedder(OpenAIConfig{
			BaseURL:   cfg.BaseURL,
			APIKey:    cfg.APIKey,
			Model:     cfg.Model,
			Timeout:   cfg.Timeout,
			BatchSize: cfg.BatchSize,
		})
	case "":
		return nil, domain.ErrNoEmbeddingModel
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
}
