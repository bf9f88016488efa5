package embeddings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/docuchat/docuchat/internal/domain"
)

// Default Ollama settings.
const (
	defaultOllamaURL     = "http://localhost:11434"
	defaultOllamaModel   = "nomic-embed-text"
	defaultOllamaTimeout = 30 * time.Second
)

// OllamaEmbedder generates embeddings through the Ollama API. Ollama has
// no native batch endpoint, so batches fan out into bounded concurrent
// per-text requests.
type OllamaEmbedder struct {
	baseURL     string
	model       string
	maxInFlight int
	httpClient  *http.Client

	mu   sync.Mutex
	dims int
}

// OllamaConfig configures the Ollama embedder.
type OllamaConfig struct {
	BaseURL string
	Model   string
	Timeout time.Duration
	// MaxConcurrent bounds in-flight requests to the provider so a large
	// batch queues instead of firing unboundedly.
	MaxConcurrent int
}

// NewOllamaEmbedder creates an Ollama-backed embedder.
func NewOllamaEmbedder(cfg OllamaConfig) *OllamaEmbedder {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultOllamaURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultOllamaModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultOllamaTimeout
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 4
	}
	return &OllamaEmbedder{
		baseURL:     cfg.BaseURL,
		model:       cfg.Model,
		maxInFlight: cfg.MaxConcurrent,
		httpClient:  &http.Client{Timeout: cfg.Timeout},
	}
}

// EmbedBatch embeds every text, preserving input order. Any single
// failure fails the whole batch.
func (e *OllamaEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.maxInFlight)
	for i, text := range texts {
		g.Go(func() error {
			vec, err := e.embed(gctx, text)
			if err != nil {
				return err
			}
			vectors[i] = vec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return vectors, nil
}

func (e *OllamaEmbedder) embed(ctx context.Context, text string) ([]float32, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, &domain.ProviderError{Provider: "ollama", Err: fmt.Errorf("cannot embed empty text")}
	}

	payload, err := json.Marshal(map[string]any{
		"model":  e.model,
		"prompt": text,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/api/embeddings", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, &domain.ProviderError{Provider: "ollama", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &domain.ProviderError{
			Provider:    "ollama",
			Status:      resp.StatusCode,
			RateLimited: resp.StatusCode == http.StatusTooManyRequests,
			Err:         fmt.Errorf("%s", strings.TrimSpace(string(body))),
		}
	}

	var result struct {
		Embedding []float32 `json:"embedding"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &domain.ProviderError{Provider: "ollama", Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	if len(result.Embedding) == 0 {
		return nil, &domain.ProviderError{Provider: "ollama", Err: fmt.Errorf("empty embedding returned")}
	}

	e.mu.Lock()
	if e.dims == 0 {
		e.dims = len(result.Embedding)
	}
	e.mu.Unlock()

	return result.Embedding, nil
}

// Dimensions returns the vector size, 0 until the first successful call.
func (e *OllamaEmbedder) Dimensions() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dims
}

// ModelName returns the configured embedding model.
func (e *OllamaEmbedder) ModelName() string { return e.model }
