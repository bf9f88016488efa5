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
)

// Default OpenAI settings.
const (
	defaultOpenAIURL       = "https://api.openai.com/v1"
	defaultOpenAIModel     = "text-embedding-3-small"
	defaultOpenAITimeout   = 30 * time.Second
	defaultOpenAIBatchSize = 64
)

// OpenAIEmbedder generates embeddings through the OpenAI embeddings API
// (or any compatible endpoint). The API accepts batches natively;
// oversized batches are split to respect the provider's batch limit.
type OpenAIEmbedder struct {
	baseURL    string
	apiKey     string
	model      string
	batchSize  int
	httpClient *http.Client

	mu   sync.Mutex
	dims int
}

// OpenAIConfig configures the OpenAI embedder.
type OpenAIConfig struct {
	BaseURL   string
	APIKey    string
	Model     string
	Timeout   time.Duration
	BatchSize int
}

// NewOpenAIEmbedder creates an OpenAI-backed embedder. A missing API key
// is a configuration error, caught at startup rather than per request.
func NewOpenAIEmbedder(cfg OpenAIConfig) (*OpenAIEmbedder, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai embedder: missing API key")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultOpenAIURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultOpenAIModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultOpenAITimeout
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultOpenAIBatchSize
	}
	return &OpenAIEmbedder{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		batchSize:  cfg.BatchSize,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// EmbedBatch embeds every text in input order. Sub-batches are sent
// sequentially; the first failure fails the whole batch.
func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += e.batchSize {
		end := start + e.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch, err := e.embedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, batch...)
	}
	return vectors, nil
}

func (e *OpenAIEmbedder) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	payload, err := json.Marshal(map[string]any{
		"input": texts,
		"model": e.model,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/embeddings", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, providerErr("openai", 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, providerErr("openai", resp.StatusCode, fmt.Errorf("%s", strings.TrimSpace(string(body))))
	}

	var result struct {
		Data []struct {
			Index     int       `json:"index"`
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, providerErr("openai", 0, fmt.Errorf("failed to decode response: %w", err))
	}
	if len(result.Data) != len(texts) {
		return nil, providerErr("openai", 0, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(result.Data)))
	}

	// The API documents order-preservation but also carries an index;
	// honor the index so a reordered response cannot mis-pair vectors.
	vectors := make([][]float32, len(texts))
	for i, d := range result.Data {
		idx := d.Index
		if idx < 0 || idx >= len(vectors) {
			idx = i
		}
		vectors[idx] = d.Embedding
	}

	e.mu.Lock()
	if e.dims == 0 && len(vectors) > 0 {
		e.dims = len(vectors[0])
	}
	e.mu.Unlock()

	return vectors, nil
}

// Dimensions returns the vector size, 0 until the first successful call.
func (e *OpenAIEmbedder) Dimensions() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dims
}

// ModelName returns the configured embedding model.
func (e *OpenAIEmbedder) ModelName() string { return e.model }
