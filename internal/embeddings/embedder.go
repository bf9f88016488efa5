// Package embeddings converts text into fixed-dimensionality vectors
// via an external embedding provider.
package embeddings

import (
	"context"
	"net/http"

	"github.com/docuchat/docuchat/internal/domain"
)

// Embedder turns a batch of texts into one vector per input text,
// order-preserving. A batch either succeeds for every input or fails as
// a whole; no input is ever silently dropped.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	ModelName() string
}

func providerErr(provider string, status int, err error) *domain.ProviderError {
	return &domain.ProviderError{
		Provider:    provider,
		Status:      status,
		RateLimited: status == http.StatusTooManyRequests,
		Err:         err,
	}
}
