// Package llm provides clients for external completion model providers.
package llm

import "context"

// Client generates text from a prompt via an external completion model.
// Stream delivers the answer incrementally through onChunk; Generate
// returns it whole. Provider failures surface as *domain.ProviderError
// and are never retried here.
type Client interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
	Stream(ctx context.Context, system, prompt string, onChunk func(string)) error
	ModelName() string
}
