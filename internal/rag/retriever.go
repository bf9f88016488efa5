// Package rag implements ranked retrieval and answer synthesis for
// chat turns.
package rag

import (
	"context"
	"fmt"

	"github.com/docuchat/docuchat/internal/domain"
	"github.com/docuchat/docuchat/internal/embeddings"
	"github.com/docuchat/docuchat/internal/store"
)

// Retriever finds the passages most relevant to a question.
type Retriever struct {
	embedder embeddings.Embedder
	store    store.Store
	topK     int
}

// NewRetriever creates a retriever returning up to topK passages.
func NewRetriever(embedder embeddings.Embedder, st store.Store, topK int) *Retriever {
	if topK <= 0 {
		topK = 5
	}
	return &Retriever{embedder: embedder, store: st, topK: topK}
}

// Retrieve embeds the question and queries the store. An empty
// collection yields an empty result, not an error; the synthesizer
// turns that into the no-knowledge response.
func (r *Retriever) Retrieve(ctx context.Context, question string) ([]domain.SearchResult, error) {
	vectors, err := r.embedder.EmbedBatch(ctx, []string{question})
	if err != nil {
		return nil, fmt.Errorf("failed to embed question: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("embedder returned %d vectors for one question", len(vectors))
	}

	results, err := r.store.Query(ctx, vectors[0], r.topK)
	if err != nil {
		return nil, fmt.Errorf("failed to query collection: %w", err)
	}
	return results, nil
}
