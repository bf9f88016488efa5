// Package store owns the lifecycle of the persisted embedding
// collection: existence checks, create/append writes, cleaning, and
// similarity queries. Nearest-neighbor search itself is delegated to
// the backing store (pgvector, or a cosine scan in memory).
package store

import (
	"context"

	"github.com/docuchat/docuchat/internal/domain"
)

// WriteMode states whether a write expects an empty collection or
// appends to whatever is there.
type WriteMode int

const (
	// WriteCreate writes into an empty collection and fails with
	// domain.ErrCollectionExists when records are already present.
	WriteCreate WriteMode = iota

	// WriteAppend adds records, rejecting dimensionality mismatches
	// with a *domain.DimensionMismatchError.
	WriteAppend
)

// String returns a short name for logging.
func (m WriteMode) String() string {
	if m == WriteCreate {
		return "create"
	}
	return "append"
}

// Store is the vector store manager. Mutations (Write, Clean) are
// serialized: at most one is in flight, and none overlaps a Query.
// Queries may interleave with each other and always observe either the
// pre- or post-mutation state, never a partial write.
type Store interface {
	// Exists reports whether the collection holds at least one record.
	Exists(ctx context.Context) (bool, error)

	// Write persists the records under the given mode.
	Write(ctx context.Context, records []domain.EmbeddingRecord, mode WriteMode) error

	// Clean irreversibly deletes all records. Cleaning an empty
	// collection succeeds.
	Clean(ctx context.Context) error

	// Query returns up to topK records ordered by descending
	// similarity. An empty collection yields an empty slice, not an
	// error.
	Query(ctx context.Context, embedding []float32, topK int) ([]domain.SearchResult, error)

	// Close releases the store's resources.
	Close()
}

// validateBatch checks that all records in one batch share a single
// dimensionality and returns it. Mixing dimensionalities inside a batch
// is rejected before anything touches the collection.
func validateBatch(records []domain.EmbeddingRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}
	dims := len(records[0].Embedding.Slice())
	for _, r := range records[1:] {
		if got := len(r.Embedding.Slice()); got != dims {
			return 0, &domain.DimensionMismatchError{Want: dims, Got: got}
		}
	}
	return dims, nil
}
