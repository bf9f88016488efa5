package store

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/docuchat/docuchat/internal/domain"
)

// MemoryStore keeps the collection in process memory with a brute-force
// cosine scan. It backs tests and single-process deployments that do
// not need persistence.
type MemoryStore struct {
	mu      sync.RWMutex
	records []domain.EmbeddingRecord
	dims    int
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Exists reports whether any records are stored.
func (s *MemoryStore) Exists(ctx context.Context) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records) > 0, nil
}

// Write persists the records under the given mode.
func (s *MemoryStore) Write(ctx context.Context, records []domain.EmbeddingRecord, mode WriteMode) error {
	dims, err := validateBatch(records)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if mode == WriteCreate && len(s.records) > 0 {
		return domain.ErrCollectionExists
	}
	if len(s.records) > 0 && dims != 0 && dims != s.dims {
		return &domain.DimensionMismatchError{Want: s.dims, Got: dims}
	}

	s.records = append(s.records, records...)
	if s.dims == 0 {
		s.dims = dims
	}
	return nil
}

// Clean deletes all records. Idempotent.
func (s *MemoryStore) Clean(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = nil
	s.dims = 0
	return nil
}

// Query scans the collection and returns the topK most similar records.
func (s *MemoryStore) Query(ctx context.Context, embedding []float32, topK int) ([]domain.SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.records) == 0 || topK <= 0 {
		return nil, nil
	}

	results := make([]domain.SearchResult, 0, len(s.records))
	for _, r := range s.records {
		results = append(results, domain.SearchResult{
			Record: r,
			Score:  cosine(embedding, r.Embedding.Slice()),
		})
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if topK < len(results) {
		results = results[:topK]
	}
	return results, nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() {}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
