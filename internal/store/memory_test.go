package store

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docuchat/docuchat/internal/domain"
)

func record(text string, vec []float32) domain.EmbeddingRecord {
	return domain.EmbeddingRecord{
		ID:        uuid.New(),
		Filename:  "test.txt",
		Text:      text,
		Embedding: pgvector.NewVector(vec),
	}
}

func TestMemoryStore_ExistsAndWrite(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	exists, err := s.Exists(ctx)
	require.NoError(t, err)
	assert.False(t, exists)

	err = s.Write(ctx, []domain.EmbeddingRecord{record("a", []float32{1, 0})}, WriteCreate)
	require.NoError(t, err)

	exists, err = s.Exists(ctx)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestMemoryStore_CreateOnPopulatedFails(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Write(ctx, []domain.EmbeddingRecord{record("a", []float32{1, 0})}, WriteCreate))
	err := s.Write(ctx, []domain.EmbeddingRecord{record("b", []float32{0, 1})}, WriteCreate)
	assert.ErrorIs(t, err, domain.ErrCollectionExists)
}

func TestMemoryStore_AppendDimensionMismatch(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Write(ctx, []domain.EmbeddingRecord{record("a", []float32{1, 0})}, WriteCreate))

	err := s.Write(ctx, []domain.EmbeddingRecord{record("b", []float32{1, 0, 0})}, WriteAppend)
	var mismatch *domain.DimensionMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, 2, mismatch.Want)
	assert.Equal(t, 3, mismatch.Got)
}

func TestMemoryStore_MixedBatchRejected(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	err := s.Write(ctx, []domain.EmbeddingRecord{
		record("a", []float32{1, 0}),
		record("b", []float32{1, 0, 0}),
	}, WriteCreate)

	var mismatch *domain.DimensionMismatchError
	require.ErrorAs(t, err, &mismatch)

	// The failed batch must not have touched the collection.
	exists, err := s.Exists(ctx)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestMemoryStore_CleanIdempotent(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Write(ctx, []domain.EmbeddingRecord{record("a", []float32{1, 0})}, WriteCreate))
	require.NoError(t, s.Clean(ctx))
	require.NoError(t, s.Clean(ctx))

	exists, err := s.Exists(ctx)
	require.NoError(t, err)
	assert.False(t, exists)

	// A fresh create with a different dimensionality must be accepted
	// after a clean.
	require.NoError(t, s.Write(ctx, []domain.EmbeddingRecord{record("b", []float32{1, 0, 0})}, WriteCreate))
}

func TestMemoryStore_QueryEmptyCollection(t *testing.T) {
	s := NewMemoryStore()
	results, err := s.Query(context.Background(), []float32{1, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestMemoryStore_QueryRankedByDescendingSimilarity(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Write(ctx, []domain.EmbeddingRecord{
		record("orthogonal", []float32{0, 1}),
		record("exact", []float32{1, 0}),
		record("close", []float32{0.9, 0.1}),
	}, WriteCreate))

	results, err := s.Query(ctx, []float32{1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "exact", results[0].Record.Text)
	assert.Equal(t, "close", results[1].Record.Text)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestMemoryStore_ConcurrentReadersAndWriter(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Write(ctx, []domain.EmbeddingRecord{record("seed", []float32{1, 0})}, WriteCreate))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				results, err := s.Query(ctx, []float32{1, 0}, 10)
				assert.NoError(t, err)
				// Every write appends a batch of 3 on top of the single
				// seed record, so a reader must always observe a count
				// of 1 mod 3 - anything else is a torn write.
				assert.Equal(t, 1, len(results)%3)
			}
		}()
	}
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				batch := []domain.EmbeddingRecord{
					record("a", []float32{1, 0}),
					record("b", []float32{0, 1}),
					record("c", []float32{1, 1}),
				}
				assert.NoError(t, s.Write(ctx, batch, WriteAppend))
			}
		}()
	}
	wg.Wait()

	results, err := s.Query(ctx, []float32{1, 0}, 1000)
	require.NoError(t, err)
	assert.Len(t, results, 1+4*25*3)
}
