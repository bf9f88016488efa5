package rag

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docuchat/docuchat/internal/domain"
	"github.com/docuchat/docuchat/internal/store"
)

type stubEmbedder struct {
	vector []float32
	err    error
}

func (s *stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = s.vector
	}
	return out, nil
}

func (s *stubEmbedder) Dimensions() int   { return len(s.vector) }
func (s *stubEmbedder) ModelName() string { return "stub" }

type stubLLM struct {
	answer string
	err    error
	calls  int
	prompt string
}

func (s *stubLLM) Generate(ctx context.Context, system, prompt string) (string, error) {
	s.calls++
	s.prompt = prompt
	if s.err != nil {
		return "", s.err
	}
	return s.answer, nil
}

func (s *stubLLM) Stream(ctx context.Context, system, prompt string, onChunk func(string)) error {
	answer, err := s.Generate(ctx, system, prompt)
	if err != nil {
		return err
	}
	onChunk(answer)
	return nil
}

func (s *stubLLM) ModelName() string { return "stub-llm" }

func seedStore(t *testing.T, texts ...string) *store.MemoryStore {
	t.Helper()
	st := store.NewMemoryStore()
	records := make([]domain.EmbeddingRecord, len(texts))
	for i, text := range texts {
		records[i] = domain.EmbeddingRecord{
			ID:         uuid.New(),
			DocumentID: uuid.New(),
			Filename:   fmt.Sprintf("doc%d.txt", i),
			ChunkIndex: i,
			Text:       text,
			Embedding:  pgvector.NewVector([]float32{float32(i + 1), 1}),
		}
	}
	require.NoError(t, st.Write(context.Background(), records, store.WriteCreate))
	return st
}

func TestRetriever_EmptyCollection(t *testing.T) {
	r := NewRetriever(&stubEmbedder{vector: []float32{1, 0}}, store.NewMemoryStore(), 5)
	results, err := r.Retrieve(context.Background(), "anything")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRetriever_RankedResults(t *testing.T) {
	st := seedStore(t, "first passage", "second passage")
	r := NewRetriever(&stubEmbedder{vector: []float32{2, 1}}, st, 5)

	results, err := r.Retrieve(context.Background(), "question")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.GreaterOrEqual(t, results[0].Score, results[1].Score)
}

func TestRetriever_EmbedFailure(t *testing.T) {
	r := NewRetriever(&stubEmbedder{err: &domain.ProviderError{Provider: "stub", Err: fmt.Errorf("down")}}, store.NewMemoryStore(), 5)
	_, err := r.Retrieve(context.Background(), "question")
	require.Error(t, err)
}

func TestSynthesize_NoKnowledgeSkipsProvider(t *testing.T) {
	client := &stubLLM{answer: "should not be used"}
	s := NewSynthesizer(client)

	answer, err := s.Synthesize(context.Background(), "question", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, NoKnowledgeAnswer, answer)
	assert.Zero(t, client.calls)
}

func TestSynthesize_PromptContainsRankedPassagesAndHistory(t *testing.T) {
	client := &stubLLM{answer: "grounded answer"}
	s := NewSynthesizer(client)

	results := []domain.SearchResult{
		{Record: domain.EmbeddingRecord{Filename: "guide.pdf", ChunkIndex: 4, Text: "most relevant"}, Score: 0.9},
		{Record: domain.EmbeddingRecord{Filename: "notes.txt", ChunkIndex: 0, Text: "less relevant"}, Score: 0.4},
	}
	history := []domain.Turn{{Question: "earlier question", Answer: "earlier answer"}}

	answer, err := s.Synthesize(context.Background(), "what now?", results, history)
	require.NoError(t, err)
	assert.Equal(t, "grounded answer", answer)
	assert.Equal(t, 1, client.calls)

	prompt := client.prompt
	assert.Contains(t, prompt, "From guide.pdf (chunk 4):\nmost relevant")
	assert.Contains(t, prompt, "From notes.txt (chunk 0):\nless relevant")
	assert.Less(t, strings.Index(prompt, "most relevant"), strings.Index(prompt, "less relevant"))
	assert.Contains(t, prompt, "earlier question")
	assert.Contains(t, prompt, "earlier answer")
	assert.Contains(t, prompt, "Question: what now?")
}

func TestSynthesize_ProviderFailurePropagates(t *testing.T) {
	provErr := &domain.ProviderError{Provider: "stub", Err: fmt.Errorf("boom")}
	client := &stubLLM{err: provErr}
	s := NewSynthesizer(client)

	_, err := s.Synthesize(context.Background(), "q", []domain.SearchResult{
		{Record: domain.EmbeddingRecord{Filename: "a.txt", Text: "ctx"}},
	}, nil)
	require.ErrorIs(t, err, provErr)
	assert.Equal(t, 1, client.calls)
}
