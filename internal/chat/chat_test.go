package chat

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docuchat/docuchat/internal/domain"
	"github.com/docuchat/docuchat/internal/rag"
	"github.com/docuchat/docuchat/internal/store"
)

type stubEmbedder struct {
	vector []float32
}

func (s *stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = s.vector
	}
	return out, nil
}

func (s *stubEmbedder) Dimensions() int   { return len(s.vector) }
func (s *stubEmbedder) ModelName() string { return "stub" }

type stubLLM struct {
	answer  string
	err     error
	release chan struct{}
	started chan struct{}
}

func (s *stubLLM) Generate(ctx context.Context, system, prompt string) (string, error) {
	if s.started != nil {
		close(s.started)
		s.started = nil
	}
	if s.release != nil {
		select {
		case <-s.release:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
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

func newManager(t *testing.T, st store.Store, client *stubLLM) *Manager {
	t.Helper()
	retriever := rag.NewRetriever(&stubEmbedder{vector: []float32{1, 0}}, st, 5)
	return NewManager(retriever, rag.NewSynthesizer(client), slog.New(slog.DiscardHandler))
}

func seededStore(t *testing.T, texts ...string) *store.MemoryStore {
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
			Embedding:  pgvector.NewVector([]float32{1, float32(i)}),
		}
	}
	require.NoError(t, st.Write(context.Background(), records, store.WriteCreate))
	return st
}

func TestAsk_GroundedAnswerWithSources(t *testing.T) {
	m := newManager(t, seededStore(t, "some passage"), &stubLLM{answer: "grounded"})
	s := m.Open("alice")

	answer, err := s.Ask(context.Background(), "question?")
	require.NoError(t, err)
	assert.True(t, answer.Grounded)
	assert.Equal(t, "grounded", answer.Text)
	require.Len(t, answer.Sources, 1)
	assert.Equal(t, "doc0.txt", answer.Sources[0].Filename)
}

func TestAsk_HistoryAccumulatesInOrder(t *testing.T) {
	m := newManager(t, seededStore(t, "some passage"), &stubLLM{answer: "yes"})
	s := m.Open("")

	_, err := s.Ask(context.Background(), "first?")
	require.NoError(t, err)
	_, err = s.Ask(context.Background(), "second?")
	require.NoError(t, err)

	history := s.History()
	require.Len(t, history, 2)
	assert.Equal(t, "first?", history[0].Question)
	assert.Equal(t, "second?", history[1].Question)
}

func TestAsk_EmptyCollectionNoKnowledge(t *testing.T) {
	m := newManager(t, store.NewMemoryStore(), &stubLLM{answer: "unused"})
	s := m.Open("")

	answer, err := s.Ask(context.Background(), "anything?")
	require.NoError(t, err)
	assert.False(t, answer.Grounded)
	assert.Equal(t, rag.NoKnowledgeAnswer, answer.Text)
	assert.Empty(t, answer.Sources)

	// An ungrounded turn leaves no trace in the conversation.
	assert.Empty(t, s.History())
}

func TestAsk_ConcurrentTurnRejected(t *testing.T) {
	client := &stubLLM{answer: "slow", release: make(chan struct{}), started: make(chan struct{})}
	started := client.started
	m := newManager(t, seededStore(t, "some passage"), client)
	s := m.Open("")

	done := make(chan error, 1)
	go func() {
		_, err := s.Ask(context.Background(), "first?")
		done <- err
	}()

	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("first turn never reached the provider")
	}

	_, err := s.Ask(context.Background(), "second?")
	require.ErrorIs(t, err, domain.ErrTurnInProgress)

	close(client.release)
	require.NoError(t, <-done)

	// The serialized turn succeeds once the first one finishes.
	_, err = s.Ask(context.Background(), "second again?")
	require.NoError(t, err)
	assert.Len(t, s.History(), 2)
}

func TestAsk_CancelledContextDiscardsTurn(t *testing.T) {
	client := &stubLLM{answer: "never delivered", release: make(chan struct{}), started: make(chan struct{})}
	started := client.started
	m := newManager(t, seededStore(t, "some passage"), client)
	s := m.Open("")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := s.Ask(ctx, "doomed?")
		done <- err
	}()

	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("turn never reached the provider")
	}
	cancel()

	err := <-done
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, s.History())

	// The session is usable again after the cancelled turn.
	close(client.release)
	client.release = nil
	_, err = s.Ask(context.Background(), "retry?")
	require.NoError(t, err)
}

func TestAsk_ProviderErrorNotAppended(t *testing.T) {
	provErr := &domain.ProviderError{Provider: "stub", Err: fmt.Errorf("down")}
	m := newManager(t, seededStore(t, "some passage"), &stubLLM{err: provErr})
	s := m.Open("")

	_, err := s.Ask(context.Background(), "question?")
	require.ErrorIs(t, err, provErr)
	assert.Empty(t, s.History())
}

func TestManager_OpenGetClose(t *testing.T) {
	m := newManager(t, store.NewMemoryStore(), &stubLLM{answer: "x"})

	s := m.Open("bob")
	assert.Equal(t, "bob", s.Identity)
	assert.Equal(t, 1, m.Len())

	got, ok := m.Get(s.ID)
	require.True(t, ok)
	assert.Same(t, s, got)

	m.Close(s.ID)
	assert.Equal(t, 0, m.Len())
	_, ok = m.Get(s.ID)
	assert.False(t, ok)

	_, err := s.Ask(context.Background(), "after close?")
	require.ErrorIs(t, err, domain.ErrSessionClosed)

	// Closing twice is harmless.
	m.Close(s.ID)
}

func TestResponseFor_Mapping(t *testing.T) {
	resp := ResponseFor(Answer{Text: "hi", Grounded: true, Sources: []Source{{Filename: "a.txt"}}}, nil)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "hi", resp.Answer)
	require.Nil(t, resp.Error)

	resp = ResponseFor(Answer{Text: rag.NoKnowledgeAnswer, Grounded: false}, nil)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrKindNoKnowledge, resp.Error.Kind)
	assert.Equal(t, rag.NoKnowledgeAnswer, resp.Error.Message)

	resp = ResponseFor(Answer{}, &domain.ProviderError{Provider: "openai", RateLimited: true, Err: fmt.Errorf("429")})
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrKindProvider, resp.Error.Kind)
	assert.Contains(t, resp.Error.Message, "rate limiting")

	resp = ResponseFor(Answer{}, domain.ErrTurnInProgress)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrKindTurnInProgress, resp.Error.Kind)

	resp = ResponseFor(Answer{}, fmt.Errorf("weird"))
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrKindInternal, resp.Error.Kind)
}
