// Package chat holds per-connection conversation state and serializes
// the turns within each session.
package chat

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/docuchat/docuchat/internal/domain"
	"github.com/docuchat/docuchat/internal/rag"
)

// Answer is the outcome of one successful turn. Grounded is false when
// retrieval found nothing and the fixed no-knowledge response was
// produced instead of a model call.
type Answer struct {
	Text     string
	Sources  []Source
	Grounded bool
}

// Session is one conversation over a persistent connection. A session
// processes at most one turn at a time: a second concurrent Ask fails
// with domain.ErrTurnInProgress, so history stays causally ordered.
type Session struct {
	ID       uuid.UUID
	Identity string

	retriever   *rag.Retriever
	synthesizer *rag.Synthesizer
	logger      *slog.Logger

	mu         sync.Mutex
	history    []domain.Turn
	processing bool
	closed     bool
}

// Ask processes one turn: retrieve, synthesize, and on success append
// the (question, answer) pair to history before the next turn can
// start. A cancelled context discards the answer; nothing is appended.
func (s *Session) Ask(ctx context.Context, question string) (Answer, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return Answer{}, domain.ErrSessionClosed
	}
	if s.processing {
		s.mu.Unlock()
		return Answer{}, domain.ErrTurnInProgress
	}
	s.processing = true
	history := make([]domain.Turn, len(s.history))
	copy(history, s.history)
	s.mu.Unlock()

	answer, err := s.processTurn(ctx, question, history)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.processing = false
	if err != nil {
		return Answer{}, err
	}
	if ctx.Err() != nil {
		// The connection went away mid-turn; the partial answer is
		// discarded rather than appended to history.
		s.logger.Debug("turn cancelled", "session", s.ID)
		return Answer{}, ctx.Err()
	}
	if answer.Grounded && !s.closed {
		s.history = append(s.history, domain.Turn{Question: question, Answer: answer.Text})
	}
	return answer, nil
}

func (s *Session) processTurn(ctx context.Context, question string, history []domain.Turn) (Answer, error) {
	results, err := s.retriever.Retrieve(ctx, question)
	if err != nil {
		return Answer{}, err
	}

	text, err := s.synthesizer.Synthesize(ctx, question, results, history)
	if err != nil {
		return Answer{}, err
	}

	if len(results) == 0 {
		return Answer{Text: text, Grounded: false}, nil
	}

	sources := make([]Source, len(results))
	for i, r := range results {
		sources[i] = Source{
			Filename:   r.Record.Filename,
			ChunkIndex: r.Record.ChunkIndex,
			Score:      r.Score,
		}
	}
	return Answer{Text: text, Sources: sources, Grounded: true}, nil
}

// History returns a copy of the completed turns, in order.
func (s *Session) History() []domain.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Turn, len(s.history))
	copy(out, s.history)
	return out
}

func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.history = nil
}
