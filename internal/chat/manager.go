package chat

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/docuchat/docuchat/internal/rag"
)

// Manager owns all live chat sessions. Sessions are created when a
// connection opens, looked up per message, and destroyed when the
// connection closes. Sessions are independent; the manager's lock only
// guards the registry itself.
type Manager struct {
	retriever   *rag.Retriever
	synthesizer *rag.Synthesizer
	logger      *slog.Logger

	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
}

// NewManager creates a session manager.
func NewManager(retriever *rag.Retriever, synthesizer *rag.Synthesizer, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		retriever:   retriever,
		synthesizer: synthesizer,
		logger:      logger,
		sessions:    make(map[uuid.UUID]*Session),
	}
}

// Open creates a session for a newly connected caller. The identity is
// empty when authentication is disabled.
func (m *Manager) Open(identity string) *Session {
	s := &Session{
		ID:          uuid.New(),
		Identity:    identity,
		retriever:   m.retriever,
		synthesizer: m.synthesizer,
		logger:      m.logger,
	}
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	m.logger.Info("session opened", "session", s.ID, "identity", identity)
	return s
}

// Get returns the live session with the given id.
func (m *Manager) Get(id uuid.UUID) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Close destroys a session and releases its state. Closing an unknown
// or already-closed session is a no-op.
func (m *Manager) Close(id uuid.UUID) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if ok {
		s.close()
		m.logger.Info("session closed", "session", id)
	}
}

// Len reports the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
