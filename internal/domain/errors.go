package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for caller-resolvable conditions. Infrastructure
// failures are wrapped with %w and surface through errors.Is/As.
var (
	// ErrCollectionExists indicates a CREATE write against a collection
	// that already holds records. The caller must clean first.
	ErrCollectionExists = errors.New("collection already holds records")

	// ErrNoEmbeddingModel indicates no embedding model is configured.
	// This is fatal at startup, never a per-request condition.
	ErrNoEmbeddingModel = errors.New("no embedding model configured")

	// ErrTurnInProgress indicates a second question arrived on a session
	// whose previous turn has not completed yet.
	ErrTurnInProgress = errors.New("a turn is already being processed on this session")

	// ErrSessionClosed indicates the session was closed while a caller
	// still held a reference to it.
	ErrSessionClosed = errors.New("session is closed")
)

// ProviderError reports a failure talking to an external embedding or
// completion provider. It is transient from the core's point of view:
// the immediate caller sees it, nothing is retried automatically.
type ProviderError struct {
	Provider    string // "ollama", "openai", ...
	Status      int    // HTTP status when applicable, 0 otherwise
	RateLimited bool
	Err         error
}

func (e *ProviderError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s provider error (status %d): %v", e.Provider, e.Status, e.Err)
	}
	return fmt.Sprintf("%s provider error: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// DimensionMismatchError reports an append whose vector dimensionality
// differs from the collection's.
type DimensionMismatchError struct {
	Want int
	Got  int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("embedding dimension mismatch: collection holds %d-dimensional vectors, got %d", e.Want, e.Got)
}

// ExtractionError reports that text extraction failed for one document.
// It aborts that document's contribution to the batch, not the batch.
type ExtractionError struct {
	Filename string
	Err      error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("failed to extract text from %s: %v", e.Filename, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }
