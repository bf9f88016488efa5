package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

// Document is one uploaded file with its extracted text.
// It exists only for the duration of an ingestion batch; after chunking
// the text lives on in EmbeddingRecords and the Document is discarded.
type Document struct {
	ID          uuid.UUID
	Filename    string
	ContentType string
	Text        string
	UploadedAt  time.Time
}

// Chunk is a contiguous span of a document's extracted text.
// Start and End are byte offsets into the original text. Overlap is set
// on every chunk after the first, whose head repeats the tail of its
// predecessor.
type Chunk struct {
	DocumentID uuid.UUID
	Index      int
	Text       string
	Start      int
	End        int
	Overlap    bool
}

// EmbeddingRecord is a chunk together with its vector representation and
// the metadata needed for citation. All records in one collection share
// the same vector dimensionality.
type EmbeddingRecord struct {
	ID         uuid.UUID
	DocumentID uuid.UUID
	Filename   string
	ChunkIndex int
	Text       string
	Embedding  pgvector.Vector
}

// SearchResult is a retrieved record with its similarity score.
// Results are ephemeral and never persisted.
type SearchResult struct {
	Record EmbeddingRecord
	Score  float64
}

// Turn is one completed (question, answer) exchange in a chat session.
type Turn struct {
	Question string
	Answer   string
}
