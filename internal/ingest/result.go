package ingest

// Status classifies the outcome of an ingestion batch.
type Status int

const (
	// StatusIngested means the batch was chunked, embedded, and written.
	StatusIngested Status = iota

	// StatusConflict means the store already holds embeddings and the
	// caller stated no intent; nothing was written.
	StatusConflict

	// StatusCleaned means a clean-only request succeeded; the store is
	// empty and ready for a fresh upload.
	StatusCleaned

	// StatusFailed means the batch was aborted; the store is in its
	// pre-batch state.
	StatusFailed
)

// String returns the wire name of the status.
func (s Status) String() string {
	switch s {
	case StatusIngested:
		return "success"
	case StatusConflict:
		return "embeddings_exist"
	case StatusCleaned:
		return "cleared"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Action is one machine-followable way to resolve a conflict: re-send
// the upload with the given strategy selector.
type Action struct {
	Strategy    string
	Description string
}

// Guidance carries the two resolution paths for a strategy conflict.
type Guidance struct {
	Detail string
	Clean  Action
	Append Action
}

// Result is the structured outcome of one ingestion batch.
type Result struct {
	Status     Status
	Detail     string
	ChunkCount int

	// SkippedFiles lists documents that contributed nothing to the
	// batch (extraction failure or empty text), by filename.
	SkippedFiles []string

	// Guidance is set when Status is StatusConflict.
	Guidance *Guidance

	// FreshUpload marks a cleaned-only acknowledgement: the store is
	// empty and the next upload starts a new collection.
	FreshUpload bool

	// Err is set when Status is StatusFailed.
	Err error
}

func conflictGuidance() *Guidance {
	return &Guidance{
		Detail: "Embeddings have already been generated. Choose whether to clean the " +
			"existing embeddings and start over, or add new documents to the current store.",
		Clean: Action{
			Strategy:    "clean",
			Description: "Remove all existing embeddings and rebuild from new uploads.",
		},
		Append: Action{
			Strategy:    "append",
			Description: "Keep existing embeddings and append new documents.",
		},
	}
}
