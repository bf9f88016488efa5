// Package chunker splits extracted document text into overlapping
// passages of bounded size, the unit of embedding and retrieval.
package chunker

import (
	"fmt"
	"iter"
	"math"

	"github.com/google/uuid"

	"github.com/docuchat/docuchat/internal/domain"
)

// Chunker produces deterministic, overlapping chunks. For a target size
// S and overlap fraction f, each chunk after the first starts
// ceil(S*f) characters before its predecessor ends, so re-chunking the
// same text always yields identical boundaries.
type Chunker struct {
	size    int
	overlap int
}

// New validates the chunking parameters and returns a Chunker.
// targetSize must be positive and overlapFraction must be in [0, 1).
func New(targetSize int, overlapFraction float64) (*Chunker, error) {
	if targetSize <= 0 {
		return nil, fmt.Errorf("target size must be positive, got %d", targetSize)
	}
	if overlapFraction < 0 || overlapFraction >= 1 {
		return nil, fmt.Errorf("overlap fraction must be in [0, 1), got %g", overlapFraction)
	}
	overlap := int(math.Ceil(float64(targetSize) * overlapFraction))
	if overlap >= targetSize {
		overlap = targetSize - 1
	}
	return &Chunker{size: targetSize, overlap: overlap}, nil
}

// Overlap returns the number of characters each chunk shares with the
// tail of its predecessor.
func (c *Chunker) Overlap() int { return c.overlap }

// Chunks returns a lazy, finite, restartable sequence of chunks for the
// given text. Offsets are character (rune) positions into text. Empty
// text yields an empty sequence; text shorter than the target size
// yields exactly one chunk spanning the whole text.
func (c *Chunker) Chunks(docID uuid.UUID, text string) iter.Seq[domain.Chunk] {
	return func(yield func(domain.Chunk) bool) {
		runes := []rune(text)
		start := 0
		for index := 0; start < len(runes); index++ {
			end := start + c.size
			if end > len(runes) {
				end = len(runes)
			}
			ok := yield(domain.Chunk{
				DocumentID: docID,
				Index:      index,
				Text:       string(runes[start:end]),
				Start:      start,
				End:        end,
				Overlap:    index > 0,
			})
			if !ok || end == len(runes) {
				return
			}
			start = end - c.overlap
		}
	}
}

// Split collects the chunk sequence into a slice.
func (c *Chunker) Split(docID uuid.UUID, text string) []domain.Chunk {
	var chunks []domain.Chunk
	for ch := range c.Chunks(docID, text) {
		chunks = append(chunks, ch)
	}
	return chunks
}
