// Package ingest orchestrates extraction, chunking, embedding, and the
// single write that commits an upload batch to the vector store.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"

	"github.com/docuchat/docuchat/internal/chunker"
	"github.com/docuchat/docuchat/internal/domain"
	"github.com/docuchat/docuchat/internal/embeddings"
	"github.com/docuchat/docuchat/internal/extract"
	"github.com/docuchat/docuchat/internal/store"
)

// Pipeline ingests upload batches. Atomicity comes from ordering: all
// chunking and embedding completes before the one Write call per batch,
// so any failure leaves the store in its pre-batch state.
type Pipeline struct {
	extractor extract.Extractor
	chunker   *chunker.Chunker
	embedder  embeddings.Embedder
	store     store.Store
	logger    *slog.Logger
}

// New creates an ingestion pipeline.
func New(extractor extract.Extractor, ch *chunker.Chunker, embedder embeddings.Embedder, st store.Store, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		extractor: extractor,
		chunker:   ch,
		embedder:  embedder,
		store:     st,
		logger:    logger,
	}
}

// Ingest processes one upload batch under the given strategy. The
// strategy is resolved exactly once, here, and never re-checked
// mid-pipeline.
func (p *Pipeline) Ingest(ctx context.Context, files []extract.File, strategy domain.Strategy) Result {
	exists, err := p.store.Exists(ctx)
	if err != nil {
		return p.failed(fmt.Errorf("failed to check store state: %w", err))
	}

	// The ambiguous-intent guard: a populated store plus an unstated
	// strategy never silently overwrites or appends.
	if strategy == domain.StrategyAuto {
		if exists {
			p.logger.Info("ingestion conflict", "files", len(files))
			return Result{
				Status:   StatusConflict,
				Detail:   conflictGuidance().Detail,
				Guidance: conflictGuidance(),
			}
		}
		strategy = domain.StrategyAppend
	}

	if strategy == domain.StrategyClean && len(files) == 0 {
		if err := p.store.Clean(ctx); err != nil {
			return p.failed(fmt.Errorf("failed to clean collection: %w", err))
		}
		p.logger.Info("collection cleaned", "fresh_upload", true)
		return Result{
			Status: StatusCleaned,
			Detail: "Existing embeddings have been removed. Upload documents to rebuild " +
				"the retrieval database.",
			FreshUpload: true,
		}
	}

	if len(files) == 0 {
		return p.failed(fmt.Errorf("at least one document must be uploaded to generate embeddings"))
	}

	records, skipped, err := p.prepare(ctx, files)
	if err != nil {
		return p.failed(err)
	}
	if len(records) == 0 {
		return Result{
			Status:       StatusFailed,
			Detail:       "no document in the batch yielded any text",
			SkippedFiles: skipped,
			Err:          fmt.Errorf("no document in the batch yielded any text"),
		}
	}

	// All embedding work is done; from here the store mutates. Under
	// CLEAN the wipe happens only once the replacement batch is ready.
	mode := store.WriteAppend
	if strategy == domain.StrategyClean {
		if err := p.store.Clean(ctx); err != nil {
			return p.failed(fmt.Errorf("failed to clean collection: %w", err))
		}
		mode = store.WriteCreate
	}

	if err := p.store.Write(ctx, records, mode); err != nil {
		if _, ok := err.(*domain.DimensionMismatchError); ok {
			g := conflictGuidance()
			g.Detail = "The uploaded documents were embedded with a different model than the " +
				"existing store. Clean the existing embeddings and re-upload."
			return Result{Status: StatusConflict, Detail: g.Detail, Guidance: g, SkippedFiles: skipped, Err: err}
		}
		return p.failed(fmt.Errorf("failed to write batch: %w", err))
	}

	p.logger.Info("batch ingested",
		"strategy", strategy.String(),
		"chunks", len(records),
		"skipped", len(skipped),
	)
	return Result{
		Status:       StatusIngested,
		Detail:       ingestedDetail(strategy, exists),
		ChunkCount:   len(records),
		SkippedFiles: skipped,
	}
}

// prepare extracts, chunks, and embeds the batch. A document that fails
// extraction or yields no text is skipped and reported; an embedding
// failure aborts the whole batch.
func (p *Pipeline) prepare(ctx context.Context, files []extract.File) ([]domain.EmbeddingRecord, []string, error) {
	type pending struct {
		doc    domain.Document
		chunks []domain.Chunk
	}

	var prepared []pending
	var skipped []string
	var texts []string

	for _, file := range files {
		text, err := p.extractor.Extract(ctx, file)
		if err != nil {
			p.logger.Warn("document skipped", "file", file.Name, "error", err)
			skipped = append(skipped, file.Name)
			continue
		}

		doc := domain.Document{
			ID:          uuid.New(),
			Filename:    file.Name,
			ContentType: file.ContentType,
			Text:        text,
			UploadedAt:  time.Now(),
		}
		chunks := p.chunker.Split(doc.ID, doc.Text)
		if len(chunks) == 0 {
			skipped = append(skipped, file.Name)
			continue
		}

		prepared = append(prepared, pending{doc: doc, chunks: chunks})
		for _, ch := range chunks {
			texts = append(texts, ch.Text)
		}
	}

	if len(texts) == 0 {
		return nil, skipped, nil
	}

	vectors, err := p.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, skipped, fmt.Errorf("failed to embed batch: %w", err)
	}
	if len(vectors) != len(texts) {
		return nil, skipped, fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(texts))
	}

	records := make([]domain.EmbeddingRecord, 0, len(texts))
	i := 0
	for _, pend := range prepared {
		for _, ch := range pend.chunks {
			records = append(records, domain.EmbeddingRecord{
				ID:         uuid.New(),
				DocumentID: pend.doc.ID,
				Filename:   pend.doc.Filename,
				ChunkIndex: ch.Index,
				Text:       ch.Text,
				Embedding:  pgvector.NewVector(vectors[i]),
			})
			i++
		}
	}
	return records, skipped, nil
}

func (p *Pipeline) failed(err error) Result {
	p.logger.Error("ingestion failed", "error", err)
	return Result{Status: StatusFailed, Detail: err.Error(), Err: err}
}

func ingestedDetail(strategy domain.Strategy, existed bool) string {
	switch {
	case strategy == domain.StrategyClean:
		return "Existing embeddings were cleaned and the uploaded documents were indexed into " +
			"the fresh retrieval store."
	case existed:
		return "Uploaded documents were appended to the existing embeddings without clearing the store."
	default:
		return "Documents were added to an empty retrieval store."
	}
}
