package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/docuchat/docuchat/internal/domain"
)

// PostgresStore persists the collection in a Postgres table with a
// pgvector embedding column. Similarity search is delegated to the
// `<=>` cosine-distance operator.
//
// The RWMutex serializes mutations against each other and against
// queries within this process; a batch write additionally runs in one
// transaction so a failure leaves the table untouched.
type PostgresStore struct {
	pool *pgxpool.Pool
	mu   sync.RWMutex
}

// NewPostgresStore connects to Postgres and verifies the connection.
func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	config.MaxConns = 10
	config.MaxConnLifetime = time.Hour
	config.MaxConnIdleTime = time.Minute * 30

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// Exists reports whether the collection holds at least one record.
func (s *PostgresStore) Exists(ctx context.Context) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.existsLocked(ctx)
}

func (s *PostgresStore) existsLocked(ctx context.Context) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM embeddings)`).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check collection: %w", err)
	}
	return exists, nil
}

// Write persists the records under the given mode. The whole batch is
// inserted in a single transaction.
func (s *PostgresStore) Write(ctx context.Context, records []domain.EmbeddingRecord, mode WriteMode) error {
	dims, err := validateBatch(records)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	exists, err := s.existsLocked(ctx)
	if err != nil {
		return err
	}
	if mode == WriteCreate && exists {
		return domain.ErrCollectionExists
	}
	if exists {
		var existingDims int
		err := s.pool.QueryRow(ctx, `SELECT vector_dims(embedding) FROM embeddings LIMIT 1`).Scan(&existingDims)
		if err != nil {
			return fmt.Errorf("failed to read collection dimensionality: %w", err)
		}
		if existingDims != dims {
			return &domain.DimensionMismatchError{Want: existingDims, Got: dims}
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, r := range records {
		batch.Queue(
			`INSERT INTO embeddings (id, document_id, filename, chunk_index, content, embedding)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			r.ID, r.DocumentID, r.Filename, r.ChunkIndex, r.Text, r.Embedding,
		)
	}
	br := tx.SendBatch(ctx, batch)
	for i := 0; i < len(records); i++ {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("failed to insert record %d: %w", i, err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("failed to close batch: %w", err)
	}

	return tx.Commit(ctx)
}

// Clean deletes all records. Idempotent.
func (s *PostgresStore) Clean(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.pool.Exec(ctx, `TRUNCATE embeddings`); err != nil {
		return fmt.Errorf("failed to clean collection: %w", err)
	}
	return nil
}

// Query returns up to topK records ordered by descending cosine
// similarity.
func (s *PostgresStore) Query(ctx context.Context, embedding []float32, topK int) ([]domain.SearchResult, error) {
	if topK <= 0 {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	vec := pgvector.NewVector(embedding)
	rows, err := s.pool.Query(ctx,
		`SELECT id, document_id, filename, chunk_index, content, embedding,
		        1 - (embedding <=> $1) AS score
		 FROM embeddings
		 ORDER BY embedding <=> $1
		 LIMIT $2`,
		vec, topK,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query collection: %w", err)
	}
	defer rows.Close()

	var results []domain.SearchResult
	for rows.Next() {
		var r domain.EmbeddingRecord
		var score float64
		if err := rows.Scan(&r.ID, &r.DocumentID, &r.Filename, &r.ChunkIndex, &r.Text, &r.Embedding, &score); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		results = append(results, domain.SearchResult{Record: r, Score: score})
	}
	return results, rows.Err()
}

// Close closes the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}
