package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/docuchat/docuchat/config"
	"github.com/docuchat/docuchat/internal/auth"
	"github.com/docuchat/docuchat/internal/chat"
	"github.com/docuchat/docuchat/internal/chunker"
	"github.com/docuchat/docuchat/internal/domain"
	"github.com/docuchat/docuchat/internal/embeddings"
	"github.com/docuchat/docuchat/internal/extract"
	"github.com/docuchat/docuchat/internal/ingest"
	"github.com/docuchat/docuchat/internal/llm"
	"github.com/docuchat/docuchat/internal/rag"
	"github.com/docuchat/docuchat/internal/store"
	"github.com/docuchat/docuchat/internal/tui"
)

func main() {
	var (
		migrateFlag = flag.Bool("migrate", false, "Print database migration instructions")
		strategy    = flag.String("strategy", "", "Ingestion strategy: clean or append (default: auto)")
	)
	flag.Parse()

	// Local .env is optional; deployment sets real environment variables.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	if *migrateFlag {
		printMigrationHint()
		return
	}

	app, err := build(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing app: %v\n", err)
		os.Exit(1)
	}
	defer app.store.Close()

	switch flag.Arg(0) {
	case "ingest":
		if err := runIngest(app, flag.Args()[1:], *strategy); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "", "chat":
		if err := runChat(app); err != nil {
			fmt.Fprintf(os.Stderr, "Error running app: %v\n", err)
			os.Exit(1)
		}
	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q (want chat or ingest)\n", flag.Arg(0))
		os.Exit(1)
	}
}

type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    store.Store
	pipeline *ingest.Pipeline
	manager  *chat.Manager
	authn    auth.Authenticator
}

func build(cfg *config.Config, logger *slog.Logger) (*app, error) {
	ctx := context.Background()

	var st store.Store
	var err error
	switch cfg.Store.Backend {
	case "memory":
		st = store.NewMemoryStore()
	default:
		st, err = store.NewPostgresStore(ctx, cfg.Database.ConnectionString)
		if err != nil {
			return nil, fmt.Errorf("connecting to database: %w", err)
		}
	}

	embedder, err := embeddings.New(embeddings.Config{
		Provider:      cfg.Embeddings.Provider,
		BaseURL:       cfg.Embeddings.BaseURL,
		APIKey:        cfg.Embeddings.APIKey,
		Model:         cfg.Embeddings.Model,
		Timeout:       cfg.Embeddings.Timeout,
		MaxConcurrent: cfg.Embeddings.MaxConcurrent,
		BatchSize:     cfg.Embeddings.BatchSize,
	})
	if err != nil {
		return nil, err
	}

	client, err := llm.New(llm.Config{
		Provider: cfg.LLM.Provider,
		BaseURL:  cfg.LLM.BaseURL,
		APIKey:   cfg.LLM.APIKey,
		Model:    cfg.LLM.Model,
		Timeout:  cfg.LLM.Timeout,
	})
	if err != nil {
		return nil, err
	}

	chk, err := chunker.New(cfg.Processing.ChunkSize, cfg.Processing.OverlapFraction)
	if err != nil {
		return nil, err
	}

	authn, err := auth.New(cfg.Auth.Provider, nil)
	if err != nil {
		return nil, err
	}

	pipeline := ingest.New(extract.NewFitzExtractor(), chk, embedder, st, logger)
	retriever := rag.NewRetriever(embedder, st, cfg.Processing.TopK)
	manager := chat.NewManager(retriever, rag.NewSynthesizer(client), logger)

	return &app{cfg: cfg, logger: logger, store: st, pipeline: pipeline, manager: manager, authn: authn}, nil
}

func runChat(a *app) error {
	identity, err := a.authn.Authenticate(context.Background(), os.Getenv("DOCUCHAT_CREDENTIAL"))
	if err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}

	p := tea.NewProgram(tui.New(a.manager, identity.Subject), tea.WithAltScreen())
	_, err = p.Run()
	return err
}

func runIngest(a *app, paths []string, strategyName string) error {
	strategy, err := domain.ParseStrategy(strategyName)
	if err != nil {
		return err
	}

	files := make([]extract.File, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		files = append(files, extract.File{Name: filepath.Base(path), Data: data})
	}

	result := a.pipeline.Ingest(context.Background(), files, strategy)
	printResult(result)
	if result.Status == ingest.StatusFailed {
		os.Exit(1)
	}
	return nil
}

func printResult(result ingest.Result) {
	switch result.Status {
	case ingest.StatusIngested:
		fmt.Printf("Ingested %d chunks.\n", result.ChunkCount)
	case ingest.StatusCleaned:
		fmt.Println("Collection cleared.")
	case ingest.StatusConflict:
		fmt.Println(result.Guidance.Detail)
		fmt.Printf("  --strategy=%s  %s\n", result.Guidance.Clean.Strategy, result.Guidance.Clean.Description)
		fmt.Printf("  --strategy=%s  %s\n", result.Guidance.Append.Strategy, result.Guidance.Append.Description)
	case ingest.StatusFailed:
		fmt.Printf("Ingestion failed: %s\n", result.Detail)
	}
	for _, skipped := range result.SkippedFiles {
		fmt.Printf("  skipped: %s\n", skipped)
	}
}

func printMigrationHint() {
	fmt.Println("Run migrations manually:")
	fmt.Println("  psql $DATABASE_URL -f migrations/00001_init_schema.up.sql")
	fmt.Println("The pgvector extension must be available: CREATE EXTENSION IF NOT EXISTS vector;")
}
