package cmd

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/solon0/solon/internal/chunker"
	"github.com/solon0/solon/internal/config"
	"github.com/solon0/solon/internal/embedding"
	"github.com/solon0/solon/internal/log"
	"github.com/solon0/solon/internal/prompt"
	"github.com/solon0/solon/internal/rag"
	"github.com/solon0/solon/internal/search"
	"github.com/solon0/solon/internal/store"
)

// embedRateLimit bounds embedding calls to stay under the provider's
// per-minute quota during bulk ingestion.
var embedRateLimit = rate.Limit(10)

// app holds the assembled dependency graph. Every component is
// constructed exactly once here and passed down explicitly.
type app struct {
	cfg     *config.Config
	pool    *pgxpool.Pool
	store   *store.Store
	service *rag.Service
	logger  log.Logger
}

// newApp loads configuration and wires the full pipeline.
func newApp(ctx context.Context, logger log.Logger) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}

	pool, err := pgxpool.New(ctx, cfg.PostgresConnectionString())
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	st, err := store.New(pool, logger)
	if err != nil {
		pool.Close()
		return nil, err
	}

	primaryClient, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: cfg.GeminiAPIKey})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating genai client: %w", err)
	}

	var backupClient *genai.Client
	if cfg.GeminiBackupAPIKey != "" {
		backupClient, err = genai.NewClient(ctx, &genai.ClientConfig{APIKey: cfg.GeminiBackupAPIKey})
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("creating backup genai client: %w", err)
		}
	}

	embedder := embedding.NewGenerator(primaryClient, embedding.Config{
		Model:     cfg.EmbedderModel,
		Dimension: cfg.EmbedderDimension,
		BatchSize: cfg.EmbedBatchSize,
		Limiter:   rate.NewLimiter(embedRateLimit, 1),
	}, logger)

	orchestrator, err := rag.NewOrchestrator(primaryClient, backupClient, cfg.ModelName, logger)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating orchestrator: %w", err)
	}

	service, err := rag.NewService(
		chunker.New(chunker.Config{ChunkSize: cfg.ChunkSize, ChunkOverlap: cfg.ChunkOverlap}, logger),
		embedder,
		st,
		search.NewHybrid(st, logger),
		prompt.NewProvider(st, logger),
		orchestrator,
		logger,
	)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("assembling pipeline: %w", err)
	}

	return &app{
		cfg:     cfg,
		pool:    pool,
		store:   st,
		service: service,
		logger:  logger,
	}, nil
}

func (a *app) close() {
	a.pool.Close()
}
