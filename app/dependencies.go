package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/upb/document-retrieval/config"
	"github.com/upb/document-retrieval/ingestion"
	"github.com/upb/document-retrieval/repositories"
	"github.com/upb/document-retrieval/repositories/postgres"
	"github.com/upb/document-retrieval/services/cache"
	"github.com/upb/document-retrieval/services/embedding"
	"github.com/upb/document-retrieval/services/quota"
	"github.com/upb/document-retrieval/services/ranking"
	"github.com/upb/document-retrieval/services/search"
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	DB     *postgres.DB
	Logger *zap.Logger

	// Stores
	Documents repositories.DocumentRepository
	Cache     *cache.ResultCache

	// Services
	Quota  *quota.Service
	Search *search.Service

	// Background workers
	Scraper *ingestion.Scraper
}

// NewDependencies creates and wires up all application dependencies.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	// Database
	db, err := postgres.NewDB(cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	deps.DB = db

	if err := db.InitSchema(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	deps.Documents = postgres.NewDocumentRepository(db, logger)

	// Result cache, loaded from disk
	resultCache, err := cache.New(cfg.Cache.Path, cfg.Cache.TTL, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize result cache: %w", err)
	}
	deps.Cache = resultCache

	// Quota admission control
	deps.Quota = quota.NewService(db.DB, cfg.Quota.Window, cfg.Quota.MaxRequests, logger)

	// Semantic scorer is optional: without an API key the pipeline runs in
	// lexical-only mode.
	var semantic search.SemanticScorer
	if cfg.Embedding.APIKey != "" {
		embedder, err := embedding.NewOpenAIEmbedder(cfg.Embedding, embedding.NewCache(cfg.Embedding.CacheSize))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize embedder: %w", err)
		}
		semantic = ranking.NewSemanticScorer(embedder, cfg.Embedding.Concurrency, logger)
		logger.Info("semantic scoring enabled", zap.String("model", cfg.Embedding.Model))
	} else {
		logger.Info("no embedding API key configured, running in lexical-only mode")
	}

	deps.Search = search.NewService(deps.Quota, deps.Documents, semantic, resultCache, logger)

	// Background ingestion
	if cfg.Ingestion.Enabled {
		deps.Scraper = ingestion.NewScraper(
			deps.Documents,
			cfg.Ingestion.Sources,
			cfg.Ingestion.Interval,
			cfg.Ingestion.FetchTimeout,
			logger,
		)
	}

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// Close releases all held resources
func (d *Dependencies) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
