package search

import (
	"context"

	"go.uber.org/zap"

	"github.com/upb/document-retrieval/models"
	"github.com/upb/document-retrieval/services"
	"github.com/upb/document-retrieval/services/cache"
	"github.com/upb/document-retrieval/services/ranking"
)

// Admitter is the quota admission contract consumed by the pipeline.
type Admitter interface {
	Admit(ctx context.Context, callerID string) error
}

// Retriever returns unranked candidate documents for a query.
type Retriever interface {
	Search(ctx context.Context, query string) ([]models.Document, error)
}

// SemanticScorer scores candidates against the query with a text encoder.
type SemanticScorer interface {
	Score(ctx context.Context, query string, candidates []models.Document) (map[string]float64, error)
}

// ResultCache memoizes blended results by cache key.
type ResultCache interface {
	Get(key string) ([]models.ScoredResult, bool)
	Put(key string, results []models.ScoredResult) error
}

// Request carries the parameters of one search invocation.
//
// Threshold is accepted as part of the contract but does not filter results;
// it only participates in the cache key. Callers relying on threshold
// filtering semantics will not get them here.
type Request struct {
	CallerID  string
	Text      string
	TopK      int
	Threshold float64
}

// Service orchestrates the query pipeline:
// admission -> cache lookup -> retrieval -> scoring -> blending -> cache store.
// It is the only component that knows this ordering; every collaborator is a
// pure function or a single-responsibility store injected at construction.
type Service struct {
	quota     Admitter
	retriever Retriever
	semantic  SemanticScorer // nil enables the lexical-only reduced mode
	cache     ResultCache
	logger    *zap.Logger
}

// NewService creates the query pipeline. semantic may be nil, in which case
// the blended score is the lexical score alone.
func NewService(quota Admitter, retriever Retriever, semantic SemanticScorer, resultCache ResultCache, logger *zap.Logger) *Service {
	return &Service{
		quota:     quota,
		retriever: retriever,
		semantic:  semantic,
		cache:     resultCache,
		logger:    logger,
	}
}

// Search runs one pipeline invocation. Validation happens before any side
// effect: an invalid request consumes no quota and touches no cache.
func (s *Service) Search(ctx context.Context, req Request) ([]models.ScoredResult, error) {
	if req.CallerID == "" {
		return nil, services.ErrMissingCallerID
	}
	if req.Text == "" {
		return nil, services.ErrMissingQuery
	}
	if req.TopK <= 0 {
		return nil, services.ErrInvalidTopK
	}

	if err := s.quota.Admit(ctx, req.CallerID); err != nil {
		return nil, err
	}

	key := cache.Key(req.Text, req.TopK, req.Threshold)
	if results, ok := s.cache.Get(key); ok {
		s.logger.Debug("cache hit",
			zap.String("caller_id", req.CallerID),
			zap.String("key", key))
		return results, nil
	}

	candidates, err := s.retriever.Search(ctx, req.Text)
	if err != nil {
		s.logger.Error("candidate retrieval failed",
			zap.String("caller_id", req.CallerID),
			zap.String("query", req.Text),
			zap.Error(err))
		return nil, err
	}

	lexical := ranking.ScoreLexical(req.Text, candidates)

	var semantic map[string]float64
	if s.semantic != nil {
		semantic, err = s.semantic.Score(ctx, req.Text, candidates)
		if err != nil {
			s.logger.Error("semantic scoring failed",
				zap.String("caller_id", req.CallerID),
				zap.String("query", req.Text),
				zap.Error(err))
			return nil, err
		}
	}

	results := ranking.Blend(candidates, lexical, semantic, req.TopK)

	// Durability of the memo is best effort: the results are already
	// computed, so a failed write is logged rather than failing the request.
	if err := s.cache.Put(key, results); err != nil {
		s.logger.Warn("failed to store results in cache",
			zap.String("key", key),
			zap.Error(err))
	}

	s.logger.Info("search completed",
		zap.String("caller_id", req.CallerID),
		zap.String("query", req.Text),
		zap.Int("candidates", len(candidates)),
		zap.Int("results", len(results)))

	return results, nil
}
