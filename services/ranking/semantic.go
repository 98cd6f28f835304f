package ranking

import (
	"context"
	"math"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/upb/document-retrieval/models"
	"github.com/upb/document-retrieval/services"
	"github.com/upb/document-retrieval/services/embedding"
)

// SemanticScorer scores candidates against the query by cosine similarity of
// embedding vectors from an external text encoder.
type SemanticScorer struct {
	embedder    embedding.Embedder
	concurrency int
	logger      *zap.Logger
}

// NewSemanticScorer creates a new semantic scorer. concurrency bounds the
// number of in-flight encoder calls per request.
func NewSemanticScorer(embedder embedding.Embedder, concurrency int, logger *zap.Logger) *SemanticScorer {
	if concurrency <= 0 {
		concurrency = 8
	}
	return &SemanticScorer{
		embedder:    embedder,
		concurrency: concurrency,
		logger:      logger,
	}
}

// Score encodes the query and every candidate and returns per-candidate
// cosine similarity to the query. Candidates are encoded concurrently with a
// bounded group; any encoder failure aborts the request as a scoring fault.
func (s *SemanticScorer) Score(ctx context.Context, query string, candidates []models.Document) (map[string]float64, error) {
	scores := make(map[string]float64, len(candidates))
	if len(candidates) == 0 {
		return scores, nil
	}

	queryVec, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		s.logger.Error("failed to encode query", zap.Error(err))
		return nil, services.WrapError(services.ErrorTypeScoring, "failed to encode query", err)
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for _, doc := range candidates {
		doc := doc
		g.Go(func() error {
			docVec, err := s.embedder.EmbedText(gctx, doc.Content)
			if err != nil {
				return err
			}
			score := cosineSimilarity(queryVec, docVec)
			mu.Lock()
			scores[doc.ID] = score
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		s.logger.Error("failed to encode candidates", zap.Error(err))
		return nil, services.WrapError(services.ErrorTypeScoring, "failed to encode candidates", err)
	}

	return scores, nil
}

// cosineSimilarity computes the cosine similarity between two vectors.
// Mismatched or zero-magnitude vectors score 0.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		av := float64(a[i])
		bv := float64(b[i])
		dot += av * bv
		normA += av * av
		normB += bv * bv
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
