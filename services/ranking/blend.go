package ranking

import (
	"sort"

	"github.com/upb/document-retrieval/models"
)

// Blend merges lexical and semantic scores into a final ranking over the
// candidates, ordered by combined score descending and truncated to topK.
//
// The combined score is the arithmetic mean of the two component scores.
// When semantic is nil (lexical-only reduced mode) the combined score is the
// lexical score alone. The sort is stable, so candidates with equal combined
// scores keep their original retrieval order; output is deterministic for
// deterministic inputs.
func Blend(candidates []models.Document, lexical, semantic map[string]float64, topK int) []models.ScoredResult {
	results := make([]models.ScoredResult, 0, len(candidates))
	for _, doc := range candidates {
		score := lexical[doc.ID]
		if semantic != nil {
			score = (score + semantic[doc.ID]) / 2
		}
		results = append(results, models.ScoredResult{
			DocumentID: doc.ID,
			Score:      score,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if topK >= 0 && len(results) > topK {
		results = results[:topK]
	}
	return results
}
