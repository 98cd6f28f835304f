package models

// ScoredResult pairs a document identifier with its blended relevance score.
// The JSON field names are part of the public /search response contract.
type ScoredResult struct {
	DocumentID string  `json:"document_id"`
	Score      float64 `json:"score"`
}
