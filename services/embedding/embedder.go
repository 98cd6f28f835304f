package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

// Common errors
var (
	ErrEmptyText       = errors.New("text cannot be empty")
	ErrProviderFailed  = errors.New("embedding provider failed")
	ErrNoAPIKey        = errors.New("embedding API key not configured")
	ErrInvalidResponse = errors.New("invalid embedding response")
)

// Embedder encodes text into a fixed-length vector. Implementations are
// treated as pure functions over their input with unspecified latency.
type Embedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
}

// ComputeHash returns the sha256 content hash used as the embedding cache key.
func ComputeHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
