package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/upb/document-retrieval/config"
)

func embeddingServer(t *testing.T, vector []float32, failures int, failStatus int) (*httptest.Server, *atomic.Int64) {
	t.Helper()
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)

		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		if n <= int64(failures) {
			w.WriteHeader(failStatus)
			return
		}

		resp := map[string]interface{}{
			"data": []map[string]interface{}{{"embedding": vector}},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(server.Close)
	return server, &calls
}

func newTestEmbedder(t *testing.T, baseURL string, maxRetries int, cache *Cache) *OpenAIEmbedder {
	t.Helper()
	embedder, err := NewOpenAIEmbedder(config.EmbeddingConfig{
		APIKey:     "test-key",
		BaseURL:    baseURL,
		Model:      "text-embedding-3-small",
		MaxRetries: maxRetries,
	}, cache)
	require.NoError(t, err)
	return embedder
}

func TestNewOpenAIEmbedder(t *testing.T) {
	_, err := NewOpenAIEmbedder(config.EmbeddingConfig{}, nil)
	assert.ErrorIs(t, err, ErrNoAPIKey)
}

func TestEmbedText(t *testing.T) {
	t.Run("returns the provider vector", func(t *testing.T) {
		server, _ := embeddingServer(t, []float32{0.1, 0.2, 0.3}, 0, 0)
		embedder := newTestEmbedder(t, server.URL, 0, nil)

		vec, err := embedder.EmbedText(context.Background(), "hello world")

		require.NoError(t, err)
		assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
	})

	t.Run("empty text is rejected locally", func(t *testing.T) {
		server, calls := embeddingServer(t, []float32{1}, 0, 0)
		embedder := newTestEmbedder(t, server.URL, 0, nil)

		_, err := embedder.EmbedText(context.Background(), "")

		assert.ErrorIs(t, err, ErrEmptyText)
		assert.Equal(t, int64(0), calls.Load())
	})

	t.Run("repeat text is served from the cache", func(t *testing.T) {
		server, calls := embeddingServer(t, []float32{0.5, 0.5}, 0, 0)
		embedder := newTestEmbedder(t, server.URL, 0, NewCache(16))

		first, err := embedder.EmbedText(context.Background(), "hello")
		require.NoError(t, err)
		second, err := embedder.EmbedText(context.Background(), "hello")
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.Equal(t, int64(1), calls.Load())
	})

	t.Run("retries past transient 5xx responses", func(t *testing.T) {
		server, calls := embeddingServer(t, []float32{1, 2}, 2, http.StatusServiceUnavailable)
		embedder := newTestEmbedder(t, server.URL, 3, nil)

		vec, err := embedder.EmbedText(context.Background(), "hello")

		require.NoError(t, err)
		assert.Equal(t, []float32{1, 2}, vec)
		assert.Equal(t, int64(3), calls.Load())
	})

	t.Run("gives up once retries are exhausted", func(t *testing.T) {
		server, calls := embeddingServer(t, nil, 100, http.StatusInternalServerError)
		embedder := newTestEmbedder(t, server.URL, 1, nil)

		_, err := embedder.EmbedText(context.Background(), "hello")

		assert.ErrorIs(t, err, ErrProviderFailed)
		assert.Equal(t, int64(2), calls.Load())
	})

	t.Run("client errors are not retried", func(t *testing.T) {
		server, calls := embeddingServer(t, nil, 100, http.StatusUnauthorized)
		embedder := newTestEmbedder(t, server.URL, 3, nil)

		_, err := embedder.EmbedText(context.Background(), "hello")

		assert.ErrorIs(t, err, ErrProviderFailed)
		assert.Equal(t, int64(1), calls.Load())
	})

	t.Run("empty provider payload is invalid", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"data":[]}`))
		}))
		defer server.Close()
		embedder := newTestEmbedder(t, server.URL, 0, nil)

		_, err := embedder.EmbedText(context.Background(), "hello")

		assert.ErrorContains(t, err, "no embedding returned")
	})
}

func TestCache(t *testing.T) {
	cache := NewCache(2)

	cache.Set("a", []float32{1})
	cache.Set("b", []float32{2})

	vec, ok := cache.Get("a")
	require.True(t, ok)
	assert.Equal(t, []float32{1}, vec)

	// Mutating the returned slice must not corrupt the cached copy.
	vec[0] = 99
	again, _ := cache.Get("a")
	assert.Equal(t, []float32{1}, again)

	cache.Set("c", []float32{3})
	_, ok = cache.Get("b")
	assert.False(t, ok, "least recently used entry should be evicted")
}

func TestComputeHash(t *testing.T) {
	assert.Equal(t, ComputeHash("hello"), ComputeHash("hello"))
	assert.NotEqual(t, ComputeHash("hello"), ComputeHash("world"))
	assert.Len(t, ComputeHash("hello"), 64)
}
