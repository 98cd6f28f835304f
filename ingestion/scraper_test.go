package ingestion

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/upb/document-retrieval/models"
	"github.com/upb/document-retrieval/repositories"
)

const sourcePage = `<!DOCTYPE html>
<html><body>
<article>
  <h2><a href="/articles/go-generics">Generics land in Go</a></h2>
  <p>Type parameters arrive after a decade of proposals.</p>
</article>
<article>
  <h2><a href="https://other.example.com/post/1">Absolute link post</a></h2>
  <p>Body text.</p>
</article>
<article>
  <p>No link here, should be dropped.</p>
</article>
<article>
  <a href="/articles/empty"></a>
</article>
</body></html>`

type memoryRepository struct {
	docs map[string]*models.Document
}

var _ repositories.DocumentRepository = (*memoryRepository)(nil)

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{docs: make(map[string]*models.Document)}
}

func (m *memoryRepository) Search(_ context.Context, _ string) ([]models.Document, error) {
	return nil, nil
}

func (m *memoryRepository) Insert(_ context.Context, doc *models.Document) error {
	if _, exists := m.docs[doc.URL]; exists {
		return repositories.ErrDuplicateURL
	}
	m.docs[doc.URL] = doc
	return nil
}

func (m *memoryRepository) Count(_ context.Context) (int64, error) {
	return int64(len(m.docs)), nil
}

func TestExtractArticles(t *testing.T) {
	articles, err := ExtractArticles(strings.NewReader(sourcePage), "https://news.example.com/front")
	require.NoError(t, err)

	require.Len(t, articles, 2)
	assert.Equal(t, "https://news.example.com/articles/go-generics", articles[0].URL)
	assert.Equal(t, "Generics land in Go\nType parameters arrive after a decade of proposals.", articles[0].Content)
	assert.Equal(t, "https://other.example.com/post/1", articles[1].URL)
}

func TestScrapeSource(t *testing.T) {
	t.Run("inserts extracted articles", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(sourcePage))
		}))
		defer server.Close()

		repo := newMemoryRepository()
		scraper := NewScraper(repo, []string{server.URL}, time.Hour, time.Second, zap.NewNop())

		inserted, skipped, err := scraper.ScrapeSource(context.Background(), server.URL)

		require.NoError(t, err)
		assert.Equal(t, 2, inserted)
		assert.Equal(t, 0, skipped)
		assert.Len(t, repo.docs, 2)
		for _, doc := range repo.docs {
			assert.NotEmpty(t, doc.ID)
			assert.NotEmpty(t, doc.Content)
			assert.False(t, doc.CreatedAt.IsZero())
		}
	})

	t.Run("known URLs are skipped on the second pass", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(sourcePage))
		}))
		defer server.Close()

		repo := newMemoryRepository()
		scraper := NewScraper(repo, []string{server.URL}, time.Hour, time.Second, zap.NewNop())

		_, _, err := scraper.ScrapeSource(context.Background(), server.URL)
		require.NoError(t, err)

		inserted, skipped, err := scraper.ScrapeSource(context.Background(), server.URL)
		require.NoError(t, err)
		assert.Equal(t, 0, inserted)
		assert.Equal(t, 2, skipped)
		assert.Len(t, repo.docs, 2)
	})

	t.Run("non-200 source is an error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		scraper := NewScraper(newMemoryRepository(), []string{server.URL}, time.Hour, time.Second, zap.NewNop())

		_, _, err := scraper.ScrapeSource(context.Background(), server.URL)
		assert.Error(t, err)
	})
}

func TestRunStopsOnContextCancel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sourcePage))
	}))
	defer server.Close()

	scraper := NewScraper(newMemoryRepository(), []string{server.URL}, time.Hour, time.Second, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		scraper.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("scraper did not stop after context cancellation")
	}
}
