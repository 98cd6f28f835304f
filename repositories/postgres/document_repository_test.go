package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/upb/document-retrieval/models"
	"github.com/upb/document-retrieval/repositories"
	"github.com/upb/document-retrieval/services"
)

var testDocument = models.Document{
	ID:        "doc-1",
	URL:       "https://example.com/articles/1",
	Content:   "sample article content",
	CreatedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
}

func newTestRepository(t *testing.T) (repositories.DocumentRepository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	wrapped := &DB{DB: db, logger: zap.NewNop()}
	return NewDocumentRepository(wrapped, zap.NewNop()), mock
}

func TestDocumentRepositorySearch(t *testing.T) {
	ctx := context.Background()
	createdAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("returns matching documents in stable order", func(t *testing.T) {
		repo, mock := newTestRepository(t)

		mock.ExpectQuery("SELECT id, url, content, created_at").
			WithArgs("ai policy").
			WillReturnRows(sqlmock.NewRows([]string{"id", "url", "content", "created_at"}).
				AddRow("doc-1", "https://example.com/a", "ai policy analysis", createdAt).
				AddRow("doc-2", "https://example.com/b", "policy update", createdAt))

		docs, err := repo.Search(ctx, "ai policy")

		require.NoError(t, err)
		require.Len(t, docs, 2)
		assert.Equal(t, "doc-1", docs[0].ID)
		assert.Equal(t, "doc-2", docs[1].ID)
		assert.Equal(t, "ai policy analysis", docs[0].Content)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no matches returns empty slice, not an error", func(t *testing.T) {
		repo, mock := newTestRepository(t)

		mock.ExpectQuery("SELECT id, url, content, created_at").
			WithArgs("nonexistent").
			WillReturnRows(sqlmock.NewRows([]string{"id", "url", "content", "created_at"}))

		docs, err := repo.Search(ctx, "nonexistent")

		require.NoError(t, err)
		assert.NotNil(t, docs)
		assert.Empty(t, docs)
	})

	t.Run("store failure surfaces as store unavailable", func(t *testing.T) {
		repo, mock := newTestRepository(t)

		mock.ExpectQuery("SELECT id, url, content, created_at").
			WithArgs("ai").
			WillReturnError(errors.New("connection refused"))

		_, err := repo.Search(ctx, "ai")

		require.Error(t, err)
		assert.True(t, services.IsStoreUnavailableError(err))
	})
}

func TestDocumentRepositoryInsert(t *testing.T) {
	ctx := context.Background()
	doc := &testDocument

	t.Run("inserts a new document", func(t *testing.T) {
		repo, mock := newTestRepository(t)

		mock.ExpectExec("INSERT INTO documents").
			WithArgs(doc.ID, doc.URL, doc.Content, doc.CreatedAt).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.Insert(ctx, doc)

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate URL is skipped", func(t *testing.T) {
		repo, mock := newTestRepository(t)

		mock.ExpectExec("INSERT INTO documents").
			WithArgs(doc.ID, doc.URL, doc.Content, doc.CreatedAt).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Insert(ctx, doc)

		assert.ErrorIs(t, err, repositories.ErrDuplicateURL)
	})
}

func TestDocumentRepositoryCount(t *testing.T) {
	repo, mock := newTestRepository(t)

	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))

	count, err := repo.Count(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int64(42), count)
}
