package postgres

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/upb/document-retrieval/models"
	"github.com/upb/document-retrieval/repositories"
	"github.com/upb/document-retrieval/services"
)

// DocumentRepository implements repositories.DocumentRepository on PostgreSQL
// full-text search.
type DocumentRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(db *DB, logger *zap.Logger) repositories.DocumentRepository {
	return &DocumentRepository{
		db:     db,
		logger: logger,
	}
}

// Search retrieves candidate documents matching the query text.
// Results are ordered by id so that retrieval order is stable across
// identical queries; ranking happens downstream. A query matching zero
// documents returns an empty slice.
func (r *DocumentRepository) Search(ctx context.Context, query string) ([]models.Document, error) {
	stmt := `
		SELECT id, url, content, created_at
		FROM documents
		WHERE to_tsvector('english', content) @@ plainto_tsquery('english', $1)
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, stmt, query)
	if err != nil {
		return nil, services.WrapStoreUnavailable("document search failed", err)
	}
	defer rows.Close()

	docs := make([]models.Document, 0)
	for rows.Next() {
		var doc models.Document
		if err := rows.Scan(&doc.ID, &doc.URL, &doc.Content, &doc.CreatedAt); err != nil {
			return nil, services.WrapStoreUnavailable("failed to scan document", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, services.WrapStoreUnavailable("document search failed", err)
	}

	r.logger.Debug("document search completed",
		zap.String("query", query),
		zap.Int("candidates", len(docs)))

	return docs, nil
}

// Insert stores a new document. A document whose URL is already present is
// silently skipped via ON CONFLICT DO NOTHING, per the store contract.
func (r *DocumentRepository) Insert(ctx context.Context, doc *models.Document) error {
	stmt := `
		INSERT INTO documents (id, url, content, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (url) DO NOTHING
	`

	result, err := r.db.ExecContext(ctx, stmt, doc.ID, doc.URL, doc.Content, doc.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert document: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		r.logger.Debug("duplicate document skipped", zap.String("url", doc.URL))
		return repositories.ErrDuplicateURL
	}

	r.logger.Debug("document inserted",
		zap.String("id", doc.ID),
		zap.String("url", doc.URL))
	return nil
}

// Count returns the total number of stored documents.
func (r *DocumentRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return count, nil
}
