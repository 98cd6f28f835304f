package repositories

import (
	"context"
	"errors"

	"github.com/upb/document-retrieval/models"
)

// ErrDuplicateURL indicates an insert was skipped because a document with the
// same URL already exists. Callers may treat it as a non-fatal condition.
var ErrDuplicateURL = errors.New("document with this URL already exists")

// DocumentRepository is the narrow contract the pipeline consumes from the
// document store: full-text candidate retrieval plus the ingestion-side
// insert with URL uniqueness.
type DocumentRepository interface {
	// Search returns documents matching the query text in stable retrieval
	// order. A query matching nothing returns an empty slice, not an error.
	Search(ctx context.Context, query string) ([]models.Document, error)

	// Insert stores a new document. Inserts with an already-known URL are
	// silently skipped.
	Insert(ctx context.Context, doc *models.Document) error

	// Count returns the total number of stored documents.
	Count(ctx context.Context) (int64, error)
}
