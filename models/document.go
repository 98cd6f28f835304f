package models

import "time"

// Document is a single retrievable unit of content. Documents are owned by
// the document store and are read-only from the query pipeline's perspective;
// only the ingestion worker writes them.
type Document struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
