package model

import "time"

// DocType identifies the source record family of a vector document.
type DocType string

// Document types indexed for retrieval.
const (
	DocTypeTransaction  DocType = "transaction"
	DocTypeCategoryRule DocType = "category_rule"
	DocTypeQueryExample DocType = "query_example"
	DocTypeSchema       DocType = "schema"
)

// Document is a user-owned embedded document. Uniqueness is on
// (UserID, DocType, SourceID): re-indexing a source overwrites its prior
// embedding rather than duplicating it.
type Document struct {
	UpdatedAt time.Time         `json:"updated_at"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	UserID    string            `json:"user_id"`
	DocType   DocType           `json:"doc_type"`
	SourceID  string            `json:"source_id"`
	Content   string            `json:"content"`
	Embedding []float32         `json:"-"`
	ID        int64             `json:"id"`
}
