package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/pennywise-app/pennywise/internal/model"
)

// UpsertDocument stores a vector document keyed by (user, doc type, source).
// Re-indexing the same source overwrites the prior content and embedding.
func (s *SQLiteStorage) UpsertDocument(ctx context.Context, doc *model.Document) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateDocument(doc); err != nil {
		return err
	}

	embedding, err := json.Marshal(doc.Embedding)
	if err != nil {
		return fmt.Errorf("failed to encode embedding: %w", err)
	}

	var metadata any
	if len(doc.Metadata) > 0 {
		encoded, metaErr := json.Marshal(doc.Metadata)
		if metaErr != nil {
			return fmt.Errorf("failed to encode metadata: %w", metaErr)
		}
		metadata = string(encoded)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (user_id, doc_type, source_id, content, embedding, metadata, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, doc_type, source_id) DO UPDATE SET
			content = excluded.content,
			embedding = excluded.embedding,
			metadata = excluded.metadata,
			updated_at = excluded.updated_at
	`, doc.UserID, string(doc.DocType), doc.SourceID, doc.Content, embedding, metadata, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to upsert document: %w", err)
	}

	return nil
}

// ListDocuments returns one user's documents, optionally filtered by type.
func (s *SQLiteStorage) ListDocuments(ctx context.Context, userID string, docTypes []model.DocType) ([]model.Document, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}

	query := `
		SELECT id, user_id, doc_type, source_id, content, embedding, metadata, updated_at
		FROM documents
		WHERE user_id = ?`
	args := []any{userID}

	if len(docTypes) > 0 {
		placeholders := make([]string, len(docTypes))
		for i, dt := range docTypes {
			placeholders[i] = "?"
			args = append(args, string(dt))
		}
		query += " AND doc_type IN (" + strings.Join(placeholders, ", ") + ")"
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var docs []model.Document
	for rows.Next() {
		var doc model.Document
		var embedding []byte
		var metadata *string
		if err := rows.Scan(
			&doc.ID, &doc.UserID, &doc.DocType, &doc.SourceID,
			&doc.Content, &embedding, &metadata, &doc.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}

		if len(embedding) > 0 {
			if err := json.Unmarshal(embedding, &doc.Embedding); err != nil {
				return nil, fmt.Errorf("failed to decode embedding for document %d: %w", doc.ID, err)
			}
		}
		if metadata != nil && *metadata != "" {
			if err := json.Unmarshal([]byte(*metadata), &doc.Metadata); err != nil {
				return nil, fmt.Errorf("failed to decode metadata for document %d: %w", doc.ID, err)
			}
		}

		docs = append(docs, doc)
	}

	return docs, rows.Err()
}

// DeleteDocument removes the document for one source record.
func (s *SQLiteStorage) DeleteDocument(ctx context.Context, userID string, docType model.DocType, sourceID string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(userID, "userID"); err != nil {
		return err
	}
	if err := validateString(sourceID, "sourceID"); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx,
		`DELETE FROM documents WHERE user_id = ? AND doc_type = ? AND source_id = ?`,
		userID, string(docType), sourceID)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}

// DeleteDocumentsForUser wipes a user's entire retrieval index.
func (s *SQLiteStorage) DeleteDocumentsForUser(ctx context.Context, userID string) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return 0, err
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE user_id = ?`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete documents: %w", err)
	}
	return result.RowsAffected()
}
