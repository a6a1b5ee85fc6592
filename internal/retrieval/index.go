// Package retrieval maintains per-user embedded documents and answers
// top-K similarity searches over them. Embeddings are stored alongside the
// documents and similarity is computed in application code, so the store
// needs no native vector index.
package retrieval

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/pennywise-app/pennywise/internal/llm"
	"github.com/pennywise-app/pennywise/internal/model"
	"github.com/pennywise-app/pennywise/internal/service"
)

// SearchOptions tune a similarity search.
type SearchOptions struct {
	DocTypes []model.DocType
	TopK     int
	MinScore float64
}

// Match is one ranked search result.
type Match struct {
	Document model.Document `json:"document"`
	Score    float64        `json:"score"`
}

// Index embeds and upserts documents keyed by (user, doc type, source).
type Index struct {
	storage  service.Storage
	embedder llm.Embedder
}

// NewIndex creates a retrieval index over the given storage and embedder.
func NewIndex(storage service.Storage, embedder llm.Embedder) *Index {
	return &Index{storage: storage, embedder: embedder}
}

// Item is one document to index.
type Item struct {
	Metadata map[string]string
	DocType  model.DocType
	SourceID string
	Text     string
}

// Upsert embeds one text and stores it, overwriting any prior document for
// the same (user, doc type, source) key.
func (ix *Index) Upsert(ctx context.Context, userID string, item Item) error {
	embedding, err := ix.embedder.Embed(ctx, item.Text)
	if err != nil {
		return fmt.Errorf("failed to embed document: %w", err)
	}

	return ix.storage.UpsertDocument(ctx, &model.Document{
		UserID:    userID,
		DocType:   item.DocType,
		SourceID:  item.SourceID,
		Content:   item.Text,
		Embedding: embedding,
		Metadata:  item.Metadata,
	})
}

// UpsertBatch embeds many texts with one external call and stores each one.
// A per-document store failure is reported but does not abort the batch.
func (ix *Index) UpsertBatch(ctx context.Context, userID string, items []Item) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}

	texts := make([]string, len(items))
	for i, item := range items {
		texts[i] = item.Text
	}

	embeddings, err := ix.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("failed to embed batch: %w", err)
	}
	if len(embeddings) != len(items) {
		return 0, fmt.Errorf("expected %d embeddings, got %d", len(items), len(embeddings))
	}

	stored := 0
	var firstErr error
	for i, item := range items {
		err := ix.storage.UpsertDocument(ctx, &model.Document{
			UserID:    userID,
			DocType:   item.DocType,
			SourceID:  item.SourceID,
			Content:   item.Text,
			Embedding: embeddings[i],
			Metadata:  item.Metadata,
		})
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		stored++
	}

	return stored, firstErr
}

// Search embeds the query and returns the user's topK most similar
// documents by cosine similarity, descending, filtered below minScore.
func (ix *Index) Search(ctx context.Context, userID, query string, opts SearchOptions) ([]Match, error) {
	if opts.TopK <= 0 {
		opts.TopK = 5
	}

	queryEmbedding, err := ix.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	docs, err := ix.storage.ListDocuments(ctx, userID, opts.DocTypes)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	matches := make([]Match, 0, len(docs))
	for i := range docs {
		if len(docs[i].Embedding) == 0 {
			continue
		}
		score := cosineSimilarity(queryEmbedding, docs[i].Embedding)
		if score < opts.MinScore {
			continue
		}
		matches = append(matches, Match{Document: docs[i], Score: score})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if len(matches) > opts.TopK {
		matches = matches[:opts.TopK]
	}

	return matches, nil
}

// cosineSimilarity computes the cosine of the angle between two vectors.
// Mismatched dimensions or zero vectors score zero rather than erroring.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// TransactionText renders a transaction into the text form used for its
// embedding.
func TransactionText(txn *model.Transaction) string {
	category := txn.Category
	if category == "" {
		category = "uncategorized"
	}
	return fmt.Sprintf("%s | %s | %.2f | %s",
		txn.Date.Format("2006-01-02"), txn.Description, txn.Amount, category)
}
