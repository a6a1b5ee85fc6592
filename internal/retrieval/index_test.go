package retrieval

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pennywise-app/pennywise/internal/model"
	"github.com/pennywise-app/pennywise/internal/storage"
)

// fakeEmbedder maps known texts to fixed vectors.
type fakeEmbedder struct {
	vectors map[string][]float32
	err     error
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	if v, ok := f.vectors[text]; ok {
		return v, nil
	}
	return []float32{0, 0, 1}, nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := f.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func setupIndex(t *testing.T, embedder *fakeEmbedder) *Index {
	t.Helper()
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.Migrate(context.Background()))
	t.Cleanup(func() { _ = db.Close() })
	return NewIndex(db, embedder)
}

func TestSearchRanking(t *testing.T) {
	ctx := context.Background()
	embedder := &fakeEmbedder{vectors: map[string][]float32{
		"coffee shop": {1, 0, 0},
		"coffee date": {0.9, 0.1, 0},
		"gas station": {0, 1, 0},
		"find coffee": {1, 0, 0},
	}}
	index := setupIndex(t, embedder)

	items := []Item{
		{DocType: model.DocTypeTransaction, SourceID: "t1", Text: "coffee shop"},
		{DocType: model.DocTypeTransaction, SourceID: "t2", Text: "coffee date"},
		{DocType: model.DocTypeTransaction, SourceID: "t3", Text: "gas station"},
	}
	stored, err := index.UpsertBatch(ctx, "alice", items)
	require.NoError(t, err)
	assert.Equal(t, 3, stored)

	matches, err := index.Search(ctx, "alice", "find coffee", SearchOptions{TopK: 2})
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "coffee shop", matches[0].Document.Content)
	assert.Equal(t, "coffee date", matches[1].Document.Content)
	assert.Greater(t, matches[0].Score, matches[1].Score)
}

func TestSearchMinScore(t *testing.T) {
	ctx := context.Background()
	embedder := &fakeEmbedder{vectors: map[string][]float32{
		"near":  {1, 0, 0},
		"far":   {0, 1, 0},
		"query": {1, 0, 0},
	}}
	index := setupIndex(t, embedder)

	_, err := index.UpsertBatch(ctx, "alice", []Item{
		{DocType: model.DocTypeTransaction, SourceID: "t1", Text: "near"},
		{DocType: model.DocTypeTransaction, SourceID: "t2", Text: "far"},
	})
	require.NoError(t, err)

	matches, err := index.Search(ctx, "alice", "query", SearchOptions{TopK: 10, MinScore: 0.5})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "near", matches[0].Document.Content)
}

func TestSearchScopedToUser(t *testing.T) {
	ctx := context.Background()
	embedder := &fakeEmbedder{vectors: map[string][]float32{
		"alice doc": {1, 0, 0},
		"bob doc":   {1, 0, 0},
		"query":     {1, 0, 0},
	}}
	index := setupIndex(t, embedder)

	require.NoError(t, index.Upsert(ctx, "alice", Item{DocType: model.DocTypeTransaction, SourceID: "t1", Text: "alice doc"}))
	require.NoError(t, index.Upsert(ctx, "bob", Item{DocType: model.DocTypeTransaction, SourceID: "t1", Text: "bob doc"}))

	matches, err := index.Search(ctx, "alice", "query", SearchOptions{TopK: 10})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "alice doc", matches[0].Document.Content)
}

func TestUpsertOverwritesSameKey(t *testing.T) {
	ctx := context.Background()
	embedder := &fakeEmbedder{vectors: map[string][]float32{
		"old text": {1, 0, 0},
		"new text": {0, 1, 0},
		"query":    {0, 1, 0},
	}}
	index := setupIndex(t, embedder)

	item := Item{DocType: model.DocTypeTransaction, SourceID: "t1", Text: "old text"}
	require.NoError(t, index.Upsert(ctx, "alice", item))

	item.Text = "new text"
	require.NoError(t, index.Upsert(ctx, "alice", item))

	matches, err := index.Search(ctx, "alice", "query", SearchOptions{TopK: 10})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "new text", matches[0].Document.Content)
}

func TestSearchEmbedderFailure(t *testing.T) {
	index := setupIndex(t, &fakeEmbedder{err: errors.New("quota exceeded")})
	_, err := index.Search(context.Background(), "alice", "query", SearchOptions{})
	require.Error(t, err)
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, cosineSimilarity([]float32{1, 0}, []float32{2, 0}), 1e-9)
	assert.InDelta(t, 0.0, cosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, cosineSimilarity([]float32{1, 0}, []float32{-1, 0}), 1e-9)
	assert.Zero(t, cosineSimilarity([]float32{1, 0}, []float32{1, 0, 0}), "dimension mismatch scores zero")
	assert.Zero(t, cosineSimilarity([]float32{0, 0}, []float32{1, 0}), "zero vector scores zero")
	assert.Zero(t, cosineSimilarity(nil, nil))
}

func TestQueueProcessesJobs(t *testing.T) {
	ctx := context.Background()
	embedder := &fakeEmbedder{vectors: map[string][]float32{
		"queued doc": {1, 0, 0},
		"query":      {1, 0, 0},
	}}
	index := setupIndex(t, embedder)

	queue := NewQueue(index, 4)
	queue.Start(ctx)
	queue.Enqueue(Job{UserID: "alice", Items: []Item{
		{DocType: model.DocTypeTransaction, SourceID: "t1", Text: "queued doc"},
	}})
	queue.Close()

	matches, err := index.Search(ctx, "alice", "query", SearchOptions{TopK: 1})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "queued doc", matches[0].Document.Content)
}

func TestQueueFailureDoesNotWedge(t *testing.T) {
	ctx := context.Background()
	embedder := &fakeEmbedder{err: errors.New("embedding service down")}
	index := setupIndex(t, embedder)

	queue := NewQueue(index, 4)
	queue.Start(ctx)
	queue.Enqueue(Job{UserID: "alice", Items: []Item{
		{DocType: model.DocTypeTransaction, SourceID: "t1", Text: "doomed"},
	}})
	// A failed job is logged and dropped; Close must still return.
	queue.Close()
}
