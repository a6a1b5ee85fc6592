package engine

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pennywise-app/pennywise/internal/model"
	"github.com/pennywise-app/pennywise/internal/patterns"
	"github.com/pennywise-app/pennywise/internal/service"
	"github.com/pennywise-app/pennywise/internal/storage"
)

// stubClassifier answers classification calls from a fixed mapping and
// records how it was called.
type stubClassifier struct {
	replies    map[string]string
	err        error
	mu         sync.Mutex
	batchCalls [][]string
	soloCalls  []string
}

func (s *stubClassifier) ClassifyMerchant(_ context.Context, merchant string, _ []string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.soloCalls = append(s.soloCalls, merchant)
	if s.err != nil {
		return "", s.err
	}
	return s.reply(merchant), nil
}

func (s *stubClassifier) ClassifyMerchantBatch(_ context.Context, merchants []string, _ []string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batchCalls = append(s.batchCalls, merchants)
	if s.err != nil {
		return nil, s.err
	}
	out := make([]string, len(merchants))
	for i, m := range merchants {
		out[i] = s.reply(m)
	}
	return out, nil
}

func (s *stubClassifier) reply(merchant string) string {
	if reply, ok := s.replies[merchant]; ok {
		return reply
	}
	return "Shopping"
}

func testDate(t *testing.T, value string) time.Time {
	t.Helper()
	date, err := time.Parse("2006-01-02", value)
	require.NoError(t, err)
	return date
}

func newTestStorage(t *testing.T) service.Storage {
	t.Helper()
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.Migrate(context.Background()))
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestCategorizeTiers(t *testing.T) {
	tests := []struct {
		name           string
		description    string
		rules          map[string]string
		classifier     *stubClassifier
		wantCategory   string
		wantMethod     model.Method
		wantConfidence model.Confidence
		wantSuggest    bool
	}{
		{
			name:           "user rule beats pattern table",
			description:    "STARBUCKS STORE #123",
			rules:          map[string]string{"STARBUCKS": "Entertainment"},
			wantCategory:   "Entertainment",
			wantMethod:     model.MethodRule,
			wantConfidence: model.ConfidenceHigh,
		},
		{
			name:           "pattern table match",
			description:    "STARBUCKS STORE #123",
			wantCategory:   "Coffee",
			wantMethod:     model.MethodPattern,
			wantConfidence: model.ConfidenceHigh,
		},
		{
			name:           "restaurant POS prefix without a name match",
			description:    "TST* QQZHOUSE",
			wantCategory:   "Dining",
			wantMethod:     model.MethodPattern,
			wantConfidence: model.ConfidenceMedium,
		},
		{
			name:           "aggregator defers to AI",
			description:    "PAYPAL *QQZVENDOR",
			classifier:     &stubClassifier{replies: map[string]string{"QQZVENDOR": "Shopping"}},
			wantCategory:   "Shopping",
			wantMethod:     model.MethodAI,
			wantConfidence: model.ConfidenceMedium,
			wantSuggest:    true,
		},
		{
			name:           "AI reply outside category set coerced to Other",
			description:    "PAYPAL *QQZVENDOR",
			classifier:     &stubClassifier{replies: map[string]string{"QQZVENDOR": "Food and Stuff"}},
			wantCategory:   model.CategoryOther,
			wantMethod:     model.MethodAI,
			wantConfidence: model.ConfidenceLow,
			wantSuggest:    true,
		},
		{
			name:           "AI reply differing only in case is accepted",
			description:    "PAYPAL *QQZVENDOR",
			classifier:     &stubClassifier{replies: map[string]string{"QQZVENDOR": "groceries"}},
			wantCategory:   "Groceries",
			wantMethod:     model.MethodAI,
			wantConfidence: model.ConfidenceMedium,
			wantSuggest:    true,
		},
		{
			name:           "AI failure degrades to fallback",
			description:    "PAYPAL *QQZVENDOR",
			classifier:     &stubClassifier{err: errors.New("boom")},
			wantCategory:   model.CategoryOther,
			wantMethod:     model.MethodFallback,
			wantConfidence: model.ConfidenceLow,
			wantSuggest:    true,
		},
		{
			name:           "nil classifier degrades to fallback",
			description:    "PAYPAL *QQZVENDOR",
			wantCategory:   model.CategoryOther,
			wantMethod:     model.MethodFallback,
			wantConfidence: model.ConfidenceLow,
			wantSuggest:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store := newTestStorage(t)
			for pattern, category := range tt.rules {
				_, err := store.InsertRule(ctx, pattern, category)
				require.NoError(t, err)
			}

			var eng *Engine
			if tt.classifier != nil {
				eng = New(store, patterns.Default(), tt.classifier)
			} else {
				eng = New(store, patterns.Default(), nil)
			}

			result, err := eng.Categorize(ctx, tt.description)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCategory, result.Category)
			assert.Equal(t, tt.wantMethod, result.Method)
			assert.Equal(t, tt.wantConfidence, result.Confidence)
			assert.Equal(t, tt.wantSuggest, result.SuggestRule)
			assert.NotEmpty(t, result.Merchant)
		})
	}
}

func TestCategorizeBatchMatchesSingle(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)
	classifier := &stubClassifier{replies: map[string]string{
		"QQALPHA": "Shopping",
		"QQBRAVO": "Travel",
	}}
	eng := New(store, patterns.Default(), classifier)

	descriptions := []string{
		"STARBUCKS #123",
		"PAYPAL *QQALPHA",
		"TST* QQZHOUSE",
		"PAYPAL *QQBRAVO",
	}

	batch, err := eng.CategorizeBatch(ctx, descriptions)
	require.NoError(t, err)
	require.Len(t, batch, len(descriptions))

	for i, description := range descriptions {
		single, err := eng.Categorize(ctx, description)
		require.NoError(t, err)
		assert.Equal(t, single.Category, batch[i].Category, "description %q", description)
		assert.Equal(t, single.Method, batch[i].Method, "description %q", description)
		assert.Equal(t, single.Confidence, batch[i].Confidence, "description %q", description)
	}
}

func TestCategorizeBatchChunking(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)
	classifier := &stubClassifier{}
	eng := NewWithConfig(store, patterns.Default(), classifier, Config{BatchSize: 2})

	descriptions := []string{
		"PAYPAL *QQALPHA",
		"PAYPAL *QQBRAVO",
		"PAYPAL *QQCHARLIE",
		"PAYPAL *QQDELTA",
		"PAYPAL *QQECHO",
	}

	results, err := eng.CategorizeBatch(ctx, descriptions)
	require.NoError(t, err)
	require.Len(t, results, 5)

	// Five unresolved merchants at batch size two means three AI calls.
	require.Len(t, classifier.batchCalls, 3)
	assert.Len(t, classifier.batchCalls[0], 2)
	assert.Len(t, classifier.batchCalls[1], 2)
	assert.Len(t, classifier.batchCalls[2], 1)
}

func TestCategorizeBatchProgressReportsEveryChunk(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)
	classifier := &stubClassifier{}
	eng := NewWithConfig(store, patterns.Default(), classifier, Config{BatchSize: 2})

	descriptions := []string{
		"STARBUCKS #123",
		"PAYPAL *QQALPHA",
		"PAYPAL *QQBRAVO",
		"PAYPAL *QQCHARLIE",
		"PAYPAL *QQDELTA",
	}

	var deltas []int
	results, err := eng.CategorizeBatchProgress(ctx, descriptions, func(done int) {
		deltas = append(deltas, done)
	})
	require.NoError(t, err)
	require.Len(t, results, 5)

	// One item resolves locally, then four AI items at batch size two.
	assert.Equal(t, []int{1, 2, 2}, deltas)

	total := 0
	for _, d := range deltas {
		total += d
	}
	assert.Equal(t, len(descriptions), total, "progress increments cover every item")
}

func TestCategorizeBatchFailureDegradesChunk(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)
	classifier := &stubClassifier{err: errors.New("service down")}
	eng := New(store, patterns.Default(), classifier)

	results, err := eng.CategorizeBatch(ctx, []string{"PAYPAL *QQALPHA", "STARBUCKS #1"})
	require.NoError(t, err, "AI outage must not fail the batch")

	assert.Equal(t, model.MethodFallback, results[0].Method)
	assert.Equal(t, model.CategoryOther, results[0].Category)
	// The locally resolved item is untouched by the AI outage.
	assert.Equal(t, model.MethodPattern, results[1].Method)
	assert.Equal(t, "Coffee", results[1].Category)
}

func TestBatchSizeClamped(t *testing.T) {
	store := newTestStorage(t)
	eng := NewWithConfig(store, patterns.Default(), nil, Config{BatchSize: 500})
	assert.Equal(t, 20, eng.batchSize)
}

func TestLearnFromCorrection(t *testing.T) {
	tests := []struct {
		name        string
		description string
		category    string
		createRule  bool
		wantCreated bool
		wantErr     bool
	}{
		{
			name:        "creates rule from normalized merchant",
			description: "SQ *QQZ BAKERY #12 PORTLAND OR",
			category:    "Dining",
			createRule:  true,
			wantCreated: true,
		},
		{
			name:        "no rule when not requested",
			description: "SQ *QQZ BAKERY",
			category:    "Dining",
			createRule:  false,
			wantCreated: false,
		},
		{
			name:        "pattern below minimum length skipped",
			description: "AB",
			category:    "Dining",
			createRule:  true,
			wantCreated: false,
		},
		{
			name:        "pattern at minimum length accepted",
			description: "ABC",
			category:    "Dining",
			createRule:  true,
			wantCreated: true,
		},
		{
			name:        "pattern at maximum length accepted",
			description: strings.Repeat("Q", 50),
			category:    "Dining",
			createRule:  true,
			wantCreated: true,
		},
		{
			name:        "pattern above maximum length skipped",
			description: strings.Repeat("Q", 51),
			category:    "Dining",
			createRule:  true,
			wantCreated: false,
		},
		{
			name:        "unknown category rejected",
			description: "SQ *QQZ BAKERY",
			category:    "Not A Category",
			createRule:  true,
			wantErr:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store := newTestStorage(t)
			eng := New(store, patterns.Default(), nil)

			learned, err := eng.LearnFromCorrection(ctx, tt.description, tt.category, tt.createRule)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantCreated, learned.RuleCreated)
			if tt.wantCreated {
				assert.NotEmpty(t, learned.Pattern)
			}
		})
	}
}

func TestLearnFromCorrectionDuplicateIsNotAnError(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)
	eng := New(store, patterns.Default(), nil)

	first, err := eng.LearnFromCorrection(ctx, "QQZ BAKERY", "Dining", true)
	require.NoError(t, err)
	assert.True(t, first.RuleCreated)

	second, err := eng.LearnFromCorrection(ctx, "QQZ BAKERY", "Dining", true)
	require.NoError(t, err, "an existing identical pattern is not an error")
	assert.False(t, second.RuleCreated)
}

func TestLearnFromCorrectionReportsSimilarPatterns(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)
	eng := New(store, patterns.Default(), nil)

	_, err := store.InsertRule(ctx, "QQZ BAKERY", "Dining")
	require.NoError(t, err)

	learned, err := eng.LearnFromCorrection(ctx, "QQZ BAKERS", "Dining", true)
	require.NoError(t, err)
	assert.True(t, learned.RuleCreated)
	assert.Contains(t, learned.SimilarPatterns, "QQZ BAKERY")
}

func TestPreviewAndApplyRecategorization(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)
	eng := New(store, patterns.Default(), nil)

	txns := []model.Transaction{
		{ID: "t1", Date: testDate(t, "2025-06-01"), Description: "STARBUCKS #99", Amount: -4.50, Category: "Shopping"},
		{ID: "t2", Date: testDate(t, "2025-06-02"), Description: "NETFLIX.COM", Amount: -15.99, Category: "Subscriptions"},
	}
	require.NoError(t, store.SaveTransactions(ctx, "user_1", txns))

	changes, err := eng.PreviewRecategorization(ctx, "user_1", 0)
	require.NoError(t, err)
	require.Len(t, changes, 1, "only the miscategorized transaction should change")
	assert.Equal(t, "t1", changes[0].TransactionID)
	assert.Equal(t, "Shopping", changes[0].OldCategory)
	assert.Equal(t, "Coffee", changes[0].NewCategory)

	applied, err := eng.ApplyChanges(ctx, "user_1", changes)
	require.NoError(t, err)
	assert.Equal(t, 1, applied)

	updated, err := store.GetTransactionByID(ctx, "user_1", "t1")
	require.NoError(t, err)
	assert.Equal(t, "Coffee", updated.Category)
}

func TestMethodBreakdown(t *testing.T) {
	results := []model.Result{
		{Method: model.MethodRule},
		{Method: model.MethodRule},
		{Method: model.MethodPattern},
		{Method: model.MethodFallback},
	}
	breakdown := MethodBreakdown(results)
	assert.Equal(t, 2, breakdown[model.MethodRule])
	assert.Equal(t, 1, breakdown[model.MethodPattern])
	assert.Equal(t, 0, breakdown[model.MethodAI])
	assert.Equal(t, 1, breakdown[model.MethodFallback])
}
