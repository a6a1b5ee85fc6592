package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pennywise-app/pennywise/internal/model"
)

// CategorizeBatch categorizes many descriptions, running the local tiers
// per item and grouping every still-unresolved merchant into AI calls of at
// most the configured batch size. The category decisions match what
// Categorize would return item by item; only the number of external calls
// differs.
func (e *Engine) CategorizeBatch(ctx context.Context, descriptions []string) ([]model.Result, error) {
	return e.CategorizeBatchProgress(ctx, descriptions, nil)
}

// CategorizeBatchProgress is CategorizeBatch with a progress callback: it
// reports the number of newly decided items after the local pass and after
// each AI chunk, so callers can drive a progress bar through the slow calls.
func (e *Engine) CategorizeBatchProgress(ctx context.Context, descriptions []string, progress func(done int)) ([]model.Result, error) {
	if len(descriptions) == 0 {
		return nil, nil
	}
	if progress == nil {
		progress = func(int) {}
	}

	rules, err := e.storage.ListRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load rules: %w", err)
	}

	results := make([]model.Result, len(descriptions))
	var unresolved []int

	for i, description := range descriptions {
		result, resolved := e.resolveLocally(description, rules)
		results[i] = result
		if !resolved {
			unresolved = append(unresolved, i)
		}
	}
	progress(len(descriptions) - len(unresolved))

	if len(unresolved) == 0 {
		return results, nil
	}

	for start := 0; start < len(unresolved); start += e.batchSize {
		end := start + e.batchSize
		if end > len(unresolved) {
			end = len(unresolved)
		}
		e.classifyChunk(ctx, descriptions, results, unresolved[start:end])
		progress(end - start)
	}

	return results, nil
}

// classifyChunk issues one AI call for a chunk of unresolved items. A failed
// or unparseable reply degrades every item in the chunk to the fallback
// result rather than failing the batch.
func (e *Engine) classifyChunk(ctx context.Context, descriptions []string, results []model.Result, indices []int) {
	if e.classifier == nil {
		for _, idx := range indices {
			results[idx] = fallbackResult(results[idx].Merchant)
		}
		return
	}

	merchants := make([]string, len(indices))
	for i, idx := range indices {
		merchants[i] = results[idx].Merchant
	}

	replies, err := e.classifier.ClassifyMerchantBatch(ctx, merchants, model.Categories())
	if err != nil || len(replies) != len(indices) {
		slog.Warn("AI batch classification failed, using fallback",
			"batch_size", len(indices),
			"error", err)
		for _, idx := range indices {
			results[idx] = fallbackResult(results[idx].Merchant)
		}
		return
	}

	for i, idx := range indices {
		results[idx] = aiResult(results[idx].Merchant, replies[i])
	}
}

// MethodBreakdown counts results per categorization method, for the
// post-import report.
func MethodBreakdown(results []model.Result) map[model.Method]int {
	breakdown := make(map[model.Method]int, 4)
	for _, r := range results {
		breakdown[r.Method]++
	}
	return breakdown
}
