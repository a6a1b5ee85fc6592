// Package engine implements the multi-tier categorization pipeline:
// user rules, then the built-in pattern table, then processor heuristics,
// then the AI fallback.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pennywise-app/pennywise/internal/llm"
	"github.com/pennywise-app/pennywise/internal/model"
	"github.com/pennywise-app/pennywise/internal/normalize"
	"github.com/pennywise-app/pennywise/internal/patterns"
	"github.com/pennywise-app/pennywise/internal/service"
)

// Config holds configuration options for the categorization engine.
type Config struct {
	// BatchSize caps how many unresolved merchants share one AI call.
	BatchSize int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{BatchSize: 20}
}

// Engine orchestrates categorization decisions. A nil classifier is valid:
// the AI tier degrades to the low-confidence fallback instead of erroring,
// so categorization never blocks ingestion.
type Engine struct {
	storage    service.Storage
	classifier llm.Classifier
	table      patterns.Table
	batchSize  int
}

// New creates an engine with the default configuration.
func New(storage service.Storage, table patterns.Table, classifier llm.Classifier) *Engine {
	return NewWithConfig(storage, table, classifier, DefaultConfig())
}

// NewWithConfig creates an engine with custom configuration.
func NewWithConfig(storage service.Storage, table patterns.Table, classifier llm.Classifier, config Config) *Engine {
	if config.BatchSize <= 0 || config.BatchSize > 20 {
		config.BatchSize = 20
	}
	return &Engine{
		storage:    storage,
		classifier: classifier,
		table:      table,
		batchSize:  config.BatchSize,
	}
}

// Categorize decides a category for one raw transaction description.
func (e *Engine) Categorize(ctx context.Context, description string) (model.Result, error) {
	rules, err := e.storage.ListRules(ctx)
	if err != nil {
		return model.Result{}, fmt.Errorf("failed to load rules: %w", err)
	}

	if result, resolved := e.resolveLocally(description, rules); resolved {
		return result, nil
	}

	merchant := merchantFor(description)
	return e.classifyOne(ctx, merchant), nil
}

// resolveLocally runs the non-AI tiers: rules, pattern table, and processor
// heuristics. The second return value is false when only the AI tier can
// decide.
func (e *Engine) resolveLocally(description string, rules []model.CategoryRule) (model.Result, bool) {
	merchant := merchantFor(description)

	// User rules take precedence over everything; the rule list is already
	// in deterministic match order (longest pattern first).
	for i := range rules {
		if rules[i].Matches(merchant) {
			return model.Result{
				Category:   rules[i].Category,
				Confidence: model.ConfidenceHigh,
				Method:     model.MethodRule,
				Merchant:   merchant,
			}, true
		}
	}

	if category, ok := e.table.Match(merchant); ok {
		return model.Result{
			Category:   category,
			Confidence: model.ConfidenceHigh,
			Method:     model.MethodPattern,
			Merchant:   merchant,
		}, true
	}

	// A restaurant point-of-sale mark is a dining charge even when the
	// merchant name matched nothing.
	if normalize.HasRestaurantPOSPrefix(description) {
		return model.Result{
			Category:   "Dining",
			Confidence: model.ConfidenceMedium,
			Method:     model.MethodPattern,
			Merchant:   merchant,
		}, true
	}

	// Aggregator-prefixed descriptions hide the real merchant; defer to AI.
	if normalize.HasAggregatorPrefix(description) {
		slog.Debug("Aggregator-prefixed description, deferring to AI",
			"merchant", merchant)
	}
	return model.Result{Merchant: merchant}, false
}

// classifyOne invokes the AI fallback for one merchant. Transport, auth,
// and parse failures all degrade to the fallback result.
func (e *Engine) classifyOne(ctx context.Context, merchant string) model.Result {
	if e.classifier == nil {
		return fallbackResult(merchant)
	}

	reply, err := e.classifier.ClassifyMerchant(ctx, merchant, model.Categories())
	if err != nil {
		slog.Warn("AI classification failed, using fallback",
			"merchant", merchant,
			"error", err)
		return fallbackResult(merchant)
	}

	return aiResult(merchant, reply)
}

// aiResult coerces an AI reply into the fixed category set. Unrecognized
// replies land in Other with low confidence.
func aiResult(merchant, reply string) model.Result {
	category := model.CanonicalCategory(reply)
	confidence := model.ConfidenceMedium
	if category == model.CategoryOther && !strings.EqualFold(strings.TrimSpace(reply), model.CategoryOther) {
		confidence = model.ConfidenceLow
	}

	return model.Result{
		Category:    category,
		Confidence:  confidence,
		Method:      model.MethodAI,
		Merchant:    merchant,
		SuggestRule: true,
	}
}

// fallbackResult is the degraded decision used when the AI tier is
// unavailable or unparseable.
func fallbackResult(merchant string) model.Result {
	return model.Result{
		Category:    model.CategoryOther,
		Confidence:  model.ConfidenceLow,
		Method:      model.MethodFallback,
		Merchant:    merchant,
		SuggestRule: true,
	}
}

// merchantFor normalizes a description, falling back to the trimmed
// uppercase raw form when normalization strips everything.
func merchantFor(description string) string {
	merchant := normalize.Merchant(description)
	if merchant == "" {
		merchant = strings.ToUpper(strings.TrimSpace(description))
	}
	return merchant
}
