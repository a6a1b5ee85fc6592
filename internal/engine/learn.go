package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/agnivade/levenshtein"

	"github.com/pennywise-app/pennywise/internal/common"
	"github.com/pennywise-app/pennywise/internal/model"
)

// Rule pattern length guards. Shorter patterns over-match (a two-letter
// pattern hits almost every merchant); longer ones are too specific to ever
// match again.
const (
	minRulePatternLen = 3
	maxRulePatternLen = 50
)

// LearnResult reports the outcome of a correction-driven rule creation.
type LearnResult struct {
	Pattern         string   `json:"pattern,omitempty"`
	SimilarPatterns []string `json:"similar_patterns,omitempty"`
	RuleCreated     bool     `json:"rule_created"`
}

// LearnFromCorrection converts a user's manual category correction into a
// category rule so future imports categorize the merchant directly. No rule
// is created when createRule is false, when the normalized merchant fails
// the length guards, or when an identical pattern already exists.
func (e *Engine) LearnFromCorrection(ctx context.Context, description, category string, createRule bool) (LearnResult, error) {
	if !model.ValidCategory(category) {
		return LearnResult{}, fmt.Errorf("unknown category %q", category)
	}

	if !createRule {
		return LearnResult{}, nil
	}

	pattern := merchantFor(description)
	if n := len([]rune(pattern)); n < minRulePatternLen || n > maxRulePatternLen {
		slog.Debug("Skipping rule creation, pattern outside length guards",
			"pattern", pattern,
			"length", n)
		return LearnResult{}, nil
	}

	rules, err := e.storage.ListRules(ctx)
	if err != nil {
		return LearnResult{}, fmt.Errorf("failed to load rules: %w", err)
	}
	similar := similarPatterns(pattern, rules)

	if _, err := e.storage.InsertRule(ctx, pattern, category); err != nil {
		// An existing identical pattern is not an error: the correction
		// already has a rule, possibly created by a concurrent import.
		if errors.Is(err, common.ErrDuplicateEntry) {
			return LearnResult{SimilarPatterns: similar}, nil
		}
		return LearnResult{}, err
	}

	slog.Info("Learned rule from correction",
		"pattern", pattern,
		"category", category)

	return LearnResult{
		RuleCreated:     true,
		Pattern:         pattern,
		SimilarPatterns: similar,
	}, nil
}

// similarPatterns returns up to three existing rule patterns within a small
// edit distance of the candidate. Advisory only: near-duplicates are worth
// showing to the user but never block creation.
func similarPatterns(candidate string, rules []model.CategoryRule) []string {
	type scored struct {
		pattern  string
		distance int
	}

	var close []scored
	for i := range rules {
		d := levenshtein.ComputeDistance(candidate, rules[i].Pattern)
		if d > 0 && d <= 3 {
			close = append(close, scored{pattern: rules[i].Pattern, distance: d})
		}
	}

	sort.Slice(close, func(i, j int) bool {
		if close[i].distance != close[j].distance {
			return close[i].distance < close[j].distance
		}
		return close[i].pattern < close[j].pattern
	})

	var out []string
	for i := 0; i < len(close) && i < 3; i++ {
		out = append(out, close[i].pattern)
	}
	return out
}
