package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/pennywise-app/pennywise/internal/common"
	"github.com/pennywise-app/pennywise/internal/model"
)

// ListRules returns all category rules in match order: longest pattern
// first, ties broken by oldest rule. The order is deterministic so that
// "first match wins" is stable across calls.
func (s *SQLiteStorage) ListRules(ctx context.Context) ([]model.CategoryRule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, pattern, category, created_at
		FROM category_rules
		ORDER BY LENGTH(pattern) DESC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query rules: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var rules []model.CategoryRule
	for rows.Next() {
		var rule model.CategoryRule
		if err := rows.Scan(&rule.ID, &rule.Pattern, &rule.Category, &rule.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}
		rules = append(rules, rule)
	}

	return rules, rows.Err()
}

// InsertRule creates a new category rule. The pattern is stored uppercase;
// inserting an existing pattern fails with common.ErrDuplicateEntry.
func (s *SQLiteStorage) InsertRule(ctx context.Context, pattern, category string) (*model.CategoryRule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(pattern, "pattern"); err != nil {
		return nil, err
	}
	if !model.ValidCategory(category) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCategory, category)
	}

	pattern = strings.ToUpper(strings.TrimSpace(pattern))

	result, err := s.db.ExecContext(ctx,
		`INSERT INTO category_rules (pattern, category) VALUES (?, ?)`,
		pattern, category)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("rule %q: %w", pattern, common.ErrDuplicateEntry)
		}
		return nil, fmt.Errorf("failed to insert rule: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get rule ID: %w", err)
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT id, pattern, category, created_at FROM category_rules WHERE id = ?`, id)

	var rule model.CategoryRule
	if err := row.Scan(&rule.ID, &rule.Pattern, &rule.Category, &rule.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to read back rule: %w", err)
	}
	return &rule, nil
}

// DeleteRule removes a rule by ID, reporting whether it existed.
func (s *SQLiteStorage) DeleteRule(ctx context.Context, id int64) (bool, error) {
	if err := validateContext(ctx); err != nil {
		return false, err
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM category_rules WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete rule: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check delete result: %w", err)
	}
	return affected > 0, nil
}
