package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/pennywise-app/pennywise/internal/service"
)

// CategorySummary totals outflows per category for one user over a period.
func (s *SQLiteStorage) CategorySummary(ctx context.Context, userID string, start, end time.Time) ([]service.CategoryTotal, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, fmt.Errorf("%w: %v before %v", ErrInvalidDateRange, end, start)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT COALESCE(category, 'Other') AS category,
			SUM(ABS(amount)) AS total,
			COUNT(*) AS count
		FROM transactions
		WHERE user_id = ? AND amount < 0 AND date >= ? AND date <= ?
		GROUP BY COALESCE(category, 'Other')
		ORDER BY total DESC
	`, userID, start.Format("2006-01-02"), end.Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("failed to query category summary: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var totals []service.CategoryTotal
	for rows.Next() {
		var ct service.CategoryTotal
		if err := rows.Scan(&ct.Category, &ct.Total, &ct.Count); err != nil {
			return nil, fmt.Errorf("failed to scan category total: %w", err)
		}
		totals = append(totals, ct)
	}

	return totals, rows.Err()
}

// SpendingSummary computes total inflows and outflows for one user over a
// period.
func (s *SQLiteStorage) SpendingSummary(ctx context.Context, userID string, start, end time.Time) (*service.CashFlow, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, fmt.Errorf("%w: %v before %v", ErrInvalidDateRange, end, start)
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(CASE WHEN amount > 0 THEN amount ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN amount < 0 THEN ABS(amount) ELSE 0 END), 0)
		FROM transactions
		WHERE user_id = ? AND date >= ? AND date <= ?
	`, userID, start.Format("2006-01-02"), end.Format("2006-01-02"))

	var flow service.CashFlow
	if err := row.Scan(&flow.Income, &flow.Expenses); err != nil {
		return nil, fmt.Errorf("failed to scan spending summary: %w", err)
	}
	flow.Net = flow.Income - flow.Expenses

	return &flow, nil
}

// MonthlyTrend returns per-month income and expense totals for the most
// recent months.
func (s *SQLiteStorage) MonthlyTrend(ctx context.Context, userID string, months int) ([]service.MonthTotal, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}
	if months <= 0 {
		months = 6
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT strftime('%Y-%m', date) AS month,
			COALESCE(SUM(CASE WHEN amount > 0 THEN amount ELSE 0 END), 0) AS income,
			COALESCE(SUM(CASE WHEN amount < 0 THEN ABS(amount) ELSE 0 END), 0) AS expenses
		FROM transactions
		WHERE user_id = ?
		GROUP BY strftime('%Y-%m', date)
		ORDER BY month DESC
		LIMIT ?
	`, userID, months)
	if err != nil {
		return nil, fmt.Errorf("failed to query monthly trend: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var totals []service.MonthTotal
	for rows.Next() {
		var mt service.MonthTotal
		if err := rows.Scan(&mt.Month, &mt.Income, &mt.Expenses); err != nil {
			return nil, fmt.Errorf("failed to scan month total: %w", err)
		}
		totals = append(totals, mt)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Oldest first for chart-ready output
	for i, j := 0, len(totals)-1; i < j; i, j = i+1, j-1 {
		totals[i], totals[j] = totals[j], totals[i]
	}

	return totals, nil
}

// TopMerchants totals outflows per merchant for one user over a period.
func (s *SQLiteStorage) TopMerchants(ctx context.Context, userID string, start, end time.Time, limit int) ([]service.MerchantTotal, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, fmt.Errorf("%w: %v before %v", ErrInvalidDateRange, end, start)
	}
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT COALESCE(NULLIF(merchant, ''), description) AS merchant,
			SUM(ABS(amount)) AS total,
			COUNT(*) AS count
		FROM transactions
		WHERE user_id = ? AND amount < 0 AND date >= ? AND date <= ?
		GROUP BY COALESCE(NULLIF(merchant, ''), description)
		ORDER BY total DESC
		LIMIT ?
	`, userID, start.Format("2006-01-02"), end.Format("2006-01-02"), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top merchants: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var totals []service.MerchantTotal
	for rows.Next() {
		var mt service.MerchantTotal
		if err := rows.Scan(&mt.Merchant, &mt.Total, &mt.Count); err != nil {
			return nil, fmt.Errorf("failed to scan merchant total: %w", err)
		}
		totals = append(totals, mt)
	}

	return totals, rows.Err()
}
