package storage

import (
	"context"
	"fmt"
	"time"
)

// ExecuteRaw runs a single pre-validated statement and returns rows as
// loosely-typed records, capped at maxRows. The query safety layer is
// responsible for validation and scope injection before calling this.
func (s *SQLiteStorage) ExecuteRaw(ctx context.Context, query string, maxRows int) ([]map[string]any, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(query, "query"); err != nil {
		return nil, err
	}
	if maxRows <= 0 {
		maxRows = 100
	}

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query execution failed: %w", err)
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	results := make([]map[string]any, 0, maxRows)
	for rows.Next() {
		if len(results) >= maxRows {
			break
		}

		values := make([]any, len(columns))
		pointers := make([]any, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}

		if err := rows.Scan(pointers...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		record := make(map[string]any, len(columns))
		for i, col := range columns {
			record[col] = normalizeValue(values[i])
		}
		results = append(results, record)
	}

	return results, rows.Err()
}

// normalizeValue converts driver-level values into JSON-friendly ones.
func normalizeValue(v any) any {
	switch val := v.(type) {
	case []byte:
		return string(val)
	case time.Time:
		return val.Format("2006-01-02")
	default:
		return v
	}
}
