package engine

import (
	"context"
	"fmt"

	"github.com/pennywise-app/pennywise/internal/model"
	"github.com/pennywise-app/pennywise/internal/service"
)

// Change is one proposed recategorization of a stored transaction.
type Change struct {
	TransactionID string           `json:"transaction_id"`
	Description   string           `json:"description"`
	OldCategory   string           `json:"old_category"`
	NewCategory   string           `json:"new_category"`
	Method        model.Method     `json:"method"`
	Confidence    model.Confidence `json:"confidence"`
}

// PreviewRecategorization runs the pipeline over a user's stored
// transactions and reports what would change, without writing anything.
func (e *Engine) PreviewRecategorization(ctx context.Context, userID string, limit int) ([]Change, error) {
	transactions, err := e.storage.GetTransactions(ctx, userID, service.TransactionFilter{Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}
	if len(transactions) == 0 {
		return nil, nil
	}

	descriptions := make([]string, len(transactions))
	for i := range transactions {
		descriptions[i] = transactions[i].Description
	}

	results, err := e.CategorizeBatch(ctx, descriptions)
	if err != nil {
		return nil, err
	}

	var changes []Change
	for i := range transactions {
		if results[i].Category == transactions[i].Category {
			continue
		}
		changes = append(changes, Change{
			TransactionID: transactions[i].ID,
			Description:   transactions[i].Description,
			OldCategory:   transactions[i].Category,
			NewCategory:   results[i].Category,
			Method:        results[i].Method,
			Confidence:    results[i].Confidence,
		})
	}

	return changes, nil
}

// ApplyChanges writes previously previewed recategorizations.
func (e *Engine) ApplyChanges(ctx context.Context, userID string, changes []Change) (int, error) {
	applied := 0
	for _, change := range changes {
		if err := e.storage.UpdateTransactionCategory(ctx, userID, change.TransactionID, change.NewCategory); err != nil {
			return applied, fmt.Errorf("failed to apply change for %s: %w", change.TransactionID, err)
		}
		applied++
	}
	return applied, nil
}
