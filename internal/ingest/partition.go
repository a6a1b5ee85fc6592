package ingest

import (
	"strings"

	"github.com/pennywise-app/pennywise/internal/model"
)

// Partition splits parsed transactions into rows ready to persist and rows
// missing a usable date or description. Best-effort parsing keeps such rows
// so callers can show them to the user, but the store will not accept them.
func Partition(transactions []model.Transaction) (ready, skipped []model.Transaction) {
	for _, txn := range transactions {
		if txn.Date.IsZero() || strings.TrimSpace(txn.Description) == "" {
			skipped = append(skipped, txn)
			continue
		}
		ready = append(ready, txn)
	}
	return ready, skipped
}
