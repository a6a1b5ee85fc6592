package ingest

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pennywise-app/pennywise/internal/service"
	"github.com/pennywise-app/pennywise/internal/storage"
)

func TestPartitionSplitsUnstorableRows(t *testing.T) {
	input := strings.Join([]string{
		"Date,Description,Amount",
		"2025-06-01,GOOD ROW,-10.00",
		"not-a-date,BAD DATE,-5.00",
	}, "\n")

	txns, err := NewCSVParser().Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, txns, 2)

	ready, skipped := Partition(txns)
	require.Len(t, ready, 1)
	require.Len(t, skipped, 1)
	assert.Equal(t, "GOOD ROW", ready[0].Description)
	assert.Equal(t, "BAD DATE", skipped[0].Description)
}

func TestPartitionedRowsSurviveSave(t *testing.T) {
	ctx := context.Background()
	input := strings.Join([]string{
		"Date,Description,Amount",
		"2025-06-01,GOOD ROW,-10.00",
		"not-a-date,BAD DATE,-5.00",
	}, "\n")

	txns, err := NewCSVParser().Parse(strings.NewReader(input))
	require.NoError(t, err)

	ready, skipped := Partition(txns)
	require.Len(t, skipped, 1)

	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	require.NoError(t, db.Migrate(ctx))

	// One malformed row must not fail the rest of the batch.
	require.NoError(t, db.SaveTransactions(ctx, "alice", ready))

	saved, err := db.GetTransactions(ctx, "alice", service.TransactionFilter{})
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, "GOOD ROW", saved[0].Description)
}
