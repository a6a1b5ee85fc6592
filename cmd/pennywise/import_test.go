package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pennywise-app/pennywise/internal/service"
	"github.com/pennywise-app/pennywise/internal/storage"
)

func writeImportFixture(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func setupImportConfig(t *testing.T, dir string) string {
	t.Helper()
	dbPath := filepath.Join(dir, "test.db")

	viper.Reset()
	t.Cleanup(viper.Reset)
	viper.Set("database.path", dbPath)
	viper.Set("user.scope", "alice")

	// No API keys: the engine must degrade to its fallback tier.
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "")

	return dbPath
}

func TestRunImportSavesGoodRowsAndCountsSkipped(t *testing.T) {
	dir := t.TempDir()
	dbPath := setupImportConfig(t, dir)
	csvPath := writeImportFixture(t, dir, "export.csv",
		"Date,Description,Amount\n"+
			"2025-06-01,GOOD ROW,-10.00\n"+
			"not-a-date,BAD DATE,-5.00\n")

	cmd := importCmd()
	cmd.SetContext(context.Background())
	require.NoError(t, cmd.Flags().Set("no-index", "true"))

	require.NoError(t, runImport(cmd, []string{csvPath}))

	store, err := storage.NewSQLiteStorage(dbPath)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	// The malformed row is skipped; the good row still lands.
	saved, err := store.GetTransactions(context.Background(), "alice", service.TransactionFilter{})
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, "GOOD ROW", saved[0].Description)
	assert.NotEmpty(t, saved[0].Category)
}

func TestRunImportFailsWhenNothingImportable(t *testing.T) {
	dir := t.TempDir()
	setupImportConfig(t, dir)
	csvPath := writeImportFixture(t, dir, "bad.csv",
		"Date,Description,Amount\n"+
			"not-a-date,BAD DATE,-5.00\n")

	cmd := importCmd()
	cmd.SetContext(context.Background())
	require.NoError(t, cmd.Flags().Set("no-index", "true"))

	err := runImport(cmd, []string{csvPath})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rows skipped")
}
