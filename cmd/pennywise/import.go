package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/pennywise-app/pennywise/internal/cli"
	"github.com/pennywise-app/pennywise/internal/engine"
	"github.com/pennywise-app/pennywise/internal/ingest"
	"github.com/pennywise-app/pennywise/internal/model"
	"github.com/pennywise-app/pennywise/internal/retrieval"
	"github.com/pennywise-app/pennywise/internal/service"
)

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import [files...]",
		Short: "Import transactions from OFX/QFX or CSV files",
		Long: `Import bank export files, categorize every transaction, and save them.

Examples:
  # Import a single file
  pennywise import ~/Downloads/checking_jan.qfx

  # Import several exports at once
  pennywise import ~/Downloads/*.qfx ~/Downloads/card.csv`,
		Args: cobra.MinimumNArgs(1),
		RunE: runImport,
	}

	cmd.Flags().BoolP("dry-run", "d", false, "Preview import without saving")
	cmd.Flags().Bool("no-index", false, "Skip background embedding of imported transactions")

	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	noIndex, _ := cmd.Flags().GetBool("no-index")

	scope, err := resolveScope()
	if err != nil {
		return err
	}

	files, err := expandFileArgs(args)
	if err != nil {
		return err
	}

	transactions, err := parseFiles(files)
	if err != nil {
		return err
	}
	if len(transactions) == 0 {
		return fmt.Errorf("no transactions found in %d file(s)", len(files))
	}

	// Rows the parsers kept best-effort but that lack a usable date or
	// description cannot be stored; they are skipped and counted, never
	// allowed to fail the rest of the batch.
	ready, skipped := ingest.Partition(transactions)
	for _, txn := range skipped {
		slog.Warn("Skipping row missing a usable date or description",
			"description", txn.Description,
			"amount", txn.Amount)
	}
	if len(ready) == 0 {
		return fmt.Errorf("no importable transactions in %d file(s) (%d rows skipped)", len(files), len(skipped))
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	eng := createEngine(store)
	results, err := categorizeAll(ctx, eng, ready)
	if err != nil {
		return err
	}

	for i := range ready {
		ready[i].Category = results[i].Category
		ready[i].Merchant = results[i].Merchant
	}

	if dryRun {
		printImportPreview(ready, results, len(skipped))
		return nil
	}

	if err := store.SaveTransactions(ctx, scope, ready); err != nil {
		return fmt.Errorf("failed to save transactions: %w", err)
	}

	// Report first; embedding runs in the background and drains before exit.
	drainIndex := func() {}
	if !noIndex {
		drainIndex = indexImported(ctx, store, scope, ready)
	}

	fmt.Println(cli.FormatSuccess(fmt.Sprintf("Imported %d transactions (%d rows skipped)", len(ready), len(skipped))))
	printBreakdown(results)
	drainIndex()

	return nil
}

// expandFileArgs resolves glob patterns and bare paths into a file list.
func expandFileArgs(args []string) ([]string, error) {
	var files []string
	for _, pattern := range args {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %s: %w", pattern, err)
		}
		if len(matches) == 0 {
			if _, err := os.Stat(pattern); err == nil {
				files = append(files, pattern)
			} else {
				slog.Warn("No files found matching pattern", "pattern", pattern)
			}
		} else {
			files = append(files, matches...)
		}
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("no files found to import")
	}
	return files, nil
}

// parseFiles parses every file, picking the parser by extension, and
// deduplicates across files by content hash.
func parseFiles(files []string) ([]model.Transaction, error) {
	var all []model.Transaction
	seen := make(map[string]bool)

	for _, path := range files {
		transactions, err := parseFile(path)
		if err != nil {
			slog.Error("Failed to parse file",
				"file", path,
				"error", err)
			continue
		}

		added := 0
		for _, txn := range transactions {
			hash := txn.GenerateHash()
			if seen[hash] {
				continue
			}
			seen[hash] = true
			all = append(all, txn)
			added++
		}

		slog.Info("Processed file",
			"file", filepath.Base(path),
			"transactions", added)
	}

	return all, nil
}

func parseFile(path string) ([]model.Transaction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".ofx", ".qfx":
		return ingest.NewOFXParser().Parse(f)
	case ".csv":
		return ingest.NewCSVParser().Parse(f)
	default:
		return sniffAndParse(f)
	}
}

// sniffAndParse handles files without a recognized extension: OFX content
// starts with an OFX header or tag, anything else is tried as CSV.
func sniffAndParse(f *os.File) ([]model.Transaction, error) {
	head := make([]byte, 512)
	n, err := f.Read(head)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to rewind file: %w", err)
	}

	content := strings.ToUpper(string(head[:n]))
	if strings.Contains(content, "OFXHEADER") || strings.Contains(content, "<OFX>") {
		return ingest.NewOFXParser().Parse(f)
	}
	return ingest.NewCSVParser().Parse(f)
}

// categorizeAll runs the categorization pipeline, advancing a progress bar
// as the local pass and each AI chunk complete.
func categorizeAll(ctx context.Context, eng *engine.Engine, transactions []model.Transaction) ([]model.Result, error) {
	descriptions := make([]string, len(transactions))
	for i := range transactions {
		descriptions[i] = transactions[i].Description
	}

	bar := progressbar.NewOptions(len(descriptions),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]Categorizing transactions...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(os.Stderr)
		}),
	)

	results, err := eng.CategorizeBatchProgress(ctx, descriptions, func(done int) {
		_ = bar.Add(done)
	})
	if err != nil {
		return nil, err
	}
	_ = bar.Finish()

	return results, nil
}

// indexImported queues background embedding of the saved transactions so the
// import report never waits on an embedding service. The returned function
// drains the queue and must be called before exit.
func indexImported(ctx context.Context, store service.Storage, scope string, transactions []model.Transaction) func() {
	index := createIndex(store)
	if index == nil {
		slog.Debug("Embeddings not configured, skipping indexing")
		return func() {}
	}

	items := make([]retrieval.Item, len(transactions))
	for i := range transactions {
		items[i] = retrieval.Item{
			DocType:  model.DocTypeTransaction,
			SourceID: transactions[i].ID,
			Text:     retrieval.TransactionText(&transactions[i]),
		}
	}

	queue := retrieval.NewQueue(index, len(items))
	queue.Start(ctx)
	queue.Enqueue(retrieval.Job{UserID: scope, Items: items})
	return queue.Close
}

func printImportPreview(transactions []model.Transaction, results []model.Result, skipped int) {
	fmt.Println(cli.FormatTitle("Import preview (dry run)"))
	for i := range transactions {
		fmt.Printf("%s  %-40s %10.2f  %s (%s/%s)\n",
			transactions[i].Date.Format("2006-01-02"),
			truncate(transactions[i].Description, 40),
			transactions[i].Amount,
			results[i].Category,
			results[i].Method,
			results[i].Confidence,
		)
	}
	fmt.Println(cli.SubtleStyle.Render(fmt.Sprintf("%d transactions (%d rows skipped), nothing saved", len(transactions), skipped)))
}

func printBreakdown(results []model.Result) {
	breakdown := engine.MethodBreakdown(results)
	fmt.Println(cli.SubtleStyle.Render(fmt.Sprintf(
		"rules: %d  patterns: %d  ai: %d  fallback: %d",
		breakdown[model.MethodRule],
		breakdown[model.MethodPattern],
		breakdown[model.MethodAI],
		breakdown[model.MethodFallback],
	)))
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}
