package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pennywise-app/pennywise/internal/cli"
	"github.com/pennywise-app/pennywise/internal/model"
	"github.com/pennywise-app/pennywise/internal/retrieval"
	"github.com/pennywise-app/pennywise/internal/service"
)

func indexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Rebuild the semantic search index",
		Long: `Embed every stored transaction so the assistant can answer
"find transactions like..." questions. Imports index incrementally;
this command rebuilds from scratch.`,
		RunE: runIndex,
	}

	cmd.Flags().Int("limit", 0, "index at most this many transactions (0 = all)")

	return cmd
}

func runIndex(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	limit, _ := cmd.Flags().GetInt("limit")

	scope, err := resolveScope()
	if err != nil {
		return err
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	index := createIndex(store)
	if index == nil {
		return fmt.Errorf("embeddings are not configured; set an OpenAI API key")
	}

	transactions, err := store.GetTransactions(ctx, scope, service.TransactionFilter{Limit: limit})
	if err != nil {
		return err
	}
	if len(transactions) == 0 {
		fmt.Println(cli.FormatInfo("No transactions to index"))
		return nil
	}

	items := make([]retrieval.Item, len(transactions))
	for i := range transactions {
		items[i] = retrieval.Item{
			DocType:  model.DocTypeTransaction,
			SourceID: transactions[i].ID,
			Text:     retrieval.TransactionText(&transactions[i]),
		}
	}

	stored, err := index.UpsertBatch(ctx, scope, items)
	if err != nil {
		return fmt.Errorf("indexed %d of %d transactions: %w", stored, len(items), err)
	}

	fmt.Println(cli.FormatSuccess(fmt.Sprintf("Indexed %d transactions", stored)))
	return nil
}
