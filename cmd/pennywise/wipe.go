package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pennywise-app/pennywise/internal/cli"
)

func wipeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wipe",
		Short: "Delete all of your transactions and search documents",
		Long: `Delete every transaction and indexed document for the current user
scope. Categorization rules are shared and stay in place.`,
		RunE: runWipe,
	}

	cmd.Flags().Bool("yes", false, "skip the confirmation prompt")

	return cmd
}

func runWipe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	yes, _ := cmd.Flags().GetBool("yes")

	scope, err := resolveScope()
	if err != nil {
		return err
	}

	if !yes {
		fmt.Printf("This permanently deletes all data for %q. Type 'yes' to continue: ", scope)
		reader := bufio.NewReader(os.Stdin)
		answer, _ := reader.ReadString('\n')
		if strings.TrimSpace(answer) != "yes" {
			fmt.Println(cli.FormatInfo("Aborted"))
			return nil
		}
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	transactions, err := store.DeleteAllTransactions(ctx, scope)
	if err != nil {
		return err
	}
	documents, err := store.DeleteDocumentsForUser(ctx, scope)
	if err != nil {
		return err
	}

	fmt.Println(cli.FormatSuccess(fmt.Sprintf(
		"Deleted %d transactions and %d indexed documents", transactions, documents)))
	return nil
}
