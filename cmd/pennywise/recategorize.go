package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pennywise-app/pennywise/internal/cli"
)

func recategorizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recategorize",
		Short: "Re-run categorization over stored transactions",
		Long: `Re-run the full categorization pipeline over stored transactions and
show what would change. Useful after adding rules. Nothing is written
unless --apply is given.`,
		RunE: runRecategorize,
	}

	cmd.Flags().Bool("apply", false, "write the proposed changes")
	cmd.Flags().Int("limit", 0, "examine at most this many transactions (0 = all)")

	return cmd
}

func runRecategorize(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	apply, _ := cmd.Flags().GetBool("apply")
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

	eng := createEngine(store)

	changes, err := eng.PreviewRecategorization(ctx, scope, limit)
	if err != nil {
		return err
	}

	if len(changes) == 0 {
		fmt.Println(cli.FormatInfo("All transactions already match the current rules"))
		return nil
	}

	fmt.Println(cli.FormatTitle(fmt.Sprintf("%d transactions would change", len(changes))))
	for _, change := range changes {
		fmt.Printf("%-40s %s → %s (%s, %s confidence)\n",
			truncate(change.Description, 40),
			change.OldCategory, change.NewCategory,
			change.Method, change.Confidence)
	}

	if !apply {
		fmt.Println(cli.SubtleStyle.Render("Run again with --apply to write these changes"))
		return nil
	}

	applied, err := eng.ApplyChanges(ctx, scope, changes)
	if err != nil {
		return fmt.Errorf("applied %d of %d changes: %w", applied, len(changes), err)
	}

	fmt.Println(cli.FormatSuccess(fmt.Sprintf("Updated %d transactions", applied)))
	return nil
}
