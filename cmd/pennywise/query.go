package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pennywise-app/pennywise/internal/cli"
	"github.com/pennywise-app/pennywise/internal/safety"
)

func queryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query <sql>",
		Short: "Run a read-only SQL query against your transactions",
		Long: `Run a single SELECT against the transactions table. The query is
validated and automatically restricted to your own rows; writes,
schema changes, and multi-statement input are rejected.

Examples:
  pennywise query "SELECT category, SUM(amount) FROM transactions GROUP BY category"
  pennywise query "SELECT date, description, amount FROM transactions WHERE amount < -100"`,
		Args: cobra.ExactArgs(1),
		RunE: runQuery,
	}

	cmd.Flags().Int("max-rows", 100, "maximum rows to return")

	return cmd
}

func runQuery(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	maxRows, _ := cmd.Flags().GetInt("max-rows")

	scope, err := resolveScope()
	if err != nil {
		return err
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	guard := safety.NewGuard(store, maxRows)
	rows, err := guard.Execute(ctx, scope, args[0])
	if err != nil {
		return err
	}

	if len(rows) == 0 {
		fmt.Println(cli.FormatInfo("No rows"))
		return nil
	}

	printRows(rows)
	fmt.Println(cli.SubtleStyle.Render(fmt.Sprintf("%d row(s)", len(rows))))
	return nil
}

func printRows(rows []map[string]any) {
	cols := make([]string, 0, len(rows[0]))
	for col := range rows[0] {
		cols = append(cols, col)
	}
	sort.Strings(cols)

	fmt.Println(cli.TableHeaderStyle.Render(strings.Join(cols, "\t")))
	for _, row := range rows {
		cells := make([]string, len(cols))
		for i, col := range cols {
			cells[i] = fmt.Sprintf("%v", row[col])
		}
		fmt.Println(strings.Join(cells, "\t"))
	}
}
