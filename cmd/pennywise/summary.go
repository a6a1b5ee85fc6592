package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pennywise-app/pennywise/internal/cli"
)

func summaryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show spending summaries",
		Long: `Show cash flow, per-category spending, and top merchants for a
date range (the trailing 30 days by default).`,
		RunE: runSummary,
	}

	cmd.Flags().String("start", "", "start date (YYYY-MM-DD)")
	cmd.Flags().String("end", "", "end date (YYYY-MM-DD)")
	cmd.Flags().Int("months", 0, "show a monthly trend for the last N months instead")

	return cmd
}

func runSummary(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	startFlag, _ := cmd.Flags().GetString("start")
	endFlag, _ := cmd.Flags().GetString("end")
	months, _ := cmd.Flags().GetInt("months")

	scope, err := resolveScope()
	if err != nil {
		return err
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if months > 0 {
		trend, err := store.MonthlyTrend(ctx, scope, months)
		if err != nil {
			return err
		}
		fmt.Println(cli.FormatTitle("Monthly trend"))
		for _, month := range trend {
			fmt.Printf("%-8s income %10.2f  expenses %10.2f\n", month.Month, month.Income, month.Expenses)
		}
		return nil
	}

	end := time.Now()
	if endFlag != "" {
		if end, err = time.Parse("2006-01-02", endFlag); err != nil {
			return fmt.Errorf("invalid --end date: %w", err)
		}
	}
	start := end.AddDate(0, 0, -30)
	if startFlag != "" {
		if start, err = time.Parse("2006-01-02", startFlag); err != nil {
			return fmt.Errorf("invalid --start date: %w", err)
		}
	}

	flow, err := store.SpendingSummary(ctx, scope, start, end)
	if err != nil {
		return err
	}

	fmt.Println(cli.FormatTitle(fmt.Sprintf("Summary %s – %s",
		start.Format("2006-01-02"), end.Format("2006-01-02"))))
	fmt.Printf("Income:   %10.2f\n", flow.Income)
	fmt.Printf("Expenses: %10.2f\n", flow.Expenses)
	fmt.Printf("Net:      %10.2f\n", flow.Net)

	categories, err := store.CategorySummary(ctx, scope, start, end)
	if err != nil {
		return err
	}
	if len(categories) > 0 {
		fmt.Println()
		fmt.Println(cli.TableHeaderStyle.Render(fmt.Sprintf("%-20s %12s %8s", "CATEGORY", "SPENT", "COUNT")))
		for _, total := range categories {
			fmt.Printf("%-20s %12.2f %8d\n", total.Category, total.Total, total.Count)
		}
	}

	merchants, err := store.TopMerchants(ctx, scope, start, end, 5)
	if err != nil {
		return err
	}
	if len(merchants) > 0 {
		fmt.Println()
		fmt.Println(cli.TableHeaderStyle.Render(fmt.Sprintf("%-30s %12s %8s", "TOP MERCHANTS", "SPENT", "COUNT")))
		for _, merchant := range merchants {
			fmt.Printf("%-30s %12.2f %8d\n", truncate(merchant.Merchant, 30), merchant.Total, merchant.Count)
		}
	}

	return nil
}
