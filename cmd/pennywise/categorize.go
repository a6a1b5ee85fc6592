package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pennywise-app/pennywise/internal/cli"
	"github.com/pennywise-app/pennywise/internal/model"
)

func categorizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categorize <description>...",
		Short: "Categorize transaction descriptions without saving anything",
		Long: `Run the categorization pipeline on raw descriptions and show the
decision, confidence, and which tier decided.

Examples:
  pennywise categorize "SQ *JOE'S COFFEE #4521 SAN FRANCISCO CA"
  pennywise categorize "NETFLIX.COM" "SHELL OIL 5744"`,
		Args: cobra.MinimumNArgs(1),
		RunE: runCategorize,
	}

	cmd.Flags().String("correct", "", "record the correct category for the first description and learn a rule from it")

	return cmd
}

func runCategorize(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	correct, _ := cmd.Flags().GetString("correct")

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	eng := createEngine(store)

	if correct != "" {
		learned, err := eng.LearnFromCorrection(ctx, args[0], correct, true)
		if err != nil {
			return err
		}
		if learned.RuleCreated {
			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Learned rule: %q → %s", learned.Pattern, model.CanonicalCategory(correct))))
		} else {
			fmt.Println(cli.FormatInfo("Correction recorded, no rule created"))
		}
		if len(learned.SimilarPatterns) > 0 {
			fmt.Println(cli.SubtleStyle.Render("Similar existing patterns: " + strings.Join(learned.SimilarPatterns, ", ")))
		}
		return nil
	}

	results, err := eng.CategorizeBatch(ctx, args)
	if err != nil {
		return err
	}

	for i, result := range results {
		line := fmt.Sprintf("%-45s → %-15s (%s, %s confidence)",
			truncate(args[i], 45), result.Category, result.Method, result.Confidence)
		fmt.Println(line)
		if result.SuggestRule {
			fmt.Println(cli.SubtleStyle.Render(fmt.Sprintf(
				"  tip: pennywise rules add %q %s", result.Merchant, result.Category)))
		}
	}

	return nil
}
