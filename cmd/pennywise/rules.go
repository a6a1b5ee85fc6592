package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pennywise-app/pennywise/internal/cli"
	"github.com/pennywise-app/pennywise/internal/model"
)

func rulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage categorization rules",
		Long: `Categorization rules map merchant substrings to categories and take
precedence over both the built-in patterns and the AI fallback.`,
	}

	cmd.AddCommand(rulesListCmd())
	cmd.AddCommand(rulesAddCmd())
	cmd.AddCommand(rulesDeleteCmd())

	return cmd
}

func rulesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all categorization rules",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			rules, err := store.ListRules(ctx)
			if err != nil {
				return err
			}

			if len(rules) == 0 {
				fmt.Println(cli.FormatInfo("No rules defined yet. Add one with: pennywise rules add <pattern> <category>"))
				return nil
			}

			fmt.Println(cli.FormatTitle("Categorization rules"))
			fmt.Println(cli.TableHeaderStyle.Render(fmt.Sprintf("%-6s %-40s %s", "ID", "PATTERN", "CATEGORY")))
			for _, rule := range rules {
				fmt.Printf("%-6d %-40s %s\n", rule.ID, rule.Pattern, rule.Category)
			}

			return nil
		},
	}
}

func rulesAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <pattern> <category>",
		Short: "Add a categorization rule",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			pattern, category := args[0], args[1]

			if !model.ValidCategory(category) {
				return fmt.Errorf("unknown category %q; valid categories: %s",
					category, strings.Join(model.Categories(), ", "))
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			rule, err := store.InsertRule(ctx, pattern, model.CanonicalCategory(category))
			if err != nil {
				return err
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Rule %d created: %q → %s", rule.ID, rule.Pattern, rule.Category)))
			return nil
		},
	}
}

func rulesDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a categorization rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid rule id %q", args[0])
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			deleted, err := store.DeleteRule(ctx, id)
			if err != nil {
				return err
			}
			if !deleted {
				fmt.Println(cli.FormatWarning(fmt.Sprintf("No rule with id %d", id)))
				return nil
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Rule %d deleted", id)))
			return nil
		},
	}
}
