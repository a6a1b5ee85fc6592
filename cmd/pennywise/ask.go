package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pennywise-app/pennywise/internal/agent"
	"github.com/pennywise-app/pennywise/internal/cli"
	"github.com/pennywise-app/pennywise/internal/llm"
	"github.com/pennywise-app/pennywise/internal/safety"
)

func askCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a question about your finances",
		Long: `Ask a natural-language question about your transactions. The assistant
fetches the numbers with data tools before answering, so every figure
comes from your own data.

Examples:
  pennywise ask "how much did I spend on dining last month?"
  pennywise ask "what are my top 5 merchants this year?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: runAsk,
	}

	cmd.Flags().Bool("show-tools", false, "print which data tools the assistant used")

	return cmd
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	showTools, _ := cmd.Flags().GetBool("show-tools")
	question := strings.Join(args, " ")

	scope, err := resolveScope()
	if err != nil {
		return err
	}

	cfg, err := llmConfig()
	if err != nil {
		return err
	}
	chat, err := llm.NewChatClient(cfg)
	if err != nil {
		return err
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	tools := agent.NewToolset(store, safety.NewGuard(store, 0), createEngine(store), createIndex(store), scope)

	maxRounds := viper.GetInt("agent.max_rounds")
	assistant := agent.NewWithConfig(chat, tools, agent.Config{MaxRounds: maxRounds})

	response, err := assistant.Ask(ctx, question)
	if err != nil {
		return err
	}

	fmt.Println(response.Answer)

	for _, chart := range response.Charts {
		fmt.Println(cli.SubtleStyle.Render(fmt.Sprintf("%s suggested %s chart over %s", cli.ChartIcon, chart.Type, chart.NameKey)))
	}

	if showTools {
		for _, use := range response.ToolLog {
			line := fmt.Sprintf("round %d: %s %s", use.Round, use.Name, use.Arguments)
			if use.Error != "" {
				line += " (error: " + use.Error + ")"
			}
			fmt.Println(cli.SubtleStyle.Render(line))
		}
	}

	return nil
}
