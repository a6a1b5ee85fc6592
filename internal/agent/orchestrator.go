// Package agent answers natural-language questions about a user's finances
// by looping a chat model over a palette of data tools until it produces a
// final textual answer.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pennywise-app/pennywise/internal/llm"
)

const systemPrompt = `You are a personal finance assistant. Answer questions about the user's transactions using the available tools.

Guidelines:
- Always fetch data with tools before answering; never invent numbers.
- Prefer the fixed aggregate tools (category_summary, spending_summary, monthly_trend, top_merchants, compare_periods) over run_sql when one fits the question.
- Amounts are in the account currency; negative amounts are spending, positive are income.
- Keep answers short and concrete. Mention the date range you used.
- If the tools return no data, say so plainly instead of guessing.`

// fallbackAnswer is returned when the conversation exhausts its round cap or
// the model never produces usable output.
const fallbackAnswer = "I'm sorry, I wasn't able to work out an answer to that question from your transaction data. Try rephrasing it, or narrow it to a specific date range or category."

// ToolUse is one entry of the per-question tool log. Result holds the
// encoded tool output, truncated so a large row set cannot bloat the log.
type ToolUse struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
	Result    string `json:"result,omitempty"`
	Error     string `json:"error,omitempty"`
	Round     int    `json:"round"`
}

// maxLoggedResult caps how much of a tool result the log keeps.
const maxLoggedResult = 2000

// Response is the agent's final output for one question.
type Response struct {
	Answer  string    `json:"answer"`
	Charts  []Chart   `json:"charts,omitempty"`
	ToolLog []ToolUse `json:"tool_log,omitempty"`
}

// Config holds configuration options for the agent.
type Config struct {
	// MaxRounds caps planning turns per question so a looping model cannot
	// run tools forever.
	MaxRounds int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{MaxRounds: 8}
}

// Agent drives the plan/act/respond loop for one user.
type Agent struct {
	chat      llm.ChatClient
	tools     *Toolset
	maxRounds int
}

// New creates an agent with the default configuration.
func New(chat llm.ChatClient, tools *Toolset) *Agent {
	return NewWithConfig(chat, tools, DefaultConfig())
}

// NewWithConfig creates an agent with custom configuration.
func NewWithConfig(chat llm.ChatClient, tools *Toolset, config Config) *Agent {
	if config.MaxRounds <= 0 {
		config.MaxRounds = DefaultConfig().MaxRounds
	}
	return &Agent{
		chat:      chat,
		tools:     tools,
		maxRounds: config.MaxRounds,
	}
}

// Ask answers one question. Tool failures are relayed to the model so it can
// adjust; only transport failures to the model itself surface as errors.
func (a *Agent) Ask(ctx context.Context, question string) (*Response, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("question must not be empty")
	}

	messages := []llm.Message{{Role: "user", Content: question}}
	definitions := a.tools.Definitions()

	var toolLog []ToolUse
	var charts []Chart

	for round := 1; round <= a.maxRounds; round++ {
		resp, err := a.chat.Chat(ctx, llm.ChatRequest{
			System:   systemPrompt,
			Messages: messages,
			Tools:    definitions,
		})
		if err != nil {
			return nil, fmt.Errorf("chat request failed: %w", err)
		}

		if len(resp.ToolCalls) == 0 {
			answer := strings.TrimSpace(resp.Content)
			if answer == "" {
				answer = fallbackAnswer
			}
			return &Response{Answer: answer, Charts: charts, ToolLog: toolLog}, nil
		}

		messages = append(messages, llm.Message{
			Role:      "assistant",
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})

		for _, call := range resp.ToolCalls {
			use := ToolUse{Round: round, Name: call.Name, Arguments: string(call.Arguments)}

			result, err := a.tools.Execute(ctx, call)
			if err != nil {
				use.Error = err.Error()
				slog.Warn("Tool call failed",
					"tool", call.Name,
					"round", round,
					"error", err)
				messages = append(messages, llm.Message{
					Role:       "tool",
					ToolCallID: call.ID,
					Content:    fmt.Sprintf("Error: %s", err),
				})
				toolLog = append(toolLog, use)
				continue
			}

			if chart, ok := suggestChart(result); ok {
				charts = append(charts, chart)
			}

			encoded := encodeResult(result)
			use.Result = truncateForLog(encoded)

			messages = append(messages, llm.Message{
				Role:       "tool",
				ToolCallID: call.ID,
				Content:    encoded,
			})
			toolLog = append(toolLog, use)
		}
	}

	slog.Warn("Agent exhausted its round cap without a final answer",
		"rounds", a.maxRounds,
		"tool_calls", len(toolLog))

	return &Response{Answer: fallbackAnswer, Charts: charts, ToolLog: toolLog}, nil
}

// encodeResult renders a tool result for the model. Encoding failures become
// text the model can read rather than loop-breaking errors.
func encodeResult(result *ToolResult) string {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Sprintf("Error: could not encode result: %s", err)
	}
	return string(data)
}

func truncateForLog(s string) string {
	if len(s) <= maxLoggedResult {
		return s
	}
	return s[:maxLoggedResult] + "…"
}
