package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pennywise-app/pennywise/internal/engine"
	"github.com/pennywise-app/pennywise/internal/llm"
	"github.com/pennywise-app/pennywise/internal/model"
	"github.com/pennywise-app/pennywise/internal/retrieval"
	"github.com/pennywise-app/pennywise/internal/safety"
	"github.com/pennywise-app/pennywise/internal/service"
)

// ResultKind tags which variant of ToolResult is populated.
type ResultKind string

const (
	ResultRows       ResultKind = "rows"
	ResultCategories ResultKind = "categories"
	ResultCashFlow   ResultKind = "cash_flow"
	ResultMonths     ResultKind = "months"
	ResultMerchants  ResultKind = "merchants"
	ResultMatches    ResultKind = "matches"
	ResultChanges    ResultKind = "changes"
	ResultDecisions  ResultKind = "decisions"
	ResultLearn      ResultKind = "learn"
	ResultComparison ResultKind = "comparison"
)

// ToolResult is the tagged union a tool execution produces. Exactly the
// variant named by Kind is populated; everything else stays zero.
type ToolResult struct {
	Kind       ResultKind               `json:"kind"`
	Rows       []map[string]any         `json:"rows,omitempty"`
	Categories []service.CategoryTotal  `json:"categories,omitempty"`
	CashFlow   *service.CashFlow        `json:"cash_flow,omitempty"`
	Months     []service.MonthTotal     `json:"months,omitempty"`
	Merchants  []service.MerchantTotal  `json:"merchants,omitempty"`
	Matches    []retrieval.Match        `json:"matches,omitempty"`
	Changes    []engine.Change          `json:"changes,omitempty"`
	Decisions  []model.Result           `json:"decisions,omitempty"`
	Learn      *engine.LearnResult      `json:"learn,omitempty"`
	Comparison *PeriodComparison        `json:"comparison,omitempty"`
}

// PeriodComparison is the compare_periods result: cash flow for two windows
// and the change between them.
type PeriodComparison struct {
	Current  service.CashFlow `json:"current"`
	Previous service.CashFlow `json:"previous"`
	Delta    service.CashFlow `json:"delta"`
}

// Toolset executes agent tool calls against the application services, all
// scoped to one user.
type Toolset struct {
	storage   service.Storage
	guard     *safety.Guard
	engine    *engine.Engine
	index     *retrieval.Index // nil disables search_transactions
	userID    string
	resultCap int
}

// NewToolset builds the tool executor for one user's conversation.
func NewToolset(storage service.Storage, guard *safety.Guard, eng *engine.Engine, index *retrieval.Index, userID string) *Toolset {
	return &Toolset{
		storage:   storage,
		guard:     guard,
		engine:    eng,
		index:     index,
		userID:    userID,
		resultCap: 100,
	}
}

// Definitions declares the tool palette offered to the model.
func (t *Toolset) Definitions() []llm.ToolDefinition {
	defs := []llm.ToolDefinition{
		{
			Name:        "run_sql",
			Description: "Run a read-only SQL SELECT against the transactions table (columns: date, description, merchant, amount, category, account, txn_type). The query is automatically restricted to the current user's rows.",
			Parameters: objectSchema(map[string]any{
				"query": map[string]any{"type": "string", "description": "A single SELECT statement"},
			}, "query"),
		},
		{
			Name:        "category_summary",
			Description: "Total spending per category over a date range.",
			Parameters: objectSchema(map[string]any{
				"start_date": map[string]any{"type": "string", "description": "YYYY-MM-DD, defaults to 30 days ago"},
				"end_date":   map[string]any{"type": "string", "description": "YYYY-MM-DD, defaults to today"},
			}),
		},
		{
			Name:        "spending_summary",
			Description: "Income, expenses, and net cash flow over a date range.",
			Parameters: objectSchema(map[string]any{
				"start_date": map[string]any{"type": "string", "description": "YYYY-MM-DD, defaults to 30 days ago"},
				"end_date":   map[string]any{"type": "string", "description": "YYYY-MM-DD, defaults to today"},
			}),
		},
		{
			Name:        "monthly_trend",
			Description: "Income and expenses per month for the last N months, oldest first.",
			Parameters: objectSchema(map[string]any{
				"months": map[string]any{"type": "integer", "description": "How many months, defaults to 6"},
			}),
		},
		{
			Name:        "top_merchants",
			Description: "Merchants with the highest total spending over a date range.",
			Parameters: objectSchema(map[string]any{
				"start_date": map[string]any{"type": "string", "description": "YYYY-MM-DD, defaults to 30 days ago"},
				"end_date":   map[string]any{"type": "string", "description": "YYYY-MM-DD, defaults to today"},
				"limit":      map[string]any{"type": "integer", "description": "How many merchants, defaults to 10"},
			}),
		},
		{
			Name:        "compare_periods",
			Description: "Compare cash flow between a date range and the equally long range immediately before it.",
			Parameters: objectSchema(map[string]any{
				"start_date": map[string]any{"type": "string", "description": "YYYY-MM-DD, defaults to 30 days ago"},
				"end_date":   map[string]any{"type": "string", "description": "YYYY-MM-DD, defaults to today"},
			}),
		},
		{
			Name:        "preview_categorization",
			Description: "Show how given transaction descriptions would be categorized, without saving anything.",
			Parameters: objectSchema(map[string]any{
				"descriptions": map[string]any{
					"type":  "array",
					"items": map[string]any{"type": "string"},
				},
			}, "descriptions"),
		},
		{
			Name:        "preview_recategorization",
			Description: "Show which stored transactions would change category if the current rules were re-applied, without saving anything.",
			Parameters: objectSchema(map[string]any{
				"limit": map[string]any{"type": "integer", "description": "How many transactions to examine, defaults to 100"},
			}),
		},
		{
			Name:        "learn_rule",
			Description: "Create a categorization rule from a user correction so future transactions matching the merchant get the given category.",
			Parameters: objectSchema(map[string]any{
				"description": map[string]any{"type": "string", "description": "The transaction description the correction applies to"},
				"category":    map[string]any{"type": "string", "description": "The corrected category"},
			}, "description", "category"),
		},
	}

	if t.index != nil {
		defs = append(defs, llm.ToolDefinition{
			Name:        "search_transactions",
			Description: "Find transactions semantically similar to a free-text query.",
			Parameters: objectSchema(map[string]any{
				"query": map[string]any{"type": "string"},
				"top_k": map[string]any{"type": "integer", "description": "How many matches, defaults to 5"},
			}, "query"),
		})
	}

	return defs
}

// Execute dispatches one tool call. Unknown tool names and argument errors
// come back as errors for the orchestrator to relay to the model.
func (t *Toolset) Execute(ctx context.Context, call llm.ToolCall) (*ToolResult, error) {
	switch call.Name {
	case "run_sql":
		return t.runSQL(ctx, call.Arguments)
	case "category_summary":
		return t.categorySummary(ctx, call.Arguments)
	case "spending_summary":
		return t.spendingSummary(ctx, call.Arguments)
	case "monthly_trend":
		return t.monthlyTrend(ctx, call.Arguments)
	case "top_merchants":
		return t.topMerchants(ctx, call.Arguments)
	case "compare_periods":
		return t.comparePeriods(ctx, call.Arguments)
	case "search_transactions":
		return t.searchTransactions(ctx, call.Arguments)
	case "preview_categorization":
		return t.previewCategorization(ctx, call.Arguments)
	case "preview_recategorization":
		return t.previewRecategorization(ctx, call.Arguments)
	case "learn_rule":
		return t.learnRule(ctx, call.Arguments)
	default:
		return nil, fmt.Errorf("unknown tool %q", call.Name)
	}
}

type rangeArgs struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Limit     int    `json:"limit"`
	Months    int    `json:"months"`
}

func (t *Toolset) runSQL(ctx context.Context, args json.RawMessage) (*ToolResult, error) {
	var parsed struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal(args, &parsed); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}

	rows, err := t.guard.Execute(ctx, t.userID, parsed.Query)
	if err != nil {
		return nil, err
	}
	return &ToolResult{Kind: ResultRows, Rows: rows}, nil
}

func (t *Toolset) categorySummary(ctx context.Context, args json.RawMessage) (*ToolResult, error) {
	start, end, _, err := parseRange(args)
	if err != nil {
		return nil, err
	}
	totals, err := t.storage.CategorySummary(ctx, t.userID, start, end)
	if err != nil {
		return nil, err
	}
	return &ToolResult{Kind: ResultCategories, Categories: totals}, nil
}

func (t *Toolset) spendingSummary(ctx context.Context, args json.RawMessage) (*ToolResult, error) {
	start, end, _, err := parseRange(args)
	if err != nil {
		return nil, err
	}
	flow, err := t.storage.SpendingSummary(ctx, t.userID, start, end)
	if err != nil {
		return nil, err
	}
	return &ToolResult{Kind: ResultCashFlow, CashFlow: flow}, nil
}

func (t *Toolset) monthlyTrend(ctx context.Context, args json.RawMessage) (*ToolResult, error) {
	var parsed rangeArgs
	if len(args) > 0 {
		if err := json.Unmarshal(args, &parsed); err != nil {
			return nil, fmt.Errorf("invalid arguments: %w", err)
		}
	}
	months := parsed.Months
	if months <= 0 {
		months = 6
	}
	trend, err := t.storage.MonthlyTrend(ctx, t.userID, months)
	if err != nil {
		return nil, err
	}
	return &ToolResult{Kind: ResultMonths, Months: trend}, nil
}

func (t *Toolset) topMerchants(ctx context.Context, args json.RawMessage) (*ToolResult, error) {
	start, end, limit, err := parseRange(args)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 10
	}
	merchants, err := t.storage.TopMerchants(ctx, t.userID, start, end, limit)
	if err != nil {
		return nil, err
	}
	return &ToolResult{Kind: ResultMerchants, Merchants: merchants}, nil
}

func (t *Toolset) comparePeriods(ctx context.Context, args json.RawMessage) (*ToolResult, error) {
	start, end, _, err := parseRange(args)
	if err != nil {
		return nil, err
	}

	current, err := t.storage.SpendingSummary(ctx, t.userID, start, end)
	if err != nil {
		return nil, err
	}

	span := end.Sub(start)
	previous, err := t.storage.SpendingSummary(ctx, t.userID, start.Add(-span), start)
	if err != nil {
		return nil, err
	}

	return &ToolResult{
		Kind: ResultComparison,
		Comparison: &PeriodComparison{
			Current:  *current,
			Previous: *previous,
			Delta: service.CashFlow{
				Income:   current.Income - previous.Income,
				Expenses: current.Expenses - previous.Expenses,
				Net:      current.Net - previous.Net,
			},
		},
	}, nil
}

func (t *Toolset) searchTransactions(ctx context.Context, args json.RawMessage) (*ToolResult, error) {
	if t.index == nil {
		return nil, fmt.Errorf("semantic search is not configured")
	}

	var parsed struct {
		Query string `json:"query"`
		TopK  int    `json:"top_k"`
	}
	if err := json.Unmarshal(args, &parsed); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}

	matches, err := t.index.Search(ctx, t.userID, parsed.Query, retrieval.SearchOptions{
		DocTypes: []model.DocType{model.DocTypeTransaction},
		TopK:     parsed.TopK,
	})
	if err != nil {
		return nil, err
	}
	return &ToolResult{Kind: ResultMatches, Matches: matches}, nil
}

func (t *Toolset) previewCategorization(ctx context.Context, args json.RawMessage) (*ToolResult, error) {
	var parsed struct {
		Descriptions []string `json:"descriptions"`
	}
	if err := json.Unmarshal(args, &parsed); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	if len(parsed.Descriptions) == 0 {
		return nil, fmt.Errorf("descriptions must not be empty")
	}

	decisions, err := t.engine.CategorizeBatch(ctx, parsed.Descriptions)
	if err != nil {
		return nil, err
	}
	return &ToolResult{Kind: ResultDecisions, Decisions: decisions}, nil
}

func (t *Toolset) previewRecategorization(ctx context.Context, args json.RawMessage) (*ToolResult, error) {
	var parsed rangeArgs
	if len(args) > 0 {
		if err := json.Unmarshal(args, &parsed); err != nil {
			return nil, fmt.Errorf("invalid arguments: %w", err)
		}
	}
	limit := parsed.Limit
	if limit <= 0 {
		limit = t.resultCap
	}

	changes, err := t.engine.PreviewRecategorization(ctx, t.userID, limit)
	if err != nil {
		return nil, err
	}
	return &ToolResult{Kind: ResultChanges, Changes: changes}, nil
}

func (t *Toolset) learnRule(ctx context.Context, args json.RawMessage) (*ToolResult, error) {
	var parsed struct {
		Description string `json:"description"`
		Category    string `json:"category"`
	}
	if err := json.Unmarshal(args, &parsed); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}

	learned, err := t.engine.LearnFromCorrection(ctx, parsed.Description, parsed.Category, true)
	if err != nil {
		return nil, err
	}
	return &ToolResult{Kind: ResultLearn, Learn: &learned}, nil
}

// parseRange extracts the shared date-range arguments. Missing dates default
// to the trailing 30 days.
func parseRange(args json.RawMessage) (start, end time.Time, limit int, err error) {
	var parsed rangeArgs
	if len(args) > 0 {
		if err := json.Unmarshal(args, &parsed); err != nil {
			return time.Time{}, time.Time{}, 0, fmt.Errorf("invalid arguments: %w", err)
		}
	}

	end = time.Now()
	if parsed.EndDate != "" {
		end, err = time.Parse("2006-01-02", parsed.EndDate)
		if err != nil {
			return time.Time{}, time.Time{}, 0, fmt.Errorf("invalid end_date: %w", err)
		}
		// Include the full end day.
		end = end.AddDate(0, 0, 1).Add(-time.Second)
	}

	start = end.AddDate(0, 0, -30)
	if parsed.StartDate != "" {
		start, err = time.Parse("2006-01-02", parsed.StartDate)
		if err != nil {
			return time.Time{}, time.Time{}, 0, fmt.Errorf("invalid start_date: %w", err)
		}
	}

	return start, end, parsed.Limit, nil
}

func objectSchema(properties map[string]any, required ...string) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}
