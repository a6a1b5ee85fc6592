// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/pennywise-app/pennywise/internal/model"
)

// RetryOptions configures retry behavior for operations against external services.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// TransactionFilter defines filtering options for transaction queries.
type TransactionFilter struct {
	StartDate *time.Time
	EndDate   *time.Time
	Category  string
	Limit     int
	Offset    int
}

// CategoryTotal is one row of a per-category aggregate.
type CategoryTotal struct {
	Category string  `json:"category"`
	Total    float64 `json:"total"`
	Count    int     `json:"count"`
}

// MonthTotal is one row of a monthly time series.
type MonthTotal struct {
	Month    string  `json:"month"`
	Income   float64 `json:"income"`
	Expenses float64 `json:"expenses"`
}

// MerchantTotal is one row of a per-merchant aggregate.
type MerchantTotal struct {
	Merchant string  `json:"merchant"`
	Total    float64 `json:"total"`
	Count    int     `json:"count"`
}

// CashFlow summarizes inflows and outflows over a period.
type CashFlow struct {
	Income   float64 `json:"income"`
	Expenses float64 `json:"expenses"`
	Net      float64 `json:"net"`
}

// Storage defines the contract for the persistence layer. All transaction
// and document access is scoped to a single user; category rules are global.
type Storage interface {
	// Transaction operations
	SaveTransactions(ctx context.Context, userID string, transactions []model.Transaction) error
	GetTransactions(ctx context.Context, userID string, filter TransactionFilter) ([]model.Transaction, error)
	GetTransactionByID(ctx context.Context, userID, id string) (*model.Transaction, error)
	UpdateTransactionCategory(ctx context.Context, userID, id, category string) error
	DeleteTransaction(ctx context.Context, userID, id string) error
	DeleteAllTransactions(ctx context.Context, userID string) (int64, error)

	// Category rule operations
	ListRules(ctx context.Context) ([]model.CategoryRule, error)
	InsertRule(ctx context.Context, pattern, category string) (*model.CategoryRule, error)
	DeleteRule(ctx context.Context, id int64) (bool, error)

	// Vector document operations
	UpsertDocument(ctx context.Context, doc *model.Document) error
	ListDocuments(ctx context.Context, userID string, docTypes []model.DocType) ([]model.Document, error)
	DeleteDocument(ctx context.Context, userID string, docType model.DocType, sourceID string) error
	DeleteDocumentsForUser(ctx context.Context, userID string) (int64, error)

	// Raw read-only query execution for the query safety layer
	ExecuteRaw(ctx context.Context, query string, maxRows int) ([]map[string]any, error)

	// Fixed aggregate query shapes consumed by agent tools
	CategorySummary(ctx context.Context, userID string, start, end time.Time) ([]CategoryTotal, error)
	SpendingSummary(ctx context.Context, userID string, start, end time.Time) (*CashFlow, error)
	MonthlyTrend(ctx context.Context, userID string, months int) ([]MonthTotal, error)
	TopMerchants(ctx context.Context, userID string, start, end time.Time, limit int) ([]MerchantTotal, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
