// Package model defines the core domain models used throughout the application.
package model

import (
	"crypto/sha256"
	"fmt"
	"time"
)

// Transaction type tags derived from the amount sign.
const (
	TypeDebit  = "debit"
	TypeCredit = "credit"
)

// Transaction represents a single financial transaction owned by one user.
type Transaction struct {
	Date        time.Time
	CreatedAt   time.Time
	ID          string
	UserID      string
	Description string // Raw transaction description
	Merchant    string // Normalized merchant name
	Category    string // Member of the fixed category set, or empty
	Account     string
	Type        string // debit or credit, derived from amount sign
	Hash        string
	Amount      float64 // Negative = outflow, positive = inflow
}

// GenerateHash creates a stable hash for duplicate detection.
func (t *Transaction) GenerateHash() string {
	data := fmt.Sprintf("%s:%s:%.2f:%s:%s",
		t.UserID,
		t.Date.Format("2006-01-02"),
		t.Amount,
		t.Description,
		t.Account)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}

// DeriveType returns the type tag implied by the amount sign.
func (t *Transaction) DeriveType() string {
	if t.Amount >= 0 {
		return TypeCredit
	}
	return TypeDebit
}
