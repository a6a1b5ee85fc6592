package model

import (
	"strings"
	"time"
)

// CategoryRule maps an uppercase substring pattern to a category. Rules are
// global (not per user) and take precedence over the built-in pattern table.
type CategoryRule struct {
	CreatedAt time.Time `json:"created_at"`
	Pattern   string    `json:"pattern"`
	Category  string    `json:"category"`
	ID        int64     `json:"id"`
}

// Matches reports whether the normalized merchant contains the rule's
// pattern, ignoring case.
func (r *CategoryRule) Matches(merchant string) bool {
	return strings.Contains(strings.ToUpper(merchant), strings.ToUpper(r.Pattern))
}
