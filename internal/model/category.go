package model

import "strings"

// CategoryOther is the catch-all category assigned when nothing else fits.
const CategoryOther = "Other"

// categories is the fixed category enumeration. Order matters: the pattern
// table and prompts enumerate categories in this order.
var categories = []string{
	"Groceries",
	"Dining",
	"Coffee",
	"Shopping",
	"Entertainment",
	"Transportation",
	"Travel",
	"Gas",
	"Utilities",
	"Housing",
	"Insurance",
	"Healthcare",
	"Fitness",
	"Personal Care",
	"Education",
	"Subscriptions",
	"Income",
	"Transfers",
	"Fees",
	"Pets",
	CategoryOther,
}

// Categories returns the fixed category enumeration, including Other.
func Categories() []string {
	out := make([]string, len(categories))
	copy(out, categories)
	return out
}

// ValidCategory reports whether name is a member of the fixed category set.
func ValidCategory(name string) bool {
	for _, c := range categories {
		if c == name {
			return true
		}
	}
	return false
}

// CanonicalCategory matches name against the fixed category set ignoring
// case and surrounding whitespace. Anything unrecognized coerces to Other.
func CanonicalCategory(name string) string {
	trimmed := strings.TrimSpace(name)
	for _, c := range categories {
		if strings.EqualFold(c, trimmed) {
			return c
		}
	}
	return CategoryOther
}
