// Package patterns provides the built-in substring-to-category table
// consulted when no user rule matches.
package patterns

import "strings"

// Entry holds the known substrings for one category.
type Entry struct {
	Category   string
	Substrings []string
}

// Table is an immutable ordered mapping from category to known substrings.
// Matching scans entries in table order and substrings in declaration order;
// the first hit wins. The table is injected rather than consulted as a
// package global so tests can swap it.
type Table struct {
	entries []Entry
}

// New builds a table from entries. The entry order is the enumeration order
// used for matching.
func New(entries []Entry) Table {
	copied := make([]Entry, len(entries))
	copy(copied, entries)
	return Table{entries: copied}
}

// Match returns the first category whose substrings contain a match for the
// normalized merchant, scanning in fixed enumeration order.
func (t Table) Match(merchant string) (string, bool) {
	upper := strings.ToUpper(merchant)
	for _, entry := range t.entries {
		for _, sub := range entry.Substrings {
			if strings.Contains(upper, sub) {
				return entry.Category, true
			}
		}
	}
	return "", false
}

// Size returns the total number of substring patterns in the table.
func (t Table) Size() int {
	n := 0
	for _, entry := range t.entries {
		n += len(entry.Substrings)
	}
	return n
}

// Categories returns the categories in enumeration order.
func (t Table) Categories() []string {
	out := make([]string, len(t.entries))
	for i, entry := range t.entries {
		out[i] = entry.Category
	}
	return out
}
