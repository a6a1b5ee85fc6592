package patterns

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTableMatch(t *testing.T) {
	table := New([]Entry{
		{Category: "Coffee", Substrings: []string{"STARBUCKS", "COFFEE"}},
		{Category: "Dining", Substrings: []string{"GRILL", "COFFEE SHOP"}},
	})

	tests := []struct {
		name         string
		merchant     string
		wantCategory string
		wantOK       bool
	}{
		{name: "direct hit", merchant: "STARBUCKS", wantCategory: "Coffee", wantOK: true},
		{name: "substring hit", merchant: "JOE'S GRILL HOUSE", wantCategory: "Dining", wantOK: true},
		{name: "earlier entry wins on overlap", merchant: "RIVERSIDE COFFEE SHOP", wantCategory: "Coffee", wantOK: true},
		{name: "no match", merchant: "UNKNOWN VENDOR", wantOK: false},
		{name: "empty merchant", merchant: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			category, ok := table.Match(tt.merchant)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantCategory, category)
			}
		})
	}
}

func TestTableMatchDeterministic(t *testing.T) {
	table := Default()

	first, ok := table.Match("STARBUCKS")
	assert.True(t, ok)

	// Same input, same answer, every time: enumeration order is fixed.
	for i := 0; i < 50; i++ {
		category, ok := table.Match("STARBUCKS")
		assert.True(t, ok)
		assert.Equal(t, first, category)
	}
}

func TestDefaultTableCategoriesAreValid(t *testing.T) {
	table := Default()
	assert.Greater(t, table.Size(), 100, "default table should carry a substantial pattern set")

	for _, category := range table.Categories() {
		assert.NotEmpty(t, category)
	}
}
