package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanMarkdownWrapper(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{name: "plain content untouched", content: `["a","b"]`, want: `["a","b"]`},
		{name: "json fence", content: "```json\n[\"a\",\"b\"]\n```", want: `["a","b"]`},
		{name: "bare fence", content: "```\n[\"a\"]\n```", want: `["a"]`},
		{name: "surrounding whitespace", content: "  hello  ", want: "hello"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanMarkdownWrapper(tt.content))
		})
	}
}

func TestParseCategoryList(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
		count   int
		wantErr bool
	}{
		{
			name:    "json array",
			content: `["Groceries", "Dining", "Gas"]`,
			count:   3,
			want:    []string{"Groceries", "Dining", "Gas"},
		},
		{
			name:    "fenced json array",
			content: "```json\n[\"Groceries\", \"Dining\"]\n```",
			count:   2,
			want:    []string{"Groceries", "Dining"},
		},
		{
			name:    "numbered lines with dots",
			content: "1. Groceries\n2. Dining\n3. Gas",
			count:   3,
			want:    []string{"Groceries", "Dining", "Gas"},
		},
		{
			name:    "numbered lines with parens and blanks",
			content: "1) Groceries\n\n2) Dining\n",
			count:   2,
			want:    []string{"Groceries", "Dining"},
		},
		{
			name:    "bare lines",
			content: "Groceries\nDining",
			count:   2,
			want:    []string{"Groceries", "Dining"},
		},
		{
			name:    "json count mismatch",
			content: `["Groceries"]`,
			count:   2,
			wantErr: true,
		},
		{
			name:    "line count mismatch",
			content: "1. Groceries\n2. Dining\n3. Gas",
			count:   2,
			wantErr: true,
		},
		{
			name:    "empty reply",
			content: "",
			count:   1,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseCategoryList(tt.content, tt.count)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassifyBatchPrompt(t *testing.T) {
	prompt := classifyBatchPrompt(
		[]string{"STARBUCKS", "SHELL OIL"},
		[]string{"Coffee", "Gas"},
	)
	assert.Contains(t, prompt, "1. STARBUCKS")
	assert.Contains(t, prompt, "2. SHELL OIL")
	assert.Contains(t, prompt, "Coffee, Gas")
	assert.Contains(t, prompt, "JSON array")
}
