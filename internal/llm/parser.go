package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// cleanMarkdownWrapper strips markdown code fences that models sometimes
// wrap around JSON payloads despite instructions not to.
func cleanMarkdownWrapper(content string) string {
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "```") {
		if idx := strings.Index(content, "\n"); idx >= 0 {
			content = content[idx+1:]
		}
		content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	}

	return strings.TrimSpace(content)
}

// parseCategoryList parses a batch classification reply into exactly want
// category names, in input order. It accepts a JSON array of strings or a
// numbered line-per-item list.
func parseCategoryList(content string, want int) ([]string, error) {
	content = cleanMarkdownWrapper(content)

	var fromJSON []string
	if err := json.Unmarshal([]byte(content), &fromJSON); err == nil {
		if len(fromJSON) != want {
			return nil, fmt.Errorf("expected %d categories, got %d", want, len(fromJSON))
		}
		return fromJSON, nil
	}

	// Fall back to numbered lines: "1. Groceries"
	var fromLines []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if idx := strings.IndexAny(line, ".)"); idx > 0 && isDigits(line[:idx]) {
			line = strings.TrimSpace(line[idx+1:])
		}
		fromLines = append(fromLines, line)
	}

	if len(fromLines) != want {
		return nil, fmt.Errorf("expected %d categories, got %d", want, len(fromLines))
	}
	return fromLines, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// classifyPrompt builds the single-merchant classification prompt.
func classifyPrompt(merchant string, categories []string) string {
	return fmt.Sprintf(
		"Classify this merchant into exactly one of the following categories:\n%s\n\nMerchant: %s\n\nRespond with the bare category name only.",
		strings.Join(categories, ", "), merchant)
}

// classifyBatchPrompt builds the batch classification prompt.
func classifyBatchPrompt(merchants []string, categories []string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Classify each merchant into exactly one of the following categories:\n%s\n\nMerchants:\n", strings.Join(categories, ", "))
	for i, m := range merchants {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, m)
	}
	sb.WriteString("\nRespond with ONLY a JSON array of category names, one per merchant, in the same order as the input. No other text.")
	return sb.String()
}
