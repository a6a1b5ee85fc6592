// Package safety validates and rewrites model-generated SQL so that every
// statement is a single read-only query scoped to one user's rows.
package safety

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/pennywise-app/pennywise/internal/common"
)

// RawExecutor is the raw-SQL execution path of the storage layer.
type RawExecutor interface {
	ExecuteRaw(ctx context.Context, query string, maxRows int) ([]map[string]any, error)
}

// Guard enforces the read-only, single-statement, single-user contract on
// candidate SQL before it reaches the store.
type Guard struct {
	executor    RawExecutor
	scopedTable string
	scopeColumn string
	maxRows     int
}

// NewGuard creates a guard over the given executor. Rows are capped at
// maxRows per query; zero means the default of 100.
func NewGuard(executor RawExecutor, maxRows int) *Guard {
	if maxRows <= 0 {
		maxRows = 100
	}
	return &Guard{
		executor:    executor,
		scopedTable: "transactions",
		scopeColumn: "user_id",
		maxRows:     maxRows,
	}
}

// forbidden are statement keywords that can never appear in a candidate
// query, as standalone word tokens outside string literals.
var forbidden = map[string]bool{
	"INSERT": true, "UPDATE": true, "DELETE": true, "DROP": true,
	"ALTER": true, "CREATE": true, "REPLACE": true, "TRUNCATE": true,
	"ATTACH": true, "DETACH": true, "PRAGMA": true, "VACUUM": true,
	"REINDEX": true, "GRANT": true, "REVOKE": true,
}

// clauseStarters terminate the FROM/WHERE region a scope predicate can be
// injected into.
var clauseStarters = map[string]bool{
	"GROUP": true, "ORDER": true, "HAVING": true, "LIMIT": true,
	"UNION": true, "EXCEPT": true, "INTERSECT": true, "WINDOW": true,
}

var scopeValueRe = regexp.MustCompile(`^[A-Za-z0-9_\-|:]+$`)

// Execute validates the candidate statement, injects the scope predicate,
// and runs it. Any violation fails with common.ErrUnsafeQuery before the
// statement reaches the store.
func (g *Guard) Execute(ctx context.Context, scope, candidate string) ([]map[string]any, error) {
	rewritten, err := g.Rewrite(scope, candidate)
	if err != nil {
		return nil, err
	}
	return g.executor.ExecuteRaw(ctx, rewritten, g.maxRows)
}

// Rewrite validates the candidate and returns the scope-injected statement.
// Statements the guard cannot scope soundly (CTEs, self-joins, multiple
// references to the scoped table) are rejected rather than partially scoped.
func (g *Guard) Rewrite(scope, candidate string) (string, error) {
	if !scopeValueRe.MatchString(scope) {
		return "", fmt.Errorf("%w: invalid scope value", common.ErrUnsafeQuery)
	}

	query := strings.TrimSpace(candidate)
	query = strings.TrimSuffix(query, ";")

	if strings.Contains(query, "--") || strings.Contains(query, "/*") {
		return "", fmt.Errorf("%w: comments are not allowed", common.ErrUnsafeQuery)
	}

	tokens, err := tokenize(query)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrUnsafeQuery, err)
	}
	if len(tokens) == 0 {
		return "", fmt.Errorf("%w: empty statement", common.ErrUnsafeQuery)
	}

	first := strings.ToUpper(tokens[0].text)
	if first != "SELECT" {
		return "", fmt.Errorf("%w: only SELECT statements are allowed", common.ErrUnsafeQuery)
	}

	for _, tok := range tokens {
		if tok.kind == tokenPunct && tok.text == ";" {
			return "", fmt.Errorf("%w: multiple statements are not allowed", common.ErrUnsafeQuery)
		}
		if tok.kind == tokenWord && forbidden[strings.ToUpper(tok.text)] {
			return "", fmt.Errorf("%w: statement contains forbidden keyword %s", common.ErrUnsafeQuery, strings.ToUpper(tok.text))
		}
	}

	refs, stray := g.tableRefs(tokens)
	if stray {
		return "", fmt.Errorf("%w: unrecognized reference to %s cannot be scoped", common.ErrUnsafeQuery, g.scopedTable)
	}
	switch len(refs) {
	case 0:
		return query, nil
	case 1:
		return g.injectScope(query, tokens, refs[0], scope)
	default:
		return "", fmt.Errorf("%w: multiple references to %s cannot be scoped", common.ErrUnsafeQuery, g.scopedTable)
	}
}

// tableRef describes one FROM/JOIN reference to the scoped table.
type tableRef struct {
	alias    string
	tokenIdx int
	depth    int
}

// tableRefs finds FROM/JOIN references to the scoped table, along with any
// alias. The table name may appear bare, double-quoted, or schema-qualified
// (main.transactions). Any other occurrence of the name is reported as stray
// so the caller can reject what it cannot scope.
func (g *Guard) tableRefs(tokens []token) (refs []tableRef, stray bool) {
	for i, tok := range tokens {
		if !g.namesScopedTable(tok) {
			continue
		}

		// Skip back over a schema qualifier to the token that introduces
		// this reference.
		anchor := i
		if i >= 2 && tokens[i-1].kind == tokenPunct && tokens[i-1].text == "." && tokens[i-2].kind == tokenWord {
			anchor = i - 2
		}
		if anchor == 0 {
			return nil, true
		}
		prev := strings.ToUpper(tokens[anchor-1].text)
		if prev != "FROM" && prev != "JOIN" {
			return nil, true
		}

		ref := tableRef{tokenIdx: i, depth: tok.depth}

		// Optional alias: "transactions t" or "transactions AS t"
		next := i + 1
		if next < len(tokens) && strings.EqualFold(tokens[next].text, "AS") {
			next++
		}
		if next < len(tokens) && tokens[next].kind == tokenWord && !isKeyword(tokens[next].text) {
			ref.alias = tokens[next].text
		}

		refs = append(refs, ref)
	}
	return refs, false
}

// namesScopedTable reports whether a token denotes the scoped table as an
// identifier: a bare word or a double-quoted identifier. Single-quoted
// strings are literals and never match.
func (g *Guard) namesScopedTable(tok token) bool {
	switch tok.kind {
	case tokenWord:
		return strings.EqualFold(tok.text, g.scopedTable)
	case tokenString:
		if len(tok.text) >= 2 && tok.text[0] == '"' {
			inner := strings.ReplaceAll(tok.text[1:len(tok.text)-1], `""`, `"`)
			return strings.EqualFold(inner, g.scopedTable)
		}
	}
	return false
}

// injectScope inserts the scope predicate into the clause region belonging
// to the table reference: AND-ed into an existing WHERE, or a new WHERE
// before the next trailing clause.
func (g *Guard) injectScope(query string, tokens []token, ref tableRef, scope string) (string, error) {
	column := g.scopeColumn
	if ref.alias != "" {
		column = ref.alias + "." + g.scopeColumn
	}
	predicate := fmt.Sprintf("%s = '%s'", column, escapeScope(scope))

	// Walk forward from the reference looking for this FROM's WHERE, or the
	// point where its clause region ends.
	for i := ref.tokenIdx + 1; i < len(tokens); i++ {
		tok := tokens[i]
		if tok.depth < ref.depth {
			// Clause region closed by a parenthesis: inject before it.
			return insertAt(query, tok.pos, " WHERE "+predicate+" "), nil
		}
		if tok.depth != ref.depth || tok.kind != tokenWord {
			continue
		}

		upper := strings.ToUpper(tok.text)
		if upper == "WHERE" {
			return insertAt(query, tok.pos+len(tok.text), " "+predicate+" AND"), nil
		}
		if clauseStarters[upper] {
			return insertAt(query, tok.pos, "WHERE "+predicate+" "), nil
		}
	}

	// No WHERE and no trailing clause: append.
	return query + " WHERE " + predicate, nil
}

func insertAt(s string, pos int, insert string) string {
	return s[:pos] + insert + s[pos:]
}

// escapeScope doubles single quotes; combined with the scope value pattern
// check this keeps the injected literal inert.
func escapeScope(scope string) string {
	return strings.ReplaceAll(scope, "'", "''")
}

var sqlKeywords = map[string]bool{
	"SELECT": true, "FROM": true, "WHERE": true, "GROUP": true, "BY": true,
	"ORDER": true, "HAVING": true, "LIMIT": true, "OFFSET": true,
	"JOIN": true, "INNER": true, "LEFT": true, "RIGHT": true, "OUTER": true,
	"CROSS": true, "ON": true, "AS": true, "AND": true, "OR": true,
	"NOT": true, "IN": true, "IS": true, "NULL": true, "LIKE": true,
	"BETWEEN": true, "UNION": true, "EXCEPT": true, "INTERSECT": true,
	"DISTINCT": true, "ALL": true, "CASE": true, "WHEN": true, "THEN": true,
	"ELSE": true, "END": true, "ASC": true, "DESC": true, "WITH": true,
}

func isKeyword(word string) bool {
	return sqlKeywords[strings.ToUpper(word)]
}
