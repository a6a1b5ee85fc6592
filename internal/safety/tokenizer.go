package safety

import (
	"fmt"
	"unicode"
)

type tokenKind int

const (
	tokenWord tokenKind = iota
	tokenString
	tokenNumber
	tokenPunct
)

// token is one lexical element of a candidate statement, annotated with its
// byte offset and parenthesis depth so the rewriter can reason about clause
// regions without a full SQL AST.
type token struct {
	text  string
	pos   int
	depth int
	kind  tokenKind
}

// tokenize splits a statement into tokens, treating single-quoted strings
// and double-quoted identifiers as opaque units. It fails on unterminated
// quotes rather than guessing.
func tokenize(query string) ([]token, error) {
	var tokens []token
	depth := 0
	i := 0
	n := len(query)

	for i < n {
		c := query[i]

		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++

		case c == '(':
			tokens = append(tokens, token{text: "(", pos: i, depth: depth, kind: tokenPunct})
			depth++
			i++

		case c == ')':
			depth--
			if depth < 0 {
				return nil, fmt.Errorf("unbalanced parentheses")
			}
			tokens = append(tokens, token{text: ")", pos: i, depth: depth, kind: tokenPunct})
			i++

		case c == '\'' || c == '"':
			start := i
			quote := c
			i++
			for i < n {
				if query[i] == quote {
					// Doubled quote is an escaped quote inside the literal
					if i+1 < n && query[i+1] == quote {
						i += 2
						continue
					}
					break
				}
				i++
			}
			if i >= n {
				return nil, fmt.Errorf("unterminated quote")
			}
			i++
			tokens = append(tokens, token{text: query[start:i], pos: start, depth: depth, kind: tokenString})

		case isWordStart(c):
			start := i
			for i < n && isWordPart(query[i]) {
				i++
			}
			tokens = append(tokens, token{text: query[start:i], pos: start, depth: depth, kind: tokenWord})

		case c >= '0' && c <= '9':
			start := i
			for i < n && (query[i] >= '0' && query[i] <= '9' || query[i] == '.') {
				i++
			}
			tokens = append(tokens, token{text: query[start:i], pos: start, depth: depth, kind: tokenNumber})

		default:
			tokens = append(tokens, token{text: string(c), pos: i, depth: depth, kind: tokenPunct})
			i++
		}
	}

	if depth != 0 {
		return nil, fmt.Errorf("unbalanced parentheses")
	}

	return tokens, nil
}

func isWordStart(c byte) bool {
	return c == '_' || unicode.IsLetter(rune(c))
}

func isWordPart(c byte) bool {
	return c == '_' || c == '$' || unicode.IsLetter(rune(c)) || unicode.IsDigit(rune(c))
}
