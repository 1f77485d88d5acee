// ABOUTME: Tokenizer for the prompt condition grammar
// ABOUTME: Produces identifier, operator, connector, and paren tokens
package condition

import "fmt"

type tokenKind int

const (
	tokenIdent tokenKind = iota
	tokenOp              // == != > < >= <=
	tokenAnd
	tokenOr
	tokenLParen
	tokenRParen
	tokenEOF
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

// SyntaxError reports a malformed condition expression. It indicates a
// corrupted or incompatible survey definition and is never recovered
// locally.
type SyntaxError struct {
	Expr string
	Pos  int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("condition syntax error at offset %d in %q: %s", e.Pos, e.Expr, e.Msg)
}

func isWordChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_'
}

// spaced reports whether the token spanning [start, end) is separated
// from its neighbors by whitespace. Operators and connectors appear in
// definitions as " == " and " and "; unspaced forms are undefined and
// rejected.
func spaced(expr string, start, end int) bool {
	if start > 0 && expr[start-1] != ' ' && expr[start-1] != '\t' {
		return false
	}
	if end < len(expr) && expr[end] != ' ' && expr[end] != '\t' {
		return false
	}
	return true
}

// scan tokenizes the expression. Identifiers and values share the same
// word shape; "and" and "or" are reserved connectors.
func scan(expr string) ([]token, error) {
	var tokens []token
	i := 0
	for i < len(expr) {
		c := expr[i]
		switch {
		case c == ' ' || c == '\t':
			i++
		case c == '(':
			tokens = append(tokens, token{tokenLParen, "(", i})
			i++
		case c == ')':
			tokens = append(tokens, token{tokenRParen, ")", i})
			i++
		case c == '=' || c == '!':
			if i+1 >= len(expr) || expr[i+1] != '=' {
				return nil, &SyntaxError{expr, i, fmt.Sprintf("unexpected %q", string(c))}
			}
			if !spaced(expr, i, i+2) {
				return nil, &SyntaxError{expr, i, fmt.Sprintf("operator %q must be surrounded by spaces", expr[i:i+2])}
			}
			tokens = append(tokens, token{tokenOp, expr[i : i+2], i})
			i += 2
		case c == '>' || c == '<':
			end := i + 1
			if end < len(expr) && expr[end] == '=' {
				end++
			}
			if !spaced(expr, i, end) {
				return nil, &SyntaxError{expr, i, fmt.Sprintf("operator %q must be surrounded by spaces", expr[i:end])}
			}
			tokens = append(tokens, token{tokenOp, expr[i:end], i})
			i = end
		case isWordChar(c):
			start := i
			for i < len(expr) && isWordChar(expr[i]) {
				i++
			}
			word := expr[start:i]
			switch word {
			case "and", "or":
				if !spaced(expr, start, i) {
					return nil, &SyntaxError{expr, start, fmt.Sprintf("connector %q must be surrounded by spaces", word)}
				}
				kind := tokenAnd
				if word == "or" {
					kind = tokenOr
				}
				tokens = append(tokens, token{kind, word, start})
			default:
				tokens = append(tokens, token{tokenIdent, word, start})
			}
		default:
			return nil, &SyntaxError{expr, i, fmt.Sprintf("unexpected character %q", string(c))}
		}
	}
	tokens = append(tokens, token{tokenEOF, "", len(expr)})
	return tokens, nil
}
