// ABOUTME: Evaluates parsed condition expressions against a response map
// ABOUTME: Loose equality and numeric-coercion ordering over captured values
package condition

import (
	"fmt"
	"strconv"
	"strings"
)

// Evaluate parses expr and evaluates it against bindings, the map of
// prompt id to captured value. A malformed expression returns a
// *SyntaxError which callers must propagate, not swallow.
func Evaluate(expr string, bindings map[string]any) (bool, error) {
	n, err := parse(expr)
	if err != nil {
		return false, err
	}
	return eval(n, bindings), nil
}

func eval(n node, bindings map[string]any) bool {
	switch n := n.(type) {
	case *comparison:
		bound, ok := bindings[n.ident]
		return compare(bound, ok, n.op, n.value)
	case *conjunction:
		left := eval(n.left, bindings)
		right := eval(n.right, bindings)
		if n.op == "and" {
			return left && right
		}
		return left || right
	}
	return false
}

// compare applies one comparison. Equality is loose: both sides compare
// numerically when both coerce to numbers, as strings otherwise. An
// unbound identifier never equals any literal. Ordering operators require
// both sides to be numeric, so sentinel values and unbound identifiers
// only ever participate in equality.
func compare(bound any, ok bool, op, literal string) bool {
	switch op {
	case "==":
		return ok && looseEqual(bound, literal)
	case "!=":
		return !ok || !looseEqual(bound, literal)
	}

	ln, lok := toNumber(bound)
	rn, rerr := strconv.ParseFloat(literal, 64)
	if !ok || !lok || rerr != nil {
		return false
	}
	switch op {
	case ">":
		return ln > rn
	case "<":
		return ln < rn
	case ">=":
		return ln >= rn
	case "<=":
		return ln <= rn
	}
	return false
}

func looseEqual(bound any, literal string) bool {
	if ln, ok := toNumber(bound); ok {
		if rn, err := strconv.ParseFloat(literal, 64); err == nil {
			return ln == rn
		}
	}
	return stringify(bound) == literal
}

// toNumber coerces a captured value to a float where possible.
func toNumber(v any) (float64, bool) {
	switch v := v.(type) {
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case string:
		n, err := strconv.ParseFloat(v, 64)
		return n, err == nil
	}
	return 0, false
}

// stringify renders a captured value for loose string comparison. A
// multi-choice list renders as its comma-joined elements.
func stringify(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case []string:
		return strings.Join(v, ",")
	case []any:
		parts := make([]string, len(v))
		for i, e := range v {
			parts[i] = stringify(e)
		}
		return strings.Join(parts, ",")
	}
	return fmt.Sprint(v)
}
