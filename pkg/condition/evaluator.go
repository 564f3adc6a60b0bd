package condition

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/d5/tengo/v2"
)

// Evaluate walks a condition tree against a read-only context of document
// fields and ambient values. It is a pure function: identical inputs yield
// identical output and nothing is mutated or persisted.
//
// Leaf failures (type mismatch, unresolved field reference, script error) fail
// closed: the leaf counts as false and the failure is reported through the
// returned error. The boolean result is always valid.
func Evaluate(cond Condition, ctx map[string]interface{}) (bool, error) {
	if cond == nil {
		return true, nil
	}

	switch c := cond.(type) {
	case Leaf:
		return evaluateLeaf(c, ctx)
	case Group:
		return evaluateGroup(c, ctx)
	default:
		return false, fmt.Errorf("condition: unknown node %T", cond)
	}
}

func evaluateGroup(g Group, ctx map[string]interface{}) (bool, error) {
	if len(g.Items) == 0 {
		return true, nil
	}

	acc, err := Evaluate(g.Items[0], ctx)
	var errs []error
	if err != nil {
		errs = append(errs, err)
	}

	// Left-to-right fold with short-circuiting: a skipped operand is never
	// evaluated, so its side conditions (script leaves) never run.
	for i, conn := range g.Connectives {
		switch conn {
		case ConnectiveAnd:
			if !acc {
				continue
			}
		case ConnectiveOr:
			if acc {
				continue
			}
		}

		v, err := Evaluate(g.Items[i+1], ctx)
		if err != nil {
			errs = append(errs, err)
		}
		if conn == ConnectiveAnd {
			acc = acc && v
		} else {
			acc = acc || v
		}
	}

	return acc, errors.Join(errs...)
}

func evaluateLeaf(leaf Leaf, ctx map[string]interface{}) (bool, error) {
	left, err := resolveOperand(leaf.Left, ctx)
	if err != nil {
		return false, err
	}

	math := strings.ToLower(strings.TrimSpace(leaf.Math))

	// Emptiness checks only inspect the left operand.
	switch math {
	case "empty", "is empty":
		return isEmpty(left), nil
	case "not empty", "is not empty":
		return !isEmpty(left), nil
	}

	if math == "script" {
		return evaluateScript(leaf, left, ctx)
	}

	right, err := resolveOperand(leaf.Right, ctx)
	if err != nil {
		return false, err
	}

	switch leaf.Type {
	case TypeNumber:
		return compareNumbers(left, right, math)
	case TypeBoolean:
		return compareBooleans(left, right, math)
	default:
		return compareStrings(left, right, math)
	}
}

// resolveOperand turns "$field.path" references into context values. "$now"
// is the ambient clock. Unresolved references are an error, never nil.
func resolveOperand(v interface{}, ctx map[string]interface{}) (interface{}, error) {
	s, ok := v.(string)
	if !ok || !strings.HasPrefix(s, "$") {
		return v, nil
	}

	key := strings.TrimPrefix(s, "$")
	if key == "now" {
		return time.Now(), nil
	}

	if resolved, ok := ctx[key]; ok {
		return resolved, nil
	}
	return nil, fmt.Errorf("condition: field reference %q not found in context", key)
}

func compareStrings(left, right interface{}, math string) (bool, error) {
	l := fmt.Sprintf("%v", left)
	r := fmt.Sprintf("%v", right)

	switch math {
	case "is", "=", "==", "eq":
		return l == r, nil
	case "is not", "!=", "ne":
		return l != r, nil
	case "contains":
		return strings.Contains(l, r), nil
	default:
		return false, fmt.Errorf("condition: operator %q not valid for string", math)
	}
}

func compareNumbers(left, right interface{}, math string) (bool, error) {
	l, ok := toNumber(left)
	if !ok {
		return false, fmt.Errorf("condition: left operand %v is not a number", left)
	}
	r, ok := toNumber(right)
	if !ok {
		return false, fmt.Errorf("condition: right operand %v is not a number", right)
	}

	switch math {
	case "is", "=", "==", "eq":
		return l == r, nil
	case "is not", "!=", "ne":
		return l != r, nil
	case "<", "lt":
		return l < r, nil
	case "<=", "lte":
		return l <= r, nil
	case ">", "gt":
		return l > r, nil
	case ">=", "gte":
		return l >= r, nil
	default:
		return false, fmt.Errorf("condition: operator %q not valid for number", math)
	}
}

func compareBooleans(left, right interface{}, math string) (bool, error) {
	l, ok := toBool(left)
	if !ok {
		return false, fmt.Errorf("condition: left operand %v is not a boolean", left)
	}
	r, ok := toBool(right)
	if !ok {
		return false, fmt.Errorf("condition: right operand %v is not a boolean", right)
	}

	switch math {
	case "is", "=", "==", "eq":
		return l == r, nil
	case "is not", "!=", "ne":
		return l != r, nil
	default:
		return false, fmt.Errorf("condition: operator %q not valid for boolean", math)
	}
}

// evaluateScript runs a tengo expression stored in the right operand. The
// script sees the resolved left value as `left` and the full context as `doc`,
// and must assign its verdict to `ok`.
func evaluateScript(leaf Leaf, left interface{}, ctx map[string]interface{}) (bool, error) {
	src, ok := leaf.Right.(string)
	if !ok || src == "" {
		return false, errors.New("condition: script operator requires source in right operand")
	}

	script := tengo.NewScript([]byte(src))
	if err := script.Add("left", left); err != nil {
		return false, fmt.Errorf("condition: script bind left: %w", err)
	}
	doc := make(map[string]interface{}, len(ctx))
	for k, v := range ctx {
		doc[k] = v
	}
	if err := script.Add("doc", doc); err != nil {
		return false, fmt.Errorf("condition: script bind doc: %w", err)
	}

	compiled, err := script.Compile()
	if err != nil {
		return false, fmt.Errorf("condition: script compile: %w", err)
	}
	if err := compiled.Run(); err != nil {
		return false, fmt.Errorf("condition: script run: %w", err)
	}

	verdict := compiled.Get("ok")
	if verdict == nil || verdict.IsUndefined() {
		return false, errors.New("condition: script did not set ok")
	}
	return verdict.Bool(), nil
}

func toNumber(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func toBool(v interface{}) (bool, bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	case string:
		parsed, err := strconv.ParseBool(b)
		return parsed, err == nil
	default:
		return false, false
	}
}

func isEmpty(v interface{}) bool {
	if v == nil {
		return true
	}
	switch s := v.(type) {
	case string:
		return s == ""
	case []interface{}:
		return len(s) == 0
	case map[string]interface{}:
		return len(s) == 0
	}
	return false
}
