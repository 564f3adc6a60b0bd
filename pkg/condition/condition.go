package condition

import (
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Connective joins two operands inside a group. Evaluation is strictly
// left-to-right; nesting is the only grouping mechanism.
type Connective string

const (
	ConnectiveAnd Connective = "AND"
	ConnectiveOr  Connective = "OR"
)

// LeafType fixes the comparison semantics of a leaf predicate.
type LeafType string

const (
	TypeString  LeafType = "string"
	TypeNumber  LeafType = "number"
	TypeBoolean LeafType = "boolean"
)

// Condition is either a Leaf predicate or a Group of conditions joined by
// connectives. Trees are parsed once at workflow-load time and treated as
// pure values afterwards.
type Condition interface {
	isCondition()
}

// Leaf is a single predicate {left, math, right, type}. Left and Right may be
// literals or field references (strings prefixed with "$").
type Leaf struct {
	Left  interface{}
	Math  string
	Right interface{}
	Type  LeafType
}

func (Leaf) isCondition() {}

// Group is an ordered sequence of conditions with len(Items)-1 connectives
// between them. An empty group evaluates to true.
type Group struct {
	Items       []Condition
	Connectives []Connective
}

func (Group) isCondition() {}

// Parse converts the stored form of a condition tree (maps and slices as
// decoded from BSON or JSON) into the typed representation. A nil input is the
// unconditional (empty) tree.
func Parse(raw interface{}) (Condition, error) {
	if raw == nil {
		return Group{}, nil
	}

	switch v := raw.(type) {
	case map[string]interface{}:
		return parseLeaf(v)
	case primitive.M:
		return parseLeaf(map[string]interface{}(v))
	case primitive.D:
		m := make(map[string]interface{}, len(v))
		for _, e := range v {
			m[e.Key] = e.Value
		}
		return parseLeaf(m)
	case []interface{}:
		return parseGroup(v)
	case primitive.A:
		return parseGroup([]interface{}(v))
	default:
		return nil, fmt.Errorf("condition: unsupported node %T", raw)
	}
}

func parseLeaf(m map[string]interface{}) (Condition, error) {
	if len(m) == 0 {
		return Group{}, nil
	}

	leaf := Leaf{
		Left:  m["left"],
		Right: m["right"],
	}

	math, ok := m["math"].(string)
	if !ok || math == "" {
		return nil, fmt.Errorf("condition: leaf missing math operator")
	}
	leaf.Math = math

	typ, _ := m["type"].(string)
	switch LeafType(strings.ToLower(typ)) {
	case TypeString, "":
		leaf.Type = TypeString
	case TypeNumber:
		leaf.Type = TypeNumber
	case TypeBoolean:
		leaf.Type = TypeBoolean
	default:
		return nil, fmt.Errorf("condition: unknown leaf type %q", typ)
	}

	return leaf, nil
}

func parseGroup(items []interface{}) (Condition, error) {
	group := Group{}
	wantOperand := true

	for i, item := range items {
		if s, ok := item.(string); ok {
			if wantOperand {
				return nil, fmt.Errorf("condition: connective %q at position %d, expected operand", s, i)
			}
			switch Connective(strings.ToUpper(s)) {
			case ConnectiveAnd:
				group.Connectives = append(group.Connectives, ConnectiveAnd)
			case ConnectiveOr:
				group.Connectives = append(group.Connectives, ConnectiveOr)
			default:
				return nil, fmt.Errorf("condition: unknown connective %q", s)
			}
			wantOperand = true
			continue
		}

		if !wantOperand {
			return nil, fmt.Errorf("condition: missing connective before position %d", i)
		}
		child, err := Parse(item)
		if err != nil {
			return nil, err
		}
		group.Items = append(group.Items, child)
		wantOperand = false
	}

	if len(group.Items) > 0 && len(group.Connectives) != len(group.Items)-1 {
		return nil, fmt.Errorf("condition: group ends with a dangling connective")
	}

	return group, nil
}
