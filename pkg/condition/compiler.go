package condition

import (
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FilterRule is a single field predicate compiled into a Mongo filter. Zone
// property lists use these to scope employee membership queries.
type FilterRule struct {
	Field    string      `json:"field" bson:"field"`
	Operator string      `json:"operator" bson:"operator"` // eq, ne, gt, lt, gte, lte, in, nin, contains
	Value    interface{} `json:"value" bson:"value"`
}

// FilterGroup nests rules and sub-groups under one AND/OR operator.
type FilterGroup struct {
	Operator string        `json:"operator" bson:"operator"` // "AND" | "OR"
	Rules    []FilterRule  `json:"rules" bson:"rules"`
	Groups   []FilterGroup `json:"groups" bson:"groups"`
}

// Compiler turns a FilterGroup into a bson.M query, resolving "$"-prefixed
// variables from its context.
type Compiler struct {
	Context map[string]interface{}
}

func NewCompiler(ctx map[string]interface{}) *Compiler {
	return &Compiler{Context: ctx}
}

func (c *Compiler) Compile(group *FilterGroup) (bson.M, error) {
	if group == nil {
		return bson.M{}, nil
	}

	var conditions []bson.M

	for _, rule := range group.Rules {
		cond, err := c.compileRule(rule)
		if err != nil {
			return nil, err
		}
		conditions = append(conditions, cond)
	}

	for _, subGroup := range group.Groups {
		cond, err := c.Compile(&subGroup)
		if err != nil {
			return nil, err
		}
		if len(cond) > 0 {
			conditions = append(conditions, cond)
		}
	}

	if len(conditions) == 0 {
		return bson.M{}, nil
	}

	op := "$and"
	if strings.ToUpper(group.Operator) == "OR" {
		op = "$or"
	}

	return bson.M{op: conditions}, nil
}

func (c *Compiler) compileRule(rule FilterRule) (bson.M, error) {
	val, err := c.resolveValue(rule.Value)
	if err != nil {
		return nil, err
	}

	field := rule.Field

	switch rule.Operator {
	case "eq":
		return bson.M{field: bson.M{"$eq": val}}, nil
	case "ne":
		return bson.M{field: bson.M{"$ne": val}}, nil
	case "gt":
		return bson.M{field: bson.M{"$gt": val}}, nil
	case "lt":
		return bson.M{field: bson.M{"$lt": val}}, nil
	case "gte":
		return bson.M{field: bson.M{"$gte": val}}, nil
	case "lte":
		return bson.M{field: bson.M{"$lte": val}}, nil
	case "in":
		return bson.M{field: bson.M{"$in": val}}, nil
	case "nin":
		return bson.M{field: bson.M{"$nin": val}}, nil
	case "contains":
		if strVal, ok := val.(string); ok {
			return bson.M{field: bson.M{"$regex": primitive.Regex{Pattern: strVal, Options: "i"}}}, nil
		}
		return nil, fmt.Errorf("contains operator requires string value")
	default:
		return nil, fmt.Errorf("unknown operator: %s", rule.Operator)
	}
}

func (c *Compiler) resolveValue(val interface{}) (interface{}, error) {
	strVal, ok := val.(string)
	if !ok || !strings.HasPrefix(strVal, "$") {
		return val, nil
	}

	key := strings.TrimPrefix(strVal, "$")
	if key == "now" {
		return time.Now(), nil
	}

	if resolved, ok := c.Context[key]; ok {
		return resolved, nil
	}
	return nil, fmt.Errorf("variable not found in context: %s", key)
}
