package fact

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bingo-rules/bingo/internal/bingoerr"
	"github.com/bingo-rules/bingo/internal/value"
)

// Operator is an atomic test operator for a Simple condition.
type Operator string

const (
	OpEqual              Operator = "equal"
	OpNotEqual           Operator = "not_equal"
	OpLessThan           Operator = "less_than"
	OpLessThanOrEqual    Operator = "less_than_or_equal"
	OpGreaterThan        Operator = "greater_than"
	OpGreaterThanOrEqual Operator = "greater_than_or_equal"
	OpContains           Operator = "contains"
	OpStartsWith         Operator = "starts_with"
	OpEndsWith           Operator = "ends_with"
)

func (o Operator) Valid() bool {
	switch o {
	case OpEqual, OpNotEqual, OpLessThan, OpLessThanOrEqual,
		OpGreaterThan, OpGreaterThanOrEqual, OpContains, OpStartsWith, OpEndsWith:
		return true
	default:
		return false
	}
}

// LogicalOperator combines children of a Complex condition.
type LogicalOperator string

const (
	LogicalAnd LogicalOperator = "and"
	LogicalOr  LogicalOperator = "or"
	LogicalNot LogicalOperator = "not"
)

// ConditionKind discriminates the Condition variant.
type ConditionKind string

const (
	ConditionSimple  ConditionKind = "simple"
	ConditionComplex ConditionKind = "complex"
)

// Condition is the sum type spec.md §3 describes: a Simple atomic test
// or a Complex combinator over child conditions.
type Condition struct {
	Kind ConditionKind

	// Simple fields.
	Field    string
	Operator Operator
	Value    value.Value

	// Complex fields.
	LogicalOp LogicalOperator
	Children  []Condition
}

// Simple builds a leaf condition.
func Simple(field string, op Operator, v value.Value) Condition {
	return Condition{Kind: ConditionSimple, Field: field, Operator: op, Value: v}
}

// Complex builds an And/Or/Not combinator.
func Complex(op LogicalOperator, children ...Condition) Condition {
	return Condition{Kind: ConditionComplex, LogicalOp: op, Children: children}
}

// Validate checks structural well-formedness: known operators, a
// non-empty field name on Simple leaves, exactly one child for Not.
func (c Condition) Validate() error {
	switch c.Kind {
	case ConditionSimple:
		if c.Field == "" {
			return fmt.Errorf("%w: simple condition missing field", bingoerr.ErrValidation)
		}
		if !c.Operator.Valid() {
			return fmt.Errorf("%w: unknown operator %q", bingoerr.ErrValidation, c.Operator)
		}
		return nil
	case ConditionComplex:
		switch c.LogicalOp {
		case LogicalAnd, LogicalOr:
			if len(c.Children) == 0 {
				return fmt.Errorf("%w: %s condition has no children", bingoerr.ErrValidation, c.LogicalOp)
			}
		case LogicalNot:
			if len(c.Children) != 1 {
				return fmt.Errorf("%w: not condition must have exactly one child, got %d", bingoerr.ErrValidation, len(c.Children))
			}
		default:
			return fmt.Errorf("%w: unknown logical operator %q", bingoerr.ErrValidation, c.LogicalOp)
		}
		for _, child := range c.Children {
			if err := child.Validate(); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown condition kind %q", bingoerr.ErrValidation, c.Kind)
	}
}

// Leaves returns every Simple leaf condition reachable from c, in
// left-to-right order. Rule.LeafCount uses it to count a rule's leaves.
func (c Condition) Leaves() []Condition {
	if c.Kind == ConditionSimple {
		return []Condition{c}
	}
	var out []Condition
	for _, child := range c.Children {
		out = append(out, child.Leaves()...)
	}
	return out
}

// Test evaluates a Simple condition's operator against a field value.
// TypeMismatch-shaped errors are returned for operand combinations that
// have no defined semantics (e.g. Contains on a number).
func (c Condition) Test(field value.Value) (bool, error) {
	if c.Kind != ConditionSimple {
		return false, fmt.Errorf("fact: Test called on non-simple condition")
	}
	switch c.Operator {
	case OpEqual:
		return field.Equal(c.Value), nil
	case OpNotEqual:
		return !field.Equal(c.Value), nil
	case OpLessThan, OpLessThanOrEqual, OpGreaterThan, OpGreaterThanOrEqual:
		cmp, err := field.Compare(c.Value)
		if err != nil {
			return false, fmt.Errorf("%w: %s %s %s: %v", bingoerr.ErrTypeMismatch, field.Kind(), c.Operator, c.Value.Kind(), err)
		}
		switch c.Operator {
		case OpLessThan:
			return cmp < 0, nil
		case OpLessThanOrEqual:
			return cmp <= 0, nil
		case OpGreaterThan:
			return cmp > 0, nil
		default:
			return cmp >= 0, nil
		}
	case OpContains:
		return testContains(field, c.Value)
	case OpStartsWith, OpEndsWith:
		fs, ok1 := field.AsString()
		vs, ok2 := c.Value.AsString()
		if !ok1 || !ok2 {
			return false, fmt.Errorf("%w: %s on non-string operand", bingoerr.ErrTypeMismatch, c.Operator)
		}
		if c.Operator == OpStartsWith {
			return strings.HasPrefix(fs, vs), nil
		}
		return strings.HasSuffix(fs, vs), nil
	default:
		return false, fmt.Errorf("%w: unknown operator %q", bingoerr.ErrValidation, c.Operator)
	}
}

func testContains(field, needle value.Value) (bool, error) {
	switch field.Kind() {
	case value.KindString:
		fs, _ := field.AsString()
		ns, ok := needle.AsString()
		if !ok {
			return false, fmt.Errorf("%w: contains on string field requires string operand", bingoerr.ErrTypeMismatch)
		}
		return strings.Contains(fs, ns), nil
	case value.KindArray:
		items, _ := field.AsArray()
		for _, item := range items {
			if item.Equal(needle) {
				return true, nil
			}
		}
		return false, nil
	default:
		return false, fmt.Errorf("%w: contains on non-string, non-array field", bingoerr.ErrTypeMismatch)
	}
}

// CanonicalKey returns the dispatch-table key for an atomic test:
// (field, operator, value) per spec.md §4.2. The value part is
// Value.HashKey, so identical literals share one alpha node, while
// literals of different kinds get separate nodes even when Equal holds
// between them (Int 1 and Float 1.0 hash to different keys).
type CanonicalKey struct {
	Field    string
	Operator Operator
	ValueKey any
}

func (c Condition) CanonicalKey() CanonicalKey {
	return CanonicalKey{Field: c.Field, Operator: c.Operator, ValueKey: c.Value.HashKey()}
}

// --- JSON wire format ---

type wireCondition struct {
	Type      string            `json:"type"`
	Field     string            `json:"field,omitempty"`
	Operator  string            `json:"operator,omitempty"`
	Value     json.RawMessage   `json:"value,omitempty"`
	LogicalOp string            `json:"logical_operator,omitempty"`
	Children  []json.RawMessage `json:"children,omitempty"`
}

func (c Condition) MarshalJSON() ([]byte, error) {
	switch c.Kind {
	case ConditionSimple:
		vb, err := c.Value.MarshalJSON()
		if err != nil {
			return nil, err
		}
		return json.Marshal(wireCondition{
			Type:     string(ConditionSimple),
			Field:    c.Field,
			Operator: string(c.Operator),
			Value:    vb,
		})
	case ConditionComplex:
		children := make([]json.RawMessage, len(c.Children))
		for i, ch := range c.Children {
			b, err := ch.MarshalJSON()
			if err != nil {
				return nil, err
			}
			children[i] = b
		}
		return json.Marshal(wireCondition{
			Type:      string(ConditionComplex),
			LogicalOp: string(c.LogicalOp),
			Children:  children,
		})
	default:
		return nil, fmt.Errorf("fact: unknown condition kind %q", c.Kind)
	}
}

func (c *Condition) UnmarshalJSON(data []byte) error {
	var w wireCondition
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	switch ConditionKind(w.Type) {
	case ConditionSimple:
		var v value.Value
		if len(w.Value) > 0 {
			if err := v.UnmarshalJSON(w.Value); err != nil {
				return fmt.Errorf("fact: condition value: %w", err)
			}
		}
		*c = Simple(w.Field, Operator(w.Operator), v)
		return nil
	case ConditionComplex:
		children := make([]Condition, len(w.Children))
		for i, raw := range w.Children {
			if err := children[i].UnmarshalJSON(raw); err != nil {
				return err
			}
		}
		*c = Complex(LogicalOperator(w.LogicalOp), children...)
		return nil
	default:
		return fmt.Errorf("%w: unknown condition type %q", bingoerr.ErrValidation, w.Type)
	}
}
