package store

import (
	"github.com/pkg/errors"
)

// ErrUnsupportedPredicate is returned when a predicate cannot be safely
// translated into the driver's filter language. Drivers must fail with this
// error rather than render an always-true clause.
var ErrUnsupportedPredicate = errors.New("predicate cannot be translated")

// PredicateOperator is a comparison operator in a predicate leaf.
type PredicateOperator string

const (
	OpEquals         PredicateOperator = "="
	OpNotEquals      PredicateOperator = "!="
	OpGreaterThan    PredicateOperator = ">"
	OpGreaterOrEqual PredicateOperator = ">="
	OpLessThan       PredicateOperator = "<"
	OpLessOrEqual    PredicateOperator = "<="
)

// Conjunction combines two predicate subtrees.
type Conjunction string

const (
	ConjunctionAnd Conjunction = "AND"
	ConjunctionOr  Conjunction = "OR"
)

// Predicate is a filter expression over metadata fields.
// A predicate is either a leaf (Field, Operator, Value set) or a compound
// (Conjunction, Left, Right set); drivers translate both shapes
// structurally. Leaves with a numeric Value compare numerically, everything
// else compares as text.
type Predicate struct {
	Value       any
	Left        *Predicate
	Right       *Predicate
	Field       string
	Operator    PredicateOperator
	Conjunction Conjunction
}

// NewPredicate creates a leaf predicate.
func NewPredicate(field string, op PredicateOperator, value any) *Predicate {
	return &Predicate{Field: field, Operator: op, Value: value}
}

// And combines two predicates conjunctively.
func (p *Predicate) And(other *Predicate) *Predicate {
	return &Predicate{Conjunction: ConjunctionAnd, Left: p, Right: other}
}

// Or combines two predicates disjunctively.
func (p *Predicate) Or(other *Predicate) *Predicate {
	return &Predicate{Conjunction: ConjunctionOr, Left: p, Right: other}
}

// IsCompound returns true for And/Or nodes.
func (p *Predicate) IsCompound() bool {
	return p.Conjunction != ""
}

// IsNumeric reports whether a leaf value should compare numerically.
func IsNumericValue(value any) bool {
	switch value.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return true
	default:
		return false
	}
}

// Validate walks the tree and rejects shapes no driver can translate:
// unknown operators, unknown conjunctions, missing children, and leaf
// values that are neither numeric nor string-like.
func (p *Predicate) Validate() error {
	if p == nil {
		return nil
	}

	if p.IsCompound() {
		if p.Conjunction != ConjunctionAnd && p.Conjunction != ConjunctionOr {
			return errors.Wrapf(ErrUnsupportedPredicate, "unknown conjunction %q", p.Conjunction)
		}
		if p.Left == nil || p.Right == nil {
			return errors.Wrap(ErrUnsupportedPredicate, "compound predicate missing operand")
		}
		if err := p.Left.Validate(); err != nil {
			return err
		}
		return p.Right.Validate()
	}

	if p.Field == "" {
		return errors.Wrap(ErrUnsupportedPredicate, "leaf predicate missing field")
	}
	switch p.Operator {
	case OpEquals, OpNotEquals, OpGreaterThan, OpGreaterOrEqual, OpLessThan, OpLessOrEqual:
	default:
		return errors.Wrapf(ErrUnsupportedPredicate, "unknown operator %q", p.Operator)
	}
	switch p.Value.(type) {
	case string, bool:
		return nil
	default:
		if IsNumericValue(p.Value) {
			return nil
		}
		return errors.Wrapf(ErrUnsupportedPredicate, "unsupported value type %T", p.Value)
	}
}
