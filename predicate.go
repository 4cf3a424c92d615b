package buzzdb

import (
	"fmt"

	"github.com/rs/zerolog"
)

// PredicateOp enumerates the comparison operators a Predicate can
// apply between its two operands.
type PredicateOp uint8

const (
	OpEQ PredicateOp = iota
	OpNE
	OpLT
	OpLE
	OpGT
	OpGE
)

func (op PredicateOp) String() string {
	switch op {
	case OpEQ:
		return "="
	case OpNE:
		return "!="
	case OpLT:
		return "<"
	case OpLE:
		return "<="
	case OpGT:
		return ">"
	case OpGE:
		return ">="
	default:
		return "?"
	}
}

// OperandKind distinguishes an operand that carries a literal constant
// value (DIRECT) from one that names a field position in the tuple
// under evaluation, resolved by dereferencing that tuple (INDIRECT).
type OperandKind uint8

const (
	OperandDirect OperandKind = iota
	OperandIndirect
)

// Operand is one side of a Predicate: either a literal Field value, or
// a column index into the tuple being evaluated.
type Operand struct {
	Kind    OperandKind
	Index   int
	Literal Field
}

// DirectOperand wraps a literal value.
func DirectOperand(v Field) Operand { return Operand{Kind: OperandDirect, Literal: v} }

// IndirectOperand references column index i of the tuple under
// evaluation.
func IndirectOperand(i int) Operand { return Operand{Kind: OperandIndirect, Index: i} }

func (o Operand) resolve(row []Field) (Field, error) {
	if o.Kind == OperandDirect {
		return o.Literal, nil
	}
	if o.Index < 0 || o.Index >= len(row) {
		return Field{}, fmt.Errorf("predicate: operand index %d out of range for row of %d fields", o.Index, len(row))
	}
	return row[o.Index], nil
}

// Predicate evaluates Left <op> Right against a row of fields.
type Predicate struct {
	Left   Operand
	Op     PredicateOp
	Right  Operand
	logger zerolog.Logger
}

// NewPredicate builds a predicate comparing left to right with op. A
// type mismatch between the resolved operands at evaluation time is
// logged through logger rather than treated as an aborting error (see
// spec error kind 3: recoverable, not fatal).
func NewPredicate(left Operand, op PredicateOp, right Operand, logger zerolog.Logger) Predicate {
	return Predicate{Left: left, Op: op, Right: right, logger: logger}
}

// Evaluate resolves both operands against row and applies Op. A type
// mismatch between the resolved operands (BuzzDB has no implicit
// cross-type coercion) is not an error: it is logged at Warn and the
// row is reported as non-matching, so a caller scanning many rows
// through a predicate keeps going rather than aborting the scan.
func (p Predicate) Evaluate(row []Field) (bool, error) {
	l, err := p.Left.resolve(row)
	if err != nil {
		return false, err
	}
	r, err := p.Right.resolve(row)
	if err != nil {
		return false, err
	}
	if l.Type != r.Type {
		p.logger.Warn().Str("left_type", l.Type.String()).Str("right_type", r.Type.String()).
			Msg("predicate: type mismatch, treating as non-match")
		return false, nil
	}
	switch l.Type {
	case FieldTypeInt:
		return compare(l.AsInt32(), p.Op, r.AsInt32()), nil
	case FieldTypeFloat:
		return compare(l.AsFloat32(), p.Op, r.AsFloat32()), nil
	case FieldTypeString:
		return compare(l.AsString(), p.Op, r.AsString()), nil
	default:
		return false, fmt.Errorf("predicate: unsupported field type %s", l.Type)
	}
}

// compare applies op to an ordered pair of comparable values shared by
// all three field kinds (int32, float32, string).
func compare[T int32 | float32 | string](l T, op PredicateOp, r T) bool {
	switch op {
	case OpEQ:
		return l == r
	case OpNE:
		return l != r
	case OpLT:
		return l < r
	case OpLE:
		return l <= r
	case OpGT:
		return l > r
	case OpGE:
		return l >= r
	default:
		return false
	}
}

// FilterOperator wraps a child Operator, returning only rows
// satisfying pred. A predicate type mismatch excludes the row (see
// Predicate.Evaluate) rather than aborting the scan.
type FilterOperator struct {
	child Operator
	pred  Predicate
}

// NewFilterOperator builds a filter stage over child.
func NewFilterOperator(child Operator, pred Predicate) *FilterOperator {
	return &FilterOperator{child: child, pred: pred}
}

func (f *FilterOperator) Open() error { return f.child.Open() }

func (f *FilterOperator) Next() (bool, error) {
	for {
		ok, err := f.child.Next()
		if err != nil || !ok {
			return false, err
		}
		match, err := f.pred.Evaluate(f.child.GetOutput())
		if err != nil {
			return false, err
		}
		if match {
			return true, nil
		}
	}
}

func (f *FilterOperator) Close() error { return f.child.Close() }

func (f *FilterOperator) GetOutput() []Field { return f.child.GetOutput() }
