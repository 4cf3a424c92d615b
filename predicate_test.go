package buzzdb

import "testing"

func TestPredicateEvaluateInt(t *testing.T) {
	row := []Field{NewIntField(5), NewIntField(10)}

	cases := []struct {
		op   PredicateOp
		want bool
	}{
		{OpEQ, false},
		{OpNE, true},
		{OpLT, true},
		{OpLE, true},
		{OpGT, false},
		{OpGE, false},
	}
	for _, c := range cases {
		p := NewPredicate(IndirectOperand(0), c.op, IndirectOperand(1), discardLogger())
		got, err := p.Evaluate(row)
		if err != nil {
			t.Fatalf("Evaluate(%s): %v", c.op, err)
		}
		if got != c.want {
			t.Errorf("5 %s 10 = %v, want %v", c.op, got, c.want)
		}
	}
}

func TestPredicateEvaluateAgainstLiteral(t *testing.T) {
	row := []Field{NewIntField(42)}
	p := NewPredicate(IndirectOperand(0), OpEQ, DirectOperand(NewIntField(42)), discardLogger())
	got, err := p.Evaluate(row)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !got {
		t.Error("expected 42 = 42 to be true")
	}
}

func TestPredicateEvaluateTypeMismatchIsRecoverable(t *testing.T) {
	row := []Field{NewIntField(1), NewStringField("x")}
	p := NewPredicate(IndirectOperand(0), OpEQ, IndirectOperand(1), discardLogger())
	got, err := p.Evaluate(row)
	if err != nil {
		t.Fatalf("Evaluate: expected a recoverable non-match, got error: %v", err)
	}
	if got {
		t.Error("expected a type mismatch to evaluate as non-matching, not true")
	}
}

func TestPredicateEvaluateOutOfRangeOperand(t *testing.T) {
	row := []Field{NewIntField(1)}
	p := NewPredicate(IndirectOperand(5), OpEQ, IndirectOperand(0), discardLogger())
	if _, err := p.Evaluate(row); err == nil {
		t.Error("expected out-of-range operand error")
	}
}

func TestPredicateEvaluateString(t *testing.T) {
	row := []Field{NewStringField("abc"), NewStringField("abd")}
	p := NewPredicate(IndirectOperand(0), OpLT, IndirectOperand(1), discardLogger())
	got, err := p.Evaluate(row)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !got {
		t.Error(`expected "abc" < "abd"`)
	}
}
