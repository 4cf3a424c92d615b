package buzzdb

import (
	"bytes"
	"fmt"
	"strings"
)

// Tuple is an ordered sequence of Fields. Whitespace inside a String
// field is not round-trippable since the textual format is tokenized on
// whitespace (see field.go); the fixed engine schema below never
// produces one, so this only matters for callers building their own
// tuples.
type Tuple struct {
	Fields []Field
}

// Serialize produces "{field_count} " followed by each field's own
// serialized text, in order.
func (t Tuple) Serialize() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d ", len(t.Fields))
	for _, f := range t.Fields {
		b.WriteString(f.Serialize())
	}
	return b.String()
}

// DeserializeTuple reads a field count followed by that many fields off
// ts.
func DeserializeTuple(ts *tokenStream) (Tuple, error) {
	n, err := ts.intToken()
	if err != nil {
		return Tuple{}, fmt.Errorf("tuple: read field count: %w", err)
	}
	if n < 0 {
		return Tuple{}, fmt.Errorf("tuple: negative field count %d", n)
	}
	fields := make([]Field, 0, n)
	for i := 0; i < n; i++ {
		f, err := DeserializeField(ts)
		if err != nil {
			return Tuple{}, fmt.Errorf("tuple: field %d: %w", i, err)
		}
		fields = append(fields, f)
	}
	return Tuple{Fields: fields}, nil
}

// DeserializeTupleBytes parses a tuple out of its serialized text, the
// way a slotted page hands a slot's raw byte range to the codec.
func DeserializeTupleBytes(data []byte) (Tuple, error) {
	return DeserializeTuple(newTokenStream(bytes.NewReader(data)))
}

// Fixed schema used by the engine facade: Int32 key, Int32 value, a
// constant Float32, and a constant String. Under this schema the
// serialized form is 38 bytes only when the decimal text of key and
// value is four characters in total, e.g. two digits each (see the
// package tests); the page layer
// never assumes a fixed length, it always works off the actual
// serialized size (see Q5 in DESIGN.md).
const (
	fixedRowFloatValue  = float32(132.04)
	fixedRowStringValue = "buzzdb"
)

// NewRowTuple builds a tuple in the engine's fixed four-field schema.
func NewRowTuple(key, value int32) Tuple {
	return Tuple{Fields: []Field{
		NewIntField(key),
		NewIntField(value),
		NewFloatField(fixedRowFloatValue),
		NewStringField(fixedRowStringValue),
	}}
}
