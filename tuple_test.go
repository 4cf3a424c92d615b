package buzzdb

import "testing"

func TestTupleSerializeRoundTrip(t *testing.T) {
	tuple := NewRowTuple(12, 34)
	s := tuple.Serialize()

	got, err := DeserializeTupleBytes([]byte(s))
	if err != nil {
		t.Fatalf("DeserializeTupleBytes failed: %v", err)
	}
	if len(got.Fields) != 4 {
		t.Fatalf("got %d fields, want 4", len(got.Fields))
	}
	if got.Fields[0].AsInt32() != 12 {
		t.Errorf("key field = %d, want 12", got.Fields[0].AsInt32())
	}
	if got.Fields[1].AsInt32() != 34 {
		t.Errorf("value field = %d, want 34", got.Fields[1].AsInt32())
	}
	if got.Fields[2].AsFloat32() != fixedRowFloatValue {
		t.Errorf("float field = %v, want %v", got.Fields[2].AsFloat32(), fixedRowFloatValue)
	}
	if got.Fields[3].AsString() != fixedRowStringValue {
		t.Errorf("string field = %q, want %q", got.Fields[3].AsString(), fixedRowStringValue)
	}
}

func TestTupleSerializeFieldCountPrefix(t *testing.T) {
	tuple := Tuple{Fields: []Field{NewIntField(1), NewIntField(2)}}
	s := tuple.Serialize()
	want := "2 "
	if len(s) < len(want) || s[:len(want)] != want {
		t.Errorf("Serialize() = %q, want prefix %q", s, want)
	}
}

func TestRowTupleFixedSizeForTwoDigitValues(t *testing.T) {
	// Documents that the "38 bytes" assumption (Q5) holds for two-digit
	// key/value pairs but not for wider ones; it is never relied on for
	// correctness.
	tuple := NewRowTuple(12, 34)
	if got := len(tuple.Serialize()); got != 38 {
		t.Errorf("serialized length for two-digit key/value = %d, want 38", got)
	}

	wide := NewRowTuple(123456, 34)
	if got := len(wide.Serialize()); got == 38 {
		t.Errorf("expected serialized length to grow with wider key, got 38")
	}
}
