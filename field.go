package buzzdb

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"
)

// FieldType tags the variant a Field holds. The ordering is part of the
// on-the-wire textual format: INT, FLOAT and STRING serialize as the
// tags 0, 1 and 2 respectively.
type FieldType uint8

const (
	FieldTypeInt FieldType = iota
	FieldTypeFloat
	FieldTypeString
)

func (t FieldType) String() string {
	switch t {
	case FieldTypeInt:
		return "INT"
	case FieldTypeFloat:
		return "FLOAT"
	case FieldTypeString:
		return "STRING"
	default:
		return fmt.Sprintf("FieldType(%d)", uint8(t))
	}
}

// Field is a tagged value. Integers and floats are fixed width in memory
// but serialize as whitespace-delimited decimal tokens; strings serialize
// as a single whitespace-terminated token, so a string field must not
// contain whitespace of its own (see the doc comment on Tuple).
type Field struct {
	Type FieldType
	i    int32
	f    float32
	s    string
}

// NewIntField builds an Int32 field.
func NewIntField(v int32) Field { return Field{Type: FieldTypeInt, i: v} }

// NewFloatField builds a Float32 field.
func NewFloatField(v float32) Field { return Field{Type: FieldTypeFloat, f: v} }

// NewStringField builds a String field.
func NewStringField(v string) Field { return Field{Type: FieldTypeString, s: v} }

func (f Field) AsInt32() int32     { return f.i }
func (f Field) AsFloat32() float32 { return f.f }
func (f Field) AsString() string   { return f.s }

// dataLength is the advisory payload length carried in the serialized
// form. It is never consulted while parsing (tokens are whitespace
// delimited) but it is still written out, matching the original format.
func (f Field) dataLength() int {
	switch f.Type {
	case FieldTypeInt, FieldTypeFloat:
		return 4
	case FieldTypeString:
		return len(f.s) + 1
	default:
		return 0
	}
}

// Serialize produces "{type_tag} {data_length} {value} " with a trailing
// space, byte-for-byte compatible across runs so a page written by one
// process can be read by the next.
func (f Field) Serialize() string {
	switch f.Type {
	case FieldTypeInt:
		return fmt.Sprintf("%d %d %d ", f.Type, f.dataLength(), f.i)
	case FieldTypeFloat:
		return fmt.Sprintf("%d %d %s ", f.Type, f.dataLength(), formatFloat32(f.f))
	case FieldTypeString:
		return fmt.Sprintf("%d %d %s ", f.Type, f.dataLength(), f.s)
	default:
		return ""
	}
}

func formatFloat32(v float32) string {
	return strconv.FormatFloat(float64(v), 'g', -1, 32)
}

// tokenStream pulls whitespace-delimited tokens off a reader. Field and
// Tuple deserialization share it so a Tuple's fields are read off one
// continuous stream rather than each allocating its own scanner.
type tokenStream struct {
	sc *bufio.Scanner
}

func newTokenStream(r io.Reader) *tokenStream {
	sc := bufio.NewScanner(r)
	sc.Split(bufio.ScanWords)
	return &tokenStream{sc: sc}
}

func (t *tokenStream) token() (string, error) {
	if !t.sc.Scan() {
		if err := t.sc.Err(); err != nil {
			return "", fmt.Errorf("tokenize: %w", err)
		}
		return "", io.ErrUnexpectedEOF
	}
	return t.sc.Text(), nil
}

func (t *tokenStream) intToken() (int, error) {
	s, err := t.token()
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("parse int token %q: %w", s, err)
	}
	return v, nil
}

// DeserializeField reads one type_tag, data_length and value token from
// ts. The data_length is parsed only to advance the stream; it is not
// used to bound the value read.
func DeserializeField(ts *tokenStream) (Field, error) {
	tag, err := ts.intToken()
	if err != nil {
		return Field{}, fmt.Errorf("field: read type tag: %w", err)
	}
	if _, err := ts.intToken(); err != nil {
		return Field{}, fmt.Errorf("field: read data length: %w", err)
	}
	switch FieldType(tag) {
	case FieldTypeInt:
		v, err := ts.intToken()
		if err != nil {
			return Field{}, fmt.Errorf("field: read int value: %w", err)
		}
		return NewIntField(int32(v)), nil
	case FieldTypeFloat:
		s, err := ts.token()
		if err != nil {
			return Field{}, fmt.Errorf("field: read float value: %w", err)
		}
		fv, err := strconv.ParseFloat(s, 32)
		if err != nil {
			return Field{}, fmt.Errorf("field: parse float value %q: %w", s, err)
		}
		return NewFloatField(float32(fv)), nil
	case FieldTypeString:
		s, err := ts.token()
		if err != nil {
			return Field{}, fmt.Errorf("field: read string value: %w", err)
		}
		return NewStringField(s), nil
	default:
		return Field{}, fmt.Errorf("field: unknown type tag %d", tag)
	}
}

// DeserializeFieldBytes parses a single field out of its serialized text.
func DeserializeFieldBytes(data []byte) (Field, error) {
	return DeserializeField(newTokenStream(bytes.NewReader(data)))
}
