package kvstore

import "fmt"

// Tag identifies which member of the typed value union is populated.
type Tag uint8

const (
	TagNull Tag = iota
	TagString
	TagInt64
	TagDouble
	TagBool
	TagBinary
)

// String renders the tag as a short lowercase name.
func (t Tag) String() string {
	switch t {
	case TagNull:
		return "null"
	case TagString:
		return "string"
	case TagInt64:
		return "int64"
	case TagDouble:
		return "double"
	case TagBool:
		return "bool"
	case TagBinary:
		return "binary"
	default:
		return fmt.Sprintf("tag(%d)", uint8(t))
	}
}

// Value is the tagged union {null, string, int64, double, bool, binary}
// every entry in the store holds. Only the field matching Tag is
// meaningful; the rest are zero. Bytes (for TagString/TagBinary) are a
// plain []byte here — the caller-facing copy, materialized out of the
// arena by Store before it is ever handed back across the facade.
type Value struct {
	Tag    Tag
	Bytes  []byte
	Int    int64
	Double float64
	Bool   bool
}

// NullValue returns a NULL-tagged value.
func NullValue() Value { return Value{Tag: TagNull} }

// StringValue returns a STRING-tagged value wrapping b. b is copied.
func StringValue(b []byte) Value {
	return Value{Tag: TagString, Bytes: cloneBytes(b)}
}

// Int64Value returns an INT64-tagged value.
func Int64Value(i int64) Value { return Value{Tag: TagInt64, Int: i} }

// DoubleValue returns a DOUBLE-tagged value.
func DoubleValue(f float64) Value { return Value{Tag: TagDouble, Double: f} }

// BoolValue returns a BOOL-tagged value.
func BoolValue(b bool) Value { return Value{Tag: TagBool, Bool: b} }

// BinaryValue returns a BINARY-tagged value wrapping b. b is copied.
func BinaryValue(b []byte) Value {
	return Value{Tag: TagBinary, Bytes: cloneBytes(b)}
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// byteLen returns the payload length used by the STRING/BINARY size limit
// check (SET and the span ceiling); other tags have no variable-length
// payload.
func (v Value) byteLen() int {
	switch v.Tag {
	case TagString, TagBinary:
		return len(v.Bytes)
	default:
		return 0
	}
}
