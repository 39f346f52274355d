package kvstore

import (
	"bytes"
	"errors"
)

// MaxSpanLen is the largest byte span the store will hold for a key or a
// STRING/BINARY value. Construction of a longer span fails.
const MaxSpanLen = 1 << 20 // 1 MiB

// ErrSpanTooLarge is returned when a caller attempts to construct a span
// longer than MaxSpanLen.
var ErrSpanTooLarge = errors.New("kvstore: span exceeds 1 MiB limit")

// span is a length-authoritative, NUL-tolerant byte region. It is distinct
// from a bare []byte only in that construction enforces the size ceiling;
// once built, a span is exactly as cheap to pass around as the slice it
// wraps. Empty spans are valid and are not the same thing as "absent" —
// a key can map to a zero-length STRING.
//
// Consumers MUST NOT treat span bytes as a C string: len is authoritative
// and the bytes may contain embedded NULs.
type span []byte

// newSpan validates b's length and returns it as a span without copying.
// Callers that need the bytes to outlive b's current owner (e.g. before
// handing them to the arena) must copy first.
func newSpan(b []byte) (span, error) {
	if len(b) > MaxSpanLen {
		return nil, ErrSpanTooLarge
	}
	return span(b), nil
}

// equal reports whether two spans hold byte-identical content.
func (s span) equal(o span) bool {
	return bytes.Equal(s, o)
}
