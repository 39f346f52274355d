package kvstore

import "errors"

// Engine-level error taxonomy. Command handlers translate these into
// "-ERR <message>" replies; NotFound on GET is handled specially by the
// caller (it is not an error reply at all, just an absent value).
var (
	// ErrInvalidKey is returned for a null/empty key or a key longer than
	// MaxSpanLen.
	ErrInvalidKey = errors.New("kvstore: invalid key")

	// ErrNotFound is returned by Get, TypeOf and the typed getters for a
	// key that does not exist in the store. Delete reports a missing key
	// as (false, nil) instead.
	ErrNotFound = errors.New("kvstore: key not found")

	// ErrTypeMismatch is returned by a typed Get (GetString, GetInt64, ...)
	// when the stored value's tag differs from the one requested.
	ErrTypeMismatch = errors.New("kvstore: type mismatch")

	// ErrValueTooLarge is returned when a STRING/BINARY payload exceeds
	// MaxSpanLen.
	ErrValueTooLarge = errors.New("kvstore: value exceeds 1 MiB limit")

	// ErrInvalidFormat is returned by Load when the snapshot's magic number
	// doesn't match, an unknown type tag is encountered, or a length field
	// implies more bytes than remain in the file.
	ErrInvalidFormat = errors.New("kvstore: invalid snapshot format")
)
