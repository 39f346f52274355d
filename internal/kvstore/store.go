package kvstore

import "sync"

// DefaultCapacity is the initial bucket count used when a caller doesn't
// specify one.
const DefaultCapacity = 1024

// Store is the process-wide, thread-safe KV facade: one bucket array, one
// arena, one mutex. Every public operation acquires the mutex, performs
// exactly one table/arena operation, and releases it. Read-only operations
// materialize their result into a caller-owned Value before returning, so
// a borrowed pointer into the arena never escapes the critical section —
// the table's own find contract ("borrow is valid until the next mutating
// operation") is honored entirely inside Store.
//
// View and Mutate give callers that need a zero-copy borrow, or an atomic
// read-modify-write, the same shapes without giving up the single lock.
type Store struct {
	mu    sync.Mutex
	table *table
	arena *arena
}

// New creates a store with the given initial bucket capacity (rounded up
// to a power of two, minimum 16). A capacity of 0 selects DefaultCapacity.
func New(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Store{
		table: newTable(capacity),
		arena: newArena(0),
	}
}

// Size returns the number of live entries.
func (s *Store) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.table.size
}

// Capacity returns the current bucket count.
func (s *Store) Capacity() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.table.buckets)
}

// LoadFactor returns size/capacity.
func (s *Store) LoadFactor() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return float64(s.table.size) / float64(len(s.table.buckets))
}

// validateKey enforces the non-empty, ≤1MiB key rule.
func validateKey(key []byte) error {
	if len(key) == 0 || len(key) > MaxSpanLen {
		return ErrInvalidKey
	}
	return nil
}

// Put stores v under key, overwriting any existing value regardless of its
// previous tag. Overwrite is in place: the old entry's arena bytes are not
// reclaimed (they leak until Clear), matching the arena's documented
// trade-off.
func (s *Store) Put(key []byte, v Value) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if v.byteLen() > MaxSpanLen {
		return ErrValueTooLarge
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	hash := fnv1a(key)
	if e := s.table.find(key, hash); e != nil {
		s.setEntryValue(e, v)
		return nil
	}

	if s.table.needsGrowth() {
		s.table.grow()
	}

	e := &entry{
		key:  s.arena.allocCopy(key),
		hash: hash,
	}
	s.setEntryValue(e, v)
	s.table.insert(e)
	return nil
}

// setEntryValue copies v's payload (if any) into the arena and populates e.
func (s *Store) setEntryValue(e *entry, v Value) {
	e.tag = v.Tag
	e.i = v.Int
	e.f = v.Double
	e.b = v.Bool
	switch v.Tag {
	case TagString, TagBinary:
		e.bytes = s.arena.allocCopy(v.Bytes)
	default:
		e.bytes = nil
	}
}

// entryValue materializes e's payload into a caller-owned Value. Must be
// called with s.mu held.
func entryValue(e *entry) Value {
	v := Value{Tag: e.tag, Int: e.i, Double: e.f, Bool: e.b}
	if e.tag == TagString || e.tag == TagBinary {
		v.Bytes = cloneBytes(e.bytes)
	}
	return v
}

// Get returns the value stored under key, or ErrNotFound.
func (s *Store) Get(key []byte) (Value, error) {
	if err := validateKey(key); err != nil {
		return Value{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.table.find(key, fnv1a(key))
	if e == nil {
		return Value{}, ErrNotFound
	}
	return entryValue(e), nil
}

// View executes fn with a zero-copy borrow of the value stored under key
// (nil if absent), while holding the store's mutex. fn must not retain the
// slice past its call, and must not call back into the Store. Callers that
// need to read a STRING/BINARY payload without an intermediate copy use
// this instead of Get; View never modifies the store.
func (s *Store) View(key []byte, fn func(Value, bool)) error {
	if err := validateKey(key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.table.find(key, fnv1a(key))
	if e == nil {
		fn(Value{}, false)
		return nil
	}
	fn(Value{Tag: e.tag, Bytes: e.bytes, Int: e.i, Double: e.f, Bool: e.b}, true)
	return nil
}

// Mutate performs an atomic read-modify-write on key. fn receives the
// current value (ok=false if absent) and returns the new value together
// with whether the store should be updated. Mutate holds the store's
// mutex for fn's entire duration, preventing lost updates between a
// separate Get and Put.
func (s *Store) Mutate(key []byte, fn func(cur Value, ok bool) (Value, bool, error)) error {
	if err := validateKey(key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	hash := fnv1a(key)
	e := s.table.find(key, hash)

	var cur Value
	ok := e != nil
	if ok {
		cur = entryValue(e)
	}

	next, changed, err := fn(cur, ok)
	if err != nil || !changed {
		return err
	}
	if next.byteLen() > MaxSpanLen {
		return ErrValueTooLarge
	}

	if e == nil {
		if s.table.needsGrowth() {
			s.table.grow()
		}
		e = &entry{key: s.arena.allocCopy(key), hash: hash}
		s.table.insert(e)
	}
	s.setEntryValue(e, next)
	return nil
}

// Delete removes key and reports whether it was present.
func (s *Store) Delete(key []byte) (bool, error) {
	if err := validateKey(key); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.table.delete(key, fnv1a(key)), nil
}

// Exists reports whether key is present.
func (s *Store) Exists(key []byte) (bool, error) {
	if err := validateKey(key); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.table.find(key, fnv1a(key)) != nil, nil
}

// TypeOf returns the tag of the value stored under key.
func (s *Store) TypeOf(key []byte) (Tag, error) {
	if err := validateKey(key); err != nil {
		return TagNull, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.table.find(key, fnv1a(key))
	if e == nil {
		return TagNull, ErrNotFound
	}
	return e.tag, nil
}

// Clear resets the arena and zeroes the bucket array. Bucket count does
// not shrink. Every outstanding borrow from View/Get becomes invalid the
// instant Clear returns, since Clear is itself a mutating operation.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.arena.reset()
	s.table.clear()
}

// Destroy releases every arena block. The store must not be used after
// Destroy.
func (s *Store) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.arena.destroy()
	s.table = newTable(minCapacity)
}

// Keys returns every key currently in the store, in bucket/chain iteration
// order. No particular order is guaranteed.
func (s *Store) Keys() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([][]byte, 0, s.table.size)
	s.table.each(func(e *entry) {
		keys = append(keys, cloneBytes(e.key))
	})
	return keys
}

// Typed convenience setters, named after the kvapi_set_* family. Unlike
// the wire protocol's SET (which only ever produces STRING), these expose
// the full six-tag union at the engine level.

func (s *Store) SetString(key, value []byte) error      { return s.Put(key, StringValue(value)) }
func (s *Store) SetInt64(key []byte, v int64) error      { return s.Put(key, Int64Value(v)) }
func (s *Store) SetDouble(key []byte, v float64) error   { return s.Put(key, DoubleValue(v)) }
func (s *Store) SetBool(key []byte, v bool) error        { return s.Put(key, BoolValue(v)) }
func (s *Store) SetBinary(key, value []byte) error       { return s.Put(key, BinaryValue(value)) }
func (s *Store) SetNull(key []byte) error                { return s.Put(key, NullValue()) }

// typed getters return ErrTypeMismatch if the key exists under a different
// tag, and ErrNotFound if it does not exist at all.

func (s *Store) GetString(key []byte) ([]byte, error) {
	v, err := s.Get(key)
	if err != nil {
		return nil, err
	}
	if v.Tag != TagString {
		return nil, ErrTypeMismatch
	}
	return v.Bytes, nil
}

func (s *Store) GetInt64(key []byte) (int64, error) {
	v, err := s.Get(key)
	if err != nil {
		return 0, err
	}
	if v.Tag != TagInt64 {
		return 0, ErrTypeMismatch
	}
	return v.Int, nil
}

func (s *Store) GetDouble(key []byte) (float64, error) {
	v, err := s.Get(key)
	if err != nil {
		return 0, err
	}
	if v.Tag != TagDouble {
		return 0, ErrTypeMismatch
	}
	return v.Double, nil
}

func (s *Store) GetBool(key []byte) (bool, error) {
	v, err := s.Get(key)
	if err != nil {
		return false, err
	}
	if v.Tag != TagBool {
		return false, ErrTypeMismatch
	}
	return v.Bool, nil
}

func (s *Store) GetBinary(key []byte) ([]byte, error) {
	v, err := s.Get(key)
	if err != nil {
		return nil, err
	}
	if v.Tag != TagBinary {
		return nil, ErrTypeMismatch
	}
	return v.Bytes, nil
}
