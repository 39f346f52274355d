package kvstore

// FNV-1a 32-bit constants, pinned explicitly rather than routed through the
// stdlib hash/fnv package: the table's rehash-and-bucket-index math needs
// the raw uint32 hash, and inlining the two-instruction loop avoids an
// interface allocation per lookup on the hot path.
const (
	fnvOffset32 uint32 = 0x811c9dc5
	fnvPrime32  uint32 = 0x01000193
)

func fnv1a(key []byte) uint32 {
	h := fnvOffset32
	for _, c := range key {
		h ^= uint32(c)
		h *= fnvPrime32
	}
	return h
}

// minCapacity is the smallest bucket count the table ever runs with.
const minCapacity = 16

// maxLoadFactor is the size/bucketCount ratio that triggers a doubling.
const maxLoadFactor = 0.75

// entry is one hash-table node. key and, for TagString/TagBinary, bytes are
// owned by the table's arena — never individually freed, only unlinked.
// Int/Double/Bool payloads are inline and need no arena allocation.
type entry struct {
	key   []byte
	tag   Tag
	bytes []byte
	i     int64
	f     float64
	b     bool
	hash  uint32
	next  *entry
}

// table is a chained hash table: a bucket array of size
// power_of_two(max(capacity, 16)), each bucket a singly-linked chain. size
// counts live entries. No shrink.
type table struct {
	buckets []*entry
	size    int
}

// newTable allocates a table with at least the requested capacity, rounded
// up to the next power of two (and at least minCapacity).
func newTable(capacity int) *table {
	return &table{buckets: make([]*entry, bucketCountFor(capacity))}
}

func bucketCountFor(capacity int) int {
	n := minCapacity
	for n < capacity {
		n <<= 1
	}
	return n
}

// find returns the entry for key in its bucket chain, or nil.
func (t *table) find(key []byte, hash uint32) *entry {
	idx := hash % uint32(len(t.buckets))
	for e := t.buckets[idx]; e != nil; e = e.next {
		if e.hash == hash && string(e.key) == string(key) {
			return e
		}
	}
	return nil
}

// needsGrowth reports whether the next insert should trigger a rehash.
func (t *table) needsGrowth() bool {
	return float64(t.size)/float64(len(t.buckets)) >= maxLoadFactor
}

// grow doubles the bucket count and rehashes every live entry by
// hash % newBucketCount. The set of (key, value) pairs is unchanged; only
// their bucket placement moves.
func (t *table) grow() {
	newBuckets := make([]*entry, len(t.buckets)*2)
	for _, head := range t.buckets {
		for e := head; e != nil; {
			next := e.next
			idx := e.hash % uint32(len(newBuckets))
			e.next = newBuckets[idx]
			newBuckets[idx] = e
			e = next
		}
	}
	t.buckets = newBuckets
}

// insert prepends a brand-new entry to its bucket head. Callers must have
// already confirmed no entry with this key exists (insert does not check).
func (t *table) insert(e *entry) {
	idx := e.hash % uint32(len(t.buckets))
	e.next = t.buckets[idx]
	t.buckets[idx] = e
	t.size++
}

// delete unlinks the entry for key, if present, and reports whether it was
// found. The entry's arena bytes are not reclaimed — they leak until the
// owning store's next clear().
func (t *table) delete(key []byte, hash uint32) bool {
	idx := hash % uint32(len(t.buckets))
	var prev *entry
	for e := t.buckets[idx]; e != nil; e = e.next {
		if e.hash == hash && string(e.key) == string(key) {
			if prev == nil {
				t.buckets[idx] = e.next
			} else {
				prev.next = e.next
			}
			t.size--
			return true
		}
		prev = e
	}
	return false
}

// clear zeroes every bucket head and resets size. Bucket count is left
// unchanged — the table does not shrink.
func (t *table) clear() {
	for i := range t.buckets {
		t.buckets[i] = nil
	}
	t.size = 0
}

// each visits every live entry in bucket-index, then chain order. fn must
// not mutate the table; the iterator is undefined after any mutation.
func (t *table) each(fn func(e *entry)) {
	for _, head := range t.buckets {
		for e := head; e != nil; e = e.next {
			fn(e)
		}
	}
}
