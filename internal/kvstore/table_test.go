package kvstore

import "testing"

func TestFnv1aKnownOffsetBasis(t *testing.T) {
	if got := fnv1a(nil); got != fnvOffset32 {
		t.Errorf("fnv1a(nil) = %#x, want offset basis %#x", got, fnvOffset32)
	}
}

func TestBucketCountForRoundsUpToPowerOfTwo(t *testing.T) {
	cases := map[int]int{
		0:   minCapacity,
		1:   minCapacity,
		16:  16,
		17:  32,
		100: 128,
	}
	for in, want := range cases {
		if got := bucketCountFor(in); got != want {
			t.Errorf("bucketCountFor(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestTableInsertFindDelete(t *testing.T) {
	tb := newTable(16)
	key := []byte("k1")
	hash := fnv1a(key)

	if tb.find(key, hash) != nil {
		t.Fatal("find on empty table returned non-nil")
	}

	e := &entry{key: key, hash: hash, tag: TagInt64, i: 99}
	tb.insert(e)

	if got := tb.find(key, hash); got != e {
		t.Errorf("find after insert = %v, want %v", got, e)
	}
	if tb.size != 1 {
		t.Errorf("size = %d, want 1", tb.size)
	}

	if !tb.delete(key, hash) {
		t.Error("delete returned false for a present key")
	}
	if tb.size != 0 {
		t.Errorf("size after delete = %d, want 0", tb.size)
	}
	if tb.find(key, hash) != nil {
		t.Error("find after delete returned non-nil")
	}
}

func TestTableGrowRehashesEveryEntryToItsOwnBucket(t *testing.T) {
	tb := newTable(16)
	keys := make([][]byte, 100)
	for i := range keys {
		keys[i] = []byte{byte(i), byte(i >> 8), byte(i >> 16)}
		h := fnv1a(keys[i])
		tb.insert(&entry{key: keys[i], hash: h})
	}

	oldBuckets := len(tb.buckets)
	tb.grow()

	if len(tb.buckets) != oldBuckets*2 {
		t.Fatalf("bucket count after grow = %d, want %d", len(tb.buckets), oldBuckets*2)
	}
	if tb.size != 100 {
		t.Fatalf("size after grow = %d, want 100", tb.size)
	}

	for _, k := range keys {
		h := fnv1a(k)
		e := tb.find(k, h)
		if e == nil {
			t.Fatalf("key %v missing after grow", k)
		}
		wantIdx := h % uint32(len(tb.buckets))
		gotIdx := uint32(0)
		for idx, head := range tb.buckets {
			for cur := head; cur != nil; cur = cur.next {
				if cur == e {
					gotIdx = uint32(idx)
				}
			}
		}
		if gotIdx != wantIdx {
			t.Errorf("entry for key %v sits in bucket %d, want %d", k, gotIdx, wantIdx)
		}
	}
}

func TestTableClearResetsSizeKeepsBucketCount(t *testing.T) {
	tb := newTable(16)
	for i := 0; i < 10; i++ {
		k := []byte{byte(i)}
		tb.insert(&entry{key: k, hash: fnv1a(k)})
	}
	bucketsBefore := len(tb.buckets)

	tb.clear()

	if tb.size != 0 {
		t.Errorf("size after clear = %d, want 0", tb.size)
	}
	if len(tb.buckets) != bucketsBefore {
		t.Errorf("bucket count changed across clear: %d -> %d", bucketsBefore, len(tb.buckets))
	}
	for _, head := range tb.buckets {
		if head != nil {
			t.Error("clear left a non-nil bucket head")
		}
	}
}

func TestTableNeedsGrowthAtLoadFactor(t *testing.T) {
	tb := newTable(16)
	for i := 0; i < 11; i++ { // 11/16 < 0.75
		k := []byte{byte(i)}
		tb.insert(&entry{key: k, hash: fnv1a(k)})
	}
	if tb.needsGrowth() {
		t.Fatalf("needsGrowth true at load factor %v", float64(tb.size)/float64(len(tb.buckets)))
	}
	k := []byte{99}
	tb.insert(&entry{key: k, hash: fnv1a(k)}) // 12/16 == 0.75
	if !tb.needsGrowth() {
		t.Error("needsGrowth false at load factor 0.75")
	}
}
