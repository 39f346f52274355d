package kvstore

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
)

// snapshotMagic identifies the binary format written by Save.
const snapshotMagic uint32 = 0x4B56DB02

// Snapshot format version. Bumping major signals an incompatible layout
// change; Load refuses to read a file whose major differs from its own.
const (
	versionMajor uint8 = 1
	versionMinor uint8 = 0
	versionPatch uint8 = 0
)

// wire tags for the snapshot payload. Deliberately a distinct byte space
// from Tag so the two can evolve independently; today they happen to line
// up 1:1.
const (
	wireNull   byte = 0
	wireString byte = 1
	wireInt64  byte = 2
	wireDouble byte = 3
	wireBool   byte = 4
	wireBinary byte = 5
)

func tagToWire(t Tag) byte {
	switch t {
	case TagNull:
		return wireNull
	case TagString:
		return wireString
	case TagInt64:
		return wireInt64
	case TagDouble:
		return wireDouble
	case TagBool:
		return wireBool
	case TagBinary:
		return wireBinary
	default:
		panic(fmt.Sprintf("kvstore: unhandled tag %d", t))
	}
}

func wireToTag(w byte) (Tag, bool) {
	switch w {
	case wireNull:
		return TagNull, true
	case wireString:
		return TagString, true
	case wireInt64:
		return TagInt64, true
	case wireDouble:
		return TagDouble, true
	case wireBool:
		return TagBool, true
	case wireBinary:
		return TagBinary, true
	default:
		return TagNull, false
	}
}

// Save writes the entire store to path as an atomic file replacement: the
// snapshot is built in a tempfile in the same directory, fsynced, then
// renamed over path. A reader can never observe a partially written file:
// there is no window where the destination is truncated or missing.
func (s *Store) Save(path string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".kvstore-snapshot-*")
	if err != nil {
		return fmt.Errorf("kvstore: create snapshot tempfile: %w", err)
	}
	tmpName := tmp.Name()

	closed := false
	renamed := false
	defer func() {
		if !closed {
			tmp.Close()
		}
		if !renamed {
			os.Remove(tmpName)
		}
	}()

	w := bufio.NewWriterSize(tmp, 64*1024)

	s.mu.Lock()
	err = writeSnapshot(w, s.table)
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("kvstore: write snapshot: %w", err)
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("kvstore: flush snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("kvstore: fsync snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("kvstore: close snapshot: %w", err)
	}
	closed = true

	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("kvstore: rename snapshot into place: %w", err)
	}
	renamed = true
	return nil
}

func writeSnapshot(w io.Writer, t *table) error {
	var hdr [4 + 1 + 1 + 1 + 4]byte
	binary.BigEndian.PutUint32(hdr[0:4], snapshotMagic)
	hdr[4] = versionMajor
	hdr[5] = versionMinor
	hdr[6] = versionPatch
	binary.BigEndian.PutUint32(hdr[7:11], uint32(t.size))
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}

	var entryErr error
	t.each(func(e *entry) {
		if entryErr != nil {
			return
		}
		entryErr = writeEntry(w, e)
	})
	return entryErr
}

func writeEntry(w io.Writer, e *entry) error {
	if err := writeLenPrefixed(w, e.key); err != nil {
		return err
	}
	if _, err := w.Write([]byte{tagToWire(e.tag)}); err != nil {
		return err
	}
	switch e.tag {
	case TagString, TagBinary:
		return writeLenPrefixed(w, e.bytes)
	case TagInt64:
		var buf [8]byte
		binary.BigEndian.PutUint64(buf[:], uint64(e.i))
		_, err := w.Write(buf[:])
		return err
	case TagDouble:
		// Big-endian IEEE-754 bits regardless of host endianness: a
		// strengthening over byte-for-byte host-endian reproduction, so a
		// snapshot written on one architecture loads correctly on another.
		var buf [8]byte
		binary.BigEndian.PutUint64(buf[:], math.Float64bits(e.f))
		_, err := w.Write(buf[:])
		return err
	case TagBool:
		var b byte
		if e.b {
			b = 1
		}
		_, err := w.Write([]byte{b})
		return err
	case TagNull:
		return nil
	default:
		panic(fmt.Sprintf("kvstore: unhandled tag %d", e.tag))
	}
}

func writeLenPrefixed(w io.Writer, b []byte) error {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(b)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	if len(b) == 0 {
		return nil
	}
	_, err := w.Write(b)
	return err
}

// Load replaces the store's entire contents with the snapshot at path. A
// missing file is not an error: Load leaves the store untouched and
// returns nil, so a server can unconditionally call Load at startup
// whether or not a prior save exists. Any other failure (bad magic,
// incompatible major version, truncated payload, unknown type tag) leaves
// the store exactly as it was before the call — Load decodes into a fresh
// table/arena pair and only swaps them in once decoding succeeds in full.
func (s *Store) Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("kvstore: open snapshot: %w", err)
	}
	defer f.Close()

	r := bufio.NewReaderSize(f, 64*1024)
	newTbl, newArn, err := readSnapshot(r)
	if err != nil {
		return fmt.Errorf("kvstore: read snapshot: %w", err)
	}

	s.mu.Lock()
	s.table = newTbl
	s.arena = newArn
	s.mu.Unlock()
	return nil
}

func readSnapshot(r io.Reader) (*table, *arena, error) {
	var hdr [4 + 1 + 1 + 1 + 4]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if binary.BigEndian.Uint32(hdr[0:4]) != snapshotMagic {
		return nil, nil, ErrInvalidFormat
	}
	if hdr[4] != versionMajor {
		return nil, nil, fmt.Errorf("%w: unsupported major version %d", ErrInvalidFormat, hdr[4])
	}
	count := uint64(binary.BigEndian.Uint32(hdr[7:11]))

	arn := newArena(0)
	tbl := newTable(bucketCountFor(int(count)))

	for i := uint64(0); i < count; i++ {
		if err := readEntry(r, tbl, arn); err != nil {
			return nil, nil, err
		}
	}
	return tbl, arn, nil
}

func readEntry(r io.Reader, tbl *table, arn *arena) error {
	key, err := readLenPrefixed(r)
	if err != nil {
		return err
	}
	var wireTag [1]byte
	if _, err := io.ReadFull(r, wireTag[:]); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	tag, ok := wireToTag(wireTag[0])
	if !ok {
		return fmt.Errorf("%w: unknown type tag %d", ErrInvalidFormat, wireTag[0])
	}

	e := &entry{tag: tag, key: arn.allocCopy(key), hash: fnv1a(key)}

	switch tag {
	case TagString, TagBinary:
		payload, err := readLenPrefixed(r)
		if err != nil {
			return err
		}
		e.bytes = arn.allocCopy(payload)
	case TagInt64:
		var buf [8]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidFormat, err)
		}
		e.i = int64(binary.BigEndian.Uint64(buf[:]))
	case TagDouble:
		var buf [8]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidFormat, err)
		}
		e.f = math.Float64frombits(binary.BigEndian.Uint64(buf[:]))
	case TagBool:
		var buf [1]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidFormat, err)
		}
		e.b = buf[0] != 0
	case TagNull:
		// no payload
	}

	if tbl.needsGrowth() {
		tbl.grow()
	}
	tbl.insert(e)
	return nil
}

func readLenPrefixed(r io.Reader) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	if n > MaxSpanLen {
		return nil, fmt.Errorf("%w: span length %d exceeds limit", ErrInvalidFormat, n)
	}
	if n == 0 {
		return nil, nil
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	return b, nil
}
