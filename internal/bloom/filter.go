// Package bloom implements a scalable blocked Bloom filter: a probabilistic
// set that answers "definitely not present" or "probably present" without
// storing the items themselves, and without support for deletion.
//
// Two ideas make it suitable for a key-value store's BF.* commands:
//
//   - Blocked layout. A plain Bloom filter scatters its k set bits across
//     the whole bitset, costing k cache misses per lookup once the filter
//     is large. Here every item's k=8 bits live inside one 64-byte block —
//     one L1 cache line — so a lookup or insert touches memory once.
//   - Scaling. A filter sized for n items degrades past n. Instead of a
//     fixed capacity, this filter grows by appending a new, larger, lower
//     error-rate layer once the active one saturates, and checks newest
//     layers first since recent items are the ones most likely re-queried.
//
// A filter is a single contiguous byte slice: a 24-byte global header
// followed by one or more layers, each a 32-byte header followed by its
// block data. Encode/Decode hand that slice to and from callers directly,
// so a filter can be stored as an ordinary BINARY value and round-tripped
// through SAVE/LOAD with no special case in the snapshot codec.
package bloom

import (
	"errors"
	"unsafe"

	"github.com/cespare/xxhash/v2"
)

const (
	// DefaultCapacity sizes a filter's first layer when no capacity is given.
	DefaultCapacity = 1000
	// DefaultFalsePositiveRate is the target error rate for a filter's
	// first layer.
	DefaultFalsePositiveRate = 0.01

	growthFactor    = 2
	tighteningRatio = 0.5

	// maxLayers bounds growth against a corrupted or adversarial filter;
	// capacity doubles every layer, so this is far beyond any real use.
	maxLayers = 1024
)

var (
	errTooShort      = errors.New("bloom: data too short to be a filter")
	errBadMagic      = errors.New("bloom: invalid magic number")
	errTooManyLayers = errors.New("bloom: too many layers (possible corruption)")
	errTruncated     = errors.New("bloom: buffer too short for layer")
	errMisaligned    = errors.New("bloom: layer size not aligned to a block")
	errMaxLayers     = errors.New("bloom: max layers reached")
)

// layerOffset indexes one layer's header and block data as views into the
// filter's backing slice, so lookups after the first decode don't need to
// re-parse the header chain.
type layerOffset struct {
	header layerHeader
	blocks []block
}

// Filter is a scalable blocked Bloom filter. The zero value is not usable;
// construct one with New or Decode.
type Filter struct {
	backing   []byte
	layers    []layerOffset
	capacity  uint64
	errorRate float64
}

// New creates an empty filter whose first layer will be sized for capacity
// items at the given false-positive rate once the first item is added. No
// layer is allocated until then, so an unused filter costs only the
// 24-byte global header.
func New(capacity uint64, falsePositiveRate float64) *Filter {
	if capacity == 0 {
		capacity = DefaultCapacity
	}
	if falsePositiveRate <= 0 || falsePositiveRate >= 1 {
		falsePositiveRate = DefaultFalsePositiveRate
	}

	backing := make([]byte, metadataSize)
	f := &Filter{backing: backing, capacity: capacity, errorRate: falsePositiveRate}
	meta := f.metadata()
	meta.SetMagic(magic)
	meta.SetTotalItems(0)
	meta.SetNumLayers(0)
	return f
}

// Decode reconstructs a filter from bytes previously produced by Encode.
// The returned filter shares no memory with data; growing or adding to it
// never mutates the caller's slice.
func Decode(data []byte) (*Filter, error) {
	if len(data) < metadataSize {
		return nil, errTooShort
	}
	backing := make([]byte, len(data))
	copy(backing, data)

	f := &Filter{backing: backing, capacity: DefaultCapacity, errorRate: DefaultFalsePositiveRate}
	if f.metadata().Magic() != magic {
		return nil, errBadMagic
	}
	if err := f.reloadLayers(); err != nil {
		return nil, err
	}
	return f, nil
}

// Encode returns the filter's backing bytes, suitable for storing as a
// BINARY value and later handing back to Decode.
func (f *Filter) Encode() []byte {
	out := make([]byte, len(f.backing))
	copy(out, f.backing)
	return out
}

func (f *Filter) metadata() Metadata {
	return Metadata(f.backing[:metadataSize])
}

// reloadLayers rescans the backing slice and rebuilds the layer index. It
// must run after Decode and after any growth that reallocates backing,
// since growth can move the underlying array and invalidate prior offsets.
func (f *Filter) reloadLayers() error {
	rawCount := f.metadata().NumLayers()
	if rawCount > maxLayers {
		return errTooManyLayers
	}
	numLayers := int(rawCount)

	layers := make([]layerOffset, 0, numLayers)
	offset := metadataSize
	total := len(f.backing)

	for i := 0; i < numLayers; i++ {
		if offset+layerHdrSize > total {
			return errTruncated
		}
		hdr := layerHeader(f.backing[offset : offset+layerHdrSize])
		offset += layerHdrSize

		dataSize := int(hdr.Size())
		if offset+dataSize > total {
			return errTruncated
		}
		if dataSize%blockSize != 0 {
			return errMisaligned
		}

		numBlocks := dataSize / blockSize
		var blocks []block
		if numBlocks > 0 {
			ptr := unsafe.Pointer(&f.backing[offset])
			blocks = unsafe.Slice((*block)(ptr), numBlocks)
		}

		layers = append(layers, layerOffset{header: hdr, blocks: blocks})
		offset += dataSize
	}

	f.layers = layers
	return nil
}

// addLayer appends a new layer sized for cap items at errRate and rescans
// the layer index to account for the backing slice possibly having moved.
func (f *Filter) addLayer(cap uint64, errRate float64) error {
	size := estimateSize(cap, errRate)

	hdrBytes := make([]byte, layerHdrSize)
	hdr := layerHeader(hdrBytes)
	hdr.SetSize(size)
	hdr.SetCapacity(cap)
	hdr.SetCount(0)
	hdr.SetErrorRate(errRate)

	f.backing = append(f.backing, hdrBytes...)
	f.backing = append(f.backing, make([]byte, size)...)
	f.metadata().SetNumLayers(f.metadata().NumLayers() + 1)

	return f.reloadLayers()
}

// Check reports whether item is probably in the set (subject to the
// layers' false-positive rates) or definitely not.
func (f *Filter) Check(item []byte) bool {
	return f.checkHash(xxhash.Sum64(item))
}

func (f *Filter) checkHash(itemHash uint64) bool {
	for i := len(f.layers) - 1; i >= 0; i-- {
		layer := f.layers[i]
		n := uint64(len(layer.blocks))
		if n == 0 {
			continue
		}
		idx := itemHash % n
		if layer.blocks[idx].check(mix(itemHash)) {
			return true
		}
	}
	return false
}

// Add inserts item into the filter, growing to a new layer first if the
// active layer is saturated. It reports whether the item was newly added;
// a duplicate (one Check already finds) leaves every bit untouched.
func (f *Filter) Add(item []byte) (bool, error) {
	itemHash := xxhash.Sum64(item)
	if f.checkHash(itemHash) {
		return false, nil
	}

	numLayers := int(f.metadata().NumLayers())
	if numLayers == 0 {
		if err := f.addLayer(f.capacity, f.errorRate); err != nil {
			return false, err
		}
		numLayers++
	} else {
		last := f.layers[numLayers-1]
		if last.header.Count() >= last.header.Capacity() {
			if numLayers >= maxLayers {
				return false, errMaxLayers
			}
			newCap := last.header.Capacity() * growthFactor
			newErr := last.header.ErrorRate() * tighteningRatio
			if err := f.addLayer(newCap, newErr); err != nil {
				return false, err
			}
			numLayers++
		}
	}

	last := f.layers[numLayers-1]
	n := uint64(len(last.blocks))
	if n == 0 {
		return false, errors.New("bloom: active layer has zero size")
	}

	idx := itemHash % n
	if last.blocks[idx].add(mix(itemHash)) {
		last.header.SetCount(last.header.Count() + 1)
		meta := f.metadata()
		meta.SetTotalItems(meta.TotalItems() + 1)
		return true, nil
	}
	return false, nil
}

// Count returns the total number of items added across every layer.
func (f *Filter) Count() uint64 {
	return f.metadata().TotalItems()
}
