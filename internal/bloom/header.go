package bloom

import (
	"encoding/binary"
	"math"
)

// Metadata is a view over the first 24 bytes of a filter's backing slice:
// the magic signature, the running total of items across all layers, and
// the number of active layers.
type Metadata []byte

// layerHeader is a view over one layer's 32-byte header, immediately
// preceding that layer's block data in the backing slice.
type layerHeader []byte

const (
	// magic is the signature written into every fresh filter and checked
	// on decode. It doubles as a cheap corruption/garbage check.
	magic = 0x424c4f4f4d303031

	metadataSize  = 24
	layerHdrSize  = 32
	blockSize     = 64 // bytes per block; one L1 cache line
	blockSizeBits = blockSize * 8
)

func (m Metadata) Magic() uint64      { return binary.LittleEndian.Uint64(m[0:8]) }
func (m Metadata) SetMagic(v uint64)  { binary.LittleEndian.PutUint64(m[0:8], v) }
func (m Metadata) TotalItems() uint64 { return binary.LittleEndian.Uint64(m[8:16]) }
func (m Metadata) SetTotalItems(v uint64) {
	binary.LittleEndian.PutUint64(m[8:16], v)
}
func (m Metadata) NumLayers() uint64 { return binary.LittleEndian.Uint64(m[16:24]) }
func (m Metadata) SetNumLayers(v uint64) {
	binary.LittleEndian.PutUint64(m[16:24], v)
}

func (h layerHeader) Size() uint64     { return binary.LittleEndian.Uint64(h[0:8]) }
func (h layerHeader) SetSize(v uint64) { binary.LittleEndian.PutUint64(h[0:8], v) }
func (h layerHeader) Capacity() uint64 { return binary.LittleEndian.Uint64(h[8:16]) }
func (h layerHeader) SetCapacity(v uint64) {
	binary.LittleEndian.PutUint64(h[8:16], v)
}
func (h layerHeader) Count() uint64     { return binary.LittleEndian.Uint64(h[16:24]) }
func (h layerHeader) SetCount(v uint64) { binary.LittleEndian.PutUint64(h[16:24], v) }
func (h layerHeader) ErrorRate() float64 {
	return math.Float64frombits(binary.LittleEndian.Uint64(h[24:32]))
}
func (h layerHeader) SetErrorRate(v float64) {
	binary.LittleEndian.PutUint64(h[24:32], math.Float64bits(v))
}

// mix scrambles a 64-bit hash with SplitMix64 to derive a second,
// statistically independent hash for bit-setting without re-hashing the
// original item.
func mix(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}

// estimateSize returns the block-aligned byte size of a layer sized for n
// items at false-positive rate p, using the standard Bloom filter formula
// m = -(n*ln(p))/(ln(2)^2), rounded up to a whole number of 64-byte blocks.
func estimateSize(n uint64, p float64) uint64 {
	if n == 0 {
		n = 1
	}
	if p <= 0 {
		p = 1e-9
	} else if p >= 1 {
		p = 0.99
	}

	ln2 := math.Log(2)
	bits := -float64(n) * math.Log(p) / (ln2 * ln2)
	size := uint64(math.Ceil(bits / 8.0))

	if size < blockSize {
		return blockSize
	}
	if rem := size % blockSize; rem != 0 {
		size += blockSize - rem
	}
	return size
}
