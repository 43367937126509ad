// Package chunker implements content-defined chunking over opaque byte
// entries using a Buzhash rolling hash, grounded on
// microprolly/pkg/chunker (BuzhashChunker over sorted KV pairs) but
// repurposed from "chunk sorted tree leaves" to "chunk a flattened export
// stream into wire frames" (pkg/slice, spec §4.8): the input here is
// whatever byte-serialized object records a slice export produces, not
// sorted key-value pairs, but the boundary rule (hash of a rolling window
// over serialized entries, bounded by min/max size) is unchanged.
package chunker

// Chunker splits an ordered sequence of opaque entries into
// content-defined chunks: inserting or removing an entry only perturbs
// the chunk(s) containing it, leaving every other chunk's boundaries
// stable.
type Chunker interface {
	Chunk(entries [][]byte) [][][]byte
}

// BuzhashChunker implements Chunker using the Buzhash rolling hash.
type BuzhashChunker struct {
	// TargetSize is the average chunk size (boundary when hash % targetSize == 0).
	TargetSize uint32
	// MinSize prevents tiny chunks.
	MinSize uint32
	// MaxSize forces a boundary regardless of hash.
	MaxSize uint32
}

// DefaultChunker returns a chunker with sensible defaults for wire bundles.
func DefaultChunker() *BuzhashChunker {
	return &BuzhashChunker{TargetSize: 4096, MinSize: 512, MaxSize: 16384}
}

// NewBuzhashChunker creates a chunker with explicit size bounds.
func NewBuzhashChunker(targetSize, minSize, maxSize uint32) *BuzhashChunker {
	return &BuzhashChunker{TargetSize: targetSize, MinSize: minSize, MaxSize: maxSize}
}

// Chunk splits entries into content-defined chunks. Each entry is fed
// through the rolling hash as-is (callers pass already-serialized
// records); a boundary after entry i starts a new chunk at i+1.
func (c *BuzhashChunker) Chunk(entries [][]byte) [][][]byte {
	if len(entries) == 0 {
		return nil
	}

	hasher := newRollingHash(c.TargetSize, c.MinSize, c.MaxSize)

	var chunks [][][]byte
	var current [][]byte

	for _, entry := range entries {
		for _, b := range entry {
			hasher.roll(b)
		}
		current = append(current, entry)

		if hasher.isBoundary() {
			chunks = append(chunks, current)
			current = nil
			hasher.reset()
		}
	}

	if len(current) > 0 {
		chunks = append(chunks, current)
	}

	return chunks
}

// rollingHash is a Buzhash rolling hash over a sliding window of bytes,
// used internally by BuzhashChunker to find content-defined chunk
// boundaries: a boundary fires where hash%targetSize == 0, so inserting
// or removing bytes only perturbs the chunks touching that edit.
type rollingHash struct {
	targetSize uint32
	minSize    uint32
	maxSize    uint32

	hash        uint32
	window      []byte
	pos         int
	count       int  // bytes processed since last reset
	boundaryHit bool // true once hash%targetSize == 0 has fired since reset
}

// windowSize is the sliding window width fed into the rolling hash.
const windowSize = 64

func newRollingHash(targetSize, minSize, maxSize uint32) *rollingHash {
	return &rollingHash{
		targetSize: targetSize,
		minSize:    minSize,
		maxSize:    maxSize,
		window:     make([]byte, windowSize),
	}
}

func (r *rollingHash) reset() {
	r.hash = 0
	r.pos = 0
	r.count = 0
	r.boundaryHit = false
	for i := range r.window {
		r.window[i] = 0
	}
}

// roll admits newByte into the window and updates the hash:
// hash = rotl(hash, 1) ^ rotl(table[outByte], windowSize) ^ table[newByte].
func (r *rollingHash) roll(newByte byte) {
	outByte := r.window[r.pos]
	r.window[r.pos] = newByte
	r.pos = (r.pos + 1) % len(r.window)

	r.hash = rotateLeft(r.hash, 1) ^ rotateLeft(buzhashTable[outByte], uint32(len(r.window))) ^ buzhashTable[newByte]
	r.count++

	if r.count >= int(r.minSize) && r.hash%r.targetSize == 0 {
		r.boundaryHit = true
	}
}

// isBoundary reports whether the current position should end a chunk:
// forced once maxSize is reached, otherwise true if any roll since the
// last reset hit the target-size condition (and minSize is satisfied).
func (r *rollingHash) isBoundary() bool {
	if r.count < int(r.minSize) {
		return false
	}
	if r.count >= int(r.maxSize) {
		return true
	}
	return r.boundaryHit
}

func rotateLeft(val uint32, n uint32) uint32 {
	n %= 32
	return (val << n) | (val >> (32 - n))
}

// buzhashTable holds per-byte-value constants for the rolling hash.
var buzhashTable = [256]uint32{
	0x458be752, 0xc10748cc, 0xfbbcdbb8, 0x6ded5b68,
	0xb10a82b5, 0x20d75648, 0xdfc5665f, 0xa8428801,
	0x7ebf5191, 0x841135c7, 0x65cc53b3, 0x280a597c,
	0x16f60255, 0xc78cbc3e, 0x294415f5, 0xb938d494,
	0xec85c4e6, 0xb7d33edc, 0xe549b544, 0xfdeda5aa,
	0x882bf287, 0x3116571e, 0xa6fc8d2d, 0x1b5f3f3c,
	0x2e7d4e29, 0x49e95d76, 0x540d0a26, 0xf87b1a02,
	0x84b4a028, 0xd7f89c1e, 0xf309cbe0, 0x600a2f4f,
	0x5f33e848, 0xb149a5d5, 0x1e39e8bd, 0x2a1fc67a,
	0x934d46e4, 0x8f902f30, 0xfc4b0223, 0xfb6d4314,
	0x5f6b9b30, 0x6f2d9c6c, 0x58597e40, 0x3cbbb848,
	0x7c3b5360, 0x3f0ab26c, 0x9ea521c8, 0x1c1b0d14,
	0x3e9de0c0, 0x289d8f1c, 0x0c01f56c, 0x61bd8e3c,
	0xd6e2e980, 0x9c098894, 0x9e0e2534, 0x049dc09c,
	0x64a0dc24, 0xb07c0440, 0x8e5b0a50, 0xf05c1e10,
	0x4c449e3c, 0x5c8c6c30, 0x88507800, 0x08b09a40,
}
