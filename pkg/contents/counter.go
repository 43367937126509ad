package contents

import (
	"encoding/binary"
	"fmt"

	"dagkv/pkg/merge"
)

// counterCapability implements Capability[int64] using the built-in
// additive counter merge (spec §4.5).
type counterCapability struct{}

// Counter is the built-in Contents capability for additive counters.
var Counter Capability[int64] = counterCapability{}

func (counterCapability) Encode(v int64) ([]byte, error) {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(v))
	return buf[:], nil
}

func (counterCapability) Decode(b []byte) (int64, error) {
	if len(b) != 8 {
		return 0, fmt.Errorf("contents: counter: expected 8 bytes, got %d", len(b))
	}
	return int64(binary.BigEndian.Uint64(b)), nil
}

func (counterCapability) Merge(old, a, b int64) (int64, error) {
	return merge.Counter(old, a, b)
}
