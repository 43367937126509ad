package chunker

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrCorruptedData is returned when deserialization fails.
var ErrCorruptedData = errors.New("data corruption detected")

// SerializeEntry length-prefixes a single opaque entry.
// Format: [4 bytes: length][N bytes: data].
func SerializeEntry(data []byte) []byte {
	buf := make([]byte, 0, 4+len(data))
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(data)))
	buf = append(buf, lenBuf[:]...)
	return append(buf, data...)
}

// SerializeEntries frames a sequence of entries for one wire chunk.
// Format: [4 bytes: entry count][SerializeEntry(e) for each e].
func SerializeEntries(entries [][]byte) []byte {
	size := 4
	for _, e := range entries {
		size += 4 + len(e)
	}
	buf := make([]byte, 0, size)
	var countBuf [4]byte
	binary.BigEndian.PutUint32(countBuf[:], uint32(len(entries)))
	buf = append(buf, countBuf[:]...)
	for _, e := range entries {
		buf = append(buf, SerializeEntry(e)...)
	}
	return buf
}

// DeserializeEntry reads one length-prefixed entry, returning it and the
// number of bytes consumed.
func DeserializeEntry(data []byte) ([]byte, int, error) {
	if len(data) < 4 {
		return nil, 0, fmt.Errorf("%w: insufficient data for entry length", ErrCorruptedData)
	}
	n := binary.BigEndian.Uint32(data[:4])
	if 4+int(n) > len(data) {
		return nil, 0, fmt.Errorf("%w: insufficient data for entry body", ErrCorruptedData)
	}
	out := make([]byte, n)
	copy(out, data[4:4+int(n)])
	return out, 4 + int(n), nil
}

// DeserializeEntries reverses SerializeEntries.
func DeserializeEntries(data []byte) ([][]byte, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("%w: insufficient data for entry count", ErrCorruptedData)
	}
	count := binary.BigEndian.Uint32(data[:4])
	pos := 4
	entries := make([][]byte, 0, count)
	for i := uint32(0); i < count; i++ {
		e, consumed, err := DeserializeEntry(data[pos:])
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
		pos += consumed
	}
	if pos != len(data) {
		return nil, fmt.Errorf("%w: unexpected trailing data (%d bytes remaining)", ErrCorruptedData, len(data)-pos)
	}
	return entries, nil
}
