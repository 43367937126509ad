package node

import (
	"encoding/binary"
	"fmt"

	"dagkv/pkg/id"

	"errors"
)

// ErrCorrupted is returned when deserialization encounters malformed
// bytes, mirroring microprolly/pkg/tree/serialize.go's ErrCorruptedData.
var ErrCorrupted = errors.New("node: corrupted data")

const (
	kindContentsByte byte = 0x01
	kindChildByte    byte = 0x02
)

// Marshal encodes a node deterministically: edge count, then each edge as
// (kind byte, step length, step bytes, 32-byte hash), in Edges() order —
// i.e. sorted by (step, kind) as spec §4.4 requires for serialization.
// Grounded on microprolly/pkg/tree/serialize.go's big-endian
// length-prefixed binary encoding technique.
func Marshal(n Node) []byte {
	edges := n.Edges()

	size := 4
	for _, e := range edges {
		size += 1 + 4 + len(e.Step) + id.Size
	}

	buf := make([]byte, 0, size)
	var countBuf [4]byte
	binary.BigEndian.PutUint32(countBuf[:], uint32(len(edges)))
	buf = append(buf, countBuf[:]...)

	for _, e := range edges {
		kindByte := kindContentsByte
		if e.Kind == KindChild {
			kindByte = kindChildByte
		}
		buf = append(buf, kindByte)

		var lenBuf [4]byte
		binary.BigEndian.PutUint32(lenBuf[:], uint32(len(e.Step)))
		buf = append(buf, lenBuf[:]...)
		buf = append(buf, e.Step...)
		buf = append(buf, e.Hash[:]...)
	}
	return buf
}

// Unmarshal decodes bytes produced by Marshal back into a Node.
func Unmarshal(data []byte) (Node, error) {
	if len(data) < 4 {
		return Node{}, fmt.Errorf("%w: truncated edge count", ErrCorrupted)
	}
	pos := 0
	count := binary.BigEndian.Uint32(data[pos : pos+4])
	pos += 4

	contentsEdges := make(map[string]id.Hash)
	succEdges := make(map[string]id.Hash)

	for i := uint32(0); i < count; i++ {
		if pos+1 > len(data) {
			return Node{}, fmt.Errorf("%w: truncated kind byte", ErrCorrupted)
		}
		kindByte := data[pos]
		pos++

		if pos+4 > len(data) {
			return Node{}, fmt.Errorf("%w: truncated step length", ErrCorrupted)
		}
		stepLen := binary.BigEndian.Uint32(data[pos : pos+4])
		pos += 4

		if pos+int(stepLen) > len(data) {
			return Node{}, fmt.Errorf("%w: truncated step", ErrCorrupted)
		}
		step := string(data[pos : pos+int(stepLen)])
		pos += int(stepLen)

		if pos+id.Size > len(data) {
			return Node{}, fmt.Errorf("%w: truncated hash", ErrCorrupted)
		}
		h, err := id.FromBytes(data[pos : pos+id.Size])
		if err != nil {
			return Node{}, err
		}
		pos += id.Size

		switch kindByte {
		case kindContentsByte:
			contentsEdges[step] = h
		case kindChildByte:
			succEdges[step] = h
		default:
			return Node{}, fmt.Errorf("%w: unknown edge kind %d", ErrCorrupted, kindByte)
		}
	}

	return Create(contentsEdges, succEdges), nil
}
