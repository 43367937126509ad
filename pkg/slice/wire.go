package slice

import (
	"encoding/binary"
	"fmt"

	"dagkv/pkg/chunker"
	"dagkv/pkg/id"
	"dagkv/pkg/refstore"
)

// ToWire flattens a Bundle into the ordered four-section entry stream of
// spec §6 ("contents_entries, node_entries, commit_entries, tag_entries"),
// then hands the entries to a content-defined chunker so a transport
// (pkg/remote) can push/fetch it as bounded, independently-verifiable
// frames instead of one monolithic blob. codec encodes tag names to
// bytes; refstore.StringCodec{} fits the common string-tag case.
func ToWire[T comparable](b *Bundle[T], codec refstore.Codec[T], c chunker.Chunker) [][][]byte {
	var entries [][]byte
	entries = append(entries, sectionHeader(len(b.Contents)))
	for h, data := range b.Contents {
		entries = append(entries, objectEntry(h, data))
	}
	entries = append(entries, sectionHeader(len(b.Nodes)))
	for h, data := range b.Nodes {
		entries = append(entries, objectEntry(h, data))
	}
	entries = append(entries, sectionHeader(len(b.Commits)))
	for h, data := range b.Commits {
		entries = append(entries, objectEntry(h, data))
	}
	entries = append(entries, sectionHeader(len(b.Tags)))
	for tag, head := range b.Tags {
		entries = append(entries, tagEntry(codec.Encode(tag), head))
	}
	return c.Chunk(entries)
}

// FromWire reassembles a Bundle from chunks produced by ToWire, in any
// re-framing a transport performed in between (chunk boundaries carry no
// meaning on read; only entry order does).
func FromWire[T comparable](chunks [][][]byte, codec refstore.Codec[T]) (*Bundle[T], error) {
	var entries [][]byte
	for _, chunk := range chunks {
		entries = append(entries, chunk...)
	}

	b := &Bundle[T]{
		Contents: make(map[id.Hash][]byte),
		Nodes:    make(map[id.Hash][]byte),
		Commits:  make(map[id.Hash][]byte),
		Tags:     make(map[T]id.Hash),
	}

	pos := 0
	readSection := func(name string) (int, error) {
		if pos >= len(entries) {
			return 0, fmt.Errorf("slice: wire: missing %s section header", name)
		}
		n, err := readSectionHeader(entries[pos])
		pos++
		return n, err
	}

	n, err := readSection("contents")
	if err != nil {
		return nil, err
	}
	for i := 0; i < n; i++ {
		h, data, err := readObjectEntry(entries[pos])
		if err != nil {
			return nil, err
		}
		b.Contents[h] = data
		pos++
	}

	n, err = readSection("node")
	if err != nil {
		return nil, err
	}
	for i := 0; i < n; i++ {
		h, data, err := readObjectEntry(entries[pos])
		if err != nil {
			return nil, err
		}
		b.Nodes[h] = data
		pos++
	}

	n, err = readSection("commit")
	if err != nil {
		return nil, err
	}
	for i := 0; i < n; i++ {
		h, data, err := readObjectEntry(entries[pos])
		if err != nil {
			return nil, err
		}
		b.Commits[h] = data
		pos++
	}

	n, err = readSection("tag")
	if err != nil {
		return nil, err
	}
	for i := 0; i < n; i++ {
		name, head, err := readTagEntry(entries[pos])
		if err != nil {
			return nil, err
		}
		tag, err := codec.Decode(name)
		if err != nil {
			return nil, err
		}
		b.Tags[tag] = head
		pos++
	}

	return b, nil
}

func sectionHeader(n int) []byte {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], uint32(n))
	return buf[:]
}

func readSectionHeader(e []byte) (int, error) {
	if len(e) != 4 {
		return 0, fmt.Errorf("slice: wire: malformed section header")
	}
	return int(binary.BigEndian.Uint32(e)), nil
}

func objectEntry(h id.Hash, data []byte) []byte {
	buf := make([]byte, 0, id.Size+len(data))
	buf = append(buf, h[:]...)
	return append(buf, data...)
}

func readObjectEntry(e []byte) (id.Hash, []byte, error) {
	if len(e) < id.Size {
		return id.Hash{}, nil, fmt.Errorf("slice: wire: truncated object entry")
	}
	h, err := id.FromBytes(e[:id.Size])
	if err != nil {
		return id.Hash{}, nil, err
	}
	data := make([]byte, len(e)-id.Size)
	copy(data, e[id.Size:])
	return h, data, nil
}

func tagEntry(name string, head id.Hash) []byte {
	buf := make([]byte, 0, 4+len(name)+id.Size)
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(name)))
	buf = append(buf, lenBuf[:]...)
	buf = append(buf, name...)
	return append(buf, head[:]...)
}

func readTagEntry(e []byte) (string, id.Hash, error) {
	if len(e) < 4 {
		return "", id.Hash{}, fmt.Errorf("slice: wire: truncated tag entry")
	}
	n := binary.BigEndian.Uint32(e[:4])
	if 4+int(n)+id.Size != len(e) {
		return "", id.Hash{}, fmt.Errorf("slice: wire: malformed tag entry")
	}
	name := string(e[4 : 4+n])
	h, err := id.FromBytes(e[4+int(n):])
	if err != nil {
		return "", id.Hash{}, err
	}
	return name, h, nil
}
