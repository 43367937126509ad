package chunker

import (
	"bytes"
	"testing"

	"pgregory.net/rapid"
)

func genEntries() *rapid.Generator[[][]byte] {
	return rapid.SliceOfN(rapid.SliceOfN(rapid.Byte(), 1, 120), 10, 100)
}

func entriesEqual(a, b [][]byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !bytes.Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

func TestChunker_EmptyInput(t *testing.T) {
	c := DefaultChunker()
	if chunks := c.Chunk(nil); chunks != nil {
		t.Fatalf("expected nil for empty input, got %v", chunks)
	}
}

func TestChunker_SingleEntry(t *testing.T) {
	c := DefaultChunker()
	chunks := c.Chunk([][]byte{[]byte("only")})
	if len(chunks) != 1 || len(chunks[0]) != 1 {
		t.Fatalf("expected one chunk of one entry, got %v", chunks)
	}
}

func TestProperty_ChunkingIsDeterministic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		entries := genEntries().Draw(t, "entries")
		c := NewBuzhashChunker(256, 64, 1024)

		a := c.Chunk(entries)
		b := c.Chunk(entries)

		if len(a) != len(b) {
			t.Fatalf("determinism failed: %d vs %d chunks", len(a), len(b))
		}
		for i := range a {
			if !entriesEqual(a[i], b[i]) {
				t.Fatalf("determinism failed at chunk %d", i)
			}
		}
	})
}

func TestProperty_ChunkingPreservesAllEntriesInOrder(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		entries := genEntries().Draw(t, "entries")
		c := NewBuzhashChunker(256, 64, 1024)

		chunks := c.Chunk(entries)
		var flattened [][]byte
		for _, ch := range chunks {
			flattened = append(flattened, ch...)
		}
		if !entriesEqual(entries, flattened) {
			t.Fatal("chunking lost, reordered, or duplicated entries")
		}
	})
}

func TestProperty_AppendOnlyTailPreservesEarlierBoundaries(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		entries := genEntries().Draw(t, "entries")
		extra := rapid.SliceOfN(rapid.Byte(), 1, 120).Draw(t, "extra")

		c := NewBuzhashChunker(256, 64, 1024)
		before := c.Chunk(entries)
		after := c.Chunk(append(append([][]byte{}, entries...), extra))

		// every chunk of `before` except possibly the last must reappear
		// unchanged as a prefix of `after` (content-defined chunking
		// stability under append-only growth).
		for i := 0; i < len(before)-1; i++ {
			if i >= len(after) || !entriesEqual(before[i], after[i]) {
				t.Fatalf("chunk %d changed after appending a new tail entry", i)
			}
		}
	})
}
