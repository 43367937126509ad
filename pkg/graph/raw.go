package graph

import (
	"fmt"

	"dagkv/pkg/id"
)

// ReadNodeRaw reads a node's encoded bytes without decoding, for callers
// (pkg/slice) that only need to copy the bytes between stores.
func (e *Engine) ReadNodeRaw(h id.Hash) ([]byte, bool, error) {
	return e.nodeStore.Read(h)
}

// ReadCommitRaw reads a commit's encoded bytes without decoding.
func (e *Engine) ReadCommitRaw(h id.Hash) ([]byte, bool, error) {
	return e.commits.ReadRaw(h)
}

// AddContentsRaw writes already-encoded contents bytes, verifying they
// hash to expected (spec §7's "invariant violation" check: a slice bundle
// claiming a hash it doesn't actually produce is corrupt).
func (e *Engine) AddContentsRaw(expected id.Hash, data []byte) error {
	h, err := e.contentsStore.Add(data)
	if err != nil {
		return err
	}
	if h != expected {
		return fmt.Errorf("graph: contents hash mismatch: want %x got %x", expected, h)
	}
	return nil
}

// AddNodeRaw writes already-encoded node bytes, verifying the hash.
func (e *Engine) AddNodeRaw(expected id.Hash, data []byte) error {
	h, err := e.nodeStore.Add(data)
	if err != nil {
		return err
	}
	if h != expected {
		return fmt.Errorf("graph: node hash mismatch: want %x got %x", expected, h)
	}
	return nil
}

// AddCommitRaw writes already-encoded commit bytes, verifying the hash.
func (e *Engine) AddCommitRaw(expected id.Hash, data []byte) error {
	h, err := e.commits.AddRaw(data)
	if err != nil {
		return err
	}
	if h != expected {
		return fmt.Errorf("graph: commit hash mismatch: want %x got %x", expected, h)
	}
	return nil
}
