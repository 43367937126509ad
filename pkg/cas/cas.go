// Package cas implements the append-only content-addressed store capability
// (spec §4.1, §6): a write-once map from digest(v) -> v, used independently
// for contents, nodes, and commits.
package cas

import (
	"errors"
	"sync"

	"dagkv/pkg/id"
)

// ErrNotFound is returned by Add/Read callers that want an error instead of
// the bool form; the AO capability itself treats a miss as "absent", not a
// failure (spec §4.1: "read returns absent for unknown hashes, never fails
// otherwise").
var ErrNotFound = errors.New("cas: hash not found")

// Store is the append-only content-addressed store capability.
type Store interface {
	// Add stores data and returns its digest. Idempotent: adding an equal
	// value returns the same hash and does not duplicate storage.
	Add(data []byte) (id.Hash, error)
	// Read retrieves data by hash. ok is false if the hash is absent.
	Read(h id.Hash) (data []byte, ok bool, err error)
	// Mem reports whether h is present.
	Mem(h id.Hash) (bool, error)
	// List enumerates known hashes. Backends that cannot enumerate cheaply
	// may return nil, nil (spec §9 open question on `list` semantics: the
	// engine must not depend on it for correctness).
	List() ([]id.Hash, error)
	// Close releases backend resources.
	Close() error
}

// MemoryStore is an in-process, mutex-guarded AO store. No third-party
// library offers anything over a map guarded by a mutex for this, so this
// backend is justifiably stdlib-only.
type MemoryStore struct {
	mu     sync.RWMutex
	digest id.DigestFunc
	data   map[id.Hash][]byte
}

// NewMemoryStore creates an in-memory AO store using digest as its hash
// function (defaults to id.SHA256 when nil).
func NewMemoryStore(digest id.DigestFunc) *MemoryStore {
	if digest == nil {
		digest = id.SHA256
	}
	return &MemoryStore{
		digest: digest,
		data:   make(map[id.Hash][]byte),
	}
}

func (s *MemoryStore) Add(data []byte) (id.Hash, error) {
	h := s.digest(data)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[h]; exists {
		return h, nil
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	s.data[h] = cp
	return h, nil
}

func (s *MemoryStore) Read(h id.Hash) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.data[h]
	if !ok {
		return nil, false, nil
	}
	cp := make([]byte, len(v))
	copy(cp, v)
	return cp, true, nil
}

func (s *MemoryStore) Mem(h id.Hash) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.data[h]
	return ok, nil
}

func (s *MemoryStore) List() ([]id.Hash, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]id.Hash, 0, len(s.data))
	for h := range s.data {
		out = append(out, h)
	}
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }

// Len reports the number of distinct values stored (used by tests asserting
// deduplication, spec §8.1).
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
