package cas

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"dagkv/pkg/id"
)

// CachedStore wraps a Store with a read-through LRU cache, grounded on
// ethereum-go-ethereum/AKJUS-bsc-erigon's use of hashicorp/golang-lru for
// node/trie caches: path lookups and ancestor walks reload the same
// commits and nodes repeatedly (spec §4.4).
type CachedStore struct {
	inner Store
	cache *lru.Cache[id.Hash, []byte]
}

// NewCachedStore wraps inner with an LRU of the given size (entries).
func NewCachedStore(inner Store, size int) (*CachedStore, error) {
	c, err := lru.New[id.Hash, []byte](size)
	if err != nil {
		return nil, err
	}
	return &CachedStore{inner: inner, cache: c}, nil
}

func (s *CachedStore) Add(data []byte) (id.Hash, error) {
	h, err := s.inner.Add(data)
	if err != nil {
		return id.Hash{}, err
	}
	s.cache.Add(h, data)
	return h, nil
}

func (s *CachedStore) Read(h id.Hash) ([]byte, bool, error) {
	if v, ok := s.cache.Get(h); ok {
		return v, true, nil
	}
	data, ok, err := s.inner.Read(h)
	if err != nil || !ok {
		return data, ok, err
	}
	s.cache.Add(h, data)
	return data, true, nil
}

func (s *CachedStore) Mem(h id.Hash) (bool, error) {
	if s.cache.Contains(h) {
		return true, nil
	}
	return s.inner.Mem(h)
}

func (s *CachedStore) List() ([]id.Hash, error) { return s.inner.List() }
func (s *CachedStore) Close() error             { return s.inner.Close() }
