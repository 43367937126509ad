package refstore

import (
	"sync"

	"dagkv/pkg/id"
	"dagkv/pkg/watch"
)

// MemoryStore is an in-process name store, generic over any comparable tag
// type. Grounded on microprolly's in-memory workingState/head bookkeeping
// in pkg/store/store.go, generalized from a single map to the name-store
// capability.
type MemoryStore[T comparable] struct {
	mu   sync.RWMutex
	refs map[T]id.Hash
	reg  *watch.Registry[T, *id.Hash]
}

// NewMemoryStore creates an empty in-memory name store. metricsLabel
// namespaces its watch-registry Prometheus counters.
func NewMemoryStore[T comparable](metricsLabel string) *MemoryStore[T] {
	return &MemoryStore[T]{
		refs: make(map[T]id.Hash),
		reg:  watch.NewRegistry[T, *id.Hash](metricsLabel),
	}
}

func (s *MemoryStore[T]) Read(k T) (id.Hash, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.refs[k]
	return h, ok, nil
}

func (s *MemoryStore[T]) Mem(k T) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.refs[k]
	return ok, nil
}

func (s *MemoryStore[T]) Update(k T, v id.Hash) error {
	s.mu.Lock()
	s.refs[k] = v
	s.mu.Unlock()
	s.reg.Notify(k, notifyValue(v, true))
	return nil
}

func (s *MemoryStore[T]) Remove(k T) error {
	s.mu.Lock()
	if _, ok := s.refs[k]; !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	delete(s.refs, k)
	s.mu.Unlock()
	s.reg.Notify(k, nil)
	return nil
}

func (s *MemoryStore[T]) List() ([]T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]T, 0, len(s.refs))
	for k := range s.refs {
		out = append(out, k)
	}
	return out, nil
}

func (s *MemoryStore[T]) Dump() (map[T]id.Hash, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[T]id.Hash, len(s.refs))
	for k, v := range s.refs {
		out[k] = v
	}
	return out, nil
}

func (s *MemoryStore[T]) Watch(k T) (*watch.Subscription[*id.Hash], error) {
	h, ok, _ := s.Read(k)
	sub := s.reg.Watch(k, notifyValue(h, ok), ok)
	return sub, nil
}

func (s *MemoryStore[T]) Close() error {
	s.reg.Clear()
	return nil
}
