package cas

import (
	"sync"

	"dagkv/pkg/id"
)

// WriteStats tracks Add-call statistics, used to verify structural sharing
// (spec §8.1: content-address determinism — adding an equal value must not
// duplicate storage).
type WriteStats struct {
	TotalWrites        int
	ActualWrites       int
	DeduplicatedWrites int
	WrittenHashes      []id.Hash
	AllHashes          []id.Hash
}

// TrackingStore wraps a Store to record Add-call statistics without
// changing its read/write semantics.
type TrackingStore struct {
	inner Store
	mu    sync.Mutex
	stats WriteStats
}

// NewTrackingStore wraps inner with write tracking.
func NewTrackingStore(inner Store) *TrackingStore {
	return &TrackingStore{inner: inner}
}

func (t *TrackingStore) Add(data []byte) (id.Hash, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	h, err := t.inner.Add(data)
	if err != nil {
		return id.Hash{}, err
	}

	existedBefore := false
	for _, seen := range t.stats.AllHashes {
		if seen == h {
			existedBefore = true
			break
		}
	}

	t.stats.TotalWrites++
	t.stats.AllHashes = append(t.stats.AllHashes, h)
	if existedBefore {
		t.stats.DeduplicatedWrites++
	} else {
		t.stats.ActualWrites++
		t.stats.WrittenHashes = append(t.stats.WrittenHashes, h)
	}
	return h, nil
}

func (t *TrackingStore) Read(h id.Hash) ([]byte, bool, error) { return t.inner.Read(h) }
func (t *TrackingStore) Mem(h id.Hash) (bool, error)          { return t.inner.Mem(h) }
func (t *TrackingStore) List() ([]id.Hash, error)             { return t.inner.List() }
func (t *TrackingStore) Close() error                         { return t.inner.Close() }

// Stats returns a copy of the current write statistics.
func (t *TrackingStore) Stats() WriteStats {
	t.mu.Lock()
	defer t.mu.Unlock()

	cp := WriteStats{
		TotalWrites:        t.stats.TotalWrites,
		ActualWrites:       t.stats.ActualWrites,
		DeduplicatedWrites: t.stats.DeduplicatedWrites,
		WrittenHashes:      append([]id.Hash(nil), t.stats.WrittenHashes...),
		AllHashes:          append([]id.Hash(nil), t.stats.AllHashes...),
	}
	return cp
}

// ResetStats clears tracked statistics.
func (t *TrackingStore) ResetStats() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stats = WriteStats{}
}
