package refstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"dagkv/pkg/id"
)

func backends(t *testing.T) map[string]Store[string] {
	dir := t.TempDir()

	boltStore, err := NewBoltStore[string](dir, "refs.bolt", StringCodec{}, "test-bolt")
	require.NoError(t, err)
	sqliteStore, err := NewSQLiteStore[string](dir, "refs.sqlite", StringCodec{}, "test-sqlite")
	require.NoError(t, err)
	fileStore, err := NewFileStore[string](dir+"/refs", StringCodec{}, "test-file")
	require.NoError(t, err)

	return map[string]Store[string]{
		"memory": NewMemoryStore[string]("test-memory"),
		"file":   fileStore,
		"bolt":   boltStore,
		"sqlite": sqliteStore,
	}
}

func TestStore_ReadMissingIsAbsentNotError(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, ok, err := s.Read("main")
			require.NoError(t, err)
			require.False(t, ok)
			require.NoError(t, s.Close())
		})
	}
}

func TestStore_UpdateThenReadRoundTrips(t *testing.T) {
	h := id.SHA256([]byte("commit-1"))
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Update("main", h))
			got, ok, err := s.Read("main")
			require.NoError(t, err)
			require.True(t, ok)
			require.Equal(t, h, got)
			require.NoError(t, s.Close())
		})
	}
}

func TestStore_RemoveDeletesEntry(t *testing.T) {
	h := id.SHA256([]byte("commit-1"))
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Update("main", h))
			require.NoError(t, s.Remove("main"))
			_, ok, err := s.Read("main")
			require.NoError(t, err)
			require.False(t, ok)
			require.NoError(t, s.Close())
		})
	}
}

func TestStore_ListAndDump(t *testing.T) {
	h1 := id.SHA256([]byte("c1"))
	h2 := id.SHA256([]byte("c2"))
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Update("main", h1))
			require.NoError(t, s.Update("feature/x", h2))

			names, err := s.List()
			require.NoError(t, err)
			require.ElementsMatch(t, []string{"main", "feature/x"}, names)

			dump, err := s.Dump()
			require.NoError(t, err)
			require.Equal(t, map[string]id.Hash{"main": h1, "feature/x": h2}, dump)
			require.NoError(t, s.Close())
		})
	}
}

// TestStore_WatchLiveness covers spec §8's watch-liveness property: a
// subscriber registered before an update observes it.
func TestStore_WatchLiveness(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			sub, err := s.Watch("main")
			require.NoError(t, err)
			defer sub.Close()

			h := id.SHA256([]byte("new-head"))
			go s.Update("main", h)

			select {
			case v := <-sub.Values:
				require.NotNil(t, v)
				require.Equal(t, h, *v)
			case <-time.After(time.Second):
				t.Fatal("watcher did not observe update")
			}
			require.NoError(t, s.Close())
		})
	}
}

func TestValidateTagName_RejectsReservedAndMalformed(t *testing.T) {
	for _, bad := range []string{"", "HEAD", "-x", ".hidden", "x.lock", "a..b", "a//b", "a b"} {
		require.Error(t, ValidateTagName(bad), bad)
	}
	for _, good := range []string{"main", "feature/foo", "release-1.0"} {
		require.NoError(t, ValidateTagName(good), good)
	}
}
