package view

import (
	"testing"

	"github.com/stretchr/testify/require"

	"dagkv/pkg/branch"
	"dagkv/pkg/cas"
	"dagkv/pkg/commit"
	"dagkv/pkg/contents"
	"dagkv/pkg/graph"
	"dagkv/pkg/id"
	"dagkv/pkg/node"
	"dagkv/pkg/refstore"
)

func newTestHandle(t *testing.T) (*branch.Handle[string, string], *graph.Engine) {
	nodes := cas.NewMemoryStore(nil)
	leaves := cas.NewMemoryStore(nil)
	commits := commit.NewManager(cas.NewMemoryStore(nil))
	g := graph.New(nodes, leaves, commits)
	refs := refstore.NewMemoryStore[string]("test")
	e := branch.New[string, string](refs, g, contents.String, "test")
	h, err := e.OfTag(commit.NewTask("alice"), "main")
	require.NoError(t, err)
	return h, g
}

func TestView_WriteThenReadSeesPending(t *testing.T) {
	h, g := newTestHandle(t)
	v := Open[string, string](h, g, contents.String)

	require.NoError(t, v.Write([]string{"a", "b"}, "v1"))
	val, ok, err := v.Read([]string{"a", "b"})
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "v1", val)
}

func TestView_CommitWritesNewHead(t *testing.T) {
	h, g := newTestHandle(t)
	v := Open[string, string](h, g, contents.String)
	require.NoError(t, v.Write([]string{"k"}, "v1"))

	newHead, err := v.Commit(commit.NewTask("alice"), false)
	require.NoError(t, err)
	require.Equal(t, newHead, h.Head())

	val, ok, err := g.Find(newHead, []string{"k"})
	require.NoError(t, err)
	require.True(t, ok)
	data, ok, err := g.ReadContents(val)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "v1", string(data))
}

func TestView_CommitFailsOnConcurrentUpdate(t *testing.T) {
	h, g := newTestHandle(t)
	v := Open[string, string](h, g, contents.String)

	// Someone else commits directly through the handle while the view is open.
	require.NoError(t, h.UpdateHead(mustCommit(t, g, "other", "value")))

	require.NoError(t, v.Write([]string{"k"}, "v1"))
	_, err := v.Commit(commit.NewTask("alice"), false)
	require.ErrorIs(t, err, ErrConcurrentUpdate)

	_, err = v.Commit(commit.NewTask("alice"), true)
	require.NoError(t, err)
}

func TestView_DeleteRemovesKey(t *testing.T) {
	h, g := newTestHandle(t)
	v := Open[string, string](h, g, contents.String)
	require.NoError(t, v.Write([]string{"k"}, "v1"))
	_, err := v.Commit(commit.NewTask("alice"), false)
	require.NoError(t, err)

	v2 := Open[string, string](h, g, contents.String)
	require.NoError(t, v2.Delete([]string{"k"}))
	_, ok, err := v2.Read([]string{"k"})
	require.NoError(t, err)
	require.False(t, ok)

	newHead, err := v2.Commit(commit.NewTask("alice"), false)
	require.NoError(t, err)
	_, ok, err = g.Find(newHead, []string{"k"})
	require.NoError(t, err)
	require.False(t, ok)
}

func TestView_ListFoldsPendingOverBase(t *testing.T) {
	h, g := newTestHandle(t)
	v := Open[string, string](h, g, contents.String)
	require.NoError(t, v.Write([]string{"dir", "a"}, "1"))
	require.NoError(t, v.Write([]string{"dir", "b"}, "2"))
	_, err := v.Commit(commit.NewTask("alice"), false)
	require.NoError(t, err)

	v2 := Open[string, string](h, g, contents.String)
	require.NoError(t, v2.Write([]string{"dir", "c"}, "3"))
	require.NoError(t, v2.Delete([]string{"dir", "a"}))

	steps, err := v2.List([]string{"dir"})
	require.NoError(t, err)
	require.Equal(t, []string{"b", "c"}, steps)
}

func TestView_RebaseFailsOnDivergentRead(t *testing.T) {
	h, g := newTestHandle(t)
	v := Open[string, string](h, g, contents.String)
	require.NoError(t, v.Write([]string{"k"}, "v1"))
	head1, err := v.Commit(commit.NewTask("alice"), false)
	require.NoError(t, err)

	v2 := Open[string, string](h, g, contents.String)
	_, _, err = v2.Read([]string{"k"}) // records observed value at head1

	// Someone else mutates k concurrently.
	otherView := Open[string, string](h, g, contents.String)
	require.NoError(t, otherView.Write([]string{"k"}, "v2"))
	head2, err := otherView.Commit(commit.NewTask("bob"), false)
	require.NoError(t, err)
	require.NotEqual(t, head1, head2)

	err = v2.Rebase(head2)
	require.ErrorIs(t, err, ErrDivergentRead)
}

func TestView_RebaseSucceedsWhenReadsStillMatch(t *testing.T) {
	h, g := newTestHandle(t)
	v := Open[string, string](h, g, contents.String)
	require.NoError(t, v.Write([]string{"k1"}, "v1"))
	head1, err := v.Commit(commit.NewTask("alice"), false)
	require.NoError(t, err)

	v2 := Open[string, string](h, g, contents.String)
	_, _, err = v2.Read([]string{"k1"})
	require.NoError(t, err)

	otherView := Open[string, string](h, g, contents.String)
	require.NoError(t, otherView.Write([]string{"k2"}, "v2"))
	head2, err := otherView.Commit(commit.NewTask("bob"), false)
	require.NoError(t, err)

	require.NoError(t, v2.Rebase(head2))
	require.Equal(t, head2, v2.Base())
}

func TestView_MergeViewResolvesNonConflictingEdits(t *testing.T) {
	h, g := newTestHandle(t)
	base := Open[string, string](h, g, contents.String)
	require.NoError(t, base.Write([]string{"base"}, "v0"))
	_, err := base.Commit(commit.NewTask("alice"), false)
	require.NoError(t, err)

	a := Open[string, string](h, g, contents.String)
	require.NoError(t, a.Write([]string{"a"}, "from-a"))

	b := Open[string, string](h, g, contents.String)
	require.NoError(t, b.Write([]string{"b"}, "from-b"))

	require.NoError(t, a.MergeView(b))
	newHead, err := a.Commit(commit.NewTask("alice"), false)
	require.NoError(t, err)

	for _, path := range [][]string{{"base"}, {"a"}, {"b"}} {
		_, ok, err := g.Find(newHead, path)
		require.NoError(t, err)
		require.True(t, ok, "expected %v to be present", path)
	}
}

func mustCommit(t *testing.T, g *graph.Engine, key, value string) id.Hash {
	t.Helper()
	valHash, err := g.AddContents([]byte(value))
	require.NoError(t, err)
	n := node.Empty.WithContents(key, &valHash)
	rootHash, err := g.AddNode(n)
	require.NoError(t, err)
	_, commitH, err := g.CreateCommit(&rootHash, commit.NewTask("seed"), nil)
	require.NoError(t, err)
	return commitH
}
