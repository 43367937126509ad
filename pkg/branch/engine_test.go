package branch

import (
	"testing"

	"github.com/stretchr/testify/require"

	"dagkv/pkg/cas"
	"dagkv/pkg/commit"
	"dagkv/pkg/contents"
	"dagkv/pkg/graph"
	"dagkv/pkg/id"
	"dagkv/pkg/node"
	"dagkv/pkg/refstore"
)

func newTestEngine(t *testing.T) (*Engine[string, string], *graph.Engine, cas.Store) {
	nodes := cas.NewMemoryStore(nil)
	leaves := cas.NewMemoryStore(nil)
	commits := commit.NewManager(cas.NewMemoryStore(nil))
	g := graph.New(nodes, leaves, commits)
	refs := refstore.NewMemoryStore[string]("test")
	return New[string, string](refs, g, contents.String, "test"), g, leaves
}

func commitWithKey(t *testing.T, g *graph.Engine, leaves cas.Store, parent *id.Hash, step, value string, parents []id.Hash) id.Hash {
	valHash, err := leaves.Add([]byte(value))
	require.NoError(t, err)

	var root node.Node
	if parent != nil {
		n, err := g.LoadNode(*parent)
		require.NoError(t, err)
		root = n
	} else {
		root = node.Empty
	}
	root = root.WithContents(step, &valHash)
	rootHash, err := g.AddNode(root)
	require.NoError(t, err)

	_, h, err := g.CreateCommit(&rootHash, commit.NewTask("t", "msg"), parents)
	require.NoError(t, err)
	return h
}

func rootOf(t *testing.T, g *graph.Engine, c id.Hash) *id.Hash {
	cm, err := g.LoadCommit(c)
	require.NoError(t, err)
	return cm.Node
}

func TestOfTag_NewBranchHasZeroHead(t *testing.T) {
	e, _, _ := newTestEngine(t)
	h, err := e.OfTag(commit.NewTask("alice"), "main")
	require.NoError(t, err)
	require.True(t, h.Head().IsZero())
	tag, ok := h.Tag()
	require.True(t, ok)
	require.Equal(t, "main", tag)
}

func TestUpdateTag_FailsIfAlreadyExists(t *testing.T) {
	e, g, leaves := newTestEngine(t)
	h, err := e.OfTag(commit.NewTask("alice"), "main")
	require.NoError(t, err)

	c := commitWithKey(t, g, leaves, nil, "k", "v", nil)
	require.NoError(t, h.UpdateHead(c))
	require.NoError(t, h.UpdateTag("feature"))

	require.ErrorIs(t, h.UpdateTag("feature"), ErrDuplicatedTag)
}

func TestMergeHead_FastForward(t *testing.T) {
	e, g, leaves := newTestEngine(t)
	h, err := e.OfTag(commit.NewTask("alice"), "main")
	require.NoError(t, err)

	c1 := commitWithKey(t, g, leaves, nil, "k1", "v1", nil)
	require.NoError(t, h.UpdateHead(c1))

	c2 := commitWithKey(t, g, leaves, rootOf(t, g, c1), "k2", "v2", []id.Hash{c1})

	merged, err := h.MergeHead(c2)
	require.NoError(t, err)
	require.Equal(t, c2, merged)
	require.Equal(t, c2, h.Head())
}

func TestMergeHead_NoOpWhenIncomingIsAncestor(t *testing.T) {
	e, g, leaves := newTestEngine(t)
	h, err := e.OfTag(commit.NewTask("alice"), "main")
	require.NoError(t, err)

	c1 := commitWithKey(t, g, leaves, nil, "k1", "v1", nil)
	c2 := commitWithKey(t, g, leaves, rootOf(t, g, c1), "k2", "v2", []id.Hash{c1})
	require.NoError(t, h.UpdateHead(c2))

	merged, err := h.MergeHead(c1)
	require.NoError(t, err)
	require.Equal(t, c2, merged)
}

func TestMergeHead_DivergentProducesMergeCommit(t *testing.T) {
	e, g, leaves := newTestEngine(t)
	base := commitWithKey(t, g, leaves, nil, "base", "v", nil)

	h, err := e.OfTag(commit.NewTask("alice"), "main")
	require.NoError(t, err)
	require.NoError(t, h.UpdateHead(base))

	ours := commitWithKey(t, g, leaves, rootOf(t, g, base), "ours", "v1", []id.Hash{base})
	theirs := commitWithKey(t, g, leaves, rootOf(t, g, base), "theirs", "v2", []id.Hash{base})

	require.NoError(t, h.UpdateHead(ours))
	merged, err := h.MergeHead(theirs)
	require.NoError(t, err)
	require.NotEqual(t, ours, merged)
	require.NotEqual(t, theirs, merged)

	val, ok, err := g.Find(merged, []string{"ours"})
	require.NoError(t, err)
	require.True(t, ok)
	_ = val

	val, ok, err = g.Find(merged, []string{"theirs"})
	require.NoError(t, err)
	require.True(t, ok)
	_ = val

	val, ok, err = g.Find(merged, []string{"base"})
	require.NoError(t, err)
	require.True(t, ok)
	_ = val
}

func TestSwitchAndDetach(t *testing.T) {
	e, g, leaves := newTestEngine(t)
	h, err := e.OfTag(commit.NewTask("alice"), "main")
	require.NoError(t, err)
	c := commitWithKey(t, g, leaves, nil, "k", "v", nil)
	require.NoError(t, h.UpdateHead(c))
	require.NoError(t, h.UpdateTag("feature"))

	require.NoError(t, h.Switch("feature"))
	tag, ok := h.Tag()
	require.True(t, ok)
	require.Equal(t, "feature", tag)

	h.Detach()
	_, ok = h.Tag()
	require.False(t, ok)
	require.Equal(t, c, h.Head())
}

func TestClone_FailsOnExistingUnlessForced(t *testing.T) {
	e, g, leaves := newTestEngine(t)
	h, err := e.OfTag(commit.NewTask("alice"), "main")
	require.NoError(t, err)
	c := commitWithKey(t, g, leaves, nil, "k", "v", nil)
	require.NoError(t, h.UpdateHead(c))

	require.NoError(t, h.Clone("release"))
	require.ErrorIs(t, h.Clone("release"), ErrDuplicatedTag)
	require.NoError(t, h.CloneForce("release"))
}

func TestHeads_ListsAllTags(t *testing.T) {
	e, g, leaves := newTestEngine(t)
	h, err := e.OfTag(commit.NewTask("alice"), "main")
	require.NoError(t, err)
	c := commitWithKey(t, g, leaves, nil, "k", "v", nil)
	require.NoError(t, h.UpdateHead(c))
	require.NoError(t, h.Clone("release"))

	heads, err := h.Heads()
	require.NoError(t, err)
	require.Equal(t, map[string]id.Hash{"main": c, "release": c}, heads)
}

// criss-cross builds a history where two branch tips (A, B) each descend
// from two separate merges of the same pair of divergent commits (c1, c2),
// so LCA(A, B) yields both c1 and c2 rather than a single commit.
func crissCross(t *testing.T, g *graph.Engine, leaves cas.Store, c1, c2Step, c2Value string) (c1Hash, c2Hash, a, b id.Hash) {
	base := commitWithKey(t, g, leaves, nil, "base", "v", nil)

	c1Hash = commitWithKey(t, g, leaves, rootOf(t, g, base), "x", c1, nil)
	c2Hash = commitWithKey(t, g, leaves, rootOf(t, g, base), c2Step, c2Value, nil)

	c1Commit, err := g.LoadCommit(c1Hash)
	require.NoError(t, err)
	c2Commit, err := g.LoadCommit(c2Hash)
	require.NoError(t, err)

	m1 := commitWithKey(t, g, leaves, c1Commit.Node, c2Step, c2Value, []id.Hash{c1Hash, c2Hash})
	m2 := commitWithKey(t, g, leaves, c2Commit.Node, "x", c1, []id.Hash{c1Hash, c2Hash})

	m1Commit, err := g.LoadCommit(m1)
	require.NoError(t, err)
	m2Commit, err := g.LoadCommit(m2)
	require.NoError(t, err)

	a = commitWithKey(t, g, leaves, m1Commit.Node, "a", "a1", []id.Hash{m1})
	b = commitWithKey(t, g, leaves, m2Commit.Node, "b", "b1", []id.Hash{m2})
	return
}

func TestMergeHead_CrissCrossDisambiguatesCompatibleLCAs(t *testing.T) {
	e, g, leaves := newTestEngine(t)
	c1, c2, a, b := crissCross(t, g, leaves, "x1", "y", "y1")

	lca, err := g.LCA(a, b)
	require.NoError(t, err)
	require.ElementsMatch(t, []id.Hash{c1, c2}, lca)

	h, err := e.OfTag(commit.NewTask("alice"), "main")
	require.NoError(t, err)
	require.NoError(t, h.UpdateHead(a))

	merged, err := h.MergeHead(b)
	require.NoError(t, err)

	for _, step := range []string{"base", "x", "y", "a", "b"} {
		_, ok, err := g.Find(merged, []string{step})
		require.NoError(t, err)
		require.Truef(t, ok, "expected step %q in merged tree", step)
	}
}

func TestMergeHead_CrissCrossReportsAmbiguousOnGenuineConflict(t *testing.T) {
	e, g, leaves := newTestEngine(t)
	// Both sides of the criss-cross edit the same key "x" differently,
	// so folding the two LCA candidates together cannot agree on a
	// virtual base value for "x".
	c1, c2, a, b := crissCross(t, g, leaves, "x1", "x", "x2")

	lca, err := g.LCA(a, b)
	require.NoError(t, err)
	require.ElementsMatch(t, []id.Hash{c1, c2}, lca)

	h, err := e.OfTag(commit.NewTask("alice"), "main")
	require.NoError(t, err)
	require.NoError(t, h.UpdateHead(a))

	_, err = h.MergeHead(b)
	require.ErrorIs(t, err, ErrAmbiguousLCA)
}
