package snapshot

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

func newTestStore(t *testing.T) *branch.Engine[string, string] {
	nodes := cas.NewMemoryStore(nil)
	leaves := cas.NewMemoryStore(nil)
	commits := commit.NewManager(cas.NewMemoryStore(nil))
	g := graph.New(nodes, leaves, commits)
	refs := refstore.NewMemoryStore[string]("test")
	return branch.New[string, string](refs, g, contents.String, "test")
}

func mustContent(t *testing.T, g *graph.Engine, value string) id.Hash {
	t.Helper()
	h, err := g.AddContents([]byte(value))
	require.NoError(t, err)
	return h
}

func addLeaf(g *graph.Engine, parent *id.Hash, key string, value id.Hash) (id.Hash, error) {
	var n node.Node
	if parent != nil {
		loaded, err := g.LoadNode(*parent)
		if err != nil {
			return id.Hash{}, err
		}
		n = loaded
	} else {
		n = node.Empty
	}
	n = n.WithContents(key, &value)
	return g.AddNode(n)
}

func TestSnapshot_FindAndListReadThroughFrozenTree(t *testing.T) {
	e := newTestStore(t)
	g := e.Graph()
	h, err := e.OfTag(commit.NewTask("alice"), "main")
	require.NoError(t, err)

	root, err := addLeaf(g, nil, "k1", mustContent(t, g, "v1"))
	require.NoError(t, err)
	_, c1, err := g.CreateCommit(&root, commit.NewTask("alice"), nil)
	require.NoError(t, err)
	require.NoError(t, h.UpdateHead(c1))

	snap := Of[string, string](e, h)
	require.Equal(t, c1, snap.Head())

	val, ok, err := snap.Find([]string{"k1"})
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "v1", val)

	steps, err := snap.List(nil)
	require.NoError(t, err)
	require.Equal(t, []string{"k1"}, steps)
}

func TestSnapshot_IsUnaffectedByLaterWrites(t *testing.T) {
	e := newTestStore(t)
	g := e.Graph()
	h, err := e.OfTag(commit.NewTask("alice"), "main")
	require.NoError(t, err)

	root1, err := addLeaf(g, nil, "k1", mustContent(t, g, "v1"))
	require.NoError(t, err)
	_, c1, err := g.CreateCommit(&root1, commit.NewTask("alice"), nil)
	require.NoError(t, err)
	require.NoError(t, h.UpdateHead(c1))

	snap := Of[string, string](e, h)

	root2, err := addLeaf(g, &root1, "k2", mustContent(t, g, "v2"))
	require.NoError(t, err)
	_, c2, err := g.CreateCommit(&root2, commit.NewTask("alice"), []id.Hash{c1})
	require.NoError(t, err)
	require.NoError(t, h.UpdateHead(c2))

	_, ok, err := snap.Find([]string{"k2"})
	require.NoError(t, err)
	require.False(t, ok)
}

func TestSnapshot_RevertMovesHandleBack(t *testing.T) {
	e := newTestStore(t)
	g := e.Graph()
	h, err := e.OfTag(commit.NewTask("alice"), "main")
	require.NoError(t, err)

	root1, err := addLeaf(g, nil, "k1", mustContent(t, g, "v1"))
	require.NoError(t, err)
	_, c1, err := g.CreateCommit(&root1, commit.NewTask("alice"), nil)
	require.NoError(t, err)
	require.NoError(t, h.UpdateHead(c1))
	snap := Of[string, string](e, h)

	root2, err := addLeaf(g, &root1, "k2", mustContent(t, g, "v2"))
	require.NoError(t, err)
	_, c2, err := g.CreateCommit(&root2, commit.NewTask("alice"), []id.Hash{c1})
	require.NoError(t, err)
	require.NoError(t, h.UpdateHead(c2))

	require.NoError(t, snap.Revert(h))
	require.Equal(t, c1, h.Head())
}

func TestSnapshot_MergeAppliesThreeWayMergeAgainstHandle(t *testing.T) {
	e := newTestStore(t)
	g := e.Graph()
	h, err := e.OfTag(commit.NewTask("alice"), "main")
	require.NoError(t, err)

	base, err := addLeaf(g, nil, "k1", mustContent(t, g, "v1"))
	require.NoError(t, err)
	_, cBase, err := g.CreateCommit(&base, commit.NewTask("alice"), nil)
	require.NoError(t, err)
	require.NoError(t, h.UpdateHead(cBase))

	branchRoot, err := addLeaf(g, &base, "k2", mustContent(t, g, "v2"))
	require.NoError(t, err)
	_, cBranch, err := g.CreateCommit(&branchRoot, commit.NewTask("alice"), []id.Hash{cBase})
	require.NoError(t, err)
	require.NoError(t, h.UpdateHead(cBranch))

	otherRoot, err := addLeaf(g, &base, "k3", mustContent(t, g, "v3"))
	require.NoError(t, err)
	_, cOther, err := g.CreateCommit(&otherRoot, commit.NewTask("bob"), []id.Hash{cBase})
	require.NoError(t, err)
	otherSnap := Open[string, string](g, contents.String, cOther)

	merged, err := otherSnap.Merge(h)
	require.NoError(t, err)

	v2, ok, err := g.Find(merged, []string{"k2"})
	require.NoError(t, err)
	require.True(t, ok)
	data, _, err := g.ReadContents(v2)
	require.NoError(t, err)
	require.Equal(t, "v2", string(data))

	v3, ok, err := g.Find(merged, []string{"k3"})
	require.NoError(t, err)
	require.True(t, ok)
	data, _, err = g.ReadContents(v3)
	require.NoError(t, err)
	require.Equal(t, "v3", string(data))
}

func TestWatch_DeliversCurrentHeadThenSubsequentUpdates(t *testing.T) {
	e := newTestStore(t)
	g := e.Graph()
	h, err := e.OfTag(commit.NewTask("alice"), "main")
	require.NoError(t, err)

	root1, err := addLeaf(g, nil, "k1", mustContent(t, g, "v1"))
	require.NoError(t, err)
	_, c1, err := g.CreateCommit(&root1, commit.NewTask("alice"), nil)
	require.NoError(t, err)
	require.NoError(t, h.UpdateHead(c1))
	require.NoError(t, h.UpdateTagForce("main"))

	stream, err := Watch[string, string](e, "main")
	require.NoError(t, err)
	defer stream.Close()

	first, ok := stream.Next()
	require.True(t, ok)
	require.Equal(t, "main", first.Tag)
	require.Equal(t, c1, first.Snapshot.Head())

	root2, err := addLeaf(g, &root1, "k2", mustContent(t, g, "v2"))
	require.NoError(t, err)
	_, c2, err := g.CreateCommit(&root2, commit.NewTask("alice"), []id.Hash{c1})
	require.NoError(t, err)
	require.NoError(t, h.UpdateHead(c2))

	second, ok := stream.Next()
	require.True(t, ok)
	require.Equal(t, c2, second.Snapshot.Head())

	val, ok, err := second.Snapshot.Find([]string{"k2"})
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "v2", val)
}
