package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"dagkv/pkg/cas"
	"dagkv/pkg/commit"
	"dagkv/pkg/contents"
	"dagkv/pkg/id"
	"dagkv/pkg/node"
)

func newTestEngine(t *testing.T) (*Engine, cas.Store) {
	nodes := cas.NewMemoryStore(nil)
	leaves := cas.NewMemoryStore(nil)
	commits := commit.NewManager(cas.NewMemoryStore(nil))
	return New(nodes, leaves, commits), leaves
}

func putString(t *testing.T, leaves cas.Store, s string) id.Hash {
	h, err := leaves.Add([]byte(s))
	require.NoError(t, err)
	return h
}

func TestFind_TraversesStepsToContents(t *testing.T) {
	e, leaves := newTestEngine(t)

	fileHash := putString(t, leaves, "hello")
	leafNode := node.Empty.WithContents("file.txt", &fileHash)
	leafNodeHash, err := e.AddNode(leafNode)
	require.NoError(t, err)

	root := node.Empty.WithSucc("dir", &leafNodeHash)
	rootHash, err := e.AddNode(root)
	require.NoError(t, err)

	_, commitHash, err := e.CreateCommit(&rootHash, commit.NewTask("a", "c1"), nil)
	require.NoError(t, err)

	got, ok, err := e.Find(commitHash, []string{"dir", "file.txt"})
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, fileHash, got)
}

func TestFind_MissingEdgeIsAbsentNotError(t *testing.T) {
	e, _ := newTestEngine(t)
	rootHash, err := e.AddNode(node.Empty)
	require.NoError(t, err)
	_, commitHash, err := e.CreateCommit(&rootHash, commit.NewTask("a", "c1"), nil)
	require.NoError(t, err)

	_, ok, err := e.Find(commitHash, []string{"nope"})
	require.NoError(t, err)
	require.False(t, ok)
}

func TestLCA_ForkedHistoryPicksCommonAncestor(t *testing.T) {
	e, _ := newTestEngine(t)

	_, c1, err := e.CreateCommit(nil, commit.NewTask("a", "c1"), nil)
	require.NoError(t, err)
	_, c2a, err := e.CreateCommit(nil, commit.NewTask("a", "c2a"), []id.Hash{c1})
	require.NoError(t, err)
	_, c2b, err := e.CreateCommit(nil, commit.NewTask("a", "c2b"), []id.Hash{c1})
	require.NoError(t, err)

	lca, err := e.LCA(c2a, c2b)
	require.NoError(t, err)
	require.Equal(t, []id.Hash{c1}, lca)
}

func TestLCA_FastForwardCase(t *testing.T) {
	e, _ := newTestEngine(t)
	_, c1, err := e.CreateCommit(nil, commit.NewTask("a", "c1"), nil)
	require.NoError(t, err)
	_, c2, err := e.CreateCommit(nil, commit.NewTask("a", "c2"), []id.Hash{c1})
	require.NoError(t, err)

	lca, err := e.LCA(c1, c2)
	require.NoError(t, err)
	require.Equal(t, []id.Hash{c1}, lca)

	isAnc, err := e.IsAncestor(c1, c2)
	require.NoError(t, err)
	require.True(t, isAnc)
}

func TestWalk_FullModeReachesCommitNodeAndContents(t *testing.T) {
	e, leaves := newTestEngine(t)

	fileHash := putString(t, leaves, "v")
	root := node.Empty.WithContents("k", &fileHash)
	rootHash, err := e.AddNode(root)
	require.NoError(t, err)
	_, c, err := e.CreateCommit(&rootHash, commit.NewTask("a", "c1"), nil)
	require.NoError(t, err)

	visited, err := e.Walk(context.Background(), []id.Hash{c}, WalkOptions{Mode: ModeFull})
	require.NoError(t, err)
	require.True(t, visited[c])
	require.True(t, visited[rootHash])
	require.True(t, visited[fileHash])
}

func TestMergeNode_NonConflictingContentsMergeBothSides(t *testing.T) {
	e, leaves := newTestEngine(t)

	base := putString(t, leaves, "base")
	oldNode := node.Empty.WithContents("f", &base)
	oldHash, err := e.AddNode(oldNode)
	require.NoError(t, err)

	aNode := oldNode.WithContents("g", &base)
	aHash, err := e.AddNode(aNode)
	require.NoError(t, err)

	bNode := oldNode.WithContents("h", &base)
	bHash, err := e.AddNode(bNode)
	require.NoError(t, err)

	merged, err := MergeNode[string](e, contents.String, &oldHash, &aHash, &bHash)
	require.NoError(t, err)
	require.NotNil(t, merged)

	mergedNode, err := e.LoadNode(*merged)
	require.NoError(t, err)
	_, ok := mergedNode.Contents("f")
	require.True(t, ok)
	_, ok = mergedNode.Contents("g")
	require.True(t, ok)
	_, ok = mergedNode.Contents("h")
	require.True(t, ok)
}

func TestMergeNode_ConflictingContentsReturnsError(t *testing.T) {
	e, leaves := newTestEngine(t)

	base := putString(t, leaves, "base")
	oldNode := node.Empty.WithContents("f", &base)
	oldHash, err := e.AddNode(oldNode)
	require.NoError(t, err)

	aVal := putString(t, leaves, "a-value")
	aNode := node.Empty.WithContents("f", &aVal)
	aHash, err := e.AddNode(aNode)
	require.NoError(t, err)

	bVal := putString(t, leaves, "b-value")
	bNode := node.Empty.WithContents("f", &bVal)
	bHash, err := e.AddNode(bNode)
	require.NoError(t, err)

	_, err = MergeNode[string](e, contents.String, &oldHash, &aHash, &bHash)
	require.Error(t, err)
}
