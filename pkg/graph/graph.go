// Package graph implements the Merkle graph engine (spec §4.4): path
// lookup, recursive reachability walks, lowest-common-ancestor
// computation, and the recursive node-merge composition that sits on top
// of pkg/merge's combinators. Grounded on microprolly/pkg/tree/traverser.go
// (on-demand node loading by hash) and microprolly/pkg/tree/diff.go
// (early-exit on equal hashes, recurse only into differing subtrees) —
// the same shortcut that makes node-merge and Walk cheap on unchanged
// subtrees.
package graph

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"dagkv/pkg/cas"
	"dagkv/pkg/commit"
	"dagkv/pkg/id"
	"dagkv/pkg/node"
)

const (
	defaultNodeCacheSize   = 4096
	defaultCommitCacheSize = 1024
)

// Engine composes the append-only stores and commit manager into path
// traversal, reachability, and merge operations. It caches decoded nodes
// and commits with an LRU (github.com/hashicorp/golang-lru/v2), grounded
// on ethereum-go-ethereum/AKJUS-bsc-erigon's use of the same library for
// hot trie/node caches, since path lookups and ancestor walks reload the
// same objects repeatedly.
type Engine struct {
	nodeStore     cas.Store
	contentsStore cas.Store
	commits       *commit.Manager

	nodeCache   *lru.Cache[id.Hash, node.Node]
	commitCache *lru.Cache[id.Hash, commit.Commit]
}

// New builds a graph engine over the given node and contents stores and a
// commit manager.
func New(nodeStore, contentsStore cas.Store, commits *commit.Manager) *Engine {
	nodeCache, _ := lru.New[id.Hash, node.Node](defaultNodeCacheSize)
	commitCache, _ := lru.New[id.Hash, commit.Commit](defaultCommitCacheSize)
	return &Engine{
		nodeStore:     nodeStore,
		contentsStore: contentsStore,
		commits:       commits,
		nodeCache:     nodeCache,
		commitCache:   commitCache,
	}
}

// LoadNode reads and decodes a node by hash, consulting the LRU first.
func (e *Engine) LoadNode(h id.Hash) (node.Node, error) {
	if n, ok := e.nodeCache.Get(h); ok {
		return n, nil
	}
	data, ok, err := e.nodeStore.Read(h)
	if err != nil {
		return node.Node{}, err
	}
	if !ok {
		return node.Node{}, cas.ErrNotFound
	}
	n, err := node.Unmarshal(data)
	if err != nil {
		return node.Node{}, err
	}
	e.nodeCache.Add(h, n)
	return n, nil
}

// AddNode encodes and writes a node, returning its hash.
func (e *Engine) AddNode(n node.Node) (id.Hash, error) {
	h, err := e.nodeStore.Add(node.Marshal(n))
	if err != nil {
		return id.Hash{}, err
	}
	e.nodeCache.Add(h, n)
	return h, nil
}

// LoadCommit reads a commit by hash, consulting the LRU first.
func (e *Engine) LoadCommit(h id.Hash) (commit.Commit, error) {
	if c, ok := e.commitCache.Get(h); ok {
		return c, nil
	}
	c, err := e.commits.Get(h)
	if err != nil {
		return commit.Commit{}, err
	}
	e.commitCache.Add(h, c)
	return c, nil
}

// CreateCommit writes a new commit and seeds the cache with it.
func (e *Engine) CreateCommit(root *id.Hash, task commit.Task, parents []id.Hash) (commit.Commit, id.Hash, error) {
	c, h, err := e.commits.Create(root, task, parents)
	if err != nil {
		return commit.Commit{}, id.Hash{}, err
	}
	e.commitCache.Add(h, c)
	return c, h, nil
}

// AddContents writes a leaf value's encoded bytes to the contents store,
// returning its hash. Exposed for callers (pkg/view) that stage contents
// edges before a node exists to hold them.
func (e *Engine) AddContents(data []byte) (id.Hash, error) {
	return e.contentsStore.Add(data)
}

// ReadContents reads a leaf value's encoded bytes by hash.
func (e *Engine) ReadContents(h id.Hash) ([]byte, bool, error) {
	return e.contentsStore.Read(h)
}

// Find performs the path lookup of spec §4.4: load the commit's root
// node, follow child edges for every step but the last, then return the
// contents edge at the final step. A missing edge at any point yields
// (zero, false, nil) — absence is not an error.
func (e *Engine) Find(head id.Hash, keyPath []string) (id.Hash, bool, error) {
	c, err := e.LoadCommit(head)
	if err != nil {
		return id.Hash{}, false, err
	}
	if c.Node == nil || len(keyPath) == 0 {
		return id.Hash{}, false, nil
	}

	cur, err := e.LoadNode(*c.Node)
	if err != nil {
		return id.Hash{}, false, err
	}

	for _, step := range keyPath[:len(keyPath)-1] {
		childHash, ok := cur.Succ(step)
		if !ok {
			return id.Hash{}, false, nil
		}
		cur, err = e.LoadNode(childHash)
		if err != nil {
			return id.Hash{}, false, err
		}
	}

	h, ok := cur.Contents(keyPath[len(keyPath)-1])
	return h, ok, nil
}
