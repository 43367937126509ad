// Package node implements the directory-like node value (spec §4.3): a
// set of named edges, each either a contents edge (leaf value hash) or a
// child edge (subtree hash), keyed by step. Node values are pure; every
// mutator returns a new value. Writing a node to the content-addressed
// store is a separate concern (see pkg/cas via the engine).
package node

import (
	"sort"

	"dagkv/pkg/id"
)

// Kind distinguishes a contents edge from a child (subtree) edge. A single
// step may carry both kinds at once, mirroring a tree entry that is
// simultaneously a blob and a subtree.
type Kind int

const (
	KindContents Kind = iota
	KindChild
)

// Edge is one entry of a node, as returned by Edges().
type Edge struct {
	Step string
	Kind Kind
	Hash id.Hash
}

// Node is an immutable directory-like value: per step, an optional
// contents hash and an optional child (subtree) hash.
type Node struct {
	contents map[string]id.Hash
	children map[string]id.Hash
}

// Empty is the canonical empty node.
var Empty = Node{}

// Create builds a node from explicit contents and child edge maps
// (spec §4.3's create(contents_edges, succ_edges)).
func Create(contentsEdges, succEdges map[string]id.Hash) Node {
	n := Node{}
	if len(contentsEdges) > 0 {
		n.contents = make(map[string]id.Hash, len(contentsEdges))
		for k, v := range contentsEdges {
			n.contents[k] = v
		}
	}
	if len(succEdges) > 0 {
		n.children = make(map[string]id.Hash, len(succEdges))
		for k, v := range succEdges {
			n.children[k] = v
		}
	}
	return n
}

// Contents returns the contents hash at step, if any.
func (n Node) Contents(step string) (id.Hash, bool) {
	h, ok := n.contents[step]
	return h, ok
}

// Succ returns the child (subtree) hash at step, if any.
func (n Node) Succ(step string) (id.Hash, bool) {
	h, ok := n.children[step]
	return h, ok
}

// WithContents returns a new node with the contents edge at step set to h,
// or removed if h is nil.
func (n Node) WithContents(step string, h *id.Hash) Node {
	out := n.clone()
	if h == nil {
		delete(out.contents, step)
		return out
	}
	if out.contents == nil {
		out.contents = make(map[string]id.Hash, 1)
	}
	out.contents[step] = *h
	return out
}

// WithSucc returns a new node with the child edge at step set to h, or
// removed if h is nil.
func (n Node) WithSucc(step string, h *id.Hash) Node {
	out := n.clone()
	if h == nil {
		delete(out.children, step)
		return out
	}
	if out.children == nil {
		out.children = make(map[string]id.Hash, 1)
	}
	out.children[step] = *h
	return out
}

func (n Node) clone() Node {
	out := Node{}
	if len(n.contents) > 0 {
		out.contents = make(map[string]id.Hash, len(n.contents))
		for k, v := range n.contents {
			out.contents[k] = v
		}
	}
	if len(n.children) > 0 {
		out.children = make(map[string]id.Hash, len(n.children))
		for k, v := range n.children {
			out.children[k] = v
		}
	}
	return out
}

// Steps returns every step present in either edge map, sorted.
func (n Node) Steps() []string {
	seen := make(map[string]struct{}, len(n.contents)+len(n.children))
	for k := range n.contents {
		seen[k] = struct{}{}
	}
	for k := range n.children {
		seen[k] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Edges returns every edge ordered by (step, kind) — spec §4.4's
// serialization and merge tie-break order.
func (n Node) Edges() []Edge {
	steps := n.Steps()
	edges := make([]Edge, 0, len(n.contents)+len(n.children))
	for _, step := range steps {
		if h, ok := n.contents[step]; ok {
			edges = append(edges, Edge{Step: step, Kind: KindContents, Hash: h})
		}
		if h, ok := n.children[step]; ok {
			edges = append(edges, Edge{Step: step, Kind: KindChild, Hash: h})
		}
	}
	return edges
}

// IsEmpty reports whether the node has no edges at all.
func (n Node) IsEmpty() bool {
	return len(n.contents) == 0 && len(n.children) == 0
}
