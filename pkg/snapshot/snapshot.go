// Package snapshot implements the read-only pin of spec §4.9: a frozen
// commit hash paired with a read-through view over it, plus the three
// operations that relate a snapshot back to a live handle (revert, merge)
// and the live-update stream that turns name-store watch notifications
// into a sequence of fresh snapshots. Grounded on pkg/view's read-through
// node navigation, stripped of the pending overlay and action log a
// frozen pin has no use for, and on pkg/branch's MergeHead/UpdateHead for
// revert/merge.
package snapshot

import (
	"fmt"
	"sort"

	"dagkv/pkg/branch"
	"dagkv/pkg/contents"
	"dagkv/pkg/graph"
	"dagkv/pkg/id"
	"dagkv/pkg/node"
	"dagkv/pkg/watch"
)

// Snapshot is a frozen commit hash with read-only traversal over its
// tree. It never mutates the backing store or any handle.
type Snapshot[V any, T comparable] struct {
	g    *graph.Engine
	cap  contents.Capability[V]
	head id.Hash
}

// Open pins a snapshot at head. A zero head is a valid empty snapshot.
func Open[V any, T comparable](g *graph.Engine, cap contents.Capability[V], head id.Hash) *Snapshot[V, T] {
	return &Snapshot[V, T]{g: g, cap: cap, head: head}
}

// Of pins a snapshot at the handle's current head.
func Of[V any, T comparable](e *branch.Engine[V, T], h *branch.Handle[V, T]) *Snapshot[V, T] {
	return Open[V, T](e.Graph(), e.Capability(), h.Head())
}

// Head returns the commit this snapshot is frozen at.
func (s *Snapshot[V, T]) Head() id.Hash { return s.head }

func (s *Snapshot[V, T]) rootNode() (*id.Hash, error) {
	if s.head.IsZero() {
		return nil, nil
	}
	c, err := s.g.LoadCommit(s.head)
	if err != nil {
		return nil, err
	}
	return c.Node, nil
}

func (s *Snapshot[V, T]) loadNode(path []string) (n node.Node, ok bool, err error) {
	root, err := s.rootNode()
	if err != nil {
		return node.Node{}, false, err
	}
	if root == nil {
		return node.Empty, len(path) == 0, nil
	}
	cur, err := s.g.LoadNode(*root)
	if err != nil {
		return node.Node{}, false, err
	}
	for _, step := range path {
		childHash, has := cur.Succ(step)
		if !has {
			return node.Node{}, false, nil
		}
		cur, err = s.g.LoadNode(childHash)
		if err != nil {
			return node.Node{}, false, err
		}
	}
	return cur, true, nil
}

// Find resolves path against the frozen tree (spec §4.4), decoding
// through the snapshot's contents capability.
func (s *Snapshot[V, T]) Find(path []string) (V, bool, error) {
	var zero V
	if len(path) == 0 {
		return zero, false, nil
	}
	n, ok, err := s.loadNode(path[:len(path)-1])
	if err != nil {
		return zero, false, err
	}
	if !ok {
		return zero, false, nil
	}
	h, has := n.Contents(path[len(path)-1])
	if !has {
		return zero, false, nil
	}
	data, ok, err := s.g.ReadContents(h)
	if err != nil {
		return zero, false, err
	}
	if !ok {
		return zero, false, fmt.Errorf("snapshot: contents %x missing from store", h)
	}
	return s.cap.Decode(data)
}

// List returns the immediate steps present at path in the frozen tree.
func (s *Snapshot[V, T]) List(path []string) ([]string, error) {
	n, ok, err := s.loadNode(path)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	out := n.Steps()
	sort.Strings(out)
	return out, nil
}

// Revert performs spec §4.9's revert: an unconditional update_head on h to
// this snapshot's frozen commit.
func (s *Snapshot[V, T]) Revert(h *branch.Handle[V, T]) error {
	return h.UpdateHead(s.head)
}

// Merge performs spec §4.9's merge: a three-way merge of h's current head
// against this snapshot's commit as the incoming side.
func (s *Snapshot[V, T]) Merge(h *branch.Handle[V, T]) (id.Hash, error) {
	return h.MergeHead(s.head)
}

// Pair is one element of a watch stream: the tag that changed, and a
// fresh snapshot pinned at its new head (spec §4.9: "lazy sequence of
// (k, snapshot) pairs").
type Pair[V any, T comparable] struct {
	Tag      T
	Snapshot *Snapshot[V, T]
}

// Stream turns a name-store watch subscription into a lazy sequence of
// Pairs, each snapshot pinned at the head the tag held at that
// notification.
type Stream[V any, T comparable] struct {
	engine *branch.Engine[V, T]
	tag    T
	sub    *watch.Subscription[*id.Hash]
}

// Watch subscribes to tag, delivering the current head first (if any)
// then every subsequent change as a Pair (spec §4.9, §4.10).
func Watch[V any, T comparable](e *branch.Engine[V, T], tag T) (*Stream[V, T], error) {
	sub, err := e.Refs().Watch(tag)
	if err != nil {
		return nil, err
	}
	return &Stream[V, T]{engine: e, tag: tag, sub: sub}, nil
}

// Next blocks for the stream's next Pair. ok is false once the stream has
// been closed and drained.
func (s *Stream[V, T]) Next() (Pair[V, T], bool) {
	h, ok := <-s.sub.Values
	if !ok {
		return Pair[V, T]{}, false
	}
	var head id.Hash
	if h != nil {
		head = *h
	}
	return Pair[V, T]{Tag: s.tag, Snapshot: Open[V, T](s.engine.Graph(), s.engine.Capability(), head)}, true
}

// Close drops the underlying watch subscription.
func (s *Stream[V, T]) Close() { s.sub.Close() }
