package branch

import (
	"errors"
	"fmt"

	"dagkv/pkg/graph"
	"dagkv/pkg/id"
	"dagkv/pkg/merge"
)

// countConflict increments the engine's merge-conflict counter only for
// a genuine combinator conflict, not an I/O error surfaced through the
// same return path.
func (h *Handle[V, T]) countConflict(err error) {
	var conflict *merge.ConflictError
	if errors.As(err, &conflict) {
		h.engine.mergeConflicts.Inc()
	}
}

// MergeHead performs the three-way merge of spec §4.6 against an
// explicit incoming head b. Returns the resulting head (which may be the
// unchanged current head on a no-op).
func (h *Handle[V, T]) MergeHead(b id.Hash) (id.Hash, error) {
	a := h.head
	if a.IsZero() {
		return h.fastForwardTo(b)
	}
	if b.IsZero() || a == b {
		return a, nil
	}

	lca, err := h.engine.graph.LCA(a, b)
	if err != nil {
		return id.Hash{}, err
	}
	if len(lca) == 0 {
		return id.Hash{}, ErrNoCommonAncestor
	}

	if len(lca) == 1 {
		base := lca[0]
		if base == b {
			// b is an ancestor of a: no-op.
			return a, nil
		}
		if base == a {
			// a is an ancestor of b: fast-forward.
			return h.fastForwardTo(b)
		}
		baseCommit, err := h.engine.graph.LoadCommit(base)
		if err != nil {
			return id.Hash{}, err
		}
		return h.threeWayMerge(baseCommit.Node, a, b)
	}

	// Multiple lowest common ancestors (criss-cross history, spec §4.4):
	// recursively merge their node states into a single virtual base via
	// the same combinators used for the real three-way merge, rather
	// than giving up immediately. Only a genuine combinator conflict
	// while folding the candidates together is reported as
	// ErrAmbiguousLCA.
	baseNode, err := h.virtualBaseNode(lca)
	if err != nil {
		h.countConflict(err)
		return id.Hash{}, fmt.Errorf("%w: %s", ErrAmbiguousLCA, err)
	}
	return h.threeWayMerge(baseNode, a, b)
}

// virtualBaseNode folds the root nodes of multiple LCA candidates into a
// single merged node via graph.MergeNode, used as the three-way merge's
// base when the LCA set is not a singleton. Candidates are combined
// pairwise with no "old" side (nil): an edge both candidates carry with the
// same value is kept, an edge only one candidate carries is kept, and an
// edge both carry with different values is a conflict.
func (h *Handle[V, T]) virtualBaseNode(lca []id.Hash) (*id.Hash, error) {
	c, err := h.engine.graph.LoadCommit(lca[0])
	if err != nil {
		return nil, err
	}
	acc := c.Node

	for _, next := range lca[1:] {
		c, err := h.engine.graph.LoadCommit(next)
		if err != nil {
			return nil, err
		}
		acc, err = graph.MergeNode(h.engine.graph, h.engine.cap, nil, acc, c.Node)
		if err != nil {
			return nil, err
		}
	}
	return acc, nil
}

// Merge performs a three-way merge against the tip of another tag.
func (h *Handle[V, T]) Merge(other T) (id.Hash, error) {
	b, ok, err := h.engine.refs.Read(other)
	if err != nil {
		return id.Hash{}, err
	}
	if !ok {
		return h.head, nil
	}
	return h.MergeHead(b)
}

func (h *Handle[V, T]) fastForwardTo(b id.Hash) (id.Hash, error) {
	if err := h.UpdateHead(b); err != nil {
		return id.Hash{}, err
	}
	h.engine.fastForwards.Inc()
	return b, nil
}

// threeWayMerge merges a and b's commit trees against an explicit base
// root node (which may itself be a virtual node synthesized from
// multiple LCA candidates, see virtualBaseNode).
func (h *Handle[V, T]) threeWayMerge(baseNode *id.Hash, a, b id.Hash) (id.Hash, error) {
	aCommit, err := h.engine.graph.LoadCommit(a)
	if err != nil {
		return id.Hash{}, err
	}
	bCommit, err := h.engine.graph.LoadCommit(b)
	if err != nil {
		return id.Hash{}, err
	}

	mergedRoot, err := graph.MergeNode(h.engine.graph, h.engine.cap, baseNode, aCommit.Node, bCommit.Node)
	if err != nil {
		h.countConflict(err)
		return id.Hash{}, err
	}

	_, newCommit, err := h.engine.graph.CreateCommit(mergedRoot, h.task, []id.Hash{a, b})
	if err != nil {
		return id.Hash{}, err
	}

	if err := h.UpdateHead(newCommit); err != nil {
		return id.Hash{}, err
	}
	return newCommit, nil
}
