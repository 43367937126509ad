package graph

import (
	"dagkv/pkg/cas"
	"dagkv/pkg/contents"
	"dagkv/pkg/id"
	"dagkv/pkg/merge"
	"dagkv/pkg/node"
)

// MergeNode implements spec §4.5's node merge: sorted_map over edges with
// option(contents_merge) for contents edges and a recursive node merge for
// child edges. old/a/b are optional node hashes (nil = node absent, e.g.
// a fresh key under a new root). The contents capability decodes/encodes
// leaf values and supplies their merge function; child edges recurse
// through MergeNode itself (spec §4.5's apply(lambda -> m) knot-tying,
// realized here as an ordinary recursive call since Go needs no
// deferred-thunk trick for this).
func MergeNode[V any](e *Engine, cap contents.Capability[V], old, a, b *id.Hash) (*id.Hash, error) {
	oldN, err := e.loadOptionalNode(old)
	if err != nil {
		return nil, err
	}
	aN, err := e.loadOptionalNode(a)
	if err != nil {
		return nil, err
	}
	bN, err := e.loadOptionalNode(b)
	if err != nil {
		return nil, err
	}

	if oldN == nil && aN == nil && bN == nil {
		return nil, nil
	}

	oldContents, oldChildren := edgeMaps(oldN)
	aContents, aChildren := edgeMaps(aN)
	bContents, bChildren := edgeMaps(bN)

	contentsHashMerge := merge.Func[id.Hash](func(oldH, aH, bH id.Hash) (id.Hash, error) {
		return mergeContentsHash(e, cap, oldH, aH, bH)
	})
	mergedContents, err := merge.AssocList[string, id.Hash](contentsHashMerge)(oldContents, aContents, bContents)
	if err != nil {
		return nil, err
	}

	mergedChildren, err := mergeChildren(e, cap, oldChildren, aChildren, bChildren)
	if err != nil {
		return nil, err
	}

	merged := node.Create(mergedContents, mergedChildren)
	if merged.IsEmpty() {
		return nil, nil
	}
	h, err := e.AddNode(merged)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

// mergeContentsHash merges the decoded values behind two contents-edge
// hashes, re-encoding and storing the result. Equal hashes short-circuit
// without touching the contents store, mirroring
// microprolly/pkg/tree/diff.go's early exit on matching hashes.
func mergeContentsHash[V any](e *Engine, cap contents.Capability[V], old, a, b id.Hash) (id.Hash, error) {
	if a == b {
		return a, nil
	}
	if a == old {
		return b, nil
	}
	if b == old {
		return a, nil
	}

	oldV, err := loadDecode(e, cap, old)
	if err != nil {
		return id.Hash{}, err
	}
	aV, err := loadDecode(e, cap, a)
	if err != nil {
		return id.Hash{}, err
	}
	bV, err := loadDecode(e, cap, b)
	if err != nil {
		return id.Hash{}, err
	}

	merged, err := cap.Merge(oldV, aV, bV)
	if err != nil {
		return id.Hash{}, err
	}
	data, err := cap.Encode(merged)
	if err != nil {
		return id.Hash{}, err
	}
	return e.contentsStore.Add(data)
}

func loadDecode[V any](e *Engine, cap contents.Capability[V], h id.Hash) (V, error) {
	var zero V
	data, ok, err := e.contentsStore.Read(h)
	if err != nil {
		return zero, err
	}
	if !ok {
		return zero, cas.ErrNotFound
	}
	return cap.Decode(data)
}

func edgeMaps(n *node.Node) (contentsEdges, childEdges map[string]id.Hash) {
	if n == nil {
		return nil, nil
	}
	contentsEdges = make(map[string]id.Hash)
	childEdges = make(map[string]id.Hash)
	for _, edge := range n.Edges() {
		switch edge.Kind {
		case node.KindContents:
			contentsEdges[edge.Step] = edge.Hash
		case node.KindChild:
			childEdges[edge.Step] = edge.Hash
		}
	}
	return contentsEdges, childEdges
}

func (e *Engine) loadOptionalNode(h *id.Hash) (*node.Node, error) {
	if h == nil {
		return nil, nil
	}
	n, err := e.LoadNode(*h)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// mergeChildren recursively merges child edges keyed by step.
func mergeChildren[V any](e *Engine, cap contents.Capability[V], old, a, b map[string]id.Hash) (map[string]id.Hash, error) {
	steps := make(map[string]struct{})
	for k := range old {
		steps[k] = struct{}{}
	}
	for k := range a {
		steps[k] = struct{}{}
	}
	for k := range b {
		steps[k] = struct{}{}
	}

	out := make(map[string]id.Hash, len(steps))
	for step := range steps {
		oldH := hashPtr(old, step)
		aH := hashPtr(a, step)
		bH := hashPtr(b, step)

		merged, err := MergeNode(e, cap, oldH, aH, bH)
		if err != nil {
			return nil, merge.Conflict("child %q: %s", step, err)
		}
		if merged != nil {
			out[step] = *merged
		}
	}
	return out, nil
}

func hashPtr(m map[string]id.Hash, k string) *id.Hash {
	if m == nil {
		return nil
	}
	v, ok := m[k]
	if !ok {
		return nil
	}
	return &v
}
