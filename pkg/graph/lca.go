package graph

import "dagkv/pkg/id"

// ancestors returns h and every commit reachable by following Parents
// transitively, via BFS, along with each commit's distance from h.
func (e *Engine) ancestors(h id.Hash) (map[id.Hash]int, error) {
	dist := map[id.Hash]int{h: 0}
	queue := []id.Hash{h}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		c, err := e.LoadCommit(cur)
		if err != nil {
			return nil, err
		}
		for _, p := range c.Parents {
			if _, seen := dist[p]; seen {
				continue
			}
			dist[p] = dist[cur] + 1
			queue = append(queue, p)
		}
	}
	return dist, nil
}

// IsAncestor reports whether anc is a (reflexive) ancestor of h.
func (e *Engine) IsAncestor(anc, h id.Hash) (bool, error) {
	dist, err := e.ancestors(h)
	if err != nil {
		return false, err
	}
	_, ok := dist[anc]
	return ok, nil
}

// LCA computes the lowest-common-ancestor set of two commits (spec §4.4):
// BFS ancestor sets for both, intersect, then keep only commits in the
// intersection that have no descendant also in the intersection.
func (e *Engine) LCA(a, b id.Hash) ([]id.Hash, error) {
	distA, err := e.ancestors(a)
	if err != nil {
		return nil, err
	}
	distB, err := e.ancestors(b)
	if err != nil {
		return nil, err
	}

	intersection := make(map[id.Hash]bool)
	for h := range distA {
		if _, ok := distB[h]; ok {
			intersection[h] = true
		}
	}
	if len(intersection) == 0 {
		return nil, nil
	}

	// A commit in the intersection is dominated (not an LCA) if one of
	// its own ancestors (other than itself) is also in the intersection:
	// that ancestor has a descendant (this commit) inside the set.
	result := make([]id.Hash, 0, len(intersection))
	for h := range intersection {
		dominated, err := e.hasDescendantIn(h, intersection)
		if err != nil {
			return nil, err
		}
		if !dominated {
			result = append(result, h)
		}
	}
	return result, nil
}

// hasDescendantIn reports whether any other member of set is a strict
// descendant of h, i.e. h is a strict ancestor of some other member.
func (e *Engine) hasDescendantIn(h id.Hash, set map[id.Hash]bool) (bool, error) {
	for other := range set {
		if other == h {
			continue
		}
		dist, err := e.ancestors(other)
		if err != nil {
			return false, err
		}
		if d, ok := dist[h]; ok && d > 0 {
			return true, nil
		}
	}
	return false, nil
}
