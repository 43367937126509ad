// Package branch implements the branch engine (spec §4.6): attached and
// detached handles over a mutable tag, three-way merge, and clone.
// Grounded on microprolly/pkg/branch's BranchManager/HeadManager, which
// this package supersedes: their single hardcoded string branch and
// single-parent commit model are generalized here into a handle
// parameterized by any comparable tag type T and a user Contents
// capability V, composed from pkg/refstore (tag storage + watch),
// pkg/commit (records), and pkg/graph (path lookup, LCA, node merge).
package branch

import (
	"github.com/prometheus/client_golang/prometheus"

	"dagkv/pkg/commit"
	"dagkv/pkg/contents"
	"dagkv/pkg/graph"
	"dagkv/pkg/id"
	"dagkv/pkg/refstore"
)

// Engine is the shared backing for every handle on a store: the tag
// store, the graph engine, and the contents capability used for merges.
type Engine[V any, T comparable] struct {
	refs  refstore.Store[T]
	graph *graph.Engine
	cap   contents.Capability[V]

	mergeConflicts prometheus.Counter
	fastForwards   prometheus.Counter
}

// New builds a branch engine. cap supplies the leaf-value codec and merge
// used by every handle's three-way merges. metricsLabel namespaces the
// engine's Prometheus counters the way watch.NewRegistry's does, so a
// process hosting multiple engines (one per store) can tell them apart.
func New[V any, T comparable](refs refstore.Store[T], g *graph.Engine, cap contents.Capability[V], metricsLabel string) *Engine[V, T] {
	return &Engine[V, T]{
		refs:  refs,
		graph: g,
		cap:   cap,
		mergeConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "dagkv_branch_merge_conflicts_total",
			Help:        "Total three-way merges that ended in a combinator conflict.",
			ConstLabels: prometheus.Labels{"engine": metricsLabel},
		}),
		fastForwards: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "dagkv_branch_fast_forwards_total",
			Help:        "Total merges resolved by fast-forwarding a head rather than merging.",
			ConstLabels: prometheus.Labels{"engine": metricsLabel},
		}),
	}
}

// Collectors returns the engine's Prometheus collectors for the caller to
// register with its own registerer.
func (e *Engine[V, T]) Collectors() []prometheus.Collector {
	return []prometheus.Collector{e.mergeConflicts, e.fastForwards}
}

// Handle is a session-scoped view of the engine: either attached to a
// tag (branch) or detached and pinned to a specific commit (spec §4.6).
type Handle[V any, T comparable] struct {
	engine *Engine[V, T]
	task   commit.Task
	tag    *T
	head   id.Hash
}

// OfTag returns an attached handle on tag. The tag is not created until
// the handle's head is first updated; reading an absent tag simply
// yields a zero head (spec §4.6: "creates T absent").
func (e *Engine[V, T]) OfTag(task commit.Task, tag T) (*Handle[V, T], error) {
	h, _, err := e.refs.Read(tag)
	if err != nil {
		return nil, err
	}
	return &Handle[V, T]{engine: e, task: task, tag: &tag, head: h}, nil
}

// OfHead returns a detached handle pinned to commit h.
func (e *Engine[V, T]) OfHead(task commit.Task, h id.Hash) *Handle[V, T] {
	return &Handle[V, T]{engine: e, task: task, tag: nil, head: h}
}

// Tag returns the handle's branch name, or ok=false if detached.
func (h *Handle[V, T]) Tag() (T, bool) {
	if h.tag == nil {
		var zero T
		return zero, false
	}
	return *h.tag, true
}

// Head returns the handle's current tip commit hash.
func (h *Handle[V, T]) Head() id.Hash { return h.head }

// UpdateTag creates a new tag at the handle's current head. It fails with
// ErrDuplicatedTag if the tag already has an entry (spec §4.6).
func (h *Handle[V, T]) UpdateTag(tag T) error {
	if ok, err := h.engine.refs.Mem(tag); err != nil {
		return err
	} else if ok {
		return ErrDuplicatedTag
	}
	return h.engine.refs.Update(tag, h.head)
}

// UpdateTagForce creates or overwrites tag at the handle's current head.
func (h *Handle[V, T]) UpdateTagForce(tag T) error {
	return h.engine.refs.Update(tag, h.head)
}

// Switch repoints this handle at an existing tag, independent of any
// lineage relationship to the handle's previous head (spec §4.6).
func (h *Handle[V, T]) Switch(tag T) error {
	head, _, err := h.engine.refs.Read(tag)
	if err != nil {
		return err
	}
	h.tag = &tag
	h.head = head
	return nil
}

// Detach drops the handle's branch association while keeping its current
// head.
func (h *Handle[V, T]) Detach() {
	h.tag = nil
}

// UpdateHead writes the branch pointer unconditionally if attached, or
// just pins the handle's local head if detached (spec §4.6).
func (h *Handle[V, T]) UpdateHead(newHead id.Hash) error {
	if h.tag != nil {
		if err := h.engine.refs.Update(*h.tag, newHead); err != nil {
			return err
		}
	}
	h.head = newHead
	return nil
}

// Clone creates a new tag at the handle's current head without moving
// the handle itself. Fails with ErrDuplicatedTag if the target exists.
func (h *Handle[V, T]) Clone(tag T) error {
	if ok, err := h.engine.refs.Mem(tag); err != nil {
		return err
	} else if ok {
		return ErrDuplicatedTag
	}
	return h.engine.refs.Update(tag, h.head)
}

// CloneForce creates or overwrites tag at the handle's current head.
func (h *Handle[V, T]) CloneForce(tag T) error {
	return h.engine.refs.Update(tag, h.head)
}

// Refs returns the engine's underlying tag store, for callers (pkg/slice)
// that need to read or write tags directly rather than through a handle.
func (e *Engine[V, T]) Refs() refstore.Store[T] { return e.refs }

// Graph returns the engine's underlying graph engine, for callers
// (pkg/slice, pkg/snapshot) that operate below the handle/tag level.
func (e *Engine[V, T]) Graph() *graph.Engine { return e.graph }

// Capability returns the engine's contents codec, for callers
// (pkg/snapshot) that decode leaf values without going through a handle.
func (e *Engine[V, T]) Capability() contents.Capability[V] { return e.cap }

// Heads returns every known tag's current tip.
func (h *Handle[V, T]) Heads() (map[T]id.Hash, error) {
	return h.engine.refs.Dump()
}

// Find performs a path lookup from the handle's current head (spec §4.4).
func (h *Handle[V, T]) Find(keyPath []string) (id.Hash, bool, error) {
	if h.head.IsZero() {
		return id.Hash{}, false, nil
	}
	return h.engine.graph.Find(h.head, keyPath)
}
