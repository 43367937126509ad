// Package slice implements bounded subgraph export/import (spec §4.8): a
// self-contained bundle of the commits reachable from a set of heads,
// optionally with every node and contents value they transitively
// reference, plus the current tag map. Grounded on microprolly's
// pkg/store/commit.go Log traversal (follow reachable commits from a
// head), generalized from a single-parent chain to the bounded
// multi-parent walk pkg/graph already implements; chunking the resulting
// bundle into wire frames is pkg/chunker's job, not this package's (see
// Wire in this package).
package slice

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"dagkv/pkg/graph"
	"dagkv/pkg/id"
	"dagkv/pkg/node"
	"dagkv/pkg/refstore"
)

// Bundle is the four-store multimap of spec §4.8/§6: every exported
// contents/node/commit keyed by hash, plus the tag map. Encoding of each
// value is whatever the backing AO store already produced; Bundle copies
// bytes, it never decodes them.
type Bundle[T comparable] struct {
	Contents map[id.Hash][]byte
	Nodes    map[id.Hash][]byte
	Commits  map[id.Hash][]byte
	Tags     map[T]id.Hash
}

// ExportOptions bounds a slice export (spec §4.8).
type ExportOptions struct {
	// Full, if true, includes every node and contents value transitively
	// referenced by the exported commits. Defaults to true via
	// DefaultExportOptions.
	Full bool
	// Depth bounds the number of edges walked from Max. Nil is unbounded.
	Depth *int
	// Min is a frontier of hashes that terminate the walk without being
	// expanded further.
	Min []id.Hash
	// Max is the set of roots to walk from. Empty means "current heads",
	// read from the ref store at export time.
	Max []id.Hash
}

// DefaultExportOptions returns Full: true with everything else unbounded.
func DefaultExportOptions() ExportOptions {
	return ExportOptions{Full: true}
}

// Export produces a Bundle of the commits reachable from opts.Max (or the
// ref store's current heads if empty), bounded by opts.Depth and
// opts.Min, with every referenced node and contents value included when
// opts.Full is set.
func Export[T comparable](ctx context.Context, g *graph.Engine, refs refstore.Store[T], opts ExportOptions) (*Bundle[T], error) {
	max := opts.Max
	if len(max) == 0 {
		heads, err := refs.Dump()
		if err != nil {
			return nil, err
		}
		for _, h := range heads {
			max = append(max, h)
		}
	}

	minSet := make(map[id.Hash]bool, len(opts.Min))
	for _, h := range opts.Min {
		minSet[h] = true
	}

	commitHashes, err := g.Walk(ctx, max, graph.WalkOptions{Mode: graph.ModeHistory, Depth: opts.Depth, Min: minSet})
	if err != nil {
		return nil, err
	}

	bundle := &Bundle[T]{
		Contents: make(map[id.Hash][]byte),
		Nodes:    make(map[id.Hash][]byte),
		Commits:  make(map[id.Hash][]byte, len(commitHashes)),
	}
	for h := range commitHashes {
		data, ok, err := g.ReadCommitRaw(h)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("slice: commit %x missing from store", h)
		}
		bundle.Commits[h] = data
	}

	if opts.Full {
		nodeHashes, contentHashes, err := subtreeHashes(ctx, g, commitHashes)
		if err != nil {
			return nil, err
		}
		for h := range nodeHashes {
			data, ok, err := g.ReadNodeRaw(h)
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, fmt.Errorf("slice: node %x missing from store", h)
			}
			bundle.Nodes[h] = data
		}
		for h := range contentHashes {
			data, ok, err := g.ReadContents(h)
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, fmt.Errorf("slice: contents %x missing from store", h)
			}
			bundle.Contents[h] = data
		}
	}

	tags, err := refs.Dump()
	if err != nil {
		return nil, err
	}
	bundle.Tags = tags

	return bundle, nil
}

// subtreeHashes walks every exported commit's root node tree, fanning out
// with errgroup the way pkg/graph's own Walk does, splitting the result
// into node hashes and contents hashes (graph.Walk keeps them in one set,
// which loses the distinction slice needs to know which store to read
// from).
func subtreeHashes(ctx context.Context, g *graph.Engine, commitHashes map[id.Hash]bool) (nodeHashes, contentHashes map[id.Hash]bool, err error) {
	visited := &sync.Map{}
	var mu sync.Mutex
	nodeHashes = make(map[id.Hash]bool)
	contentHashes = make(map[id.Hash]bool)

	eg, ctx := errgroup.WithContext(ctx)
	for h := range commitHashes {
		h := h
		eg.Go(func() error {
			c, err := g.LoadCommit(h)
			if err != nil {
				return err
			}
			if c.Node == nil {
				return nil
			}
			return walkSubtree(ctx, eg, g, *c.Node, visited, &mu, nodeHashes, contentHashes)
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, nil, err
	}
	return nodeHashes, contentHashes, nil
}

func walkSubtree(
	ctx context.Context,
	eg *errgroup.Group,
	g *graph.Engine,
	h id.Hash,
	visited *sync.Map,
	mu *sync.Mutex,
	nodeHashes, contentHashes map[id.Hash]bool,
) error {
	if _, already := visited.LoadOrStore(h, true); already {
		return nil
	}
	mu.Lock()
	nodeHashes[h] = true
	mu.Unlock()

	n, err := g.LoadNode(h)
	if err != nil {
		return err
	}
	for _, edge := range n.Edges() {
		edge := edge
		if edge.Kind == node.KindContents {
			mu.Lock()
			contentHashes[edge.Hash] = true
			mu.Unlock()
			continue
		}
		eg.Go(func() error { return walkSubtree(ctx, eg, g, edge.Hash, visited, mu, nodeHashes, contentHashes) })
	}
	return nil
}
