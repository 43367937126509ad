package graph

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"dagkv/pkg/id"
	"dagkv/pkg/node"
)

// Mode selects what a Walk enumerates (spec §4.4).
type Mode int

const (
	// ModeFull walks commits -> nodes -> contents.
	ModeFull Mode = iota
	// ModeHistory walks commits -> parent commits only.
	ModeHistory
)

// WalkOptions bounds a reachability walk (spec §4.4): Depth limits edges
// traversed from the roots (nil = unbounded); Min is a frontier of hashes
// that terminate the walk without being expanded further.
type WalkOptions struct {
	Mode  Mode
	Depth *int
	Min   map[id.Hash]bool
}

// Walk enumerates every hash reachable from roots, visiting each at most
// once, fanning child fetches out concurrently with errgroup
// (golang.org/x/sync/errgroup) since each edge's I/O is independent.
func (e *Engine) Walk(ctx context.Context, roots []id.Hash, opts WalkOptions) (map[id.Hash]bool, error) {
	visited := &sync.Map{}
	var mu sync.Mutex
	result := make(map[id.Hash]bool)

	g, ctx := errgroup.WithContext(ctx)
	for _, r := range roots {
		r := r
		g.Go(func() error { return e.walkOne(ctx, g, r, 0, opts, visited, &mu, result) })
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}

func (e *Engine) walkOne(
	ctx context.Context,
	g *errgroup.Group,
	h id.Hash,
	depthSoFar int,
	opts WalkOptions,
	visited *sync.Map,
	mu *sync.Mutex,
	result map[id.Hash]bool,
) error {
	if _, already := visited.LoadOrStore(h, true); already {
		return nil
	}

	mu.Lock()
	result[h] = true
	mu.Unlock()

	if opts.Min[h] {
		return nil
	}
	if opts.Depth != nil && depthSoFar >= *opts.Depth {
		return nil
	}

	switch opts.Mode {
	case ModeHistory:
		c, err := e.LoadCommit(h)
		if err != nil {
			return err
		}
		for _, p := range c.Parents {
			p := p
			g.Go(func() error { return e.walkOne(ctx, g, p, depthSoFar+1, opts, visited, mu, result) })
		}
		return nil

	default: // ModeFull
		c, err := e.LoadCommit(h)
		if err != nil {
			return err
		}
		if c.Node != nil {
			nh := *c.Node
			g.Go(func() error { return e.walkNode(ctx, g, nh, depthSoFar+1, opts, visited, mu, result) })
		}
		for _, p := range c.Parents {
			p := p
			g.Go(func() error { return e.walkOne(ctx, g, p, depthSoFar+1, opts, visited, mu, result) })
		}
		return nil
	}
}

func (e *Engine) walkNode(
	ctx context.Context,
	g *errgroup.Group,
	h id.Hash,
	depthSoFar int,
	opts WalkOptions,
	visited *sync.Map,
	mu *sync.Mutex,
	result map[id.Hash]bool,
) error {
	if _, already := visited.LoadOrStore(h, true); already {
		return nil
	}

	mu.Lock()
	result[h] = true
	mu.Unlock()

	if opts.Min[h] {
		return nil
	}
	if opts.Depth != nil && depthSoFar >= *opts.Depth {
		return nil
	}

	n, err := e.LoadNode(h)
	if err != nil {
		return err
	}
	for _, edge := range n.Edges() {
		edge := edge
		mu.Lock()
		result[edge.Hash] = true
		mu.Unlock()
		if edge.Kind == node.KindChild {
			g.Go(func() error { return e.walkNode(ctx, g, edge.Hash, depthSoFar+1, opts, visited, mu, result) })
		}
	}
	return nil
}
