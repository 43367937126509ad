package slice

import (
	"fmt"

	"dagkv/pkg/graph"
	"dagkv/pkg/refstore"
)

// DuplicatedTagsError is spec §7's DuplicatedTags(names): returned by
// Import when the bundle's tags collide with existing ones and the
// caller did not ask for ImportForce.
type DuplicatedTagsError[T comparable] struct {
	Names []T
}

func (e *DuplicatedTagsError[T]) Error() string {
	return fmt.Sprintf("slice: tags already exist: %v", e.Names)
}

// Import writes a bundle's contents, nodes, and commits unconditionally
// (content-addressed, hence idempotent) and its tags only if none of them
// already exist; otherwise it returns *DuplicatedTagsError without
// writing any tag.
func Import[T comparable](g *graph.Engine, refs refstore.Store[T], b *Bundle[T]) error {
	return importBundle(g, refs, b, false)
}

// ImportForce is Import but overwrites any pre-existing tags.
func ImportForce[T comparable](g *graph.Engine, refs refstore.Store[T], b *Bundle[T]) error {
	return importBundle(g, refs, b, true)
}

func importBundle[T comparable](g *graph.Engine, refs refstore.Store[T], b *Bundle[T], force bool) error {
	if !force {
		var dup []T
		for tag := range b.Tags {
			ok, err := refs.Mem(tag)
			if err != nil {
				return err
			}
			if ok {
				dup = append(dup, tag)
			}
		}
		if len(dup) > 0 {
			return &DuplicatedTagsError[T]{Names: dup}
		}
	}

	for h, data := range b.Contents {
		if err := g.AddContentsRaw(h, data); err != nil {
			return err
		}
	}
	for h, data := range b.Nodes {
		if err := g.AddNodeRaw(h, data); err != nil {
			return err
		}
	}
	for h, data := range b.Commits {
		if err := g.AddCommitRaw(h, data); err != nil {
			return err
		}
	}
	for tag, head := range b.Tags {
		if err := refs.Update(tag, head); err != nil {
			return err
		}
	}
	return nil
}
