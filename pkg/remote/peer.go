package remote

import (
	"context"

	"dagkv/pkg/branch"
	"dagkv/pkg/refstore"
	"dagkv/pkg/slice"
)

// Peer is an in-process Remote Capability backed by another store's
// branch.Engine, standing in for an actual network transport (out of
// scope per spec §1). uri decodes (via codec) directly to the tag T
// being synced; Fetch copies a slice bundle from remote into local,
// Push the reverse, each applying spec §4.8's head-selection rule:
// prefer the tag's own head in the transferred bundle, falling back to
// whatever the destination already holds for that tag, and finally to
// any tag the bundle carried at all.
type Peer[V any, T comparable] struct {
	local  *branch.Engine[V, T]
	remote *branch.Engine[V, T]
	codec  refstore.Codec[T]
}

// NewPeer builds a Peer syncing between local and remote.
func NewPeer[V any, T comparable](local, remote *branch.Engine[V, T], codec refstore.Codec[T]) *Peer[V, T] {
	return &Peer[V, T]{local: local, remote: remote, codec: codec}
}

// Fetch imports a bundle exported from the remote engine into the local
// one and reports the resulting head for uri's tag.
func (p *Peer[V, T]) Fetch(config Config, uri string, depth *int) (*string, error) {
	tag, err := p.codec.Decode(uri)
	if err != nil {
		return nil, err
	}
	bundle, err := slice.Export[T](context.Background(), p.remote.Graph(), p.remote.Refs(), slice.ExportOptions{Full: true, Depth: depth})
	if err != nil {
		return nil, err
	}
	if err := slice.ImportForce[T](p.local.Graph(), p.local.Refs(), bundle); err != nil {
		return nil, err
	}
	return resolveHead(tag, bundle, p.local.Refs())
}

// Push imports a bundle exported from the local engine into the remote
// one and reports the resulting head for uri's tag.
func (p *Peer[V, T]) Push(config Config, uri string, depth *int) (*string, error) {
	tag, err := p.codec.Decode(uri)
	if err != nil {
		return nil, err
	}
	bundle, err := slice.Export[T](context.Background(), p.local.Graph(), p.local.Refs(), slice.ExportOptions{Full: true, Depth: depth})
	if err != nil {
		return nil, err
	}
	if err := slice.ImportForce[T](p.remote.Graph(), p.remote.Refs(), bundle); err != nil {
		return nil, err
	}
	return resolveHead(tag, bundle, p.remote.Refs())
}

// resolveHead applies spec §4.8's fetch head-selection rule: the
// transferred bundle's own entry for tag, else whatever dst already
// holds for tag, else any tag the bundle carried.
func resolveHead[T comparable](tag T, bundle *slice.Bundle[T], dst refstore.Store[T]) (*string, error) {
	if head, ok := bundle.Tags[tag]; ok {
		s := head.String()
		return &s, nil
	}
	if head, ok, err := dst.Read(tag); err != nil {
		return nil, err
	} else if ok {
		s := head.String()
		return &s, nil
	}
	for _, head := range bundle.Tags {
		s := head.String()
		return &s, nil
	}
	return nil, nil
}
