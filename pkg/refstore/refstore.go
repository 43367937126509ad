// Package refstore implements the mutable name store (spec §4.2): a
// read/write map from a branch tag to the commit hash it currently names,
// with per-key watchers. Grounded on microprolly/pkg/branch, generalized
// from a hardcoded string branch name to any comparable tag type.
package refstore

import (
	"errors"

	"dagkv/pkg/id"
	"dagkv/pkg/watch"
)

// ErrNotFound is returned by Remove when the tag has no entry; Read reports
// a missing tag with ok=false instead.
var ErrNotFound = errors.New("refstore: tag not found")

// Store is the mutable name store capability (spec §4.2). update is an
// unconditional write; callers needing compare-and-swap semantics (the
// branch and view engines) implement optimistic retry on top by re-reading
// before writing.
type Store[T comparable] interface {
	Read(k T) (id.Hash, bool, error)
	Mem(k T) (bool, error)
	Update(k T, v id.Hash) error
	Remove(k T) error
	List() ([]T, error)
	Dump() (map[T]id.Hash, error)

	// Watch returns a subscription delivering every subsequent value the
	// tag takes, including absence (nil) after a Remove. The current
	// value, if any, is delivered first.
	Watch(k T) (*watch.Subscription[*id.Hash], error)

	Close() error
}

// notifyValue converts a Read result into the optional-pointer shape the
// watch registry delivers.
func notifyValue(h id.Hash, ok bool) *id.Hash {
	if !ok {
		return nil
	}
	v := h
	return &v
}
