package branch

import "errors"

var (
	// ErrDuplicatedTag is returned by UpdateTag/Clone when the target tag
	// already has an entry (spec §4.6).
	ErrDuplicatedTag = errors.New("branch: tag already exists")
	// ErrDetached reports a handle with no tag. UpdateTag and Merge accept
	// detached handles, and no operation in this package returns it.
	ErrDetached = errors.New("branch: handle is detached")
	// ErrNoCommonAncestor is returned by a three-way merge whose two
	// heads share no common ancestor.
	ErrNoCommonAncestor = errors.New("branch: no common ancestor")
	// ErrAmbiguousLCA is returned when more than one lowest common
	// ancestor exists and the merge cannot disambiguate (spec §4.4).
	ErrAmbiguousLCA = errors.New("branch: ambiguous lowest common ancestor")
)
