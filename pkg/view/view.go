// Package view implements the transactional staging overlay of spec §4.7:
// a set of pending contents writes/deletes kept in memory against a base
// commit, an action log recording every Read/Write/List so a later rebase
// can detect divergence, and a commit (update_path) that writes the
// overlay into the store as one new commit. Grounded on
// microprolly/pkg/store/store.go's Store, whose workingState map plus
// Commit/Checkout pair plays the same role for a flat keyspace; this
// package generalizes workingState from a flat map to staged edits over
// the hierarchical node model and adds the action log microprolly's Store
// never needed (it had no concurrent-writer conflict detection).
package view

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"dagkv/pkg/branch"
	"dagkv/pkg/commit"
	"dagkv/pkg/contents"
	"dagkv/pkg/graph"
	"dagkv/pkg/id"
	"dagkv/pkg/node"
)

var (
	// ErrEmptyPath is returned by Read/Write/Delete given a zero-length path.
	ErrEmptyPath = errors.New("view: empty path")
	// ErrConcurrentUpdate is returned by Commit when the underlying handle's
	// head has moved since the view was opened or last rebased.
	ErrConcurrentUpdate = errors.New("view: branch head moved since view was opened")
	// ErrDivergentRead is returned by Rebase when a previously observed
	// read no longer matches the new base.
	ErrDivergentRead = errors.New("view: divergent read during rebase")
	// ErrMergePending is returned by Write/Delete after MergeView has
	// staged a merged root, until it is committed or discarded.
	ErrMergePending = errors.New("view: a merge is staged; commit or Discard first")
	// ErrDivergentBases is returned by MergeView when the two views were
	// not opened against the same base commit.
	ErrDivergentBases = errors.New("view: views do not share a common base")
)

// ActionKind distinguishes the three kinds of operation recorded in a
// View's action log (spec §4.7).
type ActionKind int

const (
	ActionRead ActionKind = iota
	ActionWrite
	ActionList
)

func (k ActionKind) String() string {
	switch k {
	case ActionRead:
		return "read"
	case ActionWrite:
		return "write"
	case ActionList:
		return "list"
	default:
		return "unknown"
	}
}

// Action is one entry of a View's log. Observed is only meaningful for
// ActionRead: the contents hash seen at Path at the time of the read, or
// nil if the path was absent.
type Action struct {
	Kind     ActionKind
	Path     []string
	Observed *id.Hash
}

const pathSep = "\x1f"

func encodePath(path []string) string { return strings.Join(path, pathSep) }

func decodePath(key string) []string { return strings.Split(key, pathSep) }

// View is a transactional staging overlay on top of a branch handle: a
// set of pending per-path contents writes/deletes plus the log of reads,
// writes, and lists performed through it, kept relative to a base commit
// until Commit or Rebase moves the base.
type View[V any, T comparable] struct {
	mu sync.Mutex

	handle *branch.Handle[V, T]
	g      *graph.Engine
	cap    contents.Capability[V]

	base    id.Hash
	pending map[string]*id.Hash // encoded path -> contents hash; nil = delete
	actions []Action

	// mergedRoot is set by MergeView: a fully-resolved root that Commit
	// should write as-is instead of folding pending onto base.
	mergedRoot *id.Hash
}

// Open starts a view against the handle's current head.
func Open[V any, T comparable](h *branch.Handle[V, T], g *graph.Engine, cap contents.Capability[V]) *View[V, T] {
	return &View[V, T]{
		handle:  h,
		g:       g,
		cap:     cap,
		base:    h.Head(),
		pending: make(map[string]*id.Hash),
	}
}

// Base returns the commit the view is currently staged against.
func (v *View[V, T]) Base() id.Hash {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.base
}

// Actions returns a snapshot of the view's action log.
func (v *View[V, T]) Actions() []Action {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]Action, len(v.actions))
	copy(out, v.actions)
	return out
}

func (v *View[V, T]) baseRootNode() (*id.Hash, error) {
	if v.base.IsZero() {
		return nil, nil
	}
	c, err := v.g.LoadCommit(v.base)
	if err != nil {
		return nil, err
	}
	return c.Node, nil
}

// loadNodeAtBase walks path from the base root, ignoring any pending
// overlay. ok is false if path does not resolve to a node in the base.
func (v *View[V, T]) loadNodeAtBase(path []string) (n node.Node, ok bool, err error) {
	root, err := v.baseRootNode()
	if err != nil {
		return node.Node{}, false, err
	}
	if root == nil {
		return node.Empty, len(path) == 0, nil
	}
	cur, err := v.g.LoadNode(*root)
	if err != nil {
		return node.Node{}, false, err
	}
	for _, step := range path {
		childHash, has := cur.Succ(step)
		if !has {
			return node.Node{}, false, nil
		}
		cur, err = v.g.LoadNode(childHash)
		if err != nil {
			return node.Node{}, false, err
		}
	}
	return cur, true, nil
}

// Read resolves path against the pending overlay, falling back to the
// base commit. The read is recorded in the action log so a later Rebase
// can check it hasn't been invalidated.
func (v *View[V, T]) Read(path []string) (V, bool, error) {
	var zero V
	if len(path) == 0 {
		return zero, false, ErrEmptyPath
	}
	v.mu.Lock()
	defer v.mu.Unlock()

	key := encodePath(path)
	var contentsHash *id.Hash
	if h, staged := v.pending[key]; staged {
		contentsHash = h
	} else {
		n, ok, err := v.loadNodeAtBase(path[:len(path)-1])
		if err != nil {
			return zero, false, err
		}
		if ok {
			if h, has := n.Contents(path[len(path)-1]); has {
				contentsHash = &h
			}
		}
	}

	v.actions = append(v.actions, Action{Kind: ActionRead, Path: clonePath(path), Observed: contentsHash})

	if contentsHash == nil {
		return zero, false, nil
	}
	data, ok, err := v.g.ReadContents(*contentsHash)
	if err != nil {
		return zero, false, err
	}
	if !ok {
		return zero, false, fmt.Errorf("view: contents %x missing from store", *contentsHash)
	}
	val, err := v.cap.Decode(data)
	if err != nil {
		return zero, false, err
	}
	return val, true, nil
}

// Write stages a contents edge at path, encoding val through the view's
// Contents capability.
func (v *View[V, T]) Write(path []string, val V) error {
	if len(path) == 0 {
		return ErrEmptyPath
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.mergedRoot != nil {
		return ErrMergePending
	}
	data, err := v.cap.Encode(val)
	if err != nil {
		return err
	}
	h, err := v.g.AddContents(data)
	if err != nil {
		return err
	}
	v.pending[encodePath(path)] = &h
	v.actions = append(v.actions, Action{Kind: ActionWrite, Path: clonePath(path)})
	return nil
}

// Delete stages removal of the contents edge at path.
func (v *View[V, T]) Delete(path []string) error {
	if len(path) == 0 {
		return ErrEmptyPath
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.mergedRoot != nil {
		return ErrMergePending
	}
	v.pending[encodePath(path)] = nil
	v.actions = append(v.actions, Action{Kind: ActionWrite, Path: clonePath(path)})
	return nil
}

// List returns the immediate steps present at path, folding pending
// writes/deletes over the base node's children.
func (v *View[V, T]) List(path []string) ([]string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	n, _, err := v.loadNodeAtBase(path)
	if err != nil {
		return nil, err
	}
	steps := make(map[string]struct{})
	for _, s := range n.Steps() {
		steps[s] = struct{}{}
	}
	for key, h := range v.pending {
		edit := decodePath(key)
		if len(edit) <= len(path) || !hasPrefix(edit, path) {
			continue
		}
		next := edit[len(path)]
		if h == nil && len(edit) == len(path)+1 {
			delete(steps, next)
			continue
		}
		steps[next] = struct{}{}
	}

	out := make([]string, 0, len(steps))
	for s := range steps {
		out = append(out, s)
	}
	sort.Strings(out)

	v.actions = append(v.actions, Action{Kind: ActionList, Path: clonePath(path)})
	return out, nil
}

func hasPrefix(steps, prefix []string) bool {
	for i, s := range prefix {
		if steps[i] != s {
			return false
		}
	}
	return true
}

func clonePath(path []string) []string {
	out := make([]string, len(path))
	copy(out, path)
	return out
}

// effectiveRoot folds every pending edit onto the base root, writing the
// touched nodes bottom-up (each applyAt call writes its node only after
// its recursive child call returns).
func (v *View[V, T]) effectiveRoot() (*id.Hash, error) {
	root, err := v.baseRootNode()
	if err != nil {
		return nil, err
	}
	for key, h := range v.pending {
		root, err = v.applyAt(root, decodePath(key), h)
		if err != nil {
			return nil, err
		}
	}
	return root, nil
}

func (v *View[V, T]) applyAt(root *id.Hash, steps []string, value *id.Hash) (*id.Hash, error) {
	var cur node.Node
	if root != nil {
		n, err := v.g.LoadNode(*root)
		if err != nil {
			return nil, err
		}
		cur = n
	} else {
		cur = node.Empty
	}

	if len(steps) == 1 {
		cur = cur.WithContents(steps[0], value)
	} else {
		var childPtr *id.Hash
		if h, ok := cur.Succ(steps[0]); ok {
			childPtr = &h
		}
		newChild, err := v.applyAt(childPtr, steps[1:], value)
		if err != nil {
			return nil, err
		}
		cur = cur.WithSucc(steps[0], newChild)
	}

	if cur.IsEmpty() {
		return nil, nil
	}
	h, err := v.g.AddNode(cur)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

// Commit writes every pending edit bottom-up, assembles the new root, and
// records a new commit with the view's base as sole parent, then advances
// the underlying handle. It fails with ErrConcurrentUpdate if the
// handle's head has moved since the view was opened or last rebased,
// unless force is set.
func (v *View[V, T]) Commit(task commit.Task, force bool) (id.Hash, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !force && v.handle.Head() != v.base {
		return id.Hash{}, ErrConcurrentUpdate
	}

	var root *id.Hash
	var err error
	if v.mergedRoot != nil {
		root = v.mergedRoot
	} else {
		root, err = v.effectiveRoot()
		if err != nil {
			return id.Hash{}, err
		}
	}

	var parents []id.Hash
	if !v.base.IsZero() {
		parents = []id.Hash{v.base}
	}
	_, newHead, err := v.g.CreateCommit(root, task, parents)
	if err != nil {
		return id.Hash{}, err
	}
	if err := v.handle.UpdateHead(newHead); err != nil {
		return id.Hash{}, err
	}

	v.base = newHead
	v.pending = make(map[string]*id.Hash)
	v.actions = nil
	v.mergedRoot = nil
	return newHead, nil
}

// Discard drops every pending edit and staged merge, leaving the view's
// base untouched.
func (v *View[V, T]) Discard() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.pending = make(map[string]*id.Hash)
	v.actions = nil
	v.mergedRoot = nil
}

// Rebase replays the view's recorded reads against newBase: if any read
// would now observe a different contents hash, it fails with
// ErrDivergentRead and leaves the view untouched (spec §4.7, S5). On
// success the view's base advances to newBase and its action log is
// cleared; pending edits are kept, to be folded onto the new base at the
// next Commit.
func (v *View[V, T]) Rebase(newBase id.Hash) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	for _, act := range v.actions {
		if act.Kind != ActionRead {
			continue
		}
		var now *id.Hash
		if !newBase.IsZero() {
			h, ok, err := v.g.Find(newBase, act.Path)
			if err != nil {
				return err
			}
			if ok {
				now = &h
			}
		}
		if !hashPtrEqual(now, act.Observed) {
			return fmt.Errorf("%w: path %v", ErrDivergentRead, act.Path)
		}
	}

	v.base = newBase
	v.actions = nil
	return nil
}

func hashPtrEqual(a, b *id.Hash) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// MergeView three-way merges this view's staged edits against other's,
// using their shared base as the common ancestor (spec §4.7's "merge-view
// treats self/v as two edit sequences over a common ancestor"). Both
// views must share the same base. The result replaces this view's
// pending edits with a single resolved root staged for the next Commit;
// other is left untouched.
func (v *View[V, T]) MergeView(other *View[V, T]) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	other.mu.Lock()
	defer other.mu.Unlock()

	if v.base != other.base {
		return ErrDivergentBases
	}

	baseRoot, err := v.baseRootNode()
	if err != nil {
		return err
	}
	aRoot, err := v.effectiveRoot()
	if err != nil {
		return err
	}
	bRoot, err := other.effectiveRoot()
	if err != nil {
		return err
	}

	merged, err := graph.MergeNode(v.g, v.cap, baseRoot, aRoot, bRoot)
	if err != nil {
		return err
	}

	v.mergedRoot = merged
	v.pending = make(map[string]*id.Hash)
	return nil
}
