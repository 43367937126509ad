// Package commit implements the immutable commit model (spec §4.6's data
// model is commit-oriented; the record shape itself is spec §3): a task,
// an optional root-node hash, and an ordered list of parent hashes.
// Grounded on microprolly/pkg/store/commit.go's CAS-backed commit
// manager, generalized from a single Parent hash to an ordered Parents
// slice (merge commits carry two).
package commit

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"dagkv/pkg/cas"
	"dagkv/pkg/id"
)

// Task is the user-facing metadata attached to a commit (spec §3): an
// author-supplied date/owner/messages plus a store-generated opaque uid.
type Task struct {
	Date     int64    `json:"date"`
	Owner    string   `json:"owner"`
	UID      int64    `json:"uid"`
	Messages []string `json:"messages"`
}

// NewTask stamps owner/messages with the current time and a freshly
// generated uid. uid is derived from a random UUID's leading 8 bytes
// (google/uuid, as the teacher's wider stack already depends on it for
// opaque identifiers) rather than a database-style sequence, since the
// core has no shared counter to draw from.
func NewTask(owner string, messages ...string) Task {
	u := uuid.New()
	return Task{
		Date:     time.Now().Unix(),
		Owner:    owner,
		UID:      int64(binary.BigEndian.Uint64(u[:8])),
		Messages: messages,
	}
}

// Commit is the immutable DAG node linking a root tree to its history.
// Node is absent (nil) only for the empty-history sentinel commit some
// backends use to represent "no commits yet" (spec §3).
type Commit struct {
	Task    Task
	Node    *id.Hash
	Parents []id.Hash
}

type commitJSON struct {
	Task    Task      `json:"task"`
	Node    *id.Hash  `json:"node,omitempty"`
	Parents []id.Hash `json:"parents"`
}

// Marshal serializes a commit deterministically via JSON, mirroring
// microprolly/pkg/store/commit.go's MarshalCommit.
func Marshal(c Commit) ([]byte, error) {
	return json.Marshal(commitJSON{Task: c.Task, Node: c.Node, Parents: c.Parents})
}

// Unmarshal deserializes bytes produced by Marshal.
func Unmarshal(data []byte) (Commit, error) {
	var cj commitJSON
	if err := json.Unmarshal(data, &cj); err != nil {
		return Commit{}, fmt.Errorf("commit: unmarshal: %w", err)
	}
	return Commit{Task: cj.Task, Node: cj.Node, Parents: cj.Parents}, nil
}

// ErrNotFound is returned by Manager.Get for a hash with no stored commit.
var ErrNotFound = errors.New("commit: not found")

// Manager writes and reads commits through a content-addressed store,
// grounded on microprolly's CommitManager.
type Manager struct {
	store cas.Store
}

// NewManager wraps an append-only store as a commit manager.
func NewManager(store cas.Store) *Manager {
	return &Manager{store: store}
}

// Create builds, serializes, and writes a new commit, returning it and its
// hash. The commit's hash covers the task, node, and parents (spec §3).
func (m *Manager) Create(root *id.Hash, task Task, parents []id.Hash) (Commit, id.Hash, error) {
	c := Commit{Task: task, Node: root, Parents: parents}
	data, err := Marshal(c)
	if err != nil {
		return Commit{}, id.Hash{}, err
	}
	h, err := m.store.Add(data)
	if err != nil {
		return Commit{}, id.Hash{}, err
	}
	return c, h, nil
}

// AddRaw writes already-serialized commit bytes unconditionally, for
// callers (pkg/slice) restoring a commit from an exported bundle.
func (m *Manager) AddRaw(data []byte) (id.Hash, error) {
	return m.store.Add(data)
}

// ReadRaw reads a commit's serialized bytes without decoding.
func (m *Manager) ReadRaw(h id.Hash) ([]byte, bool, error) {
	return m.store.Read(h)
}

// Get retrieves a commit by hash.
func (m *Manager) Get(h id.Hash) (Commit, error) {
	data, ok, err := m.store.Read(h)
	if err != nil {
		return Commit{}, err
	}
	if !ok {
		return Commit{}, ErrNotFound
	}
	return Unmarshal(data)
}

// FirstParentLog walks first-parent ancestry from h back to the root,
// newest first. Grounded on microprolly's single-parent Log; full
// multi-parent ancestry walks live in pkg/graph.
func (m *Manager) FirstParentLog(h id.Hash) ([]Commit, error) {
	var out []Commit
	cur := h
	for !cur.IsZero() {
		c, err := m.Get(cur)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
		if len(c.Parents) == 0 {
			break
		}
		cur = c.Parents[0]
	}
	return out, nil
}
