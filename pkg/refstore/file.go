package refstore

import (
	"os"
	"path/filepath"
	"strings"

	"dagkv/pkg/id"
	"dagkv/pkg/watch"
)

// FileStore persists tag -> commit-hash refs as one file per tag under
// refsDir, grounded on microprolly/pkg/branch/manager.go's refs/heads/
// layout and atomic temp-file+rename writes. Generalized from a hardcoded
// branch string to any comparable tag type via a Codec.
type FileStore[T comparable] struct {
	refsDir string
	codec   Codec[T]
	reg     *watch.Registry[T, *id.Hash]
}

// NewFileStore opens (creating if needed) a directory of one-file-per-tag
// refs under refsDir.
func NewFileStore[T comparable](refsDir string, codec Codec[T], metricsLabel string) (*FileStore[T], error) {
	if err := os.MkdirAll(refsDir, 0755); err != nil {
		return nil, err
	}
	return &FileStore[T]{
		refsDir: refsDir,
		codec:   codec,
		reg:     watch.NewRegistry[T, *id.Hash](metricsLabel),
	}, nil
}

func (s *FileStore[T]) path(k T) string {
	return filepath.Join(s.refsDir, s.codec.Encode(k))
}

func (s *FileStore[T]) Read(k T) (id.Hash, bool, error) {
	data, err := os.ReadFile(s.path(k))
	if err != nil {
		if os.IsNotExist(err) {
			return id.Hash{}, false, nil
		}
		return id.Hash{}, false, err
	}
	h, err := id.Parse(strings.TrimSpace(string(data)))
	if err != nil {
		return id.Hash{}, false, err
	}
	return h, true, nil
}

func (s *FileStore[T]) Mem(k T) (bool, error) {
	_, ok, err := s.Read(k)
	return ok, err
}

// Update writes the ref atomically: write to a temp file in the same
// directory, fsync, then rename over the target (microprolly's
// writeBranchRef pattern).
func (s *FileStore[T]) Update(k T, v id.Hash) error {
	path := s.path(k)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".ref-tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if _, err := tmp.WriteString(v.String() + "\n"); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return err
	}

	s.reg.Notify(k, notifyValue(v, true))
	return nil
}

func (s *FileStore[T]) Remove(k T) error {
	if err := os.Remove(s.path(k)); err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return err
	}
	s.reg.Notify(k, nil)
	return nil
}

func (s *FileStore[T]) List() ([]T, error) {
	var out []T
	err := filepath.Walk(s.refsDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || strings.HasPrefix(info.Name(), ".") {
			return nil
		}
		rel, err := filepath.Rel(s.refsDir, path)
		if err != nil {
			return err
		}
		t, err := s.codec.Decode(rel)
		if err != nil {
			return nil
		}
		out = append(out, t)
		return nil
	})
	return out, err
}

func (s *FileStore[T]) Dump() (map[T]id.Hash, error) {
	tags, err := s.List()
	if err != nil {
		return nil, err
	}
	out := make(map[T]id.Hash, len(tags))
	for _, t := range tags {
		h, ok, err := s.Read(t)
		if err != nil {
			return nil, err
		}
		if ok {
			out[t] = h
		}
	}
	return out, nil
}

func (s *FileStore[T]) Watch(k T) (*watch.Subscription[*id.Hash], error) {
	h, ok, err := s.Read(k)
	if err != nil {
		return nil, err
	}
	return s.reg.Watch(k, notifyValue(h, ok), ok), nil
}

func (s *FileStore[T]) Close() error {
	s.reg.Clear()
	return nil
}
