package refstore

import (
	"path/filepath"

	"dagkv/pkg/id"
	"dagkv/pkg/watch"
	bolt "go.etcd.io/bbolt"
)

var refsBucket = []byte("refs")

// BoltStore persists tag -> commit-hash refs in a single bbolt bucket,
// grounded on cuemby-warren/pkg/storage/boltdb.go's bucket-per-kind
// layout.
type BoltStore[T comparable] struct {
	db    *bolt.DB
	codec Codec[T]
	reg   *watch.Registry[T, *id.Hash]
}

// NewBoltStore opens (creating if needed) a bbolt-backed name store at
// filepath.Join(dataDir, name).
func NewBoltStore[T comparable](dataDir, name string, codec Codec[T], metricsLabel string) (*BoltStore[T], error) {
	db, err := bolt.Open(filepath.Join(dataDir, name), 0600, nil)
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(refsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &BoltStore[T]{db: db, codec: codec, reg: watch.NewRegistry[T, *id.Hash](metricsLabel)}, nil
}

func (s *BoltStore[T]) Read(k T) (id.Hash, bool, error) {
	var out id.Hash
	var found bool
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(refsBucket).Get([]byte(s.codec.Encode(k)))
		if v == nil {
			return nil
		}
		h, err := id.FromBytes(v)
		if err != nil {
			return err
		}
		out, found = h, true
		return nil
	})
	return out, found, err
}

func (s *BoltStore[T]) Mem(k T) (bool, error) {
	_, ok, err := s.Read(k)
	return ok, err
}

func (s *BoltStore[T]) Update(k T, v id.Hash) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(refsBucket).Put([]byte(s.codec.Encode(k)), v.Bytes())
	})
	if err != nil {
		return err
	}
	s.reg.Notify(k, notifyValue(v, true))
	return nil
}

func (s *BoltStore[T]) Remove(k T) error {
	key := []byte(s.codec.Encode(k))
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(refsBucket)
		if b.Get(key) == nil {
			return ErrNotFound
		}
		return b.Delete(key)
	})
	if err != nil {
		return err
	}
	s.reg.Notify(k, nil)
	return nil
}

func (s *BoltStore[T]) List() ([]T, error) {
	var out []T
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(refsBucket).ForEach(func(k, _ []byte) error {
			t, err := s.codec.Decode(string(k))
			if err != nil {
				return nil
			}
			out = append(out, t)
			return nil
		})
	})
	return out, err
}

func (s *BoltStore[T]) Dump() (map[T]id.Hash, error) {
	out := make(map[T]id.Hash)
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(refsBucket).ForEach(func(k, v []byte) error {
			t, err := s.codec.Decode(string(k))
			if err != nil {
				return nil
			}
			h, err := id.FromBytes(v)
			if err != nil {
				return err
			}
			out[t] = h
			return nil
		})
	})
	return out, err
}

func (s *BoltStore[T]) Watch(k T) (*watch.Subscription[*id.Hash], error) {
	h, ok, err := s.Read(k)
	if err != nil {
		return nil, err
	}
	return s.reg.Watch(k, notifyValue(h, ok), ok), nil
}

func (s *BoltStore[T]) Close() error {
	s.reg.Clear()
	return s.db.Close()
}
