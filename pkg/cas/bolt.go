package cas

import (
	"path/filepath"

	"dagkv/pkg/id"
	bolt "go.etcd.io/bbolt"
)

var objectsBucket = []byte("objects")

// BoltStore implements Store on a single bbolt file, grounded on
// cuemby-warren/pkg/storage/boltdb.go's bucket-per-kind layout.
type BoltStore struct {
	db     *bolt.DB
	digest id.DigestFunc
}

// NewBoltStore opens (creating if needed) a bbolt-backed AO store at
// filepath.Join(dataDir, name).
func NewBoltStore(dataDir, name string, digest id.DigestFunc) (*BoltStore, error) {
	if digest == nil {
		digest = id.SHA256
	}
	db, err := bolt.Open(filepath.Join(dataDir, name), 0600, nil)
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(objectsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &BoltStore{db: db, digest: digest}, nil
}

func (s *BoltStore) Add(data []byte) (id.Hash, error) {
	h := s.digest(data)
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(objectsBucket)
		if b.Get(h[:]) != nil {
			return nil
		}
		return b.Put(h[:], data)
	})
	return h, err
}

func (s *BoltStore) Read(h id.Hash) ([]byte, bool, error) {
	var out []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(objectsBucket).Get(h[:])
		if v == nil {
			return nil
		}
		out = append([]byte(nil), v...)
		return nil
	})
	return out, out != nil, err
}

func (s *BoltStore) Mem(h id.Hash) (bool, error) {
	var found bool
	err := s.db.View(func(tx *bolt.Tx) error {
		found = tx.Bucket(objectsBucket).Get(h[:]) != nil
		return nil
	})
	return found, err
}

func (s *BoltStore) List() ([]id.Hash, error) {
	var hashes []id.Hash
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(objectsBucket).ForEach(func(k, _ []byte) error {
			h, perr := id.FromBytes(k)
			if perr != nil {
				return nil
			}
			hashes = append(hashes, h)
			return nil
		})
	})
	return hashes, err
}

func (s *BoltStore) Close() error { return s.db.Close() }
