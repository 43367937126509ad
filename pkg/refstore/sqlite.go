package refstore

import (
	"database/sql"
	"path/filepath"

	"dagkv/pkg/id"
	"dagkv/pkg/watch"
	_ "modernc.org/sqlite"
)

// SQLiteStore persists tag -> commit-hash refs in a SQLite table via the
// pure-Go modernc.org/sqlite driver, grounded on ConflictingTheories-veil.
type SQLiteStore[T comparable] struct {
	db    *sql.DB
	codec Codec[T]
	reg   *watch.Registry[T, *id.Hash]
}

// NewSQLiteStore opens (creating if needed) a SQLite-backed name store at
// filepath.Join(dataDir, name).
func NewSQLiteStore[T comparable](dataDir, name string, codec Codec[T], metricsLabel string) (*SQLiteStore[T], error) {
	db, err := sql.Open("sqlite", filepath.Join(dataDir, name))
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS refs (tag TEXT PRIMARY KEY, hash BLOB NOT NULL)`); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteStore[T]{db: db, codec: codec, reg: watch.NewRegistry[T, *id.Hash](metricsLabel)}, nil
}

func (s *SQLiteStore[T]) Read(k T) (id.Hash, bool, error) {
	var raw []byte
	err := s.db.QueryRow(`SELECT hash FROM refs WHERE tag = ?`, s.codec.Encode(k)).Scan(&raw)
	if err == sql.ErrNoRows {
		return id.Hash{}, false, nil
	}
	if err != nil {
		return id.Hash{}, false, err
	}
	h, err := id.FromBytes(raw)
	return h, err == nil, err
}

func (s *SQLiteStore[T]) Mem(k T) (bool, error) {
	_, ok, err := s.Read(k)
	return ok, err
}

func (s *SQLiteStore[T]) Update(k T, v id.Hash) error {
	_, err := s.db.Exec(`INSERT INTO refs (tag, hash) VALUES (?, ?)
		ON CONFLICT(tag) DO UPDATE SET hash = excluded.hash`, s.codec.Encode(k), v.Bytes())
	if err != nil {
		return err
	}
	s.reg.Notify(k, notifyValue(v, true))
	return nil
}

func (s *SQLiteStore[T]) Remove(k T) error {
	res, err := s.db.Exec(`DELETE FROM refs WHERE tag = ?`, s.codec.Encode(k))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	s.reg.Notify(k, nil)
	return nil
}

func (s *SQLiteStore[T]) List() ([]T, error) {
	rows, err := s.db.Query(`SELECT tag FROM refs`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, err
		}
		if t, err := s.codec.Decode(tag); err == nil {
			out = append(out, t)
		}
	}
	return out, rows.Err()
}

func (s *SQLiteStore[T]) Dump() (map[T]id.Hash, error) {
	rows, err := s.db.Query(`SELECT tag, hash FROM refs`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[T]id.Hash)
	for rows.Next() {
		var tag string
		var raw []byte
		if err := rows.Scan(&tag, &raw); err != nil {
			return nil, err
		}
		t, err := s.codec.Decode(tag)
		if err != nil {
			continue
		}
		h, err := id.FromBytes(raw)
		if err != nil {
			return nil, err
		}
		out[t] = h
	}
	return out, rows.Err()
}

func (s *SQLiteStore[T]) Watch(k T) (*watch.Subscription[*id.Hash], error) {
	h, ok, err := s.Read(k)
	if err != nil {
		return nil, err
	}
	return s.reg.Watch(k, notifyValue(h, ok), ok), nil
}

func (s *SQLiteStore[T]) Close() error {
	s.reg.Clear()
	return s.db.Close()
}
