package cas

import (
	"database/sql"
	"path/filepath"

	"dagkv/pkg/id"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store on a single SQLite file via the pure-Go
// modernc.org/sqlite driver, grounded on ConflictingTheories-veil's use of
// the same driver for its object store.
type SQLiteStore struct {
	db     *sql.DB
	digest id.DigestFunc
}

// NewSQLiteStore opens (creating if needed) a SQLite-backed AO store at
// filepath.Join(dataDir, name).
func NewSQLiteStore(dataDir, name string, digest id.DigestFunc) (*SQLiteStore, error) {
	if digest == nil {
		digest = id.SHA256
	}
	db, err := sql.Open("sqlite", filepath.Join(dataDir, name))
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS objects (hash BLOB PRIMARY KEY, value BLOB NOT NULL)`); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db, digest: digest}, nil
}

func (s *SQLiteStore) Add(data []byte) (id.Hash, error) {
	h := s.digest(data)
	_, err := s.db.Exec(`INSERT OR IGNORE INTO objects (hash, value) VALUES (?, ?)`, h[:], data)
	return h, err
}

func (s *SQLiteStore) Read(h id.Hash) ([]byte, bool, error) {
	var data []byte
	err := s.db.QueryRow(`SELECT value FROM objects WHERE hash = ?`, h[:]).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (s *SQLiteStore) Mem(h id.Hash) (bool, error) {
	var exists int
	err := s.db.QueryRow(`SELECT 1 FROM objects WHERE hash = ?`, h[:]).Scan(&exists)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}

func (s *SQLiteStore) List() ([]id.Hash, error) {
	rows, err := s.db.Query(`SELECT hash FROM objects`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hashes []id.Hash
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		if h, perr := id.FromBytes(raw); perr == nil {
			hashes = append(hashes, h)
		}
	}
	return hashes, rows.Err()
}

func (s *SQLiteStore) Close() error { return s.db.Close() }
