// Package cache stores generated Rust keyed by program fingerprint, so
// unchanged sources skip code generation across runs.
package cache

import (
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/tliron/commonlog"

	_ "modernc.org/sqlite"
)

// FileName is the database file created inside the cache directory.
const FileName = "cache.db"

// ErrNotFound indicates the key has no cached entry.
var ErrNotFound = errors.New("cache entry not found")

var log = commonlog.GetLogger("pbr.cache")

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("cache: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// Entry is one cached transpilation.
type Entry struct {
	Rust             string `cbor:"1,keyasint"`
	Source           string `cbor:"2,keyasint"`
	GeneratorVersion string `cbor:"3,keyasint"`
	CreatedAt        int64  `cbor:"4,keyasint"`
}

// MarshalEntry serializes an Entry to canonical CBOR bytes.
func MarshalEntry(e *Entry) ([]byte, error) {
	return cborEncMode.Marshal(e)
}

// UnmarshalEntry deserializes an Entry from CBOR bytes.
func UnmarshalEntry(data []byte) (*Entry, error) {
	var e Entry
	if err := cbor.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("cache: unmarshal entry: %w", err)
	}
	return &e, nil
}

// Store is a SQLite-backed artifact cache. It is safe for concurrent use.
type Store struct {
	db   *sql.DB
	path string
}

// DefaultDir returns PBR_CACHE_DIR, or pbr under the user cache directory.
func DefaultDir() (string, error) {
	if dir := os.Getenv("PBR_CACHE_DIR"); dir != "" {
		return dir, nil
	}
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("getting cache dir: %w", err)
	}
	return filepath.Join(base, "pbr"), nil
}

// Open opens or creates the cache database in dir.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}
	path := filepath.Join(dir, FileName)

	q := url.Values{}
	q.Add("_pragma", "busy_timeout(5000)")
	q.Add("_pragma", "journal_mode(WAL)")
	db, err := sql.Open("sqlite", "file:"+path+"?"+q.Encode())
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// SQLite allows a single writer; one pooled connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS artifacts (
		key BLOB PRIMARY KEY,
		entry BLOB NOT NULL,
		created_at INTEGER NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating table: %w", err)
	}

	log.Debugf("opened %s", path)
	return &Store{db: db, path: path}, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Get returns the entry stored under key, or ErrNotFound.
func (s *Store) Get(key []byte) (*Entry, error) {
	var data []byte
	err := s.db.QueryRow(`SELECT entry FROM artifacts WHERE key = ?`, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying cache: %w", err)
	}
	return UnmarshalEntry(data)
}

// Put stores e under key, replacing any previous entry. A zero CreatedAt
// is set to the current time.
func (s *Store) Put(key []byte, e *Entry) error {
	if e.CreatedAt == 0 {
		e.CreatedAt = time.Now().Unix()
	}
	data, err := MarshalEntry(e)
	if err != nil {
		return fmt.Errorf("cache: marshal entry: %w", err)
	}
	_, err = s.db.Exec(`INSERT OR REPLACE INTO artifacts (key, entry, created_at) VALUES (?, ?, ?)`,
		key, data, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("writing cache: %w", err)
	}
	return nil
}

// Len returns the number of cached entries.
func (s *Store) Len() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM artifacts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting cache: %w", err)
	}
	return n, nil
}

// Purge deletes every entry and returns how many were removed.
func (s *Store) Purge() (int64, error) {
	res, err := s.db.Exec(`DELETE FROM artifacts`)
	if err != nil {
		return 0, fmt.Errorf("purging cache: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	log.Infof("purged %d entries from %s", n, s.path)
	return n, nil
}

// PurgeBefore deletes entries created before t.
func (s *Store) PurgeBefore(t time.Time) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM artifacts WHERE created_at < ?`, t.Unix())
	if err != nil {
		return 0, fmt.Errorf("purging cache: %w", err)
	}
	return res.RowsAffected()
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
