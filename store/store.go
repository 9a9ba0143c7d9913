// Package store keeps a library of named program snapshots in SQLite.
//
// Programs are stored in their canonical CBOR encoding together with the
// structural fingerprint, so saving an unchanged program is detectable.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/tliron/commonlog"

	"github.com/chazu/blockrun/blocks"

	_ "modernc.org/sqlite"
)

var log = commonlog.GetLogger("blockrun.store")

// ErrProgramNotFound indicates the requested program doesn't exist.
var ErrProgramNotFound = errors.New("program not found")

// ErrInvalidName rejects empty program names.
var ErrInvalidName = errors.New("invalid program name")

// Entry describes a stored program.
type Entry struct {
	Name        string
	Fingerprint string
	Blocks      int
	UpdatedAt   time.Time
}

// Store handles SQLite storage for programs.
type Store struct {
	db   *sql.DB
	path string
	mu   sync.Mutex
	now  func() time.Time
}

// Open opens (creating if needed) the library at path. The special path
// ":memory:" opens a private in-memory library.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("creating store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// One connection keeps an in-memory database alive and serializes
	// writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS programs (
		name TEXT PRIMARY KEY,
		fingerprint TEXT NOT NULL,
		blocks INTEGER NOT NULL,
		data BLOB NOT NULL,
		updated_at INTEGER NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating table: %w", err)
	}

	return &Store{db: db, path: path, now: time.Now}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database path.
func (s *Store) Path() string { return s.path }

// Save stores p under name, replacing any previous version. It reports
// whether the stored structure changed.
func (s *Store) Save(name string, p *blocks.Program) (changed bool, err error) {
	if name == "" {
		return false, ErrInvalidName
	}
	data, err := blocks.Encode(p)
	if err != nil {
		return false, fmt.Errorf("encoding program %s: %w", name, err)
	}
	fp, err := blocks.Fingerprint(p)
	if err != nil {
		return false, fmt.Errorf("fingerprinting program %s: %w", name, err)
	}
	count := 0
	p.Walk(func(*blocks.Block) bool { count++; return true })

	s.mu.Lock()
	defer s.mu.Unlock()

	var old string
	err = s.db.QueryRow("SELECT fingerprint FROM programs WHERE name = ?", name).Scan(&old)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("querying program %s: %w", name, err)
	}

	_, err = s.db.Exec(
		"INSERT OR REPLACE INTO programs (name, fingerprint, blocks, data, updated_at) VALUES (?, ?, ?, ?, ?)",
		name, fp, count, data, s.now().UnixMilli(),
	)
	if err != nil {
		return false, fmt.Errorf("saving program %s: %w", name, err)
	}
	log.Debugf("saved %s (%s)", name, fp)
	return old != fp, nil
}

// Load retrieves a program.
func (s *Store) Load(name string) (*blocks.Program, error) {
	var data []byte
	err := s.db.QueryRow("SELECT data FROM programs WHERE name = ?", name).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", name, ErrProgramNotFound)
		}
		return nil, fmt.Errorf("querying program %s: %w", name, err)
	}
	p, err := blocks.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decoding program %s: %w", name, err)
	}
	return p, nil
}

// List returns every stored program, ordered by name.
func (s *Store) List() ([]Entry, error) {
	rows, err := s.db.Query("SELECT name, fingerprint, blocks, updated_at FROM programs ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("listing programs: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var ms int64
		if err := rows.Scan(&e.Name, &e.Fingerprint, &e.Blocks, &ms); err != nil {
			return nil, fmt.Errorf("scanning program row: %w", err)
		}
		e.UpdatedAt = time.UnixMilli(ms)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Delete removes a program.
func (s *Store) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec("DELETE FROM programs WHERE name = ?", name)
	if err != nil {
		return fmt.Errorf("deleting program %s: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting program %s: %w", name, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", name, ErrProgramNotFound)
	}
	return nil
}
