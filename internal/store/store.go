// Package store is the SQLite-backed project index cache. It remembers the
// content hash of every scanned source file together with the type
// declarations extracted from it, so repeated invocations over an unchanged
// project answer class lookups without re-parsing anything.
package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Store is the SQLite data access layer.
type Store struct {
	db *sql.DB
}

// NewStore opens a SQLite database at dbPath with WAL mode enabled.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for use in transactions.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Migrate creates the tables and indexes. Idempotent.
func (s *Store) Migrate() error {
	_, err := s.db.Exec(schemaDDL)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS files (
  id              INTEGER PRIMARY KEY,
  path            TEXT NOT NULL UNIQUE,
  hash            TEXT NOT NULL,
  package         TEXT,
  has_main        BOOLEAN DEFAULT FALSE,
  last_indexed    TIMESTAMP
);

CREATE TABLE IF NOT EXISTS classes (
  id              INTEGER PRIMARY KEY,
  file_id         INTEGER NOT NULL REFERENCES files(id) ON DELETE CASCADE,
  name            TEXT NOT NULL,
  kind            TEXT NOT NULL,
  is_public       BOOLEAN DEFAULT FALSE,
  is_entity       BOOLEAN DEFAULT FALSE
);

CREATE TABLE IF NOT EXISTS metadata (
  key             TEXT PRIMARY KEY,
  value           TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_files_path ON files(path);
CREATE INDEX IF NOT EXISTS idx_classes_name ON classes(name);
CREATE INDEX IF NOT EXISTS idx_classes_file ON classes(file_id);
`

// File is one cached source file record.
type File struct {
	ID          int64
	Path        string
	Hash        string
	Package     string
	HasMain     bool
	LastIndexed time.Time
}

// Class is one cached type declaration.
type Class struct {
	ID     int64
	FileID int64
	Name   string
	Kind   string
	Public bool
	Entity bool
}

// FileByPath returns the cached record for path, or nil when absent.
func (s *Store) FileByPath(path string) (*File, error) {
	row := s.db.QueryRow(
		`SELECT id, path, hash, package, has_main, last_indexed FROM files WHERE path = ?`, path)
	var f File
	err := row.Scan(&f.ID, &f.Path, &f.Hash, &f.Package, &f.HasMain, &f.LastIndexed)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("file by path: %w", err)
	}
	return &f, nil
}

// ReplaceFile deletes any existing record for f.Path (cascading to its
// classes), inserts f with the given classes, and returns the new file id.
func (s *Store) ReplaceFile(f *File, classes []*Class) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("replace file: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM files WHERE path = ?`, f.Path); err != nil {
		return 0, fmt.Errorf("replace file: delete old: %w", err)
	}
	res, err := tx.Exec(
		`INSERT INTO files (path, hash, package, has_main, last_indexed) VALUES (?, ?, ?, ?, ?)`,
		f.Path, f.Hash, f.Package, f.HasMain, time.Now())
	if err != nil {
		return 0, fmt.Errorf("replace file: insert: %w", err)
	}
	fileID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("replace file: last id: %w", err)
	}
	for _, c := range classes {
		if _, err := tx.Exec(
			`INSERT INTO classes (file_id, name, kind, is_public, is_entity) VALUES (?, ?, ?, ?, ?)`,
			fileID, c.Name, c.Kind, c.Public, c.Entity); err != nil {
			return 0, fmt.Errorf("replace file: insert class %s: %w", c.Name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("replace file: commit: %w", err)
	}
	return fileID, nil
}

// DeleteFile removes a file record and its classes by path.
func (s *Store) DeleteFile(path string) error {
	if _, err := s.db.Exec(`DELETE FROM files WHERE path = ?`, path); err != nil {
		return fmt.Errorf("delete file: %w", err)
	}
	return nil
}

// ClassesByName returns every cached class with the given name, joined with
// its file path.
func (s *Store) ClassesByName(name string) ([]*Class, []string, error) {
	rows, err := s.db.Query(
		`SELECT c.id, c.file_id, c.name, c.kind, c.is_public, c.is_entity, f.path
		 FROM classes c JOIN files f ON f.id = c.file_id
		 WHERE c.name = ? ORDER BY f.path`, name)
	if err != nil {
		return nil, nil, fmt.Errorf("classes by name: %w", err)
	}
	defer rows.Close()
	var classes []*Class
	var paths []string
	for rows.Next() {
		var c Class
		var path string
		if err := rows.Scan(&c.ID, &c.FileID, &c.Name, &c.Kind, &c.Public, &c.Entity, &path); err != nil {
			return nil, nil, fmt.Errorf("classes by name: scan: %w", err)
		}
		classes = append(classes, &c)
		paths = append(paths, path)
	}
	return classes, paths, rows.Err()
}

// ClassNames returns the distinct names of every cached class, for fuzzy
// suggestion when a lookup misses.
func (s *Store) ClassNames() ([]string, error) {
	rows, err := s.db.Query(`SELECT DISTINCT name FROM classes ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("class names: %w", err)
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("class names: scan: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// FilesWithMain returns the paths of cached files declaring a main method.
func (s *Store) FilesWithMain() ([]string, error) {
	rows, err := s.db.Query(`SELECT path FROM files WHERE has_main ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("files with main: %w", err)
	}
	defer rows.Close()
	var paths []string
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, fmt.Errorf("files with main: scan: %w", err)
		}
		paths = append(paths, path)
	}
	return paths, rows.Err()
}

// GetMetadata returns the value stored under key, or "" when absent.
func (s *Store) GetMetadata(key string) (string, error) {
	row := s.db.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key)
	var value string
	err := row.Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get metadata: %w", err)
	}
	return value, nil
}

// SetMetadata stores value under key, replacing any previous value.
func (s *Store) SetMetadata(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO metadata (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("set metadata: %w", err)
	}
	return nil
}
