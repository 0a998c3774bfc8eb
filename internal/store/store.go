// Package store persists the theme record in a local SQLite database.
//
// The database holds a single record table keyed by a unique id. Only one
// record is ever written by themekeeper (ThemeKey); writes overwrite it.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	tkerrors "themekeeper/internal/errors"

	_ "modernc.org/sqlite" // Pure Go SQLite driver, WAL-friendly
)

const (
	// DatabaseName names the feature database on disk.
	DatabaseName = "theme-db"
	// SchemaVersion is stored in PRAGMA user_version.
	SchemaVersion = 1
	// ThemeKey is the id of the single persisted theme record.
	ThemeKey = "theme"

	dirName = ".themekeeper"
)

// ErrIncompatibleSchema is returned when the database was written with a
// newer schema than this binary understands.
var ErrIncompatibleSchema = errors.New("theme database schema is newer than supported")

// Record is one row of the theme table.
type Record struct {
	ID    string
	Value string
}

// Store is a handle on an open theme database.
type Store struct {
	db   *sql.DB
	path string
}

// DefaultPath returns ~/.themekeeper/theme-db.sqlite.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("determine user home: %w", err)
	}
	return filepath.Join(home, dirName, DatabaseName+".sqlite"), nil
}

// buildDSN creates a read-write DSN that creates the file when missing.
func buildDSN(dbPath string) string {
	u := url.URL{
		Scheme: "file",
		Path:   filepath.ToSlash(dbPath),
	}
	q := url.Values{}
	q.Set("mode", "rwc")
	q.Add("_pragma", "busy_timeout(3000)")
	q.Add("_pragma", "journal_mode(WAL)")
	u.RawQuery = q.Encode()
	return u.String()
}

// Open opens (creating on first run) the theme database at path and makes
// sure the schema is at SchemaVersion.
func Open(ctx context.Context, path string) (*Store, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, tkerrors.New(tkerrors.CodeStoreOpen, "open theme store", errors.New("empty database path"))
	}
	//nolint:gosec // G301: User data directory needs standard permissions
	if err := os.MkdirAll(filepath.Dir(trimmed), 0755); err != nil {
		return nil, tkerrors.New(tkerrors.CodeStoreOpen, "create database directory", err)
	}

	db, err := sql.Open("sqlite", buildDSN(trimmed))
	if err != nil {
		return nil, tkerrors.New(tkerrors.CodeStoreOpen, "open theme store", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, tkerrors.New(tkerrors.CodeStoreOpen, "ping theme store", err)
	}

	s := &Store{db: db, path: trimmed}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return tkerrors.New(tkerrors.CodeStoreOpen, "read schema version", err)
	}
	switch {
	case version == SchemaVersion:
		return nil
	case version > SchemaVersion:
		return tkerrors.New(tkerrors.CodeIncompatibleSchema,
			fmt.Sprintf("schema version %d, want %d", version, SchemaVersion), ErrIncompatibleSchema)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return tkerrors.New(tkerrors.CodeStoreOpen, "begin schema upgrade", err)
	}
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS theme (
			id    TEXT NOT NULL,
			value TEXT NOT NULL
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS id ON theme(id)`,
		fmt.Sprintf("PRAGMA user_version = %d", SchemaVersion),
	}
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			_ = tx.Rollback()
			return tkerrors.New(tkerrors.CodeStoreOpen, "create theme schema", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return tkerrors.New(tkerrors.CodeStoreOpen, "commit theme schema", err)
	}
	return nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Get reads the record with the given id. The bool is false when no such
// record exists.
func (s *Store) Get(ctx context.Context, id string) (Record, bool, error) {
	var rec Record
	err := s.db.QueryRowContext(ctx, `SELECT id, value FROM theme WHERE id = ?`, id).Scan(&rec.ID, &rec.Value)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, tkerrors.New(tkerrors.CodeStoreRead, "get "+id, err)
	}
	return rec, true, nil
}

// Put inserts or overwrites the record with rec.ID.
func (s *Store) Put(ctx context.Context, rec Record) error {
	if strings.TrimSpace(rec.ID) == "" {
		return tkerrors.New(tkerrors.CodeStoreWrite, "put record", errors.New("empty id"))
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO theme (id, value) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET value = excluded.value
	`, rec.ID, rec.Value)
	if err != nil {
		return tkerrors.New(tkerrors.CodeStoreWrite, "put "+rec.ID, err)
	}
	return nil
}

// Count returns the number of records in the theme table.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM theme`).Scan(&n); err != nil {
		return 0, tkerrors.New(tkerrors.CodeStoreRead, "count records", err)
	}
	return n, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
