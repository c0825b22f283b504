// Package store caches extracted palettes in SQLite, keyed by the content of
// the image and the extraction parameters.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tliron/commonlog"
	_ "modernc.org/sqlite"
)

var log = commonlog.GetLogger("recolor.store")

type Store struct {
	db *sql.DB
}

// Open opens or creates the cache database at path and brings its schema up
// to date.
func Open(path string) (*Store, error) {
	database, err := open(path)
	if err != nil {
		return nil, err
	}
	if err := run_migrations(database); err != nil {
		database.Close()
		return nil, err
	}
	return &Store{db: database}, nil
}

func open(path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	database, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, pragma := range pragmas {
		if _, err := database.Exec(pragma); err != nil {
			database.Close()
			return nil, fmt.Errorf("apply sqlite pragma %q: %w", pragma, err)
		}
	}
	if err := database.Ping(); err != nil {
		database.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	log.Debugf("opened palette cache %s", path)
	return database, nil
}

func (s *Store) Close() error { return s.db.Close() }
