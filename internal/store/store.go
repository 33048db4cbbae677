package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/codenerd-labs/bookmarkd/internal/logging"
)

// Store is the persistence layer for every user-owned entity. Methods
// that read users' bookmarks, projects and feedback take a userID and
// never return rows belonging to another user. GetAnalysis and ListTasks
// are keyed by content or project id and do not check ownership, and
// ListUnanalyzed returns bookmarks of every user.
type Store struct {
	db              *sql.DB
	mu              sync.RWMutex
	dsn             string
	maxOrderedItems int
}

// Open creates the database file (and its parent directory) if needed,
// applies the schema, and returns a ready Store. dsn is a sqlite DSN,
// e.g. "file:data/bookmarkd.db".
func Open(dsn string, maxOrderedItems int) (*Store, error) {
	timer := logging.StartTimer(logging.CategoryStore, "Open")
	defer timer.Stop()

	if path := filePath(dsn); path != "" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create database directory: %w", err)
			}
		}
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1) // sqlite: serialize writers through one connection

	if maxOrderedItems <= 0 {
		maxOrderedItems = 100
	}

	s := &Store{db: db, dsn: dsn, maxOrderedItems: maxOrderedItems}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	logging.Get(logging.CategoryStore).Info("store opened at %s (ann=%v)", dsn, enableANN)
	return s, nil
}

// Close releases the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// filePath strips a "file:" sqlite DSN prefix and any query suffix,
// returning "" for in-memory DSNs.
func filePath(dsn string) string {
	p := strings.TrimPrefix(dsn, "file:")
	if idx := strings.IndexByte(p, '?'); idx >= 0 {
		p = p[:idx]
	}
	if p == ":memory:" || p == "" {
		return ""
	}
	return p
}
