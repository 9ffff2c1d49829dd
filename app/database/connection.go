package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// ArchiveFileName is the database file the archiver writes inside an
// archive directory.
const ArchiveFileName = "post-archiver.db"

// DB wraps the shared SQLite connection to a post archive.
type DB struct {
	*sql.DB
}

// NewConnection opens the archive database at path. Path may be either the
// database file itself or the archive directory containing it.
func NewConnection(path string) (*DB, error) {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, ArchiveFileName)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive database: %w", err)
	}

	// WAL lets the archiver keep writing while we read; busy_timeout makes
	// readers wait instead of failing with SQLITE_BUSY.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
		PRAGMA cache_size=-8000;
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure connection: %w", err)
	}

	// One shared connection for the whole engine; database/sql serializes
	// access to it. The archive is read-heavy and low-concurrency, so a
	// single statement in flight at a time is the intended trade-off.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to archive database: %w", err)
	}

	return &DB{db}, nil
}
