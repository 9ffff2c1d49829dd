package database

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
)

const ftsFeature = "PostView:SearchFullText"

// SyncFullTextSearch reconciles the archive's full-text search state with
// the configured mode and reports whether full-text search is active.
// override nil keeps whatever the archive currently has; true/false
// creates or drops the fts index. The index creation, drop and feature
// flag update run in one transaction; the VACUUM afterwards reclaims the
// space a dropped index held.
func (db *DB) SyncFullTextSearch(override *bool) (bool, error) {
	current, err := db.featureEnabled(ftsFeature)
	if err != nil {
		return false, err
	}

	want := current
	if override != nil {
		want = *override
	}
	changed := want != current

	slog.Info("Full-text search state", "enabled", want, "changed", changed)

	if changed {
		tx, err := db.Begin()
		if err != nil {
			return false, fmt.Errorf("failed to begin fts transaction: %w", err)
		}
		defer tx.Rollback()

		if want {
			_, err = tx.Exec("CREATE VIRTUAL TABLE _posts_fts USING fts5(title, content, content=posts, content_rowid=id)")
		} else {
			_, err = tx.Exec("DROP TABLE _posts_fts")
		}
		if err != nil {
			return false, fmt.Errorf("failed to update fts table: %w", err)
		}

		if _, err := tx.Exec("INSERT OR REPLACE INTO features (name, value) VALUES (?, ?)", ftsFeature, boolToInt(want)); err != nil {
			return false, fmt.Errorf("failed to record fts feature: %w", err)
		}

		if err := tx.Commit(); err != nil {
			return false, fmt.Errorf("failed to commit fts change: %w", err)
		}

		if _, err := db.Exec("VACUUM"); err != nil {
			return false, fmt.Errorf("failed to vacuum after fts change: %w", err)
		}
	}

	if want {
		slog.Info("Rebuilding full-text search index")
		if _, err := db.Exec("INSERT INTO _posts_fts(_posts_fts) VALUES('rebuild')"); err != nil {
			return false, fmt.Errorf("failed to rebuild fts index: %w", err)
		}
	}

	return want, nil
}

func (db *DB) featureEnabled(name string) (bool, error) {
	var value int64
	err := db.QueryRow("SELECT value FROM features WHERE name = ?", name).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read feature %s: %w", name, err)
	}
	return value != 0, nil
}

func boolToInt(v bool) int64 {
	if v {
		return 1
	}
	return 0
}
