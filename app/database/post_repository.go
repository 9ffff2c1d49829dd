package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/averle/postview/app/cache"
)

// PostRepository handles post lookups and compound searches.
type PostRepository struct {
	db       *DB
	fullText bool
	search   *cache.Counts[string]
}

func NewPostRepository(db *DB, caches *Caches, fullTextSearch bool) *PostRepository {
	return &PostRepository{
		db:       db,
		fullText: fullTextSearch,
		search:   caches.Search,
	}
}

// FullTextSearch reports whether compound searches match against the
// fts index or fall back to a substring predicate.
func (r *PostRepository) FullTextSearch() bool {
	return r.fullText
}

// Get returns a post with the ids from its association tables, or nil when
// the post does not exist. The row and its id lists are read in one
// transaction.
func (r *PostRepository) Get(id PostID) (*PostDetail, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin post transaction: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRow("SELECT "+postColumns+" FROM posts WHERE id = ?", int64(id))
	post, err := scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get post %d: %w", int64(id), err)
	}

	detail := &PostDetail{Post: post}

	if detail.Tags, err = queryIDs[TagID](tx, "SELECT tag FROM post_tags WHERE post = ?", int64(id)); err != nil {
		return nil, err
	}
	if detail.Authors, err = queryIDs[AuthorID](tx, "SELECT author FROM author_posts WHERE post = ?", int64(id)); err != nil {
		return nil, err
	}
	if detail.Collections, err = queryIDs[CollectionID](tx, "SELECT collection FROM collection_posts WHERE post = ?", int64(id)); err != nil {
		return nil, err
	}

	return detail, nil
}

// ResolveSource returns the id of the post whose source URL matches url.
func (r *PostRepository) ResolveSource(url string) (PostID, bool, error) {
	var id PostID
	err := r.db.QueryRow("SELECT id FROM posts WHERE source = ?", url).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to resolve source url: %w", err)
	}
	return id, true, nil
}

// ListAuthorAliases returns the platform-specific identifiers mapped onto
// an author.
func (r *PostRepository) ListAuthorAliases(id AuthorID) ([]AuthorAlias, error) {
	rows, err := r.db.Query("SELECT source, platform, target FROM author_aliases WHERE target = ? ORDER BY source ASC", int64(id))
	if err != nil {
		return nil, fmt.Errorf("failed to list aliases for author %d: %w", int64(id), err)
	}
	defer rows.Close()

	return collectRows(rows, scanAuthorAlias)
}

// Summary returns the archive version and entity counts. Counts are read
// fresh; the endpoint is rare enough that caching buys nothing.
func (r *PostRepository) Summary() (Summary, error) {
	var s Summary

	err := r.db.QueryRow("SELECT version FROM post_archiver_meta").Scan(&s.ArchiveVersion)
	if errors.Is(err, sql.ErrNoRows) {
		s.ArchiveVersion = "unknown"
	} else if err != nil {
		return s, fmt.Errorf("failed to read archive version: %w", err)
	}

	counts := []struct {
		table string
		dest  *int
	}{
		{"posts", &s.Posts},
		{"authors", &s.Authors},
		{"tags", &s.Tags},
		{"platforms", &s.Platforms},
		{"collections", &s.Collections},
	}
	for _, c := range counts {
		if err := r.db.QueryRow("SELECT COUNT() FROM " + c.table).Scan(c.dest); err != nil {
			return s, fmt.Errorf("failed to count %s: %w", c.table, err)
		}
	}

	return s, nil
}

func queryIDs[I ~int64](tx *sql.Tx, query string, arg any) ([]I, error) {
	rows, err := tx.Query(query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to query ids: %w", err)
	}
	defer rows.Close()

	ids := []I{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, I(id))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("id iteration failed: %w", err)
	}
	return ids, nil
}
