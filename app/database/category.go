package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/averle/postview/app/cache"
)

// Pagination is a zero-based page window. A non-positive limit falls back
// to the default page size of 20.
type Pagination struct {
	Limit int
	Page  int
}

func (p Pagination) normalize() Pagination {
	if p.Limit <= 0 {
		p.Limit = 20
	}
	if p.Page < 0 {
		p.Page = 0
	}
	return p
}

func (p Pagination) offset() int {
	return p.Page * p.Limit
}

// ErrInvalidOrder marks an unsupported order request so handlers can
// answer with a client error instead of a server error.
var ErrInvalidOrder = errors.New("invalid order")

// OrderBy selects the listing order for a category. The zero value means
// the kind's default order. Random ordering gives no stable pagination
// window: a page may repeat rows from an earlier page.
type OrderBy string

const (
	OrderDefault OrderBy = ""
	OrderID      OrderBy = "id"
	OrderName    OrderBy = "name"
	OrderUpdated OrderBy = "updated"
	OrderRandom  OrderBy = "random"
)

type categorySpec[T any, I ~int64] struct {
	table        string
	columns      string
	defaultOrder string
	hasUpdated   bool
	scan         func(rowScanner) (T, error)

	// Association with posts: a join-table fragment plus the filter column,
	// or just a direct posts column for platforms.
	postsJoin   string
	postsFilter string
}

func (s categorySpec[T, I]) orderClause(order OrderBy) (string, error) {
	switch order {
	case OrderDefault:
		return s.defaultOrder, nil
	case OrderID:
		return "id DESC", nil
	case OrderName:
		return "name ASC", nil
	case OrderUpdated:
		if !s.hasUpdated {
			return "", fmt.Errorf("%w: %s cannot be ordered by update time", ErrInvalidOrder, s.table)
		}
		return "updated DESC", nil
	case OrderRandom:
		return "RANDOM()", nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidOrder, order)
	}
}

// CategoryRepository provides the shared listing, lookup and counting
// operations for one category kind (authors, tags, platforms, collections).
type CategoryRepository[T any, I ~int64] struct {
	db     *DB
	spec   categorySpec[T, I]
	tables *cache.Counts[string]
	posts  *cache.Counts[I]
}

func NewAuthorRepository(db *DB, caches *Caches) *CategoryRepository[Author, AuthorID] {
	return &CategoryRepository[Author, AuthorID]{
		db:     db,
		tables: caches.Tables,
		posts:  caches.Authors,
		spec: categorySpec[Author, AuthorID]{
			table:        "authors",
			columns:      authorColumns,
			defaultOrder: "updated DESC",
			hasUpdated:   true,
			scan:         scanAuthor,
			postsJoin:    "JOIN author_posts ON author_posts.post = posts.id",
			postsFilter:  "author_posts.author",
		},
	}
}

func NewTagRepository(db *DB, caches *Caches) *CategoryRepository[Tag, TagID] {
	return &CategoryRepository[Tag, TagID]{
		db:     db,
		tables: caches.Tables,
		posts:  caches.Tags,
		spec: categorySpec[Tag, TagID]{
			table:        "tags",
			columns:      tagColumns,
			defaultOrder: "name ASC",
			scan:         scanTag,
			postsJoin:    "JOIN post_tags ON post_tags.post = posts.id",
			postsFilter:  "post_tags.tag",
		},
	}
}

func NewPlatformRepository(db *DB, caches *Caches) *CategoryRepository[Platform, PlatformID] {
	return &CategoryRepository[Platform, PlatformID]{
		db:     db,
		tables: caches.Tables,
		posts:  caches.Platforms,
		spec: categorySpec[Platform, PlatformID]{
			table:        "platforms",
			columns:      platformColumns,
			defaultOrder: "name ASC",
			scan:         scanPlatform,
			postsFilter:  "posts.platform",
		},
	}
}

func NewCollectionRepository(db *DB, caches *Caches) *CategoryRepository[Collection, CollectionID] {
	return &CategoryRepository[Collection, CollectionID]{
		db:     db,
		tables: caches.Tables,
		posts:  caches.Collections,
		spec: categorySpec[Collection, CollectionID]{
			table:        "collections",
			columns:      collectionColumns,
			defaultOrder: "name ASC",
			scan:         scanCollection,
			postsJoin:    "JOIN collection_posts ON collection_posts.post = posts.id",
			postsFilter:  "collection_posts.collection",
		},
	}
}

// List returns one page of the category. An empty search emits no WHERE
// clause at all rather than a LIKE '%%' no-op.
func (r *CategoryRepository[T, I]) List(p Pagination, search string, order OrderBy) ([]T, error) {
	orderClause, err := r.spec.orderClause(order)
	if err != nil {
		return nil, err
	}
	p = p.normalize()

	query := "SELECT " + r.spec.columns + " FROM " + r.spec.table
	var args []any
	if search != "" {
		query += " WHERE name LIKE '%' || ? || '%'"
		args = append(args, NormalizeSearch(search))
	}
	query += " ORDER BY " + orderClause + " LIMIT ? OFFSET ?"
	args = append(args, p.Limit, p.offset())

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", r.spec.table, err)
	}
	defer rows.Close()

	return collectRows(rows, r.spec.scan)
}

// Total returns the number of rows matching search. Searched counts are
// always queried fresh; the unfiltered table total goes through the table
// count cache.
func (r *CategoryRepository[T, I]) Total(search string) (int, error) {
	if search != "" {
		var total int
		err := r.db.QueryRow(
			"SELECT COUNT() FROM "+r.spec.table+" WHERE name LIKE '%' || ? || '%'",
			NormalizeSearch(search),
		).Scan(&total)
		if err != nil {
			return 0, fmt.Errorf("failed to count %s: %w", r.spec.table, err)
		}
		return total, nil
	}

	if total, ok := r.tables.Get(r.spec.table); ok {
		return total, nil
	}

	var total int
	if err := r.db.QueryRow("SELECT COUNT() FROM " + r.spec.table).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", r.spec.table, err)
	}
	r.tables.Put(r.spec.table, total)

	return total, nil
}

// Get returns the row with the given id, or nil when it does not exist.
func (r *CategoryRepository[T, I]) Get(id I) (*T, error) {
	row := r.db.QueryRow("SELECT "+r.spec.columns+" FROM "+r.spec.table+" WHERE id = ?", int64(id))

	v, err := r.spec.scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s %d: %w", r.spec.table, int64(id), err)
	}

	return &v, nil
}

// ListPosts returns one page of post previews associated with the given
// category row, newest first. The thumbnail id is resolved through a LEFT
// JOIN so posts whose thumbnail file is gone still list, with a null thumb.
func (r *CategoryRepository[T, I]) ListPosts(id I, p Pagination) ([]PostPreview, error) {
	p = p.normalize()

	query := "SELECT posts.id, posts.title, file_metas.id, posts.updated FROM posts" +
		" LEFT JOIN file_metas ON posts.thumb = file_metas.id"
	if r.spec.postsJoin != "" {
		query += " " + r.spec.postsJoin
	}
	query += " WHERE " + r.spec.postsFilter + " = ? ORDER BY posts.updated DESC LIMIT ? OFFSET ?"

	rows, err := r.db.Query(query, int64(id), p.Limit, p.offset())
	if err != nil {
		return nil, fmt.Errorf("failed to list posts for %s %d: %w", r.spec.table, int64(id), err)
	}
	defer rows.Close()

	return collectRows(rows, scanPostPreview)
}

// TotalPosts returns the number of posts associated with the given category
// row, read through the per-kind count cache.
func (r *CategoryRepository[T, I]) TotalPosts(id I) (int, error) {
	if total, ok := r.posts.Get(id); ok {
		return total, nil
	}

	query := "SELECT COUNT() FROM posts"
	if r.spec.postsJoin != "" {
		query += " " + r.spec.postsJoin
	}
	query += " WHERE " + r.spec.postsFilter + " = ?"

	var total int
	if err := r.db.QueryRow(query, int64(id)).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count posts for %s %d: %w", r.spec.table, int64(id), err)
	}
	r.posts.Put(id, total)

	return total, nil
}

func collectRows[T any](rows *sql.Rows, scan func(rowScanner) (T, error)) ([]T, error) {
	out := []T{}
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration failed: %w", err)
	}
	return out, nil
}
