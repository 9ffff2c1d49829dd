package database

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// PostOrder selects the ordering of compound post searches. Random ordering
// gives no stable pagination window.
type PostOrder string

const (
	PostOrderDefault PostOrder = ""
	PostOrderUpdated PostOrder = "updated"
	PostOrderID      PostOrder = "id"
	PostOrderRandom  PostOrder = "random"
)

func (o PostOrder) clause() (string, error) {
	switch o {
	case PostOrderDefault, PostOrderUpdated:
		return "posts.updated DESC", nil
	case PostOrderID:
		return "posts.id DESC", nil
	case PostOrderRandom:
		return "RANDOM()", nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidOrder, o)
	}
}

// SearchFilter is the structured input of a compound post search. Relation
// id sets use intersection semantics: a post must carry every id in a set
// to match.
type SearchFilter struct {
	Search      string
	Tags        []TagID
	Authors     []AuthorID
	Collections []CollectionID
	Platforms   []PlatformID
	Order       PostOrder
}

// Signature is the cache key for the filter's total count: every field that
// influences the result set, with id sets deduplicated and sorted so
// equivalent filters share one key.
func (f SearchFilter) Signature() string {
	var b strings.Builder
	fmt.Fprintf(&b, "search=%s|order=%s", NormalizeSearch(f.Search), f.Order)
	fmt.Fprintf(&b, "|tags=%v", sortedSet(f.Tags))
	fmt.Fprintf(&b, "|authors=%v", sortedSet(f.Authors))
	fmt.Fprintf(&b, "|collections=%v", sortedSet(f.Collections))
	fmt.Fprintf(&b, "|platforms=%v", sortedSet(f.Platforms))
	return b.String()
}

// NormalizeSearch trims and NFC-normalizes user search input so composed
// and decomposed Unicode spellings match the stored titles.
func NormalizeSearch(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

func sortedSet[I ~int64](ids []I) []int64 {
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		out = append(out, int64(id))
	}
	slices.Sort(out)
	return slices.Compact(out)
}

func jsonIDs(ids []int64) string {
	b, _ := json.Marshal(ids)
	return string(b)
}

// searchContext accumulates the SQL fragments and bound parameters of one
// compound search. Fragments are fixed trusted text; every user-supplied
// value is bound as a named parameter, id sets as a single JSON array each
// so the statement shape stays constant regardless of set size.
type searchContext struct {
	joins   []string
	filters []string
	havings []string
	args    []any
}

func (sc *searchContext) bindSearch(fullText bool, search string) {
	search = NormalizeSearch(search)
	if search == "" {
		return
	}

	sc.args = append(sc.args, sql.Named("search", search))
	if fullText {
		sc.joins = append(sc.joins, "JOIN _posts_fts ON posts.id = _posts_fts.rowid")
		sc.filters = append(sc.filters, "_posts_fts MATCH :search")
	} else {
		sc.filters = append(sc.filters, "posts.title LIKE '%' || :search || '%'")
	}
}

func (sc *searchContext) bindRelations(f SearchFilter) {
	if authors := sortedSet(f.Authors); len(authors) > 0 {
		sc.joins = append(sc.joins, "JOIN author_posts ON posts.id = author_posts.post AND author_posts.author IN (SELECT value FROM json_each(:authors))")
		sc.args = append(sc.args, sql.Named("authors", jsonIDs(authors)))
		if len(authors) > 1 {
			sc.havings = append(sc.havings, "COUNT(DISTINCT author_posts.author) = CAST(:author_count AS INTEGER)")
			sc.args = append(sc.args, sql.Named("author_count", len(authors)))
		}
	}

	if tags := sortedSet(f.Tags); len(tags) > 0 {
		sc.joins = append(sc.joins, "JOIN post_tags ON posts.id = post_tags.post AND post_tags.tag IN (SELECT value FROM json_each(:tags))")
		sc.args = append(sc.args, sql.Named("tags", jsonIDs(tags)))
		if len(tags) > 1 {
			sc.havings = append(sc.havings, "COUNT(DISTINCT post_tags.tag) = CAST(:tag_count AS INTEGER)")
			sc.args = append(sc.args, sql.Named("tag_count", len(tags)))
		}
	}

	if collections := sortedSet(f.Collections); len(collections) > 0 {
		sc.joins = append(sc.joins, "JOIN collection_posts ON posts.id = collection_posts.post AND collection_posts.collection IN (SELECT value FROM json_each(:collections))")
		sc.args = append(sc.args, sql.Named("collections", jsonIDs(collections)))
		if len(collections) > 1 {
			sc.havings = append(sc.havings, "COUNT(DISTINCT collection_posts.collection) = CAST(:collection_count AS INTEGER)")
			sc.args = append(sc.args, sql.Named("collection_count", len(collections)))
		}
	}

	if platforms := sortedSet(f.Platforms); len(platforms) > 0 {
		sc.filters = append(sc.filters, "posts.platform IN (SELECT value FROM json_each(:platforms))")
		sc.args = append(sc.args, sql.Named("platforms", jsonIDs(platforms)))
	}
}

func (sc *searchContext) whereClause() string {
	if len(sc.filters) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(sc.filters, " AND ")
}

func (sc *searchContext) havingClause() string {
	if len(sc.havings) == 0 {
		return ""
	}
	return " GROUP BY posts.id HAVING " + strings.Join(sc.havings, " AND ")
}

func (sc *searchContext) joinClause() string {
	if len(sc.joins) == 0 {
		return ""
	}
	return " " + strings.Join(sc.joins, " ")
}

func (sc *searchContext) searchSQL(orderClause string) string {
	return "SELECT posts.id, posts.title, file_metas.id, posts.updated FROM posts" +
		" LEFT JOIN file_metas ON posts.thumb = file_metas.id" +
		sc.joinClause() +
		sc.whereClause() +
		sc.havingClause() +
		" ORDER BY " + orderClause + " LIMIT :limit OFFSET :offset"
}

// totalSQL wraps the grouped row set in a subquery: HAVING applies per
// grouped post id, so a bare outer COUNT over the joined rows would count
// association rows instead of posts.
func (sc *searchContext) totalSQL() string {
	return "SELECT count() FROM (SELECT 0 FROM posts" +
		sc.joinClause() +
		sc.whereClause() +
		sc.havingClause() + ")"
}

// Search returns one page of posts matching the filter plus the total
// match count. Totals are cached under the filter signature; rows are
// always queried fresh.
func (r *PostRepository) Search(p Pagination, f SearchFilter) ([]PostPreview, int, error) {
	p = p.normalize()

	orderClause, err := f.Order.clause()
	if err != nil {
		return nil, 0, err
	}

	sc := &searchContext{}
	sc.bindSearch(r.fullText, f.Search)
	sc.bindRelations(f)

	args := append(slices.Clone(sc.args), sql.Named("limit", p.Limit), sql.Named("offset", p.offset()))
	rows, err := r.db.Query(sc.searchSQL(orderClause), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to search posts: %w", err)
	}
	defer rows.Close()

	list, err := collectRows(rows, scanPostPreview)
	if err != nil {
		return nil, 0, err
	}

	total, err := r.searchTotal(sc, f)
	if err != nil {
		return nil, 0, err
	}

	return list, total, nil
}

func (r *PostRepository) searchTotal(sc *searchContext, f SearchFilter) (int, error) {
	signature := f.Signature()
	if total, ok := r.search.Get(signature); ok {
		return total, nil
	}

	var total int
	err := r.db.QueryRow(sc.totalSQL(), sc.args...).Scan(&total)
	if errors.Is(err, sql.ErrNoRows) {
		total = 0
	} else if err != nil {
		return 0, fmt.Errorf("failed to count search results: %w", err)
	}
	r.search.Put(signature, total)

	return total, nil
}
