package database

import (
	"testing"
)

const (
	timeOld   = "2024-01-02T03:04:05Z"
	timeMid   = "2024-03-04T05:06:07Z"
	timeNew   = "2024-05-06T07:08:09Z"
	timeNewer = "2024-07-08T09:10:11Z"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := NewConnection(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, _, err := RunMigrations(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	return db
}

func execT(t *testing.T, db *DB, query string, args ...any) {
	t.Helper()
	if _, err := db.Exec(query, args...); err != nil {
		t.Fatalf("Failed to execute %q: %v", query, err)
	}
}

func seedPlatform(t *testing.T, db *DB, id int64, name string) {
	execT(t, db, "INSERT INTO platforms (id, name) VALUES (?, ?)", id, name)
}

func seedAuthor(t *testing.T, db *DB, id int64, name string, thumb any, updated string) {
	execT(t, db, "INSERT INTO authors (id, name, links, thumb, updated) VALUES (?, ?, '[]', ?, ?)", id, name, thumb, updated)
}

func seedTag(t *testing.T, db *DB, id int64, name string, platform any) {
	execT(t, db, "INSERT INTO tags (id, name, platform) VALUES (?, ?, ?)", id, name, platform)
}

func seedCollection(t *testing.T, db *DB, id int64, name string, thumb any) {
	execT(t, db, "INSERT INTO collections (id, name, thumb) VALUES (?, ?, ?)", id, name, thumb)
}

func seedPost(t *testing.T, db *DB, id int64, title string, updated string) {
	execT(t, db, "INSERT INTO posts (id, title, content, comments, published, updated) VALUES (?, ?, '[]', '[]', ?, ?)", id, title, updated, updated)
}

func seedFile(t *testing.T, db *DB, id int64, filename string, author, post int64) {
	execT(t, db, "INSERT INTO file_metas (id, filename, author, post, mime, extra) VALUES (?, ?, ?, ?, 'image/png', '{}')", id, filename, author, post)
}

func linkTag(t *testing.T, db *DB, post, tag int64) {
	execT(t, db, "INSERT INTO post_tags (post, tag) VALUES (?, ?)", post, tag)
}

func linkAuthor(t *testing.T, db *DB, author, post int64) {
	execT(t, db, "INSERT INTO author_posts (author, post) VALUES (?, ?)", author, post)
}

func linkCollection(t *testing.T, db *DB, collection, post int64) {
	execT(t, db, "INSERT INTO collection_posts (collection, post) VALUES (?, ?)", collection, post)
}

func postIDs(previews []PostPreview) []int64 {
	ids := make([]int64, 0, len(previews))
	for _, p := range previews {
		ids = append(ids, int64(p.ID))
	}
	return ids
}

func equalIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
