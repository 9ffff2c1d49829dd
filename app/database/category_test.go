package database

import (
	"errors"
	"testing"
)

func TestCategoryList_DefaultOrder(t *testing.T) {
	db := newTestDB(t)
	seedTag(t, db, 1, "zebra", nil)
	seedTag(t, db, 2, "apple", nil)
	seedTag(t, db, 3, "mango", nil)

	repo := NewTagRepository(db, NewCaches())
	tags, err := repo.List(Pagination{}, "", OrderDefault)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	want := []string{"apple", "mango", "zebra"}
	if len(tags) != len(want) {
		t.Fatalf("Expected %d tags, got %d", len(want), len(tags))
	}
	for i, name := range want {
		if tags[i].Name != name {
			t.Errorf("Position %d: expected %q, got %q", i, name, tags[i].Name)
		}
	}
}

func TestCategoryList_AuthorsDefaultToUpdatedDesc(t *testing.T) {
	db := newTestDB(t)
	seedAuthor(t, db, 1, "old author", nil, timeOld)
	seedAuthor(t, db, 2, "new author", nil, timeNew)
	seedAuthor(t, db, 3, "mid author", nil, timeMid)

	repo := NewAuthorRepository(db, NewCaches())
	authors, err := repo.List(Pagination{}, "", OrderDefault)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	want := []AuthorID{2, 3, 1}
	for i, id := range want {
		if authors[i].ID != id {
			t.Errorf("Position %d: expected author %d, got %d", i, id, authors[i].ID)
		}
	}
}

func TestCategoryList_ExplicitOrderWins(t *testing.T) {
	db := newTestDB(t)
	seedAuthor(t, db, 1, "beta", nil, timeOld)
	seedAuthor(t, db, 2, "alpha", nil, timeNew)

	repo := NewAuthorRepository(db, NewCaches())
	authors, err := repo.List(Pagination{}, "", OrderName)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if authors[0].Name != "alpha" || authors[1].Name != "beta" {
		t.Errorf("Expected name ordering, got %q, %q", authors[0].Name, authors[1].Name)
	}
}

func TestCategoryList_InvalidOrder(t *testing.T) {
	db := newTestDB(t)
	repo := NewTagRepository(db, NewCaches())

	if _, err := repo.List(Pagination{}, "", OrderBy("sideways")); !errors.Is(err, ErrInvalidOrder) {
		t.Errorf("Expected ErrInvalidOrder, got %v", err)
	}

	// Only authors carry an update timestamp.
	if _, err := repo.List(Pagination{}, "", OrderUpdated); !errors.Is(err, ErrInvalidOrder) {
		t.Errorf("Expected ErrInvalidOrder for tags ordered by update time, got %v", err)
	}
}

func TestCategoryList_Search(t *testing.T) {
	db := newTestDB(t)
	seedTag(t, db, 1, "landscape", nil)
	seedTag(t, db, 2, "portrait", nil)
	seedTag(t, db, 3, "cityscape", nil)

	repo := NewTagRepository(db, NewCaches())
	tags, err := repo.List(Pagination{}, "scape", OrderDefault)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(tags) != 2 {
		t.Fatalf("Expected 2 tags matching 'scape', got %d", len(tags))
	}
	if tags[0].Name != "cityscape" || tags[1].Name != "landscape" {
		t.Errorf("Unexpected matches: %q, %q", tags[0].Name, tags[1].Name)
	}
}

func TestCategoryList_Pagination(t *testing.T) {
	db := newTestDB(t)
	for i := int64(1); i <= 5; i++ {
		seedCollection(t, db, i, string(rune('a'+i-1))+"-collection", nil)
	}

	repo := NewCollectionRepository(db, NewCaches())

	page0, err := repo.List(Pagination{Limit: 2, Page: 0}, "", OrderDefault)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	page1, err := repo.List(Pagination{Limit: 2, Page: 1}, "", OrderDefault)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	page2, err := repo.List(Pagination{Limit: 2, Page: 2}, "", OrderDefault)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(page0) != 2 || len(page1) != 2 || len(page2) != 1 {
		t.Fatalf("Unexpected page sizes: %d, %d, %d", len(page0), len(page1), len(page2))
	}
	if page0[0].Name != "a-collection" || page1[0].Name != "c-collection" || page2[0].Name != "e-collection" {
		t.Errorf("Unexpected page contents: %q, %q, %q", page0[0].Name, page1[0].Name, page2[0].Name)
	}
}

func TestCategoryTotal_CachesUnfilteredCount(t *testing.T) {
	db := newTestDB(t)
	seedTag(t, db, 1, "one", nil)
	seedTag(t, db, 2, "two", nil)

	repo := NewTagRepository(db, NewCaches())

	total, err := repo.Total("")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if total != 2 {
		t.Fatalf("Expected total 2, got %d", total)
	}

	// The second call must come from the cache: mutate the table and expect
	// the stale total.
	execT(t, db, "DELETE FROM tags WHERE id = 2")

	total, err = repo.Total("")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if total != 2 {
		t.Errorf("Expected cached total 2 after delete, got %d", total)
	}
}

func TestCategoryTotal_SearchedCountIsFresh(t *testing.T) {
	db := newTestDB(t)
	seedTag(t, db, 1, "apple", nil)
	seedTag(t, db, 2, "apricot", nil)

	repo := NewTagRepository(db, NewCaches())

	total, err := repo.Total("ap")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if total != 2 {
		t.Fatalf("Expected total 2, got %d", total)
	}

	execT(t, db, "DELETE FROM tags WHERE id = 2")

	total, err = repo.Total("ap")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if total != 1 {
		t.Errorf("Searched totals must not be cached: expected 1, got %d", total)
	}
}

func TestCategoryGet_NotFoundIsNil(t *testing.T) {
	db := newTestDB(t)
	repo := NewPlatformRepository(db, NewCaches())

	platform, err := repo.Get(99)
	if err != nil {
		t.Fatalf("Not found must not be an error, got: %v", err)
	}
	if platform != nil {
		t.Errorf("Expected nil for missing platform, got %+v", platform)
	}
}

func TestCategoryListPosts(t *testing.T) {
	db := newTestDB(t)
	seedAuthor(t, db, 1, "alice", nil, timeOld)
	seedPost(t, db, 1, "first", timeOld)
	seedPost(t, db, 2, "second", timeNew)
	seedPost(t, db, 3, "unrelated", timeMid)
	linkAuthor(t, db, 1, 1)
	linkAuthor(t, db, 1, 2)

	repo := NewAuthorRepository(db, NewCaches())

	posts, err := repo.ListPosts(1, Pagination{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !equalIDs(postIDs(posts), []int64{2, 1}) {
		t.Errorf("Expected posts [2 1] newest first, got %v", postIDs(posts))
	}

	total, err := repo.TotalPosts(1)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if total != 2 {
		t.Errorf("Expected 2 posts for author, got %d", total)
	}
}

func TestCategoryListPosts_PlatformFiltersDirectly(t *testing.T) {
	db := newTestDB(t)
	seedPlatform(t, db, 1, "fanbox")
	seedPost(t, db, 1, "on platform", timeOld)
	seedPost(t, db, 2, "off platform", timeNew)
	execT(t, db, "UPDATE posts SET platform = 1 WHERE id = 1")

	repo := NewPlatformRepository(db, NewCaches())

	posts, err := repo.ListPosts(1, Pagination{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !equalIDs(postIDs(posts), []int64{1}) {
		t.Errorf("Expected only post 1, got %v", postIDs(posts))
	}
}

func TestCategoryListPosts_DanglingThumbIsNull(t *testing.T) {
	db := newTestDB(t)
	seedAuthor(t, db, 1, "alice", nil, timeOld)
	seedPost(t, db, 1, "dangling thumb", timeOld)
	linkAuthor(t, db, 1, 1)
	// Thumbnail id points at a file row that does not exist.
	execT(t, db, "UPDATE posts SET thumb = 404 WHERE id = 1")

	repo := NewAuthorRepository(db, NewCaches())

	posts, err := repo.ListPosts(1, Pagination{})
	if err != nil {
		t.Fatalf("A dangling thumbnail must not fail the listing: %v", err)
	}
	if len(posts) != 1 {
		t.Fatalf("Expected the post to list, got %d rows", len(posts))
	}
	if posts[0].Thumb != nil {
		t.Errorf("Expected null thumb for dangling reference, got %v", *posts[0].Thumb)
	}
}

func TestCategoryTotalPosts_Cached(t *testing.T) {
	db := newTestDB(t)
	seedTag(t, db, 1, "cached", nil)
	seedPost(t, db, 1, "one", timeOld)
	linkTag(t, db, 1, 1)

	repo := NewTagRepository(db, NewCaches())

	total, err := repo.TotalPosts(1)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if total != 1 {
		t.Fatalf("Expected 1 post, got %d", total)
	}

	execT(t, db, "DELETE FROM post_tags")

	total, err = repo.TotalPosts(1)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if total != 1 {
		t.Errorf("Expected cached count 1 after unlink, got %d", total)
	}
}
