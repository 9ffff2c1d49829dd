package database

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestParseTime(t *testing.T) {
	tests := []struct {
		value string
		valid bool
	}{
		{"2024-01-02T03:04:05Z", true},
		{"2024-01-02T03:04:05.123456789Z", true},
		{"2024-01-02 03:04:05", true},
		{"2024-01-02 03:04:05.123+00:00", true},
		{"not a timestamp", false},
		{"", false},
	}

	for _, tt := range tests {
		_, err := parseTime(tt.value)
		if tt.valid && err != nil {
			t.Errorf("parseTime(%q) failed: %v", tt.value, err)
		}
		if !tt.valid && err == nil {
			t.Errorf("parseTime(%q) should have failed", tt.value)
		}
	}
}

func TestContentJSON(t *testing.T) {
	var blocks []Content
	if err := json.Unmarshal([]byte(`["hello", 7, "world"]`), &blocks); err != nil {
		t.Fatalf("Failed to decode content blocks: %v", err)
	}

	if len(blocks) != 3 {
		t.Fatalf("Expected 3 blocks, got %d", len(blocks))
	}
	if blocks[0].IsFile || blocks[0].Text != "hello" {
		t.Errorf("Expected text block 'hello', got %+v", blocks[0])
	}
	if !blocks[1].IsFile || blocks[1].File != 7 {
		t.Errorf("Expected file block 7, got %+v", blocks[1])
	}

	encoded, err := json.Marshal(blocks)
	if err != nil {
		t.Fatalf("Failed to encode content blocks: %v", err)
	}
	if string(encoded) != `["hello",7,"world"]` {
		t.Errorf("Unexpected encoding: %s", encoded)
	}
}

func TestContentJSONRejectsObjects(t *testing.T) {
	var block Content
	if err := json.Unmarshal([]byte(`{"file": 7}`), &block); err == nil {
		t.Error("Expected error for object content block")
	}
}

func TestScanAuthorMalformedLinks(t *testing.T) {
	db := newTestDB(t)
	execT(t, db, "INSERT INTO authors (id, name, links, updated) VALUES (1, 'broken', 'not json', ?)", timeOld)

	repo := NewAuthorRepository(db, NewCaches())
	_, err := repo.Get(1)
	if err == nil {
		t.Fatal("Expected error for malformed links column")
	}
	if !strings.Contains(err.Error(), "links") {
		t.Errorf("Error should name the malformed column, got: %v", err)
	}
}

func TestScanPostMalformedContent(t *testing.T) {
	db := newTestDB(t)
	execT(t, db, "INSERT INTO posts (id, title, content, comments, published, updated) VALUES (1, 'broken', '{bad', '[]', ?, ?)", timeOld, timeOld)

	repo := NewPostRepository(db, NewCaches(), false)
	_, err := repo.Get(1)
	if err == nil {
		t.Fatal("Expected error for malformed content column")
	}
	if !strings.Contains(err.Error(), "content") {
		t.Errorf("Error should name the malformed column, got: %v", err)
	}
}

func TestScanPostFields(t *testing.T) {
	db := newTestDB(t)
	seedPlatform(t, db, 3, "boosty")
	seedAuthor(t, db, 1, "alice", nil, timeOld)
	seedPost(t, db, 1, "full post", timeMid)
	seedFile(t, db, 9, "thumb.png", 1, 1)
	execT(t, db, `UPDATE posts SET
		content = '["intro", 9]',
		comments = '[{"user":"bob","text":"nice","replies":[{"user":"alice","text":"thanks"}]}]',
		source = 'https://example.com/p/1',
		thumb = 9,
		platform = 3
		WHERE id = 1`)

	repo := NewPostRepository(db, NewCaches(), false)
	detail, err := repo.Get(1)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if detail == nil {
		t.Fatal("Expected post, got nil")
	}

	post := detail.Post
	if post.Title != "full post" {
		t.Errorf("Unexpected title %q", post.Title)
	}
	if post.Source == nil || *post.Source != "https://example.com/p/1" {
		t.Errorf("Unexpected source %v", post.Source)
	}
	if post.Thumb == nil || *post.Thumb != 9 {
		t.Errorf("Unexpected thumb %v", post.Thumb)
	}
	if post.Platform == nil || *post.Platform != 3 {
		t.Errorf("Unexpected platform %v", post.Platform)
	}
	if len(post.Content) != 2 || post.Content[0].Text != "intro" || !post.Content[1].IsFile {
		t.Errorf("Unexpected content %+v", post.Content)
	}
	if len(post.Comments) != 1 || len(post.Comments[0].Replies) != 1 {
		t.Errorf("Unexpected comments %+v", post.Comments)
	}
	if post.Updated.Format(time.RFC3339) != timeMid {
		t.Errorf("Unexpected updated %v", post.Updated)
	}
}
