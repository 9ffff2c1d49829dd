package database

import (
	"encoding/json"
	"fmt"
	"time"
)

// Each entity kind has its own id namespace: an AuthorID and a TagID with
// the same numeric value refer to different things and are never
// interchangeable.
type (
	AuthorID     int64
	CollectionID int64
	FileMetaID   int64
	PlatformID   int64
	PostID       int64
	TagID        int64
)

// Link is one external profile or source link attached to an author.
type Link struct {
	Name string `json:"name"`
	Url  string `json:"url"`
}

type Author struct {
	ID      AuthorID    `json:"id"`
	Name    string      `json:"name"`
	Links   []Link      `json:"links"`
	Thumb   *FileMetaID `json:"thumb,omitempty"`
	Updated time.Time   `json:"updated"`
}

type Tag struct {
	ID       TagID       `json:"id"`
	Name     string      `json:"name"`
	Platform *PlatformID `json:"platform,omitempty"`
}

type Platform struct {
	ID   PlatformID `json:"id"`
	Name string     `json:"name"`
}

type Collection struct {
	ID    CollectionID `json:"id"`
	Name  string       `json:"name"`
	Thumb *FileMetaID  `json:"thumb,omitempty"`
}

// AuthorAlias maps a platform-specific author identifier onto an archive
// author.
type AuthorAlias struct {
	Source   string     `json:"source"`
	Platform PlatformID `json:"platform"`
	Target   AuthorID   `json:"target"`
}

type Comment struct {
	User    string    `json:"user"`
	Text    string    `json:"text"`
	Replies []Comment `json:"replies,omitempty"`
}

// Content is one block of a post body: either literal text or a reference
// to a file_metas row. The stored JSON encoding is a bare string for text
// and a bare number for a file reference.
type Content struct {
	Text   string
	File   FileMetaID
	IsFile bool
}

func TextContent(text string) Content {
	return Content{Text: text}
}

func FileContent(id FileMetaID) Content {
	return Content{File: id, IsFile: true}
}

func (c Content) MarshalJSON() ([]byte, error) {
	if c.IsFile {
		return json.Marshal(int64(c.File))
	}
	return json.Marshal(c.Text)
}

func (c *Content) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		c.IsFile = false
		return json.Unmarshal(data, &c.Text)
	}
	var id int64
	if err := json.Unmarshal(data, &id); err != nil {
		return fmt.Errorf("content block must be a string or a file id: %w", err)
	}
	c.File = FileMetaID(id)
	c.IsFile = true
	return nil
}

type Post struct {
	ID        PostID      `json:"id"`
	Title     string      `json:"title"`
	Content   []Content   `json:"content"`
	Source    *string     `json:"source"`
	Thumb     *FileMetaID `json:"thumb,omitempty"`
	Platform  *PlatformID `json:"platform,omitempty"`
	Comments  []Comment   `json:"comments"`
	Published time.Time   `json:"published"`
	Updated   time.Time   `json:"updated"`
}

// PostDetail is a post row together with the ids from its association
// tables. The referenced entities are attached by the relation resolver.
type PostDetail struct {
	Post
	Tags        []TagID        `json:"tags"`
	Authors     []AuthorID     `json:"authors"`
	Collections []CollectionID `json:"collections"`
}

// PostPreview is the trimmed post projection used by listings. Thumb is
// null when the post has no thumbnail or the referenced file row is gone.
type PostPreview struct {
	ID      PostID      `json:"id"`
	Title   string      `json:"title"`
	Thumb   *FileMetaID `json:"thumb,omitempty"`
	Updated time.Time   `json:"updated"`
}

type FileMeta struct {
	ID       FileMetaID     `json:"id"`
	Filename string         `json:"filename"`
	Author   AuthorID       `json:"author"`
	Post     PostID         `json:"post"`
	Mime     string         `json:"mime"`
	Extra    map[string]any `json:"extra"`
}

// Summary holds the archive-wide entity counts served by /api/summary.
type Summary struct {
	ArchiveVersion string `json:"archiveVersion"`
	Posts          int    `json:"posts"`
	Authors        int    `json:"authors"`
	Tags           int    `json:"tags"`
	Platforms      int    `json:"platforms"`
	Collections    int    `json:"collections"`
}
