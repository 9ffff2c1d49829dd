package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// rowScanner is satisfied by both *sql.Row and *sql.Rows so the same decode
// functions serve point lookups and listings.
type rowScanner interface {
	Scan(dest ...any) error
}

// Column lists matching the decode functions below. Queries always select
// these explicitly so decoding does not depend on the physical column order
// of the archive tables.
const (
	authorColumns     = "id, name, links, thumb, updated"
	tagColumns        = "id, name, platform"
	platformColumns   = "id, name"
	collectionColumns = "id, name, thumb"
	postColumns       = "id, title, content, source, thumb, platform, comments, published, updated"
	fileMetaColumns   = "id, filename, author, post, mime, extra"
)

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05",
}

func parseTime(value string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", value)
}

func optFileID(v sql.NullInt64) *FileMetaID {
	if !v.Valid {
		return nil
	}
	id := FileMetaID(v.Int64)
	return &id
}

func optPlatformID(v sql.NullInt64) *PlatformID {
	if !v.Valid {
		return nil
	}
	id := PlatformID(v.Int64)
	return &id
}

func scanAuthor(row rowScanner) (Author, error) {
	var a Author
	var links, updated string
	var thumb sql.NullInt64

	if err := row.Scan(&a.ID, &a.Name, &links, &thumb, &updated); err != nil {
		return a, err
	}

	if err := json.Unmarshal([]byte(links), &a.Links); err != nil {
		return a, fmt.Errorf("malformed links column for author %d: %w", a.ID, err)
	}
	a.Thumb = optFileID(thumb)

	var err error
	if a.Updated, err = parseTime(updated); err != nil {
		return a, fmt.Errorf("malformed updated column for author %d: %w", a.ID, err)
	}

	return a, nil
}

func scanTag(row rowScanner) (Tag, error) {
	var t Tag
	var platform sql.NullInt64

	if err := row.Scan(&t.ID, &t.Name, &platform); err != nil {
		return t, err
	}
	t.Platform = optPlatformID(platform)

	return t, nil
}

func scanPlatform(row rowScanner) (Platform, error) {
	var p Platform
	err := row.Scan(&p.ID, &p.Name)
	return p, err
}

func scanCollection(row rowScanner) (Collection, error) {
	var c Collection
	var thumb sql.NullInt64

	if err := row.Scan(&c.ID, &c.Name, &thumb); err != nil {
		return c, err
	}
	c.Thumb = optFileID(thumb)

	return c, nil
}

func scanPost(row rowScanner) (Post, error) {
	var p Post
	var content, comments, published, updated string
	var source sql.NullString
	var thumb, platform sql.NullInt64

	if err := row.Scan(&p.ID, &p.Title, &content, &source, &thumb, &platform, &comments, &published, &updated); err != nil {
		return p, err
	}

	if err := json.Unmarshal([]byte(content), &p.Content); err != nil {
		return p, fmt.Errorf("malformed content column for post %d: %w", p.ID, err)
	}
	if err := json.Unmarshal([]byte(comments), &p.Comments); err != nil {
		return p, fmt.Errorf("malformed comments column for post %d: %w", p.ID, err)
	}

	if source.Valid {
		p.Source = &source.String
	}
	p.Thumb = optFileID(thumb)
	p.Platform = optPlatformID(platform)

	var err error
	if p.Published, err = parseTime(published); err != nil {
		return p, fmt.Errorf("malformed published column for post %d: %w", p.ID, err)
	}
	if p.Updated, err = parseTime(updated); err != nil {
		return p, fmt.Errorf("malformed updated column for post %d: %w", p.ID, err)
	}

	return p, nil
}

// scanPostPreview expects id, title, thumb, updated. Thumb must be selected
// through a LEFT JOIN against file_metas so a dangling thumbnail id decodes
// as null instead of failing the listing.
func scanPostPreview(row rowScanner) (PostPreview, error) {
	var p PostPreview
	var updated string
	var thumb sql.NullInt64

	if err := row.Scan(&p.ID, &p.Title, &thumb, &updated); err != nil {
		return p, err
	}
	p.Thumb = optFileID(thumb)

	var err error
	if p.Updated, err = parseTime(updated); err != nil {
		return p, fmt.Errorf("malformed updated column for post %d: %w", p.ID, err)
	}

	return p, nil
}

func scanFileMeta(row rowScanner) (FileMeta, error) {
	var f FileMeta
	var extra string

	if err := row.Scan(&f.ID, &f.Filename, &f.Author, &f.Post, &f.Mime, &extra); err != nil {
		return f, err
	}

	if err := json.Unmarshal([]byte(extra), &f.Extra); err != nil {
		return f, fmt.Errorf("malformed extra column for file %d: %w", f.ID, err)
	}

	return f, nil
}

func scanAuthorAlias(row rowScanner) (AuthorAlias, error) {
	var a AuthorAlias
	err := row.Scan(&a.Source, &a.Platform, &a.Target)
	return a, err
}
