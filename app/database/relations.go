package database

import (
	"database/sql"
	"fmt"
)

// RelationIDs declares, per relation kind, the foreign ids a payload needs
// resolved. Lists may contain duplicates; resolution deduplicates them.
type RelationIDs struct {
	Authors     []AuthorID
	Collections []CollectionID
	Platforms   []PlatformID
	Tags        []TagID
	Files       []FileMetaID
}

// RelationSource is implemented by any payload that can report the foreign
// ids it references.
type RelationSource interface {
	RelationIDs() RelationIDs
}

// RelationIDs is its own source, so merged requirements can be resolved
// directly.
func (r RelationIDs) RelationIDs() RelationIDs {
	return r
}

// MergeRelationIDs collects the requirements of every element of a list
// payload.
func MergeRelationIDs[T RelationSource](items []T) RelationIDs {
	var merged RelationIDs
	for _, item := range items {
		ids := item.RelationIDs()
		merged.Authors = append(merged.Authors, ids.Authors...)
		merged.Collections = append(merged.Collections, ids.Collections...)
		merged.Platforms = append(merged.Platforms, ids.Platforms...)
		merged.Tags = append(merged.Tags, ids.Tags...)
		merged.Files = append(merged.Files, ids.Files...)
	}
	return merged
}

// Relations carries the fully resolved entities referenced by a payload.
// Kinds with no referenced ids are omitted from the serialized form.
type Relations struct {
	Authors     []Author     `json:"authors,omitempty"`
	Collections []Collection `json:"collections,omitempty"`
	Platforms   []Platform   `json:"platforms,omitempty"`
	Tags        []Tag        `json:"tags,omitempty"`
	FileMetas   []FileMeta   `json:"file_metas,omitempty"`
}

func (a Author) RelationIDs() RelationIDs {
	var ids RelationIDs
	if a.Thumb != nil {
		ids.Files = []FileMetaID{*a.Thumb}
	}
	return ids
}

func (t Tag) RelationIDs() RelationIDs {
	var ids RelationIDs
	if t.Platform != nil {
		ids.Platforms = []PlatformID{*t.Platform}
	}
	return ids
}

func (Platform) RelationIDs() RelationIDs {
	return RelationIDs{}
}

func (c Collection) RelationIDs() RelationIDs {
	var ids RelationIDs
	if c.Thumb != nil {
		ids.Files = []FileMetaID{*c.Thumb}
	}
	return ids
}

func (a AuthorAlias) RelationIDs() RelationIDs {
	return RelationIDs{Platforms: []PlatformID{a.Platform}}
}

func (p PostPreview) RelationIDs() RelationIDs {
	var ids RelationIDs
	if p.Thumb != nil {
		ids.Files = []FileMetaID{*p.Thumb}
	}
	return ids
}

func (p PostDetail) RelationIDs() RelationIDs {
	ids := RelationIDs{
		Authors:     p.Authors,
		Collections: p.Collections,
		Tags:        p.Tags,
	}
	if p.Platform != nil {
		ids.Platforms = []PlatformID{*p.Platform}
	}
	for _, block := range p.Content {
		if block.IsFile {
			ids.Files = append(ids.Files, block.File)
		}
	}
	if p.Thumb != nil {
		ids.Files = append(ids.Files, *p.Thumb)
	}
	return ids
}

// ResolveRelations loads every entity the payload references, one batched
// query per kind, inside a single read transaction so the whole pass sees
// one consistent snapshot.
//
// The resolution order is load-bearing: tags must resolve before platforms
// and authors/collections before files, because the platform ids of
// resolved tags and the thumbnail ids of resolved authors and collections
// feed the later steps. Reordering silently drops those nested references.
//
// Ids that no longer resolve are simply absent from the result.
func (db *DB) ResolveRelations(src RelationSource) (*Relations, error) {
	ids := src.RelationIDs()

	tx, err := db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin relation transaction: %w", err)
	}
	defer tx.Rollback()

	tags, err := queryRelation(tx, "tags", tagColumns, ids.Tags, scanTag)
	if err != nil {
		return nil, err
	}

	platformIDs := ids.Platforms
	for _, tag := range tags {
		if tag.Platform != nil {
			platformIDs = append(platformIDs, *tag.Platform)
		}
	}
	platforms, err := queryRelation(tx, "platforms", platformColumns, platformIDs, scanPlatform)
	if err != nil {
		return nil, err
	}

	authors, err := queryRelation(tx, "authors", authorColumns, ids.Authors, scanAuthor)
	if err != nil {
		return nil, err
	}

	collections, err := queryRelation(tx, "collections", collectionColumns, ids.Collections, scanCollection)
	if err != nil {
		return nil, err
	}

	fileIDs := ids.Files
	for _, author := range authors {
		if author.Thumb != nil {
			fileIDs = append(fileIDs, *author.Thumb)
		}
	}
	for _, collection := range collections {
		if collection.Thumb != nil {
			fileIDs = append(fileIDs, *collection.Thumb)
		}
	}
	fileMetas, err := queryRelation(tx, "file_metas", fileMetaColumns, fileIDs, scanFileMeta)
	if err != nil {
		return nil, err
	}

	return &Relations{
		Authors:     authors,
		Collections: collections,
		Platforms:   platforms,
		Tags:        tags,
		FileMetas:   fileMetas,
	}, nil
}

// queryRelation batch-loads the rows for a deduplicated id set, binding the
// set as one JSON array parameter. An empty set issues no query at all.
func queryRelation[I ~int64, T any](tx *sql.Tx, table, columns string, ids []I, scan func(rowScanner) (T, error)) ([]T, error) {
	set := sortedSet(ids)
	if len(set) == 0 {
		return nil, nil
	}

	rows, err := tx.Query(
		"SELECT "+columns+" FROM "+table+" WHERE id IN (SELECT value FROM json_each(?))",
		jsonIDs(set),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s relations: %w", table, err)
	}
	defer rows.Close()

	return collectRows(rows, scan)
}
