package api

import (
	"encoding/json"

	"github.com/averle/postview/app/cfg"
	"github.com/averle/postview/app/database"
)

type Handler struct {
	cfg         *cfg.Cfg
	db          *database.DB
	authors     *database.CategoryRepository[database.Author, database.AuthorID]
	tags        *database.CategoryRepository[database.Tag, database.TagID]
	platforms   *database.CategoryRepository[database.Platform, database.PlatformID]
	collections *database.CategoryRepository[database.Collection, database.CollectionID]
	posts       *database.PostRepository
}

type ListResponse[T any] struct {
	List  []T `json:"list"`
	Total int `json:"total"`
}

// withRelations serializes a payload with the resolved relation side lists
// merged into the same JSON object. Keys already present on the payload
// win, matching the flattened-wrapper shape the frontend expects.
type withRelations struct {
	value     any
	relations *database.Relations
}

func (w withRelations) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal(w.value)
	if err != nil {
		return nil, err
	}

	var merged map[string]json.RawMessage
	if err := json.Unmarshal(base, &merged); err != nil {
		return nil, err
	}

	if w.relations != nil {
		rel, err := json.Marshal(w.relations)
		if err != nil {
			return nil, err
		}
		var relFields map[string]json.RawMessage
		if err := json.Unmarshal(rel, &relFields); err != nil {
			return nil, err
		}
		for key, value := range relFields {
			if _, exists := merged[key]; !exists {
				merged[key] = value
			}
		}
	}

	return json.Marshal(merged)
}

// PostResponse is the single-post payload: the post's own associations are
// resolved inline, transitively referenced platforms and files ride along
// as side lists.
type PostResponse struct {
	database.Post
	Tags        []database.Tag        `json:"tags"`
	Authors     []database.Author     `json:"authors"`
	Collections []database.Collection `json:"collections"`
	Platforms   []database.Platform   `json:"platforms,omitempty"`
	FileMetas   []database.FileMeta   `json:"file_metas,omitempty"`
}

type SummaryResponse struct {
	Version string `json:"version"`
	database.Summary
}

type ConfigResponse struct {
	cfg.Public
	FullTextSearch bool `json:"fullTextSearch"`
}

func orEmpty[T any](list []T) []T {
	if list == nil {
		return []T{}
	}
	return list
}
