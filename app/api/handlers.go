package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/averle/postview/app/cfg"
	"github.com/averle/postview/app/database"
	"github.com/gin-gonic/gin"
)

func NewHandler(appCfg *cfg.Cfg, db *database.DB, caches *database.Caches, fullTextSearch bool) *Handler {
	return &Handler{
		cfg:         appCfg,
		db:          db,
		authors:     database.NewAuthorRepository(db, caches),
		tags:        database.NewTagRepository(db, caches),
		platforms:   database.NewPlatformRepository(db, caches),
		collections: database.NewCollectionRepository(db, caches),
		posts:       database.NewPostRepository(db, caches, fullTextSearch),
	}
}

// registerCategory wires the three endpoints every category kind shares:
// listing, single lookup and the category's posts.
func registerCategory[T database.RelationSource, I ~int64](group *gin.RouterGroup, name string, db *database.DB, repo *database.CategoryRepository[T, I]) {
	group.GET("/"+name, listCategoryHandler(name, db, repo))
	group.GET("/"+name+"/:id", getCategoryHandler(name, db, repo))
	group.GET("/"+name+"/:id/posts", listCategoryPostsHandler(name, db, repo))
}

func listCategoryHandler[T database.RelationSource, I ~int64](name string, db *database.DB, repo *database.CategoryRepository[T, I]) gin.HandlerFunc {
	return func(c *gin.Context) {
		pagination, ok := parsePagination(c)
		if !ok {
			return
		}
		search := c.Query("search")
		order := database.OrderBy(c.Query("order"))

		list, err := repo.List(pagination, search, order)
		if errors.Is(err, database.ErrInvalidOrder) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err != nil {
			slog.Error("Database error", "operation", "list_category", "kind", name, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		total, err := repo.Total(search)
		if err != nil {
			slog.Error("Database error", "operation", "total_category", "kind", name, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		relations, err := db.ResolveRelations(database.MergeRelationIDs(list))
		if err != nil {
			slog.Error("Relation resolution error", "kind", name, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		c.JSON(http.StatusOK, withRelations{ListResponse[T]{List: list, Total: total}, relations})
	}
}

func getCategoryHandler[T database.RelationSource, I ~int64](name string, db *database.DB, repo *database.CategoryRepository[T, I]) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID[I](c)
		if !ok {
			return
		}

		item, err := repo.Get(id)
		if err != nil {
			slog.Error("Database error", "operation", "get_category", "kind", name, "id", int64(id), "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
		if item == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
			return
		}

		relations, err := db.ResolveRelations(*item)
		if err != nil {
			slog.Error("Relation resolution error", "kind", name, "id", int64(id), "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		c.JSON(http.StatusOK, withRelations{*item, relations})
	}
}

func listCategoryPostsHandler[T database.RelationSource, I ~int64](name string, db *database.DB, repo *database.CategoryRepository[T, I]) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID[I](c)
		if !ok {
			return
		}
		pagination, ok := parsePagination(c)
		if !ok {
			return
		}

		item, err := repo.Get(id)
		if err != nil {
			slog.Error("Database error", "operation", "get_category", "kind", name, "id", int64(id), "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
		if item == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
			return
		}

		list, err := repo.ListPosts(id, pagination)
		if err != nil {
			slog.Error("Database error", "operation", "list_category_posts", "kind", name, "id", int64(id), "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		total, err := repo.TotalPosts(id)
		if err != nil {
			slog.Error("Database error", "operation", "total_category_posts", "kind", name, "id", int64(id), "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		relations, err := db.ResolveRelations(database.MergeRelationIDs(list))
		if err != nil {
			slog.Error("Relation resolution error", "kind", name, "id", int64(id), "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		c.JSON(http.StatusOK, withRelations{ListResponse[database.PostPreview]{List: list, Total: total}, relations})
	}
}

func (h *Handler) SearchPosts(c *gin.Context) {
	pagination, ok := parsePagination(c)
	if !ok {
		return
	}

	filter := database.SearchFilter{
		Search: c.Query("search"),
		Order:  database.PostOrder(c.Query("order")),
	}
	if filter.Tags, ok = parseIDList[database.TagID](c, "tags"); !ok {
		return
	}
	if filter.Authors, ok = parseIDList[database.AuthorID](c, "authors"); !ok {
		return
	}
	if filter.Collections, ok = parseIDList[database.CollectionID](c, "collections"); !ok {
		return
	}
	if filter.Platforms, ok = parseIDList[database.PlatformID](c, "platforms"); !ok {
		return
	}

	list, total, err := h.posts.Search(pagination, filter)
	if errors.Is(err, database.ErrInvalidOrder) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		slog.Error("Database error", "operation", "search_posts", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	relations, err := h.db.ResolveRelations(database.MergeRelationIDs(list))
	if err != nil {
		slog.Error("Relation resolution error", "operation", "search_posts", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, withRelations{ListResponse[database.PostPreview]{List: list, Total: total}, relations})
}

func (h *Handler) GetPost(c *gin.Context) {
	id, ok := parseID[database.PostID](c)
	if !ok {
		return
	}

	detail, err := h.posts.Get(id)
	if err != nil {
		slog.Error("Database error", "operation", "get_post", "id", int64(id), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if detail == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}

	relations, err := h.db.ResolveRelations(detail)
	if err != nil {
		slog.Error("Relation resolution error", "operation", "get_post", "id", int64(id), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	// A single post's resolved tag, author and collection lists are exactly
	// its own associations, so they replace the id lists inline.
	c.JSON(http.StatusOK, PostResponse{
		Post:        detail.Post,
		Tags:        orEmpty(relations.Tags),
		Authors:     orEmpty(relations.Authors),
		Collections: orEmpty(relations.Collections),
		Platforms:   relations.Platforms,
		FileMetas:   relations.FileMetas,
	})
}

func (h *Handler) GetAuthorAliases(c *gin.Context) {
	id, ok := parseID[database.AuthorID](c)
	if !ok {
		return
	}

	author, err := h.authors.Get(id)
	if err != nil {
		slog.Error("Database error", "operation", "get_author", "id", int64(id), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if author == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}

	aliases, err := h.posts.ListAuthorAliases(id)
	if err != nil {
		slog.Error("Database error", "operation", "list_author_aliases", "id", int64(id), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	relations, err := h.db.ResolveRelations(database.MergeRelationIDs(aliases))
	if err != nil {
		slog.Error("Relation resolution error", "operation", "list_author_aliases", "id", int64(id), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, withRelations{ListResponse[database.AuthorAlias]{List: aliases, Total: len(aliases)}, relations})
}

func (h *Handler) GetSummary(c *gin.Context) {
	summary, err := h.posts.Summary()
	if err != nil {
		slog.Error("Database error", "operation", "summary", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, SummaryResponse{Version: h.cfg.Version, Summary: summary})
}

// Redirect maps a source URL back onto the archived post when one exists,
// so external links can land inside the viewer.
func (h *Handler) Redirect(c *gin.Context) {
	url := c.Query("url")
	if url == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing url parameter"})
		return
	}

	id, found, err := h.posts.ResolveSource(url)
	if err != nil {
		slog.Error("Database error", "operation", "redirect", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	target := url
	if found {
		target = "/posts/" + strconv.FormatInt(int64(id), 10)
	}
	c.Redirect(http.StatusMovedPermanently, target)
}

func (h *Handler) GetConfig(c *gin.Context) {
	c.JSON(http.StatusOK, ConfigResponse{
		Public:         h.cfg.Public,
		FullTextSearch: h.posts.FullTextSearch(),
	})
}

func (h *Handler) GetHealth(c *gin.Context) {
	if err := h.db.Ping(); err != nil {
		slog.Error("Health check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Archive unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
		"version":   h.cfg.Version,
	})
}

func parsePagination(c *gin.Context) (database.Pagination, bool) {
	pagination := database.Pagination{Limit: 20}

	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit parameter"})
			return pagination, false
		}
		pagination.Limit = n
	}

	if v := c.Query("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid page parameter"})
			return pagination, false
		}
		pagination.Page = n
	}

	return pagination, true
}

func parseID[I ~int64](c *gin.Context) (I, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id parameter"})
		return 0, false
	}
	return I(id), true
}

// parseIDList reads a repeated query parameter, also accepting
// comma-separated values within a single occurrence.
func parseIDList[I ~int64](c *gin.Context, name string) ([]I, bool) {
	var ids []I
	for _, raw := range c.QueryArray(name) {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name + " parameter"})
				return nil, false
			}
			ids = append(ids, I(id))
		}
	}
	return ids, true
}
