package api

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
)

// NewServer creates a new HTTP server with all routes configured
func NewServer(handler *Handler) *gin.Engine {
	// Set Gin mode (can be controlled via GIN_MODE environment variable)
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// Middleware
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
				param.ClientIP,
				param.TimeStamp.Format(time.RFC3339),
				param.Method,
				param.Path,
				param.Request.Proto,
				param.StatusCode,
				param.Latency,
				param.Request.UserAgent(),
				param.ErrorMessage,
			)
		},
	}))

	r.Use(gin.Recovery())

	// CORS middleware so the frontend can be served from another origin
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Routes
	setupRoutes(r, handler)

	return r
}

// setupRoutes configures all the application routes
func setupRoutes(r *gin.Engine, handler *Handler) {
	r.GET("/health", handler.GetHealth)

	api := r.Group("/api")

	registerCategory(api, "authors", handler.db, handler.authors)
	registerCategory(api, "tags", handler.db, handler.tags)
	registerCategory(api, "platforms", handler.db, handler.platforms)
	registerCategory(api, "collections", handler.db, handler.collections)

	api.GET("/authors/:id/aliases", handler.GetAuthorAliases)
	api.GET("/posts", handler.SearchPosts)
	api.GET("/posts/:id", handler.GetPost)
	api.GET("/summary", handler.GetSummary)
	api.GET("/redirect", handler.Redirect)
	api.GET("/config.json", handler.GetConfig)

	// Root endpoint with basic information
	r.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"service":     "PostView",
			"description": "Read-only web API over a post archive",
			"endpoints": map[string]string{
				"authors":     "/api/authors",
				"tags":        "/api/tags",
				"platforms":   "/api/platforms",
				"collections": "/api/collections",
				"posts":       "/api/posts",
				"summary":     "/api/summary",
				"health":      "/health",
			},
		})
	})
}
