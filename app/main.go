package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/averle/postview/app/api"
	"github.com/averle/postview/app/cfg"
	"github.com/averle/postview/app/database"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// Load configuration from environment variables and command-line flags
	appCfg, err := cfg.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	if appCfg.Debug {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	log.Println("Starting PostView server...")

	// Archive database connection
	log.Printf("Opening archive at %s...", appCfg.ArchivePath)
	db, err := database.NewConnection(appCfg.ArchivePath)
	if err != nil {
		log.Fatal("Failed to open archive:", err)
	}
	defer db.Close()

	// Bring an empty archive up to the expected schema; a populated archive
	// is left untouched.
	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		log.Fatal("Failed to run migrations:", err)
	}
	log.Printf("Archive schema at version %d (dirty: %v)", version, dirty)

	// Reconcile the full-text search index with the configured mode
	fullTextSearch, err := db.SyncFullTextSearch(appCfg.FullTextSearchOverride())
	if err != nil {
		log.Fatal("Failed to sync full-text search:", err)
	}

	// Initialize HTTP server
	log.Println("Initializing HTTP server...")
	caches := database.NewCaches()
	apiHandler := api.NewHandler(appCfg, db, caches, fullTextSearch)
	server := api.NewServer(apiHandler)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start HTTP server in a goroutine
	serverErrChan := make(chan error, 1)
	go func() {
		log.Printf("Starting HTTP server on port %s", appCfg.Port)
		log.Printf("API endpoints available:")
		log.Printf("  Posts:       http://localhost:%s/api/posts", appCfg.Port)
		log.Printf("  Authors:     http://localhost:%s/api/authors", appCfg.Port)
		log.Printf("  Tags:        http://localhost:%s/api/tags", appCfg.Port)
		log.Printf("  Platforms:   http://localhost:%s/api/platforms", appCfg.Port)
		log.Printf("  Collections: http://localhost:%s/api/collections", appCfg.Port)
		log.Printf("  Summary:     http://localhost:%s/api/summary", appCfg.Port)
		log.Printf("  Health:      http://localhost:%s/health", appCfg.Port)

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Wait for interrupt signal or server error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	log.Println("PostView server started successfully!")

	select {
	case sig := <-sigChan:
		log.Printf("Received signal: %v", sig)
	case err := <-serverErrChan:
		log.Printf("Server error: %v", err)
	}

	// Graceful shutdown
	log.Println("Shutting down server gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	} else {
		log.Println("HTTP server stopped")
	}

	log.Println("PostView server shutdown complete")
}
