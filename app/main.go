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

	"github.com/sentinel-news/sentinel/app/aggregator"
	"github.com/sentinel-news/sentinel/app/api"
	"github.com/sentinel-news/sentinel/app/cache"
	"github.com/sentinel-news/sentinel/app/catalog"
	"github.com/sentinel-news/sentinel/app/cfg"
	"github.com/sentinel-news/sentinel/app/cloud"
	"github.com/sentinel-news/sentinel/app/database"
	"github.com/sentinel-news/sentinel/app/sources"
	"github.com/sentinel-news/sentinel/app/store"
	"github.com/sentinel-news/sentinel/app/sync"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// Load configuration from environment variables and command-line flags
	appCfg, err := cfg.Load()
	if err != nil {
		log.Fatalf("Failed to parse configuration: %v", err)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: appCfg.LogLevel(),
	})))

	log.Printf("Starting Sentinel server (version %s)...", appCfg.Version)

	// Database connection
	log.Printf("Opening database at %s...", appCfg.DBPath)
	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		log.Fatal("Failed to open database:", err)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		log.Fatal("Failed to run migrations:", err)
	}
	log.Printf("Database ready (schema version %d, dirty: %t)", version, dirty)

	// Channel and outlet catalog
	log.Printf("Loading catalog from %s...", appCfg.CatalogFile)
	cat, err := catalog.Load(appCfg.CatalogFile)
	if err != nil {
		log.Fatal("Failed to load catalog:", err)
	}
	log.Printf("Loaded %d channels, %d sections, %d outlets",
		len(cat.Channels()), len(cat.Sections()), len(cat.Outlets()))

	// Response cache: Redis when configured, in-process otherwise
	cacheTTL := time.Duration(appCfg.CacheTTL) * time.Second
	var feedCache cache.Cache
	if appCfg.RedisAddr != "" {
		redisCache, err := cache.NewRedis(appCfg.RedisAddr, cacheTTL)
		if err != nil {
			log.Printf("Warning: Redis unavailable (%v), falling back to in-memory cache", err)
			feedCache = cache.NewMemory(cacheTTL)
		} else {
			log.Printf("Using Redis cache at %s", appCfg.RedisAddr)
			defer redisCache.Close()
			feedCache = redisCache
		}
	} else {
		feedCache = cache.NewMemory(cacheTTL)
	}

	// Source adapters
	client := sources.NewClient(10*time.Second, appCfg.UserAgent)
	reddit := sources.NewReddit(client, feedCache)
	hackerNews := sources.NewHackerNews(client, feedCache)
	newsAPI := sources.NewNewsAPI(client, feedCache, appCfg.NewsAPIKey)
	guardian := sources.NewGuardian(client, feedCache, appCfg.GuardianKey)
	rss := sources.NewRSS(feedCache, cat.Outlets(), appCfg.UserAgent)
	wikinews := sources.NewWikinews(feedCache, appCfg.UserAgent)
	comments := sources.NewComments(client)

	agg := aggregator.New(reddit, hackerNews, newsAPI, guardian, rss, wikinews, cat, aggregator.Config{
		BatchSize:  appCfg.BatchSize,
		BatchDelay: time.Duration(appCfg.BatchDelayMS) * time.Millisecond,
		FeedCap:    appCfg.FeedCap,
	})

	// Local personalization profile
	prefsRepo := database.NewPrefsRepository(db)
	bookmarkRepo := database.NewBookmarkRepository(db)
	userStore, err := store.New(prefsRepo, bookmarkRepo, cat.DefaultChannels(), 0)
	if err != nil {
		log.Fatal("Failed to load personalization profile:", err)
	}
	defer userStore.Close()

	// Cloud client and background sync engine
	cloudClient := cloud.NewClient(appCfg.AuthURL, appCfg.AuthAnonKey)
	if cloudClient.Enabled() {
		log.Printf("Accounts enabled via %s", appCfg.AuthURL)
	} else {
		log.Println("Accounts disabled (AUTH_URL / AUTH_ANON_KEY not set)")
	}
	engine := sync.NewEngine(userStore, cloudClient)

	// Initialize HTTP server
	log.Println("Initializing HTTP server...")
	handler := api.NewHandler(agg, reddit, hackerNews, newsAPI, guardian, rss,
		comments, cloudClient, cat, feedCache, userStore, engine,
		appCfg.AuthURL, appCfg.AuthAnonKey, appCfg.Version)
	router := api.NewServer(handler)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		log.Printf("Starting HTTP server on port %s", appCfg.Port)
		log.Printf("API endpoints available:")
		log.Printf("  Feed:          http://localhost:%s/api/feed", appCfg.Port)
		log.Printf("  Personal feed: http://localhost:%s/api/personal/feed", appCfg.Port)
		log.Printf("  Comments:      http://localhost:%s/api/comments", appCfg.Port)
		log.Printf("  Status:        http://localhost:%s/api/status", appCfg.Port)
		log.Printf("  Catalog:       http://localhost:%s/api/catalog", appCfg.Port)

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Wait for interrupt signal or server error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	log.Println("Sentinel server started successfully!")
	log.Println("Press Ctrl+C to shutdown gracefully...")

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

	log.Println("Sentinel server shutdown complete")
}
