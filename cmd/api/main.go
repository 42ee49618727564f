// ABOUTME: Main entry point for the Newsfetch API server
// ABOUTME: Wires together all components and starts the HTTP server

package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"newsfetch-api/api"
	"newsfetch-api/core/aggregator"
	"newsfetch-api/core/catalog"
	"newsfetch-api/core/contentcache"
	"newsfetch-api/core/extract"
	"newsfetch-api/core/interfaces"
	"newsfetch-api/core/rank"
	"newsfetch-api/core/summary"
	"newsfetch-api/epub"
	"newsfetch-api/infrastructure/cache/memory"
	"newsfetch-api/infrastructure/cache/redis"
	"newsfetch-api/infrastructure/cache/sqlite"
	stdhttp "newsfetch-api/infrastructure/http/standard"
	"newsfetch-api/infrastructure/llm"
	logruslogger "newsfetch-api/infrastructure/logger/logrus"
	"newsfetch-api/pkg/config"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger := logruslogger.NewLogger(os.Getenv("LOG_LEVEL"))
	logger.Info("Starting Newsfetch API", map[string]interface{}{
		"port":       cfg.Server.Port,
		"cache_type": cfg.Cache.Type,
		"data_dir":   cfg.Storage.DataDir,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Create cache backend
	var cache interfaces.Cache
	switch cfg.Cache.Type {
	case "redis":
		redisCache, err := redis.NewRedisCache(ctx, cfg.Cache.Redis.Address, cfg.Cache.Redis.Password, cfg.Cache.Redis.DB)
		if err != nil {
			logger.Error("Failed to create Redis cache, falling back to memory", map[string]interface{}{
				"error": err.Error(),
			})
			cache = memory.NewMemoryCache(time.Duration(cfg.Cache.Memory.DefaultExpiration) * time.Second)
		} else {
			cache = redisCache
			defer redisCache.Close()
			logger.Info("Using Redis cache", map[string]interface{}{
				"address": cfg.Cache.Redis.Address,
			})
		}
	case "sqlite":
		sqliteCache, err := sqlite.NewSQLiteCache(cfg.Cache.SQLite.Path)
		if err != nil {
			log.Fatalf("Failed to open SQLite cache: %v", err)
		}
		cache = sqliteCache
		defer sqliteCache.Close()
		logger.Info("Using SQLite cache", map[string]interface{}{
			"path": cfg.Cache.SQLite.Path,
		})
	default:
		cache = memory.NewMemoryCache(time.Duration(cfg.Cache.Memory.DefaultExpiration) * time.Second)
		logger.Info("Using memory cache", nil)
	}

	// Create HTTP client
	httpClient := stdhttp.NewStandardHTTPClient(
		30*time.Second,
		cfg.Pipeline.FetchRetries,
		time.Duration(cfg.Pipeline.FetchBackoffMS)*time.Millisecond,
	)

	// Create LLM client
	llmClient, err := llm.New(llm.Config{
		Provider:    cfg.LLM.Provider,
		Model:       cfg.LLM.Model,
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
	})
	if err != nil {
		log.Fatalf("Failed to create LLM client: %v", err)
	}
	if llmClient.Available() {
		logger.Info("LLM enabled", map[string]interface{}{"provider": cfg.LLM.Provider})
	} else {
		logger.Info("LLM disabled, ranking and summaries use heuristics only", nil)
	}

	deps := interfaces.Dependencies{
		Cache:      cache,
		HTTPClient: httpClient,
		Logger:     logger,
		LLM:        llmClient,
	}

	prefs := cfg.Preferences()

	// Create content cache and start the periodic sweep
	contentCache := contentcache.NewService(cache, logger)
	contentCache.StartSweeper(ctx, 10*time.Minute)

	// Create services
	aggregatorService := aggregator.NewService(deps, contentCache, aggregator.Options{
		Concurrency:    cfg.Pipeline.FetchConcurrency,
		FeedCacheTTL:   time.Duration(cfg.Pipeline.FeedCacheTTL) * time.Second,
		ExcludeDomains: prefs.ExcludeDomains,
	})

	extractors := []interfaces.Extractor{
		extract.NewReadabilityExtractor(0, 0),
		extract.NewFallbackExtractor(),
	}
	extractService := extract.NewService(deps, contentCache, extractors, extract.Options{
		ArticleCacheTTL: time.Duration(cfg.Pipeline.ArticleCacheTTL) * time.Second,
		Concurrency:     cfg.Pipeline.FetchConcurrency,
	})

	rankService := rank.NewService(deps, rank.Options{
		TopK:            cfg.Pipeline.RankTopK,
		TopN:            cfg.Pipeline.RankTopN,
		HeuristicWeight: cfg.Pipeline.HeuristicWeight,
		LLMWeight:       cfg.Pipeline.LLMWeight,
		LLMTimeout:      time.Duration(cfg.Pipeline.LLMTimeout) * time.Second,
		KeywordsBoost:   prefs.KeywordsBoost,
		KeywordsFilter:  prefs.KeywordsFilter,
	})

	summaryService := summary.NewService(deps, summary.Options{
		LLMTimeout: time.Duration(cfg.Pipeline.LLMTimeout) * time.Second,
	})

	catalogService, err := catalog.NewService(cfg.Storage.CatalogDBPath, logger)
	if err != nil {
		log.Fatalf("Failed to open catalog: %v", err)
	}
	defer catalogService.Close()

	builder, err := epub.NewBuilder(cfg.Storage.EPUBDir, logger)
	if err != nil {
		log.Fatalf("Failed to create EPUB builder: %v", err)
	}

	server := api.NewServer(cfg, logger, api.Services{
		Aggregator: aggregatorService,
		Extractor:  extractService,
		Ranker:     rankService,
		Summarizer: summaryService,
		Catalog:    catalogService,
		Builder:    builder,
	})
	defer server.Close()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      server.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP server starting", map[string]interface{}{
			"address": srv.Addr,
		})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", map[string]interface{}{
				"error": err.Error(),
			})
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...", nil)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", map[string]interface{}{
			"error": err.Error(),
		})
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server stopped", nil)
}
