package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/solorpg/chronicle/internal/config"
	"github.com/solorpg/chronicle/internal/engine"
	"github.com/solorpg/chronicle/internal/handlers"
	"github.com/solorpg/chronicle/internal/logger"
	"github.com/solorpg/chronicle/internal/memory"
	"github.com/solorpg/chronicle/internal/middleware"
	"github.com/solorpg/chronicle/internal/queue"
	"github.com/solorpg/chronicle/internal/services"
	"github.com/solorpg/chronicle/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	log := logger.Setup(cfg)

	log.Info("Starting Chronicle API",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"oracle_provider", cfg.OracleProvider,
		"storage_backend", cfg.StorageBackend)

	var oracle services.Oracle
	switch cfg.OracleProvider {
	case "anthropic":
		oracle = services.NewAnthropicService(cfg.AnthropicKey, cfg.OracleModel, log)
		log.Info("Using Anthropic oracle provider")
	case "gemini":
		oracle = services.NewGeminiService(cfg.GeminiKey, cfg.OracleModel, log)
		log.Info("Using Gemini oracle provider")
	case "mock":
		oracle = services.NewMockOracle()
		log.Warn("Using mock oracle provider")
	default:
		log.Error("Invalid oracle provider", "provider", cfg.OracleProvider)
		os.Exit(1)
	}

	var store storage.Storage
	switch cfg.StorageBackend {
	case "sqlite":
		store, err = storage.NewSQLiteStorage(cfg.SQLitePath, log)
		if err != nil {
			log.Error("Failed to open sqlite storage", "error", err, "path", cfg.SQLitePath)
			os.Exit(1)
		}
	default:
		store = storage.NewRedisStorage(cfg.RedisURL, log)
	}

	storageCtx, storageCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer storageCancel()
	if err := store.Ping(storageCtx); err != nil {
		log.Error("Failed to connect to storage", "error", err)
		os.Exit(1)
	}
	log.Info("Storage connection established")

	// Consolidation runs out-of-band through Redis. Without a reachable
	// queue the API still serves turns; memory just stops refreshing.
	var enqueuer engine.Enqueuer
	q := queue.New(cfg.RedisURL, log)
	if err := q.Ping(storageCtx); err != nil {
		log.Warn("Consolidation queue unreachable, background consolidation disabled", "error", err)
	} else {
		enqueuer = q
	}

	eng := engine.New(store, oracle, enqueuer, log, cfg.ConsolidateEvery)
	consolidator := memory.NewConsolidator(store, oracle, log)

	mux := http.NewServeMux()

	mux.Handle("/health", handlers.NewHealthHandler(store, log))

	campaignHandler := handlers.NewCampaignHandler(store, eng, log)
	mux.Handle("/v1/campaigns", campaignHandler)
	mux.Handle("/v1/campaigns/", campaignHandler)

	turnHandler := handlers.NewTurnHandler(eng, log)
	mux.Handle("/v1/turns", turnHandler)
	mux.Handle("/v1/turns/", turnHandler)

	mux.Handle("/v1/arrest", handlers.NewArrestHandler(eng, log))

	memoryHandler := handlers.NewMemoryHandler(store, consolidator, log)
	mux.Handle("/v1/memory/", memoryHandler)

	handler := middleware.Logger(mux)
	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		// WriteTimeout omitted so turn streaming can run long.
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server is shutting down...")

	if err := store.Close(); err != nil {
		log.Error("Error closing storage connection", "error", err)
	}
	if err := q.Close(); err != nil {
		log.Error("Error closing queue connection", "error", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	log.Info("Server exited")
}
