package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/solorpg/chronicle/internal/config"
	"github.com/solorpg/chronicle/internal/logger"
	"github.com/solorpg/chronicle/internal/memory"
	"github.com/solorpg/chronicle/internal/queue"
	"github.com/solorpg/chronicle/internal/services"
	"github.com/solorpg/chronicle/internal/storage"
)

// dequeueWait bounds each blocking pop so shutdown is responsive.
const dequeueWait = 5 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	log := logger.Setup(cfg)

	log.Info("Starting Chronicle Worker",
		"environment", cfg.Environment,
		"oracle_provider", cfg.OracleProvider,
		"storage_backend", cfg.StorageBackend)

	var oracle services.Oracle
	switch cfg.OracleProvider {
	case "anthropic":
		oracle = services.NewAnthropicService(cfg.AnthropicKey, cfg.OracleModel, log)
	case "gemini":
		oracle = services.NewGeminiService(cfg.GeminiKey, cfg.OracleModel, log)
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
	defer func() {
		if err := store.Close(); err != nil {
			log.Error("Error closing storage connection", "error", err)
		}
	}()

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer pingCancel()
	if err := store.Ping(pingCtx); err != nil {
		log.Error("Failed to connect to storage", "error", err)
		os.Exit(1)
	}

	q := queue.New(cfg.RedisURL, log)
	defer func() {
		if err := q.Close(); err != nil {
			log.Error("Error closing queue connection", "error", err)
		}
	}()
	if err := q.Ping(pingCtx); err != nil {
		log.Error("Failed to connect to the consolidation queue", "error", err)
		os.Exit(1)
	}

	consolidator := memory.NewConsolidator(store, oracle, log)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		run(ctx, q, consolidator, log)
	}()

	log.Info("Worker started, waiting for consolidation jobs...")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Worker shutdown signal received")

	cancel()
	<-done
	log.Info("Worker exited")
}

// run is the worker loop: block for a job, consolidate, repeat. Job
// failures are logged and the loop keeps going.
func run(ctx context.Context, q *queue.Queue, consolidator *memory.Consolidator, log *slog.Logger) {
	for {
		if ctx.Err() != nil {
			return
		}
		job, err := q.Dequeue(ctx, dequeueWait)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Error("Failed to dequeue job", "error", err)
			time.Sleep(time.Second)
			continue
		}
		if job == nil {
			continue
		}

		log.Info("Processing consolidation job", "job_id", job.JobID, "campaign_id", job.CampaignID)
		start := time.Now()
		snap, err := consolidator.Consolidate(ctx, job.CampaignID)
		if err != nil {
			log.Error("Consolidation failed", "error", err, "job_id", job.JobID, "campaign_id", job.CampaignID)
			continue
		}
		log.Info("Consolidation complete",
			"job_id", job.JobID,
			"campaign_id", job.CampaignID,
			"entities", len(snap.Entities),
			"facts", len(snap.Facts),
			"duration_ms", time.Since(start).Milliseconds())
	}
}
