package main

import (
	"context"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"armature/internal/config"
	"armature/internal/pipeline"
	"armature/internal/worker"

	"github.com/joho/godotenv"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()

	// Setup structured logging
	logLevel := slog.LevelInfo
	if cfg.Environment == "dev" {
		logLevel = slog.LevelDebug
	}

	var logOut io.Writer = os.Stdout
	if cfg.LogDir != "" {
		logFile, err := config.SetupLogFile(cfg.LogDir, cfg.MaxLogFiles)
		if err != nil {
			log.Fatalf("Failed to setup log file: %v", err)
		}
		defer logFile.Close()
		logOut = io.MultiWriter(os.Stdout, logFile)
	}

	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("pipelined starting",
		"environment", cfg.Environment,
		"worker_count", cfg.WorkerCount,
		"poll_interval_ms", cfg.PollIntervalMs,
	)

	// Load the job kind registry
	kinds, err := pipeline.NewKindRegistry()
	if err != nil {
		log.Fatalf("Failed to load kind registry: %v", err)
	}
	for _, kind := range kinds.List() {
		logger.Info("job kind registered", "kind", kind.Name, "display_name", kind.DisplayName)
	}

	// Create the pipeline store
	store := pipeline.NewStore(kinds, logger)

	// Create the worker pool with the built-in executors
	pool := worker.NewPool(
		store,
		pipeline.DefaultWorkspaceID,
		cfg.WorkerCount,
		time.Duration(cfg.PollIntervalMs)*time.Millisecond,
		logger,
	)
	pool.Register(pipeline.KindGltfConvert, worker.ConvertExecutor{})
	pool.Register(pipeline.KindTexturePreflight, worker.PreflightExecutor{})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Periodic queue-depth reporting until shutdown
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				logger.Info("queue status",
					"workspace_id", pipeline.DefaultWorkspaceID,
					"depth", store.QueueDepth(pipeline.DefaultWorkspaceID),
				)
			}
		}
	}()

	pool.Run(ctx)
	logger.Info("pipelined stopped")
}
