package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/logistyczniepl/marketplace/internal/database"
	"github.com/logistyczniepl/marketplace/internal/storage"
	"github.com/logistyczniepl/marketplace/internal/tasks"
	"github.com/logistyczniepl/marketplace/pkg/config"
	"github.com/logistyczniepl/marketplace/pkg/queue"
	"github.com/logistyczniepl/marketplace/pkg/util"
)

func main() {
	// Load .env file
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := util.NewLogger(cfg.Server.Env)
	slog.SetDefault(logger)

	logger.Info("starting LogistyczniePL worker")

	// Connect to database
	db, err := database.Connect(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	// Object storage is needed to purge images of deleted listings
	var store storage.ObjectStore
	if cfg.Storage.AccessKey != "" {
		uploader, err := storage.New(context.Background(), cfg.Storage)
		if err != nil {
			logger.Error("failed to initialize object storage", "error", err)
			os.Exit(1)
		}
		store = uploader
	} else {
		logger.Warn("STORAGE_ACCESS_KEY not set, image purge tasks will be skipped")
	}

	// Mailer falls back to logging reset links when SMTP is not configured
	mailer := tasks.NewSMTPMailer(cfg.SMTP, logger)

	// Create Asynq server
	srv := queue.NewServer(&cfg.Redis, 10)

	// Create task handler
	handler := tasks.NewHandler(db, logger, mailer, store)

	// Register handlers
	mux := asynq.NewServeMux()
	handler.RegisterHandlers(mux)

	// Handle shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		logger.Info("shutting down worker...")
		srv.Shutdown()
		cancel()
	}()

	logger.Info("worker started, waiting for tasks...")

	// Start the server
	if err := srv.Run(mux); err != nil {
		logger.Error("worker error", "error", err)
	}

	// Wait for context cancellation
	<-ctx.Done()

	// Close database connection
	sqlDB, _ := db.DB()
	sqlDB.Close()

	logger.Info("worker stopped")
}
