package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/grachmannico95/payments-ledger/internal/config"
	"github.com/grachmannico95/payments-ledger/internal/export"
	"github.com/grachmannico95/payments-ledger/internal/handler"
	"github.com/grachmannico95/payments-ledger/internal/ledger"
	"github.com/grachmannico95/payments-ledger/internal/server"
	"github.com/grachmannico95/payments-ledger/internal/service"
	"github.com/grachmannico95/payments-ledger/internal/storage"
	"github.com/grachmannico95/payments-ledger/pkg/logger"
)

func main() {
	cfg := config.Load()

	log := logger.New(cfg.Logging.Level)
	defer log.Sync()

	ctx := context.Background()
	log.Info(ctx, "Starting application")

	repo := storage.NewMemoryStore()
	log.Info(ctx, "Repository initialized")

	policy := ledger.Policy{
		StrictDisputes: cfg.Ledger.StrictDisputes,
		EnforceLock:    cfg.Ledger.EnforceLock,
	}
	pipeline := service.NewPipeline(policy, cfg.Worker.FailurePoolSize, repo, log)
	log.Info(ctx, "Pipeline initialized",
		"strict_disputes", policy.StrictDisputes,
		"enforce_lock", policy.EnforceLock,
		"failure_workers", cfg.Worker.FailurePoolSize,
	)

	var archive export.Exporter
	if cfg.Archive.Path != "" {
		boltArchive, err := export.OpenBoltArchive(ctx, cfg.Archive.Path, cfg.Archive.OpenAttempts, log)
		if err != nil {
			log.Fatal(ctx, "Failed to open snapshot archive",
				"path", cfg.Archive.Path,
				"error", err,
			)
		}
		defer boltArchive.Close()

		archive = boltArchive
		log.Info(ctx, "Snapshot archive opened",
			"path", cfg.Archive.Path,
		)
	}

	ledgerService := service.NewLedgerService(repo, pipeline, archive, log)

	batchHandler := handler.NewBatchHandler(ledgerService, log)
	healthHandler := handler.NewHealthHandler()
	log.Info(ctx, "Handlers initialized")

	srv := server.New(cfg, log, batchHandler, healthHandler)

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatal(ctx, "Failed to start HTTP server",
				"error", err,
			)
		}
	}()

	log.Info(ctx, "Application started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info(ctx, "Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
	defer cancel()

	// Stop taking uploads first, then let running batches finish so their
	// snapshots reach the archive before it is closed.
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(shutdownCtx, "HTTP server shutdown error",
			"error", err,
		)
	}

	if err := ledgerService.Wait(shutdownCtx); err != nil {
		log.Error(shutdownCtx, "Batches still running at shutdown",
			"error", err,
		)
	}

	log.Info(ctx, "Application stopped gracefully")
}
