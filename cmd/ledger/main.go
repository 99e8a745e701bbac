package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/grachmannico95/payments-ledger/internal/config"
	"github.com/grachmannico95/payments-ledger/internal/export"
	"github.com/grachmannico95/payments-ledger/internal/ledger"
	"github.com/grachmannico95/payments-ledger/internal/service"
	"github.com/grachmannico95/payments-ledger/pkg/logger"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <transactions.csv>\n", os.Args[0])
		os.Exit(2)
	}

	if err := run(os.Args[1]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(path string) error {
	cfg := config.Load()

	log := logger.New(cfg.Logging.Level)
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer file.Close()

	policy := ledger.Policy{
		StrictDisputes: cfg.Ledger.StrictDisputes,
		EnforceLock:    cfg.Ledger.EnforceLock,
	}

	batchID := uuid.New().String()
	ctx = logger.WithBatchID(ctx, batchID)

	// Failures are only logged here; there is no store to query them from.
	pipeline := service.NewPipeline(policy, cfg.Worker.FailurePoolSize, nil, log)

	result, err := pipeline.Run(ctx, batchID, file)
	if err != nil {
		return fmt.Errorf("process %s: %w", path, err)
	}

	if err := export.NewCSVWriter(os.Stdout).Export(ctx, batchID, result.Accounts); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	if cfg.Archive.Path == "" {
		return nil
	}

	archive, err := export.OpenBoltArchive(ctx, cfg.Archive.Path, cfg.Archive.OpenAttempts, log)
	if err != nil {
		return err
	}
	defer archive.Close()

	return archive.Export(ctx, batchID, result.Accounts)
}
