package service

import (
	"context"
	"fmt"
	"io"

	"golang.org/x/sync/errgroup"

	"github.com/grachmannico95/payments-ledger/internal/domain"
	"github.com/grachmannico95/payments-ledger/internal/eventbus"
	"github.com/grachmannico95/payments-ledger/internal/ledger"
	"github.com/grachmannico95/payments-ledger/pkg/logger"
)

// BatchResult is the outcome of one fully applied stream.
type BatchResult struct {
	Accounts []domain.Account
	Stats    domain.BatchStats
}

// Pipeline wires ingestion, the ledger and the failure observer for one
// batch at a time. Each batch gets its own bus and engine.
type Pipeline struct {
	policy         ledger.Policy
	failureWorkers int
	store          domain.FailureStore
	logger         *logger.Logger
}

// NewPipeline builds a pipeline. store may be nil, in which case failures are
// only logged.
func NewPipeline(policy ledger.Policy, failureWorkers int, store domain.FailureStore, log *logger.Logger) *Pipeline {
	if failureWorkers < 1 {
		failureWorkers = 1
	}

	return &Pipeline{
		policy:         policy,
		failureWorkers: failureWorkers,
		store:          store,
		logger:         log,
	}
}

// BatchRun is a prepared, not yet started, batch.
type BatchRun struct {
	id        string
	bus       eventbus.EventBus
	engine    *ledger.Engine
	processor *CSVProcessor
	logger    *logger.Logger
}

func (p *Pipeline) NewRun(batchID string) (*BatchRun, error) {
	bus := eventbus.New(p.logger)
	engine := ledger.NewEngine(p.policy, eventbus.NewFailurePublisher(bus, batchID), p.logger)

	if err := bus.Subscribe(eventbus.EventTypeTransaction, eventbus.NewLedgerConsumer(engine, p.logger)); err != nil {
		return nil, fmt.Errorf("subscribe ledger consumer: %w", err)
	}

	failureConsumer := eventbus.NewFailureConsumer(p.store, p.logger, p.failureWorkers)
	if err := bus.Subscribe(eventbus.EventTypeFailure, failureConsumer); err != nil {
		return nil, fmt.Errorf("subscribe failure consumer: %w", err)
	}

	return &BatchRun{
		id:        batchID,
		bus:       bus,
		engine:    engine,
		processor: NewCSVProcessor(bus, p.logger),
		logger:    p.logger,
	}, nil
}

// Run prepares and executes a batch in one call.
func (p *Pipeline) Run(ctx context.Context, batchID string, reader io.Reader) (BatchResult, error) {
	run, err := p.NewRun(batchID)
	if err != nil {
		return BatchResult{}, err
	}
	return run.Execute(ctx, reader)
}

func (r *BatchRun) ID() string {
	return r.id
}

// Engine exposes the batch ledger for snapshot reads while it is running.
func (r *BatchRun) Engine() *ledger.Engine {
	return r.engine
}

// Execute streams reader through the ledger and returns once every accepted
// record has been applied and every failure observed. On a read error the
// partial result is returned alongside it.
func (r *BatchRun) Execute(ctx context.Context, reader io.Reader) (BatchResult, error) {
	ctx = logger.WithBatchID(ctx, r.id)

	if err := r.bus.Start(ctx); err != nil {
		return BatchResult{}, fmt.Errorf("start event bus: %w", err)
	}

	r.logger.Info(ctx, "Batch started")

	var ingest IngestStats
	ingested := make(chan struct{})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(ingested)

		stats, err := r.processor.ProcessStream(gctx, r.id, reader)
		ingest = stats
		return err
	})
	g.Go(func() error {
		select {
		case <-ingested:
		case <-gctx.Done():
			return gctx.Err()
		}
		return r.bus.Drain(gctx, eventbus.EventTypeTransaction)
	})
	runErr := g.Wait()

	// Failures are published by the ledger worker, so they are complete only
	// after the transaction queue has drained.
	if err := r.bus.Drain(ctx, eventbus.EventTypeTransaction); err != nil && runErr == nil {
		runErr = err
	}
	if err := r.bus.Drain(ctx, eventbus.EventTypeFailure); err != nil && runErr == nil {
		runErr = err
	}
	if err := r.bus.Shutdown(ctx); err != nil && runErr == nil {
		runErr = err
	}

	engineStats := r.engine.Stats()
	result := BatchResult{
		Accounts: r.engine.Accounts(),
		Stats: domain.BatchStats{
			Rows:      ingest.Rows,
			Published: ingest.Published,
			Skipped:   ingest.Skipped,
			Applied:   engineStats.Applied,
			Failed:    engineStats.Failed,
			Journaled: r.engine.JournalSize(),
		},
	}

	if runErr != nil {
		r.logger.Error(ctx, "Batch aborted",
			"rows", result.Stats.Rows,
			"applied", result.Stats.Applied,
			"error", runErr,
		)
		return result, runErr
	}

	r.logger.Info(ctx, "Batch completed",
		"rows", result.Stats.Rows,
		"skipped", result.Stats.Skipped,
		"applied", result.Stats.Applied,
		"failed", result.Stats.Failed,
		"journaled", result.Stats.Journaled,
		"accounts", len(result.Accounts),
	)

	return result, nil
}
