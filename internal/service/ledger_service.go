package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"
	"github.com/grachmannico95/payments-ledger/internal/domain"
	"github.com/grachmannico95/payments-ledger/internal/export"
	"github.com/grachmannico95/payments-ledger/pkg/logger"
)

const MaxPerPage = 100

type LedgerService interface {
	SubmitBatch(ctx context.Context, reader io.Reader) (string, error)
	RunBatch(ctx context.Context, batchID string, reader io.Reader) (BatchResult, error)
	GetBatch(ctx context.Context, batchID string) (*domain.Batch, error)
	GetAccounts(ctx context.Context, batchID string) ([]domain.Account, error)
	GetAccount(ctx context.Context, batchID string, client domain.ClientID) (domain.Account, error)
	GetFailures(ctx context.Context, batchID string, page, perPage int, kind *domain.FailureKind) ([]domain.FailureRecord, int, error)
	Wait(ctx context.Context) error
}

// accountReader is satisfied by *ledger.Engine while a batch runs and by
// *snapshotLedger once it has finished.
type accountReader interface {
	Accounts() []domain.Account
	Account(client domain.ClientID) (domain.Account, bool)
}

type ledgerService struct {
	repo     domain.BatchRepository
	pipeline *Pipeline
	archive  export.Exporter
	logger   *logger.Logger

	mu      sync.RWMutex
	ledgers map[string]accountReader
	running sync.WaitGroup
}

// NewLedgerService builds the batch service. archive may be nil.
func NewLedgerService(repo domain.BatchRepository, pipeline *Pipeline, archive export.Exporter, log *logger.Logger) LedgerService {
	return &ledgerService{
		repo:     repo,
		pipeline: pipeline,
		archive:  archive,
		logger:   log,
		ledgers:  make(map[string]accountReader),
	}
}

// SubmitBatch buffers the upload, registers a batch and applies it in the
// background. The returned id can be polled with GetBatch.
func (s *ledgerService) SubmitBatch(ctx context.Context, reader io.Reader) (string, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}

	batchID := uuid.New().String()
	ctx = logger.WithBatchID(ctx, batchID)

	s.logger.Info(ctx, "Creating batch record",
		"bytes", len(data),
	)

	if err := s.repo.CreateBatch(ctx, batchID); err != nil {
		s.logger.Error(ctx, "Failed to create batch",
			"error", err,
		)
		return "", err
	}

	s.running.Add(1)
	go func() {
		defer s.running.Done()

		processCtx := logger.WithBatchID(context.Background(), batchID)
		if _, err := s.RunBatch(processCtx, batchID, bytes.NewReader(data)); err != nil {
			s.logger.Error(processCtx, "Batch processing failed",
				"error", err,
			)
		}
	}()

	return batchID, nil
}

// RunBatch applies reader as the already created batch batchID and records
// its final status.
func (s *ledgerService) RunBatch(ctx context.Context, batchID string, reader io.Reader) (BatchResult, error) {
	ctx = logger.WithBatchID(ctx, batchID)

	run, err := s.pipeline.NewRun(batchID)
	if err != nil {
		s.setStatus(ctx, batchID, domain.BatchStatusFailed)
		return BatchResult{}, err
	}

	s.mu.Lock()
	s.ledgers[batchID] = run.Engine()
	s.mu.Unlock()

	result, err := run.Execute(ctx, reader)

	// The engine and its journal are only needed while events still arrive.
	s.mu.Lock()
	s.ledgers[batchID] = newSnapshotLedger(result.Accounts)
	s.mu.Unlock()

	if statsErr := s.repo.UpdateBatchStats(ctx, batchID, result.Stats); statsErr != nil {
		s.logger.Error(ctx, "Failed to update batch stats",
			"error", statsErr,
		)
	}

	if err != nil {
		s.setStatus(ctx, batchID, domain.BatchStatusFailed)
		return result, err
	}

	if s.archive != nil {
		if archiveErr := s.archive.Export(ctx, batchID, result.Accounts); archiveErr != nil {
			s.logger.Error(ctx, "Failed to archive batch snapshot",
				"error", archiveErr,
			)
		}
	}

	s.setStatus(ctx, batchID, domain.BatchStatusCompleted)
	return result, nil
}

func (s *ledgerService) setStatus(ctx context.Context, batchID string, status domain.BatchStatus) {
	if err := s.repo.UpdateBatchStatus(ctx, batchID, status); err != nil {
		s.logger.Error(ctx, "Failed to update batch status",
			"status", status,
			"error", err,
		)
	}
}

func (s *ledgerService) GetBatch(ctx context.Context, batchID string) (*domain.Batch, error) {
	ctx = logger.WithBatchID(ctx, batchID)

	s.logger.Debug(ctx, "Getting batch")

	batch, err := s.repo.GetBatch(ctx, batchID)
	if err != nil {
		return nil, err
	}

	return batch, nil
}

// GetAccounts returns the batch snapshot ordered by client. While the batch
// is still processing this is a live, partial view.
func (s *ledgerService) GetAccounts(ctx context.Context, batchID string) ([]domain.Account, error) {
	reader, err := s.ledger(ctx, batchID)
	if err != nil {
		return nil, err
	}

	return export.SortByClient(reader.Accounts()), nil
}

func (s *ledgerService) GetAccount(ctx context.Context, batchID string, client domain.ClientID) (domain.Account, error) {
	reader, err := s.ledger(ctx, batchID)
	if err != nil {
		return domain.Account{}, err
	}

	account, ok := reader.Account(client)
	if !ok {
		return domain.Account{}, domain.ErrAccountNotFound
	}

	return account, nil
}

func (s *ledgerService) GetFailures(ctx context.Context, batchID string, page, perPage int, kind *domain.FailureKind) ([]domain.FailureRecord, int, error) {
	ctx = logger.WithBatchID(ctx, batchID)

	if page < 1 || perPage < 1 || perPage > MaxPerPage {
		return nil, 0, domain.ErrInvalidPageParams
	}

	s.logger.Debug(ctx, "Getting failures",
		"page", page,
		"per_page", perPage,
		"kind", kind,
	)

	records, total, err := s.repo.GetFailures(ctx, batchID, page, perPage, kind)
	if err != nil {
		return nil, 0, err
	}

	s.logger.Debug(ctx, "Failures retrieved",
		"total", total,
		"returned", len(records),
	)

	return records, total, nil
}

// Wait blocks until every submitted batch has finished or ctx is done.
func (s *ledgerService) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.running.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *ledgerService) ledger(ctx context.Context, batchID string) (accountReader, error) {
	s.mu.RLock()
	reader, ok := s.ledgers[batchID]
	s.mu.RUnlock()

	if ok {
		return reader, nil
	}

	// A batch that exists but has not started yet has no accounts.
	if _, err := s.repo.GetBatch(ctx, batchID); err != nil {
		return nil, err
	}
	return emptyLedger{}, nil
}

type emptyLedger struct{}

func (emptyLedger) Accounts() []domain.Account { return nil }

func (emptyLedger) Account(domain.ClientID) (domain.Account, bool) { return domain.Account{}, false }

// snapshotLedger holds the final accounts of a finished batch.
type snapshotLedger struct {
	accounts []domain.Account
	byClient map[domain.ClientID]int
}

func newSnapshotLedger(accounts []domain.Account) *snapshotLedger {
	sorted := export.SortByClient(accounts)

	byClient := make(map[domain.ClientID]int, len(sorted))
	for i, account := range sorted {
		byClient[account.Client] = i
	}

	return &snapshotLedger{
		accounts: sorted,
		byClient: byClient,
	}
}

func (l *snapshotLedger) Accounts() []domain.Account {
	accounts := make([]domain.Account, len(l.accounts))
	copy(accounts, l.accounts)
	return accounts
}

func (l *snapshotLedger) Account(client domain.ClientID) (domain.Account, bool) {
	i, ok := l.byClient[client]
	if !ok {
		return domain.Account{}, false
	}
	return l.accounts[i], true
}
