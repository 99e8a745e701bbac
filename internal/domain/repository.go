package domain

import "context"

// FailureStore receives failures reported while a batch is applied.
type FailureStore interface {
	AddFailure(ctx context.Context, batchID string, failure Failure) error
}

type BatchRepository interface {
	FailureStore

	// Batch management
	CreateBatch(ctx context.Context, batchID string) error
	GetBatch(ctx context.Context, batchID string) (*Batch, error)
	UpdateBatchStatus(ctx context.Context, batchID string, status BatchStatus) error
	UpdateBatchStats(ctx context.Context, batchID string, stats BatchStats) error

	// Failure queries
	GetFailures(ctx context.Context, batchID string, page, perPage int, kind *FailureKind) ([]FailureRecord, int, error)
}
