package storage

import (
	"context"
	"sync"
	"time"

	"github.com/grachmannico95/payments-ledger/internal/domain"
)

// MemoryStore keeps batch records and their reported failures in memory.
type MemoryStore struct {
	batches  map[string]*domain.Batch
	failures map[string][]domain.FailureRecord
	mu       sync.RWMutex
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		batches:  make(map[string]*domain.Batch),
		failures: make(map[string][]domain.FailureRecord),
	}
}

func (s *MemoryStore) CreateBatch(ctx context.Context, batchID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.batches[batchID] = &domain.Batch{
		ID:        batchID,
		Status:    domain.BatchStatusProcessing,
		CreatedAt: time.Now(),
	}
	s.failures[batchID] = []domain.FailureRecord{}

	return nil
}

// GetBatch returns a copy, so callers may read it while the batch is running.
func (s *MemoryStore) GetBatch(ctx context.Context, batchID string) (*domain.Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	batch, exists := s.batches[batchID]
	if !exists {
		return nil, domain.ErrBatchNotFound
	}

	copied := *batch
	return &copied, nil
}

func (s *MemoryStore) UpdateBatchStatus(ctx context.Context, batchID string, status domain.BatchStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	batch, exists := s.batches[batchID]
	if !exists {
		return domain.ErrBatchNotFound
	}

	batch.Status = status
	if status == domain.BatchStatusCompleted || status == domain.BatchStatusFailed {
		now := time.Now()
		batch.CompletedAt = &now
	}

	return nil
}

func (s *MemoryStore) UpdateBatchStats(ctx context.Context, batchID string, stats domain.BatchStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	batch, exists := s.batches[batchID]
	if !exists {
		return domain.ErrBatchNotFound
	}

	batch.Stats = stats

	return nil
}

func (s *MemoryStore) AddFailure(ctx context.Context, batchID string, failure domain.Failure) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.batches[batchID]; !exists {
		return domain.ErrBatchNotFound
	}

	s.failures[batchID] = append(s.failures[batchID], domain.FailureRecord{
		Failure:  failure,
		Kind:     failure.Kind(),
		Sequence: len(s.failures[batchID]) + 1,
	})

	return nil
}

func (s *MemoryStore) GetFailures(ctx context.Context, batchID string, page, perPage int, kind *domain.FailureKind) ([]domain.FailureRecord, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, exists := s.batches[batchID]; !exists {
		return nil, 0, domain.ErrBatchNotFound
	}

	var filtered []domain.FailureRecord
	for _, record := range s.failures[batchID] {
		if kind != nil && record.Kind != *kind {
			continue
		}
		filtered = append(filtered, record)
	}

	total := len(filtered)

	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}

	start := (page - 1) * perPage
	end := start + perPage

	if start >= total {
		return []domain.FailureRecord{}, total, nil
	}
	if end > total {
		end = total
	}

	return filtered[start:end], total, nil
}
