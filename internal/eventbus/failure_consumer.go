package eventbus

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/grachmannico95/payments-ledger/internal/domain"
	"github.com/grachmannico95/payments-ledger/pkg/logger"
)

// FailurePublisher is a fire-and-forget failure sink backed by the bus.
type FailurePublisher struct {
	bus     EventBus
	batchID string
}

func NewFailurePublisher(bus EventBus, batchID string) *FailurePublisher {
	return &FailurePublisher{
		bus:     bus,
		batchID: batchID,
	}
}

func (fp *FailurePublisher) Report(ctx context.Context, failure domain.Failure) {
	_ = fp.bus.Publish(ctx, Event{
		ID:   uuid.New().String(),
		Type: EventTypeFailure,
		Payload: FailurePayload{
			BatchID: fp.batchID,
			Failure: failure,
		},
		Timestamp: time.Now(),
	})
}

// FailureConsumer logs rejected transactions and stores them when a store is
// configured. It never feeds back into the ledger.
type FailureConsumer struct {
	store       domain.FailureStore
	logger      *logger.Logger
	workerCount int
}

func NewFailureConsumer(store domain.FailureStore, log *logger.Logger, workerCount int) *FailureConsumer {
	return &FailureConsumer{
		store:       store,
		logger:      log,
		workerCount: workerCount,
	}
}

func (fc *FailureConsumer) Consume(ctx context.Context, event Event) error {
	payload, ok := event.Payload.(FailurePayload)
	if !ok {
		return fmt.Errorf("invalid payload type %T for failure event", event.Payload)
	}

	ctx = logger.WithBatchID(ctx, payload.BatchID)
	failure := payload.Failure

	fc.logger.Info(ctx, "Transaction failed",
		"type", failure.Type,
		"client", failure.Client,
		"tx", failure.Tx,
		"kind", failure.Kind(),
		"reason", failure.Reason,
	)

	if fc.store == nil {
		return nil
	}

	if err := fc.store.AddFailure(ctx, payload.BatchID, failure); err != nil {
		return fmt.Errorf("store failure for client %d tx %d: %w", failure.Client, failure.Tx, err)
	}

	return nil
}

func (fc *FailureConsumer) GetWorkerCount() int {
	return fc.workerCount
}
