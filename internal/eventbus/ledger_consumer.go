package eventbus

import (
	"context"
	"fmt"

	"github.com/grachmannico95/payments-ledger/internal/domain"
	"github.com/grachmannico95/payments-ledger/pkg/logger"
)

// Applier applies one transaction event, returning a *domain.Failure when the
// event is rejected.
type Applier interface {
	Apply(ctx context.Context, event domain.TransactionEvent) error
}

// LedgerConsumer feeds transaction events to a ledger. It always runs a
// single worker so events are applied in the order they were published.
type LedgerConsumer struct {
	ledger Applier
	logger *logger.Logger
}

func NewLedgerConsumer(ledger Applier, log *logger.Logger) *LedgerConsumer {
	return &LedgerConsumer{
		ledger: ledger,
		logger: log,
	}
}

func (lc *LedgerConsumer) Consume(ctx context.Context, event Event) error {
	payload, ok := event.Payload.(TransactionPayload)
	if !ok {
		return fmt.Errorf("invalid payload type %T for transaction event", event.Payload)
	}

	ctx = logger.WithBatchID(ctx, payload.BatchID)

	if err := lc.ledger.Apply(ctx, payload.Event); err != nil {
		// Rejections are already on the failure channel.
		lc.logger.Debug(ctx, "Transaction rejected",
			"event_id", event.ID,
			"line_number", payload.LineNumber,
			"error", err,
		)
	}

	return nil
}

func (lc *LedgerConsumer) GetWorkerCount() int {
	return 1
}
