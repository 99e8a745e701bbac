package eventbus

import (
	"time"

	"github.com/grachmannico95/payments-ledger/internal/domain"
)

type EventType string

const (
	EventTypeTransaction EventType = "transaction"
	EventTypeFailure     EventType = "failure"
)

type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

// TransactionPayload carries one parsed record to the ledger.
type TransactionPayload struct {
	BatchID    string                  `json:"batch_id"`
	Event      domain.TransactionEvent `json:"event"`
	LineNumber int                     `json:"line_number"`
}

type FailurePayload struct {
	BatchID string         `json:"batch_id"`
	Failure domain.Failure `json:"failure"`
}
