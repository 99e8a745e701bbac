package domain

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

type ClientID uint16

type TransactionID uint32

type EventType string

const (
	EventTypeDeposit    EventType = "deposit"
	EventTypeWithdrawal EventType = "withdrawal"
	EventTypeDispute    EventType = "dispute"
	EventTypeResolve    EventType = "resolve"
	EventTypeChargeBack EventType = "chargeback"
)

// ParseEventType matches the lowercase record type used on the wire.
func ParseEventType(s string) (EventType, bool) {
	switch t := EventType(s); t {
	case EventTypeDeposit, EventTypeWithdrawal, EventTypeDispute, EventTypeResolve, EventTypeChargeBack:
		return t, true
	}
	return "", false
}

// CarriesAmount reports whether events of this type must have an amount.
func (t EventType) CarriesAmount() bool {
	return t == EventTypeDeposit || t == EventTypeWithdrawal
}

// TransactionEvent is one entry of the payment stream. Amount is only
// meaningful for deposits and withdrawals.
type TransactionEvent struct {
	Type   EventType     `json:"type"`
	Client ClientID      `json:"client"`
	Tx     TransactionID `json:"tx"`
	Amount Amount        `json:"-"`
}

func NewDeposit(client ClientID, tx TransactionID, amount Amount) TransactionEvent {
	return TransactionEvent{Type: EventTypeDeposit, Client: client, Tx: tx, Amount: amount}
}

func NewWithdrawal(client ClientID, tx TransactionID, amount Amount) TransactionEvent {
	return TransactionEvent{Type: EventTypeWithdrawal, Client: client, Tx: tx, Amount: amount}
}

func NewDispute(client ClientID, tx TransactionID) TransactionEvent {
	return TransactionEvent{Type: EventTypeDispute, Client: client, Tx: tx}
}

func NewResolve(client ClientID, tx TransactionID) TransactionEvent {
	return TransactionEvent{Type: EventTypeResolve, Client: client, Tx: tx}
}

func NewChargeBack(client ClientID, tx TransactionID) TransactionEvent {
	return TransactionEvent{Type: EventTypeChargeBack, Client: client, Tx: tx}
}

// Account is a point-in-time copy of one client's wallet.
type Account struct {
	Client    ClientID
	Available decimal.Decimal
	Held      decimal.Decimal
	Total     decimal.Decimal
	Locked    bool
}

type accountJSON struct {
	Client    ClientID `json:"client"`
	Available string   `json:"available"`
	Held      string   `json:"held"`
	Total     string   `json:"total"`
	Locked    bool     `json:"locked"`
}

func (a Account) MarshalJSON() ([]byte, error) {
	return json.Marshal(accountJSON{
		Client:    a.Client,
		Available: FormatMoney(a.Available),
		Held:      FormatMoney(a.Held),
		Total:     FormatMoney(a.Total),
		Locked:    a.Locked,
	})
}

func (a *Account) UnmarshalJSON(data []byte) error {
	var raw accountJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	available, err := decimal.NewFromString(raw.Available)
	if err != nil {
		return err
	}
	held, err := decimal.NewFromString(raw.Held)
	if err != nil {
		return err
	}
	total, err := decimal.NewFromString(raw.Total)
	if err != nil {
		return err
	}

	*a = Account{
		Client:    raw.Client,
		Available: available,
		Held:      held,
		Total:     total,
		Locked:    raw.Locked,
	}
	return nil
}

type BatchStatus string

const (
	BatchStatusProcessing BatchStatus = "processing"
	BatchStatusCompleted  BatchStatus = "completed"
	BatchStatusFailed     BatchStatus = "failed"
)

// BatchStats counts what happened to the records of one batch.
type BatchStats struct {
	Rows      int `json:"rows"`
	Published int `json:"published"`
	Skipped   int `json:"skipped"`
	Applied   int `json:"applied"`
	Failed    int `json:"failed"`
	// Journaled counts accepted deposits and withdrawals.
	Journaled int `json:"journaled"`
}

type Batch struct {
	ID          string      `json:"id"`
	Status      BatchStatus `json:"status"`
	Stats       BatchStats  `json:"stats"`
	CreatedAt   time.Time   `json:"created_at"`
	CompletedAt *time.Time  `json:"completed_at,omitempty"`
}
