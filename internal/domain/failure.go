package domain

import (
	"errors"
	"fmt"
)

type FailureKind string

const (
	FailureKindNoWallet             FailureKind = "no_wallet"
	FailureKindInsufficientFunds    FailureKind = "insufficient_funds"
	FailureKindInvalidDisputeTarget FailureKind = "invalid_dispute_target"
	FailureKindDisputeNotFound      FailureKind = "dispute_not_found"
	FailureKindAccountLocked        FailureKind = "account_locked"
	FailureKindUnknown              FailureKind = "unknown"
)

// ParseFailureKind accepts the codes returned by Failure.Kind.
func ParseFailureKind(s string) (FailureKind, bool) {
	switch k := FailureKind(s); k {
	case FailureKindNoWallet, FailureKindInsufficientFunds, FailureKindInvalidDisputeTarget,
		FailureKindDisputeNotFound, FailureKindAccountLocked:
		return k, true
	}
	return "", false
}

// Failure describes one rejected event. It is terminal for that event only.
type Failure struct {
	Client ClientID      `json:"client"`
	Tx     TransactionID `json:"tx"`
	Type   EventType     `json:"type"`
	Reason string        `json:"reason"`
	Err    error         `json:"-"`
}

func NewFailure(event TransactionEvent, err error) *Failure {
	return &Failure{
		Client: event.Client,
		Tx:     event.Tx,
		Type:   event.Type,
		Reason: err.Error(),
		Err:    err,
	}
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s rejected for client %d tx %d: %s", f.Type, f.Client, f.Tx, f.Reason)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

func (f *Failure) Kind() FailureKind {
	switch {
	case errors.Is(f.Err, ErrNoWallet):
		return FailureKindNoWallet
	case errors.Is(f.Err, ErrInsufficientFunds):
		return FailureKindInsufficientFunds
	case errors.Is(f.Err, ErrInvalidDisputeTarget):
		return FailureKindInvalidDisputeTarget
	case errors.Is(f.Err, ErrDisputeNotFound):
		return FailureKindDisputeNotFound
	case errors.Is(f.Err, ErrAccountLocked):
		return FailureKindAccountLocked
	default:
		return FailureKindUnknown
	}
}

// FailureRecord is a stored failure with the position it was reported at.
type FailureRecord struct {
	Failure
	Kind     FailureKind `json:"kind"`
	Sequence int         `json:"sequence"`
}
