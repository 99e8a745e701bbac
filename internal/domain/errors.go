package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNoWallet             = errors.New("no wallet found for client")
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrInvalidDisputeTarget = errors.New("invalid dispute target")
	ErrDisputeNotFound      = errors.New("disputed transaction not found")
	ErrAccountLocked        = errors.New("account is locked")
	ErrNegativeAmount       = errors.New("amount must not be negative")
	ErrUnsupportedEvent     = errors.New("unsupported event type")

	ErrDisputeWithdrawal   = fmt.Errorf("%w: cannot dispute a withdrawal", ErrInvalidDisputeTarget)
	ErrTransactionNotFound = fmt.Errorf("%w: transaction not found", ErrInvalidDisputeTarget)
	ErrAlreadyDisputed     = fmt.Errorf("%w: transaction already under dispute", ErrInvalidDisputeTarget)

	ErrBatchNotFound     = errors.New("batch not found")
	ErrAccountNotFound   = errors.New("account not found")
	ErrInvalidPageParams = errors.New("invalid page parameters")
)
