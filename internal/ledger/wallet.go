package ledger

import (
	"github.com/grachmannico95/payments-ledger/internal/domain"
	"github.com/shopspring/decimal"
)

// Policy selects how the ledger treats settled disputes and locked accounts.
type Policy struct {
	// StrictDisputes clears a dispute once it is resolved or charged back and
	// rejects disputing a transaction that is already under dispute.
	StrictDisputes bool
	// EnforceLock rejects every event for an account after a chargeback.
	EnforceLock bool
}

func DefaultPolicy() Policy {
	return Policy{StrictDisputes: true, EnforceLock: true}
}

type Balance struct {
	Available decimal.Decimal
	Held      decimal.Decimal
	Total     decimal.Decimal
}

// Wallet holds one client's balances. It is not safe for concurrent use;
// the Engine serializes access.
type Wallet struct {
	client       domain.ClientID
	balance      Balance
	locked       bool
	openDisputes map[domain.TransactionID]domain.Amount
	clearSettled bool
}

func NewWallet(client domain.ClientID, policy Policy) *Wallet {
	return &Wallet{
		client:       client,
		openDisputes: make(map[domain.TransactionID]domain.Amount),
		clearSettled: policy.StrictDisputes,
	}
}

func (w *Wallet) Client() domain.ClientID {
	return w.client
}

func (w *Wallet) Balance() Balance {
	return w.balance
}

func (w *Wallet) Locked() bool {
	return w.locked
}

func (w *Wallet) IsDisputed(tx domain.TransactionID) bool {
	_, ok := w.openDisputes[tx]
	return ok
}

// heldByDisputes sums the amounts of all open disputes.
func (w *Wallet) heldByDisputes() decimal.Decimal {
	sum := decimal.Zero
	for _, amount := range w.openDisputes {
		sum = sum.Add(amount.Decimal())
	}
	return sum
}

func (w *Wallet) Deposit(amount domain.Amount) {
	w.balance.Available = w.balance.Available.Add(amount.Decimal())
	w.balance.Total = w.balance.Total.Add(amount.Decimal())
}

func (w *Wallet) Withdraw(amount domain.Amount) error {
	if w.balance.Available.LessThan(amount.Decimal()) {
		return domain.ErrInsufficientFunds
	}

	w.balance.Available = w.balance.Available.Sub(amount.Decimal())
	w.balance.Total = w.balance.Total.Sub(amount.Decimal())
	return nil
}

// Dispute freezes amount under tx. The caller checks that tx is a disputable
// deposit; available may go negative if the funds were already withdrawn.
func (w *Wallet) Dispute(tx domain.TransactionID, amount domain.Amount) {
	w.balance.Available = w.balance.Available.Sub(amount.Decimal())
	w.balance.Held = w.balance.Held.Add(amount.Decimal())
	w.openDisputes[tx] = amount
}

func (w *Wallet) SettleDispute(tx domain.TransactionID) error {
	amount, ok := w.openDisputes[tx]
	if !ok {
		return domain.ErrDisputeNotFound
	}

	w.balance.Held = w.balance.Held.Sub(amount.Decimal())
	w.balance.Available = w.balance.Available.Add(amount.Decimal())
	w.closeDispute(tx)
	return nil
}

func (w *Wallet) ChargeBack(tx domain.TransactionID) error {
	amount, ok := w.openDisputes[tx]
	if !ok {
		return domain.ErrDisputeNotFound
	}

	w.balance.Held = w.balance.Held.Sub(amount.Decimal())
	w.balance.Total = w.balance.Total.Sub(amount.Decimal())
	w.locked = true
	w.closeDispute(tx)
	return nil
}

func (w *Wallet) closeDispute(tx domain.TransactionID) {
	if w.clearSettled {
		delete(w.openDisputes, tx)
	}
}

func (w *Wallet) Snapshot() domain.Account {
	return domain.Account{
		Client:    w.client,
		Available: w.balance.Available,
		Held:      w.balance.Held,
		Total:     w.balance.Total,
		Locked:    w.locked,
	}
}
