package ledger

import (
	"context"
	"sync"

	"github.com/grachmannico95/payments-ledger/internal/domain"
	"github.com/grachmannico95/payments-ledger/pkg/logger"
)

// FailureSink receives rejected events. Implementations must not block and
// must not feed anything back into the engine.
type FailureSink interface {
	Report(ctx context.Context, failure domain.Failure)
}

type discardSink struct{}

func (discardSink) Report(context.Context, domain.Failure) {}

// DiscardFailures drops every failure.
var DiscardFailures FailureSink = discardSink{}

type Stats struct {
	Applied int
	Failed  int
}

// Engine applies transaction events to client wallets. Events must come from
// a single writer; snapshot reads may run concurrently with it.
type Engine struct {
	policy  Policy
	sink    FailureSink
	logger  *logger.Logger
	mu      sync.RWMutex
	wallets map[domain.ClientID]*Wallet
	journal *Journal
	stats   Stats
}

func NewEngine(policy Policy, sink FailureSink, log *logger.Logger) *Engine {
	if sink == nil {
		sink = DiscardFailures
	}
	if log == nil {
		log = logger.NewNop()
	}

	return &Engine{
		policy:  policy,
		sink:    sink,
		logger:  log,
		wallets: make(map[domain.ClientID]*Wallet),
		journal: NewJournal(),
	}
}

// Run applies events in arrival order until the channel is closed.
func (e *Engine) Run(ctx context.Context, events <-chan domain.TransactionEvent) {
	e.logger.Debug(ctx, "Ledger engine started")

	for event := range events {
		_ = e.Apply(ctx, event)
	}

	stats := e.Stats()
	e.logger.Debug(ctx, "Ledger engine drained",
		"applied", stats.Applied,
		"failed", stats.Failed,
	)
}

// Apply applies a single event. A rejected event is reported to the sink and
// returned as a *domain.Failure; it never affects later events.
func (e *Engine) Apply(ctx context.Context, event domain.TransactionEvent) error {
	e.mu.Lock()
	err := e.apply(event)
	if err != nil {
		e.stats.Failed++
	} else {
		e.stats.Applied++
	}
	e.mu.Unlock()

	if err == nil {
		return nil
	}

	failure := domain.NewFailure(event, err)
	e.logger.Debug(ctx, "Event rejected",
		"type", event.Type,
		"client", event.Client,
		"tx", event.Tx,
		"reason", failure.Reason,
	)
	e.sink.Report(ctx, *failure)

	return failure
}

func (e *Engine) apply(event domain.TransactionEvent) error {
	switch event.Type {
	case domain.EventTypeDeposit:
		return e.deposit(event)
	case domain.EventTypeWithdrawal:
		return e.withdraw(event)
	case domain.EventTypeDispute:
		return e.dispute(event)
	case domain.EventTypeResolve:
		return e.resolve(event)
	case domain.EventTypeChargeBack:
		return e.chargeBack(event)
	default:
		return domain.ErrUnsupportedEvent
	}
}

func (e *Engine) deposit(event domain.TransactionEvent) error {
	wallet, ok := e.wallets[event.Client]
	if !ok {
		wallet = NewWallet(event.Client, e.policy)
		e.wallets[event.Client] = wallet
	}
	if err := e.checkLock(wallet); err != nil {
		return err
	}

	wallet.Deposit(event.Amount)
	e.journal.Record(event)
	return nil
}

func (e *Engine) withdraw(event domain.TransactionEvent) error {
	wallet, err := e.wallet(event.Client)
	if err != nil {
		return err
	}

	if err := wallet.Withdraw(event.Amount); err != nil {
		return err
	}
	e.journal.Record(event)
	return nil
}

func (e *Engine) dispute(event domain.TransactionEvent) error {
	target, ok := e.journal.Lookup(event.Client, event.Tx)
	if !ok {
		return domain.ErrTransactionNotFound
	}
	if target.Type == domain.EventTypeWithdrawal {
		return domain.ErrDisputeWithdrawal
	}

	wallet, err := e.wallet(event.Client)
	if err != nil {
		return err
	}
	if e.policy.StrictDisputes && wallet.IsDisputed(event.Tx) {
		return domain.ErrAlreadyDisputed
	}

	wallet.Dispute(event.Tx, target.Amount)
	return nil
}

func (e *Engine) resolve(event domain.TransactionEvent) error {
	wallet, err := e.wallet(event.Client)
	if err != nil {
		return err
	}
	return wallet.SettleDispute(event.Tx)
}

func (e *Engine) chargeBack(event domain.TransactionEvent) error {
	wallet, err := e.wallet(event.Client)
	if err != nil {
		return err
	}
	return wallet.ChargeBack(event.Tx)
}

// wallet returns an existing, mutable wallet for client.
func (e *Engine) wallet(client domain.ClientID) (*Wallet, error) {
	wallet, ok := e.wallets[client]
	if !ok {
		return nil, domain.ErrNoWallet
	}
	if err := e.checkLock(wallet); err != nil {
		return nil, err
	}
	return wallet, nil
}

func (e *Engine) checkLock(wallet *Wallet) error {
	if e.policy.EnforceLock && wallet.Locked() {
		return domain.ErrAccountLocked
	}
	return nil
}

// Accounts returns one snapshot per client seen, in no particular order.
func (e *Engine) Accounts() []domain.Account {
	e.mu.RLock()
	defer e.mu.RUnlock()

	accounts := make([]domain.Account, 0, len(e.wallets))
	for _, wallet := range e.wallets {
		accounts = append(accounts, wallet.Snapshot())
	}
	return accounts
}

func (e *Engine) Account(client domain.ClientID) (domain.Account, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	wallet, ok := e.wallets[client]
	if !ok {
		return domain.Account{}, false
	}
	return wallet.Snapshot(), true
}

func (e *Engine) Stats() Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.stats
}

// JournalSize reports how many deposits and withdrawals have been accepted.
func (e *Engine) JournalSize() int {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.journal.Len()
}
