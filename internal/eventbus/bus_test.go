package eventbus

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/grachmannico95/payments-ledger/internal/domain"
	"github.com/grachmannico95/payments-ledger/internal/ledger"
	"github.com/grachmannico95/payments-ledger/mocks"
	"github.com/grachmannico95/payments-ledger/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type recordingApplier struct {
	mu     sync.Mutex
	events []domain.TransactionEvent
}

func (r *recordingApplier) Apply(_ context.Context, event domain.TransactionEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

type funcConsumer struct {
	fn      func(ctx context.Context, event Event) error
	workers int
}

func (f funcConsumer) Consume(ctx context.Context, event Event) error {
	return f.fn(ctx, event)
}

func (f funcConsumer) GetWorkerCount() int {
	return f.workers
}

func transactionEvent(batchID string, line int, event domain.TransactionEvent) Event {
	return Event{
		Type: EventTypeTransaction,
		Payload: TransactionPayload{
			BatchID:    batchID,
			Event:      event,
			LineNumber: line,
		},
		Timestamp: time.Now(),
	}
}

func TestEventBus_LedgerConsumerPreservesOrder(t *testing.T) {
	log := logger.NewNop()
	bus := New(log)
	applier := &recordingApplier{}
	ctx := context.Background()

	require.NoError(t, bus.Subscribe(EventTypeTransaction, NewLedgerConsumer(applier, log)))
	require.NoError(t, bus.Start(ctx))

	for i := 1; i <= 500; i++ {
		event := domain.NewDeposit(1, domain.TransactionID(i), domain.MustParseAmount("1"))
		require.NoError(t, bus.Publish(ctx, transactionEvent("batch-1", i, event)))
	}

	require.NoError(t, bus.Drain(ctx, EventTypeTransaction))

	require.Len(t, applier.events, 500)
	for i, event := range applier.events {
		assert.Equal(t, domain.TransactionID(i+1), event.Tx)
	}
	require.NoError(t, bus.Shutdown(ctx))
}

func TestEventBus_EngineFailuresReachStore(t *testing.T) {
	log := logger.NewNop()
	bus := New(log)
	store := mocks.NewMockFailureStore(t)
	ctx := context.Background()

	store.EXPECT().
		AddFailure(mock.Anything, "batch-7", mock.MatchedBy(func(f domain.Failure) bool {
			return f.Client == 2 && f.Tx == 1 && errors.Is(f.Err, domain.ErrNoWallet)
		})).
		Return(nil).
		Once()

	engine := ledger.NewEngine(ledger.DefaultPolicy(), NewFailurePublisher(bus, "batch-7"), log)

	require.NoError(t, bus.Subscribe(EventTypeTransaction, NewLedgerConsumer(engine, log)))
	require.NoError(t, bus.Subscribe(EventTypeFailure, NewFailureConsumer(store, log, 2)))
	require.NoError(t, bus.Start(ctx))

	require.NoError(t, bus.Publish(ctx, transactionEvent("batch-7", 1,
		domain.NewWithdrawal(2, 1, domain.MustParseAmount("50.0")))))
	require.NoError(t, bus.Publish(ctx, transactionEvent("batch-7", 2,
		domain.NewDeposit(1, 2, domain.MustParseAmount("5.0")))))

	require.NoError(t, bus.Drain(ctx, EventTypeTransaction))
	require.NoError(t, bus.Drain(ctx, EventTypeFailure))

	assert.Len(t, engine.Accounts(), 1)
	assert.Equal(t, ledger.Stats{Applied: 1, Failed: 1}, engine.Stats())
}

func TestEventBus_PublishWithoutSubscriberIsDropped(t *testing.T) {
	bus := New(logger.NewNop())
	ctx := context.Background()
	require.NoError(t, bus.Start(ctx))

	err := bus.Publish(ctx, Event{ID: "orphan", Type: EventTypeFailure})
	assert.NoError(t, err)
	assert.NoError(t, bus.Shutdown(ctx))
}

func TestEventBus_PublishAfterDrainIsDropped(t *testing.T) {
	bus := New(logger.NewNop())
	ctx := context.Background()

	var mu sync.Mutex
	consumed := 0
	require.NoError(t, bus.Subscribe(EventTypeFailure, funcConsumer{
		fn: func(context.Context, Event) error {
			mu.Lock()
			consumed++
			mu.Unlock()
			return nil
		},
		workers: 1,
	}))
	require.NoError(t, bus.Start(ctx))

	publisher := NewFailurePublisher(bus, "batch-1")
	failure := *domain.NewFailure(domain.NewResolve(1, 1), domain.ErrNoWallet)

	publisher.Report(ctx, failure)
	require.NoError(t, bus.Drain(ctx, EventTypeFailure))
	publisher.Report(ctx, failure)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, consumed)
}

func TestEventBus_SubscribeAfterStart(t *testing.T) {
	bus := New(logger.NewNop())
	ctx := context.Background()
	require.NoError(t, bus.Start(ctx))

	err := bus.Subscribe(EventTypeTransaction, funcConsumer{fn: func(context.Context, Event) error { return nil }})
	assert.ErrorIs(t, err, ErrBusStarted)
}

func TestEventBus_ConsumerErrorsAndPanicsDoNotStopWorkers(t *testing.T) {
	bus := New(logger.NewNop())
	ctx := context.Background()

	var mu sync.Mutex
	var seen []string
	require.NoError(t, bus.Subscribe(EventTypeTransaction, funcConsumer{
		fn: func(_ context.Context, event Event) error {
			mu.Lock()
			seen = append(seen, event.ID)
			mu.Unlock()

			switch event.ID {
			case "boom":
				panic("consumer exploded")
			case "bad":
				return errors.New("bad event")
			}
			return nil
		},
		workers: 1,
	}))
	require.NoError(t, bus.Start(ctx))

	for _, id := range []string{"bad", "boom", "ok"} {
		require.NoError(t, bus.Publish(ctx, Event{ID: id, Type: EventTypeTransaction}))
	}
	require.NoError(t, bus.Drain(ctx, EventTypeTransaction))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"bad", "boom", "ok"}, seen)
}

func TestLedgerConsumer_InvalidPayload(t *testing.T) {
	consumer := NewLedgerConsumer(&recordingApplier{}, logger.NewNop())

	err := consumer.Consume(context.Background(), Event{Type: EventTypeTransaction, Payload: "nope"})

	assert.Error(t, err)
	assert.Equal(t, 1, consumer.GetWorkerCount())
}

func TestEventBus_DrainLogsPendingEvents(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	bus := New(logger.NewWithCore(core))
	applier := &recordingApplier{}
	ctx := context.Background()

	require.NoError(t, bus.Subscribe(EventTypeTransaction, NewLedgerConsumer(applier, logger.NewNop())))

	// Not started: everything published stays queued until Drain.
	for i := 1; i <= 3; i++ {
		event := domain.NewDeposit(1, domain.TransactionID(i), domain.MustParseAmount("1"))
		require.NoError(t, bus.Publish(ctx, transactionEvent("batch-1", i, event)))
	}

	require.NoError(t, bus.Drain(ctx, EventTypeTransaction))

	drained := logs.FilterMessage("Draining queue").All()
	require.Len(t, drained, 1)
	fields := drained[0].ContextMap()
	assert.EqualValues(t, EventTypeTransaction, fields["event_type"])
	assert.EqualValues(t, 3, fields["pending"])
}
