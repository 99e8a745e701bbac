package eventbus

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/grachmannico95/payments-ledger/pkg/logger"
)

var ErrBusStarted = errors.New("event bus already started")

// EventBus routes events to consumers through one unbounded queue per event
// type. Publish never blocks. A type with a single worker sees its events in
// publish order.
type EventBus interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(eventType EventType, consumer Consumer) error
	Start(ctx context.Context) error
	Drain(ctx context.Context, eventType EventType) error
	Shutdown(ctx context.Context) error
}

type eventBus struct {
	queues    map[EventType]*Queue[Event]
	consumers map[EventType][]Consumer
	workers   map[EventType]*sync.WaitGroup
	mu        sync.RWMutex
	cancel    context.CancelFunc
	logger    *logger.Logger
	started   bool
}

func New(log *logger.Logger) EventBus {
	return &eventBus{
		queues:    make(map[EventType]*Queue[Event]),
		consumers: make(map[EventType][]Consumer),
		workers:   make(map[EventType]*sync.WaitGroup),
		logger:    log,
	}
}

func (eb *eventBus) Subscribe(eventType EventType, consumer Consumer) error {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.started {
		return ErrBusStarted
	}

	if _, exists := eb.queues[eventType]; !exists {
		eb.queues[eventType] = NewQueue[Event]()
		eb.workers[eventType] = &sync.WaitGroup{}
	}

	eb.consumers[eventType] = append(eb.consumers[eventType], consumer)

	return nil
}

func (eb *eventBus) Start(ctx context.Context) error {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.started {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	eb.cancel = cancel

	for eventType, consumers := range eb.consumers {
		queue := eb.queues[eventType]
		wg := eb.workers[eventType]

		for _, consumer := range consumers {
			workerCount := consumer.GetWorkerCount()
			if workerCount < 1 {
				workerCount = 1
			}

			eb.logger.Debug(workerCtx, "Starting workers",
				"event_type", eventType,
				"worker_count", workerCount,
			)

			for i := 0; i < workerCount; i++ {
				wg.Add(1)
				go eb.worker(workerCtx, wg, queue, consumer, i)
			}
		}
	}

	eb.started = true
	eb.logger.Debug(workerCtx, "Event bus started")

	return nil
}

func (eb *eventBus) worker(ctx context.Context, wg *sync.WaitGroup, queue *Queue[Event], consumer Consumer, workerID int) {
	defer wg.Done()

	for {
		event, err := queue.Pop(ctx)
		if err != nil {
			eb.logger.Debug(ctx, "Worker stopping",
				"worker_id", workerID,
				"reason", err,
			)
			return
		}

		eb.processEvent(ctx, event, consumer, workerID)
	}
}

func (eb *eventBus) processEvent(ctx context.Context, event Event, consumer Consumer, workerID int) {
	eventCtx := ctx
	if event.ID != "" {
		eventCtx = logger.WithTraceID(ctx, event.ID)
	}

	defer func() {
		if recovered := recover(); recovered != nil {
			eb.logger.Error(eventCtx, "Consumer panicked",
				"event_id", event.ID,
				"event_type", event.Type,
				"worker_id", workerID,
				"panic", fmt.Sprint(recovered),
			)
		}
	}()

	// Events are not retried: a consumer error is terminal for that event.
	if err := consumer.Consume(eventCtx, event); err != nil {
		eb.logger.Error(eventCtx, "Failed to process event",
			"event_id", event.ID,
			"event_type", event.Type,
			"worker_id", workerID,
			"error", err,
		)
	}
}

func (eb *eventBus) Publish(ctx context.Context, event Event) error {
	eb.mu.RLock()
	queue, exists := eb.queues[event.Type]
	eb.mu.RUnlock()

	if !exists {
		eb.logger.Debug(ctx, "No subscriber for event type, event dropped",
			"event_type", event.Type,
			"event_id", event.ID,
		)
		return nil
	}

	if err := queue.Push(event); err != nil {
		eb.logger.Debug(ctx, "Event queue closed, event dropped",
			"event_type", event.Type,
			"event_id", event.ID,
		)
		return nil
	}

	return nil
}

// Drain closes the queue for eventType and waits until its workers have
// consumed everything already published.
func (eb *eventBus) Drain(ctx context.Context, eventType EventType) error {
	eb.mu.RLock()
	queue, exists := eb.queues[eventType]
	wg := eb.workers[eventType]
	eb.mu.RUnlock()

	if !exists {
		return nil
	}

	eb.logger.Debug(ctx, "Draining queue",
		"event_type", eventType,
		"pending", queue.Len(),
	)

	queue.Close()
	return waitGroup(ctx, wg)
}

func (eb *eventBus) Shutdown(ctx context.Context) error {
	eb.logger.Debug(ctx, "Shutting down event bus")

	eb.mu.RLock()
	groups := make([]*sync.WaitGroup, 0, len(eb.workers))
	for eventType, queue := range eb.queues {
		queue.Close()
		groups = append(groups, eb.workers[eventType])
	}
	cancel := eb.cancel
	eb.mu.RUnlock()

	for _, wg := range groups {
		if err := waitGroup(ctx, wg); err != nil {
			eb.logger.Warn(ctx, "Event bus shutdown timeout")
			if cancel != nil {
				cancel()
			}
			return err
		}
	}

	if cancel != nil {
		cancel()
	}
	eb.logger.Debug(ctx, "Event bus shutdown complete")
	return nil
}

func waitGroup(ctx context.Context, wg *sync.WaitGroup) error {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
