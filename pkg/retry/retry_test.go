package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDo_SucceedsAfterRetries(t *testing.T) {
	calls := 0

	err := Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("busy")
		}
		return nil
	}, WithMaxAttempts(5), WithBaseDelay(time.Millisecond))

	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_GivesUp(t *testing.T) {
	busy := errors.New("busy")
	calls := 0

	err := Do(context.Background(), func() error {
		calls++
		return busy
	}, WithMaxAttempts(2), WithBaseDelay(time.Millisecond))

	assert.ErrorIs(t, err, busy)
	assert.Equal(t, 2, calls)
}

func TestDo_PermanentErrorStopsImmediately(t *testing.T) {
	permanent := errors.New("permission denied")
	calls := 0

	err := Do(context.Background(), func() error {
		calls++
		return permanent
	}, WithMaxAttempts(5), WithRetryIf(func(err error) bool { return !errors.Is(err, permanent) }))

	assert.Equal(t, permanent, err)
	assert.Equal(t, 1, calls)
}

func TestDo_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Do(ctx, func() error {
		return errors.New("busy")
	}, WithMaxAttempts(3), WithBaseDelay(time.Hour))

	assert.ErrorIs(t, err, context.Canceled)
}

func TestBackoff_Capped(t *testing.T) {
	assert.Equal(t, 100*time.Millisecond, backoff(0, 100*time.Millisecond, time.Second))
	assert.Equal(t, 400*time.Millisecond, backoff(2, 100*time.Millisecond, time.Second))
	assert.Equal(t, time.Second, backoff(10, 100*time.Millisecond, time.Second))
}
