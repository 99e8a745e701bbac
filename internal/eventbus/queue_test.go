package eventbus

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueue_FIFO(t *testing.T) {
	q := NewQueue[int]()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, q.Push(i))
	}
	assert.Equal(t, 5, q.Len())

	for i := 0; i < 5; i++ {
		v, err := q.Pop(ctx)
		require.NoError(t, err)
		assert.Equal(t, i, v)
	}
	assert.Equal(t, 0, q.Len())
}

func TestQueue_PushAfterClose(t *testing.T) {
	q := NewQueue[string]()
	q.Close()
	q.Close()

	err := q.Push("late")
	assert.ErrorIs(t, err, ErrQueueClosed)
}

func TestQueue_DrainsBeforeReportingClosed(t *testing.T) {
	q := NewQueue[int]()
	ctx := context.Background()

	require.NoError(t, q.Push(1))
	require.NoError(t, q.Push(2))
	q.Close()

	v, err := q.Pop(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	v, err = q.Pop(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, v)

	_, err = q.Pop(ctx)
	assert.ErrorIs(t, err, ErrQueueClosed)
}

func TestQueue_PopBlocksUntilPush(t *testing.T) {
	q := NewQueue[int]()

	result := make(chan int, 1)
	go func() {
		v, err := q.Pop(context.Background())
		if err == nil {
			result <- v
		}
	}()

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, q.Push(42))

	select {
	case v := <-result:
		assert.Equal(t, 42, v)
	case <-time.After(time.Second):
		t.Fatal("pop did not wake up")
	}
}

func TestQueue_PopRespectsContext(t *testing.T) {
	q := NewQueue[int]()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := q.Pop(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestQueue_ConcurrentProducersNeverBlock(t *testing.T) {
	q := NewQueue[int]()

	var wg sync.WaitGroup
	for p := 0; p < 10; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				_ = q.Push(i)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10000, q.Len())
}
