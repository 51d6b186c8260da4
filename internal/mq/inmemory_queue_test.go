package mq

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startedQueue(t *testing.T, cfg InMemoryQueueConfig) *InMemoryQueue {
	t.Helper()
	q := NewInMemoryQueue(cfg, nil)
	require.NoError(t, q.Start(context.Background()))
	t.Cleanup(func() { _ = q.Close() })
	return q
}

func TestInMemoryQueue_PublishSubscribe(t *testing.T) {
	q := startedQueue(t, DefaultInMemoryQueueConfig())
	ctx := context.Background()

	received := make(chan *Message, 1)
	require.NoError(t, q.Subscribe(ctx, "deployment.events", func(ctx context.Context, msg *Message) error {
		received <- msg
		return nil
	}))

	msg, err := NewMessage("deployment.events", map[string]string{"type": "created"})
	require.NoError(t, err)
	require.NoError(t, q.Publish(ctx, msg))

	select {
	case got := <-received:
		assert.Equal(t, msg.ID, got.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("Timeout waiting for message")
	}

	assert.Eventually(t, func() bool {
		return q.Stats().TotalDelivered == 1
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, int64(1), q.Stats().TotalPublished)
}

func TestInMemoryQueue_ConcurrentPublishers(t *testing.T) {
	q := startedQueue(t, InMemoryQueueConfig{BufferSize: 100, MaxWorkers: 8})
	ctx := context.Background()

	var count atomic.Int64
	require.NoError(t, q.Subscribe(ctx, "t", func(ctx context.Context, msg *Message) error {
		count.Add(1)
		return nil
	}))

	var wg sync.WaitGroup
	for p := 0; p < 5; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				msg, _ := NewMessage("t", i)
				assert.NoError(t, q.Publish(ctx, msg))
			}
		}()
	}
	wg.Wait()

	assert.Eventually(t, func() bool { return count.Load() == 250 }, 2*time.Second, 10*time.Millisecond)
}

func TestInMemoryQueue_HandlerErrorsAndPanicsAreCounted(t *testing.T) {
	q := startedQueue(t, DefaultInMemoryQueueConfig())
	ctx := context.Background()

	require.NoError(t, q.Subscribe(ctx, "err", func(ctx context.Context, msg *Message) error {
		return errors.New("boom")
	}))
	require.NoError(t, q.Subscribe(ctx, "panic", func(ctx context.Context, msg *Message) error {
		panic("boom")
	}))

	m1, _ := NewMessage("err", 1)
	m2, _ := NewMessage("panic", 2)
	require.NoError(t, q.Publish(ctx, m1))
	require.NoError(t, q.Publish(ctx, m2))

	assert.Eventually(t, func() bool { return q.Stats().TotalErrors == 2 }, time.Second, 10*time.Millisecond)
}

func TestInMemoryQueue_StopDrainsBufferedMessages(t *testing.T) {
	q := NewInMemoryQueue(InMemoryQueueConfig{BufferSize: 50, MaxWorkers: 1}, nil)
	require.NoError(t, q.Start(context.Background()))

	var count atomic.Int64
	require.NoError(t, q.Subscribe(context.Background(), "t", func(ctx context.Context, msg *Message) error {
		count.Add(1)
		return nil
	}))
	for i := 0; i < 20; i++ {
		msg, _ := NewMessage("t", i)
		require.NoError(t, q.Publish(context.Background(), msg))
	}

	require.NoError(t, q.Close())
	assert.Equal(t, int64(20), count.Load())
}

func TestInMemoryQueue_Lifecycle(t *testing.T) {
	q := NewInMemoryQueue(DefaultInMemoryQueueConfig(), nil)
	msg, _ := NewMessage("t", 1)

	assert.Error(t, q.Publish(context.Background(), msg), "publish before start")

	require.NoError(t, q.Start(context.Background()))
	assert.Error(t, q.Start(context.Background()), "double start")

	require.NoError(t, q.Close())
	require.NoError(t, q.Close())
	assert.Error(t, q.Publish(context.Background(), msg))
	assert.Error(t, q.Subscribe(context.Background(), "t", nil))
}

func TestInMemoryQueue_Unsubscribe(t *testing.T) {
	q := startedQueue(t, DefaultInMemoryQueueConfig())
	require.NoError(t, q.Subscribe(context.Background(), "t", func(ctx context.Context, msg *Message) error { return nil }))
	assert.Equal(t, 1, q.Stats().ActiveSubscribers)

	require.NoError(t, q.Unsubscribe("t"))
	assert.Equal(t, 0, q.Stats().ActiveSubscribers)
}
