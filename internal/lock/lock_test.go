package lock

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JEMeyer/ai-maestro/internal/domain"
)

func TestKeys(t *testing.T) {
	assert.Equal(t, "deployment:12", DeploymentKey(12))
	assert.Equal(t, "deployment-name:llama", NameKey("llama"))
}

func TestMemoryLocker_Exclusive(t *testing.T) {
	l := NewMemoryLocker(nil)
	ctx := context.Background()

	release, err := l.TryAcquire(ctx, DeploymentKey(1))
	require.NoError(t, err)
	assert.True(t, l.Held(DeploymentKey(1)))

	_, err = l.TryAcquire(ctx, DeploymentKey(1))
	assert.ErrorIs(t, err, domain.ErrDeploymentBusy)

	// other keys are independent
	other, err := l.TryAcquire(ctx, DeploymentKey(2))
	require.NoError(t, err)
	other()

	release()
	release()
	assert.False(t, l.Held(DeploymentKey(1)))

	again, err := l.TryAcquire(ctx, DeploymentKey(1))
	require.NoError(t, err)
	again()
}

func TestMemoryLocker_StaleReleaseKeepsNewOwner(t *testing.T) {
	l := NewMemoryLocker(nil)
	ctx := context.Background()

	first, err := l.TryAcquire(ctx, "k")
	require.NoError(t, err)
	first()

	second, err := l.TryAcquire(ctx, "k")
	require.NoError(t, err)
	defer second()

	first()
	assert.True(t, l.Held("k"))
}

func TestMemoryLocker_OneWinner(t *testing.T) {
	l := NewMemoryLocker(nil)

	var (
		wg      sync.WaitGroup
		winners atomic.Int32
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := l.TryAcquire(context.Background(), "race"); err == nil {
				winners.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), winners.Load())
}

func TestMemoryLocker_CancelledContext(t *testing.T) {
	l := NewMemoryLocker(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := l.TryAcquire(ctx, "k")
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, l.Held("k"))
}

func newTestRedisLocker(t *testing.T, ttl time.Duration) *RedisLocker {
	t.Helper()

	redisURL := os.Getenv("TEST_REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://localhost:6379"
	}
	l, err := NewRedisLocker(redisURL, ttl, nil)
	if err != nil {
		t.Skipf("Redis not available for testing (set TEST_REDIS_URL or run Redis on localhost:6379): %v", err)
	}
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func TestRedisLocker_Exclusive(t *testing.T) {
	l := newTestRedisLocker(t, time.Minute)
	ctx := context.Background()
	key := DeploymentKey(uint(time.Now().UnixNano() % 1_000_000))

	release, err := l.TryAcquire(ctx, key)
	require.NoError(t, err)

	_, err = l.TryAcquire(ctx, key)
	assert.ErrorIs(t, err, domain.ErrDeploymentBusy)

	release()

	again, err := l.TryAcquire(ctx, key)
	require.NoError(t, err)
	again()
}

func TestRedisLocker_KeepAliveOutlivesTTL(t *testing.T) {
	l := newTestRedisLocker(t, 400*time.Millisecond)
	ctx := context.Background()
	key := NameKey("keepalive-" + time.Now().Format(time.RFC3339Nano))

	release, err := l.TryAcquire(ctx, key)
	require.NoError(t, err)
	defer release()

	time.Sleep(time.Second)

	_, err = l.TryAcquire(ctx, key)
	assert.ErrorIs(t, err, domain.ErrDeploymentBusy)
}
