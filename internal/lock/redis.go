package lock

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/JEMeyer/ai-maestro/internal/domain"
)

const (
	keyPrefix      = "ai-maestro:lock:"
	releaseTimeout = 5 * time.Second
)

// Only the owner may release or extend a lock
var (
	releaseScript = redis.NewScript(`
		if redis.call("get", KEYS[1]) == ARGV[1] then
			return redis.call("del", KEYS[1])
		else
			return 0
		end
	`)

	extendScript = redis.NewScript(`
		if redis.call("get", KEYS[1]) == ARGV[1] then
			return redis.call("pexpire", KEYS[1], ARGV[2])
		else
			return 0
		end
	`)
)

// RedisLocker holds locks in Redis so several orchestrator replicas exclude
// each other. A held lock is extended every ttl/2 until released.
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedisLocker connects to redisURL
func NewRedisLocker(redisURL string, ttl time.Duration, logger *slog.Logger) (*RedisLocker, error) {
	if logger == nil {
		logger = slog.Default()
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisLocker{
		client: client,
		ttl:    ttl,
		logger: logger.With("component", "redis_lock"),
	}, nil
}

// TryAcquire takes key if no other owner holds it
func (l *RedisLocker) TryAcquire(ctx context.Context, key string) (ReleaseFunc, error) {
	redisKey := keyPrefix + key
	token := uuid.New().String()

	ok, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrDeploymentBusy, key)
	}
	l.logger.Debug("Lock acquired", "key", key, "ttl", l.ttl)

	stop := make(chan struct{})
	done := make(chan struct{})
	go l.keepAlive(redisKey, token, stop, done)

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			<-done

			ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
			defer cancel()

			result, err := releaseScript.Run(ctx, l.client, []string{redisKey}, token).Int()
			if err != nil {
				l.logger.Error("Failed to release lock", "key", key, "error", err)
				return
			}
			if result == 0 {
				l.logger.Warn("Lock was not owned by this holder or already expired", "key", key)
				return
			}
			l.logger.Debug("Lock released", "key", key)
		})
	}, nil
}

func (l *RedisLocker) keepAlive(redisKey, token string, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	interval := l.ttl / 2
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
			result, err := extendScript.Run(ctx, l.client, []string{redisKey}, token, l.ttl.Milliseconds()).Int()
			cancel()
			if err != nil {
				l.logger.Warn("Failed to extend lock", "key", redisKey, "error", err)
				continue
			}
			if result == 0 {
				l.logger.Error("Lock lost before release", "key", redisKey)
				return
			}
		}
	}
}

// Close closes the Redis connection
func (l *RedisLocker) Close() error {
	if l.client != nil {
		return l.client.Close()
	}
	return nil
}
