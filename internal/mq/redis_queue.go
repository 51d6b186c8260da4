package mq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	ErrRedisQueueClosed = errors.New("redis queue is closed")
	ErrRedisConnection  = errors.New("redis connection failed")
)

// RedisQueue is a list-backed queue shared by orchestrator replicas.
// A consumer moves each message onto its own processing list while the
// handler runs, so a crashed consumer's messages are recovered on restart.
type RedisQueue struct {
	client      *redis.Client
	logger      *slog.Logger
	consumerID  string
	maxRetries  int
	pollTimeout time.Duration

	subscriptions map[string]*redisSubscription
	subMu         sync.RWMutex

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	totalPublished atomic.Int64
	totalDelivered atomic.Int64
	totalErrors    atomic.Int64

	closed atomic.Bool
}

type redisSubscription struct {
	topic   string
	handler MessageHandler
	cancel  context.CancelFunc
	done    chan struct{}
}

// RedisQueueConfig configures a RedisQueue
type RedisQueueConfig struct {
	RedisURL    string
	ConsumerID  string
	MaxRetries  int
	PoolSize    int
	PollTimeout time.Duration
}

// NewRedisQueue connects to Redis
func NewRedisQueue(config RedisQueueConfig, logger *slog.Logger) (*RedisQueue, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if config.ConsumerID == "" {
		config.ConsumerID = uuid.New().String()
	}
	if config.MaxRetries == 0 {
		config.MaxRetries = 3
	}
	if config.PoolSize == 0 {
		config.PoolSize = 10
	}
	if config.PollTimeout == 0 {
		config.PollTimeout = time.Second
	}

	opts, err := redis.ParseURL(config.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	opts.PoolSize = config.PoolSize

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: %v", ErrRedisConnection, err)
	}

	queueCtx, queueCancel := context.WithCancel(context.Background())

	return &RedisQueue{
		client:        client,
		logger:        logger.With("component", "redis_queue"),
		consumerID:    config.ConsumerID,
		maxRetries:    config.MaxRetries,
		pollTimeout:   config.PollTimeout,
		subscriptions: make(map[string]*redisSubscription),
		ctx:           queueCtx,
		cancel:        queueCancel,
	}, nil
}

func queueKey(topic string) string {
	return "queue:" + topic
}

func (q *RedisQueue) processingKey(topic string) string {
	return fmt.Sprintf("processing:%s:%s", topic, q.consumerID)
}

func deadLetterKey(topic string) string {
	return "deadletter:" + topic
}

// Start is a no-op; consumers start on Subscribe
func (q *RedisQueue) Start(ctx context.Context) error {
	if q.closed.Load() {
		return ErrRedisQueueClosed
	}
	q.logger.Info("Redis queue started", "consumer_id", q.consumerID)
	return nil
}

// Publish pushes msg onto the topic list
func (q *RedisQueue) Publish(ctx context.Context, msg *Message) error {
	if q.closed.Load() {
		return ErrRedisQueueClosed
	}
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	if err := q.client.LPush(ctx, queueKey(msg.Topic), data).Err(); err != nil {
		q.totalErrors.Add(1)
		return fmt.Errorf("failed to push message to Redis: %w", err)
	}

	q.totalPublished.Add(1)
	q.logger.Debug("Message published", "topic", msg.Topic, "message_id", msg.ID)
	return nil
}

// Subscribe starts a consumer for topic. Only one handler per topic is
// allowed on a RedisQueue.
func (q *RedisQueue) Subscribe(ctx context.Context, topic string, handler MessageHandler) error {
	if q.closed.Load() {
		return ErrRedisQueueClosed
	}

	q.subMu.Lock()
	defer q.subMu.Unlock()

	if _, exists := q.subscriptions[topic]; exists {
		return fmt.Errorf("already subscribed to topic: %s", topic)
	}

	subCtx, subCancel := context.WithCancel(q.ctx)
	sub := &redisSubscription{
		topic:   topic,
		handler: handler,
		cancel:  subCancel,
		done:    make(chan struct{}),
	}
	q.subscriptions[topic] = sub

	q.recover(subCtx, topic)

	q.wg.Add(1)
	go q.consume(subCtx, sub)

	q.logger.Info("Subscribed to topic", "topic", topic, "consumer_id", q.consumerID)
	return nil
}

// recover returns messages left on this consumer's processing list to the queue
func (q *RedisQueue) recover(ctx context.Context, topic string) {
	for {
		_, err := q.client.RPopLPush(ctx, q.processingKey(topic), queueKey(topic)).Result()
		if errors.Is(err, redis.Nil) {
			return
		}
		if err != nil {
			q.logger.Warn("Failed to recover in-flight messages", "topic", topic, "error", err)
			return
		}
	}
}

func (q *RedisQueue) consume(ctx context.Context, sub *redisSubscription) {
	defer q.wg.Done()
	defer close(sub.done)

	processing := q.processingKey(sub.topic)

	for {
		if ctx.Err() != nil {
			return
		}

		raw, err := q.client.BRPopLPush(ctx, queueKey(sub.topic), processing, q.pollTimeout).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return
			}
			q.totalErrors.Add(1)
			q.logger.Error("Failed to pop message from Redis", "topic", sub.topic, "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(q.pollTimeout):
			}
			continue
		}

		q.handle(ctx, sub, processing, raw)
	}
}

func (q *RedisQueue) handle(ctx context.Context, sub *redisSubscription, processing, raw string) {
	// acknowledgement must land even when the consumer is being stopped
	ackCtx := context.WithoutCancel(ctx)
	defer q.client.LRem(ackCtx, processing, 1, raw)

	var msg Message
	if err := json.Unmarshal([]byte(raw), &msg); err != nil {
		q.totalErrors.Add(1)
		q.logger.Error("Failed to unmarshal message", "topic", sub.topic, "error", err)
		return
	}

	if err := sub.handler(ctx, &msg); err != nil {
		q.totalErrors.Add(1)
		q.retry(ackCtx, &msg, err)
		return
	}
	q.totalDelivered.Add(1)
}

// retry requeues a failed message until it has been tried maxRetries times,
// then parks it on the topic's dead letter list
func (q *RedisQueue) retry(ctx context.Context, msg *Message, cause error) {
	attempt, _ := strconv.Atoi(msg.Headers[HeaderAttempt])
	attempt++
	msg.WithHeader(HeaderAttempt, strconv.Itoa(attempt))

	data, err := json.Marshal(msg)
	if err != nil {
		q.logger.Error("Failed to marshal message for retry", "message_id", msg.ID, "error", err)
		return
	}

	target := queueKey(msg.Topic)
	if attempt >= q.maxRetries {
		target = deadLetterKey(msg.Topic)
		q.logger.Warn("Message exceeded max retries", "topic", msg.Topic, "message_id", msg.ID, "error", cause)
	} else {
		q.logger.Warn("Handler failed, requeueing message", "topic", msg.Topic, "message_id", msg.ID, "attempt", attempt, "error", cause)
	}

	if err := q.client.LPush(ctx, target, data).Err(); err != nil {
		q.logger.Error("Failed to requeue message", "message_id", msg.ID, "error", err)
	}
}

// Unsubscribe stops the consumer of topic
func (q *RedisQueue) Unsubscribe(topic string) error {
	q.subMu.Lock()
	sub, exists := q.subscriptions[topic]
	if !exists {
		q.subMu.Unlock()
		return fmt.Errorf("not subscribed to topic: %s", topic)
	}
	delete(q.subscriptions, topic)
	q.subMu.Unlock()

	sub.cancel()
	<-sub.done
	return nil
}

// Stop stops every consumer
func (q *RedisQueue) Stop() error {
	q.cancel()
	q.wg.Wait()
	return nil
}

// Close stops the queue and closes the Redis connection
func (q *RedisQueue) Close() error {
	if q.closed.Swap(true) {
		return nil
	}
	_ = q.Stop()

	if err := q.client.Close(); err != nil {
		q.logger.Error("Failed to close Redis client", "error", err)
		return err
	}
	q.logger.Info("Redis queue closed")
	return nil
}

// Stats returns the delivery counters
func (q *RedisQueue) Stats() QueueStats {
	q.subMu.RLock()
	active := len(q.subscriptions)
	q.subMu.RUnlock()

	return QueueStats{
		TotalPublished:    q.totalPublished.Load(),
		TotalDelivered:    q.totalDelivered.Load(),
		TotalErrors:       q.totalErrors.Load(),
		ActiveSubscribers: active,
	}
}
