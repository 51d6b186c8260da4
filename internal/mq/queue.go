// Package mq carries deployment lifecycle events from the orchestrator to
// their consumers.
package mq

import (
	"context"
	"fmt"
	"log/slog"
)

// MessageHandler processes one delivered message
type MessageHandler func(ctx context.Context, msg *Message) error

// MessageQueue is a topic-based publish/subscribe queue
type MessageQueue interface {
	// Publish enqueues msg on msg.Topic
	Publish(ctx context.Context, msg *Message) error

	// Subscribe registers handler for topic
	Subscribe(ctx context.Context, topic string, handler MessageHandler) error

	// Unsubscribe removes every handler of topic
	Unsubscribe(topic string) error

	// Start begins delivery
	Start(ctx context.Context) error

	// Stop waits for in-flight deliveries and stops delivering
	Stop() error

	// Close releases all resources; it stops the queue first
	Close() error

	Stats() QueueStats
}

// QueueStats are delivery counters of a queue
type QueueStats struct {
	TotalPublished    int64
	TotalDelivered    int64
	TotalErrors       int64
	ActiveSubscribers int
	QueueDepth        int
}

// Options selects and sizes a queue implementation
type Options struct {
	Type       string // "inmemory" or "redis"
	BufferSize int
	Workers    int
	RedisURL   string
	ConsumerID string
}

// New builds the queue selected by opts.Type
func New(opts Options, logger *slog.Logger) (MessageQueue, error) {
	switch opts.Type {
	case "", "inmemory":
		return NewInMemoryQueue(InMemoryQueueConfig{
			BufferSize: opts.BufferSize,
			MaxWorkers: opts.Workers,
		}, logger), nil
	case "redis":
		return NewRedisQueue(RedisQueueConfig{
			RedisURL:   opts.RedisURL,
			ConsumerID: opts.ConsumerID,
		}, logger)
	default:
		return nil, fmt.Errorf("unknown queue type: %s", opts.Type)
	}
}
