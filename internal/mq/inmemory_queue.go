package mq

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
)

// InMemoryQueue delivers messages to in-process subscribers through a
// buffered channel and a bounded pool of handler goroutines.
type InMemoryQueue struct {
	subscribers   map[string][]MessageHandler
	subscribersMu sync.RWMutex

	messages   chan *Message
	bufferSize int

	workerPool chan struct{}
	maxWorkers int

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
	logger *slog.Logger

	running atomic.Bool
	closed  atomic.Bool

	totalPublished atomic.Int64
	totalDelivered atomic.Int64
	totalErrors    atomic.Int64
}

// InMemoryQueueConfig sizes the queue
type InMemoryQueueConfig struct {
	BufferSize int
	MaxWorkers int
}

// DefaultInMemoryQueueConfig returns the default sizes
func DefaultInMemoryQueueConfig() InMemoryQueueConfig {
	return InMemoryQueueConfig{
		BufferSize: 1000,
		MaxWorkers: 10,
	}
}

// NewInMemoryQueue creates an in-memory queue
func NewInMemoryQueue(config InMemoryQueueConfig, logger *slog.Logger) *InMemoryQueue {
	defaults := DefaultInMemoryQueueConfig()
	if config.BufferSize <= 0 {
		config.BufferSize = defaults.BufferSize
	}
	if config.MaxWorkers <= 0 {
		config.MaxWorkers = defaults.MaxWorkers
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &InMemoryQueue{
		subscribers: make(map[string][]MessageHandler),
		messages:    make(chan *Message, config.BufferSize),
		bufferSize:  config.BufferSize,
		workerPool:  make(chan struct{}, config.MaxWorkers),
		maxWorkers:  config.MaxWorkers,
		logger:      logger.With("component", "inmemory_queue"),
	}
}

// Start begins dispatching
func (q *InMemoryQueue) Start(ctx context.Context) error {
	if q.closed.Load() {
		return fmt.Errorf("queue is closed")
	}
	if q.running.Swap(true) {
		return fmt.Errorf("queue is already running")
	}

	q.ctx, q.cancel = context.WithCancel(ctx)

	q.wg.Add(1)
	go q.dispatchLoop()

	q.logger.Info("Message queue started", "buffer_size", q.bufferSize, "max_workers", q.maxWorkers)
	return nil
}

// Stop drains buffered messages and waits for running handlers
func (q *InMemoryQueue) Stop() error {
	if !q.running.Load() {
		return nil
	}

	q.cancel()
	q.wg.Wait()
	q.running.Store(false)

	q.logger.Info("Message queue stopped",
		"total_published", q.totalPublished.Load(),
		"total_delivered", q.totalDelivered.Load(),
		"total_errors", q.totalErrors.Load())
	return nil
}

// Close stops the queue and releases its channel
func (q *InMemoryQueue) Close() error {
	if q.closed.Swap(true) {
		return nil
	}
	if err := q.Stop(); err != nil {
		return err
	}
	close(q.messages)
	return nil
}

// Publish enqueues msg; it blocks while the buffer is full
func (q *InMemoryQueue) Publish(ctx context.Context, msg *Message) error {
	if q.closed.Load() {
		return fmt.Errorf("queue is closed")
	}
	if !q.running.Load() {
		return fmt.Errorf("queue is not started")
	}

	select {
	case q.messages <- msg:
		q.totalPublished.Add(1)
		return nil
	case <-ctx.Done():
		return fmt.Errorf("publish cancelled: %w", ctx.Err())
	case <-q.ctx.Done():
		return fmt.Errorf("queue is shutting down")
	}
}

// Subscribe adds handler to topic
func (q *InMemoryQueue) Subscribe(ctx context.Context, topic string, handler MessageHandler) error {
	if q.closed.Load() {
		return fmt.Errorf("queue is closed")
	}

	q.subscribersMu.Lock()
	defer q.subscribersMu.Unlock()
	q.subscribers[topic] = append(q.subscribers[topic], handler)

	q.logger.Info("Handler subscribed to topic", "topic", topic, "total_handlers", len(q.subscribers[topic]))
	return nil
}

// Unsubscribe removes every handler of topic
func (q *InMemoryQueue) Unsubscribe(topic string) error {
	q.subscribersMu.Lock()
	defer q.subscribersMu.Unlock()
	delete(q.subscribers, topic)
	return nil
}

// Stats returns the delivery counters
func (q *InMemoryQueue) Stats() QueueStats {
	q.subscribersMu.RLock()
	active := len(q.subscribers)
	q.subscribersMu.RUnlock()

	return QueueStats{
		TotalPublished:    q.totalPublished.Load(),
		TotalDelivered:    q.totalDelivered.Load(),
		TotalErrors:       q.totalErrors.Load(),
		ActiveSubscribers: active,
		QueueDepth:        len(q.messages),
	}
}

func (q *InMemoryQueue) dispatchLoop() {
	defer q.wg.Done()

	for {
		select {
		case msg, ok := <-q.messages:
			if !ok {
				return
			}
			q.dispatch(msg)
		case <-q.ctx.Done():
			q.drain()
			return
		}
	}
}

func (q *InMemoryQueue) drain() {
	for {
		select {
		case msg, ok := <-q.messages:
			if !ok {
				return
			}
			q.dispatch(msg)
		default:
			return
		}
	}
}

func (q *InMemoryQueue) dispatch(msg *Message) {
	q.subscribersMu.RLock()
	handlers := q.subscribers[msg.Topic]
	q.subscribersMu.RUnlock()

	if len(handlers) == 0 {
		q.logger.Debug("No subscribers for topic", "topic", msg.Topic, "message_id", msg.ID)
		return
	}

	for _, handler := range handlers {
		q.wg.Add(1)
		q.workerPool <- struct{}{}
		go q.run(handler, msg)
	}
}

func (q *InMemoryQueue) run(handler MessageHandler, msg *Message) {
	defer func() {
		<-q.workerPool
		if r := recover(); r != nil {
			q.totalErrors.Add(1)
			q.logger.Error("Handler panicked", "panic", r, "topic", msg.Topic, "message_id", msg.ID)
		}
		q.wg.Done()
	}()

	// handlers outlive the dispatcher's cancellation while the queue drains
	if err := handler(context.WithoutCancel(q.ctx), msg); err != nil {
		q.totalErrors.Add(1)
		q.logger.Error("Handler error", "error", err, "topic", msg.Topic, "message_id", msg.ID)
		return
	}
	q.totalDelivered.Add(1)
}
