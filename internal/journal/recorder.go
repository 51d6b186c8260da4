package journal

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/JEMeyer/ai-maestro/internal/domain"
	"github.com/JEMeyer/ai-maestro/internal/mq"
	"github.com/JEMeyer/ai-maestro/internal/storage"
)

// Recorder subscribes to the event topic and stores every event
type Recorder struct {
	queue  mq.MessageQueue
	repo   storage.EventRepository
	topic  string
	sem    *semaphore.Weighted
	logger *slog.Logger

	statsInterval time.Duration

	received atomic.Int64
	stored   atomic.Int64
	rejected atomic.Int64
	failed   atomic.Int64
}

// NewRecorder creates a recorder storing at most maxConcurrent events at once
func NewRecorder(queue mq.MessageQueue, repo storage.EventRepository, topic string, maxConcurrent int, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &Recorder{
		queue:         queue,
		repo:          repo,
		topic:         topic,
		sem:           semaphore.NewWeighted(int64(maxConcurrent)),
		logger:        logger.With("component", "journal_recorder"),
		statsInterval: time.Minute,
	}
}

// Start subscribes and blocks until ctx is cancelled
func (r *Recorder) Start(ctx context.Context) error {
	if err := r.Subscribe(ctx); err != nil {
		return err
	}
	return r.Run(ctx)
}

// Subscribe registers the recorder on its topic without blocking
func (r *Recorder) Subscribe(ctx context.Context) error {
	if err := r.queue.Subscribe(ctx, r.topic, r.handleMessage); err != nil {
		return fmt.Errorf("failed to subscribe to topic: %w", err)
	}
	r.logger.Info("Recording deployment events", "topic", r.topic)
	return nil
}

// Run logs statistics until ctx is cancelled, then unsubscribes
func (r *Recorder) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.statsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if err := r.queue.Unsubscribe(r.topic); err != nil {
				r.logger.Warn("Failed to unsubscribe", "error", err)
			}
			r.logger.Info("Recorder shutting down", "stored", r.stored.Load(), "failed", r.failed.Load())
			return ctx.Err()
		case <-ticker.C:
			stats := r.Stats()
			r.logger.Info("Recorder statistics",
				"received", stats.Received,
				"stored", stats.Stored,
				"rejected", stats.Rejected,
				"failed", stats.Failed)
		}
	}
}

func (r *Recorder) handleMessage(ctx context.Context, msg *mq.Message) error {
	r.received.Add(1)

	var event domain.DeploymentEvent
	if err := msg.Unmarshal(&event); err != nil {
		r.rejected.Add(1)
		r.logger.Warn("Failed to unmarshal event", "message_id", msg.ID, "error", err)
		// malformed events are dropped, not requeued
		return nil
	}
	if err := event.Validate(); err != nil {
		r.rejected.Add(1)
		r.logger.Warn("Invalid event", "message_id", msg.ID, "deployment_id", event.DeploymentID, "error", err)
		return nil
	}

	if err := r.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer r.sem.Release(1)

	if err := r.repo.Store(ctx, &event); err != nil {
		r.failed.Add(1)
		r.logger.Error("Failed to store event", "deployment_id", event.DeploymentID, "type", event.Type, "error", err)
		return fmt.Errorf("failed to store event: %w", err)
	}

	r.stored.Add(1)
	r.logger.Debug("Stored event", "deployment_id", event.DeploymentID, "type", event.Type)
	return nil
}

// RecorderStats are the recorder's counters
type RecorderStats struct {
	Received int64
	Stored   int64
	Rejected int64
	Failed   int64
}

// Stats returns the recorder's counters
func (r *Recorder) Stats() RecorderStats {
	return RecorderStats{
		Received: r.received.Load(),
		Stored:   r.stored.Load(),
		Rejected: r.rejected.Load(),
		Failed:   r.failed.Load(),
	}
}
