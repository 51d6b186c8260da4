// Package journal publishes deployment lifecycle events and records them
// into the event store.
package journal

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/JEMeyer/ai-maestro/internal/domain"
	"github.com/JEMeyer/ai-maestro/internal/mq"
)

// Emitter accepts lifecycle events. Emit never fails the caller; delivery
// problems are logged.
type Emitter interface {
	Emit(ctx context.Context, event domain.DeploymentEvent)
}

// Publisher emits events onto a message queue topic
type Publisher struct {
	queue  mq.MessageQueue
	topic  string
	logger *slog.Logger
	now    func() time.Time
}

// NewPublisher creates a publisher for topic
func NewPublisher(queue mq.MessageQueue, topic string, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		queue:  queue,
		topic:  topic,
		logger: logger.With("component", "journal_publisher"),
		now:    time.Now,
	}
}

// Emit stamps and publishes event
func (p *Publisher) Emit(ctx context.Context, event domain.DeploymentEvent) {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = p.now()
	}

	msg, err := mq.NewMessage(p.topic, event)
	if err != nil {
		p.logger.Error("Failed to encode event", "deployment_id", event.DeploymentID, "type", event.Type, "error", err)
		return
	}
	msg.WithHeader(mq.HeaderDeploymentID, strconv.FormatUint(uint64(event.DeploymentID), 10)).
		WithHeader(mq.HeaderEventType, string(event.Type))

	// events of a finished operation are still published when its request ends
	if err := p.queue.Publish(context.WithoutCancel(ctx), msg); err != nil {
		p.logger.Warn("Failed to publish event",
			"deployment_id", event.DeploymentID,
			"type", event.Type,
			"error", err)
	}
}

// Discard drops every event
type Discard struct{}

// Emit does nothing
func (Discard) Emit(context.Context, domain.DeploymentEvent) {}
