package journal

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JEMeyer/ai-maestro/internal/domain"
	"github.com/JEMeyer/ai-maestro/internal/mq"
	"github.com/JEMeyer/ai-maestro/internal/storage"
	"github.com/JEMeyer/ai-maestro/internal/storage/inmemory"
)

const testTopic = "deployment.events"

// MockEventRepository is a mock implementation of storage.EventRepository
type MockEventRepository struct {
	StoreFunc func(ctx context.Context, event *domain.DeploymentEvent) error
}

func (m *MockEventRepository) Store(ctx context.Context, event *domain.DeploymentEvent) error {
	if m.StoreFunc != nil {
		return m.StoreFunc(ctx, event)
	}
	return nil
}

func (m *MockEventRepository) ListByDeployment(ctx context.Context, deploymentID uint, filter storage.EventFilter) ([]*domain.DeploymentEvent, error) {
	return nil, nil
}

func (m *MockEventRepository) Count(ctx context.Context) (int64, error) {
	return 0, nil
}

func startQueue(t *testing.T) *mq.InMemoryQueue {
	t.Helper()
	q := mq.NewInMemoryQueue(mq.DefaultInMemoryQueueConfig(), nil)
	require.NoError(t, q.Start(context.Background()))
	t.Cleanup(func() { _ = q.Close() })
	return q
}

func TestPublisherToRecorder(t *testing.T) {
	q := startQueue(t)
	repo := inmemory.NewEventRepository()
	rec := NewRecorder(q, repo, testTopic, 2, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- rec.Start(ctx) }()

	// wait for the subscription
	require.Eventually(t, func() bool { return q.Stats().ActiveSubscribers == 1 }, time.Second, 10*time.Millisecond)

	pub := NewPublisher(q, testTopic, nil)
	pub.Emit(context.Background(), domain.DeploymentEvent{DeploymentID: 5, Type: domain.EventCreated, Addresses: []string{"gpu-server-1:8001"}})
	pub.Emit(context.Background(), domain.DeploymentEvent{DeploymentID: 5, Type: domain.EventDeleted})

	require.Eventually(t, func() bool { return rec.Stats().Stored == 2 }, 2*time.Second, 10*time.Millisecond)

	events, err := repo.ListByDeployment(context.Background(), 5, storage.EventFilter{})
	require.NoError(t, err)
	require.Len(t, events, 2)
	for _, e := range events {
		assert.NotEmpty(t, e.ID)
		assert.False(t, e.Timestamp.IsZero())
	}

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestRecorder_DropsMalformedAndInvalid(t *testing.T) {
	rec := NewRecorder(startQueue(t), &MockEventRepository{}, testTopic, 1, nil)

	bad := &mq.Message{ID: "1", Topic: testTopic, Payload: []byte("{not json")}
	assert.NoError(t, rec.handleMessage(context.Background(), bad))

	invalid, err := mq.NewMessage(testTopic, domain.DeploymentEvent{DeploymentID: 1})
	require.NoError(t, err)
	assert.NoError(t, rec.handleMessage(context.Background(), invalid))

	assert.Equal(t, int64(2), rec.Stats().Rejected)
	assert.Equal(t, int64(0), rec.Stats().Stored)
}

func TestRecorder_StoreFailureIsReturned(t *testing.T) {
	repo := &MockEventRepository{StoreFunc: func(ctx context.Context, event *domain.DeploymentEvent) error {
		return domain.ErrDatabaseError
	}}
	rec := NewRecorder(startQueue(t), repo, testTopic, 1, nil)

	msg, err := mq.NewMessage(testTopic, domain.DeploymentEvent{DeploymentID: 1, Type: domain.EventFailed, Timestamp: time.Now()})
	require.NoError(t, err)

	err = rec.handleMessage(context.Background(), msg)
	assert.ErrorIs(t, err, domain.ErrDatabaseError)
	assert.Equal(t, int64(1), rec.Stats().Failed)
}

// failingQueue rejects every publish
type failingQueue struct {
	mq.MessageQueue
}

func (failingQueue) Publish(ctx context.Context, msg *mq.Message) error {
	return errors.New("queue is closed")
}

func TestPublisher_PublishErrorsAreSwallowed(t *testing.T) {
	pub := NewPublisher(failingQueue{}, testTopic, nil)
	assert.NotPanics(t, func() {
		pub.Emit(context.Background(), domain.DeploymentEvent{DeploymentID: 1, Type: domain.EventOrphaned})
	})
	Discard{}.Emit(context.Background(), domain.DeploymentEvent{})
}

func TestRecorder_SubscribeThenRun(t *testing.T) {
	q := startQueue(t)
	repo := inmemory.NewEventRepository()
	rec := NewRecorder(q, repo, testTopic, 1, nil)

	require.NoError(t, rec.Subscribe(context.Background()))
	assert.Equal(t, 1, q.Stats().ActiveSubscribers)

	// events published before Run starts are still recorded
	NewPublisher(q, testTopic, nil).Emit(context.Background(), domain.DeploymentEvent{DeploymentID: 9, Type: domain.EventReconciled})
	require.Eventually(t, func() bool { return rec.Stats().Stored == 1 }, 2*time.Second, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, rec.Run(ctx), context.Canceled)
	assert.Equal(t, 0, q.Stats().ActiveSubscribers)
}
