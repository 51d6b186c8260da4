package inmemory

import (
	"context"
	"sort"
	"sync"

	"github.com/JEMeyer/ai-maestro/internal/domain"
	"github.com/JEMeyer/ai-maestro/internal/storage"
)

// EventRepository is an in-memory implementation of the deployment event journal
// Uses Go maps with mutex protection for thread-safety.
type EventRepository struct {
	mu   sync.RWMutex
	data map[uint][]*domain.DeploymentEvent // key: deployment id
}

// NewEventRepository creates a new in-memory event repository
func NewEventRepository() *EventRepository {
	return &EventRepository{
		data: make(map[uint][]*domain.DeploymentEvent),
	}
}

// Store persists an event
// Thread-safe for concurrent writes
func (r *EventRepository) Store(_ context.Context, event *domain.DeploymentEvent) error {
	if event == nil {
		return domain.ErrInvalidInput
	}
	if err := event.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *event
	r.data[event.DeploymentID] = append(r.data[event.DeploymentID], &cp)
	return nil
}

// ListByDeployment returns the events of one deployment, oldest first
func (r *EventRepository) ListByDeployment(_ context.Context, deploymentID uint, filter storage.EventFilter) ([]*domain.DeploymentEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	events := r.data[deploymentID]
	filtered := make([]*domain.DeploymentEvent, 0, len(events))
	for _, e := range events {
		if filter.Since != nil && e.Timestamp.Before(*filter.Since) {
			continue
		}
		cp := *e
		filtered = append(filtered, &cp)
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].Timestamp.Before(filtered[j].Timestamp)
	})

	if filter.Limit > 0 && len(filtered) > filter.Limit {
		filtered = filtered[len(filtered)-filter.Limit:]
	}
	return filtered, nil
}

// Count returns the total number of events stored
func (r *EventRepository) Count(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var count int64
	for _, events := range r.data {
		count += int64(len(events))
	}
	return count, nil
}

// Clear removes all events
// Useful for testing
func (r *EventRepository) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.data = make(map[uint][]*domain.DeploymentEvent)
}
