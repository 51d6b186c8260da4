package lock

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	cmap "github.com/orcaman/concurrent-map/v2"

	"github.com/JEMeyer/ai-maestro/internal/domain"
)

// MemoryLocker holds locks in process memory
type MemoryLocker struct {
	held   cmap.ConcurrentMap[string, string]
	logger *slog.Logger
}

// NewMemoryLocker creates an in-process locker
func NewMemoryLocker(logger *slog.Logger) *MemoryLocker {
	if logger == nil {
		logger = slog.Default()
	}
	return &MemoryLocker{
		held:   cmap.New[string](),
		logger: logger.With("component", "memory_lock"),
	}
}

// TryAcquire takes key if it is free
func (l *MemoryLocker) TryAcquire(ctx context.Context, key string) (ReleaseFunc, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	token := uuid.New().String()
	if !l.held.SetIfAbsent(key, token) {
		return nil, fmt.Errorf("%w: %s", domain.ErrDeploymentBusy, key)
	}
	l.logger.Debug("Lock acquired", "key", key)

	var once sync.Once
	return func() {
		once.Do(func() {
			l.held.RemoveCb(key, func(_ string, owner string, exists bool) bool {
				return exists && owner == token
			})
			l.logger.Debug("Lock released", "key", key)
		})
	}, nil
}

// Held reports whether key is currently locked
func (l *MemoryLocker) Held(key string) bool {
	return l.held.Has(key)
}

// Close is a no-op
func (l *MemoryLocker) Close() error {
	return nil
}
