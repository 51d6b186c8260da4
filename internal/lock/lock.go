// Package lock provides per-deployment mutual exclusion so two operations
// never drive the same deployment at once.
package lock

import (
	"context"
	"fmt"
	"strconv"
)

// ReleaseFunc releases a held lock. Calling it more than once is a no-op.
type ReleaseFunc func()

// Locker grants exclusive, non-blocking ownership of a key.
// TryAcquire fails with domain.ErrDeploymentBusy while another owner holds it.
type Locker interface {
	TryAcquire(ctx context.Context, key string) (ReleaseFunc, error)
	Close() error
}

// DeploymentKey is the lock key of an existing deployment
func DeploymentKey(id uint) string {
	return "deployment:" + strconv.FormatUint(uint64(id), 10)
}

// NameKey is the lock key of a deployment being created under name
func NameKey(name string) string {
	return fmt.Sprintf("deployment-name:%s", name)
}
