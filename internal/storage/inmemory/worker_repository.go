package inmemory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/JEMeyer/ai-maestro/internal/domain"
)

// WorkerRepository is the in-memory worker table
type WorkerRepository struct {
	db *Database
}

// CreateBatch inserts workers atomically and fills in their ids.
// A running worker may not reuse the (server, port) of another running worker.
func (r *WorkerRepository) CreateBatch(ctx context.Context, workers []*domain.Worker) error {
	if len(workers) == 0 {
		return nil
	}
	for _, w := range workers {
		if w == nil || w.ServerName == "" || w.Port <= 0 {
			return domain.ErrInvalidInput
		}
	}

	return r.db.write(ctx, func(st *state) error {
		taken := make(map[domain.WorkerAddress]bool)
		for _, w := range st.workers {
			if w.Status == domain.WorkerRunning {
				taken[domain.WorkerAddress{ServerName: w.ServerName, Port: w.Port}] = true
			}
		}
		for _, w := range workers {
			if _, ok := st.deployments[w.DeploymentID]; !ok {
				return fmt.Errorf("deployment %d: %w", w.DeploymentID, domain.ErrNotFound)
			}
			if w.Status != domain.WorkerRunning {
				continue
			}
			addr := domain.WorkerAddress{ServerName: w.ServerName, Port: w.Port}
			if taken[addr] {
				return fmt.Errorf("%s: %w", addr, domain.ErrAddressInUse)
			}
			taken[addr] = true
		}

		now := time.Now().UTC()
		for _, w := range workers {
			w.ID = st.seq.worker
			st.seq.worker++
			if w.CreatedAt.IsZero() {
				w.CreatedAt = now
			}
			row := *w
			st.workers[row.ID] = &row
		}
		return nil
	})
}

// ListByDeployment returns every worker of a deployment ordered by id
func (r *WorkerRepository) ListByDeployment(ctx context.Context, deploymentID uint) ([]*domain.Worker, error) {
	return r.list(ctx, func(w *domain.Worker) bool { return w.DeploymentID == deploymentID }), nil
}

// ListRunning returns all running workers ordered by id
func (r *WorkerRepository) ListRunning(ctx context.Context) ([]*domain.Worker, error) {
	return r.list(ctx, func(w *domain.Worker) bool { return w.Status == domain.WorkerRunning }), nil
}

// RunningAddresses returns the distinct addresses of running workers
func (r *WorkerRepository) RunningAddresses(ctx context.Context) ([]domain.WorkerAddress, error) {
	running := r.list(ctx, func(w *domain.Worker) bool { return w.Status == domain.WorkerRunning })

	seen := make(map[domain.WorkerAddress]bool, len(running))
	addrs := make([]domain.WorkerAddress, 0, len(running))
	for _, w := range running {
		addr := domain.WorkerAddress{ServerName: w.ServerName, Port: w.Port}
		if seen[addr] {
			continue
		}
		seen[addr] = true
		addrs = append(addrs, addr)
	}
	return addrs, nil
}

// UpdateStatus sets the status of the given workers.
// Unknown ids fail the whole update.
func (r *WorkerRepository) UpdateStatus(ctx context.Context, ids []uint, status domain.WorkerStatus) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.write(ctx, func(st *state) error {
		for _, id := range ids {
			if _, ok := st.workers[id]; !ok {
				return fmt.Errorf("worker %d: %w", id, domain.ErrNotFound)
			}
		}
		for _, id := range ids {
			st.workers[id].Status = status
		}
		return nil
	})
}

func (r *WorkerRepository) list(ctx context.Context, match func(w *domain.Worker) bool) []*domain.Worker {
	var out []*domain.Worker
	r.db.read(ctx, func(st *state) {
		out = make([]*domain.Worker, 0)
		for _, w := range st.workers {
			if match(w) {
				cp := *w
				out = append(out, &cp)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
