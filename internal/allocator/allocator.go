// Package allocator picks GPUs for new workers.
//
// Selection is least-loaded first over GPUs whose running worker count is
// below their configured capacity. Load includes in-flight reservations held
// by operations that have picked a GPU but not committed their workers yet,
// so two concurrent operations cannot both claim the last slot on a GPU.
package allocator

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/JEMeyer/ai-maestro/internal/domain"
	"github.com/JEMeyer/ai-maestro/internal/storage"
)

// Constraints narrows the GPUs FindAvailable may return
type Constraints struct {
	// GPUType restricts the hardware class; empty means any
	GPUType domain.GPUType

	// MaxWorkersPerGPU is the worker density the deployment asked for. It is
	// logged with the selection but does not filter: eligibility is only the
	// GPU's own configured capacity.
	MaxWorkersPerGPU int

	// MinCount caps the result to this many GPUs; zero returns all candidates
	MinCount int
}

// Allocator selects GPUs and tracks reservations of in-flight operations
type Allocator struct {
	mu       sync.Mutex
	reserved map[uint]int
	logger   *slog.Logger
}

// New creates an allocator
func New(logger *slog.Logger) *Allocator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Allocator{
		reserved: make(map[uint]int),
		logger:   logger.With("component", "allocator"),
	}
}

// FindAvailable returns candidate GPUs ordered by ascending load.
// An empty result is not an error.
func (a *Allocator) FindAvailable(ctx context.Context, repo storage.GPURepository, c Constraints) ([]*domain.GPU, error) {
	gpus, err := repo.ListWithLoad(ctx)
	if err != nil {
		return nil, fmt.Errorf("list gpus: %w", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	return a.selectLocked(gpus, c), nil
}

// FindByIDs returns the GPUs among ids that exist, without capacity filtering.
// Callers compare the result length with len(ids) to detect missing GPUs.
func (a *Allocator) FindByIDs(ctx context.Context, repo storage.GPURepository, ids []uint) ([]*domain.GPU, error) {
	gpus, err := repo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("get gpus: %w", err)
	}
	return gpus, nil
}

// Reserve selects GPUs like FindAvailable and reserves one worker slot on
// each in the same critical section. The caller must Release the reservation
// once its workers are committed or abandoned.
func (a *Allocator) Reserve(ctx context.Context, repo storage.GPURepository, c Constraints) (*Reservation, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	gpus, err := repo.ListWithLoad(ctx)
	if err != nil {
		return nil, fmt.Errorf("list gpus: %w", err)
	}

	selected := a.selectLocked(gpus, c)
	if len(selected) == 0 {
		a.logger.Debug("No GPU capacity", "gpu_type", c.GPUType, "workers_per_gpu", c.MaxWorkersPerGPU)
		return nil, domain.ErrNoCapacity
	}
	return a.reserveLocked(selected), nil
}

// ReserveByIDs reserves the exact GPUs requested. It fails with
// domain.ErrPartialAllocation when any id does not resolve.
func (a *Allocator) ReserveByIDs(ctx context.Context, repo storage.GPURepository, ids []uint) (*Reservation, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	gpus, err := a.FindByIDs(ctx, repo, ids)
	if err != nil {
		return nil, err
	}
	if len(gpus) < len(ids) {
		return nil, fmt.Errorf("%w: requested %v, found %d", domain.ErrPartialAllocation, ids, len(gpus))
	}
	return a.reserveLocked(gpus), nil
}

// Reserved returns the number of in-flight reservations on a GPU
func (a *Allocator) Reserved(gpuID uint) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.reserved[gpuID]
}

func (a *Allocator) selectLocked(gpus []*domain.GPU, c Constraints) []*domain.GPU {
	candidates := make([]*domain.GPU, 0, len(gpus))
	for _, g := range gpus {
		if c.GPUType != "" && g.Type != c.GPUType {
			continue
		}
		cp := *g
		cp.CurrentWorkers += a.reserved[g.ID]
		if !cp.HasCapacity() {
			continue
		}
		candidates = append(candidates, &cp)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].CurrentWorkers != candidates[j].CurrentWorkers {
			return candidates[i].CurrentWorkers < candidates[j].CurrentWorkers
		}
		return candidates[i].ID < candidates[j].ID
	})

	if c.MinCount > 0 && len(candidates) > c.MinCount {
		candidates = candidates[:c.MinCount]
	}
	return candidates
}

func (a *Allocator) reserveLocked(gpus []*domain.GPU) *Reservation {
	for _, g := range gpus {
		a.reserved[g.ID]++
	}
	a.logger.Debug("Reserved GPUs", "gpu_ids", gpuIDs(gpus))
	return &Reservation{GPUs: gpus, owner: a}
}

func (a *Allocator) release(gpus []*domain.GPU) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, g := range gpus {
		if a.reserved[g.ID] <= 1 {
			delete(a.reserved, g.ID)
			continue
		}
		a.reserved[g.ID]--
	}
	a.logger.Debug("Released GPU reservations", "gpu_ids", gpuIDs(gpus))
}

// Reservation holds one worker slot on each of its GPUs
type Reservation struct {
	GPUs []*domain.GPU

	owner *Allocator
	once  sync.Once
}

// Release returns the slots. Calling it more than once is a no-op.
func (r *Reservation) Release() {
	if r == nil {
		return
	}
	r.once.Do(func() {
		r.owner.release(r.GPUs)
	})
}

func gpuIDs(gpus []*domain.GPU) []uint {
	ids := make([]uint, 0, len(gpus))
	for _, g := range gpus {
		ids = append(ids, g.ID)
	}
	return ids
}
