package inmemory

import (
	"context"
	"fmt"
	"sort"

	"github.com/JEMeyer/ai-maestro/internal/domain"
)

// GPURepository is the in-memory GPU table.
// CurrentWorkers is computed on every read and never stored.
type GPURepository struct {
	db *Database
}

// Create inserts a GPU; its server must already exist
func (r *GPURepository) Create(ctx context.Context, gpu *domain.GPU) (uint, error) {
	if gpu == nil || !gpu.Type.Valid() || gpu.MaxWorkers <= 0 || gpu.DeviceID < 0 {
		return 0, domain.ErrInvalidInput
	}

	var id uint
	err := r.db.write(ctx, func(st *state) error {
		if _, ok := st.servers[gpu.ServerID]; !ok {
			return fmt.Errorf("server %d: %w", gpu.ServerID, domain.ErrNotFound)
		}
		id = st.seq.gpu
		st.seq.gpu++

		row := *gpu
		row.ID = id
		row.CurrentWorkers = 0
		st.gpus[id] = &row
		return nil
	})
	return id, err
}

// ListWithLoad returns every GPU ordered by id with its running worker count
func (r *GPURepository) ListWithLoad(ctx context.Context) ([]*domain.GPU, error) {
	var out []*domain.GPU
	r.db.read(ctx, func(st *state) {
		out = make([]*domain.GPU, 0, len(st.gpus))
		for _, g := range st.gpus {
			out = append(out, withLoad(st, g))
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// GetByIDs returns the existing GPUs among ids, in the order requested.
// Duplicate ids are returned once.
func (r *GPURepository) GetByIDs(ctx context.Context, ids []uint) ([]*domain.GPU, error) {
	var out []*domain.GPU
	r.db.read(ctx, func(st *state) {
		out = make([]*domain.GPU, 0, len(ids))
		seen := make(map[uint]bool, len(ids))
		for _, id := range ids {
			g, ok := st.gpus[id]
			if !ok || seen[id] {
				continue
			}
			seen[id] = true
			out = append(out, withLoad(st, g))
		}
	})
	return out, nil
}

func withLoad(st *state, g *domain.GPU) *domain.GPU {
	cp := *g
	cp.CurrentWorkers = st.runningCount(g.ID)
	return &cp
}
