package inmemory

import (
	"context"
	"sort"

	"github.com/JEMeyer/ai-maestro/internal/domain"
)

// ServerRepository is the in-memory GPU server table
type ServerRepository struct {
	db *Database
}

// Create inserts a server. An empty name defaults to gpu-server-<id>.
func (r *ServerRepository) Create(ctx context.Context, s *domain.GPUServer) (uint, error) {
	if s == nil || s.GPUCount < 0 {
		return 0, domain.ErrInvalidInput
	}

	var id uint
	err := r.db.write(ctx, func(st *state) error {
		id = st.seq.server
		st.seq.server++

		row := *s
		row.ID = id
		if row.Name == "" {
			row.Name = domain.ServerNameFor(id)
		}
		st.servers[id] = &row
		return nil
	})
	return id, err
}

// GetByID retrieves a server by id
func (r *ServerRepository) GetByID(ctx context.Context, id uint) (*domain.GPUServer, error) {
	var (
		out *domain.GPUServer
		err error
	)
	r.db.read(ctx, func(st *state) {
		s, ok := st.servers[id]
		if !ok {
			err = domain.ErrNotFound
			return
		}
		cp := *s
		out = &cp
	})
	return out, err
}

// List returns all servers ordered by id
func (r *ServerRepository) List(ctx context.Context) ([]*domain.GPUServer, error) {
	var out []*domain.GPUServer
	r.db.read(ctx, func(st *state) {
		out = make([]*domain.GPUServer, 0, len(st.servers))
		for _, s := range st.servers {
			cp := *s
			out = append(out, &cp)
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
