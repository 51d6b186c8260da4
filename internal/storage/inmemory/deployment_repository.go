package inmemory

import (
	"context"
	"sort"
	"time"

	"github.com/JEMeyer/ai-maestro/internal/domain"
)

// DeploymentRepository is the in-memory deployment table
type DeploymentRepository struct {
	db *Database
}

// Create inserts a deployment and returns its generated id
func (r *DeploymentRepository) Create(ctx context.Context, d *domain.Deployment) (uint, error) {
	if d == nil || d.Name == "" || d.ModelID == "" {
		return 0, domain.ErrInvalidInput
	}
	if !d.Status.Valid() {
		return 0, domain.ErrInvalidInput
	}

	var id uint
	err := r.db.write(ctx, func(st *state) error {
		now := time.Now().UTC()
		id = st.seq.deployment
		st.seq.deployment++

		row := *d
		row.ID = id
		row.CreatedAt = now
		row.UpdatedAt = now
		st.deployments[id] = &row
		return nil
	})
	return id, err
}

// GetByID retrieves a deployment by id
func (r *DeploymentRepository) GetByID(ctx context.Context, id uint) (*domain.Deployment, error) {
	var (
		out *domain.Deployment
		err error
	)
	r.db.read(ctx, func(st *state) {
		d, ok := st.deployments[id]
		if !ok {
			err = domain.ErrNotFound
			return
		}
		cp := *d
		out = &cp
	})
	return out, err
}

// List returns all deployments ordered by id
func (r *DeploymentRepository) List(ctx context.Context) ([]*domain.Deployment, error) {
	var out []*domain.Deployment
	r.db.read(ctx, func(st *state) {
		out = make([]*domain.Deployment, 0, len(st.deployments))
		for _, d := range st.deployments {
			cp := *d
			out = append(out, &cp)
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Update applies the set fields of u
func (r *DeploymentRepository) Update(ctx context.Context, id uint, u domain.DeploymentUpdate) error {
	if u.Status != nil && !u.Status.Valid() {
		return domain.ErrInvalidInput
	}
	return r.db.write(ctx, func(st *state) error {
		d, ok := st.deployments[id]
		if !ok {
			return domain.ErrNotFound
		}
		if u.IsEmpty() {
			return nil
		}
		u.Apply(d)
		d.UpdatedAt = time.Now().UTC()
		return nil
	})
}
