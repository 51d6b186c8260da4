package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/JEMeyer/ai-maestro/internal/domain"
	"github.com/JEMeyer/ai-maestro/internal/storage"
	"gorm.io/gorm"
)

// DeploymentRepository implements storage.DeploymentRepository
type DeploymentRepository struct {
	d *Database
}

// Create inserts a deployment and returns its generated id
func (r *DeploymentRepository) Create(ctx context.Context, dep *domain.Deployment) (uint, error) {
	if dep == nil || dep.Name == "" || dep.ModelID == "" || !dep.Status.Valid() {
		return 0, domain.ErrInvalidInput
	}
	m := &Deployment{Name: dep.Name, ModelID: dep.ModelID, Status: string(dep.Status)}
	if err := r.d.GetDBSession(ctx).Create(m).Error; err != nil {
		return 0, translate(err, "insert deployment")
	}
	return m.ID, nil
}

// GetByID retrieves a deployment by id
func (r *DeploymentRepository) GetByID(ctx context.Context, id uint) (*domain.Deployment, error) {
	var m Deployment
	if err := r.d.GetDBSession(ctx).First(&m, id).Error; err != nil {
		return nil, translate(err, fmt.Sprintf("deployment %d", id))
	}
	return deploymentToDomain(&m), nil
}

// List returns all deployments ordered by id
func (r *DeploymentRepository) List(ctx context.Context) ([]*domain.Deployment, error) {
	var rows []Deployment
	if err := r.d.GetDBSession(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, translate(err, "list deployments")
	}
	out := make([]*domain.Deployment, 0, len(rows))
	for i := range rows {
		out = append(out, deploymentToDomain(&rows[i]))
	}
	return out, nil
}

// Update applies the set fields of u in one conditional UPDATE
func (r *DeploymentRepository) Update(ctx context.Context, id uint, u domain.DeploymentUpdate) error {
	if u.Status != nil && !u.Status.Valid() {
		return domain.ErrInvalidInput
	}

	fields := map[string]interface{}{"updated_at": time.Now().UTC()}
	if u.Name != nil {
		fields["name"] = *u.Name
	}
	if u.ModelID != nil {
		fields["model_id"] = *u.ModelID
	}
	if u.Status != nil {
		fields["status"] = string(*u.Status)
	}

	res := r.d.GetDBSession(ctx).Model(&Deployment{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return translate(res.Error, fmt.Sprintf("update deployment %d", id))
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("deployment %d: %w", id, domain.ErrNotFound)
	}
	return nil
}

// WorkerRepository implements storage.WorkerRepository
type WorkerRepository struct {
	d *Database
}

// CreateBatch inserts all workers in one statement
func (r *WorkerRepository) CreateBatch(ctx context.Context, workers []*domain.Worker) error {
	if len(workers) == 0 {
		return nil
	}
	rows := make([]*DeploymentWorker, 0, len(workers))
	for _, w := range workers {
		if w == nil || w.ServerName == "" || w.Port <= 0 {
			return domain.ErrInvalidInput
		}
		rows = append(rows, workerFromDomain(w))
	}

	if err := r.d.GetDBSession(ctx).Omit("Deployment").Create(&rows).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("insert workers: %w", domain.ErrAddressInUse)
		}
		return translate(err, "insert workers")
	}
	for i, row := range rows {
		workers[i].ID = row.ID
		workers[i].CreatedAt = row.CreatedAt
	}
	return nil
}

// ListByDeployment returns every worker of a deployment ordered by id
func (r *WorkerRepository) ListByDeployment(ctx context.Context, deploymentID uint) ([]*domain.Worker, error) {
	return r.find("list workers", r.d.GetDBSession(ctx).Where("deployment_id = ?", deploymentID))
}

// ListRunning returns all running workers ordered by id
func (r *WorkerRepository) ListRunning(ctx context.Context) ([]*domain.Worker, error) {
	return r.find("list running workers", r.d.GetDBSession(ctx).Where("status = ?", string(domain.WorkerRunning)))
}

// RunningAddresses returns the distinct (server_name, port) pairs of running workers
func (r *WorkerRepository) RunningAddresses(ctx context.Context) ([]domain.WorkerAddress, error) {
	var rows []struct {
		ServerName string
		Port       int
	}
	err := r.d.GetDBSession(ctx).
		Model(&DeploymentWorker{}).
		Distinct("server_name", "port").
		Where("status = ?", string(domain.WorkerRunning)).
		Order("server_name, port").
		Scan(&rows).Error
	if err != nil {
		return nil, translate(err, "running addresses")
	}

	addrs := make([]domain.WorkerAddress, 0, len(rows))
	for _, row := range rows {
		addrs = append(addrs, domain.WorkerAddress{ServerName: row.ServerName, Port: row.Port})
	}
	return addrs, nil
}

// UpdateStatus sets the status of the given workers
func (r *WorkerRepository) UpdateStatus(ctx context.Context, ids []uint, status domain.WorkerStatus) error {
	if len(ids) == 0 {
		return nil
	}
	res := r.d.GetDBSession(ctx).Model(&DeploymentWorker{}).Where("id IN ?", ids).Update("status", string(status))
	if res.Error != nil {
		return translate(res.Error, "update worker status")
	}
	if res.RowsAffected != int64(len(ids)) {
		return fmt.Errorf("updated %d of %d workers: %w", res.RowsAffected, len(ids), domain.ErrNotFound)
	}
	return nil
}

func (r *WorkerRepository) find(what string, q *gorm.DB) ([]*domain.Worker, error) {
	var rows []DeploymentWorker
	if err := q.Order("id").Find(&rows).Error; err != nil {
		return nil, translate(err, what)
	}
	out := make([]*domain.Worker, 0, len(rows))
	for i := range rows {
		out = append(out, workerToDomain(&rows[i]))
	}
	return out, nil
}

// GPURepository implements storage.GPURepository
type GPURepository struct {
	d *Database
}

// Create inserts a GPU
func (r *GPURepository) Create(ctx context.Context, gpu *domain.GPU) (uint, error) {
	if gpu == nil || !gpu.Type.Valid() || gpu.MaxWorkers <= 0 || gpu.DeviceID < 0 {
		return 0, domain.ErrInvalidInput
	}
	m := &GPU{
		ServerID:   gpu.ServerID,
		DeviceID:   gpu.DeviceID,
		Type:       string(gpu.Type),
		VRAMTotal:  gpu.VRAMTotal,
		MaxWorkers: gpu.MaxWorkers,
	}
	if err := r.d.GetDBSession(ctx).Omit("Server").Create(m).Error; err != nil {
		return 0, translate(err, "insert gpu")
	}
	return m.ID, nil
}

// loadQuery joins each GPU with the count of its running workers
func (r *GPURepository) loadQuery(ctx context.Context) *gorm.DB {
	return r.d.GetDBSession(ctx).
		Table("gpus AS g").
		Select("g.id, g.server_id, g.device_id, g.gpu_type, g.vram_total, g.max_workers, COUNT(w.id) AS current_workers").
		Joins("LEFT JOIN deployment_workers AS w ON w.gpu_id = g.id AND w.status = ?", string(domain.WorkerRunning)).
		Group("g.id")
}

// ListWithLoad returns every GPU with its running worker count
func (r *GPURepository) ListWithLoad(ctx context.Context) ([]*domain.GPU, error) {
	var rows []gpuLoadRow
	if err := r.loadQuery(ctx).Order("g.id").Scan(&rows).Error; err != nil {
		return nil, translate(err, "list gpus")
	}
	return loadRowsToDomain(rows), nil
}

// GetByIDs returns the existing GPUs among ids, in the order requested
func (r *GPURepository) GetByIDs(ctx context.Context, ids []uint) ([]*domain.GPU, error) {
	if len(ids) == 0 {
		return []*domain.GPU{}, nil
	}
	var rows []gpuLoadRow
	if err := r.loadQuery(ctx).Where("g.id IN ?", ids).Scan(&rows).Error; err != nil {
		return nil, translate(err, "get gpus")
	}

	byID := make(map[uint]*domain.GPU, len(rows))
	for _, g := range loadRowsToDomain(rows) {
		byID[g.ID] = g
	}
	out := make([]*domain.GPU, 0, len(rows))
	for _, id := range ids {
		if g, ok := byID[id]; ok {
			out = append(out, g)
			delete(byID, id)
		}
	}
	return out, nil
}

func loadRowsToDomain(rows []gpuLoadRow) []*domain.GPU {
	out := make([]*domain.GPU, 0, len(rows))
	for i := range rows {
		out = append(out, gpuLoadToDomain(&rows[i]))
	}
	return out
}

// ServerRepository implements storage.ServerRepository
type ServerRepository struct {
	d *Database
}

// Create inserts a server. An empty name defaults to gpu-server-<id>.
func (r *ServerRepository) Create(ctx context.Context, s *domain.GPUServer) (uint, error) {
	if s == nil || s.GPUCount < 0 {
		return 0, domain.ErrInvalidInput
	}

	var id uint
	err := r.d.WithinTx(ctx, func(ctx context.Context, _ storage.Store) error {
		m := &GPUServer{Name: s.Name, Host: s.Host, GPUCount: s.GPUCount}
		if m.Name == "" {
			// placeholder until the id is known
			m.Name = fmt.Sprintf("pending-%d", time.Now().UnixNano())
		}
		db := r.d.GetDBSession(ctx)
		if err := db.Create(m).Error; err != nil {
			return translate(err, "insert server")
		}
		if s.Name == "" {
			if err := db.Model(m).Update("name", domain.ServerNameFor(m.ID)).Error; err != nil {
				return translate(err, "name server")
			}
		}
		id = m.ID
		return nil
	})
	return id, err
}

// GetByID retrieves a server by id
func (r *ServerRepository) GetByID(ctx context.Context, id uint) (*domain.GPUServer, error) {
	var m GPUServer
	if err := r.d.GetDBSession(ctx).First(&m, id).Error; err != nil {
		return nil, translate(err, fmt.Sprintf("server %d", id))
	}
	return serverToDomain(&m), nil
}

// List returns all servers ordered by id
func (r *ServerRepository) List(ctx context.Context) ([]*domain.GPUServer, error) {
	var rows []GPUServer
	if err := r.d.GetDBSession(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, translate(err, "list servers")
	}
	out := make([]*domain.GPUServer, 0, len(rows))
	for i := range rows {
		out = append(out, serverToDomain(&rows[i]))
	}
	return out, nil
}
