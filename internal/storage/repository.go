package storage

import (
	"context"
	"time"

	"github.com/JEMeyer/ai-maestro/internal/domain"
)

// DeploymentRepository defines the interface for deployment storage
type DeploymentRepository interface {
	// Create inserts a deployment and returns its generated id
	Create(ctx context.Context, d *domain.Deployment) (uint, error)

	// GetByID retrieves a deployment, failing with domain.ErrNotFound when absent
	GetByID(ctx context.Context, id uint) (*domain.Deployment, error)

	// List returns all deployments ordered by id
	List(ctx context.Context) ([]*domain.Deployment, error)

	// Update applies the set fields of u and bumps UpdatedAt
	Update(ctx context.Context, id uint, u domain.DeploymentUpdate) error
}

// WorkerRepository defines the interface for worker storage
type WorkerRepository interface {
	// CreateBatch inserts all workers in one statement and fills in their ids
	CreateBatch(ctx context.Context, workers []*domain.Worker) error

	// ListByDeployment returns every worker of a deployment regardless of status
	ListByDeployment(ctx context.Context, deploymentID uint) ([]*domain.Worker, error)

	// ListRunning returns all running workers across all deployments
	ListRunning(ctx context.Context) ([]*domain.Worker, error)

	// RunningAddresses returns the distinct (server name, port) pairs of running workers
	RunningAddresses(ctx context.Context) ([]domain.WorkerAddress, error)

	// UpdateStatus sets the status of the given workers
	UpdateStatus(ctx context.Context, ids []uint, status domain.WorkerStatus) error
}

// GPURepository defines the interface for GPU storage.
// Reads fill in GPU.CurrentWorkers from the running workers.
type GPURepository interface {
	Create(ctx context.Context, gpu *domain.GPU) (uint, error)

	// ListWithLoad returns every GPU with its running worker count
	ListWithLoad(ctx context.Context) ([]*domain.GPU, error)

	// GetByIDs returns the GPUs that exist among ids; missing ids are skipped
	GetByIDs(ctx context.Context, ids []uint) ([]*domain.GPU, error)
}

// ServerRepository defines the interface for GPU server storage
type ServerRepository interface {
	Create(ctx context.Context, s *domain.GPUServer) (uint, error)
	GetByID(ctx context.Context, id uint) (*domain.GPUServer, error)
	List(ctx context.Context) ([]*domain.GPUServer, error)
}

// Store groups the repositories that share one transaction
type Store interface {
	Deployments() DeploymentRepository
	Workers() WorkerRepository
	GPUs() GPURepository
	Servers() ServerRepository
}

// Transactor runs fn inside one transaction. The Store passed to fn is bound
// to that transaction; returning an error from fn rolls it back.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}

// Database is a Store that can also open transactions
type Database interface {
	Store
	Transactor
	Close() error
}

// EventFilter narrows an event listing
type EventFilter struct {
	Since *time.Time
	Limit int
}

// EventRepository defines the interface for the deployment event journal
type EventRepository interface {
	// Store persists an event
	Store(ctx context.Context, event *domain.DeploymentEvent) error

	// ListByDeployment returns events of one deployment ordered by timestamp
	ListByDeployment(ctx context.Context, deploymentID uint, filter EventFilter) ([]*domain.DeploymentEvent, error)

	// Count returns the total number of events stored
	Count(ctx context.Context) (int64, error)
}
