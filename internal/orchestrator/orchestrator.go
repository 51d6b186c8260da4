// Package orchestrator runs the deployment workflows: it owns the transaction
// boundary and sequences GPU allocation, port assignment, worker containers
// and router updates for create, move and delete.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/JEMeyer/ai-maestro/internal/allocator"
	"github.com/JEMeyer/ai-maestro/internal/domain"
	"github.com/JEMeyer/ai-maestro/internal/journal"
	"github.com/JEMeyer/ai-maestro/internal/lock"
	"github.com/JEMeyer/ai-maestro/internal/metrics"
	"github.com/JEMeyer/ai-maestro/internal/runtime"
	"github.com/JEMeyer/ai-maestro/internal/storage"
)

// Operation names used in errors, logs and metrics
const (
	OpCreate    = "create deployment"
	OpMove      = "move deployment"
	OpDelete    = "delete deployment"
	OpReconcile = "reconcile"
)

// PortPool hands out worker ports
type PortPool interface {
	Next() (int, error)
	Release(port int)
	MarkInUse(port int) error
}

// WorkerFleet starts and stops worker containers
type WorkerFleet interface {
	Launch(ctx context.Context, deploymentID uint, alloc domain.GPUAllocation) (*domain.Worker, error)
	Stop(ctx context.Context, w *domain.Worker) error
	ListManaged(ctx context.Context, server string) ([]runtime.ContainerInfo, error)
	Servers() []string
}

// RouterSync pushes the complete running address set to the router
type RouterSync interface {
	PushWorkerSet(ctx context.Context, addrs []domain.WorkerAddress) error
}

// Dependencies are the collaborators an Orchestrator drives
type Dependencies struct {
	DB        storage.Database
	Allocator *allocator.Allocator
	Ports     PortPool
	Fleet     WorkerFleet
	Router    RouterSync
	Locker    lock.Locker
	Events    journal.Emitter
	Metrics   *metrics.OperationMetrics
}

// Options tune orchestrator behavior
type Options struct {
	// CompensateOnFailure stops containers and restores the router when an
	// operation fails after side effects. When false they are only logged
	// and journaled as orphans.
	CompensateOnFailure bool

	// LaunchConcurrency bounds concurrent container launches per operation
	LaunchConcurrency int
}

// DefaultOptions returns the default options
func DefaultOptions() Options {
	return Options{
		CompensateOnFailure: true,
		LaunchConcurrency:   4,
	}
}

// Orchestrator is the deployment state machine
type Orchestrator struct {
	db        storage.Database
	allocator *allocator.Allocator
	ports     PortPool
	fleet     WorkerFleet
	router    RouterSync
	locker    lock.Locker
	events    journal.Emitter
	metrics   *metrics.OperationMetrics
	opts      Options
	logger    *slog.Logger
}

// New creates an orchestrator. Allocator, Locker and Events default to an
// in-process allocator, an in-memory locker and a discarding emitter.
func New(deps Dependencies, opts Options, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	if deps.Allocator == nil {
		deps.Allocator = allocator.New(logger)
	}
	if deps.Locker == nil {
		deps.Locker = lock.NewMemoryLocker(logger)
	}
	if deps.Events == nil {
		deps.Events = journal.Discard{}
	}
	if opts.LaunchConcurrency <= 0 {
		opts.LaunchConcurrency = 1
	}

	return &Orchestrator{
		db:        deps.DB,
		allocator: deps.Allocator,
		ports:     deps.Ports,
		fleet:     deps.Fleet,
		router:    deps.Router,
		locker:    deps.Locker,
		events:    deps.Events,
		metrics:   deps.Metrics,
		opts:      opts,
		logger:    logger.With("component", "orchestrator"),
	}
}

// CreateDeploymentRequest describes a new deployment
type CreateDeploymentRequest struct {
	Name    string
	ModelID string

	// GPUType restricts placement to one hardware class; empty means any
	GPUType domain.GPUType

	// WorkersPerGPU is the worker density the deployment needs; zero means 1
	WorkersPerGPU int
}

// Validate checks the request fields
func (r CreateDeploymentRequest) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	}
	if r.ModelID == "" {
		return fmt.Errorf("%w: model id is required", domain.ErrInvalidInput)
	}
	if r.GPUType != "" && !r.GPUType.Valid() {
		return fmt.Errorf("%w: unknown gpu type %q", domain.ErrInvalidInput, r.GPUType)
	}
	if r.WorkersPerGPU < 0 {
		return fmt.Errorf("%w: workers per gpu must not be negative", domain.ErrInvalidInput)
	}
	return nil
}

// DeploymentDetail is a deployment with all of its workers
type DeploymentDetail struct {
	Deployment *domain.Deployment
	Workers    []*domain.Worker
}

// GetDeployment returns a deployment and its workers
func (o *Orchestrator) GetDeployment(ctx context.Context, id uint) (*DeploymentDetail, error) {
	d, err := o.db.Deployments().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	workers, err := o.db.Workers().ListByDeployment(ctx, id)
	if err != nil {
		return nil, err
	}
	return &DeploymentDetail{Deployment: d, Workers: workers}, nil
}

// ListDeployments returns every deployment
func (o *Orchestrator) ListDeployments(ctx context.Context) ([]*domain.Deployment, error) {
	return o.db.Deployments().List(ctx)
}

// guard takes the exclusion token for key and returns the operation's
// completion hook, which records metrics and wraps the error
func (o *Orchestrator) guard(ctx context.Context, op, key string) (func(err error) error, error) {
	start := time.Now()

	release, err := o.locker.TryAcquire(ctx, key)
	if err != nil {
		opErr := domain.NewOperationError(op, err)
		o.metrics.Observe(op, time.Since(start), opErr)
		return nil, opErr
	}

	return func(err error) error {
		release()
		var result error
		if err != nil {
			result = domain.NewOperationError(op, err)
		}
		o.metrics.Observe(op, time.Since(start), result)
		return result
	}, nil
}

// emit publishes a lifecycle event
func (o *Orchestrator) emit(ctx context.Context, event domain.DeploymentEvent) {
	o.events.Emit(ctx, event)
}

// serverNames resolves the server name of every GPU's host
func serverNames(ctx context.Context, tx storage.Store, gpus []*domain.GPU) (map[uint]string, error) {
	names := make(map[uint]string)
	for _, g := range gpus {
		if _, ok := names[g.ServerID]; ok {
			continue
		}
		s, err := tx.Servers().GetByID(ctx, g.ServerID)
		if err != nil {
			return nil, fmt.Errorf("server %d of gpu %d: %w", g.ServerID, g.ID, err)
		}
		names[g.ServerID] = s.Name
	}
	return names, nil
}
