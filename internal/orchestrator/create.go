package orchestrator

import (
	"context"
	"errors"

	"github.com/JEMeyer/ai-maestro/internal/allocator"
	"github.com/JEMeyer/ai-maestro/internal/domain"
	"github.com/JEMeyer/ai-maestro/internal/lock"
	"github.com/JEMeyer/ai-maestro/internal/storage"
)

// CreateDeployment allocates GPUs for a new deployment, launches one worker
// per GPU and publishes the new worker set to the router.
func (o *Orchestrator) CreateDeployment(ctx context.Context, req CreateDeploymentRequest) (uint, error) {
	if err := req.Validate(); err != nil {
		return 0, domain.NewOperationError(OpCreate, err)
	}

	done, err := o.guard(ctx, OpCreate, lock.NameKey(req.Name))
	if err != nil {
		return 0, err
	}

	id, err := o.create(ctx, req)
	return id, done(err)
}

func (o *Orchestrator) create(ctx context.Context, req CreateDeploymentRequest) (uint, error) {
	s := newSaga(o.logger)

	var (
		id          uint
		reservation *allocator.Reservation
		workers     []*domain.Worker
		addrs       []domain.WorkerAddress
	)
	// the reservation covers the new workers until their rows are committed
	defer func() { reservation.Release() }()

	err := o.db.WithinTx(ctx, func(ctx context.Context, tx storage.Store) error {
		var err error
		id, err = tx.Deployments().Create(ctx, &domain.Deployment{
			Name:    req.Name,
			ModelID: req.ModelID,
			Status:  domain.DeploymentCreating,
		})
		if err != nil {
			return err
		}

		reservation, err = o.allocator.Reserve(ctx, tx.GPUs(), allocator.Constraints{
			GPUType:          req.GPUType,
			MaxWorkersPerGPU: req.WorkersPerGPU,
		})
		if err != nil {
			return err
		}

		workers, err = o.launchWorkers(ctx, tx, s, id, reservation.GPUs)
		if err != nil {
			return err
		}

		if err := tx.Workers().CreateBatch(ctx, workers); err != nil {
			return err
		}

		s.add(o.routerStep())
		if addrs, err = o.pushRunning(ctx, tx); err != nil {
			return err
		}

		return tx.Deployments().Update(ctx, id, domain.StatusUpdate(domain.DeploymentRunning))
	})
	if err != nil {
		if errors.Is(err, domain.ErrNoCapacity) {
			o.logger.Warn("No GPU capacity for deployment", "name", req.Name, "gpu_type", req.GPUType)
		}
		// the deployment row was rolled back with the transaction
		o.abort(ctx, OpCreate, 0, s, err)
		return 0, err
	}

	o.logger.Info("Deployment created",
		"deployment_id", id,
		"name", req.Name,
		"model_id", req.ModelID,
		"workers", len(workers))
	o.emit(ctx, domain.DeploymentEvent{
		DeploymentID: id,
		Type:         domain.EventCreated,
		Message:      req.Name,
		Addresses:    workerAddresses(workers),
	})
	o.logger.Debug("Router worker set", "addresses", domain.AddressStrings(addrs))
	return id, nil
}

func workerAddresses(workers []*domain.Worker) []string {
	out := make([]string, 0, len(workers))
	for _, w := range workers {
		out = append(out, w.Address())
	}
	return out
}
