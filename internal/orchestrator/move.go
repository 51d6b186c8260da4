package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/JEMeyer/ai-maestro/internal/allocator"
	"github.com/JEMeyer/ai-maestro/internal/domain"
	"github.com/JEMeyer/ai-maestro/internal/lock"
	"github.com/JEMeyer/ai-maestro/internal/storage"
)

// MoveDeployment replaces a deployment's workers with one worker on each of
// the target GPUs. The router is given the union of old and new workers
// before any old worker stops. A failure before that point undoes the new
// workers; a failure after it keeps them and routes to whatever still runs.
func (o *Orchestrator) MoveDeployment(ctx context.Context, id uint, targetGPUIDs []uint) error {
	if err := validateTargets(targetGPUIDs); err != nil {
		return domain.NewOperationError(OpMove, err)
	}

	done, err := o.guard(ctx, OpMove, lock.DeploymentKey(id))
	if err != nil {
		return err
	}
	return done(o.move(ctx, id, targetGPUIDs))
}

func validateTargets(ids []uint) error {
	if len(ids) == 0 {
		return fmt.Errorf("%w: at least one target gpu is required", domain.ErrInvalidInput)
	}
	seen := make(map[uint]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			return fmt.Errorf("%w: gpu %d requested twice", domain.ErrInvalidInput, id)
		}
		seen[id] = true
	}
	return nil
}

func (o *Orchestrator) move(ctx context.Context, id uint, targetGPUIDs []uint) error {
	s := newSaga(o.logger)

	var (
		reservation *allocator.Reservation
		oldWorkers  []*domain.Worker
		newWorkers  []*domain.Worker
	)
	defer func() { reservation.Release() }()

	err := o.db.WithinTx(ctx, func(ctx context.Context, tx storage.Store) error {
		d, err := tx.Deployments().GetByID(ctx, id)
		if err != nil {
			return err
		}
		if !d.Status.CanTransitionTo(domain.DeploymentRunning) {
			return fmt.Errorf("%w: cannot move a %s deployment", domain.ErrInvalidTransition, d.Status)
		}

		// captured before the new rows exist
		oldWorkers, err = runningWorkers(ctx, tx, id)
		if err != nil {
			return err
		}

		// worker container names are per (deployment, gpu)
		for _, w := range oldWorkers {
			if slices.Contains(targetGPUIDs, w.GPUID) {
				return fmt.Errorf("%w: deployment %d already runs on gpu %d", domain.ErrInvalidInput, id, w.GPUID)
			}
		}

		reservation, err = o.allocator.ReserveByIDs(ctx, tx.GPUs(), targetGPUIDs)
		if errors.Is(err, domain.ErrPartialAllocation) {
			return fmt.Errorf("%w: %w", domain.ErrGPUNotFound, err)
		}
		if err != nil {
			return err
		}

		newWorkers, err = o.launchWorkers(ctx, tx, s, id, reservation.GPUs)
		if err != nil {
			return err
		}
		if err := tx.Workers().CreateBatch(ctx, newWorkers); err != nil {
			return err
		}

		// old and new together, so traffic always has somewhere to go
		s.add(o.routerStep())
		union, err := o.pushRunning(ctx, tx)
		if err != nil {
			return err
		}
		o.logger.Debug("Pushed union worker set", "deployment_id", id, "workers", len(union))

		// from here on a failure keeps the new workers instead of undoing them
		s.dropAll()
		stopped := newWorkerSet()
		s.add(o.survivorStep(id, newWorkers, oldWorkers, stopped))

		if err := o.stopWorkers(ctx, oldWorkers, stopped); err != nil {
			return err
		}
		if err := tx.Workers().UpdateStatus(ctx, domain.WorkerIDs(oldWorkers), domain.WorkerStopped); err != nil {
			return err
		}

		if _, err := o.pushRunning(ctx, tx); err != nil {
			return err
		}

		return tx.Deployments().Update(ctx, id, domain.StatusUpdate(domain.DeploymentRunning))
	})
	if err != nil {
		o.abort(ctx, OpMove, id, s, err)
		return err
	}

	for _, w := range oldWorkers {
		o.ports.Release(w.Port)
	}

	o.logger.Info("Deployment moved",
		"deployment_id", id,
		"target_gpus", targetGPUIDs,
		"stopped_workers", len(oldWorkers),
		"started_workers", len(newWorkers))
	o.emit(ctx, domain.DeploymentEvent{
		DeploymentID: id,
		Type:         domain.EventMoved,
		Message:      fmt.Sprintf("moved to gpus %v", targetGPUIDs),
		Addresses:    workerAddresses(newWorkers),
	})
	return nil
}

// runningWorkers returns the running workers of one deployment
func runningWorkers(ctx context.Context, tx storage.Store, deploymentID uint) ([]*domain.Worker, error) {
	all, err := tx.Workers().ListByDeployment(ctx, deploymentID)
	if err != nil {
		return nil, err
	}
	running := make([]*domain.Worker, 0, len(all))
	for _, w := range all {
		if w.Status == domain.WorkerRunning {
			running = append(running, w)
		}
	}
	return running, nil
}
