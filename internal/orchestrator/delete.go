package orchestrator

import (
	"context"
	"fmt"

	"github.com/JEMeyer/ai-maestro/internal/domain"
	"github.com/JEMeyer/ai-maestro/internal/lock"
	"github.com/JEMeyer/ai-maestro/internal/storage"
)

// DeleteDeployment stops every worker of a deployment, removes them from the
// router and marks the deployment deleted. Worker rows are kept as stopped.
func (o *Orchestrator) DeleteDeployment(ctx context.Context, id uint) error {
	done, err := o.guard(ctx, OpDelete, lock.DeploymentKey(id))
	if err != nil {
		return err
	}
	return done(o.delete(ctx, id))
}

func (o *Orchestrator) delete(ctx context.Context, id uint) error {
	var workers []*domain.Worker

	err := o.db.WithinTx(ctx, func(ctx context.Context, tx storage.Store) error {
		d, err := tx.Deployments().GetByID(ctx, id)
		if err != nil {
			return err
		}
		if !d.Status.CanTransitionTo(domain.DeploymentDeleted) {
			return fmt.Errorf("%w: deployment %d is already %s", domain.ErrInvalidTransition, id, d.Status)
		}

		workers, err = runningWorkers(ctx, tx, id)
		if err != nil {
			return err
		}

		if err := o.stopWorkers(ctx, workers, nil); err != nil {
			return err
		}
		if err := tx.Workers().UpdateStatus(ctx, domain.WorkerIDs(workers), domain.WorkerStopped); err != nil {
			return err
		}

		if _, err := o.pushRunning(ctx, tx); err != nil {
			return err
		}

		return tx.Deployments().Update(ctx, id, domain.StatusUpdate(domain.DeploymentDeleted))
	})
	if err != nil {
		// stop is idempotent, so retrying the delete finishes the teardown
		o.abort(ctx, OpDelete, id, newSaga(o.logger), err)
		return err
	}

	for _, w := range workers {
		o.ports.Release(w.Port)
	}

	o.logger.Info("Deployment deleted", "deployment_id", id, "stopped_workers", len(workers))
	o.emit(ctx, domain.DeploymentEvent{
		DeploymentID: id,
		Type:         domain.EventDeleted,
		Addresses:    workerAddresses(workers),
	})
	return nil
}
