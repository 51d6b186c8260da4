package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/JEMeyer/ai-maestro/internal/domain"
	"github.com/JEMeyer/ai-maestro/internal/fleet"
	"github.com/JEMeyer/ai-maestro/internal/storage"
)

// launchWorkers assigns a port to every GPU and starts one worker per GPU.
// Each port and container is recorded on s as soon as it exists.
func (o *Orchestrator) launchWorkers(ctx context.Context, tx storage.Store, s *saga, deploymentID uint, gpus []*domain.GPU) ([]*domain.Worker, error) {
	names, err := serverNames(ctx, tx, gpus)
	if err != nil {
		return nil, err
	}

	allocs := make([]domain.GPUAllocation, 0, len(gpus))
	portSteps := make([]*step, 0, len(gpus))
	for _, g := range gpus {
		port, err := o.ports.Next()
		if err != nil {
			return nil, err
		}
		portSteps = append(portSteps, s.add(&step{
			name:   fmt.Sprintf("release port %d", port),
			always: true,
			undo: func(context.Context) error {
				o.ports.Release(port)
				return nil
			},
		}))
		allocs = append(allocs, domain.GPUAllocation{
			ServerID:   g.ServerID,
			ServerName: names[g.ServerID],
			GPUID:      g.ID,
			DeviceID:   g.DeviceID,
			Port:       port,
		})
	}

	workers := make([]*domain.Worker, len(allocs))
	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(o.opts.LaunchConcurrency)

	for i, alloc := range allocs {
		i, alloc := i, alloc
		group.Go(func() error {
			w, err := o.fleet.Launch(gctx, deploymentID, alloc)
			if err != nil {
				return err
			}
			workers[i] = w
			// the running container now holds the port
			s.add(o.containerStep(w))
			s.drop(portSteps[i])
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return workers, nil
}

// containerStep undoes a launch by stopping the container and freeing its
// port. Without compensation the container is reported as orphaned and keeps
// its port.
func (o *Orchestrator) containerStep(w *domain.Worker) *step {
	name := fleet.ContainerName(w.DeploymentID, w.GPUID)
	return &step{
		name: "stop container " + name + " on " + w.ServerName,
		undo: func(ctx context.Context) error {
			if err := o.fleet.Stop(ctx, w); err != nil {
				return err
			}
			o.ports.Release(w.Port)
			o.emit(ctx, domain.DeploymentEvent{
				DeploymentID:  w.DeploymentID,
				Type:          domain.EventCompensated,
				Message:       "stopped container of a failed operation",
				ServerName:    w.ServerName,
				ContainerName: name,
			})
			return nil
		},
		skip: func(ctx context.Context) {
			o.orphaned(ctx, w.DeploymentID, w.ServerName, name, "container of a failed operation left running")
		},
	}
}

// routerStep restores the router to the committed running set
func (o *Orchestrator) routerStep() *step {
	return &step{
		name: "restore router worker set",
		undo: func(ctx context.Context) error {
			addrs, err := o.db.Workers().RunningAddresses(ctx)
			if err != nil {
				return err
			}
			return o.router.PushWorkerSet(ctx, addrs)
		},
	}
}

// stopWorkers stops the containers of workers concurrently. Workers whose
// container stopped are recorded on stopped when it is not nil.
func (o *Orchestrator) stopWorkers(ctx context.Context, workers []*domain.Worker, stopped *workerSet) error {
	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(o.opts.LaunchConcurrency)
	for _, w := range workers {
		w := w
		group.Go(func() error {
			if err := o.fleet.Stop(gctx, w); err != nil {
				return err
			}
			stopped.add(w)
			return nil
		})
	}
	return group.Wait()
}

// workerSet is a concurrency safe set of workers keyed by id
type workerSet struct {
	mu  sync.Mutex
	ids map[uint]bool
}

func newWorkerSet() *workerSet {
	return &workerSet{ids: make(map[uint]bool)}
}

func (s *workerSet) add(w *domain.Worker) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids[w.ID] = true
}

// of returns the members of workers that are in the set, in order
func (s *workerSet) of(workers []*domain.Worker) []*domain.Worker {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Worker
	for _, w := range workers {
		if s.ids[w.ID] {
			out = append(out, w)
		}
	}
	return out
}

// survivorStep keeps a move that failed while its old workers were stopping
// on the new workers. It records the new workers and the stopped old workers
// in a fresh transaction, then pushes new workers plus every old worker that
// is still running. It runs whether or not compensation is enabled.
func (o *Orchestrator) survivorStep(deploymentID uint, newWorkers, oldWorkers []*domain.Worker, stopped *workerSet) *step {
	return &step{
		name:   fmt.Sprintf("keep new workers of deployment %d", deploymentID),
		always: true,
		undo: func(ctx context.Context) error {
			gone := stopped.of(oldWorkers)

			dbErr := o.db.WithinTx(ctx, func(ctx context.Context, tx storage.Store) error {
				if len(gone) > 0 {
					if err := tx.Workers().UpdateStatus(ctx, domain.WorkerIDs(gone), domain.WorkerStopped); err != nil {
						return err
					}
				}
				rows := make([]*domain.Worker, 0, len(newWorkers))
				for _, w := range newWorkers {
					row := *w
					row.ID = 0
					row.CreatedAt = time.Time{}
					rows = append(rows, &row)
				}
				if err := tx.Workers().CreateBatch(ctx, rows); err != nil {
					return err
				}
				return tx.Deployments().Update(ctx, deploymentID, domain.StatusUpdate(domain.DeploymentRunning))
			})
			if dbErr == nil {
				for _, w := range gone {
					o.ports.Release(w.Port)
				}
			}

			// the live set is pushed even if the rows could not be written
			live, err := o.liveAddresses(ctx, gone, newWorkers)
			if err == nil {
				err = o.router.PushWorkerSet(ctx, live)
			}

			o.logger.Warn("Move kept new workers after a failure",
				"deployment_id", deploymentID,
				"new_workers", len(newWorkers),
				"stopped_old_workers", len(gone),
				"running_old_workers", len(oldWorkers)-len(gone),
				"record_error", dbErr,
				"push_error", err)
			return errors.Join(dbErr, err)
		},
	}
}

// liveAddresses is the committed running set without the gone workers and
// with the added ones
func (o *Orchestrator) liveAddresses(ctx context.Context, gone, added []*domain.Worker) ([]domain.WorkerAddress, error) {
	committed, err := o.db.Workers().RunningAddresses(ctx)
	if err != nil {
		return nil, err
	}

	skip := make(map[domain.WorkerAddress]bool, len(gone))
	for _, w := range gone {
		skip[domain.WorkerAddress{ServerName: w.ServerName, Port: w.Port}] = true
	}
	live := make([]domain.WorkerAddress, 0, len(committed)+len(added))
	for _, a := range committed {
		if !skip[a] {
			skip[a] = true
			live = append(live, a)
		}
	}
	for _, w := range added {
		a := domain.WorkerAddress{ServerName: w.ServerName, Port: w.Port}
		if !skip[a] {
			skip[a] = true
			live = append(live, a)
		}
	}
	return live, nil
}

// pushRunning pushes the running address set visible to tx
func (o *Orchestrator) pushRunning(ctx context.Context, tx storage.Store) ([]domain.WorkerAddress, error) {
	addrs, err := tx.Workers().RunningAddresses(ctx)
	if err != nil {
		return nil, err
	}
	if err := o.router.PushWorkerSet(ctx, addrs); err != nil {
		return nil, err
	}
	return addrs, nil
}

func (o *Orchestrator) orphaned(ctx context.Context, deploymentID uint, server, container, reason string) {
	o.logger.Error("Orphaned container",
		"deployment_id", deploymentID,
		"server", server,
		"container", container,
		"reason", reason)
	o.metrics.Orphaned(server)
	o.emit(ctx, domain.DeploymentEvent{
		DeploymentID:  deploymentID,
		Type:          domain.EventOrphaned,
		Message:       reason,
		ServerName:    server,
		ContainerName: container,
	})
}

// abort undoes the side effects of a failed operation and journals the failure
func (o *Orchestrator) abort(ctx context.Context, op string, deploymentID uint, s *saga, cause error) {
	// compensation must run even when the caller has gone away
	ctx = context.WithoutCancel(ctx)

	pending := s.len()
	undone, failures := s.rollback(ctx, o.opts.CompensateOnFailure)

	o.logger.Error("Operation failed",
		"operation", op,
		"deployment_id", deploymentID,
		"side_effects", pending,
		"compensated", undone,
		"compensation_failures", len(failures),
		"error", cause)

	o.emit(ctx, domain.DeploymentEvent{
		DeploymentID: deploymentID,
		Type:         domain.EventFailed,
		Message:      fmt.Sprintf("%s: %v", op, cause),
	})
}
