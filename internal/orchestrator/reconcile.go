package orchestrator

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/JEMeyer/ai-maestro/internal/domain"
	"github.com/JEMeyer/ai-maestro/internal/fleet"
	"github.com/JEMeyer/ai-maestro/internal/runtime"
)

// ReconcileReport summarizes one reconciliation pass
type ReconcileReport struct {
	RunningWorkers int      `json:"running_workers"`
	PortsRestored  int      `json:"ports_restored"`
	Orphans        []Orphan `json:"orphans"`
	Failed         []uint   `json:"failed_deployments"`

	// Unreachable lists servers whose containers could not be listed
	Unreachable []string `json:"unreachable_servers"`
}

// Orphan is a managed container without a running worker row
type Orphan struct {
	ServerName    string `json:"server_name"`
	ContainerName string `json:"container_name"`
	DeploymentID  uint   `json:"deployment_id"`
}

// Reconcile rebuilds process-local state from the database and reports
// drift between the database and the container runtime. It must run before
// the orchestrator serves requests.
func (o *Orchestrator) Reconcile(ctx context.Context) (*ReconcileReport, error) {
	start := time.Now()
	report, err := o.reconcile(ctx)
	if err != nil {
		err = domain.NewOperationError(OpReconcile, err)
	}
	o.metrics.Observe(OpReconcile, time.Since(start), err)
	return report, err
}

func (o *Orchestrator) reconcile(ctx context.Context) (*ReconcileReport, error) {
	report := &ReconcileReport{}

	running, err := o.db.Workers().ListRunning(ctx)
	if err != nil {
		return nil, err
	}
	report.RunningWorkers = len(running)

	expected := make(map[string]map[string]bool)
	perDeployment := make(map[uint]int)
	for _, w := range running {
		if err := o.ports.MarkInUse(w.Port); err != nil {
			o.logger.Warn("Running worker port outside the pool",
				"worker_id", w.ID, "server", w.ServerName, "port", w.Port, "error", err)
		} else {
			report.PortsRestored++
		}
		if expected[w.ServerName] == nil {
			expected[w.ServerName] = make(map[string]bool)
		}
		expected[w.ServerName][fleet.ContainerName(w.DeploymentID, w.GPUID)] = true
		perDeployment[w.DeploymentID]++
	}

	for _, server := range o.fleet.Servers() {
		containers, err := o.fleet.ListManaged(ctx, server)
		if err != nil {
			o.logger.Warn("Failed to list managed containers", "server", server, "error", err)
			report.Unreachable = append(report.Unreachable, server)
			continue
		}
		for _, c := range containers {
			if expected[server][c.Name] {
				continue
			}
			orphan := Orphan{ServerName: server, ContainerName: c.Name, DeploymentID: labelDeployment(c)}
			report.Orphans = append(report.Orphans, orphan)
			o.orphaned(ctx, orphan.DeploymentID, server, c.Name, "managed container has no running worker")
		}
	}

	deployments, err := o.db.Deployments().List(ctx)
	if err != nil {
		return nil, err
	}
	for _, d := range deployments {
		if d.Status != domain.DeploymentRunning && d.Status != domain.DeploymentCreating {
			continue
		}
		if perDeployment[d.ID] > 0 {
			continue
		}
		if err := o.db.Deployments().Update(ctx, d.ID, domain.StatusUpdate(domain.DeploymentFailed)); err != nil {
			return nil, err
		}
		report.Failed = append(report.Failed, d.ID)
		o.logger.Warn("Deployment has no running workers, marked failed", "deployment_id", d.ID, "name", d.Name)
		o.emit(ctx, domain.DeploymentEvent{
			DeploymentID: d.ID,
			Type:         domain.EventFailed,
			Message:      "no running workers found during reconciliation",
		})
	}

	addrs, err := o.db.Workers().RunningAddresses(ctx)
	if err != nil {
		return nil, err
	}
	if err := o.router.PushWorkerSet(ctx, addrs); err != nil {
		return nil, err
	}

	o.logger.Info("Reconciliation complete",
		"running_workers", report.RunningWorkers,
		"ports_restored", report.PortsRestored,
		"orphans", len(report.Orphans),
		"failed_deployments", len(report.Failed),
		"unreachable_servers", len(report.Unreachable))
	o.emit(ctx, domain.DeploymentEvent{
		Type: domain.EventReconciled,
		Message: fmt.Sprintf("%d running workers, %d orphans, %d failed deployments",
			report.RunningWorkers, len(report.Orphans), len(report.Failed)),
		Addresses: domain.AddressStrings(addrs),
	})
	return report, nil
}

func labelDeployment(c runtime.ContainerInfo) uint {
	id, err := strconv.ParseUint(c.Labels[runtime.LabelDeployment], 10, 64)
	if err != nil {
		return 0
	}
	return uint(id)
}
