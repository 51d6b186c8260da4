// Package fleet launches and stops the worker containers of deployments.
package fleet

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/JEMeyer/ai-maestro/internal/domain"
	"github.com/JEMeyer/ai-maestro/internal/runtime"
)

const (
	// RoleWorker is the LabelRole value of worker containers
	RoleWorker = "worker"

	workerEnvMode   = "WORKER_MODE=True"
	workerEnvDevice = "GPU_DEVICE_ID="
)

// ContainerName returns the deterministic name of a deployment's worker on a GPU
func ContainerName(deploymentID, gpuID uint) string {
	return fmt.Sprintf("vllm-worker-%d-gpu%d", deploymentID, gpuID)
}

// Manager drives worker containers through the container runtime
type Manager struct {
	runtime runtime.Client
	image   string
	logger  *slog.Logger
	now     func() time.Time
}

// NewManager creates a fleet manager that starts workers from image
func NewManager(rt runtime.Client, image string, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		runtime: rt,
		image:   image,
		logger:  logger.With("component", "fleet"),
		now:     time.Now,
	}
}

// Launch creates and starts one worker for alloc on the allocation's server.
// The returned worker is running but not persisted; the caller inserts it.
// A failure is wrapped in domain.ErrContainerLaunch and is not retried.
func (m *Manager) Launch(ctx context.Context, deploymentID uint, alloc domain.GPUAllocation) (*domain.Worker, error) {
	name := ContainerName(deploymentID, alloc.GPUID)
	spec := runtime.ContainerSpec{
		Name:  name,
		Image: m.image,
		Env: []string{
			workerEnvMode,
			workerEnvDevice + strconv.Itoa(alloc.DeviceID),
		},
		Labels: map[string]string{
			runtime.LabelManaged:    "true",
			runtime.LabelDeployment: strconv.FormatUint(uint64(deploymentID), 10),
			runtime.LabelGPU:        strconv.FormatUint(uint64(alloc.GPUID), 10),
			runtime.LabelRole:       RoleWorker,
		},
		Ports:        []int{alloc.Port},
		GPUDeviceIDs: []string{strconv.Itoa(alloc.DeviceID)},
	}

	info, err := m.runtime.CreateContainer(ctx, alloc.ServerName, spec)
	if err != nil {
		m.logger.Error("Failed to launch worker",
			"deployment_id", deploymentID,
			"server", alloc.ServerName,
			"container", name,
			"port", alloc.Port,
			"error", err)
		return nil, fmt.Errorf("%w: %s on %s: %v", domain.ErrContainerLaunch, name, alloc.ServerName, err)
	}

	m.logger.Info("Worker launched",
		"deployment_id", deploymentID,
		"server", alloc.ServerName,
		"container", name,
		"gpu_id", alloc.GPUID,
		"port", alloc.Port)

	return &domain.Worker{
		DeploymentID: deploymentID,
		GPUID:        alloc.GPUID,
		ServerName:   alloc.ServerName,
		ContainerID:  info.ID,
		Port:         alloc.Port,
		Status:       domain.WorkerRunning,
		CreatedAt:    m.now(),
	}, nil
}

// Stop stops and removes a worker's container. A container that is already
// stopped or gone counts as stopped.
func (m *Manager) Stop(ctx context.Context, w *domain.Worker) error {
	name := ContainerName(w.DeploymentID, w.GPUID)
	if err := m.runtime.StopContainer(ctx, w.ServerName, name); err != nil {
		m.logger.Error("Failed to stop worker",
			"deployment_id", w.DeploymentID,
			"server", w.ServerName,
			"container", name,
			"error", err)
		return fmt.Errorf("%w: %s on %s: %v", domain.ErrContainerStop, name, w.ServerName, err)
	}
	m.logger.Info("Worker stopped", "deployment_id", w.DeploymentID, "server", w.ServerName, "container", name)
	return nil
}

// ListManaged returns the orchestrator-managed worker containers on a server
func (m *Manager) ListManaged(ctx context.Context, server string) ([]runtime.ContainerInfo, error) {
	return m.runtime.ListContainers(ctx, server, runtime.ListFilter{
		Labels: map[string]string{
			runtime.LabelManaged: "true",
			runtime.LabelRole:    RoleWorker,
		},
	})
}

// Servers returns the GPU servers the runtime can reach
func (m *Manager) Servers() []string {
	return m.runtime.Servers()
}
