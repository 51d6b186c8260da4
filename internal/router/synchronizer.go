package router

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/JEMeyer/ai-maestro/internal/domain"
	"github.com/JEMeyer/ai-maestro/internal/runtime"
)

// RoleRouter is the LabelRole value of the router container
const RoleRouter = "router"

// ContainerOptions describes the router container Initialize (re)creates
type ContainerOptions struct {
	Name          string
	Image         string
	Port          int
	RestartPolicy string
}

// Synchronizer pushes full worker sets to the router
type Synchronizer struct {
	client  Client
	runtime runtime.Client
	opts    ContainerOptions
	logger  *slog.Logger

	mu   sync.Mutex
	last []string
}

// NewSynchronizer creates a synchronizer. rt may be nil when the router
// container is managed outside the orchestrator.
func NewSynchronizer(client Client, rt runtime.Client, opts ContainerOptions, logger *slog.Logger) *Synchronizer {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.RestartPolicy == "" {
		opts.RestartPolicy = "unless-stopped"
	}
	return &Synchronizer{
		client:  client,
		runtime: rt,
		opts:    opts,
		logger:  logger.With("component", "router"),
	}
}

// PushWorkerSet overwrites the router's upstream list with addrs.
// The list is sorted so equal sets always produce the same config value.
func (s *Synchronizer) PushWorkerSet(ctx context.Context, addrs []domain.WorkerAddress) error {
	values := domain.AddressStrings(addrs)
	sort.Strings(values)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.client.ApplyConfig(ctx, values); err != nil {
		s.logger.Error("Failed to push worker set", "worker_count", len(values), "error", err)
		return fmt.Errorf("%w: %v", domain.ErrRouterUpdate, err)
	}

	s.last = values
	s.logger.Info("Pushed worker set", "worker_count", len(values), "workers", strings.Join(values, ","))
	return nil
}

// LastPushed returns the most recently applied upstream list
func (s *Synchronizer) LastPushed() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.last))
	copy(out, s.last)
	return out
}

// Initialize recreates the router container on the orchestrator host with an
// empty upstream list, then sets its restart policy.
func (s *Synchronizer) Initialize(ctx context.Context) error {
	if s.runtime == nil {
		return fmt.Errorf("%w: no container runtime configured for the router", domain.ErrRouterUpdate)
	}

	if err := s.runtime.StopContainer(ctx, runtime.LocalServer, s.opts.Name); err != nil {
		return fmt.Errorf("%w: stop existing router: %v", domain.ErrRouterUpdate, err)
	}

	spec := runtime.ContainerSpec{
		Name:  s.opts.Name,
		Image: s.opts.Image,
		Env: []string{
			"ROUTER_ONLY=True",
			"WORKER_ADDRESSES=",
		},
		Labels: map[string]string{
			runtime.LabelManaged: "true",
			runtime.LabelRole:    RoleRouter,
		},
		Ports: []int{s.opts.Port},
	}
	info, err := s.runtime.CreateContainer(ctx, runtime.LocalServer, spec)
	if err != nil {
		return fmt.Errorf("%w: create router: %v", domain.ErrRouterUpdate, err)
	}

	if err := s.runtime.UpdateContainer(ctx, runtime.LocalServer, s.opts.Name, runtime.UpdateSpec{RestartPolicy: s.opts.RestartPolicy}); err != nil {
		return fmt.Errorf("%w: set router restart policy: %v", domain.ErrRouterUpdate, err)
	}

	s.mu.Lock()
	s.last = nil
	s.mu.Unlock()

	s.logger.Info("Router initialized", "container", info.Name, "port", s.opts.Port)
	return nil
}
