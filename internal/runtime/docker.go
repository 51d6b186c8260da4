package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/client"
	"github.com/docker/docker/errdefs"
	"github.com/docker/go-connections/nat"

	"github.com/JEMeyer/ai-maestro/internal/domain"
)

// DockerClient implements Client on the Docker Engine API.
// It holds one engine client for the local host and one per GPU server.
type DockerClient struct {
	local       client.ContainerAPIClient
	remotes     map[string]client.ContainerAPIClient
	callTimeout time.Duration
	logger      *slog.Logger
	closers     []func() error
}

// NewDockerClient connects to the local engine from the environment and to
// each server endpoint (for example tcp://gpu-server-1:2375).
func NewDockerClient(servers map[string]string, callTimeout time.Duration, logger *slog.Logger) (*DockerClient, error) {
	if logger == nil {
		logger = slog.Default()
	}

	local, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create local docker client: %w", err)
	}

	d := &DockerClient{
		local:       local,
		remotes:     make(map[string]client.ContainerAPIClient, len(servers)),
		callTimeout: callTimeout,
		logger:      logger.With("component", "docker"),
		closers:     []func() error{local.Close},
	}

	for name, endpoint := range servers {
		remote, err := client.NewClientWithOpts(client.WithHost(endpoint), client.WithAPIVersionNegotiation())
		if err != nil {
			_ = d.Close()
			return nil, fmt.Errorf("failed to create docker client for %s (%s): %w", name, endpoint, err)
		}
		d.remotes[name] = remote
		d.closers = append(d.closers, remote.Close)
	}

	return d, nil
}

// NewDockerClientWith builds a client from existing engine clients
func NewDockerClientWith(local client.ContainerAPIClient, remotes map[string]client.ContainerAPIClient, callTimeout time.Duration, logger *slog.Logger) *DockerClient {
	if logger == nil {
		logger = slog.Default()
	}
	if remotes == nil {
		remotes = make(map[string]client.ContainerAPIClient)
	}
	return &DockerClient{
		local:       local,
		remotes:     remotes,
		callTimeout: callTimeout,
		logger:      logger.With("component", "docker"),
	}
}

// Servers returns the configured remote server names in sorted order
func (d *DockerClient) Servers() []string {
	names := make([]string, 0, len(d.remotes))
	for name := range d.remotes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Close releases every engine connection
func (d *DockerClient) Close() error {
	var errs []error
	for _, closeFn := range d.closers {
		if err := closeFn(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (d *DockerClient) resolve(server string) (client.ContainerAPIClient, error) {
	if server == LocalServer {
		return d.local, nil
	}
	api, ok := d.remotes[server]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownServer, server)
	}
	return api, nil
}

func (d *DockerClient) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if d.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d.callTimeout)
}

// CreateContainer creates and starts a container and returns its inspected state.
// A container that was created but failed to start is removed again.
func (d *DockerClient) CreateContainer(ctx context.Context, server string, spec ContainerSpec) (ContainerInfo, error) {
	api, err := d.resolve(server)
	if err != nil {
		return ContainerInfo{}, err
	}
	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	cfg, hostCfg, err := buildContainerConfig(spec)
	if err != nil {
		return ContainerInfo{}, err
	}

	created, err := api.ContainerCreate(ctx, cfg, hostCfg, nil, nil, spec.Name)
	if err != nil {
		return ContainerInfo{}, fmt.Errorf("create container %s on %s: %w", spec.Name, serverLabel(server), err)
	}
	for _, w := range created.Warnings {
		d.logger.Warn("Docker warning on create", "server", serverLabel(server), "container", spec.Name, "warning", w)
	}

	if err := api.ContainerStart(ctx, created.ID, container.StartOptions{}); err != nil {
		if rmErr := api.ContainerRemove(context.WithoutCancel(ctx), created.ID, container.RemoveOptions{Force: true}); rmErr != nil {
			d.logger.Error("Failed to remove container after start failure",
				"server", serverLabel(server), "container", spec.Name, "error", rmErr)
		}
		return ContainerInfo{}, fmt.Errorf("start container %s on %s: %w", spec.Name, serverLabel(server), err)
	}

	inspected, err := api.ContainerInspect(ctx, created.ID)
	if err != nil {
		return ContainerInfo{}, fmt.Errorf("inspect container %s on %s: %w", spec.Name, serverLabel(server), err)
	}

	info := ContainerInfo{
		ID:     inspected.ID,
		Name:   strings.TrimPrefix(inspected.Name, "/"),
		Labels: spec.Labels,
		Image:  spec.Image,
	}
	if inspected.State != nil {
		info.State = inspected.State.Status
	}
	d.logger.Info("Container started", "server", serverLabel(server), "container", info.Name, "id", shortID(info.ID))
	return info, nil
}

// StopContainer stops and removes every container with exactly this name
func (d *DockerClient) StopContainer(ctx context.Context, server, name string) error {
	api, err := d.resolve(server)
	if err != nil {
		return err
	}
	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	found, err := api.ContainerList(ctx, container.ListOptions{All: true, Filters: nameFilter(name)})
	if err != nil {
		return fmt.Errorf("list containers named %s on %s: %w", name, serverLabel(server), err)
	}
	if len(found) == 0 {
		d.logger.Debug("Container already absent", "server", serverLabel(server), "container", name)
		return nil
	}

	for _, c := range found {
		if c.State == "running" || c.State == "restarting" || c.State == "paused" {
			if err := api.ContainerStop(ctx, c.ID, container.StopOptions{}); err != nil && !errdefs.IsNotFound(err) && !errdefs.IsNotModified(err) {
				return fmt.Errorf("stop container %s on %s: %w", name, serverLabel(server), err)
			}
		}
		if err := api.ContainerRemove(ctx, c.ID, container.RemoveOptions{Force: true}); err != nil && !errdefs.IsNotFound(err) {
			d.logger.Warn("Failed to remove stopped container",
				"server", serverLabel(server), "container", name, "id", shortID(c.ID), "error", err)
		}
	}
	return nil
}

// ListContainers lists containers matching filter
func (d *DockerClient) ListContainers(ctx context.Context, server string, filter ListFilter) ([]ContainerInfo, error) {
	api, err := d.resolve(server)
	if err != nil {
		return nil, err
	}
	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	args := filters.NewArgs()
	if filter.Name != "" {
		args = nameFilter(filter.Name)
	}
	for k, v := range filter.Labels {
		args.Add("label", k+"="+v)
	}

	found, err := api.ContainerList(ctx, container.ListOptions{All: filter.All, Filters: args})
	if err != nil {
		return nil, fmt.Errorf("list containers on %s: %w", serverLabel(server), err)
	}

	out := make([]ContainerInfo, 0, len(found))
	for _, c := range found {
		name := ""
		if len(c.Names) > 0 {
			name = strings.TrimPrefix(c.Names[0], "/")
		}
		out = append(out, ContainerInfo{ID: c.ID, Name: name, Image: c.Image, State: c.State, Labels: c.Labels})
	}
	return out, nil
}

// UpdateContainer applies a partial update to the container called name
func (d *DockerClient) UpdateContainer(ctx context.Context, server, name string, update UpdateSpec) error {
	api, err := d.resolve(server)
	if err != nil {
		return err
	}
	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	cfg := container.UpdateConfig{
		Resources: container.Resources{
			Memory:   update.MemoryBytes,
			NanoCPUs: update.NanoCPUs,
		},
	}
	if update.RestartPolicy != "" {
		cfg.RestartPolicy = container.RestartPolicy{Name: container.RestartPolicyMode(update.RestartPolicy)}
	}

	if _, err := api.ContainerUpdate(ctx, name, cfg); err != nil {
		return fmt.Errorf("update container %s on %s: %w", name, serverLabel(server), err)
	}
	return nil
}

// buildContainerConfig turns a spec into engine create parameters
func buildContainerConfig(spec ContainerSpec) (*container.Config, *container.HostConfig, error) {
	if spec.Name == "" || spec.Image == "" {
		return nil, nil, fmt.Errorf("%w: container name and image are required", domain.ErrInvalidInput)
	}

	exposed := nat.PortSet{}
	bindings := nat.PortMap{}
	for _, p := range spec.Ports {
		port, err := nat.NewPort("tcp", strconv.Itoa(p))
		if err != nil {
			return nil, nil, fmt.Errorf("%w: port %d: %v", domain.ErrInvalidInput, p, err)
		}
		exposed[port] = struct{}{}
		bindings[port] = []nat.PortBinding{{HostIP: "0.0.0.0", HostPort: strconv.Itoa(p)}}
	}

	cfg := &container.Config{
		Image:        spec.Image,
		Cmd:          spec.Cmd,
		Env:          spec.Env,
		Labels:       spec.Labels,
		ExposedPorts: exposed,
	}

	hostCfg := &container.HostConfig{
		PortBindings: bindings,
	}
	if spec.RestartPolicy != "" {
		hostCfg.RestartPolicy = container.RestartPolicy{Name: container.RestartPolicyMode(spec.RestartPolicy)}
	}
	if len(spec.GPUDeviceIDs) > 0 {
		hostCfg.Runtime = "nvidia"
		hostCfg.Resources.DeviceRequests = []container.DeviceRequest{{
			Driver:       "nvidia",
			DeviceIDs:    spec.GPUDeviceIDs,
			Capabilities: [][]string{{"gpu"}},
		}}
	}
	return cfg, hostCfg, nil
}

// nameFilter matches exactly one container name; docker name filters are regexes
func nameFilter(name string) filters.Args {
	return filters.NewArgs(filters.Arg("name", "^/"+name+"$"))
}

func serverLabel(server string) string {
	if server == LocalServer {
		return "local"
	}
	return server
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
