// Package runtime is the container-runtime collaborator: create, stop, list
// and update containers on the orchestrator host or on a named GPU server.
package runtime

//go:generate mockgen -destination=mocks/mock_client.go -package=mocks github.com/JEMeyer/ai-maestro/internal/runtime Client

import "context"

// LocalServer addresses the orchestrator's own container engine
const LocalServer = ""

// Labels stamped on every container the orchestrator creates
const (
	LabelManaged    = "ai-maestro.managed"
	LabelDeployment = "ai-maestro.deployment"
	LabelGPU        = "ai-maestro.gpu"
	LabelRole       = "ai-maestro.role"
)

// ContainerSpec describes a container to create and start
type ContainerSpec struct {
	Name   string
	Image  string
	Cmd    []string
	Env    []string
	Labels map[string]string

	// Ports are published on the same host port
	Ports []int

	// GPUDeviceIDs binds these device indexes through the nvidia runtime
	GPUDeviceIDs []string

	RestartPolicy string
}

// ContainerInfo is what the runtime reports about a container
type ContainerInfo struct {
	ID     string
	Name   string
	Image  string
	State  string
	Labels map[string]string
}

// ListFilter narrows ListContainers; zero values match everything
type ListFilter struct {
	Name   string
	Labels map[string]string
	All    bool // include stopped containers
}

// UpdateSpec is a partial container configuration update
type UpdateSpec struct {
	RestartPolicy string
	MemoryBytes   int64
	NanoCPUs      int64
}

// Client creates and controls containers. server is LocalServer or a name
// from Servers(); any other value fails with domain.ErrUnknownServer.
type Client interface {
	CreateContainer(ctx context.Context, server string, spec ContainerSpec) (ContainerInfo, error)

	// StopContainer stops and removes every container called name.
	// A container that is already stopped or absent is not an error.
	StopContainer(ctx context.Context, server, name string) error

	ListContainers(ctx context.Context, server string, filter ListFilter) ([]ContainerInfo, error)
	UpdateContainer(ctx context.Context, server, name string, update UpdateSpec) error

	// Servers returns the configured remote server names
	Servers() []string
}
