package domain

import (
	"fmt"
	"time"
)

// WorkerStatus is the lifecycle state of a worker container
type WorkerStatus string

const (
	WorkerCreating WorkerStatus = "creating"
	WorkerRunning  WorkerStatus = "running"
	WorkerFailed   WorkerStatus = "failed"
	WorkerStopped  WorkerStatus = "stopped"
)

// Worker is one container serving a slice of a deployment on one GPU.
// While Status is running, (ServerName, Port) is unique among running workers.
type Worker struct {
	ID           uint         `json:"id"`
	DeploymentID uint         `json:"deployment_id"`
	GPUID        uint         `json:"gpu_id"`
	ServerName   string       `json:"server_name"`
	ContainerID  string       `json:"container_id"`
	Port         int          `json:"port"`
	Status       WorkerStatus `json:"status"`
	CreatedAt    time.Time    `json:"created_at"`
}

// Address returns the host:port the router should send traffic to
func (w *Worker) Address() string {
	return WorkerAddress{ServerName: w.ServerName, Port: w.Port}.String()
}

// WorkerAddress is a (server name, port) pair of a running worker
type WorkerAddress struct {
	ServerName string
	Port       int
}

func (a WorkerAddress) String() string {
	return fmt.Sprintf("%s:%d", a.ServerName, a.Port)
}

// AddressStrings formats addresses as host:port values
func AddressStrings(addrs []WorkerAddress) []string {
	out := make([]string, 0, len(addrs))
	for _, a := range addrs {
		out = append(out, a.String())
	}
	return out
}

// WorkerIDs returns the ids of the given workers
func WorkerIDs(workers []*Worker) []uint {
	ids := make([]uint, 0, len(workers))
	for _, w := range workers {
		ids = append(ids, w.ID)
	}
	return ids
}
