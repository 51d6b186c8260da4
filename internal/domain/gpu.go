package domain

import "fmt"

// GPUType is the hardware class of a GPU
type GPUType string

const (
	GPUType3090 GPUType = "3090"
	GPUTypeP100 GPUType = "P100"
)

// Valid reports whether t is a known hardware class
func (t GPUType) Valid() bool {
	return t == GPUType3090 || t == GPUTypeP100
}

// GPU represents one physical accelerator on one server
type GPU struct {
	ID       uint    `json:"id"`
	ServerID uint    `json:"server_id"`
	DeviceID int     `json:"device_id"` // local index on its server
	Type     GPUType `json:"type"`

	// VRAMTotal is the device memory in GB
	VRAMTotal int `json:"vram_total"`

	// MaxWorkers is how many workers may run on this GPU at once
	MaxWorkers int `json:"max_workers"`

	// CurrentWorkers is derived by counting running workers referencing this GPU.
	// It is never stored.
	CurrentWorkers int `json:"current_workers"`
}

// HasCapacity reports whether another worker fits on the GPU
func (g *GPU) HasCapacity() bool {
	return g.CurrentWorkers < g.MaxWorkers
}

// GPUServer is a physical host owning a fixed number of GPUs
type GPUServer struct {
	ID       uint   `json:"id"`
	Name     string `json:"name"`
	Host     string `json:"host"`
	GPUCount int    `json:"gpu_count"`
}

// ServerNameFor returns the container-runtime server name for a server id
func ServerNameFor(serverID uint) string {
	return fmt.Sprintf("gpu-server-%d", serverID)
}

// GPUAllocation is the allocator output for one worker-to-be
type GPUAllocation struct {
	ServerID   uint   `json:"server_id"`
	ServerName string `json:"server_name"`
	GPUID      uint   `json:"gpu_id"`
	DeviceID   int    `json:"device_id"`
	Port       int    `json:"port"`
}
