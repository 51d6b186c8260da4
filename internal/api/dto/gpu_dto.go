package dto

// GPUResponse represents a GPU and its current load in API responses
type GPUResponse struct {
	ID             uint   `json:"id" example:"3"`
	ServerID       uint   `json:"server_id" example:"1"`
	DeviceID       int    `json:"device_id" example:"0"`
	Type           string `json:"type" example:"3090"`
	VRAMTotal      int    `json:"vram_total" example:"24"`
	MaxWorkers     int    `json:"max_workers" example:"1"`
	CurrentWorkers int    `json:"current_workers" example:"0"`
}

// GPUListResponse wraps a list of GPUs
type GPUListResponse struct {
	GPUs  []*GPUResponse `json:"gpus"`
	Total int            `json:"total" example:"2"`
}

// ServerResponse represents a GPU server
type ServerResponse struct {
	ID       uint   `json:"id" example:"1"`
	Name     string `json:"name" example:"gpu-server-1"`
	Host     string `json:"host" example:"10.0.0.11"`
	GPUCount int    `json:"gpu_count" example:"4"`
}

// ServerListResponse wraps a list of servers
type ServerListResponse struct {
	Servers []*ServerResponse `json:"servers"`
	Total   int               `json:"total" example:"2"`
}
