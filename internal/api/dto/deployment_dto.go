package dto

import "time"

// CreateDeploymentRequest is the body of POST /api/v1/deployments
type CreateDeploymentRequest struct {
	Name          string `json:"name" binding:"required" example:"llama-3-8b"`
	ModelID       string `json:"model_id" binding:"required" example:"meta-llama/Meta-Llama-3-8B-Instruct"`
	GPUType       string `json:"gpu_type,omitempty" example:"3090"`
	WorkersPerGPU int    `json:"workers_per_gpu,omitempty" binding:"gte=0" example:"1"`
}

// CreateDeploymentResponse carries the id of a new deployment
type CreateDeploymentResponse struct {
	ID uint `json:"id" example:"7"`
}

// MoveDeploymentRequest is the body of POST /api/v1/deployments/{id}/move
type MoveDeploymentRequest struct {
	GPUIDs []uint `json:"gpu_ids" binding:"required,min=1" example:"2,3"`
}

// WorkerResponse represents one worker of a deployment
type WorkerResponse struct {
	ID          uint      `json:"id" example:"12"`
	GPUID       uint      `json:"gpu_id" example:"3"`
	ServerName  string    `json:"server_name" example:"gpu-server-1"`
	Port        int       `json:"port" example:"8001"`
	Address     string    `json:"address" example:"gpu-server-1:8001"`
	ContainerID string    `json:"container_id,omitempty" example:"4f1c2a9d0b7e"`
	Status      string    `json:"status" example:"running"`
	CreatedAt   time.Time `json:"created_at" example:"2025-01-18T12:34:56Z"`
}

// DeploymentResponse represents a deployment. Workers are only included
// when a single deployment is requested.
type DeploymentResponse struct {
	ID        uint              `json:"id" example:"7"`
	Name      string            `json:"name" example:"llama-3-8b"`
	ModelID   string            `json:"model_id" example:"meta-llama/Meta-Llama-3-8B-Instruct"`
	Status    string            `json:"status" example:"running"`
	CreatedAt time.Time         `json:"created_at" example:"2025-01-18T12:34:56Z"`
	UpdatedAt time.Time         `json:"updated_at" example:"2025-01-18T12:35:10Z"`
	Workers   []*WorkerResponse `json:"workers,omitempty"`
}

// DeploymentListResponse wraps a list of deployments
type DeploymentListResponse struct {
	Deployments []*DeploymentResponse `json:"deployments"`
	Total       int                   `json:"total" example:"1"`
}
