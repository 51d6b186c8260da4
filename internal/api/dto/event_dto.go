package dto

import "time"

// EventResponse represents one journaled deployment event
type EventResponse struct {
	ID            string    `json:"id" example:"3f0d7a2e-5c1b-4e59-9a8e-0b6f1f5d2c44"`
	DeploymentID  uint      `json:"deployment_id" example:"7"`
	Type          string    `json:"type" example:"created"`
	Message       string    `json:"message,omitempty" example:"llama-3-8b"`
	ServerName    string    `json:"server_name,omitempty" example:"gpu-server-1"`
	ContainerName string    `json:"container_name,omitempty" example:"vllm-worker-7-gpu3"`
	Addresses     []string  `json:"addresses,omitempty"`
	Timestamp     time.Time `json:"timestamp" example:"2025-01-18T12:34:56Z"`
}

// EventListResponse wraps the events of one deployment
type EventListResponse struct {
	Events       []*EventResponse `json:"events"`
	Total        int              `json:"total" example:"3"`
	DeploymentID uint             `json:"deployment_id" example:"7"`
	Since        *time.Time       `json:"since,omitempty"`
}
