package dto

import (
	"github.com/JEMeyer/ai-maestro/internal/domain"
)

// ToGPUResponse converts domain.GPU to dto.GPUResponse
func ToGPUResponse(gpu *domain.GPU) *GPUResponse {
	if gpu == nil {
		return nil
	}

	return &GPUResponse{
		ID:             gpu.ID,
		ServerID:       gpu.ServerID,
		DeviceID:       gpu.DeviceID,
		Type:           string(gpu.Type),
		VRAMTotal:      gpu.VRAMTotal,
		MaxWorkers:     gpu.MaxWorkers,
		CurrentWorkers: gpu.CurrentWorkers,
	}
}

// ToGPUListResponse converts a slice of domain.GPU to dto.GPUListResponse
func ToGPUListResponse(gpus []*domain.GPU) *GPUListResponse {
	responses := make([]*GPUResponse, 0, len(gpus))
	for _, gpu := range gpus {
		responses = append(responses, ToGPUResponse(gpu))
	}

	return &GPUListResponse{
		GPUs:  responses,
		Total: len(responses),
	}
}

// ToServerListResponse converts servers to dto.ServerListResponse
func ToServerListResponse(servers []*domain.GPUServer) *ServerListResponse {
	responses := make([]*ServerResponse, 0, len(servers))
	for _, s := range servers {
		responses = append(responses, &ServerResponse{
			ID:       s.ID,
			Name:     s.Name,
			Host:     s.Host,
			GPUCount: s.GPUCount,
		})
	}
	return &ServerListResponse{Servers: responses, Total: len(responses)}
}

// ToWorkerResponse converts domain.Worker to dto.WorkerResponse
func ToWorkerResponse(w *domain.Worker) *WorkerResponse {
	if w == nil {
		return nil
	}

	return &WorkerResponse{
		ID:          w.ID,
		GPUID:       w.GPUID,
		ServerName:  w.ServerName,
		Port:        w.Port,
		Address:     w.Address(),
		ContainerID: w.ContainerID,
		Status:      string(w.Status),
		CreatedAt:   w.CreatedAt,
	}
}

// ToDeploymentResponse converts a deployment and optionally its workers
func ToDeploymentResponse(d *domain.Deployment, workers []*domain.Worker) *DeploymentResponse {
	if d == nil {
		return nil
	}

	resp := &DeploymentResponse{
		ID:        d.ID,
		Name:      d.Name,
		ModelID:   d.ModelID,
		Status:    string(d.Status),
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
	for _, w := range workers {
		resp.Workers = append(resp.Workers, ToWorkerResponse(w))
	}
	return resp
}

// ToDeploymentListResponse converts deployments without their workers
func ToDeploymentListResponse(deployments []*domain.Deployment) *DeploymentListResponse {
	responses := make([]*DeploymentResponse, 0, len(deployments))
	for _, d := range deployments {
		responses = append(responses, ToDeploymentResponse(d, nil))
	}

	return &DeploymentListResponse{
		Deployments: responses,
		Total:       len(responses),
	}
}

// ToEventResponse converts domain.DeploymentEvent to dto.EventResponse
func ToEventResponse(e *domain.DeploymentEvent) *EventResponse {
	if e == nil {
		return nil
	}

	return &EventResponse{
		ID:            e.ID,
		DeploymentID:  e.DeploymentID,
		Type:          string(e.Type),
		Message:       e.Message,
		ServerName:    e.ServerName,
		ContainerName: e.ContainerName,
		Addresses:     e.Addresses,
		Timestamp:     e.Timestamp,
	}
}

// ToEventListResponse converts the events of one deployment
func ToEventListResponse(events []*domain.DeploymentEvent, deploymentID uint) *EventListResponse {
	responses := make([]*EventResponse, 0, len(events))
	for _, e := range events {
		responses = append(responses, ToEventResponse(e))
	}

	return &EventListResponse{
		Events:       responses,
		Total:        len(responses),
		DeploymentID: deploymentID,
	}
}
