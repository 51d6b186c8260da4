package postgres

import (
	"time"

	"github.com/JEMeyer/ai-maestro/internal/domain"
)

// Deployment is the deployments table
type Deployment struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"not null"`
	ModelID   string `gorm:"column:model_id;not null"`
	Status    string `gorm:"type:varchar(16);not null;index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Deployment) TableName() string { return "deployments" }

// DeploymentWorker is the deployment_workers table
type DeploymentWorker struct {
	ID           uint   `gorm:"primaryKey"`
	DeploymentID uint   `gorm:"not null;index"`
	GPUID        uint   `gorm:"column:gpu_id;not null;index"`
	ServerName   string `gorm:"not null"`
	ContainerID  string
	Port         int    `gorm:"not null"`
	Status       string `gorm:"type:varchar(16);not null;index"`
	CreatedAt    time.Time

	Deployment *Deployment `gorm:"constraint:OnDelete:CASCADE"`
}

func (DeploymentWorker) TableName() string { return "deployment_workers" }

// GPU is the gpus table
type GPU struct {
	ID         uint   `gorm:"primaryKey"`
	ServerID   uint   `gorm:"not null;index"`
	DeviceID   int    `gorm:"not null"`
	Type       string `gorm:"column:gpu_type;type:varchar(16);not null"`
	VRAMTotal  int    `gorm:"column:vram_total"`
	MaxWorkers int    `gorm:"not null;default:1"`

	Server *GPUServer `gorm:"foreignKey:ServerID"`
}

func (GPU) TableName() string { return "gpus" }

// GPUServer is the gpu_servers table
type GPUServer struct {
	ID       uint   `gorm:"primaryKey"`
	Name     string `gorm:"uniqueIndex"`
	Host     string `gorm:"not null"`
	GPUCount int    `gorm:"column:gpu_count"`
}

func (GPUServer) TableName() string { return "gpu_servers" }

// gpuLoadRow is a gpus row joined with its running worker count
type gpuLoadRow struct {
	ID             uint   `gorm:"column:id"`
	ServerID       uint   `gorm:"column:server_id"`
	DeviceID       int    `gorm:"column:device_id"`
	GPUType        string `gorm:"column:gpu_type"`
	VRAMTotal      int    `gorm:"column:vram_total"`
	MaxWorkers     int    `gorm:"column:max_workers"`
	CurrentWorkers int    `gorm:"column:current_workers"`
}

func deploymentToDomain(m *Deployment) *domain.Deployment {
	return &domain.Deployment{
		ID:        m.ID,
		Name:      m.Name,
		ModelID:   m.ModelID,
		Status:    domain.DeploymentStatus(m.Status),
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func workerFromDomain(w *domain.Worker) *DeploymentWorker {
	return &DeploymentWorker{
		ID:           w.ID,
		DeploymentID: w.DeploymentID,
		GPUID:        w.GPUID,
		ServerName:   w.ServerName,
		ContainerID:  w.ContainerID,
		Port:         w.Port,
		Status:       string(w.Status),
		CreatedAt:    w.CreatedAt,
	}
}

func workerToDomain(m *DeploymentWorker) *domain.Worker {
	return &domain.Worker{
		ID:           m.ID,
		DeploymentID: m.DeploymentID,
		GPUID:        m.GPUID,
		ServerName:   m.ServerName,
		ContainerID:  m.ContainerID,
		Port:         m.Port,
		Status:       domain.WorkerStatus(m.Status),
		CreatedAt:    m.CreatedAt,
	}
}

func gpuLoadToDomain(r *gpuLoadRow) *domain.GPU {
	return &domain.GPU{
		ID:             r.ID,
		ServerID:       r.ServerID,
		DeviceID:       r.DeviceID,
		Type:           domain.GPUType(r.GPUType),
		VRAMTotal:      r.VRAMTotal,
		MaxWorkers:     r.MaxWorkers,
		CurrentWorkers: r.CurrentWorkers,
	}
}

func serverToDomain(m *GPUServer) *domain.GPUServer {
	return &domain.GPUServer{
		ID:       m.ID,
		Name:     m.Name,
		Host:     m.Host,
		GPUCount: m.GPUCount,
	}
}
