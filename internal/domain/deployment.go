package domain

import "time"

// DeploymentStatus is the lifecycle state of a deployment
type DeploymentStatus string

const (
	DeploymentCreating DeploymentStatus = "creating"
	DeploymentRunning  DeploymentStatus = "running"
	DeploymentFailed   DeploymentStatus = "failed"
	DeploymentStopped  DeploymentStatus = "stopped"
	DeploymentDeleted  DeploymentStatus = "deleted"
)

// deploymentTransitions lists the allowed next states for each status.
// A move keeps a running deployment running, so running -> running is legal.
var deploymentTransitions = map[DeploymentStatus][]DeploymentStatus{
	DeploymentCreating: {DeploymentRunning, DeploymentFailed, DeploymentDeleted},
	DeploymentRunning:  {DeploymentRunning, DeploymentFailed, DeploymentStopped, DeploymentDeleted},
	DeploymentFailed:   {DeploymentDeleted},
	DeploymentStopped:  {DeploymentRunning, DeploymentDeleted},
	DeploymentDeleted:  {},
}

// Valid reports whether s is one of the known statuses
func (s DeploymentStatus) Valid() bool {
	_, ok := deploymentTransitions[s]
	return ok
}

// CanTransitionTo reports whether the orchestrator may move a deployment from s to next
func (s DeploymentStatus) CanTransitionTo(next DeploymentStatus) bool {
	for _, allowed := range deploymentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Deployment is a named logical serving instance for one model, backed by 1..N workers
type Deployment struct {
	ID        uint             `json:"id"`
	Name      string           `json:"name"`
	ModelID   string           `json:"model_id"`
	Status    DeploymentStatus `json:"status"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// DeploymentUpdate is a conditional multi-field update; nil fields are left untouched
type DeploymentUpdate struct {
	Name    *string
	ModelID *string
	Status  *DeploymentStatus
}

// IsEmpty reports whether the update would change nothing
func (u DeploymentUpdate) IsEmpty() bool {
	return u.Name == nil && u.ModelID == nil && u.Status == nil
}

// Apply copies the set fields of u onto d
func (u DeploymentUpdate) Apply(d *Deployment) {
	if u.Name != nil {
		d.Name = *u.Name
	}
	if u.ModelID != nil {
		d.ModelID = *u.ModelID
	}
	if u.Status != nil {
		d.Status = *u.Status
	}
}

// StatusUpdate is shorthand for an update touching only the status
func StatusUpdate(status DeploymentStatus) DeploymentUpdate {
	return DeploymentUpdate{Status: &status}
}
