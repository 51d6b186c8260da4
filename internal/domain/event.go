package domain

import "time"

// EventType names a deployment lifecycle transition or side-effect outcome
type EventType string

const (
	EventCreated     EventType = "created"
	EventMoved       EventType = "moved"
	EventDeleted     EventType = "deleted"
	EventFailed      EventType = "failed"
	EventOrphaned    EventType = "orphaned"
	EventCompensated EventType = "compensated"
	EventReconciled  EventType = "reconciled"
)

// DeploymentEvent is one journaled lifecycle record.
// Orphan events carry the server and container of the leaked worker so an
// operator can clean it up by hand.
type DeploymentEvent struct {
	ID            string    `json:"id" bson:"_id"`
	DeploymentID  uint      `json:"deployment_id" bson:"deployment_id"`
	Type          EventType `json:"type" bson:"type"`
	Message       string    `json:"message,omitempty" bson:"message,omitempty"`
	ServerName    string    `json:"server_name,omitempty" bson:"server_name,omitempty"`
	ContainerName string    `json:"container_name,omitempty" bson:"container_name,omitempty"`
	Addresses     []string  `json:"addresses,omitempty" bson:"addresses,omitempty"`
	Timestamp     time.Time `json:"timestamp" bson:"timestamp"`
}

// Validate checks the fields a stored event must carry
func (e *DeploymentEvent) Validate() error {
	if e.Type == "" {
		return ErrInvalidInput
	}
	if e.Timestamp.IsZero() {
		return ErrInvalidInput
	}
	return nil
}
