package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeploymentStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from DeploymentStatus
		to   DeploymentStatus
		want bool
	}{
		{DeploymentCreating, DeploymentRunning, true},
		{DeploymentCreating, DeploymentFailed, true},
		{DeploymentCreating, DeploymentStopped, false},
		{DeploymentRunning, DeploymentRunning, true},
		{DeploymentRunning, DeploymentDeleted, true},
		{DeploymentRunning, DeploymentCreating, false},
		{DeploymentFailed, DeploymentRunning, false},
		{DeploymentFailed, DeploymentDeleted, true},
		{DeploymentDeleted, DeploymentRunning, false},
		{DeploymentDeleted, DeploymentDeleted, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestDeploymentStatus_Valid(t *testing.T) {
	assert.True(t, DeploymentCreating.Valid())
	assert.True(t, DeploymentDeleted.Valid())
	assert.False(t, DeploymentStatus("paused").Valid())
}

func TestDeploymentUpdate_Apply(t *testing.T) {
	d := &Deployment{ID: 1, Name: "llama", ModelID: "meta/llama-3", Status: DeploymentCreating}

	name := "llama-large"
	update := DeploymentUpdate{Name: &name}
	update.Apply(d)
	assert.Equal(t, "llama-large", d.Name)
	assert.Equal(t, "meta/llama-3", d.ModelID)
	assert.Equal(t, DeploymentCreating, d.Status)

	StatusUpdate(DeploymentRunning).Apply(d)
	assert.Equal(t, DeploymentRunning, d.Status)
	assert.Equal(t, "llama-large", d.Name)
}

func TestDeploymentUpdate_IsEmpty(t *testing.T) {
	assert.True(t, DeploymentUpdate{}.IsEmpty())
	assert.False(t, StatusUpdate(DeploymentFailed).IsEmpty())
}

func TestOperationError_Classification(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind ErrorKind
	}{
		{"no capacity", ErrNoCapacity, KindResource},
		{"ports exhausted", fmt.Errorf("allocate port: %w", ErrPortsExhausted), KindResource},
		{"partial allocation", ErrPartialAllocation, KindResource},
		{"not found", ErrNotFound, KindResource},
		{"invalid input", ErrInvalidInput, KindInvalid},
		{"busy", ErrDeploymentBusy, KindConflict},
		{"launch", fmt.Errorf("%w: boom", ErrContainerLaunch), KindInfrastructure},
		{"router", ErrRouterUpdate, KindInfrastructure},
		{"unclassified", errors.New("connection reset"), KindInfrastructure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opErr := NewOperationError("create", tt.err)
			require.NotNil(t, opErr)
			assert.Equal(t, tt.kind, opErr.Kind)
			assert.ErrorIs(t, opErr, tt.err)
		})
	}
}

func TestOperationError_Rewrap(t *testing.T) {
	inner := NewOperationError("allocate", ErrNoCapacity)
	outer := NewOperationError("create", fmt.Errorf("step 2: %w", inner))

	assert.Equal(t, "create", outer.Op)
	assert.Equal(t, KindResource, outer.Kind)
	assert.ErrorIs(t, outer, ErrNoCapacity)
	assert.Nil(t, NewOperationError("noop", nil))
}

func TestErrorKind_Retryable(t *testing.T) {
	assert.True(t, KindInfrastructure.Retryable())
	assert.True(t, KindConflict.Retryable())
	assert.False(t, KindResource.Retryable())
	assert.False(t, KindInvalid.Retryable())
}

func TestDeploymentEvent_Validate(t *testing.T) {
	e := &DeploymentEvent{DeploymentID: 1, Type: EventCreated, Timestamp: time.Now()}
	assert.NoError(t, e.Validate())

	e.Type = ""
	assert.ErrorIs(t, e.Validate(), ErrInvalidInput)

	e.Type = EventDeleted
	e.Timestamp = time.Time{}
	assert.ErrorIs(t, e.Validate(), ErrInvalidInput)
}
