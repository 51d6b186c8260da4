package domain

import (
	"errors"
	"fmt"
)

// Domain-level errors
var (
	ErrNotFound          = errors.New("resource not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrGPUNotFound       = errors.New("GPU not found")
	ErrNoCapacity        = errors.New("no GPU capacity available")
	ErrPortsExhausted    = errors.New("no ports available")
	ErrPartialAllocation = errors.New("one or more requested GPUs not found")
	ErrContainerLaunch   = errors.New("container launch failed")
	ErrContainerStop     = errors.New("container stop failed")
	ErrRouterUpdate      = errors.New("router update failed")
	ErrUnknownServer     = errors.New("unknown server")
	ErrDeploymentBusy    = errors.New("deployment has an operation in flight")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrAddressInUse      = errors.New("worker address already in use")
	ErrDatabaseError     = errors.New("database error")
	ErrQueueError        = errors.New("queue error")
)

// ErrorKind tells a caller whether a failed operation was caused by missing or
// insufficient resources, by bad input, or by an infrastructure call failing.
type ErrorKind string

const (
	KindResource       ErrorKind = "resource"
	KindInvalid        ErrorKind = "invalid"
	KindConflict       ErrorKind = "conflict"
	KindInfrastructure ErrorKind = "infrastructure"
)

// Retryable reports whether retrying the same request may succeed without
// any change on the caller's side.
func (k ErrorKind) Retryable() bool {
	return k == KindInfrastructure || k == KindConflict
}

// OperationError is returned by every orchestrator operation.
type OperationError struct {
	Op   string
	Kind ErrorKind
	Err  error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *OperationError) Unwrap() error {
	return e.Err
}

// NewOperationError wraps err and classifies it by the sentinel it carries.
func NewOperationError(op string, err error) *OperationError {
	if err == nil {
		return nil
	}
	var opErr *OperationError
	if errors.As(err, &opErr) {
		return &OperationError{Op: op, Kind: opErr.Kind, Err: opErr.Err}
	}
	return &OperationError{Op: op, Kind: Classify(err), Err: err}
}

// Classify maps an error to its ErrorKind.
func Classify(err error) ErrorKind {
	switch {
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrInvalidTransition):
		return KindInvalid
	case errors.Is(err, ErrDeploymentBusy):
		return KindConflict
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrGPUNotFound),
		errors.Is(err, ErrNoCapacity),
		errors.Is(err, ErrPortsExhausted),
		errors.Is(err, ErrPartialAllocation):
		return KindResource
	default:
		return KindInfrastructure
	}
}
