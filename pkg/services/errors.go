// Package services holds the application services the API surface calls
// into: workflow and template CRUD, and job/task mutations gated by the
// task lifecycle rules.
package services

import (
	"errors"
	"fmt"
)

var (
	// ErrWorkflowInvalid wraps a workflow validation failure.
	ErrWorkflowInvalid = errors.New("workflow definition is invalid")

	// ErrTemplateInvalid wraps a mapping-template validation failure.
	ErrTemplateInvalid = errors.New("mapping template is invalid")

	// ErrRerunNotAllowed is returned when a rerun is requested for a task
	// that is neither failed nor completed.
	ErrRerunNotAllowed = errors.New("task cannot be rerun in its current state")

	// ErrNotConfirmed is returned when a destructive or state-changing
	// operation arrives without operator confirmation.
	ErrNotConfirmed = errors.New("operation requires confirmation")

	// ErrMutationInFlight is returned when a task already has an
	// unacknowledged mutation outstanding.
	ErrMutationInFlight = errors.New("task has a mutation in flight")
)

// ServiceError carries the failing operation for logs and problem
// responses.
type ServiceError struct {
	Op  string
	ID  string
	Err error
}

func (e *ServiceError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.ID, e.Err)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func serviceError(op, id string, err error) error {
	if err == nil {
		return nil
	}

	return &ServiceError{Op: op, ID: id, Err: err}
}
