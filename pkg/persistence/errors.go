// Package persistence provides standardized error types for storage
// operations.
package persistence

import (
	"errors"
	"fmt"
)

var (
	// ErrWorkflowNotFound indicates no workflow definition exists for the
	// given identifier.
	ErrWorkflowNotFound = errors.New("workflow definition not found")

	// ErrTemplateNotFound indicates no mapping template exists for the
	// given identifier.
	ErrTemplateNotFound = errors.New("mapping template not found")
)

// StoreError wraps storage errors with the operation and entity id.
type StoreError struct {
	Op  string
	ID  string
	Err error
}

func (e *StoreError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s failed for %s: %v", e.Op, e.ID, e.Err)
	}

	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// IsWorkflowNotFound checks if an error indicates a missing workflow
// definition.
func IsWorkflowNotFound(err error) bool {
	return errors.Is(err, ErrWorkflowNotFound)
}

// IsTemplateNotFound checks if an error indicates a missing mapping
// template.
func IsTemplateNotFound(err error) bool {
	return errors.Is(err, ErrTemplateNotFound)
}
