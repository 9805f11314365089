package runner

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the backend does not know the referenced job
	// or task.
	ErrNotFound = errors.New("runner resource not found")

	// ErrJobHasTasks indicates a job delete was rejected because tasks
	// remain. Surfaced to the operator, never retried automatically.
	ErrJobHasTasks = errors.New("job still has tasks")
)

// APIError is a non-2xx backend response.
type APIError struct {
	StatusCode int
	Type       string
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("runner returned %d (%s): %s", e.StatusCode, e.Type, e.Detail)
	}

	return fmt.Sprintf("runner returned %d", e.StatusCode)
}

// IsJobHasTasks checks whether a job delete was rejected for remaining
// tasks.
func IsJobHasTasks(err error) bool {
	return errors.Is(err, ErrJobHasTasks)
}

// IsNotFound checks whether the backend reported a missing job or task.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
