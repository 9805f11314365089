package workflow

import (
	"errors"
	"fmt"

	"github.com/talentdeck/talentdeck/pkg/models"
)

var (
	// ErrEmptyWorkflow is returned when a definition has no steps.
	ErrEmptyWorkflow = errors.New("workflow has no steps")

	// ErrUnknownActionKind is returned when a step's kind does not resolve
	// to a catalog definition.
	ErrUnknownActionKind = errors.New("unknown action kind")

	// ErrMissingRequiredField is returned when a required step field is
	// absent or empty.
	ErrMissingRequiredField = errors.New("missing required field")

	// ErrEmptySourceList is returned when a compositeExtract step has no
	// sources, or a source with a blank name or selector.
	ErrEmptySourceList = errors.New("composite extract needs at least one complete source")
)

// ValidationError carries the failing step position alongside the sentinel
// cause, so the console can highlight the exact field.
type ValidationError struct {
	Err       error
	Kind      models.ActionKind
	StepIndex int
	Field     string
}

func (e *ValidationError) Error() string {
	switch {
	case e.Field != "":
		return fmt.Sprintf("step %d (%s): %v: %s", e.StepIndex, e.Kind, e.Err, e.Field)
	case e.Kind != "":
		return fmt.Sprintf("step %d (%s): %v", e.StepIndex, e.Kind, e.Err)
	default:
		return e.Err.Error()
	}
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// IsValidationError reports whether err originated in workflow validation.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrEmptyWorkflow) ||
		errors.Is(err, ErrUnknownActionKind) ||
		errors.Is(err, ErrMissingRequiredField) ||
		errors.Is(err, ErrEmptySourceList)
}
