package workflow

import (
	"strings"

	"github.com/talentdeck/talentdeck/pkg/models"
)

// Store validates workflow definitions against the step catalog. It has no
// side effects: persistence and dispatch both call Validate before acting,
// so an invalid definition can never reach the runner.
type Store struct {
	catalog *Catalog
}

func NewStore() *Store {
	return &Store{catalog: NewCatalog()}
}

// Catalog returns the underlying step-definition catalog.
func (s *Store) Catalog() *Catalog {
	return s.catalog
}

// Validate checks every step of a definition against its StepDefinition.
// It returns the first failure found, as a *ValidationError wrapping one of
// the package sentinels.
func (s *Store) Validate(def *models.WorkflowDefinition) error {
	if def == nil || len(def.Steps) == 0 {
		return &ValidationError{Err: ErrEmptyWorkflow}
	}

	for i, step := range def.Steps {
		stepDef, ok := definition(step.Kind)
		if !ok {
			return &ValidationError{Err: ErrUnknownActionKind, Kind: step.Kind, StepIndex: i}
		}

		if stepDef.SupportsCompositeSource {
			if err := validateSources(step, i); err != nil {
				return err
			}

			continue
		}

		for _, field := range stepDef.Fields {
			if !field.Required {
				continue
			}

			if strings.TrimSpace(step.FieldValue(field.Name)) == "" {
				return &ValidationError{
					Err:       ErrMissingRequiredField,
					Kind:      step.Kind,
					StepIndex: i,
					Field:     field.Name,
				}
			}
		}
	}

	return nil
}

func validateSources(step *models.StepInstance, index int) error {
	if len(step.Sources) == 0 {
		return &ValidationError{Err: ErrEmptySourceList, Kind: step.Kind, StepIndex: index}
	}

	for _, source := range step.Sources {
		if strings.TrimSpace(source.Name) == "" || strings.TrimSpace(source.Selector) == "" {
			return &ValidationError{Err: ErrEmptySourceList, Kind: step.Kind, StepIndex: index}
		}
	}

	return nil
}
