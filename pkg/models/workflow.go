// Package models defines the core domain models for browser-automation
// workflows, dispatched jobs, and their tracked tasks.
package models

import "time"

// WorkflowDefinition is a named, ordered sequence of automation steps.
// Once a definition is dispatched into a Job, the job keeps only a snapshot
// of its identity and name; editing the definition never mutates past jobs.
type WorkflowDefinition struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"        validate:"required,min=3"`
	Type        string          `json:"type"`
	Description string          `json:"description"`
	Steps       []*StepInstance `json:"steps"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// StepInstance is one configured step inside a workflow definition.
type StepInstance struct {
	Kind        ActionKind         `json:"kind"        validate:"required"`
	Description string             `json:"description,omitempty"`
	FieldValues map[string]string  `json:"field_values,omitempty"`
	Sources     []*CompositeSource `json:"sources,omitempty"`
}

// CompositeSource is a named (label, selector) pair used by a
// compositeExtract step to assemble a value from several page fragments.
type CompositeSource struct {
	Name     string `json:"name"`
	Selector string `json:"selector"`
}

// FieldValue returns the configured value for a field name, or "".
func (s *StepInstance) FieldValue(name string) string {
	if s.FieldValues == nil {
		return ""
	}

	return s.FieldValues[name]
}

// Target is one addressable unit a workflow runs against, e.g. one talent
// record. CorrelationID is the identity used to match task results back to
// domain records.
type Target struct {
	CorrelationID string `json:"correlation_id" validate:"required"`
	ExternalID    string `json:"external_id"`
	DisplayName   string `json:"display_name"`
}
