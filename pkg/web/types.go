// Package web provides HTTP request and response types for the console API.
package web

import (
	"github.com/talentdeck/talentdeck/pkg/aggregate"
	"github.com/talentdeck/talentdeck/pkg/models"
	"github.com/talentdeck/talentdeck/pkg/report"
)

// CreateWorkflowRequest is the request body for creating a workflow
// definition.
type CreateWorkflowRequest struct {
	Name        string                 `json:"name"        validate:"required,min=3"`
	Type        string                 `json:"type"`
	Description string                 `json:"description"`
	Steps       []*models.StepInstance `json:"steps"       validate:"required,min=1"`
}

// UpdateWorkflowRequest replaces a stored definition wholesale; partial
// updates are not supported because step validation needs the whole
// sequence.
type UpdateWorkflowRequest struct {
	Name        string                 `json:"name"        validate:"required,min=3"`
	Type        string                 `json:"type"`
	Description string                 `json:"description"`
	Steps       []*models.StepInstance `json:"steps"       validate:"required,min=1"`
}

// ValidateWorkflowRequest carries a definition to check without saving.
type ValidateWorkflowRequest struct {
	Name  string                 `json:"name"`
	Steps []*models.StepInstance `json:"steps"`
}

// ValidateWorkflowResponse reports the validation outcome.
type ValidateWorkflowResponse struct {
	Valid  bool   `json:"valid"`
	Detail string `json:"detail,omitempty"`
}

// CreateJobRequest dispatches a workflow against a target batch.
type CreateJobRequest struct {
	WorkflowID string          `json:"workflow_id" validate:"required"`
	ProjectID  string          `json:"project_id"`
	Targets    []models.Target `json:"targets"     validate:"required,min=1,dive"`
}

// CreateJobResponse identifies the created job.
type CreateJobResponse struct {
	JobID        string `json:"job_id"`
	WorkflowID   string `json:"workflow_id"`
	WorkflowName string `json:"workflow_name"`
	TargetSize   int    `json:"target_size"`
}

// ConfirmRequest gates destructive and state-changing operations.
type ConfirmRequest struct {
	Confirmed bool `json:"confirmed"`
}

// CreateTemplateRequest is the request body for a mapping template.
type CreateTemplateRequest struct {
	Name              string            `json:"name"               validate:"required,min=3"`
	PrimaryCollection string            `json:"primary_collection" validate:"required"`
	FieldMapping      map[string]string `json:"field_mapping"      validate:"required,min=1"`
}

// GenerateReportRequest starts a report generation.
type GenerateReportRequest struct {
	TemplateID      string   `json:"template_id"      validate:"required"`
	TaskIDs         []string `json:"task_ids"         validate:"required,min=1"`
	DestinationHint string   `json:"destination_hint"`
}

// GenerateReportResponse identifies the in-flight generation.
type GenerateReportResponse struct {
	ReportID string `json:"report_id"`
}

// ReportProgressResponse is the staged display state plus, once finished,
// the artifact or failure.
type ReportProgressResponse struct {
	ReportID    string            `json:"report_id"`
	Stages      []report.Progress `json:"stages"`
	Finished    bool              `json:"finished"`
	ArtifactURL string            `json:"artifact_url,omitempty"`
	FileName    string            `json:"file_name,omitempty"`
	Error       string            `json:"error,omitempty"`
}

// StatsResponse is the grouped job statistics view.
type StatsResponse struct {
	Dimension aggregate.Dimension   `json:"dimension"`
	Groups    []aggregate.GroupStat `json:"groups"`
}
