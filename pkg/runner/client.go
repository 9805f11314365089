// Package runner is the client for the external browser-automation
// execution backend. The backend is the sole authority for job and task
// state: this client only requests work and observes outcomes, it never
// fabricates or predicts state transitions.
package runner

import (
	"context"

	"github.com/talentdeck/talentdeck/pkg/models"
)

// CreateJobRequest asks the backend to materialize one job with one task
// per target.
type CreateJobRequest struct {
	ProjectID  string          `json:"project_id,omitempty"`
	WorkflowID string          `json:"workflow_id"`
	Targets    []models.Target `json:"targets"`
}

// ReportRequest asks the backend to assemble a report artifact from
// completed task results. The whole operation runs server-side and is
// atomic.
type ReportRequest struct {
	TemplateID      string   `json:"template_id"`
	TaskIDs         []string `json:"task_ids"`
	DestinationHint string   `json:"destination_hint,omitempty"`
}

// ReportArtifact is the backend's reference to a finished report.
type ReportArtifact struct {
	ArtifactURL   string `json:"artifact_url"`
	ArtifactToken string `json:"artifact_token"`
	FileName      string `json:"file_name"`
}

// Client is the execution-backend contract.
type Client interface {
	// CreateJob issues the single remote create call. On error no job
	// exists; the caller retries the whole invocation.
	CreateJob(ctx context.Context, req CreateJobRequest) (string, error)

	// JobByID fetches one job with its embedded tasks.
	JobByID(ctx context.Context, jobID string) (*models.Job, error)

	// JobsByProject fetches every job of a project with embedded tasks.
	JobsByProject(ctx context.Context, projectID string) ([]*models.Job, error)

	// CompleteJob marks a job reviewed and accepted by an operator.
	CompleteJob(ctx context.Context, jobID string) error

	// DeleteJob removes a job. The backend rejects it with ErrJobHasTasks
	// while any task remains.
	DeleteJob(ctx context.Context, jobID string) error

	// RerunTask resets a task back to pending.
	RerunTask(ctx context.Context, taskID string) error

	// DeleteTask removes a task from its parent job.
	DeleteTask(ctx context.Context, taskID string) error

	// GenerateReport runs the whole report pipeline remotely.
	GenerateReport(ctx context.Context, req ReportRequest) (*ReportArtifact, error)
}
