// Package dispatch turns a validated workflow plus a target batch into
// one execution-backend job. Creation is a single remote call: on error
// nothing exists and the caller retries the whole invocation.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/talentdeck/talentdeck/pkg/eventbus"
	"github.com/talentdeck/talentdeck/pkg/events"
	"github.com/talentdeck/talentdeck/pkg/models"
	"github.com/talentdeck/talentdeck/pkg/persistence"
	"github.com/talentdeck/talentdeck/pkg/runner"
	"github.com/talentdeck/talentdeck/pkg/workflow"
)

var (
	// ErrEmptyTargetSet is returned when a dispatch carries no targets.
	ErrEmptyTargetSet = errors.New("dispatch needs at least one target")

	// ErrDuplicateTarget is returned when two targets share a correlation id.
	ErrDuplicateTarget = errors.New("duplicate target in batch")
)

// Handle identifies a freshly created job.
type Handle struct {
	JobID        string
	WorkflowID   string
	WorkflowName string
	TargetSize   int
}

// Dispatcher validates a workflow and its target batch, then asks the
// backend to materialize the job.
type Dispatcher struct {
	persistence persistence.Persistence
	store       *workflow.Store
	runner      runner.Client
	bus         eventbus.EventPublisher
	logger      *slog.Logger
}

func NewDispatcher(p persistence.Persistence, store *workflow.Store, client runner.Client,
	bus eventbus.EventPublisher, logger *slog.Logger,
) *Dispatcher {
	return &Dispatcher{
		persistence: p,
		store:       store,
		runner:      client,
		bus:         bus,
		logger:      logger.With("module", "dispatch"),
	}
}

// CreateJob loads and re-validates the workflow, checks the batch, and
// issues the create call. One task per target is materialized remotely.
func (d *Dispatcher) CreateJob(ctx context.Context, workflowID string, targets []models.Target, projectID string) (*Handle, error) {
	if len(targets) == 0 {
		return nil, ErrEmptyTargetSet
	}

	seen := make(map[string]struct{}, len(targets))

	for _, target := range targets {
		if _, dup := seen[target.CorrelationID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateTarget, target.CorrelationID)
		}

		seen[target.CorrelationID] = struct{}{}
	}

	def, err := d.persistence.WorkflowDefinitionByID(ctx, workflowID)
	if err != nil {
		return nil, fmt.Errorf("loading workflow %s: %w", workflowID, err)
	}

	// Stored definitions are validated on save, but the catalog may have
	// tightened since then. Re-validate before spending backend capacity.
	if err := d.store.Validate(def); err != nil {
		return nil, fmt.Errorf("workflow %s no longer valid: %w", workflowID, err)
	}

	jobID, err := d.runner.CreateJob(ctx, runner.CreateJobRequest{
		ProjectID:  projectID,
		WorkflowID: workflowID,
		Targets:    targets,
	})
	if err != nil {
		return nil, fmt.Errorf("creating job for workflow %s: %w", workflowID, err)
	}

	d.logger.InfoContext(ctx, "Job created",
		"job_id", jobID, "workflow_id", workflowID, "target_size", len(targets))

	d.publish(ctx, jobID, events.JobCreated{
		BaseEvent:  events.NewBaseEvent(events.JobCreatedEvent),
		JobID:      jobID,
		WorkflowID: workflowID,
		ProjectID:  projectID,
		TargetSize: len(targets),
	})

	return &Handle{
		JobID:        jobID,
		WorkflowID:   def.ID,
		WorkflowName: def.Name,
		TargetSize:   len(targets),
	}, nil
}

func (d *Dispatcher) publish(ctx context.Context, key string, event eventbus.Event) {
	if d.bus == nil {
		return
	}

	if err := d.bus.Publish(ctx, key, event); err != nil {
		d.logger.ErrorContext(ctx, "Failed to publish event", "event_type", event.GetType(), "error", err)
	}
}
