package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/talentdeck/talentdeck/pkg/models"
	"github.com/talentdeck/talentdeck/pkg/persistence"
	"github.com/talentdeck/talentdeck/pkg/workflow"
)

// Workflow manages workflow definitions. Every write is gated by full
// step validation: a definition that would fail at dispatch time is
// never persisted.
type Workflow struct {
	persistence persistence.Persistence
	store       *workflow.Store
	validate    *validator.Validate
	logger      *slog.Logger
}

func NewWorkflow(p persistence.Persistence, store *workflow.Store, logger *slog.Logger) *Workflow {
	return &Workflow{
		persistence: p,
		store:       store,
		validate:    validator.New(),
		logger:      logger.With("module", "workflow_service"),
	}
}

// Catalog exposes the step catalog for the editing surface.
func (w *Workflow) Catalog() []models.StepDefinition {
	return w.store.Catalog().Definitions()
}

// Validate runs the full step validation without persisting anything.
func (w *Workflow) Validate(def *models.WorkflowDefinition) error {
	if err := w.store.Validate(def); err != nil {
		return fmt.Errorf("%w: %w", ErrWorkflowInvalid, err)
	}

	return nil
}

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// ListWorkflowsRequest carries pagination; persistence returns definitions
// newest first, so paging is a window over that order.
type ListWorkflowsRequest struct {
	Limit  int
	Offset int
}

// ListWorkflowsResult is one page plus the totals the console needs.
type ListWorkflowsResult struct {
	Workflows   []*models.WorkflowDefinition
	TotalCount  int
	HasNextPage bool
}

func (w *Workflow) List(ctx context.Context, req ListWorkflowsRequest) (*ListWorkflowsResult, error) {
	defs, err := w.persistence.WorkflowDefinitions(ctx)
	if err != nil {
		return nil, serviceError("listing workflows", "", err)
	}

	limit := req.Limit
	if limit <= 0 {
		limit = defaultListLimit
	} else if limit > maxListLimit {
		limit = maxListLimit
	}

	offset := max(req.Offset, 0)

	total := len(defs)
	if offset > total {
		offset = total
	}

	end := min(offset+limit, total)

	return &ListWorkflowsResult{
		Workflows:   defs[offset:end],
		TotalCount:  total,
		HasNextPage: end < total,
	}, nil
}

func (w *Workflow) ByID(ctx context.Context, id string) (*models.WorkflowDefinition, error) {
	def, err := w.persistence.WorkflowDefinitionByID(ctx, id)

	return def, serviceError("loading workflow", id, err)
}

// Create assigns identity and timestamps and persists the definition.
func (w *Workflow) Create(ctx context.Context, def *models.WorkflowDefinition) (*models.WorkflowDefinition, error) {
	if err := w.validate.Struct(def); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrWorkflowInvalid, err)
	}

	if err := w.Validate(def); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	def.ID = uuid.New().String()
	def.CreatedAt = now
	def.UpdatedAt = now

	if err := w.persistence.SaveWorkflowDefinition(ctx, def); err != nil {
		return nil, serviceError("saving workflow", def.ID, err)
	}

	w.logger.InfoContext(ctx, "Workflow created", "workflow_id", def.ID, "name", def.Name)

	return def, nil
}

// Update replaces a stored definition; identity and creation time are kept.
func (w *Workflow) Update(ctx context.Context, id string, def *models.WorkflowDefinition) (*models.WorkflowDefinition, error) {
	existing, err := w.persistence.WorkflowDefinitionByID(ctx, id)
	if err != nil {
		return nil, serviceError("loading workflow", id, err)
	}

	if err := w.validate.Struct(def); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrWorkflowInvalid, err)
	}

	if err := w.Validate(def); err != nil {
		return nil, err
	}

	def.ID = existing.ID
	def.CreatedAt = existing.CreatedAt
	def.UpdatedAt = time.Now().UTC()

	if err := w.persistence.SaveWorkflowDefinition(ctx, def); err != nil {
		return nil, serviceError("saving workflow", id, err)
	}

	w.logger.InfoContext(ctx, "Workflow updated", "workflow_id", id)

	return def, nil
}

func (w *Workflow) Delete(ctx context.Context, id string) error {
	if err := w.persistence.DeleteWorkflowDefinition(ctx, id); err != nil {
		return serviceError("deleting workflow", id, err)
	}

	w.logger.InfoContext(ctx, "Workflow deleted", "workflow_id", id)

	return nil
}
