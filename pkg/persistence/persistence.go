// Package persistence provides the storage abstraction for workflow
// definitions and mapping templates. Jobs and tasks are not stored here:
// the runner backend is their sole authority and the reconciler keeps an
// in-memory cache of them.
package persistence

import (
	"context"

	"github.com/talentdeck/talentdeck/pkg/models"
)

type Persistence interface {
	WorkflowDefinitions(ctx context.Context) ([]*models.WorkflowDefinition, error)
	WorkflowDefinitionByID(ctx context.Context, id string) (*models.WorkflowDefinition, error)
	SaveWorkflowDefinition(ctx context.Context, def *models.WorkflowDefinition) error
	DeleteWorkflowDefinition(ctx context.Context, id string) error

	MappingTemplates(ctx context.Context) ([]*models.MappingTemplate, error)
	MappingTemplateByID(ctx context.Context, id string) (*models.MappingTemplate, error)
	SaveMappingTemplate(ctx context.Context, template *models.MappingTemplate) error
	DeleteMappingTemplate(ctx context.Context, id string) error

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}
