// Package postgresql provides PostgreSQL persistence for workflow
// definitions and mapping templates.
package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	// Registers the postgres driver.
	_ "github.com/lib/pq"

	"github.com/talentdeck/talentdeck/pkg/models"
	"github.com/talentdeck/talentdeck/pkg/persistence/sqlbase"
)

// Persistence implements the persistence layer for PostgreSQL.
type Persistence struct {
	db           *sql.DB
	logger       *slog.Logger
	workflowRepo *WorkflowRepository
	templateRepo *TemplateRepository
}

func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	if err := database.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	migrationManager := sqlbase.NewMigrationManager(logger, database, migrations())
	if err := migrationManager.RunMigrations(ctx); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Persistence{
		db:           database,
		logger:       logger,
		workflowRepo: NewWorkflowRepository(database, logger),
		templateRepo: NewTemplateRepository(database, logger),
	}, nil
}

func (p *Persistence) Close(_ context.Context) error {
	if p.db != nil {
		if err := p.db.Close(); err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}

func (p *Persistence) HealthCheck(ctx context.Context) error {
	if err := p.db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

func (p *Persistence) WorkflowDefinitions(ctx context.Context) ([]*models.WorkflowDefinition, error) {
	return p.workflowRepo.GetAll(ctx)
}

func (p *Persistence) WorkflowDefinitionByID(ctx context.Context, id string) (*models.WorkflowDefinition, error) {
	return p.workflowRepo.GetByID(ctx, id)
}

func (p *Persistence) SaveWorkflowDefinition(ctx context.Context, def *models.WorkflowDefinition) error {
	return p.workflowRepo.Save(ctx, def)
}

func (p *Persistence) DeleteWorkflowDefinition(ctx context.Context, id string) error {
	return p.workflowRepo.Delete(ctx, id)
}

func (p *Persistence) MappingTemplates(ctx context.Context) ([]*models.MappingTemplate, error) {
	return p.templateRepo.GetAll(ctx)
}

func (p *Persistence) MappingTemplateByID(ctx context.Context, id string) (*models.MappingTemplate, error) {
	return p.templateRepo.GetByID(ctx, id)
}

func (p *Persistence) SaveMappingTemplate(ctx context.Context, template *models.MappingTemplate) error {
	return p.templateRepo.Save(ctx, template)
}

func (p *Persistence) DeleteMappingTemplate(ctx context.Context, id string) error {
	return p.templateRepo.Delete(ctx, id)
}

func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE workflow_definitions (
				id VARCHAR(64) PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				type VARCHAR(64),
				description TEXT,
				steps JSONB NOT NULL DEFAULT '[]',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_workflow_definitions_created_at ON workflow_definitions(created_at);
		`,
		2: `
			CREATE TABLE mapping_templates (
				id VARCHAR(64) PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				primary_collection VARCHAR(255) NOT NULL,
				field_mapping JSONB NOT NULL DEFAULT '{}',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_mapping_templates_created_at ON mapping_templates(created_at);
		`,
	}
}
