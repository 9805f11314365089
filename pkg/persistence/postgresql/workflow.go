package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/talentdeck/talentdeck/pkg/models"
	"github.com/talentdeck/talentdeck/pkg/persistence"
)

// WorkflowRepository handles workflow-definition database operations.
type WorkflowRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewWorkflowRepository(db *sql.DB, logger *slog.Logger) *WorkflowRepository {
	return &WorkflowRepository{db: db, logger: logger}
}

func (r *WorkflowRepository) GetAll(ctx context.Context) ([]*models.WorkflowDefinition, error) {
	query := `
		SELECT id, name, type, description, steps, created_at, updated_at
		FROM workflow_definitions
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query workflow definitions: %w", err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	defs := make([]*models.WorkflowDefinition, 0)

	for rows.Next() {
		def, err := scanWorkflowDefinition(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan workflow definition: %w", err)
		}

		defs = append(defs, def)
	}

	return defs, rows.Err()
}

func (r *WorkflowRepository) GetByID(ctx context.Context, id string) (*models.WorkflowDefinition, error) {
	query := `
		SELECT id, name, type, description, steps, created_at, updated_at
		FROM workflow_definitions
		WHERE id = $1
	`

	def, err := scanWorkflowDefinition(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.ErrWorkflowNotFound
		}

		return nil, &persistence.StoreError{Op: "WorkflowDefinitionByID", ID: id, Err: err}
	}

	return def, nil
}

func (r *WorkflowRepository) Save(ctx context.Context, def *models.WorkflowDefinition) error {
	steps, err := json.Marshal(def.Steps)
	if err != nil {
		return &persistence.StoreError{Op: "SaveWorkflowDefinition", ID: def.ID, Err: err}
	}

	query := `
		INSERT INTO workflow_definitions (id, name, type, description, steps, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			type = EXCLUDED.type,
			description = EXCLUDED.description,
			steps = EXCLUDED.steps,
			updated_at = EXCLUDED.updated_at
	`

	_, err = r.db.ExecContext(ctx, query,
		def.ID, def.Name, def.Type, def.Description, steps, def.CreatedAt, def.UpdatedAt)
	if err != nil {
		return &persistence.StoreError{Op: "SaveWorkflowDefinition", ID: def.ID, Err: err}
	}

	return nil
}

func (r *WorkflowRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM workflow_definitions WHERE id = $1`, id)
	if err != nil {
		return &persistence.StoreError{Op: "DeleteWorkflowDefinition", ID: id, Err: err}
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return &persistence.StoreError{Op: "DeleteWorkflowDefinition", ID: id, Err: err}
	}

	if affected == 0 {
		return persistence.ErrWorkflowNotFound
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWorkflowDefinition(row rowScanner) (*models.WorkflowDefinition, error) {
	var (
		def   models.WorkflowDefinition
		steps []byte
	)

	err := row.Scan(&def.ID, &def.Name, &def.Type, &def.Description, &steps, &def.CreatedAt, &def.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if len(steps) > 0 {
		if err := json.Unmarshal(steps, &def.Steps); err != nil {
			return nil, fmt.Errorf("failed to decode steps: %w", err)
		}
	}

	return &def, nil
}
