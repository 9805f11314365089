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

// TemplateRepository handles mapping-template database operations.
type TemplateRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewTemplateRepository(db *sql.DB, logger *slog.Logger) *TemplateRepository {
	return &TemplateRepository{db: db, logger: logger}
}

func (r *TemplateRepository) GetAll(ctx context.Context) ([]*models.MappingTemplate, error) {
	query := `
		SELECT id, name, primary_collection, field_mapping, created_at, updated_at
		FROM mapping_templates
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query mapping templates: %w", err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	templates := make([]*models.MappingTemplate, 0)

	for rows.Next() {
		template, err := scanMappingTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan mapping template: %w", err)
		}

		templates = append(templates, template)
	}

	return templates, rows.Err()
}

func (r *TemplateRepository) GetByID(ctx context.Context, id string) (*models.MappingTemplate, error) {
	query := `
		SELECT id, name, primary_collection, field_mapping, created_at, updated_at
		FROM mapping_templates
		WHERE id = $1
	`

	template, err := scanMappingTemplate(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.ErrTemplateNotFound
		}

		return nil, &persistence.StoreError{Op: "MappingTemplateByID", ID: id, Err: err}
	}

	return template, nil
}

func (r *TemplateRepository) Save(ctx context.Context, template *models.MappingTemplate) error {
	mapping, err := json.Marshal(template.FieldMapping)
	if err != nil {
		return &persistence.StoreError{Op: "SaveMappingTemplate", ID: template.ID, Err: err}
	}

	query := `
		INSERT INTO mapping_templates (id, name, primary_collection, field_mapping, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			primary_collection = EXCLUDED.primary_collection,
			field_mapping = EXCLUDED.field_mapping,
			updated_at = EXCLUDED.updated_at
	`

	_, err = r.db.ExecContext(ctx, query,
		template.ID, template.Name, template.PrimaryCollection, mapping, template.CreatedAt, template.UpdatedAt)
	if err != nil {
		return &persistence.StoreError{Op: "SaveMappingTemplate", ID: template.ID, Err: err}
	}

	return nil
}

func (r *TemplateRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM mapping_templates WHERE id = $1`, id)
	if err != nil {
		return &persistence.StoreError{Op: "DeleteMappingTemplate", ID: id, Err: err}
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return &persistence.StoreError{Op: "DeleteMappingTemplate", ID: id, Err: err}
	}

	if affected == 0 {
		return persistence.ErrTemplateNotFound
	}

	return nil
}

func scanMappingTemplate(row rowScanner) (*models.MappingTemplate, error) {
	var (
		template models.MappingTemplate
		mapping  []byte
	)

	err := row.Scan(&template.ID, &template.Name, &template.PrimaryCollection,
		&mapping, &template.CreatedAt, &template.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if len(mapping) > 0 {
		if err := json.Unmarshal(mapping, &template.FieldMapping); err != nil {
			return nil, fmt.Errorf("failed to decode field mapping: %w", err)
		}
	}

	return &template, nil
}
