package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/xeipuuv/gojsonschema"

	"github.com/talentdeck/talentdeck/pkg/models"
	"github.com/talentdeck/talentdeck/pkg/persistence"
)

// templateSchema constrains the mapping document: a named template, a
// primary collection, and a string-to-string field mapping with at least
// one entry.
const templateSchema = `{
	"type": "object",
	"required": ["name", "primary_collection", "field_mapping"],
	"properties": {
		"name": {"type": "string", "minLength": 3},
		"primary_collection": {"type": "string", "minLength": 1},
		"field_mapping": {
			"type": "object",
			"minProperties": 1,
			"additionalProperties": {"type": "string", "minLength": 1}
		}
	}
}`

// Template manages report mapping templates.
type Template struct {
	persistence persistence.Persistence
	schema      *gojsonschema.Schema
	logger      *slog.Logger
}

func NewTemplate(p persistence.Persistence, logger *slog.Logger) (*Template, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(templateSchema))
	if err != nil {
		return nil, fmt.Errorf("compiling template schema: %w", err)
	}

	return &Template{
		persistence: p,
		schema:      schema,
		logger:      logger.With("module", "template_service"),
	}, nil
}

// Validate checks the mapping document against the schema.
func (t *Template) Validate(template *models.MappingTemplate) error {
	document := map[string]any{
		"name":               template.Name,
		"primary_collection": template.PrimaryCollection,
		"field_mapping":      template.FieldMapping,
	}

	result, err := t.schema.Validate(gojsonschema.NewGoLoader(document))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTemplateInvalid, err)
	}

	if !result.Valid() {
		return fmt.Errorf("%w: %s", ErrTemplateInvalid, result.Errors()[0])
	}

	return nil
}

func (t *Template) List(ctx context.Context) ([]*models.MappingTemplate, error) {
	templates, err := t.persistence.MappingTemplates(ctx)

	return templates, serviceError("listing templates", "", err)
}

func (t *Template) ByID(ctx context.Context, id string) (*models.MappingTemplate, error) {
	template, err := t.persistence.MappingTemplateByID(ctx, id)

	return template, serviceError("loading template", id, err)
}

func (t *Template) Create(ctx context.Context, template *models.MappingTemplate) (*models.MappingTemplate, error) {
	if err := t.Validate(template); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	template.ID = uuid.New().String()
	template.CreatedAt = now
	template.UpdatedAt = now

	if err := t.persistence.SaveMappingTemplate(ctx, template); err != nil {
		return nil, serviceError("saving template", template.ID, err)
	}

	t.logger.InfoContext(ctx, "Template created", "template_id", template.ID, "name", template.Name)

	return template, nil
}

func (t *Template) Update(ctx context.Context, id string, template *models.MappingTemplate) (*models.MappingTemplate, error) {
	existing, err := t.persistence.MappingTemplateByID(ctx, id)
	if err != nil {
		return nil, serviceError("loading template", id, err)
	}

	if err := t.Validate(template); err != nil {
		return nil, err
	}

	template.ID = existing.ID
	template.CreatedAt = existing.CreatedAt
	template.UpdatedAt = time.Now().UTC()

	if err := t.persistence.SaveMappingTemplate(ctx, template); err != nil {
		return nil, serviceError("saving template", id, err)
	}

	t.logger.InfoContext(ctx, "Template updated", "template_id", id)

	return template, nil
}

func (t *Template) Delete(ctx context.Context, id string) error {
	if err := t.persistence.DeleteMappingTemplate(ctx, id); err != nil {
		return serviceError("deleting template", id, err)
	}

	t.logger.InfoContext(ctx, "Template deleted", "template_id", id)

	return nil
}
