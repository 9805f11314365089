// Package file provides file-based persistence for workflow definitions
// and mapping templates. Each entity is one JSON document under the root
// directory; suitable for development and single-node deployments.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/talentdeck/talentdeck/pkg/models"
	"github.com/talentdeck/talentdeck/pkg/persistence"
)

const (
	workflowsDir = "workflows"
	templatesDir = "templates"
	dirMode      = 0o755
	fileMode     = 0o644
)

// Persistence implements persistence.Persistence on the file system.
type Persistence struct {
	root string
}

func NewPersistence(root string) *Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	return &Persistence{root: cleanRoot}
}

func (p *Persistence) Close(_ context.Context) error {
	return nil
}

func (p *Persistence) HealthCheck(_ context.Context) error {
	if err := os.MkdirAll(p.root, dirMode); err != nil {
		return fmt.Errorf("persistence root unavailable: %w", err)
	}

	return nil
}

func (p *Persistence) WorkflowDefinitions(ctx context.Context) ([]*models.WorkflowDefinition, error) {
	defs := make([]*models.WorkflowDefinition, 0)

	err := p.readAll(workflowsDir, func(data []byte) error {
		var def models.WorkflowDefinition
		if err := json.Unmarshal(data, &def); err != nil {
			return err
		}

		defs = append(defs, &def)

		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(defs, func(i, j int) bool {
		return defs[i].CreatedAt.After(defs[j].CreatedAt)
	})

	return defs, nil
}

func (p *Persistence) WorkflowDefinitionByID(_ context.Context, id string) (*models.WorkflowDefinition, error) {
	var def models.WorkflowDefinition

	err := p.readOne(workflowsDir, id, &def)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, persistence.ErrWorkflowNotFound
		}

		return nil, &persistence.StoreError{Op: "WorkflowDefinitionByID", ID: id, Err: err}
	}

	return &def, nil
}

func (p *Persistence) SaveWorkflowDefinition(_ context.Context, def *models.WorkflowDefinition) error {
	if err := p.writeOne(workflowsDir, def.ID, def); err != nil {
		return &persistence.StoreError{Op: "SaveWorkflowDefinition", ID: def.ID, Err: err}
	}

	return nil
}

func (p *Persistence) DeleteWorkflowDefinition(_ context.Context, id string) error {
	err := os.Remove(p.path(workflowsDir, id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return persistence.ErrWorkflowNotFound
		}

		return &persistence.StoreError{Op: "DeleteWorkflowDefinition", ID: id, Err: err}
	}

	return nil
}

func (p *Persistence) MappingTemplates(ctx context.Context) ([]*models.MappingTemplate, error) {
	templates := make([]*models.MappingTemplate, 0)

	err := p.readAll(templatesDir, func(data []byte) error {
		var template models.MappingTemplate
		if err := json.Unmarshal(data, &template); err != nil {
			return err
		}

		templates = append(templates, &template)

		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(templates, func(i, j int) bool {
		return templates[i].CreatedAt.After(templates[j].CreatedAt)
	})

	return templates, nil
}

func (p *Persistence) MappingTemplateByID(_ context.Context, id string) (*models.MappingTemplate, error) {
	var template models.MappingTemplate

	err := p.readOne(templatesDir, id, &template)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, persistence.ErrTemplateNotFound
		}

		return nil, &persistence.StoreError{Op: "MappingTemplateByID", ID: id, Err: err}
	}

	return &template, nil
}

func (p *Persistence) SaveMappingTemplate(_ context.Context, template *models.MappingTemplate) error {
	if err := p.writeOne(templatesDir, template.ID, template); err != nil {
		return &persistence.StoreError{Op: "SaveMappingTemplate", ID: template.ID, Err: err}
	}

	return nil
}

func (p *Persistence) DeleteMappingTemplate(_ context.Context, id string) error {
	err := os.Remove(p.path(templatesDir, id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return persistence.ErrTemplateNotFound
		}

		return &persistence.StoreError{Op: "DeleteMappingTemplate", ID: id, Err: err}
	}

	return nil
}

func (p *Persistence) path(dir, id string) string {
	return filepath.Join(p.root, dir, id+".json")
}

func (p *Persistence) readOne(dir, id string, out any) error {
	data, err := os.ReadFile(p.path(dir, id))
	if err != nil {
		return err
	}

	return json.Unmarshal(data, out)
}

func (p *Persistence) writeOne(dir, id string, in any) error {
	if id == "" {
		return errors.New("entity id is empty")
	}

	if err := os.MkdirAll(filepath.Join(p.root, dir), dirMode); err != nil {
		return err
	}

	data, err := json.MarshalIndent(in, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(p.path(dir, id), data, fileMode)
}

func (p *Persistence) readAll(dir string, apply func(data []byte) error) error {
	entries, err := os.ReadDir(filepath.Join(p.root, dir))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}

		return &persistence.StoreError{Op: "readAll", Err: err}
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(p.root, dir, entry.Name()))
		if err != nil {
			return &persistence.StoreError{Op: "readAll", ID: entry.Name(), Err: err}
		}

		if err := apply(data); err != nil {
			return &persistence.StoreError{Op: "readAll", ID: entry.Name(), Err: err}
		}
	}

	return nil
}
