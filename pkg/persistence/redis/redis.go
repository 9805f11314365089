// Package redis provides Redis-backed persistence for workflow definitions
// and mapping templates. Entities are JSON values keyed by id with a set
// per collection as the listing index.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	redis "github.com/redis/go-redis/v9"
	"github.com/talentdeck/talentdeck/pkg/models"
	"github.com/talentdeck/talentdeck/pkg/persistence"
)

const (
	workflowKeyPrefix = "talentdeck:workflows:"
	workflowIndexKey  = "talentdeck:workflows"
	templateKeyPrefix = "talentdeck:templates:"
	templateIndexKey  = "talentdeck:templates"
)

// Persistence implements persistence.Persistence on Redis.
type Persistence struct {
	client redis.UniversalClient
}

func NewPersistence(redisURL string) (*Persistence, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	return &Persistence{client: redis.NewClient(opts)}, nil
}

// NewPersistenceWithClient wires an existing client, used by tests.
func NewPersistenceWithClient(client redis.UniversalClient) *Persistence {
	return &Persistence{client: client}
}

func (p *Persistence) Close(_ context.Context) error {
	return p.client.Close()
}

func (p *Persistence) HealthCheck(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

func (p *Persistence) WorkflowDefinitions(ctx context.Context) ([]*models.WorkflowDefinition, error) {
	defs := make([]*models.WorkflowDefinition, 0)

	err := p.scanIndex(ctx, workflowIndexKey, workflowKeyPrefix, func(data []byte) error {
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

func (p *Persistence) WorkflowDefinitionByID(ctx context.Context, id string) (*models.WorkflowDefinition, error) {
	data, err := p.client.Get(ctx, workflowKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, persistence.ErrWorkflowNotFound
		}

		return nil, &persistence.StoreError{Op: "WorkflowDefinitionByID", ID: id, Err: err}
	}

	var def models.WorkflowDefinition
	if err := json.Unmarshal(data, &def); err != nil {
		return nil, &persistence.StoreError{Op: "WorkflowDefinitionByID", ID: id, Err: err}
	}

	return &def, nil
}

func (p *Persistence) SaveWorkflowDefinition(ctx context.Context, def *models.WorkflowDefinition) error {
	return p.save(ctx, workflowIndexKey, workflowKeyPrefix, def.ID, def, "SaveWorkflowDefinition")
}

func (p *Persistence) DeleteWorkflowDefinition(ctx context.Context, id string) error {
	return p.delete(ctx, workflowIndexKey, workflowKeyPrefix, id, persistence.ErrWorkflowNotFound, "DeleteWorkflowDefinition")
}

func (p *Persistence) MappingTemplates(ctx context.Context) ([]*models.MappingTemplate, error) {
	templates := make([]*models.MappingTemplate, 0)

	err := p.scanIndex(ctx, templateIndexKey, templateKeyPrefix, func(data []byte) error {
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

func (p *Persistence) MappingTemplateByID(ctx context.Context, id string) (*models.MappingTemplate, error) {
	data, err := p.client.Get(ctx, templateKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, persistence.ErrTemplateNotFound
		}

		return nil, &persistence.StoreError{Op: "MappingTemplateByID", ID: id, Err: err}
	}

	var template models.MappingTemplate
	if err := json.Unmarshal(data, &template); err != nil {
		return nil, &persistence.StoreError{Op: "MappingTemplateByID", ID: id, Err: err}
	}

	return &template, nil
}

func (p *Persistence) SaveMappingTemplate(ctx context.Context, template *models.MappingTemplate) error {
	return p.save(ctx, templateIndexKey, templateKeyPrefix, template.ID, template, "SaveMappingTemplate")
}

func (p *Persistence) DeleteMappingTemplate(ctx context.Context, id string) error {
	return p.delete(ctx, templateIndexKey, templateKeyPrefix, id, persistence.ErrTemplateNotFound, "DeleteMappingTemplate")
}

func (p *Persistence) save(ctx context.Context, indexKey, prefix, id string, in any, op string) error {
	if id == "" {
		return &persistence.StoreError{Op: op, Err: errors.New("entity id is empty")}
	}

	data, err := json.Marshal(in)
	if err != nil {
		return &persistence.StoreError{Op: op, ID: id, Err: err}
	}

	pipe := p.client.TxPipeline()
	pipe.Set(ctx, prefix+id, data, 0)
	pipe.SAdd(ctx, indexKey, id)

	if _, err := pipe.Exec(ctx); err != nil {
		return &persistence.StoreError{Op: op, ID: id, Err: err}
	}

	return nil
}

func (p *Persistence) delete(ctx context.Context, indexKey, prefix, id string, notFound error, op string) error {
	removed, err := p.client.Del(ctx, prefix+id).Result()
	if err != nil {
		return &persistence.StoreError{Op: op, ID: id, Err: err}
	}

	if removed == 0 {
		return notFound
	}

	if err := p.client.SRem(ctx, indexKey, id).Err(); err != nil {
		return &persistence.StoreError{Op: op, ID: id, Err: err}
	}

	return nil
}

func (p *Persistence) scanIndex(ctx context.Context, indexKey, prefix string, apply func(data []byte) error) error {
	ids, err := p.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return &persistence.StoreError{Op: "scanIndex", Err: err}
	}

	for _, id := range ids {
		data, err := p.client.Get(ctx, prefix+id).Bytes()
		if err != nil {
			// Index entries can outlive their value after a partial delete.
			if errors.Is(err, redis.Nil) {
				continue
			}

			return &persistence.StoreError{Op: "scanIndex", ID: id, Err: err}
		}

		if err := apply(data); err != nil {
			return &persistence.StoreError{Op: "scanIndex", ID: id, Err: err}
		}
	}

	return nil
}
