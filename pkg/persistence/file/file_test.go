package file_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/talentdeck/talentdeck/pkg/models"
	"github.com/talentdeck/talentdeck/pkg/persistence"
	"github.com/talentdeck/talentdeck/pkg/persistence/file"
)

func TestPersistence_WorkflowDefinitions(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := file.NewPersistence(t.TempDir())

	def := &models.WorkflowDefinition{
		ID:        "wf-1",
		Name:      "Profile snapshot",
		CreatedAt: time.Now().UTC(),
		Steps: []*models.StepInstance{
			{Kind: models.ActionNavigate, FieldValues: map[string]string{"url": "https://example.com"}},
		},
	}

	require.NoError(t, store.SaveWorkflowDefinition(ctx, def))

	loaded, err := store.WorkflowDefinitionByID(ctx, "wf-1")
	require.NoError(t, err)
	assert.Equal(t, def.Name, loaded.Name)
	require.Len(t, loaded.Steps, 1)
	assert.Equal(t, models.ActionNavigate, loaded.Steps[0].Kind)

	all, err := store.WorkflowDefinitions(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, store.DeleteWorkflowDefinition(ctx, "wf-1"))

	_, err = store.WorkflowDefinitionByID(ctx, "wf-1")
	assert.ErrorIs(t, err, persistence.ErrWorkflowNotFound)
}

func TestPersistence_WorkflowDefinitions_SortedNewestFirst(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := file.NewPersistence(t.TempDir())
	base := time.Now().UTC()

	for i, id := range []string{"wf-old", "wf-mid", "wf-new"} {
		require.NoError(t, store.SaveWorkflowDefinition(ctx, &models.WorkflowDefinition{
			ID:        id,
			Name:      id,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	all, err := store.WorkflowDefinitions(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "wf-new", all[0].ID)
	assert.Equal(t, "wf-old", all[2].ID)
}

func TestPersistence_MappingTemplates(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := file.NewPersistence(t.TempDir())

	template := &models.MappingTemplate{
		ID:                "tpl-1",
		Name:              "Campaign export",
		PrimaryCollection: "profiles",
		FieldMapping:      map[string]string{"Handle": "data.handle"},
		CreatedAt:         time.Now().UTC(),
	}

	require.NoError(t, store.SaveMappingTemplate(ctx, template))

	loaded, err := store.MappingTemplateByID(ctx, "tpl-1")
	require.NoError(t, err)
	assert.Equal(t, "profiles", loaded.PrimaryCollection)

	require.NoError(t, store.DeleteMappingTemplate(ctx, "tpl-1"))

	_, err = store.MappingTemplateByID(ctx, "tpl-1")
	assert.ErrorIs(t, err, persistence.ErrTemplateNotFound)

	err = store.DeleteMappingTemplate(ctx, "tpl-1")
	assert.ErrorIs(t, err, persistence.ErrTemplateNotFound)
}

func TestPersistence_HealthCheck(t *testing.T) {
	t.Parallel()

	store := file.NewPersistence(t.TempDir() + "/nested/data")
	assert.NoError(t, store.HealthCheck(context.Background()))
}
