package workflow_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/talentdeck/talentdeck/pkg/models"
	"github.com/talentdeck/talentdeck/pkg/workflow"
)

func validDefinition() *models.WorkflowDefinition {
	return &models.WorkflowDefinition{
		ID:   "wf-1",
		Name: "Profile snapshot",
		Steps: []*models.StepInstance{
			{
				Kind:        models.ActionNavigate,
				FieldValues: map[string]string{"url": "https://example.com/p/{{handle}}"},
			},
			{
				Kind:        models.ActionWaitForSelector,
				FieldValues: map[string]string{"selector": ".profile"},
			},
			{
				Kind:        models.ActionScreenshot,
				FieldValues: map[string]string{"name": "profile"},
			},
		},
	}
}

func TestStore_Validate_OK(t *testing.T) {
	t.Parallel()

	store := workflow.NewStore()
	assert.NoError(t, store.Validate(validDefinition()))
}

func TestStore_Validate_EmptyWorkflow(t *testing.T) {
	t.Parallel()

	store := workflow.NewStore()

	err := store.Validate(&models.WorkflowDefinition{ID: "wf-1", Name: "empty"})
	assert.ErrorIs(t, err, workflow.ErrEmptyWorkflow)

	err = store.Validate(nil)
	assert.ErrorIs(t, err, workflow.ErrEmptyWorkflow)
}

func TestStore_Validate_MissingRequiredField(t *testing.T) {
	t.Parallel()

	store := workflow.NewStore()

	tests := []struct {
		name  string
		step  *models.StepInstance
		field string
	}{
		{
			name:  "absent value",
			step:  &models.StepInstance{Kind: models.ActionNavigate},
			field: "url",
		},
		{
			name: "whitespace value",
			step: &models.StepInstance{
				Kind:        models.ActionNavigate,
				FieldValues: map[string]string{"url": "   "},
			},
			field: "url",
		},
		{
			name: "second required field empty",
			step: &models.StepInstance{
				Kind:        models.ActionExtractData,
				FieldValues: map[string]string{"label": "followers"},
			},
			field: "selector",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			def := validDefinition()
			def.Steps = append(def.Steps, tt.step)

			err := store.Validate(def)
			require.ErrorIs(t, err, workflow.ErrMissingRequiredField)

			var verr *workflow.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, len(def.Steps)-1, verr.StepIndex)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestStore_Validate_OptionalFieldsMayBeEmpty(t *testing.T) {
	t.Parallel()

	store := workflow.NewStore()
	def := validDefinition()
	def.Steps = append(def.Steps,
		&models.StepInstance{Kind: models.ActionScrollPage},
		&models.StepInstance{Kind: models.ActionWaitForNetworkIdle},
		&models.StepInstance{
			Kind:        models.ActionWait,
			FieldValues: map[string]string{"duration": "500"},
		},
	)

	assert.NoError(t, store.Validate(def))
}

func TestStore_Validate_CompositeExtract(t *testing.T) {
	t.Parallel()

	store := workflow.NewStore()

	tests := []struct {
		name    string
		sources []*models.CompositeSource
		wantErr error
	}{
		{
			name:    "no sources",
			sources: nil,
			wantErr: workflow.ErrEmptySourceList,
		},
		{
			name:    "blank name",
			sources: []*models.CompositeSource{{Name: "", Selector: ".a"}},
			wantErr: workflow.ErrEmptySourceList,
		},
		{
			name:    "blank selector",
			sources: []*models.CompositeSource{{Name: "handle", Selector: " "}},
			wantErr: workflow.ErrEmptySourceList,
		},
		{
			name: "valid sources",
			sources: []*models.CompositeSource{
				{Name: "handle", Selector: ".handle"},
				{Name: "bio", Selector: ".bio"},
			},
			wantErr: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			def := validDefinition()
			def.Steps = append(def.Steps, &models.StepInstance{
				Kind:        models.ActionCompositeExtract,
				FieldValues: map[string]string{"label": "summary"},
				Sources:     tt.sources,
			})

			err := store.Validate(def)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestStore_Validate_UnknownKind(t *testing.T) {
	t.Parallel()

	store := workflow.NewStore()
	def := validDefinition()
	def.Steps = append(def.Steps, &models.StepInstance{Kind: "teleport"})

	assert.ErrorIs(t, store.Validate(def), workflow.ErrUnknownActionKind)
}

func TestCatalog_Resolve(t *testing.T) {
	t.Parallel()

	catalog := workflow.NewCatalog()

	for _, kind := range models.ActionKinds() {
		def, err := catalog.Resolve(kind)
		require.NoError(t, err, "kind %s", kind)
		assert.Equal(t, kind, def.Kind)
	}

	_, err := catalog.Resolve("teleport")
	assert.ErrorIs(t, err, workflow.ErrUnknownActionKind)
}

func TestCatalog_Definitions(t *testing.T) {
	t.Parallel()

	defs := workflow.NewCatalog().Definitions()
	assert.Len(t, defs, len(models.ActionKinds()))

	composite := defs[len(defs)-1]
	assert.Equal(t, models.ActionCompositeExtract, composite.Kind)
	assert.True(t, composite.SupportsCompositeSource)
}
