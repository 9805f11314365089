// Package workflow holds the step-definition catalog and the validation
// gate that keeps malformed automation instructions from reaching the
// runner fleet.
package workflow

import "github.com/talentdeck/talentdeck/pkg/models"

// definition returns the StepDefinition for a kind. The switch is
// exhaustive over the closed ActionKind set; an unknown kind falls through
// to ok=false.
func definition(kind models.ActionKind) (models.StepDefinition, bool) {
	switch kind {
	case models.ActionNavigate:
		return models.StepDefinition{
			Kind:  models.ActionNavigate,
			Title: "Navigate to URL",
			Fields: []models.FieldSpec{
				{Name: "url", Label: "URL", Type: models.FieldTypeText, Required: true, Placeholder: "https://example.com"},
			},
		}, true
	case models.ActionWaitForSelector:
		return models.StepDefinition{
			Kind:  models.ActionWaitForSelector,
			Title: "Wait for element",
			Fields: []models.FieldSpec{
				{Name: "selector", Label: "CSS selector", Type: models.FieldTypeText, Required: true, Placeholder: ".profile-card"},
				{Name: "timeout", Label: "Timeout (ms)", Type: models.FieldTypeNumber, Required: false},
			},
		}, true
	case models.ActionClick:
		return models.StepDefinition{
			Kind:  models.ActionClick,
			Title: "Click element",
			Fields: []models.FieldSpec{
				{Name: "selector", Label: "CSS selector", Type: models.FieldTypeText, Required: true},
			},
		}, true
	case models.ActionScreenshot:
		return models.StepDefinition{
			Kind:  models.ActionScreenshot,
			Title: "Take screenshot",
			Fields: []models.FieldSpec{
				{Name: "name", Label: "Screenshot name", Type: models.FieldTypeText, Required: true},
				{Name: "full_page", Label: "Capture full page", Type: models.FieldTypeCheckbox, Required: false},
			},
		}, true
	case models.ActionWait:
		return models.StepDefinition{
			Kind:  models.ActionWait,
			Title: "Wait",
			Fields: []models.FieldSpec{
				{Name: "duration", Label: "Duration (ms)", Type: models.FieldTypeNumber, Required: true, Placeholder: "1000"},
			},
		}, true
	case models.ActionScrollPage:
		return models.StepDefinition{
			Kind:  models.ActionScrollPage,
			Title: "Scroll page",
			Fields: []models.FieldSpec{
				{Name: "distance", Label: "Distance (px, empty = to bottom)", Type: models.FieldTypeNumber, Required: false},
			},
		}, true
	case models.ActionWaitForNetworkIdle:
		return models.StepDefinition{
			Kind:   models.ActionWaitForNetworkIdle,
			Title:  "Wait for network idle",
			Fields: []models.FieldSpec{},
		}, true
	case models.ActionExtractData:
		return models.StepDefinition{
			Kind:  models.ActionExtractData,
			Title: "Extract data",
			Fields: []models.FieldSpec{
				{Name: "label", Label: "Field label", Type: models.FieldTypeText, Required: true, Placeholder: "follower_count"},
				{Name: "selector", Label: "CSS selector", Type: models.FieldTypeText, Required: true},
				{Name: "attribute", Label: "Attribute (empty = text)", Type: models.FieldTypeText, Required: false},
			},
		}, true
	case models.ActionCompositeExtract:
		return models.StepDefinition{
			Kind:  models.ActionCompositeExtract,
			Title: "Composite extract",
			Fields: []models.FieldSpec{
				{Name: "label", Label: "Field label", Type: models.FieldTypeText, Required: true},
				{Name: "template", Label: "Value template", Type: models.FieldTypeTextarea, Required: false},
			},
			SupportsCompositeSource: true,
		}, true
	}

	return models.StepDefinition{}, false
}

// Catalog exposes the closed set of step definitions.
type Catalog struct{}

func NewCatalog() *Catalog {
	return &Catalog{}
}

// Resolve returns the StepDefinition for kind.
func (c *Catalog) Resolve(kind models.ActionKind) (models.StepDefinition, error) {
	def, ok := definition(kind)
	if !ok {
		return models.StepDefinition{}, &ValidationError{
			Err:  ErrUnknownActionKind,
			Kind: kind,
		}
	}

	return def, nil
}

// Definitions returns every StepDefinition in catalog order, for the
// console's step-picker UI.
func (c *Catalog) Definitions() []models.StepDefinition {
	kinds := models.ActionKinds()
	defs := make([]models.StepDefinition, 0, len(kinds))

	for _, kind := range kinds {
		def, ok := definition(kind)
		if ok {
			defs = append(defs, def)
		}
	}

	return defs
}
