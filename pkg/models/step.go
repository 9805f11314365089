package models

// ActionKind identifies one kind of browser-automation step. The catalog
// is closed: definitions referencing any other kind are rejected on
// validation, not at dispatch time.
type ActionKind string

const (
	ActionNavigate           ActionKind = "navigate"
	ActionWaitForSelector    ActionKind = "waitForSelector"
	ActionClick              ActionKind = "click"
	ActionScreenshot         ActionKind = "screenshot"
	ActionWait               ActionKind = "wait"
	ActionScrollPage         ActionKind = "scrollPage"
	ActionWaitForNetworkIdle ActionKind = "waitForNetworkIdle"
	ActionExtractData        ActionKind = "extractData"
	ActionCompositeExtract   ActionKind = "compositeExtract"
)

// ActionKinds returns every supported kind in catalog order.
func ActionKinds() []ActionKind {
	return []ActionKind{
		ActionNavigate,
		ActionWaitForSelector,
		ActionClick,
		ActionScreenshot,
		ActionWait,
		ActionScrollPage,
		ActionWaitForNetworkIdle,
		ActionExtractData,
		ActionCompositeExtract,
	}
}

// FieldType is the input widget a step field renders as.
type FieldType string

const (
	FieldTypeText     FieldType = "text"
	FieldTypeNumber   FieldType = "number"
	FieldTypeCheckbox FieldType = "checkbox"
	FieldTypeTextarea FieldType = "textarea"
)

// FieldSpec describes one configurable field of a step kind.
type FieldSpec struct {
	Name        string    `json:"name"`
	Label       string    `json:"label"`
	Type        FieldType `json:"type"`
	Required    bool      `json:"required"`
	Placeholder string    `json:"placeholder,omitempty"`
}

// StepDefinition is the catalog entry for one action kind: its display
// metadata and the fields an instance may configure.
type StepDefinition struct {
	Kind                    ActionKind  `json:"kind"`
	Title                   string      `json:"title"`
	Fields                  []FieldSpec `json:"fields"`
	SupportsCompositeSource bool        `json:"supportsCompositeSource,omitempty"`
}

// RequiredFields returns the names of the fields an instance must fill.
func (d StepDefinition) RequiredFields() []string {
	var names []string

	for _, field := range d.Fields {
		if field.Required {
			names = append(names, field.Name)
		}
	}

	return names
}
