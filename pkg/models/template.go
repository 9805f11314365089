package models

import "time"

// MappingTemplate specifies how completed task results are assembled into a
// report artifact: which result collection drives the rows and how columns
// map onto data paths inside each task's result.
type MappingTemplate struct {
	ID                string            `json:"id"`
	Name              string            `json:"name"               validate:"required,min=3"`
	PrimaryCollection string            `json:"primary_collection" validate:"required"`
	FieldMapping      map[string]string `json:"field_mapping"      validate:"required,min=1"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}
