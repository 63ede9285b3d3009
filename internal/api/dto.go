package api

import (
	"github.com/starford/tessera/internal/template"
)

// TemplateDetail is the full template response type (aliased from the domain layer).
type TemplateDetail = template.Template

// CreateTemplateRequest is the request body for creating a template.
type CreateTemplateRequest struct {
	Name string `json:"name" example:"Керамогранит 60x60" validate:"required"`
}

// ReorderRequest moves a template between list positions.
type ReorderRequest struct {
	From int `json:"from" example:"0" validate:"required"`
	To   int `json:"to" example:"2" validate:"required"`
}

// ActiveResponse carries the active selection; ID is null when none.
type ActiveResponse struct {
	ID *int64 `json:"id"`
}

// FilterResponse carries the committed import denylist.
type FilterResponse struct {
	IDs []string `json:"ids" validate:"required"`
}

// ImportRequest executes a page-to-template import.
type ImportRequest struct {
	Mode       string `json:"mode" example:"replace" validate:"required"` // "replace" or "merge"
	TemplateID *int64 `json:"templateId,omitempty"` // default: active template
}

// ImportResponse reports the import outcome. Filtered and Unknown are
// informational counts, not errors.
type ImportResponse struct {
	Template TemplateDetail `json:"template" validate:"required"`
	Imported int            `json:"imported" example:"12" validate:"required"`
	Filtered int            `json:"filtered" example:"2"`
	Unknown  int            `json:"unknown" example:"1"`
}

// CalcRequest supplies inputs for one derived-property calculation.
// When TemplateID is set, the template's properties and dimensions are
// used and the inline fields are ignored.
type CalcRequest struct {
	TemplateID *int64              `json:"templateId,omitempty"`
	Properties []template.Property `json:"properties,omitempty"`
	Length     string              `json:"length,omitempty" example:"60"`
	Width      string              `json:"width,omitempty" example:"60"`
}

// CalcResponse is one derived value. Derivable is false when no input
// combination was satisfiable.
type CalcResponse struct {
	Derivable bool   `json:"derivable" validate:"required"`
	Value     string `json:"value,omitempty" example:"0.36"`
}

// ShapeResponse is the shape option derived from the dimensions.
type ShapeResponse struct {
	OptionID string `json:"optionId" example:"6361" validate:"required"`
}

// WebhookRequest sets the AI search webhook URL; empty clears it.
type WebhookRequest struct {
	URL string `json:"url" example:"https://hooks.example.com/ai-search"`
}

// SearchRequest asks the AI webhook for property value suggestions.
type SearchRequest struct {
	Context    string `json:"context" validate:"required"`
	TemplateID *int64 `json:"templateId,omitempty"` // default: active template
}

// FillRequest writes values into the page. When TemplateID is nil the
// active template is used.
type FillRequest struct {
	TemplateID *int64 `json:"templateId,omitempty"`
	// OnlyMissing restricts the write to properties absent from the page.
	OnlyMissing bool `json:"onlyMissing,omitempty"`
}

// FillResponse reports how many rows were written.
type FillResponse struct {
	Filled int `json:"filled" example:"14" validate:"required"`
}

// MissingResponse lists the template properties absent from the page.
type MissingResponse struct {
	Missing []template.Property `json:"missing" validate:"required"`
}

// CleanResponse is the operator-facing clean-empty summary.
type CleanResponse struct {
	Message string `json:"message" example:"removed 3 empty rows" validate:"required"`
}
