package validator

import (
	"encoding/json"

	"github.com/SAP-F-2025/form-service/internal/models"
)

// FormCreateRequest represents the request structure for creating forms.
// Fields is optional; when present the full structure is imported in one go.
type FormCreateRequest struct {
	Title       string         `json:"title" validate:"required,form_title"`
	Description *string        `json:"description" validate:"omitempty,form_description"`
	IsQuiz      bool           `json:"is_quiz"`
	Fields      []FieldRequest `json:"fields" validate:"omitempty,max=200,dive"`
}

// FormUpdateRequest represents the request structure for updating form metadata
type FormUpdateRequest struct {
	Title       *string `json:"title" validate:"omitempty,form_title"`
	Description *string `json:"description" validate:"omitempty,form_description"`
}

// FieldRequest describes a complete field inside a create payload
type FieldRequest struct {
	ID          *string          `json:"id" validate:"omitempty,max=64"`
	Label       string           `json:"label" validate:"required,max=1000"`
	Type        models.FieldType `json:"type" validate:"required,field_type"`
	Required    bool             `json:"required"`
	Placeholder *string          `json:"placeholder" validate:"omitempty,max=500"`
	Options     []OptionRequest  `json:"options" validate:"omitempty,max=100,dive"`
}

type OptionRequest struct {
	ID        *string `json:"id" validate:"omitempty,max=64"`
	Text      string  `json:"text" validate:"required,max=500"`
	IsCorrect bool    `json:"is_correct"`
	Points    int     `json:"points" validate:"option_points"`
}

type AddFieldRequest struct {
	Type models.FieldType `json:"type" validate:"required,field_type"`
}

type UpdateFieldRequest struct {
	Label       *string `json:"label" validate:"omitempty,min=1,max=1000"`
	Required    *bool   `json:"required"`
	Placeholder *string `json:"placeholder" validate:"omitempty,max=500"`
}

type ChangeFieldTypeRequest struct {
	Type models.FieldType `json:"type" validate:"required,field_type"`
}

// ReorderFieldsRequest lists every field id of the form in the new display order
type ReorderFieldsRequest struct {
	FieldIDs []string `json:"field_ids" validate:"dive,required"`
}

type AddOptionRequest struct {
	Text string `json:"text" validate:"omitempty,max=500"`
}

type UpdateOptionRequest struct {
	Text   *string `json:"text" validate:"omitempty,min=1,max=500"`
	Points *int    `json:"points" validate:"omitempty,option_points"`
}

type SetOptionCorrectRequest struct {
	IsCorrect *bool `json:"is_correct" validate:"required"`
}

type UpdateStatusRequest struct {
	Status models.FormStatus `json:"status" validate:"required,form_status"`
}

type QuizModeRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

// SubmitResponseRequest carries a respondent's answers keyed by field id
type SubmitResponseRequest struct {
	Answers models.Answers `json:"answers"`
}

// BroadcastRequest is the body of a realtime session broadcast
type BroadcastRequest struct {
	Type    string          `json:"type" validate:"required,max=64"`
	Payload json.RawMessage `json:"payload"`
}
