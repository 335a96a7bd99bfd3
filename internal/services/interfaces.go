package services

import (
	"context"
	"time"

	"github.com/SAP-F-2025/form-service/internal/models"
	"github.com/SAP-F-2025/form-service/internal/validator"
)

// ===== REQUEST/RESPONSE DTOs =====

// Use business validator types
type CreateFormRequest = validator.FormCreateRequest
type UpdateFormRequest = validator.FormUpdateRequest
type FieldRequest = validator.FieldRequest
type OptionRequest = validator.OptionRequest
type AddFieldRequest = validator.AddFieldRequest
type UpdateFieldRequest = validator.UpdateFieldRequest
type ChangeFieldTypeRequest = validator.ChangeFieldTypeRequest
type ReorderFieldsRequest = validator.ReorderFieldsRequest
type AddOptionRequest = validator.AddOptionRequest
type UpdateOptionRequest = validator.UpdateOptionRequest
type SetOptionCorrectRequest = validator.SetOptionCorrectRequest
type UpdateStatusRequest = validator.UpdateStatusRequest
type QuizModeRequest = validator.QuizModeRequest
type SubmitResponseRequest = validator.SubmitResponseRequest
type BroadcastRequest = validator.BroadcastRequest

type FormResponse struct {
	*models.Form
	CanEdit   bool `json:"can_edit"`
	CanDelete bool `json:"can_delete"`
}

type FormListResponse struct {
	Forms []*FormResponse `json:"forms"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Size  int             `json:"size"`
}

// OptionAddedResponse returns the id of the new option along with the updated form
type OptionAddedResponse struct {
	OptionID string        `json:"option_id"`
	Form     *FormResponse `json:"form"`
}

// ResponseDetail is a stored response with its answers decoded
type ResponseDetail struct {
	ID           uint           `json:"id"`
	FormID       uint           `json:"form_id"`
	RespondentID *string        `json:"respondent_id"`
	Respondent   *models.User   `json:"respondent,omitempty"`
	Answers      models.Answers `json:"answers"`
	Score        *float64       `json:"score"`
	SubmittedAt  time.Time      `json:"submitted_at"`
}

// ExportFile is a rendered spreadsheet ready to be streamed
type ExportFile struct {
	FileName    string
	ContentType string
	Data        []byte
}

// ===== SERVICE INTERFACES =====

type FormService interface {
	// Core CRUD
	Create(ctx context.Context, req *CreateFormRequest, creatorID string) (*FormResponse, error)
	GetByID(ctx context.Context, id uint, userID string) (*FormResponse, error)
	// GetPublished returns the respondent view of a PUBLISHED form
	GetPublished(ctx context.Context, id uint) (*models.Form, error)
	Update(ctx context.Context, id uint, req *UpdateFormRequest, userID string) (*FormResponse, error)
	Delete(ctx context.Context, id uint, userID string) error
	List(ctx context.Context, params models.ListFormsParams, userID string) (*FormListResponse, error)

	// Structure editing
	AddField(ctx context.Context, id uint, req *AddFieldRequest, userID string) (*FormResponse, error)
	UpdateField(ctx context.Context, id uint, fieldID string, req *UpdateFieldRequest, userID string) (*FormResponse, error)
	ChangeFieldType(ctx context.Context, id uint, fieldID string, req *ChangeFieldTypeRequest, userID string) (*FormResponse, error)
	DeleteField(ctx context.Context, id uint, fieldID string, userID string) (*FormResponse, error)
	ReorderFields(ctx context.Context, id uint, req *ReorderFieldsRequest, userID string) (*FormResponse, error)
	AddOption(ctx context.Context, id uint, fieldID string, req *AddOptionRequest, userID string) (*OptionAddedResponse, error)
	UpdateOption(ctx context.Context, id uint, fieldID, optionID string, req *UpdateOptionRequest, userID string) (*FormResponse, error)
	DeleteOption(ctx context.Context, id uint, fieldID, optionID string, userID string) (*FormResponse, error)
	SetOptionCorrect(ctx context.Context, id uint, fieldID, optionID string, req *SetOptionCorrectRequest, userID string) (*FormResponse, error)

	// Status and mode
	UpdateStatus(ctx context.Context, id uint, req *UpdateStatusRequest, userID string) (*models.StatusChangeResponse, error)
	Publish(ctx context.Context, id uint, userID string) (*models.StatusChangeResponse, error)
	Archive(ctx context.Context, id uint, userID string) (*models.StatusChangeResponse, error)
	SetQuizMode(ctx context.Context, id uint, req *QuizModeRequest, userID string) (*FormResponse, error)

	// Permissions
	CanEdit(ctx context.Context, id uint, userID string) (bool, error)
}

type SubmissionService interface {
	// Submit processes answers against the stored form and saves exactly one response
	Submit(ctx context.Context, formID uint, req *SubmitResponseRequest, respondentID *string) (*models.SubmitResponseResult, error)
	GetByID(ctx context.Context, id uint, userID string) (*ResponseDetail, error)
	ListByForm(ctx context.Context, formID uint, params models.ListResponsesParams, userID string) (*models.PaginatedResponse, error)
	CountByForm(ctx context.Context, formID uint, userID string) (int64, error)
	GetResults(ctx context.Context, formID uint, userID string) (*models.FormResults, error)
	Export(ctx context.Context, formID uint, userID string) (*ExportFile, error)
}

type BroadcastService interface {
	// Broadcast publishes to the session topic and returns once the transport accepted it
	Broadcast(ctx context.Context, sessionID string, req *BroadcastRequest, senderID string) error
}

type ServiceManager interface {
	Form() FormService
	Submission() SubmissionService
	Broadcast() BroadcastService

	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
