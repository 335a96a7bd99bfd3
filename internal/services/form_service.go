package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/SAP-F-2025/form-service/internal/events"
	"github.com/SAP-F-2025/form-service/internal/models"
	"github.com/SAP-F-2025/form-service/internal/repositories"
	"github.com/SAP-F-2025/form-service/internal/validator"
	"gorm.io/gorm"
)

type formService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher

	ids models.IDGenerator
	now func() time.Time
}

func NewFormService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, publisher events.EventPublisher) FormService {
	return &formService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
		publisher: publisher,
		now:       time.Now,
	}
}

// ===== CORE CRUD OPERATIONS =====

func (s *formService) Create(ctx context.Context, req *CreateFormRequest, creatorID string) (*FormResponse, error) {
	s.logger.Info("Creating form", "creator_id", creatorID, "title", req.Title)

	// Validate request with business rules
	if errors := s.validator.GetBusinessValidator().ValidateFormCreate(req); len(errors) > 0 {
		return nil, errors
	}

	// Check user permissions
	role, err := s.getUserRole(ctx, creatorID)
	if err != nil {
		return nil, fmt.Errorf("permission check failed: %w", err)
	}
	if !role.CanAuthor() {
		return nil, NewPermissionError(creatorID, 0, "form", "create", "insufficient role permissions")
	}

	title := strings.TrimSpace(req.Title)
	if err := s.ensureTitleAvailable(ctx, title, creatorID, nil); err != nil {
		return nil, err
	}

	description := ""
	if req.Description != nil {
		description = *req.Description
	}

	form := models.NewForm(title, description)
	form.IsQuiz = req.IsQuiz
	form.CreatedBy = creatorID
	form.Fields = s.buildFields(req.Fields)

	if problems := form.Validate(); len(problems) > 0 {
		return nil, formValidationErrors(problems)
	}

	err = s.repo.WithTransaction(ctx, func(r repositories.Repository) error {
		if err := r.Form().Create(ctx, nil, &form); err != nil {
			return fmt.Errorf("failed to create form: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Form created successfully", "form_id", form.ID, "fields", len(form.Fields))
	s.publishFormEvent(ctx, events.FormCreated, &form, creatorID, "created")

	return s.buildFormResponse(ctx, &form, creatorID), nil
}

func (s *formService) GetByID(ctx context.Context, id uint, userID string) (*FormResponse, error) {
	form, err := s.getFormWithFields(ctx, id)
	if err != nil {
		return nil, err
	}

	canEdit, err := s.canEdit(ctx, form, userID)
	if err != nil {
		return nil, err
	}
	if !canEdit {
		return nil, NewPermissionError(userID, id, "form", "read", "not owner or insufficient permissions")
	}

	return s.buildFormResponse(ctx, form, userID), nil
}

func (s *formService) GetPublished(ctx context.Context, id uint) (*models.Form, error) {
	form, err := s.getFormWithFields(ctx, id)
	if err != nil {
		return nil, err
	}

	if form.Status != models.FormPublished {
		return nil, &NotPublishedError{FormID: form.ID, Status: form.Status}
	}

	view := form.ForRespondent()
	return &view, nil
}

func (s *formService) Update(ctx context.Context, id uint, req *UpdateFormRequest, userID string) (*FormResponse, error) {
	s.logger.Info("Updating form", "form_id", id, "user_id", userID)

	if errors := s.validator.GetBusinessValidator().ValidateFormUpdate(req); len(errors) > 0 {
		return nil, errors
	}

	form, err := s.getFormWithFields(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireEdit(ctx, form, userID, "update"); err != nil {
		return nil, err
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if !strings.EqualFold(title, form.Title) {
			if err := s.ensureTitleAvailable(ctx, title, form.CreatedBy, &form.ID); err != nil {
				return nil, err
			}
		}
		form.Title = title
	}
	if req.Description != nil {
		form.Description = *req.Description
	}

	if err := s.repo.Form().Update(ctx, s.db, form); err != nil {
		return nil, s.mapRepoError(err, "failed to update form")
	}

	s.logger.Info("Form updated successfully", "form_id", id)
	s.publishFormEvent(ctx, events.FormUpdated, form, userID, "metadata")

	return s.buildFormResponse(ctx, form, userID), nil
}

func (s *formService) Delete(ctx context.Context, id uint, userID string) error {
	s.logger.Info("Deleting form", "form_id", id, "user_id", userID)

	form, err := s.getForm(ctx, id)
	if err != nil {
		return err
	}
	if err := s.requireEdit(ctx, form, userID, "delete"); err != nil {
		return err
	}

	responseCount, err := s.repo.Response().CountByForm(ctx, s.db, id)
	if err != nil {
		return fmt.Errorf("failed to count responses: %w", err)
	}
	if errors := s.validator.GetBusinessValidator().ValidateDeletePermission(form.Status, responseCount); len(errors) > 0 {
		return NewBusinessRuleError("form_delete", errors[0].Message, ErrFormHasResponses)
	}

	err = s.repo.WithTransaction(ctx, func(r repositories.Repository) error {
		if responseCount > 0 {
			if err := r.Response().DeleteByForm(ctx, nil, id); err != nil {
				return err
			}
		}
		return r.Form().Delete(ctx, nil, id)
	})
	if err != nil {
		return s.mapRepoError(err, "failed to delete form")
	}

	s.logger.Info("Form deleted successfully", "form_id", id, "responses_removed", responseCount)
	s.publishFormEvent(ctx, events.FormDeleted, form, userID, "deleted")

	return nil
}

func (s *formService) List(ctx context.Context, params models.ListFormsParams, userID string) (*FormListResponse, error) {
	if params.Size == 0 {
		params.Size = defaultPageSize
	}
	if errors := s.validator.GetBusinessValidator().Validate(&params); len(errors) > 0 {
		return nil, errors
	}

	role, err := s.getUserRole(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("permission check failed: %w", err)
	}

	filters := repositories.FormFilters{
		IsQuiz:    params.IsQuiz,
		Search:    params.Search,
		DateFrom:  params.DateFrom,
		DateTo:    params.DateTo,
		Limit:     params.Size,
		Offset:    params.Page * params.Size,
		SortBy:    params.SortBy,
		SortOrder: params.SortDir,
	}
	if params.Status != "" {
		status := params.Status
		filters.Status = &status
	}
	// Authors only see their own forms
	if role != models.RoleAdmin {
		filters.CreatedBy = &userID
	}

	forms, total, err := s.repo.Form().List(ctx, s.db, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list forms: %w", err)
	}

	responses := make([]*FormResponse, 0, len(forms))
	for _, form := range forms {
		responses = append(responses, &FormResponse{
			Form:      form,
			CanEdit:   true,
			CanDelete: form.Status != models.FormPublished,
		})
	}

	return &FormListResponse{
		Forms: responses,
		Total: total,
		Page:  params.Page,
		Size:  params.Size,
	}, nil
}

// ===== STRUCTURE EDITING =====

func (s *formService) AddField(ctx context.Context, id uint, req *AddFieldRequest, userID string) (*FormResponse, error) {
	if errors := s.validator.GetBusinessValidator().Validate(req); len(errors) > 0 {
		return nil, errors
	}

	form, err := s.mutate(ctx, id, userID, "add_field", func(f models.Form) (models.Form, error) {
		return f.AddField(req.Type, s.ids)
	})
	if err != nil {
		return nil, err
	}
	return s.buildFormResponse(ctx, form, userID), nil
}

func (s *formService) UpdateField(ctx context.Context, id uint, fieldID string, req *UpdateFieldRequest, userID string) (*FormResponse, error) {
	if errors := s.validator.GetBusinessValidator().Validate(req); len(errors) > 0 {
		return nil, errors
	}

	form, err := s.mutate(ctx, id, userID, "update_field", func(f models.Form) (models.Form, error) {
		return f.UpdateField(fieldID, models.FieldChanges{
			Label:       req.Label,
			Required:    req.Required,
			Placeholder: req.Placeholder,
		})
	})
	if err != nil {
		return nil, err
	}
	return s.buildFormResponse(ctx, form, userID), nil
}

func (s *formService) ChangeFieldType(ctx context.Context, id uint, fieldID string, req *ChangeFieldTypeRequest, userID string) (*FormResponse, error) {
	if errors := s.validator.GetBusinessValidator().Validate(req); len(errors) > 0 {
		return nil, errors
	}

	form, err := s.mutate(ctx, id, userID, "change_field_type", func(f models.Form) (models.Form, error) {
		return f.ChangeFieldType(fieldID, req.Type, s.ids)
	})
	if err != nil {
		return nil, err
	}
	return s.buildFormResponse(ctx, form, userID), nil
}

func (s *formService) DeleteField(ctx context.Context, id uint, fieldID string, userID string) (*FormResponse, error) {
	form, err := s.mutate(ctx, id, userID, "delete_field", func(f models.Form) (models.Form, error) {
		return f.DeleteField(fieldID)
	})
	if err != nil {
		return nil, err
	}
	return s.buildFormResponse(ctx, form, userID), nil
}

func (s *formService) ReorderFields(ctx context.Context, id uint, req *ReorderFieldsRequest, userID string) (*FormResponse, error) {
	if errors := s.validator.GetBusinessValidator().Validate(req); len(errors) > 0 {
		return nil, errors
	}

	form, err := s.mutate(ctx, id, userID, "reorder_fields", func(f models.Form) (models.Form, error) {
		return f.Reorder(req.FieldIDs)
	})
	if err != nil {
		return nil, err
	}
	return s.buildFormResponse(ctx, form, userID), nil
}

func (s *formService) AddOption(ctx context.Context, id uint, fieldID string, req *AddOptionRequest, userID string) (*OptionAddedResponse, error) {
	if errors := s.validator.GetBusinessValidator().Validate(req); len(errors) > 0 {
		return nil, errors
	}

	var optionID string
	form, err := s.mutate(ctx, id, userID, "add_option", func(f models.Form) (models.Form, error) {
		next, newID, err := f.AddOption(fieldID, req.Text, s.ids)
		optionID = newID
		return next, err
	})
	if err != nil {
		return nil, err
	}

	return &OptionAddedResponse{
		OptionID: optionID,
		Form:     s.buildFormResponse(ctx, form, userID),
	}, nil
}

func (s *formService) UpdateOption(ctx context.Context, id uint, fieldID, optionID string, req *UpdateOptionRequest, userID string) (*FormResponse, error) {
	if errors := s.validator.GetBusinessValidator().Validate(req); len(errors) > 0 {
		return nil, errors
	}

	form, err := s.mutate(ctx, id, userID, "update_option", func(f models.Form) (models.Form, error) {
		return f.UpdateOption(fieldID, optionID, models.OptionChanges{Text: req.Text, Points: req.Points})
	})
	if err != nil {
		return nil, err
	}
	return s.buildFormResponse(ctx, form, userID), nil
}

func (s *formService) DeleteOption(ctx context.Context, id uint, fieldID, optionID string, userID string) (*FormResponse, error) {
	form, err := s.mutate(ctx, id, userID, "delete_option", func(f models.Form) (models.Form, error) {
		return f.RemoveOption(fieldID, optionID)
	})
	if err != nil {
		return nil, err
	}
	return s.buildFormResponse(ctx, form, userID), nil
}

func (s *formService) SetOptionCorrect(ctx context.Context, id uint, fieldID, optionID string, req *SetOptionCorrectRequest, userID string) (*FormResponse, error) {
	if errors := s.validator.GetBusinessValidator().Validate(req); len(errors) > 0 {
		return nil, errors
	}

	form, err := s.mutate(ctx, id, userID, "set_option_correct", func(f models.Form) (models.Form, error) {
		return f.SetOptionCorrect(fieldID, optionID, *req.IsCorrect)
	})
	if err != nil {
		return nil, err
	}
	return s.buildFormResponse(ctx, form, userID), nil
}

// ===== STATUS AND MODE =====

func (s *formService) UpdateStatus(ctx context.Context, id uint, req *UpdateStatusRequest, userID string) (*models.StatusChangeResponse, error) {
	if errors := s.validator.GetBusinessValidator().Validate(req); len(errors) > 0 {
		return nil, errors
	}
	return s.changeStatus(ctx, id, req.Status, userID)
}

func (s *formService) Publish(ctx context.Context, id uint, userID string) (*models.StatusChangeResponse, error) {
	return s.changeStatus(ctx, id, models.FormPublished, userID)
}

func (s *formService) Archive(ctx context.Context, id uint, userID string) (*models.StatusChangeResponse, error) {
	return s.changeStatus(ctx, id, models.FormArchived, userID)
}

func (s *formService) SetQuizMode(ctx context.Context, id uint, req *QuizModeRequest, userID string) (*FormResponse, error) {
	if errors := s.validator.GetBusinessValidator().Validate(req); len(errors) > 0 {
		return nil, errors
	}

	form, err := s.getFormWithFields(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireEdit(ctx, form, userID, "update"); err != nil {
		return nil, err
	}

	next := form.ToggleQuizMode(*req.Enabled)
	if err := s.repo.Form().Update(ctx, s.db, &next); err != nil {
		return nil, s.mapRepoError(err, "failed to update quiz mode")
	}

	s.logger.Info("Form quiz mode changed", "form_id", id, "is_quiz", next.IsQuiz)
	s.publishFormEvent(ctx, events.FormUpdated, &next, userID, "quiz_mode")

	return s.buildFormResponse(ctx, &next, userID), nil
}

// CanEdit reports whether the user is the form's author or an admin
func (s *formService) CanEdit(ctx context.Context, id uint, userID string) (bool, error) {
	form, err := s.getForm(ctx, id)
	if err != nil {
		return false, err
	}
	return s.canEdit(ctx, form, userID)
}
