package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/SAP-F-2025/form-service/internal/events"
	"github.com/SAP-F-2025/form-service/internal/models"
	"github.com/SAP-F-2025/form-service/internal/repositories"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const defaultPageSize = 10

// ===== PERMISSIONS =====

func (s *formService) getUserRole(ctx context.Context, userID string) (models.UserRole, error) {
	return userRole(ctx, s.repo, userID)
}

// userRole resolves the caller's role; unknown users are treated as students
func userRole(ctx context.Context, repo repositories.Repository, userID string) (models.UserRole, error) {
	user, err := repo.User().GetByID(ctx, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return models.RoleStudent, nil
		}
		return "", fmt.Errorf("failed to get user: %w", err)
	}
	return user.Role, nil
}

func (s *formService) canEdit(ctx context.Context, form *models.Form, userID string) (bool, error) {
	return canManageForm(ctx, s.repo, form, userID)
}

// canManageForm lets the author and admins manage a form and its responses
func canManageForm(ctx context.Context, repo repositories.Repository, form *models.Form, userID string) (bool, error) {
	if userID != "" && form.CreatedBy == userID {
		return true, nil
	}
	role, err := userRole(ctx, repo, userID)
	if err != nil {
		return false, err
	}
	return role == models.RoleAdmin, nil
}

func (s *formService) requireEdit(ctx context.Context, form *models.Form, userID, action string) error {
	ok, err := s.canEdit(ctx, form, userID)
	if err != nil {
		return fmt.Errorf("permission check failed: %w", err)
	}
	if !ok {
		return NewPermissionError(userID, form.ID, "form", action, "not owner or insufficient permissions")
	}
	return nil
}

// ===== REPOSITORY WRAPPERS =====

func (s *formService) getForm(ctx context.Context, id uint) (*models.Form, error) {
	form, err := s.repo.Form().GetByID(ctx, s.db, id)
	if err != nil {
		return nil, s.mapRepoError(err, "failed to get form")
	}
	return form, nil
}

func (s *formService) getFormWithFields(ctx context.Context, id uint) (*models.Form, error) {
	return loadFormStructure(ctx, s.repo, s.db, id)
}

func (s *formService) mapRepoError(err error, msg string) error {
	if repositories.IsNotFoundError(err) {
		return ErrFormNotFound
	}
	return fmt.Errorf("%s: %w", msg, err)
}

func (s *formService) ensureTitleAvailable(ctx context.Context, title, creatorID string, excludeID *uint) error {
	exists, err := s.repo.Form().ExistsByTitle(ctx, s.db, title, creatorID, excludeID)
	if err != nil {
		return fmt.Errorf("failed to check title: %w", err)
	}
	if exists {
		return NewBusinessRuleError("unique_title", fmt.Sprintf("form %q already exists", title), ErrFormTitleExists)
	}
	return nil
}

// ===== BUILDERS =====

// buildFields turns a create payload into fields, keeping payload order as display order
func (s *formService) buildFields(reqs []FieldRequest) []models.FormField {
	fields := make([]models.FormField, 0, len(reqs))
	for i, req := range reqs {
		field := models.FormField{
			ID:          s.idOr(req.ID),
			Label:       req.Label,
			Type:        req.Type,
			Required:    req.Required,
			Placeholder: req.Placeholder,
			Order:       i,
		}
		for j, opt := range req.Options {
			field.Options = append(field.Options, models.FormFieldOption{
				FieldID:   field.ID,
				ID:        s.idOr(opt.ID),
				Text:      opt.Text,
				IsCorrect: opt.IsCorrect,
				Points:    opt.Points,
				Position:  j,
			})
		}
		fields = append(fields, field)
	}
	return fields
}

func (s *formService) idOr(id *string) string {
	if id != nil && *id != "" {
		return *id
	}
	if s.ids != nil {
		return s.ids()
	}
	return uuid.NewString()
}

func formValidationErrors(problems models.FormErrors) ValidationErrors {
	errs := make(ValidationErrors, 0, len(problems))
	for _, p := range problems {
		errs = append(errs, NewValidationError(p.Field, "structure", p.Message))
	}
	return errs
}

func (s *formService) buildFormResponse(ctx context.Context, form *models.Form, userID string) *FormResponse {
	canDelete := form.Status != models.FormPublished
	if !canDelete {
		count, err := s.repo.Response().CountByForm(ctx, s.db, form.ID)
		if err != nil {
			s.logger.Warn("Failed to count responses", "form_id", form.ID, "error", err)
		} else {
			form.ResponseCount = count
			canDelete = count == 0
		}
	}
	form.FieldCount = len(form.Fields)

	return &FormResponse{
		Form:      form,
		CanEdit:   true,
		CanDelete: canDelete,
	}
}

// ===== MUTATION PIPELINE =====

// mutate loads the form, applies one builder command and stores the resulting structure
func (s *formService) mutate(ctx context.Context, id uint, userID, change string, apply func(models.Form) (models.Form, error)) (*models.Form, error) {
	form, err := s.getFormWithFields(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireEdit(ctx, form, userID, "update"); err != nil {
		return nil, err
	}

	next, err := apply(*form)
	if err != nil {
		return nil, err
	}
	if problems := next.Validate(); len(problems) > 0 {
		return nil, formValidationErrors(problems)
	}

	err = s.repo.WithTransaction(ctx, func(r repositories.Repository) error {
		return r.Form().SaveStructure(ctx, nil, &next)
	})
	if err != nil {
		return nil, s.mapRepoError(err, "failed to save form structure")
	}

	s.logger.Info("Form structure changed", "form_id", id, "change", change, "user_id", userID)
	s.publishFormEvent(ctx, events.FormUpdated, &next, userID, change)

	return &next, nil
}

func (s *formService) changeStatus(ctx context.Context, id uint, status models.FormStatus, userID string) (*models.StatusChangeResponse, error) {
	form, err := s.getFormWithFields(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireEdit(ctx, form, userID, "change status of"); err != nil {
		return nil, err
	}

	next, err := form.SetStatus(status)
	if err != nil {
		return nil, err
	}
	if status == models.FormPublished && form.Status != models.FormPublished {
		if len(next.Fields) == 0 {
			return nil, NewBusinessRuleError("publish", "a form needs at least one field before it can be published", nil)
		}
		if problems := next.Validate(); len(problems) > 0 {
			return nil, formValidationErrors(problems)
		}
	}

	if err := s.repo.Form().Update(ctx, s.db, &next); err != nil {
		return nil, s.mapRepoError(err, "failed to update status")
	}

	s.logger.Info("Form status changed", "form_id", id, "old_status", form.Status, "new_status", next.Status)
	s.publish(ctx, events.TopicForms, events.NewEvent(events.FormStatusChanged, events.StatusChangedData{
		FormID:    id,
		OldStatus: string(form.Status),
		NewStatus: string(next.Status),
		ChangedBy: userID,
	}))

	return &models.StatusChangeResponse{
		FormID:    id,
		OldStatus: form.Status,
		NewStatus: next.Status,
		ChangedBy: userID,
		ChangedAt: s.now(),
	}, nil
}

// ===== EVENTS =====

func (s *formService) publishFormEvent(ctx context.Context, eventType string, form *models.Form, userID, change string) {
	s.publish(ctx, events.TopicForms, events.NewEvent(eventType, events.FormEventData{
		FormID:    form.ID,
		Title:     form.Title,
		Status:    string(form.Status),
		IsQuiz:    form.IsQuiz,
		ChangedBy: userID,
		Change:    change,
	}))
}

func (s *formService) publish(ctx context.Context, topic string, event *events.Event) {
	publishQuietly(ctx, s.publisher, s.logger, topic, event)
}

// publishQuietly logs delivery failures; the operation that raised the event has already succeeded
func publishQuietly(ctx context.Context, publisher events.EventPublisher, logger *slog.Logger, topic string, event *events.Event) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(ctx, topic, event); err != nil && !errors.Is(err, context.Canceled) {
		logger.WarnContext(ctx, "Failed to publish event", "topic", topic, "event_type", event.Type, "error", err)
	}
}

// loadFormStructure fetches a form with fields and options, mapping not found
func loadFormStructure(ctx context.Context, repo repositories.Repository, db *gorm.DB, id uint) (*models.Form, error) {
	form, err := repo.Form().GetByIDWithFields(ctx, db, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrFormNotFound
		}
		return nil, fmt.Errorf("failed to get form: %w", err)
	}
	return form, nil
}
