package validator

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/SAP-F-2025/form-service/internal/models"
	"github.com/go-playground/validator/v10"
)

var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)

// BusinessValidator handles business rule validation
type BusinessValidator struct {
	validate *validator.Validate
}

// NewBusinessValidator creates a new business validator
func NewBusinessValidator() *BusinessValidator {
	validate := validator.New()

	bv := &BusinessValidator{validate: validate}
	bv.registerBusinessRules()

	return bv
}

// Validate validates business rules for any struct
func (bv *BusinessValidator) Validate(s interface{}) ValidationErrors {
	err := bv.validate.Struct(s)
	if err != nil {
		return ToValidationErrors(err)
	}
	return nil
}

// Var validates a single value against a tag
func (bv *BusinessValidator) Var(field string, value interface{}, tag string) ValidationErrors {
	err := bv.validate.Var(value, tag)
	if err == nil {
		return nil
	}
	errs := ToValidationErrors(err)
	for i := range errs {
		errs[i].Field = field
	}
	return errs
}

// ValidateFormCreate validates form creation business rules
func (bv *BusinessValidator) ValidateFormCreate(req *FormCreateRequest) ValidationErrors {
	var errors ValidationErrors

	// Basic struct validation
	errors = append(errors, bv.Validate(req)...)

	// Structure-level validations
	errors = append(errors, bv.validateFieldPayload(req.Fields)...)

	return errors
}

// ValidateFormUpdate validates form update business rules
func (bv *BusinessValidator) ValidateFormUpdate(req *FormUpdateRequest) ValidationErrors {
	var errors ValidationErrors

	errors = append(errors, bv.Validate(req)...)

	if req.Title == nil && req.Description == nil {
		errors = append(errors, ValidationError{
			Field:   "request",
			Message: "nothing to update",
			Rule:    "business_logic",
		})
	}

	return errors
}

// ValidateDeletePermission validates if a form can be deleted
func (bv *BusinessValidator) ValidateDeletePermission(status models.FormStatus, responseCount int64) ValidationErrors {
	var errors ValidationErrors

	// Published forms that already collected answers must be archived first
	if status == models.FormPublished && responseCount > 0 {
		errors = append(errors, ValidationError{
			Field:   "status",
			Message: "cannot delete a published form with responses, archive it first",
			Value:   status,
			Rule:    "business_logic",
		})
	}

	return errors
}

// ValidateSessionID validates a realtime session identifier
func (bv *BusinessValidator) ValidateSessionID(sessionID string) ValidationErrors {
	return bv.Var("session_id", sessionID, "required,session_id")
}

// registerBusinessRules registers custom business rule validators
func (bv *BusinessValidator) registerBusinessRules() {
	// Title validation (1-200 characters)
	bv.validate.RegisterValidation("form_title", func(fl validator.FieldLevel) bool {
		title := strings.TrimSpace(fl.Field().String())
		return len(title) >= 1 && len(title) <= 200
	})

	// Description validation (max 2000 characters)
	bv.validate.RegisterValidation("form_description", func(fl validator.FieldLevel) bool {
		return len(fl.Field().String()) <= 2000
	})

	bv.validate.RegisterValidation("field_type", func(fl validator.FieldLevel) bool {
		return models.FieldType(fl.Field().String()).IsValid()
	})

	bv.validate.RegisterValidation("form_status", func(fl validator.FieldLevel) bool {
		return models.FormStatus(fl.Field().String()).IsValid()
	})

	// Option points (0-1000)
	bv.validate.RegisterValidation("option_points", func(fl validator.FieldLevel) bool {
		points := fl.Field().Int()
		return points >= 0 && points <= 1000
	})

	bv.validate.RegisterValidation("session_id", func(fl validator.FieldLevel) bool {
		return sessionIDPattern.MatchString(fl.Field().String())
	})
}

// validateFieldPayload checks option rules that struct tags cannot express
func (bv *BusinessValidator) validateFieldPayload(fields []FieldRequest) ValidationErrors {
	var errors ValidationErrors

	for i, field := range fields {
		prefix := fmt.Sprintf("fields[%d]", i)

		if !field.Type.IsChoice() {
			if len(field.Options) > 0 {
				errors = append(errors, ValidationError{
					Field:   prefix + ".options",
					Message: "text fields cannot have options",
					Value:   len(field.Options),
					Rule:    "business_logic",
				})
			}
			continue
		}

		if len(field.Options) == 0 {
			errors = append(errors, ValidationError{
				Field:   prefix + ".options",
				Message: "choice fields need at least one option",
				Rule:    "business_logic",
			})
			continue
		}

		if field.Type == models.SingleChoice {
			correct := 0
			for _, opt := range field.Options {
				if opt.IsCorrect {
					correct++
				}
			}
			if correct != 1 {
				errors = append(errors, ValidationError{
					Field:   prefix + ".options",
					Message: "single choice fields need exactly one correct option",
					Value:   correct,
					Rule:    "business_logic",
				})
			}
		}
	}

	return errors
}
