package services

import (
	"errors"
	"fmt"

	"github.com/SAP-F-2025/form-service/internal/models"
	"github.com/SAP-F-2025/form-service/internal/validator"
)

var (
	ErrNotFound         = errors.New("resource not found")
	ErrFormNotFound     = errors.New("form not found")
	ErrResponseNotFound = errors.New("response not found")
	ErrFormNotPublished = errors.New("form is not accepting responses")
	ErrForbidden        = errors.New("forbidden")
	ErrFormTitleExists  = errors.New("a form with this title already exists")
	ErrFormHasResponses = errors.New("form already has responses")
)

// ValidationErrors lists every offending field of a request or submission
type ValidationErrors = validator.ValidationErrors

type ValidationError = validator.ValidationError

func NewValidationError(field, rule, message string) ValidationError {
	return ValidationError{Field: field, Rule: rule, Message: message}
}

// NotPublishedError is returned when answers are submitted to a form that is not PUBLISHED
type NotPublishedError struct {
	FormID uint
	Status models.FormStatus
}

func (e *NotPublishedError) Error() string {
	return fmt.Sprintf("form %d is %s and does not accept responses", e.FormID, e.Status)
}

// Is lets errors.Is(err, ErrFormNotPublished) match
func (e *NotPublishedError) Is(target error) bool {
	return target == ErrFormNotPublished
}

type PermissionError struct {
	UserID     string
	ResourceID uint
	Resource   string
	Action     string
	Reason     string
}

func NewPermissionError(userID string, resourceID uint, resource, action, reason string) *PermissionError {
	return &PermissionError{
		UserID:     userID,
		ResourceID: resourceID,
		Resource:   resource,
		Action:     action,
		Reason:     reason,
	}
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("user %s cannot %s %s %d: %s", e.UserID, e.Action, e.Resource, e.ResourceID, e.Reason)
}

func (e *PermissionError) Is(target error) bool {
	return target == ErrForbidden
}

// BusinessRuleError reports an operation refused by a domain rule
type BusinessRuleError struct {
	Rule    string
	Message string
	Err     error
}

func NewBusinessRuleError(rule, message string, err error) *BusinessRuleError {
	return &BusinessRuleError{Rule: rule, Message: message, Err: err}
}

func (e *BusinessRuleError) Error() string {
	return fmt.Sprintf("%s: %s", e.Rule, e.Message)
}

func (e *BusinessRuleError) Unwrap() error {
	return e.Err
}

func IsValidationError(err error) bool {
	var ve ValidationErrors
	return errors.As(err, &ve)
}

func IsPermissionError(err error) bool {
	var pe *PermissionError
	return errors.As(err, &pe)
}

func IsBusinessRuleError(err error) bool {
	var be *BusinessRuleError
	return errors.As(err, &be)
}
