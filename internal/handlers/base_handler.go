package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/SAP-F-2025/form-service/internal/models"
	"github.com/SAP-F-2025/form-service/internal/services"
	"github.com/SAP-F-2025/form-service/internal/utils"
	"github.com/gin-gonic/gin"
)

// ErrorResponse is the body of every non 2xx reply
type ErrorResponse struct {
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// BaseHandler carries the logger shared by every handler
type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

func (h *BaseHandler) LogRequest(c *gin.Context, msg string, args ...any) {
	utils.GetLogger(c, h.logger).Debug(msg, append(args, "path", c.FullPath())...)
}

func (h *BaseHandler) LogError(c *gin.Context, err error, msg string, args ...any) {
	utils.GetLogger(c, h.logger).Error(msg, append(args, "error", err)...)
}

// parseIDParam reads a positive numeric path parameter. It writes a 400 and returns 0 when the
// value is missing or malformed.
func (h *BaseHandler) parseIDParam(c *gin.Context, name string) uint {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + name,
			Details: raw,
		})
		return 0
	}
	return uint(id)
}

// ParseStringIDParam reads a non-empty string path parameter, writing a 400 when it is empty
func ParseStringIDParam(c *gin.Context, name string) string {
	value := c.Param(name)
	if value == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: name + " is required",
		})
	}
	return value
}

// requireUserID returns the authenticated user id, writing a 401 when there is none
func (h *BaseHandler) requireUserID(c *gin.Context) (string, bool) {
	userID, err := GetUserIDFromContext(c)
	if err != nil || userID == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return "", false
	}
	return userID, true
}

func (h *BaseHandler) bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return false
	}
	return true
}

func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	// Handle custom error types first
	var validationErrors services.ValidationErrors
	if errors.As(err, &validationErrors) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: gin.H{
				"fields": validationErrors.Fields(),
				"errors": validationErrors,
			},
		})
		return
	}

	var notPublished *services.NotPublishedError
	if errors.As(err, &notPublished) {
		c.JSON(http.StatusForbidden, ErrorResponse{
			Message: services.ErrFormNotPublished.Error(),
			Details: gin.H{"status": notPublished.Status},
		})
		return
	}

	var businessRuleError *services.BusinessRuleError
	if errors.As(err, &businessRuleError) {
		status := http.StatusUnprocessableEntity
		if errors.Is(err, services.ErrFormTitleExists) || errors.Is(err, services.ErrFormHasResponses) {
			status = http.StatusConflict
		}
		c.JSON(status, ErrorResponse{
			Message: businessRuleError.Message,
			Details: gin.H{"rule": businessRuleError.Rule},
		})
		return
	}

	var permissionError *services.PermissionError
	if errors.As(err, &permissionError) {
		c.JSON(http.StatusForbidden, ErrorResponse{
			Message: "Access denied",
			Details: gin.H{
				"resource": permissionError.Resource,
				"action":   permissionError.Action,
				"reason":   permissionError.Reason,
			},
		})
		return
	}

	switch {
	case errors.Is(err, services.ErrFormNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Form not found"})
	case errors.Is(err, services.ErrResponseNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Response not found"})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Resource not found"})

	// Builder commands
	case errors.Is(err, models.ErrFieldNotFound), errors.Is(err, models.ErrOptionNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: err.Error()})
	case errors.Is(err, models.ErrInvalidFieldType),
		errors.Is(err, models.ErrInvalidFormStatus),
		errors.Is(err, models.ErrInvalidReorder),
		errors.Is(err, models.ErrNotChoiceField),
		errors.Is(err, models.ErrLastOption),
		errors.Is(err, models.ErrCorrectOptionRequired),
		errors.Is(err, models.ErrNegativePoints):
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: err.Error()})
	default:
		h.LogError(c, err, "Unexpected service error")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Internal server error",
		})
	}
}
