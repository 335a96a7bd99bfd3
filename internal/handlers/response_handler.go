package handlers

import (
	"fmt"
	"net/http"

	"github.com/SAP-F-2025/form-service/internal/models"
	"github.com/SAP-F-2025/form-service/internal/services"
	"github.com/SAP-F-2025/form-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type ResponseHandler struct {
	BaseHandler
	submissionService services.SubmissionService
}

func NewResponseHandler(submissionService services.SubmissionService, logger utils.Logger) *ResponseHandler {
	return &ResponseHandler{
		BaseHandler:       NewBaseHandler(logger),
		submissionService: submissionService,
	}
}

// SubmitResponse validates, scores and stores one response
// @Summary Submit response
// @Description Anonymous submissions are accepted. The score is null unless the form is a quiz.
// @Tags public
// @Accept json
// @Produce json
// @Param id path uint true "Form ID"
// @Param response body services.SubmitResponseRequest true "Answers keyed by field id"
// @Success 201 {object} models.SubmitResponseResult
// @Failure 400 {object} ErrorResponse "Validation failed with offending field ids"
// @Failure 403 {object} ErrorResponse "Form is not accepting responses"
// @Failure 404 {object} ErrorResponse
// @Router /public/forms/{id}/responses [post]
func (h *ResponseHandler) SubmitResponse(c *gin.Context) {
	formID := h.parseIDParam(c, "id")
	if formID == 0 {
		return
	}

	var req services.SubmitResponseRequest
	if !h.bindJSON(c, &req) {
		return
	}

	var respondentID *string
	if userID, err := GetUserIDFromContext(c); err == nil && userID != "" {
		respondentID = &userID
	}

	h.LogRequest(c, "Submitting response", "form_id", formID, "anonymous", respondentID == nil)

	result, err := h.submissionService.Submit(c.Request.Context(), formID, &req, respondentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

// ListResponses lists the stored responses of a form
// @Summary List responses
// @Tags responses
// @Produce json
// @Param id path uint true "Form ID"
// @Param page query int false "Zero based page" default(0)
// @Param size query int false "Page size" default(10)
// @Param respondent_id query string false "Only this respondent"
// @Success 200 {object} models.PaginatedResponse
// @Failure 403 {object} ErrorResponse
// @Router /forms/{id}/responses [get]
func (h *ResponseHandler) ListResponses(c *gin.Context) {
	formID := h.parseIDParam(c, "id")
	if formID == 0 {
		return
	}

	var params models.ListResponsesParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid query parameters",
			Details: err.Error(),
		})
		return
	}

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Listing responses", "form_id", formID)

	page, err := h.submissionService.ListByForm(c.Request.Context(), formID, params, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

// CountResponses returns how many responses a form has
// @Summary Count responses
// @Tags responses
// @Produce json
// @Param id path uint true "Form ID"
// @Success 200 {object} map[string]interface{}
// @Router /forms/{id}/responses/count [get]
func (h *ResponseHandler) CountResponses(c *gin.Context) {
	formID := h.parseIDParam(c, "id")
	if formID == 0 {
		return
	}

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	count, err := h.submissionService.CountByForm(c.Request.Context(), formID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"form_id": formID,
		"count":   count,
	})
}

// GetResults aggregates scores and per-option counts
// @Summary Form results
// @Tags responses
// @Produce json
// @Param id path uint true "Form ID"
// @Success 200 {object} models.FormResults
// @Router /forms/{id}/results [get]
func (h *ResponseHandler) GetResults(c *gin.Context) {
	formID := h.parseIDParam(c, "id")
	if formID == 0 {
		return
	}

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	results, err := h.submissionService.GetResults(c.Request.Context(), formID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, results)
}

// GetResponse returns one stored response
// @Summary Get response
// @Tags responses
// @Produce json
// @Param id path uint true "Response ID"
// @Success 200 {object} services.ResponseDetail
// @Failure 404 {object} ErrorResponse
// @Router /responses/{id} [get]
func (h *ResponseHandler) GetResponse(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	detail, err := h.submissionService.GetByID(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, detail)
}

// ExportResponses streams every response as an xlsx workbook
// @Summary Export responses
// @Tags responses
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path uint true "Form ID"
// @Success 200 {file} file
// @Router /forms/{id}/responses/export [get]
func (h *ResponseHandler) ExportResponses(c *gin.Context) {
	formID := h.parseIDParam(c, "id")
	if formID == 0 {
		return
	}

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Exporting responses", "form_id", formID)

	file, err := h.submissionService.Export(c.Request.Context(), formID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.FileName))
	c.Data(http.StatusOK, file.ContentType, file.Data)
}
