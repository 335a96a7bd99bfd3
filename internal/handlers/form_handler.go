package handlers

import (
	"context"
	"net/http"

	"github.com/SAP-F-2025/form-service/internal/models"
	"github.com/SAP-F-2025/form-service/internal/services"
	"github.com/SAP-F-2025/form-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type FormHandler struct {
	BaseHandler
	formService services.FormService
}

func NewFormHandler(formService services.FormService, logger utils.Logger) *FormHandler {
	return &FormHandler{
		BaseHandler: NewBaseHandler(logger),
		formService: formService,
	}
}

// CreateForm creates a new form
// @Summary Create form
// @Description Creates a draft form, optionally with its complete field structure
// @Tags forms
// @Accept json
// @Produce json
// @Param form body services.CreateFormRequest true "Form data"
// @Success 201 {object} services.FormResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /forms [post]
func (h *FormHandler) CreateForm(c *gin.Context) {
	var req services.CreateFormRequest
	if !h.bindJSON(c, &req) {
		return
	}

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Creating form", "title", req.Title)

	form, err := h.formService.Create(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, form)
}

// GetForm retrieves a form with its complete structure
// @Summary Get form
// @Tags forms
// @Produce json
// @Param id path uint true "Form ID"
// @Success 200 {object} services.FormResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /forms/{id} [get]
func (h *FormHandler) GetForm(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Getting form", "form_id", id)

	form, err := h.formService.GetByID(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, form)
}

// GetPublishedForm returns the respondent view of a published form
// @Summary Get published form
// @Description Fields in display order without correct answers or points
// @Tags public
// @Produce json
// @Param id path uint true "Form ID"
// @Success 200 {object} models.Form
// @Failure 403 {object} ErrorResponse "Form is not accepting responses"
// @Failure 404 {object} ErrorResponse
// @Router /public/forms/{id} [get]
func (h *FormHandler) GetPublishedForm(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	form, err := h.formService.GetPublished(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, form)
}

// UpdateForm updates title and description
// @Summary Update form
// @Tags forms
// @Accept json
// @Produce json
// @Param id path uint true "Form ID"
// @Param form body services.UpdateFormRequest true "Form update data"
// @Success 200 {object} services.FormResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /forms/{id} [put]
func (h *FormHandler) UpdateForm(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req services.UpdateFormRequest
	if !h.bindJSON(c, &req) {
		return
	}

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Updating form", "form_id", id)

	form, err := h.formService.Update(c.Request.Context(), id, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, form)
}

// DeleteForm deletes a form and its responses
// @Summary Delete form
// @Description A published form that already has responses must be archived first
// @Tags forms
// @Param id path uint true "Form ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /forms/{id} [delete]
func (h *FormHandler) DeleteForm(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Deleting form", "form_id", id)

	if err := h.formService.Delete(c.Request.Context(), id, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ListForms lists the caller's forms, or every form for admins
// @Summary List forms
// @Tags forms
// @Produce json
// @Param page query int false "Zero based page" default(0)
// @Param size query int false "Page size" default(10)
// @Param status query string false "DRAFT, PUBLISHED or ARCHIVED"
// @Param is_quiz query bool false "Only quizzes or only surveys"
// @Param search query string false "Title search"
// @Success 200 {object} services.FormListResponse
// @Failure 400 {object} ErrorResponse
// @Router /forms [get]
func (h *FormHandler) ListForms(c *gin.Context) {
	h.LogRequest(c, "Listing forms")

	var params models.ListFormsParams
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

	forms, err := h.formService.List(c.Request.Context(), params, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, forms)
}

// ===== STATUS AND MODE =====

// UpdateFormStatus sets the status to any of DRAFT, PUBLISHED, ARCHIVED
// @Summary Update form status
// @Tags forms
// @Accept json
// @Produce json
// @Param id path uint true "Form ID"
// @Param status body services.UpdateStatusRequest true "New status"
// @Success 200 {object} models.StatusChangeResponse
// @Failure 400 {object} ErrorResponse
// @Router /forms/{id}/status [put]
func (h *FormHandler) UpdateFormStatus(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req services.UpdateStatusRequest
	if !h.bindJSON(c, &req) {
		return
	}

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Updating form status", "form_id", id, "status", req.Status)

	change, err := h.formService.UpdateStatus(c.Request.Context(), id, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, change)
}

// PublishForm opens a form for responses
// @Summary Publish form
// @Tags forms
// @Produce json
// @Param id path uint true "Form ID"
// @Success 200 {object} models.StatusChangeResponse
// @Failure 422 {object} ErrorResponse "Form has no fields"
// @Router /forms/{id}/publish [post]
func (h *FormHandler) PublishForm(c *gin.Context) {
	h.statusAction(c, "Publishing form", h.formService.Publish)
}

// ArchiveForm closes a form
// @Summary Archive form
// @Tags forms
// @Produce json
// @Param id path uint true "Form ID"
// @Success 200 {object} models.StatusChangeResponse
// @Router /forms/{id}/archive [post]
func (h *FormHandler) ArchiveForm(c *gin.Context) {
	h.statusAction(c, "Archiving form", h.formService.Archive)
}

func (h *FormHandler) statusAction(c *gin.Context, msg string, action func(ctx context.Context, id uint, userID string) (*models.StatusChangeResponse, error)) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	h.LogRequest(c, msg, "form_id", id)

	change, err := action(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, change)
}

// SetQuizMode switches scoring on or off
// @Summary Toggle quiz mode
// @Tags forms
// @Accept json
// @Produce json
// @Param id path uint true "Form ID"
// @Param mode body services.QuizModeRequest true "Quiz mode"
// @Success 200 {object} services.FormResponse
// @Router /forms/{id}/quiz-mode [put]
func (h *FormHandler) SetQuizMode(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req services.QuizModeRequest
	if !h.bindJSON(c, &req) {
		return
	}

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	form, err := h.formService.SetQuizMode(c.Request.Context(), id, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, form)
}

// ===== FIELDS =====

// AddField appends a blank field
// @Summary Add field
// @Tags fields
// @Accept json
// @Produce json
// @Param id path uint true "Form ID"
// @Param field body services.AddFieldRequest true "Field type"
// @Success 201 {object} services.FormResponse
// @Router /forms/{id}/fields [post]
func (h *FormHandler) AddField(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req services.AddFieldRequest
	if !h.bindJSON(c, &req) {
		return
	}

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Adding field", "form_id", id, "type", req.Type)

	form, err := h.formService.AddField(c.Request.Context(), id, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, form)
}

// UpdateField edits label, required flag and placeholder
// @Summary Update field
// @Tags fields
// @Accept json
// @Produce json
// @Param id path uint true "Form ID"
// @Param field_id path string true "Field ID"
// @Param field body services.UpdateFieldRequest true "Field changes"
// @Success 200 {object} services.FormResponse
// @Router /forms/{id}/fields/{field_id} [put]
func (h *FormHandler) UpdateField(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	fieldID := ParseStringIDParam(c, "field_id")
	if fieldID == "" {
		return
	}

	var req services.UpdateFieldRequest
	if !h.bindJSON(c, &req) {
		return
	}

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	form, err := h.formService.UpdateField(c.Request.Context(), id, fieldID, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, form)
}

// ChangeFieldType converts a field to another type
// @Summary Change field type
// @Tags fields
// @Accept json
// @Produce json
// @Param id path uint true "Form ID"
// @Param field_id path string true "Field ID"
// @Param type body services.ChangeFieldTypeRequest true "New type"
// @Success 200 {object} services.FormResponse
// @Router /forms/{id}/fields/{field_id}/type [put]
func (h *FormHandler) ChangeFieldType(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	fieldID := ParseStringIDParam(c, "field_id")
	if fieldID == "" {
		return
	}

	var req services.ChangeFieldTypeRequest
	if !h.bindJSON(c, &req) {
		return
	}

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	form, err := h.formService.ChangeFieldType(c.Request.Context(), id, fieldID, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, form)
}

// DeleteField removes a field; the others keep their order
// @Summary Delete field
// @Tags fields
// @Produce json
// @Param id path uint true "Form ID"
// @Param field_id path string true "Field ID"
// @Success 200 {object} services.FormResponse
// @Failure 404 {object} ErrorResponse
// @Router /forms/{id}/fields/{field_id} [delete]
func (h *FormHandler) DeleteField(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	fieldID := ParseStringIDParam(c, "field_id")
	if fieldID == "" {
		return
	}

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Deleting field", "form_id", id, "field_id", fieldID)

	form, err := h.formService.DeleteField(c.Request.Context(), id, fieldID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, form)
}

// ReorderFields sets the display order from a complete list of field ids
// @Summary Reorder fields
// @Tags fields
// @Accept json
// @Produce json
// @Param id path uint true "Form ID"
// @Param order body services.ReorderFieldsRequest true "Field ids in display order"
// @Success 200 {object} services.FormResponse
// @Router /forms/{id}/fields/reorder [put]
func (h *FormHandler) ReorderFields(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req services.ReorderFieldsRequest
	if !h.bindJSON(c, &req) {
		return
	}

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	form, err := h.formService.ReorderFields(c.Request.Context(), id, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, form)
}

// ===== OPTIONS =====

// AddOption appends an option to a choice field
// @Summary Add option
// @Tags options
// @Accept json
// @Produce json
// @Param id path uint true "Form ID"
// @Param field_id path string true "Field ID"
// @Param option body services.AddOptionRequest false "Option text"
// @Success 201 {object} services.OptionAddedResponse
// @Router /forms/{id}/fields/{field_id}/options [post]
func (h *FormHandler) AddOption(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	fieldID := ParseStringIDParam(c, "field_id")
	if fieldID == "" {
		return
	}

	var req services.AddOptionRequest
	if c.Request.ContentLength != 0 && !h.bindJSON(c, &req) {
		return
	}

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	added, err := h.formService.AddOption(c.Request.Context(), id, fieldID, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, added)
}

// UpdateOption edits option text and points
// @Summary Update option
// @Tags options
// @Accept json
// @Produce json
// @Param id path uint true "Form ID"
// @Param field_id path string true "Field ID"
// @Param option_id path string true "Option ID"
// @Param option body services.UpdateOptionRequest true "Option changes"
// @Success 200 {object} services.FormResponse
// @Router /forms/{id}/fields/{field_id}/options/{option_id} [put]
func (h *FormHandler) UpdateOption(c *gin.Context) {
	id, fieldID, optionID, ok := h.optionParams(c)
	if !ok {
		return
	}

	var req services.UpdateOptionRequest
	if !h.bindJSON(c, &req) {
		return
	}

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	form, err := h.formService.UpdateOption(c.Request.Context(), id, fieldID, optionID, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, form)
}

// DeleteOption removes an option from a choice field
// @Summary Delete option
// @Tags options
// @Produce json
// @Param id path uint true "Form ID"
// @Param field_id path string true "Field ID"
// @Param option_id path string true "Option ID"
// @Success 200 {object} services.FormResponse
// @Router /forms/{id}/fields/{field_id}/options/{option_id} [delete]
func (h *FormHandler) DeleteOption(c *gin.Context) {
	id, fieldID, optionID, ok := h.optionParams(c)
	if !ok {
		return
	}

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	form, err := h.formService.DeleteOption(c.Request.Context(), id, fieldID, optionID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, form)
}

// SetOptionCorrect marks or unmarks the correct answer
// @Summary Set correct option
// @Tags options
// @Accept json
// @Produce json
// @Param id path uint true "Form ID"
// @Param field_id path string true "Field ID"
// @Param option_id path string true "Option ID"
// @Param correct body services.SetOptionCorrectRequest true "Correct flag"
// @Success 200 {object} services.FormResponse
// @Router /forms/{id}/fields/{field_id}/options/{option_id}/correct [put]
func (h *FormHandler) SetOptionCorrect(c *gin.Context) {
	id, fieldID, optionID, ok := h.optionParams(c)
	if !ok {
		return
	}

	var req services.SetOptionCorrectRequest
	if !h.bindJSON(c, &req) {
		return
	}

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	form, err := h.formService.SetOptionCorrect(c.Request.Context(), id, fieldID, optionID, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, form)
}

func (h *FormHandler) optionParams(c *gin.Context) (uint, string, string, bool) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return 0, "", "", false
	}
	fieldID := ParseStringIDParam(c, "field_id")
	if fieldID == "" {
		return 0, "", "", false
	}
	optionID := ParseStringIDParam(c, "option_id")
	if optionID == "" {
		return 0, "", "", false
	}
	return id, fieldID, optionID, true
}
