package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/SAP-F-2025/form-service/internal/repositories"
	"github.com/SAP-F-2025/form-service/internal/utils"
	"github.com/gin-gonic/gin"
)

// UserHandler exposes the Casdoor directory so authors can look up respondents
type UserHandler struct {
	BaseHandler
	userRepo repositories.UserRepository
}

func NewUserHandler(userRepo repositories.UserRepository, logger utils.Logger) *UserHandler {
	return &UserHandler{
		BaseHandler: NewBaseHandler(logger),
		userRepo:    userRepo,
	}
}

type UserListResponse struct {
	Users interface{} `json:"users"`
	Total int64       `json:"total"`
	Page  int         `json:"page"`
	Size  int         `json:"size"`
}

// ListUsers lists users with optional filtering
// @Summary List users
// @Tags users
// @Produce json
// @Param page query int false "Page number (default: 1)"
// @Param size query int false "Page size (default: 10, max: 100)"
// @Param q query string false "Search query (name or email)"
// @Success 200 {object} UserListResponse
// @Failure 401 {object} ErrorResponse
// @Router /users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	if _, ok := h.requireUserID(c); !ok {
		return
	}

	h.LogRequest(c, "Listing users")

	filters, page := h.parseUserFilters(c)
	users, total, err := h.userRepo.List(c.Request.Context(), filters)
	if err != nil {
		h.LogError(c, err, "Failed to list users")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Failed to list users",
		})
		return
	}

	c.JSON(http.StatusOK, UserListResponse{Users: users, Total: total, Page: page, Size: filters.Limit})
}

// SearchUsers searches for users
// @Summary Search users
// @Tags users
// @Produce json
// @Param q query string true "Search query"
// @Param page query int false "Page number (default: 1)"
// @Param size query int false "Page size (default: 10, max: 100)"
// @Success 200 {object} UserListResponse
// @Failure 400 {object} ErrorResponse
// @Router /users/search [get]
func (h *UserHandler) SearchUsers(c *gin.Context) {
	if _, ok := h.requireUserID(c); !ok {
		return
	}

	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Search query parameter 'q' is required",
		})
		return
	}

	h.LogRequest(c, "Searching users", "query", query)

	filters, page := h.parseUserFilters(c)
	users, total, err := h.userRepo.Search(c.Request.Context(), query, filters)
	if err != nil {
		h.LogError(c, err, "Failed to search users")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Failed to search users",
		})
		return
	}

	c.JSON(http.StatusOK, UserListResponse{Users: users, Total: total, Page: page, Size: filters.Limit})
}

// GetUser retrieves a user by ID
// @Summary Get user by ID
// @Tags users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} models.User
// @Failure 404 {object} ErrorResponse
// @Router /users/{id} [get]
func (h *UserHandler) GetUser(c *gin.Context) {
	if _, ok := h.requireUserID(c); !ok {
		return
	}

	userID := ParseStringIDParam(c, "id")
	if userID == "" {
		return
	}

	user, err := h.userRepo.GetByID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Message: "User not found"})
			return
		}
		h.LogError(c, err, "Failed to get user", "user_id", userID)
		c.JSON(http.StatusBadGateway, ErrorResponse{Message: "User directory unavailable"})
		return
	}

	c.JSON(http.StatusOK, user)
}

// parseUserFilters reads 1-based page and size, clamping size to 100
func (h *UserHandler) parseUserFilters(c *gin.Context) (repositories.UserFilters, int) {
	page := 1
	size := 10

	if p, err := strconv.Atoi(c.Query("page")); err == nil && p > 0 {
		page = p
	}
	if s, err := strconv.Atoi(c.Query("size")); err == nil && s > 0 {
		size = min(s, 100)
	}

	return repositories.UserFilters{
		Limit:  size,
		Offset: (page - 1) * size,
		Query:  c.Query("q"),
	}, page
}
