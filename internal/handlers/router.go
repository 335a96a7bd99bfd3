package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/form-service/internal/config"
	"github.com/SAP-F-2025/form-service/internal/models"
	"github.com/SAP-F-2025/form-service/internal/repositories"
	"github.com/SAP-F-2025/form-service/internal/services"
	"github.com/SAP-F-2025/form-service/internal/utils"
)

const serviceName = "form-service"

type HandlerManager struct {
	formHandler      *FormHandler
	responseHandler  *ResponseHandler
	broadcastHandler *BroadcastHandler
	userHandler      *UserHandler
	authMiddleware   *CasdoorAuthMiddleware
	healthCheck      func(ctx context.Context) error
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	logger utils.Logger,
	casdoorConfig config.CasdoorConfig,
	userRepo repositories.UserRepository,
) *HandlerManager {
	return newHandlerManager(serviceManager, logger, NewCasdoorAuthMiddleware(casdoorConfig, userRepo), userRepo)
}

func newHandlerManager(
	serviceManager services.ServiceManager,
	logger utils.Logger,
	authMiddleware *CasdoorAuthMiddleware,
	userRepo repositories.UserRepository,
) *HandlerManager {
	return &HandlerManager{
		formHandler:      NewFormHandler(serviceManager.Form(), logger),
		responseHandler:  NewResponseHandler(serviceManager.Submission(), logger),
		broadcastHandler: NewBroadcastHandler(serviceManager.Broadcast(), logger),
		userHandler:      NewUserHandler(userRepo, logger),
		authMiddleware:   authMiddleware,
		healthCheck:      serviceManager.HealthCheck,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	authors := hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher, models.RoleAdmin)

	// API v1 routes with authentication
	v1 := router.Group("/api/v1")
	v1.Use(hm.authMiddleware.AuthMiddleware())
	{
		forms := v1.Group("/forms")
		forms.Use(authors)
		{
			forms.POST("", hm.formHandler.CreateForm)
			forms.GET("", hm.formHandler.ListForms)
			forms.GET("/:id", hm.formHandler.GetForm)
			forms.PUT("/:id", hm.formHandler.UpdateForm)
			forms.DELETE("/:id", hm.formHandler.DeleteForm)

			// Status and mode
			forms.PUT("/:id/status", hm.formHandler.UpdateFormStatus)
			forms.POST("/:id/publish", hm.formHandler.PublishForm)
			forms.POST("/:id/archive", hm.formHandler.ArchiveForm)
			forms.PUT("/:id/quiz-mode", hm.formHandler.SetQuizMode)

			// Fields
			forms.POST("/:id/fields", hm.formHandler.AddField)
			forms.PUT("/:id/fields/reorder", hm.formHandler.ReorderFields)
			forms.PUT("/:id/fields/:field_id", hm.formHandler.UpdateField)
			forms.DELETE("/:id/fields/:field_id", hm.formHandler.DeleteField)
			forms.PUT("/:id/fields/:field_id/type", hm.formHandler.ChangeFieldType)

			// Options
			forms.POST("/:id/fields/:field_id/options", hm.formHandler.AddOption)
			forms.PUT("/:id/fields/:field_id/options/:option_id", hm.formHandler.UpdateOption)
			forms.DELETE("/:id/fields/:field_id/options/:option_id", hm.formHandler.DeleteOption)
			forms.PUT("/:id/fields/:field_id/options/:option_id/correct", hm.formHandler.SetOptionCorrect)

			// Collected responses
			forms.GET("/:id/responses", hm.responseHandler.ListResponses)
			forms.GET("/:id/responses/count", hm.responseHandler.CountResponses)
			forms.GET("/:id/responses/export", hm.responseHandler.ExportResponses)
			forms.GET("/:id/results", hm.responseHandler.GetResults)
		}

		v1.GET("/responses/:id", authors, hm.responseHandler.GetResponse)

		v1.POST("/sessions/:session_id/broadcast", authors, hm.broadcastHandler.Broadcast)

		// User directory lookups
		users := v1.Group("/users")
		{
			users.GET("", hm.userHandler.ListUsers)
			users.GET("/search", hm.userHandler.SearchUsers)
			users.GET("/:id", hm.userHandler.GetUser)
		}
	}

	// Respondent routes, anonymous allowed
	public := router.Group("/api/v1/public")
	public.Use(hm.authMiddleware.OptionalAuthMiddleware())
	{
		public.GET("/forms/:id", hm.formHandler.GetPublishedForm)
		public.POST("/forms/:id/responses", hm.responseHandler.SubmitResponse)
	}

	router.GET("/health", hm.Health)
}

// Health reports whether the database behind the services answers
func (hm *HandlerManager) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	if err := hm.healthCheck(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "unhealthy",
			"service": serviceName,
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": serviceName,
	})
}
