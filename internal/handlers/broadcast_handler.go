package handlers

import (
	"net/http"

	"github.com/SAP-F-2025/form-service/internal/services"
	"github.com/SAP-F-2025/form-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type BroadcastHandler struct {
	BaseHandler
	broadcastService services.BroadcastService
}

func NewBroadcastHandler(broadcastService services.BroadcastService, logger utils.Logger) *BroadcastHandler {
	return &BroadcastHandler{
		BaseHandler:      NewBaseHandler(logger),
		broadcastService: broadcastService,
	}
}

// Broadcast pushes a message to everyone subscribed to a session
// @Summary Broadcast to session
// @Description Fire and forget. 202 means the transport accepted the message, not that anyone received it.
// @Tags sessions
// @Accept json
// @Produce json
// @Param session_id path string true "Session ID"
// @Param message body services.BroadcastRequest true "Message"
// @Success 202 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse "Transport rejected the message"
// @Router /sessions/{session_id}/broadcast [post]
func (h *BroadcastHandler) Broadcast(c *gin.Context) {
	sessionID := c.Param("session_id")

	var req services.BroadcastRequest
	if !h.bindJSON(c, &req) {
		return
	}

	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Broadcasting", "session_id", sessionID, "type", req.Type)

	err := h.broadcastService.Broadcast(c.Request.Context(), sessionID, &req, userID)
	if err != nil {
		if services.IsValidationError(err) {
			h.handleServiceError(c, err)
			return
		}
		h.LogError(c, err, "Broadcast failed", "session_id", sessionID)
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Message: "Broadcast transport unavailable",
		})
		return
	}

	c.JSON(http.StatusAccepted, SuccessResponse{
		Message: "Broadcast accepted",
		Data:    gin.H{"session_id": sessionID, "type": req.Type},
	})
}
