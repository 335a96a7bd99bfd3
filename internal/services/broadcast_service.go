package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/SAP-F-2025/form-service/internal/events"
	"github.com/SAP-F-2025/form-service/internal/validator"
)

type broadcastService struct {
	publisher events.EventPublisher
	logger    *slog.Logger
	validator *validator.Validator
}

func NewBroadcastService(publisher events.EventPublisher, logger *slog.Logger, validator *validator.Validator) BroadcastService {
	return &broadcastService{
		publisher: publisher,
		logger:    logger,
		validator: validator,
	}
}

// Broadcast hands one message to the transport for the session topic. There is no
// acknowledgement from subscribers and no retry here.
func (s *broadcastService) Broadcast(ctx context.Context, sessionID string, req *BroadcastRequest, senderID string) error {
	bv := s.validator.GetBusinessValidator()
	if errors := bv.ValidateSessionID(sessionID); len(errors) > 0 {
		return errors
	}
	if errors := bv.Validate(req); len(errors) > 0 {
		return errors
	}

	var payload interface{}
	if len(req.Payload) > 0 {
		payload = json.RawMessage(req.Payload)
	}

	topic := events.SessionTopic(sessionID)
	event := events.NewEvent(events.SessionBroadcast, events.BroadcastData{
		SessionID: sessionID,
		Type:      req.Type,
		Payload:   payload,
		SentBy:    senderID,
	})

	if err := s.publisher.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("failed to broadcast to session %s: %w", sessionID, err)
	}

	s.logger.Debug("Session broadcast sent", "session_id", sessionID, "type", req.Type, "event_id", event.ID)
	return nil
}
