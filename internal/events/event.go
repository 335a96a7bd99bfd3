package events

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	EventSource  = "form-service"
	EventVersion = "1.0"
)

// Topics
const (
	TopicForms     = "forms"
	TopicResponses = "form-responses"

	sessionTopicPrefix = "quiz-session."
)

// Event types
const (
	FormCreated       = "form.created"
	FormUpdated       = "form.updated"
	FormStatusChanged = "form.status_changed"
	FormDeleted       = "form.deleted"
	ResponseSubmitted = "response.submitted"
	SessionBroadcast  = "quiz_session.broadcast"
)

// Event is the envelope every published message carries
type Event struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Source    string      `json:"source"`
	Version   string      `json:"version"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

func NewEvent(eventType string, data interface{}) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Source:    EventSource,
		Version:   EventVersion,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// SessionTopic names the realtime topic of a live quiz session
func SessionTopic(sessionID string) string {
	return sessionTopicPrefix + sessionID
}

// EventPublisher delivers events to a topic. Delivery is fire-and-forget: a nil error means
// the transport accepted the message, nothing more.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, event *Event) error
	Close() error
}

// ===== EVENT PAYLOADS =====

type FormEventData struct {
	FormID    uint   `json:"form_id"`
	Title     string `json:"title"`
	Status    string `json:"status"`
	IsQuiz    bool   `json:"is_quiz"`
	ChangedBy string `json:"changed_by"`
	Change    string `json:"change,omitempty"`
}

type StatusChangedData struct {
	FormID    uint   `json:"form_id"`
	OldStatus string `json:"old_status"`
	NewStatus string `json:"new_status"`
	ChangedBy string `json:"changed_by"`
}

type ResponseSubmittedData struct {
	ResponseID   uint      `json:"response_id"`
	FormID       uint      `json:"form_id"`
	RespondentID *string   `json:"respondent_id"`
	Score        *float64  `json:"score"`
	SubmittedAt  time.Time `json:"submitted_at"`
}

type BroadcastData struct {
	SessionID string      `json:"session_id"`
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload"`
	SentBy    string      `json:"sent_by,omitempty"`
}

var ErrPublisherClosed = fmt.Errorf("event publisher closed")
