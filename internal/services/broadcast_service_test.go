package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/SAP-F-2025/form-service/internal/events"
	"github.com/SAP-F-2025/form-service/internal/validator"
)

func TestBroadcastService_Broadcast(t *testing.T) {
	tests := []struct {
		name      string
		sessionID string
		req       *BroadcastRequest
		failWith  error
		wantTopic string
		wantErr   func(error) bool
	}{
		{
			name:      "delivers to the session topic",
			sessionID: "room-42",
			req:       &BroadcastRequest{Type: "next_question", Payload: json.RawMessage(`{"index":3}`)},
			wantTopic: "quiz-session.room-42",
		},
		{
			name:      "payload is optional",
			sessionID: "abc_DEF",
			req:       &BroadcastRequest{Type: "end"},
			wantTopic: "quiz-session.abc_DEF",
		},
		{
			name:      "session id with spaces",
			sessionID: "room 42",
			req:       &BroadcastRequest{Type: "end"},
			wantErr:   IsValidationError,
		},
		{
			name:      "missing type",
			sessionID: "room-42",
			req:       &BroadcastRequest{},
			wantErr:   IsValidationError,
		},
		{
			name:      "transport refuses the message",
			sessionID: "room-42",
			req:       &BroadcastRequest{Type: "end"},
			failWith:  events.ErrPublisherClosed,
			wantErr:   func(err error) bool { return errors.Is(err, events.ErrPublisherClosed) },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			publisher := events.NewMockEventPublisher(testLogger())
			publisher.FailWith = tt.failWith
			svc := NewBroadcastService(publisher, testLogger(), validator.New())

			err := svc.Broadcast(context.Background(), tt.sessionID, tt.req, "teacher-1")

			if tt.wantErr != nil {
				if !tt.wantErr(err) {
					t.Errorf("Broadcast() error = %v", err)
				}
				if n := len(publisher.GetPublishedEvents()); n != 0 {
					t.Errorf("%d events recorded for a failed broadcast", n)
				}
				return
			}
			if err != nil {
				t.Fatalf("Broadcast() error = %v", err)
			}

			topics := publisher.GetPublishedTopics()
			if len(topics) != 1 || topics[0] != tt.wantTopic {
				t.Fatalf("topics = %v, want [%s]", topics, tt.wantTopic)
			}
			event := publisher.GetPublishedEvents()[0]
			data, ok := event.Data.(events.BroadcastData)
			if !ok {
				t.Fatalf("event data = %T, want BroadcastData", event.Data)
			}
			if event.Type != events.SessionBroadcast || data.SessionID != tt.sessionID || data.Type != tt.req.Type || data.SentBy != "teacher-1" {
				t.Errorf("event = %+v, data = %+v", event, data)
			}
			if len(tt.req.Payload) == 0 && data.Payload != nil {
				t.Errorf("payload = %v, want nil", data.Payload)
			}
		})
	}
}
