package services

import (
	"context"
	"testing"

	"github.com/SAP-F-2025/form-service/internal/events"
	"github.com/SAP-F-2025/form-service/internal/validator"
)

func TestServiceManager_Lifecycle(t *testing.T) {
	ctx := context.Background()
	publisher := events.NewMockEventPublisher(testLogger())
	sm := NewDefaultServiceManager(nil, newFakeRepository(), testLogger(), validator.New(), publisher)

	func() {
		defer func() {
			if recover() == nil {
				t.Error("Form() before Initialize did not panic")
			}
		}()
		sm.Form()
	}()

	if err := sm.HealthCheck(ctx); err == nil {
		t.Error("HealthCheck() before Initialize error = nil")
	}

	if err := sm.Initialize(ctx); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if sm.Form() == nil || sm.Submission() == nil || sm.Broadcast() == nil {
		t.Fatal("services not initialized")
	}
	if err := sm.HealthCheck(ctx); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}

	if err := sm.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if err := sm.HealthCheck(ctx); err == nil {
		t.Error("HealthCheck() after Shutdown error = nil")
	}
}

func TestServiceManager_InitializeRequiresDependencies(t *testing.T) {
	tests := []struct {
		name string
		sm   ServiceManager
	}{
		{
			name: "no repository",
			sm:   NewDefaultServiceManager(nil, nil, testLogger(), validator.New(), events.NewMockEventPublisher(nil)),
		},
		{
			name: "no publisher",
			sm:   NewDefaultServiceManager(nil, newFakeRepository(), testLogger(), validator.New(), nil),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.sm.Initialize(context.Background()); err == nil {
				t.Error("Initialize() error = nil")
			}
		})
	}
}
