package handlers

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/form-service/internal/models"
	"github.com/SAP-F-2025/form-service/internal/repositories"
	"github.com/SAP-F-2025/form-service/internal/services"
	"github.com/SAP-F-2025/form-service/internal/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testLogger() utils.Logger {
	return utils.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// Tokens accepted by fakeParser, keyed to the users in fakeUsers
var testTokens = map[string]casdoorsdk.Claims{
	"teacher-token": {User: casdoorsdk.User{Id: "teacher-1", Type: "teacher"}},
	"student-token": {User: casdoorsdk.User{Id: "student-1"}},
	"guest-token":   {User: casdoorsdk.User{Id: "guest-9", DisplayName: "Guest", Type: "student"}},
}

type fakeParser struct{}

func (fakeParser) ParseJwtToken(token string) (*casdoorsdk.Claims, error) {
	claims, ok := testTokens[token]
	if !ok {
		return nil, fmt.Errorf("token signature is invalid")
	}
	return &claims, nil
}

type fakeUsers struct {
	repositories.UserRepository
}

func (fakeUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	switch id {
	case "teacher-1":
		return &models.User{ID: id, FullName: "Ada Teacher", Role: models.RoleTeacher}, nil
	case "student-1":
		return &models.User{ID: id, FullName: "Sam Student", Role: models.RoleStudent}, nil
	}
	return nil, fmt.Errorf("user %s: %w", id, repositories.ErrNotFound)
}

type fakeFormService struct {
	services.FormService
	err error
}

func (f *fakeFormService) Create(_ context.Context, req *services.CreateFormRequest, creatorID string) (*services.FormResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &services.FormResponse{
		Form:    &models.Form{ID: 7, Title: req.Title, CreatedBy: creatorID, Status: models.FormDraft},
		CanEdit: true,
	}, nil
}

func (f *fakeFormService) GetPublished(_ context.Context, id uint) (*models.Form, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.Form{ID: id, Title: "Capitals", Status: models.FormPublished}, nil
}

type fakeSubmissionService struct {
	services.SubmissionService
	err          error
	respondentID *string
	calls        int
}

func (f *fakeSubmissionService) Submit(_ context.Context, formID uint, _ *services.SubmitResponseRequest, respondentID *string) (*models.SubmitResponseResult, error) {
	f.calls++
	f.respondentID = respondentID
	if f.err != nil {
		return nil, f.err
	}
	score := 83.33
	return &models.SubmitResponseResult{ResponseID: 1, FormID: formID, Score: &score}, nil
}

func (f *fakeSubmissionService) Export(_ context.Context, formID uint, _ string) (*services.ExportFile, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &services.ExportFile{
		FileName:    fmt.Sprintf("form-%d-responses.xlsx", formID),
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		Data:        []byte("PK-fake-workbook"),
	}, nil
}

type fakeBroadcastService struct {
	err       error
	sessionID string
	senderID  string
}

func (f *fakeBroadcastService) Broadcast(_ context.Context, sessionID string, _ *services.BroadcastRequest, senderID string) error {
	f.sessionID = sessionID
	f.senderID = senderID
	return f.err
}

type fakeServiceManager struct {
	forms      *fakeFormService
	responses  *fakeSubmissionService
	broadcasts *fakeBroadcastService
	healthErr  error
}

func (m *fakeServiceManager) Form() services.FormService             { return m.forms }
func (m *fakeServiceManager) Submission() services.SubmissionService { return m.responses }
func (m *fakeServiceManager) Broadcast() services.BroadcastService   { return m.broadcasts }
func (m *fakeServiceManager) Initialize(context.Context) error       { return nil }
func (m *fakeServiceManager) HealthCheck(context.Context) error      { return m.healthErr }
func (m *fakeServiceManager) Shutdown(context.Context) error         { return nil }

func newTestRouter(t *testing.T) (*gin.Engine, *fakeServiceManager) {
	t.Helper()

	sm := &fakeServiceManager{
		forms:      &fakeFormService{},
		responses:  &fakeSubmissionService{},
		broadcasts: &fakeBroadcastService{},
	}
	users := fakeUsers{}
	hm := newHandlerManager(sm, testLogger(), newCasdoorAuthMiddleware(fakeParser{}, users), users)

	router := gin.New()
	hm.SetupRoutes(router)
	return router, sm
}

func doRequest(router http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}
