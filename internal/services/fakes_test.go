package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/SAP-F-2025/form-service/internal/events"
	"github.com/SAP-F-2025/form-service/internal/models"
	"github.com/SAP-F-2025/form-service/internal/repositories"
	"github.com/SAP-F-2025/form-service/internal/validator"
	"gorm.io/gorm"
)

// In-memory repositories shared by the service tests

type fakeRepository struct {
	forms     *fakeFormRepository
	responses *fakeResponseRepository
	users     *fakeUserRepository
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		forms:     &fakeFormRepository{forms: map[uint]*models.Form{}},
		responses: &fakeResponseRepository{},
		users: &fakeUserRepository{users: map[string]*models.User{
			"teacher-1": {ID: "teacher-1", FullName: "Ada Teacher", Role: models.RoleTeacher},
			"teacher-2": {ID: "teacher-2", FullName: "Bob Teacher", Role: models.RoleTeacher},
			"admin-1":   {ID: "admin-1", FullName: "Root Admin", Role: models.RoleAdmin},
			"student-1": {ID: "student-1", FullName: "Sam Student", Role: models.RoleStudent},
		}},
	}
}

func (r *fakeRepository) Form() repositories.FormRepository         { return r.forms }
func (r *fakeRepository) Response() repositories.ResponseRepository { return r.responses }
func (r *fakeRepository) User() repositories.UserRepository         { return r.users }
func (r *fakeRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(r)
}
func (r *fakeRepository) Ping(ctx context.Context) error { return nil }
func (r *fakeRepository) Close() error                   { return nil }

type fakeFormRepository struct {
	mu     sync.Mutex
	forms  map[uint]*models.Form
	nextID uint
}

func (f *fakeFormRepository) store(form *models.Form) {
	c := form.Clone()
	f.forms[form.ID] = &c
}

func (f *fakeFormRepository) Create(ctx context.Context, tx *gorm.DB, form *models.Form) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	form.ID = f.nextID
	for i := range form.Fields {
		form.Fields[i].FormID = form.ID
	}
	f.store(form)
	return nil
}

func (f *fakeFormRepository) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Form, error) {
	return f.GetByIDWithFields(ctx, tx, id)
}

func (f *fakeFormRepository) GetByIDWithFields(ctx context.Context, tx *gorm.DB, id uint) (*models.Form, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	form, ok := f.forms[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	c := form.Clone()
	return &c, nil
}

func (f *fakeFormRepository) Update(ctx context.Context, tx *gorm.DB, form *models.Form) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.forms[form.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	fields := stored.Fields
	c := form.Clone()
	c.Fields = fields
	f.forms[form.ID] = &c
	return nil
}

func (f *fakeFormRepository) SaveStructure(ctx context.Context, tx *gorm.DB, form *models.Form) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.forms[form.ID]; !ok {
		return repositories.ErrNotFound
	}
	f.store(form)
	return nil
}

func (f *fakeFormRepository) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.forms[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(f.forms, id)
	return nil
}

func (f *fakeFormRepository) List(ctx context.Context, tx *gorm.DB, filters repositories.FormFilters) ([]*models.Form, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []*models.Form
	for _, form := range f.forms {
		if filters.CreatedBy != nil && form.CreatedBy != *filters.CreatedBy {
			continue
		}
		if filters.Status != nil && form.Status != *filters.Status {
			continue
		}
		c := form.Clone()
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (f *fakeFormRepository) ExistsByTitle(ctx context.Context, tx *gorm.DB, title, createdBy string, excludeID *uint) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, form := range f.forms {
		if excludeID != nil && form.ID == *excludeID {
			continue
		}
		if form.CreatedBy == createdBy && strings.EqualFold(form.Title, title) {
			return true, nil
		}
	}
	return false, nil
}

type fakeResponseRepository struct {
	mu      sync.Mutex
	records []*models.SubmissionRecord
	nextID  uint
	saves   int

	// saveErr makes Save fail when set
	saveErr error
}

func (r *fakeResponseRepository) Save(ctx context.Context, tx *gorm.DB, submission *models.Submission) (uint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saves++
	if r.saveErr != nil {
		return 0, r.saveErr
	}
	record, err := models.NewSubmissionRecord(submission)
	if err != nil {
		return 0, err
	}
	r.nextID++
	record.ID = r.nextID
	r.records = append(r.records, record)
	return record.ID, nil
}

func (r *fakeResponseRepository) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.SubmissionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, record := range r.records {
		if record.ID == id {
			return record, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *fakeResponseRepository) CountByForm(ctx context.Context, tx *gorm.DB, formID uint) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, record := range r.records {
		if record.FormID == formID {
			n++
		}
	}
	return n, nil
}

func (r *fakeResponseRepository) ListByForm(ctx context.Context, tx *gorm.DB, formID uint, filters repositories.ResponseFilters) ([]*models.SubmissionRecord, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []*models.SubmissionRecord
	for _, record := range r.records {
		if record.FormID != formID {
			continue
		}
		if filters.RespondentID != nil && (record.RespondentID == nil || *record.RespondentID != *filters.RespondentID) {
			continue
		}
		matched = append(matched, record)
	}

	total := int64(len(matched))
	if filters.Offset >= len(matched) {
		return []*models.SubmissionRecord{}, total, nil
	}
	matched = matched[filters.Offset:]
	if filters.Limit > 0 && filters.Limit < len(matched) {
		matched = matched[:filters.Limit]
	}
	return matched, total, nil
}

func (r *fakeResponseRepository) DeleteByForm(ctx context.Context, tx *gorm.DB, formID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.records[:0]
	for _, record := range r.records {
		if record.FormID != formID {
			kept = append(kept, record)
		}
	}
	r.records = kept
	return nil
}

func (r *fakeResponseRepository) GetScoreStats(ctx context.Context, tx *gorm.DB, formID uint) (*repositories.ScoreStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stats := &repositories.ScoreStats{}
	sum := 0.0
	for _, record := range r.records {
		if record.FormID != formID || record.Score == nil {
			continue
		}
		score := *record.Score
		if stats.ScoredCount == 0 || score < stats.MinScore {
			stats.MinScore = score
		}
		if stats.ScoredCount == 0 || score > stats.MaxScore {
			stats.MaxScore = score
		}
		stats.ScoredCount++
		sum += score
	}
	if stats.ScoredCount > 0 {
		stats.AverageScore = sum / float64(stats.ScoredCount)
	}
	return stats, nil
}

type fakeUserRepository struct {
	users map[string]*models.User
}

func (u *fakeUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	if user, ok := u.users[id]; ok {
		return user, nil
	}
	return nil, fmt.Errorf("user %s: %w", id, repositories.ErrNotFound)
}

func (u *fakeUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, user := range u.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (u *fakeUserRepository) GetByIDs(ctx context.Context, ids []string) ([]*models.User, error) {
	var out []*models.User
	for _, id := range ids {
		if user, ok := u.users[id]; ok {
			out = append(out, user)
		}
	}
	return out, nil
}

func (u *fakeUserRepository) List(ctx context.Context, filters repositories.UserFilters) ([]*models.User, int64, error) {
	var out []*models.User
	for _, user := range u.users {
		out = append(out, user)
	}
	return out, int64(len(out)), nil
}

func (u *fakeUserRepository) Search(ctx context.Context, query string, filters repositories.UserFilters) ([]*models.User, int64, error) {
	return u.List(ctx, filters)
}

func (u *fakeUserRepository) ExistsByID(ctx context.Context, id string) (bool, error) {
	_, ok := u.users[id]
	return ok, nil
}

func (u *fakeUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := u.GetByEmail(ctx, email)
	return err == nil, nil
}

func (u *fakeUserRepository) HasRole(ctx context.Context, id string, role models.UserRole) (bool, error) {
	user, ok := u.users[id]
	return ok && user.Role == role, nil
}

// ===== FIXTURES =====

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// sequentialIDs returns f1, f2, ... so tests can predict generated ids
func sequentialIDs(prefix string) models.IDGenerator {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s%d", prefix, n)
	}
}

type testEnv struct {
	repo        *fakeRepository
	publisher   *events.MockEventPublisher
	forms       *formService
	submissions *submissionService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := testLogger()
	repo := newFakeRepository()
	publisher := events.NewMockEventPublisher(logger)
	v := validator.New()

	forms := NewFormService(repo, nil, logger, v, publisher).(*formService)
	forms.ids = sequentialIDs("id-")
	submissions := NewSubmissionService(repo, nil, logger, v, publisher).(*submissionService)

	return &testEnv{repo: repo, publisher: publisher, forms: forms, submissions: submissions}
}

// seedForm stores a form directly, bypassing the service
func (e *testEnv) seedForm(t *testing.T, form models.Form) *models.Form {
	t.Helper()
	if err := e.repo.forms.Create(context.Background(), nil, &form); err != nil {
		t.Fatalf("seed form: %v", err)
	}
	return &form
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }
func intPtr(i int) *int       { return &i }

// quizFixture is a published quiz worth 30 points:
//
//	q1 single choice: a (correct, 10), b (0)
//	q2 single choice: x (correct, 20), y (15), z (0)
//	q3 short text, required
//	q4 multiple choice: m1 (correct, 5), m2 (correct, 5)
func quizFixture() models.Form {
	return models.Form{
		Title:     "Chapter 1 quiz",
		Status:    models.FormPublished,
		IsQuiz:    true,
		CreatedBy: "teacher-1",
		Fields: []models.FormField{
			{ID: "q1", Label: "Capital of France", Type: models.SingleChoice, Order: 0, Options: []models.FormFieldOption{
				{FieldID: "q1", ID: "a", Text: "Paris", IsCorrect: true, Points: 10, Position: 0},
				{FieldID: "q1", ID: "b", Text: "Lyon", Points: 0, Position: 1},
			}},
			{ID: "q2", Label: "Largest planet", Type: models.SingleChoice, Order: 1, Options: []models.FormFieldOption{
				{FieldID: "q2", ID: "x", Text: "Jupiter", IsCorrect: true, Points: 20, Position: 0},
				{FieldID: "q2", ID: "y", Text: "Saturn", Points: 15, Position: 1},
				{FieldID: "q2", ID: "z", Text: "Mars", Points: 0, Position: 2},
			}},
			{ID: "q3", Label: "Your name", Type: models.ShortText, Required: true, Order: 2},
			{ID: "q4", Label: "Pick primes", Type: models.MultipleChoice, Order: 3, Options: []models.FormFieldOption{
				{FieldID: "q4", ID: "m1", Text: "2", IsCorrect: true, Points: 5, Position: 0},
				{FieldID: "q4", ID: "m2", Text: "3", IsCorrect: true, Points: 5, Position: 1},
			}},
		},
	}
}
