package services

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/SAP-F-2025/form-service/internal/events"
	"github.com/SAP-F-2025/form-service/internal/models"
	"github.com/xuri/excelize/v2"
)

func submitAnswers(answers models.Answers) *SubmitResponseRequest {
	return &SubmitResponseRequest{Answers: answers}
}

func TestSubmissionService_Submit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	form := env.seedForm(t, quizFixture())
	respondent := "student-1"

	got, err := env.submissions.Submit(ctx, form.ID, submitAnswers(models.Answers{
		"q1": models.TextAnswer("a"),
		"q2": models.TextAnswer("y"),
		"q3": models.TextAnswer("Sam"),
	}), &respondent)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	if got.ResponseID == 0 || got.FormID != form.ID {
		t.Errorf("Submit() = %+v", got)
	}
	if got.Score == nil || *got.Score != 83.33 {
		t.Errorf("Submit() score = %v, want 83.33", got.Score)
	}
	if env.repo.responses.saves != 1 {
		t.Errorf("Save called %d times, want 1", env.repo.responses.saves)
	}

	record, err := env.repo.responses.GetByID(ctx, nil, got.ResponseID)
	if err != nil {
		t.Fatalf("stored response: %v", err)
	}
	if record.RespondentID == nil || *record.RespondentID != respondent {
		t.Errorf("stored respondent = %v", record.RespondentID)
	}

	published := env.publisher.GetPublishedEvents()
	if len(published) != 1 || published[0].Type != events.ResponseSubmitted {
		t.Fatalf("published = %+v, want one response.submitted", published)
	}
	if topic := env.publisher.GetPublishedTopics()[0]; topic != events.TopicResponses {
		t.Errorf("topic = %s, want %s", topic, events.TopicResponses)
	}
}

func TestSubmissionService_SubmitRejected(t *testing.T) {
	tests := []struct {
		name    string
		status  models.FormStatus
		answers models.Answers
		check   func(t *testing.T, err error)
	}{
		{
			name:    "draft form",
			status:  models.FormDraft,
			answers: models.Answers{"q3": models.TextAnswer("Sam")},
			check: func(t *testing.T, err error) {
				if !errors.Is(err, ErrFormNotPublished) {
					t.Errorf("Submit() error = %v, want ErrFormNotPublished", err)
				}
			},
		},
		{
			name:    "archived form",
			status:  models.FormArchived,
			answers: models.Answers{"q3": models.TextAnswer("Sam")},
			check: func(t *testing.T, err error) {
				if !errors.Is(err, ErrFormNotPublished) {
					t.Errorf("Submit() error = %v, want ErrFormNotPublished", err)
				}
			},
		},
		{
			name:    "missing required answer",
			status:  models.FormPublished,
			answers: models.Answers{"q1": models.TextAnswer("a")},
			check: func(t *testing.T, err error) {
				var ve ValidationErrors
				if !errors.As(err, &ve) || ve[0].Field != "q3" {
					t.Errorf("Submit() error = %v, want required error on q3", err)
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			fixture := quizFixture()
			fixture.Status = tt.status
			form := env.seedForm(t, fixture)

			_, err := env.submissions.Submit(context.Background(), form.ID, submitAnswers(tt.answers), nil)
			tt.check(t, err)

			if env.repo.responses.saves != 0 {
				t.Errorf("Save called %d times on a rejected submission", env.repo.responses.saves)
			}
			if n := len(env.publisher.GetPublishedEvents()); n != 0 {
				t.Errorf("%d events published for a rejected submission", n)
			}
		})
	}
}

func TestSubmissionService_SubmitUnknownForm(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.submissions.Submit(context.Background(), 42, submitAnswers(models.Answers{}), nil)
	if !errors.Is(err, ErrFormNotFound) {
		t.Errorf("Submit() error = %v, want ErrFormNotFound", err)
	}
}

func TestSubmissionService_SubmitStorageFailure(t *testing.T) {
	env := newTestEnv(t)
	form := env.seedForm(t, quizFixture())
	storageErr := errors.New("connection reset")
	env.repo.responses.saveErr = storageErr

	_, err := env.submissions.Submit(context.Background(), form.ID, submitAnswers(models.Answers{"q3": models.TextAnswer("Sam")}), nil)
	if !errors.Is(err, storageErr) {
		t.Fatalf("Submit() error = %v, want the storage error", err)
	}
	if env.repo.responses.saves != 1 {
		t.Errorf("Save called %d times, want exactly 1", env.repo.responses.saves)
	}
	if n := len(env.publisher.GetPublishedEvents()); n != 0 {
		t.Errorf("%d events published after a failed save", n)
	}
}

func TestSubmissionService_SubmitSurvivesPublishFailure(t *testing.T) {
	env := newTestEnv(t)
	form := env.seedForm(t, quizFixture())
	env.publisher.FailWith = errors.New("broker unavailable")

	got, err := env.submissions.Submit(context.Background(), form.ID, submitAnswers(models.Answers{"q3": models.TextAnswer("Sam")}), nil)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if got.ResponseID == 0 {
		t.Error("response was not stored")
	}
}

func TestSubmissionService_Reads(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	form := env.seedForm(t, quizFixture())

	for _, answers := range []models.Answers{
		{"q1": models.TextAnswer("a"), "q2": models.TextAnswer("x"), "q3": models.TextAnswer("One")},
		{"q1": models.TextAnswer("b"), "q2": models.TextAnswer("x"), "q3": models.TextAnswer("Two")},
		{"q1": models.TextAnswer("a"), "q3": models.TextAnswer("Three"), "q4": models.ChoicesAnswer("m1", "m2")},
	} {
		if _, err := env.submissions.Submit(ctx, form.ID, submitAnswers(answers), strPtr("student-1")); err != nil {
			t.Fatalf("Submit() error = %v", err)
		}
	}

	t.Run("count", func(t *testing.T) {
		n, err := env.submissions.CountByForm(ctx, form.ID, "teacher-1")
		if err != nil || n != 3 {
			t.Errorf("CountByForm() = %d, %v, want 3", n, err)
		}
		if _, err := env.submissions.CountByForm(ctx, form.ID, "teacher-2"); !IsPermissionError(err) {
			t.Errorf("CountByForm() by another teacher error = %v, want PermissionError", err)
		}
	})

	t.Run("list pages", func(t *testing.T) {
		page, err := env.submissions.ListByForm(ctx, form.ID, models.ListResponsesParams{Page: 1, Size: 2}, "teacher-1")
		if err != nil {
			t.Fatalf("ListByForm() error = %v", err)
		}
		details := page.Content.([]*ResponseDetail)
		if page.TotalElements != 3 || page.TotalPages != 2 || len(details) != 1 || !page.Last {
			t.Errorf("ListByForm() = %+v", page)
		}
		if got, _ := details[0].Answers["q3"].Text(); got != "Three" {
			t.Errorf("answers = %v", details[0].Answers)
		}
	})

	t.Run("get by id resolves the respondent", func(t *testing.T) {
		detail, err := env.submissions.GetByID(ctx, 1, "admin-1")
		if err != nil {
			t.Fatalf("GetByID() error = %v", err)
		}
		if detail.Respondent == nil || detail.Respondent.FullName != "Sam Student" {
			t.Errorf("respondent = %+v", detail.Respondent)
		}
		if _, err := env.submissions.GetByID(ctx, 99, "admin-1"); !errors.Is(err, ErrResponseNotFound) {
			t.Errorf("GetByID(99) error = %v, want ErrResponseNotFound", err)
		}
	})

	t.Run("results", func(t *testing.T) {
		results, err := env.submissions.GetResults(ctx, form.ID, "teacher-1")
		if err != nil {
			t.Fatalf("GetResults() error = %v", err)
		}
		// scores: 100, 66.67, 33.33
		if results.ResponseCount != 3 || results.ScoredCount != 3 {
			t.Fatalf("GetResults() counts = %d/%d", results.ResponseCount, results.ScoredCount)
		}
		if *results.AverageScore != 66.67 || *results.MinScore != 33.33 || *results.MaxScore != 100 {
			t.Errorf("GetResults() scores = %v/%v/%v", *results.AverageScore, *results.MinScore, *results.MaxScore)
		}

		q1 := results.Fields[0]
		if q1.FieldID != "q1" || q1.AnswerCount != 3 || q1.Options[0].SelectionCount != 2 || q1.Options[0].SelectionRate != 66.67 {
			t.Errorf("q1 results = %+v", q1)
		}
		if q1.CorrectRate == nil || *q1.CorrectRate != 66.67 {
			t.Errorf("q1 correct rate = %v, want 66.67", q1.CorrectRate)
		}

		q4 := results.Fields[3]
		if q4.AnswerCount != 1 || q4.Options[0].SelectionCount != 1 || q4.CorrectRate != nil {
			t.Errorf("q4 results = %+v", q4)
		}

		if r := results.Responses[1]; r.Earned != 20 || r.Possible != 30 {
			t.Errorf("second response = %d/%d, want 20/30", r.Earned, r.Possible)
		}
	})

	t.Run("export", func(t *testing.T) {
		file, err := env.submissions.Export(ctx, form.ID, "teacher-1")
		if err != nil {
			t.Fatalf("Export() error = %v", err)
		}
		if file.FileName != "form-1-responses.xlsx" || file.ContentType != xlsxContentType {
			t.Errorf("Export() = %s %s", file.FileName, file.ContentType)
		}

		book, err := excelize.OpenReader(bytes.NewReader(file.Data))
		if err != nil {
			t.Fatalf("OpenReader() error = %v", err)
		}
		defer book.Close()

		rows, err := book.GetRows(responsesSheet)
		if err != nil {
			t.Fatalf("GetRows() error = %v", err)
		}
		if len(rows) != 4 {
			t.Fatalf("responses sheet has %d rows, want header + 3", len(rows))
		}
		wantHeader := []string{"Response ID", "Respondent", "Submitted At", "Score", "Capital of France", "Largest planet", "Your name", "Pick primes"}
		for i, want := range wantHeader {
			if rows[0][i] != want {
				t.Errorf("header[%d] = %q, want %q", i, rows[0][i], want)
			}
		}
		if rows[1][1] != "student-1" || rows[1][4] != "Paris" || rows[1][6] != "One" {
			t.Errorf("first row = %v", rows[1])
		}
		if rows[3][7] != "2, 3" {
			t.Errorf("multiple choice cell = %q, want %q", rows[3][7], "2, 3")
		}

		summary, err := book.GetRows(summarySheet)
		if err != nil {
			t.Fatalf("GetRows() error = %v", err)
		}
		// header plus 2 + 3 + 2 option rows
		if len(summary) != 8 || summary[1][0] != "Capital of France" || summary[1][2] != "true" {
			t.Errorf("summary sheet = %v", summary)
		}

		if _, err := env.submissions.Export(ctx, form.ID, "student-1"); !IsPermissionError(err) {
			t.Errorf("Export() by a student error = %v, want PermissionError", err)
		}
	})
}

func TestSubmissionService_ResultsOfASurvey(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	fixture := quizFixture()
	fixture.IsQuiz = false
	form := env.seedForm(t, fixture)

	if _, err := env.submissions.Submit(ctx, form.ID, submitAnswers(models.Answers{"q1": models.TextAnswer("a"), "q3": models.TextAnswer("Sam")}), nil); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	results, err := env.submissions.GetResults(ctx, form.ID, "teacher-1")
	if err != nil {
		t.Fatalf("GetResults() error = %v", err)
	}
	if results.AverageScore != nil || results.ScoredCount != 0 || results.Fields[0].CorrectRate != nil {
		t.Errorf("survey results carry scores: %+v", results)
	}
	if results.Responses[0].Score != nil {
		t.Errorf("survey response score = %v, want nil", *results.Responses[0].Score)
	}
}
