package services

import (
	"errors"
	"sort"
	"time"

	"github.com/SAP-F-2025/form-service/internal/models"
)

// Rule tags carried by submission ValidationErrors
const (
	RuleRequired        = "required"
	RuleUnknownField    = "unknown_field"
	RuleUnknownOption   = "unknown_option"
	RuleDuplicateOption = "duplicate_option"
	RuleAnswerShape     = "answer_shape"
)

var errNilForm = errors.New("form is required")

// FieldScore is what one field contributes to a quiz score
type FieldScore struct {
	FieldID  string
	Earned   int
	Possible int
}

// ScoreResult sums the per-field scores of one set of answers
type ScoreResult struct {
	Earned   int
	Possible int
	Fields   []FieldScore
}

// Percentage is Earned/Possible*100 rounded to two decimals, 0 when nothing is scorable
func (r ScoreResult) Percentage() float64 {
	if r.Possible == 0 {
		return 0
	}
	return round2(float64(r.Earned) / float64(r.Possible) * 100)
}

// ProcessSubmission validates answers against a published form and, for quizzes, scores them.
// It does not touch the form or the answers it is given, and the same inputs always give the
// same Submission.
func ProcessSubmission(form *models.Form, answers models.Answers, respondentID *string, now time.Time) (*models.Submission, error) {
	if form == nil {
		return nil, errNilForm
	}
	if form.Status != models.FormPublished {
		return nil, &NotPublishedError{FormID: form.ID, Status: form.Status}
	}

	if errs := ValidateAnswers(form, answers); len(errs) > 0 {
		return nil, errs
	}

	var score *float64
	if form.IsQuiz {
		pct := ScoreAnswers(form, answers).Percentage()
		score = &pct
	}

	var respondent *string
	if respondentID != nil {
		id := *respondentID
		respondent = &id
	}

	return &models.Submission{
		FormID:       form.ID,
		RespondentID: respondent,
		Answers:      answers.Clone(),
		Score:        score,
		SubmittedAt:  now,
	}, nil
}

// ValidateAnswers returns every problem with answers, ordered by field order with unknown
// answer keys last.
func ValidateAnswers(form *models.Form, answers models.Answers) ValidationErrors {
	var errs ValidationErrors

	for _, field := range form.SortedFields() {
		answer, ok := answers[field.ID]
		if !ok || answer.IsBlank() {
			if field.Required {
				errs = append(errs, NewValidationError(field.ID, RuleRequired, "answer is required"))
			}
			continue
		}
		if problem := checkAnswer(&field, answer); problem != nil {
			errs = append(errs, *problem)
		}
	}

	var unknown []string
	for key := range answers {
		if form.FieldByID(key) == nil {
			unknown = append(unknown, key)
		}
	}
	sort.Strings(unknown)
	for _, key := range unknown {
		errs = append(errs, NewValidationError(key, RuleUnknownField, "form has no such field"))
	}

	return errs
}

func checkAnswer(field *models.FormField, answer models.AnswerValue) *ValidationError {
	switch field.Type {
	case models.ShortText, models.LongText:
		if !answer.IsText() {
			return problemOf(NewValidationError(field.ID, RuleAnswerShape, "answer must be text"))
		}

	case models.SingleChoice:
		id, ok := answer.Text()
		if !ok {
			return problemOf(NewValidationError(field.ID, RuleAnswerShape, "answer must be a single option id"))
		}
		if field.OptionByID(id) == nil {
			return problemOf(NewValidationError(field.ID, RuleUnknownOption, "option "+id+" does not exist"))
		}

	case models.MultipleChoice:
		ids, ok := answer.Choices()
		if !ok {
			return problemOf(NewValidationError(field.ID, RuleAnswerShape, "answer must be a list of option ids"))
		}
		seen := make(map[string]bool, len(ids))
		for _, id := range ids {
			if field.OptionByID(id) == nil {
				return problemOf(NewValidationError(field.ID, RuleUnknownOption, "option "+id+" does not exist"))
			}
			if seen[id] {
				return problemOf(NewValidationError(field.ID, RuleDuplicateOption, "option "+id+" selected twice"))
			}
			seen[id] = true
		}
	}
	return nil
}

func problemOf(ve ValidationError) *ValidationError {
	return &ve
}

// ScoreAnswers scores single choice fields only. A field earns the points of the selected option
// and can earn at most the points of its correct option. Other field types score 0 of 0.
// Answers are not validated here.
func ScoreAnswers(form *models.Form, answers models.Answers) ScoreResult {
	var result ScoreResult

	for _, field := range form.SortedFields() {
		if field.Type != models.SingleChoice {
			continue
		}

		fs := FieldScore{FieldID: field.ID}
		if correct := field.CorrectOption(); correct != nil {
			fs.Possible = correct.Points
		}
		if id, ok := answers[field.ID].Text(); ok {
			if option := field.OptionByID(id); option != nil {
				fs.Earned = option.Points
			}
		}

		result.Earned += fs.Earned
		result.Possible += fs.Possible
		result.Fields = append(result.Fields, fs)
	}

	return result
}
