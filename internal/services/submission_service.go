package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/SAP-F-2025/form-service/internal/events"
	"github.com/SAP-F-2025/form-service/internal/models"
	"github.com/SAP-F-2025/form-service/internal/repositories"
	"github.com/SAP-F-2025/form-service/internal/validator"
	"gorm.io/gorm"
)

type submissionService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher

	now func() time.Time
}

func NewSubmissionService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, publisher events.EventPublisher) SubmissionService {
	return &submissionService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
		publisher: publisher,
		now:       time.Now,
	}
}

// Submit stores one response. Storage errors are returned as is; event delivery errors are only logged.
func (s *submissionService) Submit(ctx context.Context, formID uint, req *SubmitResponseRequest, respondentID *string) (*models.SubmitResponseResult, error) {
	form, err := loadFormStructure(ctx, s.repo, s.db, formID)
	if err != nil {
		return nil, err
	}

	submission, err := ProcessSubmission(form, req.Answers, respondentID, s.now())
	if err != nil {
		s.logger.Debug("Submission rejected", "form_id", formID, "error", err)
		return nil, err
	}

	responseID, err := s.repo.Response().Save(ctx, s.db, submission)
	if err != nil {
		s.logger.Error("Failed to save response", "form_id", formID, "error", err)
		return nil, err
	}

	s.logger.Info("Response submitted", "form_id", formID, "response_id", responseID, "scored", submission.Score != nil)

	publishQuietly(ctx, s.publisher, s.logger, events.TopicResponses, events.NewEvent(events.ResponseSubmitted, events.ResponseSubmittedData{
		ResponseID:   responseID,
		FormID:       formID,
		RespondentID: submission.RespondentID,
		Score:        submission.Score,
		SubmittedAt:  submission.SubmittedAt,
	}))

	return &models.SubmitResponseResult{
		ResponseID:  responseID,
		FormID:      formID,
		Score:       submission.Score,
		SubmittedAt: submission.SubmittedAt,
	}, nil
}

func (s *submissionService) GetByID(ctx context.Context, id uint, userID string) (*ResponseDetail, error) {
	record, err := s.repo.Response().GetByID(ctx, s.db, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrResponseNotFound
		}
		return nil, fmt.Errorf("failed to get response: %w", err)
	}

	if _, err := s.requireManage(ctx, record.FormID, userID, "read responses of"); err != nil {
		return nil, err
	}

	detail, err := toResponseDetail(record)
	if err != nil {
		return nil, err
	}

	if detail.RespondentID != nil {
		if user, err := s.repo.User().GetByID(ctx, *detail.RespondentID); err == nil {
			detail.Respondent = user
		}
	}

	return detail, nil
}

func (s *submissionService) ListByForm(ctx context.Context, formID uint, params models.ListResponsesParams, userID string) (*models.PaginatedResponse, error) {
	if params.Size == 0 {
		params.Size = defaultPageSize
	}
	if errors := s.validator.GetBusinessValidator().Validate(&params); len(errors) > 0 {
		return nil, errors
	}

	if _, err := s.requireManage(ctx, formID, userID, "read responses of"); err != nil {
		return nil, err
	}

	records, total, err := s.repo.Response().ListByForm(ctx, s.db, formID, repositories.ResponseFilters{
		RespondentID: params.RespondentID,
		DateFrom:     params.DateFrom,
		DateTo:       params.DateTo,
		Limit:        params.Size,
		Offset:       params.Page * params.Size,
		SortBy:       params.SortBy,
		SortOrder:    params.SortDir,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list responses: %w", err)
	}

	details := make([]*ResponseDetail, 0, len(records))
	for _, record := range records {
		detail, err := toResponseDetail(record)
		if err != nil {
			return nil, err
		}
		details = append(details, detail)
	}

	return models.NewPaginatedResponse(details, len(details), total, params.Page, params.Size), nil
}

func (s *submissionService) CountByForm(ctx context.Context, formID uint, userID string) (int64, error) {
	if _, err := s.requireManage(ctx, formID, userID, "count responses of"); err != nil {
		return 0, err
	}

	count, err := s.repo.Response().CountByForm(ctx, s.db, formID)
	if err != nil {
		return 0, fmt.Errorf("failed to count responses: %w", err)
	}
	return count, nil
}

// GetResults aggregates every stored response of a form
func (s *submissionService) GetResults(ctx context.Context, formID uint, userID string) (*models.FormResults, error) {
	form, err := s.requireManage(ctx, formID, userID, "read results of")
	if err != nil {
		return nil, err
	}

	results, _, err := s.buildResults(ctx, form)
	return results, err
}

// buildResults returns the aggregate along with the records it was computed from
func (s *submissionService) buildResults(ctx context.Context, form *models.Form) (*models.FormResults, []*models.SubmissionRecord, error) {
	formID := form.ID
	records, total, err := s.repo.Response().ListByForm(ctx, s.db, formID, repositories.ResponseFilters{})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list responses: %w", err)
	}

	results := &models.FormResults{
		FormID:        form.ID,
		Title:         form.Title,
		IsQuiz:        form.IsQuiz,
		ResponseCount: total,
		Fields:        []models.FieldResults{},
		Responses:     make([]models.ResponseSummary, 0, len(records)),
	}

	if form.IsQuiz {
		stats, err := s.repo.Response().GetScoreStats(ctx, s.db, formID)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to get score stats: %w", err)
		}
		results.ScoredCount = stats.ScoredCount
		if stats.ScoredCount > 0 {
			avg := round2(stats.AverageScore)
			minScore, maxScore := stats.MinScore, stats.MaxScore
			results.AverageScore = &avg
			results.MinScore = &minScore
			results.MaxScore = &maxScore
		}
	}

	answerSets := make([]models.Answers, 0, len(records))
	for _, record := range records {
		answers, err := record.DecodeAnswers()
		if err != nil {
			return nil, nil, err
		}
		answerSets = append(answerSets, answers)

		scored := ScoreAnswers(form, answers)
		results.Responses = append(results.Responses, models.ResponseSummary{
			ID:           record.ID,
			RespondentID: record.RespondentID,
			Score:        record.Score,
			Earned:       scored.Earned,
			Possible:     scored.Possible,
			SubmittedAt:  record.SubmittedAt,
		})
	}

	for _, field := range form.SortedFields() {
		results.Fields = append(results.Fields, aggregateField(field, answerSets, form.IsQuiz))
	}

	return results, records, nil
}

// ===== HELPERS =====

// requireManage loads the form and checks the caller may see its responses
func (s *submissionService) requireManage(ctx context.Context, formID uint, userID, action string) (*models.Form, error) {
	form, err := loadFormStructure(ctx, s.repo, s.db, formID)
	if err != nil {
		return nil, err
	}

	ok, err := canManageForm(ctx, s.repo, form, userID)
	if err != nil {
		return nil, fmt.Errorf("permission check failed: %w", err)
	}
	if !ok {
		return nil, NewPermissionError(userID, formID, "form", action, "not owner or insufficient permissions")
	}
	return form, nil
}

func toResponseDetail(record *models.SubmissionRecord) (*ResponseDetail, error) {
	answers, err := record.DecodeAnswers()
	if err != nil {
		return nil, err
	}
	return &ResponseDetail{
		ID:           record.ID,
		FormID:       record.FormID,
		RespondentID: record.RespondentID,
		Answers:      answers,
		Score:        record.Score,
		SubmittedAt:  record.SubmittedAt,
	}, nil
}

func aggregateField(field models.FormField, answerSets []models.Answers, isQuiz bool) models.FieldResults {
	result := models.FieldResults{
		FieldID: field.ID,
		Label:   field.Label,
		Type:    field.Type,
	}

	selections := make(map[string]int, len(field.Options))
	correct := 0
	for _, answers := range answerSets {
		answer, ok := answers[field.ID]
		if !ok || answer.IsBlank() {
			continue
		}
		result.AnswerCount++

		if id, ok := answer.Text(); ok && field.Type == models.SingleChoice {
			selections[id]++
			if opt := field.OptionByID(id); opt != nil && opt.IsCorrect {
				correct++
			}
		}
		if ids, ok := answer.Choices(); ok && field.Type == models.MultipleChoice {
			for _, id := range ids {
				selections[id]++
			}
		}
	}

	if field.Type.IsChoice() {
		result.Options = make([]models.OptionStat, 0, len(field.Options))
		for _, opt := range field.Options {
			result.Options = append(result.Options, models.OptionStat{
				OptionID:       opt.ID,
				OptionText:     opt.Text,
				SelectionCount: selections[opt.ID],
				SelectionRate:  rate(selections[opt.ID], result.AnswerCount),
				IsCorrect:      opt.IsCorrect,
			})
		}
	}

	if isQuiz && field.Type == models.SingleChoice && field.CorrectOption() != nil {
		r := rate(correct, result.AnswerCount)
		result.CorrectRate = &r
	}

	return result
}

// rate is part/whole as a percentage with two decimals, 0 for an empty whole
func rate(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return round2(float64(part) / float64(whole) * 100)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
