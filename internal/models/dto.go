package models

import (
	"time"
)

// ===== PAGINATION & FILTERING =====

type ListFormsParams struct {
	Page     int        `json:"page" form:"page" validate:"min=0"`
	Size     int        `json:"size" form:"size" validate:"min=1,max=100"`
	Status   FormStatus `json:"status" form:"status"`
	IsQuiz   *bool      `json:"is_quiz" form:"is_quiz"`
	Search   string     `json:"search" form:"search"`
	SortBy   string     `json:"sort_by" form:"sort_by"`
	SortDir  string     `json:"sort_dir" form:"sort_dir" validate:"omitempty,oneof=asc desc"`
	DateFrom *time.Time `json:"date_from" form:"date_from"`
	DateTo   *time.Time `json:"date_to" form:"date_to"`
}

type ListResponsesParams struct {
	Page         int        `json:"page" form:"page" validate:"min=0"`
	Size         int        `json:"size" form:"size" validate:"min=1,max=100"`
	RespondentID *string    `json:"respondent_id" form:"respondent_id"`
	SortBy       string     `json:"sort_by" form:"sort_by"`
	SortDir      string     `json:"sort_dir" form:"sort_dir" validate:"omitempty,oneof=asc desc"`
	DateFrom     *time.Time `json:"date_from" form:"date_from"`
	DateTo       *time.Time `json:"date_to" form:"date_to"`
}

type PaginatedResponse struct {
	Content          interface{} `json:"content"`
	TotalElements    int64       `json:"total_elements"`
	TotalPages       int         `json:"total_pages"`
	Size             int         `json:"size"`
	Page             int         `json:"page"`
	First            bool        `json:"first"`
	Last             bool        `json:"last"`
	NumberOfElements int         `json:"number_of_elements"`
	Empty            bool        `json:"empty"`
}

// NewPaginatedResponse fills the page metadata for a zero-based page
func NewPaginatedResponse(content interface{}, count int, total int64, page, size int) *PaginatedResponse {
	totalPages := 0
	if size > 0 {
		totalPages = int((total + int64(size) - 1) / int64(size))
	}
	return &PaginatedResponse{
		Content:          content,
		TotalElements:    total,
		TotalPages:       totalPages,
		Size:             size,
		Page:             page,
		First:            page == 0,
		Last:             page >= totalPages-1,
		NumberOfElements: count,
		Empty:            count == 0,
	}
}

// ===== RESULTS =====

type OptionStat struct {
	OptionID       string  `json:"option_id"`
	OptionText     string  `json:"option_text"`
	SelectionCount int     `json:"selection_count"`
	SelectionRate  float64 `json:"selection_rate"`
	IsCorrect      bool    `json:"is_correct"`
}

// FieldResults aggregates the answers given to one field
type FieldResults struct {
	FieldID     string       `json:"field_id"`
	Label       string       `json:"label"`
	Type        FieldType    `json:"type"`
	AnswerCount int          `json:"answer_count"`
	Options     []OptionStat `json:"options,omitempty"`
	// CorrectRate is set for scored single choice fields on quizzes
	CorrectRate *float64 `json:"correct_rate,omitempty"`
}

type ResponseSummary struct {
	ID           uint      `json:"id"`
	RespondentID *string   `json:"respondent_id"`
	Score        *float64  `json:"score"`
	Earned       int       `json:"earned"`
	Possible     int       `json:"possible"`
	SubmittedAt  time.Time `json:"submitted_at"`
}

type FormResults struct {
	FormID        uint              `json:"form_id"`
	Title         string            `json:"title"`
	IsQuiz        bool              `json:"is_quiz"`
	ResponseCount int64             `json:"response_count"`
	ScoredCount   int64             `json:"scored_count"`
	AverageScore  *float64          `json:"average_score"`
	MinScore      *float64          `json:"min_score"`
	MaxScore      *float64          `json:"max_score"`
	Fields        []FieldResults    `json:"fields"`
	Responses     []ResponseSummary `json:"responses"`
}

// ===== STATUS MANAGEMENT =====

type StatusChangeResponse struct {
	FormID    uint       `json:"form_id"`
	OldStatus FormStatus `json:"old_status"`
	NewStatus FormStatus `json:"new_status"`
	ChangedBy string     `json:"changed_by"`
	ChangedAt time.Time  `json:"changed_at"`
}

type SubmitResponseResult struct {
	ResponseID  uint      `json:"response_id"`
	FormID      uint      `json:"form_id"`
	Score       *float64  `json:"score"`
	SubmittedAt time.Time `json:"submitted_at"`
}
