package repositories

import (
	"context"
	"time"

	"github.com/SAP-F-2025/form-service/internal/models"
	"gorm.io/gorm"
)

// ===== SHARED FILTER STRUCTS =====

type FormFilters struct {
	Status    *models.FormStatus `json:"status"`
	IsQuiz    *bool              `json:"is_quiz"`
	CreatedBy *string            `json:"created_by"`
	Search    string             `json:"search"`
	DateFrom  *time.Time         `json:"date_from"`
	DateTo    *time.Time         `json:"date_to"`
	Limit     int                `json:"limit"`
	Offset    int                `json:"offset"`
	SortBy    string             `json:"sort_by"`    // "created_at", "updated_at", "title", "status"
	SortOrder string             `json:"sort_order"` // "asc", "desc"
}

// ResponseFilters pages through a form's responses. Limit 0 returns every row.
type ResponseFilters struct {
	RespondentID *string    `json:"respondent_id"`
	DateFrom     *time.Time `json:"date_from"`
	DateTo       *time.Time `json:"date_to"`
	Limit        int        `json:"limit"`
	Offset       int        `json:"offset"`
	SortBy       string     `json:"sort_by"` // "submitted_at", "score", "id"
	SortOrder    string     `json:"sort_order"`
}

// ===== SHARED STATISTICS STRUCTS =====

// ScoreStats summarises scores over the responses that carry one
type ScoreStats struct {
	ScoredCount  int64   `json:"scored_count"`
	AverageScore float64 `json:"average_score"`
	MinScore     float64 `json:"min_score"`
	MaxScore     float64 `json:"max_score"`
}

// ===== REPOSITORIES =====

type FormRepository interface {
	Create(ctx context.Context, tx *gorm.DB, form *models.Form) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Form, error)
	// GetByIDWithFields loads fields in display order and options in position order
	GetByIDWithFields(ctx context.Context, tx *gorm.DB, id uint) (*models.Form, error)
	Update(ctx context.Context, tx *gorm.DB, form *models.Form) error
	// SaveStructure replaces the stored fields and options with the ones carried by form
	SaveStructure(ctx context.Context, tx *gorm.DB, form *models.Form) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error
	List(ctx context.Context, tx *gorm.DB, filters FormFilters) ([]*models.Form, int64, error)
	ExistsByTitle(ctx context.Context, tx *gorm.DB, title, createdBy string, excludeID *uint) (bool, error)
}

type ResponseRepository interface {
	// Save stores a processed submission and returns the new response id
	Save(ctx context.Context, tx *gorm.DB, submission *models.Submission) (uint, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.SubmissionRecord, error)
	CountByForm(ctx context.Context, tx *gorm.DB, formID uint) (int64, error)
	ListByForm(ctx context.Context, tx *gorm.DB, formID uint, filters ResponseFilters) ([]*models.SubmissionRecord, int64, error)
	DeleteByForm(ctx context.Context, tx *gorm.DB, formID uint) error
	GetScoreStats(ctx context.Context, tx *gorm.DB, formID uint) (*ScoreStats, error)
}
