package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/SAP-F-2025/form-service/internal/models"
	"github.com/SAP-F-2025/form-service/internal/repositories"
	"gorm.io/gorm"
)

// Whitelisted sort columns per table
var (
	formSortColumns = map[string]bool{
		"created_at": true,
		"updated_at": true,
		"id":         true,
		"title":      true,
		"status":     true,
	}

	responseSortColumns = map[string]bool{
		"submitted_at": true,
		"score":        true,
		"id":           true,
	}
)

// SharedHelpers contains common database operations
type SharedHelpers struct {
	db *gorm.DB
}

func NewSharedHelpers(db *gorm.DB) *SharedHelpers {
	return &SharedHelpers{db: db}
}

// CountResponses counts responses stored for a form
func (h *SharedHelpers) CountResponses(ctx context.Context, db *gorm.DB, formID uint) (int64, error) {
	if db == nil {
		db = h.db
	}
	var count int64
	err := db.WithContext(ctx).
		Model(&models.SubmissionRecord{}).
		Where("form_id = ?", formID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count responses: %w", err)
	}
	return count, nil
}

// CountFieldsByForm returns the number of fields per form id
func (h *SharedHelpers) CountFieldsByForm(ctx context.Context, db *gorm.DB, formIDs []uint) (map[uint]int, error) {
	if db == nil {
		db = h.db
	}
	var rows []struct {
		FormID uint
		Count  int
	}
	err := db.WithContext(ctx).
		Model(&models.FormField{}).
		Select("form_id, COUNT(*) AS count").
		Where("form_id IN ?", formIDs).
		Group("form_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count fields: %w", err)
	}

	counts := make(map[uint]int, len(rows))
	for _, row := range rows {
		counts[row.FormID] = row.Count
	}
	return counts, nil
}

// ApplyFormFilters applies common filters to form queries
func (h *SharedHelpers) ApplyFormFilters(query *gorm.DB, filters repositories.FormFilters) *gorm.DB {
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.IsQuiz != nil {
		query = query.Where("is_quiz = ?", *filters.IsQuiz)
	}
	if filters.CreatedBy != nil {
		query = query.Where("created_by = ?", *filters.CreatedBy)
	}
	if search := strings.TrimSpace(filters.Search); search != "" {
		query = query.Where("title ILIKE ?", "%"+escapeLike(search)+"%")
	}
	if filters.DateFrom != nil {
		query = query.Where("created_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("created_at <= ?", *filters.DateTo)
	}
	return query
}

// ApplyResponseFilters applies common filters to response queries
func (h *SharedHelpers) ApplyResponseFilters(query *gorm.DB, filters repositories.ResponseFilters) *gorm.DB {
	if filters.RespondentID != nil {
		query = query.Where("respondent_id = ?", *filters.RespondentID)
	}
	if filters.DateFrom != nil {
		query = query.Where("submitted_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("submitted_at <= ?", *filters.DateTo)
	}
	return query
}

// ApplyPaginationAndSort applies pagination and sorting with SQL injection protection.
// Unknown columns fall back to created_at, or id for tables without it. Limit 0 means no limit.
func (h *SharedHelpers) ApplyPaginationAndSort(query *gorm.DB, allowed map[string]bool, sortBy, sortOrder string, limit, offset int) *gorm.DB {
	if sortBy == "" || !allowed[sortBy] {
		if allowed["created_at"] {
			sortBy = "created_at"
		} else {
			sortBy = "id"
		}
	}

	if strings.EqualFold(sortOrder, "asc") {
		sortOrder = "ASC"
	} else {
		sortOrder = "DESC"
	}

	// id as tie breaker keeps paging stable
	query = query.Order(sortBy + " " + sortOrder)
	if sortBy != "id" {
		query = query.Order("id " + sortOrder)
	}

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	return query
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
