package postgres

import (
	"context"
	"fmt"

	"github.com/SAP-F-2025/form-service/internal/cache"
	"github.com/SAP-F-2025/form-service/internal/models"
	"github.com/SAP-F-2025/form-service/internal/repositories"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type ResponsePostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewResponsePostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.ResponseRepository {
	return &ResponsePostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (r *ResponsePostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

// Save inserts one response row. Database errors are wrapped and returned to the caller.
func (r *ResponsePostgreSQL) Save(ctx context.Context, tx *gorm.DB, submission *models.Submission) (uint, error) {
	record, err := models.NewSubmissionRecord(submission)
	if err != nil {
		return 0, err
	}

	if err := r.getDB(tx).WithContext(ctx).Omit("Form", "Respondent").Create(record).Error; err != nil {
		return 0, fmt.Errorf("failed to save response: %w", err)
	}

	cache.InvalidateResponseStats(ctx, r.cacheManager, submission.FormID)

	return record.ID, nil
}

func (r *ResponsePostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.SubmissionRecord, error) {
	var record models.SubmissionRecord

	err := r.cacheManager.Response.CacheOrExecute(ctx, cache.ResponseKey(id), &record, cache.ResponseCacheConfig.TTL, func() (interface{}, error) {
		var dbRecord models.SubmissionRecord
		if err := r.getDB(tx).WithContext(ctx).First(&dbRecord, id).Error; err != nil {
			return nil, fmt.Errorf("failed to get response: %w", err)
		}
		return &dbRecord, nil
	})
	if err != nil {
		return nil, err
	}

	return &record, nil
}

// CountByForm counts stored responses; the count is cached briefly and dropped on every save
func (r *ResponsePostgreSQL) CountByForm(ctx context.Context, tx *gorm.DB, formID uint) (int64, error) {
	var count int64

	err := r.cacheManager.Stats.CacheOrExecute(ctx, cache.ResponseCountKey(formID), &count, cache.StatsCacheConfig.TTL, func() (interface{}, error) {
		return r.helpers.CountResponses(ctx, r.getDB(tx), formID)
	})
	if err != nil {
		return 0, err
	}

	return count, nil
}

func (r *ResponsePostgreSQL) ListByForm(ctx context.Context, tx *gorm.DB, formID uint, filters repositories.ResponseFilters) ([]*models.SubmissionRecord, int64, error) {
	query := r.getDB(tx).WithContext(ctx).Model(&models.SubmissionRecord{}).Where("form_id = ?", formID)
	query = r.helpers.ApplyResponseFilters(query, filters)

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count responses: %w", err)
	}

	sortBy := filters.SortBy
	if sortBy == "" {
		sortBy = "submitted_at"
	}
	sortOrder := filters.SortOrder
	if sortOrder == "" {
		sortOrder = "asc"
	}
	query = r.helpers.ApplyPaginationAndSort(query, responseSortColumns, sortBy, sortOrder, filters.Limit, filters.Offset)

	var records []*models.SubmissionRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list responses: %w", err)
	}

	return records, total, nil
}

func (r *ResponsePostgreSQL) DeleteByForm(ctx context.Context, tx *gorm.DB, formID uint) error {
	if err := r.getDB(tx).WithContext(ctx).Where("form_id = ?", formID).Delete(&models.SubmissionRecord{}).Error; err != nil {
		return fmt.Errorf("failed to delete responses: %w", err)
	}

	cache.InvalidateResponseStats(ctx, r.cacheManager, formID)
	cache.SafeInvalidatePattern(ctx, r.cacheManager.Response, "id:*")
	return nil
}

// GetScoreStats aggregates over responses that carry a score
func (r *ResponsePostgreSQL) GetScoreStats(ctx context.Context, tx *gorm.DB, formID uint) (*repositories.ScoreStats, error) {
	var stats repositories.ScoreStats

	err := r.cacheManager.Stats.CacheOrExecute(ctx, cache.ScoreStatsKey(formID), &stats, cache.StatsCacheConfig.TTL, func() (interface{}, error) {
		var dbStats repositories.ScoreStats
		err := r.getDB(tx).WithContext(ctx).
			Model(&models.SubmissionRecord{}).
			Select("COUNT(score) AS scored_count, COALESCE(AVG(score), 0) AS average_score, COALESCE(MIN(score), 0) AS min_score, COALESCE(MAX(score), 0) AS max_score").
			Where("form_id = ? AND score IS NOT NULL", formID).
			Scan(&dbStats).Error
		if err != nil {
			return nil, fmt.Errorf("failed to aggregate scores: %w", err)
		}
		return &dbStats, nil
	})
	if err != nil {
		return nil, err
	}

	return &stats, nil
}
