package postgres

import (
	"context"
	"fmt"

	"github.com/SAP-F-2025/form-service/internal/cache"
	"github.com/SAP-F-2025/form-service/internal/models"
	"github.com/SAP-F-2025/form-service/internal/repositories"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type FormPostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewFormPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.FormRepository {
	return &FormPostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

// getDB returns the transaction DB if provided, otherwise returns the default DB
func (f *FormPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return f.db
}

// Create inserts the form together with any fields and options it already carries
func (f *FormPostgreSQL) Create(ctx context.Context, tx *gorm.DB, form *models.Form) error {
	fields := form.Fields
	err := f.getDB(tx).WithContext(ctx).Transaction(func(db *gorm.DB) error {
		if err := db.Omit(clause.Associations).Create(form).Error; err != nil {
			return fmt.Errorf("failed to create form: %w", err)
		}
		return f.insertStructure(db, form.ID, fields)
	})
	if err != nil {
		return err
	}

	form.Fields = fields
	for i := range form.Fields {
		form.Fields[i].FormID = form.ID
	}

	cache.SafeInvalidatePattern(ctx, f.cacheManager.Form, fmt.Sprintf("creator:%s:*", form.CreatedBy))
	cache.SafeInvalidatePattern(ctx, f.cacheManager.Form, "list:*")
	cache.SafeInvalidatePattern(ctx, f.cacheManager.Exists, fmt.Sprintf("form_title:%s:*", form.CreatedBy))

	return nil
}

// GetByID retrieves the form row without its fields
func (f *FormPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Form, error) {
	var form models.Form

	err := f.cacheManager.Form.CacheOrExecute(ctx, cache.FormKey(id), &form, cache.FormCacheConfig.TTL, func() (interface{}, error) {
		var dbForm models.Form
		if err := f.getDB(tx).WithContext(ctx).First(&dbForm, id).Error; err != nil {
			return nil, fmt.Errorf("failed to get form: %w", err)
		}
		return &dbForm, nil
	})
	if err != nil {
		return nil, err
	}

	return &form, nil
}

// GetByIDWithFields retrieves the full structure, which is what submissions are processed against
func (f *FormPostgreSQL) GetByIDWithFields(ctx context.Context, tx *gorm.DB, id uint) (*models.Form, error) {
	var form models.Form

	err := f.cacheManager.Form.CacheOrExecute(ctx, cache.FormStructureKey(id), &form, cache.FormCacheConfig.TTL, func() (interface{}, error) {
		var dbForm models.Form
		err := f.getDB(tx).WithContext(ctx).
			Preload("Fields", func(db *gorm.DB) *gorm.DB {
				return db.Order("position ASC")
			}).
			Preload("Fields.Options", func(db *gorm.DB) *gorm.DB {
				return db.Order("position ASC")
			}).
			First(&dbForm, id).Error
		if err != nil {
			return nil, fmt.Errorf("failed to get form structure: %w", err)
		}
		dbForm.FieldCount = len(dbForm.Fields)
		return &dbForm, nil
	})
	if err != nil {
		return nil, err
	}

	// Option keys are not serialized, restore them after a cache hit
	for i := range form.Fields {
		for j := range form.Fields[i].Options {
			form.Fields[i].Options[j].FormID = form.ID
			form.Fields[i].Options[j].FieldID = form.Fields[i].ID
		}
	}

	return &form, nil
}

// Update writes the scalar columns of a form and invalidates cache
func (f *FormPostgreSQL) Update(ctx context.Context, tx *gorm.DB, form *models.Form) error {
	result := f.getDB(tx).WithContext(ctx).Model(&models.Form{}).Where("id = ?", form.ID).Updates(map[string]interface{}{
		"title":       form.Title,
		"description": form.Description,
		"status":      form.Status,
		"is_quiz":     form.IsQuiz,
		"updated_at":  gorm.Expr("NOW()"),
	})
	if result.Error != nil {
		return fmt.Errorf("failed to update form: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("failed to update form %d: %w", form.ID, gorm.ErrRecordNotFound)
	}

	cache.InvalidateFormCache(ctx, f.cacheManager, form.ID, form.CreatedBy)

	return nil
}

// SaveStructure updates the form row and replaces its fields and options in one transaction
func (f *FormPostgreSQL) SaveStructure(ctx context.Context, tx *gorm.DB, form *models.Form) error {
	err := f.getDB(tx).WithContext(ctx).Transaction(func(db *gorm.DB) error {
		if err := f.Update(ctx, db, form); err != nil {
			return err
		}

		if err := db.Where("form_id = ?", form.ID).Delete(&models.FormFieldOption{}).Error; err != nil {
			return fmt.Errorf("failed to clear options: %w", err)
		}
		if err := db.Where("form_id = ?", form.ID).Delete(&models.FormField{}).Error; err != nil {
			return fmt.Errorf("failed to clear fields: %w", err)
		}

		return f.insertStructure(db, form.ID, form.Fields)
	})
	if err != nil {
		return err
	}

	cache.InvalidateFormCache(ctx, f.cacheManager, form.ID, form.CreatedBy)
	return nil
}

func (f *FormPostgreSQL) insertStructure(db *gorm.DB, formID uint, fields []models.FormField) error {
	if len(fields) == 0 {
		return nil
	}

	rows := make([]models.FormField, len(fields))
	var options []models.FormFieldOption
	for i, field := range fields {
		field.FormID = formID
		for j, opt := range field.Options {
			opt.FormID = formID
			opt.FieldID = field.ID
			opt.Position = j
			options = append(options, opt)
		}
		field.Options = nil
		rows[i] = field
	}

	if err := db.Omit(clause.Associations).Create(&rows).Error; err != nil {
		return fmt.Errorf("failed to insert fields: %w", err)
	}
	if len(options) > 0 {
		if err := db.Create(&options).Error; err != nil {
			return fmt.Errorf("failed to insert options: %w", err)
		}
	}
	return nil
}

// Delete soft deletes a form
func (f *FormPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	var form models.Form
	if err := f.getDB(tx).WithContext(ctx).Select("id, created_by").First(&form, id).Error; err != nil {
		return fmt.Errorf("failed to get form before delete: %w", err)
	}

	if err := f.getDB(tx).WithContext(ctx).Delete(&models.Form{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete form: %w", err)
	}

	cache.InvalidateFormCache(ctx, f.cacheManager, id, form.CreatedBy)
	return nil
}

// List retrieves forms with filters and pagination
func (f *FormPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.FormFilters) ([]*models.Form, int64, error) {
	query := f.getDB(tx).WithContext(ctx).Model(&models.Form{})

	// Apply filters
	query = f.helpers.ApplyFormFilters(query, filters)

	// Count total
	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count forms: %w", err)
	}

	query = f.helpers.ApplyPaginationAndSort(query, formSortColumns, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)

	var forms []*models.Form
	if err := query.Find(&forms).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list forms: %w", err)
	}

	if len(forms) > 0 {
		ids := make([]uint, len(forms))
		for i, form := range forms {
			ids[i] = form.ID
		}
		counts, err := f.helpers.CountFieldsByForm(ctx, f.getDB(tx), ids)
		if err != nil {
			return nil, 0, err
		}
		for _, form := range forms {
			form.FieldCount = counts[form.ID]
		}
	}

	return forms, total, nil
}

// ExistsByTitle checks whether the creator already has a form with this title
func (f *FormPostgreSQL) ExistsByTitle(ctx context.Context, tx *gorm.DB, title, createdBy string, excludeID *uint) (bool, error) {
	check := func() (interface{}, error) {
		var count int64
		query := f.getDB(tx).WithContext(ctx).Model(&models.Form{}).
			Where("LOWER(title) = LOWER(?) AND created_by = ?", title, createdBy)
		if excludeID != nil {
			query = query.Where("id <> ?", *excludeID)
		}
		if err := query.Count(&count).Error; err != nil {
			return nil, fmt.Errorf("failed to check title: %w", err)
		}
		return count > 0, nil
	}

	if excludeID != nil {
		exists, err := check()
		if err != nil {
			return false, err
		}
		return exists.(bool), nil
	}

	var exists bool
	err := f.cacheManager.Exists.CacheOrExecute(ctx, cache.TitleExistsKey(createdBy, title), &exists, cache.ExistsCacheConfig.TTL, check)
	if err != nil {
		return false, err
	}
	return exists, nil
}
