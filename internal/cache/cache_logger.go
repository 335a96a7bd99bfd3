package cache

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// SafeInvalidatePattern safely invalidates cache pattern with logging
func SafeInvalidatePattern(ctx context.Context, helper *CacheHelper, pattern string) {
	if err := helper.InvalidatePattern(ctx, pattern); err != nil {
		slog.ErrorContext(ctx, "Failed to invalidate cache pattern",
			"error", err,
			"pattern", pattern)
	}
}

// SafeDelete safely deletes cache keys with logging
func SafeDelete(ctx context.Context, helper *CacheHelper, keys ...string) {
	if err := helper.Delete(ctx, keys...); err != nil {
		slog.ErrorContext(ctx, "Failed to delete cache keys",
			"error", err,
			"keys", keys)
	}
}

// Cache keys shared by the repositories and the services
func FormKey(formID uint) string          { return fmt.Sprintf("id:%d", formID) }
func FormStructureKey(formID uint) string { return fmt.Sprintf("structure:%d", formID) }
func ResponseKey(responseID uint) string  { return fmt.Sprintf("id:%d", responseID) }
func ResponseCountKey(formID uint) string { return fmt.Sprintf("form:%d:responses:count", formID) }
func ScoreStatsKey(formID uint) string    { return fmt.Sprintf("form:%d:responses:scores", formID) }
func TitleExistsKey(creator, title string) string {
	return fmt.Sprintf("form_title:%s:%s", creator, strings.ToLower(title))
}

// InvalidateFormCache invalidates everything cached about a form's definition
func InvalidateFormCache(ctx context.Context, cm *CacheManager, formID uint, creatorID string) {
	// Delete specific keys using single call
	SafeDelete(ctx, cm.Form, FormKey(formID), FormStructureKey(formID))

	// Invalidate patterns
	SafeInvalidatePattern(ctx, cm.Form, fmt.Sprintf("creator:%s:*", creatorID))
	SafeInvalidatePattern(ctx, cm.Form, "list:*")
	SafeInvalidatePattern(ctx, cm.Exists, fmt.Sprintf("form_title:%s:*", creatorID))
}

// InvalidateResponseStats drops the cached counts and score aggregates of a form
func InvalidateResponseStats(ctx context.Context, cm *CacheManager, formID uint) {
	SafeDelete(ctx, cm.Stats, ResponseCountKey(formID), ScoreStatsKey(formID))
}
