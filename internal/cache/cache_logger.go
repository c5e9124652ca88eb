package cache

import (
	"context"
	"log/slog"
)

// SafeInvalidatePattern invalidates a pattern and logs instead of failing
func SafeInvalidatePattern(ctx context.Context, helper *CacheHelper, pattern string) {
	if err := helper.InvalidatePattern(ctx, pattern); err != nil {
		slog.ErrorContext(ctx, "Failed to invalidate cache pattern",
			"error", err,
			"pattern", pattern)
	}
}

// SafeDelete deletes keys and logs instead of failing
func SafeDelete(ctx context.Context, helper *CacheHelper, keys ...string) {
	if err := helper.Delete(ctx, keys...); err != nil {
		slog.ErrorContext(ctx, "Failed to delete cache keys",
			"error", err,
			"keys", keys)
	}
}

// InvalidateCourseCache drops the cached detail entries of one course
func InvalidateCourseCache(ctx context.Context, cm *CacheManager, courseID, slug string) {
	keys := []string{"id:" + courseID}
	if slug != "" {
		keys = append(keys, "slug:"+slug)
	}
	SafeDelete(ctx, cm.Course, keys...)
	SafeDelete(ctx, cm.Lesson, "course:"+courseID)
}

// InvalidateCategoryCache drops the cached category list
func InvalidateCategoryCache(ctx context.Context, cm *CacheManager) {
	SafeDelete(ctx, cm.Category, "list")
	SafeInvalidatePattern(ctx, cm.Course, "*")
}

// InvalidateLessonCache drops the cached lesson list of a course
func InvalidateLessonCache(ctx context.Context, cm *CacheManager, courseID string) {
	SafeDelete(ctx, cm.Lesson, "course:"+courseID)
}
