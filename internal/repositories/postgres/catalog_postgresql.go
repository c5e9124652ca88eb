package postgres

import (
	"context"
	"fmt"

	"github.com/SAP-F-2025/course-service/internal/cache"
	"github.com/SAP-F-2025/course-service/internal/models"
	"github.com/SAP-F-2025/course-service/internal/repositories"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// ===== CATEGORY =====

type CategoryPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewCategoryPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.CategoryRepository {
	return &CategoryPostgreSQL{
		db:           db,
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (c *CategoryPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return c.db
}

func (c *CategoryPostgreSQL) invalidate(ctx context.Context, tx *gorm.DB) {
	afterCommit(ctx, c.getDB(tx), func(ctx context.Context) {
		cache.InvalidateCategoryCache(ctx, c.cacheManager)
	})
}

func (c *CategoryPostgreSQL) Create(ctx context.Context, tx *gorm.DB, category *models.Category) error {
	if err := c.getDB(tx).WithContext(ctx).Create(category).Error; err != nil {
		return err
	}
	c.invalidate(ctx, tx)
	return nil
}

func (c *CategoryPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Category, error) {
	var category models.Category
	if err := c.getDB(tx).WithContext(ctx).Where("id = ?", id).First(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (c *CategoryPostgreSQL) Update(ctx context.Context, tx *gorm.DB, category *models.Category) error {
	if err := c.getDB(tx).WithContext(ctx).Save(category).Error; err != nil {
		return err
	}
	c.invalidate(ctx, tx)
	return nil
}

func (c *CategoryPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id string) error {
	result := c.getDB(tx).WithContext(ctx).Where("id = ?", id).Delete(&models.Category{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	c.invalidate(ctx, tx)
	return nil
}

func (c *CategoryPostgreSQL) List(ctx context.Context, tx *gorm.DB) ([]*models.Category, error) {
	load := func() (interface{}, error) {
		var categories []*models.Category
		if err := c.getDB(tx).WithContext(ctx).Order("name ASC").Order("id ASC").Find(&categories).Error; err != nil {
			return nil, fmt.Errorf("failed to list categories: %w", err)
		}
		return categories, nil
	}

	// Reads inside a transaction bypass the cache
	if bypassCache(tx, c.db) {
		result, err := load()
		if err != nil {
			return nil, err
		}
		return result.([]*models.Category), nil
	}

	var categories []*models.Category
	err := c.cacheManager.Category.CacheOrExecute(ctx, "list", &categories, cache.CategoryCacheConfig.TTL, load)
	if err != nil {
		return nil, err
	}
	return categories, nil
}

func (c *CategoryPostgreSQL) ExistsBySlug(ctx context.Context, tx *gorm.DB, slug string, excludeID string) (bool, error) {
	var count int64
	query := c.getDB(tx).WithContext(ctx).Model(&models.Category{}).Where("slug = ?", slug)
	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check category slug: %w", err)
	}
	return count > 0, nil
}

// ===== COURSE =====

type CoursePostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewCoursePostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.CourseRepository {
	return &CoursePostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (c *CoursePostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return c.db
}

func (c *CoursePostgreSQL) Create(ctx context.Context, tx *gorm.DB, course *models.Course) error {
	return c.getDB(tx).WithContext(ctx).Create(course).Error
}

func (c *CoursePostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Course, error) {
	return c.getCached(ctx, tx, "id:"+id, "id = ?", id)
}

func (c *CoursePostgreSQL) GetBySlug(ctx context.Context, tx *gorm.DB, slug string) (*models.Course, error) {
	return c.getCached(ctx, tx, "slug:"+slug, "slug = ?", slug)
}

func (c *CoursePostgreSQL) getCached(ctx context.Context, tx *gorm.DB, key, cond string, arg string) (*models.Course, error) {
	load := func() (interface{}, error) {
		var course models.Course
		if err := c.getDB(tx).WithContext(ctx).Preload("Category").Where(cond, arg).First(&course).Error; err != nil {
			return nil, err
		}
		count, err := countLessons(ctx, c.getDB(tx), []string{course.ID})
		if err != nil {
			return nil, err
		}
		course.LessonCount = count[course.ID]
		return &course, nil
	}

	if bypassCache(tx, c.db) {
		result, err := load()
		if err != nil {
			return nil, err
		}
		return result.(*models.Course), nil
	}

	var course models.Course
	if err := c.cacheManager.Course.CacheOrExecute(ctx, key, &course, cache.CourseCacheConfig.TTL, load); err != nil {
		return nil, err
	}
	return &course, nil
}

func (c *CoursePostgreSQL) Update(ctx context.Context, tx *gorm.DB, course *models.Course) error {
	previous, err := c.slugOf(ctx, tx, course.ID)
	if err != nil {
		return err
	}
	if err := c.getDB(tx).WithContext(ctx).Omit("Category").Save(course).Error; err != nil {
		return err
	}
	afterCommit(ctx, c.getDB(tx), func(ctx context.Context) {
		cache.InvalidateCourseCache(ctx, c.cacheManager, course.ID, previous)
		if previous != course.Slug {
			cache.SafeDelete(ctx, c.cacheManager.Course, "slug:"+course.Slug)
		}
	})
	return nil
}

func (c *CoursePostgreSQL) slugOf(ctx context.Context, tx *gorm.DB, id string) (string, error) {
	var course models.Course
	if err := c.getDB(tx).WithContext(ctx).Select("id", "slug").Where("id = ?", id).First(&course).Error; err != nil {
		return "", err
	}
	return course.Slug, nil
}

// Delete removes a course and everything owned by it, children first
func (c *CoursePostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id string) error {
	slug, err := c.slugOf(ctx, tx, id)
	if err != nil {
		return err
	}

	db := c.getDB(tx).WithContext(ctx)
	lessonIDs := db.Model(&models.Lesson{}).Select("id").Where("course_id = ?", id)
	assignmentIDs := db.Model(&models.Assignment{}).Select("id").Where("course_id = ?", id)
	quizIDs := db.Model(&models.Quiz{}).Select("id").Where("course_id = ?", id)

	steps := []struct {
		name string
		run  func() error
	}{
		{"lesson progress", func() error {
			return db.Where("lesson_id IN (?)", lessonIDs).Delete(&models.LessonProgress{}).Error
		}},
		{"submissions", func() error {
			return db.Where("assignment_id IN (?)", assignmentIDs).Delete(&models.AssignmentSubmission{}).Error
		}},
		{"quiz attempts", func() error {
			return db.Where("quiz_id IN (?)", quizIDs).Delete(&models.QuizAttempt{}).Error
		}},
		{"quiz questions", func() error {
			return db.Where("quiz_id IN (?)", quizIDs).Delete(&models.QuizQuestion{}).Error
		}},
		{"quizzes", func() error {
			return db.Where("course_id = ?", id).Delete(&models.Quiz{}).Error
		}},
		{"assignments", func() error {
			return db.Where("course_id = ?", id).Delete(&models.Assignment{}).Error
		}},
		{"enrollments", func() error {
			return db.Where("course_id = ?", id).Delete(&models.Enrollment{}).Error
		}},
		{"batches", func() error {
			return db.Where("course_id = ?", id).Delete(&models.Batch{}).Error
		}},
		{"lessons", func() error {
			return db.Where("course_id = ?", id).Delete(&models.Lesson{}).Error
		}},
		{"course", func() error {
			return db.Where("id = ?", id).Delete(&models.Course{}).Error
		}},
	}
	for _, step := range steps {
		if err := step.run(); err != nil {
			return fmt.Errorf("failed to delete %s: %w", step.name, err)
		}
	}

	afterCommit(ctx, c.getDB(tx), func(ctx context.Context) {
		cache.InvalidateCourseCache(ctx, c.cacheManager, id, slug)
	})
	return nil
}

func (c *CoursePostgreSQL) Search(ctx context.Context, tx *gorm.DB, filters repositories.CourseFilters) ([]*models.Course, int64, error) {
	db := c.getDB(tx)
	var courses []*models.Course
	var total int64

	query := c.helpers.ApplyCourseFilters(db.WithContext(ctx).Model(&models.Course{}), filters)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count courses: %w", err)
	}

	query = c.helpers.ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset, "title")
	if err := query.Preload("Category").Find(&courses).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to search courses: %w", err)
	}

	ids := make([]string, len(courses))
	for i, course := range courses {
		ids[i] = course.ID
	}
	counts, err := countLessons(ctx, db, ids)
	if err != nil {
		return nil, 0, err
	}
	for _, course := range courses {
		course.LessonCount = counts[course.ID]
	}

	return courses, total, nil
}

func (c *CoursePostgreSQL) ExistsBySlug(ctx context.Context, tx *gorm.DB, slug string, excludeID string) (bool, error) {
	var count int64
	query := c.getDB(tx).WithContext(ctx).Model(&models.Course{}).Where("slug = ?", slug)
	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check course slug: %w", err)
	}
	return count > 0, nil
}

func (c *CoursePostgreSQL) ClearCategory(ctx context.Context, tx *gorm.DB, categoryID string) error {
	err := c.getDB(tx).WithContext(ctx).Model(&models.Course{}).
		Where("category_id = ?", categoryID).
		Update("category_id", nil).Error
	if err != nil {
		return fmt.Errorf("failed to detach courses from category: %w", err)
	}
	return nil
}

// ===== LESSON =====

type LessonPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewLessonPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.LessonRepository {
	return &LessonPostgreSQL{
		db:           db,
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (l *LessonPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return l.db
}

func (l *LessonPostgreSQL) invalidate(ctx context.Context, tx *gorm.DB, courseID string) {
	afterCommit(ctx, l.getDB(tx), func(ctx context.Context) {
		cache.InvalidateLessonCache(ctx, l.cacheManager, courseID)
		// course detail carries the lesson count
		cache.SafeDelete(ctx, l.cacheManager.Course, "id:"+courseID)
		cache.SafeInvalidatePattern(ctx, l.cacheManager.Course, "slug:*")
	})
}

func (l *LessonPostgreSQL) Create(ctx context.Context, tx *gorm.DB, lesson *models.Lesson) error {
	if err := l.getDB(tx).WithContext(ctx).Create(lesson).Error; err != nil {
		return err
	}
	l.invalidate(ctx, tx, lesson.CourseID)
	return nil
}

func (l *LessonPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Lesson, error) {
	var lesson models.Lesson
	if err := l.getDB(tx).WithContext(ctx).Where("id = ?", id).First(&lesson).Error; err != nil {
		return nil, err
	}
	return &lesson, nil
}

func (l *LessonPostgreSQL) Update(ctx context.Context, tx *gorm.DB, lesson *models.Lesson) error {
	if err := l.getDB(tx).WithContext(ctx).Save(lesson).Error; err != nil {
		return err
	}
	l.invalidate(ctx, tx, lesson.CourseID)
	return nil
}

func (l *LessonPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id string) error {
	lesson, err := l.GetByID(ctx, tx, id)
	if err != nil {
		return err
	}

	db := l.getDB(tx).WithContext(ctx)
	if err := db.Where("lesson_id = ?", id).Delete(&models.LessonProgress{}).Error; err != nil {
		return fmt.Errorf("failed to delete lesson progress: %w", err)
	}
	if err := db.Model(&models.Assignment{}).Where("lesson_id = ?", id).Update("lesson_id", nil).Error; err != nil {
		return fmt.Errorf("failed to detach assignments: %w", err)
	}
	if err := db.Model(&models.Quiz{}).Where("lesson_id = ?", id).Update("lesson_id", nil).Error; err != nil {
		return fmt.Errorf("failed to detach quizzes: %w", err)
	}
	if err := db.Where("id = ?", id).Delete(&models.Lesson{}).Error; err != nil {
		return fmt.Errorf("failed to delete lesson: %w", err)
	}

	l.invalidate(ctx, tx, lesson.CourseID)
	return nil
}

func (l *LessonPostgreSQL) GetByCourse(ctx context.Context, tx *gorm.DB, courseID string) ([]*models.Lesson, error) {
	load := func() (interface{}, error) {
		var lessons []*models.Lesson
		err := l.getDB(tx).WithContext(ctx).
			Where("course_id = ?", courseID).
			Order("order_index ASC").
			Find(&lessons).Error
		if err != nil {
			return nil, fmt.Errorf("failed to get lessons: %w", err)
		}
		return lessons, nil
	}

	if bypassCache(tx, l.db) {
		result, err := load()
		if err != nil {
			return nil, err
		}
		return result.([]*models.Lesson), nil
	}

	var lessons []*models.Lesson
	if err := l.cacheManager.Lesson.CacheOrExecute(ctx, "course:"+courseID, &lessons, cache.LessonCacheConfig.TTL, load); err != nil {
		return nil, err
	}
	return lessons, nil
}

func (l *LessonPostgreSQL) CountByCourse(ctx context.Context, tx *gorm.DB, courseID string) (int64, error) {
	var count int64
	if err := l.getDB(tx).WithContext(ctx).Model(&models.Lesson{}).Where("course_id = ?", courseID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count lessons: %w", err)
	}
	return count, nil
}

func (l *LessonPostgreSQL) CountByCourses(ctx context.Context, tx *gorm.DB, courseIDs []string) (map[string]int, error) {
	return countLessons(ctx, l.getDB(tx), courseIDs)
}

func (l *LessonPostgreSQL) ExistsOrderIndex(ctx context.Context, tx *gorm.DB, courseID string, orderIndex int, excludeID string) (bool, error) {
	var count int64
	query := l.getDB(tx).WithContext(ctx).Model(&models.Lesson{}).
		Where("course_id = ? AND order_index = ?", courseID, orderIndex)
	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check lesson order: %w", err)
	}
	return count > 0, nil
}

func countLessons(ctx context.Context, db *gorm.DB, courseIDs []string) (map[string]int, error) {
	counts := make(map[string]int, len(courseIDs))
	if len(courseIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		CourseID string
		Total    int
	}
	err := db.WithContext(ctx).Model(&models.Lesson{}).
		Select("course_id, COUNT(*) AS total").
		Where("course_id IN ?", courseIDs).
		Group("course_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count lessons: %w", err)
	}
	for _, row := range rows {
		counts[row.CourseID] = row.Total
	}
	return counts, nil
}

// ===== BATCH =====

type BatchPostgreSQL struct {
	db *gorm.DB
}

func NewBatchPostgreSQL(db *gorm.DB) repositories.BatchRepository {
	return &BatchPostgreSQL{db: db}
}

func (b *BatchPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return b.db
}

func (b *BatchPostgreSQL) Create(ctx context.Context, tx *gorm.DB, batch *models.Batch) error {
	return b.getDB(tx).WithContext(ctx).Create(batch).Error
}

func (b *BatchPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Batch, error) {
	var batch models.Batch
	if err := b.getDB(tx).WithContext(ctx).Where("id = ?", id).First(&batch).Error; err != nil {
		return nil, err
	}
	return &batch, nil
}

func (b *BatchPostgreSQL) Update(ctx context.Context, tx *gorm.DB, batch *models.Batch) error {
	return b.getDB(tx).WithContext(ctx).Save(batch).Error
}

// Delete keeps the enrollments and detaches them from the batch
func (b *BatchPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id string) error {
	db := b.getDB(tx).WithContext(ctx)
	if err := db.Model(&models.Enrollment{}).Where("batch_id = ?", id).Update("batch_id", nil).Error; err != nil {
		return fmt.Errorf("failed to detach enrollments: %w", err)
	}
	result := db.Where("id = ?", id).Delete(&models.Batch{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (b *BatchPostgreSQL) GetByCourse(ctx context.Context, tx *gorm.DB, courseID string) ([]*models.Batch, error) {
	var batches []*models.Batch
	err := b.getDB(tx).WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("start_date ASC").
		Find(&batches).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get batches: %w", err)
	}
	return batches, nil
}
