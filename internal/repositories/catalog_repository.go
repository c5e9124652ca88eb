package repositories

import (
	"context"

	"github.com/SAP-F-2025/course-service/internal/models"
	"gorm.io/gorm"
)

type CategoryRepository interface {
	Create(ctx context.Context, tx *gorm.DB, category *models.Category) error
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Category, error)
	Update(ctx context.Context, tx *gorm.DB, category *models.Category) error
	Delete(ctx context.Context, tx *gorm.DB, id string) error
	List(ctx context.Context, tx *gorm.DB) ([]*models.Category, error)
	ExistsBySlug(ctx context.Context, tx *gorm.DB, slug string, excludeID string) (bool, error)
}

type CourseRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, tx *gorm.DB, course *models.Course) error
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Course, error)
	GetBySlug(ctx context.Context, tx *gorm.DB, slug string) (*models.Course, error)
	Update(ctx context.Context, tx *gorm.DB, course *models.Course) error
	// Delete removes the course together with everything that hangs off it
	Delete(ctx context.Context, tx *gorm.DB, id string) error

	// Query operations
	Search(ctx context.Context, tx *gorm.DB, filters CourseFilters) ([]*models.Course, int64, error)
	ExistsBySlug(ctx context.Context, tx *gorm.DB, slug string, excludeID string) (bool, error)
	ClearCategory(ctx context.Context, tx *gorm.DB, categoryID string) error
}

type LessonRepository interface {
	Create(ctx context.Context, tx *gorm.DB, lesson *models.Lesson) error
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Lesson, error)
	Update(ctx context.Context, tx *gorm.DB, lesson *models.Lesson) error
	// Delete removes the lesson and its progress records
	Delete(ctx context.Context, tx *gorm.DB, id string) error

	GetByCourse(ctx context.Context, tx *gorm.DB, courseID string) ([]*models.Lesson, error)
	CountByCourse(ctx context.Context, tx *gorm.DB, courseID string) (int64, error)
	CountByCourses(ctx context.Context, tx *gorm.DB, courseIDs []string) (map[string]int, error)
	ExistsOrderIndex(ctx context.Context, tx *gorm.DB, courseID string, orderIndex int, excludeID string) (bool, error)
}

type BatchRepository interface {
	Create(ctx context.Context, tx *gorm.DB, batch *models.Batch) error
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Batch, error)
	Update(ctx context.Context, tx *gorm.DB, batch *models.Batch) error
	Delete(ctx context.Context, tx *gorm.DB, id string) error
	GetByCourse(ctx context.Context, tx *gorm.DB, courseID string) ([]*models.Batch, error)
}
