package repositories

import (
	"context"

	"github.com/SAP-F-2025/course-service/internal/models"
	"gorm.io/gorm"
)

type EnrollmentRepository interface {
	Create(ctx context.Context, tx *gorm.DB, enrollment *models.Enrollment) error
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Enrollment, error)
	// GetByUserAndCourse returns gorm.ErrRecordNotFound when the pair is not enrolled
	GetByUserAndCourse(ctx context.Context, tx *gorm.DB, userID, courseID string) (*models.Enrollment, error)
	Update(ctx context.Context, tx *gorm.DB, enrollment *models.Enrollment) error

	List(ctx context.Context, tx *gorm.DB, filters EnrollmentFilters) ([]*models.Enrollment, int64, error)
	GetByCourse(ctx context.Context, tx *gorm.DB, courseID string) ([]*models.Enrollment, error)
	GetStats(ctx context.Context, tx *gorm.DB, userID string) (*EnrollmentStats, error)
}

type ProgressRepository interface {
	// Get returns gorm.ErrRecordNotFound when the learner has no row for the lesson
	Get(ctx context.Context, tx *gorm.DB, userID, lessonID string) (*models.LessonProgress, error)
	Create(ctx context.Context, tx *gorm.DB, progress *models.LessonProgress) error
	Update(ctx context.Context, tx *gorm.DB, progress *models.LessonProgress) error

	GetByUserAndCourse(ctx context.Context, tx *gorm.DB, userID, courseID string) ([]*models.LessonProgress, error)
	CountCompleted(ctx context.Context, tx *gorm.DB, userID, courseID string) (int64, error)
}
