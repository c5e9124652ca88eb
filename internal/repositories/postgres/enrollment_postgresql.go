package postgres

import (
	"context"
	"fmt"

	"github.com/SAP-F-2025/course-service/internal/models"
	"github.com/SAP-F-2025/course-service/internal/repositories"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ===== ENROLLMENT =====

type EnrollmentPostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewEnrollmentPostgreSQL(db *gorm.DB) repositories.EnrollmentRepository {
	return &EnrollmentPostgreSQL{
		db:      db,
		helpers: NewSharedHelpers(db),
	}
}

func (e *EnrollmentPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return e.db
}

func (e *EnrollmentPostgreSQL) Create(ctx context.Context, tx *gorm.DB, enrollment *models.Enrollment) error {
	return e.getDB(tx).WithContext(ctx).Omit(clause.Associations).Create(enrollment).Error
}

func (e *EnrollmentPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Enrollment, error) {
	var enrollment models.Enrollment
	err := e.getDB(tx).WithContext(ctx).
		Preload("Course").
		Preload("Profile").
		Where("id = ?", id).
		First(&enrollment).Error
	if err != nil {
		return nil, err
	}
	return &enrollment, nil
}

func (e *EnrollmentPostgreSQL) GetByUserAndCourse(ctx context.Context, tx *gorm.DB, userID, courseID string) (*models.Enrollment, error) {
	var enrollment models.Enrollment
	err := e.getDB(tx).WithContext(ctx).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		First(&enrollment).Error
	if err != nil {
		return nil, err
	}
	return &enrollment, nil
}

func (e *EnrollmentPostgreSQL) Update(ctx context.Context, tx *gorm.DB, enrollment *models.Enrollment) error {
	return e.getDB(tx).WithContext(ctx).Omit(clause.Associations).Save(enrollment).Error
}

func (e *EnrollmentPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.EnrollmentFilters) ([]*models.Enrollment, int64, error) {
	db := e.getDB(tx)
	var enrollments []*models.Enrollment
	var total int64

	query := e.helpers.ApplyEnrollmentFilters(db.WithContext(ctx).Model(&models.Enrollment{}), filters)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count enrollments: %w", err)
	}

	query = e.helpers.ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset, "enrolled_at")
	if err := query.Preload("Course").Preload("Profile").Find(&enrollments).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list enrollments: %w", err)
	}
	return enrollments, total, nil
}

func (e *EnrollmentPostgreSQL) GetByCourse(ctx context.Context, tx *gorm.DB, courseID string) ([]*models.Enrollment, error) {
	var enrollments []*models.Enrollment
	err := e.getDB(tx).WithContext(ctx).
		Preload("Profile").
		Where("course_id = ?", courseID).
		Order("enrolled_at ASC").
		Order("id ASC").
		Find(&enrollments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get course enrollments: %w", err)
	}
	return enrollments, nil
}

func (e *EnrollmentPostgreSQL) GetStats(ctx context.Context, tx *gorm.DB, userID string) (*repositories.EnrollmentStats, error) {
	var row struct {
		Total           int
		Active          int
		Completed       int
		Dropped         int
		AverageProgress float64
	}

	err := e.getDB(tx).WithContext(ctx).Model(&models.Enrollment{}).
		Select(`COUNT(*) AS total,
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS active,
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS completed,
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS dropped,
			COALESCE(AVG(progress_percentage), 0) AS average_progress`,
			models.EnrollmentActive, models.EnrollmentCompleted, models.EnrollmentDropped).
		Where("user_id = ?", userID).
		Scan(&row).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get enrollment stats: %w", err)
	}

	return &repositories.EnrollmentStats{
		Total:           row.Total,
		Active:          row.Active,
		Completed:       row.Completed,
		Dropped:         row.Dropped,
		AverageProgress: int(row.AverageProgress + 0.5),
	}, nil
}

// ===== LESSON PROGRESS =====

type ProgressPostgreSQL struct {
	db *gorm.DB
}

func NewProgressPostgreSQL(db *gorm.DB) repositories.ProgressRepository {
	return &ProgressPostgreSQL{db: db}
}

func (p *ProgressPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return p.db
}

func (p *ProgressPostgreSQL) Get(ctx context.Context, tx *gorm.DB, userID, lessonID string) (*models.LessonProgress, error) {
	var progress models.LessonProgress
	err := p.getDB(tx).WithContext(ctx).
		Where("user_id = ? AND lesson_id = ?", userID, lessonID).
		First(&progress).Error
	if err != nil {
		return nil, err
	}
	return &progress, nil
}

func (p *ProgressPostgreSQL) Create(ctx context.Context, tx *gorm.DB, progress *models.LessonProgress) error {
	return p.getDB(tx).WithContext(ctx).Create(progress).Error
}

func (p *ProgressPostgreSQL) Update(ctx context.Context, tx *gorm.DB, progress *models.LessonProgress) error {
	return p.getDB(tx).WithContext(ctx).Save(progress).Error
}

func (p *ProgressPostgreSQL) GetByUserAndCourse(ctx context.Context, tx *gorm.DB, userID, courseID string) ([]*models.LessonProgress, error) {
	db := p.getDB(tx).WithContext(ctx)
	var progress []*models.LessonProgress
	err := db.
		Where("user_id = ?", userID).
		Where("lesson_id IN (?)", db.Model(&models.Lesson{}).Select("id").Where("course_id = ?", courseID)).
		Find(&progress).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get lesson progress: %w", err)
	}
	return progress, nil
}

func (p *ProgressPostgreSQL) CountCompleted(ctx context.Context, tx *gorm.DB, userID, courseID string) (int64, error) {
	db := p.getDB(tx).WithContext(ctx)
	var count int64
	err := db.Model(&models.LessonProgress{}).
		Where("user_id = ? AND completed = ?", userID, true).
		Where("lesson_id IN (?)", db.Model(&models.Lesson{}).Select("id").Where("course_id = ?", courseID)).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count completed lessons: %w", err)
	}
	return count, nil
}
