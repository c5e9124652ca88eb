package postgres

import (
	"context"
	"fmt"

	"github.com/SAP-F-2025/course-service/internal/models"
	"github.com/SAP-F-2025/course-service/internal/repositories"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ===== ASSIGNMENT =====

type AssignmentPostgreSQL struct {
	db *gorm.DB
}

func NewAssignmentPostgreSQL(db *gorm.DB) repositories.AssignmentRepository {
	return &AssignmentPostgreSQL{db: db}
}

func (a *AssignmentPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return a.db
}

func (a *AssignmentPostgreSQL) Create(ctx context.Context, tx *gorm.DB, assignment *models.Assignment) error {
	return a.getDB(tx).WithContext(ctx).Omit(clause.Associations).Create(assignment).Error
}

func (a *AssignmentPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Assignment, error) {
	var assignment models.Assignment
	if err := a.getDB(tx).WithContext(ctx).Where("id = ?", id).First(&assignment).Error; err != nil {
		return nil, err
	}
	return &assignment, nil
}

func (a *AssignmentPostgreSQL) Update(ctx context.Context, tx *gorm.DB, assignment *models.Assignment) error {
	return a.getDB(tx).WithContext(ctx).Omit(clause.Associations).Save(assignment).Error
}

func (a *AssignmentPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id string) error {
	db := a.getDB(tx).WithContext(ctx)
	if err := db.Where("assignment_id = ?", id).Delete(&models.AssignmentSubmission{}).Error; err != nil {
		return fmt.Errorf("failed to delete submissions: %w", err)
	}
	result := db.Where("id = ?", id).Delete(&models.Assignment{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (a *AssignmentPostgreSQL) GetByCourse(ctx context.Context, tx *gorm.DB, courseID string) ([]*models.Assignment, error) {
	var assignments []*models.Assignment
	err := a.getDB(tx).WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&assignments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get assignments: %w", err)
	}
	return assignments, nil
}

// ===== SUBMISSION =====

type SubmissionPostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewSubmissionPostgreSQL(db *gorm.DB) repositories.SubmissionRepository {
	return &SubmissionPostgreSQL{
		db:      db,
		helpers: NewSharedHelpers(db),
	}
}

func (s *SubmissionPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return s.db
}

func (s *SubmissionPostgreSQL) Create(ctx context.Context, tx *gorm.DB, submission *models.AssignmentSubmission) error {
	return s.getDB(tx).WithContext(ctx).Omit(clause.Associations).Create(submission).Error
}

func (s *SubmissionPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.AssignmentSubmission, error) {
	var submission models.AssignmentSubmission
	err := s.getDB(tx).WithContext(ctx).
		Preload("Assignment").
		Preload("Profile").
		Where("id = ?", id).
		First(&submission).Error
	if err != nil {
		return nil, err
	}
	return &submission, nil
}

func (s *SubmissionPostgreSQL) GetByAssignmentAndUser(ctx context.Context, tx *gorm.DB, assignmentID, userID string) (*models.AssignmentSubmission, error) {
	var submission models.AssignmentSubmission
	err := s.getDB(tx).WithContext(ctx).
		Where("assignment_id = ? AND user_id = ?", assignmentID, userID).
		First(&submission).Error
	if err != nil {
		return nil, err
	}
	return &submission, nil
}

func (s *SubmissionPostgreSQL) Update(ctx context.Context, tx *gorm.DB, submission *models.AssignmentSubmission) error {
	return s.getDB(tx).WithContext(ctx).Omit(clause.Associations).Save(submission).Error
}

func (s *SubmissionPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.SubmissionFilters) ([]*models.AssignmentSubmission, int64, error) {
	db := s.getDB(tx)
	var submissions []*models.AssignmentSubmission
	var total int64

	query := s.helpers.ApplySubmissionFilters(db.WithContext(ctx).Model(&models.AssignmentSubmission{}), filters)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count submissions: %w", err)
	}

	query = s.helpers.ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset, "submitted_at")
	if err := query.Preload("Assignment").Preload("Profile").Find(&submissions).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list submissions: %w", err)
	}
	return submissions, total, nil
}
