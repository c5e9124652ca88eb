package postgres

import (
	"context"
	"fmt"

	"github.com/SAP-F-2025/course-service/internal/models"
	"github.com/SAP-F-2025/course-service/internal/repositories"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ===== QUIZ =====

type QuizPostgreSQL struct {
	db *gorm.DB
}

func NewQuizPostgreSQL(db *gorm.DB) repositories.QuizRepository {
	return &QuizPostgreSQL{db: db}
}

func (q *QuizPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return q.db
}

func (q *QuizPostgreSQL) Create(ctx context.Context, tx *gorm.DB, quiz *models.Quiz) error {
	return q.getDB(tx).WithContext(ctx).Omit(clause.Associations).Create(quiz).Error
}

func (q *QuizPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Quiz, error) {
	var quiz models.Quiz
	if err := q.getDB(tx).WithContext(ctx).Where("id = ?", id).First(&quiz).Error; err != nil {
		return nil, err
	}
	return &quiz, nil
}

func (q *QuizPostgreSQL) GetByIDWithQuestions(ctx context.Context, tx *gorm.DB, id string) (*models.Quiz, error) {
	var quiz models.Quiz
	err := q.getDB(tx).WithContext(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_index ASC").Order("id ASC")
		}).
		Where("id = ?", id).
		First(&quiz).Error
	if err != nil {
		return nil, err
	}
	return &quiz, nil
}

func (q *QuizPostgreSQL) Update(ctx context.Context, tx *gorm.DB, quiz *models.Quiz) error {
	return q.getDB(tx).WithContext(ctx).Omit(clause.Associations).Save(quiz).Error
}

func (q *QuizPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id string) error {
	db := q.getDB(tx).WithContext(ctx)
	if err := db.Where("quiz_id = ?", id).Delete(&models.QuizAttempt{}).Error; err != nil {
		return fmt.Errorf("failed to delete quiz attempts: %w", err)
	}
	if err := db.Where("quiz_id = ?", id).Delete(&models.QuizQuestion{}).Error; err != nil {
		return fmt.Errorf("failed to delete quiz questions: %w", err)
	}
	result := db.Where("id = ?", id).Delete(&models.Quiz{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (q *QuizPostgreSQL) GetByCourse(ctx context.Context, tx *gorm.DB, courseID string) ([]*models.Quiz, error) {
	var quizzes []*models.Quiz
	err := q.getDB(tx).WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&quizzes).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get quizzes: %w", err)
	}
	return quizzes, nil
}

// ===== QUIZ QUESTION =====

type QuizQuestionPostgreSQL struct {
	db *gorm.DB
}

func NewQuizQuestionPostgreSQL(db *gorm.DB) repositories.QuizQuestionRepository {
	return &QuizQuestionPostgreSQL{db: db}
}

func (q *QuizQuestionPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return q.db
}

func (q *QuizQuestionPostgreSQL) Create(ctx context.Context, tx *gorm.DB, question *models.QuizQuestion) error {
	return q.getDB(tx).WithContext(ctx).Create(question).Error
}

func (q *QuizQuestionPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.QuizQuestion, error) {
	var question models.QuizQuestion
	if err := q.getDB(tx).WithContext(ctx).Where("id = ?", id).First(&question).Error; err != nil {
		return nil, err
	}
	return &question, nil
}

func (q *QuizQuestionPostgreSQL) Update(ctx context.Context, tx *gorm.DB, question *models.QuizQuestion) error {
	return q.getDB(tx).WithContext(ctx).Save(question).Error
}

func (q *QuizQuestionPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id string) error {
	result := q.getDB(tx).WithContext(ctx).Where("id = ?", id).Delete(&models.QuizQuestion{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (q *QuizQuestionPostgreSQL) GetByQuiz(ctx context.Context, tx *gorm.DB, quizID string) ([]*models.QuizQuestion, error) {
	var questions []*models.QuizQuestion
	err := q.getDB(tx).WithContext(ctx).
		Where("quiz_id = ?", quizID).
		Order("order_index ASC").
		Order("id ASC").
		Find(&questions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get quiz questions: %w", err)
	}
	return questions, nil
}

// ===== QUIZ ATTEMPT =====

type QuizAttemptPostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewQuizAttemptPostgreSQL(db *gorm.DB) repositories.QuizAttemptRepository {
	return &QuizAttemptPostgreSQL{
		db:      db,
		helpers: NewSharedHelpers(db),
	}
}

func (a *QuizAttemptPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return a.db
}

func (a *QuizAttemptPostgreSQL) Create(ctx context.Context, tx *gorm.DB, attempt *models.QuizAttempt) error {
	return a.getDB(tx).WithContext(ctx).Create(attempt).Error
}

func (a *QuizAttemptPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.QuizAttempt, error) {
	var attempt models.QuizAttempt
	if err := a.getDB(tx).WithContext(ctx).Where("id = ?", id).First(&attempt).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (a *QuizAttemptPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.AttemptFilters) ([]*models.QuizAttempt, int64, error) {
	db := a.getDB(tx)
	var attempts []*models.QuizAttempt
	var total int64

	query := db.WithContext(ctx).Model(&models.QuizAttempt{})
	if filters.QuizID != nil {
		query = query.Where("quiz_id = ?", *filters.QuizID)
	}
	if filters.UserID != nil {
		query = query.Where("user_id = ?", *filters.UserID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count attempts: %w", err)
	}

	query = a.helpers.ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset, "completed_at")
	if err := query.Find(&attempts).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list attempts: %w", err)
	}
	return attempts, total, nil
}
