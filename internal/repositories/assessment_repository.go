package repositories

import (
	"context"

	"github.com/SAP-F-2025/course-service/internal/models"
	"gorm.io/gorm"
)

type AssignmentRepository interface {
	Create(ctx context.Context, tx *gorm.DB, assignment *models.Assignment) error
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Assignment, error)
	Update(ctx context.Context, tx *gorm.DB, assignment *models.Assignment) error
	Delete(ctx context.Context, tx *gorm.DB, id string) error
	GetByCourse(ctx context.Context, tx *gorm.DB, courseID string) ([]*models.Assignment, error)
}

type SubmissionRepository interface {
	Create(ctx context.Context, tx *gorm.DB, submission *models.AssignmentSubmission) error
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.AssignmentSubmission, error)
	// GetByAssignmentAndUser returns gorm.ErrRecordNotFound when nothing was submitted yet
	GetByAssignmentAndUser(ctx context.Context, tx *gorm.DB, assignmentID, userID string) (*models.AssignmentSubmission, error)
	Update(ctx context.Context, tx *gorm.DB, submission *models.AssignmentSubmission) error

	List(ctx context.Context, tx *gorm.DB, filters SubmissionFilters) ([]*models.AssignmentSubmission, int64, error)
}

type QuizRepository interface {
	Create(ctx context.Context, tx *gorm.DB, quiz *models.Quiz) error
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Quiz, error)
	// GetByIDWithQuestions preloads questions in order_index order
	GetByIDWithQuestions(ctx context.Context, tx *gorm.DB, id string) (*models.Quiz, error)
	Update(ctx context.Context, tx *gorm.DB, quiz *models.Quiz) error
	Delete(ctx context.Context, tx *gorm.DB, id string) error
	GetByCourse(ctx context.Context, tx *gorm.DB, courseID string) ([]*models.Quiz, error)
}

type QuizQuestionRepository interface {
	Create(ctx context.Context, tx *gorm.DB, question *models.QuizQuestion) error
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.QuizQuestion, error)
	Update(ctx context.Context, tx *gorm.DB, question *models.QuizQuestion) error
	Delete(ctx context.Context, tx *gorm.DB, id string) error
	GetByQuiz(ctx context.Context, tx *gorm.DB, quizID string) ([]*models.QuizQuestion, error)
}

// QuizAttemptRepository is append-only
type QuizAttemptRepository interface {
	Create(ctx context.Context, tx *gorm.DB, attempt *models.QuizAttempt) error
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.QuizAttempt, error)
	List(ctx context.Context, tx *gorm.DB, filters AttemptFilters) ([]*models.QuizAttempt, int64, error)
}
