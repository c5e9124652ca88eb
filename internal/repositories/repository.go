package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// Repository aggregates every store used by the course service
type Repository interface {
	// Identity
	Profile() ProfileRepository

	// Catalog
	Category() CategoryRepository
	Course() CourseRepository
	Lesson() LessonRepository
	Batch() BatchRepository

	// Enrollment and progress
	Enrollment() EnrollmentRepository
	Progress() ProgressRepository

	// Assessment
	Assignment() AssignmentRepository
	Submission() SubmissionRepository
	Quiz() QuizRepository
	QuizQuestion() QuizQuestionRepository
	QuizAttempt() QuizAttemptRepository

	// Reporting
	Report() ReportRepository

	// Transaction support
	WithTransaction(ctx context.Context, fn func(Repository) error) error

	// Health check
	Ping(ctx context.Context) error

	// Close connections
	Close() error
}

// RepositoryManager interface for managing repository lifecycle
type RepositoryManager interface {
	// Initialize repositories with database connections
	Initialize() error

	// Get repository instance
	GetRepository() Repository

	// Health check for all repositories
	HealthCheck(ctx context.Context) error

	// Graceful shutdown
	Shutdown(ctx context.Context) error
}

// IsNotFoundError reports whether err wraps a missing-row error
func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// IsDuplicateKeyError reports whether err wraps a unique constraint violation.
// Requires gorm.Config.TranslateError.
func IsDuplicateKeyError(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
