package services

import (
	"context"
	"log/slog"

	"github.com/SAP-F-2025/course-service/internal/events"
	"github.com/SAP-F-2025/course-service/internal/models"
	"github.com/SAP-F-2025/course-service/internal/repositories"
	"github.com/SAP-F-2025/course-service/internal/validator"
	"gorm.io/gorm"
)

type enrollmentService struct {
	repo           repositories.Repository
	db             *gorm.DB
	logger         *slog.Logger
	validator      *validator.Validator
	eventPublisher events.EventPublisher
}

func NewEnrollmentService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, publisher events.EventPublisher) EnrollmentService {
	return &enrollmentService{
		repo:           repo,
		db:             db,
		logger:         logger,
		validator:      validator,
		eventPublisher: publisher,
	}
}

func (s *enrollmentService) withTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return runInTx(ctx, s.db, fn)
}

// ===== ENROLLMENTS =====

func (s *enrollmentService) Enroll(ctx context.Context, actor Actor, req *EnrollRequest) (*models.Enrollment, error) {
	s.logger.Info("Enrolling user", "user_id", actor.UserID, "course_id", req.CourseID)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if actor.UserID == "" {
		return nil, NewPermissionError("", req.CourseID, ResourceEnrollment, "create", "anonymous callers cannot enroll")
	}

	enrollment := &models.Enrollment{
		UserID:             actor.UserID,
		CourseID:           req.CourseID,
		BatchID:            req.BatchID,
		Status:             models.EnrollmentActive,
		ProgressPercentage: 0,
		EnrolledAt:         now(),
	}

	err := s.withTx(ctx, func(tx *gorm.DB) error {
		if _, err := loadVisibleCourse(ctx, s.repo, tx, actor, req.CourseID); err != nil {
			return err
		}

		if req.BatchID != nil {
			batch, err := s.repo.Batch().GetByID(ctx, tx, *req.BatchID)
			if err != nil {
				if repositories.IsNotFoundError(err) {
					return NewValidationError("batch_id", "batch does not exist", *req.BatchID)
				}
				return err
			}
			if batch.CourseID != req.CourseID {
				return NewValidationError("batch_id", "batch belongs to another course", *req.BatchID)
			}
		}

		existing, err := findEnrollment(ctx, s.repo, tx, actor.UserID, req.CourseID)
		if err != nil {
			return err
		}
		if existing != nil {
			return NewConflictError(ResourceEnrollment, "already enrolled in this course")
		}

		return s.repo.Enrollment().Create(ctx, tx, enrollment)
	})
	if err != nil {
		if repositories.IsDuplicateKeyError(err) {
			return nil, NewConflictError(ResourceEnrollment, "already enrolled in this course")
		}
		return nil, translateStoreError(err, "enroll", ResourceEnrollment, "")
	}

	publishEvents(ctx, s.eventPublisher, s.logger, enrollmentEvent(events.TopicEnrollmentCreated, enrollment))
	s.logger.Info("Enrollment created successfully", "enrollment_id", enrollment.ID)
	return enrollment, nil
}

func (s *enrollmentService) GetEnrollment(ctx context.Context, actor Actor, id string) (*models.Enrollment, error) {
	enrollment, err := s.repo.Enrollment().GetByID(ctx, s.db, id)
	if err != nil {
		return nil, translateStoreError(err, "get enrollment", ResourceEnrollment, id)
	}
	if err := requireOwnerOrAdmin(actor, enrollment.UserID, ResourceEnrollment, id, "read"); err != nil {
		return nil, err
	}
	return enrollment, nil
}

// DropEnrollment marks an active enrollment dropped. Dropping twice is a no-op.
func (s *enrollmentService) DropEnrollment(ctx context.Context, actor Actor, id string) (*models.Enrollment, error) {
	s.logger.Info("Dropping enrollment", "user_id", actor.UserID, "enrollment_id", id)

	var enrollment *models.Enrollment
	err := s.withTx(ctx, func(tx *gorm.DB) error {
		var err error
		enrollment, err = s.repo.Enrollment().GetByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := requireOwner(actor, enrollment.UserID, ResourceEnrollment, id, "drop"); err != nil {
			return err
		}

		switch enrollment.Status {
		case models.EnrollmentDropped:
			return nil
		case models.EnrollmentCompleted:
			return NewBusinessRuleError("enrollment_completed", "a completed enrollment cannot be dropped", map[string]interface{}{
				"enrollment_id": id,
			})
		}

		enrollment.Status = models.EnrollmentDropped
		return s.repo.Enrollment().Update(ctx, tx, enrollment)
	})
	if err != nil {
		return nil, translateStoreError(err, "drop enrollment", ResourceEnrollment, id)
	}
	return enrollment, nil
}

func (s *enrollmentService) RecomputeProgress(ctx context.Context, actor Actor, enrollmentID string) (*models.Enrollment, error) {
	var (
		enrollment   *models.Enrollment
		completedNow bool
	)
	err := s.withTx(ctx, func(tx *gorm.DB) error {
		var err error
		enrollment, err = s.repo.Enrollment().GetByID(ctx, tx, enrollmentID)
		if err != nil {
			return err
		}
		if err := requireOwnerOrAdmin(actor, enrollment.UserID, ResourceEnrollment, enrollmentID, "recompute"); err != nil {
			return err
		}
		completedNow, err = recomputeEnrollment(ctx, s.repo, tx, enrollment)
		return err
	})
	if err != nil {
		return nil, translateStoreError(err, "recompute progress", ResourceEnrollment, enrollmentID)
	}

	if completedNow {
		publishEvents(ctx, s.eventPublisher, s.logger, enrollmentEvent(events.TopicEnrollmentCompleted, enrollment))
	}
	return enrollment, nil
}

func (s *enrollmentService) ListMyEnrollments(ctx context.Context, actor Actor, page, size int) (*models.PaginatedResponse, error) {
	page, size, offset := normalizePage(page, size, DefaultPageSize)

	enrollments, total, err := s.repo.Enrollment().List(ctx, s.db, repositories.EnrollmentFilters{
		UserID:    &actor.UserID,
		Limit:     size,
		Offset:    offset,
		SortBy:    "enrolled_at",
		SortOrder: "desc",
	})
	if err != nil {
		return nil, translateStoreError(err, "list enrollments", ResourceEnrollment, "")
	}
	return models.NewPaginatedResponse(enrollments, len(enrollments), total, page, size), nil
}

// ListEnrollments is the admin view over all learners
func (s *enrollmentService) ListEnrollments(ctx context.Context, actor Actor, req *EnrollmentListRequest) (*models.PaginatedResponse, error) {
	if err := requireAdmin(actor, ResourceEnrollment, "", "list"); err != nil {
		return nil, err
	}

	page, size, offset := normalizePage(req.Page, req.Size, DefaultPageSize)
	filters := repositories.EnrollmentFilters{
		CourseID:  stringPtr(req.CourseID),
		BatchID:   stringPtr(req.BatchID),
		Limit:     size,
		Offset:    offset,
		SortBy:    "enrolled_at",
		SortOrder: "desc",
	}
	if req.Status != "" {
		status := models.EnrollmentStatus(req.Status)
		switch status {
		case models.EnrollmentActive, models.EnrollmentCompleted, models.EnrollmentDropped:
			filters.Status = &status
		default:
			return nil, NewValidationError("status", "must be active, completed or dropped", req.Status)
		}
	}

	enrollments, total, err := s.repo.Enrollment().List(ctx, s.db, filters)
	if err != nil {
		return nil, translateStoreError(err, "list enrollments", ResourceEnrollment, "")
	}
	return models.NewPaginatedResponse(enrollments, len(enrollments), total, page, size), nil
}

// ===== PROGRESS =====

// ToggleLessonComplete flips completion of one lesson for the caller and
// recomputes the enrollment in the same transaction
func (s *enrollmentService) ToggleLessonComplete(ctx context.Context, actor Actor, lessonID string) (*ToggleLessonResult, error) {
	s.logger.Info("Toggling lesson completion", "user_id", actor.UserID, "lesson_id", lessonID)

	result := &ToggleLessonResult{}
	var completedNow bool

	err := s.withTx(ctx, func(tx *gorm.DB) error {
		lesson, err := s.repo.Lesson().GetByID(ctx, tx, lessonID)
		if err != nil {
			return err
		}

		enrollment, err := requireEnrollment(ctx, s.repo, tx, actor, lesson.CourseID)
		if err != nil {
			return err
		}

		progress, err := s.repo.Progress().Get(ctx, tx, actor.UserID, lessonID)
		switch {
		case repositories.IsNotFoundError(err):
			stamp := now()
			progress = &models.LessonProgress{
				UserID:      actor.UserID,
				LessonID:    lessonID,
				Completed:   true,
				CompletedAt: &stamp,
			}
			if err := s.repo.Progress().Create(ctx, tx, progress); err != nil {
				return err
			}
		case err != nil:
			return err
		default:
			if err := requireOwner(actor, progress.UserID, ResourceProgress, progress.ID, "toggle"); err != nil {
				return err
			}
			progress.Completed = !progress.Completed
			if progress.Completed {
				stamp := now()
				progress.CompletedAt = &stamp
			} else {
				progress.CompletedAt = nil
			}
			if err := s.repo.Progress().Update(ctx, tx, progress); err != nil {
				return err
			}
		}

		completedNow, err = recomputeEnrollment(ctx, s.repo, tx, enrollment)
		if err != nil {
			return err
		}

		result.Progress = progress
		result.Enrollment = enrollment
		return nil
	})
	if err != nil {
		return nil, translateStoreError(err, "toggle lesson", ResourceLesson, lessonID)
	}

	if completedNow {
		publishEvents(ctx, s.eventPublisher, s.logger, enrollmentEvent(events.TopicEnrollmentCompleted, result.Enrollment))
	}

	s.logger.Info("Lesson completion toggled",
		"lesson_id", lessonID,
		"completed", result.Progress.Completed,
		"progress_percentage", result.Enrollment.ProgressPercentage)
	return result, nil
}

// RecordWatchTime keeps the largest reported position for the lesson
func (s *enrollmentService) RecordWatchTime(ctx context.Context, actor Actor, lessonID string, req *WatchTimeRequest) (*models.LessonProgress, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	var progress *models.LessonProgress
	err := s.withTx(ctx, func(tx *gorm.DB) error {
		lesson, err := s.repo.Lesson().GetByID(ctx, tx, lessonID)
		if err != nil {
			return err
		}
		if _, err := requireEnrollment(ctx, s.repo, tx, actor, lesson.CourseID); err != nil {
			return err
		}

		progress, err = s.repo.Progress().Get(ctx, tx, actor.UserID, lessonID)
		if repositories.IsNotFoundError(err) {
			progress = &models.LessonProgress{
				UserID:           actor.UserID,
				LessonID:         lessonID,
				WatchTimeSeconds: req.Seconds,
			}
			return s.repo.Progress().Create(ctx, tx, progress)
		}
		if err != nil {
			return err
		}

		if req.Seconds <= progress.WatchTimeSeconds {
			return nil
		}
		progress.WatchTimeSeconds = req.Seconds
		return s.repo.Progress().Update(ctx, tx, progress)
	})
	if err != nil {
		return nil, translateStoreError(err, "record watch time", ResourceLesson, lessonID)
	}
	return progress, nil
}

func (s *enrollmentService) GetCourseProgress(ctx context.Context, actor Actor, courseID string) (*models.CourseProgress, error) {
	enrollment, err := findEnrollment(ctx, s.repo, s.db, actor.UserID, courseID)
	if err != nil {
		return nil, translateStoreError(err, "get enrollment", ResourceEnrollment, "")
	}
	if enrollment == nil {
		return nil, NewNotFoundError(ResourceEnrollment, courseID)
	}

	lessons, err := s.repo.Lesson().GetByCourse(ctx, s.db, courseID)
	if err != nil {
		return nil, translateStoreError(err, "list lessons", ResourceLesson, "")
	}
	rows, err := s.repo.Progress().GetByUserAndCourse(ctx, s.db, actor.UserID, courseID)
	if err != nil {
		return nil, translateStoreError(err, "list progress", ResourceProgress, "")
	}

	byLesson := make(map[string]*models.LessonProgress, len(rows))
	for _, row := range rows {
		byLesson[row.LessonID] = row
	}

	result := &models.CourseProgress{
		Enrollment:   enrollment,
		Lessons:      make([]models.LessonWithProgress, 0, len(lessons)),
		TotalLessons: len(lessons),
	}
	for _, lesson := range lessons {
		progress := byLesson[lesson.ID]
		if progress != nil && progress.Completed {
			result.CompletedLessons++
		}
		result.Lessons = append(result.Lessons, models.LessonWithProgress{Lesson: lesson, Progress: progress})
	}
	return result, nil
}

func (s *enrollmentService) GetDashboard(ctx context.Context, actor Actor) (*models.StudentDashboard, error) {
	stats, err := s.repo.Enrollment().GetStats(ctx, s.db, actor.UserID)
	if err != nil {
		return nil, translateStoreError(err, "get enrollment stats", ResourceEnrollment, "")
	}

	enrollments, _, err := s.repo.Enrollment().List(ctx, s.db, repositories.EnrollmentFilters{
		UserID:    &actor.UserID,
		SortBy:    "enrolled_at",
		SortOrder: "desc",
	})
	if err != nil {
		return nil, translateStoreError(err, "list enrollments", ResourceEnrollment, "")
	}

	return &models.StudentDashboard{
		TotalEnrollments:     stats.Total,
		ActiveEnrollments:    stats.Active,
		CompletedEnrollments: stats.Completed,
		AverageProgress:      stats.AverageProgress,
		Enrollments:          enrollments,
	}, nil
}
