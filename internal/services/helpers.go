package services

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"github.com/SAP-F-2025/course-service/internal/cache"
	"github.com/SAP-F-2025/course-service/internal/events"
	"github.com/SAP-F-2025/course-service/internal/models"
	"github.com/SAP-F-2025/course-service/internal/repositories"
	"github.com/SAP-F-2025/course-service/pkg/monitoring"
	"gorm.io/gorm"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// runInTx runs fn in a transaction. Cache invalidations the repositories
// register inside it are applied only after the commit.
func runInTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	txCtx, pending := cache.WithPending(ctx)
	if err := db.WithContext(txCtx).Transaction(fn); err != nil {
		return err
	}
	pending.Flush(ctx)
	return nil
}

// normalizePage turns a 1-based page and size into limit/offset
func normalizePage(page, size, defaultSize int) (int, int, int) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = defaultSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return page, size, (page - 1) * size
}

// Slugify lowercases s, turns whitespace runs into '-' and drops every
// character that is not a letter, digit, '_' or '-'.
func Slugify(s string) string {
	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case unicode.IsSpace(r) || r == '-':
			pendingDash = b.Len() > 0
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_':
			if pendingDash {
				b.WriteByte('-')
				pendingDash = false
			}
			b.WriteRune(r)
		}
	}
	return b.String()
}

func now() time.Time {
	return time.Now().UTC()
}

// recomputeEnrollment sets the percentage from the completion ratio and
// completes an active enrollment at 100. It reports whether the enrollment
// became completed in this call.
func recomputeEnrollment(ctx context.Context, repo repositories.Repository, tx *gorm.DB, enrollment *models.Enrollment) (bool, error) {
	total, err := repo.Lesson().CountByCourse(ctx, tx, enrollment.CourseID)
	if err != nil {
		return false, err
	}
	completed, err := repo.Progress().CountCompleted(ctx, tx, enrollment.UserID, enrollment.CourseID)
	if err != nil {
		return false, err
	}

	percentage := ProgressPercentage(int(completed), int(total))
	changed := percentage != enrollment.ProgressPercentage
	enrollment.ProgressPercentage = percentage

	completedNow := false
	if percentage == 100 && enrollment.Status == models.EnrollmentActive {
		stamp := now()
		enrollment.Status = models.EnrollmentCompleted
		enrollment.CompletedAt = &stamp
		completedNow = true
		changed = true
	}

	if changed {
		if err := repo.Enrollment().Update(ctx, tx, enrollment); err != nil {
			return false, err
		}
	}
	return completedNow, nil
}

// recomputeCourseEnrollments refreshes every enrollment of a course and
// returns those that became completed
func recomputeCourseEnrollments(ctx context.Context, repo repositories.Repository, tx *gorm.DB, courseID string) ([]*models.Enrollment, error) {
	enrollments, err := repo.Enrollment().GetByCourse(ctx, tx, courseID)
	if err != nil {
		return nil, err
	}

	var completed []*models.Enrollment
	for _, enrollment := range enrollments {
		completedNow, err := recomputeEnrollment(ctx, repo, tx, enrollment)
		if err != nil {
			return nil, err
		}
		if completedNow {
			completed = append(completed, enrollment)
		}
	}
	return completed, nil
}

// findEnrollment returns nil without error when the user is not enrolled
func findEnrollment(ctx context.Context, repo repositories.Repository, tx *gorm.DB, userID, courseID string) (*models.Enrollment, error) {
	enrollment, err := repo.Enrollment().GetByUserAndCourse(ctx, tx, userID, courseID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, nil
		}
		return nil, err
	}
	return enrollment, nil
}

// requireEnrollment fails with a business rule error unless actor is enrolled
func requireEnrollment(ctx context.Context, repo repositories.Repository, tx *gorm.DB, actor Actor, courseID string) (*models.Enrollment, error) {
	enrollment, err := findEnrollment(ctx, repo, tx, actor.UserID, courseID)
	if err != nil {
		return nil, err
	}
	if enrollment == nil {
		return nil, NewBusinessRuleError("enrollment_required", "you must be enrolled in this course", map[string]interface{}{
			"course_id": courseID,
		})
	}
	return enrollment, nil
}

// loadVisibleCourse hides unpublished courses from non-admins as not found
func loadVisibleCourse(ctx context.Context, repo repositories.Repository, tx *gorm.DB, actor Actor, courseID string) (*models.Course, error) {
	course, err := repo.Course().GetByID(ctx, tx, courseID)
	if err != nil {
		return nil, translateStoreError(err, "get course", ResourceCourse, courseID)
	}
	if !canSeeCourse(actor, course) {
		return nil, NewNotFoundError(ResourceCourse, courseID)
	}
	return course, nil
}

// publishEvents runs after commit. Failures are logged only.
func publishEvents(ctx context.Context, publisher events.EventPublisher, logger *slog.Logger, evts ...*events.Event) {
	if publisher == nil {
		return
	}
	for _, event := range evts {
		if err := publisher.Publish(ctx, event); err != nil {
			monitoring.RecordDomainEvent(event.Type, "failed")
			logger.Error("Failed to publish event",
				"event_type", event.Type,
				"event_id", event.ID,
				"error", err)
			continue
		}
		monitoring.RecordDomainEvent(event.Type, "published")
	}
}

func enrollmentEvent(topic string, enrollment *models.Enrollment) *events.Event {
	return events.NewEvent(topic, events.EnrollmentEvent{
		EnrollmentID:       enrollment.ID,
		UserID:             enrollment.UserID,
		CourseID:           enrollment.CourseID,
		BatchID:            enrollment.BatchID,
		Status:             string(enrollment.Status),
		ProgressPercentage: enrollment.ProgressPercentage,
	})
}

func completionEvents(enrollments []*models.Enrollment) []*events.Event {
	result := make([]*events.Event, 0, len(enrollments))
	for _, enrollment := range enrollments {
		result = append(result, enrollmentEvent(events.TopicEnrollmentCompleted, enrollment))
	}
	return result
}

func stringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// checkLessonInCourse rejects a lesson reference that points outside courseID
func checkLessonInCourse(ctx context.Context, repo repositories.Repository, tx *gorm.DB, lessonID *string, courseID string) error {
	if lessonID == nil || *lessonID == "" {
		return nil
	}
	lesson, err := repo.Lesson().GetByID(ctx, tx, *lessonID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return NewValidationError("lesson_id", "lesson does not exist", *lessonID)
		}
		return err
	}
	if lesson.CourseID != courseID {
		return NewValidationError("lesson_id", "lesson belongs to another course", *lessonID)
	}
	return nil
}

// trimmedOrNil returns nil for a nil or blank string
func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
