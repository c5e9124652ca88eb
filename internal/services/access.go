package services

import "github.com/SAP-F-2025/course-service/internal/models"

// Actor is the caller identity every service operation receives
type Actor struct {
	UserID string
	Role   models.UserRole
}

func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}

// Resource names used in permission errors
const (
	ResourceCategory   = "category"
	ResourceCourse     = "course"
	ResourceLesson     = "lesson"
	ResourceBatch      = "batch"
	ResourceEnrollment = "enrollment"
	ResourceProgress   = "lesson_progress"
	ResourceAssignment = "assignment"
	ResourceSubmission = "submission"
	ResourceQuiz       = "quiz"
	ResourceQuestion   = "quiz_question"
	ResourceAttempt    = "quiz_attempt"
	ResourceProfile    = "profile"
	ResourceReport     = "report"
)

// requireAdmin guards mutations of catalog and assessment definitions
func requireAdmin(actor Actor, resource, resourceID, action string) error {
	if actor.IsAdmin() {
		return nil
	}
	return NewPermissionError(actor.UserID, resourceID, resource, action, "admin role required")
}

// requireOwner guards learner records. Admins get no exemption here.
func requireOwner(actor Actor, ownerID, resource, resourceID, action string) error {
	if actor.UserID != "" && actor.UserID == ownerID {
		return nil
	}
	return NewPermissionError(actor.UserID, resourceID, resource, action, "not the owner of this record")
}

// requireOwnerOrAdmin guards reads of learner records
func requireOwnerOrAdmin(actor Actor, ownerID, resource, resourceID, action string) error {
	if actor.IsAdmin() {
		return nil
	}
	return requireOwner(actor, ownerID, resource, resourceID, action)
}

// requireReviewer lets admins grade any submission except their own
func requireReviewer(actor Actor, submission *models.AssignmentSubmission) error {
	if err := requireAdmin(actor, ResourceSubmission, submission.ID, "review"); err != nil {
		return err
	}
	if submission.UserID == actor.UserID {
		return NewPermissionError(actor.UserID, submission.ID, ResourceSubmission, "review", "cannot review own submission")
	}
	return nil
}

// canSeeCourse hides unpublished courses from everyone but admins
func canSeeCourse(actor Actor, course *models.Course) bool {
	return course.IsPublished || actor.IsAdmin()
}

// canWatchLesson reports whether video_url may be shown
func canWatchLesson(actor Actor, lesson *models.Lesson, enrolled bool) bool {
	return actor.IsAdmin() || enrolled || lesson.IsFreePreview
}
