package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const EventSource = "course-service"

// Topics
const (
	TopicEnrollmentCreated   = "enrollment.created"
	TopicEnrollmentCompleted = "enrollment.completed"
	TopicSubmissionSubmitted = "submission.submitted"
	TopicSubmissionReviewed  = "submission.reviewed"
	TopicQuizAttemptRecorded = "quiz.attempt_recorded"
)

// AllTopics lists every topic the service publishes to
var AllTopics = []string{
	TopicEnrollmentCreated,
	TopicEnrollmentCompleted,
	TopicSubmissionSubmitted,
	TopicSubmissionReviewed,
	TopicQuizAttemptRecorded,
}

type Event struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Source    string      `json:"source"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

func NewEvent(eventType string, data interface{}) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Source:    EventSource,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// EventPublisher delivers domain events. The event type is the topic.
type EventPublisher interface {
	Publish(ctx context.Context, event *Event) error
	Close() error
}

// ===== PAYLOADS =====

type EnrollmentEvent struct {
	EnrollmentID       string  `json:"enrollment_id"`
	UserID             string  `json:"user_id"`
	CourseID           string  `json:"course_id"`
	BatchID            *string `json:"batch_id,omitempty"`
	Status             string  `json:"status"`
	ProgressPercentage int     `json:"progress_percentage"`
}

type SubmissionEvent struct {
	SubmissionID string `json:"submission_id"`
	AssignmentID string `json:"assignment_id"`
	UserID       string `json:"user_id"`
	Score        *int   `json:"score,omitempty"`
	ReviewedBy   string `json:"reviewed_by,omitempty"`
}

type QuizAttemptEvent struct {
	AttemptID   string `json:"attempt_id"`
	QuizID      string `json:"quiz_id"`
	UserID      string `json:"user_id"`
	Score       int    `json:"score"`
	TotalPoints int    `json:"total_points"`
	Percentage  int    `json:"percentage"`
	Passed      bool   `json:"passed"`
}
