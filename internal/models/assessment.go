package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Assignment struct {
	ID          string     `json:"id" gorm:"primaryKey;size:36"`
	CourseID    string     `json:"course_id" gorm:"not null;size:36;index"`
	LessonID    *string    `json:"lesson_id" gorm:"size:36;index"`
	Title       string     `json:"title" gorm:"not null;size:200"`
	Description string     `json:"description" gorm:"type:text"`
	MaxScore    int        `json:"max_score" gorm:"not null"`
	DueDate     *time.Time `json:"due_date"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Course *Course `json:"course,omitempty" gorm:"foreignKey:CourseID"`
}

func (Assignment) TableName() string {
	return "assignments"
}

func (a *Assignment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// AssignmentSubmission holds the single active submission of a learner for an
// assignment. Once ReviewedAt is set the row is read-only to the learner.
type AssignmentSubmission struct {
	ID             string     `json:"id" gorm:"primaryKey;size:36"`
	AssignmentID   string     `json:"assignment_id" gorm:"not null;size:36;uniqueIndex:idx_submission_assignment_user"`
	UserID         string     `json:"user_id" gorm:"not null;size:255;uniqueIndex:idx_submission_assignment_user;index"`
	SubmissionText *string    `json:"submission_text" gorm:"type:text"`
	SubmissionURL  *string    `json:"submission_url" gorm:"size:1000"`
	Score          *int       `json:"score"`
	Feedback       *string    `json:"feedback" gorm:"type:text"`
	SubmittedAt    time.Time  `json:"submitted_at" gorm:"index"`
	ReviewedAt     *time.Time `json:"reviewed_at"`
	ReviewedBy     *string    `json:"reviewed_by" gorm:"size:255"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Assignment *Assignment `json:"assignment,omitempty" gorm:"foreignKey:AssignmentID"`
	Profile    *Profile    `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

func (AssignmentSubmission) TableName() string {
	return "assignment_submissions"
}

func (s *AssignmentSubmission) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

func (s *AssignmentSubmission) IsReviewed() bool {
	return s.ReviewedAt != nil
}
