package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type EnrollmentStatus string

const (
	EnrollmentActive    EnrollmentStatus = "active"
	EnrollmentCompleted EnrollmentStatus = "completed"
	EnrollmentDropped   EnrollmentStatus = "dropped"
)

type Enrollment struct {
	ID                 string           `json:"id" gorm:"primaryKey;size:36"`
	UserID             string           `json:"user_id" gorm:"not null;size:255;uniqueIndex:idx_enrollment_user_course"`
	CourseID           string           `json:"course_id" gorm:"not null;size:36;uniqueIndex:idx_enrollment_user_course;index"`
	BatchID            *string          `json:"batch_id" gorm:"size:36;index"`
	ProgressPercentage int              `json:"progress_percentage" gorm:"not null;default:0"`
	Status             EnrollmentStatus `json:"status" gorm:"not null;size:20;default:active;index"`

	EnrolledAt  time.Time  `json:"enrolled_at"`
	CompletedAt *time.Time `json:"completed_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Course  *Course  `json:"course,omitempty" gorm:"foreignKey:CourseID"`
	Profile *Profile `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

func (Enrollment) TableName() string {
	return "enrollments"
}

func (e *Enrollment) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.EnrolledAt.IsZero() {
		e.EnrolledAt = time.Now().UTC()
	}
	return nil
}

type LessonProgress struct {
	ID               string     `json:"id" gorm:"primaryKey;size:36"`
	UserID           string     `json:"user_id" gorm:"not null;size:255;uniqueIndex:idx_progress_user_lesson"`
	LessonID         string     `json:"lesson_id" gorm:"not null;size:36;uniqueIndex:idx_progress_user_lesson;index"`
	Completed        bool       `json:"completed" gorm:"not null;default:false"`
	CompletedAt      *time.Time `json:"completed_at"`
	WatchTimeSeconds int        `json:"watch_time_seconds" gorm:"not null;default:0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (LessonProgress) TableName() string {
	return "lesson_progress"
}

func (p *LessonProgress) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
