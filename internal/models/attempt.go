package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// QuizAttempt is one scored run of a quiz. Attempts are only ever inserted.
type QuizAttempt struct {
	ID          string `json:"id" gorm:"primaryKey;size:36"`
	QuizID      string `json:"quiz_id" gorm:"not null;size:36;index"`
	UserID      string `json:"user_id" gorm:"not null;size:255;index"`
	Score       int    `json:"score" gorm:"not null"`
	TotalPoints int    `json:"total_points" gorm:"not null"`
	Percentage  int    `json:"percentage" gorm:"not null"`
	Passed      bool   `json:"passed" gorm:"not null"`

	// question id -> chosen option
	Answers datatypes.JSONType[map[string]string] `json:"answers" gorm:"type:jsonb"`

	StartedAt   *time.Time `json:"started_at"`
	CompletedAt time.Time  `json:"completed_at" gorm:"index"`

	CreatedAt time.Time `json:"created_at"`
}

func (QuizAttempt) TableName() string {
	return "quiz_attempts"
}

func (a *QuizAttempt) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
