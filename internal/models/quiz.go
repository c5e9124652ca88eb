package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Quiz struct {
	ID               string  `json:"id" gorm:"primaryKey;size:36"`
	CourseID         string  `json:"course_id" gorm:"not null;size:36;index"`
	LessonID         *string `json:"lesson_id" gorm:"size:36;index"`
	Title            string  `json:"title" gorm:"not null;size:200"`
	Description      *string `json:"description" gorm:"type:text"`
	PassingScore     int     `json:"passing_score" gorm:"not null"`
	TimeLimitMinutes *int    `json:"time_limit_minutes"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Questions []QuizQuestion `json:"questions,omitempty" gorm:"foreignKey:QuizID"`
}

func (Quiz) TableName() string {
	return "quizzes"
}

func (q *Quiz) BeforeCreate(tx *gorm.DB) error {
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	return nil
}

type QuizQuestion struct {
	ID            string                      `json:"id" gorm:"primaryKey;size:36"`
	QuizID        string                      `json:"quiz_id" gorm:"not null;size:36;index"`
	QuestionText  string                      `json:"question_text" gorm:"type:text;not null"`
	Options       datatypes.JSONSlice[string] `json:"options" gorm:"type:jsonb"`
	CorrectAnswer string                      `json:"correct_answer,omitempty" gorm:"type:text;not null"`
	Points        int                         `json:"points" gorm:"not null;default:1"`
	OrderIndex    int                         `json:"order_index" gorm:"not null;default:0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (QuizQuestion) TableName() string {
	return "quiz_questions"
}

func (q *QuizQuestion) BeforeCreate(tx *gorm.DB) error {
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	return nil
}

// HasOption reports whether answer is one of the question's options.
func (q *QuizQuestion) HasOption(answer string) bool {
	for _, opt := range q.Options {
		if opt == answer {
			return true
		}
	}
	return false
}
