package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type CourseLevel string

const (
	LevelBeginner     CourseLevel = "beginner"
	LevelIntermediate CourseLevel = "intermediate"
	LevelAdvanced     CourseLevel = "advanced"
)

func (l CourseLevel) IsValid() bool {
	switch l {
	case LevelBeginner, LevelIntermediate, LevelAdvanced:
		return true
	}
	return false
}

type Category struct {
	ID          string  `json:"id" gorm:"primaryKey;size:36"`
	Name        string  `json:"name" gorm:"not null;size:100"`
	Slug        string  `json:"slug" gorm:"uniqueIndex;not null;size:120"`
	Description *string `json:"description" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Category) TableName() string {
	return "categories"
}

func (c *Category) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

type Course struct {
	ID             string      `json:"id" gorm:"primaryKey;size:36"`
	Slug           string      `json:"slug" gorm:"uniqueIndex;not null;size:220"`
	Title          string      `json:"title" gorm:"not null;size:200;index"`
	Description    string      `json:"description" gorm:"type:text"`
	InstructorName string      `json:"instructor_name" gorm:"not null;size:100"`
	InstructorBio  *string     `json:"instructor_bio" gorm:"type:text"`
	ThumbnailURL   *string     `json:"thumbnail_url" gorm:"size:500"`
	Price          float64     `json:"price" gorm:"not null;default:0"`
	Level          CourseLevel `json:"level" gorm:"not null;size:20;index"`
	CategoryID     *string     `json:"category_id" gorm:"size:36;index"`
	IsPublished    bool        `json:"is_published" gorm:"default:false;index"`

	// Stored as a JSON array of strings
	Tags datatypes.JSONSlice[string] `json:"tags" gorm:"type:jsonb"`

	CreatedBy string    `json:"created_by" gorm:"not null;size:255;index"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Category *Category `json:"category,omitempty" gorm:"foreignKey:CategoryID"`

	// Computed
	LessonCount int `json:"lesson_count" gorm:"-"`
}

func (Course) TableName() string {
	return "courses"
}

func (c *Course) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

type Lesson struct {
	ID              string  `json:"id" gorm:"primaryKey;size:36"`
	CourseID        string  `json:"course_id" gorm:"not null;size:36;uniqueIndex:idx_lesson_course_order"`
	Title           string  `json:"title" gorm:"not null;size:200"`
	Description     *string `json:"description" gorm:"type:text"`
	VideoURL        string  `json:"video_url" gorm:"size:500"`
	OrderIndex      int     `json:"order_index" gorm:"not null;uniqueIndex:idx_lesson_course_order"`
	DurationMinutes int     `json:"duration_minutes" gorm:"not null;default:0"`
	IsFreePreview   bool    `json:"is_free_preview" gorm:"default:false"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Lesson) TableName() string {
	return "lessons"
}

func (l *Lesson) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}

// Batch groups enrollments of one course into a cohort with a start date.
type Batch struct {
	ID        string     `json:"id" gorm:"primaryKey;size:36"`
	CourseID  string     `json:"course_id" gorm:"not null;size:36;index"`
	Name      string     `json:"name" gorm:"not null;size:100"`
	StartDate time.Time  `json:"start_date" gorm:"not null"`
	EndDate   *time.Time `json:"end_date"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Batch) TableName() string {
	return "batches"
}

func (b *Batch) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}
