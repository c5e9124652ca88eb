package validator

import (
	"time"

	"github.com/SAP-F-2025/course-service/internal/models"
)

// ===== CATALOG =====

type CategoryCreateRequest struct {
	Name        string  `json:"name" validate:"required,max=100,slug_source"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
}

type CategoryUpdateRequest struct {
	Name        *string `json:"name" validate:"omitempty,max=100,slug_source"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
}

type CourseCreateRequest struct {
	Title          string             `json:"title" validate:"required,max=200,slug_source"`
	Description    string             `json:"description" validate:"max=5000"`
	InstructorName string             `json:"instructor_name" validate:"required,not_blank,max=100"`
	InstructorBio  *string            `json:"instructor_bio" validate:"omitempty,max=2000"`
	ThumbnailURL   *string            `json:"thumbnail_url" validate:"omitempty,url,max=500"`
	Price          float64            `json:"price" validate:"gte=0"`
	Level          models.CourseLevel `json:"level" validate:"required,course_level"`
	CategoryID     *string            `json:"category_id" validate:"omitempty,uuid"`
	Tags           []string           `json:"tags" validate:"omitempty,max=20,dive,not_blank,max=50"`
	IsPublished    bool               `json:"is_published"`
}

// CourseUpdateRequest changes only the fields that are present. A non-nil
// Tags replaces the whole list.
type CourseUpdateRequest struct {
	Title          *string             `json:"title" validate:"omitempty,max=200,slug_source"`
	Description    *string             `json:"description" validate:"omitempty,max=5000"`
	InstructorName *string             `json:"instructor_name" validate:"omitempty,not_blank,max=100"`
	InstructorBio  *string             `json:"instructor_bio" validate:"omitempty,max=2000"`
	ThumbnailURL   *string             `json:"thumbnail_url" validate:"omitempty,url,max=500"`
	Price          *float64            `json:"price" validate:"omitempty,gte=0"`
	Level          *models.CourseLevel `json:"level" validate:"omitempty,course_level"`
	CategoryID     *string             `json:"category_id" validate:"omitempty,uuid"`
	Tags           []string            `json:"tags" validate:"omitempty,max=20,dive,not_blank,max=50"`
	IsPublished    *bool               `json:"is_published"`
}

type LessonCreateRequest struct {
	Title           string  `json:"title" validate:"required,not_blank,max=200"`
	Description     *string `json:"description" validate:"omitempty,max=5000"`
	VideoURL        string  `json:"video_url" validate:"omitempty,max=500"`
	OrderIndex      int     `json:"order_index" validate:"gte=0"`
	DurationMinutes int     `json:"duration_minutes" validate:"gte=0"`
	IsFreePreview   bool    `json:"is_free_preview"`
}

type LessonUpdateRequest struct {
	Title           *string `json:"title" validate:"omitempty,not_blank,max=200"`
	Description     *string `json:"description" validate:"omitempty,max=5000"`
	VideoURL        *string `json:"video_url" validate:"omitempty,max=500"`
	OrderIndex      *int    `json:"order_index" validate:"omitempty,gte=0"`
	DurationMinutes *int    `json:"duration_minutes" validate:"omitempty,gte=0"`
	IsFreePreview   *bool   `json:"is_free_preview"`
}

type BatchCreateRequest struct {
	Name      string     `json:"name" validate:"required,not_blank,max=100"`
	StartDate time.Time  `json:"start_date" validate:"required"`
	EndDate   *time.Time `json:"end_date"`
}

type BatchUpdateRequest struct {
	Name      *string    `json:"name" validate:"omitempty,not_blank,max=100"`
	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
}

// ===== ENROLLMENT =====

type EnrollRequest struct {
	CourseID string  `json:"course_id" validate:"required"`
	BatchID  *string `json:"batch_id"`
}

type WatchTimeRequest struct {
	Seconds int `json:"seconds" validate:"gte=0,max=86400"`
}

// ===== ASSIGNMENTS =====

type AssignmentCreateRequest struct {
	CourseID    string     `json:"course_id" validate:"required"`
	LessonID    *string    `json:"lesson_id"`
	Title       string     `json:"title" validate:"required,not_blank,max=200"`
	Description string     `json:"description" validate:"max=5000"`
	MaxScore    int        `json:"max_score" validate:"required,min=1"`
	DueDate     *time.Time `json:"due_date"`
}

// AssignmentUpdateRequest accepts max_score only to reject a change to it
type AssignmentUpdateRequest struct {
	LessonID    *string    `json:"lesson_id"`
	Title       *string    `json:"title" validate:"omitempty,not_blank,max=200"`
	Description *string    `json:"description" validate:"omitempty,max=5000"`
	MaxScore    *int       `json:"max_score"`
	DueDate     *time.Time `json:"due_date"`
}

type SubmitAssignmentRequest struct {
	SubmissionText *string `json:"submission_text" validate:"omitempty,max=20000"`
	SubmissionURL  *string `json:"submission_url" validate:"omitempty,max=1000"`
}

type ReviewSubmissionRequest struct {
	Score    int     `json:"score"`
	Feedback *string `json:"feedback" validate:"omitempty,max=5000"`
}

// ===== QUIZZES =====

type QuizCreateRequest struct {
	CourseID         string                `json:"course_id" validate:"required"`
	LessonID         *string               `json:"lesson_id"`
	Title            string                `json:"title" validate:"required,not_blank,max=200"`
	Description      *string               `json:"description" validate:"omitempty,max=5000"`
	PassingScore     *int                  `json:"passing_score" validate:"omitempty,passing_score"`
	TimeLimitMinutes *int                  `json:"time_limit_minutes" validate:"omitempty,min=1"`
	Questions        []QuizQuestionRequest `json:"questions" validate:"omitempty,dive"`
}

type QuizUpdateRequest struct {
	LessonID         *string `json:"lesson_id"`
	Title            *string `json:"title" validate:"omitempty,not_blank,max=200"`
	Description      *string `json:"description" validate:"omitempty,max=5000"`
	PassingScore     *int    `json:"passing_score" validate:"omitempty,passing_score"`
	TimeLimitMinutes *int    `json:"time_limit_minutes" validate:"omitempty,min=1"`
}

// QuizQuestionRequest is checked at struct level for correct_answer membership
type QuizQuestionRequest struct {
	QuestionText  string   `json:"question_text" validate:"required,not_blank,max=2000"`
	Options       []string `json:"options" validate:"required,min=2,max=10,unique,dive,not_blank,max=500"`
	CorrectAnswer string   `json:"correct_answer" validate:"required"`
	Points        int      `json:"points" validate:"required,min=1"`
	OrderIndex    int      `json:"order_index" validate:"gte=0"`
}

type QuizQuestionUpdateRequest struct {
	QuestionText  *string  `json:"question_text" validate:"omitempty,not_blank,max=2000"`
	Options       []string `json:"options" validate:"omitempty,min=2,max=10,unique,dive,not_blank,max=500"`
	CorrectAnswer *string  `json:"correct_answer"`
	Points        *int     `json:"points" validate:"omitempty,min=1"`
	OrderIndex    *int     `json:"order_index" validate:"omitempty,gte=0"`
}

type SubmitQuizRequest struct {
	Answers   map[string]string `json:"answers"`
	StartedAt *time.Time        `json:"started_at"`
}

// ===== PROFILES =====

type UpdateProfileRequest struct {
	FullName  *string `json:"full_name" validate:"omitempty,not_blank,max=100"`
	AvatarURL *string `json:"avatar_url" validate:"omitempty,url,max=500"`
}

type SetRoleRequest struct {
	Role models.UserRole `json:"role" validate:"required,user_role"`
}
