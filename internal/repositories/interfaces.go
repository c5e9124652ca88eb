package repositories

import (
	"github.com/SAP-F-2025/course-service/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

type CourseFilters struct {
	Term       string              `json:"term"` // title, instructor_name or exact tag
	CategoryID *string             `json:"category_id"`
	Level      *models.CourseLevel `json:"level"`
	Published  *bool               `json:"published"`
	CreatedBy  *string             `json:"created_by"`
	Limit      int                 `json:"limit"`
	Offset     int                 `json:"offset"`
	SortBy     string              `json:"sort_by"`    // "title", "price", "created_at"
	SortOrder  string              `json:"sort_order"` // "asc", "desc"
}

type EnrollmentFilters struct {
	UserID    *string                  `json:"user_id"`
	CourseID  *string                  `json:"course_id"`
	BatchID   *string                  `json:"batch_id"`
	Status    *models.EnrollmentStatus `json:"status"`
	Limit     int                      `json:"limit"`
	Offset    int                      `json:"offset"`
	SortBy    string                   `json:"sort_by"`
	SortOrder string                   `json:"sort_order"`
}

type SubmissionFilters struct {
	CourseID     *string `json:"course_id"`
	AssignmentID *string `json:"assignment_id"`
	UserID       *string `json:"user_id"`
	Reviewed     *bool   `json:"reviewed"`
	Limit        int     `json:"limit"`
	Offset       int     `json:"offset"`
	SortBy       string  `json:"sort_by"`
	SortOrder    string  `json:"sort_order"`
}

type AttemptFilters struct {
	QuizID    *string `json:"quiz_id"`
	UserID    *string `json:"user_id"`
	Limit     int     `json:"limit"`
	Offset    int     `json:"offset"`
	SortBy    string  `json:"sort_by"`
	SortOrder string  `json:"sort_order"`
}

type ProfileFilters struct {
	Query  string           `json:"query"` // name or email
	Role   *models.UserRole `json:"role"`
	Limit  int              `json:"limit"`
	Offset int              `json:"offset"`
}

// ===== SHARED STATISTICS STRUCTS =====

type EnrollmentStats struct {
	Total           int `json:"total"`
	Active          int `json:"active"`
	Completed       int `json:"completed"`
	Dropped         int `json:"dropped"`
	AverageProgress int `json:"average_progress"`
}
