package models

import "time"

// PaginatedResponse is the page envelope returned by list and search endpoints.
type PaginatedResponse struct {
	Content          interface{} `json:"content"`
	TotalCount       int64       `json:"total_count"`
	TotalPages       int         `json:"total_pages"`
	Size             int         `json:"size"`
	Page             int         `json:"page"`
	First            bool        `json:"first"`
	Last             bool        `json:"last"`
	NumberOfElements int         `json:"number_of_elements"`
	Empty            bool        `json:"empty"`
}

// NewPaginatedResponse builds the envelope for a 1-based page.
func NewPaginatedResponse(content interface{}, count int, total int64, page, size int) *PaginatedResponse {
	totalPages := 0
	if size > 0 {
		totalPages = int((total + int64(size) - 1) / int64(size))
	}
	return &PaginatedResponse{
		Content:          content,
		TotalCount:       total,
		TotalPages:       totalPages,
		Size:             size,
		Page:             page,
		First:            page <= 1,
		Last:             page >= totalPages,
		NumberOfElements: count,
		Empty:            count == 0,
	}
}

// ===== STUDENT DASHBOARD =====

type StudentDashboard struct {
	TotalEnrollments     int           `json:"total_enrollments"`
	ActiveEnrollments    int           `json:"active_enrollments"`
	CompletedEnrollments int           `json:"completed_enrollments"`
	AverageProgress      int           `json:"average_progress"`
	Enrollments          []*Enrollment `json:"enrollments"`
}

// ===== COURSE PROGRESS =====

type LessonWithProgress struct {
	Lesson   *Lesson         `json:"lesson"`
	Progress *LessonProgress `json:"progress,omitempty"`
}

type CourseProgress struct {
	Enrollment       *Enrollment          `json:"enrollment"`
	Lessons          []LessonWithProgress `json:"lessons"`
	CompletedLessons int                  `json:"completed_lessons"`
	TotalLessons     int                  `json:"total_lessons"`
}

// ===== GRADEBOOK =====

type GradebookRow struct {
	UserID             string           `json:"user_id"`
	FullName           string           `json:"full_name"`
	Email              string           `json:"email"`
	Status             EnrollmentStatus `json:"status"`
	ProgressPercentage int              `json:"progress_percentage"`
	EnrolledAt         time.Time        `json:"enrolled_at"`

	// quiz id -> best percentage, assignment id -> score
	QuizBest         map[string]int `json:"quiz_best"`
	AssignmentScores map[string]int `json:"assignment_scores"`
}
