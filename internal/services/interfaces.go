package services

import (
	"context"
	"io"

	"github.com/SAP-F-2025/course-service/internal/models"
	"github.com/SAP-F-2025/course-service/internal/validator"
)

// ===== REQUEST/RESPONSE DTOs =====

// Use business validator types
type CreateCategoryRequest = validator.CategoryCreateRequest
type UpdateCategoryRequest = validator.CategoryUpdateRequest
type CreateCourseRequest = validator.CourseCreateRequest
type UpdateCourseRequest = validator.CourseUpdateRequest
type CreateLessonRequest = validator.LessonCreateRequest
type UpdateLessonRequest = validator.LessonUpdateRequest
type CreateBatchRequest = validator.BatchCreateRequest
type UpdateBatchRequest = validator.BatchUpdateRequest

type EnrollRequest = validator.EnrollRequest
type WatchTimeRequest = validator.WatchTimeRequest

type CreateAssignmentRequest = validator.AssignmentCreateRequest
type UpdateAssignmentRequest = validator.AssignmentUpdateRequest
type SubmitAssignmentRequest = validator.SubmitAssignmentRequest
type ReviewSubmissionRequest = validator.ReviewSubmissionRequest

type CreateQuizRequest = validator.QuizCreateRequest
type UpdateQuizRequest = validator.QuizUpdateRequest
type QuizQuestionRequest = validator.QuizQuestionRequest
type UpdateQuizQuestionRequest = validator.QuizQuestionUpdateRequest
type SubmitQuizRequest = validator.SubmitQuizRequest

type UpdateProfileRequest = validator.UpdateProfileRequest
type SetRoleRequest = validator.SetRoleRequest

// CourseSearchRequest carries the catalog query. "all" or empty disables
// the category and level filters. Pages have the configured catalog size.
type CourseSearchRequest struct {
	Term      string `form:"q"`
	Category  string `form:"category"`
	Level     string `form:"level"`
	Sort      string `form:"sort"`
	Page      int    `form:"page"`
	Published *bool  `form:"published"`
}

type CourseResponse struct {
	*models.Course
	IsEnrolled bool              `json:"is_enrolled"`
	CanEdit    bool              `json:"can_edit"`
	Lessons    []*LessonResponse `json:"lessons,omitempty"`
}

// LessonResponse hides video_url when Locked
type LessonResponse struct {
	*models.Lesson
	Locked bool `json:"locked"`
}

type ToggleLessonResult struct {
	Progress   *models.LessonProgress `json:"progress"`
	Enrollment *models.Enrollment     `json:"enrollment"`
}

type EnrollmentListRequest struct {
	CourseID string
	BatchID  string
	Status   string
	Page     int
	Size     int
}

type SubmissionListRequest struct {
	CourseID     string
	AssignmentID string
	UserID       string
	Reviewed     *bool
	Page         int
	Size         int
}

type FileUpload struct {
	Name        string
	ContentType string
	Size        int64
	Reader      io.Reader
}

type QuizResponse struct {
	*models.Quiz
	QuestionCount int `json:"question_count"`
	TotalPoints   int `json:"total_points"`
}

type AttemptListRequest struct {
	QuizID string
	UserID string
	Page   int
	Size   int
}

// Identity is what an authenticator knows about the caller
type Identity struct {
	ID        string
	Email     string
	FullName  string
	AvatarURL *string
}

type ProfileListRequest struct {
	Query string
	Role  string
	Page  int
	Size  int
}

type GradebookExport struct {
	FileName string
	Data     []byte
}

// ===== SERVICE INTERFACES =====

type CatalogService interface {
	// Categories
	ListCategories(ctx context.Context) ([]*models.Category, error)
	CreateCategory(ctx context.Context, actor Actor, req *CreateCategoryRequest) (*models.Category, error)
	UpdateCategory(ctx context.Context, actor Actor, id string, req *UpdateCategoryRequest) (*models.Category, error)
	DeleteCategory(ctx context.Context, actor Actor, id string) error

	// Courses
	SearchCourses(ctx context.Context, actor Actor, req *CourseSearchRequest) (*models.PaginatedResponse, error)
	GetCourse(ctx context.Context, actor Actor, id string) (*CourseResponse, error)
	GetCourseBySlug(ctx context.Context, actor Actor, slug string) (*CourseResponse, error)
	CreateCourse(ctx context.Context, actor Actor, req *CreateCourseRequest) (*CourseResponse, error)
	UpdateCourse(ctx context.Context, actor Actor, id string, req *UpdateCourseRequest) (*CourseResponse, error)
	DeleteCourse(ctx context.Context, actor Actor, id string) error

	// Lessons
	ListLessons(ctx context.Context, actor Actor, courseID string) ([]*LessonResponse, error)
	GetLesson(ctx context.Context, actor Actor, id string) (*LessonResponse, error)
	CreateLesson(ctx context.Context, actor Actor, courseID string, req *CreateLessonRequest) (*models.Lesson, error)
	UpdateLesson(ctx context.Context, actor Actor, id string, req *UpdateLessonRequest) (*models.Lesson, error)
	DeleteLesson(ctx context.Context, actor Actor, id string) error

	// Batches
	ListBatches(ctx context.Context, actor Actor, courseID string) ([]*models.Batch, error)
	CreateBatch(ctx context.Context, actor Actor, courseID string, req *CreateBatchRequest) (*models.Batch, error)
	UpdateBatch(ctx context.Context, actor Actor, id string, req *UpdateBatchRequest) (*models.Batch, error)
	DeleteBatch(ctx context.Context, actor Actor, id string) error
}

type EnrollmentService interface {
	Enroll(ctx context.Context, actor Actor, req *EnrollRequest) (*models.Enrollment, error)
	GetEnrollment(ctx context.Context, actor Actor, id string) (*models.Enrollment, error)
	DropEnrollment(ctx context.Context, actor Actor, id string) (*models.Enrollment, error)
	RecomputeProgress(ctx context.Context, actor Actor, enrollmentID string) (*models.Enrollment, error)
	ListMyEnrollments(ctx context.Context, actor Actor, page, size int) (*models.PaginatedResponse, error)
	ListEnrollments(ctx context.Context, actor Actor, req *EnrollmentListRequest) (*models.PaginatedResponse, error)

	// Progress
	ToggleLessonComplete(ctx context.Context, actor Actor, lessonID string) (*ToggleLessonResult, error)
	RecordWatchTime(ctx context.Context, actor Actor, lessonID string, req *WatchTimeRequest) (*models.LessonProgress, error)
	GetCourseProgress(ctx context.Context, actor Actor, courseID string) (*models.CourseProgress, error)
	GetDashboard(ctx context.Context, actor Actor) (*models.StudentDashboard, error)
}

type SubmissionService interface {
	// Assignments
	ListAssignments(ctx context.Context, actor Actor, courseID string) ([]*models.Assignment, error)
	GetAssignment(ctx context.Context, actor Actor, id string) (*models.Assignment, error)
	CreateAssignment(ctx context.Context, actor Actor, req *CreateAssignmentRequest) (*models.Assignment, error)
	UpdateAssignment(ctx context.Context, actor Actor, id string, req *UpdateAssignmentRequest) (*models.Assignment, error)
	DeleteAssignment(ctx context.Context, actor Actor, id string) error

	// Submissions
	Submit(ctx context.Context, actor Actor, assignmentID string, req *SubmitAssignmentRequest) (*models.AssignmentSubmission, error)
	UploadSubmission(ctx context.Context, actor Actor, assignmentID string, file *FileUpload) (*models.AssignmentSubmission, error)
	Review(ctx context.Context, actor Actor, submissionID string, req *ReviewSubmissionRequest) (*models.AssignmentSubmission, error)
	// GetMySubmission returns nil without error when nothing was submitted
	GetMySubmission(ctx context.Context, actor Actor, assignmentID string) (*models.AssignmentSubmission, error)
	GetSubmission(ctx context.Context, actor Actor, id string) (*models.AssignmentSubmission, error)
	ListSubmissions(ctx context.Context, actor Actor, req *SubmissionListRequest) (*models.PaginatedResponse, error)
}

type QuizService interface {
	ListQuizzes(ctx context.Context, actor Actor, courseID string) ([]*QuizResponse, error)
	GetQuiz(ctx context.Context, actor Actor, id string) (*QuizResponse, error)
	CreateQuiz(ctx context.Context, actor Actor, req *CreateQuizRequest) (*QuizResponse, error)
	UpdateQuiz(ctx context.Context, actor Actor, id string, req *UpdateQuizRequest) (*QuizResponse, error)
	DeleteQuiz(ctx context.Context, actor Actor, id string) error

	// Questions
	AddQuestion(ctx context.Context, actor Actor, quizID string, req *QuizQuestionRequest) (*models.QuizQuestion, error)
	UpdateQuestion(ctx context.Context, actor Actor, id string, req *UpdateQuizQuestionRequest) (*models.QuizQuestion, error)
	DeleteQuestion(ctx context.Context, actor Actor, id string) error

	// Attempts
	SubmitAttempt(ctx context.Context, actor Actor, quizID string, req *SubmitQuizRequest) (*models.QuizAttempt, error)
	GetAttempt(ctx context.Context, actor Actor, id string) (*models.QuizAttempt, error)
	ListAttempts(ctx context.Context, actor Actor, req *AttemptListRequest) (*models.PaginatedResponse, error)
}

type ProfileService interface {
	EnsureProfile(ctx context.Context, identity *Identity) (*models.Profile, error)
	GetProfile(ctx context.Context, actor Actor, id string) (*models.Profile, error)
	UpdateMyProfile(ctx context.Context, actor Actor, req *UpdateProfileRequest) (*models.Profile, error)
	SetRole(ctx context.Context, actor Actor, userID string, req *SetRoleRequest) (*models.Profile, error)
	ListProfiles(ctx context.Context, actor Actor, req *ProfileListRequest) (*models.PaginatedResponse, error)
}

type ReportService interface {
	GetGradebook(ctx context.Context, actor Actor, courseID string) ([]*models.GradebookRow, error)
	ExportGradebook(ctx context.Context, actor Actor, courseID string) (*GradebookExport, error)
}
