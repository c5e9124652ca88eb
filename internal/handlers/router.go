package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/course-service/internal/models"
	"github.com/SAP-F-2025/course-service/internal/repositories"
	"github.com/SAP-F-2025/course-service/internal/services"
	"github.com/SAP-F-2025/course-service/internal/utils"
	"github.com/SAP-F-2025/course-service/pkg/monitoring"
)

type HandlerManager struct {
	catalogHandler    *CatalogHandler
	enrollmentHandler *EnrollmentHandler
	submissionHandler *SubmissionHandler
	quizHandler       *QuizHandler
	profileHandler    *ProfileHandler
	reportHandler     *ReportHandler
	healthHandler     *HealthHandler
	authMiddleware    *AuthMiddleware
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	repo repositories.Repository,
	authenticator Authenticator,
	logger utils.Logger,
) *HandlerManager {
	var cache cacheStatser
	if stats, ok := repo.(cacheStatser); ok {
		cache = stats
	}

	return &HandlerManager{
		catalogHandler:    NewCatalogHandler(serviceManager.Catalog(), logger),
		enrollmentHandler: NewEnrollmentHandler(serviceManager.Enrollment(), logger),
		submissionHandler: NewSubmissionHandler(serviceManager.Submission(), logger),
		quizHandler:       NewQuizHandler(serviceManager.Quiz(), logger),
		profileHandler:    NewProfileHandler(serviceManager.Profile(), logger),
		reportHandler:     NewReportHandler(serviceManager.Report(), logger),
		healthHandler:     NewHealthHandler(serviceManager, cache, logger),
		authMiddleware:    NewAuthMiddleware(authenticator, serviceManager.Profile(), logger),
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", hm.healthHandler.Health)
	router.GET("/metrics", monitoring.PrometheusHandler())

	v1 := router.Group("/api/v1")

	// Catalog reads work anonymously; a token only adds enrollment context
	public := v1.Group("")
	public.Use(hm.authMiddleware.OptionalAuth())
	{
		public.GET("/categories", hm.catalogHandler.ListCategories)

		public.GET("/courses", hm.catalogHandler.SearchCourses)
		public.GET("/courses/slug/:slug", hm.catalogHandler.GetCourseBySlug)
		public.GET("/courses/:id", hm.catalogHandler.GetCourse)
		public.GET("/courses/:id/lessons", hm.catalogHandler.ListLessons)
		public.GET("/courses/:id/batches", hm.catalogHandler.ListBatches)
		public.GET("/courses/:id/assignments", hm.submissionHandler.ListAssignments)
		public.GET("/courses/:id/quizzes", hm.quizHandler.ListQuizzes)

		public.GET("/lessons/:id", hm.catalogHandler.GetLesson)
		public.GET("/assignments/:id", hm.submissionHandler.GetAssignment)
		public.GET("/quizzes/:id", hm.quizHandler.GetQuiz)
	}

	authed := v1.Group("")
	authed.Use(hm.authMiddleware.RequireAuth())
	admin := hm.authMiddleware.RequireRole(models.RoleAdmin)
	{
		// Catalog management - Admins only
		authed.POST("/categories", admin, hm.catalogHandler.CreateCategory)
		authed.PUT("/categories/:id", admin, hm.catalogHandler.UpdateCategory)
		authed.DELETE("/categories/:id", admin, hm.catalogHandler.DeleteCategory)

		authed.POST("/courses", admin, hm.catalogHandler.CreateCourse)
		authed.PUT("/courses/:id", admin, hm.catalogHandler.UpdateCourse)
		authed.DELETE("/courses/:id", admin, hm.catalogHandler.DeleteCourse)
		authed.POST("/courses/:id/lessons", admin, hm.catalogHandler.CreateLesson)
		authed.POST("/courses/:id/batches", admin, hm.catalogHandler.CreateBatch)

		authed.PUT("/lessons/:id", admin, hm.catalogHandler.UpdateLesson)
		authed.DELETE("/lessons/:id", admin, hm.catalogHandler.DeleteLesson)
		authed.PUT("/batches/:id", admin, hm.catalogHandler.UpdateBatch)
		authed.DELETE("/batches/:id", admin, hm.catalogHandler.DeleteBatch)

		// Enrollment and progress
		authed.POST("/enrollments", hm.enrollmentHandler.Enroll)
		authed.GET("/enrollments", admin, hm.enrollmentHandler.ListEnrollments)
		authed.GET("/enrollments/me", hm.enrollmentHandler.ListMyEnrollments)
		authed.GET("/enrollments/:id", hm.enrollmentHandler.GetEnrollment)
		authed.POST("/enrollments/:id/drop", hm.enrollmentHandler.DropEnrollment)
		authed.POST("/enrollments/:id/recompute", hm.enrollmentHandler.RecomputeProgress)

		authed.POST("/lessons/:id/complete", hm.enrollmentHandler.ToggleLessonComplete)
		authed.PUT("/lessons/:id/watch-time", hm.enrollmentHandler.RecordWatchTime)
		authed.GET("/courses/:id/progress", hm.enrollmentHandler.GetCourseProgress)
		authed.GET("/dashboard", hm.enrollmentHandler.GetDashboard)

		// Assignments and submissions
		authed.POST("/assignments", admin, hm.submissionHandler.CreateAssignment)
		authed.PUT("/assignments/:id", admin, hm.submissionHandler.UpdateAssignment)
		authed.DELETE("/assignments/:id", admin, hm.submissionHandler.DeleteAssignment)

		authed.POST("/assignments/:id/submission", hm.submissionHandler.Submit)
		authed.POST("/assignments/:id/submission/upload", hm.submissionHandler.UploadSubmission)
		authed.GET("/assignments/:id/submission", hm.submissionHandler.GetMySubmission)

		authed.GET("/submissions", admin, hm.submissionHandler.ListSubmissions)
		authed.GET("/submissions/:id", hm.submissionHandler.GetSubmission)
		authed.POST("/submissions/:id/review", admin, hm.submissionHandler.ReviewSubmission)

		// Quizzes and attempts
		authed.POST("/quizzes", admin, hm.quizHandler.CreateQuiz)
		authed.PUT("/quizzes/:id", admin, hm.quizHandler.UpdateQuiz)
		authed.DELETE("/quizzes/:id", admin, hm.quizHandler.DeleteQuiz)
		authed.POST("/quizzes/:id/questions", admin, hm.quizHandler.AddQuestion)
		authed.PUT("/questions/:id", admin, hm.quizHandler.UpdateQuestion)
		authed.DELETE("/questions/:id", admin, hm.quizHandler.DeleteQuestion)

		authed.POST("/quizzes/:id/attempts", hm.quizHandler.SubmitAttempt)
		authed.GET("/quizzes/:id/attempts", hm.quizHandler.ListAttempts)
		authed.GET("/attempts/:id", hm.quizHandler.GetAttempt)

		// Profiles
		authed.GET("/profiles/me", hm.profileHandler.GetMe)
		authed.PUT("/profiles/me", hm.profileHandler.UpdateMe)
		authed.GET("/profiles", admin, hm.profileHandler.ListProfiles)
		authed.GET("/profiles/:id", hm.profileHandler.GetProfile)
		authed.PUT("/profiles/:id/role", admin, hm.profileHandler.SetRole)

		// Reports - Admins only
		authed.GET("/courses/:id/gradebook", admin, hm.reportHandler.GetGradebook)
		authed.GET("/courses/:id/gradebook/export", admin, hm.reportHandler.ExportGradebook)
	}
}
