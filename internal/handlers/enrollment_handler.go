package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/course-service/internal/services"
	"github.com/SAP-F-2025/course-service/internal/utils"
)

type EnrollmentHandler struct {
	BaseHandler
	service services.EnrollmentService
}

func NewEnrollmentHandler(service services.EnrollmentService, logger utils.Logger) *EnrollmentHandler {
	return &EnrollmentHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// Enroll enrolls the caller in a course
// @Summary Enroll in course
// @Tags enrollments
// @Accept json
// @Produce json
// @Param enrollment body services.EnrollRequest true "Course and optional batch"
// @Success 201 {object} models.Enrollment
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "Already enrolled"
// @Router /enrollments [post]
func (h *EnrollmentHandler) Enroll(c *gin.Context) {
	a, ok := h.requireActor(c)
	if !ok {
		return
	}

	var req services.EnrollRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Enrolling", "course_id", req.CourseID)

	enrollment, err := h.service.Enroll(c.Request.Context(), a, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, enrollment)
}

// ListMyEnrollments returns the caller's enrollments, newest first
// @Summary List my enrollments
// @Tags enrollments
// @Produce json
// @Param page query int false "Page number (default: 1)"
// @Param size query int false "Page size (default: 20, max: 100)"
// @Success 200 {object} models.PaginatedResponse
// @Router /enrollments/me [get]
func (h *EnrollmentHandler) ListMyEnrollments(c *gin.Context) {
	a, ok := h.requireActor(c)
	if !ok {
		return
	}

	page, size := pagination(c)
	result, err := h.service.ListMyEnrollments(c.Request.Context(), a, page, size)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ListEnrollments lists enrollments for administration
// @Summary List enrollments
// @Tags enrollments
// @Produce json
// @Param course_id query string false "Course ID"
// @Param batch_id query string false "Batch ID"
// @Param status query string false "active, completed or dropped"
// @Param page query int false "Page number (default: 1)"
// @Param size query int false "Page size (default: 20, max: 100)"
// @Success 200 {object} models.PaginatedResponse
// @Failure 403 {object} ErrorResponse
// @Router /enrollments [get]
func (h *EnrollmentHandler) ListEnrollments(c *gin.Context) {
	a, ok := h.requireActor(c)
	if !ok {
		return
	}

	page, size := pagination(c)
	req := &services.EnrollmentListRequest{
		CourseID: c.Query("course_id"),
		BatchID:  c.Query("batch_id"),
		Status:   c.Query("status"),
		Page:     page,
		Size:     size,
	}

	result, err := h.service.ListEnrollments(c.Request.Context(), a, req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// @Summary Get enrollment
// @Tags enrollments
// @Produce json
// @Param id path string true "Enrollment ID"
// @Success 200 {object} models.Enrollment
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /enrollments/{id} [get]
func (h *EnrollmentHandler) GetEnrollment(c *gin.Context) {
	a, ok := h.requireActor(c)
	if !ok {
		return
	}

	enrollment, err := h.service.GetEnrollment(c.Request.Context(), a, c.Param("id"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, enrollment)
}

// DropEnrollment marks the caller's enrollment as dropped
// @Summary Drop enrollment
// @Tags enrollments
// @Produce json
// @Param id path string true "Enrollment ID"
// @Success 200 {object} models.Enrollment
// @Failure 403 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse "Enrollment already completed"
// @Router /enrollments/{id}/drop [post]
func (h *EnrollmentHandler) DropEnrollment(c *gin.Context) {
	a, ok := h.requireActor(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Dropping enrollment", "enrollment_id", c.Param("id"))

	enrollment, err := h.service.DropEnrollment(c.Request.Context(), a, c.Param("id"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, enrollment)
}

// @Summary Recompute enrollment progress
// @Tags enrollments
// @Produce json
// @Param id path string true "Enrollment ID"
// @Success 200 {object} models.Enrollment
// @Router /enrollments/{id}/recompute [post]
func (h *EnrollmentHandler) RecomputeProgress(c *gin.Context) {
	a, ok := h.requireActor(c)
	if !ok {
		return
	}

	enrollment, err := h.service.RecomputeProgress(c.Request.Context(), a, c.Param("id"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, enrollment)
}

// ===== PROGRESS =====

// ToggleLessonComplete flips the caller's completion flag on a lesson
// @Summary Toggle lesson completion
// @Tags progress
// @Produce json
// @Param id path string true "Lesson ID"
// @Success 200 {object} services.ToggleLessonResult
// @Failure 404 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse "Not enrolled"
// @Router /lessons/{id}/complete [post]
func (h *EnrollmentHandler) ToggleLessonComplete(c *gin.Context) {
	a, ok := h.requireActor(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Toggling lesson completion", "lesson_id", c.Param("id"))

	result, err := h.service.ToggleLessonComplete(c.Request.Context(), a, c.Param("id"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// @Summary Record watch time
// @Tags progress
// @Accept json
// @Produce json
// @Param id path string true "Lesson ID"
// @Param watch body services.WatchTimeRequest true "Seconds watched"
// @Success 200 {object} models.LessonProgress
// @Router /lessons/{id}/watch-time [put]
func (h *EnrollmentHandler) RecordWatchTime(c *gin.Context) {
	a, ok := h.requireActor(c)
	if !ok {
		return
	}

	var req services.WatchTimeRequest
	if !h.bindJSON(c, &req) {
		return
	}

	progress, err := h.service.RecordWatchTime(c.Request.Context(), a, c.Param("id"), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, progress)
}

// GetCourseProgress returns the caller's enrollment and per-lesson progress
// @Summary Get course progress
// @Tags progress
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} models.CourseProgress
// @Failure 404 {object} ErrorResponse
// @Router /courses/{id}/progress [get]
func (h *EnrollmentHandler) GetCourseProgress(c *gin.Context) {
	a, ok := h.requireActor(c)
	if !ok {
		return
	}

	progress, err := h.service.GetCourseProgress(c.Request.Context(), a, c.Param("id"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, progress)
}

// GetDashboard returns enrollment counts and mean progress for the caller
// @Summary Get student dashboard
// @Tags progress
// @Produce json
// @Success 200 {object} models.StudentDashboard
// @Router /dashboard [get]
func (h *EnrollmentHandler) GetDashboard(c *gin.Context) {
	a, ok := h.requireActor(c)
	if !ok {
		return
	}

	dashboard, err := h.service.GetDashboard(c.Request.Context(), a)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dashboard)
}
