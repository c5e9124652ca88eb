package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/course-service/internal/services"
	"github.com/SAP-F-2025/course-service/internal/utils"
)

type SubmissionHandler struct {
	BaseHandler
	service services.SubmissionService
}

func NewSubmissionHandler(service services.SubmissionService, logger utils.Logger) *SubmissionHandler {
	return &SubmissionHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// ===== ASSIGNMENTS =====

// @Summary List assignments of a course
// @Tags assignments
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {array} models.Assignment
// @Failure 404 {object} ErrorResponse
// @Router /courses/{id}/assignments [get]
func (h *SubmissionHandler) ListAssignments(c *gin.Context) {
	assignments, err := h.service.ListAssignments(c.Request.Context(), actor(c), c.Param("id"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, assignments)
}

// @Summary Get assignment
// @Tags assignments
// @Produce json
// @Param id path string true "Assignment ID"
// @Success 200 {object} models.Assignment
// @Failure 404 {object} ErrorResponse
// @Router /assignments/{id} [get]
func (h *SubmissionHandler) GetAssignment(c *gin.Context) {
	assignment, err := h.service.GetAssignment(c.Request.Context(), actor(c), c.Param("id"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, assignment)
}

// @Summary Create assignment
// @Tags assignments
// @Accept json
// @Produce json
// @Param assignment body services.CreateAssignmentRequest true "Assignment data"
// @Success 201 {object} models.Assignment
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /assignments [post]
func (h *SubmissionHandler) CreateAssignment(c *gin.Context) {
	a, ok := h.requireActor(c)
	if !ok {
		return
	}

	var req services.CreateAssignmentRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Creating assignment", "course_id", req.CourseID)

	assignment, err := h.service.CreateAssignment(c.Request.Context(), a, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, assignment)
}

// UpdateAssignment updates an assignment; max_score cannot change
// @Summary Update assignment
// @Tags assignments
// @Accept json
// @Produce json
// @Param id path string true "Assignment ID"
// @Param assignment body services.UpdateAssignmentRequest true "Assignment data"
// @Success 200 {object} models.Assignment
// @Failure 400 {object} ErrorResponse
// @Router /assignments/{id} [put]
func (h *SubmissionHandler) UpdateAssignment(c *gin.Context) {
	a, ok := h.requireActor(c)
	if !ok {
		return
	}

	var req services.UpdateAssignmentRequest
	if !h.bindJSON(c, &req) {
		return
	}

	assignment, err := h.service.UpdateAssignment(c.Request.Context(), a, c.Param("id"), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, assignment)
}

// @Summary Delete assignment
// @Tags assignments
// @Param id path string true "Assignment ID"
// @Success 204
// @Router /assignments/{id} [delete]
func (h *SubmissionHandler) DeleteAssignment(c *gin.Context) {
	a, ok := h.requireActor(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Deleting assignment", "assignment_id", c.Param("id"))

	if err := h.service.DeleteAssignment(c.Request.Context(), a, c.Param("id")); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ===== SUBMISSIONS =====

// Submit creates or replaces the caller's submission
// @Summary Submit assignment
// @Description Re-submitting keeps any score and feedback; a reviewed submission cannot change
// @Tags submissions
// @Accept json
// @Produce json
// @Param id path string true "Assignment ID"
// @Param submission body services.SubmitAssignmentRequest true "Text and/or URL"
// @Success 200 {object} models.AssignmentSubmission
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "Already reviewed"
// @Failure 422 {object} ErrorResponse "Not enrolled"
// @Router /assignments/{id}/submission [post]
func (h *SubmissionHandler) Submit(c *gin.Context) {
	a, ok := h.requireActor(c)
	if !ok {
		return
	}

	var req services.SubmitAssignmentRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Submitting assignment", "assignment_id", c.Param("id"))

	submission, err := h.service.Submit(c.Request.Context(), a, c.Param("id"), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, submission)
}

// UploadSubmission stores a file and submits its URL
// @Summary Upload submission file
// @Tags submissions
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Assignment ID"
// @Param file formData file true "Attachment (max 20MB)"
// @Success 200 {object} models.AssignmentSubmission
// @Failure 400 {object} ErrorResponse
// @Router /assignments/{id}/submission/upload [post]
func (h *SubmissionHandler) UploadSubmission(c *gin.Context) {
	a, ok := h.requireActor(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid file upload",
			Details: err.Error(),
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Failed to read uploaded file",
			Details: err.Error(),
		})
		return
	}
	defer file.Close()

	h.LogRequest(c, "Uploading submission", "assignment_id", c.Param("id"), "file", fileHeader.Filename, "size", fileHeader.Size)

	submission, err := h.service.UploadSubmission(c.Request.Context(), a, c.Param("id"), &services.FileUpload{
		Name:        fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Size:        fileHeader.Size,
		Reader:      file,
	})
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, submission)
}

// GetMySubmission returns the caller's submission, or 204 when there is none
// @Summary Get my submission
// @Tags submissions
// @Produce json
// @Param id path string true "Assignment ID"
// @Success 200 {object} models.AssignmentSubmission
// @Success 204
// @Router /assignments/{id}/submission [get]
func (h *SubmissionHandler) GetMySubmission(c *gin.Context) {
	a, ok := h.requireActor(c)
	if !ok {
		return
	}

	submission, err := h.service.GetMySubmission(c.Request.Context(), a, c.Param("id"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	if submission == nil {
		c.Status(http.StatusNoContent)
		return
	}

	c.JSON(http.StatusOK, submission)
}

// @Summary Get submission
// @Tags submissions
// @Produce json
// @Param id path string true "Submission ID"
// @Success 200 {object} models.AssignmentSubmission
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /submissions/{id} [get]
func (h *SubmissionHandler) GetSubmission(c *gin.Context) {
	a, ok := h.requireActor(c)
	if !ok {
		return
	}

	submission, err := h.service.GetSubmission(c.Request.Context(), a, c.Param("id"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, submission)
}

// ListSubmissions lists submissions for review, newest first
// @Summary List submissions
// @Tags submissions
// @Produce json
// @Param course_id query string false "Course ID"
// @Param assignment_id query string false "Assignment ID"
// @Param user_id query string false "Learner ID"
// @Param reviewed query bool false "Filter on review state"
// @Param page query int false "Page number (default: 1)"
// @Param size query int false "Page size (default: 20, max: 100)"
// @Success 200 {object} models.PaginatedResponse
// @Failure 403 {object} ErrorResponse
// @Router /submissions [get]
func (h *SubmissionHandler) ListSubmissions(c *gin.Context) {
	a, ok := h.requireActor(c)
	if !ok {
		return
	}

	reviewed, ok := h.optionalBoolQuery(c, "reviewed")
	if !ok {
		return
	}

	page, size := pagination(c)
	req := &services.SubmissionListRequest{
		CourseID:     c.Query("course_id"),
		AssignmentID: c.Query("assignment_id"),
		UserID:       c.Query("user_id"),
		Reviewed:     reviewed,
		Page:         page,
		Size:         size,
	}

	result, err := h.service.ListSubmissions(c.Request.Context(), a, req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ReviewSubmission scores a submission once; the score is clamped to [0, max_score]
// @Summary Review submission
// @Tags submissions
// @Accept json
// @Produce json
// @Param id path string true "Submission ID"
// @Param review body services.ReviewSubmissionRequest true "Score and feedback"
// @Success 200 {object} models.AssignmentSubmission
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "Already reviewed"
// @Router /submissions/{id}/review [post]
func (h *SubmissionHandler) ReviewSubmission(c *gin.Context) {
	a, ok := h.requireActor(c)
	if !ok {
		return
	}

	var req services.ReviewSubmissionRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Reviewing submission", "submission_id", c.Param("id"), "score", req.Score)

	submission, err := h.service.Review(c.Request.Context(), a, c.Param("id"), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, submission)
}
