package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/course-service/internal/services"
	"github.com/SAP-F-2025/course-service/internal/utils"
)

type QuizHandler struct {
	BaseHandler
	service services.QuizService
}

func NewQuizHandler(service services.QuizService, logger utils.Logger) *QuizHandler {
	return &QuizHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// ===== QUIZZES =====

// @Summary List quizzes of a course
// @Tags quizzes
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {array} services.QuizResponse
// @Router /courses/{id}/quizzes [get]
func (h *QuizHandler) ListQuizzes(c *gin.Context) {
	quizzes, err := h.service.ListQuizzes(c.Request.Context(), actor(c), c.Param("id"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, quizzes)
}

// GetQuiz returns the quiz with its questions. correct_answer is only shown to admins.
// @Summary Get quiz
// @Tags quizzes
// @Produce json
// @Param id path string true "Quiz ID"
// @Success 200 {object} services.QuizResponse
// @Failure 404 {object} ErrorResponse
// @Router /quizzes/{id} [get]
func (h *QuizHandler) GetQuiz(c *gin.Context) {
	quiz, err := h.service.GetQuiz(c.Request.Context(), actor(c), c.Param("id"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, quiz)
}

// @Summary Create quiz
// @Tags quizzes
// @Accept json
// @Produce json
// @Param quiz body services.CreateQuizRequest true "Quiz with optional questions"
// @Success 201 {object} services.QuizResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /quizzes [post]
func (h *QuizHandler) CreateQuiz(c *gin.Context) {
	a, ok := h.requireActor(c)
	if !ok {
		return
	}

	var req services.CreateQuizRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Creating quiz", "course_id", req.CourseID, "questions", len(req.Questions))

	quiz, err := h.service.CreateQuiz(c.Request.Context(), a, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, quiz)
}

// @Summary Update quiz
// @Tags quizzes
// @Accept json
// @Produce json
// @Param id path string true "Quiz ID"
// @Param quiz body services.UpdateQuizRequest true "Quiz data"
// @Success 200 {object} services.QuizResponse
// @Router /quizzes/{id} [put]
func (h *QuizHandler) UpdateQuiz(c *gin.Context) {
	a, ok := h.requireActor(c)
	if !ok {
		return
	}

	var req services.UpdateQuizRequest
	if !h.bindJSON(c, &req) {
		return
	}

	quiz, err := h.service.UpdateQuiz(c.Request.Context(), a, c.Param("id"), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, quiz)
}

// @Summary Delete quiz
// @Tags quizzes
// @Param id path string true "Quiz ID"
// @Success 204
// @Router /quizzes/{id} [delete]
func (h *QuizHandler) DeleteQuiz(c *gin.Context) {
	a, ok := h.requireActor(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Deleting quiz", "quiz_id", c.Param("id"))

	if err := h.service.DeleteQuiz(c.Request.Context(), a, c.Param("id")); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ===== QUESTIONS =====

// @Summary Add question
// @Tags quizzes
// @Accept json
// @Produce json
// @Param id path string true "Quiz ID"
// @Param question body services.QuizQuestionRequest true "Question data"
// @Success 201 {object} models.QuizQuestion
// @Failure 400 {object} ErrorResponse
// @Router /quizzes/{id}/questions [post]
func (h *QuizHandler) AddQuestion(c *gin.Context) {
	a, ok := h.requireActor(c)
	if !ok {
		return
	}

	var req services.QuizQuestionRequest
	if !h.bindJSON(c, &req) {
		return
	}

	question, err := h.service.AddQuestion(c.Request.Context(), a, c.Param("id"), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, question)
}

// @Summary Update question
// @Tags quizzes
// @Accept json
// @Produce json
// @Param id path string true "Question ID"
// @Param question body services.UpdateQuizQuestionRequest true "Question data"
// @Success 200 {object} models.QuizQuestion
// @Failure 400 {object} ErrorResponse
// @Router /questions/{id} [put]
func (h *QuizHandler) UpdateQuestion(c *gin.Context) {
	a, ok := h.requireActor(c)
	if !ok {
		return
	}

	var req services.UpdateQuizQuestionRequest
	if !h.bindJSON(c, &req) {
		return
	}

	question, err := h.service.UpdateQuestion(c.Request.Context(), a, c.Param("id"), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, question)
}

// @Summary Delete question
// @Tags quizzes
// @Param id path string true "Question ID"
// @Success 204
// @Router /questions/{id} [delete]
func (h *QuizHandler) DeleteQuestion(c *gin.Context) {
	a, ok := h.requireActor(c)
	if !ok {
		return
	}

	if err := h.service.DeleteQuestion(c.Request.Context(), a, c.Param("id")); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ===== ATTEMPTS =====

// SubmitAttempt scores the answers and records a new attempt
// @Summary Submit quiz attempt
// @Tags attempts
// @Accept json
// @Produce json
// @Param id path string true "Quiz ID"
// @Param attempt body services.SubmitQuizRequest true "Question ID to chosen option"
// @Success 201 {object} models.QuizAttempt
// @Failure 400 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse "Not enrolled"
// @Router /quizzes/{id}/attempts [post]
func (h *QuizHandler) SubmitAttempt(c *gin.Context) {
	a, ok := h.requireActor(c)
	if !ok {
		return
	}

	var req services.SubmitQuizRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Submitting quiz attempt", "quiz_id", c.Param("id"), "answers", len(req.Answers))

	attempt, err := h.service.SubmitAttempt(c.Request.Context(), a, c.Param("id"), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, attempt)
}

// ListAttempts lists attempts on a quiz, newest first. Learners only see their own.
// @Summary List quiz attempts
// @Tags attempts
// @Produce json
// @Param id path string true "Quiz ID"
// @Param user_id query string false "Admins only: another learner"
// @Param page query int false "Page number (default: 1)"
// @Param size query int false "Page size (default: 20, max: 100)"
// @Success 200 {object} models.PaginatedResponse
// @Failure 403 {object} ErrorResponse
// @Router /quizzes/{id}/attempts [get]
func (h *QuizHandler) ListAttempts(c *gin.Context) {
	a, ok := h.requireActor(c)
	if !ok {
		return
	}

	page, size := pagination(c)
	req := &services.AttemptListRequest{
		QuizID: c.Param("id"),
		UserID: c.Query("user_id"),
		Page:   page,
		Size:   size,
	}

	result, err := h.service.ListAttempts(c.Request.Context(), a, req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// @Summary Get attempt
// @Tags attempts
// @Produce json
// @Param id path string true "Attempt ID"
// @Success 200 {object} models.QuizAttempt
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /attempts/{id} [get]
func (h *QuizHandler) GetAttempt(c *gin.Context) {
	a, ok := h.requireActor(c)
	if !ok {
		return
	}

	attempt, err := h.service.GetAttempt(c.Request.Context(), a, c.Param("id"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, attempt)
}
