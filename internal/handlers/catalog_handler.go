package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/course-service/internal/services"
	"github.com/SAP-F-2025/course-service/internal/utils"
)

type CatalogHandler struct {
	BaseHandler
	service services.CatalogService
}

func NewCatalogHandler(service services.CatalogService, logger utils.Logger) *CatalogHandler {
	return &CatalogHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// ===== CATEGORIES =====

// ListCategories returns every category ordered by name
// @Summary List categories
// @Tags catalog
// @Produce json
// @Success 200 {array} models.Category
// @Failure 500 {object} ErrorResponse
// @Router /categories [get]
func (h *CatalogHandler) ListCategories(c *gin.Context) {
	categories, err := h.service.ListCategories(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, categories)
}

// CreateCategory creates a category
// @Summary Create category
// @Tags catalog
// @Accept json
// @Produce json
// @Param category body services.CreateCategoryRequest true "Category data"
// @Success 201 {object} models.Category
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /categories [post]
func (h *CatalogHandler) CreateCategory(c *gin.Context) {
	a, ok := h.requireActor(c)
	if !ok {
		return
	}

	var req services.CreateCategoryRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Creating category", "name", req.Name)

	category, err := h.service.CreateCategory(c.Request.Context(), a, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, category)
}

// UpdateCategory updates a category
// @Summary Update category
// @Tags catalog
// @Accept json
// @Produce json
// @Param id path string true "Category ID"
// @Param category body services.UpdateCategoryRequest true "Category data"
// @Success 200 {object} models.Category
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /categories/{id} [put]
func (h *CatalogHandler) UpdateCategory(c *gin.Context) {
	a, ok := h.requireActor(c)
	if !ok {
		return
	}

	var req services.UpdateCategoryRequest
	if !h.bindJSON(c, &req) {
		return
	}

	category, err := h.service.UpdateCategory(c.Request.Context(), a, c.Param("id"), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, category)
}

// DeleteCategory deletes a category; its courses become uncategorised
// @Summary Delete category
// @Tags catalog
// @Param id path string true "Category ID"
// @Success 204
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /categories/{id} [delete]
func (h *CatalogHandler) DeleteCategory(c *gin.Context) {
	a, ok := h.requireActor(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Deleting category", "category_id", c.Param("id"))

	if err := h.service.DeleteCategory(c.Request.Context(), a, c.Param("id")); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ===== COURSES =====

// SearchCourses searches the catalog
// @Summary Search courses
// @Description Case-insensitive search on title, instructor name or exact tag, with category and level filters
// @Tags catalog
// @Produce json
// @Param q query string false "Search term"
// @Param category query string false "Category ID or all"
// @Param level query string false "beginner, intermediate, advanced or all"
// @Param sort query string false "title, price_asc or price_desc"
// @Param page query int false "Page number (default: 1)"
// @Param published query bool false "Admins only: filter on publication state"
// @Success 200 {object} models.PaginatedResponse
// @Failure 400 {object} ErrorResponse
// @Router /courses [get]
func (h *CatalogHandler) SearchCourses(c *gin.Context) {
	var req services.CourseSearchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid query parameters",
			Details: err.Error(),
		})
		return
	}

	result, err := h.service.SearchCourses(c.Request.Context(), actor(c), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetCourse returns a course with its lessons
// @Summary Get course
// @Tags catalog
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} services.CourseResponse
// @Failure 404 {object} ErrorResponse
// @Router /courses/{id} [get]
func (h *CatalogHandler) GetCourse(c *gin.Context) {
	course, err := h.service.GetCourse(c.Request.Context(), actor(c), c.Param("id"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, course)
}

// GetCourseBySlug returns a course by its slug
// @Summary Get course by slug
// @Tags catalog
// @Produce json
// @Param slug path string true "Course slug"
// @Success 200 {object} services.CourseResponse
// @Failure 404 {object} ErrorResponse
// @Router /courses/slug/{slug} [get]
func (h *CatalogHandler) GetCourseBySlug(c *gin.Context) {
	course, err := h.service.GetCourseBySlug(c.Request.Context(), actor(c), c.Param("slug"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, course)
}

// CreateCourse creates a course
// @Summary Create course
// @Tags catalog
// @Accept json
// @Produce json
// @Param course body services.CreateCourseRequest true "Course data"
// @Success 201 {object} services.CourseResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /courses [post]
func (h *CatalogHandler) CreateCourse(c *gin.Context) {
	a, ok := h.requireActor(c)
	if !ok {
		return
	}

	var req services.CreateCourseRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Creating course", "title", req.Title)

	course, err := h.service.CreateCourse(c.Request.Context(), a, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, course)
}

// UpdateCourse updates the fields present in the body
// @Summary Update course
// @Tags catalog
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param course body services.UpdateCourseRequest true "Course data"
// @Success 200 {object} services.CourseResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /courses/{id} [put]
func (h *CatalogHandler) UpdateCourse(c *gin.Context) {
	a, ok := h.requireActor(c)
	if !ok {
		return
	}

	var req services.UpdateCourseRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Updating course", "course_id", c.Param("id"))

	course, err := h.service.UpdateCourse(c.Request.Context(), a, c.Param("id"), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, course)
}

// DeleteCourse deletes a course and everything attached to it
// @Summary Delete course
// @Tags catalog
// @Param id path string true "Course ID"
// @Success 204
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /courses/{id} [delete]
func (h *CatalogHandler) DeleteCourse(c *gin.Context) {
	a, ok := h.requireActor(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Deleting course", "course_id", c.Param("id"))

	if err := h.service.DeleteCourse(c.Request.Context(), a, c.Param("id")); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ===== LESSONS =====

// ListLessons returns the curriculum of a course
// @Summary List lessons
// @Description video_url is hidden unless the caller is enrolled, an admin, or the lesson is a free preview
// @Tags catalog
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {array} services.LessonResponse
// @Failure 404 {object} ErrorResponse
// @Router /courses/{id}/lessons [get]
func (h *CatalogHandler) ListLessons(c *gin.Context) {
	lessons, err := h.service.ListLessons(c.Request.Context(), actor(c), c.Param("id"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, lessons)
}

// @Summary Get lesson
// @Tags catalog
// @Produce json
// @Param id path string true "Lesson ID"
// @Success 200 {object} services.LessonResponse
// @Failure 404 {object} ErrorResponse
// @Router /lessons/{id} [get]
func (h *CatalogHandler) GetLesson(c *gin.Context) {
	lesson, err := h.service.GetLesson(c.Request.Context(), actor(c), c.Param("id"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, lesson)
}

// @Summary Create lesson
// @Tags catalog
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param lesson body services.CreateLessonRequest true "Lesson data"
// @Success 201 {object} models.Lesson
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /courses/{id}/lessons [post]
func (h *CatalogHandler) CreateLesson(c *gin.Context) {
	a, ok := h.requireActor(c)
	if !ok {
		return
	}

	var req services.CreateLessonRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Creating lesson", "course_id", c.Param("id"), "order_index", req.OrderIndex)

	lesson, err := h.service.CreateLesson(c.Request.Context(), a, c.Param("id"), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, lesson)
}

// @Summary Update lesson
// @Tags catalog
// @Accept json
// @Produce json
// @Param id path string true "Lesson ID"
// @Param lesson body services.UpdateLessonRequest true "Lesson data"
// @Success 200 {object} models.Lesson
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /lessons/{id} [put]
func (h *CatalogHandler) UpdateLesson(c *gin.Context) {
	a, ok := h.requireActor(c)
	if !ok {
		return
	}

	var req services.UpdateLessonRequest
	if !h.bindJSON(c, &req) {
		return
	}

	lesson, err := h.service.UpdateLesson(c.Request.Context(), a, c.Param("id"), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, lesson)
}

// DeleteLesson removes the lesson with its progress rows and recomputes enrollments
// @Summary Delete lesson
// @Tags catalog
// @Param id path string true "Lesson ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Router /lessons/{id} [delete]
func (h *CatalogHandler) DeleteLesson(c *gin.Context) {
	a, ok := h.requireActor(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Deleting lesson", "lesson_id", c.Param("id"))

	if err := h.service.DeleteLesson(c.Request.Context(), a, c.Param("id")); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ===== BATCHES =====

// @Summary List batches of a course
// @Tags catalog
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {array} models.Batch
// @Router /courses/{id}/batches [get]
func (h *CatalogHandler) ListBatches(c *gin.Context) {
	batches, err := h.service.ListBatches(c.Request.Context(), actor(c), c.Param("id"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, batches)
}

// @Summary Create batch
// @Tags catalog
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param batch body services.CreateBatchRequest true "Batch data"
// @Success 201 {object} models.Batch
// @Failure 400 {object} ErrorResponse
// @Router /courses/{id}/batches [post]
func (h *CatalogHandler) CreateBatch(c *gin.Context) {
	a, ok := h.requireActor(c)
	if !ok {
		return
	}

	var req services.CreateBatchRequest
	if !h.bindJSON(c, &req) {
		return
	}

	batch, err := h.service.CreateBatch(c.Request.Context(), a, c.Param("id"), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, batch)
}

// @Summary Update batch
// @Tags catalog
// @Accept json
// @Produce json
// @Param id path string true "Batch ID"
// @Param batch body services.UpdateBatchRequest true "Batch data"
// @Success 200 {object} models.Batch
// @Router /batches/{id} [put]
func (h *CatalogHandler) UpdateBatch(c *gin.Context) {
	a, ok := h.requireActor(c)
	if !ok {
		return
	}

	var req services.UpdateBatchRequest
	if !h.bindJSON(c, &req) {
		return
	}

	batch, err := h.service.UpdateBatch(c.Request.Context(), a, c.Param("id"), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, batch)
}

// @Summary Delete batch
// @Tags catalog
// @Param id path string true "Batch ID"
// @Success 204
// @Router /batches/{id} [delete]
func (h *CatalogHandler) DeleteBatch(c *gin.Context) {
	a, ok := h.requireActor(c)
	if !ok {
		return
	}

	if err := h.service.DeleteBatch(c.Request.Context(), a, c.Param("id")); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
