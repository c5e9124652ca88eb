package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/course-service/internal/services"
	"github.com/SAP-F-2025/course-service/internal/utils"
)

type ProfileHandler struct {
	BaseHandler
	service services.ProfileService
}

func NewProfileHandler(service services.ProfileService, logger utils.Logger) *ProfileHandler {
	return &ProfileHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// GetMe returns the caller's stored profile
// @Summary Get my profile
// @Tags profiles
// @Produce json
// @Success 200 {object} models.Profile
// @Failure 401 {object} ErrorResponse
// @Router /profiles/me [get]
func (h *ProfileHandler) GetMe(c *gin.Context) {
	a, ok := h.requireActor(c)
	if !ok {
		return
	}

	profile, err := h.service.GetProfile(c.Request.Context(), a, a.UserID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

// @Summary Update my profile
// @Tags profiles
// @Accept json
// @Produce json
// @Param profile body services.UpdateProfileRequest true "Name and avatar"
// @Success 200 {object} models.Profile
// @Failure 400 {object} ErrorResponse
// @Router /profiles/me [put]
func (h *ProfileHandler) UpdateMe(c *gin.Context) {
	a, ok := h.requireActor(c)
	if !ok {
		return
	}

	var req services.UpdateProfileRequest
	if !h.bindJSON(c, &req) {
		return
	}

	profile, err := h.service.UpdateMyProfile(c.Request.Context(), a, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

// @Summary Get profile
// @Tags profiles
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} models.Profile
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /profiles/{id} [get]
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	a, ok := h.requireActor(c)
	if !ok {
		return
	}

	profile, err := h.service.GetProfile(c.Request.Context(), a, c.Param("id"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

// @Summary List profiles
// @Tags profiles
// @Produce json
// @Param q query string false "Name or email"
// @Param role query string false "student or admin"
// @Param page query int false "Page number (default: 1)"
// @Param size query int false "Page size (default: 20, max: 100)"
// @Success 200 {object} models.PaginatedResponse
// @Failure 403 {object} ErrorResponse
// @Router /profiles [get]
func (h *ProfileHandler) ListProfiles(c *gin.Context) {
	a, ok := h.requireActor(c)
	if !ok {
		return
	}

	page, size := pagination(c)
	result, err := h.service.ListProfiles(c.Request.Context(), a, &services.ProfileListRequest{
		Query: c.Query("q"),
		Role:  c.Query("role"),
		Page:  page,
		Size:  size,
	})
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// SetRole changes another user's role
// @Summary Set role
// @Tags profiles
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param role body services.SetRoleRequest true "New role"
// @Success 200 {object} models.Profile
// @Failure 403 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse "Own role"
// @Router /profiles/{id}/role [put]
func (h *ProfileHandler) SetRole(c *gin.Context) {
	a, ok := h.requireActor(c)
	if !ok {
		return
	}

	var req services.SetRoleRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Setting role", "target_user_id", c.Param("id"), "role", req.Role)

	profile, err := h.service.SetRole(c.Request.Context(), a, c.Param("id"), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}
