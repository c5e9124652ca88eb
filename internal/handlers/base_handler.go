package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/course-service/internal/models"
	"github.com/SAP-F-2025/course-service/internal/services"
	"github.com/SAP-F-2025/course-service/internal/utils"
)

// Gin context keys set by the middleware chain
const (
	ContextUserID    = "user_id"
	ContextUser      = "user"
	ContextUserRole  = "user_role"
	ContextUserEmail = "user_email"
	ContextRequestID = "request_id"
)

type ErrorResponse struct {
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// BaseHandler carries the logging and error mapping shared by every handler
type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

func (h *BaseHandler) LogRequest(c *gin.Context, msg string, args ...any) {
	args = append(args, "method", c.Request.Method, "route", c.FullPath())
	if userID := c.GetString(ContextUserID); userID != "" {
		args = append(args, "user_id", userID)
	}
	utils.GetLogger(c, h.logger).Info(msg, args...)
}

func (h *BaseHandler) LogError(c *gin.Context, err error, msg string, args ...any) {
	args = append(args, "error", err, "method", c.Request.Method, "route", c.FullPath())
	utils.GetLogger(c, h.logger).Error(msg, args...)
}

// actor returns the authenticated caller, or the zero Actor for anonymous requests
func actor(c *gin.Context) services.Actor {
	a := services.Actor{UserID: c.GetString(ContextUserID)}
	if value, ok := c.Get(ContextUserRole); ok {
		if role, ok := value.(models.UserRole); ok {
			a.Role = role
		}
	}
	return a
}

// requireActor writes a 401 and returns false when nobody is authenticated
func (h *BaseHandler) requireActor(c *gin.Context) (services.Actor, bool) {
	a := actor(c)
	if a.UserID == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return a, false
	}
	return a, true
}

func (h *BaseHandler) bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return false
	}
	return true
}

// pagination reads page and size; bad or missing values become 0 and the
// service applies its defaults
func pagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.Query("page"))
	size, _ := strconv.Atoi(c.Query("size"))
	return page, size
}

// optionalBoolQuery parses a tri-state boolean query parameter
func (h *BaseHandler) optionalBoolQuery(c *gin.Context, key string) (*bool, bool) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, true
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid query parameter",
			Details: map[string]interface{}{"parameter": key, "value": raw},
		})
		return nil, false
	}
	return &value, true
}

func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrors services.ValidationErrors
	if errors.As(err, &validationErrors) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: validationErrors,
		})
		return
	}

	var businessRuleError *services.BusinessRuleError
	if errors.As(err, &businessRuleError) {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Message: businessRuleError.Message,
			Details: map[string]interface{}{
				"rule":    businessRuleError.Rule,
				"context": businessRuleError.Context,
			},
		})
		return
	}

	var permissionError *services.PermissionError
	if errors.As(err, &permissionError) {
		c.JSON(http.StatusForbidden, ErrorResponse{
			Message: "Access denied",
			Details: map[string]interface{}{
				"resource": permissionError.Resource,
				"action":   permissionError.Action,
				"reason":   permissionError.Reason,
			},
		})
		return
	}

	var notFoundError *services.NotFoundError
	if errors.As(err, &notFoundError) {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: notFoundError.Error(),
			Details: map[string]interface{}{
				"resource": notFoundError.Resource,
				"id":       notFoundError.ID,
			},
		})
		return
	}

	var conflictError *services.ConflictError
	if errors.As(err, &conflictError) {
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: conflictError.Message,
			Details: map[string]interface{}{
				"resource": conflictError.Resource,
			},
		})
		return
	}

	h.LogError(c, err, "Unexpected service error")
	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Message: "Internal server error",
		Details: err.Error(),
	})
}
