package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/course-service/internal/services"
	"github.com/SAP-F-2025/course-service/internal/utils"
)

// cacheStatser is implemented by repositories that front a cache
type cacheStatser interface {
	CacheStats(ctx context.Context) (map[string]interface{}, error)
}

type HealthHandler struct {
	BaseHandler
	services services.ServiceManager
	cache    cacheStatser
}

// NewHealthHandler builds the health endpoint. cache may be nil.
func NewHealthHandler(serviceManager services.ServiceManager, cache cacheStatser, logger utils.Logger) *HealthHandler {
	return &HealthHandler{
		BaseHandler: NewBaseHandler(logger),
		services:    serviceManager,
		cache:       cache,
	}
}

// Health reports database reachability and cache statistics
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	body := gin.H{
		"service":   "course-service",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	if err := h.services.HealthCheck(c.Request.Context()); err != nil {
		h.LogError(c, err, "Health check failed")
		body["status"] = "unhealthy"
		body["error"] = err.Error()
		c.JSON(http.StatusServiceUnavailable, body)
		return
	}
	body["status"] = "healthy"

	if h.cache != nil {
		stats, err := h.cache.CacheStats(c.Request.Context())
		if stats == nil {
			stats = map[string]interface{}{}
		}
		if err != nil {
			stats["error"] = err.Error()
		}
		delete(stats, "redis_info")
		body["cache"] = stats
	}

	c.JSON(http.StatusOK, body)
}
