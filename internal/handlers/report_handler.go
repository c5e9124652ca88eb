package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/course-service/internal/services"
	"github.com/SAP-F-2025/course-service/internal/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ReportHandler struct {
	BaseHandler
	service services.ReportService
}

func NewReportHandler(service services.ReportService, logger utils.Logger) *ReportHandler {
	return &ReportHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// @Summary Get gradebook
// @Tags reports
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {array} models.GradebookRow
// @Failure 403 {object} ErrorResponse
// @Router /courses/{id}/gradebook [get]
func (h *ReportHandler) GetGradebook(c *gin.Context) {
	a, ok := h.requireActor(c)
	if !ok {
		return
	}

	rows, err := h.service.GetGradebook(c.Request.Context(), a, c.Param("id"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, rows)
}

// ExportGradebook downloads the gradebook as an xlsx workbook
// @Summary Export gradebook
// @Tags reports
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path string true "Course ID"
// @Success 200 {file} file
// @Failure 403 {object} ErrorResponse
// @Router /courses/{id}/gradebook/export [get]
func (h *ReportHandler) ExportGradebook(c *gin.Context) {
	a, ok := h.requireActor(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Exporting gradebook", "course_id", c.Param("id"))

	export, err := h.service.ExportGradebook(c.Request.Context(), a, c.Param("id"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName))
	c.Data(http.StatusOK, xlsxContentType, export.Data)
}
