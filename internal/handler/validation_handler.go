package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-alloc-api/internal/dto"
	"github.com/noah-isme/campus-alloc-api/internal/service"
	"github.com/noah-isme/campus-alloc-api/pkg/response"
)

type timetableAuditor interface {
	ValidateTimetable(ctx context.Context, timetableID string) (*dto.ValidateTimetableResponse, error)
	ExportTimetable(ctx context.Context, timetableID string, format service.TimetableFormat) (*service.TimetableExport, error)
}

// ValidationHandler exposes timetable audit and export endpoints.
type ValidationHandler struct {
	service timetableAuditor
}

// NewValidationHandler constructs the handler.
func NewValidationHandler(svc *service.ValidationService) *ValidationHandler {
	return &ValidationHandler{service: svc}
}

// Validate godoc
// @Summary Run the consistency audit over a stored timetable
// @Tags Timetables
// @Produce json
// @Param id path string true "Timetable ID"
// @Success 200 {object} response.Envelope
// @Router /timetables/{id}/validate [get]
func (h *ValidationHandler) Validate(c *gin.Context) {
	result, err := h.service.ValidateTimetable(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Export godoc
// @Summary Download a stored timetable as CSV or PDF
// @Tags Timetables
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Timetable ID"
// @Param format query string false "Export format (csv/pdf)" default(csv)
// @Success 200 {file} file
// @Router /timetables/{id}/export [get]
func (h *ValidationHandler) Export(c *gin.Context) {
	format := service.TimetableFormat(strings.ToLower(c.DefaultQuery("format", "csv")))
	result, err := h.service.ExportTimetable(c.Request.Context(), c.Param("id"), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Data(http.StatusOK, result.ContentType, result.Payload)
}
