package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-alloc-api/internal/dto"
	"github.com/noah-isme/campus-alloc-api/internal/models"
	"github.com/noah-isme/campus-alloc-api/internal/service"
	appErrors "github.com/noah-isme/campus-alloc-api/pkg/errors"
	"github.com/noah-isme/campus-alloc-api/pkg/response"
)

type timetableGenerator interface {
	Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.GenerateTimetableResponse, error)
	Save(ctx context.Context, req dto.SaveTimetableRequest) (string, error)
	GetProposalMetrics(ctx context.Context, proposalID string) (*models.AllocationMetrics, error)
	List(ctx context.Context, query dto.TimetableQuery) ([]models.Timetable, error)
	GetSlots(ctx context.Context, timetableID string) ([]models.TimetableSlot, error)
	Publish(ctx context.Context, timetableID string) error
	Delete(ctx context.Context, timetableID string) error
}

type timetablePreviewResponse struct {
	Mode     string                         `json:"mode"`
	Proposal *dto.GenerateTimetableResponse `json:"proposal"`
}

// AllocationHandler exposes timetable generation and lifecycle endpoints.
type AllocationHandler struct {
	service timetableGenerator
}

// NewAllocationHandler constructs the handler.
func NewAllocationHandler(svc *service.AllocationService) *AllocationHandler {
	return &AllocationHandler{service: svc}
}

// Generate godoc
// @Summary Generate a timetable proposal
// @Description Runs the allocation engine over the department catalog and returns a preview proposal. Nothing is persisted until the proposal is saved.
// @Tags Timetables
// @Accept json
// @Produce json
// @Param payload body dto.GenerateTimetableRequest true "Generate timetable payload"
// @Success 200 {object} response.Envelope
// @Router /timetables/generate [post]
func (h *AllocationHandler) Generate(c *gin.Context) {
	var req dto.GenerateTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid generate payload"))
		return
	}
	result, err := h.service.Generate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	payload := timetablePreviewResponse{
		Mode:     "preview",
		Proposal: result,
	}
	response.JSON(c, http.StatusOK, payload, nil)
}

// Save godoc
// @Summary Save a timetable proposal as a new version
// @Tags Timetables
// @Accept json
// @Produce json
// @Param payload body dto.SaveTimetableRequest true "Save timetable payload"
// @Success 201 {object} response.Envelope
// @Router /timetables/save [post]
func (h *AllocationHandler) Save(c *gin.Context) {
	var req dto.SaveTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid save payload"))
		return
	}
	id, err := h.service.Save(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, gin.H{"timetableId": id})
}

// ProposalMetrics godoc
// @Summary Get run metrics for a pending proposal
// @Tags Timetables
// @Produce json
// @Param id path string true "Proposal ID"
// @Success 200 {object} response.Envelope
// @Router /timetables/proposals/{id}/metrics [get]
func (h *AllocationHandler) ProposalMetrics(c *gin.Context) {
	metrics, err := h.service.GetProposalMetrics(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, metrics, nil)
}

// List godoc
// @Summary List timetable versions for a department-term
// @Tags Timetables
// @Produce json
// @Param department query string true "Department code"
// @Param term query string true "Term label"
// @Success 200 {object} response.Envelope
// @Router /timetables [get]
func (h *AllocationHandler) List(c *gin.Context) {
	query := dto.TimetableQuery{
		Department: c.Query("department"),
		Term:       c.Query("term"),
	}
	result, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Slots godoc
// @Summary Get placements for a stored timetable
// @Tags Timetables
// @Produce json
// @Param id path string true "Timetable ID"
// @Success 200 {object} response.Envelope
// @Router /timetables/{id}/slots [get]
func (h *AllocationHandler) Slots(c *gin.Context) {
	slots, err := h.service.GetSlots(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slots, nil)
}

// Publish godoc
// @Summary Publish a draft timetable
// @Tags Timetables
// @Param id path string true "Timetable ID"
// @Success 200 {object} response.Envelope
// @Router /timetables/{id}/publish [post]
func (h *AllocationHandler) Publish(c *gin.Context) {
	if err := h.service.Publish(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"status": string(models.TimetableStatusPublished)}, nil)
}

// Delete godoc
// @Summary Delete a draft timetable
// @Tags Timetables
// @Param id path string true "Timetable ID"
// @Success 204
// @Router /timetables/{id} [delete]
func (h *AllocationHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
