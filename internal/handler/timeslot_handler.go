package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-alloc-api/internal/service"
	appErrors "github.com/noah-isme/campus-alloc-api/pkg/errors"
	"github.com/noah-isme/campus-alloc-api/pkg/response"
)

// TimeSlotHandler wires the teaching grid service to HTTP routes.
type TimeSlotHandler struct {
	slots *service.TimeSlotService
}

// NewTimeSlotHandler constructs a new TimeSlotHandler.
func NewTimeSlotHandler(slots *service.TimeSlotService) *TimeSlotHandler {
	return &TimeSlotHandler{slots: slots}
}

// List godoc
// @Summary List the teaching grid
// @Tags TimeSlots
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /time-slots [get]
func (h *TimeSlotHandler) List(c *gin.Context) {
	slots, err := h.slots.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slots, nil)
}

// Create godoc
// @Summary Add a grid cell
// @Tags TimeSlots
// @Accept json
// @Produce json
// @Param payload body service.CreateTimeSlotRequest true "Time slot payload"
// @Success 201 {object} response.Envelope
// @Router /time-slots [post]
func (h *TimeSlotHandler) Create(c *gin.Context) {
	var req service.CreateTimeSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid time slot payload"))
		return
	}
	slot, err := h.slots.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, slot)
}

// Delete godoc
// @Summary Remove a grid cell
// @Tags TimeSlots
// @Param id path string true "Time slot ID"
// @Success 204
// @Router /time-slots/{id} [delete]
func (h *TimeSlotHandler) Delete(c *gin.Context) {
	if err := h.slots.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
