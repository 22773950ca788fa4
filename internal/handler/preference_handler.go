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

type preferenceService interface {
	Get(ctx context.Context, facultyID string) (*models.FacultyPreferences, error)
	Upsert(ctx context.Context, facultyID string, req dto.UpsertPreferencesRequest) (*models.FacultyPreferences, error)
	ScoreAssignment(ctx context.Context, req dto.ScoreAssignmentRequest) (*dto.ScoreAssignmentResponse, error)
	DetectConflicts(ctx context.Context, facultyID string) (*models.ConflictDetectionResult, error)
	Completeness(ctx context.Context, facultyID string) (float64, error)
}

// PreferenceHandler exposes faculty preference endpoints.
type PreferenceHandler struct {
	service preferenceService
}

// NewPreferenceHandler constructs the handler.
func NewPreferenceHandler(svc *service.PreferenceService) *PreferenceHandler {
	return &PreferenceHandler{service: svc}
}

// Get godoc
// @Summary Get declared preferences for a faculty member
// @Tags Preferences
// @Produce json
// @Param id path string true "Faculty ID"
// @Success 200 {object} response.Envelope
// @Router /faculty/{id}/preferences [get]
func (h *PreferenceHandler) Get(c *gin.Context) {
	prefs, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, prefs, nil)
}

// Upsert godoc
// @Summary Replace declared preferences for a faculty member
// @Tags Preferences
// @Accept json
// @Produce json
// @Param id path string true "Faculty ID"
// @Param payload body dto.UpsertPreferencesRequest true "Preference payload"
// @Success 200 {object} response.Envelope
// @Router /faculty/{id}/preferences [put]
func (h *PreferenceHandler) Upsert(c *gin.Context) {
	var req dto.UpsertPreferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid preference payload"))
		return
	}
	prefs, err := h.service.Upsert(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, prefs, nil)
}

// Score godoc
// @Summary Score a candidate assignment against declared preferences
// @Tags Preferences
// @Accept json
// @Produce json
// @Param payload body dto.ScoreAssignmentRequest true "Score assignment payload"
// @Success 200 {object} response.Envelope
// @Router /preferences/score [post]
func (h *PreferenceHandler) Score(c *gin.Context) {
	var req dto.ScoreAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid score payload"))
		return
	}
	result, err := h.service.ScoreAssignment(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Conflicts godoc
// @Summary Audit declared preferences for internal conflicts
// @Tags Preferences
// @Produce json
// @Param id path string true "Faculty ID"
// @Success 200 {object} response.Envelope
// @Router /faculty/{id}/preferences/conflicts [get]
func (h *PreferenceHandler) Conflicts(c *gin.Context) {
	result, err := h.service.DetectConflicts(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Completeness godoc
// @Summary Report how much of the preference surface is declared
// @Tags Preferences
// @Produce json
// @Param id path string true "Faculty ID"
// @Success 200 {object} response.Envelope
// @Router /faculty/{id}/preferences/completeness [get]
func (h *PreferenceHandler) Completeness(c *gin.Context) {
	completeness, err := h.service.Completeness(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"completeness": completeness}, nil)
}
