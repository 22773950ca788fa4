package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-alloc-api/internal/allocation"
	"github.com/noah-isme/campus-alloc-api/internal/models"
	appErrors "github.com/noah-isme/campus-alloc-api/pkg/errors"
)

type timeSlotRepository interface {
	ListAll(ctx context.Context) ([]models.TimeSlot, error)
	Create(ctx context.Context, slot *models.TimeSlot) error
	Delete(ctx context.Context, id string) error
}

// CreateTimeSlotRequest represents payload for adding a grid cell.
type CreateTimeSlotRequest struct {
	Day       string `json:"day" validate:"required,oneof=MONDAY TUESDAY WEDNESDAY THURSDAY FRIDAY SATURDAY SUNDAY"`
	StartTime string `json:"start_time" validate:"required"`
	EndTime   string `json:"end_time" validate:"required"`
}

// TimeSlotService manages the teaching grid definition.
type TimeSlotService struct {
	repo      timeSlotRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTimeSlotService constructs a TimeSlotService.
func NewTimeSlotService(repo timeSlotRepository, validate *validator.Validate, logger *zap.Logger) *TimeSlotService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimeSlotService{repo: repo, validator: validate, logger: logger}
}

// List returns the full teaching grid.
func (s *TimeSlotService) List(ctx context.Context) ([]models.TimeSlot, error) {
	slots, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list time slots")
	}
	return slots, nil
}

// Create adds a grid cell after checking the interval is well formed and
// does not overlap an existing cell on the same day.
func (s *TimeSlotService) Create(ctx context.Context, req CreateTimeSlotRequest) (*models.TimeSlot, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid time slot payload")
	}

	slot := models.TimeSlot{
		Day:       strings.ToUpper(strings.TrimSpace(req.Day)),
		StartTime: strings.TrimSpace(req.StartTime),
		EndTime:   strings.TrimSpace(req.EndTime),
	}
	if !allocation.ValidInterval(slot.StartTime, slot.EndTime) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start_time must precede end_time in HH:MM form")
	}

	existing, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list time slots")
	}
	for _, cell := range existing {
		if strings.EqualFold(cell.Day, slot.Day) && allocation.IntervalsOverlap(cell, slot) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "time slot overlaps an existing grid cell")
		}
	}

	if err := s.repo.Create(ctx, &slot); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create time slot")
	}
	return &slot, nil
}

// Delete removes a grid cell.
func (s *TimeSlotService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "time slot not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete time slot")
	}
	return nil
}
