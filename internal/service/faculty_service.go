package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-alloc-api/internal/models"
	appErrors "github.com/noah-isme/campus-alloc-api/pkg/errors"
)

type facultyRepository interface {
	List(ctx context.Context, filter models.FacultyFilter) ([]models.Faculty, int, error)
	FindByID(ctx context.Context, id string) (*models.Faculty, error)
	ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error)
	Create(ctx context.Context, member *models.Faculty) error
	Update(ctx context.Context, member *models.Faculty) error
	Deactivate(ctx context.Context, id string) error
}

// CreateFacultyRequest represents payload for registering faculty members.
type CreateFacultyRequest struct {
	Code            string   `json:"code" validate:"required,max=20"`
	FullName        string   `json:"full_name" validate:"required,max=200"`
	Email           string   `json:"email" validate:"required,email"`
	Department      string   `json:"department" validate:"required,max=50"`
	Expertise       []string `json:"expertise" validate:"omitempty,dive,max=50"`
	MaxHoursPerWeek int      `json:"max_hours_per_week" validate:"min=0,max=60"`
}

// UpdateFacultyRequest represents payload for updating faculty members.
type UpdateFacultyRequest struct {
	FullName        string   `json:"full_name" validate:"required,max=200"`
	Email           string   `json:"email" validate:"required,email"`
	Expertise       []string `json:"expertise" validate:"omitempty,dive,max=50"`
	MaxHoursPerWeek int      `json:"max_hours_per_week" validate:"min=0,max=60"`
	Active          *bool    `json:"active"`
}

// FacultyService orchestrates faculty roster operations.
type FacultyService struct {
	repo      facultyRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewFacultyService constructs a FacultyService.
func NewFacultyService(repo facultyRepository, validate *validator.Validate, logger *zap.Logger) *FacultyService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FacultyService{repo: repo, validator: validate, logger: logger}
}

// List returns faculty members plus pagination data.
func (s *FacultyService) List(ctx context.Context, filter models.FacultyFilter) ([]models.Faculty, *models.Pagination, error) {
	members, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list faculty")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return members, pagination, nil
}

// Get returns a faculty member by id.
func (s *FacultyService) Get(ctx context.Context, id string) (*models.Faculty, error) {
	member, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "faculty member not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load faculty member")
	}
	return member, nil
}

// Create registers a new faculty member.
func (s *FacultyService) Create(ctx context.Context, req CreateFacultyRequest) (*models.Faculty, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid faculty payload")
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	exists, err := s.repo.ExistsByEmail(ctx, email, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email uniqueness")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "email already used")
	}

	member := &models.Faculty{
		Code:            strings.ToUpper(strings.TrimSpace(req.Code)),
		FullName:        strings.TrimSpace(req.FullName),
		Email:           email,
		Department:      strings.ToUpper(strings.TrimSpace(req.Department)),
		Expertise:       normalizeExpertise(req.Expertise),
		MaxHoursPerWeek: req.MaxHoursPerWeek,
		Active:          true,
	}
	if err := s.repo.Create(ctx, member); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create faculty member")
	}
	return member, nil
}

// Update modifies an existing faculty member.
func (s *FacultyService) Update(ctx context.Context, id string, req UpdateFacultyRequest) (*models.Faculty, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid faculty payload")
	}

	member, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "faculty member not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load faculty member")
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	exists, err := s.repo.ExistsByEmail(ctx, email, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email uniqueness")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "email already used")
	}

	member.FullName = strings.TrimSpace(req.FullName)
	member.Email = email
	member.Expertise = normalizeExpertise(req.Expertise)
	member.MaxHoursPerWeek = req.MaxHoursPerWeek
	if req.Active != nil {
		member.Active = *req.Active
	}

	if err := s.repo.Update(ctx, member); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update faculty member")
	}
	return member, nil
}

// Deactivate marks a faculty member inactive. Inactive members keep their
// historical placements but are skipped by new allocation runs.
func (s *FacultyService) Deactivate(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "faculty member not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load faculty member")
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate faculty member")
	}
	return nil
}

func normalizeExpertise(raw []string) []string {
	result := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, code := range raw {
		normalized := strings.ToUpper(strings.TrimSpace(code))
		if normalized == "" {
			continue
		}
		if _, dup := seen[normalized]; dup {
			continue
		}
		seen[normalized] = struct{}{}
		result = append(result, normalized)
	}
	return result
}
