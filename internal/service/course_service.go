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

type courseRepository interface {
	List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error)
	FindByID(ctx context.Context, id string) (*models.Course, error)
	FindByCode(ctx context.Context, code string) (*models.Course, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
	Delete(ctx context.Context, id string) error
}

// CreateCourseRequest represents payload for creating courses.
type CreateCourseRequest struct {
	Code         string `json:"code" validate:"required,max=20"`
	Name         string `json:"name" validate:"required,max=200"`
	Department   string `json:"department" validate:"required,max=50"`
	Semester     int    `json:"semester" validate:"required,min=1,max=12"`
	Credits      int    `json:"credits" validate:"min=0,max=20"`
	LectureHours int    `json:"lecture_hours" validate:"min=0,max=20"`
	LabHours     int    `json:"lab_hours" validate:"min=0,max=20"`
}

// UpdateCourseRequest represents payload for updating courses.
type UpdateCourseRequest struct {
	Name         string `json:"name" validate:"required,max=200"`
	Semester     int    `json:"semester" validate:"required,min=1,max=12"`
	Credits      int    `json:"credits" validate:"min=0,max=20"`
	LectureHours int    `json:"lecture_hours" validate:"min=0,max=20"`
	LabHours     int    `json:"lab_hours" validate:"min=0,max=20"`
}

// CourseService orchestrates course catalog operations.
type CourseService struct {
	repo      courseRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCourseService constructs a CourseService.
func NewCourseService(repo courseRepository, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{repo: repo, validator: validate, logger: logger}
}

// List returns courses plus pagination data.
func (s *CourseService) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, *models.Pagination, error) {
	courses, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
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
	return courses, pagination, nil
}

// Get returns a course by id.
func (s *CourseService) Get(ctx context.Context, id string) (*models.Course, error) {
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return course, nil
}

// Create registers a new course. Hour counts feed straight into the
// allocation engine, a course with zero teaching hours is never scheduled.
func (s *CourseService) Create(ctx context.Context, req CreateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}

	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if existing, err := s.repo.FindByCode(ctx, code); err == nil && existing != nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "course code already used")
	} else if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check course code")
	}

	course := &models.Course{
		Code:         code,
		Name:         strings.TrimSpace(req.Name),
		Department:   strings.ToUpper(strings.TrimSpace(req.Department)),
		Semester:     req.Semester,
		Credits:      req.Credits,
		LectureHours: req.LectureHours,
		LabHours:     req.LabHours,
	}
	if err := s.repo.Create(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}
	return course, nil
}

// Update modifies an existing course. Code and department are immutable,
// historical timetables reference them.
func (s *CourseService) Update(ctx context.Context, id string, req UpdateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}

	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	course.Name = strings.TrimSpace(req.Name)
	course.Semester = req.Semester
	course.Credits = req.Credits
	course.LectureHours = req.LectureHours
	course.LabHours = req.LabHours

	if err := s.repo.Update(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course")
	}
	return course, nil
}

// Delete removes a course from the catalog.
func (s *CourseService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete course")
	}
	return nil
}
