package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-alloc-api/internal/allocation"
	"github.com/noah-isme/campus-alloc-api/internal/dto"
	"github.com/noah-isme/campus-alloc-api/internal/models"
	appErrors "github.com/noah-isme/campus-alloc-api/pkg/errors"
)

type facultyPreferenceRepo interface {
	GetByFaculty(ctx context.Context, facultyID string) (*models.FacultyPreferenceRecord, error)
	Upsert(ctx context.Context, record *models.FacultyPreferenceRecord) error
}

type facultyFinder interface {
	FindByID(ctx context.Context, id string) (*models.Faculty, error)
}

type courseFinder interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

type roomFinder interface {
	FindByID(ctx context.Context, id string) (*models.Room, error)
}

type timeSlotFinder interface {
	FindByID(ctx context.Context, id string) (*models.TimeSlot, error)
}

// PreferenceService stores faculty preference declarations and scores
// candidate assignments against them.
type PreferenceService struct {
	faculty    facultyFinder
	repo       facultyPreferenceRepo
	courses    courseFinder
	rooms      roomFinder
	grid       timeSlotFinder
	roomList   roomCatalog
	courseList courseCatalog
	scorer     *allocation.PreferenceScorer
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewPreferenceService builds the service.
func NewPreferenceService(
	faculty facultyFinder,
	repo facultyPreferenceRepo,
	courses courseFinder,
	rooms roomFinder,
	grid timeSlotFinder,
	roomList roomCatalog,
	courseList courseCatalog,
	validate *validator.Validate,
	logger *zap.Logger,
) *PreferenceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PreferenceService{
		faculty:    faculty,
		repo:       repo,
		courses:    courses,
		rooms:      rooms,
		grid:       grid,
		roomList:   roomList,
		courseList: courseList,
		scorer:     allocation.NewPreferenceScorer(),
		validator:  validate,
		logger:     logger,
	}
}

// Get returns stored preferences or an empty declaration.
func (s *PreferenceService) Get(ctx context.Context, facultyID string) (*models.FacultyPreferences, error) {
	if _, err := s.faculty.FindByID(ctx, facultyID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "faculty member not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load faculty member")
	}

	record, err := s.repo.GetByFaculty(ctx, facultyID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &models.FacultyPreferences{FacultyID: facultyID}, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load faculty preferences")
	}
	return decodePreferences(record)
}

// Upsert replaces the full preference declaration for a faculty member.
func (s *PreferenceService) Upsert(ctx context.Context, facultyID string, req dto.UpsertPreferencesRequest) (*models.FacultyPreferences, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid preference payload")
	}
	for _, pref := range req.RoomPreferences {
		if pref.Weight < 0 || pref.Weight > 100 {
			return nil, appErrors.Clone(appErrors.ErrInvalidWeights, "room preference weights must lie in [0, 100]")
		}
	}
	for _, pref := range req.TimePreferences {
		if pref.Weight < 0 || pref.Weight > 100 {
			return nil, appErrors.Clone(appErrors.ErrInvalidWeights, "time preference weights must lie in [0, 100]")
		}
	}
	for _, pref := range req.SubjectPreferences {
		if pref.Weight < 0 || pref.Weight > 100 {
			return nil, appErrors.Clone(appErrors.ErrInvalidWeights, "subject preference weights must lie in [0, 100]")
		}
	}
	if _, err := s.faculty.FindByID(ctx, facultyID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "faculty member not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load faculty member")
	}

	prefs := models.FacultyPreferences{
		FacultyID:          facultyID,
		RoomPreferences:    req.RoomPreferences,
		TimePreferences:    req.TimePreferences,
		SubjectPreferences: req.SubjectPreferences,
		Constraints:        req.Constraints,
	}
	payload, err := json.Marshal(prefs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid preference payload")
	}

	record := &models.FacultyPreferenceRecord{
		FacultyID: facultyID,
		Payload:   types.JSONText(payload),
	}
	existing, err := s.repo.GetByFaculty(ctx, facultyID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load faculty preferences")
	}
	if existing != nil {
		record.ID = existing.ID
		record.CreatedAt = existing.CreatedAt
	}

	if err := s.repo.Upsert(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to upsert faculty preferences")
	}
	s.logger.Info("faculty preferences updated",
		zap.String("faculty_id", facultyID),
		zap.Int("room_preferences", len(prefs.RoomPreferences)),
		zap.Int("time_preferences", len(prefs.TimePreferences)),
		zap.Int("subject_preferences", len(prefs.SubjectPreferences)))
	return &prefs, nil
}

// ScoreAssignment rates one candidate (room, slot, course) placement
// against the faculty member's declared preferences.
func (s *PreferenceService) ScoreAssignment(ctx context.Context, req dto.ScoreAssignmentRequest) (*dto.ScoreAssignmentResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid score assignment payload")
	}

	prefs, err := s.Get(ctx, req.FacultyID)
	if err != nil {
		return nil, err
	}

	room, err := s.rooms.FindByID(ctx, req.RoomID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "room not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load room")
	}
	course, err := s.courses.FindByID(ctx, req.CourseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	slot, err := s.grid.FindByID(ctx, req.TimeSlotID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "time slot not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load time slot")
	}

	score, band := s.scorer.ScoreAssignment(*prefs, *room, *slot, *course)
	return &dto.ScoreAssignmentResponse{
		Score:        score,
		Satisfaction: band,
		Completeness: s.scorer.CalculatePreferenceCompleteness(*prefs),
	}, nil
}

// DetectConflicts audits the declaration against the catalogs and the
// faculty member's workload ceiling.
func (s *PreferenceService) DetectConflicts(ctx context.Context, facultyID string) (*models.ConflictDetectionResult, error) {
	member, err := s.faculty.FindByID(ctx, facultyID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "faculty member not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load faculty member")
	}
	prefs, err := s.Get(ctx, facultyID)
	if err != nil {
		return nil, err
	}

	rooms, err := s.roomList.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load room inventory")
	}
	courses, err := s.courseList.ListByDepartment(ctx, member.Department)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load courses")
	}

	detector := allocation.NewConflictDetector(rooms, courses)
	result := detector.DetectConflicts(facultyID, *prefs, member.MaxHoursPerWeek)
	return &result, nil
}

// Completeness reports how much of the declaration is filled in.
func (s *PreferenceService) Completeness(ctx context.Context, facultyID string) (float64, error) {
	prefs, err := s.Get(ctx, facultyID)
	if err != nil {
		return 0, err
	}
	return s.scorer.CalculatePreferenceCompleteness(*prefs), nil
}

func decodePreferences(record *models.FacultyPreferenceRecord) (*models.FacultyPreferences, error) {
	prefs := models.FacultyPreferences{FacultyID: record.FacultyID}
	if len(record.Payload) > 0 {
		if err := json.Unmarshal(record.Payload, &prefs); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "corrupt preference payload")
		}
	}
	prefs.FacultyID = record.FacultyID
	return &prefs, nil
}
