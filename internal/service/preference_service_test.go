package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-alloc-api/internal/dto"
	"github.com/noah-isme/campus-alloc-api/internal/models"
	appErrors "github.com/noah-isme/campus-alloc-api/pkg/errors"
)

func TestPreferenceServiceGetDefaultsWhenUndeclared(t *testing.T) {
	service, _ := newPreferenceServiceFixture(t)

	prefs, err := service.Get(context.Background(), "f-1")
	require.NoError(t, err)
	assert.Equal(t, "f-1", prefs.FacultyID)
	assert.Empty(t, prefs.RoomPreferences)
	assert.Empty(t, prefs.TimePreferences)
}

func TestPreferenceServiceGetUnknownFaculty(t *testing.T) {
	service, _ := newPreferenceServiceFixture(t)

	_, err := service.Get(context.Background(), "f-missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestPreferenceServiceUpsertRoundTrip(t *testing.T) {
	service, fixture := newPreferenceServiceFixture(t)

	prefs, err := service.Upsert(context.Background(), "f-1", dto.UpsertPreferencesRequest{
		RoomPreferences: []models.RoomPreference{
			{RoomID: "r-1", Weight: 100, Priority: models.PriorityHigh},
		},
		TimePreferences: []models.TimePreference{
			{Day: "MONDAY", StartTime: "09:00", EndTime: "12:00", Weight: 80, Priority: models.PriorityMedium},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "f-1", prefs.FacultyID)
	require.Contains(t, fixture.prefRepo.items, "f-1")

	stored, err := service.Get(context.Background(), "f-1")
	require.NoError(t, err)
	require.Len(t, stored.RoomPreferences, 1)
	assert.Equal(t, "r-1", stored.RoomPreferences[0].RoomID)
	require.Len(t, stored.TimePreferences, 1)
	assert.Equal(t, "MONDAY", stored.TimePreferences[0].Day)
}

func TestPreferenceServiceUpsertRejectsBadWeights(t *testing.T) {
	service, _ := newPreferenceServiceFixture(t)

	_, err := service.Upsert(context.Background(), "f-1", dto.UpsertPreferencesRequest{
		RoomPreferences: []models.RoomPreference{
			{RoomID: "r-1", Weight: 140},
		},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidWeights.Code, appErrors.FromError(err).Code)
}

func TestPreferenceServiceScoreAssignmentNoDeclaration(t *testing.T) {
	service, _ := newPreferenceServiceFixture(t)

	resp, err := service.ScoreAssignment(context.Background(), dto.ScoreAssignmentRequest{
		FacultyID:  "f-1",
		CourseID:   "c-1",
		RoomID:     "r-1",
		TimeSlotID: "ts-1",
	})
	require.NoError(t, err)
	assert.InDelta(t, 44.0, resp.Score.Score, 0.01, "neutral room and time with unscored subject")
	assert.Equal(t, models.SatisfactionPoor, resp.Satisfaction)
	assert.Zero(t, resp.Completeness)
}

func TestPreferenceServiceScoreAssignmentFullMatch(t *testing.T) {
	service, _ := newPreferenceServiceFixture(t)

	_, err := service.Upsert(context.Background(), "f-1", dto.UpsertPreferencesRequest{
		RoomPreferences: []models.RoomPreference{
			{RoomID: "r-1", Weight: 100, Priority: models.PriorityHigh},
		},
		TimePreferences: []models.TimePreference{
			{Day: "MONDAY", StartTime: "09:00", EndTime: "10:00", Weight: 100, Priority: models.PriorityHigh},
		},
		SubjectPreferences: []models.SubjectPreference{
			{CourseCode: "CS101", Expertise: models.ExpertiseExpert, Weight: 100, Priority: models.PriorityHigh},
		},
	})
	require.NoError(t, err)

	resp, err := service.ScoreAssignment(context.Background(), dto.ScoreAssignmentRequest{
		FacultyID:  "f-1",
		CourseID:   "c-1",
		RoomID:     "r-1",
		TimeSlotID: "ts-1",
	})
	require.NoError(t, err)
	assert.InDelta(t, 100.0, resp.Score.Score, 0.01)
	assert.Equal(t, models.SatisfactionExcellent, resp.Satisfaction)
	assert.Len(t, resp.Score.MatchedPreferences, 3)
	assert.InDelta(t, 100.0, resp.Completeness, 0.01)
}

func TestPreferenceServiceScoreAssignmentUnknownRoom(t *testing.T) {
	service, _ := newPreferenceServiceFixture(t)

	_, err := service.ScoreAssignment(context.Background(), dto.ScoreAssignmentRequest{
		FacultyID:  "f-1",
		CourseID:   "c-1",
		RoomID:     "r-missing",
		TimeSlotID: "ts-1",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestPreferenceServiceDetectConflicts(t *testing.T) {
	service, _ := newPreferenceServiceFixture(t)

	_, err := service.Upsert(context.Background(), "f-1", dto.UpsertPreferencesRequest{
		TimePreferences: []models.TimePreference{
			{Day: "MONDAY", StartTime: "09:00", EndTime: "11:00", Weight: 100, IsHardConstraint: true},
			{Day: "MONDAY", StartTime: "10:00", EndTime: "12:00", Weight: 100, IsHardConstraint: true},
		},
	})
	require.NoError(t, err)

	result, err := service.DetectConflicts(context.Background(), "f-1")
	require.NoError(t, err)
	assert.True(t, result.HasConflicts)
	assert.NotEmpty(t, result.TimeConflicts)
}

func TestPreferenceServiceDetectConflictsClean(t *testing.T) {
	service, _ := newPreferenceServiceFixture(t)

	result, err := service.DetectConflicts(context.Background(), "f-1")
	require.NoError(t, err)
	assert.False(t, result.HasConflicts)
}

func TestPreferenceServiceCompleteness(t *testing.T) {
	service, _ := newPreferenceServiceFixture(t)

	completeness, err := service.Completeness(context.Background(), "f-1")
	require.NoError(t, err)
	assert.Zero(t, completeness)

	_, err = service.Upsert(context.Background(), "f-1", dto.UpsertPreferencesRequest{
		RoomPreferences: []models.RoomPreference{{RoomID: "r-1", Weight: 50}},
	})
	require.NoError(t, err)

	completeness, err = service.Completeness(context.Background(), "f-1")
	require.NoError(t, err)
	assert.InDelta(t, 33.33, completeness, 0.01)
}

// --- Fixtures ---

type preferenceFixture struct {
	prefRepo *prefRepoStub
}

func newPreferenceServiceFixture(t *testing.T) (*PreferenceService, *preferenceFixture) {
	t.Helper()

	faculty := facultyFinderStub{items: map[string]models.Faculty{
		"f-1": {ID: "f-1", Code: "FAC1", FullName: "Dr. Rao", Department: "CS", MaxHoursPerWeek: 12, Active: true},
	}}
	prefRepo := &prefRepoStub{}
	courses := courseFinderStub{items: map[string]models.Course{
		"c-1": {ID: "c-1", Code: "CS101", Name: "Intro to Computing", Department: "CS", LectureHours: 3},
	}}
	rooms := roomFinderStub{items: map[string]models.Room{
		"r-1": {ID: "r-1", Code: "A-101", Building: "A", Capacity: 80, Type: models.RoomTypeLecture, Facilities: []string{"projector"}},
	}}
	grid := slotFinderStub{items: map[string]models.TimeSlot{
		"ts-1": {ID: "ts-1", Day: "MONDAY", StartTime: "09:00", EndTime: "10:00"},
	}}
	roomList := roomCatalogStub{items: []models.Room{
		{ID: "r-1", Code: "A-101", Building: "A", Capacity: 80, Type: models.RoomTypeLecture, Facilities: []string{"projector"}},
	}}
	courseList := courseCatalogStub{items: []models.Course{
		{ID: "c-1", Code: "CS101", Name: "Intro to Computing", Department: "CS", LectureHours: 3},
	}}

	service := NewPreferenceService(
		faculty,
		prefRepo,
		courses,
		rooms,
		grid,
		roomList,
		courseList,
		validator.New(),
		zap.NewNop(),
	)
	return service, &preferenceFixture{prefRepo: prefRepo}
}

type facultyFinderStub struct {
	items map[string]models.Faculty
}

func (s facultyFinderStub) FindByID(ctx context.Context, id string) (*models.Faculty, error) {
	if member, ok := s.items[id]; ok {
		found := member
		return &found, nil
	}
	return nil, sql.ErrNoRows
}

type prefRepoStub struct {
	items map[string]models.FacultyPreferenceRecord
}

func (s *prefRepoStub) GetByFaculty(ctx context.Context, facultyID string) (*models.FacultyPreferenceRecord, error) {
	if record, ok := s.items[facultyID]; ok {
		found := record
		return &found, nil
	}
	return nil, sql.ErrNoRows
}

func (s *prefRepoStub) Upsert(ctx context.Context, record *models.FacultyPreferenceRecord) error {
	if s.items == nil {
		s.items = make(map[string]models.FacultyPreferenceRecord)
	}
	if record.ID == "" {
		record.ID = "pref-" + record.FacultyID
	}
	s.items[record.FacultyID] = *record
	return nil
}

type courseFinderStub struct {
	items map[string]models.Course
}

func (s courseFinderStub) FindByID(ctx context.Context, id string) (*models.Course, error) {
	if course, ok := s.items[id]; ok {
		found := course
		return &found, nil
	}
	return nil, sql.ErrNoRows
}

type roomFinderStub struct {
	items map[string]models.Room
}

func (s roomFinderStub) FindByID(ctx context.Context, id string) (*models.Room, error) {
	if room, ok := s.items[id]; ok {
		found := room
		return &found, nil
	}
	return nil, sql.ErrNoRows
}

type slotFinderStub struct {
	items map[string]models.TimeSlot
}

func (s slotFinderStub) FindByID(ctx context.Context, id string) (*models.TimeSlot, error) {
	if slot, ok := s.items[id]; ok {
		found := slot
		return &found, nil
	}
	return nil, sql.ErrNoRows
}
