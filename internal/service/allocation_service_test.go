package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-alloc-api/internal/allocation"
	"github.com/noah-isme/campus-alloc-api/internal/dto"
	"github.com/noah-isme/campus-alloc-api/internal/models"
	appErrors "github.com/noah-isme/campus-alloc-api/pkg/errors"
)

func TestAllocationServiceGenerateSuccess(t *testing.T) {
	service, _ := newAllocationServiceFixture(t, allocationFixtureConfig{})

	resp, err := service.Generate(context.Background(), dto.GenerateTimetableRequest{
		Department: "CS",
		Term:       "2026-ODD",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.ProposalID)
	require.Len(t, resp.Results, 2, "two lecture hours should be placed")
	for _, result := range resp.Results {
		require.NotNil(t, result.SelectedRoom)
		assert.Equal(t, "r-1", result.SelectedRoom.ID)
	}
	assert.Equal(t, 2, resp.Metrics.TotalAllocations)
	assert.Equal(t, 2, resp.Metrics.SuccessfulAllocations)
}

func TestAllocationServiceGenerateDeterministicWithSeed(t *testing.T) {
	service, _ := newAllocationServiceFixture(t, allocationFixtureConfig{})

	first, err := service.Generate(context.Background(), dto.GenerateTimetableRequest{
		Department:  "CS",
		Term:        "2026-ODD",
		ShuffleSeed: 42,
	})
	require.NoError(t, err)
	second, err := service.Generate(context.Background(), dto.GenerateTimetableRequest{
		Department:  "CS",
		Term:        "2026-ODD",
		ShuffleSeed: 42,
	})
	require.NoError(t, err)

	require.Equal(t, len(first.Results), len(second.Results))
	for idx := range first.Results {
		assert.Equal(t, first.Results[idx].Slot, second.Results[idx].Slot)
		assert.Equal(t, first.Results[idx].SelectedRoom.ID, second.Results[idx].SelectedRoom.ID)
	}
}

func TestAllocationServiceGenerateRequiresCourses(t *testing.T) {
	service, _ := newAllocationServiceFixture(t, allocationFixtureConfig{noCourses: true})

	_, err := service.Generate(context.Background(), dto.GenerateTimetableRequest{
		Department: "CS",
		Term:       "2026-ODD",
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErr.Code)
}

func TestAllocationServiceGenerateRequiresGrid(t *testing.T) {
	service, _ := newAllocationServiceFixture(t, allocationFixtureConfig{noGrid: true})

	_, err := service.Generate(context.Background(), dto.GenerateTimetableRequest{
		Department: "CS",
		Term:       "2026-ODD",
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErr.Code)
}

func TestAllocationServiceSaveDraft(t *testing.T) {
	txProvider, mock := newAllocTxProviderMock(t)
	service, fixture := newAllocationServiceFixture(t, allocationFixtureConfig{tx: txProvider})

	resp, err := service.Generate(context.Background(), dto.GenerateTimetableRequest{
		Department: "CS",
		Term:       "2026-ODD",
	})
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectCommit()

	id, err := service.Save(context.Background(), dto.SaveTimetableRequest{ProposalID: resp.ProposalID})
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	require.Len(t, fixture.timetables.items, 1)
	assert.Equal(t, models.TimetableStatusDraft, fixture.timetables.items[0].Status)
	assert.NotEmpty(t, fixture.timetables.items[0].Meta, "run metadata should be recorded")
	assert.Len(t, fixture.slots.items[id], 2)
	assert.NoError(t, mock.ExpectationsWereMet())

	_, err = service.Save(context.Background(), dto.SaveTimetableRequest{ProposalID: resp.ProposalID})
	require.Error(t, err, "a saved proposal is consumed")
}

func TestAllocationServiceSavePublish(t *testing.T) {
	txProvider, mock := newAllocTxProviderMock(t)
	service, fixture := newAllocationServiceFixture(t, allocationFixtureConfig{tx: txProvider})

	resp, err := service.Generate(context.Background(), dto.GenerateTimetableRequest{
		Department: "CS",
		Term:       "2026-ODD",
	})
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectCommit()

	id, err := service.Save(context.Background(), dto.SaveTimetableRequest{ProposalID: resp.ProposalID, Publish: true})
	require.NoError(t, err)
	require.Len(t, fixture.timetables.items, 1)
	assert.Equal(t, id, fixture.timetables.items[0].ID)
	assert.Equal(t, models.TimetableStatusPublished, fixture.timetables.items[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAllocationServiceSaveUnknownProposal(t *testing.T) {
	txProvider, _ := newAllocTxProviderMock(t)
	service, _ := newAllocationServiceFixture(t, allocationFixtureConfig{tx: txProvider})

	_, err := service.Save(context.Background(), dto.SaveTimetableRequest{ProposalID: "missing"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrProposalExpired.Code, appErr.Code)
}

func TestAllocationServiceListAndSlots(t *testing.T) {
	service, fixture := newAllocationServiceFixture(t, allocationFixtureConfig{})
	fixture.timetables.items = []models.Timetable{
		{ID: "tt-1", Department: "CS", Term: "2026-ODD", Version: 1, Status: models.TimetableStatusDraft},
	}
	fixture.slots.items = map[string][]models.TimetableSlot{
		"tt-1": {{ID: "sl-1", TimetableID: "tt-1", CourseID: "c-1", RoomID: "r-1", Day: "MONDAY", StartTime: "09:00", EndTime: "10:00"}},
	}

	list, err := service.List(context.Background(), dto.TimetableQuery{Department: "CS", Term: "2026-ODD"})
	require.NoError(t, err)
	require.Len(t, list, 1)

	slots, err := service.GetSlots(context.Background(), "tt-1")
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, "MONDAY", slots[0].Day)

	_, err = service.GetSlots(context.Background(), "tt-x")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestAllocationServiceDeleteOnlyDrafts(t *testing.T) {
	service, fixture := newAllocationServiceFixture(t, allocationFixtureConfig{})
	fixture.timetables.items = []models.Timetable{
		{ID: "tt-1", Department: "CS", Term: "2026-ODD", Version: 1, Status: models.TimetableStatusPublished},
		{ID: "tt-2", Department: "CS", Term: "2026-ODD", Version: 2, Status: models.TimetableStatusDraft},
	}

	err := service.Delete(context.Background(), "tt-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)

	require.NoError(t, service.Delete(context.Background(), "tt-2"))
	require.Len(t, fixture.timetables.items, 1)
}

func TestAllocationServicePublish(t *testing.T) {
	service, fixture := newAllocationServiceFixture(t, allocationFixtureConfig{})
	fixture.timetables.items = []models.Timetable{
		{ID: "tt-1", Department: "CS", Term: "2026-ODD", Version: 1, Status: models.TimetableStatusDraft},
	}

	require.NoError(t, service.Publish(context.Background(), "tt-1"))
	assert.Equal(t, models.TimetableStatusPublished, fixture.timetables.items[0].Status)

	err := service.Publish(context.Background(), "tt-1")
	require.Error(t, err, "publishing twice is rejected")
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

// --- Fixtures ---

type allocationFixtureConfig struct {
	noCourses bool
	noGrid    bool
	tx        txProvider
}

type allocationFixture struct {
	timetables *timetableRepoStub
	slots      *timetableSlotRepoStub
}

func newAllocationServiceFixture(t *testing.T, cfg allocationFixtureConfig) (*AllocationService, *allocationFixture) {
	t.Helper()

	courses := courseCatalogStub{}
	if !cfg.noCourses {
		courses.items = []models.Course{
			{ID: "c-1", Code: "CS101", Name: "Intro to Computing", Department: "CS", Semester: 1, LectureHours: 2},
		}
	}
	rooms := roomCatalogStub{items: []models.Room{
		{ID: "r-1", Code: "A-101", Building: "A", Capacity: 80, Type: models.RoomTypeLecture, Facilities: []string{"projector"}},
	}}
	grid := gridCatalogStub{}
	if !cfg.noGrid {
		grid.items = []models.TimeSlot{
			{ID: "ts-1", Day: "MONDAY", StartTime: "09:00", EndTime: "10:00"},
			{ID: "ts-2", Day: "MONDAY", StartTime: "10:00", EndTime: "11:00"},
			{ID: "ts-3", Day: "TUESDAY", StartTime: "09:00", EndTime: "10:00"},
			{ID: "ts-4", Day: "TUESDAY", StartTime: "10:00", EndTime: "11:00"},
		}
	}
	faculty := facultyCatalogStub{items: []models.Faculty{
		{ID: "f-1", Code: "FAC1", FullName: "Dr. Rao", Department: "CS", Expertise: []string{"CS101"}, MaxHoursPerWeek: 12, Active: true},
	}}
	timetables := &timetableRepoStub{}
	slots := &timetableSlotRepoStub{}
	tx := cfg.tx
	if tx == nil {
		tx = allocNoopTxProvider{}
	}

	service := NewAllocationService(
		courses,
		rooms,
		grid,
		faculty,
		timetables,
		slots,
		tx,
		nil,
		nil,
		validator.New(),
		zap.NewNop(),
		AllocationServiceConfig{ProposalTTL: time.Hour, Engine: allocation.DefaultConfig()},
	)
	return service, &allocationFixture{timetables: timetables, slots: slots}
}

type courseCatalogStub struct {
	items []models.Course
}

func (s courseCatalogStub) ListByDepartment(ctx context.Context, department string) ([]models.Course, error) {
	return s.items, nil
}

type roomCatalogStub struct {
	items []models.Room
}

func (s roomCatalogStub) ListAll(ctx context.Context) ([]models.Room, error) {
	return s.items, nil
}

type gridCatalogStub struct {
	items []models.TimeSlot
}

func (s gridCatalogStub) ListAll(ctx context.Context) ([]models.TimeSlot, error) {
	return s.items, nil
}

type facultyCatalogStub struct {
	items []models.Faculty
}

func (s facultyCatalogStub) ListActiveByDepartment(ctx context.Context, department string) ([]models.Faculty, error) {
	return s.items, nil
}

type timetableRepoStub struct {
	items []models.Timetable
}

func (s *timetableRepoStub) CreateVersioned(ctx context.Context, exec sqlx.ExtContext, timetable *models.Timetable) error {
	timetable.ID = fmt.Sprintf("tt-%d", len(s.items)+1)
	timetable.Version = len(s.items) + 1
	if timetable.Status == "" {
		timetable.Status = models.TimetableStatusDraft
	}
	s.items = append(s.items, *timetable)
	return nil
}

func (s *timetableRepoStub) ListByDepartmentTerm(ctx context.Context, department, term string) ([]models.Timetable, error) {
	return s.items, nil
}

func (s *timetableRepoStub) FindByID(ctx context.Context, id string) (*models.Timetable, error) {
	for _, item := range s.items {
		if item.ID == id {
			found := item
			return &found, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *timetableRepoStub) UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id string, status models.TimetableStatus, meta types.JSONText) error {
	for idx := range s.items {
		if s.items[idx].ID == id {
			s.items[idx].Status = status
			return nil
		}
	}
	return sql.ErrNoRows
}

func (s *timetableRepoStub) Delete(ctx context.Context, id string) error {
	for idx, item := range s.items {
		if item.ID == id {
			s.items = append(s.items[:idx], s.items[idx+1:]...)
			return nil
		}
	}
	return sql.ErrNoRows
}

type timetableSlotRepoStub struct {
	items map[string][]models.TimetableSlot
}

func (s *timetableSlotRepoStub) UpsertBatch(ctx context.Context, exec sqlx.ExtContext, slots []models.TimetableSlot) error {
	if s.items == nil {
		s.items = make(map[string][]models.TimetableSlot)
	}
	for _, slot := range slots {
		s.items[slot.TimetableID] = append(s.items[slot.TimetableID], slot)
	}
	return nil
}

func (s *timetableSlotRepoStub) ListByTimetable(ctx context.Context, timetableID string) ([]models.TimetableSlot, error) {
	return s.items[timetableID], nil
}

type allocNoopTxProvider struct{}

func (allocNoopTxProvider) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return nil, appErrors.Clone(appErrors.ErrInternal, "transaction provider unavailable")
}

type allocTxProviderMock struct {
	db *sqlx.DB
}

func newAllocTxProviderMock(t *testing.T) (txProvider, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	t.Cleanup(func() { db.Close() })
	return &allocTxProviderMock{db: sqlxdb}, mock
}

func (m *allocTxProviderMock) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return m.db.BeginTxx(ctx, opts)
}
