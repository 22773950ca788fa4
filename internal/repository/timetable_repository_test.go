package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-alloc-api/internal/models"
)

func newTimetableRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestTimetableRepositoryCreateVersioned(t *testing.T) {
	db, mock, cleanup := newTimetableRepoMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(MAX(version), 0) + 1 FROM timetables WHERE department = $1 AND term = $2")).
		WithArgs("CS", "2026-ODD").
		WillReturnRows(sqlmock.NewRows([]string{"next"}).AddRow(3))

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO timetables")).
		WithArgs(sqlmock.AnyArg(), "CS", "2026-ODD", 3, string(models.TimetableStatusDraft), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	payload := &models.Timetable{
		Department: "CS",
		Term:       "2026-ODD",
		Meta:       types.JSONText(`{"balance_score":87.5}`),
	}
	err := repo.CreateVersioned(context.Background(), nil, payload)
	require.NoError(t, err)
	assert.Equal(t, 3, payload.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryCreateVersionedRequiresKeys(t *testing.T) {
	db, _, cleanup := newTimetableRepoMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)

	err := repo.CreateVersioned(context.Background(), nil, &models.Timetable{Department: "CS"})
	assert.Error(t, err)

	err = repo.CreateVersioned(context.Background(), nil, nil)
	assert.Error(t, err)
}

func TestTimetableRepositoryListByDepartmentTerm(t *testing.T) {
	db, mock, cleanup := newTimetableRepoMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)

	rows := sqlmock.NewRows([]string{"id", "department", "term", "version", "status", "meta", "created_at", "updated_at"}).
		AddRow("tt-2", "CS", "2026-ODD", 2, string(models.TimetableStatusDraft), types.JSONText(`{}`), time.Now(), time.Now()).
		AddRow("tt-1", "CS", "2026-ODD", 1, string(models.TimetableStatusPublished), types.JSONText(`{}`), time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM timetables WHERE department = $1 AND term = $2 ORDER BY version DESC")).
		WithArgs("CS", "2026-ODD").
		WillReturnRows(rows)

	list, err := repo.ListByDepartmentTerm(context.Background(), "CS", "2026-ODD")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, 2, list[0].Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryUpdateStatus(t *testing.T) {
	db, mock, cleanup := newTimetableRepoMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE timetables SET status = $1, meta = $2, updated_at = $3 WHERE id = $4")).
		WithArgs(string(models.TimetableStatusPublished), types.JSONText(`{"published_by":"registrar"}`), sqlmock.AnyArg(), "tt-1").
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.UpdateStatus(context.Background(), nil, "tt-1", models.TimetableStatusPublished, types.JSONText(`{"published_by":"registrar"}`))
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryUpdateStatusNotFound(t *testing.T) {
	db, mock, cleanup := newTimetableRepoMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE timetables SET status = $1, updated_at = $2 WHERE id = $3")).
		WithArgs(string(models.TimetableStatusDraft), sqlmock.AnyArg(), "tt-x").
		WillReturnResult(sqlmock.NewResult(1, 0))

	err := repo.UpdateStatus(context.Background(), nil, "tt-x", models.TimetableStatusDraft, nil)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryDeleteNotFound(t *testing.T) {
	db, mock, cleanup := newTimetableRepoMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM timetables WHERE id = $1")).
		WithArgs("tt-x").
		WillReturnResult(sqlmock.NewResult(1, 0))

	err := repo.Delete(context.Background(), "tt-x")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableSlotRepositoryUpsertBatch(t *testing.T) {
	db, mock, cleanup := newTimetableRepoMock(t)
	defer cleanup()
	repo := NewTimetableSlotRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO timetable_slots")).
		WithArgs(sqlmock.AnyArg(), "tt-1", "c-1", "f-1", "r-1", "MONDAY", "09:00", "10:00", "lecture", 90.0).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO timetable_slots")).
		WithArgs(sqlmock.AnyArg(), "tt-1", "c-1", "f-1", "r-2", "MONDAY", "10:00", "11:00", "lab", 74.5).
		WillReturnResult(sqlmock.NewResult(1, 1))

	slots := []models.TimetableSlot{
		{TimetableID: "tt-1", CourseID: "c-1", FacultyID: "f-1", RoomID: "r-1", Day: "MONDAY", StartTime: "09:00", EndTime: "10:00", Purpose: "lecture", Confidence: 90},
		{TimetableID: "tt-1", CourseID: "c-1", FacultyID: "f-1", RoomID: "r-2", Day: "MONDAY", StartTime: "10:00", EndTime: "11:00", Purpose: "lab", Confidence: 74.5},
	}
	require.NoError(t, repo.UpsertBatch(context.Background(), nil, slots))
	assert.NotEmpty(t, slots[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableSlotRepositoryUpsertBatchEmpty(t *testing.T) {
	db, mock, cleanup := newTimetableRepoMock(t)
	defer cleanup()
	repo := NewTimetableSlotRepository(db)

	require.NoError(t, repo.UpsertBatch(context.Background(), nil, nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableSlotRepositoryListByTimetable(t *testing.T) {
	db, mock, cleanup := newTimetableRepoMock(t)
	defer cleanup()
	repo := NewTimetableSlotRepository(db)

	rows := sqlmock.NewRows([]string{"id", "timetable_id", "course_id", "faculty_id", "room_id", "day", "start_time", "end_time", "purpose", "confidence"}).
		AddRow("sl-1", "tt-1", "c-1", "f-1", "r-1", "MONDAY", "09:00", "10:00", "lecture", 90.0)
	mock.ExpectQuery(regexp.QuoteMeta("FROM timetable_slots WHERE timetable_id = $1 ORDER BY day ASC, start_time ASC")).
		WithArgs("tt-1").
		WillReturnRows(rows)

	slots, err := repo.ListByTimetable(context.Background(), "tt-1")
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, "lecture", slots[0].Purpose)
	assert.NoError(t, mock.ExpectationsWereMet())
}
