package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-alloc-api/internal/models"
)

func newCourseRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestCourseRepositoryList(t *testing.T) {
	db, mock, cleanup := newCourseRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	rows := sqlmock.NewRows([]string{"id", "code", "name", "department", "semester", "credits", "lecture_hours", "lab_hours", "created_at", "updated_at"}).
		AddRow("c1", "CS101", "Intro to Computing", "CS", 1, 4, 3, 1, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, code, name, department, semester, credits, lecture_hours, lab_hours, created_at, updated_at FROM courses WHERE 1=1 ORDER BY code ASC LIMIT 20 OFFSET 0")).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM courses WHERE 1=1")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	list, total, err := repo.List(context.Background(), models.CourseFilter{})
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryListWithFilters(t *testing.T) {
	db, mock, cleanup := newCourseRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	rows := sqlmock.NewRows([]string{"id", "code", "name", "department", "semester", "credits", "lecture_hours", "lab_hours", "created_at", "updated_at"})
	mock.ExpectQuery(regexp.QuoteMeta("FROM courses WHERE 1=1 AND department = $1 AND semester = $2")).
		WithArgs("CS", 3).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM courses WHERE 1=1 AND department = $1 AND semester = $2")).
		WithArgs("CS", 3).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	list, total, err := repo.List(context.Background(), models.CourseFilter{Department: "CS", Semester: 3})
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Zero(t, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryFindByCode(t *testing.T) {
	db, mock, cleanup := newCourseRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	rows := sqlmock.NewRows([]string{"id", "code", "name", "department", "semester", "credits", "lecture_hours", "lab_hours", "created_at", "updated_at"}).
		AddRow("c1", "CS205", "Data Structures", "CS", 3, 4, 3, 2, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM courses WHERE UPPER(code) = UPPER($1)")).
		WithArgs("cs205").
		WillReturnRows(rows)

	course, err := repo.FindByCode(context.Background(), "cs205")
	require.NoError(t, err)
	assert.Equal(t, "CS205", course.Code)
	assert.Equal(t, 2, course.LabHours)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newCourseRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectExec("INSERT INTO courses").
		WithArgs(sqlmock.AnyArg(), "CS101", "Intro to Computing", "CS", 1, 4, 3, 1, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	course := &models.Course{Code: "CS101", Name: "Intro to Computing", Department: "CS", Semester: 1, Credits: 4, LectureHours: 3, LabHours: 1}
	require.NoError(t, repo.Create(context.Background(), course))
	assert.NotEmpty(t, course.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
