package allocation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-alloc-api/internal/models"
)

func validatorFixtures() ([]models.Course, []models.Faculty, []models.Room) {
	courses := []models.Course{
		{ID: "c-1", Code: "CS101"},
		{ID: "c-2", Code: "CS205"},
		{ID: "c-3", Code: "CS401"},
	}
	faculty := []models.Faculty{
		{ID: "f-1", FullName: "Dr. Rao", MaxHoursPerWeek: 2},
		{ID: "f-2", FullName: "Dr. Iyer", MaxHoursPerWeek: 20},
	}
	rooms := []models.Room{
		{ID: "r-1", Code: "A-101", Capacity: 80, Type: models.RoomTypeLecture},
		{ID: "r-2", Code: "A-5", Capacity: 30, Type: models.RoomTypeLecture},
		{ID: "r-3", Code: "L-1", Capacity: 35, Type: models.RoomTypeLab},
	}
	return courses, faculty, rooms
}

func TestValidateCleanSchedule(t *testing.T) {
	courses, faculty, rooms := validatorFixtures()
	validator := NewScheduleValidator(DefaultConfig())

	slots := []models.TimetableSlot{
		{CourseID: "c-1", FacultyID: "f-2", RoomID: "r-1", Day: "MONDAY", StartTime: "09:00", EndTime: "10:00", Purpose: PurposeLecture},
		{CourseID: "c-2", FacultyID: "f-2", RoomID: "r-1", Day: "MONDAY", StartTime: "10:00", EndTime: "11:00", Purpose: PurposeLecture},
	}

	result := validator.Validate(slots, courses, faculty, rooms)
	assert.True(t, result.IsValid)
	assert.Empty(t, result.Errors)
}

func TestValidateRoomDoubleBooking(t *testing.T) {
	courses, faculty, rooms := validatorFixtures()
	validator := NewScheduleValidator(DefaultConfig())

	slots := []models.TimetableSlot{
		{CourseID: "c-1", FacultyID: "f-1", RoomID: "r-1", Day: "MONDAY", StartTime: "09:00", EndTime: "10:00", Purpose: PurposeLecture},
		{CourseID: "c-2", FacultyID: "f-2", RoomID: "r-1", Day: "MONDAY", StartTime: "09:00", EndTime: "10:00", Purpose: PurposeLecture},
	}

	result := validator.Validate(slots, courses, faculty, rooms)
	assert.False(t, result.IsValid)

	found := false
	for _, issue := range result.Errors {
		if issue.Code == "room_double_booking" {
			found = true
			assert.Equal(t, models.SeverityHigh, issue.Severity)
			assert.ElementsMatch(t, []string{"c-1", "c-2"}, issue.Entities)
		}
	}
	assert.True(t, found)
}

func TestValidateFacultyDoubleBooking(t *testing.T) {
	courses, faculty, rooms := validatorFixtures()
	validator := NewScheduleValidator(DefaultConfig())

	slots := []models.TimetableSlot{
		{CourseID: "c-1", FacultyID: "f-2", RoomID: "r-1", Day: "MONDAY", StartTime: "09:00", EndTime: "10:00", Purpose: PurposeLecture},
		{CourseID: "c-2", FacultyID: "f-2", RoomID: "r-3", Day: "MONDAY", StartTime: "09:00", EndTime: "10:00", Purpose: PurposeLecture},
	}

	result := validator.Validate(slots, courses, faculty, rooms)
	assert.False(t, result.IsValid)

	found := false
	for _, issue := range result.Errors {
		if issue.Code == "faculty_double_booking" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestValidateCapacityOverflow(t *testing.T) {
	courses, faculty, rooms := validatorFixtures()
	validator := NewScheduleValidator(DefaultConfig())

	// CS101 estimates 60 students; room r-2 seats 30.
	slots := []models.TimetableSlot{
		{CourseID: "c-1", FacultyID: "f-2", RoomID: "r-2", Day: "MONDAY", StartTime: "09:00", EndTime: "10:00", Purpose: PurposeLecture},
	}

	result := validator.Validate(slots, courses, faculty, rooms)
	assert.False(t, result.IsValid)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "capacity_overflow", result.Errors[0].Code)
	assert.Contains(t, result.Errors[0].Description, "CS101")
}

func TestValidateLabSizeCapAvoidsFalseOverflow(t *testing.T) {
	courses, faculty, rooms := validatorFixtures()
	validator := NewScheduleValidator(DefaultConfig())

	// CS101 estimates 60 but lab sections cap at 30, which fits L-1.
	slots := []models.TimetableSlot{
		{CourseID: "c-1", FacultyID: "f-2", RoomID: "r-3", Day: "MONDAY", StartTime: "09:00", EndTime: "10:00", Purpose: PurposeLab},
	}

	result := validator.Validate(slots, courses, faculty, rooms)
	assert.True(t, result.IsValid)
}

func TestValidateLowUtilizationWarning(t *testing.T) {
	courses, faculty, rooms := validatorFixtures()
	validator := NewScheduleValidator(DefaultConfig())

	// CS401 estimates 20 students; room r-1 seats 80, 25% utilization.
	slots := []models.TimetableSlot{
		{CourseID: "c-3", FacultyID: "f-2", RoomID: "r-1", Day: "MONDAY", StartTime: "09:00", EndTime: "10:00", Purpose: PurposeLecture},
	}

	result := validator.Validate(slots, courses, faculty, rooms)
	assert.True(t, result.IsValid, "low utilization warns but does not invalidate")
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, "low_utilization", result.Warnings[0].Code)
	assert.Equal(t, models.SeverityLow, result.Warnings[0].Severity)
}

func TestValidateWorkloadOverage(t *testing.T) {
	courses, faculty, rooms := validatorFixtures()
	validator := NewScheduleValidator(DefaultConfig())

	// f-1 allows 2 hours per week but carries 3.
	slots := []models.TimetableSlot{
		{CourseID: "c-1", FacultyID: "f-1", RoomID: "r-1", Day: "MONDAY", StartTime: "09:00", EndTime: "10:00", Purpose: PurposeLecture},
		{CourseID: "c-1", FacultyID: "f-1", RoomID: "r-1", Day: "MONDAY", StartTime: "10:00", EndTime: "11:00", Purpose: PurposeLecture},
		{CourseID: "c-1", FacultyID: "f-1", RoomID: "r-1", Day: "TUESDAY", StartTime: "09:00", EndTime: "10:00", Purpose: PurposeLecture},
	}

	result := validator.Validate(slots, courses, faculty, rooms)
	found := false
	for _, w := range result.Warnings {
		if w.Code == "workload_overage" {
			found = true
			assert.Equal(t, models.SeverityMedium, w.Severity)
			assert.Contains(t, w.Description, "Dr. Rao")
		}
	}
	assert.True(t, found)
}

func TestValidateRoomTypeMismatchForLab(t *testing.T) {
	courses, faculty, rooms := validatorFixtures()
	validator := NewScheduleValidator(DefaultConfig())

	// CS401 lab session placed in a lecture room.
	slots := []models.TimetableSlot{
		{CourseID: "c-3", FacultyID: "f-2", RoomID: "r-2", Day: "MONDAY", StartTime: "09:00", EndTime: "10:00", Purpose: PurposeLab},
	}

	result := validator.Validate(slots, courses, faculty, rooms)
	found := false
	for _, w := range result.Warnings {
		if w.Code == "room_type_mismatch" {
			found = true
			assert.Equal(t, models.SeverityMedium, w.Severity)
		}
	}
	assert.True(t, found)
}

func TestValidateUnknownReferencesAreSkipped(t *testing.T) {
	courses, faculty, rooms := validatorFixtures()
	validator := NewScheduleValidator(DefaultConfig())

	slots := []models.TimetableSlot{
		{CourseID: "c-missing", FacultyID: "f-missing", RoomID: "r-missing", Day: "MONDAY", StartTime: "09:00", EndTime: "10:00", Purpose: PurposeLecture},
	}

	result := validator.Validate(slots, courses, faculty, rooms)
	assert.True(t, result.IsValid)
}

func TestValidateEmptySchedule(t *testing.T) {
	validator := NewScheduleValidator(DefaultConfig())
	result := validator.Validate(nil, nil, nil, nil)
	assert.True(t, result.IsValid)
	assert.Empty(t, result.Errors)
	assert.Empty(t, result.Warnings)
}
