package allocation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-alloc-api/internal/models"
)

func testCatalogs() ([]models.Room, []models.Course) {
	rooms := []models.Room{
		{ID: "r-1", Code: "A-101", Capacity: 60, Type: models.RoomTypeLecture, Facilities: []string{"projector"}},
		{ID: "r-2", Code: "L-1", Capacity: 30, Type: models.RoomTypeLab, Facilities: []string{"computers", "equipment"}},
	}
	courses := []models.Course{
		{ID: "c-1", Code: "CS101", Department: "CS"},
		{ID: "c-2", Code: "CS205", Department: "CS"},
	}
	return rooms, courses
}

func TestDetectConflictsOverlappingHardWindows(t *testing.T) {
	rooms, courses := testCatalogs()
	detector := NewConflictDetector(rooms, courses)

	prefs := models.FacultyPreferences{
		FacultyID: "f-1",
		TimePreferences: []models.TimePreference{
			{Day: "MONDAY", StartTime: "09:00", EndTime: "11:00", IsHardConstraint: true},
			{Day: "MONDAY", StartTime: "10:00", EndTime: "12:00", IsHardConstraint: true},
		},
	}

	result := detector.DetectConflicts("f-1", prefs, 20)
	assert.True(t, result.HasConflicts)

	require.Len(t, result.TimeConflicts, 1)
	assert.Equal(t, models.ConflictKindTime, result.TimeConflicts[0].Kind)
	assert.Equal(t, "overlap", result.TimeConflicts[0].Type)
	assert.Equal(t, models.SeverityHigh, result.TimeConflicts[0].Severity, "hard windows escalate the overlap")

	require.Len(t, result.ConstraintViolations, 1)
	assert.Equal(t, "hard_constraint", result.ConstraintViolations[0].Type)
	assert.NotEmpty(t, result.Suggestions)
}

func TestDetectConflictsSoftOverlapIsMedium(t *testing.T) {
	rooms, courses := testCatalogs()
	detector := NewConflictDetector(rooms, courses)

	prefs := models.FacultyPreferences{
		FacultyID: "f-1",
		TimePreferences: []models.TimePreference{
			{Day: "TUESDAY", StartTime: "09:00", EndTime: "11:00"},
			{Day: "TUESDAY", StartTime: "10:00", EndTime: "12:00"},
		},
	}

	result := detector.DetectConflicts("f-1", prefs, 20)
	require.Len(t, result.TimeConflicts, 1)
	assert.Equal(t, models.SeverityMedium, result.TimeConflicts[0].Severity)
	assert.Empty(t, result.ConstraintViolations)
}

func TestDetectConflictsOnlyOverlappingPairs(t *testing.T) {
	rooms, courses := testCatalogs()
	detector := NewConflictDetector(rooms, courses)

	prefs := models.FacultyPreferences{
		FacultyID: "f-1",
		TimePreferences: []models.TimePreference{
			{Day: "MONDAY", StartTime: "09:00", EndTime: "10:00"},
			{Day: "MONDAY", StartTime: "10:00", EndTime: "11:00"},
			{Day: "TUESDAY", StartTime: "09:00", EndTime: "10:00"},
		},
	}

	result := detector.DetectConflicts("f-1", prefs, 20)
	assert.False(t, result.HasConflicts, "back-to-back windows do not overlap")
	assert.Empty(t, result.TimeConflicts)
}

func TestDetectConflictsOvercommitment(t *testing.T) {
	rooms, courses := testCatalogs()
	detector := NewConflictDetector(rooms, courses)

	prefs := models.FacultyPreferences{
		FacultyID: "f-1",
		TimePreferences: []models.TimePreference{
			{Day: "MONDAY", StartTime: "08:00", EndTime: "14:00"},
			{Day: "WEDNESDAY", StartTime: "08:00", EndTime: "14:00"},
		},
	}

	result := detector.DetectConflicts("f-1", prefs, 10)
	require.Len(t, result.TimeConflicts, 1)
	assert.Equal(t, "overcommitment", result.TimeConflicts[0].Type)
	assert.Equal(t, models.SeverityHigh, result.TimeConflicts[0].Severity)
	assert.Contains(t, result.TimeConflicts[0].Description, "12.0 hours")
}

func TestDetectConflictsUnknownRoom(t *testing.T) {
	rooms, courses := testCatalogs()
	detector := NewConflictDetector(rooms, courses)

	prefs := models.FacultyPreferences{
		FacultyID:       "f-1",
		RoomPreferences: []models.RoomPreference{{RoomID: "r-missing"}},
	}

	result := detector.DetectConflicts("f-1", prefs, 20)
	require.Len(t, result.ResourceConflicts, 1)
	assert.Equal(t, "unknown_room", result.ResourceConflicts[0].Type)
	assert.Equal(t, models.SeverityHigh, result.ResourceConflicts[0].Severity)
}

func TestDetectConflictsUnavailableRoomType(t *testing.T) {
	courses := []models.Course{{ID: "c-1", Code: "CS101"}}
	rooms := []models.Room{{ID: "r-1", Code: "A-101", Type: models.RoomTypeLecture}}
	detector := NewConflictDetector(rooms, courses)

	prefs := models.FacultyPreferences{
		FacultyID:       "f-1",
		RoomPreferences: []models.RoomPreference{{RoomType: models.RoomTypeLab}},
	}

	result := detector.DetectConflicts("f-1", prefs, 20)
	require.Len(t, result.ResourceConflicts, 1)
	assert.Equal(t, "unavailable_room_type", result.ResourceConflicts[0].Type)
	assert.Equal(t, models.SeverityMedium, result.ResourceConflicts[0].Severity)
}

func TestDetectConflictsUnmatchedFacilities(t *testing.T) {
	rooms, courses := testCatalogs()
	detector := NewConflictDetector(rooms, courses)

	prefs := models.FacultyPreferences{
		FacultyID:       "f-1",
		RoomPreferences: []models.RoomPreference{{Facilities: []string{"planetarium dome"}}},
	}

	result := detector.DetectConflicts("f-1", prefs, 20)
	require.Len(t, result.ResourceConflicts, 1)
	assert.Equal(t, "unmatched_facilities", result.ResourceConflicts[0].Type)

	satisfiable := models.FacultyPreferences{
		FacultyID:       "f-1",
		RoomPreferences: []models.RoomPreference{{Facilities: []string{"computers"}}},
	}
	assert.Empty(t, detector.DetectConflicts("f-1", satisfiable, 20).ResourceConflicts)
}

func TestDetectConflictsUnknownCourse(t *testing.T) {
	rooms, courses := testCatalogs()
	detector := NewConflictDetector(rooms, courses)

	prefs := models.FacultyPreferences{
		FacultyID:          "f-1",
		SubjectPreferences: []models.SubjectPreference{{CourseCode: "XX999", Expertise: models.ExpertiseExpert}},
	}

	result := detector.DetectConflicts("f-1", prefs, 20)
	require.Len(t, result.ConstraintViolations, 1)
	assert.Equal(t, "unknown_course", result.ConstraintViolations[0].Type)
	assert.Equal(t, models.SeverityHigh, result.ConstraintViolations[0].Severity)
}

func TestDetectConflictsExpertiseMismatch(t *testing.T) {
	rooms, courses := testCatalogs()
	detector := NewConflictDetector(rooms, courses)

	prefs := models.FacultyPreferences{
		FacultyID: "f-1",
		SubjectPreferences: []models.SubjectPreference{
			{CourseCode: "CS101", Expertise: models.ExpertiseBasic, Priority: models.PriorityHigh},
		},
	}

	result := detector.DetectConflicts("f-1", prefs, 20)
	require.Len(t, result.ConstraintViolations, 1)
	assert.Equal(t, "expertise_mismatch", result.ConstraintViolations[0].Type)
	assert.Equal(t, models.SeverityLow, result.ConstraintViolations[0].Severity)
}

func TestDetectConflictsCleanPreferences(t *testing.T) {
	rooms, courses := testCatalogs()
	detector := NewConflictDetector(rooms, courses)

	prefs := models.FacultyPreferences{
		FacultyID: "f-1",
		RoomPreferences: []models.RoomPreference{
			{RoomID: "r-1", RoomType: models.RoomTypeLecture},
		},
		TimePreferences: []models.TimePreference{
			{Day: "MONDAY", StartTime: "09:00", EndTime: "11:00"},
			{Day: "WEDNESDAY", StartTime: "09:00", EndTime: "11:00"},
		},
		SubjectPreferences: []models.SubjectPreference{
			{CourseCode: "CS101", Expertise: models.ExpertiseExpert, Priority: models.PriorityHigh},
		},
	}

	result := detector.DetectConflicts("f-1", prefs, 20)
	assert.False(t, result.HasConflicts)
	assert.Empty(t, result.TimeConflicts)
	assert.Empty(t, result.ResourceConflicts)
	assert.Empty(t, result.ConstraintViolations)
}
