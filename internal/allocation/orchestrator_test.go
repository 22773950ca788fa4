package allocation

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-alloc-api/internal/models"
)

func newTestOrchestrator(gridSize int) *Orchestrator {
	cfg := DefaultConfig()
	engine := NewEngine(NewSuitabilityAnalyzer(cfg), NewUtilizationTracker(gridSize, cfg), cfg, nil)
	return NewOrchestrator(engine, nil, 0)
}

func testGrid(days ...string) []models.TimeSlot {
	var grid []models.TimeSlot
	for _, day := range days {
		for _, start := range []string{"09:00", "10:00", "11:00", "12:00"} {
			grid = append(grid, models.TimeSlot{
				ID:        fmt.Sprintf("%s-%s", day, start),
				Day:       day,
				StartTime: start,
				EndTime:   fmt.Sprintf("%02d:00", parseMinutes(start)/60+1),
			})
		}
	}
	return grid
}

func TestOrchestratorPlacesAllHours(t *testing.T) {
	orch := newTestOrchestrator(8)
	courses := []models.Course{{ID: "c-1", Code: "CS201", Department: "CS", LectureHours: 3}}
	rooms := []models.Room{{ID: "r-1", Code: "A-101", Capacity: 55, Type: models.RoomTypeLecture}}
	faculty := []models.Faculty{{ID: "f-1", FullName: "Dr. Rao", Department: "CS", MaxHoursPerWeek: 20}}

	results, warnings := orch.AllocateRoomsForTimetable(courses, rooms, testGrid("MONDAY", "TUESDAY"), faculty)
	assert.Empty(t, warnings)
	require.Len(t, results, 3)
	for _, r := range results {
		assert.Equal(t, "c-1", r.CourseID)
		assert.Equal(t, PurposeLecture, r.Purpose)
		assert.Equal(t, "f-1", r.FacultyID)
		require.NotNil(t, r.SelectedRoom)
	}
}

func TestOrchestratorSplitsLectureAndLabRooms(t *testing.T) {
	orch := newTestOrchestrator(8)
	courses := []models.Course{{ID: "c-1", Code: "CS205", Department: "CS", LectureHours: 2, LabHours: 1}}
	rooms := []models.Room{
		{ID: "r-lec", Code: "A-101", Capacity: 55, Type: models.RoomTypeLecture},
		{ID: "r-lab", Code: "L-1", Capacity: 35, Type: models.RoomTypeLab, Facilities: []string{"computers", "equipment"}},
	}
	faculty := []models.Faculty{{ID: "f-1", FullName: "Dr. Rao", Department: "CS", MaxHoursPerWeek: 20}}

	results, warnings := orch.AllocateRoomsForTimetable(courses, rooms, testGrid("MONDAY"), faculty)
	assert.Empty(t, warnings)
	require.Len(t, results, 3)

	for _, r := range results {
		require.NotNil(t, r.SelectedRoom)
		switch r.Purpose {
		case PurposeLab:
			assert.Equal(t, "r-lab", r.SelectedRoom.ID, "lab hours only land in lab rooms")
		case PurposeLecture:
			assert.Equal(t, "r-lec", r.SelectedRoom.ID, "lecture hours never land in lab rooms")
		}
	}
}

func TestOrchestratorWarnsWhenUnderScheduled(t *testing.T) {
	orch := newTestOrchestrator(2)
	courses := []models.Course{{ID: "c-1", Code: "CS201", Department: "CS", LectureHours: 5}}
	rooms := []models.Room{{ID: "r-1", Code: "A-101", Capacity: 55, Type: models.RoomTypeLecture}}

	grid := []models.TimeSlot{
		{ID: "ts-1", Day: "MONDAY", StartTime: "09:00", EndTime: "10:00"},
		{ID: "ts-2", Day: "MONDAY", StartTime: "10:00", EndTime: "11:00"},
	}

	results, warnings := orch.AllocateRoomsForTimetable(courses, rooms, grid, nil)
	assert.Len(t, results, 2)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "CS201")
	assert.Contains(t, warnings[0], "placed 2 of 5")
}

func TestOrchestratorNeverDoubleBooksRooms(t *testing.T) {
	orch := newTestOrchestrator(8)
	courses := []models.Course{
		{ID: "c-1", Code: "CS101", Department: "CS", LectureHours: 3},
		{ID: "c-2", Code: "CS102", Department: "CS", LectureHours: 3},
		{ID: "c-3", Code: "MA101", Department: "MATH", LectureHours: 2},
	}
	rooms := []models.Room{
		{ID: "r-1", Code: "A-101", Capacity: 80, Type: models.RoomTypeLecture},
		{ID: "r-2", Code: "A-102", Capacity: 90, Type: models.RoomTypeLecture},
	}
	faculty := []models.Faculty{
		{ID: "f-1", FullName: "Dr. Rao", Department: "CS", MaxHoursPerWeek: 20},
		{ID: "f-2", FullName: "Dr. Iyer", Department: "MATH", MaxHoursPerWeek: 20},
	}

	results, _ := orch.AllocateRoomsForTimetable(courses, rooms, testGrid("MONDAY", "TUESDAY"), faculty)

	roomKeys := make(map[string]bool)
	facultyKeys := make(map[string]bool)
	for _, r := range results {
		require.NotNil(t, r.SelectedRoom)
		key := SlotKey(r.SelectedRoom.ID, r.Slot.Day, r.Slot.StartTime)
		assert.False(t, roomKeys[key], "room booked twice at %s", key)
		roomKeys[key] = true

		if r.FacultyID != "" {
			fKey := FacultySlotKey(r.FacultyID, r.Slot.Day, r.Slot.StartTime)
			assert.False(t, facultyKeys[fKey], "faculty double-booked at %s", fKey)
			facultyKeys[fKey] = true
		}
	}
}

func TestOrchestratorIsDeterministic(t *testing.T) {
	run := func() []models.AllocationResult {
		orch := newTestOrchestrator(8)
		courses := []models.Course{
			{ID: "c-1", Code: "CS101", Department: "CS", LectureHours: 2},
			{ID: "c-2", Code: "CS205", Department: "CS", LectureHours: 2, LabHours: 1},
		}
		rooms := []models.Room{
			{ID: "r-1", Code: "A-101", Capacity: 80, Type: models.RoomTypeLecture},
			{ID: "r-2", Code: "A-102", Capacity: 80, Type: models.RoomTypeLecture},
			{ID: "r-3", Code: "L-1", Capacity: 35, Type: models.RoomTypeLab, Facilities: []string{"computers", "equipment"}},
		}
		faculty := []models.Faculty{
			{ID: "f-1", FullName: "Dr. Rao", Department: "CS", MaxHoursPerWeek: 20},
			{ID: "f-2", FullName: "Dr. Iyer", Department: "CS", MaxHoursPerWeek: 20},
		}
		results, _ := orch.AllocateRoomsForTimetable(courses, rooms, testGrid("MONDAY", "TUESDAY"), faculty)
		return results
	}

	first := run()
	second := run()
	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].CourseID, second[i].CourseID)
		assert.Equal(t, first[i].FacultyID, second[i].FacultyID)
		assert.Equal(t, first[i].SelectedRoom.ID, second[i].SelectedRoom.ID)
		assert.Equal(t, first[i].Slot.ID, second[i].Slot.ID)
	}
}

func TestOrchestratorPrefersExpertFaculty(t *testing.T) {
	orch := newTestOrchestrator(8)
	courses := []models.Course{{ID: "c-1", Code: "CS301", Department: "CS", LectureHours: 1}}
	rooms := []models.Room{{ID: "r-1", Code: "A-101", Capacity: 40, Type: models.RoomTypeLecture}}
	faculty := []models.Faculty{
		{ID: "f-generalist", FullName: "Dr. Iyer", Department: "CS", MaxHoursPerWeek: 20},
		{ID: "f-expert", FullName: "Dr. Rao", Department: "CS", Expertise: []string{"CS301"}, MaxHoursPerWeek: 20},
	}

	results, _ := orch.AllocateRoomsForTimetable(courses, rooms, testGrid("MONDAY"), faculty)
	require.Len(t, results, 1)
	assert.Equal(t, "f-expert", results[0].FacultyID)
}

func TestOrchestratorSkipsSaturatedFaculty(t *testing.T) {
	orch := newTestOrchestrator(8)
	courses := []models.Course{
		{ID: "c-1", Code: "CS101", Department: "CS", LectureHours: 2},
		{ID: "c-2", Code: "CS102", Department: "CS", LectureHours: 2},
	}
	rooms := []models.Room{{ID: "r-1", Code: "A-101", Capacity: 80, Type: models.RoomTypeLecture}}
	faculty := []models.Faculty{
		{ID: "f-1", FullName: "Dr. Rao", Department: "CS", MaxHoursPerWeek: 2},
		{ID: "f-2", FullName: "Dr. Iyer", Department: "CS", MaxHoursPerWeek: 20},
	}

	results, _ := orch.AllocateRoomsForTimetable(courses, rooms, testGrid("MONDAY", "TUESDAY"), faculty)
	require.Len(t, results, 4)

	hours := make(map[string]int)
	for _, r := range results {
		hours[r.FacultyID]++
	}
	assert.LessOrEqual(t, hours["f-1"], 2, "weekly cap holds")
}

func TestOrchestratorHandlesEmptyInputs(t *testing.T) {
	orch := newTestOrchestrator(8)
	results, warnings := orch.AllocateRoomsForTimetable(nil, nil, nil, nil)
	assert.Empty(t, results)
	assert.Empty(t, warnings)
}
