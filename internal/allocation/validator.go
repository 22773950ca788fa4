package allocation

import (
	"fmt"
	"sort"

	"github.com/noah-isme/campus-alloc-api/internal/models"
)

// ScheduleValidator is a pure post-hoc checker over a finished slot list.
// It re-detects double-booking even though the engine prevents it during
// generation; defense in depth against slots from other sources.
type ScheduleValidator struct {
	cfg Config
}

// NewScheduleValidator builds a validator.
func NewScheduleValidator(cfg Config) *ScheduleValidator {
	return &ScheduleValidator{cfg: cfg}
}

// Validate checks a slot list against the course, faculty and room catalogs.
func (v *ScheduleValidator) Validate(slots []models.TimetableSlot, courses []models.Course, faculty []models.Faculty, rooms []models.Room) models.ValidationResult {
	result := models.ValidationResult{
		Errors:      []models.ValidationIssue{},
		Warnings:    []models.ValidationIssue{},
		Suggestions: []string{},
	}

	coursesByID := make(map[string]models.Course, len(courses))
	for _, c := range courses {
		coursesByID[c.ID] = c
	}
	facultyByID := make(map[string]models.Faculty, len(faculty))
	for _, f := range faculty {
		facultyByID[f.ID] = f
	}
	roomsByID := make(map[string]models.Room, len(rooms))
	for _, r := range rooms {
		roomsByID[r.ID] = r
	}

	v.checkDoubleBooking(slots, &result)
	v.checkCapacity(slots, coursesByID, roomsByID, &result)
	v.checkWorkload(slots, facultyByID, &result)
	v.checkRoomTypes(slots, roomsByID, &result)

	result.IsValid = len(result.Errors) == 0
	return result
}

func (v *ScheduleValidator) checkDoubleBooking(slots []models.TimetableSlot, result *models.ValidationResult) {
	roomBookings := make(map[string][]string)
	facultyBookings := make(map[string][]string)
	for _, slot := range slots {
		roomKey := SlotKey(slot.RoomID, slot.Day, slot.StartTime)
		roomBookings[roomKey] = append(roomBookings[roomKey], slot.CourseID)
		if slot.FacultyID != "" {
			facKey := FacultySlotKey(slot.FacultyID, slot.Day, slot.StartTime)
			facultyBookings[facKey] = append(facultyBookings[facKey], slot.CourseID)
		}
	}

	for _, key := range sortedKeys(roomBookings) {
		if courses := roomBookings[key]; len(courses) > 1 {
			result.Errors = append(result.Errors, models.ValidationIssue{
				Code:        "room_double_booking",
				Severity:    models.SeverityHigh,
				Description: fmt.Sprintf("room slot %s is assigned to %d courses", key, len(courses)),
				Entities:    courses,
			})
			result.Suggestions = append(result.Suggestions, "move one of the clashing courses to a free room or slot")
		}
	}
	for _, key := range sortedKeys(facultyBookings) {
		if courses := facultyBookings[key]; len(courses) > 1 {
			result.Errors = append(result.Errors, models.ValidationIssue{
				Code:        "faculty_double_booking",
				Severity:    models.SeverityHigh,
				Description: fmt.Sprintf("faculty slot %s covers %d courses simultaneously", key, len(courses)),
				Entities:    courses,
			})
			result.Suggestions = append(result.Suggestions, "reassign one of the clashing courses to another faculty member")
		}
	}
}

func (v *ScheduleValidator) checkCapacity(slots []models.TimetableSlot, courses map[string]models.Course, rooms map[string]models.Room, result *models.ValidationResult) {
	for _, slot := range slots {
		course, courseOK := courses[slot.CourseID]
		room, roomOK := rooms[slot.RoomID]
		if !courseOK || !roomOK || room.Capacity <= 0 {
			continue
		}
		size := estimateCourseSize(course.Code)
		if slot.Purpose == PurposeLab && size > labSizeCap {
			size = labSizeCap
		}
		if size > room.Capacity {
			result.Errors = append(result.Errors, models.ValidationIssue{
				Code:        "capacity_overflow",
				Severity:    models.SeverityHigh,
				Description: fmt.Sprintf("%s expects ~%d students but room %s seats %d", course.Code, size, room.Code, room.Capacity),
				Entities:    []string{course.ID, room.ID},
			})
			result.Suggestions = append(result.Suggestions, fmt.Sprintf("move %s to a room seating at least %d", course.Code, size))
			continue
		}
		utilization := float64(size) / float64(room.Capacity) * 100
		if utilization < v.cfg.Thresholds.MinCapacityEfficiency {
			result.Warnings = append(result.Warnings, models.ValidationIssue{
				Code:        "low_utilization",
				Severity:    models.SeverityLow,
				Description: fmt.Sprintf("%s fills only %.0f%% of room %s", course.Code, utilization, room.Code),
				Entities:    []string{course.ID, room.ID},
			})
		}
	}
}

func (v *ScheduleValidator) checkWorkload(slots []models.TimetableSlot, faculty map[string]models.Faculty, result *models.ValidationResult) {
	hours := make(map[string]int)
	for _, slot := range slots {
		if slot.FacultyID != "" {
			hours[slot.FacultyID]++
		}
	}
	for _, facultyID := range sortedKeys(hours) {
		member, ok := faculty[facultyID]
		if !ok || member.MaxHoursPerWeek <= 0 {
			continue
		}
		if hours[facultyID] > member.MaxHoursPerWeek {
			result.Warnings = append(result.Warnings, models.ValidationIssue{
				Code:        "workload_overage",
				Severity:    models.SeverityMedium,
				Description: fmt.Sprintf("%s carries %d hours, above the %d hour limit", member.FullName, hours[facultyID], member.MaxHoursPerWeek),
				Entities:    []string{facultyID},
			})
			result.Suggestions = append(result.Suggestions, fmt.Sprintf("redistribute hours away from %s", member.FullName))
		}
	}
}

func (v *ScheduleValidator) checkRoomTypes(slots []models.TimetableSlot, rooms map[string]models.Room, result *models.ValidationResult) {
	for _, slot := range slots {
		if slot.Purpose != PurposeLab {
			continue
		}
		room, ok := rooms[slot.RoomID]
		if !ok || room.Type == models.RoomTypeLab {
			continue
		}
		result.Warnings = append(result.Warnings, models.ValidationIssue{
			Code:        "room_type_mismatch",
			Severity:    models.SeverityMedium,
			Description: fmt.Sprintf("lab session for course %s sits in %s room %s", slot.CourseID, room.Type, room.Code),
			Entities:    []string{slot.CourseID, room.ID},
		})
		result.Suggestions = append(result.Suggestions, fmt.Sprintf("move the lab session for %s into a lab room", slot.CourseID))
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
