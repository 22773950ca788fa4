package allocation

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/campus-alloc-api/internal/models"
)

// Orchestrator drives a full-timetable generation run. It owns the faculty
// round-robin rotation index; the engine owns slot occupancy. One orchestrator
// serves one run at a time.
type Orchestrator struct {
	engine      *Engine
	logger      *zap.Logger
	shuffleSeed int64
	rotation    int
}

// NewOrchestrator wires an orchestrator around an engine. shuffleSeed zero
// keeps the grid in deterministic day/time order; any other value applies an
// explicit, reproducible shuffle.
func NewOrchestrator(engine *Engine, logger *zap.Logger, shuffleSeed int64) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{engine: engine, logger: logger, shuffleSeed: shuffleSeed}
}

// AllocateRoomsForTimetable walks courses hardest-first across the time grid,
// assigning faculty and invoking the engine for lecture and lab hours
// separately. Courses that cannot be fully placed produce warnings, never
// aborts.
func (o *Orchestrator) AllocateRoomsForTimetable(
	courses []models.Course,
	rooms []models.Room,
	grid []models.TimeSlot,
	faculty []models.Faculty,
) ([]models.AllocationResult, []string) {
	ordered := SortCoursesByDifficulty(courses)
	slots := ShuffleTimeSlots(grid, o.shuffleSeed)

	var results []models.AllocationResult
	var warnings []string
	facultyHours := make(map[string]int)
	facultyBusy := make(map[string]bool)

	for _, course := range ordered {
		assignee := o.assignFaculty(course, faculty, facultyHours)
		usedSlots := make(map[string]bool)

		placed := o.placeHours(course, PurposeLecture, course.LectureHours, rooms, slots, assignee, usedSlots, facultyBusy, facultyHours, &results)
		if placed < course.LectureHours {
			warnings = append(warnings, o.underScheduled(course, PurposeLecture, placed, course.LectureHours))
		}

		if course.LabHours > 0 {
			placed = o.placeHours(course, PurposeLab, course.LabHours, rooms, slots, assignee, usedSlots, facultyBusy, facultyHours, &results)
			if placed < course.LabHours {
				warnings = append(warnings, o.underScheduled(course, PurposeLab, placed, course.LabHours))
			}
		}
	}

	return results, warnings
}

func (o *Orchestrator) placeHours(
	course models.Course,
	purpose string,
	target int,
	rooms []models.Room,
	slots []models.TimeSlot,
	assignee *models.Faculty,
	usedSlots map[string]bool,
	facultyBusy map[string]bool,
	facultyHours map[string]int,
	results *[]models.AllocationResult,
) int {
	if target <= 0 {
		return 0
	}
	req := DeriveRequirements(course, purpose)
	candidates := roomsForRequirement(rooms, req)
	if len(candidates) == 0 {
		return 0
	}

	placed := 0
	for _, slot := range slots {
		if placed == target {
			break
		}
		courseKey := fmt.Sprintf("%s|%s", strings.ToUpper(slot.Day), slot.StartTime)
		if usedSlots[courseKey] {
			continue
		}
		if assignee != nil && facultyBusy[FacultySlotKey(assignee.ID, slot.Day, slot.StartTime)] {
			continue
		}
		if o.engine.FindBestRoom(req, slot, candidates) == nil {
			continue
		}

		result := o.engine.AllocateRoom(req, slot, candidates)
		if result.SelectedRoom == nil {
			continue
		}
		result.Purpose = purpose
		if assignee != nil {
			result.FacultyID = assignee.ID
			facultyBusy[FacultySlotKey(assignee.ID, slot.Day, slot.StartTime)] = true
			facultyHours[assignee.ID]++
		}
		usedSlots[courseKey] = true
		*results = append(*results, result)
		placed++
	}
	return placed
}

// assignFaculty prefers declared expertise, then same-department staff, then
// anyone with spare capacity. Ties on current load rotate on the orchestrator
// rotation index so the round-robin stays deterministic.
func (o *Orchestrator) assignFaculty(course models.Course, faculty []models.Faculty, hours map[string]int) *models.Faculty {
	if len(faculty) == 0 {
		return nil
	}

	available := make([]models.Faculty, 0, len(faculty))
	for _, member := range faculty {
		if member.MaxHoursPerWeek > 0 && hours[member.ID] >= member.MaxHoursPerWeek {
			continue
		}
		available = append(available, member)
	}
	if len(available) == 0 {
		return nil
	}

	experts := filterFaculty(available, func(m models.Faculty) bool {
		return hasExpertise(m, course.Code)
	})
	if len(experts) > 0 {
		return o.rotatePick(experts, hours)
	}

	sameDept := filterFaculty(available, func(m models.Faculty) bool {
		return strings.EqualFold(m.Department, course.Department)
	})
	if len(sameDept) > 0 {
		return o.rotatePick(sameDept, hours)
	}

	return o.rotatePick(available, hours)
}

// rotatePick selects the least-loaded candidate, rotating among equal-lowest
// loads via the orchestrator-owned counter.
func (o *Orchestrator) rotatePick(candidates []models.Faculty, hours map[string]int) *models.Faculty {
	sort.SliceStable(candidates, func(i, j int) bool {
		hi, hj := hours[candidates[i].ID], hours[candidates[j].ID]
		if hi != hj {
			return hi < hj
		}
		return candidates[i].ID < candidates[j].ID
	})
	lowest := hours[candidates[0].ID]
	tied := 1
	for tied < len(candidates) && hours[candidates[tied].ID] == lowest {
		tied++
	}
	pick := candidates[o.rotation%tied]
	o.rotation++
	return &pick
}

func (o *Orchestrator) underScheduled(course models.Course, purpose string, placed, target int) string {
	warning := fmt.Sprintf("course %s: placed %d of %d %s hours", course.Code, placed, target, purpose)
	o.logger.Warn("course under-scheduled",
		zap.String("course", course.Code),
		zap.String("purpose", purpose),
		zap.Int("placed", placed),
		zap.Int("target", target))
	return warning
}

// roomsForRequirement restricts candidates to the acceptable room types for
// the placement purpose.
func roomsForRequirement(rooms []models.Room, req models.CourseRequirements) []models.Room {
	var result []models.Room
	for _, room := range rooms {
		for _, t := range req.RoomTypes {
			if room.Type == t {
				result = append(result, room)
				break
			}
		}
	}
	return result
}

func filterFaculty(members []models.Faculty, keep func(models.Faculty) bool) []models.Faculty {
	var result []models.Faculty
	for _, m := range members {
		if keep(m) {
			result = append(result, m)
		}
	}
	return result
}

func hasExpertise(member models.Faculty, courseCode string) bool {
	for _, subject := range member.Expertise {
		if strings.EqualFold(strings.TrimSpace(subject), courseCode) {
			return true
		}
	}
	return false
}
