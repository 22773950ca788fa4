package allocation

import (
	"fmt"
	"strings"

	"github.com/noah-isme/campus-alloc-api/internal/models"
)

// ConflictDetector validates a faculty member's raw preference set against
// the room and course catalogs. It finds internal time overlaps,
// unsatisfiable resource preferences and workload violations.
type ConflictDetector struct {
	rooms   []models.Room
	courses []models.Course
}

// NewConflictDetector builds a detector over read-only catalog snapshots.
func NewConflictDetector(rooms []models.Room, courses []models.Course) *ConflictDetector {
	return &ConflictDetector{rooms: rooms, courses: courses}
}

// DetectConflicts runs all checks over one faculty member's preferences.
// maxHoursPerWeek bounds the total preferred teaching time.
func (d *ConflictDetector) DetectConflicts(facultyID string, prefs models.FacultyPreferences, maxHoursPerWeek int) models.ConflictDetectionResult {
	result := models.ConflictDetectionResult{
		FacultyID:            facultyID,
		TimeConflicts:        []models.PreferenceConflict{},
		ResourceConflicts:    []models.PreferenceConflict{},
		ConstraintViolations: []models.PreferenceConflict{},
		Suggestions:          []string{},
	}

	d.detectTimeConflicts(prefs, maxHoursPerWeek, &result)
	d.detectResourceConflicts(prefs, &result)
	d.detectConstraintViolations(prefs, &result)

	result.HasConflicts = len(result.TimeConflicts) > 0 ||
		len(result.ResourceConflicts) > 0 ||
		len(result.ConstraintViolations) > 0
	return result
}

func (d *ConflictDetector) detectTimeConflicts(prefs models.FacultyPreferences, maxHoursPerWeek int, result *models.ConflictDetectionResult) {
	windows := prefs.TimePreferences
	for i := 0; i < len(windows); i++ {
		for j := i + 1; j < len(windows); j++ {
			a, b := windows[i], windows[j]
			if !strings.EqualFold(a.Day, b.Day) {
				continue
			}
			aStart, aEnd := parseMinutes(a.StartTime), parseMinutes(a.EndTime)
			bStart, bEnd := parseMinutes(b.StartTime), parseMinutes(b.EndTime)
			if aStart < 0 || bStart < 0 || !rangesOverlap(aStart, aEnd, bStart, bEnd) {
				continue
			}
			severity := models.SeverityMedium
			if a.IsHardConstraint || b.IsHardConstraint {
				severity = models.SeverityHigh
			}
			result.TimeConflicts = append(result.TimeConflicts, models.PreferenceConflict{
				Kind:        models.ConflictKindTime,
				Type:        "overlap",
				Severity:    severity,
				Description: fmt.Sprintf("time preferences %s %s-%s and %s %s-%s overlap", a.Day, a.StartTime, a.EndTime, b.Day, b.StartTime, b.EndTime),
				Entities:    []string{windowLabel(a), windowLabel(b)},
			})
			result.Suggestions = append(result.Suggestions,
				fmt.Sprintf("shift the %s %s-%s window to a non-overlapping time", b.Day, b.StartTime, b.EndTime))
		}
	}

	totalMinutes := 0
	for _, w := range windows {
		start, end := parseMinutes(w.StartTime), parseMinutes(w.EndTime)
		if start >= 0 && end > start {
			totalMinutes += end - start
		}
	}
	if maxHoursPerWeek > 0 && totalMinutes > maxHoursPerWeek*60 {
		result.TimeConflicts = append(result.TimeConflicts, models.PreferenceConflict{
			Kind:        models.ConflictKindTime,
			Type:        "overcommitment",
			Severity:    models.SeverityHigh,
			Description: fmt.Sprintf("preferred windows total %.1f hours, above the %d hour weekly limit", float64(totalMinutes)/60, maxHoursPerWeek),
			Entities:    []string{prefs.FacultyID},
		})
		result.Suggestions = append(result.Suggestions, "trim preferred time windows to fit the weekly teaching limit")
	}
}

func (d *ConflictDetector) detectResourceConflicts(prefs models.FacultyPreferences, result *models.ConflictDetectionResult) {
	roomsByID := make(map[string]models.Room, len(d.rooms))
	typeCounts := make(map[models.RoomType]int, len(d.rooms))
	for _, room := range d.rooms {
		roomsByID[room.ID] = room
		typeCounts[room.Type]++
	}

	for _, pref := range prefs.RoomPreferences {
		if pref.RoomID != "" {
			if _, ok := roomsByID[pref.RoomID]; !ok {
				result.ResourceConflicts = append(result.ResourceConflicts, models.PreferenceConflict{
					Kind:        models.ConflictKindResource,
					Type:        "unknown_room",
					Severity:    models.SeverityHigh,
					Description: fmt.Sprintf("preferred room %s does not exist in the inventory", pref.RoomID),
					Entities:    []string{pref.RoomID},
				})
				result.Suggestions = append(result.Suggestions, "pick a preferred room from the current inventory")
			}
		}
		if pref.RoomType != "" && typeCounts[pref.RoomType] == 0 {
			result.ResourceConflicts = append(result.ResourceConflicts, models.PreferenceConflict{
				Kind:        models.ConflictKindResource,
				Type:        "unavailable_room_type",
				Severity:    models.SeverityMedium,
				Description: fmt.Sprintf("no %s rooms exist in the inventory", pref.RoomType),
				Entities:    []string{string(pref.RoomType)},
			})
			result.Suggestions = append(result.Suggestions,
				fmt.Sprintf("prefer an available room type instead of %s", pref.RoomType))
		}
		if len(pref.Facilities) > 0 && !d.anyRoomHasFacilities(pref.Facilities) {
			result.ResourceConflicts = append(result.ResourceConflicts, models.PreferenceConflict{
				Kind:        models.ConflictKindResource,
				Type:        "unmatched_facilities",
				Severity:    models.SeverityMedium,
				Description: fmt.Sprintf("no room offers all of: %s", strings.Join(pref.Facilities, ", ")),
				Entities:    pref.Facilities,
			})
			result.Suggestions = append(result.Suggestions, "relax the facility preference to match existing rooms")
		}
	}
}

func (d *ConflictDetector) anyRoomHasFacilities(facilities []string) bool {
	for _, room := range d.rooms {
		all := true
		for _, f := range facilities {
			if facilityCredit(room.Facilities, f) == 0 {
				all = false
				break
			}
		}
		if all {
			return true
		}
	}
	return false
}

func (d *ConflictDetector) detectConstraintViolations(prefs models.FacultyPreferences, result *models.ConflictDetectionResult) {
	// Overlapping hard windows are a constraint violation on top of the
	// plain time conflict.
	hard := make([]models.TimePreference, 0, len(prefs.TimePreferences))
	for _, w := range prefs.TimePreferences {
		if w.IsHardConstraint {
			hard = append(hard, w)
		}
	}
	for i := 0; i < len(hard); i++ {
		for j := i + 1; j < len(hard); j++ {
			a, b := hard[i], hard[j]
			if !strings.EqualFold(a.Day, b.Day) {
				continue
			}
			aStart, aEnd := parseMinutes(a.StartTime), parseMinutes(a.EndTime)
			bStart, bEnd := parseMinutes(b.StartTime), parseMinutes(b.EndTime)
			if aStart < 0 || bStart < 0 || !rangesOverlap(aStart, aEnd, bStart, bEnd) {
				continue
			}
			result.ConstraintViolations = append(result.ConstraintViolations, models.PreferenceConflict{
				Kind:        models.ConflictKindConstraint,
				Type:        "hard_constraint",
				Severity:    models.SeverityHigh,
				Description: fmt.Sprintf("hard constraints %s and %s cannot both hold", windowLabel(a), windowLabel(b)),
				Entities:    []string{windowLabel(a), windowLabel(b)},
			})
		}
	}

	coursesByCode := make(map[string]models.Course, len(d.courses))
	for _, course := range d.courses {
		coursesByCode[strings.ToUpper(course.Code)] = course
	}
	for _, pref := range prefs.SubjectPreferences {
		if _, ok := coursesByCode[strings.ToUpper(pref.CourseCode)]; !ok {
			result.ConstraintViolations = append(result.ConstraintViolations, models.PreferenceConflict{
				Kind:        models.ConflictKindConstraint,
				Type:        "unknown_course",
				Severity:    models.SeverityHigh,
				Description: fmt.Sprintf("subject preference references unknown course %s", pref.CourseCode),
				Entities:    []string{pref.CourseCode},
			})
			result.Suggestions = append(result.Suggestions,
				fmt.Sprintf("remove or correct the preference for %s", pref.CourseCode))
			continue
		}
		if pref.Priority == models.PriorityHigh &&
			(pref.Expertise == models.ExpertiseBasic || pref.Expertise == models.ExpertiseWilling) {
			result.ConstraintViolations = append(result.ConstraintViolations, models.PreferenceConflict{
				Kind:        models.ConflictKindConstraint,
				Type:        "expertise_mismatch",
				Severity:    models.SeverityLow,
				Description: fmt.Sprintf("high priority on %s with only %s expertise", pref.CourseCode, pref.Expertise),
				Entities:    []string{pref.CourseCode},
			})
		}
	}
}

func windowLabel(w models.TimePreference) string {
	return fmt.Sprintf("%s %s-%s", w.Day, w.StartTime, w.EndTime)
}
