package allocation

import (
	"fmt"
	"math/rand"
	"sort"
	"strconv"
	"strings"

	"github.com/noah-isme/campus-alloc-api/internal/models"
)

var dayOrder = map[string]int{
	"MONDAY":    1,
	"TUESDAY":   2,
	"WEDNESDAY": 3,
	"THURSDAY":  4,
	"FRIDAY":    5,
	"SATURDAY":  6,
}

// DayIndex returns the ordering index of a weekday name, or 0 when unknown.
func DayIndex(day string) int {
	return dayOrder[strings.ToUpper(strings.TrimSpace(day))]
}

// SlotKey identifies a (room, day, start-time) booking.
func SlotKey(roomID, day, startTime string) string {
	return fmt.Sprintf("%s|%s|%s", roomID, strings.ToUpper(day), startTime)
}

// FacultySlotKey identifies a (faculty, day, start-time) booking.
func FacultySlotKey(facultyID, day, startTime string) string {
	return fmt.Sprintf("%s|%s|%s", facultyID, strings.ToUpper(day), startTime)
}

// parseMinutes converts an HH:MM string into minutes since midnight.
// Malformed input degrades to -1 rather than failing.
func parseMinutes(hhmm string) int {
	parts := strings.SplitN(strings.TrimSpace(hhmm), ":", 2)
	if len(parts) != 2 {
		return -1
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return -1
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return -1
	}
	return h*60 + m
}

// slotDuration returns the slot length in minutes, or 0 for malformed ranges.
func slotDuration(slot models.TimeSlot) int {
	start := parseMinutes(slot.StartTime)
	end := parseMinutes(slot.EndTime)
	if start < 0 || end <= start {
		return 0
	}
	return end - start
}

// rangesOverlap applies the half-open interval test: start1<end2 && start2<end1.
func rangesOverlap(start1, end1, start2, end2 int) bool {
	return start1 < end2 && start2 < end1
}

// overlapMinutes returns how many minutes two half-open ranges share.
func overlapMinutes(start1, end1, start2, end2 int) int {
	low := start1
	if start2 > low {
		low = start2
	}
	high := end1
	if end2 < high {
		high = end2
	}
	if high <= low {
		return 0
	}
	return high - low
}

// ValidInterval reports whether start and end form a well-formed HH:MM range.
func ValidInterval(start, end string) bool {
	s, e := parseMinutes(start), parseMinutes(end)
	return s >= 0 && e > s
}

// IntervalsOverlap reports whether two grid cells share any minutes. Days are
// not compared, callers filter by day first.
func IntervalsOverlap(a, b models.TimeSlot) bool {
	return rangesOverlap(
		parseMinutes(a.StartTime), parseMinutes(a.EndTime),
		parseMinutes(b.StartTime), parseMinutes(b.EndTime),
	)
}

// SortTimeSlots orders a grid deterministically: day order Monday..Saturday,
// then start time. Repeated runs over identical input walk the grid the same way.
func SortTimeSlots(slots []models.TimeSlot) []models.TimeSlot {
	sorted := make([]models.TimeSlot, len(slots))
	copy(sorted, slots)
	sort.SliceStable(sorted, func(i, j int) bool {
		di, dj := DayIndex(sorted[i].Day), DayIndex(sorted[j].Day)
		if di != dj {
			return di < dj
		}
		return sorted[i].StartTime < sorted[j].StartTime
	})
	return sorted
}

// ShuffleTimeSlots reorders the grid with an explicit seed. Seed zero keeps
// the deterministic sorted order; shuffling is always caller-controlled.
func ShuffleTimeSlots(slots []models.TimeSlot, seed int64) []models.TimeSlot {
	sorted := SortTimeSlots(slots)
	if seed == 0 {
		return sorted
	}
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(sorted), func(i, j int) {
		sorted[i], sorted[j] = sorted[j], sorted[i]
	})
	return sorted
}
