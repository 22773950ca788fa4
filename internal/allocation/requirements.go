package allocation

import (
	"sort"
	"strconv"
	"strings"

	"github.com/noah-isme/campus-alloc-api/internal/models"
)

// Purpose labels which kind of teaching hour a placement serves.
const (
	PurposeLecture = "lecture"
	PurposeLab     = "lab"
)

const labSizeCap = 30

// courseLevel extracts the numeric level from a course code, e.g. "CS204" -> 204.
// Codes without digits degrade to 0.
func courseLevel(code string) int {
	start := -1
	for i, r := range code {
		if r >= '0' && r <= '9' {
			start = i
			break
		}
	}
	if start < 0 {
		return 0
	}
	end := start
	for end < len(code) && code[end] >= '0' && code[end] <= '9' {
		end++
	}
	level, err := strconv.Atoi(code[start:end])
	if err != nil {
		return 0
	}
	return level
}

// estimateCourseSize derives an expected headcount from the course level.
// Lower-level courses run larger sections.
func estimateCourseSize(code string) int {
	level := courseLevel(code)
	switch {
	case level < 200:
		return 60
	case level < 300:
		return 40
	case level < 400:
		return 30
	default:
		return 20
	}
}

// DeriveRequirements turns a course record into structured room requirements
// for the given purpose. Lab hours are capped at lab bench size and demand
// computer and equipment facilities; lecture hours accept lecture or tutorial
// rooms with no facility demands.
func DeriveRequirements(course models.Course, purpose string) models.CourseRequirements {
	size := estimateCourseSize(course.Code)

	req := models.CourseRequirements{
		CourseID:   course.ID,
		CourseCode: course.Code,
		Priority:   coursePriority(course),
	}

	if purpose == PurposeLab {
		if size > labSizeCap {
			size = labSizeCap
		}
		req.ExpectedSize = size
		req.RoomTypes = []models.RoomType{models.RoomTypeLab}
		req.RequiredFacilities = []string{"computers", "equipment"}
	} else {
		req.ExpectedSize = size
		req.RoomTypes = []models.RoomType{models.RoomTypeLecture, models.RoomTypeTutorial}
	}

	req.MinCapacity = req.ExpectedSize
	req.MaxCapacity = int(float64(req.ExpectedSize) * oversizedFactor)
	return req
}

// coursePriority ranks how hard a course is to place: heavy contact hours and
// lab-bearing courses first.
func coursePriority(course models.Course) models.Priority {
	switch {
	case course.LectureHours >= 4 || course.LabHours > 0:
		return models.PriorityHigh
	case course.LectureHours >= 3 || course.Credits >= 3:
		return models.PriorityMedium
	default:
		return models.PriorityLow
	}
}

// SortCoursesByDifficulty orders courses hardest-to-place first: descending
// lecture hours, ascending course level, lab-bearing before non-lab, then
// alphabetical by code for a stable total order.
func SortCoursesByDifficulty(courses []models.Course) []models.Course {
	sorted := make([]models.Course, len(courses))
	copy(sorted, courses)
	sort.SliceStable(sorted, func(i, j int) bool {
		return courseHarder(sorted[i], sorted[j])
	})
	return sorted
}

func courseHarder(a, b models.Course) bool {
	if a.LectureHours != b.LectureHours {
		return a.LectureHours > b.LectureHours
	}
	if la, lb := courseLevel(a.Code), courseLevel(b.Code); la != lb {
		return la < lb
	}
	if (a.LabHours > 0) != (b.LabHours > 0) {
		return a.LabHours > 0
	}
	return strings.Compare(a.Code, b.Code) < 0
}
