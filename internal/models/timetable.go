package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// TimetableStatus tracks the lifecycle of a stored timetable version.
type TimetableStatus string

const (
	TimetableStatusDraft     TimetableStatus = "DRAFT"
	TimetableStatusPublished TimetableStatus = "PUBLISHED"
)

// Timetable is a persisted, versioned generation run for a department/term.
type Timetable struct {
	ID         string          `db:"id" json:"id"`
	Department string          `db:"department" json:"department"`
	Term       string          `db:"term" json:"term"`
	Version    int             `db:"version" json:"version"`
	Status     TimetableStatus `db:"status" json:"status"`
	Meta       types.JSONText  `db:"meta" json:"meta,omitempty"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time       `db:"updated_at" json:"updated_at"`
}

// TimetableSlot is one persisted placement within a timetable version.
type TimetableSlot struct {
	ID          string  `db:"id" json:"id"`
	TimetableID string  `db:"timetable_id" json:"timetable_id"`
	CourseID    string  `db:"course_id" json:"course_id"`
	FacultyID   string  `db:"faculty_id" json:"faculty_id"`
	RoomID      string  `db:"room_id" json:"room_id"`
	Day         string  `db:"day" json:"day"`
	StartTime   string  `db:"start_time" json:"start_time"`
	EndTime     string  `db:"end_time" json:"end_time"`
	Purpose     string  `db:"purpose" json:"purpose"`
	Confidence  float64 `db:"confidence" json:"confidence"`
}
