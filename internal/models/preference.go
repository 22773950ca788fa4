package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// ExpertiseLevel grades how strongly a faculty member can teach a subject.
type ExpertiseLevel string

const (
	ExpertiseExpert     ExpertiseLevel = "expert"
	ExpertiseProficient ExpertiseLevel = "proficient"
	ExpertiseBasic      ExpertiseLevel = "basic"
	ExpertiseWilling    ExpertiseLevel = "willing"
)

// RoomPreference expresses a faculty member's preferred teaching space.
type RoomPreference struct {
	RoomID     string   `json:"room_id,omitempty"`
	RoomType   RoomType `json:"room_type,omitempty"`
	Building   string   `json:"building,omitempty"`
	Facilities []string `json:"facilities,omitempty"`
	Weight     float64  `json:"weight"`
	Priority   Priority `json:"priority"`
}

// TimePreference expresses a preferred (or mandatory) teaching window.
type TimePreference struct {
	Day              string   `json:"day"`
	StartTime        string   `json:"start_time"`
	EndTime          string   `json:"end_time"`
	Weight           float64  `json:"weight"`
	Priority         Priority `json:"priority"`
	IsHardConstraint bool     `json:"is_hard_constraint"`
}

// SubjectPreference expresses willingness and expertise for a course code.
type SubjectPreference struct {
	CourseCode string         `json:"course_code"`
	Expertise  ExpertiseLevel `json:"expertise"`
	Weight     float64        `json:"weight"`
	Priority   Priority       `json:"priority"`
}

// PreferenceConstraint is a declared workload rule, e.g. max hours per week.
type PreferenceConstraint struct {
	Type        string  `json:"type"`
	Value       float64 `json:"value"`
	Description string  `json:"description,omitempty"`
}

// FacultyPreferences aggregates everything one faculty member has declared.
type FacultyPreferences struct {
	FacultyID          string                 `json:"faculty_id"`
	RoomPreferences    []RoomPreference       `json:"room_preferences"`
	TimePreferences    []TimePreference       `json:"time_preferences"`
	SubjectPreferences []SubjectPreference    `json:"subject_preferences"`
	Constraints        []PreferenceConstraint `json:"constraints"`
}

// FacultyPreferenceRecord is the persisted form of FacultyPreferences.
// The declared preferences live in a JSON payload column.
type FacultyPreferenceRecord struct {
	ID        string         `db:"id" json:"id"`
	FacultyID string         `db:"faculty_id" json:"faculty_id"`
	Payload   types.JSONText `db:"payload" json:"payload"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt time.Time      `db:"updated_at" json:"updated_at"`
}

// SatisfactionBand labels an overall preference score.
type SatisfactionBand string

const (
	SatisfactionExcellent  SatisfactionBand = "excellent"
	SatisfactionGood       SatisfactionBand = "good"
	SatisfactionAcceptable SatisfactionBand = "acceptable"
	SatisfactionPoor       SatisfactionBand = "poor"
)

// PreferenceScore is the outcome of scoring one candidate assignment
// against a single preference axis or the combined axes.
type PreferenceScore struct {
	Score               float64  `json:"score"`
	MatchedPreferences  []string `json:"matched_preferences,omitempty"`
	ViolatedConstraints []string `json:"violated_constraints,omitempty"`
	Suggestions         []string `json:"suggestions,omitempty"`
}
