package dto

import (
	"github.com/noah-isme/campus-alloc-api/internal/models"
)

// GenerateTimetableRequest instructs the engine to build an allocation
// proposal for a department and term.
type GenerateTimetableRequest struct {
	Department  string `json:"department" validate:"required"`
	Term        string `json:"term" validate:"required"`
	ShuffleSeed int64  `json:"shuffleSeed" validate:"omitempty,min=0"`
	Method      string `json:"method" validate:"omitempty,oneof=greedy balanced"`
}

// GenerateTimetableResponse returns the built allocation proposal.
type GenerateTimetableResponse struct {
	ProposalID string                    `json:"proposalId"`
	Results    []models.AllocationResult `json:"results"`
	Warnings   []string                  `json:"warnings,omitempty"`
	Metrics    models.AllocationMetrics  `json:"metrics"`
}

// SaveTimetableRequest persists a proposal into a versioned timetable.
type SaveTimetableRequest struct {
	ProposalID string `json:"proposalId" validate:"required"`
	Publish    bool   `json:"publish"`
}

// TimetableQuery filters timetable summaries by department and term.
type TimetableQuery struct {
	Department string `form:"department" json:"department"`
	Term       string `form:"term" json:"term"`
}

// ScoreAssignmentRequest rates a candidate placement against a faculty
// member's declared preferences.
type ScoreAssignmentRequest struct {
	FacultyID  string `json:"facultyId" validate:"required"`
	CourseID   string `json:"courseId" validate:"required"`
	RoomID     string `json:"roomId" validate:"required"`
	TimeSlotID string `json:"timeSlotId" validate:"required"`
}

// ScoreAssignmentResponse carries the combined score and its banding.
type ScoreAssignmentResponse struct {
	Score        models.PreferenceScore  `json:"score"`
	Satisfaction models.SatisfactionBand `json:"satisfaction"`
	Completeness float64                 `json:"completeness"`
}

// UpsertPreferencesRequest replaces a faculty member's declared preferences.
type UpsertPreferencesRequest struct {
	RoomPreferences    []models.RoomPreference       `json:"room_preferences" validate:"omitempty,dive"`
	TimePreferences    []models.TimePreference       `json:"time_preferences" validate:"omitempty,dive"`
	SubjectPreferences []models.SubjectPreference    `json:"subject_preferences" validate:"omitempty,dive"`
	Constraints        []models.PreferenceConstraint `json:"constraints" validate:"omitempty,dive"`
}

// ValidateTimetableResponse wraps a validation verdict for a stored timetable.
type ValidateTimetableResponse struct {
	TimetableID string                  `json:"timetableId"`
	Result      models.ValidationResult `json:"result"`
}
