package models

// ConflictKind tags the unified preference-conflict variant.
type ConflictKind string

const (
	ConflictKindTime       ConflictKind = "time"
	ConflictKindResource   ConflictKind = "resource"
	ConflictKindConstraint ConflictKind = "constraint"
)

// PreferenceConflict is the single conflict shape shared by time, resource
// and constraint findings. Entities lists the ids or codes involved.
type PreferenceConflict struct {
	Kind        ConflictKind `json:"kind"`
	Type        string       `json:"type"`
	Severity    Severity     `json:"severity"`
	Description string       `json:"description"`
	Entities    []string     `json:"entities,omitempty"`
}

// ConflictDetectionResult is the outcome of validating one faculty member's
// declared preferences against the room and course catalogs.
type ConflictDetectionResult struct {
	FacultyID            string               `json:"faculty_id"`
	HasConflicts         bool                 `json:"has_conflicts"`
	TimeConflicts        []PreferenceConflict `json:"time_conflicts"`
	ResourceConflicts    []PreferenceConflict `json:"resource_conflicts"`
	ConstraintViolations []PreferenceConflict `json:"constraint_violations"`
	Suggestions          []string             `json:"suggestions"`
}

// ValidationIssue is a single finding from the post-hoc schedule check.
type ValidationIssue struct {
	Code        string   `json:"code"`
	Severity    Severity `json:"severity"`
	Description string   `json:"description"`
	Entities    []string `json:"entities,omitempty"`
}

// ValidationResult is the outcome of validating a finished slot list.
type ValidationResult struct {
	IsValid     bool              `json:"is_valid"`
	Errors      []ValidationIssue `json:"errors"`
	Warnings    []ValidationIssue `json:"warnings"`
	Suggestions []string          `json:"suggestions"`
}
