package models

// CourseRequirements is derived from a Course, never persisted.
type CourseRequirements struct {
	CourseID           string     `json:"course_id"`
	CourseCode         string     `json:"course_code"`
	ExpectedSize       int        `json:"expected_size"`
	RoomTypes          []RoomType `json:"room_types"`
	RequiredFacilities []string   `json:"required_facilities"`
	MinCapacity        int        `json:"min_capacity"`
	MaxCapacity        int        `json:"max_capacity"`
	Priority           Priority   `json:"priority"`
}

// SuitabilityScore grades one room against one requirement set. All axes in [0,100].
type SuitabilityScore struct {
	Capacity float64 `json:"capacity"`
	Type     float64 `json:"type"`
	Facility float64 `json:"facility"`
	Overall  float64 `json:"overall"`
}

// ConflictType enumerates allocation conflict categories.
type ConflictType string

const (
	ConflictRoomUnavailable  ConflictType = "room_unavailable"
	ConflictCapacityMismatch ConflictType = "capacity_mismatch"
	ConflictTypeIncompatible ConflictType = "type_incompatible"
	ConflictFacilityMissing  ConflictType = "facility_missing"
)

// AllocationConflict describes a problem with a produced allocation.
// Conflicts are data for the caller to weigh, they never abort a run.
type AllocationConflict struct {
	Type        ConflictType `json:"type"`
	Severity    Severity     `json:"severity"`
	Description string       `json:"description"`
	Suggestion  string       `json:"suggestion,omitempty"`
	Slot        *TimeSlot    `json:"slot,omitempty"`
}

// AllocationResult is the outcome of placing one hour-unit of a course.
type AllocationResult struct {
	CourseID         string               `json:"course_id"`
	CourseCode       string               `json:"course_code"`
	FacultyID        string               `json:"faculty_id,omitempty"`
	Purpose          string               `json:"purpose,omitempty"`
	Slot             TimeSlot             `json:"slot"`
	SelectedRoom     *Room                `json:"selected_room"`
	Confidence       float64              `json:"confidence"`
	AlternativeRooms []Room               `json:"alternative_rooms,omitempty"`
	Conflicts        []AllocationConflict `json:"conflicts,omitempty"`
	Reasoning        string               `json:"reasoning"`
}

// UtilizationBalance summarises per-room load spread across a generation run.
type UtilizationBalance struct {
	MaxUtilization     float64 `json:"max_utilization"`
	MinUtilization     float64 `json:"min_utilization"`
	AverageUtilization float64 `json:"average_utilization"`
	StandardDeviation  float64 `json:"standard_deviation"`
	IsBalanced         bool    `json:"is_balanced"`
}

// AllocationMetrics aggregates quality measures over a finished run.
type AllocationMetrics struct {
	RoomUtilization       map[string]float64 `json:"room_utilization"`
	CapacityEfficiency    map[string]float64 `json:"capacity_efficiency"`
	TypeMatchAccuracy     float64            `json:"type_match_accuracy"`
	FacilityMatchRate     float64            `json:"facility_match_rate"`
	ConflictRate          float64            `json:"conflict_rate"`
	BalanceScore          float64            `json:"balance_score"`
	TotalAllocations      int                `json:"total_allocations"`
	SuccessfulAllocations int                `json:"successful_allocations"`
}
