package allocation

import (
	"strings"

	"github.com/noah-isme/campus-alloc-api/internal/models"
)

// Capacity scoring curve constants. Utilization ratio u = expectedSize/capacity
// peaks at idealUtilization and degrades toward the floor/ceiling outside the
// comfortable band.
const (
	idealUtilization = 0.75
	comfortLow       = 0.6
	comfortHigh      = 0.9
	stretchLow       = 0.4
	stretchHigh      = 0.95
	overcrowdedFloor = 10.0
	wastefulCeiling  = 60.0
	oversizedFactor  = 2.5
)

// SuitabilityAnalyzer scores rooms against course requirements. Scoring is
// total: malformed inputs degrade to zero scores, never errors.
type SuitabilityAnalyzer struct {
	cfg Config
}

// NewSuitabilityAnalyzer builds an analyzer with the given configuration.
func NewSuitabilityAnalyzer(cfg Config) *SuitabilityAnalyzer {
	return &SuitabilityAnalyzer{cfg: cfg}
}

// EvaluateRoomSuitability scores one room on capacity, type and facility axes
// and combines them with the configured weights. The utilization weight share
// is reserved for the engine and intentionally absent here.
func (a *SuitabilityAnalyzer) EvaluateRoomSuitability(room models.Room, req models.CourseRequirements) models.SuitabilityScore {
	capacity := a.capacityScore(room, req)
	roomType := a.typeScore(room, req)
	facility := a.facilityScore(room, req)

	overall := capacity*a.cfg.Weights.Capacity +
		roomType*a.cfg.Weights.RoomType +
		facility*a.cfg.Weights.Facilities

	return models.SuitabilityScore{
		Capacity: round2(capacity),
		Type:     round2(roomType),
		Facility: round2(facility),
		Overall:  round2(clampScore(overall)),
	}
}

func (a *SuitabilityAnalyzer) capacityScore(room models.Room, req models.CourseRequirements) float64 {
	if room.Capacity <= 0 || req.ExpectedSize <= 0 {
		return 0
	}
	u := float64(req.ExpectedSize) / float64(room.Capacity)

	switch {
	case u >= comfortLow && u <= comfortHigh:
		// Peak 100 at the ideal ratio, meeting the stretch bands at 90.
		distance := u - idealUtilization
		if distance < 0 {
			distance = -distance
		}
		return clampScore(100 - distance*(10/(comfortHigh-idealUtilization)))
	case u >= stretchLow && u < comfortLow:
		// Under-utilized but workable: rises 60 -> 90 across the band.
		return 60 + (u-stretchLow)/(comfortLow-stretchLow)*30
	case u > comfortHigh && u <= stretchHigh:
		// Tight fit: falls 90 -> 60 across the band.
		return 90 - (u-comfortHigh)/(stretchHigh-comfortHigh)*30
	case u > stretchHigh:
		// Overcrowded: falls toward the floor.
		score := 60 - (u-stretchHigh)*100
		if score < overcrowdedFloor {
			return overcrowdedFloor
		}
		return score
	default:
		// Wasteful: scales up toward the ceiling as the room fills.
		return u / stretchLow * wastefulCeiling
	}
}

func (a *SuitabilityAnalyzer) typeScore(room models.Room, req models.CourseRequirements) float64 {
	for _, t := range req.RoomTypes {
		if room.Type == t {
			return 100
		}
	}
	if compat := substitutionScore(room.Type, req.RoomTypes); compat > 0 {
		return compat
	}
	if a.cfg.Preferences.StrictTypeMatching {
		return 0
	}
	return 20
}

// substitutionScore covers compatible-but-not-ideal pairings: a lecture hall
// can host a tutorial, and a tutorial room can absorb a lecture at a penalty.
func substitutionScore(roomType models.RoomType, required []models.RoomType) float64 {
	for _, t := range required {
		if roomType == models.RoomTypeLecture && t == models.RoomTypeTutorial {
			return 70
		}
		if roomType == models.RoomTypeTutorial && t == models.RoomTypeLecture {
			return 60
		}
	}
	return 0
}

func (a *SuitabilityAnalyzer) facilityScore(room models.Room, req models.CourseRequirements) float64 {
	if len(req.RequiredFacilities) == 0 {
		return 100
	}
	var credit float64
	for _, required := range req.RequiredFacilities {
		credit += facilityCredit(room.Facilities, required)
	}
	return clampScore(credit / float64(len(req.RequiredFacilities)) * 100)
}

// facilityCredit gives full credit for an exact or containing match and half
// credit when the room facility is a fragment of the requirement.
func facilityCredit(available []string, required string) float64 {
	needle := strings.ToLower(strings.TrimSpace(required))
	if needle == "" {
		return 1
	}
	for _, facility := range available {
		have := strings.ToLower(strings.TrimSpace(facility))
		if have == needle || strings.Contains(have, needle) {
			return 1
		}
	}
	for _, facility := range available {
		have := strings.ToLower(strings.TrimSpace(facility))
		if have != "" && strings.Contains(needle, have) {
			return 0.5
		}
	}
	return 0
}

// TypeCompatible reports whether a room type passes the compatibility rule for
// the requirement: an accepted type or a known substitution.
func (a *SuitabilityAnalyzer) TypeCompatible(room models.Room, req models.CourseRequirements) bool {
	for _, t := range req.RoomTypes {
		if room.Type == t {
			return true
		}
	}
	return substitutionScore(room.Type, req.RoomTypes) > 0
}
