package allocation

import (
	"fmt"
	"strings"

	"github.com/noah-isme/campus-alloc-api/internal/models"
)

// Overall preference blend: time matters most, room and subject split the rest.
const (
	roomPrefShare    = 0.3
	timePrefShare    = 0.4
	subjectPrefShare = 0.3

	// unscoredSubjectScore applies when a faculty member declared nothing
	// about a course. Unscored courses are still teachable.
	unscoredSubjectScore = 30

	// neutralPrefScore applies to an axis with no declared preferences at
	// all: nothing to satisfy, nothing to violate.
	neutralPrefScore = 50
)

// BandFor maps a [0,100] score onto the canonical satisfaction banding.
// 65 is the single "good" cutoff used everywhere.
func BandFor(score float64) models.SatisfactionBand {
	switch {
	case score >= 80:
		return models.SatisfactionExcellent
	case score >= 65:
		return models.SatisfactionGood
	case score >= 45:
		return models.SatisfactionAcceptable
	default:
		return models.SatisfactionPoor
	}
}

// PreferenceScorer rates candidate (room, time, course) assignments against
// one faculty member's declared preferences. It is stateless and safe to share.
type PreferenceScorer struct{}

// NewPreferenceScorer builds a scorer.
func NewPreferenceScorer() *PreferenceScorer {
	return &PreferenceScorer{}
}

func priorityMultiplier(p models.Priority) float64 {
	switch p {
	case models.PriorityHigh:
		return 1.2
	case models.PriorityLow:
		return 0.8
	default:
		return 1.0
	}
}

func weightScale(weight float64) float64 {
	return clampScore(weight) / 100
}

// ScoreRoomPreference takes the best match across the faculty's room
// preferences: exact room, room type, building, or partial facility overlap.
func (s *PreferenceScorer) ScoreRoomPreference(prefs models.FacultyPreferences, room models.Room) models.PreferenceScore {
	if len(prefs.RoomPreferences) == 0 {
		return models.PreferenceScore{
			Score:       neutralPrefScore,
			Suggestions: []string{"declare room preferences to influence placement"},
		}
	}

	result := models.PreferenceScore{}
	for _, pref := range prefs.RoomPreferences {
		base, matched := roomPreferenceBase(pref, room)
		scaled := clampScore(base * weightScale(pref.Weight) * priorityMultiplier(pref.Priority))
		if scaled > result.Score {
			result.Score = scaled
		}
		if matched != "" && scaled > 0 {
			result.MatchedPreferences = append(result.MatchedPreferences, matched)
		}
	}
	result.Score = round2(result.Score)
	return result
}

func roomPreferenceBase(pref models.RoomPreference, room models.Room) (float64, string) {
	if pref.RoomID != "" && pref.RoomID == room.ID {
		return 100, fmt.Sprintf("preferred room %s", room.Code)
	}
	if pref.RoomType != "" && pref.RoomType == room.Type {
		return 80, fmt.Sprintf("preferred room type %s", room.Type)
	}
	if pref.Building != "" && strings.EqualFold(pref.Building, room.Building) {
		return 60, fmt.Sprintf("preferred building %s", room.Building)
	}
	if len(pref.Facilities) > 0 {
		hits := 0
		for _, f := range pref.Facilities {
			if facilityCredit(room.Facilities, f) > 0 {
				hits++
			}
		}
		if hits > 0 {
			return float64(hits) / float64(len(pref.Facilities)) * 70,
				fmt.Sprintf("%d of %d preferred facilities available", hits, len(pref.Facilities))
		}
	}
	return 0, ""
}

// ScoreTimePreference rewards exact slot matches fully and partial interval
// overlap proportionally. Unsatisfied same-day hard constraints are flagged
// as violations.
func (s *PreferenceScorer) ScoreTimePreference(prefs models.FacultyPreferences, slot models.TimeSlot) models.PreferenceScore {
	if len(prefs.TimePreferences) == 0 {
		return models.PreferenceScore{
			Score:       neutralPrefScore,
			Suggestions: []string{"declare time preferences to influence placement"},
		}
	}

	result := models.PreferenceScore{}
	slotStart, slotEnd := parseMinutes(slot.StartTime), parseMinutes(slot.EndTime)
	duration := slotDuration(slot)

	for _, pref := range prefs.TimePreferences {
		if !strings.EqualFold(pref.Day, slot.Day) {
			continue
		}
		prefStart, prefEnd := parseMinutes(pref.StartTime), parseMinutes(pref.EndTime)

		var base float64
		if pref.StartTime == slot.StartTime && pref.EndTime == slot.EndTime {
			base = 100
		} else if duration > 0 {
			base = float64(overlapMinutes(slotStart, slotEnd, prefStart, prefEnd)) / float64(duration) * 80
		}

		scaled := clampScore(base * weightScale(pref.Weight) * priorityMultiplier(pref.Priority))
		if scaled > result.Score {
			result.Score = scaled
		}
		if base > 0 {
			result.MatchedPreferences = append(result.MatchedPreferences,
				fmt.Sprintf("preferred window %s %s-%s", pref.Day, pref.StartTime, pref.EndTime))
		}

		if pref.IsHardConstraint && !slotWithin(slotStart, slotEnd, prefStart, prefEnd) {
			result.ViolatedConstraints = append(result.ViolatedConstraints,
				fmt.Sprintf("hard time constraint %s %s-%s is not satisfied", pref.Day, pref.StartTime, pref.EndTime))
			result.Suggestions = append(result.Suggestions,
				fmt.Sprintf("move the session inside %s-%s on %s", pref.StartTime, pref.EndTime, pref.Day))
		}
	}
	result.Score = round2(result.Score)
	return result
}

func slotWithin(slotStart, slotEnd, windowStart, windowEnd int) bool {
	if slotStart < 0 || slotEnd <= slotStart || windowStart < 0 || windowEnd <= windowStart {
		return false
	}
	return slotStart >= windowStart && slotEnd <= windowEnd
}

// ScoreSubjectPreference looks up the faculty's declared expertise for the
// course. Courses with no declared preference score a flat baseline.
func (s *PreferenceScorer) ScoreSubjectPreference(prefs models.FacultyPreferences, course models.Course) models.PreferenceScore {
	for _, pref := range prefs.SubjectPreferences {
		if !strings.EqualFold(pref.CourseCode, course.Code) {
			continue
		}
		base := expertiseScore(pref.Expertise)
		scaled := clampScore(base * weightScale(pref.Weight) * priorityMultiplier(pref.Priority))
		return models.PreferenceScore{
			Score:              round2(scaled),
			MatchedPreferences: []string{fmt.Sprintf("declared %s expertise for %s", pref.Expertise, course.Code)},
		}
	}
	return models.PreferenceScore{
		Score:       unscoredSubjectScore,
		Suggestions: []string{fmt.Sprintf("no subject preference declared for %s", course.Code)},
	}
}

func expertiseScore(level models.ExpertiseLevel) float64 {
	switch level {
	case models.ExpertiseExpert:
		return 100
	case models.ExpertiseProficient:
		return 80
	case models.ExpertiseBasic:
		return 60
	case models.ExpertiseWilling:
		return 40
	default:
		return 40
	}
}

// ScoreAssignment combines the three axes into an overall preference score
// and its satisfaction band.
func (s *PreferenceScorer) ScoreAssignment(prefs models.FacultyPreferences, room models.Room, slot models.TimeSlot, course models.Course) (models.PreferenceScore, models.SatisfactionBand) {
	roomScore := s.ScoreRoomPreference(prefs, room)
	timeScore := s.ScoreTimePreference(prefs, slot)
	subjectScore := s.ScoreSubjectPreference(prefs, course)

	overall := models.PreferenceScore{
		Score: round2(roomScore.Score*roomPrefShare + timeScore.Score*timePrefShare + subjectScore.Score*subjectPrefShare),
	}
	for _, part := range []models.PreferenceScore{roomScore, timeScore, subjectScore} {
		overall.MatchedPreferences = append(overall.MatchedPreferences, part.MatchedPreferences...)
		overall.ViolatedConstraints = append(overall.ViolatedConstraints, part.ViolatedConstraints...)
		overall.Suggestions = append(overall.Suggestions, part.Suggestions...)
	}
	return overall, BandFor(overall.Score)
}

// CalculatePreferenceCompleteness reports how much of the preference surface
// a faculty member has filled in: 0 when empty, 100 when room, time and
// subject preferences are all present.
func (s *PreferenceScorer) CalculatePreferenceCompleteness(prefs models.FacultyPreferences) float64 {
	populated := 0
	if len(prefs.RoomPreferences) > 0 {
		populated++
	}
	if len(prefs.TimePreferences) > 0 {
		populated++
	}
	if len(prefs.SubjectPreferences) > 0 {
		populated++
	}
	return round2(float64(populated) / 3 * 100)
}
