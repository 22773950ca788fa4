package allocation

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/campus-alloc-api/internal/models"
)

// Blend between room suitability and utilization balance when ranking
// candidates, and the epsilon within which candidates count as tied.
const (
	suitabilityShare = 0.7
	balanceShare     = 0.3
	combinedEpsilon  = 0.01
)

// Engine owns the slot-occupancy state for one generation run and performs
// the core single-assignment operation. It is not safe for concurrent use;
// independent runs need their own engine/tracker pair.
type Engine struct {
	analyzer *SuitabilityAnalyzer
	tracker  *UtilizationTracker
	cfg      Config
	logger   *zap.Logger

	occupied map[string]string
	results  []models.AllocationResult

	efficiencySum map[string]float64
	efficiencyCnt map[string]int
	typeMatches   int
	facilityHits  int
	conflicted    int
}

// NewEngine wires an engine with its collaborators. Nil analyzer/tracker
// arguments get stock instances; a nil logger is replaced with a no-op.
func NewEngine(analyzer *SuitabilityAnalyzer, tracker *UtilizationTracker, cfg Config, logger *zap.Logger) *Engine {
	if analyzer == nil {
		analyzer = NewSuitabilityAnalyzer(cfg)
	}
	if tracker == nil {
		tracker = NewUtilizationTracker(1, cfg)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		analyzer:      analyzer,
		tracker:       tracker,
		cfg:           cfg,
		logger:        logger,
		occupied:      make(map[string]string),
		efficiencySum: make(map[string]float64),
		efficiencyCnt: make(map[string]int),
	}
}

type scoredRoom struct {
	room     models.Room
	suit     models.SuitabilityScore
	balance  float64
	combined float64
}

// AllocateRoom places one hour-unit: it picks the best free room for the
// requirements at the given slot, records the booking, and returns a
// confidence-scored result. A fully booked candidate set yields a degraded
// result rather than an error.
func (e *Engine) AllocateRoom(req models.CourseRequirements, slot models.TimeSlot, availableRooms []models.Room) models.AllocationResult {
	result := models.AllocationResult{
		CourseID:   req.CourseID,
		CourseCode: req.CourseCode,
		Slot:       slot,
	}

	free := e.freeRooms(slot, availableRooms)
	if len(free) == 0 {
		slotCopy := slot
		result.Conflicts = append(result.Conflicts, models.AllocationConflict{
			Type:        models.ConflictRoomUnavailable,
			Severity:    models.SeverityHigh,
			Description: fmt.Sprintf("no room is free on %s at %s for %s", slot.Day, slot.StartTime, req.CourseCode),
			Suggestion:  "try an adjacent time slot or extend the room inventory",
			Slot:        &slotCopy,
		})
		result.Reasoning = fmt.Sprintf("all %d candidate rooms are already booked at %s %s", len(availableRooms), slot.Day, slot.StartTime)
		e.logger.Debug("allocation degraded",
			zap.String("course", req.CourseCode),
			zap.String("day", slot.Day),
			zap.String("start", slot.StartTime))
		e.conflicted++
		e.results = append(e.results, result)
		return result
	}

	scored := e.scoreRooms(req, free)
	selected := e.pickWinner(scored)

	e.occupied[SlotKey(selected.room.ID, slot.Day, slot.StartTime)] = req.CourseID
	e.tracker.Record(selected.room.ID)

	conflicts := e.detectConflicts(req, selected.room, slot)
	confidence := e.confidence(selected, conflicts)

	roomCopy := selected.room
	result.SelectedRoom = &roomCopy
	result.Confidence = confidence
	result.Conflicts = conflicts
	result.AlternativeRooms = alternatives(scored, selected.room.ID)
	result.Reasoning = e.reasoning(req, selected, conflicts)

	e.recordQuality(req, selected.room, conflicts)
	e.results = append(e.results, result)
	return result
}

// FindBestRoom ranks candidates with the same combined score as AllocateRoom
// but books nothing. It returns nil on an empty or fully-unavailable list.
func (e *Engine) FindBestRoom(req models.CourseRequirements, slot models.TimeSlot, candidates []models.Room) *models.Room {
	free := e.freeRooms(slot, candidates)
	if len(free) == 0 {
		return nil
	}
	scored := e.scoreRooms(req, free)
	winner := scored[0].room
	return &winner
}

// Reset clears the occupancy map, the result log and the utilization counts,
// making the engine safe to reuse for an independent run.
func (e *Engine) Reset() {
	e.occupied = make(map[string]string)
	e.results = nil
	e.efficiencySum = make(map[string]float64)
	e.efficiencyCnt = make(map[string]int)
	e.typeMatches = 0
	e.facilityHits = 0
	e.conflicted = 0
	e.tracker.ResetUtilization()
}

// Results returns the allocation log for the current run.
func (e *Engine) Results() []models.AllocationResult {
	return e.results
}

// Tracker exposes the utilization tracker owned by this run.
func (e *Engine) Tracker() *UtilizationTracker {
	return e.tracker
}

// Metrics aggregates run quality: utilization, capacity efficiency, match
// accuracy rates and the balance score.
func (e *Engine) Metrics() models.AllocationMetrics {
	metrics := models.AllocationMetrics{
		RoomUtilization:    e.tracker.Snapshot(),
		CapacityEfficiency: make(map[string]float64, len(e.efficiencySum)),
		TotalAllocations:   len(e.results),
	}
	for roomID, sum := range e.efficiencySum {
		metrics.CapacityEfficiency[roomID] = round2(sum / float64(e.efficiencyCnt[roomID]))
	}
	successful := 0
	for _, r := range e.results {
		if r.SelectedRoom != nil {
			successful++
		}
	}
	metrics.SuccessfulAllocations = successful
	if successful > 0 {
		metrics.TypeMatchAccuracy = round2(float64(e.typeMatches) / float64(successful) * 100)
		metrics.FacilityMatchRate = round2(float64(e.facilityHits) / float64(successful) * 100)
	}
	if len(e.results) > 0 {
		metrics.ConflictRate = round2(float64(e.conflicted) / float64(len(e.results)) * 100)
	}
	balance := e.tracker.GetUtilizationBalance()
	metrics.BalanceScore = round2(clampScore(100 - (balance.MaxUtilization - balance.MinUtilization)))
	return metrics
}

func (e *Engine) freeRooms(slot models.TimeSlot, rooms []models.Room) []models.Room {
	free := make([]models.Room, 0, len(rooms))
	for _, room := range rooms {
		if _, taken := e.occupied[SlotKey(room.ID, slot.Day, slot.StartTime)]; !taken {
			free = append(free, room)
		}
	}
	return free
}

func (e *Engine) scoreRooms(req models.CourseRequirements, rooms []models.Room) []scoredRoom {
	scored := make([]scoredRoom, 0, len(rooms))
	for _, room := range rooms {
		suit := e.analyzer.EvaluateRoomSuitability(room, req)
		balance := e.utilizationBalanceScore(room.ID)
		scored = append(scored, scoredRoom{
			room:     room,
			suit:     suit,
			balance:  balance,
			combined: suit.Overall*suitabilityShare + balance*balanceShare,
		})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].combined != scored[j].combined {
			return scored[i].combined > scored[j].combined
		}
		return scored[i].room.ID < scored[j].room.ID
	})
	return scored
}

// utilizationBalanceScore rewards rooms below the running average utilization
// and penalizes rooms above it, centred at 50.
func (e *Engine) utilizationBalanceScore(roomID string) float64 {
	avg := e.tracker.AverageUtilization()
	return clampScore(50 + (avg - e.tracker.Utilization(roomID)))
}

// pickWinner takes the top-ranked candidate; when the leaders are tied it
// lets the tracker rotate among them to spread load deterministically.
func (e *Engine) pickWinner(scored []scoredRoom) scoredRoom {
	tied := []models.Room{scored[0].room}
	for i := 1; i < len(scored); i++ {
		if scored[0].combined-scored[i].combined > combinedEpsilon {
			break
		}
		tied = append(tied, scored[i].room)
	}
	if len(tied) > 1 {
		if choice := e.tracker.SelectRoomForBalancing(tied); choice != nil {
			for _, s := range scored {
				if s.room.ID == choice.ID {
					return s
				}
			}
		}
	}
	return scored[0]
}

func (e *Engine) detectConflicts(req models.CourseRequirements, room models.Room, slot models.TimeSlot) []models.AllocationConflict {
	var conflicts []models.AllocationConflict
	slotCopy := slot

	if room.Capacity < req.ExpectedSize {
		conflicts = append(conflicts, models.AllocationConflict{
			Type:        models.ConflictCapacityMismatch,
			Severity:    models.SeverityHigh,
			Description: fmt.Sprintf("room %s seats %d but %s expects %d students", room.Code, room.Capacity, req.CourseCode, req.ExpectedSize),
			Suggestion:  "split the section or move to a larger room",
			Slot:        &slotCopy,
		})
	} else if float64(room.Capacity) > float64(req.ExpectedSize)*oversizedFactor {
		conflicts = append(conflicts, models.AllocationConflict{
			Type:        models.ConflictCapacityMismatch,
			Severity:    models.SeverityLow,
			Description: fmt.Sprintf("room %s (capacity %d) is oversized for %d students", room.Code, room.Capacity, req.ExpectedSize),
			Suggestion:  "consider a smaller room to free this one for large sections",
			Slot:        &slotCopy,
		})
	}

	if !e.analyzer.TypeCompatible(room, req) {
		severity := models.SeverityMedium
		if requiresLab(req) && room.Type != models.RoomTypeLab {
			severity = models.SeverityHigh
		}
		conflicts = append(conflicts, models.AllocationConflict{
			Type:        models.ConflictTypeIncompatible,
			Severity:    severity,
			Description: fmt.Sprintf("room %s is a %s room; %s needs %s", room.Code, room.Type, req.CourseCode, roomTypeList(req.RoomTypes)),
			Suggestion:  "swap with a compatible room at this slot",
			Slot:        &slotCopy,
		})
	}

	if missing := missingFacilities(room, req); len(missing) > 0 {
		severity := models.SeverityMedium
		if len(missing) >= 2 {
			severity = models.SeverityHigh
		}
		conflicts = append(conflicts, models.AllocationConflict{
			Type:        models.ConflictFacilityMissing,
			Severity:    severity,
			Description: fmt.Sprintf("room %s lacks required facilities: %s", room.Code, strings.Join(missing, ", ")),
			Suggestion:  "provision portable equipment or reassign to an equipped room",
			Slot:        &slotCopy,
		})
	}

	return conflicts
}

func (e *Engine) confidence(selected scoredRoom, conflicts []models.AllocationConflict) float64 {
	confidence := selected.suit.Overall
	for _, c := range conflicts {
		switch c.Severity {
		case models.SeverityHigh:
			confidence -= 30
		case models.SeverityMedium:
			confidence -= 15
		default:
			confidence -= 5
		}
	}
	confidence += (selected.balance - 50) * 0.2
	return round2(clampScore(confidence))
}

func (e *Engine) reasoning(req models.CourseRequirements, selected scoredRoom, conflicts []models.AllocationConflict) string {
	fill := 0.0
	if selected.room.Capacity > 0 {
		fill = float64(req.ExpectedSize) / float64(selected.room.Capacity) * 100
	}
	utilizationEffect := "balances load"
	if selected.balance < 50 {
		utilizationEffect = "adds to an already busy room"
	}
	return fmt.Sprintf("%s match for %s: room %s fills to %.0f%%, %s, %d conflict(s)",
		matchQuality(selected.suit.Overall), req.CourseCode, selected.room.Code, fill, utilizationEffect, len(conflicts))
}

func (e *Engine) recordQuality(req models.CourseRequirements, room models.Room, conflicts []models.AllocationConflict) {
	typeOK, facilityOK := true, true
	for _, c := range conflicts {
		switch c.Type {
		case models.ConflictTypeIncompatible:
			typeOK = false
		case models.ConflictFacilityMissing:
			facilityOK = false
		}
	}
	if typeOK {
		e.typeMatches++
	}
	if facilityOK {
		e.facilityHits++
	}
	if len(conflicts) > 0 {
		e.conflicted++
	}
	if room.Capacity > 0 {
		e.efficiencySum[room.ID] += float64(req.ExpectedSize) / float64(room.Capacity) * 100
		e.efficiencyCnt[room.ID]++
	}
}

func alternatives(scored []scoredRoom, selectedID string) []models.Room {
	ranked := make([]scoredRoom, len(scored))
	copy(ranked, scored)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].suit.Overall != ranked[j].suit.Overall {
			return ranked[i].suit.Overall > ranked[j].suit.Overall
		}
		return ranked[i].room.ID < ranked[j].room.ID
	})
	var result []models.Room
	for _, s := range ranked {
		if s.room.ID == selectedID {
			continue
		}
		result = append(result, s.room)
		if len(result) == 3 {
			break
		}
	}
	return result
}

func requiresLab(req models.CourseRequirements) bool {
	for _, t := range req.RoomTypes {
		if t == models.RoomTypeLab {
			return true
		}
	}
	return false
}

func missingFacilities(room models.Room, req models.CourseRequirements) []string {
	var missing []string
	for _, required := range req.RequiredFacilities {
		if facilityCredit(room.Facilities, required) == 0 {
			missing = append(missing, required)
		}
	}
	return missing
}

func roomTypeList(types []models.RoomType) string {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}
	return strings.Join(names, " or ")
}

func matchQuality(score float64) string {
	return string(BandFor(score))
}
