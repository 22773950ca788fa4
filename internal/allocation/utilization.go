package allocation

import (
	"math"
	"sort"

	"github.com/noah-isme/campus-alloc-api/internal/models"
)

// nearTiedSpread is the utilization band, in percentage points above the
// lowest-loaded candidate, within which rooms rotate instead of always
// picking the minimum.
const nearTiedSpread = 5.0

// UtilizationTracker maintains per-room occupancy counts for one generation
// run. State is exclusively owned by one engine/tracker pair and must be
// reset before the pair is reused for an independent run.
type UtilizationTracker struct {
	totalSlots int
	counts     map[string]int
	rotation   int
	cfg        Config
}

// NewUtilizationTracker builds a tracker for a grid of totalSlots cells.
func NewUtilizationTracker(totalSlots int, cfg Config) *UtilizationTracker {
	if totalSlots < 1 {
		totalSlots = 1
	}
	return &UtilizationTracker{
		totalSlots: totalSlots,
		counts:     make(map[string]int),
		cfg:        cfg,
	}
}

// Record notes one slot assignment for the room.
func (t *UtilizationTracker) Record(roomID string) {
	t.counts[roomID]++
}

// Utilization returns the room's share of the grid as a percentage.
func (t *UtilizationTracker) Utilization(roomID string) float64 {
	return float64(t.counts[roomID]) / float64(t.totalSlots) * 100
}

// AverageUtilization returns the mean utilization across all tracked rooms.
func (t *UtilizationTracker) AverageUtilization() float64 {
	if len(t.counts) == 0 {
		return 0
	}
	var sum float64
	for roomID := range t.counts {
		sum += t.Utilization(roomID)
	}
	return sum / float64(len(t.counts))
}

// GetUtilizationBalance computes the spread statistics across tracked rooms.
// The run is balanced when max-min stays within the configured threshold.
func (t *UtilizationTracker) GetUtilizationBalance() models.UtilizationBalance {
	if len(t.counts) == 0 {
		return models.UtilizationBalance{IsBalanced: true}
	}

	values := make([]float64, 0, len(t.counts))
	for roomID := range t.counts {
		values = append(values, t.Utilization(roomID))
	}

	minV, maxV, sum := values[0], values[0], 0.0
	for _, v := range values {
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
		sum += v
	}
	avg := sum / float64(len(values))

	var variance float64
	for _, v := range values {
		variance += (v - avg) * (v - avg)
	}
	variance /= float64(len(values))

	spread := maxV - minV
	return models.UtilizationBalance{
		MaxUtilization:     round2(maxV),
		MinUtilization:     round2(minV),
		AverageUtilization: round2(avg),
		StandardDeviation:  round2(math.Sqrt(variance)),
		IsBalanced:         spread <= t.cfg.Thresholds.MaxUtilizationSpread,
	}
}

// SelectRoomForBalancing picks among candidate rooms to spread load. The
// lowest-utilization room wins; candidates within nearTiedSpread of it rotate
// on a tracker-owned counter so repeated runs over identical input stay
// deterministic. With balancing disabled the first candidate is returned.
func (t *UtilizationTracker) SelectRoomForBalancing(candidates []models.Room) *models.Room {
	if len(candidates) == 0 {
		return nil
	}
	if !t.cfg.Preferences.BalanceUtilization || len(candidates) == 1 {
		return &candidates[0]
	}

	ranked := make([]models.Room, len(candidates))
	copy(ranked, candidates)
	sort.SliceStable(ranked, func(i, j int) bool {
		ui, uj := t.Utilization(ranked[i].ID), t.Utilization(ranked[j].ID)
		if ui != uj {
			return ui < uj
		}
		return ranked[i].ID < ranked[j].ID
	})

	lowest := t.Utilization(ranked[0].ID)
	tied := 1
	for tied < len(ranked) && t.Utilization(ranked[tied].ID)-lowest <= nearTiedSpread {
		tied++
	}
	if tied == 1 {
		return &ranked[0]
	}

	pick := &ranked[t.rotation%tied]
	t.rotation++
	return pick
}

// Snapshot returns a copy of the per-room utilization percentages.
func (t *UtilizationTracker) Snapshot() map[string]float64 {
	result := make(map[string]float64, len(t.counts))
	for roomID := range t.counts {
		result[roomID] = round2(t.Utilization(roomID))
	}
	return result
}

// ResetUtilization clears all counts and the rotation counter. Must be called
// between independent runs sharing the same tracker instance.
func (t *UtilizationTracker) ResetUtilization() {
	t.counts = make(map[string]int)
	t.rotation = 0
}
