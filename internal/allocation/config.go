package allocation

import "math"

// Weights govern how the suitability axes combine. Capacity, RoomType and
// Facilities are applied by the analyzer; Utilization is applied later by the
// engine when it blends suitability with the balancing score.
type Weights struct {
	Capacity    float64
	RoomType    float64
	Facilities  float64
	Utilization float64
}

// Thresholds bound acceptable spread and efficiency for a run.
type Thresholds struct {
	MaxUtilizationSpread  float64
	MinCapacityEfficiency float64
	MaxConflictRate       float64
}

// Preferences toggle optional engine behaviours.
type Preferences struct {
	BalanceUtilization    bool
	StrictTypeMatching    bool
	AllowCapacityOverflow bool
}

// Config is the externally injectable engine configuration. Algorithm code
// never hard-codes these values; callers that want the stock behaviour use
// DefaultConfig.
type Config struct {
	Weights     Weights
	Thresholds  Thresholds
	Preferences Preferences
}

// DefaultConfig returns the stock engine configuration.
func DefaultConfig() Config {
	return Config{
		Weights: Weights{
			Capacity:    0.35,
			RoomType:    0.30,
			Facilities:  0.25,
			Utilization: 0.10,
		},
		Thresholds: Thresholds{
			MaxUtilizationSpread:  25,
			MinCapacityEfficiency: 30,
			MaxConflictRate:       20,
		},
		Preferences: Preferences{
			BalanceUtilization:    true,
			StrictTypeMatching:    true,
			AllowCapacityOverflow: false,
		},
	}
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
