package race

import (
	"time"

	"github.com/hammamikhairi/moonrace/internal/domain"
)

// Config holds every tunable of the simulation. The zero value is not
// useful; start from DefaultConfig and override fields.
type Config struct {
	PrimaryInterval time.Duration // state perturbation cadence
	AmbientInterval time.Duration // random market-event cadence

	// Perturbation is (u - DriftBias) * PerturbationScale for u in [0,1),
	// so the mean change is slightly negative.
	DriftBias         float64
	PerturbationScale float64
	OddsFactor        float64 // share of the position change applied to odds

	// NotabilityThreshold is the minimum |change| that earns commentary.
	NotabilityThreshold float64

	PositionMin, PositionMax float64
	OddsMin, OddsMax         float64

	// VolumeStep is the per-tick upper bound of the volume increase for
	// each competitor slot.
	VolumeStep [2]float64

	BoostPositionBonus float64
	BoostOddsBonus     float64

	AmbientProbability float64
	AmbientTones       []domain.Tone
	// AmbientSymbols are extra symbols the ambient tick may talk about
	// besides the two competitors on track. Empty keeps ambient chatter
	// on the race in view.
	AmbientSymbols []string
}

// DefaultConfig returns the stock simulation tuning.
func DefaultConfig() Config {
	return Config{
		PrimaryInterval:     2 * time.Second,
		AmbientInterval:     5 * time.Second,
		DriftBias:           0.45,
		PerturbationScale:   3,
		OddsFactor:          0.5,
		NotabilityThreshold: 1.5,
		PositionMin:         5,
		PositionMax:         95,
		OddsMin:             20,
		OddsMax:             80,
		VolumeStep:          [2]float64{50000, 40000},
		BoostPositionBonus:  2,
		BoostOddsBonus:      1,
		AmbientProbability:  0.3,
		AmbientTones:        []domain.Tone{domain.ToneAlert, domain.ToneNeutral},
	}
}

// clampRanges narrows the operating ranges to the hard [0,100] bounds so
// no configuration can push state outside a valid percentage.
func (c Config) clampRanges() Config {
	c.PositionMin, c.PositionMax = bound(c.PositionMin, c.PositionMax)
	c.OddsMin, c.OddsMax = bound(c.OddsMin, c.OddsMax)
	return c
}

func bound(lo, hi float64) (float64, float64) {
	lo = clamp(lo, 0, 100)
	hi = clamp(hi, 0, 100)
	if lo > hi {
		lo, hi = hi, lo
	}
	return lo, hi
}
