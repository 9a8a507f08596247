package sequence

import (
	"errors"
	"math"
)

// UnknownCost is the fallback sub-cost applied when either track is missing
// the attribute a sub-cost needs. It is worse than any compatible transition
// so tracks with unknown attributes drift toward the end of the sequence,
// but low enough that they are always placed.
const UnknownCost = 0.75

const (
	// compatibleKeyCost is the harmonic cost of a documented mix that is
	// not an identical-key match.
	compatibleKeyCost = 0.15

	// modeSwitchSurcharge is added to incompatible moves that also change
	// between major and minor.
	modeSwitchSurcharge = 0.15

	// maxWheelDistance is the largest circular distance on the 12-position wheel.
	maxWheelDistance = 6.0

	// energyDropTolerance is the energy decrease treated as a normal ebb.
	energyDropTolerance = 0.1

	// energyDropPenalty multiplies the cost of drops beyond the tolerance,
	// so the flow favors gentle or rising energy over sudden falls.
	energyDropPenalty = 1.5

	// fullTempoPenaltyRatio is the relative BPM difference at which the
	// tempo cost saturates at 1.
	fullTempoPenaltyRatio = 0.25
)

// Weights control the relative influence of each sub-cost on the composite
// transition cost. Harmonic compatibility dominates by default.
type Weights struct {
	Harmonic float64 `toml:"harmonic"`
	Tempo    float64 `toml:"tempo"`
	Energy   float64 `toml:"energy"`
}

// OpeningWeights control how the opening track is chosen.
type OpeningWeights struct {
	Energy     float64 `toml:"energy"`
	Popularity float64 `toml:"popularity"`
}

// Config holds the tunable parameters of the sequencer.
type Config struct {
	Weights Weights        `toml:"weights"`
	Opening OpeningWeights `toml:"opening"`

	// TempoTolerance is the absolute BPM difference treated as free.
	TempoTolerance float64 `toml:"tempo_tolerance"`
}

// DefaultConfig returns the recommended defaults.
func DefaultConfig() Config {
	return Config{
		Weights:        Weights{Harmonic: 0.5, Tempo: 0.3, Energy: 0.2},
		Opening:        OpeningWeights{Energy: 0.6, Popularity: 0.4},
		TempoTolerance: 3,
	}
}

// Validate reports whether the configuration is usable. Weights may be
// rebalanced freely but must not be negative.
func (c Config) Validate() error {
	if c.Weights.Harmonic < 0 || c.Weights.Tempo < 0 || c.Weights.Energy < 0 {
		return errors.New("transition weights must not be negative")
	}
	if c.Opening.Energy < 0 || c.Opening.Popularity < 0 {
		return errors.New("opening weights must not be negative")
	}
	if c.TempoTolerance < 0 {
		return errors.New("tempo tolerance must not be negative")
	}
	return nil
}

// HarmonicCost returns the harmonic distance between two keys in [0,1].
// Identical keys cost 0, compatible moves cost a small constant, and
// everything else scales with circular wheel distance plus a surcharge for
// crossing between major and minor. Symmetric in its arguments.
func HarmonicCost(a, b *CamelotKey) float64 {
	if a == nil || b == nil {
		return UnknownCost
	}

	if a.Position == b.Position {
		if a.Mode == b.Mode {
			return 0
		}
		return compatibleKeyCost
	}

	d := WheelDistance(a.Position, b.Position)
	if d == 1 && a.Mode == b.Mode {
		return compatibleKeyCost
	}

	cost := float64(d) / maxWheelDistance
	if a.Mode != b.Mode {
		cost += modeSwitchSurcharge
	}
	return math.Min(1, cost)
}

// TempoCost returns the tempo distance in [0,1]. Differences inside the
// tolerance band are free; beyond it the cost scales with the difference
// relative to the mean BPM, saturating at fullTempoPenaltyRatio.
func (c Config) TempoCost(a, b *float64) float64 {
	if a == nil || b == nil {
		return UnknownCost
	}

	diff := math.Abs(*a - *b)
	if diff <= c.TempoTolerance {
		return 0
	}

	mean := (*a + *b) / 2
	if mean <= 0 {
		return UnknownCost
	}

	return math.Min(1, (diff/mean)/fullTempoPenaltyRatio)
}

// EnergyCost returns the energy distance in [0,1]. The squared difference
// penalizes large jumps more than gradual ones; drops beyond the tolerance
// carry an extra multiplier.
func EnergyCost(from, to *float64) float64 {
	if from == nil || to == nil {
		return UnknownCost
	}

	diff := *to - *from
	cost := diff * diff
	if diff < -energyDropTolerance {
		cost *= energyDropPenalty
	}
	return math.Min(1, cost)
}

// TransitionCost computes the composite cost of playing to directly after from.
func (c Config) TransitionCost(from, to *Track) Transition {
	h := HarmonicCost(from.Key, to.Key)
	tp := c.TempoCost(from.BPM, to.BPM)
	e := EnergyCost(from.Energy, to.Energy)

	w := c.Weights
	total := w.Harmonic + w.Tempo + w.Energy
	if total <= 0 {
		w = DefaultConfig().Weights
		total = w.Harmonic + w.Tempo + w.Energy
	}

	return Transition{
		From:        *from,
		To:          *to,
		Harmonic:    h,
		Tempo:       tp,
		Energy:      e,
		Cost:        (w.Harmonic*h + w.Tempo*tp + w.Energy*e) / total,
		MissingData: !from.HasAttributes() || !to.HasAttributes(),
	}
}
