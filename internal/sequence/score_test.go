package sequence

import (
	"math"
	"testing"
)

func fptr(v float64) *float64 { return &v }

func TestHarmonicCost(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{name: "identical", a: "8A", b: "8A", want: 0},
		{name: "mode switch", a: "8A", b: "8B", want: compatibleKeyCost},
		{name: "adjacent same mode", a: "8A", b: "9A", want: compatibleKeyCost},
		{name: "wraparound adjacent", a: "12B", b: "1B", want: compatibleKeyCost},
		{name: "two steps", a: "8A", b: "10A", want: 2.0 / maxWheelDistance},
		{name: "opposite side", a: "1A", b: "7A", want: 1},
		{name: "far with mode switch", a: "8A", b: "3B", want: 5.0/maxWheelDistance + modeSwitchSurcharge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := mustKey(t, tt.a)
			b := mustKey(t, tt.b)
			got := HarmonicCost(a, b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("HarmonicCost(%s, %s) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestHarmonicCostSymmetric(t *testing.T) {
	keys := []string{"1A", "1B", "2A", "5B", "8A", "8B", "12A", "12B"}
	for _, sa := range keys {
		for _, sb := range keys {
			a := mustKey(t, sa)
			b := mustKey(t, sb)
			if HarmonicCost(a, b) != HarmonicCost(b, a) {
				t.Errorf("HarmonicCost(%s, %s) != HarmonicCost(%s, %s)", sa, sb, sb, sa)
			}
		}
	}
}

func TestHarmonicCostWraparoundEqualsAdjacent(t *testing.T) {
	one := mustKey(t, "1A")
	twelve := mustKey(t, "12A")
	two := mustKey(t, "2A")

	if HarmonicCost(one, twelve) != HarmonicCost(one, two) {
		t.Errorf("HarmonicCost(1A, 12A) = %v, HarmonicCost(1A, 2A) = %v; want equal",
			HarmonicCost(one, twelve), HarmonicCost(one, two))
	}
}

func TestHarmonicCostUnknown(t *testing.T) {
	k := mustKey(t, "8A")
	if got := HarmonicCost(k, nil); got != UnknownCost {
		t.Errorf("HarmonicCost with nil key = %v, want %v", got, UnknownCost)
	}
	if got := HarmonicCost(nil, nil); got != UnknownCost {
		t.Errorf("HarmonicCost with both nil = %v, want %v", got, UnknownCost)
	}
}

func TestTempoCost(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name string
		a, b *float64
		want float64
	}{
		{name: "identical", a: fptr(120), b: fptr(120), want: 0},
		{name: "inside tolerance", a: fptr(120), b: fptr(123), want: 0},
		{name: "missing", a: fptr(120), b: nil, want: UnknownCost},
		{name: "saturated", a: fptr(120), b: fptr(180), want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cfg.TempoCost(tt.a, tt.b); got != tt.want {
				t.Errorf("TempoCost = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTempoCostScalesWithDifference(t *testing.T) {
	cfg := DefaultConfig()
	small := cfg.TempoCost(fptr(120), fptr(126))
	large := cfg.TempoCost(fptr(120), fptr(140))

	if small <= 0 {
		t.Errorf("6 BPM apart should cost more than 0, got %v", small)
	}
	if large <= small {
		t.Errorf("20 BPM apart (%v) should cost more than 6 BPM apart (%v)", large, small)
	}
}

func TestEnergyCost(t *testing.T) {
	tests := []struct {
		name string
		a, b *float64
		want float64
	}{
		{name: "identical", a: fptr(0.8), b: fptr(0.8), want: 0},
		{name: "gentle rise", a: fptr(0.5), b: fptr(0.6), want: 0.01},
		{name: "small drop inside tolerance", a: fptr(0.6), b: fptr(0.5), want: 0.01},
		{name: "big drop penalized", a: fptr(0.8), b: fptr(0.2), want: 0.36 * energyDropPenalty},
		{name: "big rise not penalized", a: fptr(0.2), b: fptr(0.8), want: 0.36},
		{name: "missing", a: nil, b: fptr(0.5), want: UnknownCost},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EnergyCost(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("EnergyCost = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTransitionCostIdenticalTracksIsZero(t *testing.T) {
	cfg := DefaultConfig()
	a := Track{ID: "a", Key: mustKey(t, "8A"), BPM: fptr(120), Energy: fptr(0.8)}
	b := Track{ID: "b", Key: mustKey(t, "8A"), BPM: fptr(120), Energy: fptr(0.8)}

	tr := cfg.TransitionCost(&a, &b)
	if tr.Cost != 0 {
		t.Errorf("identical attributes should cost 0, got %v", tr.Cost)
	}
	if tr.MissingData {
		t.Error("MissingData should be false for fully-attributed tracks")
	}
}

func TestTransitionCostMissingDataFlag(t *testing.T) {
	cfg := DefaultConfig()
	known := Track{ID: "a", Key: mustKey(t, "8A"), BPM: fptr(120), Energy: fptr(0.8)}
	unknown := Track{ID: "b"}

	tr := cfg.TransitionCost(&known, &unknown)
	if !tr.MissingData {
		t.Error("MissingData should be true when attributes are absent")
	}
	if tr.Cost != UnknownCost {
		t.Errorf("all sub-costs fall back, so composite = %v, want %v", tr.Cost, UnknownCost)
	}
}

func TestTransitionCostZeroWeightsFallBack(t *testing.T) {
	cfg := Config{TempoTolerance: 3}
	a := Track{ID: "a", Key: mustKey(t, "8A"), BPM: fptr(120), Energy: fptr(0.8)}
	b := Track{ID: "b", Key: mustKey(t, "3A"), BPM: fptr(180), Energy: fptr(0.2)}

	tr := cfg.TransitionCost(&a, &b)
	if tr.Cost <= 0 {
		t.Errorf("zero weights should fall back to defaults, got cost %v", tr.Cost)
	}
}
