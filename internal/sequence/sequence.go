package sequence

// Transition describes the computed cost of one consecutive pair in an ordering.
type Transition struct {
	From Track
	To   Track

	// Sub-costs in [0,1], lower is smoother.
	Harmonic float64
	Tempo    float64
	Energy   float64

	// Cost is the weighted composite of the sub-costs.
	Cost float64

	// MissingData marks transitions where either track was scored with the
	// unknown-attribute fallback.
	MissingData bool
}

// Report summarizes an ordering for display.
type Report struct {
	Transitions []Transition
	AverageCost float64

	// Unknown lists tracks that were sequenced with missing attribute data,
	// in input order.
	Unknown []Track
}

// Order sequences tracks with a greedy nearest-neighbor walk: the opening
// track is chosen by energy and popularity, then each step appends the
// remaining track with the lowest transition cost from the last placed one.
// Ties break toward earlier input position, so the result is deterministic.
// The output is always a permutation of the input; empty and single-track
// inputs return immediately with an empty transition list.
func Order(tracks []Track, cfg Config) ([]Track, Report) {
	report := Report{Unknown: missingAttributeTracks(tracks)}

	if len(tracks) == 0 {
		return nil, report
	}

	placed := make([]Track, 0, len(tracks))
	used := make([]bool, len(tracks))

	opening := openingIndex(tracks, cfg)
	placed = append(placed, tracks[opening])
	used[opening] = true

	for len(placed) < len(tracks) {
		last := &placed[len(placed)-1]

		best := -1
		var bestTransition Transition
		for i := range tracks {
			if used[i] {
				continue
			}
			tr := cfg.TransitionCost(last, &tracks[i])
			if best == -1 || tr.Cost < bestTransition.Cost {
				best = i
				bestTransition = tr
			}
		}

		used[best] = true
		placed = append(placed, tracks[best])
		report.Transitions = append(report.Transitions, bestTransition)
	}

	if len(report.Transitions) > 0 {
		var total float64
		for _, tr := range report.Transitions {
			total += tr.Cost
		}
		report.AverageCost = total / float64(len(report.Transitions))
	}

	return placed, report
}

// OrderFrom sequences tracks like Order but forces the track with the given
// ID to open the set. Falls back to the default opening choice when the ID
// is not present.
func OrderFrom(tracks []Track, anchorID string, cfg Config) ([]Track, Report) {
	idx := -1
	for i := range tracks {
		if tracks[i].ID == anchorID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return Order(tracks, cfg)
	}

	// Move the anchor to the front; openingIndex prefers it because the
	// greedy walk starts from whatever opens, so reorder the input view.
	reordered := make([]Track, 0, len(tracks))
	reordered = append(reordered, tracks[idx])
	reordered = append(reordered, tracks[:idx]...)
	reordered = append(reordered, tracks[idx+1:]...)

	anchored := cfg
	anchored.Opening = OpeningWeights{} // zero weights: first input track wins ties
	return Order(reordered, anchored)
}

// openingIndex picks the opening track: highest combined energy/popularity
// score, ties broken by input order. Tracks missing energy score on
// popularity alone.
func openingIndex(tracks []Track, cfg Config) int {
	best := 0
	bestScore := openingScore(&tracks[0], cfg)
	for i := 1; i < len(tracks); i++ {
		if s := openingScore(&tracks[i], cfg); s > bestScore {
			best = i
			bestScore = s
		}
	}
	return best
}

func openingScore(t *Track, cfg Config) float64 {
	var energy float64
	if t.Energy != nil {
		energy = *t.Energy
	}
	return cfg.Opening.Energy*energy + cfg.Opening.Popularity*(float64(t.Popularity)/100)
}

func missingAttributeTracks(tracks []Track) []Track {
	var missing []Track
	for i := range tracks {
		if !tracks[i].HasAttributes() {
			missing = append(missing, tracks[i])
		}
	}
	return missing
}
