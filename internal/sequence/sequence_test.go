package sequence

import (
	"reflect"
	"testing"
)

// scenario tracks from three corners of the wheel: A and B mix well, C does not.
func scenarioTracks(t *testing.T) []Track {
	t.Helper()
	return []Track{
		{ID: "A", Title: "Alpha", Artist: "One", Key: mustKey(t, "8A"), BPM: fptr(120), Energy: fptr(0.8)},
		{ID: "B", Title: "Bravo", Artist: "Two", Key: mustKey(t, "8B"), BPM: fptr(122), Energy: fptr(0.75)},
		{ID: "C", Title: "Charlie", Artist: "Three", Key: mustKey(t, "3A"), BPM: fptr(180), Energy: fptr(0.2)},
	}
}

func orderedIDs(tracks []Track) []string {
	ids := make([]string, len(tracks))
	for i, t := range tracks {
		ids[i] = t.ID
	}
	return ids
}

func TestOrderEmpty(t *testing.T) {
	ordered, report := Order(nil, DefaultConfig())
	if len(ordered) != 0 {
		t.Errorf("empty input should give empty output, got %d tracks", len(ordered))
	}
	if len(report.Transitions) != 0 {
		t.Errorf("empty input should give no transitions, got %d", len(report.Transitions))
	}
}

func TestOrderSingleTrack(t *testing.T) {
	in := []Track{{ID: "only", Title: "Only", Key: mustKey(t, "4B"), BPM: fptr(100), Energy: fptr(0.5)}}

	ordered, report := Order(in, DefaultConfig())
	if len(ordered) != 1 || ordered[0].ID != "only" {
		t.Fatalf("single-track input should return that track, got %v", orderedIDs(ordered))
	}
	if len(report.Transitions) != 0 {
		t.Errorf("single-track input should have an empty transition report, got %d", len(report.Transitions))
	}
	if len(report.Unknown) != 0 {
		t.Errorf("fully-attributed track should not be flagged, got %d", len(report.Unknown))
	}
}

func TestOrderScenario(t *testing.T) {
	ordered, report := Order(scenarioTracks(t), DefaultConfig())

	// A has the highest energy so it opens; B is the compatible neighbor;
	// C lands last because of the large harmonic and tempo jump.
	want := []string{"A", "B", "C"}
	if got := orderedIDs(ordered); !reflect.DeepEqual(got, want) {
		t.Errorf("Order = %v, want %v", got, want)
	}

	if len(report.Transitions) != 2 {
		t.Fatalf("expected 2 transitions, got %d", len(report.Transitions))
	}
	if report.Transitions[0].Cost >= report.Transitions[1].Cost {
		t.Errorf("A->B (%v) should be cheaper than B->C (%v)",
			report.Transitions[0].Cost, report.Transitions[1].Cost)
	}
}

func TestOrderIsPermutation(t *testing.T) {
	tests := []struct {
		name   string
		tracks []Track
	}{
		{name: "scenario", tracks: scenarioTracks(t)},
		{
			name: "with unknown attributes",
			tracks: []Track{
				{ID: "1", Key: mustKey(t, "5A"), BPM: fptr(128), Energy: fptr(0.7)},
				{ID: "2"},
				{ID: "3", Key: mustKey(t, "6A"), BPM: fptr(126), Energy: fptr(0.65)},
				{ID: "4", Key: mustKey(t, "11B"), BPM: fptr(90), Energy: fptr(0.3)},
				{ID: "5"},
			},
		},
		{
			name: "duplicate attributes distinct ids",
			tracks: []Track{
				{ID: "x", Key: mustKey(t, "1A"), BPM: fptr(120), Energy: fptr(0.5)},
				{ID: "y", Key: mustKey(t, "1A"), BPM: fptr(120), Energy: fptr(0.5)},
				{ID: "z", Key: mustKey(t, "1A"), BPM: fptr(120), Energy: fptr(0.5)},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ordered, _ := Order(tt.tracks, DefaultConfig())
			if len(ordered) != len(tt.tracks) {
				t.Fatalf("output has %d tracks, input had %d", len(ordered), len(tt.tracks))
			}

			seen := make(map[string]int)
			for _, tr := range ordered {
				seen[tr.ID]++
			}
			for _, tr := range tt.tracks {
				if seen[tr.ID] != 1 {
					t.Errorf("track %q appears %d times in output, want exactly once", tr.ID, seen[tr.ID])
				}
			}
		})
	}
}

func TestOrderDeterministic(t *testing.T) {
	tracks := scenarioTracks(t)

	first, _ := Order(tracks, DefaultConfig())
	second, _ := Order(tracks, DefaultConfig())

	if !reflect.DeepEqual(orderedIDs(first), orderedIDs(second)) {
		t.Errorf("two runs on identical input disagree: %v vs %v",
			orderedIDs(first), orderedIDs(second))
	}
}

func TestOrderOpeningTiesBreakByInputOrder(t *testing.T) {
	tracks := []Track{
		{ID: "first", Key: mustKey(t, "1A"), BPM: fptr(120), Energy: fptr(0.5), Popularity: 50},
		{ID: "second", Key: mustKey(t, "1A"), BPM: fptr(120), Energy: fptr(0.5), Popularity: 50},
	}

	ordered, _ := Order(tracks, DefaultConfig())
	if ordered[0].ID != "first" {
		t.Errorf("tied opening scores should pick the earlier input track, got %q", ordered[0].ID)
	}
}

func TestOrderUnknownTrackPlacedAndFlagged(t *testing.T) {
	tracks := []Track{
		{ID: "k1", Title: "Known One", Key: mustKey(t, "8A"), BPM: fptr(120), Energy: fptr(0.8)},
		{ID: "mystery", Title: "No Data"},
		{ID: "k2", Title: "Known Two", Key: mustKey(t, "8B"), BPM: fptr(121), Energy: fptr(0.78)},
	}

	ordered, report := Order(tracks, DefaultConfig())

	found := false
	for _, tr := range ordered {
		if tr.ID == "mystery" {
			found = true
		}
	}
	if !found {
		t.Fatal("track with missing attributes was dropped from the output")
	}

	if len(report.Unknown) != 1 || report.Unknown[0].ID != "mystery" {
		t.Errorf("report.Unknown = %v, want the mystery track flagged", orderedIDs(report.Unknown))
	}

	// The unknown track pays the fallback cost, so the two known tracks
	// pair up first and the unknown one drifts to the end.
	if ordered[len(ordered)-1].ID != "mystery" {
		t.Errorf("unknown track should be placed last here, got order %v", orderedIDs(ordered))
	}
}

func TestOrderFromAnchor(t *testing.T) {
	tracks := scenarioTracks(t)

	ordered, _ := OrderFrom(tracks, "B", DefaultConfig())
	if ordered[0].ID != "B" {
		t.Errorf("anchor B should open the sequence, got %v", orderedIDs(ordered))
	}

	// Still a permutation.
	if len(ordered) != len(tracks) {
		t.Fatalf("anchored output has %d tracks, want %d", len(ordered), len(tracks))
	}
}

func TestOrderFromUnknownAnchorFallsBack(t *testing.T) {
	tracks := scenarioTracks(t)

	ordered, _ := OrderFrom(tracks, "nope", DefaultConfig())
	plain, _ := Order(tracks, DefaultConfig())

	if !reflect.DeepEqual(orderedIDs(ordered), orderedIDs(plain)) {
		t.Errorf("unknown anchor should fall back to default opening: %v vs %v",
			orderedIDs(ordered), orderedIDs(plain))
	}
}
