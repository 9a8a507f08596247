package sequence

import (
	"fmt"
	"slices"

	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"
)

// DefaultPhaseCount is the number of energy phases detected for display.
const DefaultPhaseCount = 3

// referenceBPM scales tempo into roughly [0,1] for clustering coordinates.
const referenceBPM = 200.0

// Phase groups tracks of similar energy and tempo for dashboard display.
type Phase struct {
	Label  string
	Energy float64 // centroid energy
	BPM    float64 // centroid tempo
	Tracks []Track
}

// phaseObservation wraps a Track to implement clusters.Observation.
type phaseObservation struct {
	track  *Track
	coords clusters.Coordinates
}

func (o phaseObservation) Coordinates() clusters.Coordinates {
	return o.coords
}

func (o phaseObservation) Distance(point clusters.Coordinates) float64 {
	return o.coords.Distance(point)
}

// DetectPhases clusters tracks by energy and tempo using k-means and labels
// the resulting groups from lowest to highest centroid energy. Tracks with
// unknown attributes are returned separately as unassigned.
func DetectPhases(tracks []Track, numPhases int) ([]Phase, []Track) {
	if numPhases <= 0 {
		numPhases = DefaultPhaseCount
	}

	var scorable []*Track
	var unassigned []Track
	for i := range tracks {
		t := &tracks[i]
		if t.HasAttributes() {
			scorable = append(scorable, t)
		} else {
			unassigned = append(unassigned, *t)
		}
	}

	// Too few tracks to form meaningful phases: one phase with everything.
	if len(scorable) < numPhases {
		if len(scorable) == 0 {
			return nil, unassigned
		}
		var all []Track
		for _, t := range scorable {
			all = append(all, *t)
		}
		return []Phase{singlePhase(all)}, unassigned
	}

	var obs clusters.Observations
	for _, t := range scorable {
		obs = append(obs, phaseObservation{
			track:  t,
			coords: clusters.Coordinates{*t.Energy, *t.BPM / referenceBPM},
		})
	}

	km := kmeans.New()
	result, err := km.Partition(obs, numPhases)
	if err != nil {
		// Clustering failure is cosmetic: fall back to a single phase.
		var all []Track
		for _, t := range scorable {
			all = append(all, *t)
		}
		return []Phase{singlePhase(all)}, unassigned
	}

	var phases []Phase
	for _, cluster := range result {
		var clusterTracks []Track
		for _, o := range cluster.Observations {
			if po, ok := o.(phaseObservation); ok {
				clusterTracks = append(clusterTracks, *po.track)
			}
		}
		if len(clusterTracks) == 0 {
			continue
		}
		phases = append(phases, Phase{
			Energy: cluster.Center[0],
			BPM:    cluster.Center[1] * referenceBPM,
			Tracks: clusterTracks,
		})
	}

	// Label phases from lowest to highest centroid energy.
	slices.SortFunc(phases, func(a, b Phase) int {
		switch {
		case a.Energy < b.Energy:
			return -1
		case a.Energy > b.Energy:
			return 1
		default:
			return 0
		}
	})
	for i := range phases {
		phases[i].Label = phaseLabel(i, len(phases))
	}

	return phases, unassigned
}

// phaseLabel names phase i of n, ordered by ascending energy.
func phaseLabel(i, n int) string {
	switch {
	case n == 1:
		return "Steady"
	case n == 2:
		if i == 0 {
			return "Warm-up"
		}
		return "Peak"
	case n == 3:
		return [...]string{"Warm-up", "Build", "Peak"}[i]
	default:
		return fmt.Sprintf("Phase %d", i+1)
	}
}

func singlePhase(all []Track) Phase {
	var energy, bpm float64
	for i := range all {
		energy += *all[i].Energy
		bpm += *all[i].BPM
	}
	n := float64(len(all))
	return Phase{
		Label:  phaseLabel(0, 1),
		Energy: energy / n,
		BPM:    bpm / n,
		Tracks: all,
	}
}
