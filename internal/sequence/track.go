// Package sequence orders playlist tracks for smooth DJ-style transitions
// using harmonic key compatibility, tempo similarity, and energy flow.
package sequence

// Track represents a playlist track with its audio attributes.
type Track struct {
	ID         string
	Title      string
	Artist     string
	Popularity int // 0-100, from Spotify
	// Audio attributes (nil if the attribute lookup missed)
	Key    *CamelotKey
	BPM    *float64
	Energy *float64 // normalized to [0,1]
}

// HasAttributes reports whether the track carries every attribute needed
// for transition scoring.
func (t *Track) HasAttributes() bool {
	return t.Key != nil && t.BPM != nil && t.Energy != nil
}
