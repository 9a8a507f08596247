package spotify

import (
	"testing"

	"github.com/zmb3/spotify/v2"
)

func TestConvertPlaylistTrack(t *testing.T) {
	full := &spotify.FullTrack{
		SimpleTrack: spotify.SimpleTrack{
			ID:   "track123",
			Name: "Test Song",
			Artists: []spotify.SimpleArtist{
				{Name: "First Artist"},
				{Name: "Second Artist"},
			},
		},
		Popularity: 73,
	}

	got := convertPlaylistTrack(full)

	if got.ID != "track123" {
		t.Errorf("ID = %q, want track123", got.ID)
	}
	if got.Title != "Test Song" {
		t.Errorf("Title = %q, want Test Song", got.Title)
	}
	if got.Artist != "First Artist, Second Artist" {
		t.Errorf("Artist = %q, want joined names", got.Artist)
	}
	if got.Popularity != 73 {
		t.Errorf("Popularity = %d, want 73", got.Popularity)
	}
}

func TestConvertPlaylistTrackNoArtists(t *testing.T) {
	full := &spotify.FullTrack{
		SimpleTrack: spotify.SimpleTrack{ID: "x", Name: "Orphan"},
	}

	got := convertPlaylistTrack(full)
	if got.Artist != "" {
		t.Errorf("Artist = %q, want empty", got.Artist)
	}
}
