package attributes

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/justestif/go-spotify-playlist-sorter/internal/songdata"
	"github.com/justestif/go-spotify-playlist-sorter/internal/spotify"
)

type fakeProvider struct {
	rows  []songdata.Row
	err   error
	calls int
}

func (f *fakeProvider) PlaylistAttributes(_ context.Context, _ string) ([]songdata.Row, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.rows, nil
}

func fptr(v float64) *float64 { return &v }

func testLogger() *log.Logger { return log.New(io.Discard) }

func TestForPlaylistMergesByIDAndName(t *testing.T) {
	provider := &fakeProvider{rows: []songdata.Row{
		{SpotifyID: "id1", Title: "First", Artist: "Alpha", Camelot: "8A", BPM: fptr(120), Energy: fptr(0.8)},
		{SpotifyID: "other", Title: "Second", Artist: "Beta", Camelot: "9A", BPM: fptr(125), Energy: fptr(0.6)},
	}}
	svc := NewService(provider, NewMemoryStore(), testLogger())

	tracks := []spotify.PlaylistTrack{
		{ID: "id1", Title: "First", Artist: "Alpha", Popularity: 70},
		{ID: "id2", Title: "second", Artist: "BETA"},
		{ID: "id3", Title: "Unknown", Artist: "Gamma"},
	}

	result, err := svc.ForPlaylist(context.Background(), "playlist", tracks)
	if err != nil {
		t.Fatalf("ForPlaylist() error = %v", err)
	}
	if len(result) != 3 {
		t.Fatalf("got %d tracks, want 3", len(result))
	}

	if result[0].Key == nil || result[0].Key.String() != "8A" {
		t.Errorf("track id1 key = %v, want 8A", result[0].Key)
	}
	if result[0].Popularity != 70 {
		t.Errorf("track id1 popularity = %d, want 70", result[0].Popularity)
	}

	// id2 matched by normalized artist and title despite a different
	// Spotify ID on the scraped row.
	if result[1].Key == nil || result[1].Key.String() != "9A" {
		t.Errorf("track id2 key = %v, want 9A", result[1].Key)
	}
	if result[1].BPM == nil || *result[1].BPM != 125 {
		t.Errorf("track id2 bpm = %v, want 125", result[1].BPM)
	}

	if result[2].HasAttributes() {
		t.Errorf("track id3 should have no attributes")
	}
}

func TestForPlaylistUsesCache(t *testing.T) {
	provider := &fakeProvider{rows: []songdata.Row{
		{SpotifyID: "id1", Title: "First", Artist: "Alpha", Camelot: "5B", BPM: fptr(100), Energy: fptr(0.5)},
	}}
	svc := NewService(provider, NewMemoryStore(), testLogger())
	tracks := []spotify.PlaylistTrack{{ID: "id1", Title: "First", Artist: "Alpha"}}

	for i := 0; i < 3; i++ {
		if _, err := svc.ForPlaylist(context.Background(), "playlist", tracks); err != nil {
			t.Fatalf("ForPlaylist() run %d error = %v", i, err)
		}
	}

	if provider.calls != 1 {
		t.Errorf("provider called %d times, want 1", provider.calls)
	}
}

func TestForPlaylistCachesMisses(t *testing.T) {
	provider := &fakeProvider{}
	svc := NewService(provider, NewMemoryStore(), testLogger())
	tracks := []spotify.PlaylistTrack{{ID: "id1", Title: "Obscure", Artist: "Nobody"}}

	for i := 0; i < 2; i++ {
		result, err := svc.ForPlaylist(context.Background(), "playlist", tracks)
		if err != nil {
			t.Fatalf("ForPlaylist() run %d error = %v", i, err)
		}
		if result[0].HasAttributes() {
			t.Errorf("run %d: miss should yield no attributes", i)
		}
	}

	// A confirmed miss is cached too, so the second run must not scrape.
	if provider.calls != 1 {
		t.Errorf("provider called %d times, want 1", provider.calls)
	}
}

func TestForPlaylistRefetchesStale(t *testing.T) {
	provider := &fakeProvider{rows: []songdata.Row{
		{SpotifyID: "id1", Title: "First", Artist: "Alpha", Camelot: "5B"},
	}}
	store := NewMemoryStore()
	store.UpsertBatch(context.Background(), []Record{
		{TrackID: "id1", FetchedAt: time.Now().Add(-48 * time.Hour)},
	})
	svc := NewService(provider, store, testLogger()).WithTTL(24 * time.Hour)

	result, err := svc.ForPlaylist(context.Background(), "playlist", []spotify.PlaylistTrack{
		{ID: "id1", Title: "First", Artist: "Alpha"},
	})
	if err != nil {
		t.Fatalf("ForPlaylist() error = %v", err)
	}
	if provider.calls != 1 {
		t.Errorf("provider called %d times, want 1", provider.calls)
	}
	if result[0].Key == nil || result[0].Key.String() != "5B" {
		t.Errorf("stale entry not refreshed, key = %v", result[0].Key)
	}
}

func TestForPlaylistScrapeError(t *testing.T) {
	scrapeErr := errors.New("site down")
	svc := NewService(&fakeProvider{err: scrapeErr}, NewMemoryStore(), testLogger())

	_, err := svc.ForPlaylist(context.Background(), "playlist", []spotify.PlaylistTrack{
		{ID: "id1", Title: "First", Artist: "Alpha"},
	})
	if !errors.Is(err, scrapeErr) {
		t.Errorf("ForPlaylist() error = %v, want wrapped scrape error", err)
	}
}

func TestForPlaylistEmpty(t *testing.T) {
	provider := &fakeProvider{}
	svc := NewService(provider, NewMemoryStore(), testLogger())

	result, err := svc.ForPlaylist(context.Background(), "playlist", nil)
	if err != nil {
		t.Fatalf("ForPlaylist() error = %v", err)
	}
	if result != nil {
		t.Errorf("got %v, want nil", result)
	}
	if provider.calls != 0 {
		t.Errorf("provider called %d times, want 0", provider.calls)
	}
}
