// Package attributes resolves audio attributes for playlist tracks,
// caching scraped results so repeated sorts don't hammer songdata.io.
package attributes

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/justestif/go-spotify-playlist-sorter/internal/sequence"
	"github.com/justestif/go-spotify-playlist-sorter/internal/songdata"
	"github.com/justestif/go-spotify-playlist-sorter/internal/spotify"
)

// CacheTTL is the duration after which cached attributes are considered
// stale. Key, BPM and energy almost never change, but the site corrects
// data occasionally.
const CacheTTL = 7 * 24 * time.Hour

// Provider is the stable lookup interface in front of the scraper, so the
// scraping implementation can be swapped without touching the sequencer.
type Provider interface {
	PlaylistAttributes(ctx context.Context, playlistID string) ([]songdata.Row, error)
}

// Record is a cached attribute entry for one track. Nil fields record a
// confirmed lookup miss, which is itself worth caching.
type Record struct {
	TrackID   string
	Camelot   *string
	BPM       *float64
	Energy    *float64
	FetchedAt time.Time
}

// Store persists attribute records between runs.
type Store interface {
	GetForTracks(ctx context.Context, trackIDs []string) (map[string]Record, error)
	UpsertBatch(ctx context.Context, records []Record) error
}

// Service resolves attributes for playlist tracks: cache first, one scrape
// of the playlist page for anything missing or stale, results persisted.
type Service struct {
	provider Provider
	store    Store
	ttl      time.Duration
	logger   *log.Logger
}

// NewService creates an attribute service with the default cache TTL.
func NewService(provider Provider, store Store, logger *log.Logger) *Service {
	return &Service{
		provider: provider,
		store:    store,
		ttl:      CacheTTL,
		logger:   logger,
	}
}

// WithTTL overrides the cache TTL, used by tests.
func (s *Service) WithTTL(ttl time.Duration) *Service {
	s.ttl = ttl
	return s
}

// ForPlaylist returns one sequence.Track per playlist track, in playlist
// order, with attributes filled in where known. Tracks the lookup missed
// keep nil attribute fields; the sequencer handles those with its fallback
// cost. The scrape is skipped entirely when every track has a fresh cache
// entry; a failed scrape is only an error when uncached tracks needed it.
func (s *Service) ForPlaylist(ctx context.Context, playlistID string, tracks []spotify.PlaylistTrack) ([]sequence.Track, error) {
	if len(tracks) == 0 {
		return nil, nil
	}

	trackIDs := make([]string, len(tracks))
	for i, t := range tracks {
		trackIDs[i] = t.ID
	}

	cached, err := s.store.GetForTracks(ctx, trackIDs)
	if err != nil {
		return nil, fmt.Errorf("reading attribute cache: %w", err)
	}

	staleThreshold := time.Now().Add(-s.ttl)
	records := make(map[string]Record, len(tracks))
	needsFetch := false
	for _, id := range trackIDs {
		rec, ok := cached[id]
		if !ok || rec.FetchedAt.Before(staleThreshold) {
			needsFetch = true
			continue
		}
		records[id] = rec
	}

	if needsFetch {
		fetched, err := s.scrape(ctx, playlistID, tracks, records)
		if err != nil {
			return nil, err
		}
		for id, rec := range fetched {
			records[id] = rec
		}
	}

	result := make([]sequence.Track, len(tracks))
	for i, t := range tracks {
		result[i] = toSequenceTrack(t, records[t.ID])
	}
	return result, nil
}

// scrape fetches the playlist page and builds records for every track not
// already resolved. Scraped rows match tracks by Spotify ID first, then by
// normalized artist and title.
func (s *Service) scrape(ctx context.Context, playlistID string, tracks []spotify.PlaylistTrack, resolved map[string]Record) (map[string]Record, error) {
	rows, err := s.provider.PlaylistAttributes(ctx, playlistID)
	if err != nil {
		return nil, fmt.Errorf("scraping attributes for playlist %s: %w", playlistID, err)
	}

	byID := make(map[string]songdata.Row, len(rows))
	byName := make(map[string]songdata.Row, len(rows))
	for _, row := range rows {
		byID[row.SpotifyID] = row
		byName[nameKey(row.Artist, row.Title)] = row
	}

	now := time.Now()
	fetched := make(map[string]Record)
	var toPersist []Record
	misses := 0

	for _, t := range tracks {
		if _, ok := resolved[t.ID]; ok {
			continue
		}

		rec := Record{TrackID: t.ID, FetchedAt: now}
		row, ok := byID[t.ID]
		if !ok {
			row, ok = byName[nameKey(t.Artist, t.Title)]
		}
		if ok {
			if row.Camelot != "" {
				camelot := row.Camelot
				rec.Camelot = &camelot
			}
			rec.BPM = row.BPM
			rec.Energy = row.Energy
		} else {
			misses++
		}

		fetched[t.ID] = rec
		toPersist = append(toPersist, rec)
	}

	if misses > 0 {
		s.logger.Warn("attribute lookup missed tracks", "playlist", playlistID, "missed", misses)
	}

	if len(toPersist) > 0 {
		if err := s.store.UpsertBatch(ctx, toPersist); err != nil {
			// Persisting is best-effort: the sort can still proceed
			// with in-memory results.
			s.logger.Warn("persisting attribute cache failed", "err", err)
		}
	}

	return fetched, nil
}

// toSequenceTrack combines Spotify metadata with a cached attribute record.
func toSequenceTrack(t spotify.PlaylistTrack, rec Record) sequence.Track {
	out := sequence.Track{
		ID:         t.ID,
		Title:      t.Title,
		Artist:     t.Artist,
		Popularity: t.Popularity,
		BPM:        rec.BPM,
		Energy:     rec.Energy,
	}
	if rec.Camelot != nil {
		if key, err := sequence.ParseCamelotKey(*rec.Camelot); err == nil {
			out.Key = key
		}
	}
	return out
}

func nameKey(artist, title string) string {
	return strings.ToLower(strings.TrimSpace(artist)) + "|" + strings.ToLower(strings.TrimSpace(title))
}
