// Package sorter orchestrates a sort end to end: load a playlist from
// Spotify, resolve audio attributes, order the tracks, and optionally write
// the new order back.
package sorter

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/justestif/go-spotify-playlist-sorter/internal/db"
	"github.com/justestif/go-spotify-playlist-sorter/internal/sequence"
	"github.com/justestif/go-spotify-playlist-sorter/internal/spotify"
)

// phaseCount is how many energy phases a sorted playlist is split into for
// display. DetectPhases falls back to a single phase for short playlists.
const phaseCount = 3

// PlaylistClient is the part of the Spotify client the sorter uses.
type PlaylistClient interface {
	ListPlaylists(ctx context.Context) ([]spotify.Playlist, error)
	PlaylistName(ctx context.Context, playlistID string) (string, error)
	PlaylistTracks(ctx context.Context, playlistID string) ([]spotify.PlaylistTrack, error)
	Reorder(ctx context.Context, playlistID string, trackIDs []string) error
}

// AttributeSource resolves audio attributes for playlist tracks.
type AttributeSource interface {
	ForPlaylist(ctx context.Context, playlistID string, tracks []spotify.PlaylistTrack) ([]sequence.Track, error)
}

// Playlist is a playlist with attributes resolved, ready to sort.
type Playlist struct {
	ID     string
	Name   string
	Tracks []sequence.Track
}

// Result is the outcome of one sort: the proposed order, the transition
// report, and the stored run that Apply later refers to.
type Result struct {
	Run     Run
	Ordered []sequence.Track
	Report  sequence.Report
	Phases  []sequence.Phase
}

// Service ties the Spotify client, the attribute source and the run store
// together.
type Service struct {
	client   PlaylistClient
	attrs    AttributeSource
	runs     RunStore
	database *db.DB
	cfg      sequence.Config
	logger   *log.Logger
}

// NewService creates a sorter service. database may be nil, in which case
// track metadata is not persisted between runs.
func NewService(client PlaylistClient, attrs AttributeSource, runs RunStore, database *db.DB, cfg sequence.Config, logger *log.Logger) *Service {
	return &Service{
		client:   client,
		attrs:    attrs,
		runs:     runs,
		database: database,
		cfg:      cfg,
		logger:   logger,
	}
}

// ListPlaylists returns the current user's playlists.
func (s *Service) ListPlaylists(ctx context.Context) ([]spotify.Playlist, error) {
	return s.client.ListPlaylists(ctx)
}

// LoadPlaylist fetches a playlist and resolves attributes for its tracks.
func (s *Service) LoadPlaylist(ctx context.Context, playlistID string) (*Playlist, error) {
	name, err := s.client.PlaylistName(ctx, playlistID)
	if err != nil {
		return nil, fmt.Errorf("loading playlist %s: %w", playlistID, err)
	}

	items, err := s.client.PlaylistTracks(ctx, playlistID)
	if err != nil {
		return nil, fmt.Errorf("loading tracks for playlist %s: %w", playlistID, err)
	}

	tracks, err := s.attrs.ForPlaylist(ctx, playlistID, items)
	if err != nil {
		return nil, err
	}

	return &Playlist{ID: playlistID, Name: name, Tracks: tracks}, nil
}

// Sort loads the playlist, computes the proposed order and records a run.
// anchorID, when non-empty, forces that track to open the sequence.
func (s *Service) Sort(ctx context.Context, userID, playlistID, anchorID string) (*Result, error) {
	playlist, err := s.LoadPlaylist(ctx, playlistID)
	if err != nil {
		return nil, err
	}

	var (
		ordered []sequence.Track
		report  sequence.Report
	)
	if anchorID != "" {
		ordered, report = sequence.OrderFrom(playlist.Tracks, anchorID, s.cfg)
	} else {
		ordered, report = sequence.Order(playlist.Tracks, s.cfg)
	}

	phases, _ := sequence.DetectPhases(ordered, phaseCount)

	run := Run{
		ID:           uuid.New(),
		UserID:       userID,
		PlaylistID:   playlistID,
		PlaylistName: playlist.Name,
		TrackIDs:     trackIDs(ordered),
		AverageCost:  report.AverageCost,
		CreatedAt:    time.Now(),
	}
	if err := s.runs.Create(ctx, run); err != nil {
		return nil, fmt.Errorf("recording sort run: %w", err)
	}

	s.persistTracks(ctx, ordered)

	s.logger.Info("sorted playlist",
		"playlist", playlistID,
		"tracks", len(ordered),
		"avg_cost", report.AverageCost,
		"unknown", len(report.Unknown))

	return &Result{Run: run, Ordered: ordered, Report: report, Phases: phases}, nil
}

// Apply writes a recorded run's order back to Spotify and marks it applied.
func (s *Service) Apply(ctx context.Context, runID uuid.UUID) (*Run, error) {
	run, err := s.runs.Get(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("loading sort run %s: %w", runID, err)
	}

	if err := s.client.Reorder(ctx, run.PlaylistID, run.TrackIDs); err != nil {
		return nil, fmt.Errorf("applying sort run %s: %w", runID, err)
	}

	if err := s.runs.MarkApplied(ctx, runID); err != nil {
		return nil, fmt.Errorf("marking sort run %s applied: %w", runID, err)
	}

	run.Applied = true
	s.logger.Info("applied playlist order", "playlist", run.PlaylistID, "tracks", len(run.TrackIDs))
	return run, nil
}

// History returns the user's past runs, newest first.
func (s *Service) History(ctx context.Context, userID string) ([]Run, error) {
	return s.runs.GetForUser(ctx, userID)
}

// persistTracks stores track metadata when a database is configured. This
// is best-effort bookkeeping and never fails the sort.
func (s *Service) persistTracks(ctx context.Context, tracks []sequence.Track) {
	if s.database == nil {
		return
	}

	rows := make([]db.Track, len(tracks))
	for i, t := range tracks {
		rows[i] = db.Track{ID: t.ID, Title: t.Title, Artist: t.Artist, Popularity: t.Popularity}
	}
	if err := s.database.Tracks().UpsertBatch(ctx, rows); err != nil {
		s.logger.Warn("persisting track metadata failed", "err", err)
	}
}

func trackIDs(tracks []sequence.Track) []string {
	ids := make([]string, len(tracks))
	for i, t := range tracks {
		ids[i] = t.ID
	}
	return ids
}
