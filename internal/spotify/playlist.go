package spotify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/zmb3/spotify/v2"
)

const maxTracksPerRequest = 100

// ListPlaylists returns the current user's playlists.
func (c *Client) ListPlaylists(ctx context.Context) ([]Playlist, error) {
	var playlists []Playlist

	page, err := c.api.CurrentUsersPlaylists(ctx, spotify.Limit(50))
	if err != nil {
		return nil, fmt.Errorf("fetching playlists: %w", err)
	}

	for {
		for _, p := range page.Playlists {
			playlists = append(playlists, Playlist{
				ID:         p.ID.String(),
				Name:       p.Name,
				TrackCount: int(p.Tracks.Total),
				OwnerID:    p.Owner.ID,
			})
		}

		err = c.api.NextPage(ctx, page)
		if errors.Is(err, spotify.ErrNoMorePages) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("fetching next playlist page: %w", err)
		}
	}

	return playlists, nil
}

// PlaylistName returns the display name of a playlist.
func (c *Client) PlaylistName(ctx context.Context, playlistID string) (string, error) {
	p, err := c.api.GetPlaylist(ctx, spotify.ID(playlistID))
	if err != nil {
		return "", fmt.Errorf("fetching playlist %s: %w", playlistID, err)
	}
	return p.Name, nil
}

// PlaylistTracks returns all tracks of a playlist in playlist order.
// Episodes and local files (items without a track ID) are skipped.
func (c *Client) PlaylistTracks(ctx context.Context, playlistID string) ([]PlaylistTrack, error) {
	var tracks []PlaylistTrack

	page, err := c.api.GetPlaylistItems(ctx, spotify.ID(playlistID))
	if err != nil {
		return nil, fmt.Errorf("fetching playlist items: %w", err)
	}

	for {
		for _, item := range page.Items {
			if item.Track.Track == nil || item.Track.Track.ID == "" {
				continue
			}
			tracks = append(tracks, convertPlaylistTrack(item.Track.Track))
		}

		err = c.api.NextPage(ctx, page)
		if errors.Is(err, spotify.ErrNoMorePages) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("fetching next playlist item page: %w", err)
		}
	}

	return tracks, nil
}

// Reorder rewrites a playlist to the given track order. The Spotify API has
// no single reorder call for a full permutation, so the first 100 tracks
// replace the playlist contents and the remainder is appended in batches of
// 100, the same write path the underlying endpoints document.
func (c *Client) Reorder(ctx context.Context, playlistID string, trackIDs []string) error {
	if len(trackIDs) == 0 {
		return nil
	}

	ids := make([]spotify.ID, len(trackIDs))
	for i, id := range trackIDs {
		ids[i] = spotify.ID(id)
	}

	head := min(maxTracksPerRequest, len(ids))
	if err := c.api.ReplacePlaylistTracks(ctx, spotify.ID(playlistID), ids[:head]...); err != nil {
		return fmt.Errorf("replacing playlist tracks: %w", err)
	}

	for i := head; i < len(ids); i += maxTracksPerRequest {
		end := min(i+maxTracksPerRequest, len(ids))
		batch := ids[i:end]

		if _, err := c.api.AddTracksToPlaylist(ctx, spotify.ID(playlistID), batch...); err != nil {
			return fmt.Errorf("adding tracks (batch %d-%d): %w", i+1, end, err)
		}
	}

	return nil
}

// convertPlaylistTrack converts a Spotify FullTrack to a PlaylistTrack.
func convertPlaylistTrack(t *spotify.FullTrack) PlaylistTrack {
	artists := make([]string, len(t.Artists))
	for i, a := range t.Artists {
		artists[i] = a.Name
	}

	return PlaylistTrack{
		ID:         t.ID.String(),
		Title:      t.Name,
		Artist:     strings.Join(artists, ", "),
		Popularity: int(t.Popularity),
	}
}
