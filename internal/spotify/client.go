// Package spotify wraps the Spotify Web API calls the sorter needs:
// listing playlists, reading their tracks, and writing an order back.
package spotify

import (
	"context"
	"fmt"

	"github.com/zmb3/spotify/v2"
)

// Client wraps an authenticated Spotify API client.
type Client struct {
	api *spotify.Client
}

// New wraps an already-authenticated API client.
func New(api *spotify.Client) *Client {
	return &Client{api: api}
}

// UserID returns the current user's Spotify ID, used to key sort runs.
func (c *Client) UserID(ctx context.Context) (string, error) {
	user, err := c.api.CurrentUser(ctx)
	if err != nil {
		return "", fmt.Errorf("getting current user: %w", err)
	}
	return user.ID, nil
}
