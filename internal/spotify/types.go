package spotify

// Playlist is a summary of a user playlist for listing.
type Playlist struct {
	ID         string
	Name       string
	TrackCount int
	OwnerID    string
}

// PlaylistTrack contains the track metadata we need from a playlist entry.
type PlaylistTrack struct {
	ID         string
	Title      string
	Artist     string // Comma-separated artist names
	Popularity int    // 0-100
}
