package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// TrackRepository handles track database operations.
type TrackRepository struct {
	pool *pgxpool.Pool
}

// UpsertBatch inserts or updates multiple tracks efficiently.
func (r *TrackRepository) UpsertBatch(ctx context.Context, tracks []Track) error {
	if len(tracks) == 0 {
		return nil
	}

	query := `
		INSERT INTO tracks (id, title, artist, popularity, created_at)
		SELECT * FROM unnest($1::text[], $2::text[], $3::text[], $4::int[], $5::timestamptz[])
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			artist = EXCLUDED.artist,
			popularity = EXCLUDED.popularity
	`

	ids := make([]string, len(tracks))
	titles := make([]string, len(tracks))
	artists := make([]string, len(tracks))
	popularities := make([]int, len(tracks))
	createdAts := make([]time.Time, len(tracks))

	now := time.Now()
	for i, t := range tracks {
		ids[i] = t.ID
		titles[i] = t.Title
		artists[i] = t.Artist
		popularities[i] = t.Popularity
		createdAts[i] = now
	}

	_, err := r.pool.Exec(ctx, query, ids, titles, artists, popularities, createdAts)
	if err != nil {
		return fmt.Errorf("upserting tracks: %w", err)
	}
	return nil
}

// GetByIDs retrieves tracks by ID, keyed by track ID.
func (r *TrackRepository) GetByIDs(ctx context.Context, ids []string) (map[string]Track, error) {
	if len(ids) == 0 {
		return map[string]Track{}, nil
	}

	query := `
		SELECT id, title, artist, popularity, created_at
		FROM tracks
		WHERE id = ANY($1)
	`
	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("querying tracks: %w", err)
	}
	defer rows.Close()

	result := make(map[string]Track, len(ids))
	for rows.Next() {
		var t Track
		if err := rows.Scan(&t.ID, &t.Title, &t.Artist, &t.Popularity, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning track: %w", err)
		}
		result[t.ID] = t
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tracks: %w", err)
	}
	return result, nil
}
