package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// AttributeRepository handles cached track attribute operations.
type AttributeRepository struct {
	pool *pgxpool.Pool
}

// GetForTracks retrieves cached attributes for the given track IDs,
// keyed by track ID. IDs without a cached row are simply absent.
func (r *AttributeRepository) GetForTracks(ctx context.Context, trackIDs []string) (map[string]TrackAttributes, error) {
	if len(trackIDs) == 0 {
		return map[string]TrackAttributes{}, nil
	}

	query := `
		SELECT track_id, camelot, bpm, energy, fetched_at
		FROM track_attributes
		WHERE track_id = ANY($1)
	`
	rows, err := r.pool.Query(ctx, query, trackIDs)
	if err != nil {
		return nil, fmt.Errorf("querying track attributes: %w", err)
	}
	defer rows.Close()

	result := make(map[string]TrackAttributes, len(trackIDs))
	for rows.Next() {
		var a TrackAttributes
		if err := rows.Scan(&a.TrackID, &a.Camelot, &a.BPM, &a.Energy, &a.FetchedAt); err != nil {
			return nil, fmt.Errorf("scanning track attributes: %w", err)
		}
		result[a.TrackID] = a
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating track attributes: %w", err)
	}
	return result, nil
}

// UpsertBatch inserts or updates cached attributes for multiple tracks.
func (r *AttributeRepository) UpsertBatch(ctx context.Context, attrs []TrackAttributes) error {
	if len(attrs) == 0 {
		return nil
	}

	query := `
		INSERT INTO track_attributes (track_id, camelot, bpm, energy, fetched_at)
		SELECT * FROM unnest($1::text[], $2::text[], $3::float8[], $4::float8[], $5::timestamptz[])
		ON CONFLICT (track_id) DO UPDATE SET
			camelot = EXCLUDED.camelot,
			bpm = EXCLUDED.bpm,
			energy = EXCLUDED.energy,
			fetched_at = EXCLUDED.fetched_at
	`

	trackIDs := make([]string, len(attrs))
	camelots := make([]*string, len(attrs))
	bpms := make([]*float64, len(attrs))
	energies := make([]*float64, len(attrs))
	fetchedAts := make([]time.Time, len(attrs))

	for i, a := range attrs {
		trackIDs[i] = a.TrackID
		camelots[i] = a.Camelot
		bpms[i] = a.BPM
		energies[i] = a.Energy
		fetchedAts[i] = a.FetchedAt
	}

	_, err := r.pool.Exec(ctx, query, trackIDs, camelots, bpms, energies, fetchedAts)
	if err != nil {
		return fmt.Errorf("upserting track attributes: %w", err)
	}
	return nil
}
