package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SortRunRepository handles sort run database operations.
type SortRunRepository struct {
	pool *pgxpool.Pool
}

// Create stores a new sort run.
func (r *SortRunRepository) Create(ctx context.Context, run *SortRun) error {
	query := `
		INSERT INTO sort_runs (id, user_id, playlist_id, playlist_name, track_ids, average_cost, applied, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		RETURNING created_at
	`
	err := r.pool.QueryRow(ctx, query,
		run.ID,
		run.UserID,
		run.PlaylistID,
		run.PlaylistName,
		run.TrackIDs,
		run.AverageCost,
		run.Applied,
	).Scan(&run.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating sort run: %w", err)
	}
	return nil
}

// Get retrieves a sort run by ID. Returns ErrNotFound if absent.
func (r *SortRunRepository) Get(ctx context.Context, id uuid.UUID) (*SortRun, error) {
	query := `
		SELECT id, user_id, playlist_id, playlist_name, track_ids, average_cost, applied, created_at
		FROM sort_runs
		WHERE id = $1
	`
	var run SortRun
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&run.ID,
		&run.UserID,
		&run.PlaylistID,
		&run.PlaylistName,
		&run.TrackIDs,
		&run.AverageCost,
		&run.Applied,
		&run.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting sort run: %w", err)
	}
	return &run, nil
}

// MarkApplied flags a sort run as written back to Spotify.
func (r *SortRunRepository) MarkApplied(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `UPDATE sort_runs SET applied = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("marking sort run applied: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetForUser retrieves a user's sort runs, most recent first.
func (r *SortRunRepository) GetForUser(ctx context.Context, userID string) ([]SortRun, error) {
	query := `
		SELECT id, user_id, playlist_id, playlist_name, track_ids, average_cost, applied, created_at
		FROM sort_runs
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("querying sort runs: %w", err)
	}
	defer rows.Close()

	var runs []SortRun
	for rows.Next() {
		var run SortRun
		if err := rows.Scan(
			&run.ID,
			&run.UserID,
			&run.PlaylistID,
			&run.PlaylistName,
			&run.TrackIDs,
			&run.AverageCost,
			&run.Applied,
			&run.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning sort run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sort runs: %w", err)
	}
	return runs, nil
}
