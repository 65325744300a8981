package database

import (
	"context"
	"fmt"
	"time"

	"uutisvahti/aggregator/internal/models"
)

const sourceColumns = `id, name, rss_url, category, weight, is_active, created_at, updated_at`

// ListActiveSources returns every source flagged active, oldest first.
func (db *DB) ListActiveSources(ctx context.Context) ([]models.Source, error) {
	query := db.Rebind(`SELECT ` + sourceColumns + ` FROM sources WHERE is_active = ? ORDER BY id`)

	sources := []models.Source{}
	if err := db.SelectContext(ctx, &sources, query, true); err != nil {
		return nil, fmt.Errorf("failed to list active sources: %w", err)
	}
	return sources, nil
}

// ListSources returns all sources regardless of state.
func (db *DB) ListSources(ctx context.Context) ([]models.Source, error) {
	sources := []models.Source{}
	if err := db.SelectContext(ctx, &sources, `SELECT `+sourceColumns+` FROM sources ORDER BY id`); err != nil {
		return nil, fmt.Errorf("failed to list sources: %w", err)
	}
	return sources, nil
}

// InsertSource stores a new source and sets its ID.
// An active source whose feed URL is already active yields ErrDuplicate.
func (db *DB) InsertSource(ctx context.Context, src *models.Source) error {
	now := time.Now().UTC()
	if src.CreatedAt.IsZero() {
		src.CreatedAt = now
	}
	if src.UpdatedAt.IsZero() {
		src.UpdatedAt = now
	}

	query := db.Rebind(`
		INSERT INTO sources (name, rss_url, category, weight, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`)

	err := db.QueryRowxContext(ctx, query,
		src.Name,
		src.RSSURL,
		string(src.Category),
		src.Weight,
		src.IsActive,
		src.CreatedAt.UTC(),
		src.UpdatedAt.UTC(),
	).Scan(&src.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to insert source %s: %w", src.RSSURL, err)
	}
	return nil
}

// SetSourceActive toggles a source on or off.
func (db *DB) SetSourceActive(ctx context.Context, id int64, active bool) error {
	query := db.Rebind(`UPDATE sources SET is_active = ?, updated_at = ? WHERE id = ?`)
	if _, err := db.ExecContext(ctx, query, active, time.Now().UTC(), id); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to update source %d: %w", id, err)
	}
	return nil
}
