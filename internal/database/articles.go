package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"uutisvahti/aggregator/internal/models"
)

const articleColumns = `id, source_id, title, url, guid, published_at, raw_excerpt, score, is_significant,
	summary_fi, why_it_matters, tags, title_fi, created_at, updated_at`

// ArticleExists reports whether an article with exactly this URL is stored.
func (db *DB) ArticleExists(ctx context.Context, url string) (bool, error) {
	var exists bool
	query := db.Rebind(`SELECT EXISTS (SELECT 1 FROM articles WHERE url = ?)`)
	if err := db.GetContext(ctx, &exists, query, url); err != nil {
		return false, fmt.Errorf("failed to check article %s: %w", url, err)
	}
	return exists, nil
}

// InsertArticle stores a new article and sets its ID.
// ErrDuplicate is returned when the URL is already present.
func (db *DB) InsertArticle(ctx context.Context, a *models.Article) error {
	now := time.Now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = now
	}
	if a.PublishedAt == nil {
		published := a.CreatedAt
		a.PublishedAt = &published
	}

	query := db.Rebind(`
		INSERT INTO articles (source_id, title, url, guid, published_at, raw_excerpt, score, is_significant,
			tags, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (url) DO NOTHING
		RETURNING id
	`)

	err := db.QueryRowxContext(ctx, query,
		a.SourceID,
		a.Title,
		a.URL,
		a.GUID,
		a.PublishedAt.UTC(),
		a.RawExcerpt,
		a.Score,
		a.IsSignificant,
		a.Tags,
		a.CreatedAt.UTC(),
		a.UpdatedAt.UTC(),
	).Scan(&a.ID)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows), isUniqueViolation(err):
		return ErrDuplicate
	default:
		return fmt.Errorf("failed to insert article %s: %w", a.URL, err)
	}
}

// GetArticle loads one article by id.
func (db *DB) GetArticle(ctx context.Context, id int64) (*models.Article, error) {
	var a models.Article
	query := db.Rebind(`SELECT ` + articleColumns + ` FROM articles WHERE id = ?`)
	if err := db.GetContext(ctx, &a, query, id); err != nil {
		return nil, fmt.Errorf("failed to get article %d: %w", id, err)
	}
	return &a, nil
}

const pendingCondition = `summary_fi IS NULL OR title_fi IS NULL`

// PendingEnrichment returns up to limit articles missing a Finnish summary
// or title, newest first.
func (db *DB) PendingEnrichment(ctx context.Context, limit int) ([]models.Article, error) {
	query := db.Rebind(`SELECT ` + articleColumns + ` FROM articles WHERE ` + pendingCondition +
		` ORDER BY created_at DESC, id DESC LIMIT ?`)

	articles := []models.Article{}
	if err := db.SelectContext(ctx, &articles, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list pending articles: %w", err)
	}
	return articles, nil
}

// CountPendingEnrichment returns how many articles still await enrichment.
func (db *DB) CountPendingEnrichment(ctx context.Context) (int, error) {
	var n int
	if err := db.GetContext(ctx, &n, `SELECT COUNT(*) FROM articles WHERE `+pendingCondition); err != nil {
		return 0, fmt.Errorf("failed to count pending articles: %w", err)
	}
	return n, nil
}

// UpdateEnrichment writes the Finnish fields of an article. Score, title,
// URL and source are left untouched.
func (db *DB) UpdateEnrichment(ctx context.Context, id int64, e models.Enrichment) error {
	query := db.Rebind(`
		UPDATE articles
		SET title_fi = ?, summary_fi = ?, why_it_matters = ?, tags = ?, updated_at = ?
		WHERE id = ?
	`)

	res, err := db.ExecContext(ctx, query,
		e.TitleFI,
		e.SummaryFI,
		e.WhyItMatters,
		models.Tags(e.Tags),
		time.Now().UTC(),
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to update article %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("failed to update article %d: %w", id, sql.ErrNoRows)
	}
	return nil
}
