package storage

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"uutisvahti/aggregator/internal/database"
	"uutisvahti/aggregator/internal/models"
	"uutisvahti/aggregator/internal/server/pagination"
)

// ArticleFilter narrows an article listing. Either Since or Cursor must be set.
type ArticleFilter struct {
	Limit       int
	Since       *time.Time
	Cursor      *pagination.Cursor
	Category    models.Category
	MinScore    int
	Significant bool
}

// ArticleRepository defines read access to stored articles.
type ArticleRepository interface {
	FetchArticles(ctx context.Context, f ArticleFilter) ([]models.Article, error)
}

type sqlxRepository struct {
	db      *database.DB
	builder sq.StatementBuilderType
}

// NewRepository creates a repository whose placeholders match the driver.
func NewRepository(db *database.DB) ArticleRepository {
	format := sq.Question
	if db.DriverName() == database.DriverPostgres {
		format = sq.Dollar
	}
	return &sqlxRepository{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(format),
	}
}

var articleColumns = []string{
	"a.id", "a.source_id", "a.title", "a.url", "a.guid", "a.published_at", "a.raw_excerpt",
	"a.score", "a.is_significant", "a.summary_fi", "a.why_it_matters", "a.tags", "a.title_fi",
	"a.created_at", "a.updated_at",
}

// BuildQuery renders the listing query for f in (created_at, id) order.
func BuildQuery(b sq.StatementBuilderType, f ArticleFilter) (string, []any, error) {
	q := b.Select(articleColumns...).
		From("articles a").
		OrderBy("a.created_at ASC", "a.id ASC").
		Limit(uint64(f.Limit))

	switch {
	case f.Cursor != nil:
		ts := f.Cursor.CreatedAt.UTC()
		q = q.Where(sq.Or{
			sq.Gt{"a.created_at": ts},
			sq.And{sq.Eq{"a.created_at": ts}, sq.Gt{"a.id": f.Cursor.ID}},
		})
	case f.Since != nil:
		q = q.Where(sq.Gt{"a.created_at": f.Since.UTC()})
	default:
		return "", nil, fmt.Errorf("either 'since' or cursor parameters must be provided")
	}

	if f.Category != "" {
		q = q.Join("sources s ON s.id = a.source_id").Where(sq.Eq{"s.category": string(f.Category)})
	}
	if f.Significant {
		q = q.Where(sq.Eq{"a.is_significant": true})
	}
	if f.MinScore > 0 {
		q = q.Where(sq.GtOrEq{"a.score": f.MinScore})
	}

	return q.ToSql()
}

// FetchArticles retrieves articles created after Since or after Cursor.
func (r *sqlxRepository) FetchArticles(ctx context.Context, f ArticleFilter) ([]models.Article, error) {
	query, args, err := BuildQuery(r.builder, f)
	if err != nil {
		return nil, err
	}

	articles := []models.Article{}
	if err := r.db.SelectContext(ctx, &articles, query, args...); err != nil {
		return nil, fmt.Errorf("database query failed: %w", err)
	}
	return articles, nil
}
