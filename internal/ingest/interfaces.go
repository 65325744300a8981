package ingest

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"uutisvahti/aggregator/internal/models"
)

type SourceStore interface {
	ListActiveSources(ctx context.Context) ([]models.Source, error)
}

type ArticleStore interface {
	InsertArticle(ctx context.Context, article *models.Article) error
}

type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

type Deduper interface {
	IsDuplicate(ctx context.Context, url string) (bool, error)
	Remember(ctx context.Context, url string)
}

type Publisher interface {
	PublishArticle(ctx context.Context, article *models.Article) error
	PublishRun(ctx context.Context, run *models.IngestRun) error
}

type Archiver interface {
	Archive(ctx context.Context, sourceID int64, runID string, body []byte) error
}
