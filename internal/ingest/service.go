package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"uutisvahti/aggregator/internal/database"
	"uutisvahti/aggregator/internal/feed"
	"uutisvahti/aggregator/internal/metrics"
	"uutisvahti/aggregator/internal/models"
	"uutisvahti/aggregator/internal/scoring"
)

// DefaultMaxEntries caps how many parsed entries of one feed a run looks at.
const DefaultMaxEntries = 20

// ErrSourcesUnavailable is the only error that fails a whole run.
var ErrSourcesUnavailable = errors.New("failed to load active sources")

// Result is the outcome of one run. Only the first three fields are part of
// the wire shape.
type Result struct {
	Success  bool `json:"success"`
	Inserted int  `json:"inserted"`
	Skipped  int  `json:"skipped"`

	RunID         string        `json:"-"`
	Sources       int           `json:"-"`
	Failed        int           `json:"-"`
	FailedSources int           `json:"-"`
	Cancelled     bool          `json:"-"`
	Duration      time.Duration `json:"-"`
}

// Service drives fetch, parse, dedup, score and persist for every active source.
// Sources and entries are handled one at a time.
type Service struct {
	sources    SourceStore
	articles   ArticleStore
	fetcher    Fetcher
	dedup      Deduper
	scorer     *scoring.Scorer
	publisher  Publisher
	archiver   Archiver
	maxEntries int
	now        func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithPublisher emits article and run events through p.
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithArchiver stores every fetched feed body through a.
func WithArchiver(a Archiver) Option {
	return func(s *Service) { s.archiver = a }
}

// WithMaxEntries overrides DefaultMaxEntries.
func WithMaxEntries(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxEntries = n
		}
	}
}

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(
	sources SourceStore,
	articles ArticleStore,
	fetcher Fetcher,
	dedup Deduper,
	scorer *scoring.Scorer,
	opts ...Option,
) *Service {
	s := &Service{
		sources:    sources,
		articles:   articles,
		fetcher:    fetcher,
		dedup:      dedup,
		scorer:     scorer,
		maxEntries: DefaultMaxEntries,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run performs one ingestion pass. Per-source and per-entry failures are
// logged and absorbed; only a failure to list sources is returned. When ctx
// ends mid-run the counts gathered so far are returned.
func (s *Service) Run(ctx context.Context) (*Result, error) {
	started := s.now()
	res := &Result{RunID: uuid.NewString()}
	logger := log.With().Str("run_id", res.RunID).Logger()

	sources, err := s.sources.ListActiveSources(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Critical error loading sources from database")
		metrics.IngestRunsTotal.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("%w: %w", ErrSourcesUnavailable, err)
	}
	res.Sources = len(sources)

	logger.Info().Int("sources", len(sources)).Msg("Starting ingestion run")

	for i := range sources {
		if ctx.Err() != nil {
			res.Cancelled = true
			logger.Warn().Err(ctx.Err()).Int("remaining_sources", len(sources)-i).Msg("Ingestion run cancelled")
			break
		}
		s.processSource(ctx, res, &sources[i])
	}
	if ctx.Err() != nil {
		res.Cancelled = true
	}

	res.Success = true
	res.Duration = s.now().Sub(started)

	status := "completed"
	if res.Cancelled {
		status = "cancelled"
	}
	metrics.IngestRunsTotal.WithLabelValues(status).Inc()
	metrics.IngestLastRunTimestamp.SetToCurrentTime()

	logger.Info().
		Int("inserted", res.Inserted).
		Int("skipped", res.Skipped).
		Int("failed", res.Failed).
		Int("failed_sources", res.FailedSources).
		Bool("cancelled", res.Cancelled).
		Dur("duration", res.Duration).
		Msg("Ingestion run finished")

	s.publishRun(ctx, res, started)
	return res, nil
}

func (s *Service) processSource(ctx context.Context, res *Result, src *models.Source) {
	logger := log.With().
		Str("run_id", res.RunID).
		Int64("source_id", src.ID).
		Str("source", src.Name).
		Logger()

	fetchStart := time.Now()
	body, err := s.fetcher.Fetch(ctx, src.RSSURL)
	if err != nil {
		metrics.FeedFetchDuration.WithLabelValues("error").Observe(time.Since(fetchStart).Seconds())
		metrics.FeedFetchFailuresTotal.WithLabelValues(src.Name).Inc()
		res.FailedSources++
		logger.Warn().Err(err).Str("url", src.RSSURL).Msg("Failed to fetch feed, skipping source")
		return
	}
	metrics.FeedFetchDuration.WithLabelValues("ok").Observe(time.Since(fetchStart).Seconds())

	if s.archiver != nil {
		if err := s.archiver.Archive(ctx, src.ID, res.RunID, []byte(body)); err != nil {
			logger.Warn().Err(err).Msg("Failed to archive feed body")
		}
	}

	seen := 0
	for entry := range feed.Parse(body) {
		if seen == s.maxEntries {
			logger.Debug().Int("cap", s.maxEntries).Msg("Entry cap reached")
			break
		}
		seen++

		if ctx.Err() != nil {
			return
		}
		s.processEntry(ctx, res, src, entry)
	}

	logger.Info().Int("entries", seen).Msg("Feed processed")
}

func (s *Service) processEntry(ctx context.Context, res *Result, src *models.Source, entry feed.Entry) {
	logger := log.With().
		Str("run_id", res.RunID).
		Int64("source_id", src.ID).
		Str("url", entry.Link).
		Logger()

	dup, err := s.dedup.IsDuplicate(ctx, entry.Link)
	if err != nil {
		res.Failed++
		metrics.ArticlesTotal.WithLabelValues(src.Name, metrics.OutcomeFailed).Inc()
		logger.Error().Err(err).Msg("Dedup check failed")
		return
	}
	if dup {
		res.Skipped++
		metrics.ArticlesTotal.WithLabelValues(src.Name, metrics.OutcomeSkipped).Inc()
		return
	}

	article := s.newArticle(src, entry)
	if err := s.articles.InsertArticle(ctx, article); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			res.Skipped++
			metrics.ArticlesTotal.WithLabelValues(src.Name, metrics.OutcomeSkipped).Inc()
			logger.Debug().Msg("Duplicate URL detected on insert")
			return
		}
		res.Failed++
		metrics.ArticlesTotal.WithLabelValues(src.Name, metrics.OutcomeFailed).Inc()
		logger.Error().Err(err).Msg("Failed to insert article")
		return
	}

	res.Inserted++
	metrics.ArticlesTotal.WithLabelValues(src.Name, metrics.OutcomeInserted).Inc()
	logger.Debug().Int("score", article.Score).Bool("significant", article.IsSignificant).Msg("Article stored")

	s.dedup.Remember(ctx, article.URL)
	if s.publisher != nil {
		if err := s.publisher.PublishArticle(ctx, article); err != nil {
			logger.Warn().Err(err).Msg("Failed to publish article event")
		}
	}
}

func (s *Service) newArticle(src *models.Source, entry feed.Entry) *models.Article {
	now := s.now().UTC()
	score := s.scorer.Score(entry, src.Weight)

	a := &models.Article{
		SourceID:      src.ID,
		Title:         entry.Title,
		URL:           entry.Link,
		PublishedAt:   entry.PublishedAt,
		Score:         score,
		IsSignificant: scoring.IsSignificant(score),
		Tags:          models.Tags{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if a.PublishedAt == nil {
		a.PublishedAt = &now
	}
	if entry.GUID != "" {
		guid := entry.GUID
		a.GUID = &guid
	}
	if entry.Description != "" {
		excerpt := entry.Description
		a.RawExcerpt = &excerpt
	}
	return a
}

// publishRun uses a context detached from ctx so a cancelled run still reports.
func (s *Service) publishRun(ctx context.Context, res *Result, started time.Time) {
	if s.publisher == nil {
		return
	}

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	run := &models.IngestRun{
		RunID:         res.RunID,
		StartedAt:     started.UTC(),
		FinishedAt:    started.Add(res.Duration).UTC(),
		Sources:       res.Sources,
		Inserted:      res.Inserted,
		Skipped:       res.Skipped,
		Failed:        res.Failed,
		FailedSources: res.FailedSources,
		Cancelled:     res.Cancelled,
	}
	if err := s.publisher.PublishRun(pubCtx, run); err != nil {
		log.Warn().Err(err).Str("run_id", res.RunID).Msg("Failed to publish run event")
	}
}
