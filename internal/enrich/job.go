package enrich

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"uutisvahti/aggregator/internal/metrics"
	"uutisvahti/aggregator/internal/models"
)

const (
	DefaultBatch = 5
	DefaultDelay = 5 * time.Second
)

// Store is the article storage the job reads from and writes to.
type Store interface {
	PendingEnrichment(ctx context.Context, limit int) ([]models.Article, error)
	CountPendingEnrichment(ctx context.Context) (int, error)
	UpdateEnrichment(ctx context.Context, id int64, e models.Enrichment) error
}

// Summarizer produces the Finnish fields for one article.
type Summarizer interface {
	Summarize(ctx context.Context, a models.Article) (*models.Enrichment, error)
}

// Result is the outcome of one batch.
type Result struct {
	Success    bool `json:"success"`
	Summarized int  `json:"summarized"`
	Failed     int  `json:"failed"`
	Remaining  int  `json:"remaining"`
}

// Job fills in Finnish summaries for articles that lack them.
type Job struct {
	store      Store
	summarizer Summarizer
	batch      int
	delay      time.Duration
	sleep      func(ctx context.Context, d time.Duration) error
}

type Option func(*Job)

// WithBatch overrides DefaultBatch.
func WithBatch(n int) Option {
	return func(j *Job) {
		if n > 0 {
			j.batch = n
		}
	}
}

// WithDelay sets the pause between model calls.
func WithDelay(d time.Duration) Option {
	return func(j *Job) { j.delay = d }
}

// WithSleep replaces the pause implementation.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(j *Job) { j.sleep = sleep }
}

func NewJob(store Store, summarizer Summarizer, opts ...Option) *Job {
	j := &Job{
		store:      store,
		summarizer: summarizer,
		batch:      DefaultBatch,
		delay:      DefaultDelay,
		sleep:      sleepContext,
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Run enriches one batch of pending articles, newest first. A failed model
// call or update counts against the article and the batch moves on.
func (j *Job) Run(ctx context.Context) (*Result, error) {
	articles, err := j.store.PendingEnrichment(ctx, j.batch)
	if err != nil {
		return nil, err
	}

	log.Info().Int("count", len(articles)).Msg("Found articles to summarize")

	res := &Result{Success: true}
	for i, a := range articles {
		if i > 0 && j.delay > 0 {
			if err := j.sleep(ctx, j.delay); err != nil {
				log.Warn().Err(err).Msg("Enrichment batch interrupted")
				break
			}
		}

		if err := j.enrich(ctx, a); err != nil {
			res.Failed++
			metrics.EnrichmentsTotal.WithLabelValues(metrics.OutcomeFailed).Inc()
			log.Error().Err(err).Int64("article_id", a.ID).Msg("Failed to summarize article")
			continue
		}
		res.Summarized++
		metrics.EnrichmentsTotal.WithLabelValues(metrics.OutcomeSummarized).Inc()
		log.Debug().Int64("article_id", a.ID).Str("title", truncate(a.Title, 50)).Msg("Summarized article")
	}

	remaining, err := j.store.CountPendingEnrichment(context.WithoutCancel(ctx))
	if err != nil {
		log.Warn().Err(err).Msg("Failed to count pending articles")
		remaining = len(articles) - res.Summarized
	}
	res.Remaining = remaining

	log.Info().
		Int("summarized", res.Summarized).
		Int("failed", res.Failed).
		Int("remaining", res.Remaining).
		Msg("Summarization complete")

	return res, nil
}

func (j *Job) enrich(ctx context.Context, a models.Article) error {
	e, err := j.summarizer.Summarize(ctx, a)
	if err != nil {
		return err
	}
	if err := j.store.UpdateEnrichment(ctx, a.ID, *e); err != nil {
		return fmt.Errorf("failed to store enrichment: %w", err)
	}
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
