// Package apiclient reads articles from the uutisvahti HTTP API.
package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	"uutisvahti/aggregator/internal/models"
)

const (
	articlesPath = "/v1/articles"

	DefaultPageSize = 100
	// DefaultOverlap is subtracted from since on every poll; consumers must be idempotent.
	DefaultOverlap = 2 * time.Minute
)

type page struct {
	Items      []models.Article `json:"items"`
	NextCursor *string          `json:"next_cursor"`
}

// Filter narrows which articles are fetched.
type Filter struct {
	Category    models.Category
	Significant bool
	MinScore    int
}

// Client pages through /v1/articles.
type Client struct {
	http     *resty.Client
	pageSize int
	overlap  time.Duration
}

// New creates a client for baseURL. Transport errors, 429 and 5xx
// responses are retried with backoff.
func New(baseURL, apiKey string, timeout time.Duration) *Client {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetRetryCount(3).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(5 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= http.StatusInternalServerError
		})
	if apiKey != "" {
		client.SetHeader("X-API-Key", apiKey)
	}

	return &Client{http: client, pageSize: DefaultPageSize, overlap: DefaultOverlap}
}

func (c *Client) fetch(ctx context.Context, params map[string]string) (*page, error) {
	var out page
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetResult(&out).
		Get(articlesPath)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("API returned non-200 status: %d - Body: %s", resp.StatusCode(), resp.String())
	}
	return &out, nil
}

// Poll hands every article created after since, minus the overlap, to
// handle in creation order, following cursors to the last page. It returns
// the newest created_at seen, or since when nothing newer arrived.
func (c *Client) Poll(ctx context.Context, since time.Time, f Filter, handle func(models.Article) error) (time.Time, int, error) {
	params := map[string]string{
		"limit": strconv.Itoa(c.pageSize),
		"since": since.Add(-c.overlap).UTC().Format(time.RFC3339),
	}
	if f.Category != "" {
		params["category"] = string(f.Category)
	}
	if f.Significant {
		params["significant"] = "true"
	}
	if f.MinScore > 0 {
		params["min_score"] = strconv.Itoa(f.MinScore)
	}

	newest := since
	count := 0
	for {
		p, err := c.fetch(ctx, params)
		if err != nil {
			return newest, count, err
		}

		for _, a := range p.Items {
			if err := handle(a); err != nil {
				return newest, count, err
			}
			if a.CreatedAt.After(newest) {
				newest = a.CreatedAt.UTC()
			}
			count++
		}

		if p.NextCursor == nil || *p.NextCursor == "" {
			break
		}
		delete(params, "since")
		params["cursor"] = *p.NextCursor
	}

	log.Debug().Int("articles", count).Time("newest", newest).Msg("Poll finished")
	return newest, count, nil
}
