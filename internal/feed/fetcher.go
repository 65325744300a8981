package feed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// ErrUnexpectedStatus is returned for any non-2xx response.
var ErrUnexpectedStatus = errors.New("unexpected status code")

// Fetcher downloads raw feed documents. It never retries; the next
// scheduled run is the retry.
type Fetcher struct {
	client *resty.Client
}

// NewFetcher creates a Fetcher that identifies itself with userAgent and
// gives up on a source after timeout.
func NewFetcher(timeout time.Duration, userAgent string) *Fetcher {
	return &Fetcher{
		client: resty.New().
			SetTimeout(timeout).
			SetRetryCount(0).
			SetHeader("User-Agent", userAgent).
			SetHeader("Accept", "application/rss+xml, application/atom+xml, application/xml, text/xml;q=0.9, */*;q=0.8"),
	}
}

// Fetch retrieves the body of the feed at url as text.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	resp, err := f.client.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		return "", fmt.Errorf("failed to fetch feed from %s: %w", url, err)
	}

	if !resp.IsSuccess() {
		return "", fmt.Errorf("%w %d from %s", ErrUnexpectedStatus, resp.StatusCode(), url)
	}

	return resp.String(), nil
}
