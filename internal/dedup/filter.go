package dedup

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

// Store answers whether an article URL is already persisted.
type Store interface {
	ArticleExists(ctx context.Context, url string) (bool, error)
}

// Cache is an optional front for Store. Errors from it are never fatal.
type Cache interface {
	Seen(ctx context.Context, url string) (bool, error)
	Remember(ctx context.Context, url string) error
}

// Filter checks canonical URLs against stored articles.
// The check is not paired with the insert; the unique URL column is what
// actually prevents duplicates when runs overlap.
type Filter struct {
	store Store
	cache Cache
}

// NewFilter creates a Filter. cache may be nil.
func NewFilter(store Store, cache Cache) *Filter {
	return &Filter{store: store, cache: cache}
}

// IsDuplicate reports whether an article with exactly url is already known.
func (f *Filter) IsDuplicate(ctx context.Context, url string) (bool, error) {
	if f.cache != nil {
		seen, err := f.cache.Seen(ctx, url)
		if err != nil {
			log.Warn().Err(err).Str("url", url).Msg("Seen-cache lookup failed, falling back to storage")
		} else if seen {
			return true, nil
		}
	}

	exists, err := f.store.ArticleExists(ctx, url)
	if err != nil {
		return false, fmt.Errorf("dedup lookup failed: %w", err)
	}

	if exists {
		f.Remember(ctx, url)
	}
	return exists, nil
}

// Remember records url in the cache after it was stored.
func (f *Filter) Remember(ctx context.Context, url string) {
	if f.cache == nil {
		return
	}
	if err := f.cache.Remember(ctx, url); err != nil {
		log.Warn().Err(err).Str("url", url).Msg("Failed to remember URL in seen-cache")
	}
}
