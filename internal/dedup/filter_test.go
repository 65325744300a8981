package dedup

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	urls  map[string]bool
	err   error
	calls int
}

func (f *fakeStore) ArticleExists(_ context.Context, url string) (bool, error) {
	f.calls++
	return f.urls[url], f.err
}

type fakeCache struct {
	urls    map[string]bool
	seenErr error
	setErr  error
}

func (f *fakeCache) Seen(_ context.Context, url string) (bool, error) {
	return f.urls[url], f.seenErr
}

func (f *fakeCache) Remember(_ context.Context, url string) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.urls[url] = true
	return nil
}

func TestFilterWithoutCache(t *testing.T) {
	store := &fakeStore{urls: map[string]bool{"https://a/1": true}}
	f := NewFilter(store, nil)

	dup, err := f.IsDuplicate(context.Background(), "https://a/1")
	require.NoError(t, err)
	assert.True(t, dup)

	dup, err = f.IsDuplicate(context.Background(), "https://a/2")
	require.NoError(t, err)
	assert.False(t, dup)

	f.Remember(context.Background(), "https://a/2")
}

func TestFilterCacheHitSkipsStore(t *testing.T) {
	store := &fakeStore{urls: map[string]bool{}}
	cache := &fakeCache{urls: map[string]bool{"https://a/1": true}}
	f := NewFilter(store, cache)

	dup, err := f.IsDuplicate(context.Background(), "https://a/1")
	require.NoError(t, err)
	assert.True(t, dup)
	assert.Zero(t, store.calls)
}

func TestFilterStoreHitIsCached(t *testing.T) {
	store := &fakeStore{urls: map[string]bool{"https://a/1": true}}
	cache := &fakeCache{urls: map[string]bool{}}
	f := NewFilter(store, cache)

	dup, err := f.IsDuplicate(context.Background(), "https://a/1")
	require.NoError(t, err)
	assert.True(t, dup)
	assert.True(t, cache.urls["https://a/1"])
}

func TestFilterCacheErrorsFallThrough(t *testing.T) {
	store := &fakeStore{urls: map[string]bool{"https://a/1": true}}
	cache := &fakeCache{urls: map[string]bool{}, seenErr: errors.New("down"), setErr: errors.New("down")}
	f := NewFilter(store, cache)

	dup, err := f.IsDuplicate(context.Background(), "https://a/1")
	require.NoError(t, err)
	assert.True(t, dup)
	assert.Equal(t, 1, store.calls)
}

func TestFilterStoreError(t *testing.T) {
	f := NewFilter(&fakeStore{err: errors.New("db gone")}, nil)
	_, err := f.IsDuplicate(context.Background(), "https://a/1")
	assert.Error(t, err)
}
