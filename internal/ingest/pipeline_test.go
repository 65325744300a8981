package ingest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uutisvahti/aggregator/internal/database"
	"uutisvahti/aggregator/internal/dedup"
	"uutisvahti/aggregator/internal/feed"
	"uutisvahti/aggregator/internal/models"
	"uutisvahti/aggregator/internal/scoring"
)

// newPipeline wires the real storage, fetcher and filter against a temp sqlite file.
func newPipeline(t *testing.T) (*Service, *database.DB) {
	t.Helper()

	db, err := database.NewDB(database.NewConfig(database.DriverSQLite, filepath.Join(t.TempDir(), "pipeline.db")))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	svc := NewService(
		db,
		db,
		feed.NewFetcher(2*time.Second, "AI-Uutisvahti/1.0"),
		dedup.NewFilter(db, nil),
		scoring.NewScorer(nil),
	)
	return svc, db
}

func addSource(t *testing.T, db *database.DB, name, url string) {
	t.Helper()
	src := models.NewSource()
	src.Name = name
	src.RSSURL = url
	src.Category = models.CategoryIndustry
	src.Weight = 5
	require.NoError(t, db.InsertSource(context.Background(), src))
}

func TestPipelineSecondRunSkipsSeenURLs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(rss(5, "stable")))
	}))
	defer srv.Close()

	svc, db := newPipeline(t)
	addSource(t, db, "stable", srv.URL)
	ctx := context.Background()

	first, err := svc.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, first.Inserted)
	assert.Zero(t, first.Skipped)

	second, err := svc.Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, second.Inserted)
	assert.Equal(t, 5, second.Skipped)
}

func TestPipelineIsolatesFailingSource(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer bad.Close()
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(rss(3, "good")))
	}))
	defer good.Close()

	svc, db := newPipeline(t)
	addSource(t, db, "bad", bad.URL)
	addSource(t, db, "good", good.URL)

	res, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 3, res.Inserted)
	assert.Equal(t, 1, res.FailedSources)
}

func TestPipelineCapsLargeFeeds(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(rss(50, "big")))
	}))
	defer srv.Close()

	svc, db := newPipeline(t)
	addSource(t, db, "big", srv.URL)

	res, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 20, res.Inserted)

	pending, err := db.CountPendingEnrichment(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 20, pending)
}
