package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"uutisvahti/aggregator/internal/database"
	"uutisvahti/aggregator/internal/models"
	"uutisvahti/aggregator/internal/server/pagination"
)

type RepositoryTestSuite struct {
	suite.Suite
	db   *database.DB
	repo ArticleRepository
	ctx  context.Context
	base time.Time
}

func TestRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(RepositoryTestSuite))
}

func (s *RepositoryTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.base = time.Date(2025, 3, 28, 15, 0, 0, 0, time.UTC)

	db, err := database.NewDB(database.NewConfig(database.DriverSQLite, filepath.Join(s.T().TempDir(), "repo.db")))
	s.Require().NoError(err)
	s.db = db
	s.repo = NewRepository(db)

	research := s.source("https://research.example/feed", models.CategoryResearch)
	tools := s.source("https://tools.example/feed", models.CategoryTools)

	// Five articles one minute apart, alternating sources.
	scores := []int{30, 55, 70, 45, 90}
	for i, score := range scores {
		src := research
		if i%2 == 1 {
			src = tools
		}
		a := models.NewArticle()
		a.SourceID = src
		a.Title = "Article"
		a.URL = "https://example.com/" + string(rune('a'+i))
		a.Score = score
		a.IsSignificant = score >= models.SignificanceThreshold
		a.CreatedAt = s.base.Add(time.Duration(i+1) * time.Minute)
		a.UpdatedAt = a.CreatedAt
		s.Require().NoError(db.InsertArticle(s.ctx, a))
	}
}

func (s *RepositoryTestSuite) TearDownTest() {
	s.db.Close()
}

func (s *RepositoryTestSuite) source(url string, category models.Category) int64 {
	src := models.NewSource()
	src.Name = url
	src.RSSURL = url
	src.Category = category
	s.Require().NoError(s.db.InsertSource(s.ctx, src))
	return src.ID
}

func urls(articles []models.Article) []string {
	out := make([]string, 0, len(articles))
	for _, a := range articles {
		out = append(out, a.URL)
	}
	return out
}

func (s *RepositoryTestSuite) TestSince() {
	since := s.base.Add(2 * time.Minute)
	got, err := s.repo.FetchArticles(s.ctx, ArticleFilter{Limit: 10, Since: &since})
	s.Require().NoError(err)
	s.Equal([]string{"https://example.com/c", "https://example.com/d", "https://example.com/e"}, urls(got))
}

func (s *RepositoryTestSuite) TestCursorPaging() {
	since := s.base
	page, err := s.repo.FetchArticles(s.ctx, ArticleFilter{Limit: 2, Since: &since})
	s.Require().NoError(err)
	s.Require().Len(page, 2)

	last := page[1]
	cursor := pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}
	next, err := s.repo.FetchArticles(s.ctx, ArticleFilter{Limit: 2, Cursor: &cursor})
	s.Require().NoError(err)
	s.Equal([]string{"https://example.com/c", "https://example.com/d"}, urls(next))
}

func (s *RepositoryTestSuite) TestFilters() {
	since := s.base

	got, err := s.repo.FetchArticles(s.ctx, ArticleFilter{Limit: 10, Since: &since, Category: models.CategoryTools})
	s.Require().NoError(err)
	s.Equal([]string{"https://example.com/b", "https://example.com/d"}, urls(got))

	got, err = s.repo.FetchArticles(s.ctx, ArticleFilter{Limit: 10, Since: &since, Significant: true})
	s.Require().NoError(err)
	s.Equal([]string{"https://example.com/b", "https://example.com/c", "https://example.com/e"}, urls(got))

	got, err = s.repo.FetchArticles(s.ctx, ArticleFilter{Limit: 10, Since: &since, MinScore: 70, Category: models.CategoryResearch})
	s.Require().NoError(err)
	s.Equal([]string{"https://example.com/c", "https://example.com/e"}, urls(got))
}

func (s *RepositoryTestSuite) TestEmptyResultIsNotNil() {
	since := s.base.Add(time.Hour)
	got, err := s.repo.FetchArticles(s.ctx, ArticleFilter{Limit: 10, Since: &since})
	s.Require().NoError(err)
	s.NotNil(got)
	s.Empty(got)
}

func (s *RepositoryTestSuite) TestRequiresSinceOrCursor() {
	_, err := s.repo.FetchArticles(s.ctx, ArticleFilter{Limit: 10})
	s.Error(err)
}

func TestBuildQueryPostgresPlaceholders(t *testing.T) {
	since := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	query, args, err := BuildQuery(sq.StatementBuilder.PlaceholderFormat(sq.Dollar), ArticleFilter{
		Limit:    5,
		Since:    &since,
		Category: models.CategoryRegulation,
		MinScore: 50,
	})
	require.NoError(t, err)

	for _, want := range []string{
		"JOIN sources s ON s.id = a.source_id",
		"a.created_at > $1",
		"s.category = $2",
		"a.score >= $3",
		"LIMIT 5",
	} {
		assert.Contains(t, query, want)
	}
	assert.Len(t, args, 3)
}
