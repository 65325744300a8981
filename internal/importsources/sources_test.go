package importsources

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uutisvahti/aggregator/internal/database"
	"uutisvahti/aggregator/internal/models"
)

type memStore struct {
	sources []*models.Source
}

func (m *memStore) InsertSource(_ context.Context, src *models.Source) error {
	for _, s := range m.sources {
		if s.IsActive && src.IsActive && s.RSSURL == src.RSSURL {
			return database.ErrDuplicate
		}
	}
	src.ID = int64(len(m.sources) + 1)
	m.sources = append(m.sources, src)
	return nil
}

const sampleCSV = `name,rss_url,category,weight,is_active
OpenAI Blog,https://openai.com/blog/rss.xml,industry,8,true
arXiv cs.AI,https://export.arxiv.org/rss/cs.AI,Research,,
EU,https://digital-strategy.ec.europa.eu/rss,regulation,11,true
Nowhere,not a url,tools,5,true
Sports,https://example.com/sports,sports,5,true
OpenAI again,https://openai.com/blog/rss.xml,industry,8,true
Old,https://openai.com/blog/rss.xml,industry,3,false

`

func TestImport(t *testing.T) {
	store := &memStore{}
	report, err := NewImporter(store).Import(context.Background(), strings.NewReader(sampleCSV))
	require.NoError(t, err)

	assert.Equal(t, 7, report.Rows)
	assert.Equal(t, 3, report.Imported)
	assert.Len(t, report.Errors, 4)

	require.Len(t, store.sources, 3)
	assert.Equal(t, 8, store.sources[0].Weight)

	arxiv := store.sources[1]
	assert.Equal(t, models.CategoryResearch, arxiv.Category)
	assert.Equal(t, 5, arxiv.Weight, "default weight")
	assert.True(t, arxiv.IsActive, "default active")

	assert.False(t, store.sources[2].IsActive)
}

func TestImportMissingColumn(t *testing.T) {
	_, err := NewImporter(&memStore{}).Import(context.Background(), strings.NewReader("name,category\nx,tools\n"))
	assert.ErrorContains(t, err, "rss_url")
}

func TestImportFileLocalAndRemote(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sources.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o644))

	report, err := NewImporter(&memStore{}).ImportFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Imported)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleCSV))
	}))
	defer srv.Close()

	report, err = NewImporter(&memStore{}).ImportFile(context.Background(), srv.URL+"/sources.csv")
	require.NoError(t, err)
	assert.Equal(t, 3, report.Imported)

	_, err = NewImporter(&memStore{}).ImportFile(context.Background(), filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}

func TestExportRoundTrip(t *testing.T) {
	sources := []models.Source{
		{Name: "A, with comma", RSSURL: "https://a.example/feed", Category: models.CategoryTools, Weight: 4, IsActive: true},
		{Name: "B", RSSURL: "https://b.example/feed", Category: models.CategoryEducation, Weight: 9, IsActive: false},
	}

	var buf bytes.Buffer
	require.NoError(t, Export(&buf, sources))

	store := &memStore{}
	report, err := NewImporter(store).Import(context.Background(), &buf)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Imported)
	assert.Equal(t, "A, with comma", store.sources[0].Name)
	assert.False(t, store.sources[1].IsActive)
}
