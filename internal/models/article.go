package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// SignificanceThreshold is the score at which an article is flagged significant.
const SignificanceThreshold = 50

// Article represents a row in the 'articles' table.
// The enrichment fields stay nil until the summarisation job fills them in.
type Article struct {
	ID            int64      `db:"id" json:"id"`
	SourceID      int64      `db:"source_id" json:"source_id"`
	Title         string     `db:"title" json:"title"`
	URL           string     `db:"url" json:"url"`
	GUID          *string    `db:"guid" json:"guid,omitempty"`
	PublishedAt   *time.Time `db:"published_at" json:"published_at,omitempty"`
	RawExcerpt    *string    `db:"raw_excerpt" json:"raw_excerpt,omitempty"`
	Score         int        `db:"score" json:"score"`
	IsSignificant bool       `db:"is_significant" json:"is_significant"`
	SummaryFI     *string    `db:"summary_fi" json:"summary_fi,omitempty"`
	WhyItMatters  *string    `db:"why_it_matters" json:"why_it_matters,omitempty"`
	Tags          Tags       `db:"tags" json:"tags"`
	TitleFI       *string    `db:"title_fi" json:"title_fi,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

// NewArticle creates a new Article with default timestamps
func NewArticle() *Article {
	now := time.Now().UTC()
	return &Article{
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Enrichment holds the machine generated Finnish fields of an article.
type Enrichment struct {
	TitleFI      string   `json:"title_fi"`
	SummaryFI    string   `json:"summary_fi"`
	WhyItMatters string   `json:"why_it_matters"`
	Tags         []string `json:"tags"`
}

// Tags is a list of tags stored as a JSON array in a text column.
type Tags []string

// Value implements driver.Valuer.
func (t Tags) Value() (driver.Value, error) {
	if t == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(t))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (t *Tags) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*t = Tags{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported tags type %T", src)
	}

	if len(raw) == 0 {
		*t = Tags{}
		return nil
	}

	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("failed to decode tags: %w", err)
	}
	*t = out
	return nil
}
