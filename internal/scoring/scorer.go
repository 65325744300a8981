package scoring

import (
	"slices"
	"strings"
	"time"

	"uutisvahti/aggregator/internal/feed"
	"uutisvahti/aggregator/internal/models"
)

const (
	MaxScore      = 100
	weightFactor  = 5
	keywordPoints = 10
	freshBonus    = 20
	recentBonus   = 10
	freshWindow   = 24 * time.Hour
	recentWindow  = 48 * time.Hour
)

var defaultKeywords = []string{
	"benchmark", "sota", "state-of-the-art", "release", "paper", "breakthrough",
	"eu ai act", "regulation",
	"gpt-5", "gemini", "claude", "llama", "mistral",
	"openai", "anthropic", "google", "meta", "microsoft", "nvidia",
	"arxiv", "neurips", "icml", "iclr",
	"research", "model", "training", "fine-tuning", "rlhf", "multimodal", "vision", "language model",
}

// DefaultKeywords returns a copy of the keywords used when none are configured.
// They are matched case-insensitively against title and description.
func DefaultKeywords() []string {
	return slices.Clone(defaultKeywords)
}

// Scorer rates feed entries. It holds no state besides its configuration.
type Scorer struct {
	keywords []string
	now      func() time.Time
}

// Option configures a Scorer.
type Option func(*Scorer)

// WithClock overrides the time source used for the recency bonus.
func WithClock(now func() time.Time) Option {
	return func(s *Scorer) { s.now = now }
}

// NewScorer creates a Scorer for keywords; an empty list selects DefaultKeywords.
func NewScorer(keywords []string, opts ...Option) *Scorer {
	if len(keywords) == 0 {
		keywords = defaultKeywords
	}

	seen := make(map[string]struct{}, len(keywords))
	normalized := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		if _, dup := seen[kw]; dup {
			continue
		}
		seen[kw] = struct{}{}
		normalized = append(normalized, kw)
	}

	s := &Scorer{keywords: normalized, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Keywords returns the normalized keyword list.
func (s *Scorer) Keywords() []string {
	return append([]string(nil), s.keywords...)
}

// Score returns weight*5, plus 10 for every distinct keyword found, plus a
// recency bonus, capped at MaxScore.
func (s *Scorer) Score(e feed.Entry, weight int) int {
	score := weight * weightFactor

	text := strings.ToLower(e.Title + " " + e.Description)
	for _, kw := range s.keywords {
		if strings.Contains(text, kw) {
			score += keywordPoints
		}
	}

	if e.PublishedAt != nil {
		age := s.now().Sub(*e.PublishedAt)
		switch {
		case age < freshWindow:
			score += freshBonus
		case age < recentWindow:
			score += recentBonus
		}
	}

	return min(score, MaxScore)
}

// IsSignificant reports whether score crosses the significance threshold.
func IsSignificant(score int) bool {
	return score >= models.SignificanceThreshold
}
