package enrich

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"uutisvahti/aggregator/internal/models"
)

// MaxTags is the number of tags kept from a model reply.
const MaxTags = 5

const systemPrompt = "Olet asiantunteva AI-uutisanalyytikko. Vastaat aina suomeksi ja JSON-muodossa."

const userPrompt = `Olet AI-uutisasiantuntija. Analysoi seuraava artikkeli ja tuota:

1. Otsikko suomeksi: käännä otsikko sujuvaksi suomenkieliseksi otsikoksi alkuperäistä merkitystä muuttamatta.
2. Tiivistelmä (2-3 lausetta suomeksi): artikkelin pääkohdat.
3. Miksi tämä on tärkeää (1 lause suomeksi).
4. Tagit (5 kappaletta englanniksi).

Artikkelin otsikko: %s
%sArtikkelin URL: %s

Vastaa VAIN JSON-muodossa:
{"title_fi": "...", "summary_fi": "...", "why_it_matters": "...", "tags": ["tag1", "tag2", "tag3", "tag4", "tag5"]}`

var (
	// ErrNoContent is returned when the model reply carries no message text.
	ErrNoContent = errors.New("no content in model response")
	// ErrNoJSON is returned when the message text holds no JSON object.
	ErrNoJSON = errors.New("no JSON object in model response")

	jsonObjectRe = regexp.MustCompile(`\{[\s\S]*\}`)
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Client calls an OpenAI-compatible chat completions endpoint.
type Client struct {
	http     *resty.Client
	endpoint string
	model    string
}

// NewClient creates a summarisation client. The API key is sent as a
// bearer token.
func NewClient(endpoint, model, apiKey string, timeout time.Duration) *Client {
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetAuthToken(apiKey)

	return &Client{http: client, endpoint: endpoint, model: model}
}

// Summarize asks the model for the Finnish fields of an article.
func (c *Client) Summarize(ctx context.Context, a models.Article) (*models.Enrichment, error) {
	req := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildPrompt(a)},
		},
	}

	var out chatResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		Post(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("model request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("model API error (%d): %s", resp.StatusCode(), strings.TrimSpace(resp.String()))
	}

	if len(out.Choices) == 0 || out.Choices[0].Message.Content == "" {
		return nil, ErrNoContent
	}
	return parseReply(out.Choices[0].Message.Content)
}

func buildPrompt(a models.Article) string {
	excerpt := ""
	if a.RawExcerpt != nil && *a.RawExcerpt != "" {
		excerpt = "Artikkelin ote: " + *a.RawExcerpt + "\n"
	}
	return fmt.Sprintf(userPrompt, a.Title, excerpt, a.URL)
}

// parseReply pulls the first JSON object out of free-form model text.
// Missing fields become empty strings and tags are capped at MaxTags.
func parseReply(content string) (*models.Enrichment, error) {
	match := jsonObjectRe.FindString(content)
	if match == "" {
		return nil, ErrNoJSON
	}

	var reply struct {
		TitleFI      string          `json:"title_fi"`
		SummaryFI    string          `json:"summary_fi"`
		WhyItMatters string          `json:"why_it_matters"`
		Tags         json.RawMessage `json:"tags"`
	}
	if err := json.Unmarshal([]byte(match), &reply); err != nil {
		return nil, fmt.Errorf("failed to decode model JSON: %w", err)
	}

	e := models.Enrichment{
		TitleFI:      reply.TitleFI,
		SummaryFI:    reply.SummaryFI,
		WhyItMatters: reply.WhyItMatters,
		Tags:         []string{},
	}
	// A tags value that is not a string array is ignored.
	var tags []string
	if err := json.Unmarshal(reply.Tags, &tags); err == nil && tags != nil {
		e.Tags = tags
	}
	if len(e.Tags) > MaxTags {
		e.Tags = e.Tags[:MaxTags]
	}
	return &e, nil
}
