package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uutisvahti/aggregator/internal/models"
)

type sent struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

type fakeChannel struct {
	sent   []sent
	err    error
	closed bool
}

func (f *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sent{exchange: exchange, key: key, msg: msg})
	return nil
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

var fixedNow = time.Date(2025, 3, 28, 15, 0, 0, 0, time.UTC)

func newTestPublisher(ch *fakeChannel) *RabbitMQ {
	return &RabbitMQ{
		channel:  ch,
		exchange: "uutisvahti.events",
		now:      func() time.Time { return fixedNow },
	}
}

func TestPublishArticle(t *testing.T) {
	ch := &fakeChannel{}
	pub := newTestPublisher(ch)

	article := &models.Article{
		ID:            7,
		SourceID:      2,
		Title:         "EU AI Act enters into force",
		URL:           "https://example.com/ai-act",
		Score:         75,
		IsSignificant: true,
		Tags:          models.Tags{},
	}
	require.NoError(t, pub.PublishArticle(context.Background(), article))

	require.Len(t, ch.sent, 1)
	got := ch.sent[0]
	assert.Equal(t, "uutisvahti.events", got.exchange)
	assert.Equal(t, RoutingArticleCreated, got.key)
	assert.Equal(t, "application/json", got.msg.ContentType)
	assert.Equal(t, uint8(amqp.Persistent), got.msg.DeliveryMode)

	var body ArticleMessage
	require.NoError(t, json.Unmarshal(got.msg.Body, &body))
	assert.Equal(t, RoutingArticleCreated, body.Event)
	assert.Equal(t, int64(7), body.Article.ID)
	assert.Equal(t, "https://example.com/ai-act", body.Article.URL)
	assert.True(t, body.Article.IsSignificant)
	assert.True(t, fixedNow.Equal(body.Timestamp))
}

func TestPublishRun(t *testing.T) {
	ch := &fakeChannel{}
	pub := newTestPublisher(ch)

	require.NoError(t, pub.PublishRun(context.Background(), &models.IngestRun{
		RunID:         "run-1",
		Inserted:      4,
		Skipped:       9,
		FailedSources: 1,
	}))

	require.Len(t, ch.sent, 1)
	assert.Equal(t, RoutingIngestComplete, ch.sent[0].key)

	var body map[string]any
	require.NoError(t, json.Unmarshal(ch.sent[0].msg.Body, &body))
	assert.Equal(t, "ingest.completed", body["event"])
	assert.Equal(t, "run-1", body["run_id"])
	assert.EqualValues(t, 4, body["inserted"])
	assert.EqualValues(t, 9, body["skipped"])
	assert.EqualValues(t, 1, body["failed_sources"])
}

func TestPublishError(t *testing.T) {
	ch := &fakeChannel{err: errors.New("channel closed")}
	pub := newTestPublisher(ch)

	err := pub.PublishRun(context.Background(), &models.IngestRun{RunID: "run-2"})
	assert.ErrorContains(t, err, "channel closed")
}

func TestClose(t *testing.T) {
	ch := &fakeChannel{}
	require.NoError(t, newTestPublisher(ch).Close())
	assert.True(t, ch.closed)
}
