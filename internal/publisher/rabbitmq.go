package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"

	"uutisvahti/aggregator/internal/metrics"
	"uutisvahti/aggregator/internal/models"
)

// Routing keys on the events exchange.
const (
	RoutingArticleCreated = "article.created"
	RoutingIngestComplete = "ingest.completed"
)

// Config describes the broker endpoint. When QueueName is set the queue is
// declared and bound to every event.
type Config struct {
	URL       string
	Exchange  string
	QueueName string
}

type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// RabbitMQ publishes ingestion events to a topic exchange.
type RabbitMQ struct {
	conn     *amqp.Connection
	channel  channel
	exchange string
	now      func() time.Time
}

// ArticleMessage is the body of an article.created event.
type ArticleMessage struct {
	Event     string         `json:"event"`
	Article   models.Article `json:"article"`
	Timestamp time.Time      `json:"timestamp"`
}

// RunMessage is the body of an ingest.completed event.
type RunMessage struct {
	Event string `json:"event"`
	models.IngestRun
	Timestamp time.Time `json:"timestamp"`
}

func NewRabbitMQ(cfg Config) (*RabbitMQ, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := declare(ch, cfg); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	log.Info().
		Str("exchange", cfg.Exchange).
		Str("queue", cfg.QueueName).
		Msg("Connected to RabbitMQ")

	return &RabbitMQ{
		conn:     conn,
		channel:  ch,
		exchange: cfg.Exchange,
		now:      time.Now,
	}, nil
}

func declare(ch *amqp.Channel, cfg Config) error {
	if err := ch.ExchangeDeclare(cfg.Exchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}
	if cfg.QueueName == "" {
		return nil
	}

	q, err := ch.QueueDeclare(cfg.QueueName, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}
	if err := ch.QueueBind(q.Name, "#", cfg.Exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	return nil
}

// PublishArticle emits article.created for a newly stored article.
func (r *RabbitMQ) PublishArticle(ctx context.Context, article *models.Article) error {
	msg := ArticleMessage{
		Event:     RoutingArticleCreated,
		Article:   *article,
		Timestamp: r.now().UTC(),
	}
	return r.publish(ctx, RoutingArticleCreated, msg)
}

// PublishRun emits ingest.completed with the counts of a finished run.
func (r *RabbitMQ) PublishRun(ctx context.Context, run *models.IngestRun) error {
	msg := RunMessage{
		Event:     RoutingIngestComplete,
		IngestRun: *run,
		Timestamp: r.now().UTC(),
	}
	return r.publish(ctx, RoutingIngestComplete, msg)
}

func (r *RabbitMQ) publish(ctx context.Context, key string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		metrics.EventsPublishedTotal.WithLabelValues(key, "error").Inc()
		return fmt.Errorf("marshal message: %w", err)
	}

	err = r.channel.PublishWithContext(ctx, r.exchange, key, false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		Body:         body,
		Timestamp:    r.now(),
	})
	if err != nil {
		metrics.EventsPublishedTotal.WithLabelValues(key, "error").Inc()
		return fmt.Errorf("publish message: %w", err)
	}

	metrics.EventsPublishedTotal.WithLabelValues(key, "ok").Inc()
	log.Debug().Str("routing_key", key).Msg("Published event")
	return nil
}

func (r *RabbitMQ) Close() error {
	if r.channel != nil {
		r.channel.Close()
	}
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}
