package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "uutisvahti_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "uutisvahti_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Ingestion metrics
	IngestRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "uutisvahti_ingest_runs_total",
			Help: "Total number of ingestion runs by final status",
		},
		[]string{"status"},
	)

	IngestLastRunTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "uutisvahti_ingest_last_run_timestamp_seconds",
			Help: "Unix time the last ingestion run finished",
		},
	)

	ArticlesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "uutisvahti_articles_total",
			Help: "Feed entries handled, by source and outcome",
		},
		[]string{"source", "outcome"},
	)

	FeedFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "uutisvahti_feed_fetch_duration_seconds",
			Help:    "Feed fetch duration in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15, 30},
		},
		[]string{"status"},
	)

	FeedFetchFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "uutisvahti_feed_fetch_failures_total",
			Help: "Total number of failed feed fetches",
		},
		[]string{"source"},
	)

	// Enrichment metrics
	EnrichmentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "uutisvahti_enrichments_total",
			Help: "Total number of enrichment attempts by outcome",
		},
		[]string{"outcome"},
	)

	// Outbound events
	EventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "uutisvahti_events_published_total",
			Help: "Total number of published events",
		},
		[]string{"routing_key", "status"},
	)
)

// Outcome labels
const (
	OutcomeInserted = "inserted"
	OutcomeSkipped  = "skipped"
	OutcomeFailed   = "failed"

	OutcomeSummarized = "summarized"
)
