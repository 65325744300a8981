package api

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/hlog"

	"uutisvahti/aggregator/internal/enrich"
	"uutisvahti/aggregator/internal/ingest"
)

// Ingester runs one ingestion pass.
type Ingester interface {
	Run(ctx context.Context) (*ingest.Result, error)
}

// Enricher runs one enrichment batch.
type Enricher interface {
	Run(ctx context.Context) (*enrich.Result, error)
}

type errorResponse struct {
	Error string `json:"error"`
}

// AdminHandler triggers jobs on demand. The request deadline, capped at
// timeout, bounds each job.
type AdminHandler struct {
	ingester Ingester
	enricher Enricher
	timeout  time.Duration
}

// NewAdminHandler creates an admin handler; either job may be nil.
func NewAdminHandler(ingester Ingester, enricher Enricher, timeout time.Duration) *AdminHandler {
	return &AdminHandler{ingester: ingester, enricher: enricher, timeout: timeout}
}

func (h *AdminHandler) jobContext(r *http.Request) (context.Context, context.CancelFunc) {
	if h.timeout <= 0 {
		return context.WithCancel(r.Context())
	}
	return context.WithTimeout(r.Context(), h.timeout)
}

// RunIngest handles POST /v1/ingest.
func (h *AdminHandler) RunIngest(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)
	if h.ingester == nil {
		http.Error(w, http.StatusText(http.StatusNotImplemented), http.StatusNotImplemented)
		return
	}

	ctx, cancel := h.jobContext(r)
	defer cancel()

	res, err := h.ingester.Run(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Ingestion run failed")
		writeJSON(w, r, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	log.Info().
		Str("run_id", res.RunID).
		Int("inserted", res.Inserted).
		Int("skipped", res.Skipped).
		Msg("Ingestion triggered via API")
	writeJSON(w, r, http.StatusOK, res)
}

// RunEnrich handles POST /v1/enrich.
func (h *AdminHandler) RunEnrich(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)
	if h.enricher == nil {
		http.Error(w, http.StatusText(http.StatusNotImplemented), http.StatusNotImplemented)
		return
	}

	ctx, cancel := h.jobContext(r)
	defer cancel()

	res, err := h.enricher.Run(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Enrichment run failed")
		writeJSON(w, r, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, r, http.StatusOK, res)
}
