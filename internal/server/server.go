package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"uutisvahti/aggregator/internal/metrics"
	"uutisvahti/aggregator/internal/models"
	"uutisvahti/aggregator/internal/server/api"
	"uutisvahti/aggregator/internal/server/storage"
)

// Store is the database surface the server needs directly.
type Store interface {
	PingContext(ctx context.Context) error
	ListSources(ctx context.Context) ([]models.Source, error)
}

// Deps are the collaborators behind the HTTP routes. Ingester and Enricher
// may be nil, in which case their routes answer 501.
type Deps struct {
	Store      Store
	Articles   storage.ArticleRepository
	Ingester   api.Ingester
	Enricher   api.Enricher
	JobTimeout time.Duration
}

// apiKeyMiddleware checks for the X-API-Key header and validates it against the provided key.
// If key is empty, it allows all requests.
func apiKeyMiddleware(apiKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if apiKey == "" {
				next.ServeHTTP(w, r)
				return
			}

			reqAPIKey := r.Header.Get("X-API-Key")
			if reqAPIKey == "" {
				http.Error(w, "API key required", http.StatusUnauthorized)
				return
			}

			if reqAPIKey != apiKey {
				http.Error(w, "Invalid API key", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// instrument records request count and latency under a fixed path label.
func instrument(path string, h http.Handler) http.Handler {
	labels := prometheus.Labels{"path": path}
	counter := metrics.HTTPRequestsTotal.MustCurryWith(labels)
	duration := metrics.HTTPRequestDuration.MustCurryWith(labels)
	return promhttp.InstrumentHandlerDuration(duration, promhttp.InstrumentHandlerCounter(counter, h))
}

// NewHandler builds the routed handler with the logging chain applied.
// The API key guards only the admin routes.
func NewHandler(deps Deps, logger zerolog.Logger, apiKey string) http.Handler {
	articlesHandler := api.NewArticlesHandler(deps.Articles)
	adminHandler := api.NewAdminHandler(deps.Ingester, deps.Enricher, deps.JobTimeout)
	admin := apiKeyMiddleware(apiKey)

	mux := http.NewServeMux()
	mux.Handle("GET /v1/articles", instrument("/v1/articles", http.HandlerFunc(articlesHandler.GetArticles)))
	mux.Handle("GET /v1/sources", instrument("/v1/sources", api.ExportSources(deps.Store)))
	mux.Handle("POST /v1/ingest", instrument("/v1/ingest", admin(http.HandlerFunc(adminHandler.RunIngest))))
	mux.Handle("POST /v1/enrich", instrument("/v1/enrich", admin(http.HandlerFunc(adminHandler.RunEnrich))))
	mux.Handle("GET /health", instrument("/health", healthCheckHandler(deps.Store)))
	mux.Handle("GET /metrics", promhttp.Handler())

	if apiKey != "" {
		logger.Info().Msg("API key authentication enabled for admin routes")
	} else {
		logger.Info().Msg("API key authentication disabled")
	}

	// Set up middleware chain for logging and request tracking
	h := hlog.NewHandler(logger)(mux)
	h = hlog.MethodHandler("method")(h)
	h = hlog.URLHandler("url")(h)
	h = hlog.RemoteAddrHandler("remote_addr")(h)
	h = hlog.UserAgentHandler("user_agent")(h)
	h = hlog.RequestIDHandler("req_id", "Request-Id")(h)
	h = hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		idReq, _ := hlog.IDFromRequest(r)

		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Stringer("url", r.URL).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Str("req_id", idReq.String()).
			Msg("HTTP Request")
	})(h)

	return h
}

// RunServer serves until SIGINT or SIGTERM, then shuts down gracefully.
func RunServer(deps Deps, listenAddr string, logger zerolog.Logger, apiKey string) error {
	logger = logger.With().Str("service", "uutisvahti-api").Logger()

	// Admin jobs run inside the request, so writes must outlive them.
	writeTimeout := 10 * time.Second
	if deps.JobTimeout+10*time.Second > writeTimeout {
		writeTimeout = deps.JobTimeout + 10*time.Second
	}

	httpServer := &http.Server{
		Addr:              listenAddr,
		Handler:           NewHandler(deps, logger, apiKey),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info().Str("address", listenAddr).Msg("API Server starting")
		err := httpServer.ListenAndServe()
		if !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	select {
	case err := <-serverErr:
		return err

	case sig := <-shutdown:
		logger.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("HTTP server shutdown error")
			if err := httpServer.Close(); err != nil {
				logger.Error().Err(err).Msg("HTTP server force close error")
			}
		} else {
			logger.Info().Msg("HTTP server shutdown complete.")
		}
		if err := <-serverErr; err != nil {
			logger.Error().Err(err).Msg("ListenAndServe error during shutdown")
		}
	}

	logger.Info().Msg("Server exiting.")
	return nil
}

// healthCheckHandler answers 200 while the database is reachable and 503 otherwise.
func healthCheckHandler(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := hlog.FromRequest(r)

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := store.PingContext(ctx); err != nil {
			log.Error().Err(err).Msg("Health check database ping failed")
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
			return
		}

		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			log.Error().Err(err).Msg("Error writing health check response")
		}
	}
}
