package api

import (
	"bytes"
	"context"
	"net/http"

	"github.com/rs/zerolog/hlog"

	"uutisvahti/aggregator/internal/importsources"
	"uutisvahti/aggregator/internal/models"
)

// SourceLister lists every configured source.
type SourceLister interface {
	ListSources(ctx context.Context) ([]models.Source, error)
}

// ExportSources returns a handler that writes all sources as CSV in the
// same layout the importer reads.
func ExportSources(store SourceLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := hlog.FromRequest(r)

		sources, err := store.ListSources(r.Context())
		if err != nil {
			log.Error().Err(err).Msg("Failed to query sources")
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		var buf bytes.Buffer
		if err := importsources.Export(&buf, sources); err != nil {
			log.Error().Err(err).Msg("Failed to write sources CSV")
			http.Error(w, "Error generating CSV", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", "attachment; filename=sources.csv")
		if _, err := w.Write(buf.Bytes()); err != nil {
			log.Error().Err(err).Msg("Error writing CSV response")
			return
		}

		log.Info().Int("source_count", len(sources)).Msg("Exported sources as CSV")
	}
}
