package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/hlog"

	"uutisvahti/aggregator/internal/models"
	"uutisvahti/aggregator/internal/server/pagination"
	"uutisvahti/aggregator/internal/server/storage"
)

const defaultLimit = 100
const maxLimit = 1000

// Response structure for the articles endpoint
type Response struct {
	Items      []models.Article `json:"items"`
	NextCursor *string          `json:"next_cursor,omitempty"`
}

// ArticlesHandler serves article listings. The logger comes from the request context.
type ArticlesHandler struct {
	repo storage.ArticleRepository
}

// NewArticlesHandler creates a new handler instance.
func NewArticlesHandler(repo storage.ArticleRepository) *ArticlesHandler {
	return &ArticlesHandler{repo: repo}
}

// GetArticles handles GET /v1/articles.
func (h *ArticlesHandler) GetArticles(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)
	log.Debug().Msg("Processing articles request")

	query := r.URL.Query()
	filter := storage.ArticleFilter{Limit: defaultLimit}

	if limitStr := query.Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit <= 0 || limit > maxLimit {
			log.Warn().Str("limit", limitStr).Msg("Invalid 'limit' parameter value")
			http.Error(w, fmt.Sprintf("Invalid 'limit' parameter: must be between 1 and %d", maxLimit), http.StatusBadRequest)
			return
		}
		filter.Limit = limit
	}

	if cursorStr := query.Get("cursor"); cursorStr != "" {
		cursor, err := pagination.Decode(cursorStr)
		if err != nil {
			log.Warn().Err(err).Str("cursor", cursorStr).Msg("Invalid 'cursor' parameter")
			http.Error(w, "Invalid 'cursor' parameter", http.StatusBadRequest)
			return
		}
		filter.Cursor = &cursor
	} else if sinceStr := query.Get("since"); sinceStr != "" {
		since, err := time.Parse(time.RFC3339, sinceStr)
		if err != nil {
			log.Warn().Err(err).Str("since", sinceStr).Msg("Invalid 'since' parameter format")
			http.Error(w, "Invalid 'since' parameter: use RFC3339 format (e.g., 2025-03-28T15:00:00Z)", http.StatusBadRequest)
			return
		}
		since = since.UTC()
		filter.Since = &since
	} else {
		log.Warn().Msg("Missing required parameter: 'since' or 'cursor'")
		http.Error(w, "Missing required parameter: 'since' or 'cursor'", http.StatusBadRequest)
		return
	}

	if c := query.Get("category"); c != "" {
		filter.Category = models.Category(c)
		if !filter.Category.Valid() {
			http.Error(w, "Invalid 'category' parameter", http.StatusBadRequest)
			return
		}
	}

	if s := query.Get("significant"); s != "" {
		significant, err := strconv.ParseBool(s)
		if err != nil {
			http.Error(w, "Invalid 'significant' parameter", http.StatusBadRequest)
			return
		}
		filter.Significant = significant
	}

	if s := query.Get("min_score"); s != "" {
		minScore, err := strconv.Atoi(s)
		if err != nil || minScore < 0 || minScore > 100 {
			http.Error(w, "Invalid 'min_score' parameter: must be between 0 and 100", http.StatusBadRequest)
			return
		}
		filter.MinScore = minScore
	}

	// Fetch one extra row to know whether another page exists.
	pageSize := filter.Limit
	filter.Limit++
	items, err := h.repo.FetchArticles(r.Context(), filter)
	if err != nil {
		log.Error().Err(err).Msg("Error fetching articles from repository")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	resp := Response{Items: items}
	if len(items) > pageSize {
		resp.Items = items[:pageSize]
		last := resp.Items[len(resp.Items)-1]
		next := pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}.Encode()
		resp.NextCursor = &next
	}

	writeJSON(w, r, http.StatusOK, resp)
}

// writeJSON marshals before writing so a marshal failure can still become a 500.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	log := hlog.FromRequest(r)

	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("Error marshaling JSON response")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("Error writing JSON response body to client")
		return
	}
	log.Debug().Int("bytes_written", len(body)).Msg("Response completed")
}
