package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/sakif/askbox/internal/auth"
	"github.com/sakif/askbox/internal/service"
)

// StatsHandler serves the owner's counters and the public activity feed.
type StatsHandler struct {
	stats  *service.StatsService
	logger *slog.Logger
}

func NewStatsHandler(stats *service.StatsService, logger *slog.Logger) *StatsHandler {
	return &StatsHandler{stats: stats, logger: logger}
}

// HandleStats returns the caller's own counters.
//
// HTTP: GET /api/stats/{handle}
// Auth: Required (and the handle must be the caller's own)
func (h *StatsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "authentication required",
		})
		return
	}

	stats, err := h.stats.OwnerStats(r.Context(), user, r.PathValue("handle"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// HandleActivity returns the public activity feed.
//
// HTTP: GET /api/activity?since=2026-01-02T15:04:05Z
//
// `since` is RFC 3339; clients poll with the timestamp from the previous
// response and are guaranteed never to see the same row twice. An absent
// cursor falls back to a recent window; a malformed one is a 400.
func (h *StatsHandler) HandleActivity(w http.ResponseWriter, r *http.Request) {
	var since time.Time
	if raw := r.URL.Query().Get("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{
				Error:   "validation_error",
				Message: "since must be an RFC 3339 timestamp",
				Field:   "since",
			})
			return
		}
		since = parsed
	}

	activity, err := h.stats.Activity(r.Context(), since)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, activity)
}
