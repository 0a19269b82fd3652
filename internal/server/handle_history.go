package server

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/playperu/streetguess/internal/history"
)

// History reads finished rounds for the history route.
type History interface {
	Recent(ctx context.Context, channel string, limit int) ([]history.Round, error)
	Stats(ctx context.Context, channel string) (history.Stats, error)
}

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

type HistoryResponse struct {
	Stats  history.Stats   `json:"stats"`
	Rounds []history.Round `json:"rounds"`
}

func handleHistory(logger *slog.Logger, store History) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		channel := chi.URLParam(r, "channel")

		limit := defaultHistoryLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				writeError(w, http.StatusBadRequest, "limit must be a positive integer")
				return
			}
			limit = min(n, maxHistoryLimit)
		}

		rounds, err := store.Recent(r.Context(), channel, limit)
		if err != nil {
			logger.Error("loading history", "channel", channel, "error", err)
			writeError(w, http.StatusInternalServerError, "loading history failed")
			return
		}
		stats, err := store.Stats(r.Context(), channel)
		if err != nil {
			logger.Error("loading history stats", "channel", channel, "error", err)
			writeError(w, http.StatusInternalServerError, "loading history failed")
			return
		}
		writeJSON(w, http.StatusOK, HistoryResponse{Stats: stats, Rounds: rounds})
	}
}
