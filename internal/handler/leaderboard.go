package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/sakif/snippet-hub/internal/service"
)

// LeaderboardHandler exposes the ranked user view.
type LeaderboardHandler struct {
	svc    *service.LeaderboardService
	logger *slog.Logger
}

func NewLeaderboardHandler(svc *service.LeaderboardService, logger *slog.Logger) *LeaderboardHandler {
	return &LeaderboardHandler{svc: svc, logger: logger}
}

// HandleRank returns one page of the leaderboard.
//
// HTTP: GET /api/leaderboard?timeFrame=all&sortBy=points&page=1
//
// Missing parameters default (all/points/1); unknown enum values are a
// 400, never silently coerced.
func (h *LeaderboardHandler) HandleRank(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page := 1
	if raw := q.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "page must be a positive integer"})
			return
		}
		page = n
	}

	result, err := h.svc.Rank(r.Context(), q.Get("timeFrame"), q.Get("sortBy"), page)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
