package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sakif/snippet-hub/internal/auth"
	"github.com/sakif/snippet-hub/internal/service"
)

// EngagementHandler exposes likes, comments, and the direct point-accrual
// endpoint.
type EngagementHandler struct {
	svc    *service.EngagementService
	logger *slog.Logger
}

func NewEngagementHandler(svc *service.EngagementService, logger *slog.Logger) *EngagementHandler {
	return &EngagementHandler{svc: svc, logger: logger}
}

type likeResponse struct {
	LikeCount int `json:"likeCount"`
}

type commentRequest struct {
	Content string `json:"content"`
}

type pointsRequest struct {
	Action string `json:"action"`
}

type pointsResponse struct {
	Points int `json:"points"`
}

// HandleLike records a like and returns the updated count. Liking the
// same snippet twice is a 409.
//
// HTTP: POST /api/snippets/{id}/like
// Auth: required
func (h *EngagementHandler) HandleLike(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "authentication required"})
		return
	}

	count, err := h.svc.Like(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, likeResponse{LikeCount: count})
}

// HandleUnlike removes a like. Unliking a snippet never liked is a 404.
//
// HTTP: DELETE /api/snippets/{id}/like
// Auth: required
func (h *EngagementHandler) HandleUnlike(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "authentication required"})
		return
	}

	count, err := h.svc.Unlike(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, likeResponse{LikeCount: count})
}

// HandleComment posts a comment on a snippet.
//
// HTTP: POST /api/snippets/{id}/comments
// Auth: required
func (h *EngagementHandler) HandleComment(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "authentication required"})
		return
	}

	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "invalid JSON body"})
		return
	}

	comment, err := h.svc.Comment(r.Context(), userID, chi.URLParam(r, "id"), req.Content)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, comment)
}

// HandleListComments returns a snippet's comments, newest first.
//
// HTTP: GET /api/snippets/{id}/comments
func (h *EngagementHandler) HandleListComments(w http.ResponseWriter, r *http.Request) {
	comments, err := h.svc.CommentsFor(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, comments)
}

// HandlePoints applies a named action's point delta to the caller and
// returns the new total. An unknown action is a 400.
//
// HTTP: POST /api/users/points
// Auth: required
func (h *EngagementHandler) HandlePoints(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "authentication required"})
		return
	}

	var req pointsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "invalid JSON body"})
		return
	}

	total, err := h.svc.Apply(r.Context(), userID, service.Action(req.Action))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, pointsResponse{Points: total})
}
