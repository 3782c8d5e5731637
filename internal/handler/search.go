package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/snippet-hub/internal/service"
)

// SearchHandler exposes the faceted snippet search.
type SearchHandler struct {
	svc    *service.SearchService
	logger *slog.Logger
}

func NewSearchHandler(svc *service.SearchService, logger *slog.Logger) *SearchHandler {
	return &SearchHandler{svc: svc, logger: logger}
}

// HandleSearch runs a faceted search over snippets.
//
// HTTP: GET /api/search?query=...&language=...&tags=["React"]&author=...
//
//	&sortBy=recent|popular|comments&order=asc|desc
//	&page=1&perPage=10&minLikes=&maxLikes=
//	&createdAfter=RFC3339&createdBefore=RFC3339
//
// The handler only lifts query parameters into the service's raw params
// struct; all validation lives in the service.
func (h *SearchHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	result, err := h.svc.Search(r.Context(), service.SearchParams{
		Query:         q.Get("query"),
		Language:      q.Get("language"),
		Tags:          q.Get("tags"),
		Author:        q.Get("author"),
		SortBy:        q.Get("sortBy"),
		Order:         q.Get("order"),
		Page:          q.Get("page"),
		PerPage:       q.Get("perPage"),
		MinLikes:      q.Get("minLikes"),
		MaxLikes:      q.Get("maxLikes"),
		CreatedAfter:  q.Get("createdAfter"),
		CreatedBefore: q.Get("createdBefore"),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
