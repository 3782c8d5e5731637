package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/sakif/snippet-hub/internal/apperror"
	"github.com/sakif/snippet-hub/internal/model"
	"github.com/sakif/snippet-hub/internal/repository"
)

const (
	DefaultSearchPerPage = 10
	MaxSearchPerPage     = 100
)

// SearchParams is the raw, unvalidated form of a search request — every
// field is the string the client sent (empty means absent). The service
// turns this into a typed repository.SnippetSearchQuery or rejects it
// before anything touches the database.
type SearchParams struct {
	Query         string
	Language      string
	Tags          string // JSON array, e.g. `["React","API"]`
	Author        string
	SortBy        string
	Order         string
	Page          string
	PerPage       string
	MinLikes      string
	MaxLikes      string
	CreatedAfter  string // ISO-8601 / RFC 3339
	CreatedBefore string // ISO-8601 / RFC 3339
}

// SearchResult is an annotated, paginated search response.
type SearchResult struct {
	Snippets    []model.Snippet `json:"snippets"`
	TotalCount  int             `json:"totalCount"`
	CurrentPage int             `json:"currentPage"`
	TotalPages  int             `json:"totalPages"`
}

// SearchService composes and executes faceted snippet queries. Pure
// reader.
type SearchService struct {
	repo   repository.SnippetRepository
	logger *slog.Logger
}

func NewSearchService(repo repository.SnippetRepository, logger *slog.Logger) *SearchService {
	return &SearchService{repo: repo, logger: logger}
}

// Search validates params into a typed query descriptor and executes it.
// Any malformed value fails with a validation error BEFORE the query runs
// — malformed input is never silently ignored.
func (s *SearchService) Search(ctx context.Context, params SearchParams) (*SearchResult, error) {
	q, err := parseSearchParams(params)
	if err != nil {
		return nil, err
	}

	snippets, total, err := s.repo.Search(ctx, *q)
	if err != nil {
		s.logger.Error("search failed", slog.String("error", err.Error()))
		return nil, fmt.Errorf("searching snippets: %w", err)
	}

	return &SearchResult{
		Snippets:    snippets,
		TotalCount:  total,
		CurrentPage: q.Page,
		TotalPages:  totalPages(total, q.PerPage),
	}, nil
}

// parseSearchParams is the single gate between loose strings and the
// typed descriptor.
func parseSearchParams(p SearchParams) (*repository.SnippetSearchQuery, error) {
	q := &repository.SnippetSearchQuery{
		Query:    p.Query,
		Language: p.Language,
		Author:   p.Author,
		SortBy:   repository.SortRecent,
		Order:    repository.OrderDesc,
		Page:     1,
		PerPage:  DefaultSearchPerPage,
	}

	if p.SortBy != "" {
		switch repository.SnippetSortBy(p.SortBy) {
		case repository.SortRecent, repository.SortPopular, repository.SortComments:
			q.SortBy = repository.SnippetSortBy(p.SortBy)
		default:
			return nil, apperror.ValidationFailed("sortBy",
				fmt.Sprintf("sortBy must be one of recent, popular, comments; got %q", p.SortBy))
		}
	}

	if p.Order != "" {
		switch repository.SortOrder(p.Order) {
		case repository.OrderAsc, repository.OrderDesc:
			q.Order = repository.SortOrder(p.Order)
		default:
			return nil, apperror.ValidationFailed("order",
				fmt.Sprintf("order must be asc or desc; got %q", p.Order))
		}
	}

	if p.Page != "" {
		page, err := strconv.Atoi(p.Page)
		if err != nil || page < 1 {
			return nil, apperror.ValidationFailed("page", "page must be a positive integer")
		}
		q.Page = page
	}

	if p.PerPage != "" {
		perPage, err := strconv.Atoi(p.PerPage)
		if err != nil || perPage < 1 {
			return nil, apperror.ValidationFailed("perPage", "perPage must be a positive integer")
		}
		if perPage > MaxSearchPerPage {
			perPage = MaxSearchPerPage
		}
		q.PerPage = perPage
	}

	if p.Tags != "" {
		var tags []string
		if err := json.Unmarshal([]byte(p.Tags), &tags); err != nil {
			return nil, apperror.ValidationFailed("tags",
				`tags must be a JSON array of strings, e.g. ["React","API"]`)
		}
		q.Tags = normalizeTags(tags)
	}

	if p.MinLikes != "" {
		n, err := strconv.Atoi(p.MinLikes)
		if err != nil || n < 0 {
			return nil, apperror.ValidationFailed("minLikes", "minLikes must be a non-negative integer")
		}
		q.MinLikes = &n
	}
	if p.MaxLikes != "" {
		n, err := strconv.Atoi(p.MaxLikes)
		if err != nil || n < 0 {
			return nil, apperror.ValidationFailed("maxLikes", "maxLikes must be a non-negative integer")
		}
		q.MaxLikes = &n
	}
	if q.MinLikes != nil && q.MaxLikes != nil && *q.MinLikes > *q.MaxLikes {
		return nil, apperror.ValidationFailed("minLikes", "minLikes must not exceed maxLikes")
	}

	if p.CreatedAfter != "" {
		t, err := time.Parse(time.RFC3339, p.CreatedAfter)
		if err != nil {
			return nil, apperror.ValidationFailed("createdAfter", "createdAfter must be an ISO-8601 timestamp")
		}
		q.CreatedAfter = &t
	}
	if p.CreatedBefore != "" {
		t, err := time.Parse(time.RFC3339, p.CreatedBefore)
		if err != nil {
			return nil, apperror.ValidationFailed("createdBefore", "createdBefore must be an ISO-8601 timestamp")
		}
		q.CreatedBefore = &t
	}

	return q, nil
}
