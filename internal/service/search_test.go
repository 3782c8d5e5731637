package service

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/sakif/snippet-hub/internal/apperror"
	"github.com/sakif/snippet-hub/internal/repository"
)

func newSearchFixture(t *testing.T) (*SearchService, *mockSnippetRepo) {
	t.Helper()
	repo := newMockSnippetRepo()
	return NewSearchService(repo, newTestLogger(t)), repo
}

func TestSearch_Defaults(t *testing.T) {
	svc, repo := newSearchFixture(t)

	result, err := svc.Search(context.Background(), SearchParams{})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	q := repo.lastSearch
	if q.SortBy != repository.SortRecent {
		t.Errorf("SortBy = %q, want recent", q.SortBy)
	}
	if q.Order != repository.OrderDesc {
		t.Errorf("Order = %q, want desc", q.Order)
	}
	if q.Page != 1 || q.PerPage != DefaultSearchPerPage {
		t.Errorf("Page/PerPage = %d/%d, want 1/%d", q.Page, q.PerPage, DefaultSearchPerPage)
	}
	if result.CurrentPage != 1 {
		t.Errorf("CurrentPage = %d, want 1", result.CurrentPage)
	}
}

func TestSearch_ParsesAllFacets(t *testing.T) {
	svc, repo := newSearchFixture(t)

	_, err := svc.Search(context.Background(), SearchParams{
		Query:         "fib",
		Language:      "Go",
		Tags:          `["React","API"]`,
		Author:        "ali",
		SortBy:        "popular",
		Order:         "asc",
		Page:          "3",
		PerPage:       "25",
		MinLikes:      "2",
		MaxLikes:      "10",
		CreatedAfter:  "2026-01-01T00:00:00Z",
		CreatedBefore: "2026-06-01T00:00:00Z",
	})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	q := repo.lastSearch
	if q.Query != "fib" || q.Language != "Go" || q.Author != "ali" {
		t.Errorf("text facets = %q/%q/%q", q.Query, q.Language, q.Author)
	}
	if !reflect.DeepEqual(q.Tags, []string{"React", "API"}) {
		t.Errorf("Tags = %v, want [React API]", q.Tags)
	}
	if q.SortBy != repository.SortPopular || q.Order != repository.OrderAsc {
		t.Errorf("sort = %q/%q, want popular/asc", q.SortBy, q.Order)
	}
	if q.Page != 3 || q.PerPage != 25 {
		t.Errorf("Page/PerPage = %d/%d, want 3/25", q.Page, q.PerPage)
	}
	if q.MinLikes == nil || *q.MinLikes != 2 || q.MaxLikes == nil || *q.MaxLikes != 10 {
		t.Errorf("likes bounds = %v/%v, want 2/10", q.MinLikes, q.MaxLikes)
	}
	if q.CreatedAfter == nil || q.CreatedAfter.Year() != 2026 {
		t.Errorf("CreatedAfter = %v", q.CreatedAfter)
	}
}

func TestSearch_PerPageCapped(t *testing.T) {
	svc, repo := newSearchFixture(t)

	if _, err := svc.Search(context.Background(), SearchParams{PerPage: "500"}); err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if repo.lastSearch.PerPage != MaxSearchPerPage {
		t.Errorf("PerPage = %d, want capped at %d", repo.lastSearch.PerPage, MaxSearchPerPage)
	}
}

// Malformed values are rejected before the query runs, never silently
// ignored.
func TestSearch_RejectsMalformedParams(t *testing.T) {
	tests := []struct {
		name   string
		params SearchParams
	}{
		{"bad sortBy", SearchParams{SortBy: "trending"}},
		{"bad order", SearchParams{Order: "sideways"}},
		{"zero page", SearchParams{Page: "0"}},
		{"negative page", SearchParams{Page: "-1"}},
		{"non-numeric page", SearchParams{Page: "two"}},
		{"zero perPage", SearchParams{PerPage: "0"}},
		{"negative minLikes", SearchParams{MinLikes: "-1"}},
		{"non-numeric maxLikes", SearchParams{MaxLikes: "lots"}},
		{"min exceeds max", SearchParams{MinLikes: "5", MaxLikes: "2"}},
		{"tags not JSON", SearchParams{Tags: "React,API"}},
		{"tags wrong type", SearchParams{Tags: `[1,2]`}},
		{"bad createdAfter", SearchParams{CreatedAfter: "yesterday"}},
		{"bad createdBefore", SearchParams{CreatedBefore: "2026-13-01"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo := newSearchFixture(t)
			_, err := svc.Search(context.Background(), tt.params)
			if !errors.Is(err, apperror.ErrValidation) {
				t.Errorf("error = %v, want ErrValidation", err)
			}
			if repo.lastSearch != nil {
				t.Error("query must not execute on invalid params")
			}
		})
	}
}

func TestSearch_TotalPages(t *testing.T) {
	svc, repo := newSearchFixture(t)
	repo.searchTotal = 25

	result, err := svc.Search(context.Background(), SearchParams{})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if result.TotalCount != 25 {
		t.Errorf("TotalCount = %d, want 25", result.TotalCount)
	}
	if result.TotalPages != 3 { // ceil(25 / 10)
		t.Errorf("TotalPages = %d, want 3", result.TotalPages)
	}
}
