package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sakif/snippet-hub/internal/apperror"
	"github.com/sakif/snippet-hub/internal/repository"
)

func newLeaderboardFixture(t *testing.T, now time.Time) (*LeaderboardService, *mockLeaderboardRepo) {
	t.Helper()
	repo := &mockLeaderboardRepo{}
	svc := NewLeaderboardService(repo, newTestLogger(t))
	svc.now = func() time.Time { return now }
	return svc, repo
}

func TestRank_Defaults(t *testing.T) {
	svc, repo := newLeaderboardFixture(t, time.Now())

	page, err := svc.Rank(context.Background(), "", "", 0)
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}

	q := repo.lastQuery
	if q.Since != nil {
		t.Errorf("Since = %v, want nil for default time frame", q.Since)
	}
	if q.SortBy != repository.RankByPoints {
		t.Errorf("SortBy = %q, want points", q.SortBy)
	}
	if q.Page != 1 || q.PageSize != LeaderboardPageSize {
		t.Errorf("Page/PageSize = %d/%d, want 1/%d", q.Page, q.PageSize, LeaderboardPageSize)
	}
	if page.CurrentPage != 1 {
		t.Errorf("CurrentPage = %d, want 1", page.CurrentPage)
	}
}

// The week window is exactly seven days back from the injected clock.
func TestRank_WeekWindow(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	svc, repo := newLeaderboardFixture(t, now)

	if _, err := svc.Rank(context.Background(), "week", "points", 1); err != nil {
		t.Fatalf("Rank() error = %v", err)
	}

	want := now.AddDate(0, 0, -7)
	if repo.lastQuery.Since == nil || !repo.lastQuery.Since.Equal(want) {
		t.Errorf("Since = %v, want %v", repo.lastQuery.Since, want)
	}
}

// The month window is one calendar month, not 30 days.
func TestRank_MonthWindow(t *testing.T) {
	now := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
	svc, repo := newLeaderboardFixture(t, now)

	if _, err := svc.Rank(context.Background(), "month", "points", 1); err != nil {
		t.Fatalf("Rank() error = %v", err)
	}

	want := now.AddDate(0, -1, 0)
	if repo.lastQuery.Since == nil || !repo.lastQuery.Since.Equal(want) {
		t.Errorf("Since = %v, want %v", repo.lastQuery.Since, want)
	}
}

func TestRank_InvalidTimeFrame(t *testing.T) {
	svc, repo := newLeaderboardFixture(t, time.Now())

	_, err := svc.Rank(context.Background(), "fortnight", "points", 1)
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("error = %v, want ErrValidation", err)
	}
	if repo.lastQuery != nil {
		t.Error("query must not execute on invalid time frame")
	}
}

func TestRank_InvalidSortBy(t *testing.T) {
	svc, _ := newLeaderboardFixture(t, time.Now())

	_, err := svc.Rank(context.Background(), "all", "karma", 1)
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("error = %v, want ErrValidation", err)
	}
}

func TestRank_TotalPages(t *testing.T) {
	svc, repo := newLeaderboardFixture(t, time.Now())
	repo.total = 31

	page, err := svc.Rank(context.Background(), "all", "likes", 2)
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	if page.TotalPages != 4 { // ceil(31 / 10)
		t.Errorf("TotalPages = %d, want 4", page.TotalPages)
	}
	if page.CurrentPage != 2 {
		t.Errorf("CurrentPage = %d, want 2", page.CurrentPage)
	}
	if repo.lastQuery.SortBy != repository.RankByLikes {
		t.Errorf("SortBy = %q, want likes", repo.lastQuery.SortBy)
	}
}

func TestTotalPages(t *testing.T) {
	tests := []struct {
		total, pageSize, want int
	}{
		{0, 10, 0},
		{1, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{25, 10, 3},
	}
	for _, tt := range tests {
		if got := totalPages(tt.total, tt.pageSize); got != tt.want {
			t.Errorf("totalPages(%d, %d) = %d, want %d", tt.total, tt.pageSize, got, tt.want)
		}
	}
}
