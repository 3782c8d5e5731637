package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sakif/snippet-hub/internal/apperror"
	"github.com/sakif/snippet-hub/internal/repository"
)

// LeaderboardPageSize is fixed: the leaderboard always pages by ten.
const LeaderboardPageSize = 10

// LeaderboardPage is one page of ranked users.
type LeaderboardPage struct {
	Users       []repository.LeaderboardEntry `json:"users"`
	TotalPages  int                           `json:"totalPages"`
	CurrentPage int                           `json:"currentPage"`
}

// LeaderboardService computes ranked, paginated user views. It is a pure
// reader — it never writes points or badges.
type LeaderboardService struct {
	repo   repository.LeaderboardRepository
	logger *slog.Logger

	// now is injectable so tests can pin the clock for window math.
	now func() time.Time
}

func NewLeaderboardService(repo repository.LeaderboardRepository, logger *slog.Logger) *LeaderboardService {
	return &LeaderboardService{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

// Rank validates the raw parameters, derives the time window, and returns
// one page of the leaderboard.
//
// Window semantics: "month" is now minus one calendar month (AddDate, not
// 30 days), "week" is now minus seven days, "all" is unbounded. The bound
// is inclusive and applies to the user's creation time.
func (s *LeaderboardService) Rank(ctx context.Context, timeFrame, sortBy string, page int) (*LeaderboardPage, error) {
	if timeFrame == "" {
		timeFrame = string(repository.TimeFrameAll)
	}
	if sortBy == "" {
		sortBy = string(repository.RankByPoints)
	}
	if page <= 0 {
		page = 1
	}

	var since *time.Time
	switch repository.TimeFrame(timeFrame) {
	case repository.TimeFrameAll:
	case repository.TimeFrameMonth:
		t := s.now().AddDate(0, -1, 0)
		since = &t
	case repository.TimeFrameWeek:
		t := s.now().AddDate(0, 0, -7)
		since = &t
	default:
		return nil, apperror.ValidationFailed("timeFrame",
			fmt.Sprintf("timeFrame must be one of all, month, week; got %q", timeFrame))
	}

	switch repository.LeaderboardSortBy(sortBy) {
	case repository.RankByPoints, repository.RankBySnippets, repository.RankByLikes:
	default:
		return nil, apperror.ValidationFailed("sortBy",
			fmt.Sprintf("sortBy must be one of points, snippets, likes; got %q", sortBy))
	}

	entries, total, err := s.repo.Rank(ctx, repository.LeaderboardQuery{
		Since:    since,
		SortBy:   repository.LeaderboardSortBy(sortBy),
		Page:     page,
		PageSize: LeaderboardPageSize,
	})
	if err != nil {
		s.logger.Error("failed to rank users", slog.String("error", err.Error()))
		return nil, fmt.Errorf("ranking users: %w", err)
	}

	return &LeaderboardPage{
		Users:       entries,
		TotalPages:  totalPages(total, LeaderboardPageSize),
		CurrentPage: page,
	}, nil
}

// totalPages is ceil(total / pageSize) in integer math.
func totalPages(total, pageSize int) int {
	return (total + pageSize - 1) / pageSize
}
