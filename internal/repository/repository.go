// Package repository defines the storage interfaces the service layer
// programs against, plus the typed query descriptors for the read paths.
//
// The search and leaderboard queries arrive from HTTP as loose strings.
// They are validated ONCE in the service layer into the typed descriptors
// below, and the storage implementation translates a descriptor into SQL.
// No layer below the service ever sees an unvalidated parameter.
package repository

import (
	"context"
	"time"

	"github.com/sakif/snippet-hub/internal/model"
)

type ListOptions struct {
	Limit  int
	Offset int
}

// SnippetSortBy selects the search sort column.
type SnippetSortBy string

const (
	SortRecent   SnippetSortBy = "recent"   // creation timestamp
	SortPopular  SnippetSortBy = "popular"  // like count
	SortComments SnippetSortBy = "comments" // comment count
)

// SortOrder is the sort direction.
type SortOrder string

const (
	OrderAsc  SortOrder = "asc"
	OrderDesc SortOrder = "desc"
)

// SnippetSearchQuery is the validated form of a faceted search request.
// All facets are optional and conjunctive; zero values mean "no filter".
// Pointer fields distinguish "absent" from a legitimate zero.
type SnippetSearchQuery struct {
	Query         string   // case-insensitive substring: title OR description OR any script body
	Language      string   // case-insensitive equality against any script's language
	Tags          []string // snippet must carry every listed tag
	Author        string   // case-insensitive substring against the author's display name
	MinLikes      *int     // inclusive
	MaxLikes      *int     // inclusive
	CreatedAfter  *time.Time
	CreatedBefore *time.Time

	SortBy  SnippetSortBy
	Order   SortOrder
	Page    int // 1-based
	PerPage int
}

// Offset returns the row offset for the requested page.
func (q SnippetSearchQuery) Offset() int {
	return (q.Page - 1) * q.PerPage
}

// TimeFrame bounds a leaderboard to recently created users.
type TimeFrame string

const (
	TimeFrameAll   TimeFrame = "all"
	TimeFrameMonth TimeFrame = "month" // now minus one calendar month
	TimeFrameWeek  TimeFrame = "week"  // now minus seven days
)

// LeaderboardSortBy selects the ranking metric.
type LeaderboardSortBy string

const (
	RankByPoints   LeaderboardSortBy = "points"
	RankBySnippets LeaderboardSortBy = "snippets"
	RankByLikes    LeaderboardSortBy = "likes" // likes RECEIVED across the user's snippets
)

// LeaderboardQuery is the validated form of a leaderboard request.
// Since is the created_at lower bound derived from the time frame; nil
// means no bound (TimeFrameAll).
type LeaderboardQuery struct {
	Since    *time.Time
	SortBy   LeaderboardSortBy
	Page     int // 1-based
	PageSize int
}

// LeaderboardEntry is one ranked row. Rank is positional within the full
// ordering (1-based, continuing across pages), not a stored field.
type LeaderboardEntry struct {
	UserID       string        `json:"id"`
	Name         string        `json:"name"`
	Points       int           `json:"points"`
	SnippetCount int           `json:"snippetsCount"`
	LikesCount   int           `json:"likesCount"`
	Badges       []model.Badge `json:"badges"`
	Rank         int           `json:"rank"`
}

// UserMetrics is the snapshot badge evaluation reads after a point mutation.
type UserMetrics struct {
	Points       int
	SnippetCount int
	HeldBadges   map[string]bool // keyed by badge name
}

type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	// UpsertByGitHubID inserts on first OAuth login and refreshes the
	// profile on later logins, preserving the internal ID.
	UpsertByGitHubID(ctx context.Context, user *model.User) error

	// AddPoints applies a delta atomically at the storage layer
	// (points = points + delta, single statement) and returns the new
	// total. Returns apperror.ErrNotFound for an unknown user.
	AddPoints(ctx context.Context, userID string, delta int) (int, error)
	// Metrics returns the post-mutation snapshot badge evaluation runs on.
	Metrics(ctx context.Context, userID string) (*UserMetrics, error)
	// GrantBadge records a grant. Granting an already-held badge is a
	// no-op, never an error — grants are idempotent and monotonic.
	GrantBadge(ctx context.Context, userID, badgeName string) error
	BadgesForUser(ctx context.Context, userID string) ([]model.Badge, error)

	Follow(ctx context.Context, followerID, followeeID string) error
	Unfollow(ctx context.Context, followerID, followeeID string) error
	FollowCounts(ctx context.Context, userID string) (followers, following int, err error)
	Profile(ctx context.Context, userID string) (*model.Profile, error)
}

type SnippetRepository interface {
	// Create persists the snippet together with its scripts and tags in
	// one transaction.
	Create(ctx context.Context, snippet *model.Snippet) error
	GetByID(ctx context.Context, id string) (*model.Snippet, error)
	List(ctx context.Context, opts ListOptions) ([]model.Snippet, int, error)
	// Update touches title, description, and tags only; scripts and owner
	// are immutable after creation.
	Update(ctx context.Context, snippet *model.Snippet) error
	Delete(ctx context.Context, id string) error

	// Search executes a validated faceted query and returns the annotated
	// page plus the total match count.
	Search(ctx context.Context, q SnippetSearchQuery) ([]model.Snippet, int, error)
}

type EngagementRepository interface {
	// CreateLike inserts the (userID, snippetID) pair; a duplicate fails
	// with apperror.ErrConflict via the composite primary key, not a
	// check-then-insert.
	CreateLike(ctx context.Context, userID, snippetID string) error
	// DeleteLike removes the pair; apperror.ErrNotFound if it never existed.
	DeleteLike(ctx context.Context, userID, snippetID string) error
	LikeCount(ctx context.Context, snippetID string) (int, error)

	CreateComment(ctx context.Context, comment *model.Comment) error
	ListComments(ctx context.Context, snippetID string) ([]model.Comment, error)
}

type LeaderboardRepository interface {
	// Rank returns one page of ranked users plus the total number of users
	// matching the time window.
	Rank(ctx context.Context, q LeaderboardQuery) ([]LeaderboardEntry, int, error)
}
