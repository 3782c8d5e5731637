// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (business layer) → validates, enforces rules, orchestrates
//	Repository (data layer)  → reads/writes the database
//
// Services take repository interfaces, not concrete types, so every
// service test in this package runs against hand-written in-memory mocks.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/snippet-hub/internal/apperror"
	"github.com/sakif/snippet-hub/internal/badge"
	"github.com/sakif/snippet-hub/internal/model"
	"github.com/sakif/snippet-hub/internal/repository"
)

// Action is a social action that accrues points.
type Action string

const (
	ActionShareSnippet   Action = "share_snippet"   // snippet author, at creation
	ActionReceiveLike    Action = "receive_like"    // snippet author, per like created
	ActionUnlike         Action = "unlike"          // snippet author, per like removed
	ActionReceiveComment Action = "receive_comment" // snippet author, per comment created
	ActionPostComment    Action = "post_comment"    // comment author, per comment posted
)

// pointDeltas is the fixed action → delta table. Not configurable at
// runtime: changing a delta changes the meaning of every historical total.
var pointDeltas = map[Action]int{
	ActionShareSnippet:   10,
	ActionReceiveLike:    2,
	ActionUnlike:         -2,
	ActionReceiveComment: 5,
	ActionPostComment:    5,
}

const (
	MinCommentLength = 1
	MaxCommentLength = 500
)

// EngagementService translates social actions into point deltas and badge
// grants. It is the ONLY writer of points and badges — every other
// component reads them.
type EngagementService struct {
	users      repository.UserRepository
	snippets   repository.SnippetRepository
	engagement repository.EngagementRepository
	logger     *slog.Logger
}

func NewEngagementService(
	users repository.UserRepository,
	snippets repository.SnippetRepository,
	engagement repository.EngagementRepository,
	logger *slog.Logger,
) *EngagementService {
	return &EngagementService{
		users:      users,
		snippets:   snippets,
		engagement: engagement,
		logger:     logger,
	}
}

// Apply applies the point delta for one action to one user and then
// re-evaluates that user's badges against the post-mutation snapshot.
// Returns the new point total.
//
// The delta itself is a single atomic increment at the storage layer, so
// concurrent Apply calls for the same user serialize there. Badge
// evaluation runs after the increment commits; grants are idempotent and
// monotonic, so if this operation fails between the increment and the
// grant, the caller can safely retry the evaluation.
func (s *EngagementService) Apply(ctx context.Context, userID string, action Action) (int, error) {
	delta, ok := pointDeltas[action]
	if !ok {
		return 0, apperror.ValidationFailed("action", fmt.Sprintf("unknown action %q", action))
	}

	total, err := s.users.AddPoints(ctx, userID, delta)
	if err != nil {
		return 0, err
	}

	s.logger.Info("points applied",
		slog.String("userID", userID),
		slog.String("action", string(action)),
		slog.Int("delta", delta),
		slog.Int("total", total),
	)

	// A badge computed but not persisted is a correctness bug, so any
	// grant failure surfaces to the caller instead of being logged away.
	if err := s.evaluateBadges(ctx, userID); err != nil {
		return 0, fmt.Errorf("applying %s to user %s: %w", action, userID, err)
	}

	return total, nil
}

// evaluateBadges grants whatever the current metrics newly qualify.
func (s *EngagementService) evaluateBadges(ctx context.Context, userID string) error {
	metrics, err := s.users.Metrics(ctx, userID)
	if err != nil {
		return err
	}

	earned := badge.Evaluate(badge.Metrics{
		Points:       metrics.Points,
		SnippetCount: metrics.SnippetCount,
	}, metrics.HeldBadges)

	for _, k := range earned {
		if err := s.users.GrantBadge(ctx, userID, k.String()); err != nil {
			return fmt.Errorf("granting badge %s: %w", k, err)
		}
		s.logger.Info("badge granted",
			slog.String("userID", userID),
			slog.String("badge", k.String()),
		)
	}

	return nil
}

// Like records a like on a snippet, credits the snippet's author, and
// returns the updated like count.
//
// A duplicate like fails with ErrConflict on the storage constraint, so
// the point delta is never applied twice for the same pair. The author is
// credited — not the liker.
func (s *EngagementService) Like(ctx context.Context, userID, snippetID string) (int, error) {
	snippet, err := s.snippets.GetByID(ctx, snippetID)
	if err != nil {
		return 0, err
	}

	if err := s.engagement.CreateLike(ctx, userID, snippetID); err != nil {
		return 0, err
	}

	if _, err := s.Apply(ctx, snippet.UserID, ActionReceiveLike); err != nil {
		// The like row exists but the delta didn't land. Never report
		// success while silently dropping the points — surface it so the
		// caller layer retries or reconciles.
		return 0, fmt.Errorf("like recorded but point accrual failed: %w", err)
	}

	return s.engagement.LikeCount(ctx, snippetID)
}

// Unlike removes a like and reverses the author's delta.
// Unliking something never liked is ErrNotFound.
func (s *EngagementService) Unlike(ctx context.Context, userID, snippetID string) (int, error) {
	snippet, err := s.snippets.GetByID(ctx, snippetID)
	if err != nil {
		return 0, err
	}

	if err := s.engagement.DeleteLike(ctx, userID, snippetID); err != nil {
		return 0, err
	}

	if _, err := s.Apply(ctx, snippet.UserID, ActionUnlike); err != nil {
		return 0, fmt.Errorf("unlike recorded but point reversal failed: %w", err)
	}

	return s.engagement.LikeCount(ctx, snippetID)
}

// Comment appends a comment to a snippet and applies both comment rules:
// the snippet's author receives +5 (receive_comment) and the commenter
// receives +5 (post_comment). Commenting on your own snippet earns both.
func (s *EngagementService) Comment(ctx context.Context, userID, snippetID, content string) (*model.Comment, error) {
	content = strings.TrimSpace(content)
	if len(content) < MinCommentLength {
		return nil, apperror.ValidationFailed("content", "comment must not be empty")
	}
	if len(content) > MaxCommentLength {
		return nil, apperror.ValidationFailed("content",
			fmt.Sprintf("comment must be %d characters or less", MaxCommentLength))
	}

	snippet, err := s.snippets.GetByID(ctx, snippetID)
	if err != nil {
		return nil, err
	}

	comment := &model.Comment{
		SnippetID: snippetID,
		UserID:    userID,
		Content:   content,
	}
	if err := s.engagement.CreateComment(ctx, comment); err != nil {
		return nil, err
	}

	if _, err := s.Apply(ctx, snippet.UserID, ActionReceiveComment); err != nil {
		return nil, fmt.Errorf("comment recorded but author accrual failed: %w", err)
	}
	if _, err := s.Apply(ctx, userID, ActionPostComment); err != nil {
		return nil, fmt.Errorf("comment recorded but commenter accrual failed: %w", err)
	}

	return comment, nil
}

// CommentsFor lists a snippet's comments, newest first.
func (s *EngagementService) CommentsFor(ctx context.Context, snippetID string) ([]model.Comment, error) {
	if _, err := s.snippets.GetByID(ctx, snippetID); err != nil {
		return nil, err
	}
	return s.engagement.ListComments(ctx, snippetID)
}
