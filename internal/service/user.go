package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/snippet-hub/internal/apperror"
	"github.com/sakif/snippet-hub/internal/model"
	"github.com/sakif/snippet-hub/internal/repository"
)

// UserService handles follows and public profiles.
type UserService struct {
	users  repository.UserRepository
	logger *slog.Logger
}

func NewUserService(users repository.UserRepository, logger *slog.Logger) *UserService {
	return &UserService{users: users, logger: logger}
}

// Follow makes followerID follow followeeID. Following yourself is
// rejected; following someone twice is a conflict.
func (s *UserService) Follow(ctx context.Context, followerID, followeeID string) error {
	if followerID == followeeID {
		return apperror.ValidationFailed("followeeID", "you cannot follow yourself")
	}
	if _, err := s.users.GetUserByID(ctx, followeeID); err != nil {
		return err
	}

	if err := s.users.Follow(ctx, followerID, followeeID); err != nil {
		return err
	}

	s.logger.Info("follow created",
		slog.String("followerID", followerID),
		slog.String("followeeID", followeeID),
	)
	return nil
}

// Unfollow removes a follow edge. Unfollowing someone never followed is
// ErrNotFound.
func (s *UserService) Unfollow(ctx context.Context, followerID, followeeID string) error {
	if followerID == followeeID {
		return apperror.ValidationFailed("followeeID", "you cannot unfollow yourself")
	}
	return s.users.Unfollow(ctx, followerID, followeeID)
}

// Profile returns a user's public profile with badges and aggregate
// counts.
func (s *UserService) Profile(ctx context.Context, userID string) (*model.Profile, error) {
	profile, err := s.users.Profile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading profile for %s: %w", userID, err)
	}
	return profile, nil
}
