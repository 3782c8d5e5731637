package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/sakif/snippet-hub/internal/apperror"
	"github.com/sakif/snippet-hub/internal/auth"
	"github.com/sakif/snippet-hub/internal/model"
	"github.com/sakif/snippet-hub/internal/repository"
)

const (
	MinPasswordLength = 8
	MaxPasswordLength = 72 // bcrypt's input limit
	MaxNameLength     = 100
)

// AuthService handles signup, login, and GitHub OAuth identity.
type AuthService struct {
	users    repository.UserRepository
	password *auth.PasswordService
	tokens   *auth.TokenService
	logger   *slog.Logger
}

func NewAuthService(
	users repository.UserRepository,
	password *auth.PasswordService,
	tokens *auth.TokenService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:    users,
		password: password,
		tokens:   tokens,
		logger:   logger,
	}
}

// Signup registers a new user with an email/password credential and
// returns the user plus a signed session token.
func (s *AuthService) Signup(ctx context.Context, name, email, password string) (*model.User, string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, "", apperror.ValidationFailed("name", "name is required")
	}
	if len(name) > MaxNameLength {
		return nil, "", apperror.ValidationFailed("name",
			fmt.Sprintf("name must be %d characters or less", MaxNameLength))
	}

	email, err := normalizeEmail(email)
	if err != nil {
		return nil, "", err
	}

	if len(password) < MinPasswordLength {
		return nil, "", apperror.ValidationFailed("password",
			fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}
	if len(password) > MaxPasswordLength {
		return nil, "", apperror.ValidationFailed("password",
			fmt.Sprintf("password must be %d bytes or less", MaxPasswordLength))
	}

	hash, err := s.password.Hash(password)
	if err != nil {
		return nil, "", fmt.Errorf("hashing password: %w", err)
	}

	user := &model.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, "", err
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("generating token: %w", err)
	}

	s.logger.Info("user signed up", slog.String("userID", user.ID))
	return user, token, nil
}

// Login authenticates an email/password pair. Both a missing account and
// a wrong password produce the same unauthorized error so the endpoint
// can't be used to probe which emails are registered.
func (s *AuthService) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, "", err
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, "", apperror.Unauthorized("invalid email or password")
	}
	if user.PasswordHash == "" || s.password.Verify(user.PasswordHash, password) != nil {
		return nil, "", apperror.Unauthorized("invalid email or password")
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("generating token: %w", err)
	}

	s.logger.Info("user logged in", slog.String("userID", user.ID))
	return user, token, nil
}

// LoginOrRegisterGitHub resolves a GitHub identity to a local account,
// creating one on first sight, and returns a session token.
func (s *AuthService) LoginOrRegisterGitHub(ctx context.Context, gh *auth.GitHubUser) (*model.User, string, error) {
	user := &model.User{
		Name:      gh.DisplayName(),
		Email:     gh.Email,
		GitHubID:  &gh.ID,
		AvatarURL: gh.AvatarURL,
	}
	if err := s.users.UpsertByGitHubID(ctx, user); err != nil {
		return nil, "", fmt.Errorf("upserting github user %d: %w", gh.ID, err)
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("generating token: %w", err)
	}

	s.logger.Info("github login", slog.String("userID", user.ID), slog.Int64("githubID", gh.ID))
	return user, token, nil
}

// GetUserByID loads a user by ID.
func (s *AuthService) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return s.users.GetUserByID(ctx, id)
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", apperror.ValidationFailed("email", "email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "", apperror.ValidationFailed("email", "invalid email address")
	}
	return email, nil
}
