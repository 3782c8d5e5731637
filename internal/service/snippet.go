package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/snippet-hub/internal/apperror"
	"github.com/sakif/snippet-hub/internal/model"
	"github.com/sakif/snippet-hub/internal/repository"
)

const (
	MaxTitleLength       = 100
	MaxDescriptionLength = 500
	MaxFilenameLength    = 100
	MaxLanguageLength    = 50
	DefaultListLimit     = 10
	MaxListLimit         = 100

	// DefaultMaxCodeSize bounds a single script's code body when no
	// upload limit is configured (~100KB of code).
	DefaultMaxCodeSize = 100000
)

// ScriptInput is one file in a snippet creation request.
type ScriptInput struct {
	Filename string `json:"filename"`
	Language string `json:"language"`
	Code     string `json:"code"`
}

// CreateSnippetInput is a snippet creation request.
type CreateSnippetInput struct {
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Tags        []string      `json:"tags"`
	Scripts     []ScriptInput `json:"scripts"`
}

// SnippetService handles snippet lifecycle: create (with accrual),
// read, list, owner-only update and delete.
type SnippetService struct {
	repo        repository.SnippetRepository
	engagement  *EngagementService
	maxCodeSize int
	logger      *slog.Logger
}

// NewSnippetService creates a SnippetService. maxCodeSize bounds each
// script's code body (<= 0 selects DefaultMaxCodeSize).
func NewSnippetService(repo repository.SnippetRepository, engagement *EngagementService, maxCodeSize int, logger *slog.Logger) *SnippetService {
	if maxCodeSize <= 0 {
		maxCodeSize = DefaultMaxCodeSize
	}
	return &SnippetService{
		repo:        repo,
		engagement:  engagement,
		maxCodeSize: maxCodeSize,
		logger:      logger,
	}
}

// Create validates and persists a new snippet with its scripts and tags,
// then credits the author with the share_snippet accrual (+10, which may
// push them over a badge threshold).
//
// All validation happens before any write: a rejected snippet leaves no
// partial state behind.
func (s *SnippetService) Create(ctx context.Context, ownerID string, in CreateSnippetInput) (*model.Snippet, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, apperror.ValidationFailed("title", "snippet title is required")
	}
	if len(title) > MaxTitleLength {
		return nil, apperror.ValidationFailed("title",
			fmt.Sprintf("snippet title must be %d characters or less", MaxTitleLength))
	}
	if len(in.Description) > MaxDescriptionLength {
		return nil, apperror.ValidationFailed("description",
			fmt.Sprintf("description must be %d characters or less", MaxDescriptionLength))
	}
	if len(in.Scripts) == 0 {
		return nil, apperror.ValidationFailed("scripts", "a snippet needs at least one script")
	}

	scripts := make([]model.Script, 0, len(in.Scripts))
	for i, sc := range in.Scripts {
		filename := strings.TrimSpace(sc.Filename)
		if filename == "" || len(filename) > MaxFilenameLength {
			return nil, apperror.ValidationFailed("scripts",
				fmt.Sprintf("script %d: filename must be 1-%d characters", i+1, MaxFilenameLength))
		}
		language := strings.TrimSpace(sc.Language)
		if language == "" || len(language) > MaxLanguageLength {
			return nil, apperror.ValidationFailed("scripts",
				fmt.Sprintf("script %d: language must be 1-%d characters", i+1, MaxLanguageLength))
		}
		if sc.Code == "" {
			return nil, apperror.ValidationFailed("scripts",
				fmt.Sprintf("script %d: code is required", i+1))
		}
		if len(sc.Code) > s.maxCodeSize {
			return nil, apperror.ValidationFailed("scripts",
				fmt.Sprintf("script %d: code exceeds the %d byte upload limit", i+1, s.maxCodeSize))
		}
		scripts = append(scripts, model.Script{
			Filename: filename,
			Language: language,
			Code:     sc.Code,
		})
	}

	snippet := &model.Snippet{
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		UserID:      ownerID,
		Tags:        normalizeTags(in.Tags),
		Scripts:     scripts,
	}

	if err := s.repo.Create(ctx, snippet); err != nil {
		s.logger.Error("failed to create snippet",
			slog.String("title", title),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating snippet: %w", err)
	}

	if _, err := s.engagement.Apply(ctx, ownerID, ActionShareSnippet); err != nil {
		return nil, fmt.Errorf("snippet created but share accrual failed: %w", err)
	}

	s.logger.Info("snippet created",
		slog.String("id", snippet.ID),
		slog.String("userID", ownerID),
		slog.Int("scripts", len(snippet.Scripts)),
	)

	return snippet, nil
}

// GetByID retrieves an annotated snippet (author name, like and comment
// counts, scripts with code, tags).
func (s *SnippetService) GetByID(ctx context.Context, id string) (*model.Snippet, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "snippet ID is required")
	}
	return s.repo.GetByID(ctx, id)
}

// List retrieves a page of snippets, newest first, plus the total count.
func (s *SnippetService) List(ctx context.Context, limit, offset int) ([]model.Snippet, int, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	snippets, total, err := s.repo.List(ctx, repository.ListOptions{Limit: limit, Offset: offset})
	if err != nil {
		s.logger.Error("failed to list snippets", slog.String("error", err.Error()))
		return nil, 0, fmt.Errorf("listing snippets: %w", err)
	}
	return snippets, total, nil
}

// Update modifies title, description, and tags. Only the owner may update;
// scripts are immutable after creation.
func (s *SnippetService) Update(ctx context.Context, id, callerID, title, description string, tags []string) (*model.Snippet, error) {
	snippet, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if snippet.UserID != callerID {
		return nil, apperror.Forbidden("only the snippet owner can update it")
	}

	if title = strings.TrimSpace(title); title != "" {
		if len(title) > MaxTitleLength {
			return nil, apperror.ValidationFailed("title",
				fmt.Sprintf("snippet title must be %d characters or less", MaxTitleLength))
		}
		snippet.Title = title
	}
	if len(description) > MaxDescriptionLength {
		return nil, apperror.ValidationFailed("description",
			fmt.Sprintf("description must be %d characters or less", MaxDescriptionLength))
	}
	snippet.Description = strings.TrimSpace(description)
	if tags != nil {
		snippet.Tags = normalizeTags(tags)
	}

	if err := s.repo.Update(ctx, snippet); err != nil {
		return nil, fmt.Errorf("updating snippet %s: %w", id, err)
	}

	s.logger.Info("snippet updated", slog.String("id", id))
	return snippet, nil
}

// Delete removes a snippet. Only the owner may delete.
func (s *SnippetService) Delete(ctx context.Context, id, callerID string) error {
	snippet, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if snippet.UserID != callerID {
		return apperror.Forbidden("only the snippet owner can delete it")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("snippet deleted", slog.String("id", id))
	return nil
}

// normalizeTags trims and drops empty tags, deduplicating while keeping
// the caller's order.
func normalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := []string{}
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}
