package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"testing"

	"github.com/sakif/snippet-hub/internal/apperror"
	"github.com/sakif/snippet-hub/internal/model"
	"github.com/sakif/snippet-hub/internal/repository"
)

// Hand-written in-memory mocks for every repository interface. The
// services only see the interfaces, so these swap in for the sqlite
// implementations without the services noticing.

// =========================================================================
// USER REPOSITORY MOCK
// =========================================================================

type mockUserRepo struct {
	users        map[string]*model.User
	badges       map[string]map[string]bool // userID -> badge name set
	follows      map[string]map[string]bool // followerID -> followeeID set
	snippetCount map[string]int
	likesCount   map[string]int
	nextID       int

	addPointsErr error // forces AddPoints to fail when set
	grantErr     error // forces GrantBadge to fail when set
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{
		users:        make(map[string]*model.User),
		badges:       make(map[string]map[string]bool),
		follows:      make(map[string]map[string]bool),
		snippetCount: make(map[string]int),
		likesCount:   make(map[string]int),
	}
}

// addUser seeds a user directly, bypassing validation.
func (m *mockUserRepo) addUser(id string, points int) *model.User {
	u := &model.User{ID: id, Name: "user " + id, Email: id + "@example.com", Points: points}
	m.users[id] = u
	return u
}

func (m *mockUserRepo) CreateUser(_ context.Context, user *model.User) error {
	for _, u := range m.users {
		if u.Email == user.Email {
			return apperror.Conflict("user", "email already registered")
		}
	}
	m.nextID++
	user.ID = fmt.Sprintf("user-%d", m.nextID)
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

func (m *mockUserRepo) GetUserByID(_ context.Context, id string) (*model.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	result := *u
	return &result, nil
}

func (m *mockUserRepo) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			result := *u
			return &result, nil
		}
	}
	return nil, apperror.NotFound("user", email)
}

func (m *mockUserRepo) UpsertByGitHubID(_ context.Context, user *model.User) error {
	if user.GitHubID == nil {
		return fmt.Errorf("missing github id")
	}
	for _, u := range m.users {
		if u.GitHubID != nil && *u.GitHubID == *user.GitHubID {
			u.Name = user.Name
			u.AvatarURL = user.AvatarURL
			*user = *u
			return nil
		}
	}
	m.nextID++
	user.ID = fmt.Sprintf("user-%d", m.nextID)
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

func (m *mockUserRepo) AddPoints(_ context.Context, userID string, delta int) (int, error) {
	if m.addPointsErr != nil {
		return 0, m.addPointsErr
	}
	u, ok := m.users[userID]
	if !ok {
		return 0, apperror.NotFound("user", userID)
	}
	u.Points += delta
	return u.Points, nil
}

func (m *mockUserRepo) Metrics(_ context.Context, userID string) (*repository.UserMetrics, error) {
	u, ok := m.users[userID]
	if !ok {
		return nil, apperror.NotFound("user", userID)
	}
	held := make(map[string]bool, len(m.badges[userID]))
	for name := range m.badges[userID] {
		held[name] = true
	}
	return &repository.UserMetrics{
		Points:       u.Points,
		SnippetCount: m.snippetCount[userID],
		HeldBadges:   held,
	}, nil
}

func (m *mockUserRepo) GrantBadge(_ context.Context, userID, badgeName string) error {
	if m.grantErr != nil {
		return m.grantErr
	}
	if m.badges[userID] == nil {
		m.badges[userID] = make(map[string]bool)
	}
	m.badges[userID][badgeName] = true
	return nil
}

func (m *mockUserRepo) BadgesForUser(_ context.Context, userID string) ([]model.Badge, error) {
	names := make([]string, 0, len(m.badges[userID]))
	for name := range m.badges[userID] {
		names = append(names, name)
	}
	sort.Strings(names)
	badges := make([]model.Badge, 0, len(names))
	for _, name := range names {
		badges = append(badges, model.Badge{ID: "badge-" + name, Name: name})
	}
	return badges, nil
}

func (m *mockUserRepo) Follow(_ context.Context, followerID, followeeID string) error {
	if m.follows[followerID][followeeID] {
		return apperror.Conflict("follow", "already following")
	}
	if m.follows[followerID] == nil {
		m.follows[followerID] = make(map[string]bool)
	}
	m.follows[followerID][followeeID] = true
	return nil
}

func (m *mockUserRepo) Unfollow(_ context.Context, followerID, followeeID string) error {
	if !m.follows[followerID][followeeID] {
		return apperror.NotFound("follow", followerID+"/"+followeeID)
	}
	delete(m.follows[followerID], followeeID)
	return nil
}

func (m *mockUserRepo) FollowCounts(_ context.Context, userID string) (int, int, error) {
	followers := 0
	for _, set := range m.follows {
		if set[userID] {
			followers++
		}
	}
	return followers, len(m.follows[userID]), nil
}

func (m *mockUserRepo) Profile(ctx context.Context, userID string) (*model.Profile, error) {
	u, err := m.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	badges, _ := m.BadgesForUser(ctx, userID)
	followers, following, _ := m.FollowCounts(ctx, userID)
	return &model.Profile{
		User:           *u,
		Badges:         badges,
		SnippetCount:   m.snippetCount[userID],
		LikesReceived:  m.likesCount[userID],
		FollowerCount:  followers,
		FollowingCount: following,
	}, nil
}

var _ repository.UserRepository = (*mockUserRepo)(nil)

// =========================================================================
// SNIPPET REPOSITORY MOCK
// =========================================================================

type mockSnippetRepo struct {
	snippets map[string]*model.Snippet
	order    []string // insertion order, for List
	nextID   int

	// Search is canned: the mock records the query it received and
	// returns whatever the test staged.
	lastSearch  *repository.SnippetSearchQuery
	searchOut   []model.Snippet
	searchTotal int
}

func newMockSnippetRepo() *mockSnippetRepo {
	return &mockSnippetRepo{snippets: make(map[string]*model.Snippet)}
}

// addSnippet seeds a snippet owned by userID.
func (m *mockSnippetRepo) addSnippet(id, userID string) *model.Snippet {
	s := &model.Snippet{ID: id, Title: "snippet " + id, UserID: userID}
	m.snippets[id] = s
	m.order = append(m.order, id)
	return s
}

func (m *mockSnippetRepo) Create(_ context.Context, snippet *model.Snippet) error {
	m.nextID++
	snippet.ID = fmt.Sprintf("snip-%d", m.nextID)
	stored := *snippet
	m.snippets[snippet.ID] = &stored
	m.order = append(m.order, snippet.ID)
	return nil
}

func (m *mockSnippetRepo) GetByID(_ context.Context, id string) (*model.Snippet, error) {
	s, ok := m.snippets[id]
	if !ok {
		return nil, apperror.NotFound("snippet", id)
	}
	result := *s
	return &result, nil
}

func (m *mockSnippetRepo) List(_ context.Context, opts repository.ListOptions) ([]model.Snippet, int, error) {
	total := len(m.order)
	result := make([]model.Snippet, 0, total)
	for _, id := range m.order {
		result = append(result, *m.snippets[id])
	}
	if opts.Offset >= len(result) {
		return []model.Snippet{}, total, nil
	}
	result = result[opts.Offset:]
	if opts.Limit > 0 && opts.Limit < len(result) {
		result = result[:opts.Limit]
	}
	return result, total, nil
}

func (m *mockSnippetRepo) Update(_ context.Context, snippet *model.Snippet) error {
	if _, ok := m.snippets[snippet.ID]; !ok {
		return apperror.NotFound("snippet", snippet.ID)
	}
	stored := *snippet
	m.snippets[snippet.ID] = &stored
	return nil
}

func (m *mockSnippetRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.snippets[id]; !ok {
		return apperror.NotFound("snippet", id)
	}
	delete(m.snippets, id)
	for i, sid := range m.order {
		if sid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

func (m *mockSnippetRepo) Search(_ context.Context, q repository.SnippetSearchQuery) ([]model.Snippet, int, error) {
	m.lastSearch = &q
	return m.searchOut, m.searchTotal, nil
}

var _ repository.SnippetRepository = (*mockSnippetRepo)(nil)

// =========================================================================
// ENGAGEMENT REPOSITORY MOCK
// =========================================================================

type mockEngagementRepo struct {
	likes    map[string]map[string]bool // snippetID -> userID set
	comments map[string][]model.Comment // snippetID -> comments
	nextID   int
}

func newMockEngagementRepo() *mockEngagementRepo {
	return &mockEngagementRepo{
		likes:    make(map[string]map[string]bool),
		comments: make(map[string][]model.Comment),
	}
}

func (m *mockEngagementRepo) CreateLike(_ context.Context, userID, snippetID string) error {
	if m.likes[snippetID][userID] {
		return apperror.Conflict("like", "already liked")
	}
	if m.likes[snippetID] == nil {
		m.likes[snippetID] = make(map[string]bool)
	}
	m.likes[snippetID][userID] = true
	return nil
}

func (m *mockEngagementRepo) DeleteLike(_ context.Context, userID, snippetID string) error {
	if !m.likes[snippetID][userID] {
		return apperror.NotFound("like", userID+"/"+snippetID)
	}
	delete(m.likes[snippetID], userID)
	return nil
}

func (m *mockEngagementRepo) LikeCount(_ context.Context, snippetID string) (int, error) {
	return len(m.likes[snippetID]), nil
}

func (m *mockEngagementRepo) CreateComment(_ context.Context, comment *model.Comment) error {
	m.nextID++
	comment.ID = fmt.Sprintf("comment-%d", m.nextID)
	m.comments[comment.SnippetID] = append(m.comments[comment.SnippetID], *comment)
	return nil
}

func (m *mockEngagementRepo) ListComments(_ context.Context, snippetID string) ([]model.Comment, error) {
	return m.comments[snippetID], nil
}

var _ repository.EngagementRepository = (*mockEngagementRepo)(nil)

// =========================================================================
// LEADERBOARD REPOSITORY MOCK
// =========================================================================

type mockLeaderboardRepo struct {
	lastQuery *repository.LeaderboardQuery
	entries   []repository.LeaderboardEntry
	total     int
	err       error
}

func (m *mockLeaderboardRepo) Rank(_ context.Context, q repository.LeaderboardQuery) ([]repository.LeaderboardEntry, int, error) {
	m.lastQuery = &q
	if m.err != nil {
		return nil, 0, m.err
	}
	return m.entries, m.total, nil
}

var _ repository.LeaderboardRepository = (*mockLeaderboardRepo)(nil)

// =========================================================================
// SHARED HELPERS
// =========================================================================

func newTestLogger(t *testing.T) *slog.Logger {
	t.Helper()
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// newEngagementFixture wires an EngagementService onto fresh mocks.
func newEngagementFixture(t *testing.T) (*EngagementService, *mockUserRepo, *mockSnippetRepo, *mockEngagementRepo) {
	t.Helper()
	users := newMockUserRepo()
	snippets := newMockSnippetRepo()
	engagement := newMockEngagementRepo()
	svc := NewEngagementService(users, snippets, engagement, newTestLogger(t))
	return svc, users, snippets, engagement
}
