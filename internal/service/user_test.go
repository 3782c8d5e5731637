package service

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/snippet-hub/internal/apperror"
)

func newUserFixture(t *testing.T) (*UserService, *mockUserRepo) {
	t.Helper()
	users := newMockUserRepo()
	return NewUserService(users, newTestLogger(t)), users
}

func TestFollow_Success(t *testing.T) {
	svc, users := newUserFixture(t)
	users.addUser("alice", 0)
	users.addUser("bob", 0)

	if err := svc.Follow(context.Background(), "alice", "bob"); err != nil {
		t.Fatalf("Follow() error = %v", err)
	}
	if !users.follows["alice"]["bob"] {
		t.Error("expected alice to follow bob")
	}
}

func TestFollow_Self(t *testing.T) {
	svc, users := newUserFixture(t)
	users.addUser("alice", 0)

	err := svc.Follow(context.Background(), "alice", "alice")
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("error = %v, want ErrValidation", err)
	}
}

func TestFollow_UnknownFollowee(t *testing.T) {
	svc, users := newUserFixture(t)
	users.addUser("alice", 0)

	err := svc.Follow(context.Background(), "alice", "ghost")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestFollow_Duplicate(t *testing.T) {
	svc, users := newUserFixture(t)
	users.addUser("alice", 0)
	users.addUser("bob", 0)

	if err := svc.Follow(context.Background(), "alice", "bob"); err != nil {
		t.Fatalf("first Follow() error = %v", err)
	}
	err := svc.Follow(context.Background(), "alice", "bob")
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("error = %v, want ErrConflict", err)
	}
}

func TestUnfollow_NotFollowing(t *testing.T) {
	svc, users := newUserFixture(t)
	users.addUser("alice", 0)
	users.addUser("bob", 0)

	err := svc.Unfollow(context.Background(), "alice", "bob")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestProfile_Aggregates(t *testing.T) {
	svc, users := newUserFixture(t)
	users.addUser("alice", 120)
	users.addUser("bob", 0)
	users.snippetCount["alice"] = 3
	users.likesCount["alice"] = 7
	if err := users.Follow(context.Background(), "bob", "alice"); err != nil {
		t.Fatal(err)
	}

	profile, err := svc.Profile(context.Background(), "alice")
	if err != nil {
		t.Fatalf("Profile() error = %v", err)
	}
	if profile.User.Points != 120 {
		t.Errorf("Points = %d, want 120", profile.User.Points)
	}
	if profile.SnippetCount != 3 || profile.LikesReceived != 7 {
		t.Errorf("counts = %d/%d, want 3/7", profile.SnippetCount, profile.LikesReceived)
	}
	if profile.FollowerCount != 1 || profile.FollowingCount != 0 {
		t.Errorf("follows = %d/%d, want 1/0", profile.FollowerCount, profile.FollowingCount)
	}
}

func TestProfile_UnknownUser(t *testing.T) {
	svc, _ := newUserFixture(t)

	_, err := svc.Profile(context.Background(), "ghost")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}
