package sqlite

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/sakif/snippet-hub/internal/model"
)

// Tests run against an in-memory database: fast, isolated, destroyed when
// the connection closes. newTestDB is shared by every test file in this
// package.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func createTestUser(t *testing.T, db *DB, name string) *model.User {
	t.Helper()
	user := &model.User{
		Name:  name,
		Email: fmt.Sprintf("%s@example.com", name),
	}
	if err := db.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("failed to create test user %s: %v", name, err)
	}
	return user
}

func createTestSnippet(t *testing.T, db *DB, userID, title string) *model.Snippet {
	t.Helper()
	snippet := &model.Snippet{
		Title:  title,
		UserID: userID,
		Scripts: []model.Script{
			{Filename: "main.go", Language: "go", Code: "package main"},
		},
	}
	if err := db.Create(context.Background(), snippet); err != nil {
		t.Fatalf("failed to create test snippet %s: %v", title, err)
	}
	return snippet
}

// backdateUser rewrites a user's created_at, for leaderboard window tests.
func backdateUser(t *testing.T, db *DB, userID string, to time.Time) {
	t.Helper()
	if _, err := db.conn.Exec(`UPDATE users SET created_at = ? WHERE id = ?`, to, userID); err != nil {
		t.Fatalf("failed to backdate user %s: %v", userID, err)
	}
}

// backdateSnippet rewrites a snippet's created_at, for search date-bound
// tests.
func backdateSnippet(t *testing.T, db *DB, snippetID string, to time.Time) {
	t.Helper()
	if _, err := db.conn.Exec(`UPDATE snippets SET created_at = ? WHERE id = ?`, to, snippetID); err != nil {
		t.Fatalf("failed to backdate snippet %s: %v", snippetID, err)
	}
}
