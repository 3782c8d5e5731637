package sqlite

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/sakif/snippet-hub/internal/apperror"
	"github.com/sakif/snippet-hub/internal/model"
	"github.com/sakif/snippet-hub/internal/repository"
)

// =========================================================================
// CREATE / GET
// =========================================================================

func TestCreate_RoundTrip(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "alice")

	snippet := &model.Snippet{
		Title:       "Multi-file demo",
		Description: "two scripts",
		UserID:      user.ID,
		Tags:        []string{"api", "demo"},
		Scripts: []model.Script{
			{Filename: "main.go", Language: "go", Code: "package main"},
			{Filename: "util.go", Language: "go", Code: "package main\n\nfunc u() {}"},
		},
	}
	if err := db.Create(context.Background(), snippet); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if snippet.ID == "" {
		t.Error("Create() did not set snippet.ID")
	}

	found, err := db.GetByID(context.Background(), snippet.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if found.Title != "Multi-file demo" {
		t.Errorf("Title = %q", found.Title)
	}
	if found.AuthorName != "alice" {
		t.Errorf("AuthorName = %q, want alice", found.AuthorName)
	}
	if len(found.Scripts) != 2 {
		t.Fatalf("scripts = %d, want 2", len(found.Scripts))
	}
	// Position order must survive the round trip.
	if found.Scripts[0].Filename != "main.go" || found.Scripts[1].Filename != "util.go" {
		t.Errorf("script order = %q, %q", found.Scripts[0].Filename, found.Scripts[1].Filename)
	}
	if found.Scripts[0].Code != "package main" {
		t.Errorf("Code = %q, want full body", found.Scripts[0].Code)
	}
	if !reflect.DeepEqual(found.Tags, []string{"api", "demo"}) {
		t.Errorf("Tags = %v, want [api demo]", found.Tags)
	}
	if found.LikeCount != 0 || found.CommentCount != 0 {
		t.Errorf("counts = %d/%d, want 0/0", found.LikeCount, found.CommentCount)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetByID(context.Background(), "nonexistent")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// LIST
// =========================================================================

func TestList_PaginationAndTotal(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "alice")
	for i := 0; i < 5; i++ {
		createTestSnippet(t, db, user.ID, "snippet")
	}

	snippets, total, err := db.List(context.Background(), repository.ListOptions{Limit: 2, Offset: 0})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(snippets) != 2 {
		t.Errorf("page size = %d, want 2", len(snippets))
	}
	if total != 5 {
		t.Errorf("total = %d, want 5", total)
	}

	// List views omit code bodies.
	if len(snippets[0].Scripts) != 1 || snippets[0].Scripts[0].Code != "" {
		t.Error("list view must include scripts without code bodies")
	}

	snippets, _, err = db.List(context.Background(), repository.ListOptions{Limit: 2, Offset: 4})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(snippets) != 1 {
		t.Errorf("last page size = %d, want 1", len(snippets))
	}
}

// =========================================================================
// UPDATE / DELETE
// =========================================================================

func TestUpdate_ReplacesTags(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "alice")
	snippet := createTestSnippet(t, db, user.ID, "before")
	snippet.Tags = []string{"old"}
	if err := db.Update(context.Background(), snippet); err != nil {
		t.Fatal(err)
	}

	snippet.Title = "after"
	snippet.Tags = []string{"new", "fresh"}
	if err := db.Update(context.Background(), snippet); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	found, err := db.GetByID(context.Background(), snippet.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if found.Title != "after" {
		t.Errorf("Title = %q, want after", found.Title)
	}
	if !reflect.DeepEqual(found.Tags, []string{"fresh", "new"}) { // tags come back sorted
		t.Errorf("Tags = %v, want [fresh new]", found.Tags)
	}
}

func TestUpdate_NotFound(t *testing.T) {
	db := newTestDB(t)

	err := db.Update(context.Background(), &model.Snippet{ID: "nonexistent", Title: "x"})
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestDelete_Cascades(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	snippet := createTestSnippet(t, db, alice.ID, "doomed")
	if err := db.CreateLike(context.Background(), bob.ID, snippet.ID); err != nil {
		t.Fatal(err)
	}

	if err := db.Delete(context.Background(), snippet.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if _, err := db.GetByID(context.Background(), snippet.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("after delete: error = %v, want ErrNotFound", err)
	}

	// Likes ride along via ON DELETE CASCADE.
	n, err := db.LikeCount(context.Background(), snippet.ID)
	if err != nil {
		t.Fatalf("LikeCount() error = %v", err)
	}
	if n != 0 {
		t.Errorf("orphaned likes = %d, want 0", n)
	}
}

func TestDelete_NotFound(t *testing.T) {
	db := newTestDB(t)

	err := db.Delete(context.Background(), "nonexistent")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}
