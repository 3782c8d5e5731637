package model

import "time"

// Like records that a user liked a snippet. The (UserID, SnippetID) pair is
// the primary key in the database — a duplicate like fails with a constraint
// violation rather than being checked-then-inserted, so a double-like can
// never race its way in.
type Like struct {
	UserID    string    `json:"userId"`
	SnippetID string    `json:"snippetId"`
	CreatedAt time.Time `json:"createdAt"`
}

// Comment is an append-only comment on a snippet (no editing).
type Comment struct {
	ID        string    `json:"id"`
	SnippetID string    `json:"snippetId"`
	UserID    string    `json:"userId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`

	// Read-time annotation.
	AuthorName string `json:"author,omitempty"`
}

// Follow is a directed edge from follower to followee. Self-follows are
// rejected before the write; duplicates fail on the composite primary key.
type Follow struct {
	FollowerID string    `json:"followerId"`
	FolloweeID string    `json:"followeeId"`
	CreatedAt  time.Time `json:"createdAt"`
}
