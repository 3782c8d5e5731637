// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered account.
//
// Identity comes from one of two places: email/password signup (PasswordHash
// is set) or GitHub OAuth (GitHubID is set). We always generate our own
// internal string ID (xid) so primary keys never depend on a third party's
// numbering scheme.
//
// WHY Points ON THE USER ROW?
// The point total is conceptually an append-only ledger of deltas, but we
// store it as a running counter. The invariant is that it is ONLY ever
// mutated through the repository's atomic AddPoints — never read-then-write
// in application code — so concurrent likes/comments on the same author can
// never lose an update.
type User struct {
	ID           string    `json:"id"        db:"id"`
	Name         string    `json:"name"      db:"name"`  // Display name shown on snippets and the leaderboard
	Email        string    `json:"email"     db:"email"` // Unique; login identifier for password accounts
	PasswordHash string    `json:"-"         db:"password_hash"`
	GitHubID     *int64    `json:"githubId,omitempty"  db:"github_id"` // Set only for OAuth accounts
	AvatarURL    string    `json:"avatarUrl" db:"avatar_url"`
	Points       int       `json:"points"    db:"points"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

// Badge is a catalog entry. The catalog is fixed and seeded at migration
// time; users are linked to badges through a join table and a grant is
// never revoked.
type Badge struct {
	ID          string `json:"id"          db:"id"`
	Name        string `json:"name"        db:"name"` // Unique, e.g. "Century"
	Description string `json:"description" db:"description"`
	ImageURL    string `json:"imageUrl"    db:"image_url"`
}

// Profile is the read model for a user page: the user plus everything
// computed from their social graph. None of the counts are stored — they
// are aggregated on read.
type Profile struct {
	User           User    `json:"user"`
	Badges         []Badge `json:"badges"`
	SnippetCount   int     `json:"snippetCount"`
	LikesReceived  int     `json:"likesReceived"`
	FollowerCount  int     `json:"followerCount"`
	FollowingCount int     `json:"followingCount"`
}
