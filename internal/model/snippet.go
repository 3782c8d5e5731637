package model

import "time"

// Snippet is a published, multi-file code snippet.
//
// Scripts is the ordered list of files; a snippet always has at least one
// script and scripts are only created together with their snippet, in a
// single transaction. The owner (UserID) is immutable after creation.
//
// LikeCount and CommentCount are derived attributes — never stored, always
// computed by the repository at read time.
type Snippet struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	UserID      string    `json:"userId"`
	Tags        []string  `json:"tags"`
	Scripts     []Script  `json:"scripts,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`

	// Read-time annotations (see SnippetRepository.Search / GetByID).
	AuthorName   string `json:"author,omitempty"`
	LikeCount    int    `json:"likesCount"`
	CommentCount int    `json:"commentsCount"`
}

// Script is one file inside a snippet.
type Script struct {
	ID        string `json:"id"`
	SnippetID string `json:"snippetId"`
	Filename  string `json:"filename"`
	Language  string `json:"language"`
	Code      string `json:"code,omitempty"`
	Position  int    `json:"position"` // 0-based order within the snippet
}
