package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/snippet-hub/internal/apperror"
	"github.com/sakif/snippet-hub/internal/model"
	"github.com/sakif/snippet-hub/internal/repository"
)

// compile-time check that *DB implements repository.EngagementRepository
var _ repository.EngagementRepository = (*DB)(nil)

// CreateLike inserts the (user, snippet) like pair.
//
// The likes table's composite PRIMARY KEY is the double-like guard: the
// uniqueness check and the insert are one atomic statement, so two
// concurrent likes from the same user can't both succeed. A duplicate
// surfaces as ErrConflict. Snippet existence is the service layer's check
// (it has to load the author anyway).
func (db *DB) CreateLike(ctx context.Context, userID, snippetID string) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO likes (user_id, snippet_id, created_at) VALUES (?, ?, ?)`,
		userID, snippetID, time.Now().UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("like", "already liked")
		}
		return fmt.Errorf("sqlite: liking snippet %s: %w", snippetID, err)
	}
	return nil
}

// DeleteLike removes the pair; unliking something never liked is NotFound.
func (db *DB) DeleteLike(ctx context.Context, userID, snippetID string) error {
	res, err := db.conn.ExecContext(ctx,
		`DELETE FROM likes WHERE user_id = ? AND snippet_id = ?`,
		userID, snippetID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: unliking snippet %s: %w", snippetID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound("like", snippetID)
	}
	return nil
}

// LikeCount returns the current like count for a snippet.
func (db *DB) LikeCount(ctx context.Context, snippetID string) (int, error) {
	var n int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM likes WHERE snippet_id = ?`, snippetID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("sqlite: counting likes for snippet %s: %w", snippetID, err)
	}
	return n, nil
}

// CreateComment appends a comment. Content bounds are enforced by the
// service layer before this is called.
func (db *DB) CreateComment(ctx context.Context, comment *model.Comment) error {
	comment.ID = xid.New().String()
	comment.CreatedAt = time.Now().UTC()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO comments (id, snippet_id, user_id, content, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		comment.ID, comment.SnippetID, comment.UserID, comment.Content, comment.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting comment: %w", err)
	}
	return nil
}

// ListComments returns a snippet's comments, newest first, annotated with
// the author's display name.
func (db *DB) ListComments(ctx context.Context, snippetID string) ([]model.Comment, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT c.id, c.snippet_id, c.user_id, c.content, c.created_at, u.name
		 FROM comments c
		 JOIN users u ON u.id = c.user_id
		 WHERE c.snippet_id = ?
		 ORDER BY c.created_at DESC, c.id ASC`,
		snippetID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing comments for snippet %s: %w", snippetID, err)
	}
	defer rows.Close()

	comments := []model.Comment{}
	for rows.Next() {
		var c model.Comment
		if err := rows.Scan(&c.ID, &c.SnippetID, &c.UserID, &c.Content, &c.CreatedAt, &c.AuthorName); err != nil {
			return nil, fmt.Errorf("sqlite: scanning comment row: %w", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating comments: %w", err)
	}
	return comments, nil
}
