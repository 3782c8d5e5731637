package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/snippet-hub/internal/apperror"
	"github.com/sakif/snippet-hub/internal/model"
	"github.com/sakif/snippet-hub/internal/repository"
)

// compile-time check that *DB implements repository.SnippetRepository
var _ repository.SnippetRepository = (*DB)(nil)

// Create inserts the snippet, its scripts, and its tags in one transaction.
// Either the whole snippet exists afterwards or none of it does — a snippet
// without scripts is not a valid row state.
func (db *DB) Create(ctx context.Context, snippet *model.Snippet) error {
	snippet.ID = xid.New().String()
	snippet.CreatedAt = time.Now().UTC()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning snippet transaction: %w", err)
	}
	// Rollback is a no-op after a successful Commit.
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO snippets (id, title, description, user_id, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		snippet.ID,
		snippet.Title,
		snippet.Description,
		snippet.UserID,
		snippet.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting snippet: %w", err)
	}

	for i := range snippet.Scripts {
		sc := &snippet.Scripts[i]
		sc.ID = xid.New().String()
		sc.SnippetID = snippet.ID
		sc.Position = i

		_, err = tx.ExecContext(ctx,
			`INSERT INTO scripts (id, snippet_id, filename, language, code, position)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			sc.ID, sc.SnippetID, sc.Filename, sc.Language, sc.Code, sc.Position,
		)
		if err != nil {
			return fmt.Errorf("sqlite: inserting script %s: %w", sc.Filename, err)
		}
	}

	for _, tag := range snippet.Tags {
		_, err = tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO snippet_tags (snippet_id, tag) VALUES (?, ?)`,
			snippet.ID, tag,
		)
		if err != nil {
			return fmt.Errorf("sqlite: inserting tag %s: %w", tag, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing snippet: %w", err)
	}

	return nil
}

// GetByID retrieves a snippet with its scripts, tags, author name, and
// the computed like/comment counts.
func (db *DB) GetByID(ctx context.Context, id string) (*model.Snippet, error) {
	var s model.Snippet
	err := db.conn.QueryRowContext(ctx,
		`SELECT s.id, s.title, s.description, s.user_id, s.created_at, u.name,
			(SELECT COUNT(*) FROM likes l WHERE l.snippet_id = s.id),
			(SELECT COUNT(*) FROM comments c WHERE c.snippet_id = s.id)
		 FROM snippets s
		 JOIN users u ON u.id = s.user_id
		 WHERE s.id = ?`,
		id,
	).Scan(
		&s.ID,
		&s.Title,
		&s.Description,
		&s.UserID,
		&s.CreatedAt,
		&s.AuthorName,
		&s.LikeCount,
		&s.CommentCount,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("snippet", id)
		}
		return nil, fmt.Errorf("sqlite: getting snippet %s: %w", id, err)
	}

	if s.Scripts, err = db.scriptsFor(ctx, id, true); err != nil {
		return nil, err
	}
	if s.Tags, err = db.tagsFor(ctx, id); err != nil {
		return nil, err
	}

	return &s, nil
}

// List returns a page of snippets, newest first, annotated with author
// name and counts (scripts are listed without code bodies), plus the
// total snippet count for pagination.
func (db *DB) List(ctx context.Context, opts repository.ListOptions) ([]model.Snippet, int, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT s.id, s.title, s.description, s.user_id, s.created_at, u.name,
			(SELECT COUNT(*) FROM likes l WHERE l.snippet_id = s.id),
			(SELECT COUNT(*) FROM comments c WHERE c.snippet_id = s.id)
		 FROM snippets s
		 JOIN users u ON u.id = s.user_id
		 ORDER BY s.created_at DESC, s.id ASC
		 LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("sqlite: listing snippets: %w", err)
	}
	defer rows.Close()

	snippets, err := db.collectSnippets(ctx, rows)
	if err != nil {
		return nil, 0, err
	}

	var total int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM snippets`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("sqlite: counting snippets: %w", err)
	}

	return snippets, total, nil
}

// Update modifies title, description, and tags. Scripts and the owner are
// immutable after creation, so they are never touched here.
func (db *DB) Update(ctx context.Context, snippet *model.Snippet) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning update transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE snippets SET title = ?, description = ? WHERE id = ?`,
		snippet.Title, snippet.Description, snippet.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating snippet %s: %w", snippet.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound("snippet", snippet.ID)
	}

	// Tags are replaced wholesale — simplest way to keep the set exact.
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM snippet_tags WHERE snippet_id = ?`, snippet.ID); err != nil {
		return fmt.Errorf("sqlite: clearing tags for snippet %s: %w", snippet.ID, err)
	}
	for _, tag := range snippet.Tags {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO snippet_tags (snippet_id, tag) VALUES (?, ?)`,
			snippet.ID, tag); err != nil {
			return fmt.Errorf("sqlite: inserting tag %s: %w", tag, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing update: %w", err)
	}
	return nil
}

// Delete removes a snippet; scripts, tags, likes, and comments go with it
// via ON DELETE CASCADE.
func (db *DB) Delete(ctx context.Context, id string) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM snippets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting snippet %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound("snippet", id)
	}
	return nil
}

// scriptsFor loads the scripts of a snippet in position order.
// withCode controls whether code bodies are loaded — list/search views only
// need filename and language.
func (db *DB) scriptsFor(ctx context.Context, snippetID string, withCode bool) ([]model.Script, error) {
	cols := `id, snippet_id, filename, language, '' AS code, position`
	if withCode {
		cols = `id, snippet_id, filename, language, code, position`
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+cols+` FROM scripts WHERE snippet_id = ? ORDER BY position ASC`,
		snippetID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing scripts for snippet %s: %w", snippetID, err)
	}
	defer rows.Close()

	scripts := []model.Script{}
	for rows.Next() {
		var sc model.Script
		if err := rows.Scan(&sc.ID, &sc.SnippetID, &sc.Filename, &sc.Language, &sc.Code, &sc.Position); err != nil {
			return nil, fmt.Errorf("sqlite: scanning script row: %w", err)
		}
		scripts = append(scripts, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating scripts: %w", err)
	}
	return scripts, nil
}

func (db *DB) tagsFor(ctx context.Context, snippetID string) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT tag FROM snippet_tags WHERE snippet_id = ? ORDER BY tag ASC`, snippetID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing tags for snippet %s: %w", snippetID, err)
	}
	defer rows.Close()

	tags := []string{}
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, fmt.Errorf("sqlite: scanning tag row: %w", err)
		}
		tags = append(tags, tag)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating tags: %w", err)
	}
	return tags, nil
}

// collectSnippets scans annotated snippet rows (the shared SELECT shape of
// List and Search) and attaches per-snippet scripts and tags.
func (db *DB) collectSnippets(ctx context.Context, rows *sql.Rows) ([]model.Snippet, error) {
	snippets := []model.Snippet{}
	for rows.Next() {
		var s model.Snippet
		if err := rows.Scan(
			&s.ID, &s.Title, &s.Description, &s.UserID, &s.CreatedAt,
			&s.AuthorName, &s.LikeCount, &s.CommentCount,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning snippet row: %w", err)
		}
		snippets = append(snippets, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating snippets: %w", err)
	}

	// The annotation queries have to run after the rows are closed —
	// SQLite serializes statements on a single connection.
	rows.Close()

	for i := range snippets {
		var err error
		if snippets[i].Scripts, err = db.scriptsFor(ctx, snippets[i].ID, false); err != nil {
			return nil, err
		}
		if snippets[i].Tags, err = db.tagsFor(ctx, snippets[i].ID); err != nil {
			return nil, err
		}
	}

	return snippets, nil
}
