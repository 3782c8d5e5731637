package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/sakif/snippet-hub/internal/model"
	"github.com/sakif/snippet-hub/internal/repository"
)

// likeCountSub is the correlated subquery used both to annotate and to
// filter on like counts. SQLite can't reference a SELECT alias in WHERE,
// so the subquery is repeated where needed — the planner flattens it.
const likeCountSub = `(SELECT COUNT(*) FROM likes l WHERE l.snippet_id = s.id)`
const commentCountSub = `(SELECT COUNT(*) FROM comments c WHERE c.snippet_id = s.id)`

// Search translates a validated SnippetSearchQuery into one SQL query plus
// a matching COUNT, and returns the annotated page and the total match
// count.
//
// FACET TRANSLATION (all facets AND together):
//   - free text:    instr(lower(col), ?) > 0 across title OR description OR
//     any script's code — instr avoids LIKE's %/_ escaping
//   - language:     EXISTS over scripts with lower(language) equality
//   - tags:         one EXISTS per tag (superset semantics, exact match)
//   - author:       substring over the joined user's lowered name
//   - like bounds:  inclusive comparison against the like-count subquery
//   - date bounds:  inclusive comparison on s.created_at
//
// A snippet matching the free-text OR on several sub-conditions still
// appears once: the conditions live in WHERE, there is no join fan-out.
func (db *DB) Search(ctx context.Context, q repository.SnippetSearchQuery) ([]model.Snippet, int, error) {
	where, args := buildSearchWhere(q)

	orderCol := "s.created_at"
	switch q.SortBy {
	case repository.SortPopular:
		orderCol = likeCountSub
	case repository.SortComments:
		orderCol = commentCountSub
	}
	dir := "DESC"
	if q.Order == repository.OrderAsc {
		dir = "ASC"
	}

	// Secondary sort on s.id pins the order of ties — page boundaries must
	// be deterministic across requests.
	query := fmt.Sprintf(
		`SELECT s.id, s.title, s.description, s.user_id, s.created_at, u.name,
			%s, %s
		 FROM snippets s
		 JOIN users u ON u.id = s.user_id
		 %s
		 ORDER BY %s %s, s.id ASC
		 LIMIT ? OFFSET ?`,
		likeCountSub, commentCountSub, where, orderCol, dir,
	)

	rows, err := db.conn.QueryContext(ctx, query, append(args, q.PerPage, q.Offset())...)
	if err != nil {
		return nil, 0, fmt.Errorf("sqlite: searching snippets: %w", err)
	}
	defer rows.Close()

	snippets, err := db.collectSnippets(ctx, rows)
	if err != nil {
		return nil, 0, err
	}

	var total int
	countQuery := fmt.Sprintf(
		`SELECT COUNT(*) FROM snippets s JOIN users u ON u.id = s.user_id %s`, where)
	if err := db.conn.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("sqlite: counting search matches: %w", err)
	}

	return snippets, total, nil
}

// buildSearchWhere assembles the conjunctive WHERE clause. Every condition
// is parameterized; the descriptor was validated upstream so nothing here
// can fail.
func buildSearchWhere(q repository.SnippetSearchQuery) (string, []any) {
	conds := []string{}
	args := []any{}

	if q.Query != "" {
		needle := strings.ToLower(q.Query)
		conds = append(conds,
			`(instr(lower(s.title), ?) > 0
			  OR instr(lower(s.description), ?) > 0
			  OR EXISTS (SELECT 1 FROM scripts sc
			             WHERE sc.snippet_id = s.id AND instr(lower(sc.code), ?) > 0))`)
		args = append(args, needle, needle, needle)
	}

	if q.Language != "" {
		conds = append(conds,
			`EXISTS (SELECT 1 FROM scripts sc
			         WHERE sc.snippet_id = s.id AND lower(sc.language) = ?)`)
		args = append(args, strings.ToLower(q.Language))
	}

	// Superset semantics: one EXISTS per requested tag, all must hold.
	for _, tag := range q.Tags {
		conds = append(conds,
			`EXISTS (SELECT 1 FROM snippet_tags st
			         WHERE st.snippet_id = s.id AND st.tag = ?)`)
		args = append(args, tag)
	}

	if q.Author != "" {
		conds = append(conds, `instr(lower(u.name), ?) > 0`)
		args = append(args, strings.ToLower(q.Author))
	}

	if q.MinLikes != nil {
		conds = append(conds, likeCountSub+` >= ?`)
		args = append(args, *q.MinLikes)
	}
	if q.MaxLikes != nil {
		conds = append(conds, likeCountSub+` <= ?`)
		args = append(args, *q.MaxLikes)
	}

	if q.CreatedAfter != nil {
		conds = append(conds, `s.created_at >= ?`)
		args = append(args, *q.CreatedAfter)
	}
	if q.CreatedBefore != nil {
		conds = append(conds, `s.created_at <= ?`)
		args = append(args, *q.CreatedBefore)
	}

	if len(conds) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}
