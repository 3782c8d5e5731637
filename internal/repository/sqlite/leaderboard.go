package sqlite

import (
	"context"
	"fmt"

	"github.com/sakif/snippet-hub/internal/repository"
)

// compile-time check that *DB implements repository.LeaderboardRepository
var _ repository.LeaderboardRepository = (*DB)(nil)

// Rank computes one page of the leaderboard.
//
// The snippet and likes-received aggregates are correlated subqueries, so
// a user with no snippets still ranks (with zero). The "likes" metric sums
// likes across all of the user's snippets — likes RECEIVED, not given.
//
// Ties on the chosen metric are broken by ascending user id, which keeps
// the ranking (and therefore page boundaries) deterministic between two
// otherwise-equal users.
func (db *DB) Rank(ctx context.Context, q repository.LeaderboardQuery) ([]repository.LeaderboardEntry, int, error) {
	const snippetCountSub = `(SELECT COUNT(*) FROM snippets s WHERE s.user_id = u.id)`
	const likesReceivedSub = `(SELECT COUNT(*) FROM likes l
		JOIN snippets s ON s.id = l.snippet_id WHERE s.user_id = u.id)`

	orderCol := "u.points"
	switch q.SortBy {
	case repository.RankBySnippets:
		orderCol = snippetCountSub
	case repository.RankByLikes:
		orderCol = likesReceivedSub
	}

	where := ""
	args := []any{}
	if q.Since != nil {
		where = "WHERE u.created_at >= ?"
		args = append(args, *q.Since)
	}

	offset := (q.Page - 1) * q.PageSize
	query := fmt.Sprintf(
		`SELECT u.id, u.name, u.points, %s, %s
		 FROM users u
		 %s
		 ORDER BY %s DESC, u.id ASC
		 LIMIT ? OFFSET ?`,
		snippetCountSub, likesReceivedSub, where, orderCol,
	)

	rows, err := db.conn.QueryContext(ctx, query, append(args, q.PageSize, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("sqlite: ranking users: %w", err)
	}
	defer rows.Close()

	entries := []repository.LeaderboardEntry{}
	for rows.Next() {
		var e repository.LeaderboardEntry
		if err := rows.Scan(&e.UserID, &e.Name, &e.Points, &e.SnippetCount, &e.LikesCount); err != nil {
			return nil, 0, fmt.Errorf("sqlite: scanning leaderboard row: %w", err)
		}
		// Rank is positional in the full ordering, continuing across pages.
		e.Rank = offset + len(entries) + 1
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("sqlite: iterating leaderboard rows: %w", err)
	}
	rows.Close()

	for i := range entries {
		badges, err := db.BadgesForUser(ctx, entries[i].UserID)
		if err != nil {
			return nil, 0, err
		}
		entries[i].Badges = badges
	}

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM users u %s`, where)
	if err := db.conn.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("sqlite: counting leaderboard users: %w", err)
	}

	return entries, total, nil
}
