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

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

const userColumns = `id, name, email, password_hash, github_id, avatar_url, points, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*model.User, error) {
	var u model.User
	err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.PasswordHash,
		&u.GitHubID,
		&u.AvatarURL,
		&u.Points,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser inserts a new user. A duplicate email fails with ErrConflict —
// the UNIQUE constraint on email is the authority, not a prior SELECT.
func (db *DB) CreateUser(ctx context.Context, user *model.User) error {
	user.ID = xid.New().String()
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (id, name, email, password_hash, github_id, avatar_url, points, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, 0, ?, ?)`,
		user.ID,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.GitHubID,
		user.AvatarURL,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", "an account with this email already exists")
		}
		return fmt.Errorf("sqlite: inserting user: %w", err)
	}

	return nil
}

// GetUserByID retrieves a user by their internal ID.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (db *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	u, err := scanUser(db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}
	return u, nil
}

// GetUserByEmail retrieves a user by email (the login identifier for
// password accounts).
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	u, err := scanUser(db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", email)
		}
		return nil, fmt.Errorf("sqlite: getting user by email: %w", err)
	}
	return u, nil
}

// UpsertByGitHubID inserts the user on first OAuth login and refreshes
// name/email/avatar on later logins. The internal ID and CreatedAt are
// preserved across logins — same GitHub account, same user.
func (db *DB) UpsertByGitHubID(ctx context.Context, user *model.User) error {
	if user.GitHubID == nil {
		return fmt.Errorf("sqlite: upsert requires a GitHub ID")
	}

	var existingID string
	var createdAt time.Time
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, created_at FROM users WHERE github_id = ?`, *user.GitHubID,
	).Scan(&existingID, &createdAt)

	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("sqlite: looking up user by github_id %d: %w", *user.GitHubID, err)
	}

	if existingID != "" {
		user.ID = existingID
		user.CreatedAt = createdAt
		user.UpdatedAt = time.Now().UTC()
		_, err = db.conn.ExecContext(ctx,
			`UPDATE users SET name = ?, email = ?, avatar_url = ?, updated_at = ?
			 WHERE id = ?`,
			user.Name, user.Email, user.AvatarURL, user.UpdatedAt, user.ID,
		)
		if err != nil {
			return fmt.Errorf("sqlite: updating user %s: %w", user.ID, err)
		}
		return nil
	}

	return db.CreateUser(ctx, user)
}

// AddPoints applies a point delta as a single UPDATE with RETURNING.
//
// This is the ScoreLedger's one write path. The increment happens inside
// the storage engine, so concurrent deltas against the same user serialize
// there — application code never does a read-modify-write on points.
func (db *DB) AddPoints(ctx context.Context, userID string, delta int) (int, error) {
	var total int
	err := db.conn.QueryRowContext(ctx,
		`UPDATE users SET points = points + ?, updated_at = ? WHERE id = ? RETURNING points`,
		delta, time.Now().UTC(), userID,
	).Scan(&total)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, apperror.NotFound("user", userID)
		}
		return 0, fmt.Errorf("sqlite: adding %d points to user %s: %w", delta, userID, err)
	}
	return total, nil
}

// Metrics returns the snapshot badge evaluation runs against: current
// points, authored snippet count, and the badge names already held.
func (db *DB) Metrics(ctx context.Context, userID string) (*repository.UserMetrics, error) {
	m := &repository.UserMetrics{HeldBadges: make(map[string]bool)}

	err := db.conn.QueryRowContext(ctx,
		`SELECT points, (SELECT COUNT(*) FROM snippets WHERE user_id = users.id)
		 FROM users WHERE id = ?`,
		userID,
	).Scan(&m.Points, &m.SnippetCount)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", userID)
		}
		return nil, fmt.Errorf("sqlite: reading metrics for user %s: %w", userID, err)
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT b.name FROM user_badges ub JOIN badges b ON b.id = ub.badge_id
		 WHERE ub.user_id = ?`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: reading held badges for user %s: %w", userID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("sqlite: scanning badge name: %w", err)
		}
		m.HeldBadges[name] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating held badges: %w", err)
	}

	return m, nil
}

// GrantBadge records a badge grant. INSERT OR IGNORE makes the grant
// idempotent: re-granting a held badge is a no-op, which is what lets the
// caller retry badge evaluation safely after a failure.
func (db *DB) GrantBadge(ctx context.Context, userID, badgeName string) error {
	res, err := db.conn.ExecContext(ctx,
		`INSERT OR IGNORE INTO user_badges (user_id, badge_id, granted_at)
		 SELECT ?, id, ? FROM badges WHERE name = ?`,
		userID, time.Now().UTC(), badgeName,
	)
	if err != nil {
		return fmt.Errorf("sqlite: granting badge %s to user %s: %w", badgeName, userID, err)
	}

	// Zero rows with an unknown badge name means the catalog is missing an
	// entry — that's a configuration bug, not an ignorable condition.
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		var exists int
		if err := db.conn.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM badges WHERE name = ?`, badgeName).Scan(&exists); err == nil && exists == 0 {
			return fmt.Errorf("sqlite: badge %q is not in the catalog", badgeName)
		}
	}

	return nil
}

// BadgesForUser lists the badges a user holds, oldest grant first.
func (db *DB) BadgesForUser(ctx context.Context, userID string) ([]model.Badge, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT b.id, b.name, b.description, b.image_url
		 FROM user_badges ub JOIN badges b ON b.id = ub.badge_id
		 WHERE ub.user_id = ?
		 ORDER BY ub.granted_at ASC, b.name ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing badges for user %s: %w", userID, err)
	}
	defer rows.Close()

	badges := []model.Badge{}
	for rows.Next() {
		var b model.Badge
		if err := rows.Scan(&b.ID, &b.Name, &b.Description, &b.ImageURL); err != nil {
			return nil, fmt.Errorf("sqlite: scanning badge row: %w", err)
		}
		badges = append(badges, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating badges: %w", err)
	}

	return badges, nil
}

// Follow creates the directed follower → followee edge.
// A duplicate follow fails on the composite primary key → ErrConflict.
func (db *DB) Follow(ctx context.Context, followerID, followeeID string) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO follows (follower_id, followee_id, created_at) VALUES (?, ?, ?)`,
		followerID, followeeID, time.Now().UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("follow", "already following this user")
		}
		return fmt.Errorf("sqlite: following user %s: %w", followeeID, err)
	}
	return nil
}

// Unfollow removes the edge; ErrNotFound if it never existed.
func (db *DB) Unfollow(ctx context.Context, followerID, followeeID string) error {
	res, err := db.conn.ExecContext(ctx,
		`DELETE FROM follows WHERE follower_id = ? AND followee_id = ?`,
		followerID, followeeID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: unfollowing user %s: %w", followeeID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound("follow", followeeID)
	}
	return nil
}

// FollowCounts returns the follower and following counts for a user.
func (db *DB) FollowCounts(ctx context.Context, userID string) (int, int, error) {
	var followers, following int
	err := db.conn.QueryRowContext(ctx,
		`SELECT
			(SELECT COUNT(*) FROM follows WHERE followee_id = ?),
			(SELECT COUNT(*) FROM follows WHERE follower_id = ?)`,
		userID, userID,
	).Scan(&followers, &following)
	if err != nil {
		return 0, 0, fmt.Errorf("sqlite: counting follows for user %s: %w", userID, err)
	}
	return followers, following, nil
}

// Profile assembles the read model for a user page: the user row plus
// aggregates that are never stored (snippet count, likes received,
// follow counts) and the badge list.
func (db *DB) Profile(ctx context.Context, userID string) (*model.Profile, error) {
	user, err := db.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	p := &model.Profile{User: *user}

	err = db.conn.QueryRowContext(ctx,
		`SELECT
			(SELECT COUNT(*) FROM snippets WHERE user_id = ?),
			(SELECT COUNT(*) FROM likes l JOIN snippets s ON s.id = l.snippet_id WHERE s.user_id = ?)`,
		userID, userID,
	).Scan(&p.SnippetCount, &p.LikesReceived)
	if err != nil {
		return nil, fmt.Errorf("sqlite: aggregating profile for user %s: %w", userID, err)
	}

	p.FollowerCount, p.FollowingCount, err = db.FollowCounts(ctx, userID)
	if err != nil {
		return nil, err
	}

	p.Badges, err = db.BadgesForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	return p, nil
}
