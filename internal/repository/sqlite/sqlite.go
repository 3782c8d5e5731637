// Package sqlite implements the repository interfaces using SQLite as the
// storage backend.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo, which needs a C compiler and makes
// cross-compilation painful. modernc.org/sqlite is a pure Go translation of
// the SQLite sources — works everywhere Go works, use ":memory:" in tests.
//
// CONCURRENCY GUARANTEES THIS LAYER PROVIDES:
//   - Point deltas are single UPDATE statements (points = points + ?), so
//     two likes landing on the same author at once can never lose an update.
//   - A double-like fails on the likes table's composite primary key — the
//     uniqueness check and the insert are one atomic operation.
//   - Badge grants use INSERT OR IGNORE on (user_id, badge_id), so
//     re-evaluating badges after a retry is harmless.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	sqlite3 "modernc.org/sqlite"
	sqlitelib "modernc.org/sqlite/lib"
)

// DB wraps a sql.DB connection pool and provides the repository methods.
// Constructed once at process start and injected into every service —
// there is no package-level connection.
type DB struct {
	conn *sql.DB
}

// New opens the SQLite database at dbPath (":memory:" for tests), applies
// the pragmas the server depends on, and runs migrations.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Every pooled connection to ":memory:" would get its own empty
	// database; pin the pool to one connection so migrations and queries
	// see the same data.
	if dbPath == ":memory:" {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets reads proceed while a write is in flight — the leaderboard
	// and search are pure readers and must not block behind engagement
	// writes.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Referential integrity: scripts, likes, comments, and grants must not
	// outlive their snippet/user.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool. Always defer this next to New.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema and seeds the badge catalog. Every statement
// is idempotent (IF NOT EXISTS / INSERT OR IGNORE), so running migrations
// on an existing database is safe.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			name          TEXT NOT NULL,
			email         TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL DEFAULT '',
			github_id     INTEGER UNIQUE,
			avatar_url    TEXT NOT NULL DEFAULT '',
			points        INTEGER NOT NULL DEFAULT 0,
			created_at    DATETIME NOT NULL,
			updated_at    DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_users_created_at ON users(created_at);

		CREATE TABLE IF NOT EXISTS snippets (
			id          TEXT PRIMARY KEY,
			title       TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			user_id     TEXT NOT NULL REFERENCES users(id),
			created_at  DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_snippets_user_id ON snippets(user_id);
		CREATE INDEX IF NOT EXISTS idx_snippets_created_at ON snippets(created_at);

		CREATE TABLE IF NOT EXISTS scripts (
			id         TEXT PRIMARY KEY,
			snippet_id TEXT NOT NULL REFERENCES snippets(id) ON DELETE CASCADE,
			filename   TEXT NOT NULL,
			language   TEXT NOT NULL,
			code       TEXT NOT NULL,
			position   INTEGER NOT NULL DEFAULT 0
		);
		CREATE INDEX IF NOT EXISTS idx_scripts_snippet_id ON scripts(snippet_id);

		CREATE TABLE IF NOT EXISTS snippet_tags (
			snippet_id TEXT NOT NULL REFERENCES snippets(id) ON DELETE CASCADE,
			tag        TEXT NOT NULL,
			PRIMARY KEY (snippet_id, tag)
		);
		CREATE INDEX IF NOT EXISTS idx_snippet_tags_tag ON snippet_tags(tag);

		CREATE TABLE IF NOT EXISTS likes (
			user_id    TEXT NOT NULL REFERENCES users(id),
			snippet_id TEXT NOT NULL REFERENCES snippets(id) ON DELETE CASCADE,
			created_at DATETIME NOT NULL,
			PRIMARY KEY (user_id, snippet_id)
		);
		CREATE INDEX IF NOT EXISTS idx_likes_snippet_id ON likes(snippet_id);

		CREATE TABLE IF NOT EXISTS comments (
			id         TEXT PRIMARY KEY,
			snippet_id TEXT NOT NULL REFERENCES snippets(id) ON DELETE CASCADE,
			user_id    TEXT NOT NULL REFERENCES users(id),
			content    TEXT NOT NULL,
			created_at DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_comments_snippet_id ON comments(snippet_id);

		CREATE TABLE IF NOT EXISTS badges (
			id          TEXT PRIMARY KEY,
			name        TEXT NOT NULL UNIQUE,
			description TEXT NOT NULL DEFAULT '',
			image_url   TEXT NOT NULL DEFAULT ''
		);

		CREATE TABLE IF NOT EXISTS user_badges (
			user_id    TEXT NOT NULL REFERENCES users(id),
			badge_id   TEXT NOT NULL REFERENCES badges(id),
			granted_at DATETIME NOT NULL,
			PRIMARY KEY (user_id, badge_id)
		);

		CREATE TABLE IF NOT EXISTS follows (
			follower_id TEXT NOT NULL REFERENCES users(id),
			followee_id TEXT NOT NULL REFERENCES users(id),
			created_at  DATETIME NOT NULL,
			PRIMARY KEY (follower_id, followee_id),
			CHECK (follower_id <> followee_id)
		);
	`)
	if err != nil {
		return fmt.Errorf("creating tables: %w", err)
	}

	return db.seedBadges()
}

// seedBadges inserts the fixed badge catalog. Names double as stable IDs
// prefixed for readability; INSERT OR IGNORE keeps re-runs harmless.
func (db *DB) seedBadges() error {
	catalog := []struct {
		name, description, imageURL string
	}{
		{"Century", "Earned 100 points", "/badges/century.png"},
		{"Millennium", "Earned 1000 points", "/badges/millennium.png"},
		{"Coder", "Shared 5 snippets", "/badges/coder.png"},
		{"Prolific", "Shared 20 snippets", "/badges/prolific.png"},
	}

	for _, b := range catalog {
		_, err := db.conn.Exec(
			`INSERT OR IGNORE INTO badges (id, name, description, image_url)
			 VALUES (?, ?, ?, ?)`,
			"badge-"+b.name, b.name, b.description, b.imageURL,
		)
		if err != nil {
			return fmt.Errorf("seeding badge %s: %w", b.name, err)
		}
	}
	return nil
}

// isUniqueViolation reports whether err is a UNIQUE / PRIMARY KEY
// constraint failure. The driver returns a typed *sqlite3.Error carrying
// the extended result code, so we don't have to match on message strings.
func isUniqueViolation(err error) bool {
	var se *sqlite3.Error
	if !errors.As(err, &se) {
		return false
	}
	code := se.Code()
	return code == sqlitelib.SQLITE_CONSTRAINT_UNIQUE ||
		code == sqlitelib.SQLITE_CONSTRAINT_PRIMARYKEY
}
