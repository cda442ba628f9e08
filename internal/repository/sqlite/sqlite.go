// Package sqlite implements the repository interfaces on SQLite via the
// pure-Go modernc.org/sqlite driver (no CGo, so cross-compilation stays
// trivial and tests can run anywhere).
//
// Concurrency model: SQLite allows one writer at a time. The pool is capped
// at a single connection and a busy timeout is set, so concurrent requests
// queue at the database rather than failing with SQLITE_BUSY. The atomicity
// the service layer relies on — unique-pair edge tables and in-SQL counter
// increments — is enforced here regardless of how requests interleave.
package sqlite

import (
	"database/sql"
	"fmt"

	// Registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// DB wraps the sql.DB pool and implements repository.UserRepository,
// repository.ReviewRepository, and repository.EngagementRepository.
type DB struct {
	conn *sql.DB
}

// New opens (or creates) the database at dbPath and runs migrations.
// Use ":memory:" in tests for a throwaway database.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// One writer at a time; writers queue instead of erroring. This also
	// keeps ":memory:" databases coherent — every pool connection to a
	// plain in-memory DSN would otherwise see its own empty database.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL allows readers to proceed while a write is in flight. Foreign
	// keys are off by default in SQLite; the schema depends on them.
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, fmt.Errorf("sqlite: %s: %w", pragma, err)
		}
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping verifies the database is reachable. Used by the health endpoint.
func (db *DB) Ping() error {
	return db.conn.Ping()
}

// migrate creates the schema. CREATE TABLE IF NOT EXISTS keeps this safe to
// run on every boot.
//
// The social-graph invariants live in the schema, not in application code:
//   - follows is keyed on (follower_id, following_id) — at most one edge
//     per ordered pair — with a CHECK against self-follows
//   - likes is keyed on (user_id, review_id)
//   - comments_count is a plain integer mutated only by atomic increments
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id                TEXT PRIMARY KEY,
			username          TEXT NOT NULL UNIQUE,
			email             TEXT NOT NULL UNIQUE,
			password_hash     TEXT NOT NULL,
			full_name         TEXT NOT NULL DEFAULT '',
			bio               TEXT NOT NULL DEFAULT '',
			profile_image_url TEXT NOT NULL DEFAULT '',
			is_active         INTEGER NOT NULL DEFAULT 1,
			created_at        DATETIME NOT NULL,
			updated_at        DATETIME NOT NULL
		);

		CREATE TABLE IF NOT EXISTS reviews (
			id             TEXT PRIMARY KEY,
			user_id        TEXT NOT NULL REFERENCES users(id),
			book_title     TEXT NOT NULL,
			book_author    TEXT NOT NULL DEFAULT '',
			rating         INTEGER NOT NULL DEFAULT 0,
			content        TEXT NOT NULL,
			comments_count INTEGER NOT NULL DEFAULT 0,
			created_at     DATETIME NOT NULL,
			updated_at     DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_reviews_user_id ON reviews(user_id);

		CREATE TABLE IF NOT EXISTS follows (
			follower_id  TEXT NOT NULL REFERENCES users(id),
			following_id TEXT NOT NULL REFERENCES users(id),
			created_at   DATETIME NOT NULL,
			PRIMARY KEY (follower_id, following_id),
			CHECK (follower_id <> following_id)
		);
		CREATE INDEX IF NOT EXISTS idx_follows_following ON follows(following_id);

		CREATE TABLE IF NOT EXISTS likes (
			user_id    TEXT NOT NULL REFERENCES users(id),
			review_id  TEXT NOT NULL REFERENCES reviews(id) ON DELETE CASCADE,
			created_at DATETIME NOT NULL,
			PRIMARY KEY (user_id, review_id)
		);
		CREATE INDEX IF NOT EXISTS idx_likes_review ON likes(review_id);

		CREATE TABLE IF NOT EXISTS comments (
			id         TEXT PRIMARY KEY,
			review_id  TEXT NOT NULL REFERENCES reviews(id) ON DELETE CASCADE,
			user_id    TEXT NOT NULL REFERENCES users(id),
			content    TEXT NOT NULL,
			created_at DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_comments_review ON comments(review_id, created_at);
	`)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
