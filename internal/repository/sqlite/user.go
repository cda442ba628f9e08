package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/bookline/internal/apperror"
	"github.com/sakif/bookline/internal/model"
	"github.com/sakif/bookline/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

const userColumns = `id, username, email, password_hash, full_name, bio,
	profile_image_url, is_active, created_at, updated_at`

// Create inserts a new user. The username/email UNIQUE constraints are the
// source of truth for duplicates; a violation surfaces as
// apperror.ErrConflict rather than a raw driver error.
func (db *DB) Create(ctx context.Context, user *model.User) error {
	now := time.Now()
	user.ID = xid.New().String()
	user.IsActive = true
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (id, username, email, password_hash, full_name, bio,
			profile_image_url, is_active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.FullName,
		user.Bio,
		user.ProfileImage,
		user.IsActive,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user already exists with this email or username")
		}
		return fmt.Errorf("sqlite: inserting user %s: %w", user.Username, err)
	}

	return nil
}

// GetByID retrieves a user by internal ID regardless of active state.
func (db *DB) GetByID(ctx context.Context, id string) (*model.User, error) {
	return db.getUser(ctx, `WHERE id = ?`, id)
}

// GetByUsername retrieves an active user by username.
func (db *DB) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return db.getUser(ctx, `WHERE username = ? AND is_active = 1`, username)
}

// FindActiveByID resolves a token subject to a live account. Deactivated
// accounts look exactly like missing ones to the caller.
func (db *DB) FindActiveByID(ctx context.Context, id string) (*model.User, error) {
	return db.getUser(ctx, `WHERE id = ? AND is_active = 1`, id)
}

// FindActiveByEmail is the login lookup.
func (db *DB) FindActiveByEmail(ctx context.Context, email string) (*model.User, error) {
	return db.getUser(ctx, `WHERE email = ? AND is_active = 1`, email)
}

func (db *DB) getUser(ctx context.Context, where string, arg any) (*model.User, error) {
	var u model.User
	err := db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users `+where, arg,
	).Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&u.FullName,
		&u.Bio,
		&u.ProfileImage,
		&u.IsActive,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", fmt.Sprint(arg))
		}
		return nil, fmt.Errorf("sqlite: getting user: %w", err)
	}
	return &u, nil
}

// Profile returns the public view of a user with follower/following/review
// counts computed in a single query.
func (db *DB) Profile(ctx context.Context, username string) (*model.Profile, error) {
	user, err := db.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	p := &model.Profile{User: *user}
	err = db.conn.QueryRowContext(ctx,
		`SELECT
			(SELECT COUNT(*) FROM follows WHERE following_id = ?),
			(SELECT COUNT(*) FROM follows WHERE follower_id = ?),
			(SELECT COUNT(*) FROM reviews WHERE user_id = ?)`,
		user.ID, user.ID, user.ID,
	).Scan(&p.FollowersCount, &p.FollowingCount, &p.ReviewsCount)
	if err != nil {
		return nil, fmt.Errorf("sqlite: counting profile stats for %s: %w", username, err)
	}

	return p, nil
}

// Followers lists the users following userID, most recent first.
func (db *DB) Followers(ctx context.Context, userID string, opts repository.ListOptions) ([]model.User, error) {
	return db.listEdgeUsers(ctx,
		`SELECT `+prefixedUserColumns+` FROM users u
		 JOIN follows f ON f.follower_id = u.id
		 WHERE f.following_id = ? AND u.is_active = 1
		 ORDER BY f.created_at DESC LIMIT ? OFFSET ?`,
		userID, opts)
}

// Following lists the users userID follows, most recent first.
func (db *DB) Following(ctx context.Context, userID string, opts repository.ListOptions) ([]model.User, error) {
	return db.listEdgeUsers(ctx,
		`SELECT `+prefixedUserColumns+` FROM users u
		 JOIN follows f ON f.following_id = u.id
		 WHERE f.follower_id = ? AND u.is_active = 1
		 ORDER BY f.created_at DESC LIMIT ? OFFSET ?`,
		userID, opts)
}

const prefixedUserColumns = `u.id, u.username, u.email, u.password_hash,
	u.full_name, u.bio, u.profile_image_url, u.is_active, u.created_at, u.updated_at`

func (db *DB) listEdgeUsers(ctx context.Context, query, userID string, opts repository.ListOptions) ([]model.User, error) {
	rows, err := db.conn.QueryContext(ctx, query, userID, opts.Limit, opts.Offset)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing follow edge users: %w", err)
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		var u model.User
		if err := rows.Scan(
			&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.FullName,
			&u.Bio, &u.ProfileImage, &u.IsActive, &u.CreatedAt, &u.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning user row: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure.
// modernc.org/sqlite surfaces these as SQLITE_CONSTRAINT_UNIQUE (2067); the
// message check keeps this independent of the driver's error type.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
