package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/bookline/internal/apperror"
	"github.com/sakif/bookline/internal/model"
	"github.com/sakif/bookline/internal/repository"
)

// compile-time check that *DB implements repository.EngagementRepository
var _ repository.EngagementRepository = (*DB)(nil)

// ToggleFollow atomically flips the follow edge follower→following.
//
// The toggle is not "read current state, then decide": that would let two
// concurrent reads of "absent" both insert. Instead we DELETE first — if a
// row went away, the toggle resolved to unfollow. Otherwise INSERT OR
// IGNORE: the primary key on (follower_id, following_id) guarantees at most
// one edge, and an ignored insert means a concurrent call created the edge
// first. Either way the edge exists when we return, so both racers report
// "followed" and the table holds exactly one row.
func (db *DB) ToggleFollow(ctx context.Context, followerID, followingID string) (model.ToggleResult, error) {
	return db.toggleEdge(ctx,
		`DELETE FROM follows WHERE follower_id = ? AND following_id = ?`,
		`INSERT OR IGNORE INTO follows (follower_id, following_id, created_at) VALUES (?, ?, ?)`,
		followerID, followingID,
	)
}

// ToggleLike atomically flips the like edge user→review. Same contract as
// ToggleFollow over the (user_id, review_id) key.
func (db *DB) ToggleLike(ctx context.Context, userID, reviewID string) (model.ToggleResult, error) {
	return db.toggleEdge(ctx,
		`DELETE FROM likes WHERE user_id = ? AND review_id = ?`,
		`INSERT OR IGNORE INTO likes (user_id, review_id, created_at) VALUES (?, ?, ?)`,
		userID, reviewID,
	)
}

func (db *DB) toggleEdge(ctx context.Context, deleteStmt, insertStmt, a, b string) (model.ToggleResult, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("sqlite: beginning toggle tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, deleteStmt, a, b)
	if err != nil {
		return 0, fmt.Errorf("sqlite: toggle delete: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sqlite: toggle delete rows: %w", err)
	}

	if deleted > 0 {
		if err := tx.Commit(); err != nil {
			return 0, fmt.Errorf("sqlite: committing toggle: %w", err)
		}
		return model.ToggleDeleted, nil
	}

	// No edge was present in this transaction's view; create it. A lost
	// uniqueness race is absorbed by OR IGNORE and still reports created.
	if _, err := tx.ExecContext(ctx, insertStmt, a, b, time.Now()); err != nil {
		return 0, fmt.Errorf("sqlite: toggle insert: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("sqlite: committing toggle: %w", err)
	}
	return model.ToggleCreated, nil
}

// AddComment inserts the comment row and bumps the review's comments_count
// in one transaction. The increment is performed in SQL
// (comments_count = comments_count + 1), never read back and rewritten, so
// N concurrent insertions on one review always raise the counter by N.
func (db *DB) AddComment(ctx context.Context, comment *model.Comment) error {
	comment.ID = xid.New().String()
	comment.CreatedAt = time.Now()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning comment tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE reviews SET comments_count = comments_count + 1 WHERE id = ?`,
		comment.ReviewID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: incrementing comment count: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.NotFound("review", comment.ReviewID)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO comments (id, review_id, user_id, content, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		comment.ID,
		comment.ReviewID,
		comment.UserID,
		comment.Content,
		comment.CreatedAt,
	); err != nil {
		return fmt.Errorf("sqlite: inserting comment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing comment: %w", err)
	}
	return nil
}

// ListComments returns a review's comments oldest first.
func (db *DB) ListComments(ctx context.Context, reviewID string, opts repository.ListOptions) ([]model.Comment, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, review_id, user_id, content, created_at
		 FROM comments WHERE review_id = ?
		 ORDER BY created_at ASC, id ASC LIMIT ? OFFSET ?`,
		reviewID, opts.Limit, opts.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing comments for review %s: %w", reviewID, err)
	}
	defer rows.Close()

	comments := []model.Comment{}
	for rows.Next() {
		var c model.Comment
		if err := rows.Scan(&c.ID, &c.ReviewID, &c.UserID, &c.Content, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning comment row: %w", err)
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// countEdges is a test hook: direct count of rows in an edge table for a
// pair. Kept unexported; only the package tests use it.
func (db *DB) countEdges(ctx context.Context, table, colA, colB, a, b string) (int, error) {
	var n int
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE %s = ? AND %s = ?`, table, colA, colB)
	err := db.conn.QueryRowContext(ctx, query, a, b).Scan(&n)
	if err != nil && err != sql.ErrNoRows {
		return 0, err
	}
	return n, nil
}
