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

// compile-time check that *DB implements repository.ReviewRepository
var _ repository.ReviewRepository = (*DB)(nil)

const reviewColumns = `id, user_id, book_title, book_author, rating, content,
	comments_count, created_at, updated_at`

// Create inserts a new review. ID and timestamps are filled in here;
// comments_count starts at zero via the column default.
func (db *DB) CreateReview(ctx context.Context, review *model.Review) error {
	now := time.Now()
	review.ID = xid.New().String()
	review.CreatedAt = now
	review.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO reviews (id, user_id, book_title, book_author, rating, content,
			created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		review.ID,
		review.UserID,
		review.BookTitle,
		review.BookAuthor,
		review.Rating,
		review.Content,
		review.CreatedAt,
		review.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting review: %w", err)
	}
	return nil
}

// GetReviewByID retrieves a review. Returns apperror.ErrNotFound if absent.
func (db *DB) GetReviewByID(ctx context.Context, id string) (*model.Review, error) {
	var rev model.Review
	err := db.conn.QueryRowContext(ctx,
		`SELECT `+reviewColumns+` FROM reviews WHERE id = ?`, id,
	).Scan(
		&rev.ID,
		&rev.UserID,
		&rev.BookTitle,
		&rev.BookAuthor,
		&rev.Rating,
		&rev.Content,
		&rev.CommentsCount,
		&rev.CreatedAt,
		&rev.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("review", id)
		}
		return nil, fmt.Errorf("sqlite: getting review %s: %w", id, err)
	}
	return &rev, nil
}

// UpdateReview persists changes to book fields, rating, and content.
// Ownership is the service layer's concern; the row is addressed by ID only.
func (db *DB) UpdateReview(ctx context.Context, review *model.Review) error {
	review.UpdatedAt = time.Now()
	res, err := db.conn.ExecContext(ctx,
		`UPDATE reviews
		 SET book_title = ?, book_author = ?, rating = ?, content = ?, updated_at = ?
		 WHERE id = ?`,
		review.BookTitle,
		review.BookAuthor,
		review.Rating,
		review.Content,
		review.UpdatedAt,
		review.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating review %s: %w", review.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.NotFound("review", review.ID)
	}
	return nil
}

// DeleteReview removes a review. Likes and comments on it go with it via
// ON DELETE CASCADE.
func (db *DB) DeleteReview(ctx context.Context, id string) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM reviews WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting review %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.NotFound("review", id)
	}
	return nil
}
