package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/bookline/internal/apperror"
	"github.com/sakif/bookline/internal/model"
)

func TestReviewCreateAndGet(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice")
	rev := createTestReview(t, db, alice.ID)

	assert.NotEmpty(t, rev.ID)

	got, err := db.GetReviewByID(ctx, rev.ID)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.UserID)
	assert.Equal(t, "The Left Hand of Darkness", got.BookTitle)
	assert.Equal(t, 5, got.Rating)
	assert.Equal(t, 0, got.CommentsCount)
}

func TestGetReviewByID_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetReviewByID(context.Background(), "no-such-review")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestUpdateReview(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice")
	rev := createTestReview(t, db, alice.ID)

	rev.Rating = 3
	rev.Content = "Holds up less well on a re-read."
	require.NoError(t, db.UpdateReview(ctx, rev))

	got, err := db.GetReviewByID(ctx, rev.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Rating)
	assert.Equal(t, "Holds up less well on a re-read.", got.Content)
}

func TestUpdateReview_NotFound(t *testing.T) {
	db := newTestDB(t)

	err := db.UpdateReview(context.Background(), &model.Review{ID: "no-such-review"})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestDeleteReview_CascadesEngagement(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	rev := createTestReview(t, db, alice.ID)

	_, err := db.ToggleLike(ctx, bob.ID, rev.ID)
	require.NoError(t, err)
	require.NoError(t, db.AddComment(ctx, &model.Comment{
		ReviewID: rev.ID,
		UserID:   bob.ID,
		Content:  "Agreed on every point.",
	}))

	require.NoError(t, db.DeleteReview(ctx, rev.ID))

	_, err = db.GetReviewByID(ctx, rev.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	// Likes and comments on the review go with it.
	likes, err := db.countEdges(ctx, "likes", "user_id", "review_id", bob.ID, rev.ID)
	require.NoError(t, err)
	assert.Zero(t, likes)

	var comments int
	require.NoError(t, db.conn.QueryRow(
		`SELECT COUNT(*) FROM comments WHERE review_id = ?`, rev.ID,
	).Scan(&comments))
	assert.Zero(t, comments)
}

func TestDeleteReview_NotFound(t *testing.T) {
	db := newTestDB(t)

	err := db.DeleteReview(context.Background(), "no-such-review")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}
