// Package repository defines the narrow storage interfaces consumed by the
// service layer. Correctness under concurrent requests is delegated to the
// store: edge toggles and counter increments must be atomic at this
// boundary, not emulated by the caller with read-then-write.
package repository

import (
	"context"

	"github.com/sakif/bookline/internal/model"
)

type ListOptions struct {
	Limit  int
	Offset int
}

type UserRepository interface {
	// Create inserts a new user. A duplicate username or email yields
	// apperror.ErrConflict.
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	// FindActiveByID resolves a token subject to a live account; missing or
	// deactivated accounts are apperror.ErrNotFound. Read by the auth gate
	// on every authenticated request.
	FindActiveByID(ctx context.Context, id string) (*model.User, error)
	// FindActiveByEmail is the login lookup.
	FindActiveByEmail(ctx context.Context, email string) (*model.User, error)
	Profile(ctx context.Context, username string) (*model.Profile, error)
	Followers(ctx context.Context, userID string, opts ListOptions) ([]model.User, error)
	Following(ctx context.Context, userID string, opts ListOptions) ([]model.User, error)
}

type ReviewRepository interface {
	CreateReview(ctx context.Context, review *model.Review) error
	GetReviewByID(ctx context.Context, id string) (*model.Review, error)
	UpdateReview(ctx context.Context, review *model.Review) error
	DeleteReview(ctx context.Context, id string) error
}

// EngagementRepository mutates the social graph. Toggles are atomic: two
// concurrent calls on the same pair can never leave two edges, and a create
// that loses a uniqueness race is absorbed as "the edge exists", never
// surfaced as an error.
type EngagementRepository interface {
	ToggleFollow(ctx context.Context, followerID, followingID string) (model.ToggleResult, error)
	ToggleLike(ctx context.Context, userID, reviewID string) (model.ToggleResult, error)
	// AddComment inserts the comment and increments the review's
	// comments_count by one as a single atomic unit.
	AddComment(ctx context.Context, comment *model.Comment) error
	ListComments(ctx context.Context, reviewID string, opts ListOptions) ([]model.Comment, error)
}
