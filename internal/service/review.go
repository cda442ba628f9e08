package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/sakif/bookline/internal/apperror"
	"github.com/sakif/bookline/internal/model"
	"github.com/sakif/bookline/internal/repository"
)

const (
	MaxBookTitleLength  = 200
	MaxBookAuthorLength = 200
	MaxReviewLength     = 10000
	MinRating           = 1
	MaxRating           = 5
)

// ReviewService handles the review lifecycle. Update and delete are
// ownership-gated: only the original author may mutate a review, and a
// mismatch is Forbidden (403), not NotFound — the review exists, the caller
// just may not touch it.
type ReviewService struct {
	reviews repository.ReviewRepository
	logger  *slog.Logger
}

func NewReviewService(reviews repository.ReviewRepository, logger *slog.Logger) *ReviewService {
	return &ReviewService{reviews: reviews, logger: logger}
}

// ReviewInput carries the caller-editable fields of a review.
type ReviewInput struct {
	BookTitle  string `json:"bookTitle"`
	BookAuthor string `json:"bookAuthor"`
	Rating     int    `json:"rating"`
	Content    string `json:"content"`
}

// Create validates and stores a new review for the given author.
func (s *ReviewService) Create(ctx context.Context, authorID string, in ReviewInput) (*model.Review, error) {
	if err := validateReviewInput(&in); err != nil {
		return nil, err
	}

	review := &model.Review{
		UserID:     authorID,
		BookTitle:  in.BookTitle,
		BookAuthor: in.BookAuthor,
		Rating:     in.Rating,
		Content:    in.Content,
	}
	if err := s.reviews.CreateReview(ctx, review); err != nil {
		s.logger.Error("failed to create review",
			slog.String("userID", authorID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating review: %w", err)
	}

	s.logger.Info("review created",
		slog.String("reviewID", review.ID),
		slog.String("userID", authorID),
	)
	return review, nil
}

// Get returns a review by ID.
func (s *ReviewService) Get(ctx context.Context, id string) (*model.Review, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "review ID is required")
	}
	return s.reviews.GetReviewByID(ctx, id)
}

// Update replaces a review's editable fields. The ownership check runs
// after the fetch so a missing review is still NotFound, and a review owned
// by someone else is Forbidden.
func (s *ReviewService) Update(ctx context.Context, actorID, id string, in ReviewInput) (*model.Review, error) {
	review, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if review.UserID != actorID {
		return nil, apperror.Forbidden("you can only edit your own reviews")
	}

	if err := validateReviewInput(&in); err != nil {
		return nil, err
	}

	review.BookTitle = in.BookTitle
	review.BookAuthor = in.BookAuthor
	review.Rating = in.Rating
	review.Content = in.Content

	if err := s.reviews.UpdateReview(ctx, review); err != nil {
		s.logger.Error("failed to update review",
			slog.String("reviewID", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("updating review: %w", err)
	}

	s.logger.Info("review updated", slog.String("reviewID", id))
	return review, nil
}

// Delete removes a review. Same ownership rule as Update.
func (s *ReviewService) Delete(ctx context.Context, actorID, id string) error {
	review, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if review.UserID != actorID {
		return apperror.Forbidden("you can only delete your own reviews")
	}

	if err := s.reviews.DeleteReview(ctx, id); err != nil {
		return err
	}

	s.logger.Info("review deleted", slog.String("reviewID", id))
	return nil
}

func validateReviewInput(in *ReviewInput) error {
	in.BookTitle = strings.TrimSpace(in.BookTitle)
	in.BookAuthor = strings.TrimSpace(in.BookAuthor)
	in.Content = strings.TrimSpace(in.Content)

	if in.BookTitle == "" {
		return apperror.ValidationFailed("bookTitle", "book title is required")
	}
	if utf8.RuneCountInString(in.BookTitle) > MaxBookTitleLength {
		return apperror.ValidationFailed("bookTitle",
			fmt.Sprintf("book title must be %d characters or less", MaxBookTitleLength))
	}
	if utf8.RuneCountInString(in.BookAuthor) > MaxBookAuthorLength {
		return apperror.ValidationFailed("bookAuthor",
			fmt.Sprintf("book author must be %d characters or less", MaxBookAuthorLength))
	}
	if in.Rating < MinRating || in.Rating > MaxRating {
		return apperror.ValidationFailed("rating",
			fmt.Sprintf("rating must be between %d and %d", MinRating, MaxRating))
	}
	if in.Content == "" {
		return apperror.ValidationFailed("content", "review content is required")
	}
	if utf8.RuneCountInString(in.Content) > MaxReviewLength {
		return apperror.ValidationFailed("content",
			fmt.Sprintf("review must be %d characters or less", MaxReviewLength))
	}
	return nil
}
