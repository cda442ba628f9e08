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
	MaxCommentLength = 2000
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// Toggle outcomes as reported to clients.
const (
	ResultFollowed   = "followed"
	ResultUnfollowed = "unfollowed"
	ResultLiked      = "liked"
	ResultUnliked    = "unliked"
)

// EngagementMetrics receives domain-level counters. Implemented by the
// metrics package; a no-op implementation is fine in tests.
type EngagementMetrics interface {
	FollowToggled(result string)
	LikeToggled(result string)
	CommentAdded()
}

// SocialService is the social-graph engine: follow and like toggles,
// comment creation with counter maintenance, and graph reads.
//
// It holds no state and takes no locks. Idempotence and race-freedom of the
// toggles are the store's contract (unique edge pairs, atomic increment);
// this layer enforces the domain rules that must hold before any mutation —
// target exists, no self-follow, content is sane.
type SocialService struct {
	users      repository.UserRepository
	reviews    repository.ReviewRepository
	engagement repository.EngagementRepository
	metrics    EngagementMetrics
	logger     *slog.Logger
}

func NewSocialService(
	users repository.UserRepository,
	reviews repository.ReviewRepository,
	engagement repository.EngagementRepository,
	metrics EngagementMetrics,
	logger *slog.Logger,
) *SocialService {
	return &SocialService{
		users:      users,
		reviews:    reviews,
		engagement: engagement,
		metrics:    metrics,
		logger:     logger,
	}
}

// FollowToggle follows targetUsername on behalf of actorID if no edge
// exists, or unfollows if one does. There is no separate unfollow call —
// one toggle decision per request.
//
// Self-follow is rejected before any store mutation, whatever the current
// edge state.
func (s *SocialService) FollowToggle(ctx context.Context, actorID, targetUsername string) (string, error) {
	target, err := s.users.GetByUsername(ctx, targetUsername)
	if err != nil {
		return "", err
	}
	if target.ID == actorID {
		return "", apperror.ValidationFailed("username", "cannot follow yourself")
	}

	result, err := s.engagement.ToggleFollow(ctx, actorID, target.ID)
	if err != nil {
		s.logger.Error("follow toggle failed",
			slog.String("actorID", actorID),
			slog.String("targetID", target.ID),
			slog.String("error", err.Error()),
		)
		return "", fmt.Errorf("toggling follow: %w", err)
	}

	outcome := ResultFollowed
	if result == model.ToggleDeleted {
		outcome = ResultUnfollowed
	}
	s.metrics.FollowToggled(outcome)
	s.logger.Info("follow toggled",
		slog.String("actorID", actorID),
		slog.String("target", targetUsername),
		slog.String("result", outcome),
	)
	return outcome, nil
}

// LikeToggle likes or unlikes a review. Liking your own review is allowed.
func (s *SocialService) LikeToggle(ctx context.Context, actorID, reviewID string) (string, error) {
	if _, err := s.reviews.GetReviewByID(ctx, reviewID); err != nil {
		return "", err
	}

	result, err := s.engagement.ToggleLike(ctx, actorID, reviewID)
	if err != nil {
		s.logger.Error("like toggle failed",
			slog.String("actorID", actorID),
			slog.String("reviewID", reviewID),
			slog.String("error", err.Error()),
		)
		return "", fmt.Errorf("toggling like: %w", err)
	}

	outcome := ResultLiked
	if result == model.ToggleDeleted {
		outcome = ResultUnliked
	}
	s.metrics.LikeToggled(outcome)
	return outcome, nil
}

// AddComment appends a comment to a review. The store pairs the insert with
// the counter increment; review existence is checked by that same atomic
// statement, so a review deleted mid-flight cannot leave a dangling
// comment or a skewed count.
func (s *SocialService) AddComment(ctx context.Context, actorID, reviewID, content string) (*model.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperror.ValidationFailed("content", "comment content is required")
	}
	if !utf8.ValidString(content) {
		return nil, apperror.ValidationFailed("content", "comment content must be valid text")
	}
	if utf8.RuneCountInString(content) > MaxCommentLength {
		return nil, apperror.ValidationFailed("content",
			fmt.Sprintf("comment must be %d characters or less", MaxCommentLength))
	}

	comment := &model.Comment{
		ReviewID: reviewID,
		UserID:   actorID,
		Content:  content,
	}
	if err := s.engagement.AddComment(ctx, comment); err != nil {
		return nil, err
	}

	s.metrics.CommentAdded()
	s.logger.Info("comment added",
		slog.String("commentID", comment.ID),
		slog.String("reviewID", reviewID),
	)
	return comment, nil
}

// ListComments returns a review's comments with clamped pagination.
func (s *SocialService) ListComments(ctx context.Context, reviewID string, limit, offset int) ([]model.Comment, error) {
	if _, err := s.reviews.GetReviewByID(ctx, reviewID); err != nil {
		return nil, err
	}
	return s.engagement.ListComments(ctx, reviewID, clampList(limit, offset))
}

// Profile returns the public profile for a username.
func (s *SocialService) Profile(ctx context.Context, username string) (*model.Profile, error) {
	return s.users.Profile(ctx, username)
}

// Followers lists the accounts following username.
func (s *SocialService) Followers(ctx context.Context, username string, limit, offset int) ([]model.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	return s.users.Followers(ctx, user.ID, clampList(limit, offset))
}

// Following lists the accounts username follows.
func (s *SocialService) Following(ctx context.Context, username string, limit, offset int) ([]model.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	return s.users.Following(ctx, user.ID, clampList(limit, offset))
}

func clampList(limit, offset int) repository.ListOptions {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return repository.ListOptions{Limit: limit, Offset: offset}
}

// NopMetrics is an EngagementMetrics that records nothing.
type NopMetrics struct{}

func (NopMetrics) FollowToggled(string) {}
func (NopMetrics) LikeToggled(string)   {}
func (NopMetrics) CommentAdded()        {}
