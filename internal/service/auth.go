// Package service contains the business logic layer: validation, domain
// rules, and orchestration between the auth utilities and the repositories.
// Services accept plain values and return domain errors; they know nothing
// about HTTP.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"regexp"
	"strings"

	"github.com/sakif/bookline/internal/apperror"
	"github.com/sakif/bookline/internal/auth"
	"github.com/sakif/bookline/internal/model"
	"github.com/sakif/bookline/internal/repository"
)

// Registration limits, matching the platform's public validation rules.
const (
	MinUsernameLength = 3
	MaxUsernameLength = 50
	MinPasswordLength = 6
	MaxFullNameLength = 100
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9]+$`)

// AuthService handles registration, login, and current-user lookup.
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// AuthResult bundles the account and its freshly issued token so the
// handler can respond in one step.
type AuthResult struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

// Register creates a new account and signs the caller in.
//
// Duplicate detection is not done with a lookup first: the insert runs and
// the store's uniqueness constraints decide, so two concurrent registrations
// of the same username cannot both succeed. The loser gets ErrConflict.
func (s *AuthService) Register(ctx context.Context, username, email, password, fullName string) (*AuthResult, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))
	fullName = strings.TrimSpace(fullName)

	if len(username) < MinUsernameLength || len(username) > MaxUsernameLength {
		return nil, apperror.ValidationFailed("username",
			fmt.Sprintf("username must be between %d and %d characters", MinUsernameLength, MaxUsernameLength))
	}
	if !usernamePattern.MatchString(username) {
		return nil, apperror.ValidationFailed("username", "username must be alphanumeric")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, apperror.ValidationFailed("email", "email address is not valid")
	}
	if len(password) < MinPasswordLength {
		return nil, apperror.ValidationFailed("password",
			fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}
	if len(fullName) > MaxFullNameLength {
		return nil, apperror.ValidationFailed("fullName",
			fmt.Sprintf("full name must be %d characters or less", MaxFullNameLength))
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		// Over-length passwords are a caller mistake, not an infra fault.
		return nil, apperror.ValidationFailed("password", "password must be 72 bytes or fewer")
	}

	user := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		FullName:     fullName,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, err
		}
		s.logger.Error("failed to create user",
			slog.String("username", username),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating user: %w", err)
	}

	s.logger.Info("user registered",
		slog.String("userID", user.ID),
		slog.String("username", user.Username),
	)

	return s.issueFor(user)
}

// Login verifies credentials and issues a token.
//
// A wrong email and a wrong password produce the same "invalid credentials"
// answer so the endpoint cannot be used to probe which emails exist.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, apperror.ValidationFailed("", "email and password are required")
	}

	user, err := s.users.FindActiveByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthenticated("invalid credentials")
		}
		s.logger.Error("login lookup failed", slog.String("error", err.Error()))
		return nil, fmt.Errorf("looking up user: %w", err)
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, apperror.Unauthenticated("invalid credentials")
		}
		return nil, fmt.Errorf("verifying password: %w", err)
	}

	s.logger.Info("user logged in", slog.String("userID", user.ID))
	return s.issueFor(user)
}

// Me returns the full record for an authenticated user ID.
func (s *AuthService) Me(ctx context.Context, userID string) (*model.User, error) {
	if userID == "" {
		return nil, apperror.Unauthenticated("authentication required")
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AuthService) issueFor(user *model.User) (*AuthResult, error) {
	token, err := s.tokens.Issue(auth.Identity{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
	})
	if err != nil {
		return nil, fmt.Errorf("issuing token for user %s: %w", user.ID, err)
	}
	return &AuthResult{User: user, Token: token}, nil
}
