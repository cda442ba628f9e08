// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered account.
//
// PasswordHash is tagged `json:"-"` so it can never leak into a response
// body, no matter which handler serializes the struct. Every endpoint that
// returns a user returns this struct (or Profile), so the exclusion is
// enforced in exactly one place.
//
// IsActive is read by the auth middleware on every authenticated request:
// a token for a deactivated account is rejected even if the signature and
// expiry are still valid.
type User struct {
	ID           string    `json:"id"              db:"id"`
	Username     string    `json:"username"        db:"username"`
	Email        string    `json:"email"           db:"email"`
	PasswordHash string    `json:"-"               db:"password_hash"`
	FullName     string    `json:"fullName,omitempty"        db:"full_name"`
	Bio          string    `json:"bio,omitempty"             db:"bio"`
	ProfileImage string    `json:"profileImageUrl,omitempty" db:"profile_image_url"`
	IsActive     bool      `json:"-"               db:"is_active"`
	CreatedAt    time.Time `json:"createdAt"       db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt"       db:"updated_at"`
}

// Profile is the public view of a user, returned by GET /users/{username}.
// Counts are computed by the repository at read time; profile reads are not
// a hot path, so they are not stored denormalized.
type Profile struct {
	User
	FollowersCount int `json:"followersCount"`
	FollowingCount int `json:"followingCount"`
	ReviewsCount   int `json:"reviewsCount"`
}
