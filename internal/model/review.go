package model

import "time"

// Review is a user's review of a book. Book title/author are stored inline
// on the review; there is no catalog table behind them.
//
// CommentsCount is maintained by an atomic in-SQL increment at comment
// creation time (see repository/sqlite). Invariant: it always equals the
// number of comment rows referencing this review.
type Review struct {
	ID            string    `json:"id"            db:"id"`
	UserID        string    `json:"userId"        db:"user_id"`
	BookTitle     string    `json:"bookTitle"     db:"book_title"`
	BookAuthor    string    `json:"bookAuthor"    db:"book_author"`
	Rating        int       `json:"rating"        db:"rating"`
	Content       string    `json:"content"       db:"content"`
	CommentsCount int       `json:"commentsCount" db:"comments_count"`
	CreatedAt     time.Time `json:"createdAt"     db:"created_at"`
	UpdatedAt     time.Time `json:"updatedAt"     db:"updated_at"`
}

// Comment is an append-only comment on a review. Comments are never updated
// or deleted through this API.
type Comment struct {
	ID        string    `json:"id"        db:"id"`
	ReviewID  string    `json:"reviewId"  db:"review_id"`
	UserID    string    `json:"userId"    db:"user_id"`
	Content   string    `json:"content"   db:"content"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// ToggleResult reports which way a follow/like toggle resolved.
type ToggleResult int

const (
	// ToggleCreated means the edge did not exist and was created.
	ToggleCreated ToggleResult = iota
	// ToggleDeleted means the edge existed and was removed.
	ToggleDeleted
)
