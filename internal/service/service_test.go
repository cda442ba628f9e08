package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/bookline/internal/auth"
	"github.com/sakif/bookline/internal/model"
	"github.com/sakif/bookline/internal/repository/sqlite"
)

// Service tests run against a real in-memory store rather than hand-rolled
// repository fakes: the toggle and counter semantics live in SQL, and faking
// them would test the fake.

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore(t *testing.T) *sqlite.DB {
	t.Helper()
	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestAuthService(t *testing.T, db *sqlite.DB) *AuthService {
	t.Helper()
	tokens, err := auth.NewTokenService("test-secret-at-least-16-chars!!", time.Hour)
	require.NoError(t, err)
	passwords := auth.NewPasswordService(bcrypt.MinCost)
	return NewAuthService(db, tokens, passwords, discardLogger())
}

// recordingMetrics counts domain events for assertions.
type recordingMetrics struct {
	follows  map[string]int
	likes    map[string]int
	comments int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{follows: map[string]int{}, likes: map[string]int{}}
}

func (m *recordingMetrics) FollowToggled(result string) { m.follows[result]++ }
func (m *recordingMetrics) LikeToggled(result string)   { m.likes[result]++ }
func (m *recordingMetrics) CommentAdded()               { m.comments++ }

func registerTestUser(t *testing.T, svc *AuthService, username string) *model.User {
	t.Helper()
	res, err := svc.Register(context.Background(), username, username+"@example.com", "password123", "")
	require.NoError(t, err)
	return res.User
}
