package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/bookline/internal/auth"
	"github.com/sakif/bookline/internal/config"
)

const testSecret = "test-secret-at-least-16-chars!!"

func testConfig() *config.Config {
	return &config.Config{
		Port:       0,
		DBPath:     ":memory:",
		JWTSecret:  testSecret,
		TokenTTL:   time.Hour,
		BcryptCost: bcrypt.MinCost,
		RateLimit:  1000,
		RateWindow: time.Minute,
		LogLevel:   "error",
	}
}

func newTestServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s, err := New(cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() {
		s.limiter.Stop()
		s.db.Close()
	})
	return s
}

// do issues a request against the router without binding a port.
func do(t *testing.T, s *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), "body: %s", rec.Body.String())
	return out
}

// register creates an account and returns its token and user payload.
func register(t *testing.T, s *Server, username string) (string, map[string]any) {
	t.Helper()
	rec := do(t, s, http.MethodPost, "/auth/register", "", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusCreated, rec.Code, "body: %s", rec.Body.String())
	body := decode(t, rec)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	user, _ := body["user"].(map[string]any)
	require.NotNil(t, user)
	return token, user
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, testConfig())

	rec := do(t, s, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", decode(t, rec)["status"])
}

func TestRegisterLoginMe(t *testing.T) {
	s := newTestServer(t, testConfig())

	regToken, user := register(t, s, "alice")
	assert.Equal(t, "alice", user["username"])
	// The password hash must never appear in any response body.
	assert.NotContains(t, strings.ToLower(fmt.Sprint(user)), "password")

	rec := do(t, s, http.MethodGet, "/auth/me", regToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice", decode(t, rec)["username"])

	rec = do(t, s, http.MethodPost, "/auth/login", "", map[string]string{
		"email":    "alice@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	loginToken, _ := decode(t, rec)["token"].(string)
	require.NotEmpty(t, loginToken)

	rec = do(t, s, http.MethodGet, "/auth/me", loginToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRegister_Duplicate(t *testing.T) {
	s := newTestServer(t, testConfig())

	register(t, s, "alice")

	rec := do(t, s, http.MethodPost, "/auth/register", "", map[string]string{
		"username": "alice",
		"email":    "other@example.com",
		"password": "password123",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "conflict", decode(t, rec)["error"])
}

func TestRegister_Invalid(t *testing.T) {
	s := newTestServer(t, testConfig())

	rec := do(t, s, http.MethodPost, "/auth/register", "", map[string]string{
		"username": "ab",
		"email":    "a@example.com",
		"password": "password123",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_error", decode(t, rec)["error"])
}

func TestLogin_BadCredentials(t *testing.T) {
	s := newTestServer(t, testConfig())

	register(t, s, "alice")

	rec := do(t, s, http.MethodPost, "/auth/login", "", map[string]string{
		"email":    "alice@example.com",
		"password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid credentials", decode(t, rec)["message"])
}

func TestLogout(t *testing.T) {
	s := newTestServer(t, testConfig())

	rec := do(t, s, http.MethodPost, "/auth/logout", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

// The three token failure modes must be distinguishable at the edge:
// missing is 401, invalid is 403 "invalid token", expired is 403
// "token expired".
func TestMe_TokenFailureModes(t *testing.T) {
	s := newTestServer(t, testConfig())
	register(t, s, "alice")

	rec := do(t, s, http.MethodGet, "/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, s, http.MethodGet, "/auth/me", "not.a.token", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "invalid token", decode(t, rec)["message"])

	// Expired token signed with the live secret.
	tokens, err := auth.NewTokenService(testSecret, time.Hour)
	require.NoError(t, err)
	expired, err := tokens.IssueWithTTL(auth.Identity{UserID: "whoever"}, -time.Minute)
	require.NoError(t, err)

	rec = do(t, s, http.MethodGet, "/auth/me", expired, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "token expired", decode(t, rec)["message"])
}

func TestFollowFlow(t *testing.T) {
	s := newTestServer(t, testConfig())

	aliceToken, _ := register(t, s, "alice")
	register(t, s, "bob")

	rec := do(t, s, http.MethodPost, "/users/bob/follow", aliceToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "followed", decode(t, rec)["result"])

	rec = do(t, s, http.MethodPost, "/users/bob/follow", aliceToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "unfollowed", decode(t, rec)["result"])

	rec = do(t, s, http.MethodPost, "/users/bob/follow", aliceToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "followed", decode(t, rec)["result"])

	// Profile reads are public.
	rec = do(t, s, http.MethodGet, "/users/bob", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), decode(t, rec)["followersCount"])

	rec = do(t, s, http.MethodGet, "/users/bob/followers", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestFollow_Self(t *testing.T) {
	s := newTestServer(t, testConfig())

	aliceToken, _ := register(t, s, "alice")

	rec := do(t, s, http.MethodPost, "/users/alice/follow", aliceToken, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "cannot follow yourself", decode(t, rec)["message"])
}

func TestFollow_UnknownUser(t *testing.T) {
	s := newTestServer(t, testConfig())

	aliceToken, _ := register(t, s, "alice")

	rec := do(t, s, http.MethodPost, "/users/ghost/follow", aliceToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFollow_RequiresAuth(t *testing.T) {
	s := newTestServer(t, testConfig())
	register(t, s, "bob")

	rec := do(t, s, http.MethodPost, "/users/bob/follow", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestReviewLifecycle(t *testing.T) {
	s := newTestServer(t, testConfig())

	aliceToken, _ := register(t, s, "alice")
	bobToken, _ := register(t, s, "bob")

	input := map[string]any{
		"bookTitle": "Piranesi",
		"rating":    4,
		"content":   "The House is kind.",
	}
	rec := do(t, s, http.MethodPost, "/reviews", aliceToken, input)
	require.Equal(t, http.StatusCreated, rec.Code, "body: %s", rec.Body.String())
	reviewID, _ := decode(t, rec)["id"].(string)
	require.NotEmpty(t, reviewID)

	// Reads are public.
	rec = do(t, s, http.MethodGet, "/reviews/"+reviewID, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Piranesi", decode(t, rec)["bookTitle"])

	// Non-owner mutations are forbidden, not hidden.
	input["rating"] = 1
	rec = do(t, s, http.MethodPut, "/reviews/"+reviewID, bobToken, input)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, s, http.MethodDelete, "/reviews/"+reviewID, bobToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	input["rating"] = 5
	rec = do(t, s, http.MethodPut, "/reviews/"+reviewID, aliceToken, input)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(5), decode(t, rec)["rating"])

	rec = do(t, s, http.MethodDelete, "/reviews/"+reviewID, aliceToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, http.MethodGet, "/reviews/"+reviewID, "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLikesAndComments(t *testing.T) {
	s := newTestServer(t, testConfig())

	aliceToken, _ := register(t, s, "alice")
	bobToken, _ := register(t, s, "bob")

	rec := do(t, s, http.MethodPost, "/reviews", aliceToken, map[string]any{
		"bookTitle": "Piranesi",
		"rating":    4,
		"content":   "The House is kind.",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	reviewID := decode(t, rec)["id"].(string)

	rec = do(t, s, http.MethodPost, "/reviews/"+reviewID+"/like", bobToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "liked", decode(t, rec)["result"])

	rec = do(t, s, http.MethodPost, "/reviews/"+reviewID+"/like", bobToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "unliked", decode(t, rec)["result"])

	rec = do(t, s, http.MethodPost, "/reviews/"+reviewID+"/comments", bobToken, map[string]string{
		"content": "Agreed on every point.",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	// Comment listing is public.
	rec = do(t, s, http.MethodGet, "/reviews/"+reviewID+"/comments", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var comments []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &comments))
	require.Len(t, comments, 1)
	assert.Equal(t, "Agreed on every point.", comments[0]["content"])

	// The counter on the review reflects the comment.
	rec = do(t, s, http.MethodGet, "/reviews/"+reviewID, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), decode(t, rec)["commentsCount"])
}

func TestComment_UnknownReview(t *testing.T) {
	s := newTestServer(t, testConfig())

	aliceToken, _ := register(t, s, "alice")

	rec := do(t, s, http.MethodPost, "/reviews/no-such-review/comments", aliceToken, map[string]string{
		"content": "hello?",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, testConfig())

	do(t, s, http.MethodGet, "/health", "", nil)

	rec := do(t, s, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "bookline_http_requests_total")
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit = 3
	s := newTestServer(t, cfg)

	for i := 0; i < 3; i++ {
		rec := do(t, s, http.MethodGet, "/health", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := do(t, s, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}
