package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/bookline/internal/auth"
	"github.com/sakif/bookline/internal/service"
)

// SocialHandler exposes the social graph: profiles, follower lists, follow
// and like toggles, and review comments.
type SocialHandler struct {
	social *service.SocialService
	logger *slog.Logger
}

func NewSocialHandler(social *service.SocialService, logger *slog.Logger) *SocialHandler {
	return &SocialHandler{social: social, logger: logger}
}

// HandleFollowToggle follows or unfollows a user.
//
// HTTP: POST /users/{username}/follow (auth required)
// Response: {"result": "followed"} or {"result": "unfollowed"}
func (h *SocialHandler) HandleFollowToggle(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error: "unauthenticated", Message: "access token required",
		})
		return
	}

	result, err := h.social.FollowToggle(r.Context(), id.UserID, chi.URLParam(r, "username"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"result": result})
}

// HandleLikeToggle likes or unlikes a review.
//
// HTTP: POST /reviews/{id}/like (auth required)
// Response: {"result": "liked"} or {"result": "unliked"}
func (h *SocialHandler) HandleLikeToggle(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error: "unauthenticated", Message: "access token required",
		})
		return
	}

	result, err := h.social.LikeToggle(r.Context(), id.UserID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"result": result})
}

type commentRequest struct {
	Content string `json:"content"`
}

// HandleAddComment appends a comment to a review.
//
// HTTP: POST /reviews/{id}/comments (auth required) → 201
func (h *SocialHandler) HandleAddComment(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error: "unauthenticated", Message: "access token required",
		})
		return
	}

	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "request body must be valid JSON",
		})
		return
	}

	comment, err := h.social.AddComment(r.Context(), id.UserID, chi.URLParam(r, "id"), req.Content)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, comment)
}

// HandleListComments returns a review's comments.
//
// HTTP: GET /reviews/{id}/comments?limit=&offset= (auth optional)
func (h *SocialHandler) HandleListComments(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	comments, err := h.social.ListComments(r.Context(), chi.URLParam(r, "id"), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, comments)
}

// HandleProfile returns a user's public profile with graph counts.
//
// HTTP: GET /users/{username} (auth optional)
func (h *SocialHandler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.social.Profile(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

// HandleFollowers returns who follows a user.
//
// HTTP: GET /users/{username}/followers (auth optional)
func (h *SocialHandler) HandleFollowers(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	users, err := h.social.Followers(r.Context(), chi.URLParam(r, "username"), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, users)
}

// HandleFollowing returns who a user follows.
//
// HTTP: GET /users/{username}/following (auth optional)
func (h *SocialHandler) HandleFollowing(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	users, err := h.social.Following(r.Context(), chi.URLParam(r, "username"), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, users)
}

// pagination reads limit/offset query params. Out-of-range values are
// clamped in the service layer; unparseable ones fall back to defaults.
func pagination(r *http.Request) (limit, offset int) {
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))
	return limit, offset
}
