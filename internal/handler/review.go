package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/bookline/internal/auth"
	"github.com/sakif/bookline/internal/service"
)

// ReviewHandler exposes the review lifecycle.
type ReviewHandler struct {
	reviews *service.ReviewService
	logger  *slog.Logger
}

func NewReviewHandler(reviews *service.ReviewService, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{reviews: reviews, logger: logger}
}

// HandleCreate creates a review authored by the caller.
//
// HTTP: POST /reviews (auth required) → 201
func (h *ReviewHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error: "unauthenticated", Message: "access token required",
		})
		return
	}

	var in service.ReviewInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "request body must be valid JSON",
		})
		return
	}

	review, err := h.reviews.Create(r.Context(), id.UserID, in)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, review)
}

// HandleGet returns a single review.
//
// HTTP: GET /reviews/{id} (auth optional)
func (h *ReviewHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	review, err := h.reviews.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, review)
}

// HandleUpdate replaces a review's editable fields. Only the author may do
// this; anyone else gets 403 even though the review exists.
//
// HTTP: PUT /reviews/{id} (auth required)
func (h *ReviewHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error: "unauthenticated", Message: "access token required",
		})
		return
	}

	var in service.ReviewInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "request body must be valid JSON",
		})
		return
	}

	review, err := h.reviews.Update(r.Context(), id.UserID, chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, review)
}

// HandleDelete removes a review. Same ownership rule as update.
//
// HTTP: DELETE /reviews/{id} (auth required)
func (h *ReviewHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error: "unauthenticated", Message: "access token required",
		})
		return
	}

	if err := h.reviews.Delete(r.Context(), id.UserID, chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "review deleted"})
}
