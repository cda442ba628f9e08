package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sakif/bookline/internal/apperror"
	"github.com/sakif/bookline/internal/model"
)

// Mode selects how the gate treats a request it could not authenticate.
type Mode int

const (
	// Required rejects the request before the handler runs.
	Required Mode = iota
	// Optional lets the request through with no identity attached. An
	// Optional gate never writes 401 or 403, whatever the input.
	Optional
)

// IdentityStore resolves a token subject to a live account. Implemented by
// the user repository; the gate performs no writes through it.
type IdentityStore interface {
	// FindActiveByID returns the user only if the account exists and is
	// active. A missing or deactivated account is apperror.ErrNotFound.
	FindActiveByID(ctx context.Context, id string) (*model.User, error)
}

// contextKey is an unexported type for context keys in this package, so no
// other package can read or shadow the identity value.
type contextKey string

const identityKey contextKey = "identity"

// Gate is the authentication middleware. One underlying state machine
// serves both modes:
//
//	NoToken → TokenExtracted → Verified → IdentityResolved → Admitted
//
// with a failure exit at each step. Required mode turns the failure into an
// HTTP rejection; Optional mode admits the request anonymously. Keeping a
// single resolve path (rather than two middlewares) means the modes cannot
// drift apart in what they accept.
type Gate struct {
	tokens *TokenService
	users  IdentityStore
	logger *slog.Logger
}

// NewGate creates a Gate. Both dependencies are injected; the gate owns no
// state beyond them.
func NewGate(tokens *TokenService, users IdentityStore, logger *slog.Logger) *Gate {
	return &Gate{tokens: tokens, users: users, logger: logger}
}

// Require returns middleware that enforces authentication: requests without
// a resolvable, active identity are rejected before the wrapped handler
// executes.
func (g *Gate) Require() func(http.Handler) http.Handler {
	return g.middleware(Required)
}

// Optional returns middleware that attaches the identity when a valid token
// is presented but never blocks the request — not even for a tampered token
// or an unreachable identity store.
func (g *Gate) Optional() func(http.Handler) http.Handler {
	return g.middleware(Optional)
}

// rejection is a classified authentication failure, held internally until
// the mode decides whether it is written or discarded.
type rejection struct {
	status  int
	kind    string
	message string
}

func (g *Gate) middleware(mode Mode) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, rej := g.resolve(r)
			if rej != nil {
				if mode == Required {
					writeRejection(w, rej)
					return
				}
				// Optional: admitted with no identity.
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), identityKey, *id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// resolve runs the mode-independent part of the state machine: extract the
// bearer token, verify it, and confirm the subject is still an active user.
// Exactly one of the return values is non-nil.
func (g *Gate) resolve(r *http.Request) (*Identity, *rejection) {
	token, ok := bearerToken(r)
	if !ok {
		return nil, &rejection{
			status:  http.StatusUnauthorized,
			kind:    "unauthenticated",
			message: "access token required",
		}
	}

	id, err := g.tokens.Verify(token)
	if err != nil {
		// Expired and invalid are distinguished in the response detail;
		// both are 403 because a credential was presented and refused.
		if errors.Is(err, ErrTokenExpired) {
			return nil, &rejection{
				status:  http.StatusForbidden,
				kind:    "forbidden",
				message: "token expired",
			}
		}
		return nil, &rejection{
			status:  http.StatusForbidden,
			kind:    "forbidden",
			message: "invalid token",
		}
	}

	// The token is cryptographically fine, but the account behind it may
	// have been deactivated or deleted since issuance.
	user, err := g.users.FindActiveByID(r.Context(), id.UserID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, &rejection{
				status:  http.StatusUnauthorized,
				kind:    "unauthenticated",
				message: "user not found or inactive",
			}
		}
		// Infrastructure fault. Required mode surfaces it as a 500; the
		// full detail stays in the server log.
		g.logger.Error("auth: identity lookup failed",
			slog.String("userID", id.UserID),
			slog.String("error", err.Error()),
		)
		return nil, &rejection{
			status:  http.StatusInternalServerError,
			kind:    "internal_error",
			message: "authentication failed",
		}
	}

	// Claims may be stale if the profile changed after issuance; the store
	// row is authoritative for username/email.
	return &Identity{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
	}, nil
}

// IdentityFromContext retrieves the authenticated caller from the request
// context. Returns (zero, false) for anonymous requests.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok && id.UserID != ""
}

// bearerToken extracts the token from "Authorization: Bearer <token>".
// A missing header, a non-Bearer scheme, or an empty credential all count
// as "no token presented".
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// writeRejection writes the same JSON error shape the handler package uses.
// The gate cannot import handler (handlers import auth for the context
// helpers), so it encodes the two fields directly.
func writeRejection(w http.ResponseWriter, rej *rejection) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(rej.status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   rej.kind,
		"message": rej.message,
	})
}
