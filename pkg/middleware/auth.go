package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/orghub/orghub/pkg/authz"
	"github.com/orghub/orghub/pkg/contextkeys"
	"github.com/orghub/orghub/pkg/observability"
)

// TokenResolver resolves a bearer token to a user ID. *store.Store
// implements it.
type TokenResolver interface {
	GetUserIDByToken(ctx context.Context, token string) (uuid.UUID, error)
}

// AccessLoader loads the access snapshot for an authenticated user. Both
// *store.Store and *store.AccessCache implement it.
type AccessLoader interface {
	GetUserWithAccess(ctx context.Context, userID uuid.UUID) (*authz.UserWithAccess, error)
}

// AuthMiddleware authenticates bearer tokens and attaches the actor's
// access snapshot to the request context.
type AuthMiddleware struct {
	tokens   TokenResolver
	access   AccessLoader
	optional bool // If true, allow requests without auth
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(tokens TokenResolver, access AccessLoader, optional bool) *AuthMiddleware {
	return &AuthMiddleware{
		tokens:   tokens,
		access:   access,
		optional: optional,
	}
}

// Handler wraps an HTTP handler with authentication
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Extract token from Authorization header
		// Format: "Bearer <token>"
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			if m.optional {
				next.ServeHTTP(w, r)
				return
			}
			unauthorizedResponse(w, "missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			unauthorizedResponse(w, "invalid authorization header format")
			return
		}

		userID, err := m.tokens.GetUserIDByToken(r.Context(), parts[1])
		if err != nil {
			unauthorizedResponse(w, "invalid or expired token")
			return
		}

		actor, err := m.access.GetUserWithAccess(r.Context(), userID)
		if err != nil {
			observability.FromContext(r.Context()).WithError(err).Error("Failed to load actor access")
			unauthorizedResponse(w, "invalid or expired token")
			return
		}

		ctx := contextkeys.WithActor(r.Context(), actor)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func unauthorizedResponse(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

func forbiddenResponse(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// GetActor returns the authenticated actor from the request context, or nil
// when the request is unauthenticated.
func GetActor(r *http.Request) *authz.UserWithAccess {
	actor, ok := r.Context().Value(contextkeys.ActorKey).(*authz.UserWithAccess)
	if !ok {
		return nil
	}
	return actor
}
