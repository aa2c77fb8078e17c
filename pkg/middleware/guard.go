package middleware

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/orghub/orghub/pkg/authz"
	"github.com/orghub/orghub/pkg/observability"
)

// GuardMiddleware enforces authorization decisions on routes. Every guard
// fails closed: a missing actor, unknown group or unknown capability denies.
// Decisions are counted and denials logged here, not in the authz package.
type GuardMiddleware struct {
	registry *authz.Registry
	metrics  *observability.Metrics
}

// NewGuardMiddleware creates a new guard middleware. metrics may be nil.
func NewGuardMiddleware(registry *authz.Registry, metrics *observability.Metrics) *GuardMiddleware {
	return &GuardMiddleware{registry: registry, metrics: metrics}
}

// groupID pulls the group from the route. Guarded routes carry a {groupID}
// path variable.
func groupID(r *http.Request) string {
	return mux.Vars(r)["groupID"]
}

func (g *GuardMiddleware) record(guard string, allowed bool) {
	if g.metrics != nil {
		g.metrics.RecordDecision(guard, allowed)
	}
}

func (g *GuardMiddleware) deny(w http.ResponseWriter, r *http.Request, guard, detail string) {
	actor := GetActor(r)
	logger := observability.FromContext(r.Context()).WithFields(map[string]interface{}{
		"guard":    guard,
		"group_id": groupID(r),
		"path":     r.URL.Path,
	})
	if actor != nil {
		logger = logger.WithField("user_id", actor.ID.String())
	}
	logger.Warn("Authorization denied")
	forbiddenResponse(w, detail)
}

// RequireCapability allows the request only when the actor's role in the
// route's group grants the capability.
func (g *GuardMiddleware) RequireCapability(capability authz.Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := GetActor(r)
			if actor == nil {
				unauthorizedResponse(w, "authentication required")
				return
			}

			allowed := g.registry.CanDo(actor, groupID(r), capability)
			g.record("can_do", allowed)
			if !allowed {
				g.deny(w, r, "can_do", "insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireMinRole allows the request only when the actor's role in the
// route's group ranks at or above minRole.
func (g *GuardMiddleware) RequireMinRole(minRole authz.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := GetActor(r)
			if actor == nil {
				unauthorizedResponse(w, "authentication required")
				return
			}

			allowed := g.registry.HasMinRole(actor, groupID(r), minRole)
			g.record("has_min_role", allowed)
			if !allowed {
				g.deny(w, r, "has_min_role", "insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdminOrAbove allows admins and owners of the route's group.
func (g *GuardMiddleware) RequireAdminOrAbove() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := GetActor(r)
			if actor == nil {
				unauthorizedResponse(w, "authentication required")
				return
			}

			allowed := g.registry.IsAdminOrAbove(actor, groupID(r))
			g.record("is_admin_or_above", allowed)
			if !allowed {
				g.deny(w, r, "is_admin_or_above", "admin access required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireOwnerOfAny allows actors who own at least one group anywhere. Used
// for tenant-level destructive surfaces.
func (g *GuardMiddleware) RequireOwnerOfAny() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := GetActor(r)
			if actor == nil {
				unauthorizedResponse(w, "authentication required")
				return
			}

			allowed := authz.IsOwnerOfAny(actor)
			g.record("is_owner_of_any", allowed)
			if !allowed {
				g.deny(w, r, "is_owner_of_any", "owner access required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
