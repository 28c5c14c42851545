package rbac

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/inkwell-press/inkwell/internal/platform/httpx"
	"github.com/inkwell-press/inkwell/internal/shared"
)

// ActorSource loads the latest actor state for a user ID. Implementations
// must read from storage on every call so that out-of-band role changes are
// picked up immediately; the resolved actor is only valid for one request.
type ActorSource interface {
	ActorByID(ctx context.Context, userID int64) (Actor, error)
}

// Middleware wires role-ladder authorization helpers for HTTP handlers.
type Middleware struct {
	Actors ActorSource
	Logger *slog.Logger
}

// ResolveActor loads the session user, resolves the actor from storage and
// injects it into the request context. Requests without a session continue
// as the zero (unauthenticated) actor.
func (m Middleware) ResolveActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := m.sessionUserID(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		actor, err := m.Actors.ActorByID(r.Context(), userID)
		if err != nil {
			if m.Logger != nil {
				m.Logger.Error("resolve actor", slog.Int64("user_id", userID), slog.Any("error", err))
			}
			next.ServeHTTP(w, r)
			return
		}
		ctx := ContextWithActor(r.Context(), actor)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAuthenticated blocks requests without a signed-in actor.
func (m Middleware) RequireAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !ActorFromContext(r.Context()).Authenticated {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "sign in required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole blocks actors below the given ladder tier.
func (m Middleware) RequireRole(required Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := ActorFromContext(r.Context())
			if !actor.Authenticated {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "sign in required")
				return
			}
			if !actor.Role.AtLeast(required) {
				httpx.Problem(w, http.StatusForbidden, "Forbidden", "insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (m Middleware) sessionUserID(r *http.Request) (int64, bool) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		return 0, false
	}
	raw := strings.TrimSpace(sess.User())
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		if m.Logger != nil {
			m.Logger.Error("rbac parse user id", slog.String("value", raw))
		}
		return 0, false
	}
	return id, true
}
