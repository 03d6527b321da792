package rbac

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/learnhub-academy/learnhub/internal/platform/httpx"
)

// UserResolver extracts the current user from a request.
type UserResolver func(r *http.Request) *User

// Middleware wires guard checks into HTTP handlers.
type Middleware struct {
	Resolve UserResolver
	Logger  *slog.Logger
}

// RequirePermissions ensures the current user holds every listed permission.
func (m Middleware) RequirePermissions(perms ...Permission) func(http.Handler) http.Handler {
	return m.Require(Guard{RequiredPermissions: perms})
}

// RequireRoles ensures the current user holds one of the listed roles.
func (m Middleware) RequireRoles(roles ...Role) func(http.Handler) http.Handler {
	return m.Require(Guard{AllowedRoles: roles})
}

// Require enforces an arbitrary guard. Unauthenticated requests get 401,
// failing guards 403.
func (m Middleware) Require(g Guard) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var user *User
			if m.Resolve != nil {
				user = m.Resolve(r)
			}
			if err := g.Check(user); err != nil {
				m.deny(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (m Middleware) deny(w http.ResponseWriter, r *http.Request, err error) {
	if m.Logger != nil {
		m.Logger.Debug("rbac denied", slog.String("path", r.URL.Path), slog.Any("error", err))
	}
	if errors.Is(err, ErrUnauthenticated) {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	httpx.RespondError(w, httpx.ErrForbidden)
}
