package rbac

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/learnhub-academy/learnhub/internal/platform/httpx"
)

// PermissionsHandler exposes the caller's effective permissions.
type PermissionsHandler struct {
	resolve UserResolver
	rbac    Middleware
}

// NewPermissionsHandler builds PermissionsHandler instance.
func NewPermissionsHandler(resolve UserResolver, rbac Middleware) *PermissionsHandler {
	return &PermissionsHandler{resolve: resolve, rbac: rbac}
}

// MountRoutes registers permission routes.
func (h *PermissionsHandler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(Guard{}))
		r.Get("/", h.listPermissions)
	})
}

type permissionsResponse struct {
	Role        Role         `json:"role"`
	Permissions []Permission `json:"permissions"`
}

func (h *PermissionsHandler) listPermissions(w http.ResponseWriter, r *http.Request) {
	user := h.resolve(r)
	httpx.JSON(w, http.StatusOK, permissionsResponse{
		Role:        user.Role,
		Permissions: user.Permissions().Sorted(),
	})
}
