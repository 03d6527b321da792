package rbac

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedUser(u *User) UserResolver {
	return func(*http.Request) *User { return u }
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestRequirePermissions(t *testing.T) {
	cases := []struct {
		name string
		user *User
		want int
	}{
		{"anonymous", nil, http.StatusUnauthorized},
		{"learner", &User{Role: RoleUser}, http.StatusForbidden},
		{"admin", &User{Role: RoleAdmin}, http.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mw := Middleware{Resolve: fixedUser(tc.user)}
			h := mw.RequirePermissions(PermCreateCourse, PermDeleteCourse)(okHandler())
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/courses", nil))
			assert.Equal(t, tc.want, rr.Code)
		})
	}
}

func TestRequireRoles(t *testing.T) {
	mw := Middleware{Resolve: fixedUser(&User{Role: RoleAdmin})}
	rr := httptest.NewRecorder()
	mw.RequireRoles(RoleSuperAdmin)(okHandler()).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestPermissionsHandler(t *testing.T) {
	resolve := fixedUser(&User{ID: "7", Role: RoleUser})
	h := NewPermissionsHandler(resolve, Middleware{Resolve: resolve})
	r := chi.NewRouter()
	r.Route("/api/permissions", h.MountRoutes)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/permissions", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var body permissionsResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, RoleUser, body.Role)
	assert.ElementsMatch(t, learnerScopes(), body.Permissions)
}
