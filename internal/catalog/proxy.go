package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/learnhub-academy/learnhub/internal/backend"
	"github.com/learnhub-academy/learnhub/internal/platform/httpx"
	"github.com/learnhub-academy/learnhub/internal/rbac"
	"github.com/learnhub-academy/learnhub/internal/session"
)

const maxBodyBytes = 1 << 20

// Forwarder relays a request to the backend.
type Forwarder interface {
	Forward(ctx context.Context, method, path string, query url.Values, token string, body io.Reader, contentType string) (*http.Response, error)
}

// Handler proxies catalog resources.
type Handler struct {
	logger    *slog.Logger
	backend   Forwarder
	rbac      rbac.Middleware
	resources []Resource
}

// NewHandler constructs a Handler serving resources.
func NewHandler(logger *slog.Logger, backend Forwarder, mw rbac.Middleware, resources []Resource) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, backend: backend, rbac: mw, resources: resources}
}

// MountRoutes registers one sub-router per resource.
func (h *Handler) MountRoutes(r chi.Router) {
	for _, res := range h.resources {
		r.Route("/"+res.Name, func(rr chi.Router) {
			rr.With(h.gate(res.Read)).Get("/", h.forward(res))
			rr.With(h.gate(res.Read)).Get("/{id}", h.forward(res))
			rr.With(h.gate(res.Create)).Post("/", h.forward(res))
			rr.With(h.gate(res.Update), h.protect(res)).Put("/{id}", h.forward(res))
			rr.With(h.gate(res.Update), h.protect(res)).Patch("/{id}", h.forward(res))
			rr.With(h.gate(res.Delete), h.protect(res)).Delete("/{id}", h.forward(res))
			for _, act := range res.Actions {
				rr.With(h.gate(act.Guard), h.protect(res)).Method(act.Method, "/{id}/"+act.Name, h.forward(res))
			}
		})
	}
}

func (h *Handler) gate(g *rbac.Guard) func(http.Handler) http.Handler {
	if g == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return h.rbac.Require(*g)
}

func (h *Handler) forward(res Resource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path := res.BackendPath
		if id := chi.URLParam(r, "id"); id != "" {
			path += "/" + url.PathEscape(id)
			if suffix := actionSuffix(r.URL.Path, id); suffix != "" {
				path += "/" + suffix
			}
		}

		var body io.Reader
		if r.Body != nil && r.Method != http.MethodGet && r.Method != http.MethodDelete {
			body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
			if len(res.FieldGuards) > 0 {
				data, err := io.ReadAll(body)
				if err != nil {
					var tooLarge *http.MaxBytesError
					if errors.As(err, &tooLarge) {
						httpx.Problem(w, http.StatusRequestEntityTooLarge, "Payload Too Large", "")
						return
					}
					httpx.RespondError(w, fmt.Errorf("%w: read body: %v", httpx.ErrValidation, err))
					return
				}
				if err := checkFields(res.FieldGuards, session.CurrentUser(r), data); err != nil {
					h.deny(w, r, res, err)
					return
				}
				body = bytes.NewReader(data)
			}
		}
		token := accessToken(r)

		resp, err := h.backend.Forward(r.Context(), r.Method, path, r.URL.Query(), token, body, r.Header.Get("Content-Type"))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				httpx.Problem(w, http.StatusRequestEntityTooLarge, "Payload Too Large", "")
				return
			}
			h.logger.Error("proxy backend", slog.String("resource", res.Name), slog.String("method", r.Method), slog.Any("error", err))
			httpx.RespondError(w, httpx.ErrUpstream)
			return
		}
		defer func() { _ = resp.Body.Close() }()

		if ct := resp.Header.Get("Content-Type"); ct != "" {
			w.Header().Set("Content-Type", ct)
		}
		w.WriteHeader(resp.StatusCode)
		if _, err := io.Copy(w, resp.Body); err != nil {
			h.logger.Warn("proxy copy", slog.String("resource", res.Name), slog.Any("error", err))
		}
	}
}

func (h *Handler) deny(w http.ResponseWriter, r *http.Request, res Resource, err error) {
	h.logger.Debug("catalog denied", slog.String("resource", res.Name), slog.String("path", r.URL.Path), slog.Any("error", err))
	switch {
	case errors.Is(err, rbac.ErrUnauthenticated):
		httpx.RespondError(w, httpx.ErrUnauthorized)
	case errors.Is(err, rbac.ErrForbidden):
		httpx.RespondError(w, httpx.ErrForbidden)
	default:
		httpx.RespondError(w, err)
	}
}

// checkFields applies per-field guards to a JSON object body. An empty
// body passes; anything else must be an object.
func checkFields(guards map[string]*rbac.Guard, user *rbac.User, data []byte) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("%w: body must be a JSON object", httpx.ErrValidation)
	}
	for name, g := range guards {
		if _, ok := fields[name]; !ok || g == nil {
			continue
		}
		if err := g.Check(user); err != nil {
			return err
		}
	}
	return nil
}

// protect looks up the target item and refuses to touch privileged ones
// unless the caller passes the protection guard.
func (h *Handler) protect(res Resource) func(http.Handler) http.Handler {
	p := res.Protected
	if p == nil || len(p.Roles) == 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if p.Guard != nil && p.Guard.Allows(session.CurrentUser(r)) {
				next.ServeHTTP(w, r)
				return
			}
			id := chi.URLParam(r, "id")
			role, err := h.itemRole(r.Context(), res.BackendPath+"/"+url.PathEscape(id), accessToken(r))
			if errors.Is(err, backend.ErrNotFound) {
				next.ServeHTTP(w, r)
				return
			}
			if err != nil {
				h.logger.Error("catalog target lookup", slog.String("resource", res.Name), slog.Any("error", err))
				httpx.RespondError(w, backend.HTTPError(err))
				return
			}
			if rbac.HasRole(&rbac.User{Role: role}, p.Roles...) {
				h.deny(w, r, res, rbac.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// itemRole reads the role of a backend item, accepting a bare object or
// one wrapped in "data" or "user".
func (h *Handler) itemRole(ctx context.Context, path, token string) (rbac.Role, error) {
	resp, err := h.backend.Forward(ctx, http.MethodGet, path, nil, token, nil, "")
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()
	if err := backend.CheckResponse(resp); err != nil {
		return "", err
	}
	type roleOnly struct {
		Role string `json:"role"`
	}
	var item struct {
		roleOnly
		Data *roleOnly `json:"data"`
		User *roleOnly `json:"user"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&item); err != nil {
		return "", fmt.Errorf("catalog: decode %s: %w", path, err)
	}
	raw := item.Role
	switch {
	case raw == "" && item.Data != nil:
		raw = item.Data.Role
	case raw == "" && item.User != nil:
		raw = item.User.Role
	}
	role, _ := rbac.ParseRole(raw)
	return role, nil
}

func accessToken(r *http.Request) string {
	if sess := session.FromContext(r.Context()); sess != nil {
		return sess.AccessToken()
	}
	return ""
}

// actionSuffix returns what follows the id segment, e.g. "enroll".
func actionSuffix(path, id string) string {
	idx := strings.LastIndex(path, "/"+id+"/")
	if idx < 0 {
		return ""
	}
	return path[idx+len(id)+2:]
}
