package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/learnhub-academy/learnhub/internal/backend"
	"github.com/learnhub-academy/learnhub/internal/platform/httpx"
	"github.com/learnhub-academy/learnhub/internal/rbac"
	"github.com/learnhub-academy/learnhub/internal/session"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger         *slog.Logger
	service        *Service
	sessionManager *session.Manager
	csrfManager    *session.CSRFManager
	validator      *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, sessions *session.Manager, csrf *session.CSRFManager) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:         logger,
		service:        service,
		sessionManager: sessions,
		csrfManager:    csrf,
		validator:      validator.New(),
	}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)
	r.Get("/me", h.handleMe)
}

type loginForm struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type meResponse struct {
	User        rbac.User         `json:"user"`
	Permissions []rbac.Permission `json:"permissions"`
	CSRFToken   string            `json:"csrfToken,omitempty"`
}

type validationProblem struct {
	httpx.ProblemDetail
	Errors map[string]string `json:"errors"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	if sess == nil {
		h.logger.Error("session missing during login")
		httpx.RespondError(w, errors.New("session missing"))
		return
	}

	var form loginForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validator.Struct(form); err != nil {
		fieldErrors := make(map[string]string)
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fieldErr := range verrs {
				fieldErrors[strings.ToLower(fieldErr.Field())] = fieldErr.Tag()
			}
		}
		httpx.JSON(w, http.StatusBadRequest, validationProblem{
			ProblemDetail: httpx.ProblemDetail{Title: "Validation Failed", Status: http.StatusBadRequest},
			Errors:        fieldErrors,
		})
		return
	}

	res, err := h.service.Authenticate(r.Context(), form.Email, form.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "invalid email or password")
			return
		}
		h.logger.Error("login", slog.Any("error", err))
		httpx.RespondError(w, backend.HTTPError(err))
		return
	}
	// Fresh id on sign-in; the CSRF token is reissued with it.
	h.sessionManager.Renew(sess)
	sess.Delete(session.CSRFSessionKey)
	if err := sess.SetAuth(res.Token, res.User); err != nil {
		h.logger.Error("store session auth", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("user signed in", slog.String("user_id", res.User.ID), slog.String("role", string(res.User.Role)))
	h.respondUser(w, sess, res.User)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if sess := session.FromContext(r.Context()); sess != nil {
		h.sessionManager.Destroy(sess)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	if sess == nil || sess.CurrentUser() == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	user := *sess.CurrentUser()
	if r.URL.Query().Get("refresh") == "1" {
		fresh, err := h.service.Refresh(r.Context(), sess.AccessToken())
		if err != nil {
			if errors.Is(err, backend.ErrUnauthorized) {
				sess.ClearAuth()
			}
			httpx.RespondError(w, backend.HTTPError(err))
			return
		}
		if err := sess.SetAuth(sess.AccessToken(), fresh); err != nil {
			httpx.RespondError(w, err)
			return
		}
		user = fresh
	}
	h.respondUser(w, sess, user)
}

func (h *Handler) respondUser(w http.ResponseWriter, sess *session.Session, user rbac.User) {
	token := ""
	if h.csrfManager != nil {
		var err error
		if token, err = h.csrfManager.EnsureToken(sess); err != nil {
			h.logger.Warn("issue csrf token", slog.Any("error", err))
		}
	}
	httpx.JSON(w, http.StatusOK, meResponse{
		User:        user,
		Permissions: user.Permissions().Sorted(),
		CSRFToken:   token,
	})
}
