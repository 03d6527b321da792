package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/learnhub-academy/learnhub/internal/auth"
	"github.com/learnhub-academy/learnhub/internal/catalog"
	"github.com/learnhub-academy/learnhub/internal/observability"
	"github.com/learnhub-academy/learnhub/internal/platform/httpx"
	"github.com/learnhub-academy/learnhub/internal/rbac"
	reportshttp "github.com/learnhub-academy/learnhub/internal/reports/http"
	"github.com/learnhub-academy/learnhub/internal/session"
	"github.com/learnhub-academy/learnhub/jobs"
	"github.com/learnhub-academy/learnhub/report"
)

// Pinger reports the health of a dependency.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *session.Manager
	CSRFManager    *session.CSRFManager
	RBACMiddleware rbac.Middleware

	AuthHandler        *auth.Handler
	CatalogHandler     *catalog.Handler
	ReportsHandler     *reportshttp.Handler
	PermissionsHandler *rbac.PermissionsHandler
	ReportHandler      *report.Handler
	JobHandler         *jobs.Handler
	Metrics            *observability.Metrics

	// Readiness dependencies keyed by name, checked by /readyz.
	Readiness map[string]Pinger
}

// NewRouter constructs the chi.Router with LearnHub defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", readinessHandler(params.Logger, params.Readiness))

	if params.AuthHandler != nil {
		r.Route("/auth", params.AuthHandler.MountRoutes)
	}
	r.Route("/api", func(r chi.Router) {
		if params.PermissionsHandler != nil {
			r.Route("/permissions", params.PermissionsHandler.MountRoutes)
		}
		if params.CatalogHandler != nil {
			params.CatalogHandler.MountRoutes(r)
		}
	})
	if params.ReportsHandler != nil {
		r.Route("/admin/reports", params.ReportsHandler.MountRoutes)
	}
	r.Group(func(r chi.Router) {
		r.Use(params.RBACMiddleware.RequireRoles(rbac.RoleSuperAdmin))
		if params.ReportHandler != nil {
			r.Route("/admin/pdf", params.ReportHandler.MountRoutes)
		}
		if params.JobHandler != nil {
			r.Route("/admin/jobs", params.JobHandler.MountRoutes)
		}
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.RespondError(w, httpx.ErrNotFound)
	})
	return r
}

func readinessHandler(logger *slog.Logger, deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		status := http.StatusOK
		body := make(map[string]string, len(deps))
		for name, dep := range deps {
			if dep == nil {
				continue
			}
			if err := dep.Ping(ctx); err != nil {
				logger.Warn("readiness check failed", slog.String("dependency", name), slog.Any("error", err))
				body[name] = "down"
				status = http.StatusServiceUnavailable
				continue
			}
			body[name] = "up"
		}
		httpx.JSON(w, status, body)
	}
}
