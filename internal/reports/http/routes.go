package reportshttp

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/learnhub-academy/learnhub/internal/platform/httpx"
	"github.com/learnhub-academy/learnhub/internal/rbac"
	"github.com/learnhub-academy/learnhub/internal/session"
)

// MountRoutes registers admin report endpoints onto the router.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	limiter := httprate.Limit(h.limit, time.Minute,
		httprate.WithKeyFuncs(rateLimitKey),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			httpx.Problem(w, http.StatusTooManyRequests, "Too Many Requests", "export rate limit exceeded")
		}),
	)

	r.Group(func(gr chi.Router) {
		gr.Use(h.rbac.RequirePermissions(rbac.PermViewReports))
		gr.Get("/overview", h.handleOverview)
		gr.Get("/users", h.handleUsers)
		gr.Get("/audit", h.handleAudit)
	})
	r.Group(func(gr chi.Router) {
		gr.Use(h.rbac.RequirePermissions(rbac.PermExportReports))
		gr.Get("/exports/{id}/status", h.handleExportStatus)
		gr.Get("/exports/{id}", h.handleDownload)
		gr.Group(func(lr chi.Router) {
			lr.Use(limiter)
			lr.Get("/export.csv", h.handleCSV)
			lr.Get("/users.pdf", h.handleUsersPDF)
			lr.Get("/export.pdf", h.handleFullPDF)
			lr.Post("/exports", h.handleEnqueue)
		})
	})
}

func rateLimitKey(r *http.Request) (string, error) {
	if user := session.CurrentUser(r); user != nil && user.ID != "" {
		return "user:" + user.ID, nil
	}
	key, err := httprate.KeyByIP(r)
	if err != nil {
		return "", err
	}
	return "ip:" + key, nil
}
