package reportshttp

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/learnhub-academy/learnhub/internal/audit"
	"github.com/learnhub-academy/learnhub/internal/backend"
	"github.com/learnhub-academy/learnhub/internal/platform/httpx"
	"github.com/learnhub-academy/learnhub/internal/rbac"
	"github.com/learnhub-academy/learnhub/internal/reports"
	"github.com/learnhub-academy/learnhub/internal/reports/export"
	"github.com/learnhub-academy/learnhub/internal/session"
	"github.com/learnhub-academy/learnhub/jobs"
)

// ReportService defines the report data contract used by the handler.
type ReportService interface {
	Overview(ctx context.Context, token string) (reports.Overview, error)
	UserPerformance(ctx context.Context, token string) ([]reports.UserPerformance, error)
}

// PDFService renders report documents to PDF bytes.
type PDFService interface {
	UserPerformancePDF(ctx context.Context, users []reports.UserPerformance) ([]byte, error)
	FullReportPDF(ctx context.Context, ov reports.Overview) ([]byte, error)
}

// AuditLog stores and lists export records.
type AuditLog interface {
	Record(ctx context.Context, rec audit.ExportRecord) error
	Recent(ctx context.Context, limit int) ([]audit.ExportRecord, error)
}

// ExportQueue enqueues asynchronous PDF exports.
type ExportQueue interface {
	EnqueueReportExport(ctx context.Context, payload jobs.ReportExportPayload) (*asynq.TaskInfo, error)
}

// ArtifactStore tracks asynchronous export results.
type ArtifactStore interface {
	MarkPending(ctx context.Context, id string, kind jobs.ExportKind, ownerID string) error
	Fetch(ctx context.Context, id string) (jobs.Artifact, error)
}

// Config collects handler dependencies. Audit, Queue and Artifacts are
// optional; the routes depending on them answer 503 when absent.
type Config struct {
	Logger    *slog.Logger
	Reports   ReportService
	PDF       PDFService
	Audit     AuditLog
	Queue     ExportQueue
	Artifacts ArtifactStore
	RBAC      rbac.Middleware
	// ExportsPerMinute caps export requests per user. Zero means 10.
	ExportsPerMinute int
}

// Handler serves the admin report endpoints.
type Handler struct {
	logger    *slog.Logger
	reports   ReportService
	pdf       PDFService
	audit     AuditLog
	queue     ExportQueue
	artifacts ArtifactStore
	rbac      rbac.Middleware
	limit     int
	bufPool   sync.Pool
}

// NewHandler constructs the reports HTTP handler.
func NewHandler(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	limit := cfg.ExportsPerMinute
	if limit <= 0 {
		limit = 10
	}
	h := &Handler{
		logger:    logger,
		reports:   cfg.Reports,
		pdf:       cfg.PDF,
		audit:     cfg.Audit,
		queue:     cfg.Queue,
		artifacts: cfg.Artifacts,
		rbac:      cfg.RBAC,
		limit:     limit,
	}
	h.bufPool.New = func() any { return new(bytes.Buffer) }
	return h
}

func (h *Handler) handleOverview(w http.ResponseWriter, r *http.Request) {
	ov, err := h.reports.Overview(r.Context(), accessToken(r))
	if err != nil {
		h.handleBackendError(w, "load overview", err)
		return
	}
	httpx.JSON(w, http.StatusOK, ov)
}

func (h *Handler) handleUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.reports.UserPerformance(r.Context(), accessToken(r))
	if err != nil {
		h.handleBackendError(w, "load user performance", err)
		return
	}
	if users == nil {
		users = []reports.UserPerformance{}
	}
	if page, ok := httpx.PageFromQuery(r, len(users)); ok {
		start, end := page.Bounds()
		users = users[start:end]
		page.SetHeaders(w)
	}
	httpx.JSON(w, http.StatusOK, users)
}

func (h *Handler) handleCSV(w http.ResponseWriter, r *http.Request) {
	ov, err := h.reports.Overview(r.Context(), accessToken(r))
	if err != nil {
		h.handleBackendError(w, "load overview", err)
		return
	}
	buf := h.bufPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer h.bufPool.Put(buf)

	if err := export.WriteFullReportCSV(buf, ov); err != nil {
		if errors.Is(err, export.ErrNoData) {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		h.handleServerError(w, "write csv", err)
		return
	}
	h.recordExport(r, "admin_full", "csv", export.FullReportCSVFilename, len(ov.Statistics)+len(ov.Users)+len(ov.Results))
	if err := httpx.Attachment(w, "text/csv; charset=utf-8", export.FullReportCSVFilename, buf.Bytes()); err != nil {
		h.logger.Warn("write csv response", slog.Any("error", err))
	}
}

func (h *Handler) handleUsersPDF(w http.ResponseWriter, r *http.Request) {
	users, err := h.reports.UserPerformance(r.Context(), accessToken(r))
	if err != nil {
		h.handleBackendError(w, "load user performance", err)
		return
	}
	data, err := h.pdf.UserPerformancePDF(r.Context(), users)
	h.sendPDF(w, r, "admin_users", export.UserPerformancePDFFilename, len(users), data, err)
}

func (h *Handler) handleFullPDF(w http.ResponseWriter, r *http.Request) {
	ov, err := h.reports.Overview(r.Context(), accessToken(r))
	if err != nil {
		h.handleBackendError(w, "load overview", err)
		return
	}
	data, err := h.pdf.FullReportPDF(r.Context(), ov)
	h.sendPDF(w, r, "admin_full", export.FullReportPDFFilename, len(ov.Statistics)+len(ov.Users)+len(ov.Results), data, err)
}

func (h *Handler) sendPDF(w http.ResponseWriter, r *http.Request, report, filename string, rows int, data []byte, err error) {
	if errors.Is(err, export.ErrNoData) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		h.logger.Error("render pdf", slog.String("report", report), slog.Any("error", err))
		httpx.RespondError(w, httpx.ErrUpstream)
		return
	}
	h.recordExport(r, report, "pdf", filename, rows)
	if err := httpx.Attachment(w, "application/pdf", filename, data); err != nil {
		h.logger.Warn("write pdf response", slog.Any("error", err))
	}
}

type exportRequest struct {
	Kind string `json:"kind"`
}

type exportResponse struct {
	ID     string              `json:"id"`
	Kind   jobs.ExportKind     `json:"kind"`
	Status jobs.ArtifactStatus `json:"status"`
}

func (h *Handler) handleEnqueue(w http.ResponseWriter, r *http.Request) {
	if h.queue == nil || h.artifacts == nil {
		httpx.Problem(w, http.StatusServiceUnavailable, "Exports Unavailable", "asynchronous exports are not configured")
		return
	}
	var req exportRequest
	if r.ContentLength != 0 {
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.RespondError(w, err)
			return
		}
	}
	if req.Kind == "" {
		req.Kind = r.URL.Query().Get("kind")
	}
	kind, err := jobs.ParseExportKind(req.Kind)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	sess := session.FromContext(r.Context())
	user := session.CurrentUser(r)
	if sess == nil || user == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}

	id := uuid.NewString()
	if err := h.artifacts.MarkPending(r.Context(), id, kind, user.ID); err != nil {
		h.handleServerError(w, "mark export pending", err)
		return
	}
	payload := jobs.ReportExportPayload{JobID: id, SessionID: sess.ID, Kind: kind}
	if _, err := h.queue.EnqueueReportExport(r.Context(), payload); err != nil {
		h.handleServerError(w, "enqueue export", err)
		return
	}
	w.Header().Set("Location", "/admin/reports/exports/"+id)
	httpx.JSON(w, http.StatusAccepted, exportResponse{ID: id, Kind: kind, Status: jobs.StatusPending})
}

// loadArtifact fetches an export owned by the caller. Foreign ids look
// the same as unknown ones.
func (h *Handler) loadArtifact(w http.ResponseWriter, r *http.Request) (jobs.Artifact, bool) {
	if h.artifacts == nil {
		httpx.RespondError(w, httpx.ErrNotFound)
		return jobs.Artifact{}, false
	}
	art, err := h.artifacts.Fetch(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, jobs.ErrArtifactNotFound) {
			httpx.RespondError(w, httpx.ErrNotFound)
			return jobs.Artifact{}, false
		}
		h.handleServerError(w, "load export", err)
		return jobs.Artifact{}, false
	}
	user := session.CurrentUser(r)
	if user == nil || (art.OwnerID != "" && art.OwnerID != user.ID) {
		httpx.RespondError(w, httpx.ErrNotFound)
		return jobs.Artifact{}, false
	}
	return art, true
}

func (h *Handler) handleExportStatus(w http.ResponseWriter, r *http.Request) {
	art, ok := h.loadArtifact(w, r)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, art)
}

func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request) {
	art, ok := h.loadArtifact(w, r)
	if !ok {
		return
	}
	switch art.Status {
	case jobs.StatusDone:
		if err := httpx.Attachment(w, "application/pdf", art.Filename, art.Data); err != nil {
			h.logger.Warn("write export response", slog.Any("error", err))
		}
	case jobs.StatusEmpty:
		w.WriteHeader(http.StatusNoContent)
	default:
		httpx.Problem(w, http.StatusNotFound, "Not Found", "export is "+string(art.Status))
	}
}

func (h *Handler) handleAudit(w http.ResponseWriter, r *http.Request) {
	if h.audit == nil {
		httpx.JSON(w, http.StatusOK, []audit.ExportRecord{})
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	records, err := h.audit.Recent(r.Context(), limit)
	if err != nil {
		h.handleServerError(w, "load export audit", err)
		return
	}
	if records == nil {
		records = []audit.ExportRecord{}
	}
	httpx.JSON(w, http.StatusOK, records)
}

func (h *Handler) recordExport(r *http.Request, report, format, filename string, rows int) {
	if h.audit == nil {
		return
	}
	user := session.CurrentUser(r)
	if user == nil {
		return
	}
	rec := audit.ExportRecord{
		ActorID:    user.ID,
		ActorEmail: user.Email,
		Report:     report,
		Format:     format,
		Filename:   filename,
		Rows:       rows,
	}
	if err := h.audit.Record(r.Context(), rec); err != nil {
		h.logger.Warn("record export audit", slog.String("report", report), slog.Any("error", err))
	}
}

func (h *Handler) handleBackendError(w http.ResponseWriter, op string, err error) {
	mapped := backend.HTTPError(err)
	if errors.Is(mapped, httpx.ErrUpstream) {
		h.logger.Error(op, slog.Any("error", err))
	} else {
		h.logger.Warn(op, slog.Any("error", err))
	}
	httpx.RespondError(w, mapped)
}

func (h *Handler) handleServerError(w http.ResponseWriter, op string, err error) {
	h.logger.Error(op, slog.Any("error", err))
	httpx.RespondError(w, err)
}

func accessToken(r *http.Request) string {
	if sess := session.FromContext(r.Context()); sess != nil {
		return sess.AccessToken()
	}
	return ""
}
