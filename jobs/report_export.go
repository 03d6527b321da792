package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/learnhub-academy/learnhub/internal/audit"
	jobmetrics "github.com/learnhub-academy/learnhub/internal/jobs"
	"github.com/learnhub-academy/learnhub/internal/rbac"
	"github.com/learnhub-academy/learnhub/internal/reports"
	"github.com/learnhub-academy/learnhub/internal/reports/export"
	"github.com/learnhub-academy/learnhub/internal/session"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// SessionLookup resolves the session that requested an export.
type SessionLookup interface {
	Lookup(ctx context.Context, id string) (*session.Session, error)
}

// OverviewSource builds the report data for a bearer token.
type OverviewSource interface {
	Overview(ctx context.Context, token string) (reports.Overview, error)
}

// ExportAuditor persists a trail entry for every generated file.
type ExportAuditor interface {
	Record(ctx context.Context, rec audit.ExportRecord) error
}

// ReportExportJob renders report PDFs outside the request cycle.
type ReportExportJob struct {
	Sessions  SessionLookup
	Reports   OverviewSource
	Exporter  *export.PDFExporter
	Artifacts *ArtifactStore
	Audit     ExportAuditor
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
}

// NewReportExportJob wires dependencies for the export handler.
func NewReportExportJob(sessions SessionLookup, source OverviewSource, exporter *export.PDFExporter, artifacts *ArtifactStore, auditor ExportAuditor, logger *slog.Logger, metrics *jobmetrics.Metrics) *ReportExportJob {
	return &ReportExportJob{
		Sessions:  sessions,
		Reports:   source,
		Exporter:  exporter,
		Artifacts: artifacts,
		Audit:     auditor,
		Logger:    logger,
		Metrics:   metrics,
	}
}

// Handle processes TaskReportExport tasks.
func (j *ReportExportJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Artifacts == nil || j.Exporter == nil {
		return errors.New("report export: handler not configured")
	}
	var payload ReportExportPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil || payload.JobID == "" {
		return asynq.SkipRetry
	}
	kind, err := ParseExportKind(string(payload.Kind))
	if err != nil {
		_ = j.Artifacts.MarkFailed(ctx, payload.JobID, err)
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	}

	tracker := j.metrics().Track(TaskReportExport)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(slog.String("job_id", payload.JobID), slog.String("kind", string(kind)))
	start := time.Now()

	sess, err := j.Sessions.Lookup(ctx, payload.SessionID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return j.fail(ctx, logger, payload.JobID, kind, err, true)
		}
		return j.fail(ctx, logger, payload.JobID, kind, err, false)
	}
	user := sess.CurrentUser()
	if user == nil || sess.AccessToken() == "" {
		return j.fail(ctx, logger, payload.JobID, kind, rbac.ErrUnauthenticated, true)
	}
	if !rbac.HasPermission(user, rbac.PermExportReports) {
		return j.fail(ctx, logger, payload.JobID, kind, rbac.ErrForbidden, true)
	}

	ov, err := j.Reports.Overview(ctx, sess.AccessToken())
	if err != nil {
		return j.fail(ctx, logger, payload.JobID, kind, err, false)
	}

	var (
		data     []byte
		filename string
		rows     int
	)
	switch kind {
	case ExportUsers:
		data, err = j.Exporter.UserPerformancePDF(ctx, ov.Users)
		filename, rows = export.UserPerformancePDFFilename, len(ov.Users)
	default:
		data, err = j.Exporter.FullReportPDF(ctx, ov)
		filename, rows = export.FullReportPDFFilename, len(ov.Statistics)+len(ov.Users)+len(ov.Results)
	}
	if errors.Is(err, export.ErrNoData) {
		logger.Info("report export has no data")
		j.metrics().AddExport(string(kind), string(StatusEmpty))
		return j.Artifacts.MarkEmpty(ctx, payload.JobID)
	}
	if err != nil {
		return j.fail(ctx, logger, payload.JobID, kind, err, false)
	}

	if err := j.Artifacts.Complete(ctx, payload.JobID, filename, data); err != nil {
		logger.Error("store export artifact", slog.Any("error", err))
		return err
	}
	j.metrics().AddExport(string(kind), string(StatusDone))
	if j.Audit != nil {
		rec := audit.ExportRecord{
			ActorID:    user.ID,
			ActorEmail: user.Email,
			Report:     "admin_" + string(kind),
			Format:     "pdf",
			Filename:   filename,
			Rows:       rows,
		}
		if err := j.Audit.Record(ctx, rec); err != nil {
			logger.Warn("record export audit", slog.Any("error", err))
		}
	}
	logger.Info("completed report export", slog.Int("bytes", len(data)), slog.Duration("duration", time.Since(start)))
	return nil
}

// fail marks the artifact failed once no retry will follow.
func (j *ReportExportJob) fail(ctx context.Context, logger *slog.Logger, id string, kind ExportKind, cause error, terminal bool) error {
	if !terminal {
		retried, _ := asynq.GetRetryCount(ctx)
		maxRetry, _ := asynq.GetMaxRetry(ctx)
		terminal = retried >= maxRetry
	}
	logger.Error("report export failed", slog.Bool("terminal", terminal), slog.Any("error", cause))
	if !terminal {
		return cause
	}
	if err := j.Artifacts.MarkFailed(ctx, id, cause); err != nil {
		logger.Warn("mark export failed", slog.Any("error", err))
	}
	j.metrics().AddExport(string(kind), string(StatusFailed))
	return fmt.Errorf("%w: %w", cause, asynq.SkipRetry)
}

func (j *ReportExportJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}

func (j *ReportExportJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

// CacheInvalidator drops cached report data.
type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

// ReportCacheRefreshJob bumps the report cache version on a schedule so
// admins see backend changes without waiting for the TTL.
type ReportCacheRefreshJob struct {
	Reports CacheInvalidator
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// Handle processes TaskReportCacheRefresh tasks.
func (j *ReportCacheRefreshJob) Handle(ctx context.Context, _ *asynq.Task) error {
	if j == nil || j.Reports == nil {
		return errors.New("report cache refresh: handler not configured")
	}
	metrics := j.Metrics
	if metrics == nil {
		metrics = defaultJobMetrics
	}
	err := metrics.Track(TaskReportCacheRefresh).End(j.Reports.Invalidate(ctx))
	if err != nil {
		logger := j.Logger
		if logger == nil {
			logger = slog.Default()
		}
		logger.Error("refresh report cache", slog.Any("error", err))
	}
	return err
}
