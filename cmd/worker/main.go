package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/learnhub-academy/learnhub/internal/app"
	"github.com/learnhub-academy/learnhub/internal/audit"
	"github.com/learnhub-academy/learnhub/internal/backend"
	jobmetrics "github.com/learnhub-academy/learnhub/internal/jobs"
	"github.com/learnhub-academy/learnhub/internal/platform/cache"
	"github.com/learnhub-academy/learnhub/internal/platform/db"
	"github.com/learnhub-academy/learnhub/internal/reports"
	"github.com/learnhub-academy/learnhub/internal/reports/export"
	"github.com/learnhub-academy/learnhub/internal/session"
	"github.com/learnhub-academy/learnhub/jobs"
	"github.com/learnhub-academy/learnhub/report"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg)

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	var auditor jobs.ExportAuditor
	if cfg.PGDSN != "" {
		var pool *pgxpool.Pool
		pool, err = db.New(ctx, cfg.PGDSN)
		if err != nil {
			logger.Error("connect postgres", slog.Any("error", err))
			os.Exit(1)
		}
		defer pool.Close()
		auditor = audit.NewRecorder(pool)
	}

	metrics := jobmetrics.NewMetrics(nil)
	reportService := reports.NewService(
		backend.NewClient(cfg.BackendAPIURL, cfg.BackendTimeout),
		reports.NewCache(redisClient, cfg.ReportCacheTTL),
		cfg.MissingUserPolicy(),
		logger,
	)
	sessions := session.NewManager(redisClient, session.Options{TTL: cfg.SessionTTL, Secure: cfg.IsProduction()})

	exportJob := jobs.NewReportExportJob(
		sessions,
		reportService,
		export.NewPDFExporter(report.NewClient(cfg.GotenbergURL)),
		jobs.NewArtifactStore(redisClient, cfg.ExportArtifactTTL),
		auditor,
		logger,
		metrics,
	)
	refreshJob := &jobs.ReportCacheRefreshJob{Reports: reportService, Logger: logger, Metrics: metrics}

	var cron []jobs.CronRegistration
	if cfg.ReportCacheRefreshCron != "" {
		cron = append(cron, jobs.CronRegistration{
			Spec:    cfg.ReportCacheRefreshCron,
			Task:    jobs.NewReportCacheRefreshTask(),
			Options: []asynq.Option{asynq.MaxRetry(1), asynq.Queue(jobs.QueueDefault)},
		})
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   cache.QueueOpts(redisClient),
		Logger:      logger,
		Concurrency: cfg.WorkerConcurrency,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskReportExport, Handler: exportJob.Handle},
			{Type: jobs.TaskReportCacheRefresh, Handler: refreshJob.Handle},
		},
		Cron: cron,
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	metricsServer := &http.Server{
		Addr:              cfg.WorkerMetricsAddr,
		Handler:           promhttp.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("worker metrics server", slog.Any("error", err))
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	logger.Info("worker started", slog.Int("concurrency", cfg.WorkerConcurrency))
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
