package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/learnhub-academy/learnhub/cmd/learnhub/cli"
	"github.com/learnhub-academy/learnhub/internal/app"
	"github.com/learnhub-academy/learnhub/internal/audit"
	"github.com/learnhub-academy/learnhub/internal/auth"
	"github.com/learnhub-academy/learnhub/internal/backend"
	"github.com/learnhub-academy/learnhub/internal/catalog"
	"github.com/learnhub-academy/learnhub/internal/observability"
	"github.com/learnhub-academy/learnhub/internal/platform/cache"
	"github.com/learnhub-academy/learnhub/internal/platform/db"
	"github.com/learnhub-academy/learnhub/internal/rbac"
	"github.com/learnhub-academy/learnhub/internal/reports"
	"github.com/learnhub-academy/learnhub/internal/reports/export"
	reportshttp "github.com/learnhub-academy/learnhub/internal/reports/http"
	"github.com/learnhub-academy/learnhub/internal/session"
	"github.com/learnhub-academy/learnhub/jobs"
	"github.com/learnhub-academy/learnhub/migrations"
	"github.com/learnhub-academy/learnhub/report"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "rbac" {
		os.Exit(runRBAC(os.Args[2:]))
	}
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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

	if len(os.Args) > 1 && os.Args[1] == "jobs" {
		os.Exit(runJobs(ctx, cfg, os.Args[2:]))
	}

	if err := rbac.ValidateTable(); err != nil {
		logger.Error("invalid permission table", slog.Any("error", err))
		os.Exit(1)
	}

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

	var (
		dbpool   *pgxpool.Pool
		recorder reportshttp.AuditLog
	)
	if cfg.PGDSN != "" {
		dbpool, err = db.New(ctx, cfg.PGDSN)
		if err != nil {
			logger.Error("connect postgres", slog.Any("error", err))
			os.Exit(1)
		}
		defer dbpool.Close()
		applied, err := db.Migrate(ctx, dbpool, migrations.FS)
		if err != nil {
			logger.Error("migrate", slog.Any("error", err))
			os.Exit(1)
		}
		if len(applied) > 0 {
			logger.Info("applied migrations", slog.Any("names", applied))
		}
		recorder = audit.NewRecorder(dbpool)
	} else {
		logger.Warn("PG_DSN not set, export auditing disabled")
	}

	metrics := observability.NewMetrics()
	sessionManager := session.NewManager(redisClient, session.Options{
		TTL:    cfg.SessionTTL,
		Secure: cfg.IsProduction(),
		Hooks: metrics.SessionHooks(session.Hooks{
			OnDestroy: func(_ context.Context, sess *session.Session) {
				logger.Debug("session destroyed", slog.String("session_id", sess.ID))
			},
		}),
	})
	csrfManager := session.NewCSRFManager(cfg.CSRFKey())
	rbacMiddleware := rbac.Middleware{Resolve: session.CurrentUser, Logger: logger}

	backendClient := backend.NewClient(cfg.BackendAPIURL, cfg.BackendTimeout)
	reportService := reports.NewService(backendClient, reports.NewCache(redisClient, cfg.ReportCacheTTL), cfg.MissingUserPolicy(), logger)
	pdfClient := report.NewClient(cfg.GotenbergURL)

	queueOpts := cache.QueueOpts(redisClient)
	jobClient, err := jobs.NewClient(queueOpts)
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	inspector := asynq.NewInspector(queueOpts)
	defer func() { _ = inspector.Close() }()

	readiness := map[string]app.Pinger{
		"redis":     cache.Pinger{Client: redisClient},
		"gotenberg": pdfClient,
	}
	if dbpool != nil {
		readiness["postgres"] = dbpool
	}

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		SessionManager:     sessionManager,
		CSRFManager:        csrfManager,
		RBACMiddleware:     rbacMiddleware,
		AuthHandler:        auth.NewHandler(logger, auth.NewService(backendClient), sessionManager, csrfManager),
		CatalogHandler:     catalog.NewHandler(logger, backendClient, rbacMiddleware, catalog.Resources()),
		PermissionsHandler: rbac.NewPermissionsHandler(session.CurrentUser, rbacMiddleware),
		ReportsHandler: reportshttp.NewHandler(reportshttp.Config{
			Logger:           logger,
			Reports:          reportService,
			PDF:              export.NewPDFExporter(pdfClient),
			Audit:            recorder,
			Queue:            jobClient,
			Artifacts:        jobs.NewArtifactStore(redisClient, cfg.ExportArtifactTTL),
			RBAC:             rbacMiddleware,
			ExportsPerMinute: cfg.ExportsPerMinute,
		}),
		ReportHandler: report.NewHandler(pdfClient, logger),
		JobHandler:    jobs.NewHandler(inspector, logger),
		Metrics:       metrics,
		Readiness:     readiness,
	})

	server := &http.Server{
		Addr:              cfg.AppAddr,
		Handler:           router,
		ReadTimeout:       cfg.AppReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("gateway listening", slog.String("addr", cfg.AppAddr), slog.String("backend", cfg.BackendAPIURL))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", slog.Any("error", err))
	}
}

func runRBAC(args []string) int {
	fs := flag.NewFlagSet("rbac", flag.ContinueOnError)
	role := fs.String("role", "", "print a single role")
	asJSON := fs.Bool("json", false, "emit JSON")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	return cli.RBACCommand(cli.RBACOptions{Role: *role, JSONOutput: *asJSON})
}

func runJobs(ctx context.Context, cfg *app.Config, args []string) int {
	if len(args) == 0 {
		_, _ = fmt.Fprintln(os.Stderr, "usage: learnhub jobs stats|failed|trigger <task>")
		return 1
	}
	c := cli.NewJobsCLI(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() { _ = c.Close() }()

	var (
		out any
		err error
	)
	switch args[0] {
	case "stats":
		out, err = c.InspectQueue(ctx)
	case "failed":
		out, err = c.ListFailed(ctx, 20)
	case "trigger":
		if len(args) < 2 {
			err = errors.New("trigger requires a task name")
			break
		}
		out, err = c.Trigger(ctx, args[1])
	default:
		err = fmt.Errorf("unknown jobs command %q", args[0])
	}
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "jobs: %v\n", err)
		return 1
	}
	if err := json.NewEncoder(os.Stdout).Encode(out); err != nil {
		return 1
	}
	return 0
}
