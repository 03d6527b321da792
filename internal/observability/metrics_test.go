package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	jobmetrics "github.com/learnhub-academy/learnhub/internal/jobs"
	"github.com/learnhub-academy/learnhub/internal/rbac"
	"github.com/learnhub-academy/learnhub/internal/session"
)

func TestMetricsHandlerExposesPrometheusMetrics(t *testing.T) {
	metrics := NewMetrics()
	jobmetrics.NewMetrics(metrics.Registerer()).Track("reports:export").End(nil)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)

	metrics.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rr.Code)
	}

	body := rr.Body.String()
	if !strings.Contains(body, "learnhub_jobs_total") {
		t.Fatalf("expected body to contain learnhub_jobs_total, got: %s", body)
	}
}

func TestMetricsMiddlewareRecordsRequest(t *testing.T) {
	metrics := NewMetrics()

	handler := metrics.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	routeCtx := chi.NewRouteContext()
	routeCtx.RoutePatterns = append(routeCtx.RoutePatterns, "/test")

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx)
	req = req.WithContext(ctx)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusTeapot {
		t.Fatalf("expected status %d, got %d", http.StatusTeapot, rr.Code)
	}

	metricsRR := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(metricsRR, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	metricsBody := metricsRR.Body.String()
	if !strings.Contains(metricsBody, "http_requests_total{code=\"418\",route=\"/test\"} 1") {
		t.Fatalf("expected metrics to record request, got: %s", metricsBody)
	}
	if !strings.Contains(metricsBody, "http_request_duration_seconds_bucket{route=\"/test\"") {
		t.Fatalf("expected duration histogram to be present, got: %s", metricsBody)
	}
}

func TestSessionHooksCountLifecycle(t *testing.T) {
	metrics := NewMetrics()
	var chained int
	hooks := metrics.SessionHooks(session.Hooks{OnSave: func(context.Context, *session.Session) { chained++ }})

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	mgr := session.NewManager(client, session.Options{TTL: time.Hour, Hooks: hooks})

	ctx := context.Background()
	sess, err := mgr.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := sess.SetAuth("tok", rbac.User{ID: "u1", Role: rbac.RoleAdmin}); err != nil {
		t.Fatalf("set auth: %v", err)
	}
	if err := mgr.Commit(ctx, httptest.NewRecorder(), sess); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if chained != 1 {
		t.Fatalf("expected chained save hook to run once, got %d", chained)
	}

	rr := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rr.Body.String()
	if !strings.Contains(body, `learnhub_session_events_total{auth="anonymous",event="load"} 1`) {
		t.Fatalf("expected anonymous load event, got: %s", body)
	}
	if !strings.Contains(body, `learnhub_session_events_total{auth="authenticated",event="save"} 1`) {
		t.Fatalf("expected authenticated save event, got: %s", body)
	}
}
