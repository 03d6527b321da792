package reports

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	results     []ExamResult
	stats       []ExamStatistics
	resultsErr  error
	resultCalls atomic.Int32
	statCalls   atomic.Int32
	lastToken   string
}

func (s *stubSource) ExamResults(ctx context.Context, token string) ([]ExamResult, error) {
	s.resultCalls.Add(1)
	s.lastToken = token
	return s.results, s.resultsErr
}

func (s *stubSource) ExamStatistics(ctx context.Context, token string) ([]ExamStatistics, error) {
	s.statCalls.Add(1)
	return s.stats, nil
}

func newTestService(t *testing.T, src Source, policy MissingUserPolicy) *Service {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	svc := NewService(src, NewCache(client, time.Minute), policy, nil)
	svc.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return svc
}

func sampleSource() *stubSource {
	return &stubSource{
		stats: []ExamStatistics{{ExamID: "e1", ExamTitle: "Go, Basics", TotalParticipants: 2, AverageScore: 65, PassRate: 50}},
		results: []ExamResult{
			{ID: "r1", User: &UserRef{ID: "u1", Name: "Ada"}, Exam: ExamRef{ID: "e1", Title: "Go, Basics"}, Percentage: 80, Passed: true},
			{ID: "r2", User: &UserRef{ID: "u2", Name: "Linus"}, Exam: ExamRef{ID: "e1"}, Percentage: 50, Passed: false},
			{ID: "r3", Exam: ExamRef{ID: "e1"}, Percentage: 99, Passed: true},
		},
	}
}

func TestOverviewAggregatesAndCaches(t *testing.T) {
	src := sampleSource()
	svc := newTestService(t, src, SkipMissingUsers)
	ctx := context.Background()

	ov, err := svc.Overview(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, "tok", src.lastToken)
	assert.Len(t, ov.Statistics, 1)
	assert.Len(t, ov.Results, 3)
	require.Len(t, ov.Users, 2)
	assert.Equal(t, 1, ov.Skipped)
	assert.Equal(t, "Ada", ov.Users[0].Name)
	assert.Nil(t, ov.Results[2].User)

	_, err = svc.Overview(ctx, "tok")
	require.NoError(t, err)
	assert.EqualValues(t, 1, src.resultCalls.Load())
	assert.EqualValues(t, 1, src.statCalls.Load())

	require.NoError(t, svc.Invalidate(ctx))
	users, err := svc.UserPerformance(ctx, "tok")
	require.NoError(t, err)
	assert.Len(t, users, 2)
	assert.EqualValues(t, 2, src.resultCalls.Load())
}

func TestOverviewPropagatesSourceError(t *testing.T) {
	boom := errors.New("boom")
	src := sampleSource()
	src.resultsErr = boom
	svc := newTestService(t, src, SkipMissingUsers)
	_, err := svc.Overview(context.Background(), "tok")
	assert.ErrorIs(t, err, boom)
}

func TestOverviewRejectPolicy(t *testing.T) {
	svc := newTestService(t, sampleSource(), RejectMissingUsers)
	_, err := svc.Overview(context.Background(), "tok")
	assert.ErrorIs(t, err, ErrMissingUser)
}

func TestOverviewWithoutRedis(t *testing.T) {
	src := sampleSource()
	svc := NewService(src, nil, GroupMissingUsers, nil)
	ov, err := svc.Overview(context.Background(), "tok")
	require.NoError(t, err)
	require.Len(t, ov.Users, 3)
	assert.Equal(t, UnattributedName, ov.Users[2].Name)
	assert.False(t, ov.Empty())
}

type gatedSource struct {
	started chan struct{}
	release chan struct{}
	calls   atomic.Int32
	once    sync.Once
}

func (s *gatedSource) ExamResults(ctx context.Context, token string) ([]ExamResult, error) {
	s.calls.Add(1)
	s.once.Do(func() { close(s.started) })
	select {
	case <-s.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if token != "tok" {
		return nil, errors.New("unexpected token")
	}
	return []ExamResult{{ID: "r1", User: &UserRef{ID: "u1", Name: "Ada"}, Exam: ExamRef{ID: "e1"}, Percentage: 70, Passed: true}}, nil
}

func (s *gatedSource) ExamStatistics(context.Context, string) ([]ExamStatistics, error) {
	return []ExamStatistics{{ExamID: "e1", TotalParticipants: 1}}, nil
}

func TestOverviewBuildSurvivesFirstCallerCancel(t *testing.T) {
	src := &gatedSource{started: make(chan struct{}), release: make(chan struct{})}
	svc := newTestService(t, src, SkipMissingUsers)

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := svc.Overview(firstCtx, "tok")
		firstErr <- err
	}()
	<-src.started

	type result struct {
		ov  Overview
		err error
	}
	second := make(chan result, 1)
	go func() {
		ov, err := svc.Overview(context.Background(), "tok")
		second <- result{ov, err}
	}()

	cancelFirst()
	require.ErrorIs(t, <-firstErr, context.Canceled)
	close(src.release)

	got := <-second
	require.NoError(t, got.err)
	require.Len(t, got.ov.Users, 1)
	assert.Equal(t, "Ada", got.ov.Users[0].Name)
	assert.EqualValues(t, 1, src.calls.Load())
}

type tokenSource struct{}

func (tokenSource) ExamResults(_ context.Context, token string) ([]ExamResult, error) {
	if token != "tok-admin" {
		return nil, errors.New("backend: unauthorized")
	}
	return nil, nil
}

func (tokenSource) ExamStatistics(context.Context, string) ([]ExamStatistics, error) {
	return nil, nil
}

func TestOverviewErrorsStayWithTheirToken(t *testing.T) {
	svc := newTestService(t, tokenSource{}, SkipMissingUsers)

	_, err := svc.Overview(context.Background(), "tok-expired")
	require.Error(t, err)

	_, err = svc.Overview(context.Background(), "tok-admin")
	require.NoError(t, err)
}
