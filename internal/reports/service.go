package reports

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// Source fetches raw report data from the backend.
type Source interface {
	ExamResults(ctx context.Context, token string) ([]ExamResult, error)
	ExamStatistics(ctx context.Context, token string) ([]ExamStatistics, error)
}

// buildTimeout bounds a shared overview build once detached from callers.
const buildTimeout = 30 * time.Second

// Service builds admin report overviews with caching.
type Service struct {
	source Source
	cache  *Cache
	policy MissingUserPolicy
	logger *slog.Logger
	group  singleflight.Group
	now    func() time.Time
}

// NewService wires a Source with a Cache helper.
func NewService(source Source, cache *Cache, policy MissingUserPolicy, logger *slog.Logger) *Service {
	if policy == "" {
		policy = SkipMissingUsers
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{source: source, cache: cache, policy: policy, logger: logger, now: time.Now}
}

// Policy returns the configured missing-user policy.
func (s *Service) Policy() MissingUserPolicy {
	return s.policy
}

// Overview returns statistics, results and per-user summaries.
func (s *Service) Overview(ctx context.Context, token string) (Overview, error) {
	key, err := s.cache.BuildKey(ctx, "reports", "overview", string(s.policy))
	if err != nil {
		return Overview{}, err
	}
	// Callers share a build only when they share a token, and the build
	// outlives the cancellation of whichever caller started it.
	ch := s.group.DoChan(key+"|"+tokenDigest(token), func() (any, error) {
		buildCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), buildTimeout)
		defer cancel()
		var ov Overview
		err := s.cache.FetchJSON(buildCtx, key, &ov, func(ctx context.Context) (any, error) {
			return s.build(ctx, token)
		})
		return ov, err
	})
	select {
	case <-ctx.Done():
		return Overview{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Overview{}, res.Err
		}
		return res.Val.(Overview), nil
	}
}

// UserPerformance returns the per-user summaries only.
func (s *Service) UserPerformance(ctx context.Context, token string) ([]UserPerformance, error) {
	ov, err := s.Overview(ctx, token)
	if err != nil {
		return nil, err
	}
	return ov.Users, nil
}

// Invalidate drops cached overviews.
func (s *Service) Invalidate(ctx context.Context) error {
	return s.cache.Bump(ctx)
}

func (s *Service) build(ctx context.Context, token string) (Overview, error) {
	var ov Overview
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		stats, err := s.source.ExamStatistics(gctx, token)
		if err != nil {
			return fmt.Errorf("reports: load statistics: %w", err)
		}
		ov.Statistics = stats
		return nil
	})
	g.Go(func() error {
		results, err := s.source.ExamResults(gctx, token)
		if err != nil {
			return fmt.Errorf("reports: load results: %w", err)
		}
		ov.Results = results
		return nil
	})
	if err := g.Wait(); err != nil {
		return Overview{}, err
	}

	users, skipped, err := Aggregate(ov.Results, s.policy)
	if err != nil {
		return Overview{}, err
	}
	if skipped > 0 {
		s.logger.Warn("exam results without user skipped", slog.Int("skipped", skipped), slog.Int("total", len(ov.Results)))
	}
	ov.Users = users
	ov.Skipped = skipped
	ov.GeneratedAt = s.now().UTC()
	return ov, nil
}

func tokenDigest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:8])
}
