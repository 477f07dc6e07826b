package analytics

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nulzo/oneai-gateway/internal/store"
	"github.com/nulzo/oneai-gateway/internal/store/cache"
	"github.com/nulzo/oneai-gateway/internal/store/model"
	"github.com/nulzo/oneai-gateway/pkg/api"
)

const (
	overviewCacheKey = "analytics:overview"
	overviewTTL      = 30 * time.Second
)

type Service interface {
	// Overview runs the dashboard aggregates concurrently. A failing
	// aggregate reports zero and never fails the call.
	Overview(ctx context.Context) (*api.DashboardOverview, error)
	GetUsageOverview(ctx context.Context, days int) ([]model.DailyStats, error)
}

type service struct {
	logger *zap.Logger
	repo   store.Repository
	cache  cache.CacheService
	now    func() time.Time
}

func NewService(logger *zap.Logger, repo store.Repository, c cache.CacheService) Service {
	return &service{
		logger: logger,
		repo:   repo,
		cache:  c,
		now:    time.Now,
	}
}

func (s *service) Overview(ctx context.Context) (*api.DashboardOverview, error) {
	if s.cache != nil {
		var cached api.DashboardOverview
		if err := s.cache.Get(ctx, overviewCacheKey, &cached); err == nil {
			return &cached, nil
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Debug("overview cache read failed", zap.Error(err))
		}
	}

	out := &api.DashboardOverview{GeneratedAt: s.now().UTC()}
	requests := s.repo.Requests()

	count := func(name string, dst *int64, f store.RequestFilter) func() error {
		return func() error {
			n, err := requests.Count(ctx, f)
			if err != nil {
				s.logger.Warn("overview aggregate failed", zap.String("aggregate", name), zap.Error(err))
				return nil
			}
			*dst = n
			return nil
		}
	}
	sum := func(name string, dst *int64, column string) func() error {
		return func() error {
			v, err := requests.Sum(ctx, column, store.RequestFilter{})
			if err != nil {
				s.logger.Warn("overview aggregate failed", zap.String("aggregate", name), zap.Error(err))
				return nil
			}
			*dst = int64(v)
			return nil
		}
	}

	var g errgroup.Group
	g.Go(count("total_requests", &out.TotalRequests, store.RequestFilter{}))
	g.Go(count("successful", &out.Successful, store.RequestFilter{Success: store.Bool(true), Degraded: store.Bool(false)}))
	g.Go(count("degraded", &out.Degraded, store.RequestFilter{Degraded: store.Bool(true)}))
	g.Go(count("failed", &out.Failed, store.RequestFilter{Success: store.Bool(false)}))
	g.Go(count("chat_requests", &out.ChatRequests, store.RequestFilter{Task: string(api.TaskChat)}))
	g.Go(count("image_requests", &out.ImageRequests, store.RequestFilter{Task: string(api.TaskImage)}))
	g.Go(sum("input_tokens", &out.InputTokens, "input_tokens"))
	g.Go(sum("output_tokens", &out.OutputTokens, "output_tokens"))
	_ = g.Wait()

	out.EstimatedCost = api.EstimateCost(api.Usage{InputTokens: int(out.InputTokens), OutputTokens: int(out.OutputTokens)})

	if s.cache != nil {
		if err := s.cache.Set(ctx, overviewCacheKey, out, overviewTTL); err != nil {
			s.logger.Debug("overview cache write failed", zap.Error(err))
		}
	}
	return out, nil
}

func (s *service) GetUsageOverview(ctx context.Context, days int) ([]model.DailyStats, error) {
	if days <= 0 {
		days = 7 // default to last week
	}
	return s.repo.Requests().DailyStats(ctx, days)
}
