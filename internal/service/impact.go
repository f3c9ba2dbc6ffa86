package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/domain"
)

type ImpactDeps struct {
	Impact domain.ImpactRepository
	Pools  domain.PoolRepository
	Logger zerolog.Logger
	Now    func() time.Time
}

// ImpactService aggregates pool activity into periodic reports.
type ImpactService struct {
	impact domain.ImpactRepository
	pools  domain.PoolRepository
	logger zerolog.Logger
	now    func() time.Time
}

func NewImpactService(d ImpactDeps) *ImpactService {
	return &ImpactService{impact: d.Impact, pools: d.Pools, logger: d.Logger, now: clockOrNow(d.Now)}
}

// Build aggregates [start, end) for one pool and stores the report, replacing an
// earlier report for the same period start.
func (s *ImpactService) Build(ctx context.Context, poolID string, start, end time.Time) (*domain.ImpactReport, error) {
	start, end = start.UTC(), end.UTC()
	if !end.After(start) {
		return nil, domain.Invalid("period", "end must be after start")
	}
	report, err := s.impact.Aggregate(ctx, poolID, start, end)
	if err != nil {
		return nil, fmt.Errorf("aggregate pool %s: %w", poolID, err)
	}
	report.PoolID = poolID
	report.PeriodStart, report.PeriodEnd = start, end
	if err := s.impact.Save(ctx, report); err != nil {
		return nil, fmt.Errorf("save impact report: %w", err)
	}
	return report, nil
}

// BuildPreviousWeek builds last Monday-to-Monday report for every pool. It keeps
// going past failing pools and returns how many reports were stored.
func (s *ImpactService) BuildPreviousWeek(ctx context.Context) (int, error) {
	end := domain.WeekStart(s.now())
	start := end.AddDate(0, 0, -7)
	pools, err := s.pools.List(ctx)
	if err != nil {
		return 0, err
	}
	var (
		built int
		errs  []error
	)
	for _, p := range pools {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		if _, err := s.Build(ctx, p.ID, start, end); err != nil {
			errs = append(errs, err)
			continue
		}
		built++
	}
	s.logger.Info().Int("reports", built).Time("period_start", start).Msg("weekly impact reports built")
	return built, errors.Join(errs...)
}

func (s *ImpactService) List(ctx context.Context, poolID string, limit int) ([]domain.ImpactReport, error) {
	return s.impact.ListByPool(ctx, poolID, limit)
}

func (s *ImpactService) Summary(ctx context.Context) (*domain.ImpactSummary, error) {
	return s.impact.Summary(ctx)
}
