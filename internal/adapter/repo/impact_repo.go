package repo

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/domain"
	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/infra"
	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/sqlinline"
)

// ImpactRepositoryPG implements domain.ImpactRepository backed by PostgreSQL.
type ImpactRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewImpactRepository creates a new ImpactRepositoryPG.
func NewImpactRepository(sql infra.SQLExecutor) *ImpactRepositoryPG {
	return &ImpactRepositoryPG{sql: sql}
}

// Aggregate folds the pool's ledger entries in [start, end) into a report.
func (r *ImpactRepositoryPG) Aggregate(ctx context.Context, poolID string, start, end time.Time) (*domain.ImpactReport, error) {
	report := &domain.ImpactReport{PoolID: poolID, PeriodStart: start, PeriodEnd: end}
	row := r.sql.QueryRow(ctx, sqlinline.QAggregateImpact, poolID, start, end)
	if err := row.Scan(&report.ContributionsCents, &report.DistributedCents, &report.BillsPaid, &report.NewContributors); err != nil {
		return nil, err
	}
	report.FamiliesHelped = report.BillsPaid
	return report, nil
}

// Save upserts the report for its pool and period start.
func (r *ImpactRepositoryPG) Save(ctx context.Context, report *domain.ImpactReport) error {
	row := r.sql.QueryRow(ctx, sqlinline.QUpsertImpactReport,
		report.PoolID,
		report.PeriodStart,
		report.PeriodEnd,
		report.ContributionsCents,
		report.DistributedCents,
		report.FamiliesHelped,
		report.BillsPaid,
		report.NewContributors,
	)
	return row.Scan(&report.ID, &report.CreatedAt)
}

// ListByPool returns the pool's reports, most recent period first.
func (r *ImpactRepositoryPG) ListByPool(ctx context.Context, poolID string, limit int) ([]domain.ImpactReport, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListImpactReports, poolID, clampLimit(limit, 12, 104))
	if err != nil {
		return nil, err
	}
	return collect(rows, scanImpactReport)
}

// Summary totals every pool and campaign for the landing page.
func (r *ImpactRepositoryPG) Summary(ctx context.Context) (*domain.ImpactSummary, error) {
	var s domain.ImpactSummary
	if err := r.sql.QueryRow(ctx, sqlinline.QImpactSummary).Scan(
		&s.Pools,
		&s.FundsAvailableCents,
		&s.WeeklyCents,
		&s.DistributedCents,
		&s.Contributors,
		&s.FamiliesHelped,
		&s.ActiveCampaigns,
		&s.CampaignRaisedCents,
		&s.BillsAwaitingDecision,
	); err != nil {
		return nil, err
	}
	return &s, nil
}

func scanImpactReport(row pgx.Row) (*domain.ImpactReport, error) {
	var r domain.ImpactReport
	if err := row.Scan(
		&r.ID,
		&r.PoolID,
		&r.PeriodStart,
		&r.PeriodEnd,
		&r.ContributionsCents,
		&r.DistributedCents,
		&r.FamiliesHelped,
		&r.BillsPaid,
		&r.NewContributors,
		&r.CreatedAt,
	); err != nil {
		return nil, notFound(err)
	}
	return &r, nil
}

var _ domain.ImpactRepository = (*ImpactRepositoryPG)(nil)
