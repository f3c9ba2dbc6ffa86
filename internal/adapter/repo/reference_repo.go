package repo

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/domain"
	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/infra"
	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/sqlinline"
)

// ReferenceRepositoryPG serves the informational charity and needs records.
type ReferenceRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewReferenceRepository creates a new ReferenceRepositoryPG.
func NewReferenceRepository(sql infra.SQLExecutor) *ReferenceRepositoryPG {
	return &ReferenceRepositoryPG{sql: sql}
}

// Charities exposes the charity half of the repository as domain.CharityRepository.
func (r *ReferenceRepositoryPG) Charities() domain.CharityRepository { return charityRepo{r} }

// Needs exposes the needs half of the repository as domain.NeedsRepository.
func (r *ReferenceRepositoryPG) Needs() domain.NeedsRepository { return needsRepo{r} }

type charityRepo struct{ r *ReferenceRepositoryPG }

func (c charityRepo) List(ctx context.Context, category string) ([]domain.Charity, error) {
	rows, err := c.r.sql.Query(ctx, sqlinline.QListCharities, strings.TrimSpace(category))
	if err != nil {
		return nil, err
	}
	return collect(rows, scanCharity)
}

func (c charityRepo) GetBySlug(ctx context.Context, slug string) (*domain.Charity, error) {
	return scanCharity(c.r.sql.QueryRow(ctx, sqlinline.QSelectCharityBySlug, slug))
}

func (c charityRepo) Upsert(ctx context.Context, ch *domain.Charity) error {
	row := c.r.sql.QueryRow(ctx, sqlinline.QUpsertCharity,
		ch.Name,
		ch.Slug,
		ch.Description,
		ch.Website,
		ch.Category,
		ch.City,
		ch.Province,
	)
	return row.Scan(&ch.ID)
}

func scanCharity(row pgx.Row) (*domain.Charity, error) {
	var c domain.Charity
	if err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.Website, &c.Category, &c.City, &c.Province); err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

type needsRepo struct{ r *ReferenceRepositoryPG }

func (n needsRepo) ForLocation(ctx context.Context, loc domain.Location) (*domain.NeedsData, error) {
	loc = loc.Normalize()
	return scanNeeds(n.r.sql.QueryRow(ctx, sqlinline.QSelectNeedsForLocation, loc.City, loc.Province))
}

func (n needsRepo) List(ctx context.Context) ([]domain.NeedsData, error) {
	rows, err := n.r.sql.Query(ctx, sqlinline.QListNeeds)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanNeeds)
}

func (n needsRepo) Upsert(ctx context.Context, nd *domain.NeedsData) error {
	loc := domain.Location{City: nd.City, Province: nd.Province}.Normalize()
	nd.City, nd.Province = loc.City, loc.Province
	row := n.r.sql.QueryRow(ctx, sqlinline.QUpsertNeeds,
		nd.City,
		nd.Province,
		nd.HouseholdsInNeed,
		nd.AverageBillCents,
		nd.EnergyPovertyRate,
		nd.Source,
	)
	return row.Scan(&nd.ID, &nd.UpdatedAt)
}

func scanNeeds(row pgx.Row) (*domain.NeedsData, error) {
	var n domain.NeedsData
	if err := row.Scan(&n.ID, &n.City, &n.Province, &n.HouseholdsInNeed, &n.AverageBillCents, &n.EnergyPovertyRate, &n.Source, &n.UpdatedAt); err != nil {
		return nil, notFound(err)
	}
	return &n, nil
}
