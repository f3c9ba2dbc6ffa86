package repo

import (
	"context"
	"errors"

	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/domain"
	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/infra"
	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/sqlinline"
)

// PoolRepositoryPG implements domain.PoolRepository backed by PostgreSQL.
type PoolRepositoryPG struct {
	sql infra.TxExecutor
}

// NewPoolRepository creates a new PoolRepositoryPG.
func NewPoolRepository(sql infra.TxExecutor) *PoolRepositoryPG {
	return &PoolRepositoryPG{sql: sql}
}

// GetOrCreate returns the pool for the location, creating an empty one when missing.
func (r *PoolRepositoryPG) GetOrCreate(ctx context.Context, loc domain.Location) (*domain.CommunityPool, error) {
	loc = loc.Normalize()
	if loc.IsZero() {
		return nil, domain.Invalid("location", "city and province are required")
	}
	if existing, err := r.FindByLocation(ctx, loc); err == nil {
		return existing, nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	return scanPool(r.sql.QueryRow(ctx, sqlinline.QGetOrCreatePool, loc.City, loc.Province))
}

// GetByID fetches a pool by UUID.
func (r *PoolRepositoryPG) GetByID(ctx context.Context, id string) (*domain.CommunityPool, error) {
	return scanPool(r.sql.QueryRow(ctx, sqlinline.QSelectPoolByID, id))
}

// FindByLocation matches the city case-insensitively within the province.
func (r *PoolRepositoryPG) FindByLocation(ctx context.Context, loc domain.Location) (*domain.CommunityPool, error) {
	loc = loc.Normalize()
	return scanPool(r.sql.QueryRow(ctx, sqlinline.QSelectPoolByLocation, loc.City, loc.Province))
}

// List returns every pool, richest first.
func (r *PoolRepositoryPG) List(ctx context.Context) ([]domain.CommunityPool, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListPools)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanPool)
}

// Apply records a ledger entry in its own transaction.
func (r *PoolRepositoryPG) Apply(ctx context.Context, entry domain.LedgerEntry) (*domain.CommunityPool, bool, error) {
	var (
		pool    *domain.CommunityPool
		applied bool
	)
	err := r.sql.InTx(ctx, func(q infra.SQLExecutor) error {
		var err error
		pool, applied, err = applyLedgerEntry(ctx, q, entry)
		return err
	})
	if err != nil {
		return nil, false, err
	}
	return pool, applied, nil
}

// Ledger lists the most recent entries for a pool.
func (r *PoolRepositoryPG) Ledger(ctx context.Context, poolID string, limit int) ([]domain.LedgerEntry, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListLedger, poolID, clampLimit(limit, 50, 500))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []domain.LedgerEntry
	for rows.Next() {
		var (
			e    domain.LedgerEntry
			kind string
		)
		if err := rows.Scan(&e.ID, &e.PoolID, &kind, &e.AmountCents, &e.WeeklyDeltaCents, &e.RefType, &e.RefID, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Kind = domain.LedgerKind(kind)
		items = append(items, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

var _ domain.PoolRepository = (*PoolRepositoryPG)(nil)
