package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/domain"
	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/infra"
	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/sqlinline"
)

// applyLedgerEntry records entry and moves the pool counters using q, which must
// be bound to an open transaction. The pool row is locked first so concurrent
// entries against the same pool serialise. applied is false when an entry with
// the same kind and reference already exists; the pool is returned unchanged.
func applyLedgerEntry(ctx context.Context, q infra.SQLExecutor, entry domain.LedgerEntry) (*domain.CommunityPool, bool, error) {
	var locked string
	if err := q.QueryRow(ctx, sqlinline.QLockPool, entry.PoolID).Scan(&locked); err != nil {
		return nil, false, fmt.Errorf("lock pool: %w", notFound(err))
	}

	var entryID string
	row := q.QueryRow(ctx, sqlinline.QInsertLedgerEntry,
		entry.PoolID,
		string(entry.Kind),
		entry.AmountCents,
		entry.WeeklyDeltaCents,
		entry.RefType,
		entry.RefID,
	)
	if err := row.Scan(&entryID, &entry.CreatedAt); err != nil {
		if infra.IsNoRows(err) {
			pool, err := scanPool(q.QueryRow(ctx, sqlinline.QSelectPoolByID, entry.PoolID))
			return pool, false, err
		}
		return nil, false, fmt.Errorf("insert ledger entry: %w", err)
	}

	delta := entry.Delta()
	pool, err := scanPool(q.QueryRow(ctx, sqlinline.QApplyPoolCounters,
		entry.PoolID,
		delta.FundsCents,
		delta.WeeklyCents,
		delta.DistributedCents,
		delta.Contributors,
		delta.Families,
	))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, false, domain.ErrInsufficientFunds
		}
		return nil, false, fmt.Errorf("apply pool counters: %w", err)
	}
	return pool, true, nil
}
