package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/domain"
	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/infra"
	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/sqlinline"
)

// SubscriptionRepositoryPG implements domain.SubscriptionRepository backed by PostgreSQL.
type SubscriptionRepositoryPG struct {
	sql infra.TxExecutor
}

// NewSubscriptionRepository creates a new SubscriptionRepositoryPG.
func NewSubscriptionRepository(sql infra.TxExecutor) *SubscriptionRepositoryPG {
	return &SubscriptionRepositoryPG{sql: sql}
}

// Sync upserts the provider snapshot and books the weekly-contribution change it implies.
func (r *SubscriptionRepositoryPG) Sync(ctx context.Context, sub *domain.Subscription, eventRef string) (*domain.Subscription, *domain.CommunityPool, error) {
	var (
		next *domain.Subscription
		pool *domain.CommunityPool
	)
	err := r.sql.InTx(ctx, func(q infra.SQLExecutor) error {
		prev, err := scanSubscription(q.QueryRow(ctx, sqlinline.QLockSubscriptionByStripeID, sub.StripeSubscriptionID))
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}

		copied := *sub
		next = &copied
		if prev == nil {
			if next.UserID == "" || next.PoolID == "" {
				return domain.Invalid("subscription", "user and pool are required for a new subscription")
			}
			row := q.QueryRow(ctx, sqlinline.QInsertSubscription,
				next.UserID,
				next.PoolID,
				next.StripeSubscriptionID,
				next.StripeCustomerID,
				next.AmountCents,
				string(next.Interval),
				string(next.Status),
				nullableTime(next.CurrentPeriodEnd),
				next.CancelAtPeriodEnd,
			)
			if err := row.Scan(&next.ID, &next.TotalContributedCents, &next.CreatedAt, &next.UpdatedAt); err != nil {
				if infra.IsNoRows(err) {
					return fmt.Errorf("%w: subscription %s inserted concurrently", domain.ErrDuplicateOperation, next.StripeSubscriptionID)
				}
				return err
			}
		} else {
			next.ID = prev.ID
			next.UserID = prev.UserID
			next.PoolID = prev.PoolID
			next.TotalContributedCents = prev.TotalContributedCents
			next.CreatedAt = prev.CreatedAt
			if next.StripeCustomerID == "" {
				next.StripeCustomerID = prev.StripeCustomerID
			}
			row := q.QueryRow(ctx, sqlinline.QUpdateSubscription,
				next.StripeSubscriptionID,
				next.StripeCustomerID,
				next.AmountCents,
				string(next.Interval),
				string(next.Status),
				nullableTime(next.CurrentPeriodEnd),
				next.CancelAtPeriodEnd,
			)
			if err := row.Scan(&next.UpdatedAt); err != nil {
				return notFound(err)
			}
		}

		entry, ok := domain.SubscriptionLedgerEntry(prev, next, eventRef)
		if !ok {
			pool, err = scanPool(q.QueryRow(ctx, sqlinline.QSelectPoolByID, next.PoolID))
			return err
		}
		pool, _, err = applyLedgerEntry(ctx, q, entry)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return next, pool, nil
}

// GetByStripeID fetches a subscription by the provider's id.
func (r *SubscriptionRepositoryPG) GetByStripeID(ctx context.Context, stripeID string) (*domain.Subscription, error) {
	return scanSubscription(r.sql.QueryRow(ctx, sqlinline.QSelectSubscriptionByStripeID, stripeID))
}

// ListByUser returns a contributor's subscriptions.
func (r *SubscriptionRepositoryPG) ListByUser(ctx context.Context, userID string) ([]domain.Subscription, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListSubscriptionsByUser, userID)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanSubscription)
}

// RecordContribution credits a paid invoice to the pool and the subscription total once.
func (r *SubscriptionRepositoryPG) RecordContribution(ctx context.Context, stripeID, invoiceID string, amountCents int64) (*domain.Subscription, *domain.CommunityPool, error) {
	var (
		sub  *domain.Subscription
		pool *domain.CommunityPool
	)
	err := r.sql.InTx(ctx, func(q infra.SQLExecutor) error {
		var err error
		sub, err = scanSubscription(q.QueryRow(ctx, sqlinline.QLockSubscriptionByStripeID, stripeID))
		if err != nil {
			return err
		}
		var applied bool
		pool, applied, err = applyLedgerEntry(ctx, q, domain.LedgerEntry{
			PoolID:      sub.PoolID,
			Kind:        domain.LedgerContribution,
			AmountCents: amountCents,
			RefType:     "invoice",
			RefID:       invoiceID,
		})
		if err != nil || !applied {
			return err
		}
		return q.QueryRow(ctx, sqlinline.QAddSubscriptionContribution, sub.ID, amountCents).Scan(&sub.TotalContributedCents, &sub.UpdatedAt)
	})
	if err != nil {
		return nil, nil, err
	}
	return sub, pool, nil
}

var _ domain.SubscriptionRepository = (*SubscriptionRepositoryPG)(nil)
