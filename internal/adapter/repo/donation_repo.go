package repo

import (
	"context"

	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/domain"
	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/infra"
	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/sqlinline"
)

// DonationRepositoryPG implements domain.DonationRepository using PostgreSQL.
type DonationRepositoryPG struct {
	sql infra.TxExecutor
}

// NewDonationRepository creates a new donation repo.
func NewDonationRepository(sql infra.TxExecutor) *DonationRepositoryPG {
	return &DonationRepositoryPG{sql: sql}
}

// CreatePending inserts a one-time donation awaiting checkout completion.
func (r *DonationRepositoryPG) CreatePending(ctx context.Context, d *domain.OneTimeDonation) error {
	userID := ""
	if d.UserID != nil {
		userID = *d.UserID
	}
	var status string
	row := r.sql.QueryRow(ctx, sqlinline.QInsertDonation, userID, d.PoolID, d.StripeSessionID, d.AmountCents)
	if err := row.Scan(&d.ID, &status, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return err
	}
	d.Status = domain.DonationStatus(status)
	return nil
}

// FindBySession looks a donation up by checkout session id.
func (r *DonationRepositoryPG) FindBySession(ctx context.Context, sessionID string) (*domain.OneTimeDonation, error) {
	return scanDonation(r.sql.QueryRow(ctx, sqlinline.QSelectDonationBySession, sessionID))
}

// FindByPaymentIntent looks a donation up by payment intent id.
func (r *DonationRepositoryPG) FindByPaymentIntent(ctx context.Context, paymentIntentID string) (*domain.OneTimeDonation, error) {
	return scanDonation(r.sql.QueryRow(ctx, sqlinline.QSelectDonationByPaymentIntent, paymentIntentID))
}

// SetStatus updates the donation and books the matching pool ledger entry.
// Funds are credited when the donation first succeeds and debited again only
// when a succeeded donation is refunded.
func (r *DonationRepositoryPG) SetStatus(ctx context.Context, id string, status domain.DonationStatus, paymentIntentID string) (*domain.OneTimeDonation, *domain.CommunityPool, error) {
	var (
		donation *domain.OneTimeDonation
		pool     *domain.CommunityPool
	)
	err := r.sql.InTx(ctx, func(q infra.SQLExecutor) error {
		var err error
		donation, err = scanDonation(q.QueryRow(ctx, sqlinline.QLockDonation, id))
		if err != nil {
			return err
		}
		prev := donation.Status
		if prev == status {
			pool, err = scanPool(q.QueryRow(ctx, sqlinline.QSelectPoolByID, donation.PoolID))
			return err
		}
		if err := notFound(q.QueryRow(ctx, sqlinline.QUpdateDonationStatus, id, string(status), paymentIntentID).Scan(&donation.UpdatedAt)); err != nil {
			return err
		}
		donation.Status = status
		if paymentIntentID != "" {
			donation.StripePaymentIntentID = paymentIntentID
		}

		entry, ok := donation.LedgerEntryFor()
		if !ok || (status == domain.DonationRefunded && prev != domain.DonationSucceeded) {
			pool, err = scanPool(q.QueryRow(ctx, sqlinline.QSelectPoolByID, donation.PoolID))
			return err
		}
		pool, _, err = applyLedgerEntry(ctx, q, entry)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return donation, pool, nil
}

// ListByUser returns a contributor's one-time donations.
func (r *DonationRepositoryPG) ListByUser(ctx context.Context, userID string) ([]domain.OneTimeDonation, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListDonationsByUser, userID)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanDonation)
}

var _ domain.DonationRepository = (*DonationRepositoryPG)(nil)
