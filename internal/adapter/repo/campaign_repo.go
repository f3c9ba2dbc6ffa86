package repo

import (
	"context"
	"fmt"

	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/domain"
	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/infra"
	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/sqlinline"
)

// CampaignRepositoryPG implements domain.CampaignRepository and
// domain.CampaignDonationRepository backed by PostgreSQL.
type CampaignRepositoryPG struct {
	sql infra.TxExecutor
}

// NewCampaignRepository creates a new CampaignRepositoryPG.
func NewCampaignRepository(sql infra.TxExecutor) *CampaignRepositoryPG {
	return &CampaignRepositoryPG{sql: sql}
}

// Create inserts a campaign. A slug collision surfaces as domain.ErrDuplicateOperation.
func (r *CampaignRepositoryPG) Create(ctx context.Context, c *domain.Campaign) error {
	billID := ""
	if c.BillID != nil {
		billID = *c.BillID
	}
	var status string
	row := r.sql.QueryRow(ctx, sqlinline.QInsertCampaign,
		c.UserID,
		billID,
		c.Title,
		c.Slug,
		c.Story,
		c.GoalCents,
		c.HideRecipientName,
		c.HideAmounts,
		nullableTime(c.EndsAt),
	)
	if err := row.Scan(&c.ID, &c.CurrentCents, &c.DonationCount, &status, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if infra.IsUniqueViolation(err) {
			return fmt.Errorf("%w: slug %q taken", domain.ErrDuplicateOperation, c.Slug)
		}
		return err
	}
	c.Status = domain.CampaignStatus(status)
	return nil
}

// SlugExists reports whether a campaign already uses slug.
func (r *CampaignRepositoryPG) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	if err := r.sql.QueryRow(ctx, sqlinline.QCampaignSlugExists, slug).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// GetByID fetches a campaign by UUID.
func (r *CampaignRepositoryPG) GetByID(ctx context.Context, id string) (*domain.Campaign, error) {
	return scanCampaign(r.sql.QueryRow(ctx, sqlinline.QSelectCampaignByID, id))
}

// GetBySlug fetches a campaign by its public slug.
func (r *CampaignRepositoryPG) GetBySlug(ctx context.Context, slug string) (*domain.Campaign, error) {
	return scanCampaign(r.sql.QueryRow(ctx, sqlinline.QSelectCampaignBySlug, slug))
}

// Edit applies edit to the campaign while its row is locked, so owner edits
// and donation settlement serialize on the same lock.
func (r *CampaignRepositoryPG) Edit(ctx context.Context, id string, edit func(*domain.Campaign) error) (*domain.Campaign, error) {
	var campaign *domain.Campaign
	err := r.sql.InTx(ctx, func(q infra.SQLExecutor) error {
		c, err := scanCampaign(q.QueryRow(ctx, sqlinline.QLockCampaign, id))
		if err != nil {
			return err
		}
		if err := edit(c); err != nil {
			return err
		}
		if err := updateCampaign(ctx, q, c); err != nil {
			return err
		}
		campaign = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return campaign, nil
}

func updateCampaign(ctx context.Context, q infra.SQLExecutor, c *domain.Campaign) error {
	row := q.QueryRow(ctx, sqlinline.QUpdateCampaign,
		c.ID,
		c.Title,
		c.Story,
		c.GoalCents,
		c.CurrentCents,
		c.DonationCount,
		string(c.Status),
		c.HideRecipientName,
		c.HideAmounts,
		nullableTime(c.EndsAt),
	)
	return notFound(row.Scan(&c.UpdatedAt))
}

// ListActive returns open campaigns, newest first.
func (r *CampaignRepositoryPG) ListActive(ctx context.Context, limit int) ([]domain.Campaign, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListActiveCampaigns, clampLimit(limit, 20, 100))
	if err != nil {
		return nil, err
	}
	return collect(rows, scanCampaign)
}

// ListByUser returns every campaign owned by the user.
func (r *CampaignRepositoryPG) ListByUser(ctx context.Context, userID string) ([]domain.Campaign, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListCampaignsByUser, userID)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanCampaign)
}

// CreatePending records a donation awaiting checkout completion.
func (r *CampaignRepositoryPG) CreatePending(ctx context.Context, d *domain.CampaignDonation) error {
	var status string
	row := r.sql.QueryRow(ctx, sqlinline.QInsertCampaignDonation,
		d.CampaignID,
		d.DonorName,
		d.Message,
		d.Anonymous,
		d.AmountCents,
		d.StripeSessionID,
	)
	if err := row.Scan(&d.ID, &status, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return err
	}
	d.Status = domain.DonationStatus(status)
	return nil
}

// FindBySession looks a donation up by checkout session id.
func (r *CampaignRepositoryPG) FindBySession(ctx context.Context, sessionID string) (*domain.CampaignDonation, error) {
	return scanCampaignDonation(r.sql.QueryRow(ctx, sqlinline.QSelectCampaignDonationBySession, sessionID))
}

// FindByPaymentIntent looks a donation up by payment intent id.
func (r *CampaignRepositoryPG) FindByPaymentIntent(ctx context.Context, paymentIntentID string) (*domain.CampaignDonation, error) {
	return scanCampaignDonation(r.sql.QueryRow(ctx, sqlinline.QSelectCampaignDonationByPaymentIntent, paymentIntentID))
}

// SetStatus moves a donation to status and settles the difference on its campaign.
// Repeating a status is a no-op, so redelivered events cannot double count.
func (r *CampaignRepositoryPG) SetStatus(ctx context.Context, id string, status domain.DonationStatus, paymentIntentID string) (*domain.CampaignDonation, *domain.Campaign, error) {
	var (
		donation *domain.CampaignDonation
		campaign *domain.Campaign
	)
	err := r.sql.InTx(ctx, func(q infra.SQLExecutor) error {
		var err error
		donation, err = scanCampaignDonation(q.QueryRow(ctx, sqlinline.QLockCampaignDonation, id))
		if err != nil {
			return err
		}
		campaign, err = scanCampaign(q.QueryRow(ctx, sqlinline.QLockCampaign, donation.CampaignID))
		if err != nil {
			return err
		}
		if donation.Status == status {
			return nil
		}

		amountDelta, countDelta := domain.SettlementDelta(donation.Status, status, donation.AmountCents)
		if err := notFound(q.QueryRow(ctx, sqlinline.QUpdateCampaignDonationStatus, id, string(status), paymentIntentID).Scan(&donation.UpdatedAt)); err != nil {
			return err
		}
		donation.Status = status
		if paymentIntentID != "" {
			donation.StripePaymentIntentID = paymentIntentID
		}

		if amountDelta == 0 && countDelta == 0 {
			return nil
		}
		settled := campaign.Settle(amountDelta, countDelta)
		campaign = &settled
		return updateCampaign(ctx, q, campaign)
	})
	if err != nil {
		return nil, nil, err
	}
	return donation, campaign, nil
}

// ListByCampaign returns the succeeded donations for a campaign, newest first.
func (r *CampaignRepositoryPG) ListByCampaign(ctx context.Context, campaignID string, limit int) ([]domain.CampaignDonation, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListCampaignDonations, campaignID, clampLimit(limit, 50, 200))
	if err != nil {
		return nil, err
	}
	return collect(rows, scanCampaignDonation)
}

var (
	_ domain.CampaignRepository         = (*CampaignRepositoryPG)(nil)
	_ domain.CampaignDonationRepository = (*CampaignRepositoryPG)(nil)
)
