package repo

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/domain"
)

// notFound converts pgx.ErrNoRows into domain.ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	return err
}

func scanPool(row pgx.Row) (*domain.CommunityPool, error) {
	var p domain.CommunityPool
	if err := row.Scan(
		&p.ID,
		&p.City,
		&p.Province,
		&p.TotalFundsAvailableCents,
		&p.WeeklyContributionsCents,
		&p.TotalAmountDistributedCents,
		&p.TotalContributors,
		&p.TotalFamiliesHelped,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var (
		u    domain.User
		role string
	)
	if err := row.Scan(
		&u.ID,
		&u.AuthSubject,
		&u.Email,
		&u.Name,
		&role,
		&u.Location.City,
		&u.Location.Province,
		&u.Location.PostalCode,
		&u.CharityPreferences,
		&u.CreatedAt,
		&u.UpdatedAt,
	); err != nil {
		return nil, notFound(err)
	}
	u.Role = domain.UserRole(role)
	return &u, nil
}

func scanBill(row pgx.Row) (*domain.BillSubmission, error) {
	var (
		b                            domain.BillSubmission
		utility, verification, payst string
		analysis                     []byte
	)
	if err := row.Scan(
		&b.ID,
		&b.UserID,
		&b.PoolID,
		&utility,
		&b.ProviderName,
		&b.AccountNumber,
		&b.AmountDueCents,
		&b.DueDate,
		&b.ImageKey,
		&verification,
		&payst,
		&analysis,
		&b.AdminNotes,
		&b.ReviewedBy,
		&b.ReviewedAt,
		&b.PaidAt,
		&b.CreatedAt,
		&b.UpdatedAt,
	); err != nil {
		return nil, notFound(err)
	}
	b.UtilityType = domain.UtilityType(utility)
	b.VerificationStatus = domain.VerificationStatus(verification)
	b.PaymentStatus = domain.PaymentStatus(payst)
	if len(analysis) > 0 {
		var a domain.BillAnalysis
		if err := json.Unmarshal(analysis, &a); err != nil {
			return nil, fmt.Errorf("decode bill analysis: %w", err)
		}
		b.Analysis = &a
	}
	return &b, nil
}

func scanCampaign(row pgx.Row) (*domain.Campaign, error) {
	var (
		c      domain.Campaign
		status string
	)
	if err := row.Scan(
		&c.ID,
		&c.UserID,
		&c.BillID,
		&c.Title,
		&c.Slug,
		&c.Story,
		&c.GoalCents,
		&c.CurrentCents,
		&c.DonationCount,
		&status,
		&c.HideRecipientName,
		&c.HideAmounts,
		&c.EndsAt,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		return nil, notFound(err)
	}
	c.Status = domain.CampaignStatus(status)
	return &c, nil
}

func scanCampaignDonation(row pgx.Row) (*domain.CampaignDonation, error) {
	var (
		d      domain.CampaignDonation
		status string
	)
	if err := row.Scan(
		&d.ID,
		&d.CampaignID,
		&d.DonorName,
		&d.Message,
		&d.Anonymous,
		&d.AmountCents,
		&d.StripeSessionID,
		&d.StripePaymentIntentID,
		&status,
		&d.CreatedAt,
		&d.UpdatedAt,
	); err != nil {
		return nil, notFound(err)
	}
	d.Status = domain.DonationStatus(status)
	return &d, nil
}

func scanDonation(row pgx.Row) (*domain.OneTimeDonation, error) {
	var (
		d      domain.OneTimeDonation
		status string
	)
	if err := row.Scan(
		&d.ID,
		&d.UserID,
		&d.PoolID,
		&d.StripeSessionID,
		&d.StripePaymentIntentID,
		&d.AmountCents,
		&status,
		&d.CreatedAt,
		&d.UpdatedAt,
	); err != nil {
		return nil, notFound(err)
	}
	d.Status = domain.DonationStatus(status)
	return &d, nil
}

func scanSubscription(row pgx.Row) (*domain.Subscription, error) {
	var (
		s                domain.Subscription
		interval, status string
	)
	if err := row.Scan(
		&s.ID,
		&s.UserID,
		&s.PoolID,
		&s.StripeSubscriptionID,
		&s.StripeCustomerID,
		&s.AmountCents,
		&interval,
		&status,
		&s.CurrentPeriodEnd,
		&s.CancelAtPeriodEnd,
		&s.TotalContributedCents,
		&s.CreatedAt,
		&s.UpdatedAt,
	); err != nil {
		return nil, notFound(err)
	}
	s.Interval = domain.BillingInterval(interval)
	s.Status = domain.SubscriptionStatus(status)
	return &s, nil
}

func scanPayment(row pgx.Row) (*domain.Payment, error) {
	var p domain.Payment
	if err := row.Scan(
		&p.ID,
		&p.BillID,
		&p.PoolID,
		&p.AdminID,
		&p.AmountCents,
		&p.UtilityProvider,
		&p.ConfirmationNumber,
		&p.Method,
		&p.CreatedAt,
	); err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// collect drains rows using scan and always closes them.
func collect[T any](rows pgx.Rows, scan func(pgx.Row) (*T, error)) ([]T, error) {
	defer rows.Close()
	var items []T
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func clampLimit(limit, fallback, max int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > max {
		return max
	}
	return limit
}

func nullableTime(t *time.Time) any {
	if t == nil || t.IsZero() {
		return nil
	}
	return *t
}
