package domain

import (
	"context"
	"time"
)

// UserRepository defines access methods for users.
type UserRepository interface {
	UpsertByAuthSubject(ctx context.Context, user *User) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	Update(ctx context.Context, user *User) (*User, error)
	SetRoleByEmail(ctx context.Context, email string, role UserRole) (*User, error)
}

// PoolRepository owns community pools and their ledger.
type PoolRepository interface {
	GetOrCreate(ctx context.Context, loc Location) (*CommunityPool, error)
	GetByID(ctx context.Context, id string) (*CommunityPool, error)
	FindByLocation(ctx context.Context, loc Location) (*CommunityPool, error)
	List(ctx context.Context) ([]CommunityPool, error)
	// Apply records the entry and moves counters atomically. applied is false when
	// an entry with the same kind and reference already exists.
	Apply(ctx context.Context, entry LedgerEntry) (pool *CommunityPool, applied bool, err error)
	Ledger(ctx context.Context, poolID string, limit int) ([]LedgerEntry, error)
}

// BillRepository persists bill submissions.
type BillRepository interface {
	// CreateIfEligible inserts the bill only when the user is within the policy at now.
	CreateIfEligible(ctx context.Context, bill *BillSubmission, policy EligibilityPolicy, now time.Time) error
	PaidDatesSince(ctx context.Context, userID string, since time.Time) ([]time.Time, error)
	GetByID(ctx context.Context, id string) (*BillSubmission, error)
	ListByUser(ctx context.Context, userID string) ([]BillSubmission, error)
	List(ctx context.Context, filter BillFilter) ([]BillSubmission, error)
	SetVerification(ctx context.Context, id string, status VerificationStatus, analysis *BillAnalysis) error
	// ClaimForVerification moves the oldest pending bill, or one left analyzing
	// since before staleBefore, to analyzing and returns it.
	ClaimForVerification(ctx context.Context, staleBefore time.Time) (*BillSubmission, error)
	// Review moves the payment status when the transition is allowed from the stored state.
	Review(ctx context.Context, id, adminID string, next PaymentStatus, notes string, at time.Time) (*BillSubmission, error)
}

// PaymentRepository disburses approved bills from pools.
type PaymentRepository interface {
	Disburse(ctx context.Context, req DisbursementRequest) (*Payment, *CommunityPool, error)
	GetByBill(ctx context.Context, billID string) (*Payment, error)
	ListByPool(ctx context.Context, poolID string, limit int) ([]Payment, error)
}

// CampaignRepository persists fundraising campaigns.
type CampaignRepository interface {
	Create(ctx context.Context, c *Campaign) error
	SlugExists(ctx context.Context, slug string) (bool, error)
	GetByID(ctx context.Context, id string) (*Campaign, error)
	GetBySlug(ctx context.Context, slug string) (*Campaign, error)
	// Edit locks the campaign row, applies edit to the committed state and
	// persists the result in the same transaction. An error from edit aborts.
	Edit(ctx context.Context, id string, edit func(*Campaign) error) (*Campaign, error)
	ListActive(ctx context.Context, limit int) ([]Campaign, error)
	ListByUser(ctx context.Context, userID string) ([]Campaign, error)
}

// CampaignDonationRepository persists campaign donations and settles them.
type CampaignDonationRepository interface {
	CreatePending(ctx context.Context, d *CampaignDonation) error
	FindBySession(ctx context.Context, sessionID string) (*CampaignDonation, error)
	FindByPaymentIntent(ctx context.Context, paymentIntentID string) (*CampaignDonation, error)
	// SetStatus updates the donation and applies the settlement delta to its campaign atomically.
	SetStatus(ctx context.Context, id string, status DonationStatus, paymentIntentID string) (*CampaignDonation, *Campaign, error)
	ListByCampaign(ctx context.Context, campaignID string, limit int) ([]CampaignDonation, error)
}

// DonationRepository persists one-time pool donations.
type DonationRepository interface {
	CreatePending(ctx context.Context, d *OneTimeDonation) error
	FindBySession(ctx context.Context, sessionID string) (*OneTimeDonation, error)
	FindByPaymentIntent(ctx context.Context, paymentIntentID string) (*OneTimeDonation, error)
	// SetStatus updates the donation and applies its ledger entry in the same transaction.
	SetStatus(ctx context.Context, id string, status DonationStatus, paymentIntentID string) (*OneTimeDonation, *CommunityPool, error)
	ListByUser(ctx context.Context, userID string) ([]OneTimeDonation, error)
}

// SubscriptionRepository persists recurring contributions.
type SubscriptionRepository interface {
	// Sync upserts the subscription by provider id and applies the implied ledger entry.
	Sync(ctx context.Context, sub *Subscription, eventRef string) (*Subscription, *CommunityPool, error)
	GetByStripeID(ctx context.Context, stripeID string) (*Subscription, error)
	ListByUser(ctx context.Context, userID string) ([]Subscription, error)
	// RecordContribution adds a paid invoice to the subscription and its pool once per invoice.
	RecordContribution(ctx context.Context, stripeID, invoiceID string, amountCents int64) (*Subscription, *CommunityPool, error)
}

// CharityRepository exposes static partner records.
type CharityRepository interface {
	List(ctx context.Context, category string) ([]Charity, error)
	GetBySlug(ctx context.Context, slug string) (*Charity, error)
	Upsert(ctx context.Context, c *Charity) error
}

// NeedsRepository exposes location needs indicators.
type NeedsRepository interface {
	ForLocation(ctx context.Context, loc Location) (*NeedsData, error)
	List(ctx context.Context) ([]NeedsData, error)
	Upsert(ctx context.Context, n *NeedsData) error
}

// ImpactRepository aggregates and stores impact reports.
type ImpactRepository interface {
	Aggregate(ctx context.Context, poolID string, start, end time.Time) (*ImpactReport, error)
	Save(ctx context.Context, report *ImpactReport) error
	ListByPool(ctx context.Context, poolID string, limit int) ([]ImpactReport, error)
	Summary(ctx context.Context) (*ImpactSummary, error)
}

// WebhookEventRepository remembers processed payment provider events.
type WebhookEventRepository interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	MarkProcessed(ctx context.Context, eventID, eventType string) error
}
