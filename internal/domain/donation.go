package domain

import "time"

// OneTimeDonation is a single contribution paid into a pool.
type OneTimeDonation struct {
	ID                    string         `json:"id"`
	UserID                *string        `json:"user_id,omitempty"`
	PoolID                string         `json:"pool_id"`
	StripeSessionID       string         `json:"-"`
	StripePaymentIntentID string         `json:"-"`
	AmountCents           int64          `json:"amount_cents"`
	Status                DonationStatus `json:"status"`
	CreatedAt             time.Time      `json:"created_at"`
	UpdatedAt             time.Time      `json:"updated_at"`
}

// LedgerEntryFor returns the pool entry implied by the donation's current status, if any.
func (d OneTimeDonation) LedgerEntryFor() (LedgerEntry, bool) {
	switch d.Status {
	case DonationSucceeded:
		return LedgerEntry{PoolID: d.PoolID, Kind: LedgerDonation, AmountCents: d.AmountCents, RefType: "one_time_donation", RefID: d.ID}, true
	case DonationRefunded:
		return LedgerEntry{PoolID: d.PoolID, Kind: LedgerDonationRefunded, AmountCents: d.AmountCents, RefType: "one_time_donation", RefID: d.ID}, true
	}
	return LedgerEntry{}, false
}

// SubscriptionStatus mirrors the payment provider's subscription states we care about.
type SubscriptionStatus string

const (
	SubscriptionIncomplete SubscriptionStatus = "incomplete"
	SubscriptionActive     SubscriptionStatus = "active"
	SubscriptionTrialing   SubscriptionStatus = "trialing"
	SubscriptionPastDue    SubscriptionStatus = "past_due"
	SubscriptionCanceled   SubscriptionStatus = "canceled"
	SubscriptionUnpaid     SubscriptionStatus = "unpaid"
)

// Counts reports whether the subscription is contributing to its pool.
func (s SubscriptionStatus) Counts() bool {
	switch s {
	case SubscriptionActive, SubscriptionTrialing, SubscriptionPastDue:
		return true
	}
	return false
}

// Subscription is a recurring contribution into a pool.
type Subscription struct {
	ID                    string             `json:"id"`
	UserID                string             `json:"user_id"`
	PoolID                string             `json:"pool_id"`
	StripeSubscriptionID  string             `json:"stripe_subscription_id"`
	StripeCustomerID      string             `json:"-"`
	AmountCents           int64              `json:"amount_cents"`
	Interval              BillingInterval    `json:"interval"`
	Status                SubscriptionStatus `json:"status"`
	CurrentPeriodEnd      *time.Time         `json:"current_period_end,omitempty"`
	CancelAtPeriodEnd     bool               `json:"cancel_at_period_end"`
	TotalContributedCents int64              `json:"total_contributed_cents"`
	CreatedAt             time.Time          `json:"created_at"`
	UpdatedAt             time.Time          `json:"updated_at"`
}

// WeeklyCents returns the subscription's weekly contribution, zero when not counting.
func (s *Subscription) WeeklyCents() int64 {
	if s == nil || !s.Status.Counts() {
		return 0
	}
	return WeeklyEquivalentCents(s.AmountCents, s.Interval)
}

// SubscriptionLedgerEntry derives the pool entry for a subscription moving from prev
// (nil when newly seen) to next. eventRef keeps changes distinct in the ledger.
func SubscriptionLedgerEntry(prev, next *Subscription, eventRef string) (LedgerEntry, bool) {
	if next == nil {
		return LedgerEntry{}, false
	}
	wasCounting := prev != nil && prev.Status.Counts()
	isCounting := next.Status.Counts()
	entry := LedgerEntry{PoolID: next.PoolID, RefType: "subscription", RefID: next.ID}
	switch {
	case !wasCounting && isCounting:
		entry.Kind = LedgerSubscriptionStarted
		entry.WeeklyDeltaCents = next.WeeklyCents()
		entry.RefID = next.ID + ":" + eventRef
	case wasCounting && !isCounting:
		entry.Kind = LedgerSubscriptionCancelled
		entry.WeeklyDeltaCents = -prev.WeeklyCents()
		entry.RefID = next.ID + ":" + eventRef
	case wasCounting && isCounting:
		delta := next.WeeklyCents() - prev.WeeklyCents()
		if delta == 0 {
			return LedgerEntry{}, false
		}
		entry.Kind = LedgerSubscriptionChanged
		entry.WeeklyDeltaCents = delta
		entry.RefID = next.ID + ":" + eventRef
	default:
		return LedgerEntry{}, false
	}
	return entry, true
}

// Payment records funds disbursed from a pool to a utility provider for one bill.
type Payment struct {
	ID                 string    `json:"id"`
	BillID             string    `json:"bill_id"`
	PoolID             string    `json:"pool_id"`
	AdminID            string    `json:"admin_id"`
	AmountCents        int64     `json:"amount_cents"`
	UtilityProvider    string    `json:"utility_provider"`
	ConfirmationNumber string    `json:"confirmation_number"`
	Method             string    `json:"method"`
	CreatedAt          time.Time `json:"created_at"`
}

// DisbursementRequest asks for an approved bill to be paid from its pool.
type DisbursementRequest struct {
	BillID             string
	AdminID            string
	AmountCents        int64
	ConfirmationNumber string
	Method             string
	PaidAt             time.Time
}
