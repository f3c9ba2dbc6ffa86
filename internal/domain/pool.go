package domain

import "time"

// CommunityPool aggregates contributions for one city and pays its recipients' bills.
type CommunityPool struct {
	ID                          string    `json:"id"`
	City                        string    `json:"city"`
	Province                    string    `json:"province"`
	TotalFundsAvailableCents    int64     `json:"total_funds_available_cents"`
	WeeklyContributionsCents    int64     `json:"weekly_contributions_cents"`
	TotalAmountDistributedCents int64     `json:"total_amount_distributed_cents"`
	TotalContributors           int       `json:"total_contributors"`
	TotalFamiliesHelped         int       `json:"total_families_helped"`
	CreatedAt                   time.Time `json:"created_at"`
	UpdatedAt                   time.Time `json:"updated_at"`
}

// PoolCounters is a signed change to a pool's counters.
type PoolCounters struct {
	FundsCents       int64
	WeeklyCents      int64
	DistributedCents int64
	Contributors     int
	Families         int
}

// IsZero reports whether applying the counters would change nothing.
func (c PoolCounters) IsZero() bool {
	return c == PoolCounters{}
}

// LedgerKind enumerates the financial events that move pool counters.
type LedgerKind string

const (
	LedgerSubscriptionStarted   LedgerKind = "subscription_started"
	LedgerSubscriptionChanged   LedgerKind = "subscription_changed"
	LedgerSubscriptionCancelled LedgerKind = "subscription_cancelled"
	LedgerContribution          LedgerKind = "contribution"
	LedgerDonation              LedgerKind = "donation"
	LedgerDonationRefunded      LedgerKind = "donation_refunded"
	LedgerBillPayment           LedgerKind = "bill_payment"
)

// LedgerEntry is one immutable pool accounting record. RefType and RefID identify
// the event that produced it; a (Kind, RefType, RefID) triple is applied at most once.
type LedgerEntry struct {
	ID          string     `json:"id"`
	PoolID      string     `json:"pool_id"`
	Kind        LedgerKind `json:"kind"`
	AmountCents int64      `json:"amount_cents"`
	// WeeklyDeltaCents is only meaningful for subscription kinds.
	WeeklyDeltaCents int64     `json:"weekly_delta_cents"`
	RefType          string    `json:"ref_type"`
	RefID            string    `json:"ref_id"`
	CreatedAt        time.Time `json:"created_at"`
}

// Delta returns the counter change implied by the entry.
func (e LedgerEntry) Delta() PoolCounters {
	switch e.Kind {
	case LedgerSubscriptionStarted:
		return PoolCounters{WeeklyCents: e.WeeklyDeltaCents, Contributors: 1}
	case LedgerSubscriptionChanged:
		return PoolCounters{WeeklyCents: e.WeeklyDeltaCents}
	case LedgerSubscriptionCancelled:
		return PoolCounters{WeeklyCents: e.WeeklyDeltaCents, Contributors: -1}
	case LedgerContribution, LedgerDonation:
		return PoolCounters{FundsCents: e.AmountCents}
	case LedgerDonationRefunded:
		return PoolCounters{FundsCents: -e.AmountCents}
	case LedgerBillPayment:
		return PoolCounters{FundsCents: -e.AmountCents, DistributedCents: e.AmountCents, Families: 1}
	}
	return PoolCounters{}
}

// Apply returns a copy of the pool with the counters added.
func (p CommunityPool) Apply(c PoolCounters) CommunityPool {
	p.TotalFundsAvailableCents += c.FundsCents
	p.WeeklyContributionsCents += c.WeeklyCents
	p.TotalAmountDistributedCents += c.DistributedCents
	p.TotalContributors += c.Contributors
	p.TotalFamiliesHelped += c.Families
	if p.WeeklyContributionsCents < 0 {
		p.WeeklyContributionsCents = 0
	}
	if p.TotalContributors < 0 {
		p.TotalContributors = 0
	}
	return p
}

// BillingInterval is the recurrence of a subscription.
type BillingInterval string

const (
	IntervalWeek  BillingInterval = "week"
	IntervalMonth BillingInterval = "month"
	IntervalYear  BillingInterval = "year"
)

// Valid reports whether the interval is supported.
func (i BillingInterval) Valid() bool {
	switch i {
	case IntervalWeek, IntervalMonth, IntervalYear:
		return true
	}
	return false
}

// WeeklyEquivalentCents converts a recurring amount to its per-week value in whole cents.
func WeeklyEquivalentCents(amountCents int64, interval BillingInterval) int64 {
	switch interval {
	case IntervalMonth:
		return amountCents * 12 / 52
	case IntervalYear:
		return amountCents / 52
	default:
		return amountCents
	}
}
