package domain

import "time"

// CampaignStatus tracks a fundraising page.
type CampaignStatus string

const (
	CampaignActive    CampaignStatus = "active"
	CampaignCompleted CampaignStatus = "completed"
	CampaignClosed    CampaignStatus = "closed"
)

// DonationStatus is shared by one-time pool donations and campaign donations.
type DonationStatus string

const (
	DonationPending   DonationStatus = "pending"
	DonationSucceeded DonationStatus = "succeeded"
	DonationFailed    DonationStatus = "failed"
	DonationRefunded  DonationStatus = "refunded"
)

// Valid reports whether s is a known donation status.
func (s DonationStatus) Valid() bool {
	switch s {
	case DonationPending, DonationSucceeded, DonationFailed, DonationRefunded:
		return true
	}
	return false
}

// Campaign is a recipient-authored public fundraising page.
type Campaign struct {
	ID                string         `json:"id"`
	UserID            string         `json:"user_id"`
	BillID            *string        `json:"bill_id,omitempty"`
	Title             string         `json:"title"`
	Slug              string         `json:"slug"`
	Story             string         `json:"story"`
	GoalCents         int64          `json:"goal_cents"`
	CurrentCents      int64          `json:"current_cents"`
	DonationCount     int            `json:"donation_count"`
	Status            CampaignStatus `json:"status"`
	HideRecipientName bool           `json:"hide_recipient_name"`
	HideAmounts       bool           `json:"hide_amounts"`
	EndsAt            *time.Time     `json:"ends_at,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

// ProgressPercent returns the funded share of the goal, capped at 100.
func (c Campaign) ProgressPercent() int {
	if c.GoalCents <= 0 {
		return 0
	}
	pct := c.CurrentCents * 100 / c.GoalCents
	if pct > 100 {
		pct = 100
	}
	if pct < 0 {
		pct = 0
	}
	return int(pct)
}

// AcceptsDonations reports whether new donations may be started.
func (c Campaign) AcceptsDonations(now time.Time) bool {
	if c.Status == CampaignClosed {
		return false
	}
	if c.EndsAt != nil && now.After(*c.EndsAt) {
		return false
	}
	return true
}

// CampaignDonation is a direct donation towards one campaign.
type CampaignDonation struct {
	ID                    string         `json:"id"`
	CampaignID            string         `json:"campaign_id"`
	DonorName             string         `json:"donor_name"`
	Message               string         `json:"message,omitempty"`
	Anonymous             bool           `json:"anonymous"`
	AmountCents           int64          `json:"amount_cents"`
	StripeSessionID       string         `json:"-"`
	StripePaymentIntentID string         `json:"-"`
	Status                DonationStatus `json:"status"`
	CreatedAt             time.Time      `json:"created_at"`
	UpdatedAt             time.Time      `json:"updated_at"`
}

// PublicDonorName hides the donor when they asked to stay anonymous.
func (d CampaignDonation) PublicDonorName() string {
	if d.Anonymous || d.DonorName == "" {
		return "Anonymous"
	}
	return d.DonorName
}

// SettlementDelta returns the change to a campaign's total and donation count when a
// donation of amount moves from prev to next. Only crossing the succeeded boundary counts.
func SettlementDelta(prev, next DonationStatus, amountCents int64) (int64, int) {
	wasCounted := prev == DonationSucceeded
	isCounted := next == DonationSucceeded
	switch {
	case !wasCounted && isCounted:
		return amountCents, 1
	case wasCounted && !isCounted:
		return -amountCents, -1
	default:
		return 0, 0
	}
}

// Settle applies a settlement delta and moves the campaign between active and completed.
func (c Campaign) Settle(amountDelta int64, countDelta int) Campaign {
	c.CurrentCents += amountDelta
	c.DonationCount += countDelta
	if c.CurrentCents < 0 {
		c.CurrentCents = 0
	}
	if c.DonationCount < 0 {
		c.DonationCount = 0
	}
	switch {
	case c.Status == CampaignActive && c.GoalCents > 0 && c.CurrentCents >= c.GoalCents:
		c.Status = CampaignCompleted
	case c.Status == CampaignCompleted && c.CurrentCents < c.GoalCents:
		c.Status = CampaignActive
	}
	return c
}
