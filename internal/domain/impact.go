package domain

import "time"

// Charity is a static partner organisation users can express a preference for.
type Charity struct {
	ID          string `json:"id" yaml:"-"`
	Name        string `json:"name" yaml:"name"`
	Slug        string `json:"slug" yaml:"slug"`
	Description string `json:"description" yaml:"description"`
	Website     string `json:"website" yaml:"website"`
	Category    string `json:"category" yaml:"category"`
	City        string `json:"city,omitempty" yaml:"city"`
	Province    string `json:"province,omitempty" yaml:"province"`
}

// NeedsData describes energy poverty indicators for a location.
type NeedsData struct {
	ID                string    `json:"id" yaml:"-"`
	City              string    `json:"city" yaml:"city"`
	Province          string    `json:"province" yaml:"province"`
	HouseholdsInNeed  int       `json:"households_in_need" yaml:"households_in_need"`
	AverageBillCents  int64     `json:"average_bill_cents" yaml:"average_bill_cents"`
	EnergyPovertyRate float64   `json:"energy_poverty_rate" yaml:"energy_poverty_rate"`
	Source            string    `json:"source" yaml:"source"`
	UpdatedAt         time.Time `json:"updated_at" yaml:"-"`
}

// ImpactReport aggregates one pool's activity over a period.
type ImpactReport struct {
	ID                 string    `json:"id"`
	PoolID             string    `json:"pool_id"`
	PeriodStart        time.Time `json:"period_start"`
	PeriodEnd          time.Time `json:"period_end"`
	ContributionsCents int64     `json:"contributions_cents"`
	DistributedCents   int64     `json:"distributed_cents"`
	FamiliesHelped     int       `json:"families_helped"`
	BillsPaid          int       `json:"bills_paid"`
	NewContributors    int       `json:"new_contributors"`
	CreatedAt          time.Time `json:"created_at"`
}

// ImpactSummary is the platform-wide headline shown on the landing page.
type ImpactSummary struct {
	Pools                 int   `json:"pools"`
	FundsAvailableCents   int64 `json:"funds_available_cents"`
	WeeklyCents           int64 `json:"weekly_contributions_cents"`
	DistributedCents      int64 `json:"distributed_cents"`
	Contributors          int   `json:"contributors"`
	FamiliesHelped        int   `json:"families_helped"`
	ActiveCampaigns       int   `json:"active_campaigns"`
	CampaignRaisedCents   int64 `json:"campaign_raised_cents"`
	BillsAwaitingDecision int   `json:"bills_awaiting_decision"`
}

// WeekStart returns the Monday 00:00 UTC of the week containing t.
func WeekStart(t time.Time) time.Time {
	t = t.UTC()
	offset := (int(t.Weekday()) + 6) % 7
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return day.AddDate(0, 0, -offset)
}
