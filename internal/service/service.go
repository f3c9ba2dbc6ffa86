// Package service holds the business rules behind the HTTP API, the worker and
// the admin CLI. Persistence is reached through the repository interfaces in
// internal/domain; every service takes its collaborators through a Deps struct.
package service

import (
	"strings"
	"time"

	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/domain"
	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/live"
)

// Actor is the authenticated caller of an operation.
type Actor struct {
	UserID string
	Role   domain.UserRole
}

func (a Actor) IsAdmin() bool { return a.Role == domain.UserRoleAdmin }

// canSee reports whether the actor owns ownerID's data or is an admin.
func (a Actor) canSee(ownerID string) bool {
	return a.IsAdmin() || (a.UserID != "" && a.UserID == ownerID)
}

func publisherOrNop(p live.Publisher) live.Publisher {
	if p == nil {
		return live.NopPublisher{}
	}
	return p
}

func clockOrNow(now func() time.Time) func() time.Time {
	if now == nil {
		return time.Now
	}
	return now
}

func poolEvent(p *domain.CommunityPool) map[string]any {
	return map[string]any{
		"id":                             p.ID,
		"city":                           p.City,
		"province":                       p.Province,
		"total_funds_available_cents":    p.TotalFundsAvailableCents,
		"weekly_contributions_cents":     p.WeeklyContributionsCents,
		"total_amount_distributed_cents": p.TotalAmountDistributedCents,
		"total_contributors":             p.TotalContributors,
		"total_families_helped":          p.TotalFamiliesHelped,
	}
}

func publishPool(pub live.Publisher, p *domain.CommunityPool) {
	if p == nil || p.ID == "" {
		return
	}
	pub.Publish(live.PoolTopic(p.ID), live.TypePoolUpdated, poolEvent(p))
}

func publishBill(pub live.Publisher, b *domain.BillSubmission) {
	if b == nil || b.ID == "" {
		return
	}
	pub.Publish(live.BillTopic(b.ID), live.TypeBillUpdated, map[string]any{
		"id":                  b.ID,
		"verification_status": b.VerificationStatus,
		"payment_status":      b.PaymentStatus,
	})
}

func trimmed(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

func publishCampaign(pub live.Publisher, c *domain.Campaign) {
	if c == nil || c.Slug == "" {
		return
	}
	data := map[string]any{
		"id":               c.ID,
		"slug":             c.Slug,
		"status":           c.Status,
		"progress_percent": c.ProgressPercent(),
		"donation_count":   c.DonationCount,
	}
	if !c.HideAmounts {
		data["current_cents"] = c.CurrentCents
		data["goal_cents"] = c.GoalCents
	}
	pub.Publish(live.CampaignTopic(c.Slug), live.TypeCampaignUpdated, data)
}
