package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/domain"
	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/live"
	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/payments"
)

const (
	maxDonorNameLength = 80
	maxMessageLength   = 500
)

type ContributionDeps struct {
	// Gateway is nil when payments are not configured.
	Gateway           payments.Gateway
	Users             domain.UserRepository
	Pools             domain.PoolRepository
	Donations         domain.DonationRepository
	Subscriptions     domain.SubscriptionRepository
	Campaigns         domain.CampaignRepository
	CampaignDonations domain.CampaignDonationRepository
	Events            domain.WebhookEventRepository
	Publisher         live.Publisher
	PublicAppURL      string
	Logger            zerolog.Logger
	Now               func() time.Time
}

// ContributionService creates checkouts, manages subscriptions and reconciles
// payment webhooks into pool and campaign accounting.
type ContributionService struct {
	gateway           payments.Gateway
	users             domain.UserRepository
	pools             domain.PoolRepository
	donations         domain.DonationRepository
	subs              domain.SubscriptionRepository
	campaigns         domain.CampaignRepository
	campaignDonations domain.CampaignDonationRepository
	events            domain.WebhookEventRepository
	publisher         live.Publisher
	publicAppURL      string
	logger            zerolog.Logger
	now               func() time.Time
}

func NewContributionService(d ContributionDeps) *ContributionService {
	return &ContributionService{
		gateway:           d.Gateway,
		users:             d.Users,
		pools:             d.Pools,
		donations:         d.Donations,
		subs:              d.Subscriptions,
		campaigns:         d.Campaigns,
		campaignDonations: d.CampaignDonations,
		events:            d.Events,
		publisher:         publisherOrNop(d.Publisher),
		publicAppURL:      strings.TrimRight(d.PublicAppURL, "/"),
		logger:            d.Logger,
		now:               clockOrNow(d.Now),
	}
}

func (s *ContributionService) ready() error {
	if s.gateway == nil {
		return domain.ErrPaymentsDisabled
	}
	return nil
}

func checkAmount(amount int64) error {
	if amount < payments.MinimumAmountCents {
		return domain.Invalid("amountCents", fmt.Sprintf("must be at least %d", payments.MinimumAmountCents))
	}
	return nil
}

// CheckoutInput starts a pool contribution.
type CheckoutInput struct {
	Mode        payments.CheckoutMode
	AmountCents int64
	Interval    domain.BillingInterval
	PoolID      string
	Locale      string
}

// Checkout creates a hosted checkout for a pool contribution. One-time payments
// get a pending donation row keyed by the session id.
func (s *ContributionService) Checkout(ctx context.Context, userID string, in CheckoutInput) (*payments.CheckoutSession, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if err := checkAmount(in.AmountCents); err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	pool, err := s.resolvePool(ctx, user, in.PoolID)
	if err != nil {
		return nil, err
	}

	req := payments.CheckoutRequest{
		Mode:          in.Mode,
		AmountCents:   in.AmountCents,
		CustomerEmail: user.Email,
		Locale:        in.Locale,
		SuccessURL:    s.publicAppURL + "/contribute/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:     s.publicAppURL + "/contribute",
		Metadata: map[string]string{
			payments.MetaPoolID: pool.ID,
			payments.MetaUserID: user.ID,
		},
	}
	switch in.Mode {
	case payments.ModePayment:
		req.Metadata[payments.MetaKind] = payments.KindPoolDonation
		req.ProductName = fmt.Sprintf("One-time gift to the %s pool", pool.City)
	case payments.ModeSubscription:
		req.Metadata[payments.MetaKind] = payments.KindSubscription
		req.Interval = in.Interval
		if req.Interval == "" {
			req.Interval = domain.IntervalMonth
		}
		if !req.Interval.Valid() {
			return nil, domain.Invalid("interval", "must be week, month or year")
		}
		req.ProductName = fmt.Sprintf("Recurring contribution to the %s pool", pool.City)
	default:
		return nil, domain.Invalid("mode", "must be subscription or payment")
	}

	session, err := s.gateway.CreateCheckout(ctx, req)
	if err != nil {
		return nil, err
	}
	if in.Mode == payments.ModePayment {
		uid := user.ID
		err := s.donations.CreatePending(ctx, &domain.OneTimeDonation{
			UserID:          &uid,
			PoolID:          pool.ID,
			StripeSessionID: session.ID,
			AmountCents:     in.AmountCents,
			Status:          domain.DonationPending,
		})
		if err != nil {
			return nil, fmt.Errorf("record pending donation: %w", err)
		}
	}
	s.logger.Info().Str("user_id", user.ID).Str("pool_id", pool.ID).Str("mode", string(in.Mode)).Msg("checkout created")
	return session, nil
}

func (s *ContributionService) resolvePool(ctx context.Context, user *domain.User, poolID string) (*domain.CommunityPool, error) {
	if id := strings.TrimSpace(poolID); id != "" {
		pool, err := s.pools.GetByID(ctx, id)
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.Invalid("poolId", "pool not found")
		}
		return pool, err
	}
	if user.Location.IsZero() {
		return nil, domain.Invalid("poolId", "choose a pool or set your location")
	}
	return s.pools.GetOrCreate(ctx, user.Location.Normalize())
}

// CampaignCheckoutInput starts a donation to a campaign. Donors need no account.
type CampaignCheckoutInput struct {
	CampaignSlug string
	AmountCents  int64
	DonorName    string
	Message      string
	Anonymous    bool
	Locale       string
}

func (s *ContributionService) CampaignCheckout(ctx context.Context, in CampaignCheckoutInput) (*payments.CheckoutSession, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if err := checkAmount(in.AmountCents); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.DonorName)
	msg := strings.TrimSpace(in.Message)
	if len(name) > maxDonorNameLength {
		return nil, domain.Invalid("donorName", "is too long")
	}
	if len(msg) > maxMessageLength {
		return nil, domain.Invalid("message", "is too long")
	}
	c, err := s.campaigns.GetBySlug(ctx, strings.ToLower(strings.TrimSpace(in.CampaignSlug)))
	if err != nil {
		return nil, err
	}
	if !c.AcceptsDonations(s.now()) {
		return nil, domain.Invalid("campaignSlug", "campaign is not accepting donations")
	}

	session, err := s.gateway.CreateCheckout(ctx, payments.CheckoutRequest{
		Mode:        payments.ModePayment,
		AmountCents: in.AmountCents,
		ProductName: "Donation: " + c.Title,
		Locale:      in.Locale,
		SuccessURL:  s.publicAppURL + "/c/" + c.Slug + "?donated=1",
		CancelURL:   s.publicAppURL + "/c/" + c.Slug,
		Metadata: map[string]string{
			payments.MetaKind:       payments.KindCampaignDonation,
			payments.MetaCampaignID: c.ID,
		},
	})
	if err != nil {
		return nil, err
	}
	err = s.campaignDonations.CreatePending(ctx, &domain.CampaignDonation{
		CampaignID:      c.ID,
		DonorName:       name,
		Message:         msg,
		Anonymous:       in.Anonymous,
		AmountCents:     in.AmountCents,
		StripeSessionID: session.ID,
		Status:          domain.DonationPending,
	})
	if err != nil {
		return nil, fmt.Errorf("record pending campaign donation: %w", err)
	}
	return session, nil
}

// PortalSession opens the billing portal for the caller's payment account.
func (s *ContributionService) PortalSession(ctx context.Context, userID, returnURL string) (string, error) {
	if err := s.ready(); err != nil {
		return "", err
	}
	subs, err := s.subs.ListByUser(ctx, userID)
	if err != nil {
		return "", err
	}
	customerID := ""
	for _, sub := range subs {
		if sub.StripeCustomerID != "" {
			customerID = sub.StripeCustomerID
			break
		}
	}
	if customerID == "" {
		return "", fmt.Errorf("%w: no billing account on file", domain.ErrNotFound)
	}
	if strings.TrimSpace(returnURL) == "" {
		returnURL = s.publicAppURL + "/dashboard"
	}
	return s.gateway.CreatePortalSession(ctx, customerID, returnURL)
}

func (s *ContributionService) ownedSubscription(ctx context.Context, userID, stripeID string) (*domain.Subscription, error) {
	if strings.TrimSpace(stripeID) == "" {
		return nil, domain.Invalid("subscriptionId", "is required")
	}
	sub, err := s.subs.GetByStripeID(ctx, stripeID)
	if err != nil {
		return nil, err
	}
	if sub.UserID != userID {
		return nil, domain.ErrForbidden
	}
	return sub, nil
}

// UpdateSubscription changes the recurring amount and books the weekly change.
func (s *ContributionService) UpdateSubscription(ctx context.Context, userID, stripeID string, amountCents int64) (*domain.Subscription, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if err := checkAmount(amountCents); err != nil {
		return nil, err
	}
	if _, err := s.ownedSubscription(ctx, userID, stripeID); err != nil {
		return nil, err
	}
	snap, err := s.gateway.UpdateSubscriptionAmount(ctx, stripeID, amountCents)
	if err != nil {
		return nil, err
	}
	return s.syncSnapshot(ctx, snap, "api:"+uuid.NewString())
}

// CancelSubscription cancels now or at the end of the current period.
func (s *ContributionService) CancelSubscription(ctx context.Context, userID, stripeID string, atPeriodEnd bool) (*domain.Subscription, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if _, err := s.ownedSubscription(ctx, userID, stripeID); err != nil {
		return nil, err
	}
	snap, err := s.gateway.CancelSubscription(ctx, stripeID, atPeriodEnd)
	if err != nil {
		return nil, err
	}
	return s.syncSnapshot(ctx, snap, "api:"+uuid.NewString())
}

// SubscriptionDetails reads the live state of the caller's subscription.
func (s *ContributionService) SubscriptionDetails(ctx context.Context, userID, stripeID string) (*payments.SubscriptionSnapshot, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if _, err := s.ownedSubscription(ctx, userID, stripeID); err != nil {
		return nil, err
	}
	return s.gateway.GetSubscription(ctx, stripeID)
}

// Contributions groups a user's recurring and one-time gifts.
type Contributions struct {
	Subscriptions []domain.Subscription    `json:"subscriptions"`
	Donations     []domain.OneTimeDonation `json:"donations"`
}

func (s *ContributionService) Mine(ctx context.Context, userID string) (*Contributions, error) {
	subs, err := s.subs.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	donations, err := s.donations.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Contributions{Subscriptions: subs, Donations: donations}, nil
}

func (s *ContributionService) syncSnapshot(ctx context.Context, snap *payments.SubscriptionSnapshot, ref string) (*domain.Subscription, error) {
	sub := &domain.Subscription{
		UserID:               snap.Metadata[payments.MetaUserID],
		PoolID:               snap.Metadata[payments.MetaPoolID],
		StripeSubscriptionID: snap.ID,
		StripeCustomerID:     snap.CustomerID,
		AmountCents:          snap.AmountCents,
		Interval:             snap.Interval,
		Status:               snap.Status,
		CurrentPeriodEnd:     snap.CurrentPeriodEnd,
		CancelAtPeriodEnd:    snap.CancelAtPeriodEnd,
	}
	synced, pool, err := s.subs.Sync(ctx, sub, ref)
	if err != nil {
		return nil, err
	}
	publishPool(s.publisher, pool)
	return synced, nil
}
