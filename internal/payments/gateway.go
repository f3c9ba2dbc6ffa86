package payments

import (
	"context"
	"errors"
	"time"

	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/domain"
)

// MinimumAmountCents is the smallest charge accepted for any checkout.
const MinimumAmountCents int64 = 100

// Metadata keys attached to checkout sessions and subscriptions.
const (
	MetaKind       = "kind"
	MetaPoolID     = "pool_id"
	MetaUserID     = "user_id"
	MetaCampaignID = "campaign_id"
	MetaDonationID = "donation_id"
)

// Checkout kinds stored under MetaKind.
const (
	KindPoolDonation     = "pool_donation"
	KindCampaignDonation = "campaign_donation"
	KindSubscription     = "subscription"
)

var (
	ErrInvalidSignature   = errors.New("invalid webhook signature")
	ErrNoSubscriptionItem = errors.New("subscription has no price item")
)

// CheckoutMode selects between a one-off payment and a recurring subscription.
type CheckoutMode string

const (
	ModePayment      CheckoutMode = "payment"
	ModeSubscription CheckoutMode = "subscription"
)

// CheckoutRequest describes a hosted checkout page.
type CheckoutRequest struct {
	Mode          CheckoutMode
	AmountCents   int64
	Interval      domain.BillingInterval
	ProductName   string
	Description   string
	CustomerEmail string
	// Locale is passed through to the hosted page ("en", "fr"); empty lets the provider decide.
	Locale     string
	SuccessURL string
	CancelURL  string
	Metadata   map[string]string
}

// CheckoutSession is the created hosted page.
type CheckoutSession struct {
	ID  string `json:"sessionId"`
	URL string `json:"url"`
}

// SubscriptionSnapshot is the provider's view of a subscription.
type SubscriptionSnapshot struct {
	ID                string                    `json:"id"`
	CustomerID        string                    `json:"customerId"`
	Status            domain.SubscriptionStatus `json:"status"`
	AmountCents       int64                     `json:"amountCents"`
	Currency          string                    `json:"currency"`
	Interval          domain.BillingInterval    `json:"interval"`
	CurrentPeriodEnd  *time.Time                `json:"currentPeriodEnd,omitempty"`
	CancelAtPeriodEnd bool                      `json:"cancelAtPeriodEnd"`
	Metadata          map[string]string         `json:"-"`
	ItemID            string                    `json:"-"`
	ProductID         string                    `json:"-"`
}

// Gateway is the payment processor surface the services depend on.
type Gateway interface {
	CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
	CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error)
	GetSubscription(ctx context.Context, id string) (*SubscriptionSnapshot, error)
	UpdateSubscriptionAmount(ctx context.Context, id string, amountCents int64) (*SubscriptionSnapshot, error)
	CancelSubscription(ctx context.Context, id string, atPeriodEnd bool) (*SubscriptionSnapshot, error)
	ParseEvent(payload []byte, signatureHeader string) (*Event, error)
}
