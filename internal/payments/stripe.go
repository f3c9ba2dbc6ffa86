package payments

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/domain"
)

type StripeOptions struct {
	SecretKey     string
	WebhookSecret string
	Currency      string
	// BaseURL overrides the API host, used against stripe-mock and in tests.
	BaseURL    string
	HTTPClient *http.Client
	Logger     zerolog.Logger
}

// StripeGateway implements Gateway on top of stripe-go.
type StripeGateway struct {
	api           *client.API
	webhookSecret string
	currency      string
	logger        zerolog.Logger
}

func NewStripeGateway(opts StripeOptions) (*StripeGateway, error) {
	key := strings.TrimSpace(opts.SecretKey)
	if key == "" {
		return nil, domain.ErrPaymentsDisabled
	}
	currency := strings.ToLower(strings.TrimSpace(opts.Currency))
	if currency == "" {
		currency = "cad"
	}
	cfg := &stripe.BackendConfig{
		HTTPClient:        opts.HTTPClient,
		LeveledLogger:     leveledLogger{logger: opts.Logger},
		MaxNetworkRetries: stripe.Int64(2),
	}
	if base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"); base != "" {
		cfg.URL = stripe.String(base)
	}
	backend := stripe.GetBackendWithConfig(stripe.APIBackend, cfg)
	api := client.New(key, &stripe.Backends{API: backend, Connect: backend, Uploads: backend})
	return &StripeGateway{
		api:           api,
		webhookSecret: strings.TrimSpace(opts.WebhookSecret),
		currency:      currency,
		logger:        opts.Logger,
	}, nil
}

func (g *StripeGateway) CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	if req.AmountCents < MinimumAmountCents {
		return nil, domain.Invalid("amountCents", fmt.Sprintf("must be at least %d", MinimumAmountCents))
	}
	name := strings.TrimSpace(req.ProductName)
	if name == "" {
		name = "Community pool contribution"
	}
	priceData := &stripe.CheckoutSessionLineItemPriceDataParams{
		Currency:   stripe.String(g.currency),
		UnitAmount: stripe.Int64(req.AmountCents),
		ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name: stripe.String(name),
		},
	}
	if req.Description != "" {
		priceData.ProductData.Description = stripe.String(req.Description)
	}
	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(req.Mode)),
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			PriceData: priceData,
			Quantity:  stripe.Int64(1),
		}},
		Metadata: req.Metadata,
	}
	if req.Locale != "" {
		params.Locale = stripe.String(req.Locale)
	}
	if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}
	switch req.Mode {
	case ModeSubscription:
		interval := req.Interval
		if !interval.Valid() {
			return nil, domain.Invalid("interval", "must be week, month or year")
		}
		priceData.Recurring = &stripe.CheckoutSessionLineItemPriceDataRecurringParams{
			Interval: stripe.String(string(interval)),
		}
		params.SubscriptionData = &stripe.CheckoutSessionSubscriptionDataParams{Metadata: req.Metadata}
	case ModePayment:
		params.PaymentIntentData = &stripe.CheckoutSessionPaymentIntentDataParams{Metadata: req.Metadata}
	default:
		return nil, domain.Invalid("mode", "must be subscription or payment")
	}
	params.Context = ctx
	params.IdempotencyKey = stripe.String(uuid.NewString())

	session, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}
	return &CheckoutSession{ID: session.ID, URL: session.URL}, nil
}

func (g *StripeGateway) CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error) {
	if strings.TrimSpace(customerID) == "" {
		return "", domain.Invalid("customer", "no billing account on file")
	}
	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(returnURL),
	}
	params.Context = ctx
	session, err := g.api.BillingPortalSessions.New(params)
	if err != nil {
		return "", fmt.Errorf("create portal session: %w", err)
	}
	return session.URL, nil
}

func (g *StripeGateway) GetSubscription(ctx context.Context, id string) (*SubscriptionSnapshot, error) {
	params := &stripe.SubscriptionParams{}
	params.Context = ctx
	sub, err := g.api.Subscriptions.Get(id, params)
	if err != nil {
		return nil, mapStripeError("get subscription", err)
	}
	return subscriptionSnapshot(sub), nil
}

// UpdateSubscriptionAmount swaps the single price item for one with the new amount,
// keeping product, currency and interval. The change applies from the next invoice.
func (g *StripeGateway) UpdateSubscriptionAmount(ctx context.Context, id string, amountCents int64) (*SubscriptionSnapshot, error) {
	if amountCents < MinimumAmountCents {
		return nil, domain.Invalid("amountCents", fmt.Sprintf("must be at least %d", MinimumAmountCents))
	}
	current, err := g.GetSubscription(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.ItemID == "" || current.ProductID == "" {
		return nil, ErrNoSubscriptionItem
	}
	currency := current.Currency
	if currency == "" {
		currency = g.currency
	}
	params := &stripe.SubscriptionParams{
		Items: []*stripe.SubscriptionItemsParams{{
			ID: stripe.String(current.ItemID),
			PriceData: &stripe.SubscriptionItemPriceDataParams{
				Currency:   stripe.String(currency),
				Product:    stripe.String(current.ProductID),
				UnitAmount: stripe.Int64(amountCents),
				Recurring: &stripe.SubscriptionItemPriceDataRecurringParams{
					Interval: stripe.String(string(current.Interval)),
				},
			},
		}},
		ProrationBehavior: stripe.String("none"),
	}
	params.Context = ctx
	sub, err := g.api.Subscriptions.Update(id, params)
	if err != nil {
		return nil, mapStripeError("update subscription", err)
	}
	return subscriptionSnapshot(sub), nil
}

func (g *StripeGateway) CancelSubscription(ctx context.Context, id string, atPeriodEnd bool) (*SubscriptionSnapshot, error) {
	if atPeriodEnd {
		params := &stripe.SubscriptionParams{CancelAtPeriodEnd: stripe.Bool(true)}
		params.Context = ctx
		sub, err := g.api.Subscriptions.Update(id, params)
		if err != nil {
			return nil, mapStripeError("schedule cancellation", err)
		}
		return subscriptionSnapshot(sub), nil
	}
	params := &stripe.SubscriptionCancelParams{}
	params.Context = ctx
	sub, err := g.api.Subscriptions.Cancel(id, params)
	if err != nil {
		return nil, mapStripeError("cancel subscription", err)
	}
	return subscriptionSnapshot(sub), nil
}

// ParseEvent verifies the Stripe-Signature header and decodes the event object.
func (g *StripeGateway) ParseEvent(payload []byte, signatureHeader string) (*Event, error) {
	if g.webhookSecret == "" {
		return nil, domain.ErrPaymentsDisabled
	}
	event, err := webhook.ConstructEventWithOptions(payload, signatureHeader, g.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		if errors.Is(err, webhook.ErrNotSigned) || errors.Is(err, webhook.ErrInvalidHeader) ||
			errors.Is(err, webhook.ErrNoValidSignature) || errors.Is(err, webhook.ErrTooOld) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
		}
		return nil, fmt.Errorf("construct event: %w", err)
	}
	return decodeEvent(event)
}

func mapStripeError(op string, err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) && stripeErr.HTTPStatusCode == http.StatusNotFound {
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}
	return fmt.Errorf("%s: %w", op, err)
}

var _ Gateway = (*StripeGateway)(nil)

// leveledLogger routes stripe-go's internal logging into zerolog.
type leveledLogger struct {
	logger zerolog.Logger
}

func (l leveledLogger) Debugf(format string, v ...interface{}) {
	l.logger.Debug().Str("component", "stripe").Msgf(format, v...)
}

func (l leveledLogger) Infof(format string, v ...interface{}) {
	l.logger.Debug().Str("component", "stripe").Msgf(format, v...)
}

func (l leveledLogger) Warnf(format string, v ...interface{}) {
	l.logger.Warn().Str("component", "stripe").Msgf(format, v...)
}

func (l leveledLogger) Errorf(format string, v ...interface{}) {
	l.logger.Error().Str("component", "stripe").Msgf(format, v...)
}
