package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/domain"
	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/middleware"
	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/payments"
	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/service"
)

// maxWebhookBytes bounds a webhook payload; Stripe events are well below this.
const maxWebhookBytes = 1 << 16

type checkoutRequest struct {
	Mode        string `json:"mode" validate:"required,oneof=subscription payment"`
	AmountCents int64  `json:"amountCents" validate:"gte=100"`
	Interval    string `json:"interval" validate:"omitempty,oneof=week month year"`
	PoolID      string `json:"poolId"`
}

type checkoutResponse struct {
	URL       string `json:"url"`
	SessionID string `json:"sessionId"`
}

// StripeCheckout starts a hosted checkout for a pool subscription or one-time gift.
func (a *App) StripeCheckout(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	var req checkoutRequest
	if !a.decode(w, r, &req) {
		return
	}
	session, err := a.Contributions.Checkout(r.Context(), userID, service.CheckoutInput{
		Mode:        payments.CheckoutMode(req.Mode),
		AmountCents: req.AmountCents,
		Interval:    domain.BillingInterval(req.Interval),
		PoolID:      req.PoolID,
		Locale:      middleware.LocaleFromContext(r.Context()),
	})
	if err != nil {
		a.fail(w, r, err, "create checkout")
		return
	}
	a.json(w, http.StatusOK, checkoutResponse{URL: session.URL, SessionID: session.ID})
}

type campaignDonationRequest struct {
	CampaignSlug string `json:"campaignSlug" validate:"required"`
	AmountCents  int64  `json:"amountCents" validate:"gte=100"`
	DonorName    string `json:"donorName" validate:"max=120"`
	Message      string `json:"message" validate:"max=500"`
	Anonymous    bool   `json:"anonymous"`
}

// StripeCampaignDonation starts a checkout for a campaign; donors need no account.
func (a *App) StripeCampaignDonation(w http.ResponseWriter, r *http.Request) {
	var req campaignDonationRequest
	if !a.decode(w, r, &req) {
		return
	}
	session, err := a.Contributions.CampaignCheckout(r.Context(), service.CampaignCheckoutInput{
		CampaignSlug: req.CampaignSlug,
		AmountCents:  req.AmountCents,
		DonorName:    req.DonorName,
		Message:      req.Message,
		Anonymous:    req.Anonymous,
		Locale:       middleware.LocaleFromContext(r.Context()),
	})
	if err != nil {
		a.fail(w, r, err, "create checkout")
		return
	}
	a.json(w, http.StatusOK, checkoutResponse{URL: session.URL, SessionID: session.ID})
}

type portalRequest struct {
	ReturnURL string `json:"returnUrl" validate:"omitempty,url"`
}

func (a *App) StripePortal(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	var req portalRequest
	if r.ContentLength != 0 && !a.decode(w, r, &req) {
		return
	}
	url, err := a.Contributions.PortalSession(r.Context(), userID, req.ReturnURL)
	if err != nil {
		a.fail(w, r, err, "create portal session")
		return
	}
	a.json(w, http.StatusOK, map[string]string{"url": url})
}

type updateSubscriptionRequest struct {
	SubscriptionID string `json:"subscriptionId" validate:"required"`
	AmountCents    int64  `json:"amountCents" validate:"gte=100"`
}

func (a *App) StripeUpdateSubscription(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	var req updateSubscriptionRequest
	if !a.decode(w, r, &req) {
		return
	}
	sub, err := a.Contributions.UpdateSubscription(r.Context(), userID, req.SubscriptionID, req.AmountCents)
	if err != nil {
		a.fail(w, r, err, "update subscription")
		return
	}
	a.json(w, http.StatusOK, sub)
}

type cancelSubscriptionRequest struct {
	SubscriptionID string `json:"subscriptionId" validate:"required"`
	AtPeriodEnd    bool   `json:"atPeriodEnd"`
}

func (a *App) StripeCancelSubscription(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	var req cancelSubscriptionRequest
	if !a.decode(w, r, &req) {
		return
	}
	sub, err := a.Contributions.CancelSubscription(r.Context(), userID, req.SubscriptionID, req.AtPeriodEnd)
	if err != nil {
		a.fail(w, r, err, "cancel subscription")
		return
	}
	a.json(w, http.StatusOK, sub)
}

func (a *App) StripeSubscriptionDetails(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	snap, err := a.Contributions.SubscriptionDetails(r.Context(), userID, r.URL.Query().Get("subscriptionId"))
	if err != nil {
		a.fail(w, r, err, "load subscription")
		return
	}
	a.json(w, http.StatusOK, snap)
}

func (a *App) ContributionsMine(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	mine, err := a.Contributions.Mine(r.Context(), userID)
	if err != nil {
		a.fail(w, r, err, "load contributions")
		return
	}
	if mine.Subscriptions == nil {
		mine.Subscriptions = []domain.Subscription{}
	}
	if mine.Donations == nil {
		mine.Donations = []domain.OneTimeDonation{}
	}
	a.json(w, http.StatusOK, mine)
}

// StripeWebhook acknowledges verified events. Any processing error answers 500
// so the provider redelivers; bad signatures answer 400.
func (a *App) StripeWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
	if err != nil {
		a.error(w, http.StatusRequestEntityTooLarge, "too_large", "payload too large")
		return
	}
	err = a.Contributions.HandleWebhook(r.Context(), payload, r.Header.Get("Stripe-Signature"))
	switch {
	case err == nil:
		a.json(w, http.StatusOK, map[string]bool{"received": true})
	case errors.Is(err, payments.ErrInvalidSignature):
		a.error(w, http.StatusBadRequest, "invalid_signature", "webhook signature verification failed")
	case errors.Is(err, domain.ErrPaymentsDisabled):
		a.error(w, http.StatusServiceUnavailable, "payments_disabled", "payments are not configured")
	default:
		a.Logger.Error().Err(err).Msg("stripe webhook failed")
		a.error(w, http.StatusInternalServerError, "internal", "webhook processing failed")
	}
}
