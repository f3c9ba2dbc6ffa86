package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/domain"
	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/payments"
)

// HandleWebhook verifies and applies one payment provider event. Events already
// processed are acknowledged without side effects. A returned error means the
// provider should redeliver, except errors matching payments.ErrInvalidSignature.
func (s *ContributionService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	if err := s.ready(); err != nil {
		return err
	}
	evt, err := s.gateway.ParseEvent(payload, signature)
	if err != nil {
		return err
	}
	log := s.logger.With().Str("event_id", evt.ID).Str("event_type", evt.Type).Logger()

	seen, err := s.events.Seen(ctx, evt.ID)
	if err != nil {
		return fmt.Errorf("check webhook event: %w", err)
	}
	if seen {
		log.Debug().Msg("webhook event already processed")
		return nil
	}
	if err := s.apply(ctx, evt); err != nil {
		log.Error().Err(err).Msg("webhook event failed")
		return fmt.Errorf("handle %s: %w", evt.Type, err)
	}
	if err := s.events.MarkProcessed(ctx, evt.ID, evt.Type); err != nil {
		return fmt.Errorf("mark webhook event: %w", err)
	}
	log.Info().Msg("webhook event processed")
	return nil
}

func (s *ContributionService) apply(ctx context.Context, evt *payments.Event) error {
	switch evt.Type {
	case payments.EventCheckoutCompleted:
		return s.onCheckoutCompleted(ctx, evt)
	case payments.EventSubscriptionCreated, payments.EventSubscriptionUpdated, payments.EventSubscriptionDeleted:
		if evt.Subscription == nil {
			return nil
		}
		return s.onSubscriptionEvent(ctx, evt)
	case payments.EventInvoicePaid:
		return s.onInvoicePaid(ctx, evt)
	case payments.EventInvoiceFailed:
		return s.onInvoiceFailed(ctx, evt)
	case payments.EventPaymentIntentSucceeded:
		return s.onPaymentIntent(ctx, evt, domain.DonationSucceeded)
	case payments.EventPaymentIntentFailed:
		return s.onPaymentIntent(ctx, evt, domain.DonationFailed)
	case payments.EventChargeRefunded:
		return s.onChargeRefunded(ctx, evt)
	default:
		s.logger.Debug().Str("event_type", evt.Type).Msg("webhook event ignored")
		return nil
	}
}

func (s *ContributionService) onCheckoutCompleted(ctx context.Context, evt *payments.Event) error {
	c := evt.Checkout
	if c == nil {
		return nil
	}
	log := s.logger.With().Str("event_id", evt.ID).Str("session_id", c.SessionID).Logger()
	switch c.Metadata[payments.MetaKind] {
	case payments.KindSubscription:
		if c.SubscriptionID == "" {
			return nil
		}
		snap, err := s.gateway.GetSubscription(ctx, c.SubscriptionID)
		if err != nil {
			return err
		}
		return s.syncFromEvent(ctx, snap, evt.ID)
	case payments.KindPoolDonation:
		if !c.Paid() {
			log.Info().Str("payment_status", c.PaymentStatus).Msg("checkout completed without payment")
			return nil
		}
		d, err := s.donations.FindBySession(ctx, c.SessionID)
		if errors.Is(err, domain.ErrNotFound) {
			log.Warn().Msg("no pending donation for session")
			return nil
		}
		if err != nil {
			return err
		}
		_, pool, err := s.donations.SetStatus(ctx, d.ID, domain.DonationSucceeded, c.PaymentIntentID)
		if err != nil {
			return err
		}
		publishPool(s.publisher, pool)
		return nil
	case payments.KindCampaignDonation:
		if !c.Paid() {
			return nil
		}
		d, err := s.campaignDonations.FindBySession(ctx, c.SessionID)
		if errors.Is(err, domain.ErrNotFound) {
			log.Warn().Msg("no pending campaign donation for session")
			return nil
		}
		if err != nil {
			return err
		}
		return s.settleCampaignDonation(ctx, d.ID, domain.DonationSucceeded, c.PaymentIntentID)
	default:
		log.Warn().Str("kind", c.Metadata[payments.MetaKind]).Msg("checkout without a known kind")
		return nil
	}
}

// syncFromEvent applies a subscription snapshot. Snapshots for subscriptions this
// service did not create carry no user or pool and are skipped; redelivery would
// not fix them.
func (s *ContributionService) syncFromEvent(ctx context.Context, snap *payments.SubscriptionSnapshot, ref string) error {
	_, err := s.syncSnapshot(ctx, snap, ref)
	if errors.Is(err, domain.ErrValidation) {
		s.logger.Warn().Err(err).Str("subscription_id", snap.ID).Msg("subscription snapshot skipped")
		return nil
	}
	return err
}

// onSubscriptionEvent syncs the subscription as Stripe holds it now rather than
// the event payload, because subscription events can arrive out of order.
func (s *ContributionService) onSubscriptionEvent(ctx context.Context, evt *payments.Event) error {
	snap, err := s.gateway.GetSubscription(ctx, evt.Subscription.ID)
	if errors.Is(err, domain.ErrNotFound) {
		snap, err = evt.Subscription, nil
	}
	if err != nil {
		return err
	}
	return s.syncFromEvent(ctx, snap, evt.ID)
}

func (s *ContributionService) onInvoicePaid(ctx context.Context, evt *payments.Event) error {
	inv := evt.Invoice
	if inv == nil || inv.SubscriptionID == "" || inv.AmountPaidCents <= 0 {
		return nil
	}
	_, pool, err := s.subs.RecordContribution(ctx, inv.SubscriptionID, inv.ID, inv.AmountPaidCents)
	if errors.Is(err, domain.ErrNotFound) {
		// The first invoice can arrive before the subscription events.
		snap, gerr := s.gateway.GetSubscription(ctx, inv.SubscriptionID)
		if gerr != nil {
			return gerr
		}
		if err := s.syncFromEvent(ctx, snap, evt.ID); err != nil {
			return err
		}
		_, pool, err = s.subs.RecordContribution(ctx, inv.SubscriptionID, inv.ID, inv.AmountPaidCents)
		if errors.Is(err, domain.ErrNotFound) {
			s.logger.Warn().Str("invoice_id", inv.ID).Msg("invoice for unknown subscription")
			return nil
		}
	}
	if err != nil {
		return err
	}
	publishPool(s.publisher, pool)
	return nil
}

func (s *ContributionService) onInvoiceFailed(ctx context.Context, evt *payments.Event) error {
	inv := evt.Invoice
	if inv == nil || inv.SubscriptionID == "" {
		return nil
	}
	s.logger.Warn().Str("invoice_id", inv.ID).Str("subscription_id", inv.SubscriptionID).Msg("subscription payment failed")
	if _, err := s.subs.GetByStripeID(ctx, inv.SubscriptionID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}
	snap, err := s.gateway.GetSubscription(ctx, inv.SubscriptionID)
	if err != nil {
		return err
	}
	return s.syncFromEvent(ctx, snap, evt.ID)
}

// onPaymentIntent settles donations already linked to the intent. Intents not
// yet linked are settled by checkout.session.completed instead.
func (s *ContributionService) onPaymentIntent(ctx context.Context, evt *payments.Event, status domain.DonationStatus) error {
	pi := evt.PaymentIntent
	if pi == nil || pi.ID == "" {
		return nil
	}
	switch pi.Metadata[payments.MetaKind] {
	case payments.KindCampaignDonation:
		d, err := s.campaignDonations.FindByPaymentIntent(ctx, pi.ID)
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if !allowIntentUpdate(d.Status, status) {
			return nil
		}
		return s.settleCampaignDonation(ctx, d.ID, status, pi.ID)
	default:
		d, err := s.donations.FindByPaymentIntent(ctx, pi.ID)
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if !allowIntentUpdate(d.Status, status) {
			return nil
		}
		_, pool, err := s.donations.SetStatus(ctx, d.ID, status, pi.ID)
		if err != nil {
			return err
		}
		publishPool(s.publisher, pool)
		return nil
	}
}

// allowIntentUpdate keeps late intent events from undoing a refund or success.
func allowIntentUpdate(current, next domain.DonationStatus) bool {
	switch current {
	case domain.DonationRefunded:
		return false
	case domain.DonationSucceeded:
		return next == domain.DonationSucceeded
	}
	return true
}

// onChargeRefunded reverses a fully refunded donation. A pool that has already
// spent the money cannot be debited; that is logged for an operator and acknowledged.
func (s *ContributionService) onChargeRefunded(ctx context.Context, evt *payments.Event) error {
	ch := evt.Charge
	if ch == nil || ch.PaymentIntentID == "" {
		return nil
	}
	log := s.logger.With().Str("event_id", evt.ID).Str("payment_intent_id", ch.PaymentIntentID).Logger()
	if !ch.FullyRefunded() {
		log.Info().Int64("refunded_cents", ch.AmountRefundedCents).Msg("partial refund left unbooked")
		return nil
	}

	d, err := s.donations.FindByPaymentIntent(ctx, ch.PaymentIntentID)
	switch {
	case err == nil:
		_, pool, err := s.donations.SetStatus(ctx, d.ID, domain.DonationRefunded, ch.PaymentIntentID)
		if errors.Is(err, domain.ErrInsufficientFunds) {
			log.Error().Str("donation_id", d.ID).Msg("refund exceeds pool balance; needs manual reconciliation")
			return nil
		}
		if err != nil {
			return err
		}
		publishPool(s.publisher, pool)
		return nil
	case !errors.Is(err, domain.ErrNotFound):
		return err
	}

	cd, err := s.campaignDonations.FindByPaymentIntent(ctx, ch.PaymentIntentID)
	if errors.Is(err, domain.ErrNotFound) {
		log.Debug().Msg("refund for unknown payment intent")
		return nil
	}
	if err != nil {
		return err
	}
	return s.settleCampaignDonation(ctx, cd.ID, domain.DonationRefunded, ch.PaymentIntentID)
}

func (s *ContributionService) settleCampaignDonation(ctx context.Context, id string, status domain.DonationStatus, paymentIntentID string) error {
	_, c, err := s.campaignDonations.SetStatus(ctx, id, status, paymentIntentID)
	if err != nil {
		return err
	}
	publishCampaign(s.publisher, c)
	return nil
}
