package payments

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v76"

	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/domain"
)

// Event types the webhook reconciles.
const (
	EventCheckoutCompleted      = "checkout.session.completed"
	EventSubscriptionCreated    = "customer.subscription.created"
	EventSubscriptionUpdated    = "customer.subscription.updated"
	EventSubscriptionDeleted    = "customer.subscription.deleted"
	EventInvoicePaid            = "invoice.payment_succeeded"
	EventInvoiceFailed          = "invoice.payment_failed"
	EventPaymentIntentSucceeded = "payment_intent.succeeded"
	EventPaymentIntentFailed    = "payment_intent.payment_failed"
	EventChargeRefunded         = "charge.refunded"
)

// Event is a verified webhook event with its object decoded into one snapshot.
type Event struct {
	ID      string
	Type    string
	Created time.Time

	Checkout      *CheckoutCompleted
	Subscription  *SubscriptionSnapshot
	Invoice       *InvoiceSnapshot
	PaymentIntent *PaymentIntentSnapshot
	Charge        *ChargeSnapshot
}

type CheckoutCompleted struct {
	SessionID       string
	Mode            CheckoutMode
	PaymentStatus   string
	PaymentIntentID string
	SubscriptionID  string
	CustomerID      string
	AmountCents     int64
	Metadata        map[string]string
}

// Paid reports whether funds were captured when the session completed.
func (c CheckoutCompleted) Paid() bool {
	return c.PaymentStatus == string(stripe.CheckoutSessionPaymentStatusPaid) ||
		c.PaymentStatus == string(stripe.CheckoutSessionPaymentStatusNoPaymentRequired)
}

type InvoiceSnapshot struct {
	ID              string
	SubscriptionID  string
	CustomerID      string
	AmountPaidCents int64
	BillingReason   string
}

type PaymentIntentSnapshot struct {
	ID          string
	Status      string
	AmountCents int64
	Metadata    map[string]string
}

type ChargeSnapshot struct {
	ID                  string
	PaymentIntentID     string
	Refunded            bool
	AmountCents         int64
	AmountRefundedCents int64
}

// FullyRefunded reports whether the whole charge was returned.
func (c ChargeSnapshot) FullyRefunded() bool {
	return c.Refunded || (c.AmountCents > 0 && c.AmountRefundedCents >= c.AmountCents)
}

func decodeEvent(e stripe.Event) (*Event, error) {
	out := &Event{
		ID:      e.ID,
		Type:    string(e.Type),
		Created: time.Unix(e.Created, 0).UTC(),
	}
	if e.Data == nil {
		return out, nil
	}
	raw := e.Data.Raw
	switch out.Type {
	case EventCheckoutCompleted:
		var s stripe.CheckoutSession
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("decode checkout session: %w", err)
		}
		out.Checkout = checkoutSnapshot(&s)
	case EventSubscriptionCreated, EventSubscriptionUpdated, EventSubscriptionDeleted:
		var s stripe.Subscription
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("decode subscription: %w", err)
		}
		out.Subscription = subscriptionSnapshot(&s)
	case EventInvoicePaid, EventInvoiceFailed:
		var inv stripe.Invoice
		if err := json.Unmarshal(raw, &inv); err != nil {
			return nil, fmt.Errorf("decode invoice: %w", err)
		}
		snap := &InvoiceSnapshot{
			ID:              inv.ID,
			AmountPaidCents: inv.AmountPaid,
			BillingReason:   string(inv.BillingReason),
		}
		if inv.Subscription != nil {
			snap.SubscriptionID = inv.Subscription.ID
		}
		if inv.Customer != nil {
			snap.CustomerID = inv.Customer.ID
		}
		out.Invoice = snap
	case EventPaymentIntentSucceeded, EventPaymentIntentFailed:
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(raw, &pi); err != nil {
			return nil, fmt.Errorf("decode payment intent: %w", err)
		}
		out.PaymentIntent = &PaymentIntentSnapshot{
			ID:          pi.ID,
			Status:      string(pi.Status),
			AmountCents: pi.Amount,
			Metadata:    pi.Metadata,
		}
	case EventChargeRefunded:
		var ch stripe.Charge
		if err := json.Unmarshal(raw, &ch); err != nil {
			return nil, fmt.Errorf("decode charge: %w", err)
		}
		snap := &ChargeSnapshot{
			ID:                  ch.ID,
			Refunded:            ch.Refunded,
			AmountCents:         ch.Amount,
			AmountRefundedCents: ch.AmountRefunded,
		}
		if ch.PaymentIntent != nil {
			snap.PaymentIntentID = ch.PaymentIntent.ID
		}
		out.Charge = snap
	}
	return out, nil
}

func checkoutSnapshot(s *stripe.CheckoutSession) *CheckoutCompleted {
	snap := &CheckoutCompleted{
		SessionID:     s.ID,
		Mode:          CheckoutMode(s.Mode),
		PaymentStatus: string(s.PaymentStatus),
		AmountCents:   s.AmountTotal,
		Metadata:      s.Metadata,
	}
	if s.PaymentIntent != nil {
		snap.PaymentIntentID = s.PaymentIntent.ID
	}
	if s.Subscription != nil {
		snap.SubscriptionID = s.Subscription.ID
	}
	if s.Customer != nil {
		snap.CustomerID = s.Customer.ID
	}
	return snap
}

func subscriptionSnapshot(s *stripe.Subscription) *SubscriptionSnapshot {
	snap := &SubscriptionSnapshot{
		ID:                s.ID,
		Status:            domain.SubscriptionStatus(s.Status),
		CancelAtPeriodEnd: s.CancelAtPeriodEnd,
		Metadata:          s.Metadata,
	}
	if s.Customer != nil {
		snap.CustomerID = s.Customer.ID
	}
	if s.CurrentPeriodEnd > 0 {
		end := time.Unix(s.CurrentPeriodEnd, 0).UTC()
		snap.CurrentPeriodEnd = &end
	}
	if s.Items == nil || len(s.Items.Data) == 0 {
		return snap
	}
	item := s.Items.Data[0]
	snap.ItemID = item.ID
	qty := item.Quantity
	if qty <= 0 {
		qty = 1
	}
	if price := item.Price; price != nil {
		snap.AmountCents = price.UnitAmount * qty
		snap.Currency = string(price.Currency)
		if price.Product != nil {
			snap.ProductID = price.Product.ID
		}
		if price.Recurring != nil {
			snap.Interval = domain.BillingInterval(price.Recurring.Interval)
		}
	}
	return snap
}
