package payments

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/domain"
)

const testWebhookSecret = "whsec_test"

func newTestGateway(t *testing.T, handler http.HandlerFunc) *StripeGateway {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	g, err := NewStripeGateway(StripeOptions{
		SecretKey:     "sk_test_123",
		WebhookSecret: testWebhookSecret,
		BaseURL:       srv.URL,
		HTTPClient:    srv.Client(),
		Logger:        zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("NewStripeGateway error: %v", err)
	}
	return g
}

func TestNewStripeGatewayRequiresKey(t *testing.T) {
	if _, err := NewStripeGateway(StripeOptions{}); !errors.Is(err, domain.ErrPaymentsDisabled) {
		t.Fatalf("expected ErrPaymentsDisabled, got %v", err)
	}
}

func TestCreateCheckoutSubscription(t *testing.T) {
	var form map[string]string
	var idempotency string
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/checkout/sessions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		idempotency = r.Header.Get("Idempotency-Key")
		_ = r.ParseForm()
		form = map[string]string{}
		for k, v := range r.PostForm {
			form[k] = v[0]
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"cs_test_1","object":"checkout.session","url":"https://checkout.example/cs_test_1"}`))
	})
	session, err := g.CreateCheckout(context.Background(), CheckoutRequest{
		Mode:        ModeSubscription,
		AmountCents: 2500,
		Interval:    domain.IntervalMonth,
		SuccessURL:  "https://app.example/success",
		CancelURL:   "https://app.example/cancel",
		Metadata:    map[string]string{MetaKind: KindSubscription, MetaPoolID: "pool-1"},
	})
	if err != nil {
		t.Fatalf("CreateCheckout error: %v", err)
	}
	if session.ID != "cs_test_1" || session.URL != "https://checkout.example/cs_test_1" {
		t.Fatalf("unexpected session: %+v", session)
	}
	if idempotency == "" {
		t.Fatalf("expected idempotency key header")
	}
	want := map[string]string{
		"mode":                                           "subscription",
		"line_items[0][price_data][unit_amount]":         "2500",
		"line_items[0][price_data][currency]":            "cad",
		"line_items[0][price_data][recurring][interval]": "month",
		"metadata[pool_id]":                              "pool-1",
		"subscription_data[metadata][pool_id]":           "pool-1",
	}
	for k, v := range want {
		if form[k] != v {
			t.Fatalf("form[%s] = %q, want %q (form=%v)", k, form[k], v, form)
		}
	}
}

func TestCreateCheckoutRejectsSmallAmounts(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("no request expected")
	})
	_, err := g.CreateCheckout(context.Background(), CheckoutRequest{Mode: ModePayment, AmountCents: 99})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUpdateSubscriptionAmountKeepsProduct(t *testing.T) {
	subJSON := func(amount int64) string {
		return `{"id":"sub_1","object":"subscription","status":"active","customer":"cus_1","current_period_end":1767225600,
			"items":{"object":"list","data":[{"id":"si_1","quantity":1,"price":{"id":"price_1","currency":"cad","unit_amount":` +
			itoa(amount) + `,"product":"prod_1","recurring":{"interval":"month"}}}]}}`
	}
	var updateForm map[string]string
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.Method {
		case http.MethodGet:
			_, _ = w.Write([]byte(subJSON(1000)))
		case http.MethodPost:
			_ = r.ParseForm()
			updateForm = map[string]string{}
			for k, v := range r.PostForm {
				updateForm[k] = v[0]
			}
			_, _ = w.Write([]byte(subJSON(3000)))
		}
	})
	snap, err := g.UpdateSubscriptionAmount(context.Background(), "sub_1", 3000)
	if err != nil {
		t.Fatalf("UpdateSubscriptionAmount error: %v", err)
	}
	if updateForm["items[0][id]"] != "si_1" || updateForm["items[0][price_data][product]"] != "prod_1" {
		t.Fatalf("unexpected update form: %v", updateForm)
	}
	if snap.AmountCents != 3000 || snap.Interval != domain.IntervalMonth || snap.CustomerID != "cus_1" {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if snap.CurrentPeriodEnd == nil || snap.CurrentPeriodEnd.Unix() != 1767225600 {
		t.Fatalf("unexpected period end: %v", snap.CurrentPeriodEnd)
	}
}

func TestGetSubscriptionNotFound(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"type":"invalid_request_error","code":"resource_missing","message":"No such subscription"}}`))
	})
	if _, err := g.GetSubscription(context.Background(), "sub_missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func signedEvent(t *testing.T, eventType string, object any) ([]byte, string) {
	t.Helper()
	payload, err := json.Marshal(map[string]any{
		"id":          "evt_" + eventType,
		"object":      "event",
		"type":        eventType,
		"created":     time.Now().Unix(),
		"api_version": "2020-08-27",
		"data":        map[string]any{"object": object},
	})
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{Payload: payload, Secret: testWebhookSecret})
	return payload, signed.Header
}

func TestParseEventDecodesObjects(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {})

	payload, header := signedEvent(t, EventCheckoutCompleted, map[string]any{
		"id": "cs_1", "object": "checkout.session", "mode": "payment", "payment_status": "paid",
		"payment_intent": "pi_1", "amount_total": 5000, "metadata": map[string]string{MetaKind: KindPoolDonation},
	})
	ev, err := g.ParseEvent(payload, header)
	if err != nil {
		t.Fatalf("ParseEvent error: %v", err)
	}
	if ev.Checkout == nil || ev.Checkout.SessionID != "cs_1" || ev.Checkout.PaymentIntentID != "pi_1" || !ev.Checkout.Paid() {
		t.Fatalf("unexpected checkout: %+v", ev.Checkout)
	}
	if ev.Checkout.Metadata[MetaKind] != KindPoolDonation {
		t.Fatalf("metadata lost: %v", ev.Checkout.Metadata)
	}

	payload, header = signedEvent(t, EventInvoicePaid, map[string]any{
		"id": "in_1", "object": "invoice", "subscription": "sub_1", "customer": "cus_1", "amount_paid": 2500,
	})
	ev, err = g.ParseEvent(payload, header)
	if err != nil {
		t.Fatalf("ParseEvent error: %v", err)
	}
	if ev.Invoice == nil || ev.Invoice.SubscriptionID != "sub_1" || ev.Invoice.AmountPaidCents != 2500 {
		t.Fatalf("unexpected invoice: %+v", ev.Invoice)
	}

	payload, header = signedEvent(t, EventChargeRefunded, map[string]any{
		"id": "ch_1", "object": "charge", "payment_intent": "pi_1", "amount": 5000, "amount_refunded": 5000,
	})
	ev, err = g.ParseEvent(payload, header)
	if err != nil {
		t.Fatalf("ParseEvent error: %v", err)
	}
	if ev.Charge == nil || ev.Charge.PaymentIntentID != "pi_1" || !ev.Charge.FullyRefunded() {
		t.Fatalf("unexpected charge: %+v", ev.Charge)
	}
}

func TestParseEventRejectsBadSignature(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {})
	payload, _ := signedEvent(t, EventInvoicePaid, map[string]any{"id": "in_1"})
	if _, err := g.ParseEvent(payload, "t=1,v1=deadbeef"); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
	if _, err := g.ParseEvent(payload, ""); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature for missing header, got %v", err)
	}
}

func itoa(v int64) string {
	raw, _ := json.Marshal(v)
	return string(raw)
}
