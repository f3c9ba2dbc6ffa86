package handlers

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/domain"
	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/infra"
	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/payments"
	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/service"
)

// Stubs embed the interface so only the methods a test sets are callable.

type stubBills struct {
	BillAPI
	submit   func(userID string, in service.SubmitInput) (*domain.BillSubmission, error)
	upload   func(userID, filename string, data []byte) (string, error)
	get      func(actor service.Actor, id string) (*domain.BillSubmission, error)
	list     func(filter domain.BillFilter) ([]domain.BillSubmission, error)
	eligible func(userID string) (domain.Eligibility, error)
}

func (s stubBills) Submit(_ context.Context, userID string, in service.SubmitInput) (*domain.BillSubmission, error) {
	return s.submit(userID, in)
}

func (s stubBills) Upload(_ context.Context, userID, filename string, data []byte) (string, error) {
	return s.upload(userID, filename, data)
}

func (s stubBills) Get(_ context.Context, actor service.Actor, id string) (*domain.BillSubmission, error) {
	return s.get(actor, id)
}

func (s stubBills) ListForReview(_ context.Context, filter domain.BillFilter) ([]domain.BillSubmission, error) {
	return s.list(filter)
}

func (s stubBills) CheckEligibility(_ context.Context, userID string) (domain.Eligibility, error) {
	return s.eligible(userID)
}

type stubPools struct {
	PoolAPI
	pay     func(adminID, billID string, in service.PaymentInput) (*domain.Payment, *domain.CommunityPool, error)
	payment func(billID string) (*domain.Payment, error)
}

func (s stubPools) ProcessPayment(_ context.Context, adminID, billID string, in service.PaymentInput) (*domain.Payment, *domain.CommunityPool, error) {
	return s.pay(adminID, billID, in)
}

func (s stubPools) Payment(_ context.Context, billID string) (*domain.Payment, error) {
	return s.payment(billID)
}

type stubContributions struct {
	ContributionAPI
	checkout func(userID string, in service.CheckoutInput) (*payments.CheckoutSession, error)
	webhook  func(payload []byte, signature string) error
}

func (s stubContributions) Checkout(_ context.Context, userID string, in service.CheckoutInput) (*payments.CheckoutSession, error) {
	return s.checkout(userID, in)
}

func (s stubContributions) HandleWebhook(_ context.Context, payload []byte, signature string) error {
	return s.webhook(payload, signature)
}

type stubCampaigns struct {
	CampaignAPI
	qr func(slug string) ([]byte, error)
}

func (s stubCampaigns) QRCode(_ context.Context, slug string) ([]byte, error) {
	return s.qr(slug)
}

type stubUsers struct {
	UserAPI
	patch func(userID string, p service.ProfilePatch) (*domain.User, *domain.CommunityPool, error)
}

func (s stubUsers) Patch(_ context.Context, userID string, p service.ProfilePatch) (*domain.User, *domain.CommunityPool, error) {
	return s.patch(userID, p)
}

type memStore struct {
	objects map[string][]byte
}

func (m memStore) Write(_ context.Context, key string, data []byte, _ string) (string, error) {
	m.objects[key] = data
	return key, nil
}

func (m memStore) Read(_ context.Context, key string) ([]byte, error) {
	data, ok := m.objects[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return data, nil
}

func (m memStore) SignedURL(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://files.test/" + key, nil
}

const testSecret = "test-secret"

func newTestApp() *App {
	return NewApp(&infra.Config{JWTSecret: testSecret}, zerolog.Nop())
}
