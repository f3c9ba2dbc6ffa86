package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/domain"
	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/infra/oidc"
	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/payments"
	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/providers/verify"
	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/storage"
)

var testNow = time.Date(2025, 3, 12, 15, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return testNow }

// memDB backs every in-memory repository so cross-entity rules (ledger, locks)
// behave like the PostgreSQL implementation.
type memDB struct {
	mu                sync.Mutex
	seq               int
	users             map[string]*domain.User
	pools             map[string]*domain.CommunityPool
	ledger            []domain.LedgerEntry
	bills             map[string]*domain.BillSubmission
	billOrder         []string
	payments          map[string]*domain.Payment
	campaigns         map[string]*domain.Campaign
	campaignDonations map[string]*domain.CampaignDonation
	donations         map[string]*domain.OneTimeDonation
	subs              map[string]*domain.Subscription
	events            map[string]string
	reports           map[string]*domain.ImpactReport
	charities         map[string]*domain.Charity
	needs             map[string]*domain.NeedsData
}

func newMemDB() *memDB {
	return &memDB{
		users:             map[string]*domain.User{},
		pools:             map[string]*domain.CommunityPool{},
		bills:             map[string]*domain.BillSubmission{},
		payments:          map[string]*domain.Payment{},
		campaigns:         map[string]*domain.Campaign{},
		campaignDonations: map[string]*domain.CampaignDonation{},
		donations:         map[string]*domain.OneTimeDonation{},
		subs:              map[string]*domain.Subscription{},
		events:            map[string]string{},
		reports:           map[string]*domain.ImpactReport{},
		charities:         map[string]*domain.Charity{},
		needs:             map[string]*domain.NeedsData{},
	}
}

func (db *memDB) nextID(prefix string) string {
	db.seq++
	return fmt.Sprintf("%s-%d", prefix, db.seq)
}

// applyLocked mirrors applyLedgerEntry: unique per (kind, ref) and a conditional debit.
func (db *memDB) applyLocked(entry domain.LedgerEntry) (*domain.CommunityPool, bool, error) {
	pool, ok := db.pools[entry.PoolID]
	if !ok {
		return nil, false, domain.ErrNotFound
	}
	for _, e := range db.ledger {
		if e.Kind == entry.Kind && e.RefType == entry.RefType && e.RefID == entry.RefID {
			cp := *pool
			return &cp, false, nil
		}
	}
	next := pool.Apply(entry.Delta())
	if next.TotalFundsAvailableCents < 0 {
		return nil, false, domain.ErrInsufficientFunds
	}
	entry.ID = db.nextID("entry")
	entry.CreatedAt = testNow
	db.ledger = append(db.ledger, entry)
	*pool = next
	cp := next
	return &cp, true, nil
}

// seedUser inserts a user directly.
func (db *memDB) seedUser(u domain.User) *domain.User {
	db.mu.Lock()
	defer db.mu.Unlock()
	if u.ID == "" {
		u.ID = db.nextID("user")
	}
	db.users[u.ID] = &u
	cp := u
	return &cp
}

// seedPool inserts a pool with the given balance.
func (db *memDB) seedPool(city, province string, funds int64) *domain.CommunityPool {
	db.mu.Lock()
	defer db.mu.Unlock()
	p := &domain.CommunityPool{ID: db.nextID("pool"), City: city, Province: province, TotalFundsAvailableCents: funds}
	db.pools[p.ID] = p
	cp := *p
	return &cp
}

func (db *memDB) seedBill(b domain.BillSubmission) *domain.BillSubmission {
	db.mu.Lock()
	defer db.mu.Unlock()
	if b.ID == "" {
		b.ID = db.nextID("bill")
	}
	db.bills[b.ID] = &b
	db.billOrder = append(db.billOrder, b.ID)
	cp := b
	return &cp
}

func (db *memDB) pool(id string) domain.CommunityPool {
	db.mu.Lock()
	defer db.mu.Unlock()
	return *db.pools[id]
}

func (db *memDB) bill(id string) domain.BillSubmission {
	db.mu.Lock()
	defer db.mu.Unlock()
	return *db.bills[id]
}

// users

type memUsers struct{ db *memDB }

func (r memUsers) UpsertByAuthSubject(_ context.Context, user *domain.User) (*domain.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, u := range r.db.users {
		if u.AuthSubject == user.AuthSubject {
			u.Email, u.Name = user.Email, user.Name
			if user.Role == domain.UserRoleAdmin {
				u.Role = domain.UserRoleAdmin
			}
			cp := *u
			return &cp, nil
		}
	}
	u := *user
	u.ID = r.db.nextID("user")
	if !u.Role.Valid() {
		u.Role = domain.UserRoleContributor
	}
	r.db.users[u.ID] = &u
	cp := u
	return &cp, nil
}

func (r memUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	u, ok := r.db.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r memUsers) Update(_ context.Context, user *domain.User) (*domain.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.users[user.ID]; !ok {
		return nil, domain.ErrNotFound
	}
	u := *user
	u.Location = u.Location.Normalize()
	r.db.users[u.ID] = &u
	cp := u
	return &cp, nil
}

func (r memUsers) SetRoleByEmail(_ context.Context, email string, role domain.UserRole) (*domain.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, u := range r.db.users {
		if strings.EqualFold(u.Email, email) {
			u.Role = role
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

// pools

type memPools struct{ db *memDB }

func (r memPools) GetOrCreate(_ context.Context, loc domain.Location) (*domain.CommunityPool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, p := range r.db.pools {
		if strings.EqualFold(p.City, loc.City) && p.Province == loc.Province {
			cp := *p
			return &cp, nil
		}
	}
	p := &domain.CommunityPool{ID: r.db.nextID("pool"), City: loc.City, Province: loc.Province}
	r.db.pools[p.ID] = p
	cp := *p
	return &cp, nil
}

func (r memPools) GetByID(_ context.Context, id string) (*domain.CommunityPool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	p, ok := r.db.pools[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r memPools) FindByLocation(_ context.Context, loc domain.Location) (*domain.CommunityPool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, p := range r.db.pools {
		if strings.EqualFold(p.City, loc.City) && p.Province == loc.Province {
			cp := *p
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r memPools) List(_ context.Context) ([]domain.CommunityPool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := make([]domain.CommunityPool, 0, len(r.db.pools))
	for _, p := range r.db.pools {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memPools) Apply(_ context.Context, entry domain.LedgerEntry) (*domain.CommunityPool, bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return r.db.applyLocked(entry)
}

func (r memPools) Ledger(_ context.Context, poolID string, limit int) ([]domain.LedgerEntry, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []domain.LedgerEntry
	for i := len(r.db.ledger) - 1; i >= 0; i-- {
		if r.db.ledger[i].PoolID == poolID {
			out = append(out, r.db.ledger[i])
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// bills

type memBills struct{ db *memDB }

func (r memBills) paidDates(userID string, since time.Time) []time.Time {
	var out []time.Time
	for _, b := range r.db.bills {
		if b.UserID == userID && b.PaymentStatus == domain.PaymentPaid && b.PaidAt != nil && !b.PaidAt.Before(since) {
			out = append(out, *b.PaidAt)
		}
	}
	return out
}

func (r memBills) CreateIfEligible(_ context.Context, bill *domain.BillSubmission, policy domain.EligibilityPolicy, now time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if !policy.Evaluate(r.paidDates(bill.UserID, policy.Since(now)), now).Eligible {
		return domain.ErrAssistanceLimit
	}
	bill.ID = r.db.nextID("bill")
	bill.VerificationStatus = domain.VerificationPending
	bill.PaymentStatus = domain.PaymentPending
	bill.CreatedAt, bill.UpdatedAt = now, now
	cp := *bill
	r.db.bills[bill.ID] = &cp
	r.db.billOrder = append(r.db.billOrder, bill.ID)
	return nil
}

func (r memBills) PaidDatesSince(_ context.Context, userID string, since time.Time) ([]time.Time, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return r.paidDates(userID, since), nil
}

func (r memBills) GetByID(_ context.Context, id string) (*domain.BillSubmission, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	b, ok := r.db.bills[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (r memBills) ListByUser(_ context.Context, userID string) ([]domain.BillSubmission, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []domain.BillSubmission
	for _, id := range r.db.billOrder {
		if b := r.db.bills[id]; b.UserID == userID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (r memBills) List(_ context.Context, f domain.BillFilter) ([]domain.BillSubmission, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []domain.BillSubmission
	for _, id := range r.db.billOrder {
		b := r.db.bills[id]
		if f.VerificationStatus != "" && b.VerificationStatus != f.VerificationStatus {
			continue
		}
		if f.PaymentStatus != "" && b.PaymentStatus != f.PaymentStatus {
			continue
		}
		if f.PoolID != "" && b.PoolID != f.PoolID {
			continue
		}
		out = append(out, *b)
	}
	return out, nil
}

func (r memBills) SetVerification(ctx context.Context, id string, status domain.VerificationStatus, analysis *domain.BillAnalysis) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	b, ok := r.db.bills[id]
	if !ok {
		return domain.ErrNotFound
	}
	b.VerificationStatus = status
	b.Analysis = analysis
	b.UpdatedAt = testNow
	return nil
}

func (r memBills) ClaimForVerification(ctx context.Context, staleBefore time.Time) (*domain.BillSubmission, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, id := range r.db.billOrder {
		b := r.db.bills[id]
		stale := b.VerificationStatus == domain.VerificationAnalyzing && b.UpdatedAt.Before(staleBefore)
		if b.VerificationStatus == domain.VerificationPending || stale {
			b.VerificationStatus = domain.VerificationAnalyzing
			b.UpdatedAt = testNow
			cp := *b
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r memBills) Review(_ context.Context, id, adminID string, next domain.PaymentStatus, notes string, at time.Time) (*domain.BillSubmission, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	b, ok := r.db.bills[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if err := b.CheckReview(next); err != nil {
		return nil, err
	}
	b.PaymentStatus = next
	b.AdminNotes = notes
	b.ReviewedBy = &adminID
	b.ReviewedAt = &at
	cp := *b
	return &cp, nil
}

// payments

type memPayments struct{ db *memDB }

func (r memPayments) Disburse(_ context.Context, req domain.DisbursementRequest) (*domain.Payment, *domain.CommunityPool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	b, ok := r.db.bills[req.BillID]
	if !ok {
		return nil, nil, domain.ErrNotFound
	}
	switch b.PaymentStatus {
	case domain.PaymentApproved:
	case domain.PaymentPaid:
		return nil, nil, domain.ErrDuplicateOperation
	default:
		return nil, nil, domain.ErrInvalidTransition
	}
	amount := req.AmountCents
	if amount <= 0 {
		amount = b.AmountDueCents
	}
	pool, applied, err := r.db.applyLocked(domain.LedgerEntry{
		PoolID: b.PoolID, Kind: domain.LedgerBillPayment, AmountCents: amount, RefType: "bill", RefID: b.ID,
	})
	if err != nil {
		return nil, nil, err
	}
	if !applied {
		return nil, nil, domain.ErrDuplicateOperation
	}
	p := &domain.Payment{
		ID: r.db.nextID("payment"), BillID: b.ID, PoolID: b.PoolID, AdminID: req.AdminID, AmountCents: amount,
		UtilityProvider: b.ProviderName, ConfirmationNumber: req.ConfirmationNumber, Method: req.Method, CreatedAt: req.PaidAt,
	}
	r.db.payments[b.ID] = p
	paidAt := req.PaidAt
	b.PaymentStatus = domain.PaymentPaid
	b.PaidAt = &paidAt
	cp := *p
	return &cp, pool, nil
}

func (r memPayments) GetByBill(_ context.Context, billID string) (*domain.Payment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	p, ok := r.db.payments[billID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r memPayments) ListByPool(_ context.Context, poolID string, _ int) ([]domain.Payment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []domain.Payment
	for _, p := range r.db.payments {
		if p.PoolID == poolID {
			out = append(out, *p)
		}
	}
	return out, nil
}

// campaigns and their donations

type memCampaigns struct{ db *memDB }

func (r memCampaigns) Create(_ context.Context, c *domain.Campaign) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, existing := range r.db.campaigns {
		if existing.Slug == c.Slug {
			return domain.ErrDuplicateOperation
		}
	}
	c.ID = r.db.nextID("campaign")
	c.CreatedAt, c.UpdatedAt = testNow, testNow
	cp := *c
	r.db.campaigns[c.ID] = &cp
	return nil
}

func (r memCampaigns) SlugExists(_ context.Context, slug string) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, c := range r.db.campaigns {
		if c.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (r memCampaigns) GetByID(_ context.Context, id string) (*domain.Campaign, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	c, ok := r.db.campaigns[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r memCampaigns) GetBySlug(_ context.Context, slug string) (*domain.Campaign, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, c := range r.db.campaigns {
		if c.Slug == slug {
			cp := *c
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

// Edit holds the store lock for the whole edit, standing in for the row lock.
func (r memCampaigns) Edit(_ context.Context, id string, edit func(*domain.Campaign) error) (*domain.Campaign, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	stored, ok := r.db.campaigns[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *stored
	if err := edit(&cp); err != nil {
		return nil, err
	}
	*stored = cp
	return &cp, nil
}

func (r memCampaigns) ListActive(_ context.Context, _ int) ([]domain.Campaign, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []domain.Campaign
	for _, c := range r.db.campaigns {
		if c.Status == domain.CampaignActive {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memCampaigns) ListByUser(_ context.Context, userID string) ([]domain.Campaign, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []domain.Campaign
	for _, c := range r.db.campaigns {
		if c.UserID == userID {
			out = append(out, *c)
		}
	}
	return out, nil
}

type memCampaignDonations struct{ db *memDB }

func (r memCampaignDonations) CreatePending(_ context.Context, d *domain.CampaignDonation) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	d.ID = r.db.nextID("cdon")
	d.Status = domain.DonationPending
	d.CreatedAt, d.UpdatedAt = testNow, testNow
	cp := *d
	r.db.campaignDonations[d.ID] = &cp
	return nil
}

func (r memCampaignDonations) find(match func(*domain.CampaignDonation) bool) (*domain.CampaignDonation, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, d := range r.db.campaignDonations {
		if match(d) {
			cp := *d
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r memCampaignDonations) FindBySession(_ context.Context, sessionID string) (*domain.CampaignDonation, error) {
	return r.find(func(d *domain.CampaignDonation) bool { return d.StripeSessionID == sessionID })
}

func (r memCampaignDonations) FindByPaymentIntent(_ context.Context, pi string) (*domain.CampaignDonation, error) {
	return r.find(func(d *domain.CampaignDonation) bool { return pi != "" && d.StripePaymentIntentID == pi })
}

func (r memCampaignDonations) SetStatus(_ context.Context, id string, status domain.DonationStatus, pi string) (*domain.CampaignDonation, *domain.Campaign, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	d, ok := r.db.campaignDonations[id]
	if !ok {
		return nil, nil, domain.ErrNotFound
	}
	c := r.db.campaigns[d.CampaignID]
	amount, count := domain.SettlementDelta(d.Status, status, d.AmountCents)
	d.Status = status
	if pi != "" {
		d.StripePaymentIntentID = pi
	}
	settled := c.Settle(amount, count)
	*c = settled
	dc, cc := *d, *c
	return &dc, &cc, nil
}

func (r memCampaignDonations) ListByCampaign(_ context.Context, campaignID string, _ int) ([]domain.CampaignDonation, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []domain.CampaignDonation
	for _, d := range r.db.campaignDonations {
		if d.CampaignID == campaignID && d.Status == domain.DonationSucceeded {
			out = append(out, *d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// one-time donations

type memDonations struct{ db *memDB }

func (r memDonations) CreatePending(_ context.Context, d *domain.OneTimeDonation) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	d.ID = r.db.nextID("don")
	d.Status = domain.DonationPending
	cp := *d
	r.db.donations[d.ID] = &cp
	return nil
}

func (r memDonations) find(match func(*domain.OneTimeDonation) bool) (*domain.OneTimeDonation, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, d := range r.db.donations {
		if match(d) {
			cp := *d
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r memDonations) FindBySession(_ context.Context, sessionID string) (*domain.OneTimeDonation, error) {
	return r.find(func(d *domain.OneTimeDonation) bool { return d.StripeSessionID == sessionID })
}

func (r memDonations) FindByPaymentIntent(_ context.Context, pi string) (*domain.OneTimeDonation, error) {
	return r.find(func(d *domain.OneTimeDonation) bool { return pi != "" && d.StripePaymentIntentID == pi })
}

func (r memDonations) SetStatus(_ context.Context, id string, status domain.DonationStatus, pi string) (*domain.OneTimeDonation, *domain.CommunityPool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	d, ok := r.db.donations[id]
	if !ok {
		return nil, nil, domain.ErrNotFound
	}
	prev := d.Status
	next := *d
	next.Status = status
	if pi != "" {
		next.StripePaymentIntentID = pi
	}
	pool := *r.db.pools[d.PoolID]
	if prev != status {
		if entry, ok := next.LedgerEntryFor(); ok && !(status == domain.DonationRefunded && prev != domain.DonationSucceeded) {
			p, _, err := r.db.applyLocked(entry)
			if err != nil {
				return nil, nil, err
			}
			pool = *p
		}
	}
	*d = next
	cp := next
	return &cp, &pool, nil
}

func (r memDonations) ListByUser(_ context.Context, userID string) ([]domain.OneTimeDonation, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []domain.OneTimeDonation
	for _, d := range r.db.donations {
		if d.UserID != nil && *d.UserID == userID {
			out = append(out, *d)
		}
	}
	return out, nil
}

// subscriptions

type memSubs struct{ db *memDB }

func (r memSubs) Sync(_ context.Context, sub *domain.Subscription, ref string) (*domain.Subscription, *domain.CommunityPool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	prev := r.db.subs[sub.StripeSubscriptionID]
	next := *sub
	if prev == nil {
		if next.UserID == "" || next.PoolID == "" {
			return nil, nil, domain.Invalid("subscription", "user and pool are required for a new subscription")
		}
		next.ID = r.db.nextID("sub")
	} else {
		next.ID, next.UserID, next.PoolID = prev.ID, prev.UserID, prev.PoolID
		next.TotalContributedCents = prev.TotalContributedCents
		if next.StripeCustomerID == "" {
			next.StripeCustomerID = prev.StripeCustomerID
		}
	}
	pool := *r.db.pools[next.PoolID]
	if entry, ok := domain.SubscriptionLedgerEntry(prev, &next, ref); ok {
		p, _, err := r.db.applyLocked(entry)
		if err != nil {
			return nil, nil, err
		}
		pool = *p
	}
	stored := next
	r.db.subs[next.StripeSubscriptionID] = &stored
	return &next, &pool, nil
}

func (r memSubs) GetByStripeID(_ context.Context, id string) (*domain.Subscription, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	s, ok := r.db.subs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (r memSubs) ListByUser(_ context.Context, userID string) ([]domain.Subscription, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []domain.Subscription
	for _, s := range r.db.subs {
		if s.UserID == userID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r memSubs) RecordContribution(_ context.Context, stripeID, invoiceID string, amount int64) (*domain.Subscription, *domain.CommunityPool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	s, ok := r.db.subs[stripeID]
	if !ok {
		return nil, nil, domain.ErrNotFound
	}
	pool, applied, err := r.db.applyLocked(domain.LedgerEntry{
		PoolID: s.PoolID, Kind: domain.LedgerContribution, AmountCents: amount, RefType: "invoice", RefID: invoiceID,
	})
	if err != nil {
		return nil, nil, err
	}
	if applied {
		s.TotalContributedCents += amount
	}
	cp := *s
	return &cp, pool, nil
}

// webhook events

type memEvents struct {
	db      *memDB
	seenErr error
}

func (r *memEvents) Seen(_ context.Context, id string) (bool, error) {
	if r.seenErr != nil {
		return false, r.seenErr
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	_, ok := r.db.events[id]
	return ok, nil
}

func (r *memEvents) MarkProcessed(_ context.Context, id, typ string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.events[id] = typ
	return nil
}

// impact

type memImpact struct{ db *memDB }

func (r memImpact) Aggregate(_ context.Context, poolID string, start, end time.Time) (*domain.ImpactReport, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	report := &domain.ImpactReport{PoolID: poolID, PeriodStart: start, PeriodEnd: end}
	for _, e := range r.db.ledger {
		if e.PoolID != poolID || e.CreatedAt.Before(start) || !e.CreatedAt.Before(end) {
			continue
		}
		switch e.Kind {
		case domain.LedgerContribution, domain.LedgerDonation:
			report.ContributionsCents += e.AmountCents
		case domain.LedgerBillPayment:
			report.DistributedCents += e.AmountCents
			report.FamiliesHelped++
			report.BillsPaid++
		case domain.LedgerSubscriptionStarted:
			report.NewContributors++
		}
	}
	return report, nil
}

func (r memImpact) Save(_ context.Context, report *domain.ImpactReport) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	key := report.PoolID + "@" + report.PeriodStart.Format(time.RFC3339)
	if existing, ok := r.db.reports[key]; ok {
		report.ID = existing.ID
	} else {
		report.ID = r.db.nextID("report")
	}
	cp := *report
	r.db.reports[key] = &cp
	return nil
}

func (r memImpact) ListByPool(_ context.Context, poolID string, _ int) ([]domain.ImpactReport, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []domain.ImpactReport
	for _, rep := range r.db.reports {
		if rep.PoolID == poolID {
			out = append(out, *rep)
		}
	}
	return out, nil
}

func (r memImpact) Summary(_ context.Context) (*domain.ImpactSummary, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	s := &domain.ImpactSummary{Pools: len(r.db.pools)}
	for _, p := range r.db.pools {
		s.FundsAvailableCents += p.TotalFundsAvailableCents
		s.FamiliesHelped += p.TotalFamiliesHelped
	}
	return s, nil
}

// reference data

type memCharities struct{ db *memDB }

func (r memCharities) List(_ context.Context, category string) ([]domain.Charity, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []domain.Charity
	for _, c := range r.db.charities {
		if category == "" || c.Category == category {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out, nil
}

func (r memCharities) GetBySlug(_ context.Context, slug string) (*domain.Charity, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	c, ok := r.db.charities[slug]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r memCharities) Upsert(_ context.Context, c *domain.Charity) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	cp := *c
	r.db.charities[c.Slug] = &cp
	return nil
}

type memNeeds struct{ db *memDB }

func needsKey(city, province string) string { return strings.ToLower(city) + "|" + province }

func (r memNeeds) ForLocation(_ context.Context, loc domain.Location) (*domain.NeedsData, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	n, ok := r.db.needs[needsKey(loc.City, loc.Province)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *n
	return &cp, nil
}

func (r memNeeds) List(_ context.Context) ([]domain.NeedsData, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []domain.NeedsData
	for _, n := range r.db.needs {
		out = append(out, *n)
	}
	return out, nil
}

func (r memNeeds) Upsert(_ context.Context, n *domain.NeedsData) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	cp := *n
	r.db.needs[needsKey(n.City, n.Province)] = &cp
	return nil
}

// collaborators

type publishedMessage struct {
	Topic string
	Type  string
	Data  any
}

type recordingPublisher struct {
	mu       sync.Mutex
	messages []publishedMessage
}

func (p *recordingPublisher) Publish(topic, msgType string, data any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, publishedMessage{Topic: topic, Type: msgType, Data: data})
}

func (p *recordingPublisher) topics() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.messages))
	for _, m := range p.messages {
		out = append(out, m.Topic)
	}
	return out
}

type memStore struct {
	objects map[string][]byte
	urlErr  error
}

func newMemStore() *memStore { return &memStore{objects: map[string][]byte{}} }

func (s *memStore) Write(_ context.Context, key string, data []byte, _ string) (string, error) {
	s.objects[key] = append([]byte(nil), data...)
	return key, nil
}

func (s *memStore) Read(_ context.Context, key string) ([]byte, error) {
	data, ok := s.objects[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return data, nil
}

func (s *memStore) SignedURL(_ context.Context, key string, _ time.Duration) (string, error) {
	if s.urlErr != nil {
		return "", s.urlErr
	}
	return "https://files.test/" + key + "?sig=x", nil
}

type verifierFunc func(ctx context.Context, req verify.VerifyRequest) (*verify.VerifyResponse, error)

func (f verifierFunc) Verify(ctx context.Context, req verify.VerifyRequest) (*verify.VerifyResponse, error) {
	return f(ctx, req)
}

func (verifierFunc) Name() string { return "test" }

type tokenVerifierFunc func(ctx context.Context, token string) (*oidc.Claims, error)

func (f tokenVerifierFunc) VerifyIDToken(ctx context.Context, token string) (*oidc.Claims, error) {
	return f(ctx, token)
}

// fakeGateway records checkout requests and replays events registered by payload.
type fakeGateway struct {
	mu        sync.Mutex
	seq       int
	checkouts []payments.CheckoutRequest
	events    map[string]*payments.Event
	subs      map[string]*payments.SubscriptionSnapshot
	getErr    error
	portal    []string
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{events: map[string]*payments.Event{}, subs: map[string]*payments.SubscriptionSnapshot{}}
}

func (g *fakeGateway) CreateCheckout(_ context.Context, req payments.CheckoutRequest) (*payments.CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	g.checkouts = append(g.checkouts, req)
	id := fmt.Sprintf("cs_test_%d", g.seq)
	return &payments.CheckoutSession{ID: id, URL: "https://checkout.test/" + id}, nil
}

func (g *fakeGateway) CreatePortalSession(_ context.Context, customerID, _ string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.portal = append(g.portal, customerID)
	return "https://billing.test/" + customerID, nil
}

func (g *fakeGateway) GetSubscription(_ context.Context, id string) (*payments.SubscriptionSnapshot, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.getErr != nil {
		return nil, g.getErr
	}
	snap, ok := g.subs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *snap
	return &cp, nil
}

func (g *fakeGateway) UpdateSubscriptionAmount(_ context.Context, id string, amount int64) (*payments.SubscriptionSnapshot, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	snap, ok := g.subs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	snap.AmountCents = amount
	cp := *snap
	return &cp, nil
}

func (g *fakeGateway) CancelSubscription(_ context.Context, id string, atPeriodEnd bool) (*payments.SubscriptionSnapshot, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	snap, ok := g.subs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if atPeriodEnd {
		snap.CancelAtPeriodEnd = true
	} else {
		snap.Status = domain.SubscriptionCanceled
	}
	cp := *snap
	return &cp, nil
}

func (g *fakeGateway) ParseEvent(payload []byte, sig string) (*payments.Event, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if sig != "valid" {
		return nil, fmt.Errorf("%w: bad header", payments.ErrInvalidSignature)
	}
	evt, ok := g.events[string(payload)]
	if !ok {
		return nil, errors.New("unknown payload")
	}
	return evt, nil
}

// register makes evt deliverable under its id as payload.
func (g *fakeGateway) register(evt *payments.Event) []byte {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.events[evt.ID] = evt
	return []byte(evt.ID)
}
