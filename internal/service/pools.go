package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/domain"
	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/infra/geoip"
	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/live"
)

type PoolDeps struct {
	Pools     domain.PoolRepository
	Payments  domain.PaymentRepository
	Bills     domain.BillRepository
	Publisher live.Publisher
	Logger    zerolog.Logger
	Now       func() time.Time
}

// PoolService reads pools and pays approved bills out of them.
type PoolService struct {
	pools     domain.PoolRepository
	payments  domain.PaymentRepository
	bills     domain.BillRepository
	publisher live.Publisher
	logger    zerolog.Logger
	now       func() time.Time
}

func NewPoolService(d PoolDeps) *PoolService {
	return &PoolService{
		pools:     d.Pools,
		payments:  d.Payments,
		bills:     d.Bills,
		publisher: publisherOrNop(d.Publisher),
		logger:    d.Logger,
		now:       clockOrNow(d.Now),
	}
}

func (s *PoolService) GetOrCreate(ctx context.Context, loc domain.Location) (*domain.CommunityPool, error) {
	loc = loc.Normalize()
	if loc.IsZero() {
		return nil, domain.Invalid("location", "city and province are required")
	}
	return s.pools.GetOrCreate(ctx, loc)
}

func (s *PoolService) Get(ctx context.Context, id string) (*domain.CommunityPool, error) {
	return s.pools.GetByID(ctx, id)
}

func (s *PoolService) List(ctx context.Context) ([]domain.CommunityPool, error) {
	return s.pools.List(ctx)
}

// ForLocation returns the pool for a city without creating one.
func (s *PoolService) ForLocation(ctx context.Context, loc domain.Location) (*domain.CommunityPool, error) {
	loc = loc.Normalize()
	if loc.IsZero() {
		return nil, domain.Invalid("location", "city and province are required")
	}
	return s.pools.FindByLocation(ctx, loc)
}

// Suggestion is a pool proposed to a visitor, with whether it matched their location.
type Suggestion struct {
	Pool    *domain.CommunityPool `json:"pool"`
	Matched bool                  `json:"matched"`
	City    string                `json:"city,omitempty"`
	Region  string                `json:"province,omitempty"`
}

// Suggest proposes the pool for the caller's city when one exists and otherwise
// the pool with the most contributors.
func (s *PoolService) Suggest(ctx context.Context, place geoip.Place) (*Suggestion, error) {
	out := &Suggestion{City: place.City, Region: place.Province}
	if strings.TrimSpace(place.City) != "" && strings.TrimSpace(place.Province) != "" {
		pool, err := s.pools.FindByLocation(ctx, domain.Location{City: place.City, Province: place.Province}.Normalize())
		switch {
		case err == nil:
			out.Pool, out.Matched = pool, true
			return out, nil
		case !errors.Is(err, domain.ErrNotFound):
			return nil, err
		}
	}
	pools, err := s.pools.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(pools) == 0 {
		return nil, domain.ErrNotFound
	}
	sort.SliceStable(pools, func(i, j int) bool {
		if pools[i].TotalContributors != pools[j].TotalContributors {
			return pools[i].TotalContributors > pools[j].TotalContributors
		}
		return pools[i].TotalFundsAvailableCents > pools[j].TotalFundsAvailableCents
	})
	out.Pool = &pools[0]
	return out, nil
}

// PaymentInput describes how an admin paid the utility provider.
type PaymentInput struct {
	ConfirmationNumber string
	Method             string
}

// ProcessPayment pays an approved bill from its pool. The debit is exactly the
// bill amount and fails with ErrInsufficientFunds when the pool cannot cover it.
func (s *PoolService) ProcessPayment(ctx context.Context, adminID, billID string, in PaymentInput) (*domain.Payment, *domain.CommunityPool, error) {
	method := strings.TrimSpace(in.Method)
	if method == "" {
		method = "manual"
	}
	payment, pool, err := s.payments.Disburse(ctx, domain.DisbursementRequest{
		BillID:             billID,
		AdminID:            adminID,
		ConfirmationNumber: in.ConfirmationNumber,
		Method:             method,
		PaidAt:             s.now().UTC(),
	})
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientFunds) {
			s.logger.Warn().Str("bill_id", billID).Msg("pool cannot cover bill")
		}
		return nil, nil, err
	}
	s.logger.Info().
		Str("bill_id", billID).
		Str("pool_id", pool.ID).
		Int64("amount_cents", payment.AmountCents).
		Msg("bill paid")
	publishPool(s.publisher, pool)
	if s.bills != nil {
		if bill, err := s.bills.GetByID(ctx, billID); err == nil {
			publishBill(s.publisher, bill)
		}
	}
	return payment, pool, nil
}

// Ledger lists recent accounting entries for a pool.
func (s *PoolService) Ledger(ctx context.Context, poolID string, limit int) ([]domain.LedgerEntry, error) {
	if _, err := s.pools.GetByID(ctx, poolID); err != nil {
		return nil, err
	}
	return s.pools.Ledger(ctx, poolID, limit)
}

// Payments lists recent disbursements from a pool.
func (s *PoolService) Payments(ctx context.Context, poolID string, limit int) ([]domain.Payment, error) {
	return s.payments.ListByPool(ctx, poolID, limit)
}

// Payment returns the disbursement made for a bill.
func (s *PoolService) Payment(ctx context.Context, billID string) (*domain.Payment, error) {
	p, err := s.payments.GetByBill(ctx, billID)
	if err != nil {
		return nil, fmt.Errorf("payment for bill %s: %w", billID, err)
	}
	return p, nil
}
