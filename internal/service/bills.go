package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/domain"
	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/live"
	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/providers/verify"
	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/storage"
)

const defaultSignedURLTTL = 15 * time.Minute

type BillDeps struct {
	Bills     domain.BillRepository
	Users     domain.UserRepository
	Pools     domain.PoolRepository
	Store     storage.Store
	Verifier  verify.Verifier
	Publisher live.Publisher
	Policy    domain.EligibilityPolicy
	// SignedURLTTL bounds how long the verifier may fetch the image.
	SignedURLTTL time.Duration
	// InlineImages sends the image bytes as a data URL instead of a signed link,
	// for stores the verifier cannot reach.
	InlineImages bool
	Logger       zerolog.Logger
	Now          func() time.Time
}

// BillService handles submission, verification and review of bills.
type BillService struct {
	bills        domain.BillRepository
	users        domain.UserRepository
	pools        domain.PoolRepository
	store        storage.Store
	verifier     verify.Verifier
	publisher    live.Publisher
	policy       domain.EligibilityPolicy
	urlTTL       time.Duration
	inlineImages bool
	logger       zerolog.Logger
	now          func() time.Time
}

func NewBillService(d BillDeps) *BillService {
	policy := d.Policy
	if policy.MaxPaidBills <= 0 || policy.Window <= 0 {
		policy = domain.DefaultEligibilityPolicy
	}
	ttl := d.SignedURLTTL
	if ttl <= 0 {
		ttl = defaultSignedURLTTL
	}
	v := d.Verifier
	if v == nil {
		v = verify.NewStaticVerifier()
	}
	return &BillService{
		bills:        d.Bills,
		users:        d.Users,
		pools:        d.Pools,
		store:        d.Store,
		verifier:     v,
		publisher:    publisherOrNop(d.Publisher),
		policy:       policy,
		urlTTL:       ttl,
		inlineImages: d.InlineImages,
		logger:       d.Logger,
		now:          clockOrNow(d.Now),
	}
}

// CheckEligibility evaluates the assistance limit for userID at the current time.
func (s *BillService) CheckEligibility(ctx context.Context, userID string) (domain.Eligibility, error) {
	now := s.now()
	paid, err := s.bills.PaidDatesSince(ctx, userID, s.policy.Since(now))
	if err != nil {
		return domain.Eligibility{}, fmt.Errorf("load paid bills: %w", err)
	}
	return s.policy.Evaluate(paid, now), nil
}

// SubmitInput is a recipient's bill submission.
type SubmitInput struct {
	UtilityType    domain.UtilityType
	ProviderName   string
	AccountNumber  string
	AmountDueCents int64
	DueDate        *time.Time
	ImageKey       string
}

func (in SubmitInput) validate(userID string) error {
	if in.AmountDueCents <= 0 {
		return domain.Invalid("amountDueCents", "must be greater than zero")
	}
	if !in.UtilityType.Valid() {
		return domain.Invalid("utilityType", "unknown utility type")
	}
	key := strings.TrimSpace(in.ImageKey)
	if key == "" {
		return domain.Invalid("imageKey", "upload the bill image first")
	}
	if !strings.HasPrefix(path.Clean(key), path.Join("bills", userID)+"/") {
		return domain.Invalid("imageKey", "image does not belong to this account")
	}
	return nil
}

// Submit files a bill for the recipient. The eligibility check and the insert
// happen in one transaction so concurrent submissions cannot both pass.
func (s *BillService) Submit(ctx context.Context, userID string, in SubmitInput) (*domain.BillSubmission, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.IsRecipient() {
		return nil, fmt.Errorf("%w: only recipients can submit bills", domain.ErrForbidden)
	}
	if err := in.validate(userID); err != nil {
		return nil, err
	}
	if user.Location.IsZero() {
		return nil, domain.Invalid("location", "set your city and province before submitting a bill")
	}
	pool, err := s.pools.GetOrCreate(ctx, user.Location.Normalize())
	if err != nil {
		return nil, fmt.Errorf("resolve pool: %w", err)
	}

	bill := &domain.BillSubmission{
		UserID:             userID,
		PoolID:             pool.ID,
		UtilityType:        in.UtilityType,
		ProviderName:       strings.TrimSpace(in.ProviderName),
		AccountNumber:      strings.TrimSpace(in.AccountNumber),
		AmountDueCents:     in.AmountDueCents,
		DueDate:            in.DueDate,
		ImageKey:           path.Clean(strings.TrimSpace(in.ImageKey)),
		VerificationStatus: domain.VerificationPending,
		PaymentStatus:      domain.PaymentPending,
	}
	if err := s.bills.CreateIfEligible(ctx, bill, s.policy, s.now()); err != nil {
		return nil, err
	}
	s.logger.Info().Str("bill_id", bill.ID).Str("pool_id", pool.ID).Int64("amount_cents", bill.AmountDueCents).Msg("bill submitted")
	publishBill(s.publisher, bill)
	return bill, nil
}

// Upload stores a bill image for userID and returns its storage key.
func (s *BillService) Upload(ctx context.Context, userID, filename string, data []byte) (string, error) {
	if s.store == nil {
		return "", errors.New("bill storage is not configured")
	}
	contentType, err := storage.DetectContentType(data)
	if err != nil {
		return "", domain.Invalid("file", err.Error())
	}
	key := storage.BillKey(userID, filename, contentType)
	if _, err := s.store.Write(ctx, key, data, contentType); err != nil {
		return "", fmt.Errorf("store bill image: %w", err)
	}
	return key, nil
}

// Get returns a bill visible to the actor.
func (s *BillService) Get(ctx context.Context, actor Actor, id string) (*domain.BillSubmission, error) {
	bill, err := s.bills.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.canSee(bill.UserID) {
		return nil, domain.ErrForbidden
	}
	return bill, nil
}

// ImageURL returns a short-lived link to the bill image for the owner or an admin.
func (s *BillService) ImageURL(ctx context.Context, actor Actor, id string) (string, error) {
	bill, err := s.Get(ctx, actor, id)
	if err != nil {
		return "", err
	}
	return s.store.SignedURL(ctx, bill.ImageKey, s.urlTTL)
}

func (s *BillService) ListMine(ctx context.Context, userID string) ([]domain.BillSubmission, error) {
	return s.bills.ListByUser(ctx, userID)
}

// ListForReview lists bills for the admin queue.
func (s *BillService) ListForReview(ctx context.Context, filter domain.BillFilter) ([]domain.BillSubmission, error) {
	return s.bills.List(ctx, filter)
}

// Review decisions accepted from admins.
const (
	DecisionApprove = "approve"
	DecisionDecline = "decline"
)

// Review records an admin decision on a pending bill.
func (s *BillService) Review(ctx context.Context, adminID, billID, decision, notes string) (*domain.BillSubmission, error) {
	var next domain.PaymentStatus
	switch strings.ToLower(strings.TrimSpace(decision)) {
	case DecisionApprove:
		next = domain.PaymentApproved
	case DecisionDecline:
		next = domain.PaymentDeclined
	default:
		return nil, domain.Invalid("decision", "must be approve or decline")
	}
	current, err := s.bills.GetByID(ctx, billID)
	if err != nil {
		return nil, err
	}
	if current.PaymentStatus != domain.PaymentPending {
		return nil, fmt.Errorf("%w: bill is already %s", domain.ErrInvalidTransition, current.PaymentStatus)
	}
	if err := current.CheckReview(next); err != nil {
		return nil, fmt.Errorf("review bill %s: %w", billID, err)
	}
	bill, err := s.bills.Review(ctx, billID, adminID, next, strings.TrimSpace(notes), s.now())
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("bill_id", bill.ID).Str("admin_id", adminID).Str("decision", string(next)).Msg("bill reviewed")
	publishBill(s.publisher, bill)
	return bill, nil
}
