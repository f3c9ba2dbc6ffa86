package domain

import (
	"sort"
	"strings"
	"time"
)

// VerificationStatus tracks the AI verification of a bill.
type VerificationStatus string

const (
	VerificationPending     VerificationStatus = "pending"
	VerificationAnalyzing   VerificationStatus = "analyzing"
	VerificationVerified    VerificationStatus = "verified"
	VerificationRejected    VerificationStatus = "rejected"
	VerificationNeedsReview VerificationStatus = "needs_review"
)

// PaymentStatus tracks whether a bill has been paid out of its pool.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentApproved PaymentStatus = "approved"
	PaymentPaid     PaymentStatus = "paid"
	PaymentDeclined PaymentStatus = "declined"
)

var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentPending:  {PaymentApproved, PaymentDeclined},
	PaymentApproved: {PaymentPaid, PaymentDeclined},
}

// CanTransitionTo reports whether a bill may move from s to next.
func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	for _, allowed := range paymentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// UtilityType enumerates the kinds of bills the platform pays.
type UtilityType string

const (
	UtilityElectricity UtilityType = "electricity"
	UtilityGas         UtilityType = "gas"
	UtilityWater       UtilityType = "water"
	UtilityHeating     UtilityType = "heating"
	UtilityInternet    UtilityType = "internet"
	UtilityPhone       UtilityType = "phone"
	UtilityOther       UtilityType = "other"
)

// Valid reports whether t is a known utility type.
func (t UtilityType) Valid() bool {
	switch t {
	case UtilityElectricity, UtilityGas, UtilityWater, UtilityHeating, UtilityInternet, UtilityPhone, UtilityOther:
		return true
	}
	return false
}

// Recommendation values returned by the verifier.
const (
	RecommendationApprove = "approve"
	RecommendationReject  = "reject"
	RecommendationReview  = "review"
)

// ExtractedBillData holds the fields read off the bill image.
type ExtractedBillData struct {
	ProviderName   string `json:"providerName,omitempty"`
	AccountNumber  string `json:"accountNumber,omitempty"`
	AmountDue      string `json:"amountDue,omitempty"`
	DueDate        string `json:"dueDate,omitempty"`
	ServiceAddress string `json:"serviceAddress,omitempty"`
	CustomerName   string `json:"customerName,omitempty"`
}

// BillAnalysis is the structured assessment attached to a bill.
type BillAnalysis struct {
	AuthenticityScore int               `json:"authenticityScore"`
	UrgencyLevel      string            `json:"urgencyLevel"`
	ExtractedData     ExtractedBillData `json:"extractedData"`
	FlaggedIssues     []string          `json:"flaggedIssues"`
	Recommendation    string            `json:"recommendation"`
	Provider          string            `json:"provider,omitempty"`
	AnalyzedAt        time.Time         `json:"analyzedAt"`
}

// StatusForRecommendation maps a verifier recommendation to a verification status.
func StatusForRecommendation(rec string) VerificationStatus {
	switch strings.ToLower(strings.TrimSpace(rec)) {
	case RecommendationApprove:
		return VerificationVerified
	case RecommendationReject:
		return VerificationRejected
	default:
		return VerificationNeedsReview
	}
}

// FailedAnalysis builds the analysis recorded when automated verification could not complete.
func FailedAnalysis(reason string, at time.Time) *BillAnalysis {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "unknown error"
	}
	return &BillAnalysis{
		AuthenticityScore: 0,
		UrgencyLevel:      "unknown",
		FlaggedIssues:     []string{"Automated verification failed: " + reason},
		Recommendation:    RecommendationReview,
		Provider:          "none",
		AnalyzedAt:        at,
	}
}

// BillSubmission is a recipient-uploaded utility bill.
type BillSubmission struct {
	ID                 string             `json:"id"`
	UserID             string             `json:"user_id"`
	PoolID             string             `json:"pool_id"`
	UtilityType        UtilityType        `json:"utility_type"`
	ProviderName       string             `json:"provider_name"`
	AccountNumber      string             `json:"account_number"`
	AmountDueCents     int64              `json:"amount_due_cents"`
	DueDate            *time.Time         `json:"due_date,omitempty"`
	ImageKey           string             `json:"image_key"`
	VerificationStatus VerificationStatus `json:"verification_status"`
	PaymentStatus      PaymentStatus      `json:"payment_status"`
	Analysis           *BillAnalysis      `json:"analysis,omitempty"`
	AdminNotes         string             `json:"admin_notes,omitempty"`
	ReviewedBy         *string            `json:"reviewed_by,omitempty"`
	ReviewedAt         *time.Time         `json:"reviewed_at,omitempty"`
	PaidAt             *time.Time         `json:"paid_at,omitempty"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
}

// EligibilityPolicy bounds how many paid bills a recipient may receive in a trailing window.
type EligibilityPolicy struct {
	MaxPaidBills int
	Window       time.Duration
}

// DefaultEligibilityPolicy allows three paid bills per trailing 365 days.
var DefaultEligibilityPolicy = EligibilityPolicy{MaxPaidBills: 3, Window: 365 * 24 * time.Hour}

// Since returns the start of the trailing window ending at now.
func (p EligibilityPolicy) Since(now time.Time) time.Time {
	return now.Add(-p.Window)
}

// Eligibility is the outcome of an eligibility check.
type Eligibility struct {
	Eligible       bool       `json:"eligible"`
	PaidInWindow   int        `json:"paid_in_window"`
	Remaining      int        `json:"remaining"`
	MaxPaidBills   int        `json:"max_paid_bills"`
	NextEligibleAt *time.Time `json:"next_eligible_at,omitempty"`
}

// Evaluate counts the paid dates inside the window ending at now.
func (p EligibilityPolicy) Evaluate(paidAt []time.Time, now time.Time) Eligibility {
	since := p.Since(now)
	var inWindow []time.Time
	for _, t := range paidAt {
		if !t.Before(since) && !t.After(now) {
			inWindow = append(inWindow, t)
		}
	}
	res := Eligibility{
		PaidInWindow: len(inWindow),
		MaxPaidBills: p.MaxPaidBills,
	}
	res.Remaining = p.MaxPaidBills - len(inWindow)
	if res.Remaining < 0 {
		res.Remaining = 0
	}
	res.Eligible = len(inWindow) < p.MaxPaidBills
	if !res.Eligible {
		sort.Slice(inWindow, func(i, j int) bool { return inWindow[i].Before(inWindow[j]) })
		// The window regains a slot once enough of the oldest payments age out.
		idx := len(inWindow) - p.MaxPaidBills
		next := inWindow[idx].Add(p.Window)
		res.NextEligibleAt = &next
	}
	return res
}

// BillFilter narrows admin bill listings.
type BillFilter struct {
	VerificationStatus VerificationStatus
	PaymentStatus      PaymentStatus
	PoolID             string
	Limit              int
}

// CheckReview returns ErrInvalidTransition when an admin decision cannot be applied
// to the bill in its current state.
func (b BillSubmission) CheckReview(next PaymentStatus) error {
	if next != PaymentApproved && next != PaymentDeclined {
		return ErrInvalidTransition
	}
	if !b.PaymentStatus.CanTransitionTo(next) {
		return ErrInvalidTransition
	}
	if next == PaymentApproved && b.VerificationStatus == VerificationRejected {
		return ErrInvalidTransition
	}
	return nil
}
