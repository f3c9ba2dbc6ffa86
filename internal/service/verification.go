package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/domain"
	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/providers/verify"
	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/storage"
)

const (
	// analyzingLease is how long a claimed bill may stay analyzing before the
	// queue hands it out again.
	analyzingLease = 10 * time.Minute
	saveTimeout    = 10 * time.Second
)

// Verify re-runs AI verification for a bill on behalf of its owner or an admin.
// A second run overwrites the earlier analysis.
func (s *BillService) Verify(ctx context.Context, actor Actor, billID string) (*domain.BillSubmission, error) {
	bill, err := s.Get(ctx, actor, billID)
	if err != nil {
		return nil, err
	}
	if err := s.bills.SetVerification(ctx, bill.ID, domain.VerificationAnalyzing, bill.Analysis); err != nil {
		return nil, fmt.Errorf("mark analyzing: %w", err)
	}
	bill.VerificationStatus = domain.VerificationAnalyzing
	publishBill(s.publisher, bill)
	return s.runVerification(ctx, bill)
}

// ProcessNext claims the oldest pending bill and verifies it. It reports false
// when the queue is empty.
func (s *BillService) ProcessNext(ctx context.Context) (bool, error) {
	bill, err := s.bills.ClaimForVerification(ctx, s.now().Add(-analyzingLease))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("claim bill: %w", err)
	}
	publishBill(s.publisher, bill)
	if _, err := s.runVerification(ctx, bill); err != nil {
		return true, err
	}
	return true, nil
}

// runVerification asks the verifier about bill, which must already be analyzing.
// Verifier and storage failures never surface: the bill lands in needs_review
// with a synthetic flagged issue instead.
func (s *BillService) runVerification(ctx context.Context, bill *domain.BillSubmission) (*domain.BillSubmission, error) {
	log := s.logger.With().Str("bill_id", bill.ID).Str("verifier", s.verifier.Name()).Logger()

	var analysis *domain.BillAnalysis
	imageURL, err := s.imageURL(ctx, bill.ImageKey)
	if err != nil {
		log.Warn().Err(err).Msg("bill image unavailable for verification")
		analysis = domain.FailedAnalysis("image unavailable: "+err.Error(), s.now().UTC())
	} else {
		resp, err := s.verifier.Verify(ctx, verify.VerifyRequest{
			ImageURL: imageURL,
			BillID:   bill.ID,
			Expected: &verify.BillHints{
				UtilityType:    string(bill.UtilityType),
				ProviderName:   bill.ProviderName,
				AccountNumber:  bill.AccountNumber,
				AmountDueCents: bill.AmountDueCents,
			},
		})
		switch {
		case err != nil:
			log.Warn().Err(err).Msg("bill verification failed")
			analysis = domain.FailedAnalysis(err.Error(), s.now().UTC())
		case resp == nil || resp.Analysis == nil:
			log.Warn().Msg("bill verification returned no analysis")
			analysis = domain.FailedAnalysis("empty verifier response", s.now().UTC())
		default:
			analysis = resp.Analysis
			if !resp.Success {
				log.Warn().Str("reason", resp.Reason).Msg("bill verification degraded")
			}
		}
	}

	status := domain.StatusForRecommendation(analysis.Recommendation)
	if len(analysis.FlaggedIssues) == 0 && status == domain.VerificationNeedsReview {
		analysis.FlaggedIssues = []string{"Manual review requested by verifier"}
	}
	// The outcome is saved even when ctx was cancelled mid-call, so a stopping
	// worker leaves the bill in needs_review instead of analyzing.
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), saveTimeout)
	defer cancel()
	if err := s.bills.SetVerification(saveCtx, bill.ID, status, analysis); err != nil {
		return nil, fmt.Errorf("save verification: %w", err)
	}
	bill.VerificationStatus = status
	bill.Analysis = analysis
	log.Info().Str("status", string(status)).Int("score", analysis.AuthenticityScore).Msg("bill verified")
	publishBill(s.publisher, bill)
	return bill, nil
}

func (s *BillService) imageURL(ctx context.Context, key string) (string, error) {
	if s.store == nil {
		return "", errors.New("bill storage is not configured")
	}
	if !s.inlineImages {
		return s.store.SignedURL(ctx, key, s.urlTTL)
	}
	data, err := s.store.Read(ctx, key)
	if err != nil {
		return "", err
	}
	contentType, err := storage.DetectContentType(data)
	if err != nil {
		return "", err
	}
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}
