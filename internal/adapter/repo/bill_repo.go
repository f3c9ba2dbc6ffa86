package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/domain"
	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/infra"
	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/sqlinline"
)

// BillRepositoryPG implements domain.BillRepository backed by PostgreSQL.
type BillRepositoryPG struct {
	sql infra.TxExecutor
}

// NewBillRepository creates a new BillRepositoryPG.
func NewBillRepository(sql infra.TxExecutor) *BillRepositoryPG {
	return &BillRepositoryPG{sql: sql}
}

// CreateIfEligible locks the submitting user, re-evaluates the policy against
// the paid bills inside the window and inserts the bill in the same transaction.
func (r *BillRepositoryPG) CreateIfEligible(ctx context.Context, bill *domain.BillSubmission, policy domain.EligibilityPolicy, now time.Time) error {
	return r.sql.InTx(ctx, func(q infra.SQLExecutor) error {
		var locked string
		if err := q.QueryRow(ctx, sqlinline.QLockUser, bill.UserID).Scan(&locked); err != nil {
			return fmt.Errorf("lock user: %w", notFound(err))
		}

		paid, err := paidDatesSince(ctx, q, bill.UserID, policy.Since(now))
		if err != nil {
			return err
		}
		if !policy.Evaluate(paid, now).Eligible {
			return domain.ErrAssistanceLimit
		}

		row := q.QueryRow(ctx, sqlinline.QInsertBill,
			bill.UserID,
			bill.PoolID,
			string(bill.UtilityType),
			bill.ProviderName,
			bill.AccountNumber,
			bill.AmountDueCents,
			nullableTime(bill.DueDate),
			bill.ImageKey,
		)
		if err := row.Scan(&bill.ID, &bill.CreatedAt, &bill.UpdatedAt); err != nil {
			return fmt.Errorf("insert bill: %w", err)
		}
		bill.VerificationStatus = domain.VerificationPending
		bill.PaymentStatus = domain.PaymentPending
		return nil
	})
}

// PaidDatesSince returns the paid_at timestamps of the user's paid bills from since onwards.
func (r *BillRepositoryPG) PaidDatesSince(ctx context.Context, userID string, since time.Time) ([]time.Time, error) {
	return paidDatesSince(ctx, r.sql, userID, since)
}

func paidDatesSince(ctx context.Context, q infra.SQLExecutor, userID string, since time.Time) ([]time.Time, error) {
	rows, err := q.Query(ctx, sqlinline.QSelectPaidBillDates, userID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []time.Time
	for rows.Next() {
		var t time.Time
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// GetByID fetches a bill by UUID.
func (r *BillRepositoryPG) GetByID(ctx context.Context, id string) (*domain.BillSubmission, error) {
	return scanBill(r.sql.QueryRow(ctx, sqlinline.QSelectBillByID, id))
}

// ListByUser returns a recipient's bills, newest first.
func (r *BillRepositoryPG) ListByUser(ctx context.Context, userID string) ([]domain.BillSubmission, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListBillsByUser, userID)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanBill)
}

// List returns bills matching the filter, oldest first so the review queue is FIFO.
func (r *BillRepositoryPG) List(ctx context.Context, filter domain.BillFilter) ([]domain.BillSubmission, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListBills,
		string(filter.VerificationStatus),
		string(filter.PaymentStatus),
		filter.PoolID,
		clampLimit(filter.Limit, 50, 200),
	)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanBill)
}

// SetVerification stores the verification outcome. A nil analysis keeps the previous one.
func (r *BillRepositoryPG) SetVerification(ctx context.Context, id string, status domain.VerificationStatus, analysis *domain.BillAnalysis) error {
	var payload any
	if analysis != nil {
		raw, err := json.Marshal(analysis)
		if err != nil {
			return fmt.Errorf("encode analysis: %w", err)
		}
		payload = raw
	}
	tag, err := r.sql.Exec(ctx, sqlinline.QSetBillVerification, id, string(status), payload)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ClaimForVerification moves the oldest pending bill to analyzing, skipping rows
// another worker holds. Bills stuck in analyzing since before staleBefore are
// claimed again. It returns domain.ErrNotFound when the queue is empty.
func (r *BillRepositoryPG) ClaimForVerification(ctx context.Context, staleBefore time.Time) (*domain.BillSubmission, error) {
	return scanBill(r.sql.QueryRow(ctx, sqlinline.QClaimBillForVerification, staleBefore))
}

// Review applies an admin decision against the locked bill row.
func (r *BillRepositoryPG) Review(ctx context.Context, id, adminID string, next domain.PaymentStatus, notes string, at time.Time) (*domain.BillSubmission, error) {
	var updated *domain.BillSubmission
	err := r.sql.InTx(ctx, func(q infra.SQLExecutor) error {
		bill, err := scanBill(q.QueryRow(ctx, sqlinline.QLockBill, id))
		if err != nil {
			return err
		}
		if err := bill.CheckReview(next); err != nil {
			return fmt.Errorf("%w: bill is %s/%s", err, bill.VerificationStatus, bill.PaymentStatus)
		}
		updated, err = scanBill(q.QueryRow(ctx, sqlinline.QUpdateBillReview, id, string(next), notes, adminID, at))
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

var _ domain.BillRepository = (*BillRepositoryPG)(nil)
