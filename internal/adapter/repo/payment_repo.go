package repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/domain"
	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/infra"
	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/sqlinline"
)

// PaymentRepositoryPG implements domain.PaymentRepository backed by PostgreSQL.
type PaymentRepositoryPG struct {
	sql infra.TxExecutor
}

// NewPaymentRepository creates a new PaymentRepositoryPG.
func NewPaymentRepository(sql infra.TxExecutor) *PaymentRepositoryPG {
	return &PaymentRepositoryPG{sql: sql}
}

// Disburse pays an approved bill out of its pool. The bill and pool rows are
// locked, the debit only succeeds when the pool holds enough funds, and the
// payment record plus the bill's paid state are written in the same transaction.
func (r *PaymentRepositoryPG) Disburse(ctx context.Context, req domain.DisbursementRequest) (*domain.Payment, *domain.CommunityPool, error) {
	var (
		payment *domain.Payment
		pool    *domain.CommunityPool
	)
	err := r.sql.InTx(ctx, func(q infra.SQLExecutor) error {
		bill, err := scanBill(q.QueryRow(ctx, sqlinline.QLockBill, req.BillID))
		if err != nil {
			return err
		}
		switch bill.PaymentStatus {
		case domain.PaymentApproved:
		case domain.PaymentPaid:
			return fmt.Errorf("%w: bill already paid", domain.ErrDuplicateOperation)
		default:
			return fmt.Errorf("%w: bill is %s", domain.ErrInvalidTransition, bill.PaymentStatus)
		}

		amount := req.AmountCents
		if amount <= 0 {
			amount = bill.AmountDueCents
		}

		var applied bool
		pool, applied, err = applyLedgerEntry(ctx, q, domain.LedgerEntry{
			PoolID:      bill.PoolID,
			Kind:        domain.LedgerBillPayment,
			AmountCents: amount,
			RefType:     "bill",
			RefID:       bill.ID,
		})
		if err != nil {
			return err
		}
		if !applied {
			return fmt.Errorf("%w: bill payment already recorded", domain.ErrDuplicateOperation)
		}

		payment = &domain.Payment{
			BillID:             bill.ID,
			PoolID:             bill.PoolID,
			AdminID:            req.AdminID,
			AmountCents:        amount,
			UtilityProvider:    bill.ProviderName,
			ConfirmationNumber: strings.TrimSpace(req.ConfirmationNumber),
			Method:             strings.TrimSpace(req.Method),
		}
		row := q.QueryRow(ctx, sqlinline.QInsertPayment,
			payment.BillID,
			payment.PoolID,
			payment.AdminID,
			payment.AmountCents,
			payment.UtilityProvider,
			payment.ConfirmationNumber,
			payment.Method,
			req.PaidAt,
		)
		if err := row.Scan(&payment.ID, &payment.CreatedAt); err != nil {
			return fmt.Errorf("insert payment: %w", err)
		}

		tag, err := q.Exec(ctx, sqlinline.QMarkBillPaid, bill.ID, req.PaidAt)
		if err != nil {
			return err
		}
		if tag.RowsAffected() != 1 {
			return fmt.Errorf("%w: bill changed during payment", domain.ErrInvalidTransition)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return payment, pool, nil
}

// GetByBill returns the payment made for a bill.
func (r *PaymentRepositoryPG) GetByBill(ctx context.Context, billID string) (*domain.Payment, error) {
	return scanPayment(r.sql.QueryRow(ctx, sqlinline.QSelectPaymentByBill, billID))
}

// ListByPool returns recent payments out of a pool.
func (r *PaymentRepositoryPG) ListByPool(ctx context.Context, poolID string, limit int) ([]domain.Payment, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListPaymentsByPool, poolID, clampLimit(limit, 50, 500))
	if err != nil {
		return nil, err
	}
	return collect(rows, scanPayment)
}

var _ domain.PaymentRepository = (*PaymentRepositoryPG)(nil)
