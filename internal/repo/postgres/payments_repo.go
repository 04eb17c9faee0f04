package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/diagnosis/hotel-bookings/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type PaymentRepo interface {
	CreatePending(ctx context.Context, p *domain.Payment) (*domain.Payment, error)
	GetByID(ctx context.Context, id int64) (*domain.Payment, error)
	GetByBookingID(ctx context.Context, bookingID int64) (*domain.Payment, error)
	List(ctx context.Context, f domain.PaymentFilter) ([]domain.Payment, error)
	Complete(ctx context.Context, id int64, transactionID string) (*domain.Payment, *domain.Booking, error)
	Fail(ctx context.Context, id int64, reason string) (*domain.Payment, error)
	Refund(ctx context.Context, id int64, amount decimal.Decimal, cancelReason string, at time.Time) (*domain.Payment, *domain.Booking, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

type PaymentRepoImpl struct{ pool *pgxpool.Pool }

func NewPaymentRepo(pool *pgxpool.Pool) *PaymentRepoImpl { return &PaymentRepoImpl{pool: pool} }

const paymentCols = `id, booking_id, amount, currency, method, transaction_id,
status, failure_reason, refunded_amount, created_at, updated_at`

func scanPayment(row rowScanner) (*domain.Payment, error) {
	var p domain.Payment
	if err := row.Scan(
		&p.ID, &p.BookingID, &p.Amount, &p.Currency, &p.Method, &p.TransactionID,
		&p.Status, &p.FailureReason, &p.RefundedAmount, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &p, nil
}

// CreatePending inserts a pending payment for the booking. A previous failed
// attempt is reset and reused; any other existing payment is ErrConflict.
func (r *PaymentRepoImpl) CreatePending(ctx context.Context, in *domain.Payment) (*domain.Payment, error) {
	const q = `INSERT INTO payments (booking_id, amount, currency, method, status, failure_reason, refunded_amount)
VALUES ($1,$2,$3,$4,'pending','',0)
ON CONFLICT (booking_id) DO UPDATE SET
  amount=EXCLUDED.amount, currency=EXCLUDED.currency, method=EXCLUDED.method,
  status='pending', failure_reason='', transaction_id=NULL, updated_at=now()
WHERE payments.status='failed'
RETURNING ` + paymentCols

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	p, err := scanPayment(r.pool.QueryRow(ctx, q, in.BookingID, in.Amount, in.Currency, in.Method))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("booking %d already has a payment: %w", in.BookingID, domain.ErrConflict)
	}
	if err != nil {
		return nil, translate(err)
	}
	return p, nil
}

func (r *PaymentRepoImpl) GetByID(ctx context.Context, id int64) (*domain.Payment, error) {
	const q = `SELECT ` + paymentCols + ` FROM payments WHERE id=$1`
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	p, err := scanPayment(r.pool.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return p, err
}

func (r *PaymentRepoImpl) GetByBookingID(ctx context.Context, bookingID int64) (*domain.Payment, error) {
	const q = `SELECT ` + paymentCols + ` FROM payments WHERE booking_id=$1`
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	p, err := scanPayment(r.pool.QueryRow(ctx, q, bookingID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return p, err
}

func (r *PaymentRepoImpl) List(ctx context.Context, f domain.PaymentFilter) ([]domain.Payment, error) {
	limit, offset := clampPage(f.Limit, f.Offset)
	const q = `SELECT ` + paymentCols + ` FROM payments
WHERE ($1::text IS NULL OR status = $1)
ORDER BY id DESC LIMIT $2 OFFSET $3`

	var status *string
	if f.Status != nil {
		s := string(*f.Status)
		status = &s
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()
	rows, err := r.pool.Query(ctx, q, status, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ps := make([]domain.Payment, 0, limit)
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		ps = append(ps, *p)
	}
	return ps, rows.Err()
}

// Complete marks the payment completed and confirms its booking in one
// transaction. Either side not being pending rolls everything back.
func (r *PaymentRepoImpl) Complete(ctx context.Context, id int64, transactionID string) (*domain.Payment, *domain.Booking, error) {
	const qp = `UPDATE payments SET status='completed', transaction_id=$2, failure_reason='', updated_at=now()
WHERE id=$1 AND status='pending'
RETURNING ` + paymentCols
	const qb = `UPDATE bookings SET status='confirmed', updated_at=now()
WHERE id=$1 AND status='pending'
RETURNING ` + bookingCols

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var (
		p *domain.Payment
		b *domain.Booking
	)
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var err error
		p, err = scanPayment(tx.QueryRow(ctx, qp, id, transactionID))
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("payment %d is not pending: %w", id, domain.ErrConflict)
		}
		if err != nil {
			return err
		}
		b, err = scanBooking(tx.QueryRow(ctx, qb, p.BookingID))
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("booking %d is not pending: %w", p.BookingID, domain.ErrConflict)
		}
		return err
	})
	if err != nil {
		return nil, nil, translate(err)
	}
	return p, b, nil
}

func (r *PaymentRepoImpl) Fail(ctx context.Context, id int64, reason string) (*domain.Payment, error) {
	const q = `UPDATE payments SET status='failed', failure_reason=$2, updated_at=now()
WHERE id=$1 AND status='pending'
RETURNING ` + paymentCols
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	p, err := scanPayment(r.pool.QueryRow(ctx, q, id, reason))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("payment %d is not pending: %w", id, domain.ErrConflict)
	}
	return p, err
}

// Refund records a refund on a completed payment and cancels the booking if
// it still holds the room. The returned booking is nil when it was already
// terminal.
func (r *PaymentRepoImpl) Refund(ctx context.Context, id int64, amount decimal.Decimal, cancelReason string, at time.Time) (*domain.Payment, *domain.Booking, error) {
	const qp = `UPDATE payments SET status='refunded', refunded_amount=$2, updated_at=now()
WHERE id=$1 AND status='completed'
RETURNING ` + paymentCols
	const qb = `UPDATE bookings SET status='cancelled',
  cancellation_reason=NULLIF($2, ''), cancelled_at=$3, updated_at=now()
WHERE id=$1 AND status IN ('pending','confirmed')
RETURNING ` + bookingCols

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var (
		p *domain.Payment
		b *domain.Booking
	)
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var err error
		p, err = scanPayment(tx.QueryRow(ctx, qp, id, amount))
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("payment %d is not completed: %w", id, domain.ErrConflict)
		}
		if err != nil {
			return err
		}
		b, err = scanBooking(tx.QueryRow(ctx, qb, p.BookingID, cancelReason, at))
		if errors.Is(err, pgx.ErrNoRows) {
			b = nil
			return nil
		}
		return err
	})
	if err != nil {
		return nil, nil, translate(err)
	}
	return p, b, nil
}

// Delete removes a pending or failed payment. Settled payments are kept and
// reported as ErrConflict.
func (r *PaymentRepoImpl) Delete(ctx context.Context, id int64) (bool, error) {
	const q = `WITH target AS (SELECT id, status FROM payments WHERE id=$1),
deleted AS (DELETE FROM payments p USING target t
            WHERE p.id=t.id AND t.status IN ('pending','failed') RETURNING p.id)
SELECT (SELECT count(*) FROM target), (SELECT count(*) FROM deleted)`
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var found, deleted int
	if err := r.pool.QueryRow(ctx, q, id).Scan(&found, &deleted); err != nil {
		return false, err
	}
	if found == 0 {
		return false, nil
	}
	if deleted == 0 {
		return false, fmt.Errorf("payment %d is settled: %w", id, domain.ErrConflict)
	}
	return true, nil
}
