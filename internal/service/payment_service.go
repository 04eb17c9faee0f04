package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/diagnosis/hotel-bookings/internal/domain"
	"github.com/diagnosis/hotel-bookings/internal/payment"
	"github.com/diagnosis/hotel-bookings/internal/repo/postgres"
	"github.com/diagnosis/hotel-bookings/pkg/events"
	"github.com/diagnosis/hotel-bookings/pkg/logger"
	"github.com/diagnosis/hotel-bookings/pkg/metrics"
	"github.com/shopspring/decimal"
)

type PaymentService interface {
	Create(ctx context.Context, actor domain.Actor, req *domain.CreatePaymentRequest, idempotencyKey string) (*domain.Payment, error)
	Get(ctx context.Context, actor domain.Actor, id int64) (*domain.Payment, error)
	List(ctx context.Context, actor domain.Actor, f domain.PaymentFilter) ([]domain.Payment, error)
	ApplyCallback(ctx context.Context, actor domain.Actor, id int64, cb *domain.PaymentCallback) (*domain.Payment, error)
	Refund(ctx context.Context, actor domain.Actor, id int64, req *domain.RefundRequest) (*domain.Payment, error)
	Delete(ctx context.Context, actor domain.Actor, id int64) error
	// RefundCancelled applies the refund policy to a booking that was just
	// cancelled. Bookings without a completed payment are a no-op.
	RefundCancelled(ctx context.Context, b *domain.Booking, byAdmin bool) (*domain.Payment, error)
}

type roomRefresher interface {
	RefreshStatus(ctx context.Context, id int64) error
}

type paymentService struct {
	payments postgres.PaymentRepo
	bookings postgres.BookingRepo
	gateway  payment.Gateway
	rooms    roomRefresher
	bus      events.Publisher
	policy   domain.RefundPolicy
	currency string
	now      func() time.Time
}

func NewPaymentService(
	payments postgres.PaymentRepo,
	bookings postgres.BookingRepo,
	gateway payment.Gateway,
	rooms roomRefresher,
	bus events.Publisher,
	policy domain.RefundPolicy,
	currency string,
) PaymentService {
	return &paymentService{
		payments: payments,
		bookings: bookings,
		gateway:  gateway,
		rooms:    rooms,
		bus:      bus,
		policy:   policy,
		currency: currency,
		now:      time.Now,
	}
}

func (s *paymentService) Create(ctx context.Context, actor domain.Actor, req *domain.CreatePaymentRequest, idempotencyKey string) (*domain.Payment, error) {
	req.Normalize(s.currency)
	if err := req.Validate(); err != nil {
		return nil, err
	}

	b, err := s.bookings.GetByID(ctx, req.BookingID)
	if err != nil {
		return nil, fmt.Errorf("get booking: %w", err)
	}
	if b == nil {
		return nil, fmt.Errorf("booking %d: %w", req.BookingID, domain.ErrNotFound)
	}
	if !actor.CanAccess(b.UserID) {
		return nil, domain.ErrForbidden
	}
	if b.Status != domain.BookingPending {
		return nil, fmt.Errorf("booking %d is %s: %w", b.ID, b.Status, domain.ErrConflict)
	}
	v := &domain.ValidationError{}
	if !req.Amount.Round(2).Equal(b.TotalPrice) {
		v.Add("amount", "must equal the booking total of "+b.TotalPrice.StringFixed(2))
	}
	if req.Currency != s.currency {
		v.Add("currency", "must be "+s.currency)
	}
	if err := v.OrNil(); err != nil {
		return nil, err
	}

	p, err := s.payments.CreatePending(ctx, &domain.Payment{
		BookingID: b.ID,
		Amount:    b.TotalPrice,
		Currency:  req.Currency,
		Method:    req.Method,
	})
	if err != nil {
		return nil, fmt.Errorf("create payment: %w", err)
	}

	if idempotencyKey == "" {
		idempotencyKey = fmt.Sprintf("payment-%d-%d", p.ID, p.UpdatedAt.UnixNano())
	}
	txn, err := s.gateway.Charge(ctx, payment.ChargeRequest{
		BookingID:      b.ID,
		PaymentID:      p.ID,
		Amount:         p.Amount,
		Currency:       p.Currency,
		Method:         p.Method,
		IdempotencyKey: idempotencyKey,
	})
	if err != nil {
		reason := payment.DeclineReason(err)
		if !errors.Is(err, domain.ErrPaymentDeclined) {
			reason = "gateway error: " + err.Error()
		}
		if _, ferr := s.fail(ctx, p.ID, reason); ferr != nil {
			logger.ErrorContext(ctx, "Failed to record payment failure", "payment_id", p.ID, "error", ferr)
		}
		return nil, fmt.Errorf("charge booking %d via %s: %w", b.ID, s.gateway.Name(), err)
	}

	return s.complete(ctx, p.ID, txn)
}

func (s *paymentService) complete(ctx context.Context, id int64, txn string) (*domain.Payment, error) {
	p, b, err := s.payments.Complete(ctx, id, txn)
	if err != nil {
		return nil, fmt.Errorf("complete payment %d: %w", id, err)
	}
	metrics.PaymentStatus(string(domain.PaymentCompleted))
	metrics.BookingStatus(string(domain.BookingConfirmed))
	logger.InfoContext(ctx, "Payment completed", "payment_id", p.ID, "booking_id", b.ID, "transaction_id", txn)

	if err := s.rooms.RefreshStatus(ctx, b.RoomID); err != nil {
		logger.WarnContext(ctx, "Failed to refresh room status", "room_id", b.RoomID, "error", err)
	}
	publishPayment(ctx, s.bus, events.PaymentCompleted, p, "")
	publishBooking(ctx, s.bus, events.BookingConfirmed, b, "")
	return p, nil
}

func (s *paymentService) fail(ctx context.Context, id int64, reason string) (*domain.Payment, error) {
	p, err := s.payments.Fail(ctx, id, reason)
	if err != nil {
		return nil, err
	}
	metrics.PaymentStatus(string(domain.PaymentFailed))
	logger.WarnContext(ctx, "Payment failed", "payment_id", p.ID, "booking_id", p.BookingID, "reason", reason)
	publishPayment(ctx, s.bus, events.PaymentFailed, p, reason)
	return p, nil
}

func (s *paymentService) Get(ctx context.Context, actor domain.Actor, id int64) (*domain.Payment, error) {
	p, err := s.payments.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get payment: %w", err)
	}
	if p == nil {
		return nil, domain.ErrNotFound
	}
	if actor.IsAdmin() {
		return p, nil
	}
	b, err := s.bookings.GetByID(ctx, p.BookingID)
	if err != nil {
		return nil, fmt.Errorf("get booking: %w", err)
	}
	if b == nil || !actor.CanAccess(b.UserID) {
		return nil, domain.ErrForbidden
	}
	return p, nil
}

func (s *paymentService) List(ctx context.Context, actor domain.Actor, f domain.PaymentFilter) ([]domain.Payment, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	return s.payments.List(ctx, f)
}

func (s *paymentService) ApplyCallback(ctx context.Context, actor domain.Actor, id int64, cb *domain.PaymentCallback) (*domain.Payment, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	if err := cb.Validate(); err != nil {
		return nil, err
	}
	p, err := s.payments.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get payment: %w", err)
	}
	if p == nil {
		return nil, domain.ErrNotFound
	}
	if p.Status != domain.PaymentPending {
		return nil, fmt.Errorf("payment %d is %s: %w", id, p.Status, domain.ErrConflict)
	}

	if cb.Status == domain.PaymentCompleted {
		return s.complete(ctx, id, cb.TransactionID)
	}
	reason := cb.FailureReason
	if reason == "" {
		reason = "reported failed by gateway"
	}
	return s.fail(ctx, id, reason)
}

func (s *paymentService) Refund(ctx context.Context, actor domain.Actor, id int64, req *domain.RefundRequest) (*domain.Payment, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	p, err := s.payments.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get payment: %w", err)
	}
	if p == nil {
		return nil, domain.ErrNotFound
	}
	if p.Status != domain.PaymentCompleted {
		return nil, fmt.Errorf("payment %d is %s: %w", id, p.Status, domain.ErrConflict)
	}
	if err := req.Validate(p.Amount); err != nil {
		return nil, err
	}
	amount := p.Amount
	if req.Amount != nil {
		amount = req.Amount.Round(2)
	}
	reason := req.Reason
	if reason == "" {
		reason = "refunded by admin"
	}
	return s.refund(ctx, p, amount, reason)
}

func (s *paymentService) RefundCancelled(ctx context.Context, b *domain.Booking, byAdmin bool) (*domain.Payment, error) {
	p, err := s.payments.GetByBookingID(ctx, b.ID)
	if err != nil {
		return nil, fmt.Errorf("get payment for booking %d: %w", b.ID, err)
	}
	if p == nil || p.Status != domain.PaymentCompleted {
		return nil, nil
	}

	cancelledAt := s.now()
	if b.CancelledAt != nil {
		cancelledAt = *b.CancelledAt
	}
	amount := s.policy.RefundAmount(p.Amount, b.CheckIn, cancelledAt, byAdmin)
	if amount.IsZero() {
		logger.InfoContext(ctx, "Cancellation not eligible for refund", "booking_id", b.ID, "payment_id", p.ID)
		return p, nil
	}
	reason := ""
	if b.CancellationReason != nil {
		reason = *b.CancellationReason
	}
	return s.refund(ctx, p, amount, reason)
}

func (s *paymentService) refund(ctx context.Context, p *domain.Payment, amount decimal.Decimal, reason string) (*domain.Payment, error) {
	if p.TransactionID == nil || *p.TransactionID == "" {
		return nil, fmt.Errorf("payment %d has no transaction to refund: %w", p.ID, domain.ErrConflict)
	}
	refundID, err := s.gateway.Refund(ctx, payment.RefundRequest{
		TransactionID:  *p.TransactionID,
		Amount:         amount,
		Currency:       p.Currency,
		IdempotencyKey: fmt.Sprintf("refund-%d", p.ID),
	})
	if err != nil {
		return nil, fmt.Errorf("refund payment %d via %s: %w", p.ID, s.gateway.Name(), err)
	}

	refunded, b, err := s.payments.Refund(ctx, p.ID, amount, reason, s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("record refund %s: %w", refundID, err)
	}
	metrics.PaymentStatus(string(domain.PaymentRefunded))
	logger.InfoContext(ctx, "Payment refunded",
		"payment_id", p.ID, "refund_id", refundID, "amount", amount.StringFixed(2))
	publishPayment(ctx, s.bus, events.PaymentRefunded, refunded, reason)

	if b != nil {
		metrics.BookingStatus(string(domain.BookingCancelled))
		if err := s.rooms.RefreshStatus(ctx, b.RoomID); err != nil {
			logger.WarnContext(ctx, "Failed to refresh room status", "room_id", b.RoomID, "error", err)
		}
		publishBooking(ctx, s.bus, events.BookingCancelled, b, reason)
	}
	return refunded, nil
}

func (s *paymentService) Delete(ctx context.Context, actor domain.Actor, id int64) error {
	if !actor.IsAdmin() {
		return domain.ErrForbidden
	}
	ok, err := s.payments.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete payment %d: %w", id, err)
	}
	if !ok {
		return domain.ErrNotFound
	}
	return nil
}
