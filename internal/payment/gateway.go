package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/diagnosis/hotel-bookings/internal/domain"
	"github.com/diagnosis/hotel-bookings/pkg/config"
	"github.com/shopspring/decimal"
)

type ChargeRequest struct {
	BookingID      int64
	PaymentID      int64
	Amount         decimal.Decimal
	Currency       string
	Method         string
	IdempotencyKey string
}

type RefundRequest struct {
	TransactionID  string
	Amount         decimal.Decimal
	Currency       string
	IdempotencyKey string
}

// Gateway charges and refunds money. A charge the processor refuses returns
// an error matching domain.ErrPaymentDeclined; anything else is a transport
// or configuration failure.
type Gateway interface {
	Name() string
	Charge(ctx context.Context, req ChargeRequest) (transactionID string, err error)
	Refund(ctx context.Context, req RefundRequest) (refundID string, err error)
}

// DeclinedError carries the processor's reason for refusing a charge.
type DeclinedError struct {
	Reason string
}

func (e *DeclinedError) Error() string { return "payment declined: " + e.Reason }

func (e *DeclinedError) Unwrap() error { return domain.ErrPaymentDeclined }

func Declined(reason string) error { return &DeclinedError{Reason: reason} }

// DeclineReason extracts the processor's reason, falling back to the error text.
func DeclineReason(err error) string {
	var d *DeclinedError
	if errors.As(err, &d) {
		return d.Reason
	}
	return err.Error()
}

// MinorUnits converts a decimal amount to the integer minor unit (cents)
// processors expect.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

func New(cfg config.PaymentsConfig) (Gateway, error) {
	switch cfg.Gateway {
	case "", "mock":
		return NewMockGateway(), nil
	case "stripe":
		if cfg.StripeSecretKey == "" {
			return nil, errors.New("STRIPE_SECRET_KEY is required for the stripe gateway")
		}
		return NewStripeGateway(cfg.StripeSecretKey), nil
	default:
		return nil, fmt.Errorf("unknown payment gateway %q", cfg.Gateway)
	}
}
