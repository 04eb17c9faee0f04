package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// RefundPolicy decides how much of a completed payment goes back to the
// guest when a confirmed booking is cancelled.
type RefundPolicy struct {
	FreeCancellationWindow time.Duration
	LateRefundPercent      int
}

// RefundAmount returns the refundable part of paid. Admin cancellations and
// cancellations made at least FreeCancellationWindow before check-in are
// refunded in full.
func (p RefundPolicy) RefundAmount(paid decimal.Decimal, checkIn Date, cancelledAt time.Time, byAdmin bool) decimal.Decimal {
	if paid.IsNegative() || paid.IsZero() {
		return decimal.Zero
	}
	if byAdmin || checkIn.Sub(cancelledAt) >= p.FreeCancellationWindow {
		return paid
	}
	pct := p.LateRefundPercent
	if pct <= 0 {
		return decimal.Zero
	}
	if pct >= 100 {
		return paid
	}
	return paid.Mul(decimal.NewFromInt(int64(pct))).Div(decimal.NewFromInt(100)).Round(2)
}
