package service

import (
	"context"
	"time"

	"github.com/diagnosis/hotel-bookings/internal/domain"
	"github.com/diagnosis/hotel-bookings/pkg/events"
	"github.com/diagnosis/hotel-bookings/pkg/logger"
)

// Event publishing is best effort; a broker outage never fails a request.
func publishBooking(ctx context.Context, bus events.Publisher, subject string, b *domain.Booking, reason string) {
	if bus == nil || b == nil {
		return
	}
	evt := events.BookingEvent{
		BookingID:  b.ID,
		UserID:     b.UserID,
		RoomID:     b.RoomID,
		CheckIn:    b.CheckIn.String(),
		CheckOut:   b.CheckOut.String(),
		Status:     string(b.Status),
		TotalPrice: b.TotalPrice.StringFixed(2),
		Reason:     reason,
		OccurredAt: time.Now().UTC(),
	}
	if err := bus.Publish(ctx, subject, evt); err != nil {
		logger.WarnContext(ctx, "Failed to publish booking event", "subject", subject, "booking_id", b.ID, "error", err)
	}
}

func publishPayment(ctx context.Context, bus events.Publisher, subject string, p *domain.Payment, reason string) {
	if bus == nil || p == nil {
		return
	}
	evt := events.PaymentEvent{
		PaymentID:  p.ID,
		BookingID:  p.BookingID,
		Amount:     p.Amount.StringFixed(2),
		Currency:   p.Currency,
		Status:     string(p.Status),
		Reason:     reason,
		OccurredAt: time.Now().UTC(),
	}
	if p.TransactionID != nil {
		evt.TransactionID = *p.TransactionID
	}
	if err := bus.Publish(ctx, subject, evt); err != nil {
		logger.WarnContext(ctx, "Failed to publish payment event", "subject", subject, "payment_id", p.ID, "error", err)
	}
}
