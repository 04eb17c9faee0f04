package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
	BookingCompleted BookingStatus = "completed"
)

func ParseBookingStatus(s string) (BookingStatus, bool) {
	switch BookingStatus(strings.ToLower(strings.TrimSpace(s))) {
	case BookingPending, BookingConfirmed, BookingCancelled, BookingCompleted:
		return BookingStatus(strings.ToLower(strings.TrimSpace(s))), true
	default:
		return "", false
	}
}

type Booking struct {
	ID                 int64           `json:"id"`
	UserID             int64           `json:"user_id"`
	RoomID             int64           `json:"room_id"`
	CheckIn            Date            `json:"check_in_date"`
	CheckOut           Date            `json:"check_out_date"`
	GuestCount         int             `json:"guest_count"`
	TotalPrice         decimal.Decimal `json:"total_price"`
	Status             BookingStatus   `json:"status"`
	SpecialRequests    string          `json:"special_requests,omitempty"`
	CancellationReason *string         `json:"cancellation_reason,omitempty"`
	CancelledAt        *time.Time      `json:"cancelled_at,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

func (b *Booking) Stay() Stay {
	return Stay{CheckIn: b.CheckIn, CheckOut: b.CheckOut}
}

func (b *Booking) Nights() int { return b.Stay().Nights() }

func (b *Booking) IsOwner(userID int64) bool {
	return b.UserID == userID
}

// Business rules
const (
	MinGuests             = 1
	MaxSpecialRequestsLen = 1000
	MaxCancelReasonLen    = 500
)

type CreateBookingRequest struct {
	RoomID             int64            `json:"room_id"`
	CheckIn            Date             `json:"check_in_date"`
	CheckOut           Date             `json:"check_out_date"`
	GuestCount         int              `json:"guest_count"`
	SpecialRequests    string           `json:"special_requests,omitempty"`
	UserID             *int64           `json:"user_id,omitempty"`
	TotalPriceOverride *decimal.Decimal `json:"total_price_override,omitempty"`
}

func (r *CreateBookingRequest) Normalize() {
	r.SpecialRequests = strings.TrimSpace(r.SpecialRequests)
}

// Validate checks the request shape. Date ordering is checked before any
// availability lookup so an inverted range is always a 400.
func (r *CreateBookingRequest) Validate(maxGuests int) error {
	v := &ValidationError{}
	if r.RoomID <= 0 {
		v.Add("room_id", "is required")
	}
	if err := (Stay{CheckIn: r.CheckIn, CheckOut: r.CheckOut}).Validate(); err != nil {
		if sv, ok := IsValidation(err); ok {
			for f, m := range sv.Fields {
				v.Add(f, m)
			}
		}
	}
	validateGuestCount(v, r.GuestCount, maxGuests)
	if len(r.SpecialRequests) > MaxSpecialRequestsLen {
		v.Add("special_requests", "is too long")
	}
	if r.TotalPriceOverride != nil && r.TotalPriceOverride.IsNegative() {
		v.Add("total_price_override", "must not be negative")
	}
	return v.OrNil()
}

func (r *CreateBookingRequest) Stay() Stay {
	return Stay{CheckIn: r.CheckIn, CheckOut: r.CheckOut}
}

type UpdateBookingRequest struct {
	CheckIn            *Date            `json:"check_in_date,omitempty"`
	CheckOut           *Date            `json:"check_out_date,omitempty"`
	GuestCount         *int             `json:"guest_count,omitempty"`
	SpecialRequests    *string          `json:"special_requests,omitempty"`
	TotalPriceOverride *decimal.Decimal `json:"total_price_override,omitempty"`
}

func (r *UpdateBookingRequest) Reschedules() bool {
	return r.CheckIn != nil || r.CheckOut != nil
}

// Apply returns a copy of b with the patch applied and validated.
func (r *UpdateBookingRequest) Apply(b Booking, maxGuests int) (Booking, error) {
	v := &ValidationError{}
	if r.CheckIn != nil {
		b.CheckIn = *r.CheckIn
	}
	if r.CheckOut != nil {
		b.CheckOut = *r.CheckOut
	}
	if r.Reschedules() {
		if err := b.Stay().Validate(); err != nil {
			if sv, ok := IsValidation(err); ok {
				for f, m := range sv.Fields {
					v.Add(f, m)
				}
			}
		}
	}
	if r.GuestCount != nil {
		validateGuestCount(v, *r.GuestCount, maxGuests)
		b.GuestCount = *r.GuestCount
	}
	if r.SpecialRequests != nil {
		s := strings.TrimSpace(*r.SpecialRequests)
		if len(s) > MaxSpecialRequestsLen {
			v.Add("special_requests", "is too long")
		}
		b.SpecialRequests = s
	}
	if r.TotalPriceOverride != nil && r.TotalPriceOverride.IsNegative() {
		v.Add("total_price_override", "must not be negative")
	}
	return b, v.OrNil()
}

type CancelBookingRequest struct {
	Reason string `json:"reason,omitempty"`
}

func (r *CancelBookingRequest) Validate() error {
	r.Reason = strings.TrimSpace(r.Reason)
	if len(r.Reason) > MaxCancelReasonLen {
		return NewValidationError("reason", "is too long")
	}
	return nil
}

type StatusChangeRequest struct {
	Status BookingStatus `json:"status"`
	Reason string        `json:"reason,omitempty"`
}

func (r *StatusChangeRequest) Validate() error {
	st, ok := ParseBookingStatus(string(r.Status))
	if !ok {
		return NewValidationError("status", "must be one of pending, confirmed, cancelled, completed")
	}
	r.Status = st
	r.Reason = strings.TrimSpace(r.Reason)
	return nil
}

type BookingFilter struct {
	UserID *int64
	RoomID *int64
	Status *BookingStatus
	Limit  int
	Offset int
}

func validateGuestCount(v *ValidationError, n, maxGuests int) {
	if n < MinGuests {
		v.Add("guest_count", "must be at least 1")
		return
	}
	if maxGuests > 0 && n > maxGuests {
		v.Add("guest_count", "exceeds the maximum party size")
	}
}
