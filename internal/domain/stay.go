package domain

import (
	"math"

	"github.com/shopspring/decimal"
)

// Stay is the half-open range [CheckIn, CheckOut) a room is held for.
type Stay struct {
	CheckIn  Date `json:"check_in_date"`
	CheckOut Date `json:"check_out_date"`
}

func NewStay(checkIn, checkOut Date) (Stay, error) {
	s := Stay{CheckIn: checkIn, CheckOut: checkOut}
	if err := s.Validate(); err != nil {
		return Stay{}, err
	}
	return s, nil
}

// Validate rejects missing dates and zero-night or inverted ranges.
func (s Stay) Validate() error {
	v := &ValidationError{}
	if s.CheckIn.IsZero() {
		v.Add("check_in_date", "is required")
	}
	if s.CheckOut.IsZero() {
		v.Add("check_out_date", "is required")
	}
	if v.Empty() && !s.CheckOut.After(s.CheckIn.Time) {
		v.Add("check_out_date", "must be after check_in_date")
	}
	return v.OrNil()
}

// Overlaps reports whether both stays hold the room on at least one night.
// Touching ranges (one checks out the day the other checks in) do not overlap.
func (s Stay) Overlaps(o Stay) bool {
	return s.CheckIn.Before(o.CheckOut.Time) && s.CheckOut.After(o.CheckIn.Time)
}

// Covers reports whether the guest is in the room on day d.
func (s Stay) Covers(d Date) bool {
	return !d.Before(s.CheckIn.Time) && d.Before(s.CheckOut.Time)
}

// Nights is the number of billable nights, never less than one.
func (s Stay) Nights() int {
	n := int(math.Ceil(s.CheckOut.Sub(s.CheckIn.Time).Hours() / 24))
	if n < 1 {
		return 1
	}
	return n
}

// TotalPrice is nightlyRate × Nights rounded to cents.
func TotalPrice(nightlyRate decimal.Decimal, s Stay) decimal.Decimal {
	return nightlyRate.Mul(decimal.NewFromInt(int64(s.Nights()))).Round(2)
}

// Quote prices a stay, honouring an explicit override when one is given.
func Quote(nightlyRate decimal.Decimal, s Stay, override *decimal.Decimal) (decimal.Decimal, error) {
	if override != nil {
		if override.IsNegative() {
			return decimal.Zero, NewValidationError("total_price_override", "must not be negative")
		}
		return override.Round(2), nil
	}
	return TotalPrice(nightlyRate, s), nil
}
