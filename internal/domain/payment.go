package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

func ParsePaymentStatus(s string) (PaymentStatus, bool) {
	switch PaymentStatus(strings.ToLower(strings.TrimSpace(s))) {
	case PaymentPending, PaymentCompleted, PaymentFailed, PaymentRefunded:
		return PaymentStatus(strings.ToLower(strings.TrimSpace(s))), true
	default:
		return "", false
	}
}

type Payment struct {
	ID             int64           `json:"id"`
	BookingID      int64           `json:"booking_id"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	Method         string          `json:"method"`
	TransactionID  *string         `json:"transaction_id,omitempty"`
	Status         PaymentStatus   `json:"status"`
	FailureReason  string          `json:"failure_reason,omitempty"`
	RefundedAmount decimal.Decimal `json:"refunded_amount"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

type CreatePaymentRequest struct {
	BookingID int64           `json:"booking_id"`
	Amount    decimal.Decimal `json:"amount"`
	Method    string          `json:"method"`
	Currency  string          `json:"currency,omitempty"`
}

func (r *CreatePaymentRequest) Normalize(defaultCurrency string) {
	r.Method = strings.ToLower(strings.TrimSpace(r.Method))
	r.Currency = strings.ToUpper(strings.TrimSpace(r.Currency))
	if r.Currency == "" {
		r.Currency = strings.ToUpper(defaultCurrency)
	}
}

func (r *CreatePaymentRequest) Validate() error {
	v := &ValidationError{}
	if r.BookingID <= 0 {
		v.Add("booking_id", "is required")
	}
	if !r.Amount.IsPositive() {
		v.Add("amount", "must be greater than zero")
	}
	if r.Method == "" {
		v.Add("method", "is required")
	}
	if len(r.Currency) != 3 {
		v.Add("currency", "must be a 3-letter ISO code")
	}
	return v.OrNil()
}

// PaymentCallback is what the gateway (or an operator replaying it) reports
// for a pending payment.
type PaymentCallback struct {
	Status        PaymentStatus `json:"status"`
	TransactionID string        `json:"transaction_id,omitempty"`
	FailureReason string        `json:"failure_reason,omitempty"`
}

func (r *PaymentCallback) Validate() error {
	v := &ValidationError{}
	st, ok := ParsePaymentStatus(string(r.Status))
	if !ok || (st != PaymentCompleted && st != PaymentFailed) {
		v.Add("status", "must be completed or failed")
	} else {
		r.Status = st
	}
	r.TransactionID = strings.TrimSpace(r.TransactionID)
	if r.Status == PaymentCompleted && r.TransactionID == "" {
		v.Add("transaction_id", "is required for completed payments")
	}
	return v.OrNil()
}

type RefundRequest struct {
	Amount *decimal.Decimal `json:"amount,omitempty"`
	Reason string           `json:"reason,omitempty"`
}

func (r *RefundRequest) Validate(paid decimal.Decimal) error {
	r.Reason = strings.TrimSpace(r.Reason)
	if r.Amount == nil {
		return nil
	}
	if !r.Amount.IsPositive() {
		return NewValidationError("amount", "must be greater than zero")
	}
	if r.Amount.GreaterThan(paid) {
		return NewValidationError("amount", "exceeds the amount paid")
	}
	return nil
}

type PaymentFilter struct {
	Status *PaymentStatus
	Limit  int
	Offset int
}
