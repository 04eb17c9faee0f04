package payment

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// StripeGateway confirms a PaymentIntent synchronously with the supplied
// payment method id and refunds against that intent.
type StripeGateway struct {
	sc *client.API
}

func NewStripeGateway(secretKey string) *StripeGateway {
	sc := &client.API{}
	sc.Init(secretKey, nil)
	return &StripeGateway{sc: sc}
}

func (g *StripeGateway) Name() string { return "stripe" }

func (g *StripeGateway) Charge(ctx context.Context, req ChargeRequest) (string, error) {
	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(MinorUnits(req.Amount)),
		Currency:           stripe.String(strings.ToLower(req.Currency)),
		PaymentMethod:      stripe.String(req.Method),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Confirm:            stripe.Bool(true),
	}
	params.Context = ctx
	params.AddMetadata("booking_id", strconv.FormatInt(req.BookingID, 10))
	params.AddMetadata("payment_id", strconv.FormatInt(req.PaymentID, 10))
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}

	pi, err := g.sc.PaymentIntents.New(params)
	if err != nil {
		return "", mapStripeError(err)
	}
	if pi.Status != stripe.PaymentIntentStatusSucceeded {
		return "", Declined(fmt.Sprintf("payment intent %s is %s", pi.ID, pi.Status))
	}
	return pi.ID, nil
}

func (g *StripeGateway) Refund(ctx context.Context, req RefundRequest) (string, error) {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(req.TransactionID),
		Amount:        stripe.Int64(MinorUnits(req.Amount)),
	}
	params.Context = ctx
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}

	re, err := g.sc.Refunds.New(params)
	if err != nil {
		return "", mapStripeError(err)
	}
	return re.ID, nil
}

// mapStripeError turns card errors into declines and leaves API or network
// failures as plain errors.
func mapStripeError(err error) error {
	var se *stripe.Error
	if errors.As(err, &se) && se.Type == stripe.ErrorTypeCard {
		reason := se.Msg
		if se.DeclineCode != "" {
			reason = string(se.DeclineCode)
		}
		return Declined(reason)
	}
	return fmt.Errorf("stripe: %w", err)
}
