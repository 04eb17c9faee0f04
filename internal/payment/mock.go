package payment

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

var declinedMethods = map[string]string{
	"card_declined":      "card declined",
	"insufficient_funds": "insufficient funds",
	"fail":               "payment failed",
}

// MockGateway approves every method except a fixed set of sentinel ones.
type MockGateway struct{}

func NewMockGateway() *MockGateway { return &MockGateway{} }

func (g *MockGateway) Name() string { return "mock" }

func (g *MockGateway) Charge(ctx context.Context, req ChargeRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if reason, ok := declinedMethods[strings.ToLower(req.Method)]; ok {
		return "", Declined(reason)
	}
	return "mock_" + uuid.NewString(), nil
}

func (g *MockGateway) Refund(ctx context.Context, req RefundRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return "mock_re_" + uuid.NewString(), nil
}
