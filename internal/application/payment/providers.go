package payment

import (
	"context"
	"fmt"

	"github.com/mediagate/internal/domain"
)

// ManualProvider collects payments out of band; the operator approves them
// after checking the transfer by hand.
type ManualProvider struct {
	// Instructions is the operator's payment text (UPI handle, bank
	// details, whatever they use).
	Instructions string
}

func (ManualProvider) Method() string { return domain.PayMethodManual }

func (p ManualProvider) Begin(_ context.Context, pay *domain.Payment) (*domain.PaymentInstructions, error) {
	text := p.Instructions
	if text == "" {
		text = "Send the amount to the operator and wait for approval."
	}
	return &domain.PaymentInstructions{
		PaymentID:    pay.PaymentID,
		Method:       pay.Method,
		Instructions: fmt.Sprintf("%s Amount: %d. Reference: %s.", text, pay.Price, pay.PaymentID),
	}, nil
}

// StarsProvider charges in the transport's native currency; one star per
// whole price unit.
type StarsProvider struct{}

func (StarsProvider) Method() string { return domain.PayMethodStars }

func (StarsProvider) Begin(_ context.Context, pay *domain.Payment) (*domain.PaymentInstructions, error) {
	return &domain.PaymentInstructions{
		PaymentID:    pay.PaymentID,
		Method:       pay.Method,
		Instructions: "Confirm the stars invoice in your app.",
		StarsAmount:  pay.Price,
	}, nil
}

// GatewayProvider redirects to an external payment gateway.
type GatewayProvider struct {
	// BaseURL is the gateway's hosted checkout prefix.
	BaseURL string
}

func (GatewayProvider) Method() string { return domain.PayMethodGateway }

func (p GatewayProvider) Begin(_ context.Context, pay *domain.Payment) (*domain.PaymentInstructions, error) {
	if p.BaseURL == "" {
		return nil, fmt.Errorf("payment gateway not configured: %w", domain.ErrBadRequest)
	}
	return &domain.PaymentInstructions{
		PaymentID:    pay.PaymentID,
		Method:       pay.Method,
		Instructions: "Complete the checkout at the link.",
		PaymentLink:  fmt.Sprintf("%s?ref=%s&amount=%d", p.BaseURL, pay.PaymentID, pay.Price),
	}, nil
}
