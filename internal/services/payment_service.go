// internal/services/payment_service.go
package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/paymentintent"

	"github.com/javajoker/marketplace-backend/internal/config"
	"github.com/javajoker/marketplace-backend/internal/i18n"
	"github.com/javajoker/marketplace-backend/internal/models"
	"github.com/javajoker/marketplace-backend/internal/utils"
)

// PaymentConfirmer confirms payment for a pending order. Implementations
// must not change order state; the order engine owns the transition.
type PaymentConfirmer interface {
	Confirm(ctx context.Context, order *models.Order, method string) (*PaymentResult, error)
}

type PaymentResult struct {
	Provider  string `json:"provider"`
	Reference string `json:"reference"`
	Status    string `json:"status"`
}

func NewPaymentConfirmer(cfg config.PaymentConfig) (PaymentConfirmer, error) {
	switch cfg.Provider {
	case "", "stub":
		return StubPaymentConfirmer{}, nil
	case "stripe":
		return NewStripePaymentConfirmer(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported payment provider %q", cfg.Provider)
	}
}

// StubPaymentConfirmer accepts every payment.
type StubPaymentConfirmer struct{}

func (StubPaymentConfirmer) Confirm(ctx context.Context, order *models.Order, method string) (*PaymentResult, error) {
	code, err := utils.GenerateRandomString(12)
	if err != nil {
		return nil, fmt.Errorf("failed to generate payment reference: %w", err)
	}

	return &PaymentResult{
		Provider:  "stub",
		Reference: "PAY-" + code,
		Status:    "succeeded",
	}, nil
}

// StripePaymentConfirmer charges the order total through a confirmed
// PaymentIntent. The order id is the idempotency key so a retried payment
// never charges twice.
type StripePaymentConfirmer struct {
	currency  string
	newIntent func(*stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

var zeroDecimalCurrencies = map[string]bool{
	"bif": true, "clp": true, "djf": true, "gnf": true, "jpy": true, "kmf": true,
	"krw": true, "mga": true, "pyg": true, "rwf": true, "ugx": true, "vnd": true,
	"vuv": true, "xaf": true, "xof": true, "xpf": true,
}

func NewStripePaymentConfirmer(cfg config.PaymentConfig) *StripePaymentConfirmer {
	// Initialize Stripe
	stripe.Key = cfg.StripeSecretKey

	return &StripePaymentConfirmer{
		currency:  strings.ToLower(cfg.Currency),
		newIntent: paymentintent.New,
	}
}

func (s *StripePaymentConfirmer) Confirm(ctx context.Context, order *models.Order, method string) (*PaymentResult, error) {
	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(minorUnits(order.TotalAmount, s.currency)),
		Currency:           stripe.String(s.currency),
		PaymentMethod:      stripe.String(method),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Confirm:            stripe.Bool(true),
	}
	params.Context = ctx
	params.SetIdempotencyKey("order-" + order.ID.String())
	params.AddMetadata("order_id", order.ID.String())
	params.AddMetadata("buyer_id", order.BuyerID.String())

	pi, err := s.newIntent(params)
	if err != nil {
		if stripeErr, ok := err.(*stripe.Error); ok && stripeErr.Type == stripe.ErrorTypeCard {
			return nil, newInvalidInput(i18n.KeyPaymentFailed, stripeErr.Msg)
		}
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}

	if pi.Status != stripe.PaymentIntentStatusSucceeded {
		return nil, newInvalidInput(i18n.KeyPaymentFailed, string(pi.Status))
	}

	return &PaymentResult{
		Provider:  "stripe",
		Reference: pi.ID,
		Status:    string(pi.Status),
	}, nil
}

func minorUnits(amount decimal.Decimal, currency string) int64 {
	if zeroDecimalCurrencies[currency] {
		return amount.Round(0).IntPart()
	}
	return amount.Shift(2).Round(0).IntPart()
}
