package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v74"

	"github.com/javajoker/marketplace-backend/internal/config"
	"github.com/javajoker/marketplace-backend/internal/models"
)

func testOrder(total string) *models.Order {
	order := &models.Order{
		BuyerID:     uuid.New(),
		TotalAmount: decimal.RequireFromString(total),
		Status:      models.OrderStatusPending,
	}
	order.ID = uuid.New()
	return order
}

func TestNewPaymentConfirmer(t *testing.T) {
	confirmer, err := NewPaymentConfirmer(config.PaymentConfig{Provider: "stub"})
	require.NoError(t, err)
	assert.IsType(t, StubPaymentConfirmer{}, confirmer)

	confirmer, err = NewPaymentConfirmer(config.PaymentConfig{Provider: "stripe", StripeSecretKey: "sk_test", Currency: "IDR"})
	require.NoError(t, err)
	assert.Equal(t, "idr", confirmer.(*StripePaymentConfirmer).currency)

	_, err = NewPaymentConfirmer(config.PaymentConfig{Provider: "paypal"})
	assert.Error(t, err)
}

func TestStubPaymentConfirmer(t *testing.T) {
	result, err := StubPaymentConfirmer{}.Confirm(context.Background(), testOrder("10"), "transfer")
	require.NoError(t, err)
	assert.Equal(t, "stub", result.Provider)
	assert.Equal(t, "succeeded", result.Status)
	assert.Regexp(t, "^PAY-[A-Z0-9]{12}$", result.Reference)
}

func TestStripePaymentConfirmer(t *testing.T) {
	order := testOrder("150000.50")

	var captured *stripe.PaymentIntentParams
	confirmer := &StripePaymentConfirmer{
		currency: "usd",
		newIntent: func(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
			captured = params
			return &stripe.PaymentIntent{ID: "pi_123", Status: stripe.PaymentIntentStatusSucceeded}, nil
		},
	}

	result, err := confirmer.Confirm(context.Background(), order, "pm_card_visa")
	require.NoError(t, err)
	assert.Equal(t, "stripe", result.Provider)
	assert.Equal(t, "pi_123", result.Reference)

	require.NotNil(t, captured)
	assert.Equal(t, int64(15000050), *captured.Amount)
	assert.Equal(t, "usd", *captured.Currency)
	assert.Equal(t, "pm_card_visa", *captured.PaymentMethod)
	assert.True(t, *captured.Confirm)
	assert.Equal(t, "order-"+order.ID.String(), *captured.IdempotencyKey)
	assert.Equal(t, order.ID.String(), captured.Metadata["order_id"])
}

func TestStripePaymentConfirmerFailures(t *testing.T) {
	tests := []struct {
		name      string
		intent    *stripe.PaymentIntent
		err       error
		wantInput bool
	}{
		{
			name:      "card declined",
			err:       &stripe.Error{Type: stripe.ErrorTypeCard, Msg: "Your card was declined."},
			wantInput: true,
		},
		{
			name:      "requires action",
			intent:    &stripe.PaymentIntent{ID: "pi_1", Status: stripe.PaymentIntentStatusRequiresAction},
			wantInput: true,
		},
		{
			name: "network failure",
			err:  errors.New("connection reset"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			confirmer := &StripePaymentConfirmer{
				currency: "usd",
				newIntent: func(*stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
					return tt.intent, tt.err
				},
			}

			_, err := confirmer.Confirm(context.Background(), testOrder("10"), "pm_card_visa")
			require.Error(t, err)
			assert.Equal(t, tt.wantInput, errors.Is(err, ErrInvalidInput))
		})
	}
}

func TestMinorUnits(t *testing.T) {
	assert.Equal(t, int64(1999), minorUnits(decimal.RequireFromString("19.99"), "usd"))
	assert.Equal(t, int64(150000), minorUnits(decimal.RequireFromString("1500"), "idr"))
	assert.Equal(t, int64(1500), minorUnits(decimal.RequireFromString("1500"), "jpy"))
}
