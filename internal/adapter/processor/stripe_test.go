package processor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v78"

	"github.com/ibrahimkeyboad/gopay-connect/internal/core/gateway"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestToGatewayError(t *testing.T) {
	t.Run("stripe error", func(t *testing.T) {
		err := toGatewayError(&stripe.Error{
			HTTPStatusCode: http.StatusPaymentRequired,
			Code:           stripe.ErrorCode(gateway.CodeCardDeclined),
			RequestID:      "req_1",
			Msg:            "Your card was declined.",
		})

		var ge *gateway.Error
		require.ErrorAs(t, err, &ge)
		assert.False(t, ge.RateLimited)
		assert.Equal(t, http.StatusPaymentRequired, ge.StatusCode)
		assert.Equal(t, gateway.CodeCardDeclined, ge.Code)
		assert.Equal(t, "req_1", ge.RequestID)
		assert.Equal(t, "Your card was declined.", ge.Message)
	})

	t.Run("rate limited by status", func(t *testing.T) {
		assert.True(t, gateway.IsRateLimited(toGatewayError(&stripe.Error{HTTPStatusCode: http.StatusTooManyRequests})))
	})

	t.Run("rate limited by code", func(t *testing.T) {
		assert.True(t, gateway.IsRateLimited(toGatewayError(&stripe.Error{
			HTTPStatusCode: http.StatusBadRequest,
			Code:           stripe.ErrorCode(gateway.CodeRateLimit),
		})))
	})

	t.Run("open breaker", func(t *testing.T) {
		var ge *gateway.Error
		require.ErrorAs(t, toGatewayError(gobreaker.ErrOpenState), &ge)
		assert.Equal(t, http.StatusServiceUnavailable, ge.StatusCode)
		assert.ErrorIs(t, ge, gobreaker.ErrOpenState)
	})

	t.Run("timeout", func(t *testing.T) {
		err := toGatewayError(fmt.Errorf("request: %w", context.DeadlineExceeded))
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.False(t, gateway.IsRateLimited(err))
	})

	t.Run("nil", func(t *testing.T) {
		assert.NoError(t, toGatewayError(nil))
	})
}

func TestCountsAsHealthy(t *testing.T) {
	assert.True(t, countsAsHealthy(nil))
	assert.True(t, countsAsHealthy(&stripe.Error{HTTPStatusCode: http.StatusBadRequest}))
	assert.True(t, countsAsHealthy(&stripe.Error{HTTPStatusCode: http.StatusPaymentRequired}))
	assert.False(t, countsAsHealthy(&stripe.Error{HTTPStatusCode: http.StatusTooManyRequests}))
	assert.False(t, countsAsHealthy(&stripe.Error{HTTPStatusCode: http.StatusBadGateway}))
	assert.False(t, countsAsHealthy(errors.New("connection refused")))
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	s := &Stripe{
		breaker: newBreaker("test", BreakerSettings{MaxFailures: 2, OpenTimeout: time.Minute}, quietLogger()),
		logger:  quietLogger(),
	}
	calls := 0
	failing := func() (*stripe.Balance, error) {
		calls++
		return nil, &stripe.Error{HTTPStatusCode: http.StatusInternalServerError, Msg: "oops"}
	}

	for i := 0; i < 2; i++ {
		_, err := call(s, gateway.OpRetrieveBalance, failing)
		require.Error(t, err)
	}

	_, err := call(s, gateway.OpRetrieveBalance, failing)
	var ge *gateway.Error
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, http.StatusServiceUnavailable, ge.StatusCode)
	assert.Equal(t, 2, calls)
}

func TestBreakerIgnoresClientErrors(t *testing.T) {
	s := &Stripe{
		breaker: newBreaker("test", BreakerSettings{MaxFailures: 1, OpenTimeout: time.Minute}, quietLogger()),
		logger:  quietLogger(),
	}
	declined := func() (*stripe.PaymentIntent, error) {
		return nil, &stripe.Error{HTTPStatusCode: http.StatusPaymentRequired, Code: stripe.ErrorCode(gateway.CodeCardDeclined)}
	}

	for i := 0; i < 3; i++ {
		_, err := call(s, gateway.OpCreatePaymentIntent, declined)
		var ge *gateway.Error
		require.ErrorAs(t, err, &ge)
		assert.Equal(t, gateway.CodeCardDeclined, ge.Code)
	}
	assert.Equal(t, gobreaker.StateClosed, s.breaker.State())
}

func TestAccountParams(t *testing.T) {
	p := accountParams(gateway.AccountParams{
		Email:            "ops@example.com",
		Country:          "FR",
		RequestTransfers: true,
		Controller: gateway.Controller{
			FeePayer:   gateway.PartyApplication,
			LossBearer: gateway.PartyApplication,
			Dashboard:  gateway.DashboardNone,
		},
	})

	assert.Equal(t, "ops@example.com", *p.Email)
	assert.Equal(t, "FR", *p.Country)
	assert.True(t, *p.Capabilities.Transfers.Requested)
	assert.Equal(t, "application", *p.Controller.Fees.Payer)
	assert.Equal(t, "application", *p.Controller.Losses.Payments)
	assert.Equal(t, "none", *p.Controller.StripeDashboard.Type)

	bare := accountParams(gateway.AccountParams{})
	assert.Nil(t, bare.Email)
	assert.Nil(t, bare.Capabilities)
	assert.Nil(t, bare.Controller)
}

func TestPaymentIntentParams(t *testing.T) {
	fee := int64(50)
	p := paymentIntentParams(gateway.PaymentIntentParams{
		Amount:               1000,
		Currency:             "eur",
		PaymentMethodTypes:   []string{"card"},
		Destination:          "acct_123",
		ApplicationFeeAmount: &fee,
		Metadata:             map[string]string{"order_id": "o-1"},
	})

	assert.Equal(t, int64(1000), *p.Amount)
	assert.Equal(t, "eur", *p.Currency)
	require.Len(t, p.PaymentMethodTypes, 1)
	assert.Equal(t, "card", *p.PaymentMethodTypes[0])
	assert.Equal(t, "acct_123", *p.TransferData.Destination)
	assert.Equal(t, int64(50), *p.ApplicationFeeAmount)
	assert.Equal(t, "o-1", p.Metadata["order_id"])

	platform := paymentIntentParams(gateway.PaymentIntentParams{Amount: 1, Currency: "usd"})
	assert.Nil(t, platform.TransferData)
	assert.Nil(t, platform.ApplicationFeeAmount)
}

func TestToAccount(t *testing.T) {
	acc := toAccount(&stripe.Account{
		ID:             "acct_1",
		ChargesEnabled: true,
		Requirements:   &stripe.AccountRequirements{CurrentlyDue: []string{"tos_acceptance.date"}},
		Capabilities:   &stripe.AccountCapabilities{Transfers: stripe.AccountCapabilityStatusActive},
	})

	assert.Equal(t, &gateway.Account{
		ID:              "acct_1",
		ChargesEnabled:  true,
		RequirementsDue: []string{"tos_acceptance.date"},
		TransfersStatus: "active",
	}, acc)

	bare := toAccount(&stripe.Account{ID: "acct_2"})
	assert.Empty(t, bare.TransfersStatus)
	assert.NotNil(t, bare.RequirementsDue)
}

func TestToAmounts(t *testing.T) {
	got := toAmounts([]*stripe.Amount{
		{Amount: 500, Currency: stripe.CurrencyEUR},
		nil,
		{Amount: 7, Currency: stripe.CurrencyUSD},
	})
	assert.Equal(t, []gateway.Amount{{Currency: "eur", Amount: 500}, {Currency: "usd", Amount: 7}}, got)
}
