// Package processor talks to Stripe on behalf of the core. Every call runs
// through a circuit breaker and every failure comes back as *gateway.Error.
package processor

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"

	"github.com/ibrahimkeyboad/gopay-connect/internal/core/gateway"
)

const accountLinkOnboarding = "account_onboarding"

// BreakerSettings tunes the circuit breaker guarding Stripe calls.
type BreakerSettings struct {
	MaxFailures uint32
	OpenTimeout time.Duration
}

// Stripe implements gateway.Processor with stripe-go.
type Stripe struct {
	api     *client.API
	breaker *gobreaker.CircuitBreaker
	logger  *slog.Logger
}

var _ gateway.Processor = (*Stripe)(nil)

// NewStripe builds a client for secretKey. Backends may be nil to use the
// SDK defaults.
func NewStripe(secretKey string, backends *stripe.Backends, settings BreakerSettings, logger *slog.Logger) *Stripe {
	if logger == nil {
		logger = slog.Default()
	}
	return &Stripe{
		api:     client.New(secretKey, backends),
		breaker: newBreaker("stripe", settings, logger),
		logger:  logger,
	}
}

func newBreaker(name string, settings BreakerSettings, logger *slog.Logger) *gobreaker.CircuitBreaker {
	maxFailures := settings.MaxFailures
	if maxFailures == 0 {
		maxFailures = 5
	}
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     settings.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("⚡ processor circuit breaker changed state",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
		IsSuccessful: countsAsHealthy,
	})
}

// countsAsHealthy keeps client-side rejections (declines, validation) from
// tripping the breaker. Only transport failures, 429s and 5xx count.
func countsAsHealthy(err error) bool {
	if err == nil {
		return true
	}
	var se *stripe.Error
	if errors.As(err, &se) {
		return se.HTTPStatusCode >= 400 && se.HTTPStatusCode < 500 && se.HTTPStatusCode != http.StatusTooManyRequests
	}
	return false
}

// call runs fn behind the breaker and normalizes its error.
func call[T any](s *Stripe, op string, fn func() (T, error)) (T, error) {
	out, err := s.breaker.Execute(func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		var zero T
		s.logger.Debug("processor call failed", "op", op, "error", err)
		return zero, toGatewayError(err)
	}
	return out.(T), nil
}

func (s *Stripe) CreateAccount(ctx context.Context, params gateway.AccountParams) (*gateway.Account, error) {
	p := accountParams(params)
	// Stripe rejects type and controller together.
	if params.Controller.IsZero() {
		p.Type = stripe.String(string(stripe.AccountTypeExpress))
	}
	p.Context = ctx

	acc, err := call(s, gateway.OpCreateAccount, func() (*stripe.Account, error) {
		return s.api.Accounts.New(p)
	})
	if err != nil {
		return nil, err
	}
	return toAccount(acc), nil
}

func (s *Stripe) RetrieveAccount(ctx context.Context, id string) (*gateway.Account, error) {
	p := &stripe.AccountParams{}
	p.Context = ctx

	acc, err := call(s, gateway.OpRetrieveAccount, func() (*stripe.Account, error) {
		return s.api.Accounts.GetByID(id, p)
	})
	if err != nil {
		return nil, err
	}
	return toAccount(acc), nil
}

func (s *Stripe) UpdateAccount(ctx context.Context, id string, params gateway.AccountParams) (*gateway.Account, error) {
	p := accountParams(gateway.AccountParams{
		Email:            params.Email,
		RequestTransfers: params.RequestTransfers,
	})
	p.Context = ctx

	acc, err := call(s, gateway.OpUpdateAccount, func() (*stripe.Account, error) {
		return s.api.Accounts.Update(id, p)
	})
	if err != nil {
		return nil, err
	}
	return toAccount(acc), nil
}

func (s *Stripe) CreateAccountLink(ctx context.Context, accountID, refreshURL, returnURL string) (*gateway.AccountLink, error) {
	p := &stripe.AccountLinkParams{
		Account:    stripe.String(accountID),
		RefreshURL: stripe.String(refreshURL),
		ReturnURL:  stripe.String(returnURL),
		Type:       stripe.String(accountLinkOnboarding),
	}
	p.Context = ctx

	link, err := call(s, gateway.OpCreateAccountLink, func() (*stripe.AccountLink, error) {
		return s.api.AccountLinks.New(p)
	})
	if err != nil {
		return nil, err
	}
	return &gateway.AccountLink{URL: link.URL}, nil
}

func (s *Stripe) CreatePaymentIntent(ctx context.Context, params gateway.PaymentIntentParams) (*gateway.PaymentIntent, error) {
	p := paymentIntentParams(params)
	p.Context = ctx

	pi, err := call(s, gateway.OpCreatePaymentIntent, func() (*stripe.PaymentIntent, error) {
		return s.api.PaymentIntents.New(p)
	})
	if err != nil {
		return nil, err
	}
	return toPaymentIntent(pi), nil
}

func (s *Stripe) RetrievePaymentIntent(ctx context.Context, id string) (*gateway.PaymentIntent, error) {
	p := &stripe.PaymentIntentParams{}
	p.Context = ctx

	pi, err := call(s, gateway.OpRetrievePaymentIntent, func() (*stripe.PaymentIntent, error) {
		return s.api.PaymentIntents.Get(id, p)
	})
	if err != nil {
		return nil, err
	}
	return toPaymentIntent(pi), nil
}

func (s *Stripe) CreateTransfer(ctx context.Context, params gateway.TransferParams) (*gateway.Transfer, error) {
	p := &stripe.TransferParams{
		Amount:      stripe.Int64(params.Amount),
		Currency:    stripe.String(params.Currency),
		Destination: stripe.String(params.Destination),
	}
	if params.Description != "" {
		p.Description = stripe.String(params.Description)
	}
	p.Context = ctx

	tr, err := call(s, gateway.OpCreateTransfer, func() (*stripe.Transfer, error) {
		return s.api.Transfers.New(p)
	})
	if err != nil {
		return nil, err
	}

	out := &gateway.Transfer{
		ID:       tr.ID,
		Amount:   tr.Amount,
		Currency: string(tr.Currency),
	}
	if tr.Destination != nil {
		out.Destination = tr.Destination.ID
	}
	return out, nil
}

func (s *Stripe) RetrieveBalance(ctx context.Context) (*gateway.Balance, error) {
	p := &stripe.BalanceParams{}
	p.Context = ctx

	b, err := call(s, gateway.OpRetrieveBalance, func() (*stripe.Balance, error) {
		return s.api.Balance.Get(p)
	})
	if err != nil {
		return nil, err
	}
	return &gateway.Balance{
		Available: toAmounts(b.Available),
		Pending:   toAmounts(b.Pending),
	}, nil
}
