// Package gateway defines what the core needs from the payment processor.
// Implementations translate their own failures into *Error so the core can
// classify them without knowing the processor's SDK.
package gateway

import (
	"context"
	"errors"
	"fmt"
)

// Processor is the boundary contract with the external payment processor.
type Processor interface {
	CreateAccount(ctx context.Context, params AccountParams) (*Account, error)
	RetrieveAccount(ctx context.Context, id string) (*Account, error)
	UpdateAccount(ctx context.Context, id string, params AccountParams) (*Account, error)
	CreateAccountLink(ctx context.Context, accountID, refreshURL, returnURL string) (*AccountLink, error)
	CreatePaymentIntent(ctx context.Context, params PaymentIntentParams) (*PaymentIntent, error)
	RetrievePaymentIntent(ctx context.Context, id string) (*PaymentIntent, error)
	CreateTransfer(ctx context.Context, params TransferParams) (*Transfer, error)
	RetrieveBalance(ctx context.Context) (*Balance, error)
}

// DashboardNone gives the account holder no processor dashboard.
const DashboardNone = "none"

// PartyApplication makes the platform pay processor fees and bear losses.
const PartyApplication = "application"

// Controller says who operates the connected account.
type Controller struct {
	FeePayer   string
	LossBearer string
	Dashboard  string
}

// IsZero reports an unset controller, which is then not sent.
func (c Controller) IsZero() bool {
	return c == Controller{}
}

// AccountParams configures account creation and updates. Zero values are not sent.
type AccountParams struct {
	Email            string
	Country          string
	RequestTransfers bool
	Controller       Controller
}

// Account is the subset of processor account state the core reads.
type Account struct {
	ID              string
	ChargesEnabled  bool
	PayoutsEnabled  bool
	RequirementsDue []string
	// TransfersStatus is the "transfers" capability status, empty when not requested.
	TransfersStatus string
}

type AccountLink struct {
	URL string
}

type PaymentIntentParams struct {
	Amount               int64
	Currency             string
	PaymentMethodTypes   []string
	Destination          string
	ApplicationFeeAmount *int64
	Metadata             map[string]string
}

type PaymentIntent struct {
	ID                   string
	ClientSecret         string
	Status               string
	Amount               int64
	Currency             string
	ApplicationFeeAmount int64
}

type TransferParams struct {
	Amount      int64
	Currency    string
	Destination string
	Description string
}

type Transfer struct {
	ID          string
	Amount      int64
	Currency    string
	Destination string
}

// Amount is one {currency, amount} line of a balance.
type Amount struct {
	Currency string
	Amount   int64
}

type Balance struct {
	Available []Amount
	Pending   []Amount
}

// Well-known processor error codes the core gives a specific meaning.
const (
	CodeRateLimit                = "rate_limit"
	CodeAmountTooSmall           = "amount_too_small"
	CodeCardDeclined             = "card_declined"
	CodeAuthenticationFailure    = "payment_intent_authentication_failure"
	CodeBalanceInsufficient      = "balance_insufficient"
	CodeInsufficientCapabilities = "insufficient_capabilities_for_transfer"
	CodeCurrencyMismatch         = "currency_mismatch"
	CodeTransfersNotAllowed      = "transfers_not_allowed"
)

// Error is a classified upstream failure.
type Error struct {
	RateLimited bool
	StatusCode  int
	Code        string
	RequestID   string
	Message     string
	Err         error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Code != "" {
		return fmt.Sprintf("processor error (%s): %s", e.Code, msg)
	}
	return fmt.Sprintf("processor error: %s", msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsRateLimited reports whether err is a rate-limited processor response.
func IsRateLimited(err error) bool {
	var ge *Error
	return errors.As(err, &ge) && ge.RateLimited
}
