package processor

import (
	"context"
	"errors"
	"net/http"

	"github.com/sony/gobreaker"
	"github.com/stripe/stripe-go/v78"

	"github.com/ibrahimkeyboad/gopay-connect/internal/core/gateway"
)

func accountParams(in gateway.AccountParams) *stripe.AccountParams {
	p := &stripe.AccountParams{}
	if in.Email != "" {
		p.Email = stripe.String(in.Email)
	}
	if in.Country != "" {
		p.Country = stripe.String(in.Country)
	}
	if in.RequestTransfers {
		p.Capabilities = &stripe.AccountCapabilitiesParams{
			Transfers: &stripe.AccountCapabilitiesTransfersParams{Requested: stripe.Bool(true)},
		}
	}
	if !in.Controller.IsZero() {
		c := &stripe.AccountControllerParams{}
		if in.Controller.FeePayer != "" {
			c.Fees = &stripe.AccountControllerFeesParams{Payer: stripe.String(in.Controller.FeePayer)}
		}
		if in.Controller.LossBearer != "" {
			c.Losses = &stripe.AccountControllerLossesParams{Payments: stripe.String(in.Controller.LossBearer)}
		}
		if in.Controller.Dashboard != "" {
			c.StripeDashboard = &stripe.AccountControllerStripeDashboardParams{Type: stripe.String(in.Controller.Dashboard)}
		}
		p.Controller = c
	}
	return p
}

func paymentIntentParams(in gateway.PaymentIntentParams) *stripe.PaymentIntentParams {
	p := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(in.Amount),
		Currency:           stripe.String(in.Currency),
		PaymentMethodTypes: stripe.StringSlice(in.PaymentMethodTypes),
	}
	if in.Destination != "" {
		p.TransferData = &stripe.PaymentIntentTransferDataParams{Destination: stripe.String(in.Destination)}
	}
	if in.ApplicationFeeAmount != nil {
		p.ApplicationFeeAmount = stripe.Int64(*in.ApplicationFeeAmount)
	}
	for k, v := range in.Metadata {
		p.AddMetadata(k, v)
	}
	return p
}

func toAccount(acc *stripe.Account) *gateway.Account {
	out := &gateway.Account{
		ID:              acc.ID,
		ChargesEnabled:  acc.ChargesEnabled,
		PayoutsEnabled:  acc.PayoutsEnabled,
		RequirementsDue: []string{},
	}
	if acc.Requirements != nil {
		out.RequirementsDue = append(out.RequirementsDue, acc.Requirements.CurrentlyDue...)
	}
	if acc.Capabilities != nil {
		out.TransfersStatus = string(acc.Capabilities.Transfers)
	}
	return out
}

func toPaymentIntent(pi *stripe.PaymentIntent) *gateway.PaymentIntent {
	return &gateway.PaymentIntent{
		ID:                   pi.ID,
		ClientSecret:         pi.ClientSecret,
		Status:               string(pi.Status),
		Amount:               pi.Amount,
		Currency:             string(pi.Currency),
		ApplicationFeeAmount: pi.ApplicationFeeAmount,
	}
}

func toAmounts(lines []*stripe.Amount) []gateway.Amount {
	out := make([]gateway.Amount, 0, len(lines))
	for _, line := range lines {
		if line == nil {
			continue
		}
		out = append(out, gateway.Amount{Currency: string(line.Currency), Amount: line.Amount})
	}
	return out
}

// toGatewayError maps SDK, breaker and transport failures onto *gateway.Error.
func toGatewayError(err error) error {
	if err == nil {
		return nil
	}

	var se *stripe.Error
	if errors.As(err, &se) {
		return &gateway.Error{
			RateLimited: se.HTTPStatusCode == http.StatusTooManyRequests || string(se.Code) == gateway.CodeRateLimit,
			StatusCode:  se.HTTPStatusCode,
			Code:        string(se.Code),
			RequestID:   se.RequestID,
			Message:     se.Msg,
			Err:         err,
		}
	}

	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return &gateway.Error{
			StatusCode: http.StatusServiceUnavailable,
			Message:    "Payment processor temporarily unavailable",
			Err:        err,
		}
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return &gateway.Error{Message: "Payment processor request timed out", Err: err}
	}

	return &gateway.Error{Message: err.Error(), Err: err}
}
