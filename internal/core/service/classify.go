package service

import (
	"errors"
	"fmt"

	"github.com/ibrahimkeyboad/gopay-connect/internal/core/domain"
	"github.com/ibrahimkeyboad/gopay-connect/internal/core/gateway"
)

// processorKinds gives well-known processor error codes a specific kind.
// Anything not listed is a PROCESSOR_API_ERROR.
var processorKinds = map[string]domain.ErrorKind{
	gateway.CodeRateLimit:                domain.KindRateLimited,
	gateway.CodeAmountTooSmall:           domain.KindAmountTooSmall,
	gateway.CodeCardDeclined:             domain.KindPaymentDeclined,
	gateway.CodeAuthenticationFailure:    domain.KindPaymentAuthenticationFailed,
	gateway.CodeBalanceInsufficient:      domain.KindInsufficientFunds,
	gateway.CodeInsufficientCapabilities: domain.KindCapabilityNotSupported,
	gateway.CodeTransfersNotAllowed:      domain.KindCapabilityNotSupported,
	gateway.CodeCurrencyMismatch:         domain.KindCurrencyMismatch,
}

// classify turns a failed processor call into a BusinessError.
// Errors that are already classified pass through untouched.
func classify(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	if be, ok := domain.AsBusinessError(err); ok {
		return be
	}

	prefix := fmt.Sprintf(format, args...)

	var ge *gateway.Error
	if !errors.As(err, &ge) {
		// Transport failures and timeouts the gateway did not classify.
		return domain.NewError(domain.KindProcessorAPI, "%s: %v", prefix, err).WithCause(err)
	}

	kind := domain.KindProcessorAPI
	if gateway.IsRateLimited(ge) {
		kind = domain.KindRateLimited
	} else if mapped, ok := processorKinds[ge.Code]; ok {
		kind = mapped
	}

	details := map[string]any{}
	if ge.Code != "" {
		details[domain.DetailProcessorCode] = ge.Code
	}
	if ge.RequestID != "" {
		details[domain.DetailRequestID] = ge.RequestID
	}

	return domain.NewError(kind, "%s: %s", prefix, processorMessage(ge)).
		WithDetails(details).
		WithCause(err)
}
