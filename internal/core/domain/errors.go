package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind is the stable code returned to API clients. Clients branch on it,
// so existing values must never be renamed.
type ErrorKind string

const (
	// Onboarding / capabilities
	KindOnboardingRequired     ErrorKind = "ONBOARDING_REQUIRED"
	KindCapabilityNotSupported ErrorKind = "CAPABILITY_NOT_SUPPORTED"

	// Payments
	KindPaymentAuthenticationFailed ErrorKind = "PAYMENT_AUTHENTICATION_FAILED"
	KindPaymentDeclined             ErrorKind = "PAYMENT_DECLINED"

	// Transfers / balance
	KindInsufficientFunds ErrorKind = "INSUFFICIENT_FUNDS"
	KindCurrencyMismatch  ErrorKind = "CURRENCY_MISMATCH"
	KindAmountTooSmall    ErrorKind = "AMOUNT_TOO_SMALL"

	// Generic validations / conflicts
	KindValidation ErrorKind = "VALIDATION_ERROR"
	KindBadRequest ErrorKind = "BAD_REQUEST"
	KindConflict   ErrorKind = "CONFLICT"
	KindNotFound   ErrorKind = "NOT_FOUND"

	// Processor and infrastructure
	KindProcessorAPI ErrorKind = "PROCESSOR_API_ERROR"
	KindRateLimited  ErrorKind = "RATE_LIMITED"
	KindInternal     ErrorKind = "INTERNAL_ERROR"
)

// Detail keys shared by producers and API clients.
const (
	DetailAvailableByCurrency = "available_by_currency"
	DetailRequested           = "requested"
	DetailCurrency            = "currency"
	DetailProcessorCode       = "processor_code"
	DetailRequestID           = "request_id"
)

// BusinessError is a classified failure. Workflow code returns it and never
// decides a transport status itself.
type BusinessError struct {
	Kind    ErrorKind
	Message string
	Details map[string]any
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

// NewError builds a BusinessError without details.
func NewError(kind ErrorKind, format string, args ...any) *BusinessError {
	return &BusinessError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WithDetails attaches structured context. Empty maps are dropped.
func (e *BusinessError) WithDetails(details map[string]any) *BusinessError {
	if len(details) == 0 {
		e.Details = nil
		return e
	}
	e.Details = details
	return e
}

// WithCause keeps the underlying error for logs.
func (e *BusinessError) WithCause(err error) *BusinessError {
	e.Err = err
	return e
}

func BadRequest(format string, args ...any) *BusinessError {
	return NewError(KindBadRequest, format, args...)
}

func NotFound(format string, args ...any) *BusinessError {
	return NewError(KindNotFound, format, args...)
}

func Conflict(format string, args ...any) *BusinessError {
	return NewError(KindConflict, format, args...)
}

func OnboardingRequired(format string, args ...any) *BusinessError {
	return NewError(KindOnboardingRequired, format, args...)
}

// Validation reports a malformed request with per-field details.
func Validation(message string, fields map[string]any) *BusinessError {
	return NewError(KindValidation, "%s", message).WithDetails(fields)
}

// InsufficientFunds carries the shortfall so clients can show it without
// parsing the message.
func InsufficientFunds(currency string, available, requested int64) *BusinessError {
	return NewError(KindInsufficientFunds,
		"Insufficient platform balance in %s (available=%d, requested=%d).", currency, available, requested).
		WithDetails(map[string]any{
			DetailAvailableByCurrency: map[string]int64{strings.ToLower(currency): available},
			DetailRequested:           requested,
			DetailCurrency:            currency,
		})
}

// AsBusinessError extracts a BusinessError from an error chain.
func AsBusinessError(err error) (*BusinessError, bool) {
	var be *BusinessError
	if errors.As(err, &be) {
		return be, true
	}
	return nil, false
}

// KindOf returns the classified kind of err, INTERNAL_ERROR when unclassified.
func KindOf(err error) ErrorKind {
	if be, ok := AsBusinessError(err); ok {
		return be.Kind
	}
	return KindInternal
}
