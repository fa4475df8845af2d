package handler

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ibrahimkeyboad/gopay-connect/internal/core/domain"
)

const internalErrorMessage = "Unexpected internal error"

// statusByKind is the only place a transport status is chosen for an error.
var statusByKind = map[domain.ErrorKind]int{
	domain.KindOnboardingRequired: fiber.StatusConflict,
	domain.KindInsufficientFunds:  fiber.StatusConflict,
	domain.KindConflict:           fiber.StatusConflict,

	domain.KindValidation:             fiber.StatusBadRequest,
	domain.KindBadRequest:             fiber.StatusBadRequest,
	domain.KindCapabilityNotSupported: fiber.StatusBadRequest,
	domain.KindCurrencyMismatch:       fiber.StatusBadRequest,
	domain.KindAmountTooSmall:         fiber.StatusBadRequest,

	domain.KindNotFound:    fiber.StatusNotFound,
	domain.KindRateLimited: fiber.StatusTooManyRequests,

	domain.KindPaymentAuthenticationFailed: fiber.StatusPaymentRequired,
	domain.KindPaymentDeclined:             fiber.StatusPaymentRequired,

	domain.KindProcessorAPI: fiber.StatusBadGateway,
}

// StatusFor maps an error kind to its HTTP status; unknown kinds are 500.
func StatusFor(kind domain.ErrorKind) int {
	if status, ok := statusByKind[kind]; ok {
		return status
	}
	return fiber.StatusInternalServerError
}

// ErrorResponse is the envelope of every failed request.
type ErrorResponse struct {
	Code      domain.ErrorKind `json:"code"`
	Message   string           `json:"message"`
	Timestamp time.Time        `json:"timestamp"`
	Details   map[string]any   `json:"details,omitempty"`
}

// ErrorHandler translates any error returned by a route into the envelope.
func ErrorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		be := toBusinessError(err)
		status := StatusFor(be.Kind)

		resp := ErrorResponse{
			Code:      be.Kind,
			Message:   be.Message,
			Timestamp: time.Now().UTC(),
			Details:   be.Details,
		}

		attrs := []any{
			"code", be.Kind,
			"status", status,
			"method", c.Method(),
			"path", c.Path(),
			"request_id", requestID(c),
		}
		switch {
		case status >= fiber.StatusInternalServerError:
			logger.Error("❌ request failed", append(attrs, "error", err)...)
		default:
			logger.Info("request rejected", append(attrs, "message", be.Message)...)
		}

		return c.Status(status).JSON(resp)
	}
}

// toBusinessError folds framework and unclassified errors into the taxonomy.
func toBusinessError(err error) *domain.BusinessError {
	if be, ok := domain.AsBusinessError(err); ok {
		if be.Kind == domain.KindInternal {
			return domain.NewError(domain.KindInternal, internalErrorMessage)
		}
		return be
	}

	var fe *fiber.Error
	if errors.As(err, &fe) {
		switch {
		case fe.Code == fiber.StatusNotFound:
			return domain.NotFound("%s", fe.Message)
		case fe.Code == fiber.StatusTooManyRequests:
			return domain.NewError(domain.KindRateLimited, "%s", fe.Message)
		case fe.Code >= 400 && fe.Code < 500:
			return domain.BadRequest("%s", fe.Message)
		}
	}

	return domain.NewError(domain.KindInternal, internalErrorMessage)
}
