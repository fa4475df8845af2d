package handler

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"

	"github.com/ibrahimkeyboad/gopay-connect/internal/core/domain"
	"github.com/ibrahimkeyboad/gopay-connect/internal/core/service"
)

type PaymentHandler struct {
	Payments *service.PaymentService
}

// CreateSplitPayment charges a customer on behalf of a connected account.
func (h *PaymentHandler) CreateSplitPayment(c *fiber.Ctx) error {
	// 1. Parse JSON
	var req domain.PaymentIntentRequest
	if err := parseJSON(c, &req); err != nil {
		return err
	}

	// 2. Validate and create the intent
	created, err := h.Payments.CreateSplitPayment(c.UserContext(), req)
	if err != nil {
		return err
	}

	// 3. Hand the client secret back to the browser
	return c.JSON(created)
}

// CreatePlatformPayment charges a customer for the platform itself.
func (h *PaymentHandler) CreatePlatformPayment(c *fiber.Ctx) error {
	var req domain.PaymentIntentRequest
	if err := parseJSON(c, &req); err != nil {
		return err
	}

	created, err := h.Payments.CreatePlatformPayment(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.JSON(created)
}

func (h *PaymentHandler) GetPayment(c *fiber.Ctx) error {
	status, err := h.Payments.GetPaymentIntent(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(status)
}

// parseJSON decodes a money-moving request body regardless of Content-Type.
// A missing or non-positive amount wins over any other decode failure.
func parseJSON(c *fiber.Ctx, out any) error {
	decode := c.App().Config().JSONDecoder
	if err := decode(c.Body(), out); err != nil {
		if amountErr := invalidAmount(decode, c.Body()); amountErr != nil {
			return amountErr
		}
		return domain.Validation("Invalid request body", map[string]any{"body": err.Error()})
	}
	return nil
}

// invalidAmount inspects only the "amount" field of a body that failed to decode.
// It returns nil when the body is not a JSON object or the amount is usable.
func invalidAmount(decode func([]byte, any) error, body []byte) error {
	var fields map[string]json.RawMessage
	if decode(body, &fields) != nil {
		return nil
	}
	var amount int64
	if raw, ok := fields["amount"]; ok && decode(raw, &amount) == nil && amount > 0 {
		return nil
	}
	return domain.BadRequest("Missing or invalid amount")
}
