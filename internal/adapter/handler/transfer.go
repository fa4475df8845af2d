package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ibrahimkeyboad/gopay-connect/internal/core/domain"
	"github.com/ibrahimkeyboad/gopay-connect/internal/core/service"
)

type TransferHandler struct {
	Transfers *service.TransferService
}

// ToTreasury moves platform funds to the treasury account.
func (h *TransferHandler) ToTreasury(c *fiber.Ctx) error {
	var req domain.TransferRequest
	if err := parseJSON(c, &req); err != nil {
		return err
	}

	result, err := h.Transfers.TransferToTreasury(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.JSON(result)
}
