package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ibrahimkeyboad/gopay-connect/internal/core/service"
)

type StateHandler struct {
	State *service.StateService
}

// Snapshot never fails; partial processor outages show up inside the body.
func (h *StateHandler) Snapshot(c *fiber.Ctx) error {
	return c.JSON(h.State.Snapshot(c.UserContext()))
}

func (h *StateHandler) Balance(c *fiber.Ctx) error {
	balance, err := h.State.PlatformBalance(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(balance)
}
