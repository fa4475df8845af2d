package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ibrahimkeyboad/gopay-connect/internal/core/service"
)

type AccountHandler struct {
	Accounts *service.AccountService
}

// CreateAccount opens a platform-controlled connected account.
func (h *AccountHandler) CreateAccount(c *fiber.Ctx) error {
	created, err := h.Accounts.CreateAccount(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(created)
}

// CreateTreasuryAccount accepts optional `email` and `country` from the query or form.
func (h *AccountHandler) CreateTreasuryAccount(c *fiber.Ctx) error {
	created, err := h.Accounts.CreateTreasuryAccount(c.UserContext(), c.FormValue("email"), c.FormValue("country"))
	if err != nil {
		return err
	}
	return c.JSON(created)
}

func (h *AccountHandler) OnboardTreasury(c *fiber.Ctx) error {
	link, err := h.Accounts.IssueTreasuryOnboardingLink(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(link)
}

func (h *AccountHandler) RequestTreasuryTransfers(c *fiber.Ctx) error {
	res, err := h.Accounts.RequestTransfersCapability(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(res)
}

func (h *AccountHandler) VerifyTreasury(c *fiber.Ctx) error {
	summary, err := h.Accounts.VerifyTreasuryAccount(c.UserContext(), c.FormValue("id"))
	if err != nil {
		return err
	}
	return c.JSON(summary)
}

// Onboard issues a fresh onboarding link for /accounts/:id/onboard.
func (h *AccountHandler) Onboard(c *fiber.Ctx) error {
	link, err := h.Accounts.IssueOnboardingLink(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(link)
}

func (h *AccountHandler) Verify(c *fiber.Ctx) error {
	summary, err := h.Accounts.VerifyAccount(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(summary)
}
