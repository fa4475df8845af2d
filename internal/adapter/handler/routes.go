package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ibrahimkeyboad/gopay-connect/internal/adapter/middleware"
	"github.com/ibrahimkeyboad/gopay-connect/internal/core/service"
)

// Services bundles the workflows the HTTP surface exposes.
type Services struct {
	Accounts  *service.AccountService
	Payments  *service.PaymentService
	Transfers *service.TransferService
	State     *service.StateService
}

// RegisterRoutes mounts every endpoint. replay guards the money-moving POSTs
// and may be nil.
func RegisterRoutes(app *fiber.App, svc Services, replay fiber.Handler) {
	accounts := &AccountHandler{Accounts: svc.Accounts}
	payments := &PaymentHandler{Payments: svc.Payments}
	transfers := &TransferHandler{Transfers: svc.Transfers}
	state := &StateHandler{State: svc.State}

	guarded := func(h fiber.Handler) []fiber.Handler {
		if replay == nil {
			return []fiber.Handler{h}
		}
		return []fiber.Handler{replay, h}
	}

	app.Get("/healthz", Health)

	// Read-only views
	app.Get("/api/state", state.Snapshot)
	app.Get("/api/balance", state.Balance)

	// Accounts. Treasury routes go first so "treasury" is never read as an :id.
	app.Post("/accounts", accounts.CreateAccount)
	app.Post("/accounts/treasury", accounts.CreateTreasuryAccount)
	app.Post("/accounts/treasury/onboard", accounts.OnboardTreasury)
	app.Post("/accounts/treasury/request-transfers", accounts.RequestTreasuryTransfers)
	app.Post("/accounts/treasury/verify", accounts.VerifyTreasury)
	app.Post("/accounts/:id/onboard", accounts.Onboard)
	app.Post("/accounts/:id/verify", accounts.Verify)

	// Money movement
	app.Post("/payments", guarded(payments.CreateSplitPayment)...)
	app.Post("/payments/platform", guarded(payments.CreatePlatformPayment)...)
	app.Get("/payments/:id", payments.GetPayment)
	app.Post("/transfers/treasury", guarded(transfers.ToTreasury)...)

	// Processor redirects after hosted onboarding / checkout
	app.Get("/return", landing("Onboarding finished. You can return to the platform."))
	app.Get("/refresh", landing("Onboarding link expired. Request a new one from the platform."))
	app.Get("/success", landing("Payment submitted."))
}

func Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func landing(message string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendString(message)
	}
}

func requestID(c *fiber.Ctx) string {
	return middleware.RequestIDFrom(c)
}
