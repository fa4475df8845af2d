package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/ibrahimkeyboad/gopay-connect/internal/adapter/handler"
	"github.com/ibrahimkeyboad/gopay-connect/internal/adapter/middleware"
	"github.com/ibrahimkeyboad/gopay-connect/internal/adapter/processor"
	"github.com/ibrahimkeyboad/gopay-connect/internal/adapter/storage"
	"github.com/ibrahimkeyboad/gopay-connect/internal/core/config"
	"github.com/ibrahimkeyboad/gopay-connect/internal/core/logging"
	"github.com/ibrahimkeyboad/gopay-connect/internal/core/service"
)

func main() {
	// 1. Load Config
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("❌ Invalid configuration", "error", err)
		os.Exit(1)
	}

	// 2. Setup Logger
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	// 3. Processor client and the in-memory registry
	stripe := processor.NewStripe(cfg.StripeSecretKey, nil, processor.BreakerSettings{
		MaxFailures: cfg.BreakerMaxFailures,
		OpenTimeout: cfg.BreakerOpenTimeout,
	}, logger)
	registry := storage.NewMemoryRegistry()

	// 4. Services
	services := handler.Services{
		Accounts: service.NewAccountService(stripe, registry, service.AccountOptions{
			RootURL:                  cfg.RootURL,
			RequestTransfersOnCreate: cfg.RequestTransfersOnCreate,
		}, logger),
		Payments:  service.NewPaymentService(stripe, logger),
		Transfers: service.NewTransferService(stripe, registry, logger),
		State:     service.NewStateService(stripe, registry, cfg.RootURL, logger),
	}

	// 5. Setup Fiber
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		Immutable:             true,
		ErrorHandler:          handler.ErrorHandler(logger),
	})

	app.Use(recover.New(recover.Config{EnableStackTrace: !cfg.IsProduction()}))
	app.Use(cors.New(cors.Config{AllowOrigins: cfg.AllowedOrigins}))
	app.Use(middleware.RequestID())
	app.Use(middleware.RequestLogger(logger))

	// 6. Routes
	replay := middleware.Idempotency(middleware.NewReplayStore(cfg.IdempotencyTTL), logger)
	handler.RegisterRoutes(app, services, replay)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("🚀 Server starting", "env", cfg.Env, "port", cfg.Port, "root_url", cfg.RootURL)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("Server forced to shutdown", "error", err)
			os.Exit(1)
		}
	}()

	<-stop
	slog.Info("🛑 Shutting down server...")

	if err := app.ShutdownWithTimeout(cfg.ShutdownTimeout); err != nil {
		slog.Error("Server shutdown failed", "error", err)
	}

	slog.Info("👋 Server exited successfully")
}
